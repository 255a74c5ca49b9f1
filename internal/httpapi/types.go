// payment-requests/internal/httpapi/types.go
package httpapi

import (
	"github.com/shopspring/decimal"

	"github.com/example/payment-requests/internal/payments"
)

// Pointer fields tell a missing field apart from a zero value.

type PaymentRequestIn struct {
	Name          *string          `json:"name"`
	AccountNumber *string          `json:"account_number"`
	Amount        *decimal.Decimal `json:"amount"`
	Currency      *string          `json:"currency"`
}

type PaymentAttemptIn struct {
	PaymentRequestID   *int64           `json:"payment_request_id"`
	Name               *string          `json:"name"`
	PayedAmount        *decimal.Decimal `json:"payed_amount"`
	PayerAccountNumber *string          `json:"payer_account_number"`
	PaymentCurrency    *string          `json:"payment_currency"`
}

type PaymentRequestOut struct {
	Status   string               `json:"status"`
	Received payments.RequestView `json:"received"`
}

type PaymentAttemptOut struct {
	Status   string               `json:"status"`
	Received payments.AttemptView `json:"received"`
}

type ErrorOut struct {
	Status string `json:"status"`
	Code   string `json:"code"`
}

func (in PaymentRequestIn) input() (payments.CreateRequestInput, bool) {
	if in.AccountNumber == nil || in.Amount == nil || in.Currency == nil {
		return payments.CreateRequestInput{}, false
	}
	return payments.CreateRequestInput{
		RequesterAccount: *in.AccountNumber,
		Amount:           *in.Amount,
		Currency:         *in.Currency,
		Name:             deref(in.Name),
	}, true
}

func (in PaymentAttemptIn) input() (payments.SubmitAttemptInput, bool) {
	if in.PaymentRequestID == nil || in.PayedAmount == nil || in.PayerAccountNumber == nil || in.PaymentCurrency == nil {
		return payments.SubmitAttemptInput{}, false
	}
	return payments.SubmitAttemptInput{
		RequestID:       *in.PaymentRequestID,
		PayerAccount:    *in.PayerAccountNumber,
		PaidAmount:      *in.PayedAmount,
		PaymentCurrency: *in.PaymentCurrency,
		Name:            deref(in.Name),
	}, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
