package payments

import "github.com/example/payment-requests/internal/money"

// RequestView is the transport-agnostic result of a request operation.
// Amounts are fixed two-digit decimal strings, times are Unix seconds UTC.
type RequestView struct {
	RequestID     int64  `json:"request_id"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	RequestTime   int64  `json:"request_time"`
	Status        Status `json:"status"`
}

// AttemptView is the result of a successful attempt.
type AttemptView struct {
	PaymentID              string `json:"payment_id"`
	PayerName              string `json:"payer_name"`
	PaidAmount             string `json:"paid_amount"`
	PayerAccountNumber     string `json:"payer_account_number"`
	PaymentCurrency        string `json:"payment_currency"`
	PaymentTime            int64  `json:"payment_time"`
	PaymentRequestID       int64  `json:"payment_request_id"`
	RequesterName          string `json:"requester_name"`
	RequesterAccountNumber string `json:"requester_account_number"`
	RequestAmount          string `json:"request_amount"`
	RequestCurrency        string `json:"request_currency"`
	RequestTime            int64  `json:"request_time"`
	Status                 Status `json:"status"`
}

func newRequestView(req PaymentRequest, name string) RequestView {
	return RequestView{
		RequestID:     req.ID,
		Name:          name,
		AccountNumber: req.RequesterAccount,
		Amount:        req.Amount.StringFixed(money.Places),
		Currency:      req.Currency,
		RequestTime:   req.CreatedAt.UTC().Unix(),
		Status:        req.Status,
	}
}

func newAttemptView(payment Payment, req PaymentRequest, payerName, requesterName string) AttemptView {
	return AttemptView{
		PaymentID:              payment.ID.String(),
		PayerName:              payerName,
		PaidAmount:             payment.Amount.StringFixed(money.Places),
		PayerAccountNumber:     payment.PayerAccount,
		PaymentCurrency:        payment.Currency,
		PaymentTime:            payment.ExecutedAt.UTC().Unix(),
		PaymentRequestID:       req.ID,
		RequesterName:          requesterName,
		RequesterAccountNumber: req.RequesterAccount,
		RequestAmount:          req.Amount.StringFixed(money.Places),
		RequestCurrency:        req.Currency,
		RequestTime:            req.CreatedAt.UTC().Unix(),
		Status:                 req.Status,
	}
}
