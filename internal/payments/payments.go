// Package payments owns payment requests and the attempts settling them:
// the request state machine, the attempt processor and the person registry.
package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/payment-requests/internal/rates"
	apperr "github.com/example/payment-requests/pkg/errors"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusExecuted Status = "executed"
	StatusExpired  Status = "expired"
	StatusFailed   Status = "failed"
)

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	switch s {
	case StatusExecuted, StatusExpired, StatusFailed:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidInput        = apperr.New(apperr.InvalidInput, "Invalid input")
	ErrInvalidIban         = apperr.New(apperr.InvalidIban, "Invalid IBAN format")
	ErrUnsupportedCurrency = rates.ErrUnknownCurrency
	ErrNotFound            = apperr.New(apperr.NotFound, "Payment request not found")
	ErrNotPending          = apperr.New(apperr.NotPending, "Payment request not pending")
	ErrExpired             = apperr.New(apperr.Expired, "Payment request expired")
	ErrAmountMismatch      = apperr.New(apperr.AmountMismatch, "Incorrect payed amount")
)

type (
	PaymentRequest struct {
		// Assigned by the store, immutable
		ID int64
		// IBAN of the payee, as submitted
		RequesterAccount string
		// Requested amount, 2 fraction digits, in Currency
		Amount decimal.Decimal
		// Currency of the request
		Currency string
		// Creation time in UTC
		CreatedAt time.Time
		// Current lifecycle state
		Status Status
	}
	// Payment is the record of a successful attempt. It exists only for
	// executed requests and is never mutated.
	Payment struct {
		ID           uuid.UUID
		RequestID    int64
		PayerAccount string
		// Paid amount, 2 fraction digits, in Currency
		Amount     decimal.Decimal
		Currency   string
		ExecutedAt time.Time
	}
	Person struct {
		AccountNumber string
		Name          string
	}
)

// Store is the persistence collaborator. Every status change goes through a
// compare-and-swap on status = pending.
type Store interface {
	// InsertRequest persists req and returns it with its assigned ID.
	InsertRequest(ctx context.Context, req PaymentRequest) (PaymentRequest, error)
	// Request loads a request, ErrNotFound when absent.
	Request(ctx context.Context, id int64) (PaymentRequest, error)
	// TransitionRequest moves a pending request to status, ErrNotPending when
	// the request is no longer pending.
	TransitionRequest(ctx context.Context, id int64, status Status) error
	// ExecuteRequest moves a pending request to executed and inserts payment
	// in the same transaction, ErrNotPending when the request is no longer
	// pending.
	ExecuteRequest(ctx context.Context, id int64, payment Payment) error
	// PaymentByRequest loads the payment settling a request, ErrNotFound when
	// there is none.
	PaymentByRequest(ctx context.Context, requestID int64) (Payment, error)
	// ExpireRequests moves every pending request created before cutoff to
	// expired and returns their ids.
	ExpireRequests(ctx context.Context, cutoff time.Time) ([]int64, error)
	// UpsertPerson inserts or overwrites the name of an account.
	UpsertPerson(ctx context.Context, person Person) error
	// Person loads a person, ErrNotFound when absent.
	Person(ctx context.Context, account string) (Person, error)
	Ping(ctx context.Context) error
}

// RateTable resolves conversion rates, see rates.Table.
type RateTable interface {
	RateOf(ctx context.Context, code string) (decimal.Decimal, error)
}
