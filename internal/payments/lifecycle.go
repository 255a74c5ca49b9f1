package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/payment-requests/internal/money"
	apperr "github.com/example/payment-requests/pkg/errors"
)

// Lifecycle is the request state machine. Only pending requests move, and
// they move exactly once to executed, expired or failed.
type Lifecycle struct {
	store  Store
	rates  RateTable
	window time.Duration
	now    func() time.Time
}

func NewLifecycle(store Store, rates RateTable, window time.Duration, now func() time.Time) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	return &Lifecycle{store: store, rates: rates, window: window, now: now}
}

// Create persists a new pending request. The amount is rounded to two
// fraction digits and must stay positive.
func (l *Lifecycle) Create(ctx context.Context, requesterAccount string, amount decimal.Decimal, currency string) (PaymentRequest, error) {
	amount = money.Round(amount)
	if !amount.IsPositive() {
		return PaymentRequest{}, apperr.New(apperr.InvalidInput, "amount must be positive")
	}

	req, err := l.store.InsertRequest(ctx, PaymentRequest{
		RequesterAccount: requesterAccount,
		Amount:           amount,
		Currency:         currency,
		CreatedAt:        l.now().UTC(),
		Status:           StatusPending,
	})
	if err != nil {
		return PaymentRequest{}, storageError("failed to insert payment request", err)
	}
	return req, nil
}

// ExpiresAt is the last instant an attempt on req may still be evaluated.
func (l *Lifecycle) ExpiresAt(req PaymentRequest) time.Time {
	return req.CreatedAt.Add(l.window)
}

// Attempt is one payer's try at settling a request.
type Attempt struct {
	RequestID    int64
	PayerAccount string
	Amount       decimal.Decimal
	Currency     string
}

// EvaluateAndSettle runs the attempt against the request it names. The
// returned request carries the status the call left it in, also when the
// error is Expired or AmountMismatch. Payment is set only on success.
func (l *Lifecycle) EvaluateAndSettle(ctx context.Context, attempt Attempt, now time.Time) (payment Payment, req PaymentRequest, err error) {
	req, err = l.store.Request(ctx, attempt.RequestID)
	if err != nil {
		return payment, req, storageError("failed to load payment request", err)
	}

	if req.Status != StatusPending {
		return payment, req, ErrNotPending
	}

	if now.After(l.ExpiresAt(req)) {
		if err = l.store.TransitionRequest(ctx, req.ID, StatusExpired); err != nil {
			return payment, req, storageError("failed to expire payment request", err)
		}
		req.Status = StatusExpired
		return payment, req, ErrExpired
	}

	requestRate, err := l.rates.RateOf(ctx, req.Currency)
	if err != nil {
		return payment, req, err
	}
	targetRate, err := l.rates.RateOf(ctx, attempt.Currency)
	if err != nil {
		return payment, req, err
	}
	expected, err := money.ExpectedAmount(req.Amount, requestRate, targetRate)
	if err != nil {
		return payment, req, apperr.Wrap(apperr.StorageError, "failed to convert amount", err)
	}

	if !money.AmountsMatch(attempt.Amount, expected) {
		if err = l.store.TransitionRequest(ctx, req.ID, StatusFailed); err != nil {
			return payment, req, storageError("failed to fail payment request", err)
		}
		req.Status = StatusFailed
		return payment, req, apperr.Wrap(apperr.AmountMismatch, "Incorrect payed amount",
			fmt.Errorf("paid %s %s, expected %s %s", money.Round(attempt.Amount).StringFixed(money.Places), attempt.Currency, expected.StringFixed(money.Places), attempt.Currency))
	}

	candidate := Payment{
		ID:           uuid.New(),
		RequestID:    req.ID,
		PayerAccount: attempt.PayerAccount,
		Amount:       money.Round(attempt.Amount),
		Currency:     attempt.Currency,
		ExecutedAt:   now.UTC(),
	}
	if err = l.store.ExecuteRequest(ctx, req.ID, candidate); err != nil {
		return payment, req, storageError("failed to execute payment request", err)
	}
	req.Status = StatusExecuted
	return candidate, req, nil
}

// ExpireOverdue expires every pending request whose window elapsed before
// now and returns their ids.
func (l *Lifecycle) ExpireOverdue(ctx context.Context, now time.Time) ([]int64, error) {
	ids, err := l.store.ExpireRequests(ctx, now.Add(-l.window))
	if err != nil {
		return nil, storageError("failed to expire overdue payment requests", err)
	}
	return ids, nil
}

// storageError passes classified errors through and wraps the rest.
func storageError(msg string, err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Wrap(apperr.StorageError, msg, err)
}
