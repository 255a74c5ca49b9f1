package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/payment-requests/internal/events"
	"github.com/example/payment-requests/internal/iban"
	"github.com/example/payment-requests/internal/money"
	apperr "github.com/example/payment-requests/pkg/errors"
	"github.com/example/payment-requests/pkg/metrics"
)

type Config struct {
	Store Store
	Rates RateTable
	// Optional, defaults to events.Nop
	Publisher events.Publisher
	// How long a request accepts attempts after creation
	ExpiryWindow time.Duration
	// Optional, defaults to time.Now
	Clock func() time.Time
}

// Service is the entry point of the adapters: it validates typed inputs,
// drives the Lifecycle and Registry, and publishes every committed change.
type Service struct {
	store     Store
	rates     RateTable
	lifecycle *Lifecycle
	registry  *Registry
	publisher events.Publisher
	now       func() time.Time
}

func New(config Config) (*Service, error) {
	if config.Store == nil {
		return nil, errors.New("payments: store is required")
	}
	if config.Rates == nil {
		return nil, errors.New("payments: rate table is required")
	}
	if config.ExpiryWindow <= 0 {
		return nil, fmt.Errorf("payments: expiry window must be positive, got %s", config.ExpiryWindow)
	}
	if config.Publisher == nil {
		config.Publisher = events.Nop{}
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Service{
		store:     config.Store,
		rates:     config.Rates,
		lifecycle: NewLifecycle(config.Store, config.Rates, config.ExpiryWindow, config.Clock),
		registry:  NewRegistry(config.Store),
		publisher: config.Publisher,
		now:       config.Clock,
	}, nil
}

var errAmountOutOfRange = apperr.New(apperr.InvalidInput, "amount is out of range")

type CreateRequestInput struct {
	RequesterAccount string
	Amount           decimal.Decimal
	Currency         string
	// Optional display name of the requester
	Name string
}

type SubmitAttemptInput struct {
	RequestID       int64
	PayerAccount    string
	PaidAmount      decimal.Decimal
	PaymentCurrency string
	// Optional display name of the payer
	Name string
}

func (s *Service) CreateRequest(ctx context.Context, in CreateRequestInput) (RequestView, error) {
	if !money.InRange(in.Amount) {
		return RequestView{}, errAmountOutOfRange
	}
	if !money.Round(in.Amount).IsPositive() {
		return RequestView{}, apperr.New(apperr.InvalidInput, "amount must be positive")
	}
	if !iban.Validate(in.RequesterAccount) {
		return RequestView{}, ErrInvalidIban
	}
	if _, err := s.rates.RateOf(ctx, in.Currency); err != nil {
		return RequestView{}, err
	}
	// The person goes first so a failed write never leaves a request behind.
	if err := s.registry.Upsert(ctx, in.RequesterAccount, in.Name); err != nil {
		return RequestView{}, s.logged(err)
	}

	req, err := s.lifecycle.Create(ctx, in.RequesterAccount, in.Amount, in.Currency)
	if err != nil {
		return RequestView{}, s.logged(err)
	}

	metrics.IncCreated()
	slog.Info("payment request created", "request_id", req.ID, "currency", req.Currency, "amount", req.Amount.StringFixed(2))
	s.publish(ctx, events.New(events.TypeCreated, req.ID, string(req.Status), req.CreatedAt))

	name, err := s.registry.Name(ctx, req.RequesterAccount)
	if err != nil {
		return RequestView{}, s.logged(err)
	}
	return newRequestView(req, name), nil
}

// SubmitAttempt validates the payer side, records the payer name and lets
// the Lifecycle decide the outcome. Only a settled attempt returns a view;
// every other outcome is an error carrying its code.
func (s *Service) SubmitAttempt(ctx context.Context, in SubmitAttemptInput) (AttemptView, error) {
	view, err := s.submitAttempt(ctx, in)
	metrics.IncAttempt(outcomeOf(err))
	return view, err
}

func (s *Service) submitAttempt(ctx context.Context, in SubmitAttemptInput) (AttemptView, error) {
	if !money.InRange(in.PaidAmount) {
		return AttemptView{}, errAmountOutOfRange
	}
	if in.PaidAmount.IsNegative() {
		return AttemptView{}, apperr.New(apperr.InvalidInput, "payed_amount must not be negative")
	}
	if !iban.Validate(in.PayerAccount) {
		return AttemptView{}, ErrInvalidIban
	}
	if _, err := s.rates.RateOf(ctx, in.PaymentCurrency); err != nil {
		return AttemptView{}, err
	}
	if err := s.registry.Upsert(ctx, in.PayerAccount, in.Name); err != nil {
		return AttemptView{}, s.logged(err)
	}

	payment, req, err := s.lifecycle.EvaluateAndSettle(ctx, Attempt{
		RequestID:    in.RequestID,
		PayerAccount: in.PayerAccount,
		Amount:       in.PaidAmount,
		Currency:     in.PaymentCurrency,
	}, s.now())

	switch {
	case err == nil:
		slog.Info("payment request executed", "request_id", req.ID, "payment_id", payment.ID)
		e := events.New(events.TypeExecuted, req.ID, string(req.Status), payment.ExecutedAt)
		e.PaymentID = payment.ID.String()
		s.publish(ctx, e)
	case errors.Is(err, ErrExpired):
		metrics.AddExpired("attempt", 1)
		slog.Info("payment request expired", "request_id", req.ID)
		s.publish(ctx, events.New(events.TypeExpired, req.ID, string(req.Status), s.now()))
		return AttemptView{}, err
	case errors.Is(err, ErrAmountMismatch):
		slog.Info("payment request failed", "request_id", req.ID, "reason", err)
		s.publish(ctx, events.New(events.TypeFailed, req.ID, string(req.Status), s.now()))
		return AttemptView{}, err
	default:
		return AttemptView{}, s.logged(err)
	}

	payerName, err := s.registry.Name(ctx, payment.PayerAccount)
	if err != nil {
		return AttemptView{}, s.logged(err)
	}
	requesterName, err := s.registry.Name(ctx, req.RequesterAccount)
	if err != nil {
		return AttemptView{}, s.logged(err)
	}
	return newAttemptView(payment, req, payerName, requesterName), nil
}

// Request returns the current state of one request.
func (s *Service) Request(ctx context.Context, id int64) (RequestView, error) {
	req, err := s.store.Request(ctx, id)
	if err != nil {
		return RequestView{}, s.logged(storageError("failed to load payment request", err))
	}
	name, err := s.registry.Name(ctx, req.RequesterAccount)
	if err != nil {
		return RequestView{}, s.logged(err)
	}
	return newRequestView(req, name), nil
}

// ExpireOverdue sweeps every pending request past its window and returns
// how many were expired.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	now := s.now()
	ids, err := s.lifecycle.ExpireOverdue(ctx, now)
	if err != nil {
		return 0, s.logged(err)
	}
	for _, id := range ids {
		s.publish(ctx, events.New(events.TypeExpired, id, string(StatusExpired), now))
	}
	n := int64(len(ids))
	metrics.AddExpired("sweep", n)
	if n > 0 {
		slog.Info("expired overdue payment requests", "count", n)
	}
	return n, nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// publish never fails the call: the transition is already committed.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.Error("failed to publish event", "type", e.Type, "request_id", e.RequestID, "error", err)
	}
}

func (s *Service) logged(err error) error {
	if apperr.CodeOf(err) == apperr.StorageError {
		slog.Error("payment request storage failure", "error", err)
	}
	return err
}

func outcomeOf(err error) string {
	if err == nil {
		return string(StatusExecuted)
	}
	switch apperr.CodeOf(err) {
	case apperr.Expired:
		return string(StatusExpired)
	case apperr.AmountMismatch:
		return string(StatusFailed)
	case apperr.NotPending:
		return "not_pending"
	case apperr.NotFound:
		return "not_found"
	case apperr.StorageError:
		return "error"
	default:
		return "rejected"
	}
}
