// payment-requests/internal/events/events.go
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeCreated  = "payment_request.created"
	TypeExecuted = "payment_request.executed"
	TypeFailed   = "payment_request.failed"
	TypeExpired  = "payment_request.expired"
)

// Event describes one committed change of a payment request.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	RequestID  int64     `json:"request_id"`
	Status     string    `json:"status"`
	PaymentID  string    `json:"payment_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(eventType string, requestID int64, status string, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		RequestID:  requestID,
		Status:     status,
		OccurredAt: at.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
