// payment-requests/internal/events/reader.go
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Reader consumes the event topic as a member of a consumer group.
type Reader struct {
	reader *kafka.Reader
}

func NewReader(brokers []string, topic, group string) *Reader {
	return &Reader{reader: kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1,
		MaxBytes: 10e6,
	})}
}

// Run hands every decodable event to handle until ctx is done. Undecodable
// messages and handler failures are logged and skipped.
func (r *Reader) Run(ctx context.Context, handle func(context.Context, Event) error) error {
	for {
		m, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read event: %w", err)
		}
		e, err := decode(m)
		if err != nil {
			slog.Warn("skipping bad event", "partition", m.Partition, "offset", m.Offset, "error", err)
			continue
		}
		if err := handle(ctx, e); err != nil {
			slog.Error("event handler failed", "type", e.Type, "request_id", e.RequestID, "error", err)
		}
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

func decode(m kafka.Message) (Event, error) {
	var e Event
	if err := json.Unmarshal(m.Value, &e); err != nil {
		return e, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if e.Type == "" || e.RequestID == 0 {
		return e, fmt.Errorf("event without type or request id at offset %d", m.Offset)
	}
	return e, nil
}
