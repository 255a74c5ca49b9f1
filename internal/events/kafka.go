// payment-requests/internal/events/kafka.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Bus publishes events to one topic, keyed by request id so every change of
// a request lands in the same partition in order.
type Bus struct {
	Brokers []string
	Topic   string
	writer  *kafka.Writer
}

func NewBus(brokers []string, topic string) *Bus {
	return &Bus{
		Brokers: brokers,
		Topic:   topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (b *Bus) Publish(ctx context.Context, e Event) error {
	msg, err := encode(e)
	if err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s for request %d: %w", e.Type, e.RequestID, err)
	}
	return nil
}

func (b *Bus) Close() error {
	return b.writer.Close()
}

func encode(e Event) (kafka.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(e.RequestID, 10)),
		Value: payload,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}, nil
}
