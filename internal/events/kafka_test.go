package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	assertions := assert.New(t)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	e := New(TypeExecuted, 42, "executed", at)
	e.PaymentID = "b0b6d8b4-3f0e-4a59-9d43-1f1a5e1a1f00"

	msg, err := encode(e)
	require.NoError(t, err)

	assertions.Equal("42", string(msg.Key))
	assertions.Equal(at.UTC(), msg.Time)
	require.Len(t, msg.Headers, 1)
	assertions.Equal(TypeExecuted, string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assertions.Equal(e.ID, decoded.ID)
	assertions.Equal(int64(42), decoded.RequestID)
	assertions.Equal("executed", decoded.Status)
	assertions.Equal(e.PaymentID, decoded.PaymentID)
}

func TestNew(t *testing.T) {
	a := New(TypeCreated, 1, "pending", time.Now())
	b := New(TypeCreated, 1, "pending", time.Now())
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.UTC, a.OccurredAt.Location())
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}

func TestDecode(t *testing.T) {
	e := New(TypeExpired, 7, "expired", time.Now())
	msg, err := encode(e)
	require.NoError(t, err)

	decoded, err := decode(msg)
	require.NoError(t, err)
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, TypeExpired, decoded.Type)

	for name, value := range map[string]string{
		"not json":        `{"type":`,
		"missing type":    `{"request_id":7}`,
		"missing request": `{"type":"payment_request.created"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decode(kafka.Message{Value: []byte(value)})
			assert.Error(t, err)
		})
	}
}
