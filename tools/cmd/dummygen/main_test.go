package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/payment-requests/internal/events"
	"github.com/example/payment-requests/internal/iban"
	"github.com/example/payment-requests/internal/payments"
	"github.com/example/payment-requests/internal/rates"
	"github.com/example/payment-requests/internal/storage/memory"
)

func TestGenerateIsDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, generate(&a, 20, rand.New(rand.NewSource(1))))
	require.NoError(t, generate(&b, 20, rand.New(rand.NewSource(1))))
	assert.Equal(t, a.String(), b.String())
}

func TestRandomIbanIsValid(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		s := randomIban(rng)
		assert.True(t, iban.Validate(s), s)
	}
}

// Every generated row must be accepted by the service as-is.
func TestGeneratedRowsCreateRequests(t *testing.T) {
	assertions := assert.New(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, generate(&buf, 100, rand.New(rand.NewSource(42))))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 101)
	assertions.Equal(header, records[0])

	store := memory.New()
	seed, err := rates.LoadSeed(filepath.Join("..", "..", "..", "seeds", "currencies.yaml"))
	require.NoError(t, err)
	require.NoError(t, rates.Seed(ctx, store, seed))

	svc, err := payments.New(payments.Config{
		Store:        store,
		Rates:        rates.New(rates.Config{Source: store}),
		Publisher:    events.Nop{},
		ExpiryWindow: time.Hour,
	})
	require.NoError(t, err)

	for i, rec := range records[1:] {
		view, err := svc.CreateRequest(ctx, payments.CreateRequestInput{
			RequesterAccount: rec[0],
			Amount:           decimal.RequireFromString(rec[1]),
			Currency:         rec[2],
			Name:             rec[3],
		})
		require.NoError(t, err, "row %d: %v", i+1, rec)
		assertions.Equal(payments.StatusPending, view.Status)
		assertions.Equal(rec[1], view.Amount)
	}
}
