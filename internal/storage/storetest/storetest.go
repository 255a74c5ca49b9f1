// Package storetest is the behaviour every payments.Store backend shares.
// Backend tests call Run with a constructor for an empty, migrated store.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/payment-requests/internal/payments"
	"github.com/example/payment-requests/internal/rates"
)

type Store interface {
	payments.Store
	rates.Source
	rates.Writer
}

var base = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func insert(t *testing.T, store Store, createdAt time.Time) payments.PaymentRequest {
	t.Helper()
	req, err := store.InsertRequest(context.Background(), payments.PaymentRequest{
		RequesterAccount: "BE84 2543 7531 1863",
		Amount:           decimal.RequireFromString("100.00"),
		Currency:         "USD",
		CreatedAt:        createdAt,
		Status:           payments.StatusPending,
	})
	require.NoError(t, err)
	return req
}

func payment(requestID int64) payments.Payment {
	return payments.Payment{
		ID:           uuid.New(),
		RequestID:    requestID,
		PayerAccount: "DE89 3704 0044 0532 0130 00",
		Amount:       decimal.RequireFromString("85.00"),
		Currency:     "EUR",
		ExecutedAt:   base.Add(time.Minute),
	}
}

func Run(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("InsertAndLoad", func(t *testing.T) {
		assertions := assert.New(t)
		store := open(t)

		first := insert(t, store, base)
		second := insert(t, store, base)
		assertions.NotZero(first.ID)
		assertions.NotEqual(first.ID, second.ID)

		loaded, err := store.Request(ctx, first.ID)
		require.NoError(t, err)
		assertions.Equal(first.ID, loaded.ID)
		assertions.Equal("BE84 2543 7531 1863", loaded.RequesterAccount)
		assertions.Equal("100.00", loaded.Amount.StringFixed(2))
		assertions.True(base.Equal(loaded.CreatedAt), loaded.CreatedAt)
		assertions.Equal(payments.StatusPending, loaded.Status)

		_, err = store.Request(ctx, second.ID+100)
		assertions.ErrorIs(err, payments.ErrNotFound)
	})

	t.Run("Transition", func(t *testing.T) {
		assertions := assert.New(t)
		store := open(t)
		req := insert(t, store, base)

		require.NoError(t, store.TransitionRequest(ctx, req.ID, payments.StatusFailed))
		assertions.ErrorIs(store.TransitionRequest(ctx, req.ID, payments.StatusExpired), payments.ErrNotPending)
		assertions.ErrorIs(store.ExecuteRequest(ctx, req.ID, payment(req.ID)), payments.ErrNotPending)
		assertions.ErrorIs(store.TransitionRequest(ctx, req.ID+100, payments.StatusFailed), payments.ErrNotPending)

		loaded, err := store.Request(ctx, req.ID)
		require.NoError(t, err)
		assertions.Equal(payments.StatusFailed, loaded.Status)
		_, err = store.PaymentByRequest(ctx, req.ID)
		assertions.ErrorIs(err, payments.ErrNotFound)
	})

	t.Run("Execute", func(t *testing.T) {
		assertions := assert.New(t)
		store := open(t)
		req := insert(t, store, base)
		p := payment(req.ID)

		require.NoError(t, store.ExecuteRequest(ctx, req.ID, p))
		assertions.ErrorIs(store.ExecuteRequest(ctx, req.ID, payment(req.ID)), payments.ErrNotPending)

		loaded, err := store.Request(ctx, req.ID)
		require.NoError(t, err)
		assertions.Equal(payments.StatusExecuted, loaded.Status)

		stored, err := store.PaymentByRequest(ctx, req.ID)
		require.NoError(t, err)
		assertions.Equal(p.ID, stored.ID)
		assertions.Equal(p.PayerAccount, stored.PayerAccount)
		assertions.Equal("85.00", stored.Amount.StringFixed(2))
		assertions.Equal("EUR", stored.Currency)
		assertions.True(p.ExecutedAt.Equal(stored.ExecutedAt), stored.ExecutedAt)
	})

	t.Run("ExecuteExactlyOnce", func(t *testing.T) {
		store := open(t)
		req := insert(t, store, base)

		const workers = 16
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.ExecuteRequest(ctx, req.ID, payment(req.ID))
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, payments.ErrNotPending)
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})

	t.Run("ExpireRequests", func(t *testing.T) {
		assertions := assert.New(t)
		store := open(t)
		old := insert(t, store, base)
		settled := insert(t, store, base)
		fresh := insert(t, store, base.Add(time.Hour))
		require.NoError(t, store.ExecuteRequest(ctx, settled.ID, payment(settled.ID)))

		ids, err := store.ExpireRequests(ctx, base.Add(time.Minute))
		require.NoError(t, err)
		assertions.Equal([]int64{old.ID}, ids)

		for id, status := range map[int64]payments.Status{
			old.ID:     payments.StatusExpired,
			settled.ID: payments.StatusExecuted,
			fresh.ID:   payments.StatusPending,
		} {
			loaded, err := store.Request(ctx, id)
			require.NoError(t, err)
			assertions.Equal(status, loaded.Status, id)
		}

		ids, err = store.ExpireRequests(ctx, base.Add(time.Minute))
		require.NoError(t, err)
		assertions.Empty(ids)
	})

	t.Run("Persons", func(t *testing.T) {
		assertions := assert.New(t)
		store := open(t)

		_, err := store.Person(ctx, "GB82 WEST 1234 5698 7654 32")
		assertions.ErrorIs(err, payments.ErrNotFound)

		require.NoError(t, store.UpsertPerson(ctx, payments.Person{AccountNumber: "GB82 WEST 1234 5698 7654 32", Name: "Carol"}))
		require.NoError(t, store.UpsertPerson(ctx, payments.Person{AccountNumber: "GB82 WEST 1234 5698 7654 32", Name: "Caroline"}))

		person, err := store.Person(ctx, "GB82 WEST 1234 5698 7654 32")
		require.NoError(t, err)
		assertions.Equal("Caroline", person.Name)
	})

	t.Run("CurrencyRates", func(t *testing.T) {
		assertions := assert.New(t)
		store := open(t)

		_, err := store.CurrencyRate(ctx, "EUR")
		assertions.ErrorIs(err, rates.ErrUnknownCurrency)

		require.NoError(t, store.UpsertCurrencyRate(ctx, rates.Rate{Currency: "EUR", ConversionRate: decimal.RequireFromString("0.9")}))
		require.NoError(t, store.UpsertCurrencyRate(ctx, rates.Rate{Currency: "EUR", ConversionRate: decimal.RequireFromString("0.85")}))

		rate, err := store.CurrencyRate(ctx, "EUR")
		require.NoError(t, err)
		assertions.Equal("EUR", rate.Currency)
		assertions.True(decimal.RequireFromString("0.85").Equal(rate.ConversionRate), rate.ConversionRate.String())

		_, err = store.CurrencyRate(ctx, "eur")
		assertions.ErrorIs(err, rates.ErrUnknownCurrency)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, open(t).Ping(ctx))
	})
}
