package main

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/payment-requests/internal/config"
	"github.com/example/payment-requests/internal/payments"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		StoreDriver:     config.DriverSQLite,
		SQLitePath:      filepath.Join(t.TempDir(), "payments.db"),
		ExpiryWindow:    time.Hour,
		RateCacheTTL:    time.Minute,
		ShutdownTimeout: time.Second,
	}
}

func TestAppSeedAndSettle(t *testing.T) {
	assertions := assert.New(t)
	ctx := context.Background()

	a, err := newApp(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.backend.Migrate(ctx))
	require.NoError(t, a.seed(ctx, filepath.Join("..", "..", "seeds", "currencies.yaml")))

	req, err := a.service.CreateRequest(ctx, payments.CreateRequestInput{
		RequesterAccount: "BE84 2543 7531 1863",
		Amount:           decimal.NewFromInt(100),
		Currency:         "USD",
	})
	require.NoError(t, err)

	view, err := a.service.SubmitAttempt(ctx, payments.SubmitAttemptInput{
		RequestID:       req.RequestID,
		PayerAccount:    "DE89 3704 0044 0532 0130 00",
		PaidAmount:      decimal.RequireFromString("85.00"),
		PaymentCurrency: "EUR",
	})
	require.NoError(t, err)
	assertions.Equal(payments.StatusExecuted, view.Status)

	n, err := a.service.ExpireOverdue(ctx)
	require.NoError(t, err)
	assertions.Zero(n)
}

func TestAppSeedMissingFile(t *testing.T) {
	ctx := context.Background()
	a, err := newApp(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.backend.Migrate(ctx))
	assert.Error(t, a.seed(ctx, filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestRunSweeperStops(t *testing.T) {
	ctx := context.Background()
	a, err := newApp(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.backend.Migrate(ctx))

	sweepCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		runSweeper(sweepCtx, a.service, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestServeReleasesHTTPWhenGRPCCannotListen(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	free, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	httpAddr := free.Addr().String()
	require.NoError(t, free.Close())

	cfg := testConfig(t)
	cfg.HTTPAddr = httpAddr
	cfg.GRPCAddr = busy.Addr().String()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.ErrorContains(t, serve(ctx, cfg), "listen "+cfg.GRPCAddr)

	again, err := net.Listen("tcp", httpAddr)
	require.NoError(t, err, "HTTP address still bound after a failed start")
	again.Close()
}
