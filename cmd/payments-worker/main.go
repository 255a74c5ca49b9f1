// cmd/payments-worker/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/payment-requests/internal/config"
	"github.com/example/payment-requests/internal/events"
	"github.com/example/payment-requests/pkg/metrics"
)

const serviceName = "payments-worker"

// Consumes payment request events and keeps an audit log of every
// status change, with per-type counters on /metrics.
func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[%s] invalid configuration: %v\n", serviceName, err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger.With("service", serviceName))

	if err := run(cfg); err != nil {
		slog.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if len(cfg.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server", "error", err)
		}
	}()

	r := events.NewReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup)
	defer r.Close()

	slog.Info("started", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroup)
	err := r.Run(ctx, audit)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	return err
}

func audit(_ context.Context, e events.Event) error {
	metrics.IncConsumed(e.Type)
	attrs := []any{
		"event_id", e.ID,
		"type", e.Type,
		"request_id", e.RequestID,
		"status", e.Status,
		"occurred_at", e.OccurredAt,
	}
	if e.PaymentID != "" {
		attrs = append(attrs, "payment_id", e.PaymentID)
	}
	slog.Info("payment request event", attrs...)
	return nil
}
