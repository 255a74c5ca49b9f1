// cmd/paymentsd/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/example/payment-requests/internal/config"
	"github.com/example/payment-requests/internal/events"
	"github.com/example/payment-requests/internal/grpcserver"
	"github.com/example/payment-requests/internal/httpapi"
	"github.com/example/payment-requests/internal/payments"
	"github.com/example/payment-requests/internal/rates"
	"github.com/example/payment-requests/internal/storage"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		Long: `Open the store, apply the schema, seed rates when RATES_SEED_FILE is set,
then serve HTTP on HTTP_ADDR and gRPC on GRPC_ADDR until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// app is everything the subcommands share: the store, the rate table with
// its optional cache, the publisher and the service built on them.
type app struct {
	backend storage.Backend
	cache   *rates.RedisCache
	bus     *events.Bus
	service *payments.Service
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{backend: backend}
	a.closers = append(a.closers, backend.Close)

	table := rates.Config{Source: backend, TTL: cfg.RateCacheTTL}
	if cfg.RedisAddr != "" {
		a.cache = rates.NewRedisCache(cfg.RedisAddr)
		a.closers = append(a.closers, a.cache.Close)
		if err := a.cache.Ping(ctx); err != nil {
			slog.Warn("rate cache unreachable, lookups fall through to the store", "addr", cfg.RedisAddr, "error", err)
		}
		table.Cache = a.cache
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		a.bus = events.NewBus(cfg.KafkaBrokers, cfg.KafkaTopic)
		a.closers = append(a.closers, a.bus.Close)
		publisher = a.bus
	}

	a.service, err = payments.New(payments.Config{
		Store:        backend,
		Rates:        rates.New(table),
		Publisher:    publisher,
		ExpiryWindow: cfg.ExpiryWindow,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// seed loads path into the rate table and drops any cached copies.
func (a *app) seed(ctx context.Context, path string) error {
	seed, err := rates.LoadSeed(path)
	if err != nil {
		return err
	}
	if err := rates.Seed(ctx, a.backend, seed); err != nil {
		return err
	}
	if a.cache != nil {
		codes := make([]string, 0, len(seed))
		for _, r := range seed {
			codes = append(codes, r.Currency)
		}
		if err := a.cache.Invalidate(ctx, codes...); err != nil {
			slog.Warn("failed to invalidate cached rates", "error", err)
		}
	}
	slog.Info("seeded currency rates", "file", path, "count", len(seed))
	return nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.backend.Migrate(ctx); err != nil {
		return err
	}
	if cfg.RatesSeedFile != "" {
		if err := a.seed(ctx, cfg.RatesSeedFile); err != nil {
			return err
		}
	}

	// Both listeners are bound before either server starts so a failure
	// leaves nothing running.
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
	}
	var grpcLis net.Listener
	if cfg.GRPCAddr != "" {
		if grpcLis, err = net.Listen("tcp", cfg.GRPCAddr); err != nil {
			httpLis.Close()
			return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
		}
	}

	errc := make(chan error, 2)

	httpSrv := httpapi.NewServer(cfg.HTTPAddr, a.service)
	go func() {
		slog.Info("serving HTTP", "addr", httpLis.Addr().String())
		if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http serve: %w", err)
		}
	}()

	var grpcSrv *grpc.Server
	if grpcLis != nil {
		grpcSrv = grpcserver.NewServer(a.service)
		go func() {
			slog.Info("serving gRPC", "addr", grpcLis.Addr().String())
			if err := grpcSrv.Serve(grpcLis); err != nil {
				errc <- fmt.Errorf("grpc serve: %w", err)
			}
		}()
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if cfg.SweepInterval > 0 {
		go runSweeper(sweepCtx, a.service, cfg.SweepInterval)
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
	case err = <-errc:
		slog.Error("server failed, shutting down", "error", err)
	}

	stopSweep()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if shutdownErr := httpSrv.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Error("http shutdown", "error", shutdownErr)
	}
	slog.Info("bye")
	return err
}

func runSweeper(ctx context.Context, svc *payments.Service, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.ExpireOverdue(ctx); err != nil && ctx.Err() == nil {
				slog.Error("expiry sweep failed", "error", err)
			}
		}
	}
}
