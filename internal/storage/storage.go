// Package storage selects the payments.Store backend named by configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/example/payment-requests/internal/config"
	"github.com/example/payment-requests/internal/payments"
	"github.com/example/payment-requests/internal/rates"
	"github.com/example/payment-requests/internal/storage/memory"
	"github.com/example/payment-requests/internal/storage/postgres"
	"github.com/example/payment-requests/internal/storage/sqlite"
)

// Backend is a store the process can own: the payments store, the source of
// the rate table, the target of the rate seed, and its schema lifecycle.
type Backend interface {
	payments.Store
	rates.Source
	rates.Writer
	Migrate(ctx context.Context) error
	Close() error
}

// Open opens the backend named by c.StoreDriver and pings it.
func Open(ctx context.Context, c *config.Config) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch c.StoreDriver {
	case config.DriverPostgres:
		backend, err = postgres.Connect(ctx, c.DatabaseURL)
	case config.DriverSQLite:
		backend, err = sqlite.Open(c.SQLitePath)
	case config.DriverMemory:
		backend = memory.New()
	default:
		err = fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := backend.Ping(ctx); err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to ping %s store: %w", c.StoreDriver, err)
	}
	return backend, nil
}
