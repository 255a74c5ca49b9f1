package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/payment-requests/internal/config"
	"github.com/example/payment-requests/internal/storage"
	"github.com/example/payment-requests/internal/storage/memory"
	"github.com/example/payment-requests/internal/storage/sqlite"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		backend, err := storage.Open(ctx, &config.Config{StoreDriver: config.DriverMemory})
		require.NoError(t, err)
		defer backend.Close()
		assert.IsType(t, &memory.Store{}, backend)
	})
	t.Run("SQLite", func(t *testing.T) {
		backend, err := storage.Open(ctx, &config.Config{
			StoreDriver: config.DriverSQLite,
			SQLitePath:  filepath.Join(t.TempDir(), "nested", "payments.db"),
		})
		require.NoError(t, err)
		defer backend.Close()
		assert.IsType(t, &sqlite.Store{}, backend)
		assert.NoError(t, backend.Migrate(ctx))
	})
	t.Run("Unknown", func(t *testing.T) {
		_, err := storage.Open(ctx, &config.Config{StoreDriver: "mysql"})
		assert.Error(t, err)
	})
	t.Run("PostgresWithoutURL", func(t *testing.T) {
		_, err := storage.Open(ctx, &config.Config{StoreDriver: config.DriverPostgres})
		assert.Error(t, err)
	})
}
