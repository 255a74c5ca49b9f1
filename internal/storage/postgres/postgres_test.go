package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/payment-requests/internal/storage/postgres"
	"github.com/example/payment-requests/internal/storage/storetest"
)

// Runs against a disposable database named by TEST_DATABASE_URL; every
// table is truncated before each case.
func TestStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	storetest.Run(t, func(t *testing.T) storetest.Store {
		ctx := context.Background()
		store, err := postgres.Connect(ctx, url)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })

		require.NoError(t, store.Migrate(ctx))
		require.NoError(t, store.Truncate(ctx))
		return store
	})
}
