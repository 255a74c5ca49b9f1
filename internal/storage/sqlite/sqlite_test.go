package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/payment-requests/internal/storage/sqlite"
	"github.com/example/payment-requests/internal/storage/storetest"
)

func open(t *testing.T) storetest.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "payments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestStore(t *testing.T) {
	storetest.Run(t, open)
}

func TestMigrateIsRepeatable(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))
}
