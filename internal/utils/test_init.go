package utils

import (
	"context"
	"testing"

	"entrylist/features/lists"
	"entrylist/features/storage/badger_store"
	"entrylist/internal/logger"

	"github.com/stretchr/testify/require"
)

// Initialize sets up logging and returns a list store over a fresh in-memory
// badger instance that is closed when t ends.
func Initialize(t *testing.T) (context.Context, *lists.Store) {
	t.Helper()
	logger.InitializeLogger()

	ctx := context.Background()
	kv := badger_store.NewBadgerStore(badger_store.WithInMemory(true))
	require.NoError(t, kv.Initialize(ctx), "Expected no error while opening the test store")
	t.Cleanup(func() { _ = kv.Close() })

	return ctx, lists.NewStore(kv)
}
