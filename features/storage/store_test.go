package storage

import (
	"context"
	"testing"

	"entrylist/features/storage/storage_errors"
	"entrylist/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) Store {
	t.Helper()
	s, err := Open(context.Background(), &config.StorageConfig{Backend: "badger", InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.StorageConfig{Backend: "etcd"})
	assert.ErrorIs(t, err, storage_errors.ErrUnknownBackend)
}

func TestObjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	list := map[string]any{"tt1": "Alien", "tt2": map[string]any{"id": "tt2", "name": "Aliens"}}
	require.NoError(t, SetObject(ctx, s, "List-IMDb-u-x", list))

	got, ok := LoadObject[map[string]any](ctx, s, "List-IMDb-u-x")
	require.True(t, ok)
	assert.Equal(t, list, got)
}

func TestGetObjectDefaults(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	assert.Equal(t, "none", GetObject(ctx, s, "absent", "none"))

	require.NoError(t, s.Set(ctx, "corrupt", []byte("{not json")))
	assert.Equal(t, "none", GetObject(ctx, s, "corrupt", "none"))

	_, ok := LoadObject[[]string](ctx, s, "corrupt")
	assert.False(t, ok)
}

func TestListAllKeys(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, SetObject(ctx, s, "a", 1))
	require.NoError(t, SetObject(ctx, s, "b", 2))

	assert.ElementsMatch(t, []string{"a", "b"}, ListAllKeys(ctx, s))
	assert.Equal(t, []byte("1"), Raw(ctx, s, "a"))
	assert.Nil(t, Raw(ctx, s, "c"))
}
