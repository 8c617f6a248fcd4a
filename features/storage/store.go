package storage

import (
	"context"
	"encoding/json"
	"errors"

	"entrylist/features/storage/storage_errors"

	"github.com/rs/zerolog/log"
)

// Store is a flat key/value store. Values are opaque bytes; last writer wins.
type Store interface {
	Set(ctx context.Context, name string, value []byte) error
	// Get returns storage_errors.ErrKeyNotFound when name is absent.
	Get(ctx context.Context, name string) ([]byte, error)
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, name string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// SetObject stores value as JSON under name, overwriting what was there.
func SetObject(ctx context.Context, s Store, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", name).Msg("Could not serialize value")
		return err
	}

	if err := s.Set(ctx, name, data); err != nil {
		log.Error().Err(err).Str("key", name).Msg("Could not store value")
		return err
	}

	return nil
}

// LoadObject decodes the JSON stored under name. ok is false when the key is
// absent or its value cannot be decoded into T; decode failures are logged.
func LoadObject[T any](ctx context.Context, s Store, name string) (value T, ok bool) {
	data, err := s.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, storage_errors.ErrKeyNotFound) {
			log.Error().Err(err).Str("key", name).Msg("Could not read value")
		}
		return value, false
	}

	if err := json.Unmarshal(data, &value); err != nil {
		log.Warn().Err(err).Str("key", name).Msg("Stored value is not valid JSON, ignoring it")
		var zero T
		return zero, false
	}

	return value, true
}

// GetObject is LoadObject with a fallback.
func GetObject[T any](ctx context.Context, s Store, name string, def T) T {
	value, ok := LoadObject[T](ctx, s, name)
	if !ok {
		return def
	}
	return value
}

// Raw returns the stored bytes, or nil when the key is absent or unreadable.
func Raw(ctx context.Context, s Store, name string) []byte {
	data, err := s.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, storage_errors.ErrKeyNotFound) {
			log.Error().Err(err).Str("key", name).Msg("Could not read value")
		}
		return nil
	}
	return data
}

// ListAllKeys returns every stored key, or nil after logging a failure.
func ListAllKeys(ctx context.Context, s Store) []string {
	keys, err := s.Keys(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Could not list stored keys")
		return nil
	}
	return keys
}
