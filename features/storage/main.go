package storage

import (
	"context"
	"fmt"
	"sync"

	"entrylist/features/storage/badger_store"
	"entrylist/features/storage/redis_store"
	"entrylist/features/storage/sqlite_store"
	"entrylist/features/storage/storage_errors"
	"entrylist/internal/config"
	"entrylist/internal/db"

	"github.com/rs/zerolog/log"
)

var (
	instance Store
	once     sync.Once
	openErr  error
)

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg *config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", "badger":
		s := badger_store.NewBadgerStore(
			badger_store.WithPath(cfg.BadgerPath),
			badger_store.WithInMemory(cfg.InMemory),
		)
		if err := s.Initialize(ctx); err != nil {
			return nil, err
		}
		return s, nil

	case "sqlite":
		conn, err := db.Connect(db.WithPath(cfg.SQLitePath), db.WithInMemory(cfg.InMemory))
		if err != nil {
			return nil, err
		}
		return sqlite_store.NewSQLiteStore(conn), nil

	case "redis":
		return redis_store.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix)
	}

	return nil, fmt.Errorf("%w: %s", storage_errors.ErrUnknownBackend, cfg.Backend)
}

// GetStore returns the process-wide store opened from the global config.
// Use defer storage.Close() to release it.
func GetStore(ctx context.Context) (Store, error) {
	once.Do(func() {
		cfg := config.GetConfig().Storage
		instance, openErr = Open(ctx, &cfg)
		if openErr != nil {
			log.Error().Err(openErr).Str("backend", cfg.Backend).Msg("Failed to open store")
			return
		}
		log.Info().Str("backend", cfg.Backend).Msg("Store opened")
	})
	return instance, openErr
}

func Close() {
	if instance == nil {
		return
	}
	if err := instance.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close store")
	}
}
