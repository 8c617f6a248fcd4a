package badger_store

import (
	"context"
	"errors"
	"sync"

	"entrylist/features/storage/storage_errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

// BadgerStore implements storage.Store on top of Badger
type BadgerStore struct {
	db          *badger.DB
	path        string
	inMemory    bool
	initialized bool
	mu          sync.RWMutex
}

type Option func(*BadgerStore)

// WithPath sets the on-disk directory. Ignored when in-memory.
func WithPath(path string) Option {
	return func(s *BadgerStore) {
		s.path = path
	}
}

func WithInMemory(state bool) Option {
	return func(s *BadgerStore) {
		s.inMemory = state
	}
}

// NewBadgerStore creates a new store; call Initialize before use.
func NewBadgerStore(opts ...Option) *BadgerStore {
	s := &BadgerStore{}
	for _, opt := range opts {
		opt(s)
	}
	if s.path == "" {
		s.inMemory = true
	}
	return s
}

// Initialize opens the Badger instance
func (s *BadgerStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	opts := badger.DefaultOptions(s.path).
		WithInMemory(s.inMemory).
		WithLoggingLevel(badger.WARNING)
	if s.inMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Failed to open Badger database")
		return err
	}

	s.db = db
	s.initialized = true
	log.Info().Str("path", s.path).Bool("in_memory", s.inMemory).Msg("Badger initialized successfully")

	return nil
}

// Close releases Badger resources
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.initialized = false
		return err
	}
	return nil
}

func (s *BadgerStore) handle() (*badger.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, storage_errors.ErrStoreNotInitialized
	}
	return s.db, nil
}

// Get returns a copy of the value stored under name
func (s *BadgerStore) Get(ctx context.Context, name string) ([]byte, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var value []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage_errors.ErrKeyNotFound
			}
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, err
	}

	return value, nil
}

// Set stores value under name
func (s *BadgerStore) Set(ctx context.Context, name string, value []byte) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	return db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), value)
	})
}

// Delete removes name from the store
func (s *BadgerStore) Delete(ctx context.Context, name string) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	return db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(name))
	})
}

// Keys walks the key space without fetching values
func (s *BadgerStore) Keys(ctx context.Context) ([]string, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var keys []string
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})

	return keys, err
}
