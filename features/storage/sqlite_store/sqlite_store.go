package sqlite_store

import (
	"context"
	"database/sql"
	"errors"

	"entrylist/features/storage/storage_errors"
)

// SQLiteStore keeps every key in the kv table created by internal/db.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Set(ctx context.Context, name string, value []byte) error {
	if s.db == nil {
		return storage_errors.ErrStoreNotInitialized
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, name, value)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, name string) ([]byte, error) {
	if s.db == nil {
		return nil, storage_errors.ErrStoreNotInitialized
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage_errors.ErrKeyNotFound
	}
	return value, err
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if s.db == nil {
		return storage_errors.ErrStoreNotInitialized
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE name = ?`, name)
	return err
}

func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, storage_errors.ErrStoreNotInitialized
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM kv ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
