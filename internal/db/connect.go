package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"entrylist/internal/config"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"
	testDB     = "entrylist-test.db"
)

// Connect opens a sqlite database and makes sure the schema exists.
func Connect(opts ...Option) (*sql.DB, error) {
	o := &dbOptions{}
	for _, opt := range opts {
		opt(o)
	}

	dsn, err := buildDSN(o)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// every :memory: connection is its own database
	if o.inMemory {
		db.SetMaxOpenConns(1)
	}

	if !o.isReadOnly {
		if err := initDB(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize database schema: %w", err)
		}
	}

	log.Debug().Str("dsn", dsn).Msg("sqlite connection opened")
	return db, nil
}

func buildDSN(o *dbOptions) (string, error) {
	if o.inMemory {
		return ":memory:", nil
	}

	path := o.path
	if o.isTesting {
		path = testDB
	}
	if path == "" {
		path = config.GetConfig().Storage.SQLitePath
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if o.isReadOnly {
		dsn += "&mode=ro"
	}
	return dsn, nil
}

// initDB creates the key/value table used by the sqlite store.
func initDB(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			name       TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}
