// Package sqlite provides a SQLite-backed KV for the store adapter, as an
// alternative to the default Badger backend for deployments that want a
// single-file database.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// KV is a SQLite-backed implementation of store.KV.
type KV struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens a SQLite database at path and prepares the schema.
func Open(path string, logger *slog.Logger) (*KV, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One writer at a time (SQLite limitation).
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if logger != nil {
		logger.Info("SQLite database opened successfully", "path", path)
	}

	return &KV{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *KV) Close() error {
	return s.db.Close()
}

// Get implements store.KV.
func (s *KV) Get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) && s.logger != nil {
			s.logger.Warn("sqlite read failed", "key", key, "error", err)
		}
		return "", false
	}
	return value, true
}

// Set implements store.KV.
func (s *KV) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// Delete implements store.KV.
func (s *KV) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key)
	return err
}
