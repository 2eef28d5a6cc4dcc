// Package tokenstore persists the access token across client restarts, the
// way a browser keeps it in local storage.
package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const accessTokenKey = "access_token"

// Store is opaque persistence for the bearer token: get, set, clear.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// SQL implements Store on a single key/value table in a local SQLite file.
type SQL struct {
	db *sql.DB
}

// Open creates (if needed) and opens the store at path.
func Open(path string) (*SQL, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}
	s := &SQL{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQL wraps an existing database handle. Used by tests.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS client_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("migrate token store: %w", err)
	}
	return nil
}

// Get returns the stored token, or "" when none is persisted.
func (s *SQL) Get(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM client_state WHERE key = ?`, accessTokenKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return value, nil
}

func (s *SQL) Set(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		accessTokenKey, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (s *SQL) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM client_state WHERE key = ?`, accessTokenKey)
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}
