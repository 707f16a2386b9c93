package kv

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	// use the sqlite db driver.
	_ "github.com/mattn/go-sqlite3"
)

//go:embed base.sql
var baseSQL string

// SQLite stores each record as one row of the state table.
type SQLite struct {
	conn     *sql.DB
	mu       sync.Mutex
	filename string
}

var _ Store = (*SQLite)(nil)

// NewSQLite connects to the sqlite database at the given filename and creates the state table
// if it is not present.
func NewSQLite(ctx context.Context, filename string) (*SQLite, error) {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("error creating directory for %s: %w", filename, err)
		}
	}

	// immediate transactions take the write lock up front, so two writers in different
	// processes serialize instead of failing at commit.
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000", filename)

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to sqlite db at %s: %w", filename, err)
	}

	s := &SQLite{conn: conn, filename: filename}

	if err := s.initialize(ctx); err != nil {
		conn.Close()

		return nil, err
	}

	return s, nil
}

func (s *SQLite) initialize(ctx context.Context) error {
	// run idempotent setup sql to create empty tables if they don't exist
	if _, err := s.conn.ExecContext(ctx, baseSQL); err != nil {
		return fmt.Errorf("error running base sql: %w", err)
	}

	return nil
}

// Get returns the payload stored for key.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte

	err := s.conn.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = $1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", key, err)
	}

	return payload, nil
}

// Update reads and replaces the payload for key inside one immediate transaction.
func (s *SQLite) Update(ctx context.Context, key string, fn UpdateFunc) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction for %s: %w", key, err)
	}

	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	var current []byte

	err = tx.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = $1`, key).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("error loading %s: %w", key, err)
	}

	next, write, err := apply(fn, current)
	if err != nil {
		return err
	}

	if !write {
		return tx.Rollback()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO state (bucket, payload, updated_datetime) VALUES ($1, $2, $3)
		     ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload, updated_datetime = excluded.updated_datetime`,
		key, next, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("error saving %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing %s: %w", key, err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Filename returns the path of the database file.
func (s *SQLite) Filename() string {
	return s.filename
}
