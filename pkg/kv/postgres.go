package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const defaultPostgresDSN = "postgres://localhost/sqr1?sslmode=disable"

// Postgres stores each record as one row of the sqr1_state table. Updates lock the row with
// SELECT ... FOR UPDATE, so writers in different processes serialize on the key.
type Postgres struct {
	conn *sql.DB
}

var _ Store = (*Postgres)(nil)

// NewPostgres opens the database at dsn (falls back to a local default) and ensures the state table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening postgres: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()

		return nil, fmt.Errorf("error pinging postgres: %w", err)
	}

	ddl := `CREATE TABLE IF NOT EXISTS sqr1_state (
		bucket     TEXT PRIMARY KEY,
		payload    BYTEA,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		conn.Close()

		return nil, fmt.Errorf("error ensuring state table: %w", err)
	}

	return &Postgres{conn: conn}, nil
}

// Get returns the payload stored for key.
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte

	err := p.conn.QueryRowContext(ctx, `SELECT payload FROM sqr1_state WHERE bucket = $1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", key, err)
	}

	return payload, nil
}

// Update seeds an empty row for key if needed, locks it and replaces its payload.
func (p *Postgres) Update(ctx context.Context, key string, fn UpdateFunc) (retErr error) {
	tx, err := p.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction for %s: %w", key, err)
	}

	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	// a row has to exist before it can be locked.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sqr1_state (bucket, payload) VALUES ($1, NULL) ON CONFLICT (bucket) DO NOTHING`, key,
	); err != nil {
		return fmt.Errorf("error seeding %s: %w", key, err)
	}

	var current []byte
	if err := tx.QueryRowContext(ctx,
		`SELECT payload FROM sqr1_state WHERE bucket = $1 FOR UPDATE`, key,
	).Scan(&current); err != nil {
		return fmt.Errorf("error locking %s: %w", key, err)
	}

	next, write, err := apply(fn, current)
	if err != nil {
		return err
	}

	if !write {
		return tx.Rollback()
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sqr1_state SET payload = $2, updated_at = now() WHERE bucket = $1`, key, next,
	); err != nil {
		return fmt.Errorf("error saving %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing %s: %w", key, err)
	}

	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	return p.conn.Close()
}
