package kv

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Postgres tests need a live server; set SQR1_TEST_POSTGRES_DSN to run them.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("SQR1_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SQR1_TEST_POSTGRES_DSN not set")
	}

	runStoreTests(t, func(t *testing.T) Store {
		ctx := context.Background()

		store, err := NewPostgres(ctx, dsn)
		require.NoError(t, err)

		_, err = store.conn.ExecContext(ctx, `TRUNCATE sqr1_state`)
		require.NoError(t, err)

		t.Cleanup(func() { _ = store.Close() })

		return store
	})
}
