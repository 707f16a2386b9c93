package kv

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedis(client, "test:", 100)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	runStoreTests(t, func(t *testing.T) Store {
		store, _ := newTestRedis(t)

		return store
	})
}

func TestRedisUsesPrefix(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	store, mr := newTestRedis(t)

	err := store.Update(context.Background(), "sqr1-projects", func([]byte) ([]byte, error) {
		return []byte(`[]`), nil
	})
	assert.Nil(err)

	value, err := mr.Get("test:sqr1-projects")
	assert.Nil(err)
	assert.Equal(`[]`, value)
}

func TestRedisRetriesWhenKeyChangesUnderWatch(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	store, mr := newTestRedis(t)
	ctx := context.Background()

	calls := 0
	err := store.Update(ctx, "k", func(current []byte) ([]byte, error) {
		calls++
		if calls == 1 {
			// another client writes between our read and our commit.
			assert.Nil(mr.Set("test:k", "other"))

			return []byte("mine"), nil
		}

		assert.Equal("other", string(current))

		return []byte("mine after other"), nil
	})
	assert.Nil(err)
	assert.Equal(2, calls)

	data, err := store.Get(ctx, "k")
	assert.Nil(err)
	assert.Equal("mine after other", string(data))
}

func TestRedisGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "", 2)
	t.Cleanup(func() { _ = store.Close() })

	err = store.Update(context.Background(), "k", func([]byte) ([]byte, error) {
		assert.Nil(mr.Set("k", "always changing"))

		return []byte("never stored"), nil
	})
	assert.ErrorIs(err, ErrConflict)
}

func TestOpenRedisBadURL(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	store, err := OpenRedis(context.Background(), "not a url", "", 0)
	assert.Nil(store)
	assert.Contains(err.Error(), "error parsing redis url")
}
