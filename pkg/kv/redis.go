package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis stores each record as a plain string value. Updates use WATCH/MULTI and retry when
// another client changed the key between the read and the write.
type Redis struct {
	client     *redis.Client
	prefix     string
	maxRetries int
}

var _ Store = (*Redis)(nil)

// NewRedis wraps client. Keys are stored as prefix+key.
func NewRedis(client *redis.Client, prefix string, maxRetries int) *Redis {
	if client == nil {
		panic("kv.NewRedis: client is nil")
	}

	return &Redis{client: client, prefix: prefix, maxRetries: retries(maxRetries)}
}

// OpenRedis connects to the server described by a redis:// URL.
func OpenRedis(ctx context.Context, url, prefix string, maxRetries int) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("error pinging redis: %w", err)
	}

	return NewRedis(client, prefix, maxRetries), nil
}

// Get returns the value stored for key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", key, err)
	}

	return data, nil
}

// Update runs fn under WATCH and commits the new value in a MULTI block.
func (r *Redis) Update(ctx context.Context, key string, fn UpdateFunc) error {
	name := r.prefix + key

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, name).Bytes()
		if errors.Is(err, redis.Nil) {
			current = nil
		} else if err != nil {
			return fmt.Errorf("error loading %s: %w", key, err)
		}

		next, write, err := apply(fn, current)
		if err != nil || !write {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, name, next, 0)

			return nil
		})

		return err
	}

	for i := 0; i < r.maxRetries; i++ {
		err := r.client.Watch(ctx, txf, name)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return err
	}

	return fmt.Errorf("error saving %s: %w", key, ErrConflict)
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
