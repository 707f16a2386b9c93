// Package kv provides the named-record storage the organizer persists into.
//
// Each record is an opaque byte slice stored under a fixed key. Writers never
// write blindly: every change goes through Update, which reads the current
// value and stores the replacement atomically with respect to any other
// Update of the same key. Capacity checks and the mutation they guard run
// inside the same UpdateFunc, so they cannot interleave.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrNoChange can be returned by an UpdateFunc to skip the write. Update then returns nil.
	ErrNoChange = errors.New("kv: no change")
	// ErrConflict is returned when an optimistic backend keeps losing the race for a key.
	ErrConflict = errors.New("kv: too many concurrent updates")
)

// UpdateFunc receives the current value of a record (nil when absent) and returns its replacement.
// It may be called more than once by optimistic backends, so it must not have side effects
// beyond the values it captures for the caller.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is the persistence port for the organizer's records.
type Store interface {
	// Get returns the value stored under key, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Update atomically replaces the value stored under key with the result of fn.
	// An error from fn aborts the update and is returned unchanged.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Close releases the backend's resources.
	Close() error
}

// apply runs fn and reports whether its result has to be written.
func apply(fn UpdateFunc, current []byte) ([]byte, bool, error) {
	next, err := fn(current)
	if errors.Is(err, ErrNoChange) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return next, true, nil
}

func retries(n int) int {
	if n <= 0 {
		return DefaultMaxRetries
	}

	return n
}
