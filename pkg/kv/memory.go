package kv

import (
	"context"
	"sync"
)

// Memory keeps records in a map. It is the in-process backend and the test double for the others.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return clone(m.data[key]), nil
}

// Update holds the store lock while fn runs.
func (m *Memory) Update(_ context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, write, err := apply(fn, clone(m.data[key]))
	if err != nil || !write {
		return err
	}

	m.data[key] = clone(next)

	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}

	out := make([]byte, len(b))
	copy(out, b)

	return out
}
