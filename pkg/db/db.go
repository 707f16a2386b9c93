package db

import (
	"github.com/matt-steen/sqr1/pkg/kv"
)

// Database bundles the project and event stores over one persistence backend.
type Database struct {
	store    kv.Store
	Projects *ProjectStore
	Events   *EventStore
}

type options struct {
	newID   IDFunc
	metrics *Metrics
}

// Option configures NewDatabase.
type Option func(*options)

// WithIDFunc replaces GenerateID, e.g. to make ids deterministic in tests.
func WithIDFunc(fn IDFunc) Option {
	return func(o *options) {
		o.newID = fn
	}
}

// WithMetrics records store operations on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// NewDatabase creates the stores on top of store. Nothing is read until the first call; every
// operation loads the record it needs, so no state is cached between calls.
func NewDatabase(store kv.Store, opts ...Option) *Database {
	o := options{newID: GenerateID}
	for _, opt := range opts {
		opt(&o)
	}

	return &Database{
		store:    store,
		Projects: &ProjectStore{kv: store, newID: o.newID, metrics: o.metrics},
		Events:   &EventStore{kv: store, newID: o.newID, metrics: o.metrics},
	}
}

// Close closes the persistence backend.
func (d *Database) Close() error {
	return d.store.Close()
}
