package db_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/matt-steen/sqr1/pkg/db"
	"github.com/matt-steen/sqr1/pkg/kv"
	"github.com/stretchr/testify/assert"
)

// sequentialIDs returns id-1, id-2, ... so tests can predict identifiers.
func sequentialIDs() db.IDFunc {
	var n int64

	return func() string {
		return fmt.Sprintf("id-%d", atomic.AddInt64(&n, 1))
	}
}

func getDB() (*db.Database, *kv.Memory) {
	store := kv.NewMemory()

	return db.NewDatabase(store, db.WithIDFunc(sequentialIDs())), store
}

// seed writes a raw record, bypassing the stores.
func seed(assert *assert.Assertions, store kv.Store, key, value string) {
	err := store.Update(context.Background(), key, func([]byte) ([]byte, error) {
		return []byte(value), nil
	})
	assert.Nil(err)
}

func raw(assert *assert.Assertions, store kv.Store, key string) string {
	data, err := store.Get(context.Background(), key)
	assert.Nil(err)

	return string(data)
}

func addProject(assert *assert.Assertions, database *db.Database, title string) *db.Project {
	project, err := database.Projects.CreateProject(context.Background(), title)
	assert.Nil(err)
	assert.NotNil(project)

	return project
}

// brokenStore fails every call, standing in for an unreachable backend.
type brokenStore struct{}

var errBackend = errors.New("backend unavailable")

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errBackend }

func (brokenStore) Update(context.Context, string, kv.UpdateFunc) error { return errBackend }

func (brokenStore) Close() error { return nil }

func TestNewDatabaseUsesGeneratedIDs(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	database := db.NewDatabase(kv.NewMemory())

	defer database.Close()

	project := addProject(assert, database, "Work")
	assert.NotEmpty(project.ID)
	assert.NotEqual(project.ID, project.Tabs[0].ID)
}

func TestStorageErrorsAreReturned(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database := db.NewDatabase(brokenStore{})

	projects, err := database.Projects.Projects(ctx)
	assert.Nil(projects)
	assert.ErrorIs(err, errBackend)
	assert.Equal("error loading projects: backend unavailable", err.Error())

	project, err := database.Projects.CreateProject(ctx, "Work")
	assert.Nil(project)
	assert.ErrorIs(err, errBackend)

	events, err := database.Events.Events(ctx)
	assert.Nil(events)
	assert.ErrorIs(err, errBackend)

	ok, err := database.Events.CanCreateEvent(ctx, "2025-06-10")
	assert.False(ok)
	assert.ErrorIs(err, errBackend)
}
