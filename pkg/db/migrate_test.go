package db_test

import (
	"encoding/json"
	"testing"

	"github.com/matt-steen/sqr1/pkg/db"
	"github.com/stretchr/testify/assert"
)

func TestMigrateTabDefaults(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	tab := db.MigrateTab(db.RawTab{ID: "t1", Title: "Notes", Content: "hello"})
	assert.Equal(db.Tab{ID: "t1", Title: "Notes", Content: "hello", Mode: db.ModeNote, Checklist: []db.ChecklistItem{}}, tab)

	empty := db.TabMode("")
	tab = db.MigrateTab(db.RawTab{ID: "t1", Mode: &empty})
	assert.Equal(db.ModeNote, tab.Mode)
}

func TestMigrateTabKeepsCurrentFields(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	mode := db.ModeChecklist
	items := []db.ChecklistItem{{ID: "c1", Text: "milk", Done: true}}

	tab := db.MigrateTab(db.RawTab{ID: "t1", Title: "List", Content: "old note", Mode: &mode, Checklist: items})
	assert.Equal(db.Tab{ID: "t1", Title: "List", Content: "old note", Mode: db.ModeChecklist, Checklist: items}, tab)
}

func TestMigrateTabIsIdempotent(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	for _, raw := range []db.RawTab{
		{ID: "t1", Title: "Legacy"},
		{ID: "t2", Content: "x", Checklist: []db.ChecklistItem{{ID: "c", Text: "y"}}},
	} {
		once := db.MigrateTab(raw)
		twice := db.MigrateTab(db.AsRaw(once))
		assert.Equal(once, twice)
	}
}

func TestMigrateProjects(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	projects, err := db.MigrateProjects(nil)
	assert.Nil(err)
	assert.Equal([]db.Project{}, projects)

	projects, err = db.MigrateProjects([]byte(`[]`))
	assert.Nil(err)
	assert.Equal([]db.Project{}, projects)

	projects, err = db.MigrateProjects([]byte(
		`[{"id":"p1","title":"A","tabs":[{"id":"t1","title":"x","content":"c"},` +
			`{"id":"t2","title":"y","content":"","mode":"checklist","checklist":[{"id":"c1","text":"z","done":false}]}]}]`))
	assert.Nil(err)
	assert.Equal([]db.Project{{
		ID:    "p1",
		Title: "A",
		Tabs: []db.Tab{
			{ID: "t1", Title: "x", Content: "c", Mode: db.ModeNote, Checklist: []db.ChecklistItem{}},
			{ID: "t2", Title: "y", Content: "", Mode: db.ModeChecklist, Checklist: []db.ChecklistItem{{ID: "c1", Text: "z"}}},
		},
	}}, projects)

	_, err = db.MigrateProjects([]byte(`[{"id":"p1","title":"A"}]`))
	assert.NotNil(err)

	_, err = db.MigrateProjects([]byte(`{`))
	assert.NotNil(err)
}

func TestMigratedProjectsRoundTrip(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	projects, err := db.MigrateProjects([]byte(`[{"id":"p1","title":"A","tabs":[{"id":"t1","title":"x","content":"c"}]}]`))
	assert.Nil(err)

	data, err := json.Marshal(projects)
	assert.Nil(err)

	again, err := db.MigrateProjects(data)
	assert.Nil(err)
	assert.Equal(projects, again)
}
