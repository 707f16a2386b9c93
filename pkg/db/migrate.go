package db

import (
	"encoding/json"
	"errors"
)

var errMalformed = errors.New("malformed record")

// RawTab is a tab as it may have been stored by an older version, which lacked mode and checklist.
type RawTab struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Mode      *TabMode        `json:"mode,omitempty"`
	Checklist []ChecklistItem `json:"checklist,omitempty"`
}

type rawProject struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tabs  []RawTab `json:"tabs"`
}

// MigrateTab fills in the fields older records lack: mode defaults to note and checklist to empty.
// It is applied on every read, so it must stay idempotent.
func MigrateTab(raw RawTab) Tab {
	mode := ModeNote
	if raw.Mode != nil && *raw.Mode != "" {
		mode = *raw.Mode
	}

	checklist := raw.Checklist
	if checklist == nil {
		checklist = []ChecklistItem{}
	}

	return Tab{
		ID:        raw.ID,
		Title:     raw.Title,
		Content:   raw.Content,
		Mode:      mode,
		Checklist: checklist,
	}
}

// AsRaw converts a tab back to its stored shape.
func AsRaw(t Tab) RawTab {
	mode := t.Mode

	return RawTab{
		ID:        t.ID,
		Title:     t.Title,
		Content:   t.Content,
		Mode:      &mode,
		Checklist: t.Checklist,
	}
}

// MigrateProjects decodes the projects record and migrates every tab. An absent record is an
// empty list; anything that does not decode, including a project without a tabs array, is an error.
func MigrateProjects(data []byte) ([]Project, error) {
	projects := []Project{}
	if len(data) == 0 {
		return projects, nil
	}

	var raws []rawProject
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}

	for _, raw := range raws {
		if raw.Tabs == nil {
			return nil, errMalformed
		}

		tabs := make([]Tab, 0, len(raw.Tabs))
		for _, tab := range raw.Tabs {
			tabs = append(tabs, MigrateTab(tab))
		}

		projects = append(projects, Project{ID: raw.ID, Title: raw.Title, Tabs: tabs})
	}

	return projects, nil
}
