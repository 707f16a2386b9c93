package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matt-steen/sqr1/pkg/kv"
	"github.com/rs/zerolog/log"
)

// ProjectStore owns the projects record and the tabs nested in it. Every mutation is a single
// read-modify-write of the whole record, so the limit checks and the change they guard are atomic.
type ProjectStore struct {
	kv      kv.Store
	newID   IDFunc
	metrics *Metrics
}

// TabPatch lists the tab fields to change; nil fields are left as they are.
type TabPatch struct {
	Title     *string
	Content   *string
	Mode      *TabMode
	Checklist *[]ChecklistItem
}

func (p TabPatch) validate() error {
	if p.Mode != nil && !p.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, *p.Mode)
	}

	if p.Content != nil {
		if err := validateContent(*p.Content); err != nil {
			return err
		}
	}

	if p.Checklist != nil {
		if err := validateChecklist(*p.Checklist); err != nil {
			return err
		}
	}

	return nil
}

func (p TabPatch) applyTo(tab *Tab) {
	if p.Title != nil {
		tab.Title = *p.Title
	}

	if p.Content != nil {
		tab.Content = *p.Content
	}

	if p.Mode != nil {
		tab.Mode = *p.Mode
	}

	if p.Checklist != nil {
		tab.Checklist = append([]ChecklistItem{}, *p.Checklist...)
	}
}

func (s *ProjectStore) decode(data []byte) []Project {
	projects, err := MigrateProjects(data)
	if err != nil {
		// an unreadable record degrades to "no projects"; the next write replaces it.
		log.Warn().Err(err).Str("key", ProjectsKey).Msg("stored projects are unreadable, treating as empty")
		s.metrics.corruptRecord(ProjectsKey)

		return []Project{}
	}

	return projects
}

func (s *ProjectStore) load(ctx context.Context) ([]Project, error) {
	data, err := s.kv.Get(ctx, ProjectsKey)
	if err != nil {
		return nil, fmt.Errorf("error loading projects: %w", err)
	}

	return s.decode(data), nil
}

func (s *ProjectStore) update(ctx context.Context, fn func([]Project) ([]Project, error)) error {
	return s.kv.Update(ctx, ProjectsKey, func(current []byte) ([]byte, error) {
		next, err := fn(s.decode(current))
		if err != nil {
			return nil, err
		}

		return json.Marshal(next)
	})
}

func (s *ProjectStore) done(operation string, err error) error {
	s.metrics.observe(storeProjects, operation, err)

	return err
}

func (s *ProjectStore) newTab() Tab {
	return Tab{
		ID:        s.newID(),
		Title:     DefaultTabTitle,
		Content:   "",
		Mode:      ModeNote,
		Checklist: []ChecklistItem{},
	}
}

func findProject(projects []Project, id string) *Project {
	for i := range projects {
		if projects[i].ID == id {
			return &projects[i]
		}
	}

	return nil
}

// Projects returns all projects in creation order, with every tab migrated to the current shape.
func (s *ProjectStore) Projects(ctx context.Context) ([]Project, error) {
	projects, err := s.load(ctx)

	return projects, s.done("get_projects", err)
}

// Project returns the project with the given id, or ErrNotFound.
func (s *ProjectStore) Project(ctx context.Context, id string) (*Project, error) {
	projects, err := s.load(ctx)
	if err != nil {
		return nil, s.done("get_project", err)
	}

	if p := findProject(projects, id); p != nil {
		return p, s.done("get_project", nil)
	}

	return nil, s.done("get_project", fmt.Errorf("project %s: %w", id, ErrNotFound))
}

// CreateProject appends a new project with one empty note tab. It returns ErrProjectLimit when
// MaxProjects projects already exist.
func (s *ProjectStore) CreateProject(ctx context.Context, title string) (*Project, error) {
	var created Project

	err := s.update(ctx, func(projects []Project) ([]Project, error) {
		if len(projects) >= MaxProjects {
			return nil, ErrProjectLimit
		}

		created = Project{ID: s.newID(), Title: title, Tabs: []Tab{s.newTab()}}

		return append(projects, created), nil
	})
	if err != nil {
		return nil, s.done("create_project", fmt.Errorf("error creating project '%s': %w", title, err))
	}

	log.Debug().Str("project", created.ID).Msgf("created project '%s'", title)

	return &created, s.done("create_project", nil)
}

// UpdateProject replaces the stored project with the same id. Nothing happens when no such project
// exists. A project that breaks the tab limits is rejected with ErrInvalidProject.
func (s *ProjectStore) UpdateProject(ctx context.Context, project Project) error {
	if err := project.Validate(); err != nil {
		return s.done("update_project", err)
	}

	err := s.update(ctx, func(projects []Project) ([]Project, error) {
		p := findProject(projects, project.ID)
		if p == nil {
			return nil, kv.ErrNoChange
		}

		*p = project

		return projects, nil
	})
	if err != nil {
		return s.done("update_project", fmt.Errorf("error updating project %s: %w", project.ID, err))
	}

	log.Debug().Str("project", project.ID).Msg("updated project")

	return s.done("update_project", nil)
}

// DeleteProject removes the project and its tabs. Events that reference it are left alone.
func (s *ProjectStore) DeleteProject(ctx context.Context, id string) error {
	err := s.update(ctx, func(projects []Project) ([]Project, error) {
		kept := make([]Project, 0, len(projects))

		for _, p := range projects {
			if p.ID != id {
				kept = append(kept, p)
			}
		}

		if len(kept) == len(projects) {
			return nil, kv.ErrNoChange
		}

		return kept, nil
	})
	if err != nil {
		return s.done("delete_project", fmt.Errorf("error deleting project %s: %w", id, err))
	}

	log.Debug().Str("project", id).Msg("deleted project")

	return s.done("delete_project", nil)
}

// AddTab appends an empty note tab. It returns ErrNotFound for an unknown project and ErrTabLimit
// when the project already has MaxTabs tabs.
func (s *ProjectStore) AddTab(ctx context.Context, projectID string) (*Tab, error) {
	var added Tab

	err := s.update(ctx, func(projects []Project) ([]Project, error) {
		p := findProject(projects, projectID)
		if p == nil {
			return nil, ErrNotFound
		}

		if len(p.Tabs) >= MaxTabs {
			return nil, ErrTabLimit
		}

		added = s.newTab()
		p.Tabs = append(p.Tabs, added)

		return projects, nil
	})
	if err != nil {
		return nil, s.done("add_tab", fmt.Errorf("error adding tab to project %s: %w", projectID, err))
	}

	log.Debug().Str("project", projectID).Str("tab", added.ID).Msg("added tab")

	return &added, s.done("add_tab", nil)
}

// UpdateTab merges patch into the tab. Nothing happens when the project or tab does not exist.
// The patch is validated first: ErrContentTooLong, ErrChecklistLimit and ErrInvalidMode reject it
// without touching the store.
func (s *ProjectStore) UpdateTab(ctx context.Context, projectID, tabID string, patch TabPatch) error {
	if err := patch.validate(); err != nil {
		return s.done("update_tab", fmt.Errorf("error updating tab %s: %w", tabID, err))
	}

	err := s.withTab(ctx, projectID, tabID, kv.ErrNoChange, func(tab *Tab) error {
		patch.applyTo(tab)

		return nil
	})
	if err != nil {
		return s.done("update_tab", fmt.Errorf("error updating tab %s: %w", tabID, err))
	}

	return s.done("update_tab", nil)
}

// DeleteTab removes the tab unless it is the last one of its project.
func (s *ProjectStore) DeleteTab(ctx context.Context, projectID, tabID string) error {
	err := s.update(ctx, func(projects []Project) ([]Project, error) {
		p := findProject(projects, projectID)
		if p == nil || len(p.Tabs) <= 1 {
			return nil, kv.ErrNoChange
		}

		kept := make([]Tab, 0, len(p.Tabs))

		for _, tab := range p.Tabs {
			if tab.ID != tabID {
				kept = append(kept, tab)
			}
		}

		if len(kept) == len(p.Tabs) {
			return nil, kv.ErrNoChange
		}

		p.Tabs = kept

		return projects, nil
	})
	if err != nil {
		return s.done("delete_tab", fmt.Errorf("error deleting tab %s: %w", tabID, err))
	}

	log.Debug().Str("project", projectID).Str("tab", tabID).Msg("deleted tab")

	return s.done("delete_tab", nil)
}

// CanCreateProject reports whether CreateProject would currently succeed.
func (s *ProjectStore) CanCreateProject(ctx context.Context) (bool, error) {
	projects, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	return len(projects) < MaxProjects, nil
}

// CanAddTab reports whether AddTab would currently succeed. It is false for an unknown project.
func (s *ProjectStore) CanAddTab(ctx context.Context, projectID string) (bool, error) {
	projects, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	p := findProject(projects, projectID)

	return p != nil && len(p.Tabs) < MaxTabs, nil
}

// withTab runs fn on the matching tab inside one update. missing is returned when the project or
// the tab does not exist; pass kv.ErrNoChange to make that a silent no-op.
func (s *ProjectStore) withTab(ctx context.Context, projectID, tabID string, missing error, fn func(*Tab) error) error {
	return s.update(ctx, func(projects []Project) ([]Project, error) {
		p := findProject(projects, projectID)
		if p == nil {
			return nil, missing
		}

		tab := p.Tab(tabID)
		if tab == nil {
			return nil, missing
		}

		if err := fn(tab); err != nil {
			return nil, err
		}

		return projects, nil
	})
}
