package db

import (
	"fmt"
	"unicode/utf8"
)

// These constants are the limits of the free tier.
const (
	MaxProjects           = 3
	MaxTabs               = 7
	MaxContentLength      = 1000
	MaxEventsPerMonth     = 9
	MaxFreeChecklistItems = 5
)

// Keys of the two persisted records.
const (
	ProjectsKey = "sqr1-projects"
	EventsKey   = "sqr1-events"
)

// DefaultTabTitle is the title of every new tab.
const DefaultTabTitle = "Untitled"

// TabMode selects which representation of a tab is shown.
type TabMode string

// These constants refer to the modes a tab supports.
const (
	ModeNote      TabMode = "note"
	ModeChecklist TabMode = "checklist"
)

// Valid reports whether m is a known mode.
func (m TabMode) Valid() bool {
	return m == ModeNote || m == ModeChecklist
}

// ChecklistItem is one line of a checklist tab.
type ChecklistItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Tab holds both a free-text body and a checklist. Mode decides which one is in use; switching
// modes keeps the other.
type Tab struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Mode      TabMode         `json:"mode"`
	Checklist []ChecklistItem `json:"checklist"`
}

// Validate checks the limits a stored tab must respect.
func (t Tab) Validate() error {
	if !t.Mode.Valid() {
		return fmt.Errorf("tab %s: %w: %q", t.ID, ErrInvalidMode, t.Mode)
	}

	if err := validateContent(t.Content); err != nil {
		return fmt.Errorf("tab %s: %w", t.ID, err)
	}

	if err := validateChecklist(t.Checklist); err != nil {
		return fmt.Errorf("tab %s: %w", t.ID, err)
	}

	return nil
}

// Project owns an ordered list of tabs. Tab order is the display order.
type Project struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Tabs  []Tab  `json:"tabs"`
}

// Validate checks that the project keeps between one and MaxTabs valid tabs.
func (p Project) Validate() error {
	if len(p.Tabs) < 1 || len(p.Tabs) > MaxTabs {
		return fmt.Errorf("%w: project %s has %d tabs, want 1 to %d", ErrInvalidProject, p.ID, len(p.Tabs), MaxTabs)
	}

	for _, tab := range p.Tabs {
		if err := tab.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProject, err)
		}
	}

	return nil
}

// Tab returns the tab with the given id, or nil.
func (p *Project) Tab(id string) *Tab {
	for i := range p.Tabs {
		if p.Tabs[i].ID == id {
			return &p.Tabs[i]
		}
	}

	return nil
}

// EventColor is one of the fixed palette colors an event can be labeled with.
type EventColor string

// The event palette.
const (
	ColorRed    EventColor = "#ef4444"
	ColorBlue   EventColor = "#3b82f6"
	ColorGreen  EventColor = "#22c55e"
	ColorYellow EventColor = "#eab308"
	ColorPink   EventColor = "#ec4899"
	ColorPurple EventColor = "#a855f7"
	ColorOrange EventColor = "#f97316"
	ColorBlack  EventColor = "#171717"
	ColorWhite  EventColor = "#fafafa"
)

// Palette lists the event colors in display order.
func Palette() []EventColor {
	return []EventColor{
		ColorRed,
		ColorBlue,
		ColorGreen,
		ColorYellow,
		ColorPink,
		ColorPurple,
		ColorOrange,
		ColorBlack,
		ColorWhite,
	}
}

// Valid reports whether c is in the palette.
func (c EventColor) Valid() bool {
	for _, p := range Palette() {
		if c == p {
			return true
		}
	}

	return false
}

// CalendarEvent is a dated entry. ProjectID is a weak reference: it is never checked against the
// stored projects and is left in place when the project is deleted.
type CalendarEvent struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	Date        string      `json:"date"`
	ProjectID   *string     `json:"projectId,omitempty"`
	Color       *EventColor `json:"color,omitempty"`
}

func validateContent(content string) error {
	if n := utf8.RuneCountInString(content); n > MaxContentLength {
		return fmt.Errorf("%w: %d characters, limit is %d", ErrContentTooLong, n, MaxContentLength)
	}

	return nil
}

func validateChecklist(items []ChecklistItem) error {
	if len(items) > MaxFreeChecklistItems {
		return fmt.Errorf("%w: %d items, limit is %d", ErrChecklistLimit, len(items), MaxFreeChecklistItems)
	}

	return nil
}
