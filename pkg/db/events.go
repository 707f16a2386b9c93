package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matt-steen/sqr1/pkg/kv"
	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

// UnknownProjectName is shown for an event whose project no longer exists.
const UnknownProjectName = "Unknown Project"

// EventStore owns the flat events record. The monthly limit is counted across all events,
// whatever project they reference.
type EventStore struct {
	kv      kv.Store
	newID   IDFunc
	metrics *Metrics
}

// NewEvent describes an event to create. Description, ProjectID and Color are optional.
type NewEvent struct {
	Title       string
	Date        string
	Description *string
	ProjectID   *string
	Color       *EventColor
}

// EventPatch lists the event fields to change. Pointer fields set a value; the Clear flags reset
// the optional fields to absent. The id can not be changed.
type EventPatch struct {
	Title            *string
	Description      *string
	Date             *string
	ProjectID        *string
	Color            *EventColor
	ClearDescription bool
	ClearProject     bool
	ClearColor       bool
}

func (p EventPatch) validate() error {
	if p.Date != nil {
		if err := validateDate(*p.Date); err != nil {
			return err
		}
	}

	if p.Color != nil {
		return validateColor(*p.Color)
	}

	return nil
}

func (p EventPatch) applyTo(e *CalendarEvent) {
	if p.Title != nil {
		e.Title = *p.Title
	}

	if p.Date != nil {
		e.Date = *p.Date
	}

	switch {
	case p.ClearDescription:
		e.Description = nil
	case p.Description != nil:
		e.Description = stringPtr(*p.Description)
	}

	switch {
	case p.ClearProject:
		e.ProjectID = nil
	case p.ProjectID != nil:
		e.ProjectID = stringPtr(*p.ProjectID)
	}

	switch {
	case p.ClearColor:
		e.Color = nil
	case p.Color != nil:
		c := *p.Color
		e.Color = &c
	}
}

// YearMonth returns the "YYYY-MM" prefix of an ISO date. Shorter input is returned whole.
func YearMonth(date string) string {
	if len(date) < 7 {
		return date
	}

	return date[:7]
}

// ProjectName resolves an event's project reference for display: "" for an event without a
// project and UnknownProjectName when the project is gone.
func ProjectName(projects []Project, projectID *string) string {
	if projectID == nil {
		return ""
	}

	if p := findProject(projects, *projectID); p != nil {
		return p.Title
	}

	return UnknownProjectName
}

func validateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, date)
	}

	return nil
}

func validateColor(c EventColor) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidColor, c)
	}

	return nil
}

func stringPtr(s string) *string {
	return &s
}

func (s *EventStore) decode(data []byte) []CalendarEvent {
	events := []CalendarEvent{}
	if len(data) == 0 {
		return events
	}

	if err := json.Unmarshal(data, &events); err != nil {
		log.Warn().Err(err).Str("key", EventsKey).Msg("stored events are unreadable, treating as empty")
		s.metrics.corruptRecord(EventsKey)

		return []CalendarEvent{}
	}

	if events == nil {
		events = []CalendarEvent{}
	}

	return events
}

func (s *EventStore) load(ctx context.Context) ([]CalendarEvent, error) {
	data, err := s.kv.Get(ctx, EventsKey)
	if err != nil {
		return nil, fmt.Errorf("error loading events: %w", err)
	}

	return s.decode(data), nil
}

func (s *EventStore) update(ctx context.Context, fn func([]CalendarEvent) ([]CalendarEvent, error)) error {
	return s.kv.Update(ctx, EventsKey, func(current []byte) ([]byte, error) {
		next, err := fn(s.decode(current))
		if err != nil {
			return nil, err
		}

		return json.Marshal(next)
	})
}

func (s *EventStore) done(operation string, err error) error {
	s.metrics.observe(storeEvents, operation, err)

	return err
}

func countInMonth(events []CalendarEvent, yearMonth string) int {
	n := 0

	for _, e := range events {
		if YearMonth(e.Date) == yearMonth {
			n++
		}
	}

	return n
}

func filterEvents(events []CalendarEvent, projectID *string, match func(CalendarEvent) bool) []CalendarEvent {
	out := []CalendarEvent{}

	for _, e := range events {
		if !match(e) {
			continue
		}

		if projectID != nil && (e.ProjectID == nil || *e.ProjectID != *projectID) {
			continue
		}

		out = append(out, e)
	}

	return out
}

// Events returns every stored event.
func (s *EventStore) Events(ctx context.Context) ([]CalendarEvent, error) {
	events, err := s.load(ctx)

	return events, s.done("get_events", err)
}

// CountEventsInMonth counts the events dated in yearMonth ("YYYY-MM").
func (s *EventStore) CountEventsInMonth(ctx context.Context, yearMonth string) (int, error) {
	events, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	return countInMonth(events, yearMonth), nil
}

// CanCreateEvent reports whether the month of date still has room for an event.
func (s *EventStore) CanCreateEvent(ctx context.Context, date string) (bool, error) {
	n, err := s.CountEventsInMonth(ctx, YearMonth(date))
	if err != nil {
		return false, err
	}

	return n < MaxEventsPerMonth, nil
}

// CreateEvent stores a new event. It returns ErrEventLimit when the event's month already holds
// MaxEventsPerMonth events. The project reference is not checked.
func (s *EventStore) CreateEvent(ctx context.Context, ne NewEvent) (*CalendarEvent, error) {
	if err := validateDate(ne.Date); err != nil {
		return nil, s.done("create_event", fmt.Errorf("error creating event '%s': %w", ne.Title, err))
	}

	if ne.Color != nil {
		if err := validateColor(*ne.Color); err != nil {
			return nil, s.done("create_event", fmt.Errorf("error creating event '%s': %w", ne.Title, err))
		}
	}

	var created CalendarEvent

	err := s.update(ctx, func(events []CalendarEvent) ([]CalendarEvent, error) {
		if countInMonth(events, YearMonth(ne.Date)) >= MaxEventsPerMonth {
			return nil, ErrEventLimit
		}

		created = CalendarEvent{
			ID:          s.newID(),
			Title:       ne.Title,
			Description: ne.Description,
			Date:        ne.Date,
			ProjectID:   ne.ProjectID,
			Color:       ne.Color,
		}

		return append(events, created), nil
	})
	if err != nil {
		return nil, s.done("create_event", fmt.Errorf("error creating event '%s': %w", ne.Title, err))
	}

	log.Debug().Str("event", created.ID).Str("date", created.Date).Msgf("created event '%s'", created.Title)

	return &created, s.done("create_event", nil)
}

// UpdateEvent merges patch into the event and returns the result, or ErrNotFound. Moving an event
// into a month that is already full is allowed: the monthly limit only gates creation.
func (s *EventStore) UpdateEvent(ctx context.Context, id string, patch EventPatch) (*CalendarEvent, error) {
	if err := patch.validate(); err != nil {
		return nil, s.done("update_event", fmt.Errorf("error updating event %s: %w", id, err))
	}

	var updated CalendarEvent

	err := s.update(ctx, func(events []CalendarEvent) ([]CalendarEvent, error) {
		for i := range events {
			if events[i].ID == id {
				patch.applyTo(&events[i])
				updated = events[i]

				return events, nil
			}
		}

		return nil, ErrNotFound
	})
	if err != nil {
		return nil, s.done("update_event", fmt.Errorf("error updating event %s: %w", id, err))
	}

	log.Debug().Str("event", id).Msg("updated event")

	return &updated, s.done("update_event", nil)
}

// DeleteEvent removes the event with the given id, if any.
func (s *EventStore) DeleteEvent(ctx context.Context, id string) error {
	err := s.update(ctx, func(events []CalendarEvent) ([]CalendarEvent, error) {
		kept := make([]CalendarEvent, 0, len(events))

		for _, e := range events {
			if e.ID != id {
				kept = append(kept, e)
			}
		}

		if len(kept) == len(events) {
			return nil, kv.ErrNoChange
		}

		return kept, nil
	})
	if err != nil {
		return s.done("delete_event", fmt.Errorf("error deleting event %s: %w", id, err))
	}

	log.Debug().Str("event", id).Msg("deleted event")

	return s.done("delete_event", nil)
}

// EventsForDate returns the events on date, limited to projectID when it is non-nil.
func (s *EventStore) EventsForDate(ctx context.Context, date string, projectID *string) ([]CalendarEvent, error) {
	events, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	return filterEvents(events, projectID, func(e CalendarEvent) bool { return e.Date == date }), nil
}

// EventsForMonth returns the events in yearMonth, limited to projectID when it is non-nil.
func (s *EventStore) EventsForMonth(ctx context.Context, yearMonth string, projectID *string) ([]CalendarEvent, error) {
	events, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	return filterEvents(events, projectID, func(e CalendarEvent) bool { return YearMonth(e.Date) == yearMonth }), nil
}
