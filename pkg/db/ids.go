package db

import "github.com/google/uuid"

// IDFunc produces identifiers for new projects, tabs, checklist items and events.
type IDFunc func() string

// GenerateID returns a time-ordered random identifier (UUIDv7: millisecond timestamp plus
// random bits). No registry is kept; uniqueness is probabilistic.
func GenerateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
