package db

import "errors"

// Rejections are expected outcomes, not failures of the store. Callers match them with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrProjectLimit   = errors.New("project limit reached")
	ErrTabLimit       = errors.New("tab limit reached")
	ErrEventLimit     = errors.New("monthly event limit reached")
	ErrChecklistLimit = errors.New("checklist item limit reached")
	ErrContentTooLong = errors.New("content too long")
	ErrInvalidMode    = errors.New("invalid tab mode")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidColor   = errors.New("invalid event color")
	ErrInvalidProject = errors.New("invalid project")
)

// IsLimit reports whether err is one of the capacity rejections.
func IsLimit(err error) bool {
	return errors.Is(err, ErrProjectLimit) ||
		errors.Is(err, ErrTabLimit) ||
		errors.Is(err, ErrEventLimit) ||
		errors.Is(err, ErrChecklistLimit)
}

// IsInvalid reports whether err is a validation rejection.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrContentTooLong) ||
		errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidColor) ||
		errors.Is(err, ErrInvalidProject)
}
