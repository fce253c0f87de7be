// Package apperr declares the sentinel errors shared across stores and
// services. Handlers map them to HTTP statuses with errors.Is; callers wrap
// them with fmt.Errorf("...: %w", ...) to carry a human-readable message.
package apperr

import "errors"

var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an id or reference that does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a unique-constraint violation surfaced from the
	// store, e.g. a duplicate enrollment or course code.
	ErrConflict = errors.New("already exists")
)
