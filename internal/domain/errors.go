package domain

import "errors"

var (
	// ErrNotFound means the order number is unknown. Terminal for the caller.
	ErrNotFound = errors.New("order not found")

	// ErrConflict means a concurrent transition won the version check.
	// Callers retry against freshly read state.
	ErrConflict = errors.New("order version conflict")

	// ErrInvalidTransition means the requested status is not reachable from
	// the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)
