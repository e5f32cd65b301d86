package state

import "errors"

// Domain-specific errors for state operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrEntityNotFound is returned when an entity has never reported state.
	ErrEntityNotFound = errors.New("state: entity not found")
)
