package domain

import (
	"errors"
	"fmt"
)

// Common errors for store and session operations.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrPersonaNotFound  = errors.New("persona not found")
	ErrSessionLocked    = errors.New("session is completed and read-only")
	ErrSessionCompleted = errors.New("session already completed")
)

// ValidationError rejects missing or unusable input before any backend call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BackendError wraps any failure of the generation backend, malformed
// structured output included. Enrichment call sites absorb it into a fixed
// fallback value; the primary reply call surfaces it and drops the turn.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("generation backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
