package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidResponse   = errors.New("invalid survey response")
	ErrIncompleteProfile = errors.New("personality profile not complete")
	ErrConflict          = errors.New("conflict")
)

// ValidationError reports a rejected input together with the offending field.
// It unwraps to ErrInvalidResponse so callers can classify it with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidResponse
}
