package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// Every *ValidationError matches it through errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthorized is returned when an operation requires an authenticated caller.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// ValidationError reports a single violated field rule. Err carries the
// rule-specific sentinel (for example ErrDueDateInPast) so callers can test
// for the exact rule with errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Unwrap returns the rule-specific error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports true for ErrValidation so that all validation failures can be
// detected without knowing the specific rule.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
