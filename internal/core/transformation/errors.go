// Package transformation models planning states and the start/target pair
// that drives a single planning request.
// This is part of the Functional Core - all functions are pure with no I/O.
package transformation

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Input validation errors
	ErrEmptyInput = errors.New("transformation document is empty")

	// Document structure errors
	ErrInvalidDocument = errors.New("invalid transformation document")
	ErrMissingInput    = errors.New("transformation must define an input object")
	ErrMissingOutput   = errors.New("transformation must define an output object")
)

// ParseError wraps errors with context about where parsing failed.
type ParseError struct {
	Field   string // e.g., "output"
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(field, message string, err error) *ParseError {
	return &ParseError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
