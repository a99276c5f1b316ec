// Package catalog contains the read-only index of service functions and the
// providers that host them.
// This is part of the Functional Core - all functions are pure with no I/O.
package catalog

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Input validation errors
	ErrEmptyInput = errors.New("catalog document is empty")

	// Document structure errors
	ErrInvalidDocument = errors.New("invalid catalog document")
	ErrNoFunctions     = errors.New("catalog must define at least one function")

	// Function validation errors
	ErrEmptyFunctionName = errors.New("function name is required")
	ErrDuplicateFunction = errors.New("function name is not unique")
	ErrEmptyPortName     = errors.New("data port name is required")

	// Provider validation errors
	ErrEmptyProviderName = errors.New("provider name is required")
	ErrDuplicateProvider = errors.New("provider name is not unique")
)

// ParseError wraps errors with context about where parsing failed.
type ParseError struct {
	Field   string // e.g., "functions[2].dataIns[0]"
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
