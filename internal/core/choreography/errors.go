// Package choreography builds function choreographies: directed data-flow
// graphs that wire each step's inputs to global inputs or to outputs of
// earlier steps.
// This is part of the Functional Core - all functions are pure with no I/O.
package choreography

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Precondition errors
	ErrEmptyName = errors.New("choreography name is required")
	ErrEmptyPath = errors.New("service path is empty")

	// Wiring errors
	ErrMissingRequiredSource    = errors.New("no source found for required input")
	ErrMalformedFirstStepOutput = errors.New("first step declares no output ports")

	// Type mapping errors
	ErrEndpointCountMismatch = errors.New("endpoint count does not match step count")
	ErrInvalidResourceKind   = errors.New("invalid resource kind")
)

// CompositionError reports which step (and port, if any) broke composition.
type CompositionError struct {
	Step string
	Port string
	Err  error
}

func (e *CompositionError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("step %q input %q: %v", e.Step, e.Port, e.Err)
	}
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

func (e *CompositionError) Unwrap() error {
	return e.Err
}

// NewCompositionError creates a new CompositionError.
func NewCompositionError(step, port string, err error) *CompositionError {
	return &CompositionError{
		Step: step,
		Port: port,
		Err:  err,
	}
}
