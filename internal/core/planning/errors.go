package planning

import "errors"

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNoPathFound is returned by callers that treat an empty path as a failure.
	// The planner itself reports "no path" as an empty Path with a nil error.
	ErrNoPathFound = errors.New("no service path satisfies the target state")

	// ErrSearchBudgetExhausted is returned when the search expands more states
	// than Options.MaxExpansions allows.
	ErrSearchBudgetExhausted = errors.New("search budget exhausted")

	// ErrAnchorNotFound is returned when Options.RequireAnchor is set and the
	// anchor function is not in the catalog.
	ErrAnchorNotFound = errors.New("anchor function not found in catalog")

	// ErrNilCatalog is returned when the planner has no catalog.
	ErrNilCatalog = errors.New("catalog is nil")
)
