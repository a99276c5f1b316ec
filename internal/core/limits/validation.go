// Package limits checks deployment plans against provider quotas.
// All functions are pure (no I/O).
package limits

import (
	"fmt"

	"github.com/artpar/baasflow/internal/core/deployment"
)

// =============================================================================
// Types
// =============================================================================

// ValidationResult represents the outcome of a limit validation check.
type ValidationResult struct {
	// Allowed indicates whether the plan fits within the limits
	Allowed bool

	// Reason explains why the plan was rejected (empty if Allowed is true)
	Reason string
}

// Limits are the quotas a provider enforces per deployed function.
// A zero maximum disables that check.
type Limits struct {
	MinMemoryMB       int
	MaxMemoryMB       int
	MinTimeoutSeconds int
	MaxTimeoutSeconds int
	MaxLayers         int // layers attached to one function
	MaxFunctions      int // functions in one plan
}

// LambdaLimits returns the AWS Lambda quotas.
func LambdaLimits() Limits {
	return Limits{
		MinMemoryMB:       128,
		MaxMemoryMB:       10240,
		MinTimeoutSeconds: 1,
		MaxTimeoutSeconds: 900,
		MaxLayers:         5,
	}
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFunction checks one function plan against limits.
func ValidateFunction(limits Limits, fp deployment.FunctionPlan) ValidationResult {
	if fp.Memory < limits.MinMemoryMB || (limits.MaxMemoryMB > 0 && fp.Memory > limits.MaxMemoryMB) {
		return ValidationResult{
			Allowed: false,
			Reason:  fmt.Sprintf("function %s: memory %d MB outside %d-%d MB", fp.Name, fp.Memory, limits.MinMemoryMB, limits.MaxMemoryMB),
		}
	}

	if fp.Timeout < limits.MinTimeoutSeconds || (limits.MaxTimeoutSeconds > 0 && fp.Timeout > limits.MaxTimeoutSeconds) {
		return ValidationResult{
			Allowed: false,
			Reason:  fmt.Sprintf("function %s: timeout %ds outside %d-%ds", fp.Name, fp.Timeout, limits.MinTimeoutSeconds, limits.MaxTimeoutSeconds),
		}
	}

	if limits.MaxLayers > 0 && len(fp.Layers) > limits.MaxLayers {
		return ValidationResult{
			Allowed: false,
			Reason:  fmt.Sprintf("function %s: layer limit exceeded: %d/%d", fp.Name, len(fp.Layers), limits.MaxLayers),
		}
	}

	return ValidationResult{Allowed: true}
}

// ValidatePlan checks every function of plan against limits and reports
// the first violation.
func ValidatePlan(limits Limits, plan deployment.Plan) ValidationResult {
	if limits.MaxFunctions > 0 && len(plan.Functions) > limits.MaxFunctions {
		return ValidationResult{
			Allowed: false,
			Reason:  fmt.Sprintf("function limit exceeded: %d/%d", len(plan.Functions), limits.MaxFunctions),
		}
	}

	for _, fp := range plan.Functions {
		if r := ValidateFunction(limits, fp); !r.Allowed {
			return r
		}
	}

	return ValidationResult{Allowed: true}
}

// =============================================================================
// Convenience Methods
// =============================================================================

// Ok returns true if the validation passed.
func (r ValidationResult) Ok() bool {
	return r.Allowed
}

// Error returns the reason as an error if validation failed, nil otherwise.
func (r ValidationResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("provider limit exceeded: %s", r.Reason)
}
