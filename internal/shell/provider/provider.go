// Package provider deploys planned service functions to hosting platforms.
// This is part of the Imperative Shell - handles I/O with cloud and container APIs.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/choreography"
)

// Provider defines the interface for deployment providers.
type Provider interface {
	// Name identifies the provider in logs and run records.
	Name() string

	// Deploy makes every function of path invocable and returns one
	// endpoint per function, in path order.
	Deploy(ctx context.Context, path []catalog.ServiceFunction) ([]choreography.Endpoint, error)

	// Reset removes everything the provider previously deployed.
	// Resources that are already gone are not an error.
	Reset(ctx context.Context) error
}

// =============================================================================
// Errors
// =============================================================================

var (
	ErrRootResourceNotFound = errors.New("API root resource not found")
	ErrMissingARN           = errors.New("response did not include an ARN")
	ErrNoHostPort           = errors.New("container published no host port")
)

// ProviderError wraps a failed provider call with the operation and resource.
type ProviderError struct {
	Provider string
	Op       string // e.g. "CreateFunction"
	Resource string // e.g. function or layer name
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Provider, e.Op, e.Resource, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, op, resource string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Op:       op,
		Resource: resource,
		Err:      err,
	}
}
