// Package provider contains pure functions for deployment provider selection.
// This is part of the Functional Core - all functions are pure with no I/O.
package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/baasflow/internal/core/catalog"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrUnknownProvider      = errors.New("unknown provider type")
	ErrRegionRequired       = errors.New("region is required: set input.region or aws.region")
	ErrAWSAccessKeyRequired = errors.New("AWS access key ID is required")
	ErrAWSSecretKeyRequired = errors.New("AWS secret access key is required")
)

// =============================================================================
// Provider Kinds
// =============================================================================

// Kind names a deployment provider implementation.
type Kind string

const (
	KindAWS   Kind = "aws"
	KindLocal Kind = "local"
	KindDemo  Kind = "demo"
)

// ParseKind parses a provider name case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAWS, KindLocal, KindDemo:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

// ResourceKind returns the type-mapping resource kind a provider emits.
func (k Kind) ResourceKind() catalog.ResourceKind {
	switch k {
	case KindAWS:
		return catalog.ResourceServerless
	case KindLocal:
		return catalog.ResourceLocal
	}
	// Demo endpoints stand in for serverless deployments.
	return catalog.ResourceServerless
}

// =============================================================================
// Region
// =============================================================================

// ResolveRegion picks the request region over the configured one.
//
// Example:
//
//	ResolveRegion("eu-west-1", "us-east-1") // returns "eu-west-1", nil
//	ResolveRegion("", "us-east-1")          // returns "us-east-1", nil
func ResolveRegion(requested, configured string) (string, error) {
	if r := strings.TrimSpace(requested); r != "" {
		return r, nil
	}
	if r := strings.TrimSpace(configured); r != "" {
		return r, nil
	}
	return "", ErrRegionRequired
}

// =============================================================================
// Credentials
// =============================================================================

// AWSCredentials represents static AWS access credentials.
// The zero value selects the SDK's default credential chain.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" mapstructure:"secret_access_key"`
	SessionToken    string `json:"session_token,omitempty" mapstructure:"session_token"`
}

// Static reports whether explicit keys were supplied.
func (c AWSCredentials) Static() bool {
	return c.AccessKeyID != "" || c.SecretAccessKey != ""
}

// ValidateAWSCredentials validates AWS credential fields. Both keys must be
// set together, or both left empty.
func ValidateAWSCredentials(creds AWSCredentials) error {
	if !creds.Static() {
		return nil
	}
	if creds.AccessKeyID == "" {
		return ErrAWSAccessKeyRequired
	}
	if creds.SecretAccessKey == "" {
		return ErrAWSSecretKeyRequired
	}
	return nil
}
