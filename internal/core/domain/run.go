// Package domain holds the run record shared by the runner, the store, and
// the HTTP API.
package domain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/artpar/baasflow/internal/core/choreography"
	"github.com/artpar/baasflow/internal/core/transformation"
	"github.com/google/uuid"
)

// =============================================================================
// Run Errors
// =============================================================================

var (
	ErrEmptyRunName      = errors.New("run name is required")
	ErrInvalidRunName    = errors.New("run name must start with a letter or digit and contain only letters, digits, '.', '_', or '-'")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// =============================================================================
// Run Status
// =============================================================================

type RunStatus string

const (
	StatusPlanning RunStatus = "planning"
	StatusComposed RunStatus = "composed"
	StatusDeployed RunStatus = "deployed"
	StatusNoPath   RunStatus = "no_path"
	StatusFailed   RunStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s RunStatus) Terminal() bool {
	allowed, ok := validTransitions[s]
	return ok && len(allowed) == 0
}

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// =============================================================================
// Run
// =============================================================================

// Run records one planning request and everything it produced.
type Run struct {
	ID             string                        `json:"id"`
	Name           string                        `json:"name"`
	Status         RunStatus                     `json:"status"`
	Deploy         bool                          `json:"deploy"`
	Provider       string                        `json:"provider,omitempty"`
	Region         string                        `json:"region,omitempty"`
	Transformation transformation.Transformation `json:"transformation"`
	Path           []string                      `json:"path"`
	Expanded       int                           `json:"expanded"`
	Choreography   string                        `json:"choreography,omitempty"` // YAML document
	TypeMappings   []choreography.TypeMapping    `json:"type_mappings,omitempty"`
	Endpoints      []choreography.Endpoint       `json:"endpoints,omitempty"`
	ErrorMessage   string                        `json:"error_message,omitempty"`
	CreatedAt      time.Time                     `json:"created_at"`
	UpdatedAt      time.Time                     `json:"updated_at"`
	CompletedAt    *time.Time                    `json:"completed_at,omitempty"`
}

// MaxRunNameLength bounds run names, which become file names.
const MaxRunNameLength = 128

var runNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateRunName checks that name is usable as a file name and as the owner
// part of a "<owner>/<port>" source reference.
func ValidateRunName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyRunName
	}
	if len(name) > MaxRunNameLength || !runNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidRunName, name)
	}
	return nil
}

// NewRun creates a run in the planning state.
func NewRun(name string, t transformation.Transformation, deploy bool) (*Run, error) {
	if err := ValidateRunName(name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Run{
		ID:             uuid.New().String(),
		Name:           name,
		Status:         StatusPlanning,
		Deploy:         deploy,
		Region:         t.Region(),
		Transformation: t,
		Path:           []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Transition attempts to move the run to a new status.
func (r *Run) Transition(to RunStatus) error {
	if err := ValidateTransition(r.Status, to); err != nil {
		return fmt.Errorf("%w: %s -> %s", err, r.Status, to)
	}

	now := time.Now().UTC()
	r.Status = to
	r.UpdatedAt = now
	if to.Terminal() {
		r.CompletedAt = &now
	}
	return nil
}

// Fail moves a non-terminal run to failed with an error message.
func (r *Run) Fail(errorMessage string) error {
	if err := r.Transition(StatusFailed); err != nil {
		return err
	}
	r.ErrorMessage = errorMessage
	return nil
}

// Complete reports whether the run reached the end of its pipeline.
// A run that was not asked to deploy completes at composed.
func (r *Run) Complete() bool {
	switch r.Status {
	case StatusDeployed, StatusNoPath, StatusFailed:
		return true
	case StatusComposed:
		return !r.Deploy
	}
	return false
}

// =============================================================================
// State Machine
// =============================================================================

// validTransitions defines the allowed state transitions.
var validTransitions = map[RunStatus][]RunStatus{
	StatusPlanning: {StatusComposed, StatusNoPath, StatusFailed},
	StatusComposed: {StatusDeployed, StatusFailed},
	StatusDeployed: {},
	StatusNoPath:   {},
	StatusFailed:   {},
}

// ValidateTransition checks if a status transition is valid.
func ValidateTransition(from, to RunStatus) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return ErrInvalidTransition
	}

	for _, s := range allowed {
		if s == to {
			return nil
		}
	}

	return ErrInvalidTransition
}

// =============================================================================
// Name Generation
// =============================================================================

// GenerateRunName generates a unique choreography name from a base word.
func GenerateRunName(base string) string {
	slug := Slugify(base)
	if slug == "" {
		slug = "choreography"
	}
	suffix := make([]byte, 3)
	rand.Read(suffix)
	return fmt.Sprintf("%s-%s", slug, hex.EncodeToString(suffix))
}

// Slugify reduces a name to lowercase letters, digits, and single hyphens.
//
// Example:
//
//	Slugify("Media Pipeline 2") // returns "media-pipeline-2"
//	Slugify("  a__b  ")         // returns "a-b"
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '.':
			pendingHyphen = true
		}
	}
	return b.String()
}
