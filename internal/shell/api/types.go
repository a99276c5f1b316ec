package api

import (
	"time"

	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/choreography"
	"github.com/artpar/baasflow/internal/core/domain"
	"github.com/artpar/baasflow/internal/core/transformation"
)

// =============================================================================
// Request Types
// =============================================================================

// PlanRequest is the request body for searching a service path.
type PlanRequest struct {
	Input  map[string]any `json:"input"`
	Output map[string]any `json:"output"`
}

// Transformation converts the request to a planning transformation.
func (r PlanRequest) Transformation() transformation.Transformation {
	return transformation.New(r.Input, r.Output)
}

// ComposeRequest is the request body for running a choreography.
type ComposeRequest struct {
	Name   string         `json:"name,omitempty"`
	Deploy bool           `json:"deploy,omitempty"`
	Input  map[string]any `json:"input"`
	Output map[string]any `json:"output"`
}

// =============================================================================
// Response Types
// =============================================================================

// FunctionResponse describes one catalog function.
type FunctionResponse struct {
	Name        string                      `json:"name"`
	Type        string                      `json:"type"`
	Provider    string                      `json:"provider,omitempty"`
	Description string                      `json:"description,omitempty"`
	Input       map[string]catalog.ValueSet `json:"input,omitempty"`
	Output      map[string]catalog.ValueSet `json:"output,omitempty"`
	Regions     []string                    `json:"regions,omitempty"`
	DataIns     []catalog.DataPort          `json:"dataIns"`
	DataOuts    []catalog.DataPort          `json:"dataOuts"`
}

// ListFunctionsResponse is the response for listing catalog functions.
type ListFunctionsResponse struct {
	Functions []FunctionResponse `json:"functions"`
	Total     int                `json:"total"`
}

// PlanResponse is the response for a path search.
type PlanResponse struct {
	Found    bool     `json:"found"`
	Path     []string `json:"path"`
	Anchored bool     `json:"anchored"`
	Expanded int      `json:"expanded"`
}

// RunResponse describes one recorded run.
type RunResponse struct {
	ID           string                     `json:"id"`
	Name         string                     `json:"name"`
	Status       string                     `json:"status"`
	Deploy       bool                       `json:"deploy"`
	Provider     string                     `json:"provider,omitempty"`
	Region       string                     `json:"region,omitempty"`
	Input        map[string]any             `json:"input"`
	Output       map[string]any             `json:"output"`
	Path         []string                   `json:"path"`
	Expanded     int                        `json:"expanded"`
	Choreography string                     `json:"choreography,omitempty"`
	TypeMappings []choreography.TypeMapping `json:"type_mappings"`
	Endpoints    []choreography.Endpoint    `json:"endpoints"`
	ErrorMessage string                     `json:"error_message,omitempty"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
	CompletedAt  *time.Time                 `json:"completed_at,omitempty"`
}

// ComposeResponse is the response for a choreography run.
type ComposeResponse struct {
	Run   RunResponse `json:"run"`
	Files []string    `json:"files"`
}

// ListRunsResponse is the response for listing runs.
type ListRunsResponse struct {
	Runs   []RunResponse `json:"runs"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Functions int    `json:"functions"`
}

// =============================================================================
// Conversions
// =============================================================================

func functionToResponse(fn catalog.ServiceFunction) FunctionResponse {
	resp := FunctionResponse{
		Name:        fn.Name,
		Type:        fn.Type,
		Provider:    fn.Provider,
		Description: fn.Description,
		Input:       fn.Input,
		Output:      fn.Output,
		Regions:     fn.Regions,
		DataIns:     fn.DataIns,
		DataOuts:    fn.DataOuts,
	}
	if resp.DataIns == nil {
		resp.DataIns = []catalog.DataPort{}
	}
	if resp.DataOuts == nil {
		resp.DataOuts = []catalog.DataPort{}
	}
	return resp
}

func runToResponse(r *domain.Run) RunResponse {
	resp := RunResponse{
		ID:           r.ID,
		Name:         r.Name,
		Status:       string(r.Status),
		Deploy:       r.Deploy,
		Provider:     r.Provider,
		Region:       r.Region,
		Input:        r.Transformation.Input,
		Output:       r.Transformation.Output,
		Path:         r.Path,
		Expanded:     r.Expanded,
		Choreography: r.Choreography,
		TypeMappings: r.TypeMappings,
		Endpoints:    r.Endpoints,
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		CompletedAt:  r.CompletedAt,
	}
	if resp.Path == nil {
		resp.Path = []string{}
	}
	if resp.TypeMappings == nil {
		resp.TypeMappings = []choreography.TypeMapping{}
	}
	if resp.Endpoints == nil {
		resp.Endpoints = []choreography.Endpoint{}
	}
	return resp
}
