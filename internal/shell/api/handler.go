// Package api provides HTTP handlers for the baasflow API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/artpar/baasflow/internal/core/choreography"
	"github.com/artpar/baasflow/internal/core/domain"
	"github.com/artpar/baasflow/internal/core/planning"
	"github.com/artpar/baasflow/internal/shell/api/middleware"
	"github.com/artpar/baasflow/internal/shell/api/openapi"
	"github.com/artpar/baasflow/internal/shell/metrics"
	"github.com/artpar/baasflow/internal/shell/runner"
	"github.com/artpar/baasflow/internal/shell/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// ErrNilRunner is returned by NewHandler without a runner.
var ErrNilRunner = errors.New("api handler requires a runner")

// =============================================================================
// Handler
// =============================================================================

// Config holds the dependencies of the API handler.
type Config struct {
	Runner  *runner.Runner     // required
	Store   store.Store        // run history; nil disables /api/v1/runs
	Metrics *metrics.Collector // nil disables /metrics
	Token   string             // API token; empty disables auth
	Version string             // reported in the OpenAPI document
	Logger  *slog.Logger
}

// Handler provides HTTP handlers for the API.
type Handler struct {
	runner  *runner.Runner
	store   store.Store
	metrics *metrics.Collector
	auth    *middleware.AuthMiddleware
	openapi *openapi.Generator
	logger  *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Runner == nil {
		return nil, ErrNilRunner
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	logger := cfg.Logger.With("component", "api")

	return &Handler{
		runner:  cfg.Runner,
		store:   cfg.Store,
		metrics: cfg.Metrics,
		auth:    middleware.NewAuthMiddleware(middleware.AuthConfig{Token: cfg.Token, Logger: logger}),
		openapi: newOpenAPI(cfg.Version),
		logger:  logger,
	}, nil
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(h.requestIDHeader)

	r.Get("/health", h.handleHealth)
	r.Get("/openapi.json", h.openapi.Handler())
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.auth.Handler)
		r.Use(h.jsonContentType)

		r.Get("/functions", h.handleListFunctions)
		r.Post("/plans", h.handlePlan)
		r.Post("/choreographies", h.handleCompose)

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.handleListRuns)
			r.Get("/{id}", h.handleGetRun)
		})
	})

	return r
}

// newOpenAPI describes the routes served by Routes.
func newOpenAPI(version string) *openapi.Generator {
	g := openapi.NewGenerator(openapi.WithVersion(version))
	for _, route := range []openapi.Route{
		{Method: http.MethodGet, Path: "/health", OperationID: "health", Summary: "Health check", Tag: "System", Response: HealthResponse{}},
		{Method: http.MethodGet, Path: "/api/v1/functions", OperationID: "listFunctions", Summary: "List catalog functions", Tag: "Catalog", Response: ListFunctionsResponse{}},
		{Method: http.MethodPost, Path: "/api/v1/plans", OperationID: "createPlan", Summary: "Search a service path", Tag: "Planning", Request: PlanRequest{}, Response: PlanResponse{}},
		{Method: http.MethodPost, Path: "/api/v1/choreographies", OperationID: "createChoreography", Summary: "Plan, compose, and optionally deploy", Tag: "Planning", Request: ComposeRequest{}, Response: ComposeResponse{}, Status: http.StatusCreated},
		{Method: http.MethodGet, Path: "/api/v1/runs", OperationID: "listRuns", Summary: "List runs", Tag: "Runs", Response: ListRunsResponse{}, Query: []string{"limit", "offset", "status"}},
		{Method: http.MethodGet, Path: "/api/v1/runs/{id}", OperationID: "getRun", Summary: "Get a run", Tag: "Runs", Response: RunResponse{}},
	} {
		g.RegisterRoute(route)
	}
	return g
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := chimw.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Functions: h.runner.Catalog().Len(),
	})
}

// =============================================================================
// Catalog and Planning Handlers
// =============================================================================

func (h *Handler) handleListFunctions(w http.ResponseWriter, r *http.Request) {
	fns := h.runner.Catalog().Functions()

	resp := ListFunctionsResponse{
		Functions: make([]FunctionResponse, 0, len(fns)),
		Total:     len(fns),
	}
	for _, fn := range fns {
		resp.Functions = append(resp.Functions, functionToResponse(fn))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", "invalid_request")
		return
	}
	if req.Input == nil || req.Output == nil {
		h.writeError(w, http.StatusBadRequest, "input and output are required", "validation_error")
		return
	}

	res, err := h.runner.Plan(req.Transformation())
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	path := res.Path.Names()
	if path == nil {
		path = []string{}
	}
	h.writeJSON(w, http.StatusOK, PlanResponse{
		Found:    res.Found,
		Path:     path,
		Anchored: res.Anchored,
		Expanded: res.Expanded,
	})
}

func (h *Handler) handleCompose(w http.ResponseWriter, r *http.Request) {
	var req ComposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", "invalid_request")
		return
	}
	if req.Input == nil || req.Output == nil {
		h.writeError(w, http.StatusBadRequest, "input and output are required", "validation_error")
		return
	}

	result, err := h.runner.Run(r.Context(), runner.Request{
		Name:           req.Name,
		Transformation: PlanRequest{Input: req.Input, Output: req.Output}.Transformation(),
		Deploy:         req.Deploy,
	})
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	files := result.Files
	if files == nil {
		files = []string{}
	}
	h.logger.Info("choreography composed", "run_id", result.Run.ID, "name", result.Run.Name)
	h.writeJSON(w, http.StatusCreated, ComposeResponse{
		Run:   runToResponse(result.Run),
		Files: files,
	})
}

// =============================================================================
// Run Handlers
// =============================================================================

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusServiceUnavailable, "run history is disabled", "store_unavailable")
		return
	}

	opts := store.DefaultListOptions()
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		opts.Status = domain.RunStatus(status)
		if !opts.Status.Valid() {
			h.writeError(w, http.StatusBadRequest, "unknown run status: "+status, "validation_error")
			return
		}
	}
	opts = opts.Normalize()

	runs, err := h.store.ListRuns(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list runs", "internal_error")
		return
	}
	total, err := h.store.CountRuns(r.Context(), opts.Status)
	if err != nil {
		h.logger.Error("failed to count runs", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to count runs", "internal_error")
		return
	}

	resp := ListRunsResponse{
		Runs:   make([]RunResponse, 0, len(runs)),
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	for i := range runs {
		resp.Runs = append(resp.Runs, runToResponse(&runs[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusServiceUnavailable, "run history is disabled", "store_unavailable")
		return
	}

	id := chi.URLParam(r, "id")
	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "run not found", "not_found")
			return
		}
		h.logger.Error("failed to get run", "run_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get run", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, runToResponse(run))
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeRunError maps planning and run failures to HTTP errors.
func (h *Handler) writeRunError(w http.ResponseWriter, err error) {
	var compErr *choreography.CompositionError

	switch {
	case errors.Is(err, runner.ErrNoTransformation),
		errors.Is(err, domain.ErrEmptyRunName),
		errors.Is(err, domain.ErrInvalidRunName):
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
	case errors.Is(err, runner.ErrNoDeployer):
		h.writeError(w, http.StatusBadRequest, err.Error(), "deploy_unavailable")
	case errors.Is(err, planning.ErrNoPathFound):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "no_path")
	case errors.Is(err, planning.ErrSearchBudgetExhausted):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "search_budget_exhausted")
	case errors.Is(err, planning.ErrAnchorNotFound):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "anchor_not_found")
	case errors.As(err, &compErr), errors.Is(err, choreography.ErrMalformedFirstStepOutput):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "composition_failed")
	default:
		h.logger.Error("run failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error(), "run_failed")
	}
}

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return errors.Is(storeErr.Unwrap(), store.ErrNotFound)
	}
	return false
}
