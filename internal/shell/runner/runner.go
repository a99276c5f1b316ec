// Package runner executes planning runs: search, composition, deployment,
// type mapping, artifact output, and run history.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/choreography"
	"github.com/artpar/baasflow/internal/core/domain"
	"github.com/artpar/baasflow/internal/core/planning"
	"github.com/artpar/baasflow/internal/core/transformation"
	"github.com/artpar/baasflow/internal/shell/archive"
	"github.com/artpar/baasflow/internal/shell/artifacts"
	"github.com/artpar/baasflow/internal/shell/provider"
	"github.com/artpar/baasflow/internal/shell/store"
)

var (
	ErrNilCatalog       = errors.New("runner requires a catalog")
	ErrNoDeployer       = errors.New("no deployment provider configured")
	ErrNoTransformation = errors.New("transformation is required")
)

// Run stages reported by StageError.
const (
	StagePlan         = "plan"
	StageCompose      = "compose"
	StageEncode       = "encode"
	StageDeploy       = "deploy"
	StageTypeMappings = "type mappings"
	StageWrite        = "write artifacts"
)

// StageError reports the run stage that failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ProviderFactory creates the provider for a run in region. The returned
// close function is never nil.
type ProviderFactory func(ctx context.Context, region string) (provider.Provider, func() error, error)

// Recorder receives run metrics. *metrics.Collector implements it.
type Recorder interface {
	RecordRun(status string)
	RecordPlan(duration time.Duration, expanded int, found bool, pathLen int)
	RecordDeploy(provider string, duration time.Duration, err error)
	RecordReset(provider string, err error)
}

// =============================================================================
// Runner
// =============================================================================

// Runner executes runs against one catalog. It is safe for concurrent use
// when its store and recorder are.
type Runner struct {
	catalog  *catalog.Catalog
	planner  *planning.Planner
	deployer ProviderFactory
	demo     provider.Provider
	writer   *artifacts.Writer
	store    store.Store
	recorder Recorder
	logger   *slog.Logger

	// deployMu serializes provider deployments and resets. Each deployment
	// starts by resetting the environment it shares with every other run.
	deployMu sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithDeployer sets the provider factory used for deploying runs.
func WithDeployer(f ProviderFactory) Option {
	return func(r *Runner) { r.deployer = f }
}

// WithWriter writes run artifacts through w.
func WithWriter(w *artifacts.Writer) Option {
	return func(r *Runner) { r.writer = w }
}

// WithStore persists runs in s.
func WithStore(s store.Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithRecorder reports metrics to rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithPlannerOptions overrides the planner options.
func WithPlannerOptions(opts planning.Options) Option {
	return func(r *Runner) { r.planner = planning.New(r.catalog, opts) }
}

// New creates a runner for cat.
func New(cat *catalog.Catalog, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cat == nil {
		return nil, ErrNilCatalog
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Runner{
		catalog:  cat,
		planner:  planning.New(cat, planning.DefaultOptions()),
		demo:     provider.NewDemoProvider(logger),
		recorder: noopRecorder{},
		logger:   logger.With("component", "runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.recorder == nil {
		r.recorder = noopRecorder{}
	}
	return r, nil
}

// Catalog returns the catalog the runner plans against.
func (r *Runner) Catalog() *catalog.Catalog {
	return r.catalog
}

// =============================================================================
// Requests
// =============================================================================

// Request describes one run.
type Request struct {
	Name           string
	Transformation transformation.Transformation
	Deploy         bool
}

// Result is the outcome of a run.
type Result struct {
	Run          *domain.Run
	Choreography *choreography.Choreography
	Files        []string // artifact paths written
}

// Plan searches for a path without composing or recording a run.
func (r *Runner) Plan(t transformation.Transformation) (planning.Result, error) {
	start := time.Now()
	res, err := r.planner.Plan(t)
	r.recorder.RecordPlan(time.Since(start), res.Expanded, res.Found, len(res.Path))
	return res, err
}

// Run plans, composes, and (when requested) deploys one choreography.
//
// A search that finds no path ends the run in no_path and returns an error
// wrapping planning.ErrNoPathFound together with the result.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Transformation.Input == nil || req.Transformation.Output == nil {
		return nil, ErrNoTransformation
	}

	name := req.Name
	if name == "" {
		name = domain.GenerateRunName("choreography")
	}

	run, err := domain.NewRun(name, req.Transformation, req.Deploy)
	if err != nil {
		return nil, err
	}
	if err := r.create(ctx, run); err != nil {
		return nil, err
	}

	logger := r.logger.With("run_id", run.ID, "name", run.Name)
	result := &Result{Run: run}

	plan, err := r.Plan(req.Transformation)
	run.Expanded = plan.Expanded
	if err != nil {
		return result, r.fail(ctx, run, StagePlan, err)
	}
	if !plan.Found {
		if err := run.Transition(domain.StatusNoPath); err != nil {
			return result, err
		}
		logger.Info("no service path found", "expanded", plan.Expanded)
		return result, r.finish(ctx, run, planning.ErrNoPathFound)
	}

	run.Path = plan.Path.Names()
	logger.Info("service path found", "path", run.Path, "expanded", plan.Expanded)

	chor, err := choreography.Compose(run.Name, plan.Path, req.Transformation)
	if err != nil {
		return result, r.fail(ctx, run, StageCompose, err)
	}
	result.Choreography = chor

	doc, err := choreography.EncodeYAML(chor)
	if err != nil {
		return result, r.fail(ctx, run, StageEncode, err)
	}
	run.Choreography = string(doc)
	if err := run.Transition(domain.StatusComposed); err != nil {
		return result, err
	}

	endpoints, err := r.deploy(ctx, run, plan.Path)
	if err != nil {
		return result, r.fail(ctx, run, StageDeploy, err)
	}
	run.Endpoints = endpoints

	mappings, err := choreography.BuildTypeMappings(plan.Path, endpoints)
	if err != nil {
		return result, r.fail(ctx, run, StageTypeMappings, err)
	}
	run.TypeMappings = mappings

	if r.writer != nil {
		files, err := r.writeArtifacts(r.writer.ForRun(run.ID), chor, mappings, req.Transformation)
		result.Files = files
		if err != nil {
			return result, r.fail(ctx, run, StageWrite, err)
		}
	}

	if req.Deploy {
		if err := run.Transition(domain.StatusDeployed); err != nil {
			return result, err
		}
	}

	logger.Info("run complete", "status", run.Status, "provider", run.Provider)
	return result, r.finish(ctx, run, nil)
}

// deploy runs the configured provider, or the demo provider when the run
// does not deploy.
func (r *Runner) deploy(ctx context.Context, run *domain.Run, path []catalog.ServiceFunction) ([]choreography.Endpoint, error) {
	p := r.demo
	closeFn := func() error { return nil }

	if run.Deploy {
		if r.deployer == nil {
			return nil, ErrNoDeployer
		}
		r.deployMu.Lock()
		defer r.deployMu.Unlock()

		var err error
		p, closeFn, err = r.deployer(ctx, run.Region)
		if err != nil {
			return nil, err
		}
	}
	defer closeFn()

	run.Provider = p.Name()
	start := time.Now()
	endpoints, err := p.Deploy(ctx, path)
	r.recorder.RecordDeploy(p.Name(), time.Since(start), err)
	return endpoints, err
}

func (r *Runner) writeArtifacts(w *artifacts.Writer, chor *choreography.Choreography, mappings []choreography.TypeMapping, t transformation.Transformation) ([]string, error) {
	var files []string

	path, err := w.WriteChoreography(chor)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	path, err = w.WriteTypeMappings(mappings)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	path, err = w.WriteEngineInput(t)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	return files, nil
}

// =============================================================================
// Reset and Zip
// =============================================================================

// Reset removes everything the deployment provider created in region.
func (r *Runner) Reset(ctx context.Context, region string) error {
	if r.deployer == nil {
		return ErrNoDeployer
	}
	r.deployMu.Lock()
	defer r.deployMu.Unlock()

	p, closeFn, err := r.deployer(ctx, region)
	if err != nil {
		return err
	}
	defer closeFn()

	err = p.Reset(ctx)
	r.recorder.RecordReset(p.Name(), err)
	if err != nil {
		return fmt.Errorf("reset %s: %w", p.Name(), err)
	}
	r.logger.Info("environment reset", "provider", p.Name(), "region", region)
	return nil
}

// Zip packages every function source under dir.
func (r *Runner) Zip(dir string) ([]string, error) {
	return archive.ZipFunctions(dir, r.logger)
}

// =============================================================================
// Persistence
// =============================================================================

func (r *Runner) create(ctx context.Context, run *domain.Run) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// fail moves run to failed, persists it, and returns the stage error.
func (r *Runner) fail(ctx context.Context, run *domain.Run, stage string, cause error) error {
	err := &StageError{Stage: stage, Err: cause}
	if tErr := run.Fail(err.Error()); tErr != nil {
		r.logger.Error("failed to mark run failed", "run_id", run.ID, "error", tErr)
	}
	r.logger.Error("run failed", "run_id", run.ID, "stage", stage, "error", cause)
	return r.finish(ctx, run, err)
}

// finish persists the final run state and records it. A persistence error
// is returned only when the run itself succeeded.
func (r *Runner) finish(ctx context.Context, run *domain.Run, runErr error) error {
	r.recorder.RecordRun(string(run.Status))

	if r.store != nil {
		if err := r.store.UpdateRun(ctx, run); err != nil {
			r.logger.Error("failed to record run", "run_id", run.ID, "error", err)
			if runErr == nil {
				return fmt.Errorf("record run: %w", err)
			}
		}
	}
	return runErr
}

type noopRecorder struct{}

func (noopRecorder) RecordRun(string) {}
func (noopRecorder) RecordPlan(time.Duration, int, bool, int) {}
func (noopRecorder) RecordDeploy(string, time.Duration, error) {}
func (noopRecorder) RecordReset(string, error) {}
