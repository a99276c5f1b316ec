package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/choreography"
	"github.com/artpar/baasflow/internal/core/planning"
	coreprovider "github.com/artpar/baasflow/internal/core/provider"
	"github.com/artpar/baasflow/internal/core/transformation"
	"github.com/artpar/baasflow/internal/shell/artifacts"
	"github.com/artpar/baasflow/internal/shell/metrics"
	"github.com/artpar/baasflow/internal/shell/provider"
	"github.com/artpar/baasflow/internal/shell/runner"
	"github.com/artpar/baasflow/internal/shell/store"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitCatalogError    = 2
	ExitPlanningError   = 3
	ExitDeployError     = 4
	ExitDatabaseError   = 5
	ExitHTTPServerError = 6
	ExitOutputError     = 7
)

// CommandError carries the exit code of a failed command.
type CommandError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *CommandError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// exitCode returns the process exit code for err.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return ExitConfigError
}

// runExitCode classifies a failed run.
func runExitCode(err error) int {
	var storeErr *store.StoreError
	var stageErr *runner.StageError
	var compErr *choreography.CompositionError

	switch {
	case errors.As(err, &stageErr) && stageErr.Stage == runner.StageDeploy,
		errors.Is(err, runner.ErrNoDeployer),
		errors.Is(err, coreprovider.ErrRegionRequired):
		return ExitDeployError
	case errors.As(err, &stageErr) && stageErr.Stage == runner.StageWrite:
		return ExitOutputError
	case errors.Is(err, planning.ErrNoPathFound),
		errors.Is(err, planning.ErrSearchBudgetExhausted),
		errors.Is(err, planning.ErrAnchorNotFound),
		errors.As(err, &compErr),
		errors.As(err, &stageErr):
		return ExitPlanningError
	case errors.As(err, &storeErr):
		return ExitDatabaseError
	}
	return ExitConfigError
}

// =============================================================================
// App
// =============================================================================

// App holds the components shared by all commands.
type App struct {
	config  *Config
	logger  *slog.Logger
	runner  *runner.Runner
	store   store.Store // nil when run history is disabled
	metrics *metrics.Collector
}

// NewApp loads the catalog and assembles the runner. Run history is opened
// only when withStore is set and database.dsn is not empty.
func NewApp(cfg *Config, logger *slog.Logger, withStore bool) (*App, error) {
	cat, err := artifacts.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, &CommandError{Op: "load catalog", Err: err, ExitCode: ExitCatalogError}
	}
	logger.Debug("catalog loaded", "path", cfg.Catalog.Path, "functions", cat.Len())

	return newAppWithCatalog(cfg, logger, cat, withStore)
}

func newAppWithCatalog(cfg *Config, logger *slog.Logger, cat *catalog.Catalog, withStore bool) (*App, error) {
	app := &App{
		config:  cfg,
		logger:  logger,
		metrics: metrics.NewCollector(metrics.DefaultNamespace),
	}
	app.metrics.SetCatalogSize(cat.Len())

	writerOpts := []artifacts.WriterOption{
		artifacts.WithTypeMappingsFile(cfg.Output.TypeMappingsFile),
		artifacts.WithEngineInputFile(cfg.Output.EngineInputFile),
	}
	if cfg.Output.PerRun {
		writerOpts = append(writerOpts, artifacts.WithRunDirs())
	}

	opts := []runner.Option{
		runner.WithPlannerOptions(cfg.PlannerOptions()),
		runner.WithDeployer(app.deployer),
		runner.WithRecorder(app.metrics),
		runner.WithWriter(artifacts.NewWriter(cfg.Output.Dir, logger, writerOpts...)),
	}

	if withStore && cfg.Database.DSN != "" {
		if err := ensureDatabaseDir(cfg.Database.DSN); err != nil {
			return nil, &CommandError{Op: "open database", Err: err, ExitCode: ExitDatabaseError}
		}
		s, err := store.NewSQLiteStore(cfg.Database.DSN)
		if err != nil {
			return nil, &CommandError{Op: "open database", Err: err, ExitCode: ExitDatabaseError}
		}
		app.store = s
		opts = append(opts, runner.WithStore(s))
	}

	r, err := runner.New(cat, logger, opts...)
	if err != nil {
		app.Close()
		return nil, &CommandError{Op: "create runner", Err: err, ExitCode: ExitCatalogError}
	}
	app.runner = r
	return app, nil
}

// ensureDatabaseDir creates the directory of a file DSN.
func ensureDatabaseDir(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory %s: %w", dir, err)
	}
	return nil
}

// deployer creates the configured provider for a run in region.
func (a *App) deployer(ctx context.Context, region string) (provider.Provider, func() error, error) {
	pcfg, err := a.config.ProviderConfig(region)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	a.logger.Debug("creating provider", "provider", pcfg.Kind, "region", pcfg.Region)
	return provider.New(ctx, pcfg, a.logger)
}

// Compose runs one transformation document.
func (a *App) Compose(ctx context.Context, name string, t *transformation.Transformation, deploy bool) (*runner.Result, error) {
	res, err := a.runner.Run(ctx, runner.Request{
		Name:           name,
		Transformation: *t,
		Deploy:         deploy,
	})
	if err != nil {
		return res, &CommandError{Op: "compose", Err: err, ExitCode: runExitCode(err)}
	}
	return res, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
