package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/artpar/baasflow/internal/core/domain"
	"github.com/artpar/baasflow/internal/core/planning"
	"github.com/artpar/baasflow/internal/shell/artifacts"
	"github.com/artpar/baasflow/internal/shell/runner"
	"github.com/artpar/baasflow/internal/shell/store"
	"github.com/spf13/cobra"
)

// =============================================================================
// Entry Point
// =============================================================================

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return exitCode(err)
}

// cli holds the flags shared by the commands.
type cli struct {
	configPath string
	debug      bool
	file       string
	name       string
	deploy     bool
	stderr     io.Writer
}

// =============================================================================
// Root Command
// =============================================================================

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stderr: stderr}

	root := &cobra.Command{
		Use:   "baasflow",
		Short: "Plan and compose serverless function choreographies",
		Long: `baasflow searches a service function catalog for the shortest chain of
functions that turns an input state into a target state, composes the chain
into a choreography, and optionally deploys it.

Running baasflow with -f is a shortcut for "baasflow compose".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.file == "" {
				return cmd.Help()
			}
			return c.runCompose(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (YAML, JSON, or TOML)")
	pf.BoolVar(&c.debug, "debug", false, "enable debug logging")
	pf.String("catalog", "", "service function catalog file")
	pf.StringP("output", "o", "", "artifact output directory")
	pf.String("db", "", "run history database; an empty value disables history")
	pf.String("provider", "", "deployment provider: aws, local, or demo")

	addComposeFlags(root, c)

	root.AddCommand(
		c.newComposeCmd(),
		c.newPlanCmd(),
		c.newResetCmd(),
		c.newZipCmd(),
		c.newServeCmd(),
		c.newRunsCmd(),
		newVersionCmd(),
	)
	return root
}

func addComposeFlags(cmd *cobra.Command, c *cli) {
	cmd.Flags().StringVarP(&c.file, "file", "f", "", "transformation document (JSON or YAML)")
	cmd.Flags().StringVarP(&c.name, "name", "n", "", "choreography name (generated when empty)")
	cmd.Flags().BoolVar(&c.deploy, "deploy", false, "deploy the composed functions")
	cmd.Flags().String("region", "", "default region when input.region is not set")
}

// setup loads the configuration, applies overrides, and builds the app.
func (c *cli) setup(cmd *cobra.Command, withStore bool, overrides ...func(*Config)) (*App, error) {
	cfg, err := LoadConfig(c.configPath, cmd.Flags())
	if err != nil {
		return nil, &CommandError{Op: "load config", Err: err, ExitCode: ExitConfigError}
	}
	if c.debug {
		cfg.Log.Level = "debug"
	}
	for _, override := range overrides {
		override(cfg)
	}
	logger := SetupLogger(cfg, c.stderr)

	return NewApp(cfg, logger, withStore)
}

// =============================================================================
// Compose and Plan
// =============================================================================

func (c *cli) newComposeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Plan, compose, and optionally deploy a choreography",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompose(cmd)
		},
	}
	addComposeFlags(cmd, c)
	cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) runCompose(cmd *cobra.Command) error {
	t, err := artifacts.LoadTransformation(c.file)
	if err != nil {
		return &CommandError{Op: "load transformation", Err: err, ExitCode: ExitConfigError}
	}

	app, err := c.setup(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Compose(cmd.Context(), c.name, t, c.deploy)
	if res != nil {
		printResult(cmd.OutOrStdout(), res)
	}
	return err
}

func printResult(w io.Writer, res *runner.Result) {
	run := res.Run
	fmt.Fprintf(w, "run %s (%s): %s\n", run.ID, run.Name, run.Status)

	if run.Status == domain.StatusNoPath {
		fmt.Fprintf(w, "no service path found after %d expansions\n", run.Expanded)
		return
	}
	if len(run.Path) > 0 {
		fmt.Fprintf(w, "path: %s\n", strings.Join(run.Path, " -> "))
	}
	for _, ep := range run.Endpoints {
		target := ep.Link
		if ep.URL != "" {
			target = ep.URL
		}
		fmt.Fprintf(w, "endpoint %s: %s\n", ep.Function, target)
	}
	for _, f := range res.Files {
		fmt.Fprintf(w, "wrote %s\n", f)
	}
	if run.ErrorMessage != "" {
		fmt.Fprintf(w, "error: %s\n", run.ErrorMessage)
	}
}

func (c *cli) newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Search a service path without composing or recording a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := artifacts.LoadTransformation(c.file)
			if err != nil {
				return &CommandError{Op: "load transformation", Err: err, ExitCode: ExitConfigError}
			}

			app, err := c.setup(cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.runner.Plan(*t)
			if err != nil {
				return &CommandError{Op: "plan", Err: err, ExitCode: ExitPlanningError}
			}

			w := cmd.OutOrStdout()
			if !res.Found {
				fmt.Fprintf(w, "no service path found after %d expansions\n", res.Expanded)
				return &CommandError{Op: "plan", Err: planning.ErrNoPathFound, ExitCode: ExitPlanningError}
			}
			fmt.Fprintf(w, "path: %s\n", strings.Join(res.Path.Names(), " -> "))
			fmt.Fprintf(w, "expanded: %d\n", res.Expanded)
			return nil
		},
	}
	cmd.Flags().StringVarP(&c.file, "file", "f", "", "transformation document (JSON or YAML)")
	cmd.MarkFlagRequired("file")
	return cmd
}

// =============================================================================
// Reset and Zip
// =============================================================================

func (c *cli) newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove every resource the deployment provider created",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.setup(cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.runner.Reset(cmd.Context(), ""); err != nil {
				return &CommandError{Op: "reset", Err: err, ExitCode: ExitDeployError}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "environment reset")
			return nil
		},
	}
	cmd.Flags().String("region", "", "region to reset (defaults to aws.region)")
	return cmd
}

func (c *cli) newZipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "zip [function-dir]",
		Short: "Zip every function source below the function directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.setup(cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			dir := app.config.Deploy.FunctionDir
			if len(args) == 1 {
				dir = args[0]
			}

			files, err := app.runner.Zip(dir)
			if err != nil {
				return &CommandError{Op: "zip", Err: err, ExitCode: ExitOutputError}
			}
			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", f)
			}
			return nil
		},
	}
}

// =============================================================================
// Serve
// =============================================================================

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Concurrent requests must not share artifact files.
			app, err := c.setup(cmd, true, func(cfg *Config) { cfg.Output.PerRun = true })
			if err != nil {
				return err
			}
			defer app.Close()

			server, err := NewServer(app)
			if err != nil {
				return err
			}
			app.logger.Info("starting baasflow", "version", Version, "config", c.configPath)
			return server.Start(cmd.Context())
		},
	}
	cmd.Flags().String("host", "", "listen host")
	cmd.Flags().Int("port", 0, "listen port")
	return cmd
}

// =============================================================================
// Runs
// =============================================================================

func (c *cli) newRunsCmd() *cobra.Command {
	var (
		limit  int
		status string
	)

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded runs, or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.setup(cmd, true)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.store == nil {
				return &CommandError{Op: "runs", Err: errors.New("run history is disabled: database.dsn is empty"), ExitCode: ExitDatabaseError}
			}

			w := cmd.OutOrStdout()
			if len(args) == 1 {
				return showRun(cmd.Context(), w, app.store, args[0])
			}

			opts := store.ListOptions{Limit: limit, Status: domain.RunStatus(status)}
			if opts.Status != "" && !opts.Status.Valid() {
				return &CommandError{Op: "runs", Err: fmt.Errorf("unknown run status %q", status), ExitCode: ExitConfigError}
			}
			runs, err := app.store.ListRuns(cmd.Context(), opts.Normalize())
			if err != nil {
				return &CommandError{Op: "runs", Err: err, ExitCode: ExitDatabaseError}
			}
			printRuns(w, runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	cmd.Flags().StringVar(&status, "status", "", "only list runs with this status")
	return cmd
}

func showRun(ctx context.Context, w io.Writer, s store.Store, id string) error {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return &CommandError{Op: "runs", Err: err, ExitCode: ExitDatabaseError}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return &CommandError{Op: "runs", Err: err, ExitCode: ExitOutputError}
	}
	return nil
}

func printRuns(w io.Writer, runs []domain.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tPROVIDER\tPATH\tCREATED")
	for _, r := range runs {
		provider := r.Provider
		if provider == "" {
			provider = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Name, r.Status, provider,
			strings.Join(r.Path, ","),
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	tw.Flush()
}

// =============================================================================
// Version
// =============================================================================

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "baasflow %s (built %s)\n", Version, BuildTime)
		},
	}
}
