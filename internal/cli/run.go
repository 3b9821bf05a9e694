package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/janus/internal/config"
	"github.com/roach88/janus/internal/report"
	"github.com/roach88/janus/internal/runner"
	"github.com/roach88/janus/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Timeout  time.Duration
	Filter   string
	Color    string
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the registered specs",
		Long: `Run every registered spec (or only the focused ones) in registration order
and report the result of each.

Flags override the values of the config file.

Exit codes:
  0 - All specs passed
  1 - At least one spec failed
  2 - Command error (bad flags, unreadable config, database error)

Examples:
  janus run
  janus run --filter "Observed*" --timeout 2s
  janus run --db ./janus.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpecs(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Timeout, "timeout", config.DefaultTimeout, "async spec timeout")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run specs whose description matches this glob")
	cmd.Flags().StringVar(&opts.Color, "color", "auto", "colorize text output (auto|always|never)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run history (optional)")

	return cmd
}

// applyFlags layers the command's changed flags over the resolved config.
func (opts *RunOptions) applyFlags(cmd *cobra.Command) (config.Config, error) {
	cfg := opts.Config
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = opts.Timeout
	}
	if cmd.Flags().Changed("filter") {
		cfg.Filter = opts.Filter
	}
	if cmd.Flags().Changed("color") {
		cfg.Color = opts.Color
	}
	if cmd.Flags().Changed("db") {
		cfg.Database = opts.Database
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid run options", err).WithErrCode(ErrCodeConfig)
	}
	return cfg, nil
}

func runSpecs(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := opts.applyFlags(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	var reporter runner.Reporter
	if cfg.Format == config.FormatJSON {
		reporter = report.NewJSON(cmd.OutOrStdout())
	} else {
		mode, err := report.ParseColorMode(cfg.Color)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid run options", err).WithErrCode(ErrCodeConfig)
		}
		reporter = report.NewConsole(cmd.OutOrStdout(), mode)
	}

	// Open the history first so a bad path fails before any spec runs.
	var st *store.Store
	if cfg.Database != "" {
		st, err = store.Open(cfg.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err).WithErrCode(ErrCodeDatabase)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runner.New(opts.Registry,
		runner.WithReporter(reporter),
		runner.WithLogger(logger.With("component", "runner")),
		runner.WithTimeout(cfg.Timeout),
		runner.WithFilter(cfg.Filter),
	).Run(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "run failed", err)
	}

	if st != nil {
		if err := st.WriteRun(ctx, summary); err != nil {
			return WrapExitError(ExitCommandError, "failed to save run", err).WithErrCode(ErrCodeDatabase)
		}
		logger.Info("run saved", "run_id", summary.RunID, "db", cfg.Database)
		fmt.Fprintf(cmd.ErrOrStderr(), "Run %s saved to %s\n", summary.RunID, cfg.Database)
	}

	if !summary.OK() {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d of %d specs failed", summary.Failed, summary.Total)).WithErrCode(ErrCodeSpecFailed)
	}
	return nil
}
