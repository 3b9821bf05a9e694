package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/janus/internal/config"
	"github.com/roach88/janus/internal/runner"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is resolved in PersistentPreRunE: defaults, then the config
	// file, then global flags. Subcommands apply their own flags on top.
	Config config.Config

	// Registry holds the specs the run and list commands operate on.
	Registry *runner.Registry
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{config.FormatText, config.FormatJSON}

// NewRootCommand creates the root command for the janus CLI.
func NewRootCommand(reg *runner.Registry) *cobra.Command {
	opts := &RootOptions{Registry: reg}

	cmd := &cobra.Command{
		Use:   "janus",
		Short: "janus - a minimal unit-testing engine",
		Long: `Run registered specs, report their diagnostics, and keep a history of runs.

Specs are registered in Go before the binary starts; janus drains them in
registration order, one at a time. Without a subcommand janus behaves like
"janus run" with the settings of the config file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveConfig(cmd, opts)
		},
	}
	runCmd := NewRunCommand(opts)
	cmd.RunE = runCmd.RunE

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", config.FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML or CUE config file")

	// Add subcommands
	cmd.AddCommand(runCmd)
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

func resolveConfig(cmd *cobra.Command, opts *RootOptions) error {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err).WithErrCode(ErrCodeConfig)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("format") {
		cfg.Format = opts.Format
	} else {
		opts.Format = cfg.Format
	}
	if !isValidFormat(opts.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)).WithErrCode(ErrCodeConfig)
	}

	opts.Config = cfg
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newLogger builds the stderr logger for a command: warnings by default,
// everything with --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
