package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/janus/internal/report"
	"github.com/roach88/janus/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Color    string
	RunID    string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Replay a stored run through the reporter",
		Long: `Print a stored run exactly as the reporter printed it when it ran.

Examples:
  janus show 01928c3e-... --db ./janus.db
  janus show 01928c3e-... --db ./janus.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RunID = args[0]
			return runShow(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run history (default from config)")
	cmd.Flags().StringVar(&opts.Color, "color", "", "colorize text output (auto|always|never, default from config)")

	return cmd
}

func runShow(cmd *cobra.Command, opts *ShowOptions) error {
	path, err := databasePath(opts.Database, opts.RootOptions)
	if err != nil {
		return err
	}

	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err).WithErrCode(ErrCodeDatabase)
	}
	defer st.Close()

	summary, err := st.ReadRun(cmd.Context(), opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID)).
			WithErrCode(ErrCodeNotFound)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err).WithErrCode(ErrCodeDatabase)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return out.Success(summary)
	}

	color := opts.Color
	if color == "" {
		color = opts.Config.Color
	}
	mode, err := report.ParseColorMode(color)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid color", err).WithErrCode(ErrCodeConfig)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run: %s\n", summary.RunID)
	fmt.Fprintf(w, "Started: %s\n", summary.StartedAt.Format(time.RFC3339))
	if summary.Filter != "" {
		fmt.Fprintf(w, "Filter: %s\n", summary.Filter)
	}
	if summary.Focused {
		fmt.Fprintln(w, "Focused: true")
	}
	fmt.Fprintln(w)
	report.Replay(summary, report.NewConsole(w, mode))
	return nil
}
