package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/roach88/janus/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs, newest first",
		Long: `List the runs saved with "janus run --db", newest first.

Examples:
  janus history --db ./janus.db
  janus history --db ./janus.db --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run history (default from config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", store.DefaultListLimit, "maximum number of runs to list")

	return cmd
}

// databasePath returns the --db flag, falling back to the config file.
func databasePath(flag string, opts *RootOptions) (string, error) {
	path := flag
	if path == "" {
		path = opts.Config.Database
	}
	if path == "" {
		return "", NewExitError(ExitCommandError, "no database: pass --db or set database in the config file").
			WithErrCode(ErrCodeConfig)
	}
	return path, nil
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	path, err := databasePath(opts.Database, opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Limit <= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid limit %d: must be positive", opts.Limit))
	}

	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err).WithErrCode(ErrCodeDatabase)
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err).WithErrCode(ErrCodeDatabase)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return out.Success(runs)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}
	fmt.Fprintln(w, historyTable(runs))
	return nil
}

func historyTable(runs []store.RunInfo) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN ID", "STARTED", "PASSED", "FAILED", "TOTAL")
	for _, r := range runs {
		t.Row(
			r.RunID,
			r.StartedAt.Format(time.RFC3339),
			strconv.Itoa(r.Passed),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.Total),
		)
	}
	return t.String()
}
