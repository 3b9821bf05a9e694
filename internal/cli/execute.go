package cli

import (
	"context"
	"io"

	"github.com/roach88/janus/internal/runner"
)

// Execute runs the janus command line over reg and returns the process exit
// code. Errors are printed to stderr in the selected output format.
func Execute(ctx context.Context, reg *runner.Registry, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		// cobra falls back to os.Args for nil.
		args = []string{}
	}
	cmd := NewRootCommand(reg)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	format := "text"
	if f := cmd.PersistentFlags().Lookup("format"); f != nil && isValidFormat(f.Value.String()) {
		format = f.Value.String()
	}
	out := &OutputFormatter{Format: format, Writer: stderr}
	_ = out.Error(GetErrCode(err), err.Error(), nil)
	return GetExitCode(err)
}
