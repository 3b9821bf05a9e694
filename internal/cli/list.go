package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ListedSpec is one entry of the list command's JSON output.
type ListedSpec struct {
	Position    int    `json:"position"`
	Description string `json:"description"`
	Focused     bool   `json:"focused,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered specs",
		Long: `List every registered spec in registration order.
Focused specs are marked with "*".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSpecs(cmd, rootOpts)
		},
	}
}

func listSpecs(cmd *cobra.Command, opts *RootOptions) error {
	specs := opts.Registry.Specs()
	listed := make([]ListedSpec, 0, len(specs))
	for i, s := range specs {
		listed = append(listed, ListedSpec{Position: i, Description: s.Description, Focused: s.Focused})
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return out.Success(listed)
	}

	w := cmd.OutOrStdout()
	if len(listed) == 0 {
		fmt.Fprintln(w, "No specs registered")
		return nil
	}
	for _, s := range listed {
		marker := " "
		if s.Focused {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\n", marker, s.Description)
	}
	fmt.Fprintf(w, "\n%d spec(s)\n", len(listed))
	return nil
}
