package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/breakpoints/internal/breakpoint"
)

// ConditionEntry is one range and the condition watched for it.
type ConditionEntry struct {
	Name      string           `json:"name"`
	Min       breakpoint.Bound `json:"min,omitempty"`
	Max       breakpoint.Bound `json:"max,omitempty"`
	Condition string           `json:"condition"`
}

// NewConditionsCommand creates the conditions command.
func NewConditionsCommand(rootOpts *RootOptions) *cobra.Command {
	var load LoadOptions

	cmd := &cobra.Command{
		Use:   "conditions <definitions-file>",
		Short: "Print the condition watched for each range",
		Long: `Print the media condition built for each range, in definition order.
Duplicate names collapse the way the engine collapses them.

Examples:
  breakpoints conditions breakpoints.yaml
  breakpoints conditions theme.scss --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConditions(rootOpts, load, args[0], cmd)
		},
	}
	addLoadFlags(cmd, &load)

	return cmd
}

func runConditions(opts *RootOptions, load LoadOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	defs, err := loadDefinitions(path, load)
	if err != nil {
		return reportLoadError(f, path, err)
	}
	f.VerboseLog("Loaded %d definition(s) from %s", len(defs), path)

	entries := make([]ConditionEntry, 0, len(defs))
	for _, def := range defs.Collapse() {
		entries = append(entries, ConditionEntry{
			Name:      def.Name,
			Min:       def.Min,
			Max:       def.Max,
			Condition: breakpoint.Condition(def),
		})
	}

	return f.Success(entries, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, e := range entries {
			cond := e.Condition
			if cond == "" {
				cond = "(always)"
			}
			fmt.Fprintf(tw, "%s\t%s\n", e.Name, cond)
		}
		tw.Flush()
	})
}
