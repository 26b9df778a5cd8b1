package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/breakpoints/internal/breakpoint"
	"github.com/roach88/breakpoints/internal/engine"
	"github.com/roach88/breakpoints/internal/viewport"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Load     LoadOptions
	Size     string
	Resizes  []string
	Coalesce bool
}

// SimulationStep is the outcome of closing one window.
type SimulationStep struct {
	Sizes     []string          `json:"sizes"`
	Published bool              `json:"published"`
	State     *breakpoint.State `json:"state,omitempty"`
}

// SimulationResult holds the initial set and every window of a simulation.
type SimulationResult struct {
	Conditions map[string]string    `json:"conditions"`
	Initial    breakpoint.ActiveSet `json:"initial"`
	Steps      []SimulationStep     `json:"steps"`
	Final      breakpoint.State     `json:"final"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <definitions-file>",
		Short: "Run an engine against a simulated viewport",
		Long: `Start an engine on a simulated viewport, apply each --resize and
print the transitions the engine publishes.

By default each resize gets its own window. With --coalesce every resize
lands in one window, which publishes a single transition.

Examples:
  breakpoints simulate breakpoints.yaml --size 1000x800 --resize 800x800
  breakpoints simulate breakpoints.yaml --size 1000 --resize 900 --resize 700 --coalesce`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args[0], cmd)
		},
	}

	addLoadFlags(cmd, &opts.Load)
	cmd.Flags().StringVar(&opts.Size, "size", "", "initial viewport size, WIDTHxHEIGHT or WIDTH (required)")
	_ = cmd.MarkFlagRequired("size")
	cmd.Flags().StringArrayVar(&opts.Resizes, "resize", nil, "resize the viewport (repeatable)")
	cmd.Flags().BoolVar(&opts.Coalesce, "coalesce", false, "apply every resize inside one window")

	return cmd
}

func runSimulate(opts *SimulateOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	defs, err := loadDefinitions(path, opts.Load)
	if err != nil {
		return reportLoadError(f, path, err)
	}

	width, height, err := viewport.ParseSize(opts.Size)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --size", err)
	}
	sizes := make([][2]float64, 0, len(opts.Resizes))
	for _, r := range opts.Resizes {
		w, h, err := viewport.ParseSize(r)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --resize", err)
		}
		sizes = append(sizes, [2]float64{w, h})
	}

	vp := viewport.New(width, height)
	eng, err := engine.New(defs, vp,
		engine.WithWindow(opts.settings().Window),
		engine.WithClock(explicitWindows{}),
		engine.WithLogger(opts.logger()),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start engine", err)
	}
	defer eng.Close()

	result := SimulationResult{
		Conditions: eng.Conditions(),
		Initial:    eng.Current(),
		Steps:      []SimulationStep{},
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var pending []string
	for i, size := range sizes {
		if err := vp.Resize(size[0], size[1]); err != nil {
			return WrapExitError(ExitCommandError, "resize failed", err)
		}
		pending = append(pending, opts.Resizes[i])
		if opts.Coalesce && i < len(sizes)-1 {
			continue
		}

		st, published, err := eng.Flush(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "flush failed", err)
		}
		step := SimulationStep{Sizes: pending, Published: published}
		if published {
			step.State = &st
		}
		result.Steps = append(result.Steps, step)
		pending = nil
	}
	result.Final = eng.State()

	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "initial: %s\n", formatSet(result.Initial))
		for _, step := range result.Steps {
			if !step.Published {
				fmt.Fprintf(w, "%s: no change\n", strings.Join(step.Sizes, ", "))
				continue
			}
			fmt.Fprintf(w, "%s: #%d %s -> %s\n",
				strings.Join(step.Sizes, ", "), step.State.Seq,
				formatSet(step.State.Previous), formatSet(step.State.Current))
		}
	})
}

func formatSet(s breakpoint.ActiveSet) string {
	return "[" + strings.Join(s, " ") + "]"
}

// explicitWindows is an engine.WindowClock whose tickers never fire:
// simulate closes every window itself with Flush.
type explicitWindows struct{}

func (explicitWindows) NewTicker(time.Duration) engine.Ticker { return idleTicker{} }

type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop()               {}
