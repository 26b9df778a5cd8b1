package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/breakpoints/internal/breakpoint"
	"github.com/roach88/breakpoints/internal/store"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Load     LoadOptions
	Database string
	Delete   bool // remove the checkpoint after showing it
}

// CheckpointView is the printable form of a stored checkpoint.
type CheckpointView struct {
	DefinitionsHash string               `json:"definitions_hash"`
	EngineID        string               `json:"engine_id"`
	Seq             int64                `json:"seq"`
	Current         breakpoint.ActiveSet `json:"current"`
	Previous        breakpoint.ActiveSet `json:"previous"`
	Breakpoints     []string             `json:"breakpoints"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status [definitions-file]",
		Short: "Show checkpointed engine state",
		Long: `Show the latest transition checkpointed by watch.

With a definitions file, show the checkpoint for those definitions.
Without one, list every checkpoint in the database. --delete removes the
checkpoint of the given definitions, so the next watch starts at seq 0.

Exit codes:
  0 - Checkpoint(s) shown
  1 - No checkpoint for the given definitions
  2 - Database or definitions could not be read

Examples:
  breakpoints status --db ./bp.db
  breakpoints status breakpoints.yaml --db ./bp.db --format json
  breakpoints status breakpoints.yaml --db ./bp.db --delete`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("db") {
				opts.Database = rootOpts.settings().Database
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if opts.Delete && path == "" {
				return NewExitError(ExitCommandError, "--delete requires a definitions file")
			}
			return runStatus(opts, path, cmd)
		},
	}

	addLoadFlags(cmd, &opts.Load)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite checkpoint database (default $BREAKPOINTS_DB)")
	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "delete the checkpoint of the given definitions")

	return cmd
}

func runStatus(opts *StatusOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := context.Background()

	// Open would create a missing database; status only reads.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database), err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var checkpoints []store.Checkpoint
	if path == "" {
		checkpoints, err = st.ListCheckpoints(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list checkpoints", err)
		}
	} else {
		defs, err := loadDefinitions(path, opts.Load)
		if err != nil {
			return reportLoadError(f, path, err)
		}
		hash, err := defs.Collapse().Hash()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to hash definitions", err)
		}
		f.VerboseLog("Definitions hash: %s", hash)

		cp, err := st.ReadCheckpoint(ctx, hash)
		if errors.Is(err, store.ErrNotFound) {
			if outErr := f.Error("E_NO_CHECKPOINT", "no checkpoint for "+path, map[string]string{"definitions_hash": hash}); outErr != nil {
				return outErr
			}
			return NewExitError(ExitFailure, "no checkpoint")
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read checkpoint", err)
		}
		checkpoints = []store.Checkpoint{cp}

		if opts.Delete {
			if err := st.DeleteCheckpoint(ctx, hash); err != nil {
				return WrapExitError(ExitCommandError, "failed to delete checkpoint", err)
			}
			opts.logger().Info("checkpoint deleted", "definitions_hash", hash, "seq", cp.State.Seq)
		}
	}

	views := make([]CheckpointView, 0, len(checkpoints))
	for _, cp := range checkpoints {
		views = append(views, CheckpointView{
			DefinitionsHash: cp.DefinitionsHash,
			EngineID:        cp.EngineID,
			Seq:             cp.State.Seq,
			Current:         cp.State.Current,
			Previous:        cp.State.Previous,
			Breakpoints:     cp.Definitions.Names(),
		})
	}

	return f.Success(views, func(w io.Writer) {
		if len(views) == 0 {
			fmt.Fprintln(w, "No checkpoints.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "HASH\tENGINE\tSEQ\tCURRENT\tPREVIOUS")
		for _, v := range views {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
				shortHash(v.DefinitionsHash), v.EngineID, v.Seq, formatSet(v.Current), formatSet(v.Previous))
		}
		tw.Flush()
		if opts.Delete {
			fmt.Fprintf(w, "Deleted checkpoint %s\n", shortHash(views[0].DefinitionsHash))
		}
	})
}

// shortHash trims a hash for tables; JSON output keeps it whole.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
