package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/breakpoints/internal/definitions"
)

// ValidationIssue is one problem found in a definitions file.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool              `json:"valid"`
	Breakpoints int               `json:"breakpoints"`
	Hash        string            `json:"hash,omitempty"`
	Issues      []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var load LoadOptions

	cmd := &cobra.Command{
		Use:   "validate <definitions-file>",
		Short: "Check a definitions file",
		Long: `Load a definitions file and report empty or duplicate names, bounds
that are not CSS lengths, and ranges whose lower bound exceeds the upper.

Exit codes:
  0 - Definitions are valid
  1 - Definitions have problems
  2 - The file could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, load, args[0], cmd)
		},
	}
	addLoadFlags(cmd, &load)

	return cmd
}

func runValidate(opts *RootOptions, load LoadOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	defs, err := loadDefinitions(path, load)
	if err != nil {
		return reportLoadError(f, path, err)
	}
	f.VerboseLog("Loaded %d definition(s) from %s", len(defs), path)

	result := ValidationResult{Breakpoints: len(defs)}
	for _, verr := range definitions.Validate(defs) {
		issue := ValidationIssue{Code: definitions.ErrCodeGeneric, Message: verr.Error()}
		var loadErr *definitions.LoadError
		if errors.As(verr, &loadErr) {
			issue = ValidationIssue{Code: loadErr.Code, Message: loadErr.Message}
		}
		result.Issues = append(result.Issues, issue)
	}

	if len(result.Issues) > 0 {
		if err := f.Error("E_INVALID", fmt.Sprintf("%d problem(s) in %s", len(result.Issues), path), result); err != nil {
			return err
		}
		if f.Format != "json" {
			for _, issue := range result.Issues {
				fmt.Fprintf(f.Writer, "  [%s] %s\n", issue.Code, issue.Message)
			}
		}
		return NewExitError(ExitFailure, "definitions are invalid")
	}

	hash, err := defs.Hash()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash definitions", err)
	}
	result.Valid = true
	result.Hash = hash

	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %d breakpoint(s) valid\n", result.Breakpoints)
		fmt.Fprintf(w, "  hash: %s\n", hash)
	})
}
