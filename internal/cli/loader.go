package cli

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/roach88/breakpoints/internal/breakpoint"
	"github.com/roach88/breakpoints/internal/definitions"
)

// LoadOptions controls how flat variable inputs (stylesheets, variable maps)
// map to ranges.
type LoadOptions struct {
	Pattern   string
	NameGroup int
	KindGroup int
}

func addLoadFlags(cmd *cobra.Command, opts *LoadOptions) {
	cmd.Flags().StringVar(&opts.Pattern, "pattern", "", "regexp matching breakpoint variables (default "+definitions.DefaultPattern.String()+")")
	cmd.Flags().IntVar(&opts.NameGroup, "name-group", 1, "pattern group holding the range name (0 is the whole match)")
	cmd.Flags().IntVar(&opts.KindGroup, "kind-group", 2, "pattern group holding min or max")
}

func (o LoadOptions) parseConfig() (definitions.ParseConfig, error) {
	cfg := definitions.ParseConfig{
		NameGroup: definitions.Group(o.NameGroup),
		KindGroup: definitions.Group(o.KindGroup),
	}
	if o.Pattern != "" {
		re, err := regexp.Compile(o.Pattern)
		if err != nil {
			return cfg, &definitions.LoadError{
				Code:    definitions.ErrCodeGeneric,
				Message: fmt.Sprintf("invalid --pattern: %v", err),
			}
		}
		cfg.Pattern = re
	}
	return cfg, nil
}

// loadDefinitions reads a definitions file. Errors are *definitions.LoadError.
func loadDefinitions(path string, opts LoadOptions) (breakpoint.Definitions, error) {
	cfg, err := opts.parseConfig()
	if err != nil {
		return nil, err
	}
	return definitions.LoadWith(path, cfg)
}

// loadErrorCode returns the E-code of err, or the generic code.
func loadErrorCode(err error) string {
	var loadErr *definitions.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return definitions.ErrCodeGeneric
}

// reportLoadError prints err and returns the exit error for a file that
// could not be loaded.
func reportLoadError(f *OutputFormatter, path string, err error) error {
	if outErr := f.Error(loadErrorCode(err), err.Error(), map[string]string{"file": path}); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, "failed to load definitions", err)
}
