package definitions

import (
	"fmt"

	"github.com/roach88/breakpoints/internal/breakpoint"
	"github.com/roach88/breakpoints/internal/mediaquery"
)

// Validate checks definitions and returns every problem found.
//
// The engine accepts all of these (duplicates collapse, a bound it cannot
// evaluate is the environment's concern), so Validate is advisory: it is
// what the validate command reports.
func Validate(defs breakpoint.Definitions) []error {
	var errs []error
	seen := map[string]bool{}

	for i, def := range defs {
		if def.Name == "" {
			errs = append(errs, &LoadError{
				Code:    ErrCodeEmptyName,
				Message: fmt.Sprintf("definition %d has no name", i),
			})
		} else if seen[def.Name] {
			errs = append(errs, &LoadError{
				Code:    ErrCodeDuplicate,
				Message: fmt.Sprintf("breakpoint %q is defined more than once; the last definition wins", def.Name),
			})
		}
		seen[def.Name] = true

		minPx, minOK := checkBound(def.Name, "min", def.Min, &errs)
		maxPx, maxOK := checkBound(def.Name, "max", def.Max, &errs)
		if minOK && maxOK && minPx > maxPx {
			errs = append(errs, &LoadError{
				Code:    ErrCodeInverted,
				Message: fmt.Sprintf("breakpoint %q: min %s exceeds max %s, the range can never match", def.Name, def.Min, def.Max),
			})
		}
	}
	return errs
}

func checkBound(name, side string, b breakpoint.Bound, errs *[]error) (float64, bool) {
	if !b.IsSet() {
		return 0, false
	}
	px, err := mediaquery.ParseLength(b.String())
	if err != nil {
		*errs = append(*errs, &LoadError{
			Code:    ErrCodeInvalidBound,
			Message: fmt.Sprintf("breakpoint %q: %s: %v", name, side, err),
		})
		return 0, false
	}
	return px, true
}
