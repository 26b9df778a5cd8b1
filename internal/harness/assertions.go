package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		switch event.Type {
		case EventBoundary:
			fmt.Fprintf(&buf, "  [%d] event %s active=%t\n", i+1, event.Name, event.Active)
		default:
			fmt.Fprintf(&buf, "  [%d] %s seq=%d current=%v previous=%v\n",
				i+1, event.Type, event.Seq, []string(event.Current), []string(event.Previous))
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// the failure messages in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %s", i, err.Error()))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertInitial:
		return assertInitial(result, a)
	case AssertCurrent:
		return assertSet(AssertCurrent, result.Trace, a.Current, result.Final.Current)
	case AssertTransition:
		return assertTransition(result, a)
	case AssertTransitionCount:
		return assertTransitionCount(result, a)
	case AssertChangesFor, AssertInRange:
		return assertEmitted(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertInitial(result *Result, a Assertion) error {
	seed, ok := result.Seed()
	if !ok {
		return &AssertionError{
			Type:     AssertInitial,
			Expected: "a seed in the trace",
			Actual:   "no seed",
			Trace:    result.Trace,
		}
	}
	return assertSet(AssertInitial, result.Trace, a.Current, seed.Current)
}

// assertSet compares active sets exactly, order included. A nil actual set
// equals an empty expectation.
func assertSet(kind string, trace []TraceEvent, expected, actual []string) error {
	if len(expected) == 0 && len(actual) == 0 {
		return nil
	}
	if !slices.Equal(expected, actual) {
		return &AssertionError{
			Type:     kind,
			Expected: fmt.Sprintf("%v", expected),
			Actual:   fmt.Sprintf("%v", actual),
			Trace:    trace,
		}
	}
	return nil
}

func assertTransition(result *Result, a Assertion) error {
	transitions := result.Transitions()
	if a.Index > len(transitions) {
		return &AssertionError{
			Type:     AssertTransition,
			Expected: fmt.Sprintf("at least %d transitions", a.Index),
			Actual:   fmt.Sprintf("%d transitions", len(transitions)),
			Trace:    result.Trace,
		}
	}
	t := transitions[a.Index-1]
	if err := assertSet(AssertTransition, result.Trace, a.Current, t.Current); err != nil {
		return fmt.Errorf("transition %d current: %w", a.Index, err)
	}
	if a.Previous != nil {
		if err := assertSet(AssertTransition, result.Trace, a.Previous, t.Previous); err != nil {
			return fmt.Errorf("transition %d previous: %w", a.Index, err)
		}
	}
	return nil
}

// assertTransitionCount checks the number of published transitions.
func assertTransitionCount(result *Result, a Assertion) error {
	count := len(result.Transitions())
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTransitionCount,
			Expected: fmt.Sprintf("%d transitions", a.Count),
			Actual:   fmt.Sprintf("%d transitions", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertEmitted(result *Result, a Assertion) error {
	key := streamKey(a)
	got, ok := result.Emitted[key]
	if !ok {
		return fmt.Errorf("stream %s was not observed", key)
	}
	if !slices.Equal(a.Values, got) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s emitted %v", key, a.Values),
			Actual:   fmt.Sprintf("%v", got),
			Trace:    result.Trace,
		}
	}
	return nil
}
