package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/breakpoints/internal/breakpoint"
)

// Scenario defines a conformance test scenario.
// A scenario starts an engine over Breakpoints, drives its environment
// through Steps and asserts on the resulting trace and streams.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Breakpoints is the ordered definition list the engine watches.
	Breakpoints breakpoint.Definitions `yaml:"breakpoints"`

	// Viewport drives conditions from a simulated viewport size.
	// Mutually exclusive with Matches.
	Viewport *Size `yaml:"viewport,omitempty"`

	// Matches scripts the initial match state per breakpoint name.
	// Names left out start unmatched. Used when Viewport is nil.
	Matches map[string]bool `yaml:"matches,omitempty"`

	// Steps drive the environment. Windows close only on flush or tick.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace, the final state and derived streams.
	Assertions []Assertion `yaml:"assertions"`
}

// Size is a viewport size in CSS pixels.
type Size struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Step is one action. Exactly one field must be set.
type Step struct {
	// Resize changes the simulated viewport. Viewport scenarios only.
	Resize *Size `yaml:"resize,omitempty"`

	// Set changes a scripted condition; listeners hear it only on a flip.
	Set *Toggle `yaml:"set,omitempty"`

	// Fire notifies a scripted condition's listeners even without a flip.
	Fire *Toggle `yaml:"fire,omitempty"`

	// Flush closes the open window.
	Flush bool `yaml:"flush,omitempty"`

	// Tick closes the open window through the window clock.
	Tick bool `yaml:"tick,omitempty"`
}

// Toggle sets the match state of one breakpoint's condition.
type Toggle struct {
	Name    string `yaml:"name"`
	Matches bool   `yaml:"matches"`
}

// Assertion validates the result of a run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "initial": the seeded active set equals Current
	// - "current": the final active set equals Current
	// - "transition": the Index-th transition (1-based) has Current and,
	//   if given, Previous
	// - "transition_count": exactly Count transitions were published
	// - "changes_for": ChangesFor(Name) emitted Values
	// - "in_range": InRange(Names...) emitted Values
	Type string `yaml:"type"`

	Current  []string `yaml:"current,omitempty"`
	Previous []string `yaml:"previous,omitempty"`
	Index    int      `yaml:"index,omitempty"`
	Count    int      `yaml:"count,omitempty"`
	Name     string   `yaml:"name,omitempty"`
	Names    []string `yaml:"names,omitempty"`
	Values   []bool   `yaml:"values,omitempty"`
}

// Assertion type constants.
const (
	AssertInitial         = "initial"
	AssertCurrent         = "current"
	AssertTransition      = "transition"
	AssertTransitionCount = "transition_count"
	AssertChangesFor      = "changes_for"
	AssertInRange         = "in_range"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by path.
func LoadDir(dir string) ([]*Scenario, []string, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, nil, fmt.Errorf("glob scenarios: %w", err)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, paths, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Breakpoints) == 0 {
		return fmt.Errorf("breakpoints list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Viewport != nil && s.Matches != nil {
		return fmt.Errorf("viewport and matches are mutually exclusive")
	}

	names := s.Breakpoints.Names()
	for i, def := range s.Breakpoints {
		if def.Name == "" {
			return fmt.Errorf("breakpoints[%d]: name is required", i)
		}
	}
	for name := range s.Matches {
		if !slices.Contains(names, name) {
			return fmt.Errorf("matches: unknown breakpoint %q", name)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step, s.Viewport != nil, names); err != nil {
			return err
		}
	}
	// Events left in an open window are discarded on close, at a point
	// that races the engine loop, so traces must end on a closed window.
	if n := len(s.Steps); n > 0 && !s.Steps[n-1].Flush && !s.Steps[n-1].Tick {
		return fmt.Errorf("steps: the last step must be flush or tick")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step Step, viewport bool, names []string) error {
	set := 0
	if step.Resize != nil {
		set++
		if !viewport {
			return fmt.Errorf("steps[%d]: resize requires a viewport", index)
		}
	}
	for _, t := range []*Toggle{step.Set, step.Fire} {
		if t == nil {
			continue
		}
		set++
		if viewport {
			return fmt.Errorf("steps[%d]: set and fire require scripted matches", index)
		}
		if !slices.Contains(names, t.Name) {
			return fmt.Errorf("steps[%d]: unknown breakpoint %q", index, t.Name)
		}
	}
	if step.Flush {
		set++
	}
	if step.Tick {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of resize, set, fire, flush, tick is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertInitial, AssertCurrent:
		if a.Current == nil {
			return fmt.Errorf("assertions[%d]: current is required for %s", index, a.Type)
		}
	case AssertTransition:
		if a.Index < 1 {
			return fmt.Errorf("assertions[%d]: index must be at least 1 for transition", index)
		}
		if a.Current == nil {
			return fmt.Errorf("assertions[%d]: current is required for transition", index)
		}
	case AssertTransitionCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for transition_count", index)
		}
	case AssertChangesFor:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for changes_for", index)
		}
		if a.Values == nil {
			return fmt.Errorf("assertions[%d]: values is required for changes_for", index)
		}
	case AssertInRange:
		if len(a.Names) == 0 {
			return fmt.Errorf("assertions[%d]: names is required for in_range", index)
		}
		if a.Values == nil {
			return fmt.Errorf("assertions[%d]: values is required for in_range", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
