package harness

import (
	"fmt"
	"path/filepath"
)

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a failed scenario.
type ScenarioFailure struct {
	Scenario string   `json:"scenario"`
	Path     string   `json:"path"`
	Errors   []string `json:"errors"`
}

// RunDir runs every scenario in dir. A scenario that fails to load aborts
// the suite; a scenario that fails to run or assert is recorded as a failure.
func RunDir(dir string) (*SuiteResult, error) {
	scenarios, paths, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	}

	result := &SuiteResult{TotalScenarios: len(scenarios)}
	for i, s := range scenarios {
		r, err := Run(s)
		switch {
		case err != nil:
			result.addFailure(s.Name, paths[i], []string{err.Error()})
		case !r.Pass:
			result.addFailure(s.Name, paths[i], r.Errors)
		default:
			result.Passed++
		}
	}
	return result, nil
}

func (r *SuiteResult) addFailure(name, path string, errs []string) {
	r.Failed++
	r.Failures = append(r.Failures, ScenarioFailure{
		Scenario: name,
		Path:     filepath.ToSlash(path),
		Errors:   errs,
	})
}

// Pass reports whether every scenario passed.
func (r *SuiteResult) Pass() bool {
	return r.Failed == 0
}
