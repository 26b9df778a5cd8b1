package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/breakpoints/internal/breakpoint"
)

var goldenScenarios = []string{
	"scenario_a",
	"scenario_b",
	"scenario_c",
	"scenario_d",
	"later_event_wins",
}

func TestRunWithGolden(t *testing.T) {
	for _, name := range goldenScenarios {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ScenarioB(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/scenario_b.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, breakpoint.ActiveSet{"md"}, result.Final.Current)
	assert.Equal(t, breakpoint.ActiveSet{"lg"}, result.Final.Previous)
	assert.Equal(t, int64(1), result.Final.Seq)
	assert.Equal(t, []bool{false}, result.Emitted["changes_for:lg"])
	assert.Equal(t, []bool{}, result.Emitted["in_range:md,lg"])
}

func TestRun_PreviousChainsCurrent(t *testing.T) {
	scenario := &Scenario{
		Name:        "chain",
		Description: "previous of each transition is the prior current",
		Breakpoints: breakpoint.Definitions{
			{Name: "sm", Max: breakpoint.Px(767)},
			{Name: "md", Min: breakpoint.Px(768), Max: breakpoint.Px(991)},
			{Name: "lg", Min: breakpoint.Px(992)},
		},
		Viewport: &Size{Width: 500, Height: 500},
		Steps: []Step{
			{Resize: &Size{Width: 800, Height: 500}},
			{Flush: true},
			{Resize: &Size{Width: 1200, Height: 500}},
			{Tick: true},
			{Resize: &Size{Width: 300, Height: 500}},
			{Flush: true},
		},
		Assertions: []Assertion{{Type: AssertTransitionCount, Count: 3}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	seed, ok := result.Seed()
	require.True(t, ok)
	prev := seed.Current
	for i, tr := range result.Transitions() {
		assert.Equal(t, prev, tr.Previous, "transition %d", i+1)
		assert.Equal(t, int64(i+1), tr.Seq)
		prev = tr.Current
	}
	assert.Equal(t, breakpoint.ActiveSet{"sm"}, result.Final.Current)
}

func TestRun_EmptyFlushPublishesNothing(t *testing.T) {
	scenario := &Scenario{
		Name:        "empty",
		Description: "a flush with no events does not publish",
		Breakpoints: breakpoint.Definitions{{Name: "sm", Max: breakpoint.Px(767)}},
		Steps:       []Step{{Flush: true}, {Tick: true}},
		Assertions: []Assertion{
			{Type: AssertTransitionCount, Count: 0},
			{Type: AssertCurrent, Current: []string{}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 1)
}

func TestRun_FailingAssertions(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/scenario_b.yaml")
	require.NoError(t, err)
	scenario.Assertions = []Assertion{
		{Type: AssertTransitionCount, Count: 2},
		{Type: AssertTransition, Index: 1, Current: []string{"lg"}},
		{Type: AssertTransition, Index: 5, Current: []string{}},
		{Type: AssertChangesFor, Name: "md", Values: []bool{false}},
		{Type: AssertInitial, Current: []string{"lg"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "transition_count")
	assert.Contains(t, result.Errors[1], "transition 1 current")
	assert.Contains(t, result.Errors[2], "at least 5 transitions")
	assert.Contains(t, result.Errors[3], "changes_for:md emitted [false]")
}

func TestAssertionError_ListsTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertCurrent,
		Expected: "[md]",
		Actual:   "[sm]",
		Trace: []TraceEvent{
			{Type: EventSeed, Current: breakpoint.ActiveSet{"sm"}, Previous: breakpoint.ActiveSet{}},
			{Type: EventBoundary, Name: "md", Active: true},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: current")
	assert.Contains(t, msg, "[1] seed seq=0 current=[sm] previous=[]")
	assert.Contains(t, msg, "[2] event md active=true")
}

func TestRunDir(t *testing.T) {
	result, err := RunDir("testdata/scenarios")
	require.NoError(t, err)
	assert.Equal(t, len(goldenScenarios), result.TotalScenarios)
	assert.True(t, result.Pass(), "failures: %+v", result.Failures)
}

func TestRunDir_RecordsFailures(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "bad.yaml", `name: bad
description: "expects the wrong set"
breakpoints:
  - {name: sm, max: 767}
viewport: {width: 500, height: 500}
assertions:
  - type: current
    current: [md]
`)
	writeScenario(t, dir, "good.yml", `name: good
description: "expects the right set"
breakpoints:
  - {name: sm, max: 767}
viewport: {width: 500, height: 500}
assertions:
  - type: current
    current: [sm]
`)

	result, err := RunDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalScenarios)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "bad", result.Failures[0].Scenario)
	assert.False(t, result.Pass())
}

func TestRunDir_Empty(t *testing.T) {
	_, err := RunDir(t.TempDir())
	assert.ErrorContains(t, err, "no scenarios")
}

func writeScenario(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
