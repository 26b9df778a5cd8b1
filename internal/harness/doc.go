// Package harness provides conformance testing for breakpoint engines.
//
// The harness starts a real engine over a scenario's definitions, drives a
// simulated environment through the scenario's steps and validates the
// published transitions and derived streams.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	breakpoints:
//	  - {name: sm, max: 767}
//	  - {name: md, min: 768, max: 991}
//	viewport: {width: 500, height: 800}
//	steps:
//	  - resize: {width: 800, height: 800}
//	  - flush: true
//	assertions:
//	  - type: initial
//	    current: [sm]
//	  - type: transition
//	    index: 1
//	    current: [md]
//	    previous: [sm]
//
// Instead of viewport, a scenario may script condition matches per
// breakpoint name with matches, and drive them with set and fire steps.
//
// # Assertion Types
//
//   - initial: the seeded active set
//   - current: the final active set
//   - transition: the current and previous sets of the n-th transition
//   - transition_count: the number of transitions published
//   - changes_for: the values ChangesFor(name) emitted
//   - in_range: the values InRange(names...) emitted
//
// # Deterministic Testing
//
// The harness uses:
//   - A manual window clock (testutil.ManualClock): windows close only on
//     flush and tick steps
//   - A fixed engine id
//   - An engine.Recorder that captures seed, boundary events and transitions
//
// This ensures identical traces across runs for golden file comparison.
package harness
