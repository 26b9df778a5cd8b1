package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/breakpoints/internal/breakpoint"
	"github.com/roach88/breakpoints/internal/engine"
	"github.com/roach88/breakpoints/internal/testutil"
	"github.com/roach88/breakpoints/internal/viewport"
)

// EngineID is the fixed engine id used for every harness run.
const EngineID = "harness"

// Harness drives one engine through a scenario.
type Harness struct {
	engine   *engine.Engine
	clock    *testutil.ManualClock
	viewport *viewport.Viewport
	scripted *testutil.ScriptedWatcher
	conds    map[string]string
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh engine whose windows close only on
// flush or tick steps, with a fixed engine id, so traces are reproducible.
//
// Execution flow:
// 1. Build the environment (viewport or scripted conditions)
// 2. Start the engine and subscribe the derived streams under test
// 3. Execute steps
// 4. Close the engine and collect what every stream emitted
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	h := &Harness{
		clock:  testutil.NewManualClock(),
		conds:  make(map[string]string),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	defs := scenario.Breakpoints.Collapse()
	for _, def := range defs {
		h.conds[def.Name] = breakpoint.Condition(def)
	}

	var w engine.Watcher
	if scenario.Viewport != nil {
		h.viewport = viewport.New(scenario.Viewport.Width, scenario.Viewport.Height)
		w = h.viewport
	} else {
		initial := make(map[string]bool, len(defs))
		for _, def := range defs {
			initial[h.conds[def.Name]] = scenario.Matches[def.Name]
		}
		h.scripted = testutil.NewScriptedWatcher(initial)
		w = h.scripted
	}

	rec := &traceRecorder{}
	eng, err := engine.New(scenario.Breakpoints, w,
		engine.WithClock(h.clock),
		engine.WithLogger(h.logger),
		engine.WithRecorder(rec),
		engine.WithIDGenerator(engine.NewFixedGenerator(EngineID)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}
	h.engine = eng
	defer eng.Close()

	streams := h.subscribe(scenario.Assertions)

	ctx := context.Background()
	if err := h.executeSteps(ctx, scenario.Steps); err != nil {
		return nil, err
	}

	// Close waits for the loop to finish any window a tick started and
	// finishes every subscription, so draining below terminates.
	eng.Close()

	result := NewResult()
	result.Final = eng.State()
	for key, sub := range streams {
		values := []bool{}
		for v := range sub.C() {
			values = append(values, v)
		}
		result.Emitted[key] = values
	}
	result.Trace = rec.snapshot()

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// subscribe opens one derived stream per distinct stream assertion before
// any step runs, so every transition of the run is observed.
func (h *Harness) subscribe(assertions []Assertion) map[string]*engine.Subscription[bool] {
	streams := make(map[string]*engine.Subscription[bool])
	for _, a := range assertions {
		key := streamKey(a)
		if key == "" {
			continue
		}
		if _, ok := streams[key]; ok {
			continue
		}
		switch a.Type {
		case AssertChangesFor:
			streams[key] = h.engine.ChangesFor(a.Name)
		case AssertInRange:
			streams[key] = h.engine.InRange(a.Names...)
		}
	}
	return streams
}

// streamKey names the derived stream an assertion observes, or "" if it
// observes none.
func streamKey(a Assertion) string {
	switch a.Type {
	case AssertChangesFor:
		return AssertChangesFor + ":" + a.Name
	case AssertInRange:
		return AssertInRange + ":" + strings.Join(a.Names, ",")
	}
	return ""
}

// executeSteps runs all steps in order.
func (h *Harness) executeSteps(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		switch {
		case step.Resize != nil:
			if err := h.viewport.Resize(step.Resize.Width, step.Resize.Height); err != nil {
				return fmt.Errorf("step %d: resize: %w", i, err)
			}
		case step.Set != nil:
			h.scripted.Set(h.conds[step.Set.Name], step.Set.Matches)
		case step.Fire != nil:
			h.scripted.Fire(h.conds[step.Fire.Name], step.Fire.Matches)
		case step.Flush:
			if _, _, err := h.engine.Flush(ctx); err != nil {
				return fmt.Errorf("step %d: flush: %w", i, err)
			}
		case step.Tick:
			h.clock.Tick()
			// The loop serves this flush only after closing the ticked
			// window, so later steps cannot leak into it. Nothing is
			// queued in between, so the flush itself publishes nothing.
			if _, _, err := h.engine.Flush(ctx); err != nil {
				return fmt.Errorf("step %d: tick: %w", i, err)
			}
		}

		h.logger.Debug("step completed", "step", i)
	}
	return nil
}

// traceRecorder is an engine.Recorder that keeps every callback in order.
type traceRecorder struct {
	mu     sync.Mutex
	events []TraceEvent
}

func (r *traceRecorder) Seed(s breakpoint.State) {
	r.append(TraceEvent{
		Type:     EventSeed,
		Seq:      s.Seq,
		Current:  s.Current.Clone(),
		Previous: s.Previous.Clone(),
	})
}

func (r *traceRecorder) BoundaryEvent(ev breakpoint.Event) {
	r.append(TraceEvent{Type: EventBoundary, Name: ev.Name, Active: ev.Active})
}

func (r *traceRecorder) Transition(s breakpoint.State, batchSize int) {
	r.append(TraceEvent{
		Type:     EventTransition,
		Seq:      s.Seq,
		Current:  s.Current.Clone(),
		Previous: s.Previous.Clone(),
		Batch:    batchSize,
	})
}

func (r *traceRecorder) append(ev TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *traceRecorder) snapshot() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TraceEvent, len(r.events))
	copy(out, r.events)
	return out
}
