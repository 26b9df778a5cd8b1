package harness

import "github.com/roach88/breakpoints/internal/breakpoint"

// Trace event types.
const (
	EventSeed       = "seed"
	EventBoundary   = "event"
	EventTransition = "transition"
)

// TraceEvent is one entry in a scenario trace. Which fields are meaningful
// depends on Type: seed and transition carry a state, event carries a
// boundary crossing.
type TraceEvent struct {
	Type     string               `json:"type"`
	Seq      int64                `json:"seq,omitempty"`
	Current  breakpoint.ActiveSet `json:"current,omitempty"`
	Previous breakpoint.ActiveSet `json:"previous,omitempty"`
	Batch    int                  `json:"batch,omitempty"`
	Name     string               `json:"name,omitempty"`
	Active   bool                 `json:"active,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace holds the seed, every boundary event and every transition in
	// the order the engine produced them.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the engine state after the last step.
	Final breakpoint.State `json:"final"`

	// Emitted holds what each derived stream delivered, keyed by the
	// stream's description (e.g. "changes_for:md").
	Emitted map[string][]bool `json:"emitted,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Emitted: make(map[string][]bool),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Transitions returns the transition entries of the trace.
func (r *Result) Transitions() []TraceEvent {
	var out []TraceEvent
	for _, ev := range r.Trace {
		if ev.Type == EventTransition {
			out = append(out, ev)
		}
	}
	return out
}

// Seed returns the seed entry of the trace.
func (r *Result) Seed() (TraceEvent, bool) {
	for _, ev := range r.Trace {
		if ev.Type == EventSeed {
			return ev, true
		}
	}
	return TraceEvent{}, false
}
