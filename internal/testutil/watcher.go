package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/breakpoints/internal/engine"
)

// ScriptedWatcher is an engine.Watcher whose condition values are set by
// the test. It stands in for environments where no single viewport produces
// the desired combination, such as two overlapping ranges flipping at once.
//
// Listeners run synchronously inside Set and Fire, in registration order.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ScriptedWatcher struct {
	mu       sync.Mutex
	values   map[string]bool
	failures map[string]error
	regs     []*scriptedCondition
}

// NewScriptedWatcher creates a watcher with initial condition values.
// Conditions not listed start false.
func NewScriptedWatcher(initial map[string]bool) *ScriptedWatcher {
	values := make(map[string]bool, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &ScriptedWatcher{
		values:   values,
		failures: make(map[string]error),
	}
}

// FailOn makes Watch fail for condition.
func (w *ScriptedWatcher) FailOn(condition string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures[condition] = err
}

// Watch implements engine.Watcher.
func (w *ScriptedWatcher) Watch(condition string) (engine.Condition, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err, ok := w.failures[condition]; ok {
		return nil, fmt.Errorf("watch %q: %w", condition, err)
	}
	c := &scriptedCondition{w: w, condition: condition}
	w.regs = append(w.regs, c)
	return c, nil
}

// Set changes the value of condition and notifies its listeners if the
// value flipped.
func (w *ScriptedWatcher) Set(condition string, matches bool) {
	w.mu.Lock()
	changed := w.values[condition] != matches
	w.values[condition] = matches
	w.mu.Unlock()

	if changed {
		w.notify(condition, matches)
	}
}

// Fire notifies the listeners of condition with matches whether or not the
// value changed, like an environment repeating a notification.
func (w *ScriptedWatcher) Fire(condition string, matches bool) {
	w.mu.Lock()
	w.values[condition] = matches
	w.mu.Unlock()

	w.notify(condition, matches)
}

func (w *ScriptedWatcher) notify(condition string, matches bool) {
	for _, fn := range w.listeners(condition) {
		fn(matches)
	}
}

func (w *ScriptedWatcher) listeners(condition string) []func(bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []func(bool)
	for _, c := range w.regs {
		if c.condition != condition {
			continue
		}
		for _, l := range c.listeners {
			if l.fn != nil {
				out = append(out, l.fn)
			}
		}
	}
	return out
}

// Listeners returns the number of attached listeners across all conditions.
func (w *ScriptedWatcher) Listeners() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for _, c := range w.regs {
		for _, l := range c.listeners {
			if l.fn != nil {
				n++
			}
		}
	}
	return n
}

type scriptedListener struct {
	fn func(bool)
}

type scriptedCondition struct {
	w         *ScriptedWatcher
	condition string
	listeners []*scriptedListener
}

func (c *scriptedCondition) Matches() bool {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	if c.condition == "" {
		return true
	}
	return c.w.values[c.condition]
}

func (c *scriptedCondition) Listen(fn func(bool)) func() {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()

	l := &scriptedListener{fn: fn}
	c.listeners = append(c.listeners, l)
	return func() {
		c.w.mu.Lock()
		defer c.w.mu.Unlock()
		l.fn = nil
	}
}
