// Package viewport provides an in-process environment for the engine: a
// resizable viewport that evaluates media conditions and notifies listeners
// when a condition flips.
package viewport

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/breakpoints/internal/engine"
	"github.com/roach88/breakpoints/internal/mediaquery"
)

// Viewport implements engine.Watcher over a width and height in CSS pixels.
//
// Thread-safety: all methods are safe for concurrent use. Listeners run
// outside the lock, on the goroutine that called Resize, in registration
// order. Concurrent Resize calls are serialized.
type Viewport struct {
	resizeMu sync.Mutex // serializes Resize including its callbacks
	mu       sync.Mutex
	env      mediaquery.Env
	eval     *mediaquery.Evaluator
	regs     []*registration // conditions evaluated on Resize
}

// New creates a viewport of the given size.
func New(width, height float64) *Viewport {
	return &Viewport{
		env:  mediaquery.Env{Width: width, Height: height},
		eval: mediaquery.NewEvaluator(),
	}
}

// Watch implements engine.Watcher. It fails when the condition does not
// parse.
func (v *Viewport) Watch(condition string) (engine.Condition, error) {
	q, err := v.eval.Compile(condition)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	matches, err := q.Match(v.env)
	if err != nil {
		return nil, err
	}
	r := &registration{v: v, query: q, matches: matches}
	v.regs = append(v.regs, r)
	return r, nil
}

// Size returns the current width and height.
func (v *Viewport) Size() (width, height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.env.Width, v.env.Height
}

// Resize changes the viewport size and notifies the listeners of every
// condition whose value flipped. Evaluation errors leave the affected
// condition unchanged and are returned after all notifications.
func (v *Viewport) Resize(width, height float64) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("viewport size must not be negative: %vx%v", width, height)
	}

	v.resizeMu.Lock()
	defer v.resizeMu.Unlock()

	type flip struct {
		fns     []func(bool)
		matches bool
	}

	v.mu.Lock()
	v.env = mediaquery.Env{Width: width, Height: height}
	var flips []flip
	var errs []error
	for _, r := range v.regs {
		matches, err := r.query.Match(v.env)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if matches == r.matches {
			continue
		}
		r.matches = matches
		flips = append(flips, flip{fns: r.activeListeners(), matches: matches})
	}
	v.mu.Unlock()

	for _, f := range flips {
		for _, fn := range f.fns {
			fn(f.matches)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("resize: %w", errs[0])
	}
	return nil
}

// Listeners returns the number of attached listeners.
func (v *Viewport) Listeners() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, r := range v.regs {
		n += len(r.listeners)
	}
	return n
}

// attach puts r back under evaluation after it was released. Caller holds
// v.mu.
func (v *Viewport) attach(r *registration) {
	if slices.Contains(v.regs, r) {
		return
	}
	if matches, err := r.query.Match(v.env); err == nil {
		r.matches = matches
	}
	v.regs = append(v.regs, r)
}

// detach stops evaluating r. Caller holds v.mu.
func (v *Viewport) detach(r *registration) {
	v.regs = slices.DeleteFunc(v.regs, func(x *registration) bool { return x == r })
}

type listener struct {
	fn func(bool)
}

type registration struct {
	v         *Viewport
	query     *mediaquery.Query
	matches   bool
	listeners []*listener
}

func (r *registration) Matches() bool {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()
	return r.matches
}

// Listen attaches fn. The returned cancel removes it; once a condition has
// no listeners left the viewport stops evaluating it.
func (r *registration) Listen(fn func(bool)) func() {
	r.v.mu.Lock()
	defer r.v.mu.Unlock()

	l := &listener{fn: fn}
	r.listeners = append(r.listeners, l)
	r.v.attach(r)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.v.mu.Lock()
			defer r.v.mu.Unlock()
			r.listeners = slices.DeleteFunc(r.listeners, func(x *listener) bool { return x == l })
			if len(r.listeners) == 0 {
				r.v.detach(r)
			}
		})
	}
}

// activeListeners returns the attached callbacks. Caller holds v.mu.
func (r *registration) activeListeners() []func(bool) {
	out := make([]func(bool), 0, len(r.listeners))
	for _, l := range r.listeners {
		out = append(out, l.fn)
	}
	return out
}
