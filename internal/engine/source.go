package engine

import (
	"sync"

	"github.com/roach88/breakpoints/internal/breakpoint"
)

// Source is the merged boundary-event sequence of every watched range
// together with the initial active set computed while registering.
type Source struct {
	// Initial lists the ranges whose condition held at registration, in
	// registration order.
	Initial ActiveSet

	// Conditions maps each range name to the condition watched for it.
	Conditions map[string]string

	queue     *queue[Event]
	cancels   []func()
	closeOnce sync.Once
}

// Aggregate registers one condition per definition, in order.
//
// Each listener enqueues Event{Name, Active} on the source's FIFO, so events
// from every range share one arrival order. Registration is all-or-nothing:
// if the watcher rejects a condition, every listener attached so far is
// released and a WATCH_FAILED error is returned.
func Aggregate(defs breakpoint.Definitions, w Watcher) (*Source, error) {
	s := &Source{
		Initial:    ActiveSet{},
		Conditions: make(map[string]string, len(defs)),
		queue:      newQueue[Event](),
	}

	for _, def := range defs {
		condition := breakpoint.Condition(def)
		c, err := w.Watch(condition)
		if err != nil {
			s.Close()
			return nil, newWatchError(def.Name, condition, err)
		}

		name := def.Name
		// Listen before sampling so a flip between the two is not lost.
		// A duplicate of the sampled value is harmless to the reducer.
		cancel := c.Listen(func(active bool) {
			s.queue.Enqueue(Event{Name: name, Active: active})
		})
		s.cancels = append(s.cancels, cancel)
		s.Conditions[name] = condition

		if c.Matches() && !s.Initial.Contains(name) {
			s.Initial = append(s.Initial, name)
		}
	}
	return s, nil
}

// Pending returns the number of events not yet drained.
func (s *Source) Pending() int {
	return s.queue.Len()
}

// Close detaches every listener and stops accepting events.
// Safe to call more than once.
func (s *Source) Close() {
	s.closeOnce.Do(func() {
		for i := len(s.cancels) - 1; i >= 0; i-- {
			if s.cancels[i] != nil {
				s.cancels[i]()
			}
		}
		s.cancels = nil
		s.queue.Close()
	})
}
