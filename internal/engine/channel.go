package engine

import (
	"maps"
	"slices"
	"sync"
)

// sink receives every published State.
type sink interface {
	offer(s State)
	finish()
}

// StateChannel is the authoritative record of the active set.
//
// It holds the latest State and the subscriber list behind one mutex, so a
// publish and a subscribe are atomic with respect to each other: a new
// subscriber sees the latest value and then every later one, never a gap and
// never a duplicate.
type StateChannel struct {
	mu     sync.RWMutex
	latest State
	sinks  map[uint64]sink
	nextID uint64
	closed bool
}

// NewStateChannel creates a channel seeded with an initial State.
func NewStateChannel(seed State) *StateChannel {
	return &StateChannel{
		latest: seed.Clone(),
		sinks:  make(map[uint64]sink),
	}
}

// Latest returns a copy of the most recent State.
func (c *StateChannel) Latest() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest.Clone()
}

// Publish records s as the latest State and offers it to every subscriber.
// Offers never block. Publishing on a closed channel is a no-op.
func (c *StateChannel) Publish(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.latest = s.Clone()
	for _, id := range c.orderedIDs() {
		c.sinks[id].offer(s.Clone())
	}
}

// orderedIDs returns subscriber ids in subscription order. Caller holds mu.
func (c *StateChannel) orderedIDs() []uint64 {
	return slices.Sorted(maps.Keys(c.sinks))
}

// Subscribe returns a subscription that first receives the latest State and
// then every later one.
func (c *StateChannel) Subscribe() *Subscription[State] {
	return Project(c, true, func(s State) (State, bool) { return s, true })
}

// Changes returns a forward-only subscription: it receives only States
// published after the call.
func (c *StateChannel) Changes() *Subscription[State] {
	return Project(c, false, func(s State) (State, bool) { return s, true })
}

// Project subscribes to c through fn. Each published State is passed to fn;
// the subscription receives the result only when fn reports true. With
// replay set, the latest State is offered first.
//
// Subscribing to a closed channel yields a subscription that delivers the
// replayed value, if any, and then closes.
func Project[T any](c *StateChannel, replay bool, fn func(State) (T, bool)) *Subscription[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	sub := newSubscription[T](func() { c.remove(id) })
	ps := &projected[T]{sub: sub, fn: fn}
	if replay {
		ps.offer(c.latest.Clone())
	}
	if c.closed {
		sub.finish()
		return sub
	}
	c.sinks[id] = ps
	return sub
}

func (c *StateChannel) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sinks, id)
}

// Close finishes every subscription: each delivers what it has queued and
// then closes its channel. Safe to call more than once.
func (c *StateChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for _, id := range c.orderedIDs() {
		c.sinks[id].finish()
	}
	clear(c.sinks)
}

// Subscribers returns the number of live subscriptions.
func (c *StateChannel) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sinks)
}

type projected[T any] struct {
	sub *Subscription[T]
	fn  func(State) (T, bool)
}

func (p *projected[T]) offer(s State) {
	if v, ok := p.fn(s); ok {
		p.sub.offer(v)
	}
}

func (p *projected[T]) finish() {
	p.sub.finish()
}

// Subscription is one consumer's ordered, exactly-once feed.
//
// Values queue without bound and a dedicated goroutine hands them to C, so a
// slow consumer delays only itself.
type Subscription[T any] struct {
	q           *queue[T]
	out         chan T
	stop        chan struct{}
	done        chan struct{}
	once        sync.Once
	unsubscribe func()
}

func newSubscription[T any](unsubscribe func()) *Subscription[T] {
	s := &Subscription[T]{
		q:           newQueue[T](),
		out:         make(chan T),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		unsubscribe: unsubscribe,
	}
	go s.pump()
	return s
}

// C returns the delivery channel. It is closed after Close, or after the
// engine shuts down and every queued value has been delivered.
func (s *Subscription[T]) C() <-chan T {
	return s.out
}

// Close stops delivery and drops anything still queued. It does not affect
// other subscriptions. Safe to call more than once and from any goroutine.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		close(s.stop)
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.q.Close()
	})
	<-s.done
}

func (s *Subscription[T]) offer(v T) {
	s.q.Enqueue(v)
}

// finish marks the end of the feed; queued values are still delivered.
func (s *Subscription[T]) finish() {
	s.q.Close()
}

func (s *Subscription[T]) pump() {
	defer close(s.done)
	defer close(s.out)

	for {
		if v, ok := s.q.TryDequeue(); ok {
			select {
			case s.out <- v:
			case <-s.stop:
				return
			}
			continue
		}
		if s.q.Drained() {
			return
		}
		select {
		case <-s.q.Wait():
		case <-s.stop:
			return
		}
	}
}
