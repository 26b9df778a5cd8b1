package engine

import (
	"sync/atomic"
	"time"
)

// Clock numbers transitions.
//
// Every published State is stamped with a strictly increasing Seq from this
// clock; the seed state has Seq 0. Only the engine loop calls Next, but the
// clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used when an engine resumes numbering from a stored checkpoint.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Ticker delivers window boundaries.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// WindowClock creates the ticker that closes coalescing windows.
// SystemClock is the production implementation; tests substitute a manual
// clock so windows close only when the test says so.
type WindowClock interface {
	NewTicker(d time.Duration) Ticker
}

// SystemClock is a WindowClock backed by time.Ticker.
type SystemClock struct{}

// NewTicker implements WindowClock.
func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }
