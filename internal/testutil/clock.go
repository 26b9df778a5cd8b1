package testutil

import (
	"sync"
	"time"

	"github.com/roach88/breakpoints/internal/engine"
)

// ManualClock is an engine.WindowClock whose windows close only when the
// test calls Tick.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

// NewManualClock creates a manual clock. Its time starts at the Unix epoch
// and advances by the ticker period on every Tick.
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Unix(0, 0).UTC()}
}

// NewTicker implements engine.WindowClock.
func (c *ManualClock) NewTicker(d time.Duration) engine.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &manualTicker{
		period:  d,
		c:       make(chan time.Time),
		stopped: make(chan struct{}),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Tick fires every live ticker once. It blocks until each ticker's owner has
// received the tick or stopped the ticker, so on return the engine loop has
// started closing the window.
func (c *ManualClock) Tick() {
	c.mu.Lock()
	live := make([]*manualTicker, 0, len(c.tickers))
	for _, t := range c.tickers {
		if !t.isStopped() {
			live = append(live, t)
		}
	}
	c.tickers = live
	if len(live) > 0 {
		c.now = c.now.Add(live[0].period)
	}
	now := c.now
	c.mu.Unlock()

	for _, t := range live {
		select {
		case t.c <- now:
		case <-t.stopped:
		}
	}
}

// Tickers returns the number of tickers not yet stopped.
func (c *ManualClock) Tickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

type manualTicker struct {
	period  time.Duration
	c       chan time.Time
	once    sync.Once
	stopped chan struct{}
}

func (t *manualTicker) C() <-chan time.Time {
	return t.c
}

func (t *manualTicker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}

func (t *manualTicker) isStopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}
