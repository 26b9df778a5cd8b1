package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/breakpoints/internal/breakpoint"
)

// DefaultWindow is the default coalescing window.
const DefaultWindow = 250 * time.Millisecond

// Engine tracks which named ranges are active.
//
// CRITICAL: the working active set is owned by the loop goroutine. Watcher
// callbacks only enqueue; queries read the authoritative channel.
//
// Thread-safety model:
//   - Current, State, Includes, IncludesAny, Subscribe, Changes, ChangesFor,
//     InRange: safe from any goroutine, never wait on the loop
//   - Flush: safe from any goroutine, waits for the loop to close the window
//   - Close: safe from any goroutine, idempotent
type Engine struct {
	id       string
	defs     breakpoint.Definitions
	source   *Source
	channel  *StateChannel
	clock    *Clock
	window   time.Duration
	ticks    WindowClock
	logger   *slog.Logger
	recorder Recorder
	idGen    IDGenerator

	flushReq  chan flushRequest
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

type flushRequest struct {
	reply chan flushResult
}

type flushResult struct {
	state     State
	published bool
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithWindow sets the coalescing window. Default: DefaultWindow.
// Non-positive windows make New fail with INVALID_WINDOW.
func WithWindow(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.window = d
	}
}

// WithClock sets the clock that closes windows. Default: SystemClock.
func WithClock(c WindowClock) EngineOption {
	return func(e *Engine) {
		e.ticks = c
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRecorder attaches a Recorder, typically metrics.Recorder.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithIDGenerator sets the generator for the engine's instance id.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(e *Engine) {
		e.idGen = g
	}
}

// WithStartSeq resumes transition numbering after seq, so the first
// transition is numbered seq+1.
func WithStartSeq(seq int64) EngineOption {
	return func(e *Engine) {
		e.clock = NewClockAt(seq)
	}
}

// New registers a condition for every definition and starts the engine.
//
// Duplicate names collapse: the last definition for a name wins, at the
// position of its first occurrence. The channel is seeded with
// {Current: initial active set, Previous: []} before New returns, so the
// first query already sees the initial set.
func New(defs breakpoint.Definitions, w Watcher, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		defs:     defs.Collapse(),
		clock:    NewClock(),
		window:   DefaultWindow,
		ticks:    SystemClock{},
		logger:   slog.Default(),
		recorder: nopRecorder{},
		idGen:    UUIDv7Generator{},
		flushReq: make(chan flushRequest),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.recorder == nil {
		e.recorder = nopRecorder{}
	}

	if e.window <= 0 {
		return nil, &Error{
			Code:    ErrCodeInvalidWindow,
			Message: "coalescing window must be positive, got " + e.window.String(),
		}
	}

	source, err := Aggregate(e.defs, w)
	if err != nil {
		e.logger.Error("engine construction failed", "error", err)
		return nil, err
	}
	e.source = source
	e.id = e.idGen.Generate()

	seed := State{
		Seq:      e.clock.Current(),
		Current:  source.Initial.Clone(),
		Previous: ActiveSet{},
	}
	e.channel = NewStateChannel(seed)
	e.recorder.Seed(seed)

	// The ticker exists before New returns so the first window is already
	// open when the caller starts producing events.
	go e.run(e.ticks.NewTicker(e.window), seed.Current)

	e.logger.Info("engine started",
		"engine_id", e.id,
		"breakpoints", len(e.defs),
		"active", []string(seed.Current),
		"window", e.window,
	)
	return e, nil
}

// ID returns the engine's instance id.
func (e *Engine) ID() string {
	return e.id
}

// Definitions returns the collapsed definitions the engine watches.
func (e *Engine) Definitions() breakpoint.Definitions {
	out := make(breakpoint.Definitions, len(e.defs))
	copy(out, e.defs)
	return out
}

// Conditions returns the condition watched for each range.
func (e *Engine) Conditions() map[string]string {
	out := make(map[string]string, len(e.source.Conditions))
	for k, v := range e.source.Conditions {
		out[k] = v
	}
	return out
}

// Window returns the coalescing window.
func (e *Engine) Window() time.Duration {
	return e.window
}

// run is the single-writer loop.
// CRITICAL: the only goroutine that folds and publishes.
func (e *Engine) run(ticker Ticker, active ActiveSet) {
	defer close(e.stopped)
	defer ticker.Stop()

	var batch []Event
	for {
		select {
		case <-e.done:
			if n := len(batch) + e.source.Pending(); n > 0 {
				e.logger.Debug("discarding open window", "engine_id", e.id, "events", n)
			}
			return

		case <-e.source.queue.Wait():
			batch = e.drain(batch)

		case <-ticker.C():
			batch = e.drain(batch)
			if st, ok := e.closeWindow(active, batch); ok {
				active = st.Current
			}
			batch = nil

		case req := <-e.flushReq:
			batch = e.drain(batch)
			st, ok := e.closeWindow(active, batch)
			if ok {
				active = st.Current
			}
			batch = nil
			req.reply <- flushResult{state: st, published: ok}
		}
	}
}

// drain moves every queued event into the open batch.
func (e *Engine) drain(batch []Event) []Event {
	n := len(batch)
	batch = e.source.queue.DrainInto(batch)
	for _, ev := range batch[n:] {
		e.recorder.BoundaryEvent(ev)
		e.logger.Debug("boundary event",
			"engine_id", e.id,
			"name", ev.Name,
			"active", ev.Active,
		)
	}
	return batch
}

// closeWindow folds and publishes a non-empty batch.
func (e *Engine) closeWindow(active ActiveSet, batch []Event) (State, bool) {
	if len(batch) == 0 {
		return State{}, false
	}
	st := Reduce(active, batch)
	st.Seq = e.clock.Next()
	e.channel.Publish(st)
	e.recorder.Transition(st, len(batch))

	e.logger.Debug("transition published",
		"engine_id", e.id,
		"seq", st.Seq,
		"batch", len(batch),
		"current", []string(st.Current),
		"previous", []string(st.Previous),
	)
	return st.Clone(), true
}

// Flush closes the open window now instead of waiting for the ticker.
//
// Events enqueued before the call are part of the window. Returns the
// published State and true, or false when the window was empty.
func (e *Engine) Flush(ctx context.Context) (State, bool, error) {
	req := flushRequest{reply: make(chan flushResult, 1)}
	select {
	case <-e.done:
		return State{}, false, ErrClosed
	case <-ctx.Done():
		return State{}, false, ctx.Err()
	case e.flushReq <- req:
	}

	select {
	case res := <-req.reply:
		return res.state, res.published, nil
	case <-ctx.Done():
		return State{}, false, ctx.Err()
	}
}

// Close releases every watcher registration, stops the loop and finishes
// every subscription. Safe to call more than once.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
		<-e.stopped
		e.source.Close()
		e.channel.Close()
		e.logger.Info("engine closed", "engine_id", e.id, "seq", e.clock.Current())
	})
	return nil
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}
