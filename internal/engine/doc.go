// Package engine implements the breakpoint-state engine.
//
// The engine watches one condition per named range, collapses bursts of
// boundary notifications into single transitions, and publishes every
// transition on an authoritative channel that replays its latest value to
// new subscribers.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Watcher callbacks may fire on any goroutine; they only enqueue a boundary
// event. One loop goroutine owns the working active set. This ensures:
//   - Arrival order within a window is the fold order
//   - Transitions are numbered and published in window order
//   - Every subscriber sees the same sequence
//
// Event Processing Flow:
//  1. Aggregate registers a listener per condition and records the initial
//     active set
//  2. Listeners enqueue Event{Name, Active} on the source FIFO
//  3. The loop drains the FIFO into the open window's batch
//  4. When the window closes (ticker or Flush) a non-empty batch is folded by
//     Reduce and published; an empty batch publishes nothing
//  5. StateChannel fans the State out to per-subscriber queues
//
// Lifecycle:
// New performs the synchronous initialization phase and returns a live
// engine. Close releases every watcher registration, stops the loop,
// delivers whatever subscribers still have queued, and closes their
// channels. Events of a window still open at Close are discarded; call
// Flush first to publish them.
package engine
