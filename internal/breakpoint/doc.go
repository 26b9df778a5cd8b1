// Package breakpoint defines the data model shared by every other package:
// range definitions, boundary events, active sets and state pairs.
//
// breakpoint imports nothing internal. All other internal packages import
// breakpoint, which keeps the model the foundational layer with no cycles.
//
// Key constraints:
//   - A Definitions value is ordered; the order is the condition
//     registration order.
//   - An ActiveSet is ordered by activation, never by definition order, and
//     never holds a name twice.
//   - Every State handed to a consumer owns its slices. Snapshots are never
//     mutated after they have been published.
//   - All JSON tags use snake_case.
package breakpoint
