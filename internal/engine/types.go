package engine

import "github.com/roach88/breakpoints/internal/breakpoint"

// Aliases keep signatures in this package short.
type (
	State     = breakpoint.State
	Event     = breakpoint.Event
	ActiveSet = breakpoint.ActiveSet
)
