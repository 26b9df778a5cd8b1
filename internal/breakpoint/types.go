package breakpoint

import (
	"slices"
	"strconv"
	"strings"
)

// Bound is one side of a range, expressed as a CSS dimension.
//
// Numeric bounds carry an implicit pixel unit (see Px). Pre-formatted sizes
// such as "48em" are passed through unchanged (see Size). The empty Bound
// means the side is absent.
type Bound string

// Px returns a pixel bound. Zero is treated as an absent bound, matching how
// falsy bounds are dropped when a condition is built.
func Px(v float64) Bound {
	if v == 0 {
		return ""
	}
	return Bound(strconv.FormatFloat(v, 'f', -1, 64) + "px")
}

// Size returns a bound from a pre-formatted size string.
func Size(s string) Bound {
	return Bound(strings.TrimSpace(s))
}

// IsSet reports whether the bound is present.
func (b Bound) IsSet() bool {
	return b != ""
}

func (b Bound) String() string {
	return string(b)
}

// Definition is one named range. Either bound may be absent; with both absent
// the range is unconditional.
type Definition struct {
	Name string `json:"name"`
	Min  Bound  `json:"min,omitempty"`
	Max  Bound  `json:"max,omitempty"`
}

// Definitions is an ordered set of range definitions.
type Definitions []Definition

// Names returns the definition names in order.
func (d Definitions) Names() []string {
	names := make([]string, 0, len(d))
	for _, def := range d {
		names = append(names, def.Name)
	}
	return names
}

// Lookup returns the last definition registered under name.
func (d Definitions) Lookup(name string) (Definition, bool) {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].Name == name {
			return d[i], true
		}
	}
	return Definition{}, false
}

// Collapse folds duplicate names the way a keyed dictionary would: a name
// keeps the position of its first occurrence and the bounds of its last.
func (d Definitions) Collapse() Definitions {
	out := make(Definitions, 0, len(d))
	index := make(map[string]int, len(d))
	for _, def := range d {
		if i, ok := index[def.Name]; ok {
			out[i] = def
			continue
		}
		index[def.Name] = len(out)
		out = append(out, def)
	}
	return out
}

// ActiveSet lists the names of the ranges whose condition currently holds,
// in activation order.
type ActiveSet []string

// Contains reports whether name is active.
func (s ActiveSet) Contains(name string) bool {
	return slices.Contains(s, name)
}

// ContainsAny reports whether at least one of names is active.
func (s ActiveSet) ContainsAny(names ...string) bool {
	for _, name := range names {
		if s.Contains(name) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy. The result is never nil.
func (s ActiveSet) Clone() ActiveSet {
	out := make(ActiveSet, len(s))
	copy(out, s)
	return out
}

// State is one transition of the active set.
//
// Seq numbers transitions from 1; the seed state published at construction
// has Seq 0 and an empty Previous.
type State struct {
	Seq      int64     `json:"seq"`
	Current  ActiveSet `json:"current"`
	Previous ActiveSet `json:"previous"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	return State{
		Seq:      s.Seq,
		Current:  s.Current.Clone(),
		Previous: s.Previous.Clone(),
	}
}

// Entered reports whether name became active in this transition.
func (s State) Entered(name string) bool {
	return s.Current.Contains(name) && !s.Previous.Contains(name)
}

// Left reports whether name stopped being active in this transition.
func (s State) Left(name string) bool {
	return !s.Current.Contains(name) && s.Previous.Contains(name)
}

// Event reports that the condition of one range flipped.
type Event struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
