package engine

// Current returns a snapshot of the active set.
func (e *Engine) Current() ActiveSet {
	return e.channel.Latest().Current
}

// State returns the latest transition.
func (e *Engine) State() State {
	return e.channel.Latest()
}

// Includes reports whether name is active. Unknown names are never active.
func (e *Engine) Includes(name string) bool {
	return e.Current().Contains(name)
}

// IncludesAny reports whether any of names is active.
func (e *Engine) IncludesAny(names ...string) bool {
	return e.Current().ContainsAny(names...)
}

// Subscribe returns a feed of the latest State followed by every transition.
func (e *Engine) Subscribe() *Subscription[State] {
	return e.channel.Subscribe()
}

// Changes returns a feed of transitions published after the call.
func (e *Engine) Changes() *Subscription[State] {
	return e.channel.Changes()
}

// ChangesFor emits the new membership of name for each transition in which
// it differs from the previous membership. Transitions that leave name
// unchanged emit nothing. The feed is forward-only.
func (e *Engine) ChangesFor(name string) *Subscription[bool] {
	return Project(e.channel, false, func(s State) (bool, bool) {
		switch {
		case s.Entered(name):
			return true, true
		case s.Left(name):
			return false, true
		}
		return false, false
	})
}

// InRange emits true when the active set goes from containing none of names
// to containing at least one, and false on the reverse. Churn among names
// that keeps at least one active emits nothing. The feed is forward-only.
func (e *Engine) InRange(names ...string) *Subscription[bool] {
	names = append([]string(nil), names...)
	return Project(e.channel, false, func(s State) (bool, bool) {
		now := s.Current.ContainsAny(names...)
		return now, now != s.Previous.ContainsAny(names...)
	})
}
