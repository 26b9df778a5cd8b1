package engine

import "slices"

// Reduce folds one batch of boundary events into the active set.
//
// Events apply in batch order: an inactive event removes the name (no-op if
// absent), an active event appends it (no-op if present). When one batch
// holds both an activation and a deactivation for the same name, the later
// event wins. The result owns fresh slices; prev is not modified.
func Reduce(prev ActiveSet, batch []Event) State {
	working := prev.Clone()
	for _, ev := range batch {
		if !ev.Active {
			working = slices.DeleteFunc(working, func(n string) bool { return n == ev.Name })
			continue
		}
		if !working.Contains(ev.Name) {
			working = append(working, ev.Name)
		}
	}
	return State{
		Current:  working,
		Previous: prev.Clone(),
	}
}
