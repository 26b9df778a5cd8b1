package engine

// Watcher is the environment's condition-watch facility.
//
// Watch registers interest in a media condition. It may fail, for example
// when the environment cannot parse the condition.
type Watcher interface {
	Watch(condition string) (Condition, error)
}

// Condition is one registered media condition.
type Condition interface {
	// Matches reports the condition's current truth value.
	Matches() bool

	// Listen attaches a callback invoked with the new truth value every
	// time the condition flips. The callback may run on any goroutine.
	// The returned function detaches it.
	Listen(fn func(matches bool)) (cancel func())
}

// Recorder observes engine activity. internal/metrics provides the
// Prometheus implementation.
type Recorder interface {
	// Seed is called once with the state published at construction.
	Seed(s State)
	// BoundaryEvent is called for every event drained from the source.
	BoundaryEvent(ev Event)
	// Transition is called for every published transition.
	Transition(s State, batchSize int)
}

type nopRecorder struct{}

func (nopRecorder) Seed(State)            {}
func (nopRecorder) BoundaryEvent(Event)   {}
func (nopRecorder) Transition(State, int) {}
