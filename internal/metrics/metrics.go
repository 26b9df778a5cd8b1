// Package metrics exports engine activity as Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/breakpoints/internal/breakpoint"
)

const namespace = "breakpoints"

// Recorder implements engine.Recorder.
type Recorder struct {
	events      *prometheus.CounterVec
	transitions prometheus.Counter
	batchSize   prometheus.Histogram
	active      *prometheus.GaugeVec
	seq         prometheus.Gauge
}

// NewRecorder creates the engine metrics and registers them with reg.
// Passing prometheus.NewRegistry() keeps tests isolated from the default
// registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boundary_events_total",
			Help:      "Boundary events received, by range name and new value.",
		}, []string{"name", "active"}),
		transitions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Transitions published on the authoritative channel.",
		}),
		batchSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Boundary events folded into one transition.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16},
		}),
		active: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active",
			Help:      "1 while the named range is active, 0 after it was active and left.",
		}, []string{"name"}),
		seq: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "seq",
			Help:      "Sequence number of the latest published state.",
		}),
	}
}

// Seed records the initial active set.
func (r *Recorder) Seed(s breakpoint.State) {
	for _, name := range s.Current {
		r.active.WithLabelValues(name).Set(1)
	}
	r.seq.Set(float64(s.Seq))
}

// BoundaryEvent counts one event.
func (r *Recorder) BoundaryEvent(ev breakpoint.Event) {
	r.events.WithLabelValues(ev.Name, strconv.FormatBool(ev.Active)).Inc()
}

// Transition records one published transition.
func (r *Recorder) Transition(s breakpoint.State, batchSize int) {
	r.transitions.Inc()
	r.batchSize.Observe(float64(batchSize))
	for _, name := range s.Previous {
		if !s.Current.Contains(name) {
			r.active.WithLabelValues(name).Set(0)
		}
	}
	for _, name := range s.Current {
		r.active.WithLabelValues(name).Set(1)
	}
	r.seq.Set(float64(s.Seq))
}
