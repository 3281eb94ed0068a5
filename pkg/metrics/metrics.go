package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all engine metrics
type Metrics struct {
	// Lifecycle metrics
	LifecycleTransitions *prometheus.CounterVec
	TransitionConflicts  prometheus.Counter

	// Recommendation metrics
	RecommendationsGenerated *prometheus.CounterVec
	RecommendationLatency    prometheus.Histogram

	// Adjustment metrics
	AdjustmentsApplied  *prometheus.CounterVec
	AdjustmentsRejected prometheus.Counter
}

// New creates engine metrics. They are not registered; call Register with
// the registry the process exposes.
func New(namespace string) *Metrics {
	return &Metrics{
		LifecycleTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prescription_transitions_total",
			Help:      "Total number of prescription lifecycle transitions",
		}, []string{"action"}),
		TransitionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prescription_transition_conflicts_total",
			Help:      "Total number of transitions rejected for state or version conflicts",
		}),
		RecommendationsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_generated_total",
			Help:      "Total number of recommendations generated, by type",
		}, []string{"type"}),
		RecommendationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_generation_duration_seconds",
			Help:      "Time spent generating a recommendation bundle",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		AdjustmentsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "difficulty_adjustments_applied_total",
			Help:      "Total number of difficulty adjustments applied, by type and origin",
		}, []string{"type", "applied_by"}),
		AdjustmentsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "difficulty_adjustments_rejected_total",
			Help:      "Total number of adjustment batches rejected by validation",
		}),
	}
}

// Register registers all metrics with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.LifecycleTransitions,
		m.TransitionConflicts,
		m.RecommendationsGenerated,
		m.RecommendationLatency,
		m.AdjustmentsApplied,
		m.AdjustmentsRejected,
	)
}
