package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ingest pipeline.
type Metrics struct {
	// Per-entity outcomes by job mode (import/reimport) and outcome kind.
	EntityOutcomes *prometheus.CounterVec

	// Full batch job duration by mode.
	BatchLatency *prometheus.HistogramVec

	// Entities queued for manual review.
	ReviewQueued prometheus.Counter

	// Jobs refused because the project lock was held.
	LockContention prometheus.Counter
}

// New creates a Metrics instance with all ingest metrics registered.
func New() *Metrics {
	return &Metrics{
		EntityOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cadlink_ingest_entity_outcomes_total",
			Help: "Per-entity pipeline outcomes by job mode and outcome kind",
		}, []string{"mode", "outcome"}),

		BatchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cadlink_ingest_batch_duration_seconds",
			Help:    "Duration of full import and reimport jobs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"mode"}),

		ReviewQueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cadlink_ingest_review_queued_total",
			Help: "Entities routed to the manual review queue",
		}),

		LockContention: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cadlink_ingest_lock_contention_total",
			Help: "Jobs refused because another job held the project lock",
		}),
	}
}

// IncrementOutcome records one entity outcome.
func (m *Metrics) IncrementOutcome(mode, outcome string) {
	if m != nil {
		m.EntityOutcomes.WithLabelValues(mode, outcome).Inc()
	}
}

// ObserveBatch records a completed batch job's duration.
func (m *Metrics) ObserveBatch(mode string, d time.Duration) {
	if m != nil {
		m.BatchLatency.WithLabelValues(mode).Observe(d.Seconds())
	}
}

// IncrementReviewQueued records an entity routed to review.
func (m *Metrics) IncrementReviewQueued() {
	if m != nil {
		m.ReviewQueued.Inc()
	}
}

// IncrementLockContention records a refused job.
func (m *Metrics) IncrementLockContention() {
	if m != nil {
		m.LockContention.Inc()
	}
}
