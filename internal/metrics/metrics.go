// Package metrics provides Prometheus metrics for contentcurator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts finished curation runs.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentcurator",
			Name:      "runs_total",
			Help:      "Total number of curation runs",
		},
		[]string{"kind", "status"},
	)

	// RunDuration measures a whole run.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "contentcurator",
			Name:      "run_duration_seconds",
			Help:      "Duration of curation runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	// ItemsTotal counts items by what happened to them.
	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentcurator",
			Name:      "items_total",
			Help:      "Items processed by outcome (fetched, added, updated, skipped, deleted)",
		},
		[]string{"kind", "outcome"},
	)

	// ModelCallsTotal counts scoring requests sent to the model.
	ModelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentcurator",
			Name:      "model_calls_total",
			Help:      "Total number of model scoring calls",
		},
		[]string{"kind"},
	)

	// FallbackScoresTotal counts items scored by the keyword heuristic.
	FallbackScoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentcurator",
			Name:      "fallback_scores_total",
			Help:      "Total number of items scored by the fallback heuristic",
		},
		[]string{"kind"},
	)

	// SourceErrorsTotal counts failed source fetches.
	SourceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentcurator",
			Name:      "source_errors_total",
			Help:      "Total number of failed source fetches",
		},
		[]string{"kind", "source"},
	)
)

// RunRecord is the subset of a run the metrics care about.
type RunRecord struct {
	Kind      string
	Status    string
	Seconds   float64
	Fetched   int
	Added     int
	Updated   int
	Skipped   int
	Deleted   int64
	AICalls   int
	Fallbacks int
}

// RecordRun records one finished run.
func RecordRun(r RunRecord) {
	RunsTotal.WithLabelValues(r.Kind, r.Status).Inc()
	RunDuration.WithLabelValues(r.Kind).Observe(r.Seconds)
	ItemsTotal.WithLabelValues(r.Kind, "fetched").Add(float64(r.Fetched))
	ItemsTotal.WithLabelValues(r.Kind, "added").Add(float64(r.Added))
	ItemsTotal.WithLabelValues(r.Kind, "updated").Add(float64(r.Updated))
	ItemsTotal.WithLabelValues(r.Kind, "skipped").Add(float64(r.Skipped))
	ItemsTotal.WithLabelValues(r.Kind, "deleted").Add(float64(r.Deleted))
	ModelCallsTotal.WithLabelValues(r.Kind).Add(float64(r.AICalls))
	FallbackScoresTotal.WithLabelValues(r.Kind).Add(float64(r.Fallbacks))
}

// RecordSourceError records a failed fetch.
func RecordSourceError(kind, source string) {
	SourceErrorsTotal.WithLabelValues(kind, source).Inc()
}
