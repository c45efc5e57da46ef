// Package metrics exposes the Prometheus collectors shared by the
// pipeline and the server. Collectors are registered on the default
// registry so the server's /metrics endpoint picks them up without
// extra wiring.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chargecost_records_fetched_total",
		Help: "Rate records fetched from the catalog.",
	})

	recordsFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chargecost_records_filtered_total",
		Help: "Rate records excluded before or during evaluation, by reason.",
	}, []string{"reason"})

	recordsEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chargecost_records_evaluated_total",
		Help: "Rate records evaluated successfully.",
	})

	recordsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chargecost_records_failed_total",
		Help: "Rate records that passed filtering but failed compile or evaluation.",
	})

	evaluationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chargecost_evaluation_duration_seconds",
		Help:    "Time spent evaluating a single rate record (both scenarios).",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	lastRunTime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chargecost_last_run_timestamp_seconds",
		Help: "Completion time of the most recent pipeline run.",
	})
)

// AddFetched counts records fetched from the catalog.
func AddFetched(n int) {
	recordsFetched.Add(float64(n))
}

// IncFiltered counts a record excluded for the given reason.
func IncFiltered(reason string) {
	recordsFiltered.WithLabelValues(reason).Inc()
}

// IncEvaluated counts a record evaluated successfully.
func IncEvaluated() {
	recordsEvaluated.Inc()
}

// IncFailed counts a record that failed compile or evaluation.
func IncFailed() {
	recordsFailed.Inc()
}

// ObserveEvaluation records how long one record's evaluation took.
func ObserveEvaluation(d time.Duration) {
	evaluationSeconds.Observe(d.Seconds())
}

// SetLastRun records when the most recent run finished.
func SetLastRun(t time.Time) {
	lastRunTime.Set(float64(t.Unix()))
}
