// Package metrics exposes Prometheus collectors for cutover runs. The
// binary is one-shot, so these matter mostly when --metrics-addr is set and
// a scraper samples the run in flight, or when the registry is inspected in
// tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cutover metrics
	CutoversTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cutover_runs_total",
			Help: "Total number of cutover runs by outcome",
		},
		[]string{"outcome"},
	)

	PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cutover_phase_duration_seconds",
			Help:    "Duration of each cutover phase in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"phase"},
	)

	RollbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cutover_rollbacks_total",
			Help: "Total number of rollbacks performed after a health gate timeout",
		},
	)

	// Health poller metrics
	PollIterations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cutover_health_poll_iterations_total",
			Help: "Total number of health poll iterations by gate",
		},
		[]string{"gate"},
	)

	HealthQueryErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cutover_health_query_errors_total",
			Help: "Total number of failed endpoint health queries (treated as not-yet-healthy)",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(CutoversTotal)
	prometheus.MustRegister(PhaseDuration)
	prometheus.MustRegister(RollbacksTotal)
	prometheus.MustRegister(PollIterations)
	prometheus.MustRegister(HealthQueryErrors)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
