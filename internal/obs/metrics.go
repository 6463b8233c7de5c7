// Package obs collects the engine's observability surface: Prometheus
// metrics served at /metrics and the slog logger configuration shared by
// every other package.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide counters and gauges registered against
// the default Prometheus registry, which promhttp.Handler() serves.
type Metrics struct {
	RunsCreated     prometheus.Counter
	StepsProcessed  prometheus.Counter
	FitnessLatency  prometheus.Histogram
	FitnessFailures prometheus.Counter
	BreakerOpen     prometheus.Gauge
}

// NewMetrics registers and returns the engine's metrics. Call once per
// process; registering twice against the default registry panics.
func NewMetrics() *Metrics {
	return &Metrics{
		RunsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "evogen_runs_created_total",
			Help: "Number of evolution runs created.",
		}),
		StepsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "evogen_steps_processed_total",
			Help: "Number of generations advanced across all runs.",
		}),
		FitnessLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "evogen_fitness_call_latency_seconds",
			Help:    "Latency of calls to the external fitness evaluator.",
			Buckets: prometheus.DefBuckets,
		}),
		FitnessFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "evogen_fitness_failures_total",
			Help: "Number of fitness evaluator calls that failed.",
		}),
		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "evogen_fitness_breaker_open",
			Help: "1 if the fitness evaluator circuit breaker is open, 0 otherwise.",
		}),
	}
}
