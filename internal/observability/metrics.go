package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// scheduled jobs.
type Metrics struct {
	EvaluationOutcomes *prometheus.CounterVec   // labels: hazard, outcome
	DispatchDuration   *prometheus.HistogramVec // labels: hazard
	WeatherRequests    *prometheus.CounterVec   // labels: outcome={success,error}

	// Garbage collection metrics.
	GCChecked prometheus.Counter
	GCDeleted *prometheus.CounterVec // labels: reason={empty_token,invalid_token,stale}

	// Run-level metrics.
	JobRunning  *prometheus.GaugeVec     // labels: job={evaluation,gc}
	RunDuration *prometheus.HistogramVec // labels: job

	// Audit sink metrics.
	AuditPublished     prometheus.Counter
	AuditPublishErrors prometheus.Counter
}

// NewMetrics creates and registers all job metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.EvaluationOutcomes,
		m.DispatchDuration,
		m.WeatherRequests,
		m.GCChecked,
		m.GCDeleted,
		m.JobRunning,
		m.RunDuration,
		m.AuditPublished,
		m.AuditPublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		EvaluationOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thermosafe",
			Name:      "evaluations_total",
			Help:      "Per-subscription evaluation outcomes by hazard family.",
		}, []string{"hazard", "outcome"}),
		DispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "thermosafe",
			Name:      "dispatch_duration_seconds",
			Help:      "Push dispatch duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"hazard"}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thermosafe",
			Name:      "weather_requests_total",
			Help:      "Weather upstream requests by outcome.",
		}, []string{"outcome"}),
		GCChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "thermosafe",
			Name:      "gc_checked_total",
			Help:      "Subscription records examined by the garbage collector.",
		}),
		GCDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thermosafe",
			Name:      "gc_deleted_total",
			Help:      "Subscription records deleted by the garbage collector, by reason.",
		}, []string{"reason"}),
		JobRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "thermosafe",
			Name:      "job_running",
			Help:      "1 while the named job is running, 0 otherwise.",
		}, []string{"job"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "thermosafe",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete job run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"job"}),
		AuditPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "thermosafe",
			Name:      "audit_published_total",
			Help:      "Dispatch audit records published to the sink.",
		}),
		AuditPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "thermosafe",
			Name:      "audit_publish_errors_total",
			Help:      "Dispatch audit records that failed to publish.",
		}),
	}
}
