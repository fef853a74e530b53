// Package middleware provides cross-cutting concerns for the rubric engine:
// Prometheus metrics and a traced, instrumented repository decorator.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-rubric/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It tracks repository latency, submission outcomes and the distribution
// of normalized grades.
type PrometheusMetrics struct {
	submissions      *prometheus.CounterVec
	gradeHistogram   *prometheus.HistogramVec
	executionLatency *prometheus.HistogramVec
	distributions    *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// all required metrics in the global Prometheus registry. It panics when
// called twice in one process.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWith(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsWith registers the metrics with reg instead of the
// global registry.
func NewPrometheusMetricsWith(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubric_evaluations_submitted_total",
				Help: "Evaluation submissions by outcome.",
			},
			[]string{"outcome", "component"},
		),
		gradeHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubric_evaluation_out_of_ten",
				Help:    "Distribution of submitted evaluations graded out of ten.",
				Buckets: prometheus.LinearBuckets(1, 1, 10),
			},
			[]string{"component"},
		),
		executionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubric_operation_duration_seconds",
				Help:    "Execution time of repository and service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "component"},
		),
		distributions: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubric_value_distribution",
				Help:    "Distribution of unitless values recorded by the rubric engine.",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
			[]string{"metric", "component"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubric_operations_total",
				Help: "Total number of repository and service operations.",
			},
			[]string{"operation", "status", "component"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rubric_state",
				Help: "Current state values of the rubric engine.",
			},
			[]string{"metric", "component"},
		),
	}
}

func componentLabel(labels map[string]string) string {
	if c := labels["component"]; c != "" {
		return c
	}
	return "unknown"
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.executionLatency.WithLabelValues(operation, componentLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	component := componentLabel(labels)

	switch metric {
	case ports.MetricSubmissions:
		outcome := labels["outcome"]
		if outcome == "" {
			outcome = "accepted"
		}
		pm.submissions.WithLabelValues(outcome, component).Add(value)
	case ports.MetricRepositoryErrors:
		pm.operationCounter.WithLabelValues(labels["operation"], "error", component).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, "success", component).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric, componentLabel(labels)).Set(value)
}

// RecordHistogram implements the MetricsCollector interface. Grades go to
// the out-of-ten histogram; any other value is observed in the unitless
// distribution histogram under its metric name. Durations belong in
// RecordLatency.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	component := componentLabel(labels)
	if metric == ports.MetricOutOfTen {
		pm.gradeHistogram.WithLabelValues(component).Observe(value)
		return
	}
	pm.distributions.WithLabelValues(metric, component).Observe(value)
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
