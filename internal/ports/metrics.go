package ports

import "time"

// Metric names with dedicated series. Collectors route any other name to a
// generic operation counter, state gauge or distribution.
const (
	// MetricSubmissions counts submissions by the "outcome" label
	// (accepted, rejected or failed).
	MetricSubmissions = "evaluations_submitted_total"

	// MetricRepositoryErrors counts failed repository calls by the
	// "operation" label.
	MetricRepositoryErrors = "repository_errors_total"

	// MetricOutOfTen observes the normalized grade of each submission.
	MetricOutOfTen = "evaluation_out_of_ten"

	// MetricLastScoreTotal is the raw total of the last submission.
	MetricLastScoreTotal = "last_evaluation_score_total"

	// MetricSeededIndicators is the number of indicators written by the
	// last seed.
	MetricSeededIndicators = "seeded_indicators"
)

// MetricsCollector receives operational metrics from the repository
// decorator, the seeder and the evaluation service. The labels map carries
// low-cardinality context such as the repository operation and outcome.
type MetricsCollector interface {
	// RecordLatency records how long an operation took.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric, e.g. submissions accepted
	// or rejected.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric, e.g. the total
	// of the last submitted evaluation.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records one observation of a distribution, e.g. the
	// normalized grade of each submission.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
