package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.Repository = (*InstrumentedRepository)(nil)

const repositoryComponent = "repository"

// InstrumentedRepository decorates a ports.Repository with one
// OpenTelemetry span and one latency observation per call. Failed calls
// mark the span as errored and increment the repository error counter.
type InstrumentedRepository struct {
	next    ports.Repository
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewInstrumentedRepository wraps next. A nil metrics collector disables
// metrics; spans are always created through the global tracer provider.
func NewInstrumentedRepository(next ports.Repository, metrics ports.MetricsCollector) *InstrumentedRepository {
	return &InstrumentedRepository{
		next:    next,
		metrics: metrics,
		tracer:  otel.Tracer("rubric-repository"),
	}
}

// observe starts a span for op and returns the context to pass down and a
// function that finishes the span with the call's error.
func (r *InstrumentedRepository) observe(
	ctx context.Context, op string, attrs ...attribute.KeyValue,
) (context.Context, func(error)) {
	ctx, span := r.tracer.Start(ctx, "Repository."+op, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		defer span.End()

		labels := map[string]string{"component": repositoryComponent, "operation": op}
		if r.metrics != nil {
			r.metrics.RecordLatency(op, time.Since(start), labels)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if r.metrics != nil {
				r.metrics.RecordCounter(ports.MetricRepositoryErrors, 1, labels)
			}
			return
		}
		span.SetStatus(codes.Ok, "")
		if r.metrics != nil {
			r.metrics.RecordCounter(op, 1, labels)
		}
	}
}

// InitSchema implements ports.Repository.
func (r *InstrumentedRepository) InitSchema(ctx context.Context) (err error) {
	ctx, done := r.observe(ctx, "init_schema")
	defer func() { done(err) }()
	return r.next.InitSchema(ctx)
}

// CountCriteria implements ports.Repository.
func (r *InstrumentedRepository) CountCriteria(ctx context.Context) (n int, err error) {
	ctx, done := r.observe(ctx, "count_criteria")
	defer func() { done(err) }()
	return r.next.CountCriteria(ctx)
}

// SeedRubric implements ports.Repository.
func (r *InstrumentedRepository) SeedRubric(ctx context.Context, def domain.RubricDefinition) (seeded bool, err error) {
	ctx, done := r.observe(ctx, "seed_rubric",
		attribute.Int("rubric.criteria", len(def.Criteria)),
		attribute.Int("rubric.indicators", def.IndicatorCount()),
	)
	defer func() { done(err) }()
	return r.next.SeedRubric(ctx, def)
}

// FindStudentByCode implements ports.Repository.
func (r *InstrumentedRepository) FindStudentByCode(ctx context.Context, code string) (st domain.Student, found bool, err error) {
	ctx, done := r.observe(ctx, "find_student_by_code")
	defer func() { done(err) }()
	return r.next.FindStudentByCode(ctx, code)
}

// InsertStudent implements ports.Repository.
func (r *InstrumentedRepository) InsertStudent(ctx context.Context, s domain.Student) (id int64, err error) {
	ctx, done := r.observe(ctx, "insert_student")
	defer func() { done(err) }()
	return r.next.InsertStudent(ctx, s)
}

// InsertEvaluation implements ports.Repository.
func (r *InstrumentedRepository) InsertEvaluation(ctx context.Context, e domain.Evaluation) (id int64, err error) {
	ctx, done := r.observe(ctx, "insert_evaluation", attribute.String("evaluation.date", e.Date))
	defer func() { done(err) }()
	return r.next.InsertEvaluation(ctx, e)
}

// InsertScores implements ports.Repository.
func (r *InstrumentedRepository) InsertScores(ctx context.Context, rows []domain.Score) (err error) {
	ctx, done := r.observe(ctx, "insert_scores", attribute.Int("scores.count", len(rows)))
	defer func() { done(err) }()
	return r.next.InsertScores(ctx, rows)
}

// FetchRubricTree implements ports.Repository.
func (r *InstrumentedRepository) FetchRubricTree(ctx context.Context) (nodes []domain.CriterionNode, err error) {
	ctx, done := r.observe(ctx, "fetch_rubric_tree")
	defer func() { done(err) }()
	return r.next.FetchRubricTree(ctx)
}

// FetchEvaluationsForStudent implements ports.Repository.
func (r *InstrumentedRepository) FetchEvaluationsForStudent(
	ctx context.Context, code string,
) (out []domain.EvaluationSummary, err error) {
	ctx, done := r.observe(ctx, "fetch_evaluations_for_student")
	defer func() { done(err) }()
	return r.next.FetchEvaluationsForStudent(ctx, code)
}

// FetchEvaluationDetail implements ports.Repository.
func (r *InstrumentedRepository) FetchEvaluationDetail(
	ctx context.Context, evaluationID int64,
) (rows []domain.DetailRow, err error) {
	ctx, done := r.observe(ctx, "fetch_evaluation_detail", attribute.Int64("evaluation.id", evaluationID))
	defer func() { done(err) }()
	return r.next.FetchEvaluationDetail(ctx, evaluationID)
}

// CountEvaluations implements ports.Repository.
func (r *InstrumentedRepository) CountEvaluations(ctx context.Context) (n int, err error) {
	ctx, done := r.observe(ctx, "count_evaluations")
	defer func() { done(err) }()
	return r.next.CountEvaluations(ctx)
}

// WithinTx implements ports.Repository. The transaction-bound repository
// handed to fn is instrumented as well, so its calls appear as child spans.
func (r *InstrumentedRepository) WithinTx(
	ctx context.Context, fn func(ctx context.Context, tx ports.Repository) error,
) (err error) {
	ctx, done := r.observe(ctx, "within_tx")
	defer func() { done(err) }()
	return r.next.WithinTx(ctx, func(ctx context.Context, tx ports.Repository) error {
		if _, ok := tx.(*InstrumentedRepository); ok {
			return fn(ctx, tx)
		}
		return fn(ctx, &InstrumentedRepository{next: tx, metrics: r.metrics, tracer: r.tracer})
	})
}

// Close implements ports.Repository.
func (r *InstrumentedRepository) Close() error {
	return r.next.Close()
}
