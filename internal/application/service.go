// Package application orchestrates the rubric engine: it seeds the rubric,
// validates and stores submissions, and assembles evaluation views from
// the repository.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

const serviceComponent = "evaluation_service"

// ServiceConfig tunes an EvaluationService. Zero values select defaults.
type ServiceConfig struct {
	// HistoryConcurrency bounds concurrent detail reads in
	// BuildStudentHistory.
	HistoryConcurrency int

	// Now supplies the date used for submissions without one.
	Now func() time.Time
}

// EvaluationService builds rubric and evaluation views and records new
// evaluations. It holds no state between calls beyond its collaborators.
type EvaluationService struct {
	repo        ports.Repository
	metrics     ports.MetricsCollector
	logger      *slog.Logger
	validator   *validator.Validate
	now         func() time.Time
	concurrency int
}

// NewEvaluationService wires a service to repo. metrics may be nil and a
// nil logger selects slog.Default().
func NewEvaluationService(
	repo ports.Repository,
	metrics ports.MetricsCollector,
	logger *slog.Logger,
	cfg ServiceConfig,
) (*EvaluationService, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: repository is required", domain.ErrInvalidConfiguration)
	}
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.HistoryConcurrency <= 0 {
		cfg.HistoryConcurrency = DefaultHistoryConcurrency
	}

	return &EvaluationService{
		repo:        repo,
		metrics:     metrics,
		logger:      logger.With("component", serviceComponent),
		validator:   v,
		now:         cfg.Now,
		concurrency: cfg.HistoryConcurrency,
	}, nil
}

// BuildRubricView returns the stored rubric with the options of every
// indicator attached.
func (s *EvaluationService) BuildRubricView(ctx context.Context) (domain.RubricTree, error) {
	nodes, err := s.repo.FetchRubricTree(ctx)
	if err != nil {
		return domain.RubricTree{}, err
	}
	return domain.NewRubricTree(nodes), nil
}

// BuildEvaluationDetail returns the nested view of one evaluation. It wraps
// domain.ErrNotFound when the evaluation does not exist or has no scores.
func (s *EvaluationService) BuildEvaluationDetail(ctx context.Context, evaluationID int64) (domain.EvaluationDetail, error) {
	rows, err := s.repo.FetchEvaluationDetail(ctx, evaluationID)
	if err != nil {
		return domain.EvaluationDetail{}, err
	}

	detail, err := domain.AssembleEvaluationDetail(rows)
	if err != nil {
		return domain.EvaluationDetail{}, fmt.Errorf("evaluation %d: %w", evaluationID, err)
	}
	return detail, nil
}

// ListStudentEvaluations returns the evaluations of the student with code,
// newest first. An unknown code yields an empty list.
func (s *EvaluationService) ListStudentEvaluations(ctx context.Context, code string) ([]domain.EvaluationSummary, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		verr := domain.NewValidationError("StudentCode")
		verr.AddError("code is required")
		return nil, verr
	}
	return s.repo.FetchEvaluationsForStudent(ctx, code)
}

// BuildStudentHistory returns the detail of every evaluation of the student
// with code, newest first. Details are read concurrently; the first
// failure cancels the remaining reads.
func (s *EvaluationService) BuildStudentHistory(ctx context.Context, code string) ([]domain.EvaluationDetail, error) {
	summaries, err := s.ListStudentEvaluations(ctx, code)
	if err != nil {
		return nil, err
	}

	details := make([]domain.EvaluationDetail, len(summaries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, sum := range summaries {
		g.Go(func() error {
			d, err := s.BuildEvaluationDetail(gctx, sum.ID)
			if err != nil {
				return err
			}
			details[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

// SubmitEvaluation validates sub and stores it with its student and
// scores in one transaction, returning the new evaluation id. Invalid
// submissions return a *domain.ValidationError and write nothing. A blank
// date defaults to today.
func (s *EvaluationService) SubmitEvaluation(ctx context.Context, sub domain.Submission) (int64, error) {
	start := time.Now()
	sub = s.normalize(sub)

	if err := s.validator.Struct(sub); err != nil {
		return 0, s.reject(toValidationError("Submission", err))
	}

	tree, err := s.BuildRubricView(ctx)
	if err != nil {
		return 0, err
	}
	if err := checkScores(tree, sub.Scores); err != nil {
		return 0, s.reject(err)
	}

	var evaluationID int64
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.Repository) error {
		studentID, err := s.resolveStudent(ctx, tx, sub.Student)
		if err != nil {
			return err
		}

		id, err := tx.InsertEvaluation(ctx, domain.Evaluation{
			StudentID:   studentID,
			Title:       sub.Title,
			Date:        sub.Date,
			Description: sub.Description,
		})
		if err != nil {
			return err
		}

		rows := make([]domain.Score, len(sub.Scores))
		for i, sc := range sub.Scores {
			rows[i] = domain.Score{
				StudentID:    studentID,
				EvaluationID: id,
				IndicatorID:  sc.IndicatorID,
				Value:        sc.Value,
			}
		}
		if err := tx.InsertScores(ctx, rows); err != nil {
			return err
		}

		evaluationID = id
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "submission failed", "student_code", sub.Student.Code, "error", err)
		s.count(ports.MetricSubmissions, "failed")
		return 0, err
	}

	total := sub.Total()
	outOfTen := domain.ScoreOutOfTen(total, tree.TotalMax())
	s.logger.InfoContext(ctx, "evaluation submitted",
		"evaluation_id", evaluationID,
		"student_code", sub.Student.Code,
		"score_total", total,
		"out_of_ten", outOfTen,
	)
	if s.metrics != nil {
		labels := map[string]string{"component": serviceComponent}
		s.metrics.RecordLatency("submit_evaluation", time.Since(start), labels)
		s.metrics.RecordGauge(ports.MetricLastScoreTotal, total, labels)
		s.metrics.RecordHistogram(ports.MetricOutOfTen, outOfTen, labels)
	}
	s.count(ports.MetricSubmissions, "accepted")

	return evaluationID, nil
}

func (s *EvaluationService) normalize(sub domain.Submission) domain.Submission {
	sub.Title = strings.TrimSpace(sub.Title)
	sub.Date = strings.TrimSpace(sub.Date)
	if sub.Date == "" {
		sub.Date = s.now().Format(isoDateLayout)
	}
	sub.Student.FirstName = strings.TrimSpace(sub.Student.FirstName)
	sub.Student.LastName = strings.TrimSpace(sub.Student.LastName)
	sub.Student.Code = strings.TrimSpace(sub.Student.Code)
	sub.Student.Group = strings.TrimSpace(sub.Student.Group)
	return sub
}

// resolveStudent reuses the student with the same code or inserts a new
// one. Names on later submissions do not update the stored student.
func (s *EvaluationService) resolveStudent(ctx context.Context, tx ports.Repository, st domain.Student) (int64, error) {
	existing, found, err := tx.FindStudentByCode(ctx, st.Code)
	if err != nil {
		return 0, err
	}
	if found {
		if existing.FirstName != st.FirstName || existing.LastName != st.LastName {
			s.logger.DebugContext(ctx, "reusing student with different name",
				"student_code", st.Code, "stored_last_name", existing.LastName, "submitted_last_name", st.LastName)
		}
		return existing.ID, nil
	}

	st.ID = 0
	return tx.InsertStudent(ctx, st)
}

func (s *EvaluationService) reject(err error) error {
	s.logger.Warn("submission rejected", "error", err)
	s.count(ports.MetricSubmissions, "rejected")
	return err
}

func (s *EvaluationService) count(metric, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCounter(metric, 1, map[string]string{"component": serviceComponent, "outcome": outcome})
}

// checkScores requires every indicator of tree to be scored exactly once
// with one of its options.
func checkScores(tree domain.RubricTree, scores []domain.SubmittedScore) error {
	verr := domain.NewValidationError("Submission")
	indicators := tree.Indicators()
	if len(indicators) == 0 {
		verr.AddError("the rubric has no indicators")
		return verr
	}

	seen := make(map[int64]struct{}, len(scores))
	for i, sc := range scores {
		ind, ok := indicators[sc.IndicatorID]
		if !ok {
			verr.AddError(fmt.Sprintf("scores[%d]: unknown indicator %d", i, sc.IndicatorID))
			continue
		}
		if _, dup := seen[sc.IndicatorID]; dup {
			verr.AddError(fmt.Sprintf("scores[%d]: indicator %d scored more than once", i, sc.IndicatorID))
			continue
		}
		seen[sc.IndicatorID] = struct{}{}

		if !domain.IsOptionValue(ind.Scale, sc.Value) {
			verr.AddError(fmt.Sprintf("scores[%d]: %s is not an option of %q (%s)",
				i, strconv.FormatFloat(sc.Value, 'f', -1, 64), ind.Name, ind.Scale))
		}
	}

	for _, c := range tree.Criteria {
		for _, ind := range c.Indicators {
			if _, ok := seen[ind.ID]; !ok {
				verr.AddError(fmt.Sprintf("indicator %d %q of %s is not scored", ind.ID, ind.Name, c.Name))
			}
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
