// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-rubric/internal/domain"
)

// Repository is the storage boundary of the engine. Implementations must
// be safe to share within a process; the backing store serializes
// transactions.
//
// Failures other than a missing row or a schema failure are returned as
// *domain.StorageError. Missing rows wrap domain.ErrNotFound.
type Repository interface {
	// InitSchema creates the criteria, indicators, students, evaluations and
	// scores tables if they do not exist. A failing statement returns a
	// *domain.SchemaError; tables created before it are not dropped.
	InitSchema(ctx context.Context) error

	// CountCriteria returns the number of stored criteria.
	CountCriteria(ctx context.Context) (int, error)

	// SeedRubric loads def when no criterion exists yet and reports whether
	// any row was written. All inserts run in one transaction.
	SeedRubric(ctx context.Context, def domain.RubricDefinition) (bool, error)

	// FindStudentByCode looks a student up by natural key.
	// The boolean is false when no student has that code.
	FindStudentByCode(ctx context.Context, code string) (domain.Student, bool, error)

	// InsertStudent stores a new student and returns its id.
	InsertStudent(ctx context.Context, s domain.Student) (int64, error)

	// InsertEvaluation stores a new evaluation and returns its id.
	InsertEvaluation(ctx context.Context, e domain.Evaluation) (int64, error)

	// InsertScores stores every row or returns the first failure. Rows
	// written before the failure persist unless the call runs in WithinTx.
	InsertScores(ctx context.Context, rows []domain.Score) error

	// FetchRubricTree returns criteria in id order, each with its
	// indicators in id order.
	FetchRubricTree(ctx context.Context) ([]domain.CriterionNode, error)

	// FetchEvaluationsForStudent returns the evaluations holding at least
	// one score of the student with code, newest date first.
	FetchEvaluationsForStudent(ctx context.Context, code string) ([]domain.EvaluationSummary, error)

	// FetchEvaluationDetail returns the flat detail rows of one evaluation
	// in score insertion order. It wraps domain.ErrNotFound when the
	// evaluation has no scores or does not exist.
	FetchEvaluationDetail(ctx context.Context, evaluationID int64) ([]domain.DetailRow, error)

	// CountEvaluations returns the number of stored evaluations.
	CountEvaluations(ctx context.Context) (int, error)

	// WithinTx runs fn against a repository bound to one transaction.
	// The transaction commits only when fn returns nil; otherwise it rolls
	// back and fn's error is returned. Calling WithinTx on a repository that
	// is already transaction-bound reuses the outer transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error

	// Close releases the backing store handle.
	Close() error
}
