package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.Repository = (*SQLStore)(nil)

// dbtx is the subset of *sql.DB and *sql.Tx the store issues queries on.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// SQLStore is the database/sql implementation of ports.Repository.
// A store returned by Open or NewSQLStore owns the *sql.DB; the stores
// handed to WithinTx callbacks are bound to a single *sql.Tx.
type SQLStore struct {
	db     *sql.DB
	q      dbtx
	tx     *sql.Tx
	driver Driver
}

// NewSQLStore wraps an open database. The caller keeps responsibility for
// driver-specific setup such as SQLite pragmas.
func NewSQLStore(db *sql.DB, driver Driver) *SQLStore {
	return &SQLStore{db: db, q: db, driver: driver}
}

// DB exposes the underlying handle for diagnostics.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Driver reports the SQL dialect of the store.
func (s *SQLStore) Driver() Driver { return s.driver }

// rebind rewrites ? placeholders to $N for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InitSchema implements ports.Repository.
func (s *SQLStore) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaFor(s.driver) {
		if _, err := s.q.ExecContext(ctx, stmt.sql); err != nil {
			return domain.NewSchemaError(stmt.table, err)
		}
	}
	return nil
}

// CountCriteria implements ports.Repository.
func (s *SQLStore) CountCriteria(ctx context.Context) (int, error) {
	return s.count(ctx, "count_criteria", `SELECT COUNT(*) FROM criteria`)
}

// CountEvaluations implements ports.Repository.
func (s *SQLStore) CountEvaluations(ctx context.Context) (int, error) {
	return s.count(ctx, "count_evaluations", `SELECT COUNT(*) FROM evaluations`)
}

func (s *SQLStore) count(ctx context.Context, op, query string) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, domain.NewStorageError(op, err)
	}
	return n, nil
}

// SeedRubric implements ports.Repository. The criteria count is checked
// inside the seeding transaction.
func (s *SQLStore) SeedRubric(ctx context.Context, def domain.RubricDefinition) (bool, error) {
	seeded := false
	err := s.WithinTx(ctx, func(ctx context.Context, tx ports.Repository) error {
		store := tx.(*SQLStore)

		n, err := store.CountCriteria(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		for _, c := range def.Criteria {
			criterionID, err := store.insertReturningID(ctx, "insert_criterion",
				`INSERT INTO criteria (name) VALUES (?) RETURNING id`, c.Name)
			if err != nil {
				return err
			}
			for _, ind := range c.Indicators {
				if _, err := store.insertReturningID(ctx, "insert_indicator",
					`INSERT INTO indicators (criterion_id, name, scale) VALUES (?, ?, ?) RETURNING id`,
					criterionID, ind.Name, string(ind.Scale)); err != nil {
					return err
				}
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}

func (s *SQLStore) insertReturningID(ctx context.Context, op, query string, args ...any) (int64, error) {
	var id int64
	if err := s.q.QueryRowContext(ctx, s.rebind(query), args...).Scan(&id); err != nil {
		return 0, domain.NewStorageError(op, err)
	}
	return id, nil
}

// FindStudentByCode implements ports.Repository.
func (s *SQLStore) FindStudentByCode(ctx context.Context, code string) (domain.Student, bool, error) {
	var st domain.Student
	err := s.q.QueryRowContext(ctx, s.rebind(
		`SELECT id, first_name, last_name, code, group_name FROM students WHERE code = ?`), code,
	).Scan(&st.ID, &st.FirstName, &st.LastName, &st.Code, &st.Group)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Student{}, false, nil
	}
	if err != nil {
		return domain.Student{}, false, domain.NewStorageError("find_student_by_code", err)
	}
	return st, true, nil
}

// InsertStudent implements ports.Repository.
func (s *SQLStore) InsertStudent(ctx context.Context, st domain.Student) (int64, error) {
	return s.insertReturningID(ctx, "insert_student",
		`INSERT INTO students (first_name, last_name, code, group_name) VALUES (?, ?, ?, ?) RETURNING id`,
		st.FirstName, st.LastName, st.Code, st.Group)
}

// InsertEvaluation implements ports.Repository. A zero StudentID is
// stored as NULL.
func (s *SQLStore) InsertEvaluation(ctx context.Context, e domain.Evaluation) (int64, error) {
	var studentID sql.NullInt64
	if e.StudentID > 0 {
		studentID = sql.NullInt64{Int64: e.StudentID, Valid: true}
	}
	return s.insertReturningID(ctx, "insert_evaluation",
		`INSERT INTO evaluations (student_id, title, eval_date, description) VALUES (?, ?, ?, ?) RETURNING id`,
		studentID, e.Title, e.Date, e.Description)
}

// InsertScores implements ports.Repository.
func (s *SQLStore) InsertScores(ctx context.Context, rows []domain.Score) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := s.q.PrepareContext(ctx, s.rebind(
		`INSERT INTO scores (student_id, evaluation_id, indicator_id, value) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return domain.NewStorageError("insert_scores", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.StudentID, r.EvaluationID, r.IndicatorID, r.Value); err != nil {
			return domain.NewStorageError("insert_scores", fmt.Errorf("row %d (indicator %d): %w", i, r.IndicatorID, err))
		}
	}
	return nil
}

// FetchRubricTree implements ports.Repository. Criteria are read fully
// before their indicators are queried so only one result set is open at
// a time.
func (s *SQLStore) FetchRubricTree(ctx context.Context) ([]domain.CriterionNode, error) {
	const op = "fetch_rubric_tree"

	rows, err := s.q.QueryContext(ctx, `SELECT id, name FROM criteria ORDER BY id`)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	var nodes []domain.CriterionNode
	for rows.Next() {
		var c domain.Criterion
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			rows.Close()
			return nil, domain.NewStorageError(op, err)
		}
		nodes = append(nodes, domain.CriterionNode{Criterion: c})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, domain.NewStorageError(op, err)
	}
	rows.Close()

	for i := range nodes {
		indicators, err := s.indicatorsFor(ctx, nodes[i].Criterion.ID)
		if err != nil {
			return nil, domain.NewStorageError(op, err)
		}
		nodes[i].Indicators = indicators
	}
	return nodes, nil
}

func (s *SQLStore) indicatorsFor(ctx context.Context, criterionID int64) ([]domain.Indicator, error) {
	rows, err := s.q.QueryContext(ctx, s.rebind(
		`SELECT id, criterion_id, name, scale FROM indicators WHERE criterion_id = ? ORDER BY id`), criterionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Indicator
	for rows.Next() {
		var (
			ind   domain.Indicator
			scale string
		)
		if err := rows.Scan(&ind.ID, &ind.CriterionID, &ind.Name, &scale); err != nil {
			return nil, err
		}
		if ind.Scale, err = domain.ParseScaleKind(scale); err != nil {
			return nil, fmt.Errorf("indicator %d: %w", ind.ID, err)
		}
		out = append(out, ind)
	}
	return out, rows.Err()
}

// FetchEvaluationsForStudent implements ports.Repository. Evaluations
// sharing a date are ordered by descending id.
func (s *SQLStore) FetchEvaluationsForStudent(ctx context.Context, code string) ([]domain.EvaluationSummary, error) {
	const op = "fetch_evaluations_for_student"

	rows, err := s.q.QueryContext(ctx, s.rebind(`
		SELECT e.id, e.title, e.eval_date, e.description
		FROM evaluations e
		WHERE EXISTS (
			SELECT 1 FROM scores n
			INNER JOIN students st ON st.id = n.student_id
			WHERE n.evaluation_id = e.id AND st.code = ?
		)
		ORDER BY e.eval_date DESC, e.id DESC`), code)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	defer rows.Close()

	out := make([]domain.EvaluationSummary, 0)
	for rows.Next() {
		var e domain.EvaluationSummary
		if err := rows.Scan(&e.ID, &e.Title, &e.Date, &e.Description); err != nil {
			return nil, domain.NewStorageError(op, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	return out, nil
}

// FetchEvaluationDetail implements ports.Repository.
func (s *SQLStore) FetchEvaluationDetail(ctx context.Context, evaluationID int64) ([]domain.DetailRow, error) {
	const op = "fetch_evaluation_detail"

	rows, err := s.q.QueryContext(ctx, s.rebind(`
		SELECT e.id, e.title, e.eval_date, e.description,
		       st.id, st.first_name, st.last_name, st.code, st.group_name,
		       c.id, c.name, i.id, i.name, i.scale, n.value
		FROM scores n
		INNER JOIN evaluations e ON e.id = n.evaluation_id
		INNER JOIN students st ON st.id = n.student_id
		INNER JOIN indicators i ON i.id = n.indicator_id
		INNER JOIN criteria c ON c.id = i.criterion_id
		WHERE n.evaluation_id = ?
		ORDER BY n.id`), evaluationID)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	defer rows.Close()

	var out []domain.DetailRow
	for rows.Next() {
		var (
			r     domain.DetailRow
			scale string
		)
		if err := rows.Scan(
			&r.EvaluationID, &r.Title, &r.Date, &r.Description,
			&r.StudentID, &r.FirstName, &r.LastName, &r.Code, &r.Group,
			&r.CriterionID, &r.CriterionName, &r.IndicatorID, &r.IndicatorName, &scale, &r.Value,
		); err != nil {
			return nil, domain.NewStorageError(op, err)
		}
		r.Scale = domain.ScaleKind(scale)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("evaluation %d: %w", evaluationID, domain.ErrNotFound)
	}
	return out, nil
}

// WithinTx implements ports.Repository.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Repository) error) (err error) {
	if s.tx != nil {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewStorageError("begin_tx", err)
	}
	bound := &SQLStore{db: s.db, q: tx, tx: tx, driver: s.driver}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, domain.NewStorageError("rollback", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.NewStorageError("commit", err)
	}
	return nil
}

// Close implements ports.Repository. Closing a transaction-bound store is
// a no-op; the owning store closes the database.
func (s *SQLStore) Close() error {
	if s.tx != nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
