package application

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rubric/infrastructure/storage"
	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

// discardLogger keeps test output free of service logs.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fixedNow is the clock used by services under test.
func fixedNow() time.Time { return time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC) }

// newSQLiteRepo opens an empty SQLite store with the schema in place.
func newSQLiteRepo(t *testing.T) *storage.SQLStore {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + filepath.Join(t.TempDir(), "rubric.db") + "?mode=rwc"
	store, err := storage.Open(ctx, storage.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.InitSchema(ctx))
	return store
}

// newTestService returns a service over repo with a fixed clock and a
// recording metrics collector.
func newTestService(t *testing.T, repo ports.Repository) (*EvaluationService, *fakeMetrics) {
	t.Helper()
	metrics := newFakeMetrics()
	svc, err := NewEvaluationService(repo, metrics, discardLogger, ServiceConfig{Now: fixedNow})
	require.NoError(t, err)
	return svc, metrics
}

// seededService seeds the default rubric into a fresh SQLite store and
// returns a service over it together with the stored rubric view.
func seededService(t *testing.T) (*EvaluationService, *storage.SQLStore, domain.RubricTree, *fakeMetrics) {
	t.Helper()
	ctx := context.Background()

	repo := newSQLiteRepo(t)
	_, err := NewRubricSeeder(repo, nil, discardLogger).Seed(ctx, domain.DefaultRubric())
	require.NoError(t, err)

	svc, metrics := newTestService(t, repo)
	tree, err := svc.BuildRubricView(ctx)
	require.NoError(t, err)
	return svc, repo, tree, metrics
}

// submissionAt scores every indicator of tree with label.
func submissionAt(tree domain.RubricTree, student domain.Student, date string, label domain.Label) domain.Submission {
	sub := domain.Submission{
		Title:   "Final presentation",
		Date:    date,
		Student: student,
	}
	for _, c := range tree.Criteria {
		for _, ind := range c.Indicators {
			v, _ := domain.ValueFor(ind.Scale, label)
			sub.Scores = append(sub.Scores, domain.SubmittedScore{IndicatorID: ind.ID, Value: v})
		}
	}
	return sub
}

func optionValues(opts []domain.Option) []float64 {
	out := make([]float64, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}

var anaRuiz = domain.Student{FirstName: "Ana", LastName: "Ruiz", Code: "S1", Group: "A"}

// fakeMetrics records counters and gauges keyed by metric and outcome.
type fakeMetrics struct {
	mu       sync.Mutex
	counters map[string]float64
	gauges   map[string]float64
	observed map[string][]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		counters: make(map[string]float64),
		gauges:   make(map[string]float64),
		observed: make(map[string][]float64),
	}
}

func (m *fakeMetrics) RecordLatency(string, time.Duration, map[string]string) {}

func (m *fakeMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if outcome := labels["outcome"]; outcome != "" {
		metric += ":" + outcome
	}
	m.counters[metric] += value
}

func (m *fakeMetrics) RecordGauge(metric string, value float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[metric] = value
}

func (m *fakeMetrics) RecordHistogram(metric string, value float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observed[metric] = append(m.observed[metric], value)
}

func (m *fakeMetrics) counter(key string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

// faultRepo injects failures into selected repository calls, including
// calls made on the transaction-bound repository.
type faultRepo struct {
	ports.Repository
	insertScoresErr error
	detailErr       error
	detailCalls     *sync.Map
}

func (f *faultRepo) InsertScores(ctx context.Context, rows []domain.Score) error {
	if f.insertScoresErr != nil {
		return domain.NewStorageError("insert_scores", f.insertScoresErr)
	}
	return f.Repository.InsertScores(ctx, rows)
}

func (f *faultRepo) FetchEvaluationDetail(ctx context.Context, id int64) ([]domain.DetailRow, error) {
	if f.detailCalls != nil {
		f.detailCalls.Store(id, true)
	}
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.Repository.FetchEvaluationDetail(ctx, id)
}

func (f *faultRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Repository) error) error {
	return f.Repository.WithinTx(ctx, func(ctx context.Context, tx ports.Repository) error {
		return fn(ctx, &faultRepo{
			Repository:      tx,
			insertScoresErr: f.insertScoresErr,
			detailErr:       f.detailErr,
			detailCalls:     f.detailCalls,
		})
	})
}
