package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

const seederComponent = "rubric_seeder"

// SeedResult reports the outcome of RubricSeeder.Seed. The counts are
// zero when nothing was written.
type SeedResult struct {
	// Seeded is false when criteria already existed.
	Seeded     bool    `json:"seeded"`
	Criteria   int     `json:"criteria"`
	Indicators int     `json:"indicators"`
	TotalMax   float64 `json:"total_max"`
}

// RubricSeeder loads a rubric definition into an empty store.
type RubricSeeder struct {
	repo    ports.Repository
	metrics ports.MetricsCollector
	logger  *slog.Logger
}

// NewRubricSeeder creates a seeder. metrics may be nil and a nil logger
// selects slog.Default().
func NewRubricSeeder(repo ports.Repository, metrics ports.MetricsCollector, logger *slog.Logger) *RubricSeeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &RubricSeeder{
		repo:    repo,
		metrics: metrics,
		logger:  logger.With("component", seederComponent),
	}
}

// Seed validates def and writes it when the store holds no criteria yet.
// Running it again is a no-op; the existing rubric is never modified.
func (s *RubricSeeder) Seed(ctx context.Context, def domain.RubricDefinition) (SeedResult, error) {
	if err := def.Validate(); err != nil {
		return SeedResult{}, err
	}

	start := time.Now()
	seeded, err := s.repo.SeedRubric(ctx, def)
	if err != nil {
		s.logger.ErrorContext(ctx, "seeding rubric failed", "error", err)
		return SeedResult{}, fmt.Errorf("seed rubric: %w", err)
	}

	if !seeded {
		s.logger.DebugContext(ctx, "rubric already present, skipping seed")
		return SeedResult{}, nil
	}

	result := SeedResult{
		Seeded:     true,
		Criteria:   len(def.Criteria),
		Indicators: def.IndicatorCount(),
		TotalMax:   domain.TotalMax(def),
	}

	s.logger.InfoContext(ctx, "rubric seeded",
		"criteria", result.Criteria,
		"indicators", result.Indicators,
		"total_max", result.TotalMax,
	)
	if s.metrics != nil {
		labels := map[string]string{"component": seederComponent}
		s.metrics.RecordLatency("seed_rubric", time.Since(start), labels)
		s.metrics.RecordGauge(ports.MetricSeededIndicators, float64(result.Indicators), labels)
	}
	return result, nil
}
