// Package testutils provides generators of synthetic rubric data for tests
// and local demonstrations. The data is random but reproducible from a
// seed; it is not meant to resemble real grading.
package testutils

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-rubric/internal/application"
	"github.com/ahrav/go-rubric/internal/domain"
)

// SampleOptions controls GenerateSampleSubmissions.
type SampleOptions struct {
	// Size is the number of submissions to generate.
	Size int

	// Students is the number of distinct students the submissions are
	// spread over. Values below 1 are treated as 1.
	Students int

	// Seed makes generation reproducible.
	Seed int64

	// Start is the earliest evaluation date. Dates fall within the
	// following year.
	Start time.Time
}

// labelWeights skews generated labels toward the upper half of the scale.
var labelWeights = [len(domain.Labels)]int{1, 2, 4, 5, 3}

// GenerateSampleSubmissions creates submission documents that score every
// indicator of def by criterion and indicator name with a label. The same
// options always produce the same documents.
func GenerateSampleSubmissions(def domain.RubricDefinition, opts SampleOptions) []application.SubmissionDocument {
	rng := rand.New(rand.NewSource(opts.Seed))
	if opts.Students < 1 {
		opts.Students = 1
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	}

	students := make([]domain.Student, opts.Students)
	for i := range students {
		students[i] = sampleStudent(rng, i)
	}

	docs := make([]application.SubmissionDocument, 0, max(opts.Size, 0))
	for i := range opts.Size {
		doc := application.SubmissionDocument{
			Title:   presentationTopics[rng.Intn(len(presentationTopics))],
			Date:    opts.Start.AddDate(0, 0, rng.Intn(365)).Format("2006-01-02"),
			Student: students[i%len(students)],
		}
		if rng.Intn(3) == 0 {
			doc.Description = fmt.Sprintf("Generated sample %d", i+1)
		}
		for _, c := range def.Criteria {
			for _, ind := range c.Indicators {
				doc.Scores = append(doc.Scores, application.DocumentScore{
					Criterion: c.Name,
					Indicator: ind.Name,
					Label:     string(pickLabel(rng)),
				})
			}
		}
		docs = append(docs, doc)
	}
	return docs
}

func sampleStudent(rng *rand.Rand, i int) domain.Student {
	return domain.Student{
		FirstName: firstNames[rng.Intn(len(firstNames))],
		LastName:  lastNames[rng.Intn(len(lastNames))],
		Code:      fmt.Sprintf("S-%03d", i+1),
		Group:     string(rune('A' + i%4)),
	}
}

func pickLabel(rng *rand.Rand) domain.Label {
	total := 0
	for _, w := range labelWeights {
		total += w
	}
	n := rng.Intn(total)
	for i, w := range labelWeights {
		if n < w {
			return domain.Labels[i]
		}
		n -= w
	}
	return domain.LabelExcellent
}

// SampleStatistics summarizes a batch of generated submissions.
type SampleStatistics struct {
	Submissions int                  `json:"submissions"`
	Students    int                  `json:"students"`
	LabelCount  map[domain.Label]int `json:"label_count"`
	MeanTotal   float64              `json:"mean_total"`
	TotalMax    float64              `json:"total_max"`
}

// ComputeSampleStatistics counts labels and averages the totals the
// documents would score under def. Lines naming unknown indicators are
// ignored.
func ComputeSampleStatistics(def domain.RubricDefinition, docs []application.SubmissionDocument) SampleStatistics {
	scales := make(map[[2]string]domain.ScaleKind, def.IndicatorCount())
	for _, c := range def.Criteria {
		for _, ind := range c.Indicators {
			scales[[2]string{c.Name, ind.Name}] = ind.Scale
		}
	}

	stats := SampleStatistics{
		Submissions: len(docs),
		LabelCount:  make(map[domain.Label]int),
		TotalMax:    domain.TotalMax(def),
	}
	codes := make(map[string]struct{})
	sum := 0.0
	for _, doc := range docs {
		codes[doc.Student.Code] = struct{}{}
		for _, line := range doc.Scores {
			scale, ok := scales[[2]string{line.Criterion, line.Indicator}]
			if !ok {
				continue
			}
			label, err := domain.ParseLabel(line.Label)
			if err != nil {
				continue
			}
			stats.LabelCount[label]++
			v, _ := domain.ValueFor(scale, label)
			sum += v
		}
	}
	stats.Students = len(codes)
	if len(docs) > 0 {
		stats.MeanTotal = sum / float64(len(docs))
	}
	return stats
}

// SaveSubmissionDocuments writes each document to dir as
// submission-NNNN.yaml and returns the paths in order.
func SaveSubmissionDocuments(docs []application.SubmissionDocument, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	paths := make([]string, 0, len(docs))
	for i, doc := range docs {
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal submission %d: %w", i+1, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("submission-%04d.yaml", i+1))
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write submission file: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
