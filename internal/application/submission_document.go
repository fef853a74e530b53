package application

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-rubric/internal/domain"
)

// SubmissionDocument is the YAML form of a submission written by hand.
// Indicators may be referenced by id or by name and scores given either
// as a numeric value or as a label:
//
//	title: Final thesis presentation
//	date: 2024-03-01
//	student: {first_name: Ana, last_name: Ruiz, code: S-001, group: A}
//	scores:
//	  - indicator_id: 1
//	    value: 0.75
//	  - criterion: CONTENT
//	    indicator: Coherence with the written work
//	    label: Excellent
type SubmissionDocument struct {
	Title       string          `yaml:"title"`
	Date        string          `yaml:"date"`
	Description string          `yaml:"description,omitempty"`
	Student     domain.Student  `yaml:"student"`
	Scores      []DocumentScore `yaml:"scores"`
}

// DocumentScore is one score line of a SubmissionDocument.
type DocumentScore struct {
	IndicatorID int64    `yaml:"indicator_id,omitempty"`
	Criterion   string   `yaml:"criterion,omitempty"`
	Indicator   string   `yaml:"indicator,omitempty"`
	Value       *float64 `yaml:"value,omitempty"`
	Label       string   `yaml:"label,omitempty"`
}

// ReadSubmissionDocument parses the YAML document at path.
func ReadSubmissionDocument(path string) (SubmissionDocument, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return SubmissionDocument{}, fmt.Errorf("failed to open submission: %w", err)
	}
	defer f.Close()

	return ParseSubmissionDocument(f)
}

// ParseSubmissionDocument decodes a submission document. Unknown keys are
// rejected.
func ParseSubmissionDocument(r io.Reader) (SubmissionDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return SubmissionDocument{}, fmt.Errorf("failed to read submission: %w", err)
	}

	var doc SubmissionDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return SubmissionDocument{}, fmt.Errorf("YAML decode failed: %w", err)
	}
	return doc, nil
}

// Resolve turns the document into a Submission against tree. Every score
// line must name its indicator by id or by name and carry exactly one of
// value or label. All problems are reported together.
func (d SubmissionDocument) Resolve(tree domain.RubricTree, matcher *IndicatorMatcher) (domain.Submission, error) {
	byID := tree.Indicators()
	verr := domain.NewValidationError("SubmissionDocument")

	sub := domain.Submission{
		Title:       strings.TrimSpace(d.Title),
		Date:        strings.TrimSpace(d.Date),
		Description: d.Description,
		Student:     d.Student,
		Scores:      make([]domain.SubmittedScore, 0, len(d.Scores)),
	}

	for i, line := range d.Scores {
		ind, err := d.resolveIndicator(line, byID, matcher)
		if err != nil {
			verr.AddError(fmt.Sprintf("scores[%d]: %v", i, err))
			continue
		}

		value, err := resolveValue(line, ind.Scale)
		if err != nil {
			verr.AddError(fmt.Sprintf("scores[%d]: %v", i, err))
			continue
		}

		sub.Scores = append(sub.Scores, domain.SubmittedScore{IndicatorID: ind.ID, Value: value})
	}

	if verr.HasErrors() {
		return domain.Submission{}, verr
	}
	return sub, nil
}

func (d SubmissionDocument) resolveIndicator(
	line DocumentScore, byID map[int64]domain.IndicatorView, matcher *IndicatorMatcher,
) (domain.IndicatorView, error) {
	if line.IndicatorID != 0 {
		ind, ok := byID[line.IndicatorID]
		if !ok {
			return domain.IndicatorView{}, fmt.Errorf("unknown indicator id %d", line.IndicatorID)
		}
		if line.Indicator != "" && foldName(line.Indicator) != foldName(ind.Name) {
			return domain.IndicatorView{}, fmt.Errorf("indicator id %d is %q, not %q", ind.ID, ind.Name, line.Indicator)
		}
		return ind, nil
	}

	if line.Indicator == "" {
		return domain.IndicatorView{}, fmt.Errorf("indicator_id or indicator is required")
	}
	if matcher == nil {
		return domain.IndicatorView{}, fmt.Errorf("indicator %q: names cannot be resolved without a matcher", line.Indicator)
	}
	return matcher.Match(line.Criterion, line.Indicator)
}

func resolveValue(line DocumentScore, scale domain.ScaleKind) (float64, error) {
	switch {
	case line.Value != nil && line.Label != "":
		return 0, fmt.Errorf("value and label are mutually exclusive")
	case line.Value != nil:
		return *line.Value, nil
	case line.Label != "":
		label, err := domain.ParseLabel(line.Label)
		if err != nil {
			return 0, err
		}
		v, ok := domain.ValueFor(scale, label)
		if !ok {
			return 0, fmt.Errorf("%w: %s", domain.ErrUnknownScale, scale)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("value or label is required")
	}
}
