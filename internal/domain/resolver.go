package domain

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// Label is the qualitative judgement a grader picks for an indicator.
type Label string

const (
	LabelDeficient Label = "Deficient"
	LabelRegular   Label = "Regular"
	LabelGood      Label = "Good"
	LabelVeryGood  Label = "VeryGood"
	LabelExcellent Label = "Excellent"
)

// Labels lists every label from lowest to highest.
var Labels = [...]Label{LabelDeficient, LabelRegular, LabelGood, LabelVeryGood, LabelExcellent}

// String returns the string representation of the label.
func (l Label) String() string { return string(l) }

// Option pairs a label with the numeric value it is worth on one scale.
type Option struct {
	Label Label   `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// scaleTable holds the option values per scale kind in Labels order.
var scaleTable = map[ScaleKind][len(Labels)]float64{
	ScaleStandard:       {0, 0.25, 0.5, 0.75, 1.0},
	ScaleEssayCoherence: {0, 0.5, 1.0, 1.5, 2.0},
	ScaleOralDefense:    {0, 1.0, 2.0, 3.0, 4.0},
}

// valueEpsilon absorbs float noise when matching stored values to options.
const valueEpsilon = 1e-9

// OptionsFor returns the five options of a scale ordered Deficient to
// Excellent. An unknown scale yields nil.
func OptionsFor(scale ScaleKind) []Option {
	values, ok := scaleTable[scale]
	if !ok {
		return nil
	}
	opts := make([]Option, len(Labels))
	for i, l := range Labels {
		opts[i] = Option{Label: l, Value: values[i]}
	}
	return opts
}

// MaxValue returns the Excellent value of a scale, or 0 for an unknown scale.
func MaxValue(scale ScaleKind) float64 {
	values, ok := scaleTable[scale]
	if !ok {
		return 0
	}
	return values[len(values)-1]
}

// TotalMax returns the highest total attainable under a rubric definition.
func TotalMax(def RubricDefinition) float64 {
	total := 0.0
	for _, c := range def.Criteria {
		for _, ind := range c.Indicators {
			total += MaxValue(ind.Scale)
		}
	}
	return total
}

// ValueFor returns the value of label on scale.
func ValueFor(scale ScaleKind, label Label) (float64, bool) {
	values, ok := scaleTable[scale]
	if !ok {
		return 0, false
	}
	for i, l := range Labels {
		if l == label {
			return values[i], true
		}
	}
	return 0, false
}

// LabelFor maps a stored value back to its label on scale. It reports false
// when the value is not one of the scale's options.
func LabelFor(scale ScaleKind, value float64) (Label, bool) {
	values, ok := scaleTable[scale]
	if !ok {
		return "", false
	}
	for i, v := range values {
		if math.Abs(v-value) < valueEpsilon {
			return Labels[i], true
		}
	}
	return "", false
}

// IsOptionValue reports whether value is selectable on scale.
func IsOptionValue(scale ScaleKind, value float64) bool {
	_, ok := LabelFor(scale, value)
	return ok
}

// ParseLabel resolves a label name case-insensitively. Spaces, dashes and
// underscores are ignored so "very good" and "Very-Good" both match.
func ParseLabel(s string) (Label, error) {
	norm := normalizeLabel(s)
	for _, l := range Labels {
		if normalizeLabel(string(l)) == norm {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLabel, s)
}

func normalizeLabel(s string) string {
	s = cases.Fold().String(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

// ScoreOutOfTen rescales score to a 0-10 grade. A zero maximum yields 0.
func ScoreOutOfTen(score, maxScore float64) float64 {
	if maxScore == 0 {
		return 0
	}
	return score * 10 / maxScore
}

// Percentage returns score as a percentage of max. A zero maximum yields 0.
func Percentage(score, maxScore float64) float64 {
	if maxScore == 0 {
		return 0
	}
	return score / maxScore * 100
}
