// Package domain defines the rubric model, the score resolver, and the
// evaluation view types shared by every layer of the engine.
// Nothing in this package performs I/O.
package domain

import (
	"fmt"
	"strings"
)

// ScaleKind classifies the value scale an indicator is scored on.
// The classification is stored alongside each indicator so that option
// values never depend on criterion or indicator display names.
type ScaleKind string

const (
	// ScaleStandard scores from 0 to 1 in quarter steps.
	ScaleStandard ScaleKind = "standard"

	// ScaleEssayCoherence scores coherence with the written work from 0 to 2
	// in half steps.
	ScaleEssayCoherence ScaleKind = "essay-coherence"

	// ScaleOralDefense scores the oral defense from 0 to 4 in unit steps.
	ScaleOralDefense ScaleKind = "oral-defense"
)

// String returns the string representation of the scale kind.
func (k ScaleKind) String() string { return string(k) }

// Valid reports whether k is one of the known scale kinds.
func (k ScaleKind) Valid() bool {
	_, ok := scaleTable[k]
	return ok
}

// ParseScaleKind converts a stored or configured value into a ScaleKind.
func ParseScaleKind(s string) (ScaleKind, error) {
	k := ScaleKind(strings.TrimSpace(s))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownScale, s)
	}
	return k, nil
}

// IndicatorDefinition describes one gradable indicator of a criterion.
type IndicatorDefinition struct {
	// Name is the display text of the indicator.
	Name string `yaml:"name" json:"name" validate:"required,max=255"`

	// Scale selects the option values offered for the indicator.
	Scale ScaleKind `yaml:"scale" json:"scale" validate:"required,scalekind"`
}

// CriterionDefinition groups an ordered list of indicators under a
// top-level heading such as "ATTITUDE".
type CriterionDefinition struct {
	Name       string                `yaml:"name" json:"name" validate:"required,max=255"`
	Indicators []IndicatorDefinition `yaml:"indicators" json:"indicators" validate:"required,min=1,dive"`
}

// RubricDefinition is the static catalog loaded into storage by the seeder.
// Criteria and indicators keep the order in which they are declared.
type RubricDefinition struct {
	Criteria []CriterionDefinition `yaml:"criteria" json:"criteria" validate:"required,min=1,dive"`
}

// IndicatorCount returns the number of indicators across all criteria.
func (d RubricDefinition) IndicatorCount() int {
	n := 0
	for _, c := range d.Criteria {
		n += len(c.Indicators)
	}
	return n
}

// Validate checks the structural rules of the definition without relying
// on struct tags, so definitions built in code get the same guarantees as
// those loaded from YAML.
func (d RubricDefinition) Validate() error {
	verr := NewValidationError("RubricDefinition")
	if len(d.Criteria) == 0 {
		verr.AddError("at least one criterion is required")
	}
	seen := make(map[string]struct{}, len(d.Criteria))
	for i, c := range d.Criteria {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			verr.AddError(fmt.Sprintf("criteria[%d]: name is required", i))
		} else if _, dup := seen[name]; dup {
			verr.AddError(fmt.Sprintf("criteria[%d]: duplicate criterion %q", i, name))
		} else {
			seen[name] = struct{}{}
		}
		if len(c.Indicators) == 0 {
			verr.AddError(fmt.Sprintf("criteria[%d]: at least one indicator is required", i))
		}
		for j, ind := range c.Indicators {
			if strings.TrimSpace(ind.Name) == "" {
				verr.AddError(fmt.Sprintf("criteria[%d].indicators[%d]: name is required", i, j))
			}
			if !ind.Scale.Valid() {
				verr.AddError(fmt.Sprintf("criteria[%d].indicators[%d]: unknown scale %q", i, j, ind.Scale))
			}
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// DefaultRubric returns the presentation rubric shipped with the engine:
// attitude, content of the presentation, and oral defense.
func DefaultRubric() RubricDefinition {
	return RubricDefinition{
		Criteria: []CriterionDefinition{
			{
				Name: "ATTITUDE",
				Indicators: []IndicatorDefinition{
					{Name: "Presentation and posture", Scale: ScaleStandard},
					{Name: "Tone of voice and language suited to the topic", Scale: ScaleStandard},
				},
			},
			{
				Name: "CONTENT",
				Indicators: []IndicatorDefinition{
					{Name: "Order and sequence of the presentation", Scale: ScaleStandard},
					{Name: "Visually engaging, favors graphics over text", Scale: ScaleStandard},
					{Name: "States objectives and results clearly", Scale: ScaleStandard},
					{Name: "Coherence with the written work", Scale: ScaleEssayCoherence},
				},
			},
			{
				Name: "ORAL DEFENSE",
				Indicators: []IndicatorDefinition{
					{Name: "Shows command of the topic during the defense", Scale: ScaleOralDefense},
					{Name: "Presents the research results precisely", Scale: ScaleOralDefense},
					{Name: "Answers the panel's questions correctly and confidently", Scale: ScaleOralDefense},
					{Name: "Respects the allotted presentation time", Scale: ScaleStandard},
				},
			},
		},
	}
}
