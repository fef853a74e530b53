package domain

// Criterion is a persisted top-level rubric heading.
type Criterion struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Indicator is a persisted gradable item. It belongs to exactly one
// Criterion and carries the scale its options are derived from.
type Indicator struct {
	ID          int64     `json:"id"`
	CriterionID int64     `json:"criterion_id"`
	Name        string    `json:"name"`
	Scale       ScaleKind `json:"scale"`
}

// Options returns the selectable options of the indicator.
func (i Indicator) Options() []Option { return OptionsFor(i.Scale) }

// MaxValue returns the highest value the indicator can contribute.
func (i Indicator) MaxValue() float64 { return MaxValue(i.Scale) }

// CriterionNode is a criterion with its indicators as stored, in id order.
type CriterionNode struct {
	Criterion  Criterion   `json:"criterion"`
	Indicators []Indicator `json:"indicators"`
}

// Student is identified by Code; names and group are informative only.
type Student struct {
	ID        int64  `json:"id" yaml:"-"`
	FirstName string `json:"first_name" yaml:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" yaml:"last_name" validate:"required,max=255"`
	Code      string `json:"code" yaml:"code" validate:"required,max=64"`
	Group     string `json:"group" yaml:"group" validate:"max=64"`
}

// Evaluation is one graded presentation. Date is an ISO calendar date
// (YYYY-MM-DD) so that lexical order matches chronological order.
type Evaluation struct {
	ID          int64  `json:"id"`
	StudentID   int64  `json:"student_id,omitempty"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// Score is the value awarded to one indicator in one evaluation.
type Score struct {
	StudentID    int64   `json:"student_id"`
	EvaluationID int64   `json:"evaluation_id"`
	IndicatorID  int64   `json:"indicator_id"`
	Value        float64 `json:"value"`
}

// RubricTree is the rubric as bound by a submission form: every indicator
// comes with its five options.
type RubricTree struct {
	Criteria []CriterionView `json:"criteria"`
}

// CriterionView is one criterion of a RubricTree.
type CriterionView struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Indicators []IndicatorView `json:"indicators"`
}

// IndicatorView is one indicator of a RubricTree.
type IndicatorView struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Scale   ScaleKind `json:"scale"`
	Options []Option  `json:"options"`
}

// IndicatorCount returns the number of indicators in the tree.
func (t RubricTree) IndicatorCount() int {
	n := 0
	for _, c := range t.Criteria {
		n += len(c.Indicators)
	}
	return n
}

// TotalMax returns the highest total attainable with this tree.
func (t RubricTree) TotalMax() float64 {
	total := 0.0
	for _, c := range t.Criteria {
		for _, ind := range c.Indicators {
			total += MaxValue(ind.Scale)
		}
	}
	return total
}

// Indicators indexes the tree's indicators by id.
func (t RubricTree) Indicators() map[int64]IndicatorView {
	out := make(map[int64]IndicatorView, t.IndicatorCount())
	for _, c := range t.Criteria {
		for _, ind := range c.Indicators {
			out[ind.ID] = ind
		}
	}
	return out
}

// NewRubricTree attaches options to stored criteria and indicators.
func NewRubricTree(nodes []CriterionNode) RubricTree {
	tree := RubricTree{Criteria: make([]CriterionView, 0, len(nodes))}
	for _, n := range nodes {
		cv := CriterionView{
			ID:         n.Criterion.ID,
			Name:       n.Criterion.Name,
			Indicators: make([]IndicatorView, 0, len(n.Indicators)),
		}
		for _, ind := range n.Indicators {
			cv.Indicators = append(cv.Indicators, IndicatorView{
				ID:      ind.ID,
				Name:    ind.Name,
				Scale:   ind.Scale,
				Options: ind.Options(),
			})
		}
		tree.Criteria = append(tree.Criteria, cv)
	}
	return tree
}

// EvaluationSummary is a history entry for one evaluation.
type EvaluationSummary struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// StudentInfo is the student block of an EvaluationDetail.
type StudentInfo struct {
	FirstName string `json:"name"`
	LastName  string `json:"last_name"`
	Code      string `json:"code"`
	Group     string `json:"group"`
}

// DetailIndicator is one scored indicator inside a DetailCriterion.
type DetailIndicator struct {
	ID    int64     `json:"id"`
	Name  string    `json:"name"`
	Scale ScaleKind `json:"scale"`
	Value float64   `json:"value"`
	// Label is empty when the stored value matches no option of the scale.
	Label Label `json:"label,omitempty"`
}

// DetailCriterion groups the scored indicators of one criterion.
type DetailCriterion struct {
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	Indicators []DetailIndicator `json:"indicators"`
}

// Subtotal sums the values of the criterion's scored indicators.
func (c DetailCriterion) Subtotal() float64 {
	total := 0.0
	for _, ind := range c.Indicators {
		total += ind.Value
	}
	return total
}

// EvaluationDetail is the nested read model of one evaluation, rebuilt
// from stored score rows on every read.
type EvaluationDetail struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Date        string            `json:"date"`
	Description string            `json:"description"`
	Student     StudentInfo       `json:"student"`
	Criteria    []DetailCriterion `json:"criteria"`

	// ScoreTotal is the sum of every score value of the evaluation.
	ScoreTotal float64 `json:"score_total"`

	// MaxScore is the highest total the scored indicators allow.
	MaxScore float64 `json:"max_score"`

	// OutOfTen and Percentage normalize ScoreTotal against MaxScore.
	OutOfTen   float64 `json:"out_of_ten"`
	Percentage float64 `json:"percentage"`
}

// DetailRow is one flat row of the evaluation detail join: the
// evaluation and student columns repeat on every row.
type DetailRow struct {
	EvaluationID  int64
	Title         string
	Date          string
	Description   string
	FirstName     string
	LastName      string
	Code          string
	Group         string
	StudentID     int64
	CriterionID   int64
	CriterionName string
	IndicatorID   int64
	IndicatorName string
	Scale         ScaleKind
	Value         float64
}

// Submission is the payload of a new evaluation.
type Submission struct {
	Title       string           `json:"title" yaml:"title" validate:"required,max=255"`
	Date        string           `json:"date" yaml:"date" validate:"required,isodate"`
	Description string           `json:"description" yaml:"description" validate:"max=2000"`
	Student     Student          `json:"student" yaml:"student"`
	Scores      []SubmittedScore `json:"scores" yaml:"scores" validate:"required,min=1,dive"`
}

// SubmittedScore is the value chosen for one indicator.
type SubmittedScore struct {
	IndicatorID int64   `json:"indicator_id" yaml:"indicator_id" validate:"required,gt=0"`
	Value       float64 `json:"value" yaml:"value" validate:"min=0"`
}

// Total sums the submitted values.
func (s Submission) Total() float64 {
	total := 0.0
	for _, sc := range s.Scores {
		total += sc.Value
	}
	return total
}
