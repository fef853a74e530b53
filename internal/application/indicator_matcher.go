package application

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-rubric/internal/domain"
)

var (
	// ErrIndicatorNotMatched indicates that no indicator name is similar
	// enough to the requested one.
	ErrIndicatorNotMatched = errors.New("no matching indicator")

	// ErrAmbiguousIndicator indicates that several indicators match a name
	// equally well.
	ErrAmbiguousIndicator = errors.New("ambiguous indicator name")
)

// IndicatorMatcher resolves indicator names typed by a grader against a
// rubric tree. Names are compared after Unicode case folding; when no
// exact match exists the most similar name by Levenshtein distance wins
// if its similarity reaches the threshold.
//
// A matcher is immutable after construction and safe for concurrent use.
type IndicatorMatcher struct {
	threshold float64
	entries   []matchEntry
}

type matchEntry struct {
	criterion string
	name      string
	view      domain.IndicatorView
}

// NewIndicatorMatcher indexes every indicator of tree. A threshold outside
// (0, 1] falls back to DefaultMatchThreshold.
func NewIndicatorMatcher(tree domain.RubricTree, threshold float64) *IndicatorMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultMatchThreshold
	}

	m := &IndicatorMatcher{threshold: threshold}
	for _, c := range tree.Criteria {
		for _, ind := range c.Indicators {
			m.entries = append(m.entries, matchEntry{
				criterion: foldName(c.Name),
				name:      foldName(ind.Name),
				view:      ind,
			})
		}
	}
	return m
}

// Match returns the indicator called name. A non-empty criterion restricts
// the search to the indicators of that criterion.
func (m *IndicatorMatcher) Match(criterion, name string) (domain.IndicatorView, error) {
	want := foldName(name)
	if want == "" {
		return domain.IndicatorView{}, fmt.Errorf("%w: empty name", ErrIndicatorNotMatched)
	}
	scope := foldName(criterion)

	var (
		exact     []domain.IndicatorView
		best      []domain.IndicatorView
		bestScore float64
	)
	for _, e := range m.entries {
		if scope != "" && e.criterion != scope {
			continue
		}
		if e.name == want {
			exact = append(exact, e.view)
			continue
		}

		score := similarity(want, e.name)
		switch {
		case score > bestScore:
			bestScore = score
			best = []domain.IndicatorView{e.view}
		case score == bestScore && score > 0:
			best = append(best, e.view)
		}
	}

	switch {
	case len(exact) == 1:
		return exact[0], nil
	case len(exact) > 1:
		return domain.IndicatorView{}, fmt.Errorf("%w: %q matches %d indicators", ErrAmbiguousIndicator, name, len(exact))
	case bestScore < m.threshold:
		return domain.IndicatorView{}, fmt.Errorf("%w: %q", ErrIndicatorNotMatched, name)
	case len(best) > 1:
		return domain.IndicatorView{}, fmt.Errorf("%w: %q matches %d indicators", ErrAmbiguousIndicator, name, len(best))
	default:
		return best[0], nil
	}
}

// foldName trims, collapses inner whitespace and case-folds s.
func foldName(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// similarity maps the edit distance of a and b onto [0, 1], 1 meaning
// identical. Lengths are counted in runes.
func similarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	s := 1 - float64(d)/float64(maxLen)
	if s < 0 {
		return 0
	}
	return s
}
