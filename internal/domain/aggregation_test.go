package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detailRow(criterionID int64, criterion string, indicatorID int64, indicator string, scale ScaleKind, value float64) DetailRow {
	return DetailRow{
		EvaluationID:  42,
		Title:         "Thesis defense",
		Date:          "2024-03-01",
		Description:   "Final round",
		FirstName:     "Ana",
		LastName:      "Ruiz",
		Code:          "S1",
		Group:         "7B",
		StudentID:     3,
		CriterionID:   criterionID,
		CriterionName: criterion,
		IndicatorID:   indicatorID,
		IndicatorName: indicator,
		Scale:         scale,
		Value:         value,
	}
}

func TestAssembleEvaluationDetail(t *testing.T) {
	rows := []DetailRow{
		detailRow(2, "CONTENT", 5, "Order", ScaleStandard, 0.75),
		detailRow(1, "ATTITUDE", 1, "Posture", ScaleStandard, 1),
		detailRow(2, "CONTENT", 8, "Coherence", ScaleEssayCoherence, 1.5),
		detailRow(3, "ORAL DEFENSE", 9, "Command", ScaleOralDefense, 3),
	}

	detail, err := AssembleEvaluationDetail(rows)
	require.NoError(t, err)

	assert.Equal(t, int64(42), detail.ID)
	assert.Equal(t, "Thesis defense", detail.Title)
	assert.Equal(t, "2024-03-01", detail.Date)
	assert.Equal(t, StudentInfo{FirstName: "Ana", LastName: "Ruiz", Code: "S1", Group: "7B"}, detail.Student)

	t.Run("first seen criterion order", func(t *testing.T) {
		require.Len(t, detail.Criteria, 3)
		assert.Equal(t, int64(2), detail.Criteria[0].ID)
		assert.Equal(t, int64(1), detail.Criteria[1].ID)
		assert.Equal(t, int64(3), detail.Criteria[2].ID)
	})

	t.Run("indicators nested under their criterion", func(t *testing.T) {
		content := detail.Criteria[0]
		require.Len(t, content.Indicators, 2)
		assert.Equal(t, int64(5), content.Indicators[0].ID)
		assert.Equal(t, int64(8), content.Indicators[1].ID)
		assert.Equal(t, LabelVeryGood, content.Indicators[1].Label)
		assert.InDelta(t, 2.25, content.Subtotal(), 1e-9)
	})

	t.Run("totals recomputed", func(t *testing.T) {
		assert.InDelta(t, 6.25, detail.ScoreTotal, 1e-9)
		assert.InDelta(t, 8.0, detail.MaxScore, 1e-9)
		assert.InDelta(t, 7.8125, detail.OutOfTen, 1e-9)
		assert.InDelta(t, 78.125, detail.Percentage, 1e-9)
	})
}

func TestAssembleEvaluationDetail_Errors(t *testing.T) {
	t.Run("no rows", func(t *testing.T) {
		_, err := AssembleEvaluationDetail(nil)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("scores split across students", func(t *testing.T) {
		other := detailRow(1, "ATTITUDE", 2, "Tone", ScaleStandard, 0.5)
		other.StudentID = 99
		rows := []DetailRow{detailRow(1, "ATTITUDE", 1, "Posture", ScaleStandard, 1), other}

		_, err := AssembleEvaluationDetail(rows)
		assert.True(t, errors.Is(err, ErrMixedStudents))
	})

	t.Run("rows from another evaluation", func(t *testing.T) {
		other := detailRow(1, "ATTITUDE", 2, "Tone", ScaleStandard, 0.5)
		other.EvaluationID = 43
		_, err := AssembleEvaluationDetail([]DetailRow{detailRow(1, "ATTITUDE", 1, "Posture", ScaleStandard, 1), other})
		assert.Error(t, err)
	})
}

func TestAssembleEvaluationDetail_UnknownValueKeepsValue(t *testing.T) {
	rows := []DetailRow{detailRow(1, "ATTITUDE", 1, "Posture", ScaleStandard, 0.6)}

	detail, err := AssembleEvaluationDetail(rows)
	require.NoError(t, err)
	assert.Empty(t, detail.Criteria[0].Indicators[0].Label)
	assert.InDelta(t, 0.6, detail.ScoreTotal, 1e-9)
}

func TestNewRubricTree(t *testing.T) {
	nodes := []CriterionNode{
		{
			Criterion: Criterion{ID: 1, Name: "ATTITUDE"},
			Indicators: []Indicator{
				{ID: 1, CriterionID: 1, Name: "Posture", Scale: ScaleStandard},
			},
		},
		{
			Criterion: Criterion{ID: 3, Name: "ORAL DEFENSE"},
			Indicators: []Indicator{
				{ID: 7, CriterionID: 3, Name: "Command", Scale: ScaleOralDefense},
				{ID: 8, CriterionID: 3, Name: "Time", Scale: ScaleStandard},
			},
		},
	}

	tree := NewRubricTree(nodes)
	require.Len(t, tree.Criteria, 2)
	assert.Equal(t, 3, tree.IndicatorCount())
	assert.InDelta(t, 6.0, tree.TotalMax(), 1e-9)

	command := tree.Criteria[1].Indicators[0]
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, optionValues(command.Options))

	idx := tree.Indicators()
	assert.Len(t, idx, 3)
	assert.Equal(t, "Time", idx[8].Name)
}
