package domain

import "fmt"

// AssembleEvaluationDetail rebuilds the nested view of one evaluation from
// the flat rows of the detail join. Criteria appear in the order their
// first row appears and indicators keep row order within each criterion.
// The total is always recomputed from the rows.
//
// An evaluation is only visible through its scores, so an empty row set
// reports ErrNotFound. Rows attributed to more than one student are a data
// defect and report ErrMixedStudents.
func AssembleEvaluationDetail(rows []DetailRow) (EvaluationDetail, error) {
	if len(rows) == 0 {
		return EvaluationDetail{}, ErrNotFound
	}

	head := rows[0]
	detail := EvaluationDetail{
		ID:          head.EvaluationID,
		Title:       head.Title,
		Date:        head.Date,
		Description: head.Description,
		Student: StudentInfo{
			FirstName: head.FirstName,
			LastName:  head.LastName,
			Code:      head.Code,
			Group:     head.Group,
		},
	}

	index := make(map[int64]int)
	for _, r := range rows {
		if r.EvaluationID != head.EvaluationID {
			return EvaluationDetail{}, fmt.Errorf("row for evaluation %d in detail of %d", r.EvaluationID, head.EvaluationID)
		}
		if r.StudentID != head.StudentID {
			return EvaluationDetail{}, fmt.Errorf("evaluation %d: %w", head.EvaluationID, ErrMixedStudents)
		}

		pos, ok := index[r.CriterionID]
		if !ok {
			pos = len(detail.Criteria)
			index[r.CriterionID] = pos
			detail.Criteria = append(detail.Criteria, DetailCriterion{
				ID:   r.CriterionID,
				Name: r.CriterionName,
			})
		}

		label, _ := LabelFor(r.Scale, r.Value)
		detail.Criteria[pos].Indicators = append(detail.Criteria[pos].Indicators, DetailIndicator{
			ID:    r.IndicatorID,
			Name:  r.IndicatorName,
			Scale: r.Scale,
			Value: r.Value,
			Label: label,
		})

		detail.ScoreTotal += r.Value
		detail.MaxScore += MaxValue(r.Scale)
	}

	detail.OutOfTen = ScoreOutOfTen(detail.ScoreTotal, detail.MaxScore)
	detail.Percentage = Percentage(detail.ScoreTotal, detail.MaxScore)
	return detail, nil
}
