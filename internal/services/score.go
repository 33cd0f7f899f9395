package services

// ScoreResponse computes the automatic score for a single response given its
// question. Text and file answers score zero here; reviewers may override the
// stored score later.
func ScoreResponse(q *Question, r *AssessmentResponse) float64 {
	if q == nil || r == nil {
		return 0
	}
	switch q.Type {
	case QuestionSingleChoice, QuestionMultipleChoice:
		return scoreChoice(q, r.SelectedOptionIDs)
	case QuestionNumber:
		if r.NumberResponse == nil {
			return 0
		}
		v := *r.NumberResponse
		if v < 0 {
			return 0
		}
		return v
	case QuestionScale:
		if r.NumberResponse == nil {
			return 0
		}
		return scoreScale(*r.NumberResponse, q.MaxScore)
	default:
		// text, file_upload and anything unknown
		return 0
	}
}

// scoreChoice sums the scores of the selected options. Unknown option IDs
// contribute nothing. The sum is clamped to [0, max_score] so misconfigured
// option sets cannot push a question past its ceiling.
func scoreChoice(q *Question, selected []string) float64 {
	if len(selected) == 0 {
		return 0
	}
	byID := make(map[string]int, len(q.Options))
	for _, opt := range q.Options {
		byID[opt.ID] = opt.Score
	}
	total := 0
	for _, id := range selected {
		total += byID[id]
	}
	if total < 0 {
		return 0
	}
	if q.MaxScore > 0 && total > q.MaxScore {
		return float64(q.MaxScore)
	}
	return float64(total)
}

// scoreScale maps a 0-10 slider value proportionally onto the question's
// max score. Out-of-range values are clamped.
func scoreScale(value float64, maxScore int) float64 {
	if value < 0 {
		value = 0
	}
	if value > 10 {
		value = 10
	}
	return (value / 10.0) * float64(maxScore)
}
