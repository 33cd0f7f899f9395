package services

import "math"

// ScoreSummary is the result of a full scoring pass over one assessment.
type ScoreSummary struct {
	TotalScore       float64
	MaxPossibleScore float64
	PercentageScore  float64
	Categories       []CategoryScore
}

// ComputeScores aggregates stored response scores into per-category and
// overall totals. Only active categories participate, and both the score and
// the maximum sum over answered questions only, so an unanswered question
// neither helps nor hurts. A category with no answered questions (or whose
// answered questions carry zero max score) produces no CategoryScore row.
func ComputeScores(assessmentID string, categories []*Category, questions []*Question, responses []*AssessmentResponse) ScoreSummary {
	byCategory := make(map[string][]*Question)
	for _, q := range questions {
		byCategory[q.CategoryID] = append(byCategory[q.CategoryID], q)
	}
	scoreByQuestion := make(map[string]float64, len(responses))
	for _, r := range responses {
		scoreByQuestion[r.QuestionID] = r.Score
	}

	var summary ScoreSummary
	for _, cat := range categories {
		if !cat.Active {
			continue
		}
		var catScore, catMax float64
		for _, q := range byCategory[cat.ID] {
			score, answered := scoreByQuestion[q.ID]
			if !answered {
				continue
			}
			catMax += float64(q.MaxScore)
			catScore += score
		}
		if catMax == 0 {
			continue
		}
		summary.Categories = append(summary.Categories, CategoryScore{
			AssessmentID: assessmentID,
			CategoryID:   cat.ID,
			Score:        catScore,
			MaxScore:     catMax,
			Percentage:   round2(catScore / catMax * 100),
		})
		summary.TotalScore += catScore * cat.Weight
		summary.MaxPossibleScore += catMax * cat.Weight
	}
	if summary.MaxPossibleScore > 0 {
		summary.PercentageScore = round2(summary.TotalScore / summary.MaxPossibleScore * 100)
	}
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
