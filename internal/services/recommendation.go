package services

import "fmt"

// BuildRecommendations derives one rule-based recommendation per scored
// category from its percentage band. The assessment service replaces all
// rule-sourced recommendations in one pass, so this function is pure.
func BuildRecommendations(assessmentID string, scores []CategoryScore, categories map[string]*Category) []*Recommendation {
	out := make([]*Recommendation, 0, len(scores))
	for _, cs := range scores {
		cat := categories[cs.CategoryID]
		if cat == nil {
			continue
		}
		rec := &Recommendation{
			AssessmentID: assessmentID,
			CategoryID:   cs.CategoryID,
			Source:       "rules",
		}
		switch {
		case cs.Percentage < 50:
			rec.Priority = PriorityHigh
			rec.Title = fmt.Sprintf("Improve %s", cat.Name)
			rec.Description = fmt.Sprintf("Your %s score is %.1f%%, which is below the readiness threshold. Prioritize this area before approaching investors.", cat.Name, cs.Percentage)
			rec.SuggestedActions = fmt.Sprintf("Review the %s questions you scored lowest on and address them first.", cat.Name)
		case cs.Percentage < 75:
			rec.Priority = PriorityMedium
			rec.Title = fmt.Sprintf("Enhance %s", cat.Name)
			rec.Description = fmt.Sprintf("Your %s score is %.1f%%. There is room to strengthen this area further.", cat.Name, cs.Percentage)
			rec.SuggestedActions = fmt.Sprintf("Identify the remaining gaps in %s and plan incremental improvements.", cat.Name)
		default:
			rec.Priority = PriorityLow
			rec.Title = fmt.Sprintf("Maintain %s Excellence", cat.Name)
			rec.Description = fmt.Sprintf("Your %s score is %.1f%%. Keep up the current practices in this area.", cat.Name, cs.Percentage)
			rec.SuggestedActions = fmt.Sprintf("Document what works well in %s so the practices survive staff changes.", cat.Name)
		}
		out = append(out, rec)
	}
	return out
}
