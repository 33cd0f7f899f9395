package services

import "sort"

type AnalyticsStore interface {
	GetQuestionnaire(id string) (*Questionnaire, error)
	ListQuestions(questionnaireID string) ([]*Question, error)
	ListAssessmentsByQuestionnaire(questionnaireID string) ([]*Assessment, error)
	ListResponsesByQuestionnaire(questionnaireID string) ([]*AssessmentResponse, error)
}

type AnalyticsService struct {
	store AnalyticsStore
}

// QuestionAnalytics aggregates the 0-10 answer distribution of one scale
// question across all assessments of a questionnaire.
type QuestionAnalytics struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Histogram []int  `json:"histogram"`
	Total     int    `json:"total"`
}

type AnalyticsTimeseries struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AnalyticsSummary struct {
	QuestionnaireID  string                `json:"questionnaire_id"`
	TotalAssessments int                   `json:"total_assessments"`
	Completed        int                   `json:"completed"`
	AveragePct       float64               `json:"average_percentage"`
	Questions        []QuestionAnalytics   `json:"questions"`
	Timeseries       []AnalyticsTimeseries `json:"timeseries"`
	Alpha            float64               `json:"alpha"`
	N                int                   `json:"n"`
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// scaleHistogramBuckets covers the 0-10 slider values inclusive.
const scaleHistogramBuckets = 11

func (s *AnalyticsService) Summary(actor Actor, questionnaireID string) (*AnalyticsSummary, error) {
	if !actor.IsAdmin() {
		return nil, NewForbiddenError("admin role required")
	}
	qn, err := s.store.GetQuestionnaire(questionnaireID)
	if err != nil {
		return nil, err
	}
	if qn == nil {
		return nil, NewNotFoundError("questionnaire not found")
	}
	questions, err := s.store.ListQuestions(questionnaireID)
	if err != nil {
		return nil, err
	}
	assessments, err := s.store.ListAssessmentsByQuestionnaire(questionnaireID)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.ListResponsesByQuestionnaire(questionnaireID)
	if err != nil {
		return nil, err
	}

	scaleQs := filterScaleQuestions(questions)
	questionStats := buildQuestionAnalytics(scaleQs, responses)
	matrix, n := buildAlphaMatrix(scaleQs, responses)
	alpha := CronbachAlpha(matrix)

	summary := &AnalyticsSummary{
		QuestionnaireID:  questionnaireID,
		TotalAssessments: len(assessments),
		Questions:        questionStats,
		Alpha:            alpha,
		N:                n,
	}
	countsByDay := map[string]int{}
	var pctSum float64
	for _, a := range assessments {
		if a.Status != AssessmentCompleted && a.Status != AssessmentReviewed {
			continue
		}
		summary.Completed++
		pctSum += a.PercentageScore
		if a.CompletedAt != nil {
			countsByDay[a.CompletedAt.UTC().Format("2006-01-02")]++
		}
	}
	if summary.Completed > 0 {
		summary.AveragePct = round2(pctSum / float64(summary.Completed))
	}
	summary.Timeseries = buildTimeseries(countsByDay)
	return summary, nil
}

func filterScaleQuestions(questions []*Question) []*Question {
	out := make([]*Question, 0, len(questions))
	for _, q := range questions {
		if q.Type == QuestionScale {
			out = append(out, q)
		}
	}
	return out
}

func buildQuestionAnalytics(questions []*Question, responses []*AssessmentResponse) []QuestionAnalytics {
	index := make(map[string]int, len(questions))
	out := make([]QuestionAnalytics, 0, len(questions))
	for i, q := range questions {
		out = append(out, QuestionAnalytics{
			ID:        q.ID,
			Text:      q.Text,
			Histogram: make([]int, scaleHistogramBuckets),
		})
		index[q.ID] = i
	}
	for _, r := range responses {
		idx, ok := index[r.QuestionID]
		if !ok || r.NumberResponse == nil {
			continue
		}
		v := int(*r.NumberResponse)
		if v < 0 || v >= scaleHistogramBuckets {
			continue
		}
		out[idx].Histogram[v]++
		out[idx].Total++
	}
	return out
}

// buildAlphaMatrix keeps only assessments that answered every scale question,
// so the alpha reflects a complete item set.
func buildAlphaMatrix(questions []*Question, responses []*AssessmentResponse) ([][]float64, int) {
	byAssessment := map[string]map[string]float64{}
	for _, r := range responses {
		if byAssessment[r.AssessmentID] == nil {
			byAssessment[r.AssessmentID] = map[string]float64{}
		}
		byAssessment[r.AssessmentID][r.QuestionID] = r.Score
	}
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	sort.Strings(ids)
	matrix := make([][]float64, 0, len(byAssessment))
	for _, m := range byAssessment {
		row := make([]float64, 0, len(ids))
		complete := true
		for _, id := range ids {
			v, ok := m[id]
			if !ok {
				complete = false
				break
			}
			row = append(row, v)
		}
		if complete {
			matrix = append(matrix, row)
		}
	}
	return matrix, len(matrix)
}

func buildTimeseries(counts map[string]int) []AnalyticsTimeseries {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]AnalyticsTimeseries, 0, len(days))
	for _, d := range days {
		out = append(out, AnalyticsTimeseries{Date: d, Count: counts[d]})
	}
	return out
}
