package services

import (
	"testing"
	"time"
)

type stubAnalyticsStore struct {
	questionnaire *Questionnaire
	questions     []*Question
	assessments   []*Assessment
	responses     []*AssessmentResponse
}

func (s *stubAnalyticsStore) GetQuestionnaire(string) (*Questionnaire, error) {
	return s.questionnaire, nil
}
func (s *stubAnalyticsStore) ListQuestions(string) ([]*Question, error) { return s.questions, nil }
func (s *stubAnalyticsStore) ListAssessmentsByQuestionnaire(string) ([]*Assessment, error) {
	return s.assessments, nil
}
func (s *stubAnalyticsStore) ListResponsesByQuestionnaire(string) ([]*AssessmentResponse, error) {
	return s.responses, nil
}

func TestAnalyticsSummary(t *testing.T) {
	day1 := time.Date(2025, time.August, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, time.August, 2, 10, 0, 0, 0, time.UTC)
	st := &stubAnalyticsStore{
		questionnaire: &Questionnaire{ID: "qn1"},
		questions: []*Question{
			{ID: "s1", Type: QuestionScale, Text: "Confidence in cash flow", MaxScore: 10},
			{ID: "s2", Type: QuestionScale, Text: "Confidence in records", MaxScore: 10},
			{ID: "t1", Type: QuestionText, Text: "Describe your bookkeeping"},
		},
		assessments: []*Assessment{
			{ID: "a1", Status: AssessmentCompleted, PercentageScore: 60, CompletedAt: &day1},
			{ID: "a2", Status: AssessmentReviewed, PercentageScore: 80, CompletedAt: &day2},
			{ID: "a3", Status: AssessmentInProgress, PercentageScore: 10},
		},
		responses: []*AssessmentResponse{
			{AssessmentID: "a1", QuestionID: "s1", NumberResponse: floatPtr(6), Score: 6},
			{AssessmentID: "a1", QuestionID: "s2", NumberResponse: floatPtr(5), Score: 5},
			{AssessmentID: "a2", QuestionID: "s1", NumberResponse: floatPtr(8), Score: 8},
			{AssessmentID: "a2", QuestionID: "s2", NumberResponse: floatPtr(7), Score: 7},
			{AssessmentID: "a3", QuestionID: "s1", NumberResponse: floatPtr(2), Score: 2},
		},
	}
	svc := NewAnalyticsService(st)

	if _, err := svc.Summary(enterpriseActor, "qn1"); err == nil {
		t.Fatal("non-admin must be forbidden")
	}

	got, err := svc.Summary(adminActor, "qn1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.TotalAssessments != 3 || got.Completed != 2 {
		t.Fatalf("counts: %+v", got)
	}
	if got.AveragePct != 70 {
		t.Fatalf("average: got %v", got.AveragePct)
	}
	if len(got.Questions) != 2 {
		t.Fatalf("scale questions: got %d", len(got.Questions))
	}
	s1 := got.Questions[0]
	if s1.ID != "s1" || s1.Total != 3 || s1.Histogram[6] != 1 || s1.Histogram[8] != 1 || s1.Histogram[2] != 1 {
		t.Fatalf("s1 histogram: %+v", s1)
	}
	// a3 answered only s1, so it drops out of the alpha matrix.
	if got.N != 2 {
		t.Fatalf("alpha n: got %d", got.N)
	}
	if len(got.Timeseries) != 2 || got.Timeseries[0].Date != "2025-08-01" {
		t.Fatalf("timeseries: %+v", got.Timeseries)
	}
}

func TestAnalyticsSummaryUnknownQuestionnaire(t *testing.T) {
	svc := NewAnalyticsService(&stubAnalyticsStore{})
	if _, err := svc.Summary(adminActor, "ghost"); err == nil {
		t.Fatal("expected not found")
	}
}
