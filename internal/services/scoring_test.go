package services

import "testing"

func TestComputeScoresSingleCategory(t *testing.T) {
	cats := []*Category{{ID: "fin", Weight: 1, Active: true}}
	qs := []*Question{
		{ID: "q1", CategoryID: "fin", MaxScore: 10},
		{ID: "q2", CategoryID: "fin", MaxScore: 10},
	}
	rs := []*AssessmentResponse{
		{QuestionID: "q1", Score: 7},
		{QuestionID: "q2", Score: 5},
	}
	got := ComputeScores("a1", cats, qs, rs)
	if len(got.Categories) != 1 {
		t.Fatalf("categories: got %d, want 1", len(got.Categories))
	}
	cs := got.Categories[0]
	if cs.Score != 12 || cs.MaxScore != 20 || cs.Percentage != 60 {
		t.Fatalf("category score: got %+v", cs)
	}
	if got.TotalScore != 12 || got.MaxPossibleScore != 20 || got.PercentageScore != 60 {
		t.Fatalf("totals: got %+v", got)
	}
}

func TestComputeScoresWeighted(t *testing.T) {
	cats := []*Category{
		{ID: "fin", Weight: 2, Active: true},
		{ID: "ops", Weight: 1, Active: true},
	}
	qs := []*Question{
		{ID: "q1", CategoryID: "fin", MaxScore: 10},
		{ID: "q2", CategoryID: "ops", MaxScore: 10},
	}
	rs := []*AssessmentResponse{
		{QuestionID: "q1", Score: 10},
		{QuestionID: "q2", Score: 0},
	}
	got := ComputeScores("a1", cats, qs, rs)
	// fin contributes 20/20, ops contributes 0/10.
	if got.TotalScore != 20 || got.MaxPossibleScore != 30 {
		t.Fatalf("totals: got %+v", got)
	}
	if got.PercentageScore != 66.67 {
		t.Fatalf("percentage: got %v, want 66.67", got.PercentageScore)
	}
}

func TestComputeScoresSkipsInactiveAndEmpty(t *testing.T) {
	cats := []*Category{
		{ID: "fin", Weight: 1, Active: true},
		{ID: "off", Weight: 1, Active: false},
		{ID: "empty", Weight: 1, Active: true},
	}
	qs := []*Question{
		{ID: "q1", CategoryID: "fin", MaxScore: 10},
		{ID: "q2", CategoryID: "off", MaxScore: 10},
		{ID: "q3", CategoryID: "empty", MaxScore: 0},
	}
	rs := []*AssessmentResponse{
		{QuestionID: "q1", Score: 5},
		{QuestionID: "q2", Score: 10},
	}
	got := ComputeScores("a1", cats, qs, rs)
	if len(got.Categories) != 1 || got.Categories[0].CategoryID != "fin" {
		t.Fatalf("categories: got %+v", got.Categories)
	}
	if got.PercentageScore != 50 {
		t.Fatalf("percentage: got %v, want 50", got.PercentageScore)
	}
}

func TestComputeScoresAnsweredQuestionsOnly(t *testing.T) {
	cats := []*Category{
		{ID: "fin", Weight: 1, Active: true},
		{ID: "ops", Weight: 1, Active: true},
	}
	qs := []*Question{
		{ID: "q1", CategoryID: "fin", MaxScore: 10},
		{ID: "q2", CategoryID: "fin", MaxScore: 10},
		{ID: "q3", CategoryID: "ops", MaxScore: 10},
	}
	// q2 and the whole ops category go unanswered.
	rs := []*AssessmentResponse{{QuestionID: "q1", Score: 10}}
	got := ComputeScores("a1", cats, qs, rs)
	if len(got.Categories) != 1 || got.Categories[0].CategoryID != "fin" {
		t.Fatalf("categories: got %+v", got.Categories)
	}
	cs := got.Categories[0]
	if cs.MaxScore != 10 || cs.Percentage != 100 {
		t.Fatalf("category score: got %+v", cs)
	}
	if got.PercentageScore != 100 {
		t.Fatalf("percentage: got %v, want 100", got.PercentageScore)
	}
}

func TestComputeScoresNoScorableQuestions(t *testing.T) {
	got := ComputeScores("a1", []*Category{{ID: "c", Weight: 1, Active: true}}, nil, nil)
	if got.PercentageScore != 0 || got.MaxPossibleScore != 0 || len(got.Categories) != 0 {
		t.Fatalf("got %+v", got)
	}
}
