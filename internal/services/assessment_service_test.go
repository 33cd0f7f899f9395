package services

import (
	"testing"
	"time"
)

type stubAssessmentStore struct {
	questionnaires  map[string]*Questionnaire
	questions       map[string][]*Question
	categories      []*Category
	enterprises     map[string]*Enterprise
	assessments     map[string]*Assessment
	responses       map[string][]*AssessmentResponse
	categoryScores  map[string][]CategoryScore
	recommendations map[string][]*Recommendation
	audits          []AuditEntry
}

func newStubAssessmentStore() *stubAssessmentStore {
	return &stubAssessmentStore{
		questionnaires:  map[string]*Questionnaire{},
		questions:       map[string][]*Question{},
		enterprises:     map[string]*Enterprise{},
		assessments:     map[string]*Assessment{},
		responses:       map[string][]*AssessmentResponse{},
		categoryScores:  map[string][]CategoryScore{},
		recommendations: map[string][]*Recommendation{},
	}
}

func (s *stubAssessmentStore) GetQuestionnaire(id string) (*Questionnaire, error) {
	return s.questionnaires[id], nil
}
func (s *stubAssessmentStore) ListQuestions(qid string) ([]*Question, error) {
	return s.questions[qid], nil
}
func (s *stubAssessmentStore) ListCategories() ([]*Category, error) { return s.categories, nil }
func (s *stubAssessmentStore) GetEnterprise(id string) (*Enterprise, error) {
	return s.enterprises[id], nil
}
func (s *stubAssessmentStore) InsertAssessment(a *Assessment) (*Assessment, error) {
	s.assessments[a.ID] = a
	return a, nil
}
func (s *stubAssessmentStore) GetAssessment(id string) (*Assessment, error) {
	return s.assessments[id], nil
}
func (s *stubAssessmentStore) UpdateAssessment(a *Assessment) error {
	s.assessments[a.ID] = a
	return nil
}
func (s *stubAssessmentStore) ListAssessmentsByEnterprise(eid string) ([]*Assessment, error) {
	var out []*Assessment
	for _, a := range s.assessments {
		if a.EnterpriseID == eid {
			out = append(out, a)
		}
	}
	return out, nil
}
func (s *stubAssessmentStore) UpsertResponse(r *AssessmentResponse) error {
	rs := s.responses[r.AssessmentID]
	for i, existing := range rs {
		if existing.QuestionID == r.QuestionID {
			rs[i] = r
			return nil
		}
	}
	s.responses[r.AssessmentID] = append(rs, r)
	return nil
}
func (s *stubAssessmentStore) ListResponses(aid string) ([]*AssessmentResponse, error) {
	return s.responses[aid], nil
}
func (s *stubAssessmentStore) ReplaceCategoryScores(aid string, scores []CategoryScore) error {
	s.categoryScores[aid] = scores
	return nil
}
func (s *stubAssessmentStore) ListCategoryScores(aid string) ([]CategoryScore, error) {
	return s.categoryScores[aid], nil
}
func (s *stubAssessmentStore) ReplaceRecommendations(aid, source string, recs []*Recommendation) error {
	var kept []*Recommendation
	for _, r := range s.recommendations[aid] {
		if r.Source != source {
			kept = append(kept, r)
		}
	}
	s.recommendations[aid] = append(kept, recs...)
	return nil
}
func (s *stubAssessmentStore) ListRecommendations(aid string) ([]*Recommendation, error) {
	return s.recommendations[aid], nil
}
func (s *stubAssessmentStore) AddAudit(entry AuditEntry) { s.audits = append(s.audits, entry) }

func seededAssessmentStore() *stubAssessmentStore {
	st := newStubAssessmentStore()
	st.enterprises["e1"] = &Enterprise{ID: "e1", UserID: "u1", Sector: "agriculture", EnterpriseSize: "small", NumberOfEmployees: 12}
	st.questionnaires["qn1"] = &Questionnaire{ID: "qn1", Title: "Readiness", Active: true}
	st.categories = []*Category{{ID: "fin", Name: "Financial Management", Weight: 1, Active: true}}
	st.questions["qn1"] = []*Question{
		{ID: "q1", QuestionnaireID: "qn1", CategoryID: "fin", Type: QuestionSingleChoice, Required: true, MaxScore: 10,
			Options: []QuestionOption{{ID: "o1", Text: "Audited statements", Score: 10}, {ID: "o2", Text: "Simple ledger", Score: 5}}},
		{ID: "q2", QuestionnaireID: "qn1", CategoryID: "fin", Type: QuestionScale, MaxScore: 10},
		{ID: "q3", QuestionnaireID: "qn1", CategoryID: "fin", Type: QuestionText, MaxScore: 10},
	}
	return st
}

func testAssessmentService(st *stubAssessmentStore) *AssessmentService {
	svc := NewAssessmentService(st, nil)
	svc.now = func() time.Time { return time.Date(2025, time.August, 10, 12, 0, 0, 0, time.UTC) }
	n := 0
	svc.idGenerator = func() string { n++; return "id" + string(rune('0'+n)) }
	return svc
}

func TestFiscalYearOf(t *testing.T) {
	cases := []struct {
		month time.Month
		year  int
		want  int
	}{
		{time.July, 2025, 2025},
		{time.December, 2025, 2025},
		{time.January, 2026, 2025},
		{time.June, 2026, 2025},
	}
	for _, c := range cases {
		got := FiscalYearOf(time.Date(c.year, c.month, 15, 0, 0, 0, 0, time.UTC))
		if got != c.want {
			t.Fatalf("%v %d: got %d, want %d", c.month, c.year, got, c.want)
		}
	}
}

func TestCreateAssessment(t *testing.T) {
	st := seededAssessmentStore()
	svc := testAssessmentService(st)
	actor := Actor{UserID: "u1", Role: RoleEnterprise, EnterpriseID: "e1"}

	a, err := svc.Create(actor, "qn1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Status != AssessmentDraft || a.FiscalYear != 2025 {
		t.Fatalf("got %+v", a)
	}

	// Same questionnaire, same fiscal year.
	if _, err := svc.Create(actor, "qn1"); err == nil {
		t.Fatal("expected conflict")
	} else if se, _ := AsServiceError(err); se.Code != ErrorConflict {
		t.Fatalf("code: got %s", se.Code)
	}
}

func TestCreateAssessmentTargeting(t *testing.T) {
	st := seededAssessmentStore()
	st.questionnaires["qn1"].TargetSectors = []string{"manufacturing"}
	svc := testAssessmentService(st)
	actor := Actor{UserID: "u1", Role: RoleEnterprise, EnterpriseID: "e1"}
	if _, err := svc.Create(actor, "qn1"); err == nil {
		t.Fatal("expected forbidden")
	} else if se, _ := AsServiceError(err); se.Code != ErrorForbidden {
		t.Fatalf("code: got %s", se.Code)
	}
}

func TestSaveResponsesScoresAndAggregates(t *testing.T) {
	st := seededAssessmentStore()
	svc := testAssessmentService(st)
	actor := Actor{UserID: "u1", Role: RoleEnterprise, EnterpriseID: "e1"}
	a, err := svc.Create(actor, "qn1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	a, err = svc.SaveResponses(actor, a.ID, []AnswerInput{
		{QuestionID: "q1", SelectedOptionIDs: []string{"o2"}},
		{QuestionID: "q2", Number: floatPtr(8)},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if a.Status != AssessmentInProgress {
		t.Fatalf("status: got %s", a.Status)
	}
	// q1=5, q2=8; unanswered q3 stays out of the denominator.
	if a.TotalScore != 13 || a.MaxPossibleScore != 20 {
		t.Fatalf("totals: got %v/%v", a.TotalScore, a.MaxPossibleScore)
	}
	if a.PercentageScore != 65 {
		t.Fatalf("percentage: got %v", a.PercentageScore)
	}
	recs := st.recommendations[a.ID]
	if len(recs) != 1 || recs[0].Priority != PriorityMedium {
		t.Fatalf("recommendations: got %+v", recs)
	}
}

func TestSaveResponsesRejectsMultiSelectOnSingleChoice(t *testing.T) {
	st := seededAssessmentStore()
	svc := testAssessmentService(st)
	actor := Actor{UserID: "u1", Role: RoleEnterprise, EnterpriseID: "e1"}
	a, _ := svc.Create(actor, "qn1")
	_, err := svc.SaveResponses(actor, a.ID, []AnswerInput{
		{QuestionID: "q1", SelectedOptionIDs: []string{"o1", "o2"}},
	})
	if err == nil {
		t.Fatal("expected invalid")
	}
}

func TestSubmitRequiresAnswers(t *testing.T) {
	st := seededAssessmentStore()
	svc := testAssessmentService(st)
	actor := Actor{UserID: "u1", Role: RoleEnterprise, EnterpriseID: "e1"}
	a, _ := svc.Create(actor, "qn1")
	if _, err := svc.SaveResponses(actor, a.ID, []AnswerInput{{QuestionID: "q2", Number: floatPtr(5)}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.Submit(actor, a.ID); err == nil {
		t.Fatal("expected invalid: required q1 unanswered")
	}
	if _, err := svc.SaveResponses(actor, a.ID, []AnswerInput{{QuestionID: "q1", SelectedOptionIDs: []string{"o1"}}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	a, err := svc.Submit(actor, a.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if a.Status != AssessmentCompleted || a.CompletedAt == nil {
		t.Fatalf("got %+v", a)
	}
	if _, err := svc.SaveResponses(actor, a.ID, []AnswerInput{{QuestionID: "q2", Number: floatPtr(1)}}); err == nil {
		t.Fatal("expected conflict after submit")
	}
}

func TestOverrideResponseScore(t *testing.T) {
	st := seededAssessmentStore()
	svc := testAssessmentService(st)
	owner := Actor{UserID: "u1", Role: RoleEnterprise, EnterpriseID: "e1"}
	admin := Actor{UserID: "adm", Role: RoleAdmin}
	a, _ := svc.Create(owner, "qn1")
	if _, err := svc.SaveResponses(owner, a.ID, []AnswerInput{
		{QuestionID: "q1", SelectedOptionIDs: []string{"o1"}},
		{QuestionID: "q3", Text: "we keep audited statements"},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.OverrideResponseScore(owner, a.ID, "q3", 8); err == nil {
		t.Fatal("expected forbidden for non-admin")
	}
	if _, err := svc.OverrideResponseScore(admin, a.ID, "q3", 99); err == nil {
		t.Fatal("expected invalid: exceeds max_score")
	}
	a, err := svc.OverrideResponseScore(admin, a.ID, "q3", 8)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	// q1=10, q3=8 over the two answered questions.
	if a.TotalScore != 18 {
		t.Fatalf("total: got %v", a.TotalScore)
	}
	for _, r := range st.responses[a.ID] {
		if r.QuestionID == "q3" && (r.OverriddenBy != "adm" || r.OverriddenAt == nil) {
			t.Fatalf("override audit missing: %+v", r)
		}
	}
}

func TestReviewTransition(t *testing.T) {
	st := seededAssessmentStore()
	svc := testAssessmentService(st)
	owner := Actor{UserID: "u1", Role: RoleEnterprise, EnterpriseID: "e1"}
	admin := Actor{UserID: "adm", Role: RoleAdmin}
	a, _ := svc.Create(owner, "qn1")
	if _, err := svc.Review(admin, a.ID); err == nil {
		t.Fatal("expected conflict: not completed")
	}
	svc.SaveResponses(owner, a.ID, []AnswerInput{{QuestionID: "q1", SelectedOptionIDs: []string{"o1"}}})
	if _, err := svc.Submit(owner, a.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	a, err := svc.Review(admin, a.ID)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if a.Status != AssessmentReviewed || a.ReviewedBy != "adm" {
		t.Fatalf("got %+v", a)
	}
}

func TestReadinessScore(t *testing.T) {
	st := seededAssessmentStore()
	st.assessments["a1"] = &Assessment{ID: "a1", EnterpriseID: "e1", Status: AssessmentCompleted, PercentageScore: 60}
	st.assessments["a2"] = &Assessment{ID: "a2", EnterpriseID: "e1", Status: AssessmentReviewed, PercentageScore: 80}
	st.assessments["a3"] = &Assessment{ID: "a3", EnterpriseID: "e1", Status: AssessmentDraft, PercentageScore: 99}
	svc := testAssessmentService(st)
	score, ok, err := svc.ReadinessScore("e1")
	if err != nil || !ok {
		t.Fatalf("got ok=%v err=%v", ok, err)
	}
	if score != 70 {
		t.Fatalf("score: got %v, want 70", score)
	}
	_, ok, _ = svc.ReadinessScore("nobody")
	if ok {
		t.Fatal("expected no completed assessments")
	}
}
