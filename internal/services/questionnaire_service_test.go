package services

import (
	"fmt"
	"testing"
	"time"
)

type stubQuestionnaireStore struct {
	questionnaires map[string]*Questionnaire
	questions      map[string][]*Question
	categories     map[string]*Category
	enterprises    map[string]*Enterprise
	audits         []AuditEntry
}

func newStubQuestionnaireStore() *stubQuestionnaireStore {
	return &stubQuestionnaireStore{
		questionnaires: map[string]*Questionnaire{},
		questions:      map[string][]*Question{},
		categories:     map[string]*Category{},
		enterprises:    map[string]*Enterprise{},
	}
}

func (s *stubQuestionnaireStore) InsertQuestionnaire(q *Questionnaire) (*Questionnaire, error) {
	s.questionnaires[q.ID] = q
	return q, nil
}
func (s *stubQuestionnaireStore) GetQuestionnaire(id string) (*Questionnaire, error) {
	return s.questionnaires[id], nil
}
func (s *stubQuestionnaireStore) UpdateQuestionnaire(q *Questionnaire) error {
	s.questionnaires[q.ID] = q
	return nil
}
func (s *stubQuestionnaireStore) ListQuestionnaires() ([]*Questionnaire, error) {
	var out []*Questionnaire
	for _, q := range s.questionnaires {
		out = append(out, q)
	}
	return out, nil
}
func (s *stubQuestionnaireStore) InsertQuestion(q *Question) (*Question, error) {
	s.questions[q.QuestionnaireID] = append(s.questions[q.QuestionnaireID], q)
	return q, nil
}
func (s *stubQuestionnaireStore) UpdateQuestion(q *Question) error { return nil }
func (s *stubQuestionnaireStore) DeleteQuestion(id string) error {
	for qn, list := range s.questions {
		for i, q := range list {
			if q.ID == id {
				s.questions[qn] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return nil
}
func (s *stubQuestionnaireStore) ListQuestions(qid string) ([]*Question, error) {
	return s.questions[qid], nil
}
func (s *stubQuestionnaireStore) InsertCategory(c *Category) (*Category, error) {
	s.categories[c.ID] = c
	return c, nil
}
func (s *stubQuestionnaireStore) UpdateCategory(c *Category) error {
	s.categories[c.ID] = c
	return nil
}
func (s *stubQuestionnaireStore) GetCategory(id string) (*Category, error) {
	return s.categories[id], nil
}
func (s *stubQuestionnaireStore) ListCategories() ([]*Category, error) {
	var out []*Category
	for _, c := range s.categories {
		out = append(out, c)
	}
	return out, nil
}
func (s *stubQuestionnaireStore) GetEnterprise(id string) (*Enterprise, error) {
	return s.enterprises[id], nil
}
func (s *stubQuestionnaireStore) AddAudit(entry AuditEntry) { s.audits = append(s.audits, entry) }

func testQuestionnaireService(st *stubQuestionnaireStore) *QuestionnaireService {
	svc := NewQuestionnaireService(st)
	svc.now = func() time.Time { return time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC) }
	n := 0
	svc.idGenerator = func() string { n++; return fmt.Sprintf("q%d", n) }
	return svc
}

func TestAddQuestionValidation(t *testing.T) {
	st := newStubQuestionnaireStore()
	st.questionnaires["qn1"] = &Questionnaire{ID: "qn1", Title: "Readiness", Active: true}
	st.categories["fin"] = &Category{ID: "fin", Name: "Financial Management", Weight: 1, Active: true}
	svc := testQuestionnaireService(st)

	if _, err := svc.AddQuestion(adminActor, &Question{QuestionnaireID: "qn1", CategoryID: "fin", Text: "Pick one", Type: QuestionSingleChoice}); err == nil {
		t.Fatal("choice without options must fail")
	}
	if _, err := svc.AddQuestion(adminActor, &Question{QuestionnaireID: "qn1", CategoryID: "fin", Text: "Free text", Type: QuestionText, Options: []QuestionOption{{Text: "x"}}}); err == nil {
		t.Fatal("text with options must fail")
	}
	if _, err := svc.AddQuestion(adminActor, &Question{QuestionnaireID: "qn1", CategoryID: "fin", Text: "??", Type: "matrix"}); err == nil {
		t.Fatal("unknown type must fail")
	}
	if _, err := svc.AddQuestion(adminActor, &Question{QuestionnaireID: "qn1", CategoryID: "ghost", Text: "x", Type: QuestionText}); err == nil {
		t.Fatal("unknown category must fail")
	}
	if _, err := svc.AddQuestion(enterpriseActor, &Question{QuestionnaireID: "qn1", CategoryID: "fin", Text: "x", Type: QuestionText}); err == nil {
		t.Fatal("non-admin must be forbidden")
	}

	q, err := svc.AddQuestion(adminActor, &Question{
		QuestionnaireID: "qn1", CategoryID: "fin", Text: "Do you keep books?",
		Type: QuestionSingleChoice, MaxScore: 10,
		Options: []QuestionOption{{Text: "Yes", Score: 10}, {Text: "No", Score: 0}},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if q.Options[0].ID == "" {
		t.Fatal("option ids not generated")
	}
}

func TestEstimatedTimeTracksQuestionCount(t *testing.T) {
	st := newStubQuestionnaireStore()
	st.questionnaires["qn1"] = &Questionnaire{ID: "qn1", Title: "Readiness", Active: true}
	st.categories["fin"] = &Category{ID: "fin", Name: "Finance", Weight: 1, Active: true}
	svc := testQuestionnaireService(st)

	for i := 0; i < 4; i++ {
		if _, err := svc.AddQuestion(adminActor, &Question{QuestionnaireID: "qn1", CategoryID: "fin", Text: fmt.Sprintf("q %d", i), Type: QuestionText}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if got := st.questionnaires["qn1"].EstimatedTimeMinutes; got != 12 {
		t.Fatalf("estimated time: got %d, want 12", got)
	}
	if err := svc.DeleteQuestion(adminActor, "qn1", st.questions["qn1"][0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := st.questionnaires["qn1"].EstimatedTimeMinutes; got != 9 {
		t.Fatalf("estimated time after delete: got %d, want 9", got)
	}
}

func TestListForEnterpriseTargeting(t *testing.T) {
	st := newStubQuestionnaireStore()
	st.enterprises["e1"] = &Enterprise{ID: "e1", Sector: "agriculture", EnterpriseSize: "small", District: "Rubavu", NumberOfEmployees: 12}
	st.questionnaires["open"] = &Questionnaire{ID: "open", Title: "Open", Active: true}
	st.questionnaires["sector"] = &Questionnaire{ID: "sector", Title: "Agri only", Active: true, TargetSectors: []string{"Agriculture"}}
	st.questionnaires["other"] = &Questionnaire{ID: "other", Title: "Manufacturing", Active: true, TargetSectors: []string{"manufacturing"}}
	st.questionnaires["big"] = &Questionnaire{ID: "big", Title: "Large firms", Active: true, MinEmployees: 50}
	st.questionnaires["off"] = &Questionnaire{ID: "off", Title: "Inactive", Active: false}
	svc := testQuestionnaireService(st)

	got, err := svc.ListForEnterprise("e1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := map[string]bool{}
	for _, q := range got {
		ids[q.ID] = true
	}
	if len(ids) != 2 || !ids["open"] || !ids["sector"] {
		t.Fatalf("got %v", ids)
	}
}

func TestTargetsEmployeeBounds(t *testing.T) {
	ent := &Enterprise{NumberOfEmployees: 30}
	if !Targets(&Questionnaire{MinEmployees: 10, MaxEmployees: 50}, ent) {
		t.Fatal("30 within [10,50]")
	}
	if Targets(&Questionnaire{MinEmployees: 40}, ent) {
		t.Fatal("30 below min 40")
	}
	if Targets(&Questionnaire{MaxEmployees: 20}, ent) {
		t.Fatal("30 above max 20")
	}
	if !Targets(&Questionnaire{}, ent) {
		t.Fatal("no bounds must match")
	}
}
