package services

import (
	"strings"
	"time"
)

// QuestionnaireStore abstracts persistence operations required by QuestionnaireService.
type QuestionnaireStore interface {
	InsertQuestionnaire(q *Questionnaire) (*Questionnaire, error)
	GetQuestionnaire(id string) (*Questionnaire, error)
	UpdateQuestionnaire(q *Questionnaire) error
	ListQuestionnaires() ([]*Questionnaire, error)
	InsertQuestion(q *Question) (*Question, error)
	UpdateQuestion(q *Question) error
	DeleteQuestion(id string) error
	ListQuestions(questionnaireID string) ([]*Question, error)
	InsertCategory(c *Category) (*Category, error)
	UpdateCategory(c *Category) error
	GetCategory(id string) (*Category, error)
	ListCategories() ([]*Category, error)
	GetEnterprise(id string) (*Enterprise, error)
	AddAudit(entry AuditEntry)
}

// Each question adds three minutes to the estimated completion time.
const minutesPerQuestion = 3

type QuestionnaireService struct {
	store       QuestionnaireStore
	now         func() time.Time
	idGenerator func() string
}

func NewQuestionnaireService(store QuestionnaireStore) *QuestionnaireService {
	return &QuestionnaireService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: func() string { return shortID(12) },
	}
}

func (s *QuestionnaireService) CreateCategory(actor Actor, c *Category) (*Category, error) {
	if !actor.IsAdmin() {
		return nil, NewForbiddenError("admin role required")
	}
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return nil, NewInvalidError("name required")
	}
	if c.Weight < 0 {
		return nil, NewInvalidError("weight must not be negative")
	}
	if c.Weight == 0 {
		c.Weight = 1
	}
	if c.ID == "" {
		c.ID = s.idGenerator()
	}
	created, err := s.store.InsertCategory(c)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor.UserID, Action: "create_category", Target: c.ID})
	if created == nil {
		return c, nil
	}
	return created, nil
}

func (s *QuestionnaireService) UpdateCategory(actor Actor, c *Category) error {
	if !actor.IsAdmin() {
		return NewForbiddenError("admin role required")
	}
	if c == nil || c.ID == "" {
		return NewInvalidError("category id required")
	}
	existing, err := s.store.GetCategory(c.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return NewNotFoundError("category not found")
	}
	if c.Weight < 0 {
		return NewInvalidError("weight must not be negative")
	}
	return s.store.UpdateCategory(c)
}

func (s *QuestionnaireService) ListCategories() ([]*Category, error) {
	return s.store.ListCategories()
}

func (s *QuestionnaireService) Create(actor Actor, q *Questionnaire) (*Questionnaire, error) {
	if !actor.IsAdmin() {
		return nil, NewForbiddenError("admin role required")
	}
	if q == nil || strings.TrimSpace(q.Title) == "" {
		return nil, NewInvalidError("title required")
	}
	if q.MinEmployees < 0 || q.MaxEmployees < 0 {
		return nil, NewInvalidError("employee bounds must not be negative")
	}
	if q.MinEmployees > 0 && q.MaxEmployees > 0 && q.MinEmployees > q.MaxEmployees {
		return nil, NewInvalidError("min_employees exceeds max_employees")
	}
	if q.ID == "" {
		q.ID = s.idGenerator()
	}
	q.CreatedBy = actor.UserID
	q.CreatedAt = s.now()
	created, err := s.store.InsertQuestionnaire(q)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor.UserID, Action: "create_questionnaire", Target: q.ID})
	if created == nil {
		return q, nil
	}
	return created, nil
}

func (s *QuestionnaireService) Get(id string) (*Questionnaire, error) {
	q, err := s.store.GetQuestionnaire(id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, NewNotFoundError("questionnaire not found")
	}
	return q, nil
}

func (s *QuestionnaireService) Update(actor Actor, q *Questionnaire) error {
	if !actor.IsAdmin() {
		return NewForbiddenError("admin role required")
	}
	if q == nil || q.ID == "" {
		return NewInvalidError("questionnaire id required")
	}
	existing, err := s.store.GetQuestionnaire(q.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return NewNotFoundError("questionnaire not found")
	}
	q.CreatedBy = existing.CreatedBy
	q.CreatedAt = existing.CreatedAt
	q.EstimatedTimeMinutes = existing.EstimatedTimeMinutes
	return s.store.UpdateQuestionnaire(q)
}

// AddQuestion validates the question payload against its declared type and
// refreshes the questionnaire's estimated completion time.
func (s *QuestionnaireService) AddQuestion(actor Actor, q *Question) (*Question, error) {
	if !actor.IsAdmin() {
		return nil, NewForbiddenError("admin role required")
	}
	if q == nil {
		return nil, NewInvalidError("question required")
	}
	if strings.TrimSpace(q.Text) == "" {
		return nil, NewInvalidError("text required")
	}
	if q.MaxScore < 0 {
		return nil, NewInvalidError("max_score must not be negative")
	}
	qn, err := s.store.GetQuestionnaire(q.QuestionnaireID)
	if err != nil {
		return nil, err
	}
	if qn == nil {
		return nil, NewNotFoundError("questionnaire not found")
	}
	if cat, err := s.store.GetCategory(q.CategoryID); err != nil {
		return nil, err
	} else if cat == nil {
		return nil, NewNotFoundError("category not found")
	}
	switch q.Type {
	case QuestionSingleChoice, QuestionMultipleChoice:
		if len(q.Options) == 0 {
			return nil, NewInvalidError("choice questions require options")
		}
		for i := range q.Options {
			if q.Options[i].ID == "" {
				q.Options[i].ID = s.idGenerator()
			}
			if q.Options[i].Score < 0 {
				return nil, NewInvalidError("option score must not be negative")
			}
		}
	case QuestionText, QuestionNumber, QuestionFileUpload, QuestionScale:
		if len(q.Options) > 0 {
			return nil, NewInvalidError("options only apply to choice questions")
		}
	default:
		return nil, NewInvalidError("unknown question type: " + q.Type)
	}
	if q.ID == "" {
		q.ID = s.idGenerator()
	}
	created, err := s.store.InsertQuestion(q)
	if err != nil {
		return nil, err
	}
	if err := s.refreshEstimatedTime(qn); err != nil {
		return nil, err
	}
	if created == nil {
		return q, nil
	}
	return created, nil
}

func (s *QuestionnaireService) DeleteQuestion(actor Actor, questionnaireID, questionID string) error {
	if !actor.IsAdmin() {
		return NewForbiddenError("admin role required")
	}
	qn, err := s.store.GetQuestionnaire(questionnaireID)
	if err != nil {
		return err
	}
	if qn == nil {
		return NewNotFoundError("questionnaire not found")
	}
	if err := s.store.DeleteQuestion(questionID); err != nil {
		return err
	}
	return s.refreshEstimatedTime(qn)
}

func (s *QuestionnaireService) ListQuestions(questionnaireID string) ([]*Question, error) {
	return s.store.ListQuestions(questionnaireID)
}

func (s *QuestionnaireService) refreshEstimatedTime(qn *Questionnaire) error {
	questions, err := s.store.ListQuestions(qn.ID)
	if err != nil {
		return err
	}
	qn.EstimatedTimeMinutes = len(questions) * minutesPerQuestion
	return s.store.UpdateQuestionnaire(qn)
}

// List returns every questionnaire. Admin only; enterprises go through
// ListForEnterprise so targeting rules apply.
func (s *QuestionnaireService) List(actor Actor) ([]*Questionnaire, error) {
	if !actor.IsAdmin() {
		return nil, NewForbiddenError("admin role required")
	}
	return s.store.ListQuestionnaires()
}

// ListForEnterprise returns the active questionnaires whose targeting rules
// admit the given enterprise.
func (s *QuestionnaireService) ListForEnterprise(enterpriseID string) ([]*Questionnaire, error) {
	ent, err := s.store.GetEnterprise(enterpriseID)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, NewNotFoundError("enterprise not found")
	}
	all, err := s.store.ListQuestionnaires()
	if err != nil {
		return nil, err
	}
	out := make([]*Questionnaire, 0, len(all))
	for _, qn := range all {
		if qn.Active && Targets(qn, ent) {
			out = append(out, qn)
		}
	}
	return out, nil
}

// Targets reports whether the questionnaire's targeting rules admit the
// enterprise. Empty rule fields match everyone; populated fields all have to
// hold at once.
func Targets(qn *Questionnaire, ent *Enterprise) bool {
	if len(qn.TargetSectors) > 0 && !containsFold(qn.TargetSectors, ent.Sector) {
		return false
	}
	if len(qn.TargetSizes) > 0 && !containsFold(qn.TargetSizes, ent.EnterpriseSize) {
		return false
	}
	if len(qn.TargetDistricts) > 0 && !containsFold(qn.TargetDistricts, ent.District) {
		return false
	}
	if qn.MinEmployees > 0 && ent.NumberOfEmployees < qn.MinEmployees {
		return false
	}
	if qn.MaxEmployees > 0 && ent.NumberOfEmployees > qn.MaxEmployees {
		return false
	}
	return true
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
