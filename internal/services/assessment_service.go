package services

import "time"

// AssessmentStore abstracts persistence operations required by AssessmentService.
type AssessmentStore interface {
	GetQuestionnaire(id string) (*Questionnaire, error)
	ListQuestions(questionnaireID string) ([]*Question, error)
	ListCategories() ([]*Category, error)
	GetEnterprise(id string) (*Enterprise, error)

	InsertAssessment(a *Assessment) (*Assessment, error)
	GetAssessment(id string) (*Assessment, error)
	UpdateAssessment(a *Assessment) error
	ListAssessmentsByEnterprise(enterpriseID string) ([]*Assessment, error)

	UpsertResponse(r *AssessmentResponse) error
	ListResponses(assessmentID string) ([]*AssessmentResponse, error)

	ReplaceCategoryScores(assessmentID string, scores []CategoryScore) error
	ListCategoryScores(assessmentID string) ([]CategoryScore, error)
	ReplaceRecommendations(assessmentID, source string, recs []*Recommendation) error
	ListRecommendations(assessmentID string) ([]*Recommendation, error)

	AddAudit(entry AuditEntry)
}

// AnswerInput is one inbound answer keyed by question.
type AnswerInput struct {
	QuestionID        string   `json:"question_id"`
	SelectedOptionIDs []string `json:"selected_option_ids,omitempty"`
	Text              string   `json:"text,omitempty"`
	Number            *float64 `json:"number,omitempty"`
	FileRef           string   `json:"file_ref,omitempty"`
}

// AssessmentDetail bundles an assessment with its derived data.
type AssessmentDetail struct {
	Assessment      *Assessment           `json:"assessment"`
	CategoryScores  []CategoryScore       `json:"category_scores,omitempty"`
	Recommendations []*Recommendation     `json:"recommendations,omitempty"`
	Responses       []*AssessmentResponse `json:"responses,omitempty"`
}

type AssessmentService struct {
	store       AssessmentStore
	notifier    Notifier
	now         func() time.Time
	idGenerator func() string
}

func NewAssessmentService(store AssessmentStore, notifier Notifier) *AssessmentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AssessmentService{
		store:       store,
		notifier:    notifier,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: func() string { return shortID(12) },
	}
}

// FiscalYearOf maps a point in time to the July-June fiscal year it falls in,
// named after the calendar year the fiscal year starts in.
func FiscalYearOf(t time.Time) int {
	if t.Month() >= time.July {
		return t.Year()
	}
	return t.Year() - 1
}

// Create opens a draft assessment for the caller's enterprise against an
// eligible questionnaire. One assessment per questionnaire and fiscal year.
func (s *AssessmentService) Create(actor Actor, questionnaireID string) (*Assessment, error) {
	if actor.EnterpriseID == "" && !actor.IsAdmin() {
		return nil, NewForbiddenError("enterprise role required")
	}
	ent, err := s.store.GetEnterprise(actor.EnterpriseID)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, NewNotFoundError("enterprise not found")
	}
	qn, err := s.store.GetQuestionnaire(questionnaireID)
	if err != nil {
		return nil, err
	}
	if qn == nil {
		return nil, NewNotFoundError("questionnaire not found")
	}
	if !qn.Active {
		return nil, NewInvalidError("questionnaire is not active")
	}
	if !Targets(qn, ent) {
		return nil, NewForbiddenError("questionnaire does not target this enterprise")
	}
	fy := FiscalYearOf(s.now())
	existing, err := s.store.ListAssessmentsByEnterprise(ent.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range existing {
		if a.QuestionnaireID == questionnaireID && a.FiscalYear == fy {
			return nil, NewConflictError("assessment already exists for this fiscal year")
		}
	}
	a := &Assessment{
		ID:              s.idGenerator(),
		EnterpriseID:    ent.ID,
		QuestionnaireID: questionnaireID,
		FiscalYear:      fy,
		Status:          AssessmentDraft,
		CreatedAt:       s.now(),
	}
	created, err := s.store.InsertAssessment(a)
	if err != nil {
		return nil, err
	}
	if created != nil {
		a = created
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor.UserID, Action: "create_assessment", Target: a.ID})
	return a, nil
}

// Start moves a draft assessment into progress.
func (s *AssessmentService) Start(actor Actor, id string) (*Assessment, error) {
	a, err := s.authorized(actor, id)
	if err != nil {
		return nil, err
	}
	if a.Status != AssessmentDraft {
		return nil, NewConflictError("assessment already started")
	}
	now := s.now()
	a.Status = AssessmentInProgress
	a.StartedAt = &now
	if err := s.store.UpdateAssessment(a); err != nil {
		return nil, err
	}
	return a, nil
}

// SaveResponses stores a batch of answers, scoring each one and re-running
// the aggregation pass. A draft assessment is started implicitly.
func (s *AssessmentService) SaveResponses(actor Actor, id string, answers []AnswerInput) (*Assessment, error) {
	a, err := s.authorized(actor, id)
	if err != nil {
		return nil, err
	}
	switch a.Status {
	case AssessmentDraft:
		now := s.now()
		a.Status = AssessmentInProgress
		a.StartedAt = &now
	case AssessmentInProgress:
	default:
		return nil, NewConflictError("assessment is no longer accepting responses")
	}
	if len(answers) == 0 {
		return nil, NewInvalidError("answers required")
	}
	questions, err := s.store.ListQuestions(a.QuestionnaireID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	submitted := s.now()
	for _, ans := range answers {
		q := byID[ans.QuestionID]
		if q == nil {
			return nil, NewInvalidError("unknown question: " + ans.QuestionID)
		}
		if q.Type == QuestionSingleChoice && len(ans.SelectedOptionIDs) > 1 {
			return nil, NewInvalidError("single choice question allows one option: " + q.ID)
		}
		r := &AssessmentResponse{
			ID:                s.idGenerator(),
			AssessmentID:      a.ID,
			QuestionID:        ans.QuestionID,
			SelectedOptionIDs: ans.SelectedOptionIDs,
			TextResponse:      ans.Text,
			NumberResponse:    ans.Number,
			FileRef:           ans.FileRef,
			SubmittedAt:       submitted,
		}
		r.Score = ScoreResponse(q, r)
		if err := s.store.UpsertResponse(r); err != nil {
			return nil, err
		}
	}
	if err := s.rescore(a, questions); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAssessment(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Submit finalizes an in-progress assessment. Every required question must be
// answered; scores and rule-based recommendations are rebuilt one last time.
func (s *AssessmentService) Submit(actor Actor, id string) (*Assessment, error) {
	a, err := s.authorized(actor, id)
	if err != nil {
		return nil, err
	}
	if a.Status != AssessmentInProgress {
		return nil, NewConflictError("only in-progress assessments can be submitted")
	}
	questions, err := s.store.ListQuestions(a.QuestionnaireID)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.ListResponses(a.ID)
	if err != nil {
		return nil, err
	}
	answered := make(map[string]bool, len(responses))
	for _, r := range responses {
		answered[r.QuestionID] = true
	}
	for _, q := range questions {
		if q.Required && !answered[q.ID] {
			return nil, NewInvalidError("required question unanswered: " + q.ID)
		}
	}
	if err := s.rescore(a, questions); err != nil {
		return nil, err
	}
	now := s.now()
	a.Status = AssessmentCompleted
	a.CompletedAt = &now
	if err := s.store.UpdateAssessment(a); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: actor.UserID, Action: "submit_assessment", Target: a.ID})
	return a, nil
}

// Review marks a completed assessment as reviewed by an administrator.
func (s *AssessmentService) Review(actor Actor, id string) (*Assessment, error) {
	if !actor.IsAdmin() {
		return nil, NewForbiddenError("admin role required")
	}
	a, err := s.store.GetAssessment(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("assessment not found")
	}
	if a.Status != AssessmentCompleted {
		return nil, NewConflictError("only completed assessments can be reviewed")
	}
	now := s.now()
	a.Status = AssessmentReviewed
	a.ReviewedAt = &now
	a.ReviewedBy = actor.UserID
	if err := s.store.UpdateAssessment(a); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: actor.UserID, Action: "review_assessment", Target: a.ID})
	if ent, err := s.store.GetEnterprise(a.EnterpriseID); err == nil && ent != nil {
		s.notifier.Notify(ent.UserID, "assessment_reviewed", "Assessment reviewed",
			"Your readiness assessment has been reviewed.")
	}
	return a, nil
}

// OverrideResponseScore lets an administrator replace the automatic score of
// a single response, typically for text or file answers. The aggregation
// pass runs again so the override flows into the totals.
func (s *AssessmentService) OverrideResponseScore(actor Actor, assessmentID, questionID string, score float64) (*Assessment, error) {
	if !actor.IsAdmin() {
		return nil, NewForbiddenError("admin role required")
	}
	if score < 0 {
		return nil, NewInvalidError("score must not be negative")
	}
	a, err := s.store.GetAssessment(assessmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("assessment not found")
	}
	responses, err := s.store.ListResponses(assessmentID)
	if err != nil {
		return nil, err
	}
	var target *AssessmentResponse
	for _, r := range responses {
		if r.QuestionID == questionID {
			target = r
			break
		}
	}
	if target == nil {
		return nil, NewNotFoundError("response not found")
	}
	questions, err := s.store.ListQuestions(a.QuestionnaireID)
	if err != nil {
		return nil, err
	}
	for _, q := range questions {
		if q.ID == questionID && q.MaxScore > 0 && score > float64(q.MaxScore) {
			return nil, NewInvalidError("score exceeds question max_score")
		}
	}
	now := s.now()
	target.Score = score
	target.OverriddenBy = actor.UserID
	target.OverriddenAt = &now
	if err := s.store.UpsertResponse(target); err != nil {
		return nil, err
	}
	if err := s.rescore(a, questions); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAssessment(a); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: actor.UserID, Action: "override_score", Target: assessmentID, Note: questionID})
	return a, nil
}

func (s *AssessmentService) Get(actor Actor, id string) (*AssessmentDetail, error) {
	a, err := s.authorized(actor, id)
	if err != nil {
		return nil, err
	}
	scores, err := s.store.ListCategoryScores(a.ID)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.ListRecommendations(a.ID)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.ListResponses(a.ID)
	if err != nil {
		return nil, err
	}
	return &AssessmentDetail{Assessment: a, CategoryScores: scores, Recommendations: recs, Responses: responses}, nil
}

func (s *AssessmentService) ListForEnterprise(actor Actor, enterpriseID string) ([]*Assessment, error) {
	if !actor.IsAdmin() && actor.EnterpriseID != enterpriseID {
		return nil, NewForbiddenError("forbidden")
	}
	return s.store.ListAssessmentsByEnterprise(enterpriseID)
}

// ReadinessScore averages the percentage scores of an enterprise's completed
// and reviewed assessments. The boolean reports whether any were found.
func (s *AssessmentService) ReadinessScore(enterpriseID string) (float64, bool, error) {
	assessments, err := s.store.ListAssessmentsByEnterprise(enterpriseID)
	if err != nil {
		return 0, false, err
	}
	var sum float64
	var n int
	for _, a := range assessments {
		if a.Status == AssessmentCompleted || a.Status == AssessmentReviewed {
			sum += a.PercentageScore
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return round2(sum / float64(n)), true, nil
}

// rescore recomputes category scores, totals and rule-based recommendations
// from the currently stored responses. The caller persists the assessment.
func (s *AssessmentService) rescore(a *Assessment, questions []*Question) error {
	responses, err := s.store.ListResponses(a.ID)
	if err != nil {
		return err
	}
	categories, err := s.store.ListCategories()
	if err != nil {
		return err
	}
	summary := ComputeScores(a.ID, categories, questions, responses)
	a.TotalScore = summary.TotalScore
	a.MaxPossibleScore = summary.MaxPossibleScore
	a.PercentageScore = summary.PercentageScore
	if err := s.store.ReplaceCategoryScores(a.ID, summary.Categories); err != nil {
		return err
	}
	byID := make(map[string]*Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	recs := BuildRecommendations(a.ID, summary.Categories, byID)
	for _, r := range recs {
		r.ID = s.idGenerator()
	}
	return s.store.ReplaceRecommendations(a.ID, "rules", recs)
}

func (s *AssessmentService) authorized(actor Actor, id string) (*Assessment, error) {
	a, err := s.store.GetAssessment(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("assessment not found")
	}
	if !actor.IsAdmin() && actor.EnterpriseID != a.EnterpriseID {
		return nil, NewForbiddenError("forbidden")
	}
	return a, nil
}
