package services

import "time"

type ExportStore interface {
	GetQuestionnaire(id string) (*Questionnaire, error)
	ListQuestions(questionnaireID string) ([]*Question, error)
	ListAssessmentsByQuestionnaire(questionnaireID string) ([]*Assessment, error)
	ListResponsesByQuestionnaire(questionnaireID string) ([]*AssessmentResponse, error)
	ListCategoryScores(assessmentID string) ([]CategoryScore, error)
	ListCategories() ([]*Category, error)
	GetEnterprise(id string) (*Enterprise, error)
}

type ExportParams struct {
	QuestionnaireID string
	Format          string
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ExportStore
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store}
}

const csvContentType = "text/csv; charset=utf-8"

// ExportCSV produces one of three admin exports over a questionnaire:
// per-response rows, per-assessment totals, or per-category scores.
func (s *ExportService) ExportCSV(actor Actor, params ExportParams) (*ExportResult, error) {
	if !actor.IsAdmin() {
		return nil, NewForbiddenError("admin role required")
	}
	if params.QuestionnaireID == "" {
		return nil, NewInvalidError("questionnaire_id required")
	}
	qn, err := s.store.GetQuestionnaire(params.QuestionnaireID)
	if err != nil {
		return nil, err
	}
	if qn == nil {
		return nil, NewNotFoundError("questionnaire not found")
	}
	format := params.Format
	if format == "" {
		format = "responses"
	}
	switch format {
	case "responses":
		rows, err := s.buildResponseRows(params.QuestionnaireID)
		if err != nil {
			return nil, err
		}
		b, err := ExportResponsesCSV(rows)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "responses.csv", ContentType: csvContentType, Data: b}, nil
	case "assessments":
		rows, err := s.buildAssessmentRows(params.QuestionnaireID)
		if err != nil {
			return nil, err
		}
		b, err := ExportAssessmentsCSV(rows)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "assessments.csv", ContentType: csvContentType, Data: b}, nil
	case "category_scores":
		rows, err := s.buildCategoryRows(params.QuestionnaireID)
		if err != nil {
			return nil, err
		}
		b, err := ExportCategoryScoresCSV(rows)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "category_scores.csv", ContentType: csvContentType, Data: b}, nil
	default:
		return nil, NewInvalidError("unsupported format")
	}
}

func (s *ExportService) buildResponseRows(questionnaireID string) ([]ResponseRow, error) {
	questions, err := s.store.ListQuestions(questionnaireID)
	if err != nil {
		return nil, err
	}
	qByID := make(map[string]*Question, len(questions))
	for _, q := range questions {
		qByID[q.ID] = q
	}
	responses, err := s.store.ListResponsesByQuestionnaire(questionnaireID)
	if err != nil {
		return nil, err
	}
	out := make([]ResponseRow, 0, len(responses))
	for _, r := range responses {
		answer := ""
		if q := qByID[r.QuestionID]; q != nil {
			answer = renderAnswer(q, r)
		}
		out = append(out, ResponseRow{
			AssessmentID: r.AssessmentID,
			QuestionID:   r.QuestionID,
			Answer:       answer,
			Score:        r.Score,
			SubmittedAt:  r.SubmittedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

func (s *ExportService) buildAssessmentRows(questionnaireID string) ([]AssessmentRow, error) {
	assessments, err := s.store.ListAssessmentsByQuestionnaire(questionnaireID)
	if err != nil {
		return nil, err
	}
	out := make([]AssessmentRow, 0, len(assessments))
	for _, a := range assessments {
		name := a.EnterpriseID
		if ent, err := s.store.GetEnterprise(a.EnterpriseID); err == nil && ent != nil {
			name = ent.BusinessName
		}
		completed := ""
		if a.CompletedAt != nil {
			completed = a.CompletedAt.Format(time.RFC3339)
		}
		out = append(out, AssessmentRow{
			ID:          a.ID,
			Enterprise:  name,
			FiscalYear:  a.FiscalYear,
			Status:      a.Status,
			TotalScore:  a.TotalScore,
			MaxScore:    a.MaxPossibleScore,
			Percentage:  a.PercentageScore,
			CompletedAt: completed,
		})
	}
	return out, nil
}

func (s *ExportService) buildCategoryRows(questionnaireID string) ([]CategoryScoreRow, error) {
	categories, err := s.store.ListCategories()
	if err != nil {
		return nil, err
	}
	nameByID := make(map[string]string, len(categories))
	for _, c := range categories {
		nameByID[c.ID] = c.Name
	}
	assessments, err := s.store.ListAssessmentsByQuestionnaire(questionnaireID)
	if err != nil {
		return nil, err
	}
	var out []CategoryScoreRow
	for _, a := range assessments {
		scores, err := s.store.ListCategoryScores(a.ID)
		if err != nil {
			return nil, err
		}
		for _, cs := range scores {
			name := cs.CategoryID
			if n, ok := nameByID[cs.CategoryID]; ok {
				name = n
			}
			out = append(out, CategoryScoreRow{
				AssessmentID: a.ID,
				Category:     name,
				Score:        cs.Score,
				MaxScore:     cs.MaxScore,
				Percentage:   cs.Percentage,
			})
		}
	}
	return out, nil
}
