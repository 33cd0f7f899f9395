package api

import (
	"sort"
	"strings"
	"sync"

	"github.com/soaringjerry/Kivu/internal/services"
)

// memoryStore keeps everything in maps guarded by one RWMutex. It backs tests
// and local development; deployments use the sqlite store.
type memoryStore struct {
	mu sync.RWMutex

	usersByEmail map[string]*services.User
	enterprises  map[string]*services.Enterprise
	investors    map[string]*services.Investor

	categories     map[string]*services.Category
	questionnaires map[string]*services.Questionnaire
	questions      map[string]*services.Question

	assessments     map[string]*services.Assessment
	responses       map[string]map[string]*services.AssessmentResponse // assessmentID -> questionID
	categoryScores  map[string][]services.CategoryScore
	recommendations map[string][]*services.Recommendation

	criteria  map[string]*services.InvestorCriteria
	campaigns map[string]*services.Campaign

	matches      map[string]*services.Match
	interactions map[string][]*services.MatchInteraction

	audit []services.AuditEntry
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store { return newMemoryStore() }

func newMemoryStore() *memoryStore {
	return &memoryStore{
		usersByEmail:    map[string]*services.User{},
		enterprises:     map[string]*services.Enterprise{},
		investors:       map[string]*services.Investor{},
		categories:      map[string]*services.Category{},
		questionnaires:  map[string]*services.Questionnaire{},
		questions:       map[string]*services.Question{},
		assessments:     map[string]*services.Assessment{},
		responses:       map[string]map[string]*services.AssessmentResponse{},
		categoryScores:  map[string][]services.CategoryScore{},
		recommendations: map[string][]*services.Recommendation{},
		criteria:        map[string]*services.InvestorCriteria{},
		campaigns:       map[string]*services.Campaign{},
		matches:         map[string]*services.Match{},
		interactions:    map[string][]*services.MatchInteraction{},
	}
}

// accounts and profiles

func (s *memoryStore) FindUserByEmail(email string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usersByEmail[strings.ToLower(email)], nil
}

func (s *memoryStore) AddUser(u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByEmail[strings.ToLower(u.Email)] = u
	return nil
}

func (s *memoryStore) AddEnterprise(e *services.Enterprise) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enterprises[e.ID] = e
	return nil
}

func (s *memoryStore) AddInvestor(i *services.Investor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.investors[i.ID] = i
	return nil
}

func (s *memoryStore) GetEnterprise(id string) (*services.Enterprise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enterprises[id], nil
}

func (s *memoryStore) GetInvestor(id string) (*services.Investor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.investors[id], nil
}

// categories and questionnaires

func (s *memoryStore) InsertCategory(c *services.Category) (*services.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return c, nil
}

func (s *memoryStore) UpdateCategory(c *services.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *memoryStore) GetCategory(id string) (*services.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories[id], nil
}

func (s *memoryStore) ListCategories() ([]*services.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memoryStore) InsertQuestionnaire(q *services.Questionnaire) (*services.Questionnaire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questionnaires[q.ID] = q
	return q, nil
}

func (s *memoryStore) GetQuestionnaire(id string) (*services.Questionnaire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questionnaires[id], nil
}

func (s *memoryStore) UpdateQuestionnaire(q *services.Questionnaire) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questionnaires[q.ID] = q
	return nil
}

func (s *memoryStore) ListQuestionnaires() ([]*services.Questionnaire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Questionnaire, 0, len(s.questionnaires))
	for _, q := range s.questionnaires {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) InsertQuestion(q *services.Question) (*services.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = q
	return q, nil
}

func (s *memoryStore) UpdateQuestion(q *services.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = q
	return nil
}

func (s *memoryStore) DeleteQuestion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.questions, id)
	return nil
}

func (s *memoryStore) ListQuestions(questionnaireID string) ([]*services.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Question{}
	for _, q := range s.questions {
		if q.QuestionnaireID == questionnaireID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// assessments

func (s *memoryStore) InsertAssessment(a *services.Assessment) (*services.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.ID] = a
	return a, nil
}

func (s *memoryStore) GetAssessment(id string) (*services.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assessments[id], nil
}

func (s *memoryStore) UpdateAssessment(a *services.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.ID] = a
	return nil
}

func (s *memoryStore) ListAssessmentsByEnterprise(enterpriseID string) ([]*services.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Assessment{}
	for _, a := range s.assessments {
		if a.EnterpriseID == enterpriseID {
			out = append(out, a)
		}
	}
	sortAssessments(out)
	return out, nil
}

func (s *memoryStore) ListAssessmentsByQuestionnaire(questionnaireID string) ([]*services.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Assessment{}
	for _, a := range s.assessments {
		if a.QuestionnaireID == questionnaireID {
			out = append(out, a)
		}
	}
	sortAssessments(out)
	return out, nil
}

func sortAssessments(as []*services.Assessment) {
	sort.Slice(as, func(i, j int) bool {
		if !as[i].CreatedAt.Equal(as[j].CreatedAt) {
			return as[i].CreatedAt.Before(as[j].CreatedAt)
		}
		return as[i].ID < as[j].ID
	})
}

func (s *memoryStore) UpsertResponse(r *services.AssessmentResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.responses[r.AssessmentID]
	if m == nil {
		m = map[string]*services.AssessmentResponse{}
		s.responses[r.AssessmentID] = m
	}
	if prev := m[r.QuestionID]; prev != nil && r.ID == "" {
		r.ID = prev.ID
	}
	m[r.QuestionID] = r
	return nil
}

func (s *memoryStore) ListResponses(assessmentID string) ([]*services.AssessmentResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listResponsesLocked(assessmentID), nil
}

func (s *memoryStore) listResponsesLocked(assessmentID string) []*services.AssessmentResponse {
	out := make([]*services.AssessmentResponse, 0, len(s.responses[assessmentID]))
	for _, r := range s.responses[assessmentID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

func (s *memoryStore) ListResponsesByQuestionnaire(questionnaireID string) ([]*services.AssessmentResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := []string{}
	for _, a := range s.assessments {
		if a.QuestionnaireID == questionnaireID {
			ids = append(ids, a.ID)
		}
	}
	sort.Strings(ids)
	out := []*services.AssessmentResponse{}
	for _, id := range ids {
		out = append(out, s.listResponsesLocked(id)...)
	}
	return out, nil
}

func (s *memoryStore) ReplaceCategoryScores(assessmentID string, scores []services.CategoryScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categoryScores[assessmentID] = append([]services.CategoryScore(nil), scores...)
	return nil
}

func (s *memoryStore) ListCategoryScores(assessmentID string) ([]services.CategoryScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]services.CategoryScore(nil), s.categoryScores[assessmentID]...), nil
}

// ReplaceRecommendations swaps the recommendations of one source while
// leaving the other source untouched, so rule-based and AI-generated sets
// can be regenerated independently.
func (s *memoryStore) ReplaceRecommendations(assessmentID, source string, recs []*services.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := []*services.Recommendation{}
	for _, r := range s.recommendations[assessmentID] {
		if r.Source != source {
			kept = append(kept, r)
		}
	}
	s.recommendations[assessmentID] = append(kept, recs...)
	return nil
}

func (s *memoryStore) ListRecommendations(assessmentID string) ([]*services.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*services.Recommendation(nil), s.recommendations[assessmentID]...), nil
}

// investor criteria

func (s *memoryStore) InsertCriteria(c *services.InvestorCriteria) (*services.InvestorCriteria, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria[c.ID] = c
	return c, nil
}

func (s *memoryStore) GetCriteria(id string) (*services.InvestorCriteria, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria[id], nil
}

func (s *memoryStore) UpdateCriteria(c *services.InvestorCriteria) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria[c.ID] = c
	return nil
}

func (s *memoryStore) ListCriteria(investorID string) ([]*services.InvestorCriteria, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.InvestorCriteria{}
	for _, c := range s.criteria {
		if c.InvestorID == investorID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// campaigns

func (s *memoryStore) InsertCampaign(c *services.Campaign) (*services.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = c
	return c, nil
}

func (s *memoryStore) GetCampaign(id string) (*services.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.campaigns[id], nil
}

func (s *memoryStore) UpdateCampaign(c *services.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = c
	return nil
}

func (s *memoryStore) ListCampaignsByEnterprise(enterpriseID string) ([]*services.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Campaign{}
	for _, c := range s.campaigns {
		if c.EnterpriseID == enterpriseID {
			out = append(out, c)
		}
	}
	sortCampaigns(out)
	return out, nil
}

func (s *memoryStore) ListCampaignsByStatus(statuses ...string) ([]*services.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := map[string]bool{}
	for _, st := range statuses {
		want[st] = true
	}
	out := []*services.Campaign{}
	for _, c := range s.campaigns {
		if want[c.Status] {
			out = append(out, c)
		}
	}
	sortCampaigns(out)
	return out, nil
}

func sortCampaigns(cs []*services.Campaign) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return cs[i].ID < cs[j].ID
	})
}

// matches

func (s *memoryStore) InsertMatch(m *services.Match) (*services.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
	return m, nil
}

func (s *memoryStore) GetMatch(id string) (*services.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matches[id], nil
}

func (s *memoryStore) FindMatch(investorID, campaignID string) (*services.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.matches {
		if m.InvestorID == investorID && m.CampaignID == campaignID {
			return m, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) UpdateMatch(m *services.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
	return nil
}

func (s *memoryStore) ListMatchesByInvestor(investorID string) ([]*services.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Match{}
	for _, m := range s.matches {
		if m.InvestorID == investorID {
			out = append(out, m)
		}
	}
	sortMatches(out)
	return out, nil
}

func (s *memoryStore) ListMatchesByEnterprise(enterpriseID string) ([]*services.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Match{}
	for _, m := range s.matches {
		if m.EnterpriseID == enterpriseID {
			out = append(out, m)
		}
	}
	sortMatches(out)
	return out, nil
}

func sortMatches(ms []*services.Match) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].CreatedAt.Before(ms[j].CreatedAt)
		}
		return ms[i].ID < ms[j].ID
	})
}

func (s *memoryStore) InsertInteraction(i *services.MatchInteraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions[i.MatchID] = append(s.interactions[i.MatchID], i)
	return nil
}

func (s *memoryStore) ListInteractions(matchID string) ([]*services.MatchInteraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*services.MatchInteraction(nil), s.interactions[matchID]...), nil
}

// audit log

func (s *memoryStore) AddAudit(e services.AuditEntry) {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.mu.Unlock()
}

func (s *memoryStore) ListAudit() []services.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]services.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}
