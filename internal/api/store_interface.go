package api

import "github.com/soaringjerry/Kivu/internal/services"

// Store is the union of the persistence surfaces the services need. Both the
// in-memory store and the sqlite store implement it; each service only sees
// its own narrow slice.
type Store interface {
	// accounts and profiles
	FindUserByEmail(email string) (*services.User, error)
	AddUser(u *services.User) error
	AddEnterprise(e *services.Enterprise) error
	AddInvestor(i *services.Investor) error
	GetEnterprise(id string) (*services.Enterprise, error)
	GetInvestor(id string) (*services.Investor, error)

	// categories and questionnaires
	InsertCategory(c *services.Category) (*services.Category, error)
	UpdateCategory(c *services.Category) error
	GetCategory(id string) (*services.Category, error)
	ListCategories() ([]*services.Category, error)
	InsertQuestionnaire(q *services.Questionnaire) (*services.Questionnaire, error)
	GetQuestionnaire(id string) (*services.Questionnaire, error)
	UpdateQuestionnaire(q *services.Questionnaire) error
	ListQuestionnaires() ([]*services.Questionnaire, error)
	InsertQuestion(q *services.Question) (*services.Question, error)
	UpdateQuestion(q *services.Question) error
	DeleteQuestion(id string) error
	ListQuestions(questionnaireID string) ([]*services.Question, error)

	// assessments
	InsertAssessment(a *services.Assessment) (*services.Assessment, error)
	GetAssessment(id string) (*services.Assessment, error)
	UpdateAssessment(a *services.Assessment) error
	ListAssessmentsByEnterprise(enterpriseID string) ([]*services.Assessment, error)
	ListAssessmentsByQuestionnaire(questionnaireID string) ([]*services.Assessment, error)
	UpsertResponse(r *services.AssessmentResponse) error
	ListResponses(assessmentID string) ([]*services.AssessmentResponse, error)
	ListResponsesByQuestionnaire(questionnaireID string) ([]*services.AssessmentResponse, error)
	ReplaceCategoryScores(assessmentID string, scores []services.CategoryScore) error
	ListCategoryScores(assessmentID string) ([]services.CategoryScore, error)
	ReplaceRecommendations(assessmentID, source string, recs []*services.Recommendation) error
	ListRecommendations(assessmentID string) ([]*services.Recommendation, error)

	// investor criteria
	InsertCriteria(c *services.InvestorCriteria) (*services.InvestorCriteria, error)
	GetCriteria(id string) (*services.InvestorCriteria, error)
	UpdateCriteria(c *services.InvestorCriteria) error
	ListCriteria(investorID string) ([]*services.InvestorCriteria, error)

	// campaigns
	InsertCampaign(c *services.Campaign) (*services.Campaign, error)
	GetCampaign(id string) (*services.Campaign, error)
	UpdateCampaign(c *services.Campaign) error
	ListCampaignsByEnterprise(enterpriseID string) ([]*services.Campaign, error)
	ListCampaignsByStatus(statuses ...string) ([]*services.Campaign, error)

	// matches
	InsertMatch(m *services.Match) (*services.Match, error)
	GetMatch(id string) (*services.Match, error)
	FindMatch(investorID, campaignID string) (*services.Match, error)
	UpdateMatch(m *services.Match) error
	ListMatchesByInvestor(investorID string) ([]*services.Match, error)
	ListMatchesByEnterprise(enterpriseID string) ([]*services.Match, error)
	InsertInteraction(i *services.MatchInteraction) error
	ListInteractions(matchID string) ([]*services.MatchInteraction, error)

	AddAudit(entry services.AuditEntry)
	ListAudit() []services.AuditEntry
}

// Every service store interface must be a subset of Store.
var (
	_ services.AuthStore          = Store(nil)
	_ services.QuestionnaireStore = Store(nil)
	_ services.AssessmentStore    = Store(nil)
	_ services.CriteriaStore      = Store(nil)
	_ services.CampaignStore      = Store(nil)
	_ services.MatchStore         = Store(nil)
	_ services.AnalyticsStore     = Store(nil)
	_ services.ExportStore        = Store(nil)

	_ Store = (*memoryStore)(nil)
)
