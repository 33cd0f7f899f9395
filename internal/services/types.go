package services

import "time"

// Question types supported by the assessment engine.
const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionSingleChoice   = "single_choice"
	QuestionText           = "text"
	QuestionNumber         = "number"
	QuestionFileUpload     = "file_upload"
	QuestionScale          = "scale"
)

// Assessment lifecycle statuses.
const (
	AssessmentDraft      = "draft"
	AssessmentInProgress = "in_progress"
	AssessmentCompleted  = "completed"
	AssessmentReviewed   = "reviewed"
)

// Campaign statuses. A campaign doubles as the partner application: the
// declined status is set by auto-screening at submission time.
const (
	CampaignDraft     = "draft"
	CampaignSubmitted = "submitted"
	CampaignDeclined  = "declined"
	CampaignApproved  = "approved"
	CampaignActive    = "active"
	CampaignCompleted = "completed"
	CampaignCancelled = "cancelled"
)

// Match statuses.
const (
	MatchPending   = "pending"
	MatchApproved  = "approved"
	MatchEngaged   = "engaged"
	MatchCompleted = "completed"
	MatchRejected  = "rejected"
	MatchWithdrawn = "withdrawn"
)

// Recommendation priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Actor roles resolved once per request from the auth token.
const (
	RoleEnterprise = "enterprise"
	RoleInvestor   = "investor"
	RoleAdmin      = "admin"
)

// Actor identifies the caller of a service operation. Exactly one of
// EnterpriseID / InvestorID is set for non-admin roles.
type Actor struct {
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	EnterpriseID string `json:"enterprise_id,omitempty"`
	InvestorID   string `json:"investor_id,omitempty"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

type Enterprise struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id,omitempty"`
	BusinessName      string  `json:"business_name"`
	Sector            string  `json:"sector"`
	EnterpriseSize    string  `json:"enterprise_size"`
	EnterpriseType    string  `json:"enterprise_type,omitempty"`
	District          string  `json:"district,omitempty"`
	YearEstablished   int     `json:"year_established,omitempty"`
	NumberOfEmployees int     `json:"number_of_employees,omitempty"`
	AnnualRevenue     float64 `json:"annual_revenue,omitempty"`
	Description       string  `json:"description,omitempty"`
	Vetted            bool    `json:"vetted,omitempty"`
}

type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Weight      float64 `json:"weight"`
	Active      bool    `json:"active"`
}

// Questionnaire targets a subset of enterprises. Empty targeting lists match
// everyone; non-empty lists are conjunctive (all listed criteria must hold).
type Questionnaire struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description,omitempty"`
	Version              string    `json:"version,omitempty"`
	Language             string    `json:"language,omitempty"`
	Active               bool      `json:"active"`
	TargetSectors        []string  `json:"target_sectors,omitempty"`
	TargetSizes          []string  `json:"target_sizes,omitempty"`
	TargetDistricts      []string  `json:"target_districts,omitempty"`
	MinEmployees         int       `json:"min_employees,omitempty"`
	MaxEmployees         int       `json:"max_employees,omitempty"`
	EstimatedTimeMinutes int       `json:"estimated_time_minutes,omitempty"`
	CreatedBy            string    `json:"created_by,omitempty"`
	CreatedAt            time.Time `json:"created_at,omitempty"`
}

type QuestionOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Score int    `json:"score"`
	Order int    `json:"order,omitempty"`
}

type Question struct {
	ID              string           `json:"id"`
	QuestionnaireID string           `json:"questionnaire_id"`
	CategoryID      string           `json:"category_id"`
	Text            string           `json:"text"`
	Type            string           `json:"type"`
	Required        bool             `json:"required,omitempty"`
	Order           int              `json:"order,omitempty"`
	MaxScore        int              `json:"max_score"`
	Options         []QuestionOption `json:"options,omitempty"`
}

type Assessment struct {
	ID              string `json:"id"`
	EnterpriseID    string `json:"enterprise_id"`
	QuestionnaireID string `json:"questionnaire_id"`
	FiscalYear      int    `json:"fiscal_year"`
	Status          string `json:"status"`

	// Derived totals, recomputed wholesale on each scoring pass.
	TotalScore       float64 `json:"total_score"`
	MaxPossibleScore float64 `json:"max_possible_score"`
	PercentageScore  float64 `json:"percentage_score"`

	AIStrengths         []string   `json:"ai_strengths,omitempty"`
	AIWeaknesses        []string   `json:"ai_weaknesses,omitempty"`
	InsightsGeneratedAt *time.Time `json:"insights_generated_at,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy  string     `json:"reviewed_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at,omitempty"`
}

// AssessmentResponse holds one answer payload matching the question type.
// Score is persisted so manual overrides survive later aggregation passes.
type AssessmentResponse struct {
	ID                string     `json:"id"`
	AssessmentID      string     `json:"assessment_id"`
	QuestionID        string     `json:"question_id"`
	SelectedOptionIDs []string   `json:"selected_option_ids,omitempty"`
	TextResponse      string     `json:"text_response,omitempty"`
	NumberResponse    *float64   `json:"number_response,omitempty"`
	FileRef           string     `json:"file_ref,omitempty"`
	Score             float64    `json:"score"`
	OverriddenBy      string     `json:"overridden_by,omitempty"`
	OverriddenAt      *time.Time `json:"overridden_at,omitempty"`
	SubmittedAt       time.Time  `json:"submitted_at,omitempty"`
}

type CategoryScore struct {
	AssessmentID string  `json:"assessment_id"`
	CategoryID   string  `json:"category_id"`
	Score        float64 `json:"score"`
	MaxScore     float64 `json:"max_score"`
	Percentage   float64 `json:"percentage"`
}

type Recommendation struct {
	ID               string `json:"id"`
	AssessmentID     string `json:"assessment_id"`
	CategoryID       string `json:"category_id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Priority         string `json:"priority"`
	SuggestedActions string `json:"suggested_actions,omitempty"`
	Source           string `json:"source,omitempty"` // "rules" or "ai"
}

type Investor struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id,omitempty"`
	OrganizationName string  `json:"organization_name,omitempty"`
	InvestorType     string  `json:"investor_type,omitempty"`
	MinInvestment    float64 `json:"min_investment,omitempty"`
	MaxInvestment    float64 `json:"max_investment,omitempty"`
	Active           bool    `json:"active"`
}

// InvestorCriteria is a declared matching preference set. At most one set is
// active per investor; activating a set deactivates the others.
type InvestorCriteria struct {
	ID                   string    `json:"id"`
	InvestorID           string    `json:"investor_id"`
	Sectors              []string  `json:"sectors,omitempty"`
	MinFundingAmount     float64   `json:"min_funding_amount,omitempty"`
	MaxFundingAmount     float64   `json:"max_funding_amount,omitempty"`
	MinReadinessScore    float64   `json:"min_readiness_score,omitempty"`
	AutoRejectBelowScore *float64  `json:"auto_reject_below_score,omitempty"`
	PreferredSizes       []string  `json:"preferred_sizes,omitempty"`
	MinYearsOperation    int       `json:"min_years_operation,omitempty"`
	MinEmployees         int       `json:"min_employees,omitempty"`
	Active               bool      `json:"active"`
	CreatedAt            time.Time `json:"created_at,omitempty"`
}

type Campaign struct {
	ID            string  `json:"id"`
	EnterpriseID  string  `json:"enterprise_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	CampaignType  string  `json:"campaign_type,omitempty"`
	TargetAmount  float64 `json:"target_amount"`
	MinInvestment float64 `json:"min_investment,omitempty"`
	MaxInvestment float64 `json:"max_investment,omitempty"`
	AmountRaised  float64 `json:"amount_raised"`
	InvestorCount int     `json:"investor_count,omitempty"`
	Status        string  `json:"status"`

	// Empty means open to all investors.
	TargetInvestorIDs []string `json:"target_investor_ids,omitempty"`

	// Snapshot captured once at submission; never recomputed afterwards.
	ReadinessScoreAtSubmission *float64 `json:"readiness_score_at_submission,omitempty"`
	PassedAutoScreening        bool     `json:"passed_auto_screening,omitempty"`
	DeclineReason              string   `json:"decline_reason,omitempty"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	VettedBy    string     `json:"vetted_by,omitempty"`
	VettedAt    *time.Time `json:"vetted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at,omitempty"`
}

type Match struct {
	ID           string  `json:"id"`
	InvestorID   string  `json:"investor_id"`
	CampaignID   string  `json:"campaign_id"`
	EnterpriseID string  `json:"enterprise_id"`
	Score        float64 `json:"score"`
	Status       string  `json:"status"`

	InvestorApproved   bool   `json:"investor_approved,omitempty"`
	EnterpriseAccepted bool   `json:"enterprise_accepted,omitempty"`
	InvestorNotes      string `json:"investor_notes,omitempty"`
	EnterpriseNotes    string `json:"enterprise_notes,omitempty"`

	CommittedAmount *float64   `json:"committed_amount,omitempty"`
	CommittedAt     *time.Time `json:"committed_at,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type MatchInteraction struct {
	ID          string    `json:"id"`
	MatchID     string    `json:"match_id"`
	InitiatedBy string    `json:"initiated_by"`
	Type        string    `json:"type"`
	Content     string    `json:"content,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

type AuditEntry struct {
	Time   time.Time
	Actor  string
	Action string
	Target string
	Note   string
}

// Notifier delivers fire-and-forget signals on state transitions. Delivery
// failures are never surfaced to the triggering operation.
type Notifier interface {
	Notify(userID, event, title, message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(string, string, string, string) {}
