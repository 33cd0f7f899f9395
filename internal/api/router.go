package api

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/Kivu/internal/middleware"
	"github.com/soaringjerry/Kivu/internal/services"
)

// Router wires the HTTP surface to the service layer. Handlers stay thin:
// decode, resolve the actor, call one service method, encode.
type Router struct {
	store  Store
	logger *zap.Logger

	auth           *services.AuthService
	questionnaires *services.QuestionnaireService
	assessments    *services.AssessmentService
	investors      *services.InvestorService
	campaigns      *services.CampaignService
	matching       *services.MatchingService
	analytics      *services.AnalyticsService
	exports        *services.ExportService
	insights       *services.InsightsService
}

// Options carries optional router dependencies.
type Options struct {
	// InsightsGenerator enables the AI insights endpoint when non-nil.
	InsightsGenerator services.InsightsGenerator
	InsightsTimeout   time.Duration
}

func NewRouter(store Store, logger *zap.Logger, opts Options) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := NewLogNotifier(logger)
	assessments := services.NewAssessmentService(store, notifier)

	rt := &Router{
		store:          store,
		logger:         logger,
		auth:           services.NewAuthService(store, middleware.SignToken),
		questionnaires: services.NewQuestionnaireService(store),
		assessments:    assessments,
		investors:      services.NewInvestorService(store),
		campaigns:      services.NewCampaignService(store, assessments, notifier),
		matching:       services.NewMatchingService(store, notifier),
		analytics:      services.NewAnalyticsService(store),
		exports:        services.NewExportService(store),
	}
	if opts.InsightsGenerator != nil {
		rt.insights = services.NewInsightsService(store, opts.InsightsGenerator, opts.InsightsTimeout)
	}
	return rt
}

// EnsureAdmin bootstraps an operator account. No-op when the email is taken.
func (rt *Router) EnsureAdmin(email, password string) error {
	return rt.auth.EnsureAdmin(email, password)
}

// Handler returns the fully assembled HTTP handler with the middleware chain
// applied.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	rt.Register(mux)
	var h http.Handler = mux
	h = middleware.WithAuth(h)
	h = middleware.CORS(h)
	h = middleware.NoStore(h)
	h = middleware.SecureHeaders(h)
	return h
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register/enterprise", rt.handleRegisterEnterprise)
	mux.HandleFunc("/api/auth/register/investor", rt.handleRegisterInvestor)
	mux.HandleFunc("/api/auth/login", rt.handleLogin)

	protected := func(path string, h http.HandlerFunc) {
		mux.Handle(path, middleware.RequireAuth(h))
	}
	protected("/api/categories", rt.handleCategories)
	protected("/api/categories/", rt.handleCategoryScoped)
	protected("/api/questionnaires", rt.handleQuestionnaires)
	protected("/api/questionnaires/", rt.handleQuestionnaireScoped)
	protected("/api/assessments", rt.handleAssessments)
	protected("/api/assessments/", rt.handleAssessmentScoped)
	protected("/api/criteria", rt.handleCriteria)
	protected("/api/criteria/", rt.handleCriteriaScoped)
	protected("/api/campaigns", rt.handleCampaigns)
	protected("/api/campaigns/review", rt.handleCampaignReview)
	protected("/api/campaigns/", rt.handleCampaignScoped)
	protected("/api/matches", rt.handleMatches)
	protected("/api/matches/recommendations", rt.handleRecommendations)
	protected("/api/matches/", rt.handleMatchScoped)
	// discovery alias used by the investor dashboard
	protected("/api/opportunities", rt.handleRecommendations)
	protected("/api/analytics/summary", rt.handleAnalyticsSummary)
	protected("/api/export", rt.handleExport)
}

// actorFrom maps verified token claims onto a service actor.
func actorFrom(r *http.Request) (services.Actor, bool) {
	c, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return services.Actor{}, false
	}
	a := services.Actor{UserID: c.UID, Role: c.Role}
	switch c.Role {
	case services.RoleEnterprise:
		a.EnterpriseID = c.PID
	case services.RoleInvestor:
		a.InvestorID = c.PID
	}
	return a, true
}

func (rt *Router) actor(w http.ResponseWriter, r *http.Request) (services.Actor, bool) {
	a, ok := actorFrom(r)
	if !ok {
		rt.writeError(w, r, services.NewUnauthorizedError("authentication required"))
	}
	return a, ok
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "invalid", "message": "method not allowed"})
}

// pathParts splits the request path after the given prefix.
func pathParts(r *http.Request, prefix string) []string {
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// --- auth ---

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	ProfileID string `json:"profile_id,omitempty"`
}

func toAuthResponse(res *services.AuthResult) authResponse {
	return authResponse{Token: res.Token, UserID: res.UserID, Role: res.Role, ProfileID: res.ProfileID}
}

// POST /api/auth/register/enterprise
func (rt *Router) handleRegisterEnterprise(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		registerRequest
		Profile *services.Enterprise `json:"profile"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.auth.RegisterEnterprise(req.Email, req.Password, req.Profile)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAuthResponse(res))
}

// POST /api/auth/register/investor
func (rt *Router) handleRegisterInvestor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		registerRequest
		Profile *services.Investor `json:"profile"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.auth.RegisterInvestor(req.Email, req.Password, req.Profile)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAuthResponse(res))
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(res))
}

// --- categories ---

// GET|POST /api/categories
func (rt *Router) handleCategories(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		cats, err := rt.questionnaires.ListCategories()
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cats)
	case http.MethodPost:
		var c services.Category
		if err := decodeJSON(r, &c); err != nil {
			rt.writeError(w, r, err)
			return
		}
		out, err := rt.questionnaires.CreateCategory(actor, &c)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	default:
		methodNotAllowed(w)
	}
}

// PUT /api/categories/{id}
func (rt *Router) handleCategoryScoped(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	parts := pathParts(r, "/api/categories/")
	if len(parts) != 1 || r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	var c services.Category
	if err := decodeJSON(r, &c); err != nil {
		rt.writeError(w, r, err)
		return
	}
	c.ID = parts[0]
	if err := rt.questionnaires.UpdateCategory(actor, &c); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// --- questionnaires ---

// GET|POST /api/questionnaires
func (rt *Router) handleQuestionnaires(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		var (
			qs  []*services.Questionnaire
			err error
		)
		if actor.IsAdmin() {
			qs, err = rt.questionnaires.List(actor)
		} else if actor.EnterpriseID != "" {
			qs, err = rt.questionnaires.ListForEnterprise(actor.EnterpriseID)
		} else {
			err = services.NewForbiddenError("enterprise or admin role required")
		}
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, qs)
	case http.MethodPost:
		var q services.Questionnaire
		if err := decodeJSON(r, &q); err != nil {
			rt.writeError(w, r, err)
			return
		}
		out, err := rt.questionnaires.Create(actor, &q)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	default:
		methodNotAllowed(w)
	}
}

// /api/questionnaires/{id}[/questions[/{qid}]|/analytics]
func (rt *Router) handleQuestionnaireScoped(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	parts := pathParts(r, "/api/questionnaires/")
	if len(parts) == 0 {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			qn, err := rt.questionnaires.Get(id)
			if err != nil {
				rt.writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, qn)
		case http.MethodPut:
			var q services.Questionnaire
			if err := decodeJSON(r, &q); err != nil {
				rt.writeError(w, r, err)
				return
			}
			q.ID = id
			if err := rt.questionnaires.Update(actor, &q); err != nil {
				rt.writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, q)
		default:
			methodNotAllowed(w)
		}
		return
	}

	switch parts[1] {
	case "questions":
		switch {
		case len(parts) == 2 && r.Method == http.MethodGet:
			qs, err := rt.questionnaires.ListQuestions(id)
			if err != nil {
				rt.writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, qs)
		case len(parts) == 2 && r.Method == http.MethodPost:
			var q services.Question
			if err := decodeJSON(r, &q); err != nil {
				rt.writeError(w, r, err)
				return
			}
			q.QuestionnaireID = id
			out, err := rt.questionnaires.AddQuestion(actor, &q)
			if err != nil {
				rt.writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, out)
		case len(parts) == 3 && r.Method == http.MethodDelete:
			if err := rt.questionnaires.DeleteQuestion(actor, id, parts[2]); err != nil {
				rt.writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		default:
			http.NotFound(w, r)
		}
	case "analytics":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		sum, err := rt.analytics.Summary(actor, id)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	default:
		http.NotFound(w, r)
	}
}

// GET /api/analytics/summary?questionnaire_id=...
func (rt *Router) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sum, err := rt.analytics.Summary(actor, r.URL.Query().Get("questionnaire_id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// --- assessments ---

// GET|POST /api/assessments
func (rt *Router) handleAssessments(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		enterpriseID := r.URL.Query().Get("enterprise_id")
		if enterpriseID == "" {
			enterpriseID = actor.EnterpriseID
		}
		as, err := rt.assessments.ListForEnterprise(actor, enterpriseID)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, as)
	case http.MethodPost:
		var req struct {
			QuestionnaireID string `json:"questionnaire_id"`
		}
		if err := decodeJSON(r, &req); err != nil {
			rt.writeError(w, r, err)
			return
		}
		a, err := rt.assessments.Create(actor, req.QuestionnaireID)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	default:
		methodNotAllowed(w)
	}
}

// /api/assessments/{id}[/start|/responses|/submit|/review|/override-score|/insights]
func (rt *Router) handleAssessmentScoped(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	parts := pathParts(r, "/api/assessments/")
	if len(parts) == 0 {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		detail, err := rt.assessments.Get(actor, id)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
		return
	}
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}

	switch parts[1] {
	case "start":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		rt.respondAssessment(w, r)(rt.assessments.Start(actor, id))
	case "responses":
		if r.Method != http.MethodPut {
			methodNotAllowed(w)
			return
		}
		var req struct {
			Answers []services.AnswerInput `json:"answers"`
		}
		if err := decodeJSON(r, &req); err != nil {
			rt.writeError(w, r, err)
			return
		}
		rt.respondAssessment(w, r)(rt.assessments.SaveResponses(actor, id, req.Answers))
	case "submit":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		rt.respondAssessment(w, r)(rt.assessments.Submit(actor, id))
	case "review":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		rt.respondAssessment(w, r)(rt.assessments.Review(actor, id))
	case "override-score":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req struct {
			QuestionID string  `json:"question_id"`
			Score      float64 `json:"score"`
		}
		if err := decodeJSON(r, &req); err != nil {
			rt.writeError(w, r, err)
			return
		}
		rt.respondAssessment(w, r)(rt.assessments.OverrideResponseScore(actor, id, req.QuestionID, req.Score))
	case "insights":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if rt.insights == nil {
			rt.writeError(w, r, services.NewBadGatewayError("insights generator not configured"))
			return
		}
		out, err := rt.insights.Generate(r.Context(), actor, id)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	default:
		http.NotFound(w, r)
	}
}

func (rt *Router) respondAssessment(w http.ResponseWriter, r *http.Request) func(*services.Assessment, error) {
	return func(a *services.Assessment, err error) {
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// --- investor criteria ---

// GET|POST /api/criteria
func (rt *Router) handleCriteria(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		investorID := r.URL.Query().Get("investor_id")
		if investorID == "" {
			investorID = actor.InvestorID
		}
		cs, err := rt.investors.ListCriteria(actor, investorID)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cs)
	case http.MethodPost:
		var c services.InvestorCriteria
		if err := decodeJSON(r, &c); err != nil {
			rt.writeError(w, r, err)
			return
		}
		out, err := rt.investors.CreateCriteria(actor, &c)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	default:
		methodNotAllowed(w)
	}
}

// PUT /api/criteria/{id}, POST /api/criteria/{id}/activate
func (rt *Router) handleCriteriaScoped(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	parts := pathParts(r, "/api/criteria/")
	switch {
	case len(parts) == 1 && r.Method == http.MethodPut:
		var c services.InvestorCriteria
		if err := decodeJSON(r, &c); err != nil {
			rt.writeError(w, r, err)
			return
		}
		c.ID = parts[0]
		if err := rt.investors.UpdateCriteria(actor, &c); err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case len(parts) == 2 && parts[1] == "activate" && r.Method == http.MethodPost:
		if err := rt.investors.ActivateCriteria(actor, parts[0]); err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.NotFound(w, r)
	}
}

// --- campaigns ---

// GET|POST /api/campaigns
func (rt *Router) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		enterpriseID := r.URL.Query().Get("enterprise_id")
		if enterpriseID == "" {
			enterpriseID = actor.EnterpriseID
		}
		cs, err := rt.campaigns.ListForEnterprise(actor, enterpriseID)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cs)
	case http.MethodPost:
		var c services.Campaign
		if err := decodeJSON(r, &c); err != nil {
			rt.writeError(w, r, err)
			return
		}
		out, err := rt.campaigns.Create(actor, &c)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	default:
		methodNotAllowed(w)
	}
}

// GET /api/campaigns/review — submitted campaigns awaiting a vetting decision.
func (rt *Router) handleCampaignReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	cs, err := rt.campaigns.ListPendingReview(actor)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// /api/campaigns/{id}[/submit|/approve|/decline|/activate|/cancel|/interest]
func (rt *Router) handleCampaignScoped(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	parts := pathParts(r, "/api/campaigns/")
	if len(parts) == 0 {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			c, err := rt.campaigns.Get(actor, id)
			if err != nil {
				rt.writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, c)
		case http.MethodPut:
			var c services.Campaign
			if err := decodeJSON(r, &c); err != nil {
				rt.writeError(w, r, err)
				return
			}
			c.ID = id
			if err := rt.campaigns.Update(actor, &c); err != nil {
				rt.writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, c)
		default:
			methodNotAllowed(w)
		}
		return
	}
	if len(parts) != 2 || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	if parts[1] == "interest" {
		var req struct {
			Notes string `json:"notes"`
		}
		if err := decodeJSON(r, &req); err != nil {
			rt.writeError(w, r, err)
			return
		}
		m, err := rt.matching.ExpressInterest(actor, id, req.Notes)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
		return
	}

	respond := func(c *services.Campaign, err error) {
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
	switch parts[1] {
	case "submit":
		respond(rt.campaigns.Submit(actor, id))
	case "approve":
		respond(rt.campaigns.Approve(actor, id))
	case "decline":
		var req struct {
			Reason string `json:"reason"`
		}
		if err := decodeJSON(r, &req); err != nil {
			rt.writeError(w, r, err)
			return
		}
		respond(rt.campaigns.Decline(actor, id, req.Reason))
	case "activate":
		respond(rt.campaigns.Activate(actor, id))
	case "cancel":
		respond(rt.campaigns.Cancel(actor, id))
	default:
		http.NotFound(w, r)
	}
}

// --- matches ---

// GET /api/matches/recommendations — ranked eligible campaigns for the
// calling investor.
func (rt *Router) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	rc, err := rt.matching.Recommendations(actor)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

// GET|POST /api/matches
func (rt *Router) handleMatches(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		var (
			ms  []*services.Match
			err error
		)
		switch {
		case r.URL.Query().Get("investor_id") != "":
			ms, err = rt.matching.ListForInvestor(actor, r.URL.Query().Get("investor_id"))
		case r.URL.Query().Get("enterprise_id") != "":
			ms, err = rt.matching.ListForEnterprise(actor, r.URL.Query().Get("enterprise_id"))
		case actor.InvestorID != "":
			ms, err = rt.matching.ListForInvestor(actor, actor.InvestorID)
		case actor.EnterpriseID != "":
			ms, err = rt.matching.ListForEnterprise(actor, actor.EnterpriseID)
		default:
			err = services.NewInvalidError("investor_id or enterprise_id required")
		}
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ms)
	case http.MethodPost:
		var req struct {
			CampaignID string `json:"campaign_id"`
			Notes      string `json:"notes"`
		}
		if err := decodeJSON(r, &req); err != nil {
			rt.writeError(w, r, err)
			return
		}
		m, err := rt.matching.ExpressInterest(actor, req.CampaignID, req.Notes)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	default:
		methodNotAllowed(w)
	}
}

// /api/matches/{id}[/interactions|/approve|/reject|/withdraw|/accept|/commit|/confirm-payment|/notes]
func (rt *Router) handleMatchScoped(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	parts := pathParts(r, "/api/matches/")
	if len(parts) == 0 {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		m, err := rt.matching.Get(actor, id)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
		return
	}
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}

	if parts[1] == "interactions" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		is, err := rt.matching.Interactions(actor, id)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, is)
		return
	}

	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	respond := func(m *services.Match, err error) {
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
	switch parts[1] {
	case "approve":
		respond(rt.matching.Approve(actor, id))
	case "reject":
		var req struct {
			Reason string `json:"reason"`
		}
		if err := decodeJSON(r, &req); err != nil {
			rt.writeError(w, r, err)
			return
		}
		respond(rt.matching.Reject(actor, id, req.Reason))
	case "withdraw":
		respond(rt.matching.Withdraw(actor, id))
	case "accept":
		var req struct {
			Notes string `json:"notes"`
		}
		if err := decodeJSON(r, &req); err != nil {
			rt.writeError(w, r, err)
			return
		}
		respond(rt.matching.Accept(actor, id, req.Notes))
	case "commit":
		var req struct {
			Amount float64 `json:"amount"`
		}
		if err := decodeJSON(r, &req); err != nil {
			rt.writeError(w, r, err)
			return
		}
		respond(rt.matching.Commit(actor, id, req.Amount))
	case "confirm-payment":
		respond(rt.matching.ConfirmPayment(actor, id))
	case "notes":
		var req struct {
			Content string `json:"content"`
		}
		if err := decodeJSON(r, &req); err != nil {
			rt.writeError(w, r, err)
			return
		}
		if err := rt.matching.AddNote(actor, id, req.Content); err != nil {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.NotFound(w, r)
	}
}

// --- export ---

// GET /api/export?questionnaire_id=...&format=responses|assessments|category_scores
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.actor(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	res, err := rt.exports.ExportCSV(actor, services.ExportParams{
		QuestionnaireID: r.URL.Query().Get("questionnaire_id"),
		Format:          r.URL.Query().Get("format"),
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+res.Filename)
	_, _ = w.Write(res.Data)
}
