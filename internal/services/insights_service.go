package services

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// maxResponsesInPrompt caps how many answers travel to the model.
const maxResponsesInPrompt = 15

// NamedCategoryScore pairs a category score with its display name for the
// prompt and API payloads.
type NamedCategoryScore struct {
	CategoryName string  `json:"category"`
	Score        float64 `json:"score"`
	MaxScore     float64 `json:"max_score"`
	Percentage   float64 `json:"percentage"`
}

// ResponseSummary is one answered question rendered for the model.
type ResponseSummary struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
}

// InsightsInput is everything the model sees about one assessment.
type InsightsInput struct {
	Enterprise     *Enterprise          `json:"enterprise"`
	Assessment     *Assessment          `json:"assessment"`
	CategoryScores []NamedCategoryScore `json:"category_scores"`
	Responses      []ResponseSummary    `json:"responses"`
}

// AIRecommendation is one model-proposed improvement, keyed by category name.
type AIRecommendation struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Priority         string `json:"priority"`
	SuggestedActions string `json:"suggested_actions"`
	Category         string `json:"category"`
}

// AIInsights is the validated model output.
type AIInsights struct {
	Strengths       []string           `json:"strengths"`
	Weaknesses      []string           `json:"weaknesses"`
	Recommendations []AIRecommendation `json:"recommendations"`
}

// InsightsGenerator produces insights from an assessment snapshot. The gemini
// package provides the production implementation.
type InsightsGenerator interface {
	GenerateInsights(ctx context.Context, input *InsightsInput) (*AIInsights, error)
}

// InsightsService runs the AI analysis path on completed assessments. The
// rule-based recommendations stay untouched; model output lands alongside
// them under its own source tag.
type InsightsService struct {
	store       AssessmentStore
	generator   InsightsGenerator
	timeout     time.Duration
	now         func() time.Time
	idGenerator func() string
}

func NewInsightsService(store AssessmentStore, generator InsightsGenerator, timeout time.Duration) *InsightsService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &InsightsService{
		store:       store,
		generator:   generator,
		timeout:     timeout,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: func() string { return shortID(12) },
	}
}

// Generate runs the model over a completed assessment and stores strengths,
// weaknesses and AI-sourced recommendations on success.
func (s *InsightsService) Generate(ctx context.Context, actor Actor, assessmentID string) (*AIInsights, error) {
	if s.generator == nil {
		return nil, NewInvalidError("ai insights are not configured")
	}
	a, err := s.store.GetAssessment(assessmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("assessment not found")
	}
	if !actor.IsAdmin() && actor.EnterpriseID != a.EnterpriseID {
		return nil, NewForbiddenError("forbidden")
	}
	if a.Status != AssessmentCompleted && a.Status != AssessmentReviewed {
		return nil, NewConflictError("assessment must be completed before analysis")
	}

	input, resolver, err := s.buildInput(a)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	insights, err := s.generator.GenerateInsights(ctx, input)
	if err != nil {
		return nil, NewBadGatewayError("ai analysis failed: " + err.Error())
	}
	if len(insights.Strengths) == 0 && len(insights.Weaknesses) == 0 && len(insights.Recommendations) == 0 {
		return nil, NewBadGatewayError("ai analysis returned no usable insights")
	}

	now := s.now()
	a.AIStrengths = insights.Strengths
	a.AIWeaknesses = insights.Weaknesses
	a.InsightsGeneratedAt = &now
	if err := s.store.UpdateAssessment(a); err != nil {
		return nil, err
	}

	recs := make([]*Recommendation, 0, len(insights.Recommendations))
	for _, air := range insights.Recommendations {
		rec := &Recommendation{
			ID:               s.idGenerator(),
			AssessmentID:     a.ID,
			Title:            air.Title,
			Description:      air.Description,
			Priority:         normalizePriority(air.Priority),
			SuggestedActions: air.SuggestedActions,
			Source:           "ai",
		}
		rec.CategoryID = resolver.resolve(air.Category)
		recs = append(recs, rec)
	}
	if err := s.store.ReplaceRecommendations(a.ID, "ai", recs); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: actor.UserID, Action: "generate_insights", Target: a.ID})
	return insights, nil
}

// categoryResolver maps a model-reported category name back onto a stored
// category. Matching is case-insensitive and tolerates partial names in
// either direction; when nothing matches, the assessment's first scored
// category is used so an AI recommendation never floats without one.
type categoryResolver struct {
	categories []*Category
	fallbackID string
}

func (cr categoryResolver) resolve(name string) string {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle != "" {
		for _, c := range cr.categories {
			have := strings.ToLower(c.Name)
			if have == needle || strings.Contains(have, needle) || strings.Contains(needle, have) {
				return c.ID
			}
		}
	}
	return cr.fallbackID
}

func (s *InsightsService) buildInput(a *Assessment) (*InsightsInput, categoryResolver, error) {
	var resolver categoryResolver
	ent, err := s.store.GetEnterprise(a.EnterpriseID)
	if err != nil {
		return nil, resolver, err
	}
	if ent == nil {
		return nil, resolver, NewNotFoundError("enterprise not found")
	}
	categories, err := s.store.ListCategories()
	if err != nil {
		return nil, resolver, err
	}
	resolver.categories = categories
	byID := make(map[string]*Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	scores, err := s.store.ListCategoryScores(a.ID)
	if err != nil {
		return nil, resolver, err
	}
	if len(scores) > 0 {
		resolver.fallbackID = scores[0].CategoryID
	}
	named := make([]NamedCategoryScore, 0, len(scores))
	for _, cs := range scores {
		name := cs.CategoryID
		if c := byID[cs.CategoryID]; c != nil {
			name = c.Name
		}
		named = append(named, NamedCategoryScore{
			CategoryName: name,
			Score:        cs.Score,
			MaxScore:     cs.MaxScore,
			Percentage:   cs.Percentage,
		})
	}
	questions, err := s.store.ListQuestions(a.QuestionnaireID)
	if err != nil {
		return nil, resolver, err
	}
	qByID := make(map[string]*Question, len(questions))
	for _, q := range questions {
		qByID[q.ID] = q
	}
	responses, err := s.store.ListResponses(a.ID)
	if err != nil {
		return nil, resolver, err
	}
	summaries := make([]ResponseSummary, 0, len(responses))
	for _, r := range responses {
		if len(summaries) == maxResponsesInPrompt {
			break
		}
		q := qByID[r.QuestionID]
		if q == nil {
			continue
		}
		summaries = append(summaries, ResponseSummary{
			Question: q.Text,
			Answer:   renderAnswer(q, r),
			Score:    r.Score,
			MaxScore: float64(q.MaxScore),
		})
	}
	return &InsightsInput{
		Enterprise:     ent,
		Assessment:     a,
		CategoryScores: named,
		Responses:      summaries,
	}, resolver, nil
}

func renderAnswer(q *Question, r *AssessmentResponse) string {
	switch q.Type {
	case QuestionSingleChoice, QuestionMultipleChoice:
		texts := make([]string, 0, len(r.SelectedOptionIDs))
		for _, id := range r.SelectedOptionIDs {
			for _, opt := range q.Options {
				if opt.ID == id {
					texts = append(texts, opt.Text)
					break
				}
			}
		}
		return strings.Join(texts, "; ")
	case QuestionNumber, QuestionScale:
		if r.NumberResponse == nil {
			return ""
		}
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", *r.NumberResponse), "0"), ".")
	case QuestionFileUpload:
		return r.FileRef
	default:
		return r.TextResponse
	}
}

func normalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}
