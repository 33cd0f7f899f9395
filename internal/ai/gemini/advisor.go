package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/soaringjerry/Kivu/internal/services"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Advisor turns a scored assessment into strengths, weaknesses and
// recommendations via the model. It implements services.InsightsGenerator.
type Advisor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewAdvisor(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Advisor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Advisor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Advisor) GenerateInsights(ctx context.Context, input *services.InsightsInput) (*services.AIInsights, error) {
	if input == nil || input.Assessment == nil {
		return nil, fmt.Errorf("assessment input is required")
	}

	profileJSON, err := json.MarshalIndent(input.Enterprise, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal enterprise payload: %w", err)
	}
	scoresPayload := map[string]any{
		"overall_percentage": input.Assessment.PercentageScore,
		"total_score":        input.Assessment.TotalScore,
		"max_possible_score": input.Assessment.MaxPossibleScore,
		"categories":         input.CategoryScores,
	}
	scoresJSON, err := json.MarshalIndent(scoresPayload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scores payload: %w", err)
	}
	responsesJSON, err := json.MarshalIndent(input.Responses, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal responses payload: %w", err)
	}

	prompt := buildPrompt(string(profileJSON), string(scoresJSON), string(responsesJSON))

	a.logger.Debug("gemini generate insights request",
		zap.String("assessment_id", input.Assessment.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", truncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini generate insights response",
		zap.String("assessment_id", input.Assessment.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", truncateForLog(raw, a.maxLogLen)),
	)

	return parseInsights(raw)
}

func buildPrompt(profileJSON, scoresJSON, responsesJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Enterprise:\n{{ENTERPRISE_JSON}}\n\nScores:\n{{SCORES_JSON}}\n\nResponses:\n{{RESPONSES_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{ENTERPRISE_JSON}}", profileJSON)
	prompt = strings.ReplaceAll(prompt, "{{SCORES_JSON}}", scoresJSON)
	prompt = strings.ReplaceAll(prompt, "{{RESPONSES_JSON}}", responsesJSON)
	return prompt
}

func parseInsights(raw string) (*services.AIInsights, error) {
	cleaned := extractJSON(raw)

	var data map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	for _, key := range []string{"strengths", "weaknesses", "recommendations"} {
		if _, ok := data[key]; !ok {
			return nil, fmt.Errorf("gemini response missing %q", key)
		}
	}

	var insights services.AIInsights
	if err := json.Unmarshal([]byte(cleaned), &insights); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	return &insights, nil
}

// extractJSON strips markdown fences and anything outside the outermost
// object so lightly decorated model output still parses.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)
	if start := strings.Index(raw, "{"); start > 0 {
		raw = raw[start:]
	}
	if end := strings.LastIndex(raw, "}"); end != -1 && end < len(raw)-1 {
		raw = raw[:end+1]
	}
	return raw
}

func truncateForLog(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
