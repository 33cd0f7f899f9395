package gemini

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/soaringjerry/Kivu/internal/services"
)

type staticGenerator struct {
	response string
	err      error
	prompt   string
}

func (s *staticGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

func sampleInput() *services.InsightsInput {
	return &services.InsightsInput{
		Enterprise: &services.Enterprise{ID: "e1", BusinessName: "Kivu Coffee", Sector: "agriculture"},
		Assessment: &services.Assessment{ID: "a1", PercentageScore: 62.5, TotalScore: 25, MaxPossibleScore: 40},
		CategoryScores: []services.NamedCategoryScore{
			{CategoryName: "Financial Management", Score: 10, MaxScore: 20, Percentage: 50},
		},
		Responses: []services.ResponseSummary{
			{Question: "Do you keep audited financial statements?", Answer: "No", Score: 0, MaxScore: 10},
		},
	}
}

const validResponse = `{
  "strengths": ["Established sector presence"],
  "weaknesses": ["No audited statements"],
  "recommendations": [
    {"title": "Adopt bookkeeping", "description": "Start monthly books.", "priority": "high", "suggested_actions": "Hire an accountant.", "category": "Financial Management"}
  ]
}`

func TestGenerateInsights(t *testing.T) {
	gen := &staticGenerator{response: validResponse}
	advisor := NewAdvisor(gen, zap.NewNop(), 0)

	got, err := advisor.GenerateInsights(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(got.Strengths) != 1 || len(got.Weaknesses) != 1 || len(got.Recommendations) != 1 {
		t.Fatalf("got %+v", got)
	}
	if got.Recommendations[0].Category != "Financial Management" {
		t.Fatalf("category: got %q", got.Recommendations[0].Category)
	}
	for _, fragment := range []string{"Kivu Coffee", "Financial Management", "audited financial statements"} {
		if !strings.Contains(gen.prompt, fragment) {
			t.Fatalf("prompt missing %q", fragment)
		}
	}
}

func TestParseInsightsFencedResponse(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	got, err := parseInsights(fenced)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Strengths) != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestParseInsightsSurroundingProse(t *testing.T) {
	noisy := "Here is the analysis you asked for:\n" + validResponse + "\nLet me know if you need more."
	if _, err := parseInsights(noisy); err != nil {
		t.Fatalf("parse: %v", err)
	}
}

func TestParseInsightsMissingKey(t *testing.T) {
	if _, err := parseInsights(`{"strengths": [], "weaknesses": []}`); err == nil {
		t.Fatal("expected error for missing recommendations key")
	}
}

func TestParseInsightsGarbage(t *testing.T) {
	if _, err := parseInsights("I could not produce JSON today."); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"prefix {\"a\":1} suffix", "{\"a\":1}"},
	}
	for _, c := range cases {
		if got := extractJSON(c.in); got != c.want {
			t.Fatalf("extractJSON(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
