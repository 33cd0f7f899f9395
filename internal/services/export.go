package services

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
)

type ResponseRow struct {
	AssessmentID string
	QuestionID   string
	Answer       string
	Score        float64
	SubmittedAt  string // ISO8601 suggested; string for CSV simplicity
}

type AssessmentRow struct {
	ID          string
	Enterprise  string
	FiscalYear  int
	Status      string
	TotalScore  float64
	MaxScore    float64
	Percentage  float64
	CompletedAt string
}

type CategoryScoreRow struct {
	AssessmentID string
	Category     string
	Score        float64
	MaxScore     float64
	Percentage   float64
}

// ExportResponsesCSV renders responses into a long-format CSV.
func ExportResponsesCSV(rows []ResponseRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"assessment_id", "question_id", "answer", "score", "submitted_at"})
	for _, r := range rows {
		rec := []string{
			r.AssessmentID,
			r.QuestionID,
			r.Answer,
			ftoa(r.Score),
			r.SubmittedAt,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportAssessmentsCSV renders one row per assessment with its totals.
func ExportAssessmentsCSV(rows []AssessmentRow) ([]byte, error) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"assessment_id", "enterprise", "fiscal_year", "status", "total_score", "max_possible_score", "percentage", "completed_at"})
	for _, r := range rows {
		rec := []string{
			r.ID,
			r.Enterprise,
			strconv.Itoa(r.FiscalYear),
			r.Status,
			ftoa(r.TotalScore),
			ftoa(r.MaxScore),
			ftoa(r.Percentage),
			r.CompletedAt,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportCategoryScoresCSV renders per-category results, one row per
// assessment and category.
func ExportCategoryScoresCSV(rows []CategoryScoreRow) ([]byte, error) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AssessmentID == rows[j].AssessmentID {
			return rows[i].Category < rows[j].Category
		}
		return rows[i].AssessmentID < rows[j].AssessmentID
	})
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"assessment_id", "category", "score", "max_score", "percentage"})
	for _, r := range rows {
		rec := []string{
			r.AssessmentID,
			r.Category,
			ftoa(r.Score),
			ftoa(r.MaxScore),
			ftoa(r.Percentage),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
