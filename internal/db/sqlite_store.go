package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/soaringjerry/Kivu/internal/api"
	"github.com/soaringjerry/Kivu/internal/services"
)

// SQLiteStore persists the platform state in a single sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

var _ api.Store = (*SQLiteStore)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func jsonList(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func parseList(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func jsonOptions(opts []services.QuestionOption) string {
	if len(opts) == 0 {
		return "[]"
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func parseOptions(s string) []services.QuestionOption {
	if s == "" || s == "[]" {
		return nil
	}
	var out []services.QuestionOption
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}

// accounts and profiles

func (s *SQLiteStore) FindUserByEmail(email string) (*services.User, error) {
	row := s.db.QueryRow(`SELECT id, email, pass_hash, role, profile_id, created_at FROM users WHERE email = ? COLLATE NOCASE`, email)
	u := &services.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PassHash, &u.Role, &u.ProfileID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) AddUser(u *services.User) error {
	_, err := s.db.Exec(`INSERT INTO users (id, email, pass_hash, role, profile_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PassHash, u.Role, u.ProfileID, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddEnterprise(e *services.Enterprise) error {
	_, err := s.db.Exec(`INSERT INTO enterprises
		(id, user_id, business_name, sector, enterprise_size, enterprise_type, district, year_established, number_of_employees, annual_revenue, description, vetted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.BusinessName, e.Sector, e.EnterpriseSize, e.EnterpriseType, e.District,
		e.YearEstablished, e.NumberOfEmployees, e.AnnualRevenue, e.Description, e.Vetted)
	if err != nil {
		return fmt.Errorf("insert enterprise: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddInvestor(i *services.Investor) error {
	_, err := s.db.Exec(`INSERT INTO investors (id, user_id, organization_name, investor_type, min_investment, max_investment, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.UserID, i.OrganizationName, i.InvestorType, i.MinInvestment, i.MaxInvestment, i.Active)
	if err != nil {
		return fmt.Errorf("insert investor: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetEnterprise(id string) (*services.Enterprise, error) {
	row := s.db.QueryRow(`SELECT id, user_id, business_name, sector, enterprise_size, enterprise_type, district, year_established, number_of_employees, annual_revenue, description, vetted
		FROM enterprises WHERE id = ?`, id)
	e := &services.Enterprise{}
	err := row.Scan(&e.ID, &e.UserID, &e.BusinessName, &e.Sector, &e.EnterpriseSize, &e.EnterpriseType,
		&e.District, &e.YearEstablished, &e.NumberOfEmployees, &e.AnnualRevenue, &e.Description, &e.Vetted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get enterprise: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) GetInvestor(id string) (*services.Investor, error) {
	row := s.db.QueryRow(`SELECT id, user_id, organization_name, investor_type, min_investment, max_investment, active
		FROM investors WHERE id = ?`, id)
	i := &services.Investor{}
	err := row.Scan(&i.ID, &i.UserID, &i.OrganizationName, &i.InvestorType, &i.MinInvestment, &i.MaxInvestment, &i.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get investor: %w", err)
	}
	return i, nil
}

// categories

func (s *SQLiteStore) InsertCategory(c *services.Category) (*services.Category, error) {
	_, err := s.db.Exec(`INSERT INTO categories (id, name, description, weight, active) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.Weight, c.Active)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) UpdateCategory(c *services.Category) error {
	_, err := s.db.Exec(`UPDATE categories SET name = ?, description = ?, weight = ?, active = ? WHERE id = ?`,
		c.Name, c.Description, c.Weight, c.Active, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func scanCategory(row scanner) (*services.Category, error) {
	c := &services.Category{}
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Weight, &c.Active)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) GetCategory(id string) (*services.Category, error) {
	c, err := scanCategory(s.db.QueryRow(`SELECT id, name, description, weight, active FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) ListCategories() ([]*services.Category, error) {
	rows, err := s.db.Query(`SELECT id, name, description, weight, active FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	out := []*services.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// questionnaires

func (s *SQLiteStore) InsertQuestionnaire(q *services.Questionnaire) (*services.Questionnaire, error) {
	_, err := s.db.Exec(`INSERT INTO questionnaires
		(id, title, description, version, language, active, target_sectors, target_sizes, target_districts, min_employees, max_employees, estimated_time_minutes, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Title, q.Description, q.Version, q.Language, q.Active,
		jsonList(q.TargetSectors), jsonList(q.TargetSizes), jsonList(q.TargetDistricts),
		q.MinEmployees, q.MaxEmployees, q.EstimatedTimeMinutes, q.CreatedBy, q.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert questionnaire: %w", err)
	}
	return q, nil
}

func scanQuestionnaire(row scanner) (*services.Questionnaire, error) {
	q := &services.Questionnaire{}
	var sectors, sizes, districts string
	err := row.Scan(&q.ID, &q.Title, &q.Description, &q.Version, &q.Language, &q.Active,
		&sectors, &sizes, &districts, &q.MinEmployees, &q.MaxEmployees, &q.EstimatedTimeMinutes,
		&q.CreatedBy, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	q.TargetSectors = parseList(sectors)
	q.TargetSizes = parseList(sizes)
	q.TargetDistricts = parseList(districts)
	return q, nil
}

const questionnaireCols = `id, title, description, version, language, active, target_sectors, target_sizes, target_districts, min_employees, max_employees, estimated_time_minutes, created_by, created_at`

func (s *SQLiteStore) GetQuestionnaire(id string) (*services.Questionnaire, error) {
	q, err := scanQuestionnaire(s.db.QueryRow(`SELECT `+questionnaireCols+` FROM questionnaires WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get questionnaire: %w", err)
	}
	return q, nil
}

func (s *SQLiteStore) UpdateQuestionnaire(q *services.Questionnaire) error {
	_, err := s.db.Exec(`UPDATE questionnaires SET
		title = ?, description = ?, version = ?, language = ?, active = ?,
		target_sectors = ?, target_sizes = ?, target_districts = ?,
		min_employees = ?, max_employees = ?, estimated_time_minutes = ?
		WHERE id = ?`,
		q.Title, q.Description, q.Version, q.Language, q.Active,
		jsonList(q.TargetSectors), jsonList(q.TargetSizes), jsonList(q.TargetDistricts),
		q.MinEmployees, q.MaxEmployees, q.EstimatedTimeMinutes, q.ID)
	if err != nil {
		return fmt.Errorf("update questionnaire: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListQuestionnaires() ([]*services.Questionnaire, error) {
	rows, err := s.db.Query(`SELECT ` + questionnaireCols + ` FROM questionnaires ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list questionnaires: %w", err)
	}
	defer rows.Close()
	out := []*services.Questionnaire{}
	for rows.Next() {
		q, err := scanQuestionnaire(rows)
		if err != nil {
			return nil, fmt.Errorf("scan questionnaire: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// questions

func (s *SQLiteStore) InsertQuestion(q *services.Question) (*services.Question, error) {
	_, err := s.db.Exec(`INSERT INTO questions (id, questionnaire_id, category_id, text, type, required, ord, max_score, options)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.QuestionnaireID, q.CategoryID, q.Text, q.Type, q.Required, q.Order, q.MaxScore, jsonOptions(q.Options))
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func (s *SQLiteStore) UpdateQuestion(q *services.Question) error {
	_, err := s.db.Exec(`UPDATE questions SET category_id = ?, text = ?, type = ?, required = ?, ord = ?, max_score = ?, options = ? WHERE id = ?`,
		q.CategoryID, q.Text, q.Type, q.Required, q.Order, q.MaxScore, jsonOptions(q.Options), q.ID)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteQuestion(id string) error {
	_, err := s.db.Exec(`DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListQuestions(questionnaireID string) ([]*services.Question, error) {
	rows, err := s.db.Query(`SELECT id, questionnaire_id, category_id, text, type, required, ord, max_score, options
		FROM questions WHERE questionnaire_id = ? ORDER BY ord, id`, questionnaireID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	out := []*services.Question{}
	for rows.Next() {
		q := &services.Question{}
		var opts string
		if err := rows.Scan(&q.ID, &q.QuestionnaireID, &q.CategoryID, &q.Text, &q.Type, &q.Required, &q.Order, &q.MaxScore, &opts); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Options = parseOptions(opts)
		out = append(out, q)
	}
	return out, rows.Err()
}

// assessments

const assessmentCols = `id, enterprise_id, questionnaire_id, fiscal_year, status, total_score, max_possible_score, percentage_score, ai_strengths, ai_weaknesses, insights_generated_at, started_at, completed_at, reviewed_at, reviewed_by, created_at`

func (s *SQLiteStore) InsertAssessment(a *services.Assessment) (*services.Assessment, error) {
	_, err := s.db.Exec(`INSERT INTO assessments (`+assessmentCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EnterpriseID, a.QuestionnaireID, a.FiscalYear, a.Status,
		a.TotalScore, a.MaxPossibleScore, a.PercentageScore,
		jsonList(a.AIStrengths), jsonList(a.AIWeaknesses), nullTime(a.InsightsGeneratedAt),
		nullTime(a.StartedAt), nullTime(a.CompletedAt), nullTime(a.ReviewedAt), a.ReviewedBy, a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert assessment: %w", err)
	}
	return a, nil
}

func scanAssessment(row scanner) (*services.Assessment, error) {
	a := &services.Assessment{}
	var strengths, weaknesses string
	var insightsAt, startedAt, completedAt, reviewedAt sql.NullTime
	err := row.Scan(&a.ID, &a.EnterpriseID, &a.QuestionnaireID, &a.FiscalYear, &a.Status,
		&a.TotalScore, &a.MaxPossibleScore, &a.PercentageScore,
		&strengths, &weaknesses, &insightsAt, &startedAt, &completedAt, &reviewedAt, &a.ReviewedBy, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.AIStrengths = parseList(strengths)
	a.AIWeaknesses = parseList(weaknesses)
	a.InsightsGeneratedAt = timePtr(insightsAt)
	a.StartedAt = timePtr(startedAt)
	a.CompletedAt = timePtr(completedAt)
	a.ReviewedAt = timePtr(reviewedAt)
	return a, nil
}

func (s *SQLiteStore) GetAssessment(id string) (*services.Assessment, error) {
	a, err := scanAssessment(s.db.QueryRow(`SELECT `+assessmentCols+` FROM assessments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) UpdateAssessment(a *services.Assessment) error {
	_, err := s.db.Exec(`UPDATE assessments SET
		fiscal_year = ?, status = ?, total_score = ?, max_possible_score = ?, percentage_score = ?,
		ai_strengths = ?, ai_weaknesses = ?, insights_generated_at = ?,
		started_at = ?, completed_at = ?, reviewed_at = ?, reviewed_by = ?
		WHERE id = ?`,
		a.FiscalYear, a.Status, a.TotalScore, a.MaxPossibleScore, a.PercentageScore,
		jsonList(a.AIStrengths), jsonList(a.AIWeaknesses), nullTime(a.InsightsGeneratedAt),
		nullTime(a.StartedAt), nullTime(a.CompletedAt), nullTime(a.ReviewedAt), a.ReviewedBy, a.ID)
	if err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) listAssessments(where string, arg any) ([]*services.Assessment, error) {
	rows, err := s.db.Query(`SELECT `+assessmentCols+` FROM assessments WHERE `+where+` ORDER BY created_at, id`, arg)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()
	out := []*services.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListAssessmentsByEnterprise(enterpriseID string) ([]*services.Assessment, error) {
	return s.listAssessments("enterprise_id = ?", enterpriseID)
}

func (s *SQLiteStore) ListAssessmentsByQuestionnaire(questionnaireID string) ([]*services.Assessment, error) {
	return s.listAssessments("questionnaire_id = ?", questionnaireID)
}

// responses

func (s *SQLiteStore) UpsertResponse(r *services.AssessmentResponse) error {
	_, err := s.db.Exec(`INSERT INTO assessment_responses
		(id, assessment_id, question_id, selected_option_ids, text_response, number_response, file_ref, score, overridden_by, overridden_at, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (assessment_id, question_id) DO UPDATE SET
		selected_option_ids = excluded.selected_option_ids,
		text_response = excluded.text_response,
		number_response = excluded.number_response,
		file_ref = excluded.file_ref,
		score = excluded.score,
		overridden_by = excluded.overridden_by,
		overridden_at = excluded.overridden_at,
		submitted_at = excluded.submitted_at`,
		r.ID, r.AssessmentID, r.QuestionID, jsonList(r.SelectedOptionIDs), r.TextResponse,
		nullFloat(r.NumberResponse), r.FileRef, r.Score, r.OverriddenBy, nullTime(r.OverriddenAt), r.SubmittedAt)
	if err != nil {
		return fmt.Errorf("upsert response: %w", err)
	}
	return nil
}

const responseCols = `id, assessment_id, question_id, selected_option_ids, text_response, number_response, file_ref, score, overridden_by, overridden_at, submitted_at`

func scanResponse(row scanner) (*services.AssessmentResponse, error) {
	r := &services.AssessmentResponse{}
	var selected string
	var number sql.NullFloat64
	var overriddenAt sql.NullTime
	err := row.Scan(&r.ID, &r.AssessmentID, &r.QuestionID, &selected, &r.TextResponse,
		&number, &r.FileRef, &r.Score, &r.OverriddenBy, &overriddenAt, &r.SubmittedAt)
	if err != nil {
		return nil, err
	}
	r.SelectedOptionIDs = parseList(selected)
	r.NumberResponse = floatPtr(number)
	r.OverriddenAt = timePtr(overriddenAt)
	return r, nil
}

func (s *SQLiteStore) queryResponses(query string, arg any) ([]*services.AssessmentResponse, error) {
	rows, err := s.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()
	out := []*services.AssessmentResponse{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListResponses(assessmentID string) ([]*services.AssessmentResponse, error) {
	return s.queryResponses(`SELECT `+responseCols+` FROM assessment_responses WHERE assessment_id = ? ORDER BY question_id`, assessmentID)
}

func (s *SQLiteStore) ListResponsesByQuestionnaire(questionnaireID string) ([]*services.AssessmentResponse, error) {
	return s.queryResponses(`SELECT r.`+strings.ReplaceAll(responseCols, ", ", ", r.")+`
		FROM assessment_responses r
		JOIN assessments a ON a.id = r.assessment_id
		WHERE a.questionnaire_id = ?
		ORDER BY r.assessment_id, r.question_id`, questionnaireID)
}

// scores and recommendations

func (s *SQLiteStore) ReplaceCategoryScores(assessmentID string, scores []services.CategoryScore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`DELETE FROM category_scores WHERE assessment_id = ?`, assessmentID); err != nil {
		return fmt.Errorf("clear category scores: %w", err)
	}
	for _, cs := range scores {
		if _, err := tx.Exec(`INSERT INTO category_scores (assessment_id, category_id, score, max_score, percentage) VALUES (?, ?, ?, ?, ?)`,
			assessmentID, cs.CategoryID, cs.Score, cs.MaxScore, cs.Percentage); err != nil {
			return fmt.Errorf("insert category score: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListCategoryScores(assessmentID string) ([]services.CategoryScore, error) {
	rows, err := s.db.Query(`SELECT assessment_id, category_id, score, max_score, percentage
		FROM category_scores WHERE assessment_id = ? ORDER BY category_id`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list category scores: %w", err)
	}
	defer rows.Close()
	out := []services.CategoryScore{}
	for rows.Next() {
		var cs services.CategoryScore
		if err := rows.Scan(&cs.AssessmentID, &cs.CategoryID, &cs.Score, &cs.MaxScore, &cs.Percentage); err != nil {
			return nil, fmt.Errorf("scan category score: %w", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ReplaceRecommendations(assessmentID, source string, recs []*services.Recommendation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`DELETE FROM recommendations WHERE assessment_id = ? AND source = ?`, assessmentID, source); err != nil {
		return fmt.Errorf("clear recommendations: %w", err)
	}
	for _, r := range recs {
		if _, err := tx.Exec(`INSERT INTO recommendations (id, assessment_id, category_id, title, description, priority, suggested_actions, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.AssessmentID, r.CategoryID, r.Title, r.Description, r.Priority, r.SuggestedActions, r.Source); err != nil {
			return fmt.Errorf("insert recommendation: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListRecommendations(assessmentID string) ([]*services.Recommendation, error) {
	rows, err := s.db.Query(`SELECT id, assessment_id, category_id, title, description, priority, suggested_actions, source
		FROM recommendations WHERE assessment_id = ? ORDER BY source, id`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()
	out := []*services.Recommendation{}
	for rows.Next() {
		r := &services.Recommendation{}
		if err := rows.Scan(&r.ID, &r.AssessmentID, &r.CategoryID, &r.Title, &r.Description, &r.Priority, &r.SuggestedActions, &r.Source); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// investor criteria

const criteriaCols = `id, investor_id, sectors, min_funding_amount, max_funding_amount, min_readiness_score, auto_reject_below_score, preferred_sizes, min_years_operation, min_employees, active, created_at`

func (s *SQLiteStore) InsertCriteria(c *services.InvestorCriteria) (*services.InvestorCriteria, error) {
	_, err := s.db.Exec(`INSERT INTO investor_criteria (`+criteriaCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.InvestorID, jsonList(c.Sectors), c.MinFundingAmount, c.MaxFundingAmount,
		c.MinReadinessScore, nullFloat(c.AutoRejectBelowScore), jsonList(c.PreferredSizes),
		c.MinYearsOperation, c.MinEmployees, c.Active, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert criteria: %w", err)
	}
	return c, nil
}

func scanCriteria(row scanner) (*services.InvestorCriteria, error) {
	c := &services.InvestorCriteria{}
	var sectors, sizes string
	var autoReject sql.NullFloat64
	err := row.Scan(&c.ID, &c.InvestorID, &sectors, &c.MinFundingAmount, &c.MaxFundingAmount,
		&c.MinReadinessScore, &autoReject, &sizes, &c.MinYearsOperation, &c.MinEmployees, &c.Active, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Sectors = parseList(sectors)
	c.PreferredSizes = parseList(sizes)
	c.AutoRejectBelowScore = floatPtr(autoReject)
	return c, nil
}

func (s *SQLiteStore) GetCriteria(id string) (*services.InvestorCriteria, error) {
	c, err := scanCriteria(s.db.QueryRow(`SELECT `+criteriaCols+` FROM investor_criteria WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get criteria: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) UpdateCriteria(c *services.InvestorCriteria) error {
	_, err := s.db.Exec(`UPDATE investor_criteria SET
		sectors = ?, min_funding_amount = ?, max_funding_amount = ?, min_readiness_score = ?,
		auto_reject_below_score = ?, preferred_sizes = ?, min_years_operation = ?, min_employees = ?, active = ?
		WHERE id = ?`,
		jsonList(c.Sectors), c.MinFundingAmount, c.MaxFundingAmount, c.MinReadinessScore,
		nullFloat(c.AutoRejectBelowScore), jsonList(c.PreferredSizes), c.MinYearsOperation, c.MinEmployees, c.Active, c.ID)
	if err != nil {
		return fmt.Errorf("update criteria: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListCriteria(investorID string) ([]*services.InvestorCriteria, error) {
	rows, err := s.db.Query(`SELECT `+criteriaCols+` FROM investor_criteria WHERE investor_id = ? ORDER BY id`, investorID)
	if err != nil {
		return nil, fmt.Errorf("list criteria: %w", err)
	}
	defer rows.Close()
	out := []*services.InvestorCriteria{}
	for rows.Next() {
		c, err := scanCriteria(rows)
		if err != nil {
			return nil, fmt.Errorf("scan criteria: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// campaigns

const campaignCols = `id, enterprise_id, title, description, campaign_type, target_amount, min_investment, max_investment, amount_raised, investor_count, status, target_investor_ids, readiness_score_at_submission, passed_auto_screening, decline_reason, submitted_at, vetted_by, vetted_at, created_at`

func (s *SQLiteStore) InsertCampaign(c *services.Campaign) (*services.Campaign, error) {
	_, err := s.db.Exec(`INSERT INTO campaigns (`+campaignCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.EnterpriseID, c.Title, c.Description, c.CampaignType,
		c.TargetAmount, c.MinInvestment, c.MaxInvestment, c.AmountRaised, c.InvestorCount, c.Status,
		jsonList(c.TargetInvestorIDs), nullFloat(c.ReadinessScoreAtSubmission), c.PassedAutoScreening,
		c.DeclineReason, nullTime(c.SubmittedAt), c.VettedBy, nullTime(c.VettedAt), c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert campaign: %w", err)
	}
	return c, nil
}

func scanCampaign(row scanner) (*services.Campaign, error) {
	c := &services.Campaign{}
	var targets string
	var readiness sql.NullFloat64
	var submittedAt, vettedAt sql.NullTime
	err := row.Scan(&c.ID, &c.EnterpriseID, &c.Title, &c.Description, &c.CampaignType,
		&c.TargetAmount, &c.MinInvestment, &c.MaxInvestment, &c.AmountRaised, &c.InvestorCount, &c.Status,
		&targets, &readiness, &c.PassedAutoScreening, &c.DeclineReason, &submittedAt, &c.VettedBy, &vettedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.TargetInvestorIDs = parseList(targets)
	c.ReadinessScoreAtSubmission = floatPtr(readiness)
	c.SubmittedAt = timePtr(submittedAt)
	c.VettedAt = timePtr(vettedAt)
	return c, nil
}

func (s *SQLiteStore) GetCampaign(id string) (*services.Campaign, error) {
	c, err := scanCampaign(s.db.QueryRow(`SELECT `+campaignCols+` FROM campaigns WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) UpdateCampaign(c *services.Campaign) error {
	_, err := s.db.Exec(`UPDATE campaigns SET
		title = ?, description = ?, campaign_type = ?, target_amount = ?, min_investment = ?, max_investment = ?,
		amount_raised = ?, investor_count = ?, status = ?, target_investor_ids = ?,
		readiness_score_at_submission = ?, passed_auto_screening = ?, decline_reason = ?,
		submitted_at = ?, vetted_by = ?, vetted_at = ?
		WHERE id = ?`,
		c.Title, c.Description, c.CampaignType, c.TargetAmount, c.MinInvestment, c.MaxInvestment,
		c.AmountRaised, c.InvestorCount, c.Status, jsonList(c.TargetInvestorIDs),
		nullFloat(c.ReadinessScoreAtSubmission), c.PassedAutoScreening, c.DeclineReason,
		nullTime(c.SubmittedAt), c.VettedBy, nullTime(c.VettedAt), c.ID)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	return nil
}

func (s *SQLiteStore) collectCampaigns(rows *sql.Rows) ([]*services.Campaign, error) {
	defer rows.Close()
	out := []*services.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListCampaignsByEnterprise(enterpriseID string) ([]*services.Campaign, error) {
	rows, err := s.db.Query(`SELECT `+campaignCols+` FROM campaigns WHERE enterprise_id = ? ORDER BY created_at, id`, enterpriseID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return s.collectCampaigns(rows)
}

func (s *SQLiteStore) ListCampaignsByStatus(statuses ...string) ([]*services.Campaign, error) {
	if len(statuses) == 0 {
		return []*services.Campaign{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = st
	}
	rows, err := s.db.Query(`SELECT `+campaignCols+` FROM campaigns WHERE status IN (`+placeholders+`) ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns by status: %w", err)
	}
	return s.collectCampaigns(rows)
}

// matches

const matchCols = `id, investor_id, campaign_id, enterprise_id, score, status, investor_approved, enterprise_accepted, investor_notes, enterprise_notes, committed_amount, committed_at, created_at, updated_at`

func (s *SQLiteStore) InsertMatch(m *services.Match) (*services.Match, error) {
	_, err := s.db.Exec(`INSERT INTO matches (`+matchCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.InvestorID, m.CampaignID, m.EnterpriseID, m.Score, m.Status,
		m.InvestorApproved, m.EnterpriseAccepted, m.InvestorNotes, m.EnterpriseNotes,
		nullFloat(m.CommittedAmount), nullTime(m.CommittedAt), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert match: %w", err)
	}
	return m, nil
}

func scanMatch(row scanner) (*services.Match, error) {
	m := &services.Match{}
	var amount sql.NullFloat64
	var committedAt sql.NullTime
	err := row.Scan(&m.ID, &m.InvestorID, &m.CampaignID, &m.EnterpriseID, &m.Score, &m.Status,
		&m.InvestorApproved, &m.EnterpriseAccepted, &m.InvestorNotes, &m.EnterpriseNotes,
		&amount, &committedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.CommittedAmount = floatPtr(amount)
	m.CommittedAt = timePtr(committedAt)
	return m, nil
}

func (s *SQLiteStore) GetMatch(id string) (*services.Match, error) {
	m, err := scanMatch(s.db.QueryRow(`SELECT `+matchCols+` FROM matches WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) FindMatch(investorID, campaignID string) (*services.Match, error) {
	m, err := scanMatch(s.db.QueryRow(`SELECT `+matchCols+` FROM matches WHERE investor_id = ? AND campaign_id = ?`, investorID, campaignID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) UpdateMatch(m *services.Match) error {
	_, err := s.db.Exec(`UPDATE matches SET
		score = ?, status = ?, investor_approved = ?, enterprise_accepted = ?,
		investor_notes = ?, enterprise_notes = ?, committed_amount = ?, committed_at = ?, updated_at = ?
		WHERE id = ?`,
		m.Score, m.Status, m.InvestorApproved, m.EnterpriseAccepted,
		m.InvestorNotes, m.EnterpriseNotes, nullFloat(m.CommittedAmount), nullTime(m.CommittedAt), m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	return nil
}

func (s *SQLiteStore) listMatches(where string, arg any) ([]*services.Match, error) {
	rows, err := s.db.Query(`SELECT `+matchCols+` FROM matches WHERE `+where+` ORDER BY created_at, id`, arg)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()
	out := []*services.Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListMatchesByInvestor(investorID string) ([]*services.Match, error) {
	return s.listMatches("investor_id = ?", investorID)
}

func (s *SQLiteStore) ListMatchesByEnterprise(enterpriseID string) ([]*services.Match, error) {
	return s.listMatches("enterprise_id = ?", enterpriseID)
}

func (s *SQLiteStore) InsertInteraction(i *services.MatchInteraction) error {
	_, err := s.db.Exec(`INSERT INTO match_interactions (id, match_id, initiated_by, type, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		i.ID, i.MatchID, i.InitiatedBy, i.Type, i.Content, i.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListInteractions(matchID string) ([]*services.MatchInteraction, error) {
	rows, err := s.db.Query(`SELECT id, match_id, initiated_by, type, content, created_at
		FROM match_interactions WHERE match_id = ? ORDER BY created_at, id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()
	out := []*services.MatchInteraction{}
	for rows.Next() {
		i := &services.MatchInteraction{}
		if err := rows.Scan(&i.ID, &i.MatchID, &i.InitiatedBy, &i.Type, &i.Content, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// audit log

func (s *SQLiteStore) AddAudit(e services.AuditEntry) {
	if _, err := s.db.Exec(`INSERT INTO audit_log (at, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		e.Time, e.Actor, e.Action, e.Target, e.Note); err != nil {
		log.Printf("sqlite store: insert audit: %v", err)
	}
}

func (s *SQLiteStore) ListAudit() []services.AuditEntry {
	rows, err := s.db.Query(`SELECT at, actor, action, target, note FROM audit_log ORDER BY id`)
	if err != nil {
		log.Printf("sqlite store: list audit: %v", err)
		return nil
	}
	defer rows.Close()
	out := []services.AuditEntry{}
	for rows.Next() {
		var e services.AuditEntry
		if err := rows.Scan(&e.Time, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			log.Printf("sqlite store: scan audit: %v", err)
			return out
		}
		out = append(out, e)
	}
	return out
}
