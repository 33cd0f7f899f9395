package services

import (
	"fmt"
	"testing"
	"time"
)

// stubPlatformStore backs the campaign, criteria and matching services.
type stubPlatformStore struct {
	enterprises  map[string]*Enterprise
	investors    map[string]*Investor
	criteria     map[string]*InvestorCriteria
	campaigns    map[string]*Campaign
	matches      map[string]*Match
	interactions map[string][]*MatchInteraction
	audits       []AuditEntry
}

func newStubPlatformStore() *stubPlatformStore {
	return &stubPlatformStore{
		enterprises:  map[string]*Enterprise{},
		investors:    map[string]*Investor{},
		criteria:     map[string]*InvestorCriteria{},
		campaigns:    map[string]*Campaign{},
		matches:      map[string]*Match{},
		interactions: map[string][]*MatchInteraction{},
	}
}

func (s *stubPlatformStore) GetEnterprise(id string) (*Enterprise, error) {
	return s.enterprises[id], nil
}
func (s *stubPlatformStore) GetInvestor(id string) (*Investor, error) { return s.investors[id], nil }
func (s *stubPlatformStore) InsertCriteria(c *InvestorCriteria) (*InvestorCriteria, error) {
	s.criteria[c.ID] = c
	return c, nil
}
func (s *stubPlatformStore) GetCriteria(id string) (*InvestorCriteria, error) {
	return s.criteria[id], nil
}
func (s *stubPlatformStore) UpdateCriteria(c *InvestorCriteria) error {
	s.criteria[c.ID] = c
	return nil
}
func (s *stubPlatformStore) ListCriteria(investorID string) ([]*InvestorCriteria, error) {
	var out []*InvestorCriteria
	for _, c := range s.criteria {
		if c.InvestorID == investorID {
			out = append(out, c)
		}
	}
	return out, nil
}
func (s *stubPlatformStore) InsertCampaign(c *Campaign) (*Campaign, error) {
	s.campaigns[c.ID] = c
	return c, nil
}
func (s *stubPlatformStore) GetCampaign(id string) (*Campaign, error) { return s.campaigns[id], nil }
func (s *stubPlatformStore) UpdateCampaign(c *Campaign) error {
	s.campaigns[c.ID] = c
	return nil
}
func (s *stubPlatformStore) ListCampaignsByEnterprise(eid string) ([]*Campaign, error) {
	var out []*Campaign
	for _, c := range s.campaigns {
		if c.EnterpriseID == eid {
			out = append(out, c)
		}
	}
	return out, nil
}
func (s *stubPlatformStore) ListCampaignsByStatus(statuses ...string) ([]*Campaign, error) {
	var out []*Campaign
	for _, c := range s.campaigns {
		for _, st := range statuses {
			if c.Status == st {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}
func (s *stubPlatformStore) InsertMatch(m *Match) (*Match, error) {
	s.matches[m.ID] = m
	return m, nil
}
func (s *stubPlatformStore) GetMatch(id string) (*Match, error) { return s.matches[id], nil }
func (s *stubPlatformStore) FindMatch(investorID, campaignID string) (*Match, error) {
	for _, m := range s.matches {
		if m.InvestorID == investorID && m.CampaignID == campaignID {
			return m, nil
		}
	}
	return nil, nil
}
func (s *stubPlatformStore) UpdateMatch(m *Match) error {
	s.matches[m.ID] = m
	return nil
}
func (s *stubPlatformStore) ListMatchesByInvestor(id string) ([]*Match, error) {
	var out []*Match
	for _, m := range s.matches {
		if m.InvestorID == id {
			out = append(out, m)
		}
	}
	return out, nil
}
func (s *stubPlatformStore) ListMatchesByEnterprise(id string) ([]*Match, error) {
	var out []*Match
	for _, m := range s.matches {
		if m.EnterpriseID == id {
			out = append(out, m)
		}
	}
	return out, nil
}
func (s *stubPlatformStore) InsertInteraction(i *MatchInteraction) error {
	s.interactions[i.MatchID] = append(s.interactions[i.MatchID], i)
	return nil
}
func (s *stubPlatformStore) ListInteractions(matchID string) ([]*MatchInteraction, error) {
	return s.interactions[matchID], nil
}
func (s *stubPlatformStore) AddAudit(entry AuditEntry) { s.audits = append(s.audits, entry) }

func seededPlatformStore() *stubPlatformStore {
	st := newStubPlatformStore()
	st.enterprises["e1"] = &Enterprise{ID: "e1", UserID: "ue1", BusinessName: "Kivu Coffee", Sector: "agriculture", EnterpriseSize: "small", YearEstablished: 2018, NumberOfEmployees: 25}
	st.investors["inv1"] = &Investor{ID: "inv1", UserID: "ui1", MaxInvestment: 100000, Active: true}
	st.criteria["cr1"] = &InvestorCriteria{
		ID: "cr1", InvestorID: "inv1", Active: true,
		Sectors:          []string{"agriculture"},
		MinFundingAmount: 50000, MaxFundingAmount: 500000,
		PreferredSizes: []string{"small"},
	}
	readiness := 72.0
	st.campaigns["c1"] = &Campaign{
		ID: "c1", EnterpriseID: "e1", Title: "Washing Station Expansion",
		TargetAmount: 200000, MinInvestment: 20000, MaxInvestment: 80000,
		Status: CampaignActive, ReadinessScoreAtSubmission: &readiness,
	}
	return st
}

func testMatchingService(st *stubPlatformStore) *MatchingService {
	svc := NewMatchingService(st, nil)
	svc.now = func() time.Time { return time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC) }
	n := 0
	svc.idGenerator = func() string { n++; return fmt.Sprintf("m%d", n) }
	return svc
}

var (
	investorActor   = Actor{UserID: "ui1", Role: RoleInvestor, InvestorID: "inv1"}
	enterpriseActor = Actor{UserID: "ue1", Role: RoleEnterprise, EnterpriseID: "e1"}
	adminActor      = Actor{UserID: "adm", Role: RoleAdmin}
)

func TestRecommendationsRankedByScore(t *testing.T) {
	st := seededPlatformStore()
	readiness := 80.0
	st.enterprises["e2"] = &Enterprise{ID: "e2", Sector: "manufacturing", EnterpriseSize: "medium"}
	st.campaigns["c2"] = &Campaign{
		ID: "c2", EnterpriseID: "e2", Title: "Plant Upgrade",
		TargetAmount: 100000, MinInvestment: 10000,
		Status: CampaignApproved, ReadinessScoreAtSubmission: &readiness,
	}
	svc := testMatchingService(st)

	ranked, err := svc.Recommendations(investorActor)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("got %d ranked campaigns, want 2", len(ranked))
	}
	// c1: sector 30 + funding 20 + size 15 + ticket 10 = 75; c2: funding 20 + ticket 10 = 30.
	if ranked[0].Campaign.ID != "c1" || ranked[0].Score != 75 {
		t.Fatalf("first: got %s score %v", ranked[0].Campaign.ID, ranked[0].Score)
	}
	if ranked[1].Campaign.ID != "c2" || ranked[1].Score != 30 {
		t.Fatalf("second: got %s score %v", ranked[1].Campaign.ID, ranked[1].Score)
	}
}

func TestRecommendationsFilters(t *testing.T) {
	st := seededPlatformStore()
	svc := testMatchingService(st)

	// Readiness threshold excludes the campaign.
	st.criteria["cr1"].MinReadinessScore = 90
	ranked, err := svc.Recommendations(investorActor)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if len(ranked) != 0 {
		t.Fatalf("got %d, want 0", len(ranked))
	}

	// Enterprise headcount floor excludes it too.
	st.criteria["cr1"].MinReadinessScore = 0
	st.criteria["cr1"].MinEmployees = 100
	ranked, _ = svc.Recommendations(investorActor)
	if len(ranked) != 0 {
		t.Fatalf("headcount floor: got %d, want 0", len(ranked))
	}
}

func TestExpressInterestIdempotent(t *testing.T) {
	st := seededPlatformStore()
	svc := testMatchingService(st)

	m1, err := svc.ExpressInterest(investorActor, "c1", "looks promising")
	if err != nil {
		t.Fatalf("express interest: %v", err)
	}
	if m1.Status != MatchPending || m1.Score != 75 {
		t.Fatalf("got %+v", m1)
	}
	m2, err := svc.ExpressInterest(investorActor, "c1", "again")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if m2.ID != m1.ID {
		t.Fatalf("expected same match, got %s and %s", m1.ID, m2.ID)
	}
	if len(st.matches) != 1 {
		t.Fatalf("matches stored: %d", len(st.matches))
	}
}

func TestExpressInterestIneligible(t *testing.T) {
	st := seededPlatformStore()
	st.campaigns["c1"].TargetInvestorIDs = []string{"someone-else"}
	svc := testMatchingService(st)
	if _, err := svc.ExpressInterest(investorActor, "c1", ""); err == nil {
		t.Fatal("expected forbidden")
	} else if se, _ := AsServiceError(err); se.Code != ErrorForbidden {
		t.Fatalf("code: got %s", se.Code)
	}
}

func TestMatchLifecycleEnterpriseAccept(t *testing.T) {
	st := seededPlatformStore()
	svc := testMatchingService(st)
	m, _ := svc.ExpressInterest(investorActor, "c1", "")

	if _, err := svc.Accept(enterpriseActor, m.ID, ""); err == nil {
		t.Fatal("accept before approval must fail")
	}
	if _, err := svc.Approve(Actor{UserID: "x", Role: RoleInvestor, InvestorID: "other"}, m.ID); err == nil {
		t.Fatal("outsider approve must fail")
	}
	m, err := svc.Approve(investorActor, m.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if m.Status != MatchApproved || !m.InvestorApproved {
		t.Fatalf("got %+v", m)
	}
	if _, err := svc.Approve(investorActor, m.ID); err == nil {
		t.Fatal("second approve must conflict")
	}
	m, err = svc.Accept(enterpriseActor, m.ID, "welcome aboard")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if m.Status != MatchEngaged || !m.EnterpriseAccepted {
		t.Fatalf("got %+v", m)
	}
	kinds := map[string]int{}
	for _, i := range st.interactions[m.ID] {
		kinds[i.Type]++
	}
	if kinds["status_change"] != 2 || kinds["interest"] != 1 {
		t.Fatalf("interactions: %+v", kinds)
	}
}

func TestMatchLifecycleCommitAndSettle(t *testing.T) {
	st := seededPlatformStore()
	svc := testMatchingService(st)
	m, _ := svc.ExpressInterest(investorActor, "c1", "")
	m, _ = svc.Approve(adminActor, m.ID)

	if _, err := svc.Commit(investorActor, m.ID, 10000); err == nil {
		t.Fatal("below campaign minimum must fail")
	}
	if _, err := svc.Commit(investorActor, m.ID, 90000); err == nil {
		t.Fatal("above campaign maximum must fail")
	}
	m, err := svc.Commit(investorActor, m.ID, 50000)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if m.Status != MatchEngaged || m.CommittedAmount == nil || *m.CommittedAmount != 50000 {
		t.Fatalf("got %+v", m)
	}

	if _, err := svc.ConfirmPayment(investorActor, m.ID); err == nil {
		t.Fatal("non-admin settle must fail")
	}
	m, err = svc.ConfirmPayment(adminActor, m.ID)
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if m.Status != MatchCompleted {
		t.Fatalf("status: got %s", m.Status)
	}
	c := st.campaigns["c1"]
	if c.AmountRaised != 50000 || c.InvestorCount != 1 {
		t.Fatalf("campaign totals: %+v", c)
	}
	if c.Status != CampaignActive {
		t.Fatalf("campaign below target should stay active, got %s", c.Status)
	}
}

func TestConfirmPaymentCompletesFundedCampaign(t *testing.T) {
	st := seededPlatformStore()
	st.campaigns["c1"].TargetAmount = 50000
	svc := testMatchingService(st)
	m, _ := svc.ExpressInterest(investorActor, "c1", "")
	m, _ = svc.Approve(adminActor, m.ID)
	m, _ = svc.Commit(investorActor, m.ID, 50000)
	if _, err := svc.ConfirmPayment(adminActor, m.ID); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if st.campaigns["c1"].Status != CampaignCompleted {
		t.Fatalf("campaign status: got %s", st.campaigns["c1"].Status)
	}
}

func TestWithdrawAndReject(t *testing.T) {
	st := seededPlatformStore()
	svc := testMatchingService(st)

	m, _ := svc.ExpressInterest(investorActor, "c1", "")
	if _, err := svc.Withdraw(Actor{UserID: "x", Role: RoleInvestor, InvestorID: "other"}, m.ID); err == nil {
		t.Fatal("outsider withdraw must fail")
	}
	m, err := svc.Withdraw(enterpriseActor, m.ID)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if m.Status != MatchWithdrawn {
		t.Fatalf("status: got %s", m.Status)
	}
	if _, err := svc.Reject(adminActor, m.ID, "late"); err == nil {
		t.Fatal("reject after withdraw must fail")
	}
}

func TestWithdrawBlockedOnceEngaged(t *testing.T) {
	st := seededPlatformStore()
	svc := testMatchingService(st)
	m, _ := svc.ExpressInterest(investorActor, "c1", "")
	m, _ = svc.Approve(investorActor, m.ID)
	m, _ = svc.Commit(investorActor, m.ID, 50000)
	if m.Status != MatchEngaged {
		t.Fatalf("status: got %s", m.Status)
	}
	if _, err := svc.Withdraw(investorActor, m.ID); err == nil {
		t.Fatal("expected conflict")
	} else if se, _ := AsServiceError(err); se.Code != ErrorConflict {
		t.Fatalf("code: got %s", se.Code)
	}
}

func TestInvestorWithoutCriteriaSeesOpenCampaigns(t *testing.T) {
	st := seededPlatformStore()
	delete(st.criteria, "cr1")
	svc := testMatchingService(st)
	ranked, err := svc.Recommendations(investorActor)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	// Only the ticket-fit bonus applies with open preferences.
	if len(ranked) != 1 || ranked[0].Score != 10 {
		t.Fatalf("got %+v", ranked)
	}
}
