package services

import (
	"fmt"
	"sort"
	"time"
)

// MatchStore abstracts persistence operations required by MatchingService.
type MatchStore interface {
	GetCampaign(id string) (*Campaign, error)
	UpdateCampaign(c *Campaign) error
	ListCampaignsByStatus(statuses ...string) ([]*Campaign, error)
	GetEnterprise(id string) (*Enterprise, error)
	GetInvestor(id string) (*Investor, error)
	ListCriteria(investorID string) ([]*InvestorCriteria, error)

	InsertMatch(m *Match) (*Match, error)
	GetMatch(id string) (*Match, error)
	FindMatch(investorID, campaignID string) (*Match, error)
	UpdateMatch(m *Match) error
	ListMatchesByInvestor(investorID string) ([]*Match, error)
	ListMatchesByEnterprise(enterpriseID string) ([]*Match, error)

	InsertInteraction(i *MatchInteraction) error
	ListInteractions(matchID string) ([]*MatchInteraction, error)

	AddAudit(entry AuditEntry)
}

// RankedCampaign is one entry of an investor's recommendation list.
type RankedCampaign struct {
	Campaign *Campaign `json:"campaign"`
	Score    float64   `json:"score"`
}

type MatchingService struct {
	store       MatchStore
	notifier    Notifier
	now         func() time.Time
	idGenerator func() string
}

func NewMatchingService(store MatchStore, notifier Notifier) *MatchingService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MatchingService{
		store:       store,
		notifier:    notifier,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: func() string { return shortID(12) },
	}
}

// Recommendations ranks every open campaign the investor is eligible for by
// compatibility score, best first. Zero-score campaigns are dropped.
func (s *MatchingService) Recommendations(actor Actor) ([]RankedCampaign, error) {
	inv, crit, err := s.investorContext(actor)
	if err != nil {
		return nil, err
	}
	campaigns, err := s.store.ListCampaignsByStatus(CampaignApproved, CampaignActive)
	if err != nil {
		return nil, err
	}
	year := s.now().Year()
	out := make([]RankedCampaign, 0, len(campaigns))
	for _, c := range campaigns {
		if ok, _ := Eligible(c, inv, crit); !ok {
			continue
		}
		ent, err := s.store.GetEnterprise(c.EnterpriseID)
		if err != nil {
			return nil, err
		}
		if ent == nil {
			continue
		}
		if ok, _ := EligibleEnterprise(ent, crit, year); !ok {
			continue
		}
		score := MatchScore(c, ent, inv, crit)
		if score == 0 {
			continue
		}
		out = append(out, RankedCampaign{Campaign: c, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// ExpressInterest creates a pending match between the investor and campaign,
// or returns the existing one. The call is idempotent per pair.
func (s *MatchingService) ExpressInterest(actor Actor, campaignID, notes string) (*Match, error) {
	inv, crit, err := s.investorContext(actor)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewNotFoundError("campaign not found")
	}
	if ok, reason := Eligible(c, inv, crit); !ok {
		return nil, NewForbiddenError(reason)
	}
	if existing, err := s.store.FindMatch(inv.ID, campaignID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}
	ent, err := s.store.GetEnterprise(c.EnterpriseID)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, NewNotFoundError("enterprise not found")
	}
	now := s.now()
	m := &Match{
		ID:            s.idGenerator(),
		InvestorID:    inv.ID,
		CampaignID:    campaignID,
		EnterpriseID:  c.EnterpriseID,
		Score:         MatchScore(c, ent, inv, crit),
		Status:        MatchPending,
		InvestorNotes: notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := s.store.InsertMatch(m)
	if err != nil {
		return nil, err
	}
	if created != nil {
		m = created
	}
	s.record(m, actor.UserID, "interest", notes)
	s.notifier.Notify(ent.UserID, "match_interest", "New investor interest",
		fmt.Sprintf("An investor expressed interest in %s.", c.Title))
	return m, nil
}

// Approve is the investor side of a pending match: the owning investor (or
// an admin acting for them) confirms the interest and the match moves to
// approved.
func (s *MatchingService) Approve(actor Actor, matchID string) (*Match, error) {
	m, err := s.get(matchID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.InvestorID != m.InvestorID {
		return nil, NewForbiddenError("forbidden")
	}
	if m.Status != MatchPending {
		return nil, NewConflictError("only pending matches can be approved")
	}
	m.InvestorApproved = true
	return s.transition(m, actor.UserID, MatchApproved, "")
}

// Reject closes a match. Admins and the involved investor may reject while
// the match is pending or approved.
func (s *MatchingService) Reject(actor Actor, matchID, reason string) (*Match, error) {
	m, err := s.get(matchID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.InvestorID != m.InvestorID {
		return nil, NewForbiddenError("forbidden")
	}
	if m.Status != MatchPending && m.Status != MatchApproved {
		return nil, NewConflictError("match can no longer be rejected")
	}
	return s.transition(m, actor.UserID, MatchRejected, reason)
}

// Withdraw lets either party step back before the engagement begins. Once a
// match is engaged the parties resolve it through rejection or completion.
func (s *MatchingService) Withdraw(actor Actor, matchID string) (*Match, error) {
	m, err := s.get(matchID)
	if err != nil {
		return nil, err
	}
	party := actor.InvestorID == m.InvestorID || actor.EnterpriseID == m.EnterpriseID
	if !party && !actor.IsAdmin() {
		return nil, NewForbiddenError("forbidden")
	}
	switch m.Status {
	case MatchPending, MatchApproved:
	default:
		return nil, NewConflictError("match can no longer be withdrawn")
	}
	return s.transition(m, actor.UserID, MatchWithdrawn, "")
}

// Accept is the enterprise side of engagement: accepting an approved match
// engages it.
func (s *MatchingService) Accept(actor Actor, matchID, notes string) (*Match, error) {
	m, err := s.get(matchID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.EnterpriseID != m.EnterpriseID {
		return nil, NewForbiddenError("forbidden")
	}
	if m.Status != MatchApproved {
		return nil, NewConflictError("only approved matches can be accepted")
	}
	m.EnterpriseAccepted = true
	m.EnterpriseNotes = notes
	return s.transition(m, actor.UserID, MatchEngaged, notes)
}

// Commit is the investor side of engagement: committing an amount to an
// approved match engages it and stamps the commitment.
func (s *MatchingService) Commit(actor Actor, matchID string, amount float64) (*Match, error) {
	m, err := s.get(matchID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.InvestorID != m.InvestorID {
		return nil, NewForbiddenError("forbidden")
	}
	if m.Status != MatchApproved {
		return nil, NewConflictError("only approved matches accept commitments")
	}
	if amount <= 0 {
		return nil, NewInvalidError("amount must be positive")
	}
	c, err := s.store.GetCampaign(m.CampaignID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewNotFoundError("campaign not found")
	}
	if c.MinInvestment > 0 && amount < c.MinInvestment {
		return nil, NewInvalidError("amount below campaign minimum investment")
	}
	if c.MaxInvestment > 0 && amount > c.MaxInvestment {
		return nil, NewInvalidError("amount above campaign maximum investment")
	}
	now := s.now()
	m.InvestorApproved = true
	m.CommittedAmount = &amount
	m.CommittedAt = &now
	return s.transition(m, actor.UserID, MatchEngaged, fmt.Sprintf("committed %.2f", amount))
}

// ConfirmPayment settles an engaged match: the committed amount is added to
// the campaign's raised total and the match completes.
func (s *MatchingService) ConfirmPayment(actor Actor, matchID string) (*Match, error) {
	if !actor.IsAdmin() {
		return nil, NewForbiddenError("admin role required")
	}
	m, err := s.get(matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != MatchEngaged {
		return nil, NewConflictError("only engaged matches can be settled")
	}
	if m.CommittedAmount == nil {
		return nil, NewInvalidError("match has no committed amount")
	}
	c, err := s.store.GetCampaign(m.CampaignID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewNotFoundError("campaign not found")
	}
	c.AmountRaised += *m.CommittedAmount
	c.InvestorCount++
	if c.AmountRaised >= c.TargetAmount {
		c.Status = CampaignCompleted
	}
	if err := s.store.UpdateCampaign(c); err != nil {
		return nil, err
	}
	return s.transition(m, actor.UserID, MatchCompleted, "")
}

// AddNote records a free-form interaction without changing match state.
func (s *MatchingService) AddNote(actor Actor, matchID, content string) error {
	m, err := s.get(matchID)
	if err != nil {
		return err
	}
	party := actor.InvestorID == m.InvestorID || actor.EnterpriseID == m.EnterpriseID
	if !party && !actor.IsAdmin() {
		return NewForbiddenError("forbidden")
	}
	if content == "" {
		return NewInvalidError("content required")
	}
	s.record(m, actor.UserID, "note", content)
	return nil
}

func (s *MatchingService) Get(actor Actor, matchID string) (*Match, error) {
	m, err := s.get(matchID)
	if err != nil {
		return nil, err
	}
	party := actor.InvestorID == m.InvestorID || actor.EnterpriseID == m.EnterpriseID
	if !party && !actor.IsAdmin() {
		return nil, NewForbiddenError("forbidden")
	}
	return m, nil
}

func (s *MatchingService) Interactions(actor Actor, matchID string) ([]*MatchInteraction, error) {
	if _, err := s.Get(actor, matchID); err != nil {
		return nil, err
	}
	return s.store.ListInteractions(matchID)
}

func (s *MatchingService) ListForInvestor(actor Actor, investorID string) ([]*Match, error) {
	if !actor.IsAdmin() && actor.InvestorID != investorID {
		return nil, NewForbiddenError("forbidden")
	}
	return s.store.ListMatchesByInvestor(investorID)
}

func (s *MatchingService) ListForEnterprise(actor Actor, enterpriseID string) ([]*Match, error) {
	if !actor.IsAdmin() && actor.EnterpriseID != enterpriseID {
		return nil, NewForbiddenError("forbidden")
	}
	return s.store.ListMatchesByEnterprise(enterpriseID)
}

func (s *MatchingService) investorContext(actor Actor) (*Investor, *InvestorCriteria, error) {
	if actor.InvestorID == "" {
		return nil, nil, NewForbiddenError("investor role required")
	}
	inv, err := s.store.GetInvestor(actor.InvestorID)
	if err != nil {
		return nil, nil, err
	}
	if inv == nil {
		return nil, nil, NewNotFoundError("investor not found")
	}
	if !inv.Active {
		return nil, nil, NewForbiddenError("investor profile is inactive")
	}
	all, err := s.store.ListCriteria(inv.ID)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range all {
		if c.Active {
			return inv, c, nil
		}
	}
	// No declared criteria behaves as fully open preferences.
	return inv, &InvestorCriteria{InvestorID: inv.ID}, nil
}

func (s *MatchingService) get(id string) (*Match, error) {
	m, err := s.store.GetMatch(id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, NewNotFoundError("match not found")
	}
	return m, nil
}

func (s *MatchingService) transition(m *Match, actorID, status, note string) (*Match, error) {
	from := m.Status
	m.Status = status
	m.UpdatedAt = s.now()
	if err := s.store.UpdateMatch(m); err != nil {
		return nil, err
	}
	content := fmt.Sprintf("%s -> %s", from, status)
	if note != "" {
		content += ": " + note
	}
	s.record(m, actorID, "status_change", content)
	s.store.AddAudit(AuditEntry{Time: m.UpdatedAt, Actor: actorID, Action: "match_" + status, Target: m.ID})
	return m, nil
}

func (s *MatchingService) record(m *Match, actorID, typ, content string) {
	s.store.InsertInteraction(&MatchInteraction{
		ID:          s.idGenerator(),
		MatchID:     m.ID,
		InitiatedBy: actorID,
		Type:        typ,
		Content:     content,
		CreatedAt:   s.now(),
	})
}
