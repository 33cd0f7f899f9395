package services

import (
	"strings"
	"time"
)

// CampaignStore abstracts persistence operations required by CampaignService.
type CampaignStore interface {
	InsertCampaign(c *Campaign) (*Campaign, error)
	GetCampaign(id string) (*Campaign, error)
	UpdateCampaign(c *Campaign) error
	ListCampaignsByEnterprise(enterpriseID string) ([]*Campaign, error)
	ListCampaignsByStatus(statuses ...string) ([]*Campaign, error)
	GetEnterprise(id string) (*Enterprise, error)
	GetInvestor(id string) (*Investor, error)
	ListCriteria(investorID string) ([]*InvestorCriteria, error)
	AddAudit(entry AuditEntry)
}

// ReadinessSource provides the enterprise readiness score captured into a
// campaign at submission time. AssessmentService satisfies it.
type ReadinessSource interface {
	ReadinessScore(enterpriseID string) (float64, bool, error)
}

type CampaignService struct {
	store       CampaignStore
	readiness   ReadinessSource
	notifier    Notifier
	now         func() time.Time
	idGenerator func() string
}

func NewCampaignService(store CampaignStore, readiness ReadinessSource, notifier Notifier) *CampaignService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &CampaignService{
		store:       store,
		readiness:   readiness,
		notifier:    notifier,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: func() string { return shortID(12) },
	}
}

func (s *CampaignService) Create(actor Actor, c *Campaign) (*Campaign, error) {
	if actor.EnterpriseID == "" && !actor.IsAdmin() {
		return nil, NewForbiddenError("enterprise role required")
	}
	if c == nil || strings.TrimSpace(c.Title) == "" {
		return nil, NewInvalidError("title required")
	}
	if !actor.IsAdmin() {
		c.EnterpriseID = actor.EnterpriseID
	}
	ent, err := s.store.GetEnterprise(c.EnterpriseID)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, NewNotFoundError("enterprise not found")
	}
	if err := validateCampaignAmounts(c); err != nil {
		return nil, err
	}
	c.ID = s.idGenerator()
	c.Status = CampaignDraft
	c.AmountRaised = 0
	c.InvestorCount = 0
	c.CreatedAt = s.now()
	created, err := s.store.InsertCampaign(c)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor.UserID, Action: "create_campaign", Target: c.ID})
	if created == nil {
		return c, nil
	}
	return created, nil
}

func (s *CampaignService) Update(actor Actor, c *Campaign) error {
	if c == nil || c.ID == "" {
		return NewInvalidError("campaign id required")
	}
	existing, err := s.store.GetCampaign(c.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return NewNotFoundError("campaign not found")
	}
	if !actor.IsAdmin() && actor.EnterpriseID != existing.EnterpriseID {
		return NewForbiddenError("forbidden")
	}
	if existing.Status != CampaignDraft {
		return NewConflictError("only draft campaigns can be edited")
	}
	if strings.TrimSpace(c.Title) == "" {
		return NewInvalidError("title required")
	}
	if err := validateCampaignAmounts(c); err != nil {
		return err
	}
	c.EnterpriseID = existing.EnterpriseID
	c.Status = existing.Status
	c.AmountRaised = existing.AmountRaised
	c.InvestorCount = existing.InvestorCount
	c.CreatedAt = existing.CreatedAt
	return s.store.UpdateCampaign(c)
}

// Submit freezes the enterprise's readiness score into the campaign and runs
// auto-screening. A campaign aimed only at investors whose active criteria
// auto-reject its readiness is declined on the spot; anything else goes to
// the vetting queue.
func (s *CampaignService) Submit(actor Actor, id string) (*Campaign, error) {
	c, err := s.owned(actor, id)
	if err != nil {
		return nil, err
	}
	if c.Status != CampaignDraft {
		return nil, NewConflictError("only draft campaigns can be submitted")
	}
	if score, ok, err := s.readiness.ReadinessScore(c.EnterpriseID); err != nil {
		return nil, err
	} else if ok {
		c.ReadinessScoreAtSubmission = &score
	}
	now := s.now()
	c.SubmittedAt = &now
	c.PassedAutoScreening = true
	if reason, declined := s.autoScreen(c); declined {
		c.Status = CampaignDeclined
		c.PassedAutoScreening = false
		c.DeclineReason = reason
	} else {
		c.Status = CampaignSubmitted
	}
	if err := s.store.UpdateCampaign(c); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: actor.UserID, Action: "submit_campaign", Target: c.ID, Note: c.Status})
	if c.Status == CampaignDeclined {
		if ent, err := s.store.GetEnterprise(c.EnterpriseID); err == nil && ent != nil {
			s.notifier.Notify(ent.UserID, "campaign_declined", "Campaign declined", c.DeclineReason)
		}
	}
	return c, nil
}

// autoScreen returns a decline reason when every targeted investor's active
// criteria auto-rejects the campaign's readiness snapshot. Open campaigns are
// never declined here; ineligible investors simply never see them.
func (s *CampaignService) autoScreen(c *Campaign) (string, bool) {
	if len(c.TargetInvestorIDs) == 0 {
		return "", false
	}
	readiness := 0.0
	if c.ReadinessScoreAtSubmission != nil {
		readiness = *c.ReadinessScoreAtSubmission
	}
	for _, invID := range c.TargetInvestorIDs {
		crit := s.activeCriteria(invID)
		if crit == nil || crit.AutoRejectBelowScore == nil || readiness >= *crit.AutoRejectBelowScore {
			return "", false
		}
	}
	return "readiness score below the auto-reject threshold of all targeted investors", true
}

func (s *CampaignService) activeCriteria(investorID string) *InvestorCriteria {
	all, err := s.store.ListCriteria(investorID)
	if err != nil {
		return nil
	}
	for _, c := range all {
		if c.Active {
			return c
		}
	}
	return nil
}

// Approve vets a submitted campaign and opens it to investors.
func (s *CampaignService) Approve(actor Actor, id string) (*Campaign, error) {
	return s.vet(actor, id, CampaignApproved, "")
}

// Decline rejects a submitted campaign with a reason for the enterprise.
func (s *CampaignService) Decline(actor Actor, id, reason string) (*Campaign, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, NewInvalidError("reason required")
	}
	return s.vet(actor, id, CampaignDeclined, reason)
}

func (s *CampaignService) vet(actor Actor, id, status, reason string) (*Campaign, error) {
	if !actor.IsAdmin() {
		return nil, NewForbiddenError("admin role required")
	}
	c, err := s.store.GetCampaign(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewNotFoundError("campaign not found")
	}
	if c.Status != CampaignSubmitted {
		return nil, NewConflictError("only submitted campaigns can be vetted")
	}
	now := s.now()
	c.Status = status
	c.DeclineReason = reason
	c.VettedBy = actor.UserID
	c.VettedAt = &now
	if err := s.store.UpdateCampaign(c); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: actor.UserID, Action: "vet_campaign", Target: c.ID, Note: status})
	if ent, err := s.store.GetEnterprise(c.EnterpriseID); err == nil && ent != nil {
		if status == CampaignApproved {
			s.notifier.Notify(ent.UserID, "campaign_approved", "Campaign approved", "Your campaign is now visible to investors.")
		} else {
			s.notifier.Notify(ent.UserID, "campaign_declined", "Campaign declined", reason)
		}
	}
	return c, nil
}

// Activate opens an approved campaign for commitments.
func (s *CampaignService) Activate(actor Actor, id string) (*Campaign, error) {
	if !actor.IsAdmin() {
		return nil, NewForbiddenError("admin role required")
	}
	c, err := s.store.GetCampaign(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewNotFoundError("campaign not found")
	}
	if c.Status != CampaignApproved {
		return nil, NewConflictError("only approved campaigns can be activated")
	}
	c.Status = CampaignActive
	return c, s.store.UpdateCampaign(c)
}

// Cancel withdraws a campaign that has not completed.
func (s *CampaignService) Cancel(actor Actor, id string) (*Campaign, error) {
	c, err := s.owned(actor, id)
	if err != nil {
		return nil, err
	}
	switch c.Status {
	case CampaignCompleted, CampaignCancelled, CampaignDeclined:
		return nil, NewConflictError("campaign can no longer be cancelled")
	}
	c.Status = CampaignCancelled
	if err := s.store.UpdateCampaign(c); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor.UserID, Action: "cancel_campaign", Target: c.ID})
	return c, nil
}

// Get enforces visibility: owners and admins always see a campaign;
// investors only see open ones that do not exclude them.
func (s *CampaignService) Get(actor Actor, id string) (*Campaign, error) {
	c, err := s.store.GetCampaign(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewNotFoundError("campaign not found")
	}
	if actor.IsAdmin() || actor.EnterpriseID == c.EnterpriseID {
		return c, nil
	}
	if actor.InvestorID != "" {
		if c.Status == CampaignApproved || c.Status == CampaignActive {
			if len(c.TargetInvestorIDs) == 0 || containsFold(c.TargetInvestorIDs, actor.InvestorID) {
				return c, nil
			}
		}
	}
	return nil, NewNotFoundError("campaign not found")
}

func (s *CampaignService) ListForEnterprise(actor Actor, enterpriseID string) ([]*Campaign, error) {
	if !actor.IsAdmin() && actor.EnterpriseID != enterpriseID {
		return nil, NewForbiddenError("forbidden")
	}
	return s.store.ListCampaignsByEnterprise(enterpriseID)
}

// ListPendingReview returns the admin vetting queue.
func (s *CampaignService) ListPendingReview(actor Actor) ([]*Campaign, error) {
	if !actor.IsAdmin() {
		return nil, NewForbiddenError("admin role required")
	}
	return s.store.ListCampaignsByStatus(CampaignSubmitted)
}

func (s *CampaignService) owned(actor Actor, id string) (*Campaign, error) {
	c, err := s.store.GetCampaign(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewNotFoundError("campaign not found")
	}
	if !actor.IsAdmin() && actor.EnterpriseID != c.EnterpriseID {
		return nil, NewForbiddenError("forbidden")
	}
	return c, nil
}

func validateCampaignAmounts(c *Campaign) error {
	if c.TargetAmount <= 0 {
		return NewInvalidError("target_amount must be positive")
	}
	if c.MinInvestment < 0 || c.MaxInvestment < 0 {
		return NewInvalidError("investment bounds must not be negative")
	}
	if c.MinInvestment > 0 && c.MaxInvestment > 0 && c.MinInvestment > c.MaxInvestment {
		return NewInvalidError("min_investment exceeds max_investment")
	}
	return nil
}
