package services

import "time"

// CriteriaStore abstracts persistence operations required by InvestorService.
type CriteriaStore interface {
	GetInvestor(id string) (*Investor, error)
	InsertCriteria(c *InvestorCriteria) (*InvestorCriteria, error)
	GetCriteria(id string) (*InvestorCriteria, error)
	UpdateCriteria(c *InvestorCriteria) error
	ListCriteria(investorID string) ([]*InvestorCriteria, error)
	AddAudit(entry AuditEntry)
}

// InvestorService manages investor matching criteria. One criteria set per
// investor is active at a time; activating one deactivates the rest.
type InvestorService struct {
	store       CriteriaStore
	now         func() time.Time
	idGenerator func() string
}

func NewInvestorService(store CriteriaStore) *InvestorService {
	return &InvestorService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: func() string { return shortID(12) },
	}
}

func (s *InvestorService) CreateCriteria(actor Actor, c *InvestorCriteria) (*InvestorCriteria, error) {
	if actor.InvestorID == "" && !actor.IsAdmin() {
		return nil, NewForbiddenError("investor role required")
	}
	if c == nil {
		return nil, NewInvalidError("criteria required")
	}
	if !actor.IsAdmin() {
		c.InvestorID = actor.InvestorID
	}
	inv, err := s.store.GetInvestor(c.InvestorID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, NewNotFoundError("investor not found")
	}
	if err := validateCriteria(c); err != nil {
		return nil, err
	}
	if c.ID == "" {
		c.ID = s.idGenerator()
	}
	c.CreatedAt = s.now()
	if c.Active {
		if err := s.deactivateOthers(c.InvestorID, c.ID); err != nil {
			return nil, err
		}
	}
	created, err := s.store.InsertCriteria(c)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor.UserID, Action: "create_criteria", Target: c.ID})
	if created == nil {
		return c, nil
	}
	return created, nil
}

func (s *InvestorService) UpdateCriteria(actor Actor, c *InvestorCriteria) error {
	if c == nil || c.ID == "" {
		return NewInvalidError("criteria id required")
	}
	existing, err := s.store.GetCriteria(c.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return NewNotFoundError("criteria not found")
	}
	if !actor.IsAdmin() && actor.InvestorID != existing.InvestorID {
		return NewForbiddenError("forbidden")
	}
	c.InvestorID = existing.InvestorID
	c.CreatedAt = existing.CreatedAt
	if err := validateCriteria(c); err != nil {
		return err
	}
	if c.Active && !existing.Active {
		if err := s.deactivateOthers(c.InvestorID, c.ID); err != nil {
			return err
		}
	}
	return s.store.UpdateCriteria(c)
}

// ActivateCriteria makes the given set the investor's single active one.
func (s *InvestorService) ActivateCriteria(actor Actor, id string) error {
	c, err := s.store.GetCriteria(id)
	if err != nil {
		return err
	}
	if c == nil {
		return NewNotFoundError("criteria not found")
	}
	if !actor.IsAdmin() && actor.InvestorID != c.InvestorID {
		return NewForbiddenError("forbidden")
	}
	if err := s.deactivateOthers(c.InvestorID, c.ID); err != nil {
		return err
	}
	if c.Active {
		return nil
	}
	c.Active = true
	return s.store.UpdateCriteria(c)
}

func (s *InvestorService) ListCriteria(actor Actor, investorID string) ([]*InvestorCriteria, error) {
	if !actor.IsAdmin() && actor.InvestorID != investorID {
		return nil, NewForbiddenError("forbidden")
	}
	return s.store.ListCriteria(investorID)
}

// ActiveCriteria returns the investor's active criteria set, or nil when none
// is configured.
func (s *InvestorService) ActiveCriteria(investorID string) (*InvestorCriteria, error) {
	all, err := s.store.ListCriteria(investorID)
	if err != nil {
		return nil, err
	}
	for _, c := range all {
		if c.Active {
			return c, nil
		}
	}
	return nil, nil
}

func (s *InvestorService) deactivateOthers(investorID, keepID string) error {
	all, err := s.store.ListCriteria(investorID)
	if err != nil {
		return err
	}
	for _, other := range all {
		if other.ID != keepID && other.Active {
			other.Active = false
			if err := s.store.UpdateCriteria(other); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateCriteria(c *InvestorCriteria) error {
	if c.MinFundingAmount < 0 || c.MaxFundingAmount < 0 {
		return NewInvalidError("funding bounds must not be negative")
	}
	if c.MinFundingAmount > 0 && c.MaxFundingAmount > 0 && c.MinFundingAmount > c.MaxFundingAmount {
		return NewInvalidError("min_funding_amount exceeds max_funding_amount")
	}
	if c.MinReadinessScore < 0 || c.MinReadinessScore > 100 {
		return NewInvalidError("min_readiness_score must be within 0-100")
	}
	if c.AutoRejectBelowScore != nil && (*c.AutoRejectBelowScore < 0 || *c.AutoRejectBelowScore > 100) {
		return NewInvalidError("auto_reject_below_score must be within 0-100")
	}
	if c.MinYearsOperation < 0 || c.MinEmployees < 0 {
		return NewInvalidError("enterprise floors must not be negative")
	}
	return nil
}
