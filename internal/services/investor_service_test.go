package services

import (
	"fmt"
	"testing"
	"time"
)

func testInvestorService(st *stubPlatformStore) *InvestorService {
	svc := NewInvestorService(st)
	svc.now = func() time.Time { return time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC) }
	n := 0
	svc.idGenerator = func() string { n++; return fmt.Sprintf("cr%d", n+1) }
	return svc
}

func TestCreateCriteriaValidation(t *testing.T) {
	st := seededPlatformStore()
	svc := testInvestorService(st)

	if _, err := svc.CreateCriteria(investorActor, &InvestorCriteria{MinFundingAmount: 100, MaxFundingAmount: 50}); err == nil {
		t.Fatal("inverted funding bounds must fail")
	}
	if _, err := svc.CreateCriteria(investorActor, &InvestorCriteria{MinReadinessScore: 150}); err == nil {
		t.Fatal("readiness above 100 must fail")
	}
	bad := -5.0
	if _, err := svc.CreateCriteria(investorActor, &InvestorCriteria{AutoRejectBelowScore: &bad}); err == nil {
		t.Fatal("negative auto-reject must fail")
	}
	c, err := svc.CreateCriteria(investorActor, &InvestorCriteria{Sectors: []string{"agriculture"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.InvestorID != "inv1" {
		t.Fatalf("investor id: got %s", c.InvestorID)
	}
}

func TestActivateCriteriaDeactivatesOthers(t *testing.T) {
	st := seededPlatformStore() // cr1 active
	svc := testInvestorService(st)

	c2, err := svc.CreateCriteria(investorActor, &InvestorCriteria{Active: true, Sectors: []string{"tourism"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !c2.Active || st.criteria["cr1"].Active {
		t.Fatal("creating an active set must deactivate cr1")
	}

	if err := svc.ActivateCriteria(investorActor, "cr1"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !st.criteria["cr1"].Active || st.criteria[c2.ID].Active {
		t.Fatal("activation must be exclusive")
	}
}

func TestCriteriaOwnership(t *testing.T) {
	st := seededPlatformStore()
	svc := testInvestorService(st)
	outsider := Actor{UserID: "x", Role: RoleInvestor, InvestorID: "inv2"}
	st.investors["inv2"] = &Investor{ID: "inv2", Active: true}

	if err := svc.ActivateCriteria(outsider, "cr1"); err == nil {
		t.Fatal("foreign activation must fail")
	}
	if _, err := svc.ListCriteria(outsider, "inv1"); err == nil {
		t.Fatal("foreign listing must fail")
	}
	if _, err := svc.ListCriteria(adminActor, "inv1"); err != nil {
		t.Fatalf("admin listing: %v", err)
	}
}

func TestActiveCriteria(t *testing.T) {
	st := seededPlatformStore()
	svc := testInvestorService(st)
	c, err := svc.ActiveCriteria("inv1")
	if err != nil || c == nil || c.ID != "cr1" {
		t.Fatalf("got %+v, err %v", c, err)
	}
	st.criteria["cr1"].Active = false
	c, err = svc.ActiveCriteria("inv1")
	if err != nil || c != nil {
		t.Fatalf("expected nil, got %+v", c)
	}
}
