package services

import "testing"

func TestMatchScoreBonuses(t *testing.T) {
	ent := &Enterprise{Sector: "agriculture", EnterpriseSize: "small"}
	inv := &Investor{MaxInvestment: 50000}
	c := &Campaign{TargetAmount: 200000, MinInvestment: 10000}

	cases := []struct {
		name string
		crit InvestorCriteria
		want float64
	}{
		{"all four", InvestorCriteria{
			Sectors:          []string{"agriculture"},
			MinFundingAmount: 100000,
			MaxFundingAmount: 500000,
			PreferredSizes:   []string{"small", "medium"},
		}, 75},
		{"sector only", InvestorCriteria{Sectors: []string{"Agriculture"}}, 40},
		{"sector miss", InvestorCriteria{Sectors: []string{"manufacturing"}}, 10},
		{"funding out of range", InvestorCriteria{MinFundingAmount: 500000}, 10},
		{"open max funding", InvestorCriteria{MinFundingAmount: 100000}, 30},
		{"no criteria dimensions", InvestorCriteria{}, 10},
	}
	for _, c2 := range cases {
		if got := MatchScore(c, ent, inv, &c2.crit); got != c2.want {
			t.Fatalf("%s: got %v, want %v", c2.name, got, c2.want)
		}
	}
}

func TestMatchScoreTicketFit(t *testing.T) {
	ent := &Enterprise{}
	crit := &InvestorCriteria{}
	c := &Campaign{MinInvestment: 100000}
	if got := MatchScore(c, ent, &Investor{MaxInvestment: 50000}, crit); got != 0 {
		t.Fatalf("ticket too small: got %v, want 0", got)
	}
	if got := MatchScore(c, ent, &Investor{MaxInvestment: 100000}, crit); got != 10 {
		t.Fatalf("ticket fits: got %v, want 10", got)
	}
}

func TestEligible(t *testing.T) {
	inv := &Investor{ID: "inv1"}
	open := func() *Campaign {
		r := 60.0
		return &Campaign{Status: CampaignActive, ReadinessScoreAtSubmission: &r}
	}

	if ok, _ := Eligible(open(), inv, &InvestorCriteria{}); !ok {
		t.Fatal("open campaign should be eligible")
	}

	c := open()
	c.Status = CampaignDraft
	if ok, _ := Eligible(c, inv, &InvestorCriteria{}); ok {
		t.Fatal("draft campaign must not be eligible")
	}

	c = open()
	c.TargetInvestorIDs = []string{"other"}
	if ok, reason := Eligible(c, inv, &InvestorCriteria{}); ok || reason == "" {
		t.Fatal("targeted campaign must exclude non-listed investors")
	}
	c.TargetInvestorIDs = []string{"inv1"}
	if ok, _ := Eligible(c, inv, &InvestorCriteria{}); !ok {
		t.Fatal("listed investor should be eligible")
	}

	if ok, _ := Eligible(open(), inv, &InvestorCriteria{MinReadinessScore: 70}); ok {
		t.Fatal("readiness 60 below threshold 70")
	}
	if ok, _ := Eligible(open(), inv, &InvestorCriteria{MinReadinessScore: 60}); !ok {
		t.Fatal("readiness 60 meets threshold 60")
	}

	auto := 65.0
	if ok, reason := Eligible(open(), inv, &InvestorCriteria{AutoRejectBelowScore: &auto}); ok || reason == "" {
		t.Fatal("auto-reject threshold must exclude")
	}

	// No snapshot behaves as readiness zero.
	c = &Campaign{Status: CampaignApproved}
	if ok, _ := Eligible(c, inv, &InvestorCriteria{MinReadinessScore: 1}); ok {
		t.Fatal("missing snapshot must fail a positive threshold")
	}
	if ok, _ := Eligible(c, inv, &InvestorCriteria{}); !ok {
		t.Fatal("missing snapshot with no threshold should pass")
	}
}

func TestEligibleEnterprise(t *testing.T) {
	ent := &Enterprise{NumberOfEmployees: 8, YearEstablished: 2022}
	if ok, _ := EligibleEnterprise(ent, &InvestorCriteria{MinEmployees: 10}, 2025); ok {
		t.Fatal("headcount floor must exclude")
	}
	if ok, _ := EligibleEnterprise(ent, &InvestorCriteria{MinYearsOperation: 5}, 2025); ok {
		t.Fatal("years floor must exclude")
	}
	if ok, _ := EligibleEnterprise(ent, &InvestorCriteria{MinEmployees: 5, MinYearsOperation: 3}, 2025); !ok {
		t.Fatal("should pass both floors")
	}
}
