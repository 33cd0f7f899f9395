package services

// Compatibility bonus weights. A campaign scoring zero overall is never
// surfaced to the investor.
const (
	bonusSector        = 30
	bonusFundingRange  = 20
	bonusPreferredSize = 15
	bonusTicketFit     = 10
)

// MatchScore rates how well a campaign fits an investor's active criteria.
// Each satisfied dimension adds a fixed bonus; dimensions the criteria leave
// unset contribute nothing rather than counting as a miss.
func MatchScore(c *Campaign, ent *Enterprise, inv *Investor, crit *InvestorCriteria) float64 {
	var score float64
	if len(crit.Sectors) > 0 && containsFold(crit.Sectors, ent.Sector) {
		score += bonusSector
	}
	if crit.MinFundingAmount > 0 || crit.MaxFundingAmount > 0 {
		min, max := crit.MinFundingAmount, crit.MaxFundingAmount
		if (min == 0 || c.TargetAmount >= min) && (max == 0 || c.TargetAmount <= max) {
			score += bonusFundingRange
		}
	}
	if len(crit.PreferredSizes) > 0 && containsFold(crit.PreferredSizes, ent.EnterpriseSize) {
		score += bonusPreferredSize
	}
	if c.MinInvestment > 0 && inv.MaxInvestment > 0 && c.MinInvestment <= inv.MaxInvestment {
		score += bonusTicketFit
	}
	return score
}

// Eligible reports whether an investor may see and engage a campaign at all.
// The returned reason is empty when eligible.
func Eligible(c *Campaign, inv *Investor, crit *InvestorCriteria) (bool, string) {
	if c.Status != CampaignApproved && c.Status != CampaignActive {
		return false, "campaign is not open for investment"
	}
	if len(c.TargetInvestorIDs) > 0 && !containsFold(c.TargetInvestorIDs, inv.ID) {
		return false, "campaign targets a restricted investor list"
	}
	readiness := 0.0
	if c.ReadinessScoreAtSubmission != nil {
		readiness = *c.ReadinessScoreAtSubmission
	}
	if crit.MinReadinessScore > 0 && readiness < crit.MinReadinessScore {
		return false, "readiness score below investor threshold"
	}
	if crit.AutoRejectBelowScore != nil && readiness < *crit.AutoRejectBelowScore {
		return false, "readiness score below auto-reject threshold"
	}
	return true, ""
}

// EligibleEnterprise applies the criteria's enterprise-level floors.
func EligibleEnterprise(ent *Enterprise, crit *InvestorCriteria, currentYear int) (bool, string) {
	if crit.MinEmployees > 0 && ent.NumberOfEmployees < crit.MinEmployees {
		return false, "enterprise below minimum headcount"
	}
	if crit.MinYearsOperation > 0 && ent.YearEstablished > 0 {
		if currentYear-ent.YearEstablished < crit.MinYearsOperation {
			return false, "enterprise below minimum years of operation"
		}
	}
	return true, ""
}
