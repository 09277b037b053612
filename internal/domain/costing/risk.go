package costing

const (
	riskBase                = 0.3
	riskManyJurisdictions   = 0.15
	riskLongDuration        = 0.1
	riskManyClaims          = 0.1
	riskHighTotal           = 0.2
	riskJurisdictionTrigger = 2
	riskDurationTrigger     = 15
	riskClaimsTrigger       = 25
	riskTotalTrigger        = 100000.0
)

// RiskScore rates the exposure of a filing plan in [0, 1].
func RiskScore(in CalculationInput, totalCost float64) float64 {
	score := riskBase
	if len(in.Jurisdictions) > riskJurisdictionTrigger {
		score += riskManyJurisdictions
	}
	if in.ProtectionDuration > riskDurationTrigger {
		score += riskLongDuration
	}
	if in.ClaimCount > riskClaimsTrigger {
		score += riskManyClaims
	}
	if totalCost > riskTotalTrigger {
		score += riskHighTotal
	}
	return round2(clamp(score, 0, 1))
}

//Personal.AI order the ending
