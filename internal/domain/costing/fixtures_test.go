package costing

import (
	"fmt"
	"time"
)

var (
	fixtureEffective = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fixtureAsOf      = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func flatFee(j Jurisdiction, cat FeeCategory, stage LifecycleStage, currency string, amount float64) FeeRecord {
	return FeeRecord{
		ID:            fmt.Sprintf("%s-%s-%s", j, cat, stage),
		Jurisdiction:  j,
		IPType:        IPTypePatent,
		Category:      cat,
		Stage:         stage,
		Currency:      currency,
		Amount:        f64(amount),
		EffectiveDate: fixtureEffective,
	}
}

func tieredFee(cat FeeCategory, standard float64) FeeRecord {
	return FeeRecord{
		ID:                fmt.Sprintf("USPTO-%s", cat),
		Jurisdiction:      JurisdictionUSPTO,
		IPType:            IPTypePatent,
		Category:          cat,
		Stage:             StagePreGrant,
		Currency:          "USD",
		StandardAmount:    f64(standard),
		SmallEntityAmount: f64(standard * 0.5),
		MicroEntityAmount: f64(standard * 0.25),
		EffectiveDate:     fixtureEffective,
	}
}

func renewal(j Jurisdiction, currency string, year int, amount float64) FeeRecord {
	r := flatFee(j, FeeMaintenance, StagePostGrant, currency, amount)
	r.ID = fmt.Sprintf("%s-renewal-%02d", j, year)
	r.YearDue = intp(year)
	return r
}

// fixtureFees is a small official fee schedule for the three offices.
func fixtureFees() []FeeRecord {
	recs := []FeeRecord{
		tieredFee(FeeFiling, 400),
		tieredFee(FeeSearch, 1000),
		tieredFee(FeeExamination, 2500),
		tieredFee(FeeIssue, 1200),
		flatFee(JurisdictionUSPTO, FeeClaims, StagePreGrant, "USD", 420),
		renewal(JurisdictionUSPTO, "USD", 4, 1600),
		renewal(JurisdictionUSPTO, "USD", 8, 3600),
		renewal(JurisdictionUSPTO, "USD", 12, 7400),

		flatFee(JurisdictionEPO, FeeFiling, StagePreGrant, "EUR", 135),
		flatFee(JurisdictionEPO, FeeSearch, StagePreGrant, "EUR", 1520),
		flatFee(JurisdictionEPO, FeeExamination, StagePreGrant, "EUR", 1915),
		flatFee(JurisdictionEPO, FeeIssue, StagePreGrant, "EUR", 1080),
		flatFee(JurisdictionEPO, FeeClaims, StagePreGrant, "EUR", 270),
		flatFee(JurisdictionEPO, FeeDesignation, StagePreGrant, "EUR", 100),

		flatFee(JurisdictionIPOS, FeeFiling, StagePreGrant, "SGD", 170),
		flatFee(JurisdictionIPOS, FeeSearch, StagePreGrant, "SGD", 1735),
		flatFee(JurisdictionIPOS, FeeExamination, StagePreGrant, "SGD", 1420),
		flatFee(JurisdictionIPOS, FeeIssue, StagePreGrant, "SGD", 210),
		flatFee(JurisdictionIPOS, FeeClaims, StagePreGrant, "SGD", 40),
	}
	for i, amount := range []float64{530, 690, 845, 1000, 1155, 1305, 1440, 1590} {
		recs = append(recs, renewal(JurisdictionEPO, "EUR", i+3, amount))
	}
	for i, amount := range []float64{165, 165, 165, 430, 430, 430, 600, 600} {
		recs = append(recs, renewal(JurisdictionIPOS, "SGD", i+5, amount))
	}
	return recs
}

func fixtureRates() RateTable {
	return RateTable{
		{From: "EUR", To: "USD"}: 1.07,
		{From: "SGD", To: "USD"}: 0.74,
	}
}

func grant(id, country string, pct, maxAmount float64, elig Eligibility, active bool) GrantProgram {
	return GrantProgram{
		ID:                id,
		Name:              id,
		Country:           country,
		SubsidyPercentage: pct,
		MaxSubsidyAmount:  maxAmount,
		Eligibility:       elig,
		IsActive:          active,
		EffectiveDate:     fixtureEffective,
	}
}

func fixtureGrants() []GrantProgram {
	return []GrantProgram{
		grant("grant-us-startup", "USA", 50, 5000, Eligibility{CompanySize: "startup"}, true),
		grant("grant-eu-sme", "EU", 20, 500, Eligibility{}, true),
		grant("grant-sg-ipo", "Singapore", 40, 15000, Eligibility{Sector: "Information Technology & Software"}, true),
		grant("grant-sg-retired", "Singapore", 90, 90000, Eligibility{}, false),
	}
}

func fixtureReference() *ReferenceData {
	return &ReferenceData{
		Fees:   NewFeeTable(fixtureFees()),
		Rates:  fixtureRates(),
		Grants: fixtureGrants(),
	}
}

func scenarioAInput() CalculationInput {
	return CalculationInput{
		IPType:             IPTypePatent,
		Jurisdictions:      []Jurisdiction{JurisdictionUSPTO},
		EntityType:         EntityStandard,
		ProtectionDuration: 20,
		ClaimCount:         10,
		PageCount:          20,
	}
}
