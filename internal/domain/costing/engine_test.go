package costing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(EngineOptions{Registry: DefaultRegistry()})
}

func TestEngine_ScenarioA(t *testing.T) {
	res := newTestEngine().Calculate(context.Background(), scenarioAInput(), fixtureReference(), fixtureAsOf)

	require.Len(t, res.PerJurisdiction, 1)
	jc := res.PerJurisdiction[0]
	assert.Equal(t, JurisdictionUSPTO, jc.Jurisdiction)
	assert.Zero(t, jc.Costs.ClaimsExtra)
	assert.Zero(t, jc.Costs.PagesExtra)
	assert.Equal(t, 400.0+1000+2500+1200+1600+3600+7400, jc.Costs.Total)
	assert.Equal(t, jc.Costs.Total, jc.Costs.DiscountedTotal)
	assert.True(t, jc.DataComplete)

	years := make([]int, 0, len(jc.Timeline))
	for _, e := range jc.Timeline {
		years = append(years, e.Year)
	}
	assert.Equal(t, []int{0, 0, 1, 2, 4, 8, 12}, years)

	assert.Equal(t, jc.Costs.Total, res.TotalCost)
	assert.Equal(t, ReportingCurrency, res.ReportingCurrency)
	assert.Equal(t, StrategyDirect, res.SuggestedStrategy)
	assert.Nil(t, res.StrategyComparison)
	assert.Empty(t, res.ExchangeRatesUsed)
	assert.Equal(t, fixtureAsOf, res.CalculatedAt)
}

func TestEngine_ScenarioB_MicroReducesEveryTieredComponent(t *testing.T) {
	eng := newTestEngine()
	std := eng.Calculate(context.Background(), scenarioAInput(), fixtureReference(), fixtureAsOf)
	in := scenarioAInput()
	in.EntityType = EntityMicro
	micro := eng.Calculate(context.Background(), in, fixtureReference(), fixtureAsOf)

	a, b := std.PerJurisdiction[0].Costs, micro.PerJurisdiction[0].Costs
	assert.Equal(t, a.Filing*0.25, b.Filing)
	assert.Equal(t, a.Search*0.25, b.Search)
	assert.Equal(t, a.Examination*0.25, b.Examination)
	assert.Equal(t, a.Issue*0.25, b.Issue)
	assert.Equal(t, a.Maintenance*0.25, b.Maintenance)
	assert.Equal(t, a.Total*0.25, b.Total)
}

func TestEngine_ScenarioE_MissingRateFallsBackToIdentity(t *testing.T) {
	ref := &ReferenceData{
		Fees: NewFeeTable([]FeeRecord{flatFee(JurisdictionEPO, FeeFiling, StagePreGrant, "EUR", 1000)}),
	}
	in := CalculationInput{
		IPType:             IPTypePatent,
		Jurisdictions:      []Jurisdiction{JurisdictionEPO},
		EntityType:         EntityStandard,
		ProtectionDuration: 1,
	}

	res := newTestEngine().Calculate(context.Background(), in, ref, fixtureAsOf)

	assert.Equal(t, 1000.0, res.PerJurisdiction[0].Costs.Filing)
	assert.Equal(t, 1000.0, res.TotalCost)
	assert.Equal(t, map[string]float64{"EUR/USD": 1.0}, res.ExchangeRatesUsed)
	assert.False(t, res.PerJurisdiction[0].DataComplete)

	var fallback bool
	for _, a := range res.Assumptions {
		if a.Kind == AssumptionRateFallback {
			fallback = true
		}
	}
	assert.True(t, fallback)
}

func TestEngine_RatesUsedEchoAppliedRates(t *testing.T) {
	in := scenarioAInput()
	in.Jurisdictions = []Jurisdiction{JurisdictionUSPTO, JurisdictionEPO, JurisdictionIPOS}

	res := newTestEngine().Calculate(context.Background(), in, fixtureReference(), fixtureAsOf)

	assert.Equal(t, map[string]float64{"EUR/USD": 1.07, "SGD/USD": 0.74}, res.ExchangeRatesUsed)
	for _, a := range res.Assumptions {
		assert.NotEqual(t, AssumptionRateFallback, a.Kind)
	}
}

func TestEngine_EveryJurisdictionPresentWhenDataMissing(t *testing.T) {
	in := scenarioAInput()
	in.Jurisdictions = []Jurisdiction{JurisdictionIPOS, JurisdictionUSPTO}
	ref := &ReferenceData{
		Fees: NewFeeTable(nil),
		Assumptions: []Assumption{{
			Kind:         AssumptionUnavailable,
			Jurisdiction: JurisdictionIPOS,
			Message:      "fee store timeout",
		}},
	}

	res := newTestEngine().Calculate(context.Background(), in, ref, fixtureAsOf)

	require.Len(t, res.PerJurisdiction, 2)
	assert.Equal(t, JurisdictionIPOS, res.PerJurisdiction[0].Jurisdiction)
	assert.Equal(t, JurisdictionUSPTO, res.PerJurisdiction[1].Jurisdiction)
	for _, jc := range res.PerJurisdiction {
		assert.Zero(t, jc.Costs.Total)
		assert.False(t, jc.DataComplete)
	}
	assert.Equal(t, ref.Assumptions[0], res.Assumptions[0])
	assert.Zero(t, res.TotalCost)
	assert.GreaterOrEqual(t, res.RiskScore, 0.0)
}

func TestEngine_LoadNotesForOtherSchedulesIgnored(t *testing.T) {
	in := scenarioAInput()
	ref := fixtureReference()
	ref.Assumptions = []Assumption{
		{Kind: AssumptionUnavailable, Jurisdiction: JurisdictionUSPTO, IPType: IPTypeTrademark, Message: "USPTO trademark fee schedule unavailable"},
		{Kind: AssumptionUnavailable, Jurisdiction: JurisdictionEPO, IPType: IPTypePatent, Message: "EPO patent fee schedule unavailable"},
		{Kind: AssumptionUnavailable, Message: "grant programmes unavailable"},
	}

	res := newTestEngine().Calculate(context.Background(), in, ref, fixtureAsOf)

	require.Len(t, res.PerJurisdiction, 1)
	assert.True(t, res.PerJurisdiction[0].DataComplete)
	assert.Contains(t, res.Assumptions, ref.Assumptions[2])
	assert.NotContains(t, res.Assumptions, ref.Assumptions[0])
	assert.NotContains(t, res.Assumptions, ref.Assumptions[1])

	in.IPType = IPTypeTrademark
	res = newTestEngine().Calculate(context.Background(), in, ref, fixtureAsOf)
	assert.False(t, res.PerJurisdiction[0].DataComplete)
	assert.Contains(t, res.Assumptions, ref.Assumptions[0])
}

func TestEngine_GrantsDiscountMatchingJurisdiction(t *testing.T) {
	in := scenarioAInput()
	in.CompanySize = "startup"

	res := newTestEngine().Calculate(context.Background(), in, fixtureReference(), fixtureAsOf)

	jc := res.PerJurisdiction[0]
	require.Len(t, jc.ApplicableGrants, 1)
	assert.Equal(t, "grant-us-startup", jc.ApplicableGrants[0].ID)
	assert.Equal(t, jc.Costs.Total-5000, jc.Costs.DiscountedTotal)
	assert.Equal(t, 5000.0, res.PotentialSavings)
	assert.Equal(t, res.TotalCost-res.TotalWithGrants, res.PotentialSavings)
	assert.Len(t, res.RecommendedGrants, RecommendedGrantLimit)
}

func TestEngine_Invariants(t *testing.T) {
	eng := newTestEngine()
	ref := fixtureReference()
	sets := [][]Jurisdiction{
		{JurisdictionUSPTO},
		{JurisdictionEPO},
		{JurisdictionIPOS},
		{JurisdictionUSPTO, JurisdictionEPO, JurisdictionIPOS},
	}
	for _, js := range sets {
		for _, entity := range []EntityType{EntityStandard, EntitySmall, EntityMicro} {
			for _, duration := range []int{1, 5, 10, 15, 20} {
				for _, claims := range []int{0, 15, 16, 40} {
					in := CalculationInput{
						IPType:             IPTypePatent,
						Jurisdictions:      js,
						EntityType:         entity,
						Complexity:         ComplexityComplex,
						ProtectionDuration: duration,
						ClaimCount:         claims,
						PageCount:          claims * 2,
						CompanySize:        "startup",
						IndustrySector:     "Information Technology & Software",
					}
					res := eng.Calculate(context.Background(), in, ref, fixtureAsOf)
					require.Len(t, res.PerJurisdiction, len(js))

					for _, jc := range res.PerJurisdiction {
						c := jc.Costs
						assert.InDelta(t, c.Sum(), c.Total, 0.01)
						assert.GreaterOrEqual(t, c.DiscountedTotal, 0.0)
						assert.LessOrEqual(t, c.DiscountedTotal, c.Total)

						var sum float64
						for i, e := range jc.Timeline {
							sum += e.Amount
							assert.GreaterOrEqual(t, e.Amount, 0.0)
							if e.FeeType == string(FeeMaintenance) {
								assert.LessOrEqual(t, e.Year, duration)
							}
							if i > 0 {
								assert.LessOrEqual(t, jc.Timeline[i-1].Year, e.Year)
							}
						}
						assert.InDelta(t, c.Total, sum, 0.01)
					}
					assert.GreaterOrEqual(t, res.PotentialSavings, 0.0)
					assert.GreaterOrEqual(t, res.RiskScore, 0.0)
					assert.LessOrEqual(t, res.RiskScore, 1.0)
					assert.LessOrEqual(t, res.Savings.TotalSavings, res.TotalCost*SavingsCapRatio+0.05)
				}
			}
		}
	}
}

func TestEngine_Idempotent(t *testing.T) {
	eng := newTestEngine()
	in := scenarioAInput()
	in.Jurisdictions = []Jurisdiction{JurisdictionEPO, JurisdictionUSPTO, JurisdictionIPOS}
	in.ClaimCount = 32
	in.PageCount = 45
	in.CompanySize = "startup"

	first := eng.Calculate(context.Background(), in, fixtureReference(), fixtureAsOf)
	second := eng.Calculate(context.Background(), in, fixtureReference(), fixtureAsOf)

	assert.Equal(t, first, second)
}

func TestEngine_MultiJurisdictionComparisonAndCashflow(t *testing.T) {
	in := scenarioAInput()
	in.Jurisdictions = []Jurisdiction{JurisdictionUSPTO, JurisdictionEPO, JurisdictionIPOS}

	res := newTestEngine().Calculate(context.Background(), in, fixtureReference(), fixtureAsOf)

	assert.Equal(t, StrategyPCT, res.SuggestedStrategy)
	require.NotNil(t, res.StrategyComparison)
	assert.Equal(t, round2(res.TotalCost*PCTCostMultiplier), res.StrategyComparison.PCTRoute.TotalCost)

	var flow float64
	for _, yc := range res.YearlyCashflow {
		flow += yc.Cost
		if yc.Year == 12 {
			assert.Contains(t, res.CashFlowAlerts, fmt.Sprintf("Year 12: Large payment due (%s)", FormatUSD(yc.Cost)))
		}
	}
	assert.InDelta(t, res.TotalCost, flow, 0.05)
}

func TestBuildPreview(t *testing.T) {
	in := scenarioAInput()
	in.CompanySize = "startup"
	res := newTestEngine().Calculate(context.Background(), in, fixtureReference(), fixtureAsOf)

	p := BuildPreview(in, res)

	assert.Equal(t, res.TotalCost, p.TotalCost)
	require.Len(t, p.PerJurisdiction, 1)
	assert.Equal(t, res.PerJurisdiction[0].Costs.Total, p.PerJurisdiction[0].Total)
	assert.Contains(t, p.GenericInsight, "provisional patent")
	assert.Equal(t, UpgradeTeaser, p.UpgradeTeaser)

	in.CompanySize = "enterprise"
	assert.Contains(t, BuildPreview(in, res).GenericInsight, "small entity status")
}
