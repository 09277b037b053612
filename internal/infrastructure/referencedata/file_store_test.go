package referencedata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

var june2025 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestDefault_MatchesSeedSchedule(t *testing.T) {
	store, err := Default()
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, 31, store.FeeCount())

	uspto, err := store.GetFees(ctx, costing.JurisdictionUSPTO, costing.IPTypePatent, june2025)
	require.NoError(t, err)
	assert.Len(t, uspto, 8)

	table := costing.NewFeeTable(uspto)
	filing, ok := table.Lookup(costing.JurisdictionUSPTO, costing.IPTypePatent, costing.FeeFiling, costing.StagePreGrant, june2025)
	require.True(t, ok)
	assert.Equal(t, 87.5, *filing.MicroEntityAmount)
	renewal, ok := table.LookupYear(costing.JurisdictionUSPTO, costing.IPTypePatent, 12, june2025)
	require.True(t, ok)
	assert.Equal(t, 8280.0, *renewal.Amount)

	epo, err := store.GetFees(ctx, costing.JurisdictionEPO, costing.IPTypePatent, june2025)
	require.NoError(t, err)
	assert.Len(t, epo, 14)
	for _, f := range epo {
		assert.Equal(t, "EUR", f.Currency, f.ID)
	}

	ipos, err := store.GetFees(ctx, costing.JurisdictionIPOS, costing.IPTypePatent, june2025)
	require.NoError(t, err)
	assert.Len(t, ipos, 9)
}

func TestDefault_EntityTiersFollowMultipliers(t *testing.T) {
	store, err := Default()
	require.NoError(t, err)

	fees, err := store.GetFees(context.Background(), costing.JurisdictionUSPTO, costing.IPTypePatent, june2025)
	require.NoError(t, err)
	tiered := 0
	for _, f := range fees {
		if f.StandardAmount == nil {
			continue
		}
		tiered++
		require.NotNil(t, f.SmallEntityAmount, f.ID)
		require.NotNil(t, f.MicroEntityAmount, f.ID)
		assert.InDelta(t, *f.StandardAmount*costing.EntitySmall.Multiplier(), *f.SmallEntityAmount, 0.001, f.ID)
		assert.InDelta(t, *f.StandardAmount*costing.EntityMicro.Multiplier(), *f.MicroEntityAmount, 0.001, f.ID)
	}
	assert.Equal(t, 4, tiered)
}

func TestDefault_MicroEntityQuartersUSPTOFees(t *testing.T) {
	store, err := Default()
	require.NoError(t, err)
	ctx := context.Background()
	fees, err := store.GetFees(ctx, costing.JurisdictionUSPTO, costing.IPTypePatent, june2025)
	require.NoError(t, err)
	rates, err := store.GetRatesAsOf(ctx, june2025)
	require.NoError(t, err)
	ref := &costing.ReferenceData{Fees: costing.NewFeeTable(fees), Rates: rates}
	engine := costing.NewEngine(costing.EngineOptions{Registry: costing.DefaultRegistry()})

	run := func(entity costing.EntityType) costing.CostBreakdown {
		in, err := costing.NormalizeInput(costing.CalculationInput{
			Jurisdictions:      []costing.Jurisdiction{costing.JurisdictionUSPTO},
			EntityType:         entity,
			ProtectionDuration: 20,
		}, costing.DefaultRegistry(), 3)
		require.NoError(t, err)
		res := engine.Calculate(ctx, in, ref, june2025)
		require.Len(t, res.PerJurisdiction, 1)
		return res.PerJurisdiction[0].Costs
	}
	std, micro := run(costing.EntityStandard), run(costing.EntityMicro)

	assert.Equal(t, 350.0, std.Filing)
	for name, pair := range map[string][2]float64{
		"filing":      {std.Filing, micro.Filing},
		"search":      {std.Search, micro.Search},
		"examination": {std.Examination, micro.Examination},
		"issue":       {std.Issue, micro.Issue},
		"maintenance": {std.Maintenance, micro.Maintenance},
	} {
		assert.Greater(t, pair[0], 0.0, name)
		assert.InDelta(t, 0.25*pair[0], pair[1], 0.01, name)
	}
}

func TestDefault_EffectiveDatesRespected(t *testing.T) {
	store, err := Default()
	require.NoError(t, err)

	fees, err := store.GetFees(context.Background(), costing.JurisdictionUSPTO, costing.IPTypePatent, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, fees)

	none, err := store.GetFees(context.Background(), costing.JurisdictionEPO, costing.IPTypeTrademark, june2025)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDefault_RatesAndGrants(t *testing.T) {
	store, err := Default()
	require.NoError(t, err)

	rates, err := store.GetRatesAsOf(context.Background(), june2025)
	require.NoError(t, err)
	assert.Equal(t, costing.RateTable{{From: "EUR", To: "USD"}: 1.08, {From: "SGD", To: "USD"}: 0.74}, rates)

	grants, err := store.GetActiveGrants(context.Background(), june2025)
	require.NoError(t, err)
	require.Len(t, grants, 3)
	assert.Equal(t, "eu-sme-fund", grants[0].ID)
	assert.Equal(t, "small", grants[0].Eligibility.CompanySize)
	assert.Equal(t, "sg-ipos-startup", grants[1].ID)
	assert.Equal(t, "Information Technology & Software", grants[1].Eligibility.Sector)
	assert.Equal(t, "us-sbir-ip", grants[2].ID)
}

func TestParse_RejectsInvalidRecords(t *testing.T) {
	doc := []byte(`
fees:
  - id: jpo-filing
    jurisdiction: JPO
    ip_type: patent
    category: filing
    lifecycle_stage: pre-grant
    currency: JPY
    amount: -1
    effective_date: 2024-01-01
  - id: jpo-filing
    jurisdiction: JPO
    ip_type: patent
    category: filing
    lifecycle_stage: pre-grant
    currency: JPY
    amount: 14000
    effective_date: 2024-01-01
rates:
  - {from: JPY, to: USD, rate: 0, effective_date: 2024-01-01}
`)

	_, err := Parse(doc)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFeeRecordInvalid, errors.GetCode(err))
	assert.Contains(t, err.Error(), "fees[0]")
	assert.Contains(t, err.Error(), `duplicate id "jpo-filing"`)
	assert.Contains(t, err.Error(), "rates[0]")
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("fees: [unterminated"))
	assert.Equal(t, errors.ErrCodeReferenceLoadFailed, errors.GetCode(err))
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fees:
  - id: epo-filing
    jurisdiction: EPO
    ip_type: patent
    category: filing
    lifecycle_stage: pre-grant
    currency: EUR
    amount: 135
    effective_date: 2024-04-01
`), 0o600))

	store, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 1, store.FeeCount())

	def, err := Open("")
	require.NoError(t, err)
	assert.Equal(t, 31, def.FeeCount())

	_, err = Open(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, errors.ErrCodeReferenceLoadFailed, errors.GetCode(err))
}

//Personal.AI order the ending
