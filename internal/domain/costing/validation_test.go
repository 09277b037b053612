package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

func TestNormalizeInput_DefaultsAndAliases(t *testing.T) {
	in := CalculationInput{Jurisdictions: []Jurisdiction{"us", " ep ", "Singapore"}}

	got, err := NormalizeInput(in, DefaultRegistry(), 3)

	require.NoError(t, err)
	assert.Equal(t, []Jurisdiction{JurisdictionUSPTO, JurisdictionEPO, JurisdictionIPOS}, got.Jurisdictions)
	assert.Equal(t, IPTypePatent, got.IPType)
	assert.Equal(t, EntityStandard, got.EntityType)
	assert.Equal(t, DefaultProtectionDuration, got.ProtectionDuration)
	assert.Equal(t, []Jurisdiction{"us", " ep ", "Singapore"}, in.Jurisdictions, "input is not mutated")
}

func TestNormalizeInput_CollectsEveryProblem(t *testing.T) {
	in := CalculationInput{
		IPType:             "utility",
		Jurisdictions:      []Jurisdiction{"USPTO", "US", "JPO"},
		EntityType:         "huge",
		ProtectionDuration: 25,
		ClaimCount:         -1,
		PageCount:          -3,
	}

	_, err := NormalizeInput(in, DefaultRegistry(), 3)

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, errors.ErrCodeCostValidation, errors.GetCode(err))
	for _, fragment := range []string{"ip_type", "entity_type", "protection_duration", "claim_count", "page_count", "JPO", "more than once"} {
		assert.Contains(t, err.Error(), fragment)
	}
}

func TestNormalizeInput_EmptyJurisdictions(t *testing.T) {
	_, err := NormalizeInput(CalculationInput{}, DefaultRegistry(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one jurisdiction")
}

func TestNormalizeInput_TierLimit(t *testing.T) {
	in := CalculationInput{Jurisdictions: []Jurisdiction{"USPTO", "EPO", "IPOS"}}

	_, err := NormalizeInput(in, DefaultRegistry(), 2)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTierLimitExceeded, errors.GetCode(err))
	assert.True(t, errors.IsValidation(err))
}

func TestFeeRecord_Validate(t *testing.T) {
	valid := flatFee(JurisdictionEPO, FeeFiling, StagePreGrant, "EUR", 135)
	assert.NoError(t, valid.Validate())
	assert.NoError(t, tieredFee(FeeIssue, 1200).Validate())

	bad := valid
	bad.Amount = f64(-5)
	bad.Currency = ""
	bad.Category = "bribe"
	expiry := bad.EffectiveDate
	bad.ExpirationDate = &expiry

	err := bad.Validate()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFeeRecordInvalid, errors.GetCode(err))
	assert.Contains(t, err.Error(), "amount must not be negative")
	assert.Contains(t, err.Error(), "currency is required")
	assert.Contains(t, err.Error(), "expiration_date")

	none := valid
	none.Amount = nil
	assert.Error(t, none.Validate())
}

func TestExchangeRateAndGrant_Validate(t *testing.T) {
	assert.NoError(t, ExchangeRate{From: "EUR", To: "USD", Rate: 1.07}.Validate())
	assert.Error(t, ExchangeRate{From: "EUR", To: "USD", Rate: 0}.Validate())
	assert.Error(t, ExchangeRate{To: "USD", Rate: 1}.Validate())

	for _, g := range fixtureGrants() {
		assert.NoError(t, g.Validate(), g.ID)
	}
	assert.Error(t, grant("x", "USA", 120, 10, Eligibility{}, true).Validate())
	assert.Error(t, grant("x", "", 10, -1, Eligibility{}, true).Validate())
}

func TestPolicyRegistry(t *testing.T) {
	r := DefaultRegistry()

	j, err := r.Normalize("sgp")
	require.NoError(t, err)
	assert.Equal(t, JurisdictionIPOS, j)

	_, err = r.Normalize("KIPO")
	assert.Equal(t, errors.ErrCodeJurisdictionUnsupported, errors.GetCode(err))

	assert.Equal(t, []Jurisdiction{JurisdictionEPO, JurisdictionIPOS, JurisdictionUSPTO}, r.Codes())
	assert.Equal(t, []int{3, 4, 5}, r.MustGet(JurisdictionEPO).DueYears(5))
	assert.Equal(t, []int{4, 8}, r.MustGet("UNKNOWN").DueYears(10))

	custom := NewPolicyRegistry(JurisdictionPolicy{Code: "jpo", Currency: "JPY"})
	p, ok := custom.Get("JPO")
	require.True(t, ok)
	assert.Equal(t, DefaultFreeClaims, p.FreeClaims)
	assert.Equal(t, DefaultBaseTimeline, p.BaseTimelineMonths)
}
