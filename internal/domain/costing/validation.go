package costing

import (
	"fmt"

	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

const (
	// MinProtectionDuration and MaxProtectionDuration bound the requested
	// protection period in years.
	MinProtectionDuration = 1
	MaxProtectionDuration = 20
	// DefaultProtectionDuration applies when the input leaves it at zero.
	DefaultProtectionDuration = 20
	// DefaultMaxJurisdictions is the jurisdiction limit of the free tier.
	DefaultMaxJurisdictions = 3
)

// NormalizeInput validates in against the registry and returns a copy with
// jurisdiction aliases resolved and defaults filled. All problems are
// reported together in a single validation error.
func NormalizeInput(in CalculationInput, registry *PolicyRegistry, maxJurisdictions int) (CalculationInput, error) {
	if maxJurisdictions <= 0 {
		maxJurisdictions = DefaultMaxJurisdictions
	}
	out := in
	var problems []string

	if out.IPType == "" {
		out.IPType = IPTypePatent
	} else if !out.IPType.IsValid() {
		problems = append(problems, fmt.Sprintf("ip_type %q is not one of patent, trademark, design", in.IPType))
	}
	if out.EntityType == "" {
		out.EntityType = EntityStandard
	} else if !out.EntityType.IsValid() {
		problems = append(problems, fmt.Sprintf("entity_type %q is not one of standard, small, micro", in.EntityType))
	}
	if out.ProtectionDuration == 0 {
		out.ProtectionDuration = DefaultProtectionDuration
	} else if out.ProtectionDuration < MinProtectionDuration || out.ProtectionDuration > MaxProtectionDuration {
		problems = append(problems, fmt.Sprintf("protection_duration %d is outside %d..%d", in.ProtectionDuration, MinProtectionDuration, MaxProtectionDuration))
	}
	if out.ClaimCount < 0 {
		problems = append(problems, "claim_count must not be negative")
	}
	if out.PageCount < 0 {
		problems = append(problems, "page_count must not be negative")
	}

	if len(in.Jurisdictions) == 0 {
		problems = append(problems, "at least one jurisdiction is required")
	}
	out.Jurisdictions = make([]Jurisdiction, 0, len(in.Jurisdictions))
	seen := make(map[Jurisdiction]bool, len(in.Jurisdictions))
	for _, raw := range in.Jurisdictions {
		j, err := registry.Normalize(string(raw))
		if err != nil {
			problems = append(problems, fmt.Sprintf("jurisdiction %q is not supported", raw))
			continue
		}
		if seen[j] {
			problems = append(problems, fmt.Sprintf("jurisdiction %s is listed more than once", j))
			continue
		}
		seen[j] = true
		out.Jurisdictions = append(out.Jurisdictions, j)
	}

	if len(problems) > 0 {
		return in, errors.Validation("invalid calculation input", problems...)
	}
	if len(out.Jurisdictions) > maxJurisdictions {
		return in, errors.New(errors.ErrCodeTierLimitExceeded, "too many jurisdictions for this tier").
			WithDetail(fmt.Sprintf("requested %d, limit %d", len(out.Jurisdictions), maxJurisdictions))
	}
	return out, nil
}

// Validate checks a fee record at the store boundary.
func (r FeeRecord) Validate() error {
	var problems []string
	if r.ID == "" {
		problems = append(problems, "id is required")
	}
	if r.Jurisdiction == "" {
		problems = append(problems, "jurisdiction is required")
	}
	if !r.IPType.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown ip_type %q", r.IPType))
	}
	if !r.Category.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown category %q", r.Category))
	}
	if !r.Stage.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown lifecycle_stage %q", r.Stage))
	}
	if r.Currency == "" {
		problems = append(problems, "currency is required")
	}
	populated := 0
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"amount", r.Amount},
		{"standard_amount", r.StandardAmount},
		{"small_entity_amount", r.SmallEntityAmount},
		{"micro_entity_amount", r.MicroEntityAmount},
	} {
		name, v := f.name, f.v
		if v == nil {
			continue
		}
		populated++
		if *v < 0 {
			problems = append(problems, name+" must not be negative")
		}
	}
	if populated == 0 {
		problems = append(problems, "at least one amount is required")
	}
	if r.ExpirationDate != nil && !r.ExpirationDate.After(r.EffectiveDate) {
		problems = append(problems, "expiration_date must be after effective_date")
	}
	if r.YearDue != nil && *r.YearDue < 0 {
		problems = append(problems, "year_due must not be negative")
	}
	if len(problems) > 0 {
		return errors.New(errors.ErrCodeFeeRecordInvalid, "invalid fee record").
			WithDetail(fmt.Sprintf("%s: %v", r.ID, problems))
	}
	return nil
}

// Validate checks an exchange rate at the store boundary.
func (r ExchangeRate) Validate() error {
	if r.From == "" || r.To == "" {
		return errors.New(errors.ErrCodeReferenceLoadFailed, "exchange rate currencies are required")
	}
	if r.Rate <= 0 {
		return errors.New(errors.ErrCodeReferenceLoadFailed, "exchange rate must be positive").
			WithDetail(fmt.Sprintf("%s/%s=%v", r.From, r.To, r.Rate))
	}
	return nil
}

// Validate checks a grant programme at the store boundary.
func (g GrantProgram) Validate() error {
	var problems []string
	if g.ID == "" {
		problems = append(problems, "id is required")
	}
	if g.Country == "" {
		problems = append(problems, "country is required")
	}
	if g.SubsidyPercentage < 0 || g.SubsidyPercentage > 100 {
		problems = append(problems, "subsidy_percentage must be within 0..100")
	}
	if g.MaxSubsidyAmount < 0 {
		problems = append(problems, "max_subsidy_amount must not be negative")
	}
	if g.ExpirationDate != nil && !g.ExpirationDate.After(g.EffectiveDate) {
		problems = append(problems, "expiration_date must be after effective_date")
	}
	if len(problems) > 0 {
		return errors.New(errors.ErrCodeReferenceLoadFailed, "invalid grant programme").
			WithDetail(fmt.Sprintf("%s: %v", g.ID, problems))
	}
	return nil
}

//Personal.AI order the ending
