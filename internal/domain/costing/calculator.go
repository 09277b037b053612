package costing

import (
	"fmt"
	"time"
)

// FeeCalculation is the pre-grant part of one jurisdiction's costs, before
// maintenance and grants are applied.
type FeeCalculation struct {
	Costs       CostBreakdown
	Timeline    []TimelineEntry
	Assumptions []Assumption
	Complete    bool
}

// FeeCalculator computes base fees, claim and page overage and designation
// fees for one jurisdiction.
type FeeCalculator struct {
	registry *PolicyRegistry
}

// NewFeeCalculator creates a FeeCalculator backed by registry.
func NewFeeCalculator(registry *PolicyRegistry) *FeeCalculator {
	return &FeeCalculator{registry: registry}
}

type baseFee struct {
	category    FeeCategory
	description string
	year        int
	target      func(*CostBreakdown) *float64
}

var baseFees = []baseFee{
	{FeeFiling, "Filing Fee", 0, func(b *CostBreakdown) *float64 { return &b.Filing }},
	{FeeSearch, "Search Fee", 0, func(b *CostBreakdown) *float64 { return &b.Search }},
	{FeeExamination, "Examination Fee", 1, func(b *CostBreakdown) *float64 { return &b.Examination }},
	{FeeIssue, "Issue/Grant Fee", 2, func(b *CostBreakdown) *float64 { return &b.Issue }},
}

// Calculate returns the pre-grant costs for j in the reporting currency.
// Missing fee records yield zero line items plus a data-gap assumption.
func (c *FeeCalculator) Calculate(in CalculationInput, j Jurisdiction, fees *FeeTable, norm *CurrencyNormalizer, asOf time.Time) FeeCalculation {
	policy := c.registry.MustGet(j)
	out := FeeCalculation{Complete: true}

	for _, bf := range baseFees {
		if bf.category == FeeSearch && in.SkipSearchFees {
			out.Assumptions = append(out.Assumptions, Assumption{
				Kind:         AssumptionExcluded,
				Jurisdiction: j,
				Message:      "search fees excluded on request",
			})
			continue
		}
		rec, ok := fees.Lookup(j, in.IPType, bf.category, StagePreGrant, asOf)
		if !ok {
			out.gap(j, fmt.Sprintf("no active %s fee for %s %s; counted as 0", bf.category, j, in.IPType))
			continue
		}
		native, estimated, ok := entityAmount(policy, rec, in.EntityType)
		if !ok {
			out.gap(j, fmt.Sprintf("%s fee record %s has no usable amount; counted as 0", bf.category, rec.ID))
			continue
		}
		if estimated {
			out.Assumptions = append(out.Assumptions, Assumption{
				Kind:         AssumptionEstimated,
				Jurisdiction: j,
				Message:      fmt.Sprintf("%s %s amount derived from the standard fee", in.EntityType, bf.category),
			})
		}
		amount := round2(norm.ToReporting(native, rec.Currency))
		*bf.target(&out.Costs) = amount
		out.addEntry(bf.year, bf.description, amount, string(bf.category))
	}

	out.Costs.ClaimsExtra = c.claimsOverage(&out, in, policy, fees, norm, asOf)
	out.addEntry(0, "Excess Claims Fee", out.Costs.ClaimsExtra, string(FeeClaims))

	out.Costs.PagesExtra = pagesOverage(in, policy, norm)
	out.addEntry(0, "Excess Pages Fee", out.Costs.PagesExtra, "pages")

	out.Costs.Designations = c.designations(&out, in, policy, fees, norm, asOf)
	out.addEntry(1, "Designation Fees", out.Costs.Designations, string(FeeDesignation))

	return out
}

func (c *FeeCalculator) claimsOverage(out *FeeCalculation, in CalculationInput, policy JurisdictionPolicy, fees *FeeTable, norm *CurrencyNormalizer, asOf time.Time) float64 {
	extra := in.ClaimCount - policy.FreeClaims
	if extra <= 0 {
		return 0
	}
	rec, ok := fees.Lookup(policy.Code, in.IPType, FeeClaims, StagePreGrant, asOf)
	if !ok {
		out.gap(policy.Code, fmt.Sprintf("no active per-claim fee for %s; %d excess claims counted as 0", policy.Code, extra))
		return 0
	}
	perClaim, ok := rec.FlatAmount()
	if !ok {
		out.gap(policy.Code, fmt.Sprintf("claims fee record %s has no usable amount", rec.ID))
		return 0
	}
	total := float64(extra) * perClaim
	if policy.EntityTiers {
		total *= in.EntityType.Multiplier()
	}
	return round2(norm.ToReporting(total, rec.Currency))
}

func pagesOverage(in CalculationInput, policy JurisdictionPolicy, norm *CurrencyNormalizer) float64 {
	extra := in.PageCount - policy.FreePages
	if extra <= 0 {
		return 0
	}
	return round2(norm.ToReporting(float64(extra)*policy.PerPageFee, policy.Currency))
}

func (c *FeeCalculator) designations(out *FeeCalculation, in CalculationInput, policy JurisdictionPolicy, fees *FeeTable, norm *CurrencyNormalizer, asOf time.Time) float64 {
	if policy.DesignationCount <= 0 {
		return 0
	}
	rec, ok := fees.Lookup(policy.Code, in.IPType, FeeDesignation, StagePreGrant, asOf)
	if !ok {
		out.gap(policy.Code, fmt.Sprintf("no active designation fee for %s; counted as 0", policy.Code))
		return 0
	}
	perCountry, ok := rec.FlatAmount()
	if !ok {
		out.gap(policy.Code, fmt.Sprintf("designation fee record %s has no usable amount", rec.ID))
		return 0
	}
	return round2(norm.ToReporting(float64(policy.DesignationCount)*perCountry, rec.Currency))
}

// entityAmount picks the tier amount for tiered offices and the flat amount
// elsewhere. A tiered office missing the tier column falls back to the
// standard amount times the tier multiplier and reports estimated=true.
func entityAmount(policy JurisdictionPolicy, rec FeeRecord, entity EntityType) (amount float64, estimated, ok bool) {
	if !policy.EntityTiers {
		amount, ok = rec.FlatAmount()
		return amount, false, ok
	}
	if v, found := rec.TierAmount(entity); found {
		return v, false, true
	}
	std, found := rec.FlatAmount()
	if !found {
		return 0, false, false
	}
	return std * entity.Multiplier(), entity != EntityStandard, true
}

func (f *FeeCalculation) gap(j Jurisdiction, msg string) {
	f.Complete = false
	f.Assumptions = append(f.Assumptions, Assumption{Kind: AssumptionDataGap, Jurisdiction: j, Message: msg})
}

func (f *FeeCalculation) addEntry(year int, description string, amount float64, feeType string) {
	if amount <= 0 {
		return
	}
	f.Timeline = append(f.Timeline, TimelineEntry{
		Year:        year,
		Description: description,
		Amount:      amount,
		FeeType:     feeType,
		IsRequired:  true,
	})
}

//Personal.AI order the ending
