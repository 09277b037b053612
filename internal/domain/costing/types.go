// Package costing implements the multi-jurisdiction IP cost and timeline
// engine: fee lookup, currency normalization, overage and maintenance
// scheduling, grant discounts, duration estimates, savings and insights.
//
// Everything in this package is a pure function of a CalculationInput and an
// immutable ReferenceData snapshot. I/O happens behind the collaborator
// interfaces declared in repository.go.
package costing

import (
	"fmt"
	"strings"
	"time"
)

// ReportingCurrency is the single currency all jurisdiction totals are
// normalized into.
const ReportingCurrency = "USD"

// IPType identifies the kind of protection being filed for.
type IPType string

const (
	IPTypePatent    IPType = "patent"
	IPTypeTrademark IPType = "trademark"
	IPTypeDesign    IPType = "design"
)

// IsValid reports whether t is a known IP type.
func (t IPType) IsValid() bool {
	switch t {
	case IPTypePatent, IPTypeTrademark, IPTypeDesign:
		return true
	}
	return false
}

// EntityType is the USPTO applicant size tier.
type EntityType string

const (
	EntityStandard EntityType = "standard"
	EntitySmall    EntityType = "small"
	EntityMicro    EntityType = "micro"
)

// IsValid reports whether e is a known entity tier.
func (e EntityType) IsValid() bool {
	switch e {
	case EntityStandard, EntitySmall, EntityMicro:
		return true
	}
	return false
}

// Multiplier returns the fraction of the standard fee payable by the tier.
func (e EntityType) Multiplier() float64 {
	switch e {
	case EntityMicro:
		return 0.25
	case EntitySmall:
		return 0.5
	default:
		return 1.0
	}
}

// Complexity describes how hard the invention is to prosecute.
type Complexity string

const (
	ComplexitySimple          Complexity = "Simple"
	ComplexityComplex         Complexity = "Complex"
	ComplexityCuttingEdge     Complexity = "Cutting-Edge"
	ComplexitySoftwareBiotech Complexity = "Software/Biotech"
)

// FeeCategory classifies a fee record.
type FeeCategory string

const (
	FeeFiling      FeeCategory = "filing"
	FeeSearch      FeeCategory = "search"
	FeeExamination FeeCategory = "examination"
	FeeIssue       FeeCategory = "issue"
	FeeClaims      FeeCategory = "claims"
	FeeDesignation FeeCategory = "designation"
	FeeMaintenance FeeCategory = "maintenance"
)

// IsValid reports whether c is a known fee category.
func (c FeeCategory) IsValid() bool {
	switch c {
	case FeeFiling, FeeSearch, FeeExamination, FeeIssue, FeeClaims, FeeDesignation, FeeMaintenance:
		return true
	}
	return false
}

// LifecycleStage tells whether a fee is due before or after grant.
type LifecycleStage string

const (
	StagePreGrant  LifecycleStage = "pre-grant"
	StagePostGrant LifecycleStage = "post-grant"
)

// IsValid reports whether s is a known lifecycle stage.
func (s LifecycleStage) IsValid() bool {
	return s == StagePreGrant || s == StagePostGrant
}

// ─────────────────────────────────────────────────────────────────────────────
// Reference data
// ─────────────────────────────────────────────────────────────────────────────

// FeeRecord is one row of an official fee schedule. Amounts are expressed in
// Currency, the office's native currency. Tiered jurisdictions populate the
// three entity amounts; others populate Amount.
type FeeRecord struct {
	ID                string         `json:"id" yaml:"id"`
	Jurisdiction      Jurisdiction   `json:"jurisdiction" yaml:"jurisdiction"`
	IPType            IPType         `json:"ip_type" yaml:"ip_type"`
	Category          FeeCategory    `json:"category" yaml:"category"`
	Stage             LifecycleStage `json:"lifecycle_stage" yaml:"lifecycle_stage"`
	Currency          string         `json:"currency" yaml:"currency"`
	Amount            *float64       `json:"amount,omitempty" yaml:"amount,omitempty"`
	StandardAmount    *float64       `json:"standard_amount,omitempty" yaml:"standard_amount,omitempty"`
	SmallEntityAmount *float64       `json:"small_entity_amount,omitempty" yaml:"small_entity_amount,omitempty"`
	MicroEntityAmount *float64       `json:"micro_entity_amount,omitempty" yaml:"micro_entity_amount,omitempty"`
	EffectiveDate     time.Time      `json:"effective_date" yaml:"effective_date"`
	ExpirationDate    *time.Time     `json:"expiration_date,omitempty" yaml:"expiration_date,omitempty"`
	YearDue           *int           `json:"year_due,omitempty" yaml:"year_due,omitempty"`
	Description       string         `json:"description,omitempty" yaml:"description,omitempty"`
}

// ActiveAt reports whether the record is in force at t:
// EffectiveDate <= t < ExpirationDate (open-ended when ExpirationDate is nil).
func (r FeeRecord) ActiveAt(t time.Time) bool {
	if r.EffectiveDate.After(t) {
		return false
	}
	if r.ExpirationDate != nil && !t.Before(*r.ExpirationDate) {
		return false
	}
	return true
}

// FlatAmount returns Amount, falling back to StandardAmount for rows that only
// carry tiered values.
func (r FeeRecord) FlatAmount() (float64, bool) {
	if r.Amount != nil {
		return *r.Amount, true
	}
	if r.StandardAmount != nil {
		return *r.StandardAmount, true
	}
	return 0, false
}

// TierAmount returns the amount populated for the given entity tier.
func (r FeeRecord) TierAmount(e EntityType) (float64, bool) {
	var v *float64
	switch e {
	case EntityMicro:
		v = r.MicroEntityAmount
	case EntitySmall:
		v = r.SmallEntityAmount
	default:
		v = r.StandardAmount
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// CurrencyPair is a directed conversion, From -> To.
type CurrencyPair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// String renders the pair as "FROM/TO".
func (p CurrencyPair) String() string { return p.From + "/" + p.To }

// MarshalText lets RateTable round-trip through JSON object keys.
func (p CurrencyPair) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *CurrencyPair) UnmarshalText(b []byte) error {
	from, to, ok := strings.Cut(string(b), "/")
	if !ok || from == "" || to == "" {
		return fmt.Errorf("costing: invalid currency pair %q", b)
	}
	p.From, p.To = from, to
	return nil
}

// ExchangeRate is one stored conversion rate.
type ExchangeRate struct {
	From          string    `json:"from" yaml:"from"`
	To            string    `json:"to" yaml:"to"`
	Rate          float64   `json:"rate" yaml:"rate"`
	EffectiveDate time.Time `json:"effective_date" yaml:"effective_date"`
}

// RateTable maps currency pairs to the rate in force.
type RateTable map[CurrencyPair]float64

// NewRateTable builds a RateTable from stored rates, keeping the latest
// effective rate per pair that is not after asOf.
func NewRateTable(rates []ExchangeRate, asOf time.Time) RateTable {
	table := make(RateTable, len(rates))
	latest := make(map[CurrencyPair]time.Time, len(rates))
	for _, r := range rates {
		if r.Rate <= 0 || r.EffectiveDate.After(asOf) {
			continue
		}
		pair := CurrencyPair{From: r.From, To: r.To}
		if seen, ok := latest[pair]; ok && seen.After(r.EffectiveDate) {
			continue
		}
		latest[pair] = r.EffectiveDate
		table[pair] = r.Rate
	}
	return table
}

// Eligibility holds optional applicant criteria of a grant programme. Empty
// fields impose no constraint.
type Eligibility struct {
	CompanySize string `json:"company_size,omitempty" yaml:"company_size,omitempty"`
	Sector      string `json:"sector,omitempty" yaml:"sector,omitempty"`
}

// GrantProgram is a subsidy that discounts filing costs in one country.
// MaxSubsidyAmount is expressed in the reporting currency.
type GrantProgram struct {
	ID                string      `json:"id" yaml:"id"`
	Name              string      `json:"name" yaml:"name"`
	Country           string      `json:"country" yaml:"country"`
	SubsidyPercentage float64     `json:"subsidy_percentage" yaml:"subsidy_percentage"`
	MaxSubsidyAmount  float64     `json:"max_subsidy_amount" yaml:"max_subsidy_amount"`
	Eligibility       Eligibility `json:"eligibility_criteria" yaml:"eligibility_criteria"`
	IsActive          bool        `json:"is_active" yaml:"is_active"`
	EffectiveDate     time.Time   `json:"effective_date" yaml:"effective_date"`
	ExpirationDate    *time.Time  `json:"expiration_date,omitempty" yaml:"expiration_date,omitempty"`
	Description       string      `json:"description,omitempty" yaml:"description,omitempty"`
}

// ActiveAt reports whether the programme is flagged active and in force at t.
func (g GrantProgram) ActiveAt(t time.Time) bool {
	if !g.IsActive || g.EffectiveDate.After(t) {
		return false
	}
	return g.ExpirationDate == nil || t.Before(*g.ExpirationDate)
}

// ─────────────────────────────────────────────────────────────────────────────
// Input
// ─────────────────────────────────────────────────────────────────────────────

// StrategicContext is free-form applicant context forwarded to the narrative
// prompt.
type StrategicContext struct {
	Industry         string `json:"industry,omitempty"`
	BusinessStage    string `json:"business_stage,omitempty"`
	CompanyName      string `json:"company_name,omitempty"`
	PressingQuestion string `json:"pressing_question,omitempty"`
}

// CalculationInput is the user-declared description of a filing plan.
// ClaimCount and PageCount of zero mean "not provided".
type CalculationInput struct {
	IPType              IPType           `json:"ip_type"`
	Jurisdictions       []Jurisdiction   `json:"jurisdictions"`
	EntityType          EntityType       `json:"entity_type"`
	Complexity          Complexity       `json:"solution_complexity"`
	ProtectionDuration  int              `json:"protection_duration"`
	ClaimCount          int              `json:"claim_count,omitempty"`
	PageCount           int              `json:"page_count,omitempty"`
	IndustrySector      string           `json:"industry_sector,omitempty"`
	CompanySize         string           `json:"company_size,omitempty"`
	BusinessDescription string           `json:"business_description,omitempty"`
	Context             StrategicContext `json:"strategic_context,omitempty"`
	SkipSearchFees      bool             `json:"skip_search_fees,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Output
// ─────────────────────────────────────────────────────────────────────────────

// CostBreakdown is the per-jurisdiction cost split in the reporting currency.
// Total is the sum of every other field except DiscountedTotal.
type CostBreakdown struct {
	Filing          float64 `json:"filing"`
	Search          float64 `json:"search"`
	Examination     float64 `json:"examination"`
	Issue           float64 `json:"issue"`
	Maintenance     float64 `json:"maintenance"`
	ClaimsExtra     float64 `json:"claims_extra"`
	PagesExtra      float64 `json:"pages_extra"`
	Designations    float64 `json:"designations"`
	Total           float64 `json:"total"`
	DiscountedTotal float64 `json:"discounted_total"`
}

// Sum returns the sum of all line items.
func (b CostBreakdown) Sum() float64 {
	return b.Filing + b.Search + b.Examination + b.Issue +
		b.Maintenance + b.ClaimsExtra + b.PagesExtra + b.Designations
}

// OfficialPreGrant returns the pre-grant line items (everything except
// maintenance).
func (b CostBreakdown) OfficialPreGrant() float64 {
	return b.Sum() - b.Maintenance
}

// TimelineEntry is one scheduled payment.
type TimelineEntry struct {
	Year        int     `json:"year"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	FeeType     string  `json:"fee_type"`
	IsRequired  bool    `json:"is_required"`
}

// MonthRange is a min/max/average duration in months.
type MonthRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Average int `json:"average"`
}

// TimelineEstimate is the filing-to-grant and full-lifecycle duration estimate.
type TimelineEstimate struct {
	FilingToGrant    MonthRange `json:"filing_to_grant"`
	TotalTimeline    MonthRange `json:"total_timeline"`
	ProsecutionDelay int        `json:"prosecution_delays"`
	IndustryFactor   float64    `json:"industry_factor"`
}

// JurisdictionCost is the complete result for one requested jurisdiction.
type JurisdictionCost struct {
	Jurisdiction     Jurisdiction     `json:"jurisdiction"`
	NativeCurrency   string           `json:"native_currency"`
	Costs            CostBreakdown    `json:"costs"`
	Timeline         []TimelineEntry  `json:"timeline"`
	Duration         TimelineEstimate `json:"duration"`
	ApplicableGrants []GrantProgram   `json:"applicable_grants"`
	// DataComplete is false when any required fee lookup came back empty.
	DataComplete bool `json:"data_complete"`
}

// AssumptionKind classifies a recorded assumption.
type AssumptionKind string

const (
	AssumptionDataGap      AssumptionKind = "data_gap"
	AssumptionRateFallback AssumptionKind = "rate_fallback"
	AssumptionEstimated    AssumptionKind = "estimated"
	AssumptionExcluded     AssumptionKind = "excluded"
	AssumptionUnavailable  AssumptionKind = "collaborator_unavailable"
)

// Assumption annotates a degraded-confidence part of the result.
type Assumption struct {
	Kind         AssumptionKind `json:"kind"`
	Jurisdiction Jurisdiction   `json:"jurisdiction,omitempty"`
	// IPType is set on notes that concern one fee schedule only.
	IPType  IPType `json:"ip_type,omitempty"`
	Message string `json:"message"`
}

// InsightType classifies an insight.
type InsightType string

const (
	InsightCostComparison InsightType = "cost_comparison"
	InsightRiskAssessment InsightType = "risk_assessment"
	InsightRecommendation InsightType = "recommendation"
	InsightOptimization   InsightType = "optimization"
)

// InsightSource tells where an insight came from.
type InsightSource string

const (
	SourceRule      InsightSource = "rule"
	SourceNarrative InsightSource = "narrative"
	SourceFallback  InsightSource = "fallback"
)

// Insight is a human-readable observation about the result.
type Insight struct {
	Type       InsightType   `json:"type"`
	Title      string        `json:"title"`
	Message    string        `json:"message"`
	Priority   string        `json:"priority"`
	Confidence float64       `json:"confidence_score"`
	Actionable bool          `json:"actionable"`
	Source     InsightSource `json:"source"`
}

// YearCost is the amount due in one year across all jurisdictions.
type YearCost struct {
	Year int     `json:"year"`
	Cost float64 `json:"cost"`
}

// FilingStrategy names a filing route.
type FilingStrategy string

const (
	StrategyDirect FilingStrategy = "Direct Filing"
	StrategyPCT    FilingStrategy = "PCT Route"
)

// StrategyOption is the cost and timeline of one filing route.
type StrategyOption struct {
	Strategy  FilingStrategy   `json:"strategy"`
	TotalCost float64          `json:"total_cost"`
	Timeline  TimelineEstimate `json:"timeline"`
}

// StrategyComparison contrasts direct filing with the PCT route.
type StrategyComparison struct {
	DirectFiling StrategyOption `json:"direct_filing"`
	PCTRoute     StrategyOption `json:"pct_route"`
}

// Result is the aggregate output of one calculation.
type Result struct {
	ReportingCurrency  string              `json:"reporting_currency"`
	TotalCost          float64             `json:"total_cost"`
	TotalWithGrants    float64             `json:"total_with_grants"`
	PotentialSavings   float64             `json:"potential_savings"`
	PerJurisdiction    []JurisdictionCost  `json:"per_jurisdiction"`
	Timeline           TimelineEstimate    `json:"timeline"`
	YearlyCashflow     []YearCost          `json:"yearly_cashflow"`
	CashFlowAlerts     []string            `json:"cash_flow_alerts"`
	Insights           []Insight           `json:"insights"`
	RiskScore          float64             `json:"risk_score"`
	Savings            SavingsEstimate     `json:"savings"`
	RecommendedGrants  []GrantProgram      `json:"recommended_grants"`
	SuggestedStrategy  FilingStrategy      `json:"suggested_strategy"`
	StrategyComparison *StrategyComparison `json:"strategy_comparison,omitempty"`
	ExchangeRatesUsed  map[string]float64  `json:"exchange_rates_used"`
	Assumptions        []Assumption        `json:"assumptions"`
	CalculatedAt       time.Time           `json:"calculated_at"`
}

// Jurisdiction returns the breakdown for j, if it was requested.
func (r *Result) Jurisdiction(j Jurisdiction) (JurisdictionCost, bool) {
	for _, jc := range r.PerJurisdiction {
		if jc.Jurisdiction == j {
			return jc, true
		}
	}
	return JurisdictionCost{}, false
}

//Personal.AI order the ending
