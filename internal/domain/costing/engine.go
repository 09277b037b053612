package costing

import (
	"context"
	"sort"
	"strings"
	"time"
)

// ReferenceData is an immutable snapshot of fee, rate and grant tables.
// Assumptions carries degradations that happened while loading it, such as a
// jurisdiction whose fee store call failed.
type ReferenceData struct {
	Fees        *FeeTable
	Rates       RateTable
	Grants      []GrantProgram
	Assumptions []Assumption
	LoadedAt    time.Time
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Registry   *PolicyRegistry
	Narrative  NarrativeService
	Insights   InsightOptions
	IncludeTax bool
}

// Engine runs the full calculation pipeline. It holds no per-request state
// and is safe for concurrent use.
type Engine struct {
	registry *PolicyRegistry
	fees     *FeeCalculator
	maint    *MaintenanceScheduler
	timeline *TimelineEstimator
	savings  *SavingsEstimator
	insights *InsightComposer
}

// NewEngine wires the calculation components.
func NewEngine(opts EngineOptions) *Engine {
	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Engine{
		registry: registry,
		fees:     NewFeeCalculator(registry),
		maint:    NewMaintenanceScheduler(registry),
		timeline: NewTimelineEstimator(registry),
		savings:  NewSavingsEstimator(opts.IncludeTax),
		insights: NewInsightComposer(opts.Narrative, opts.Insights),
	}
}

// Registry returns the policy registry the engine was built with.
func (e *Engine) Registry() *PolicyRegistry { return e.registry }

// Calculate computes the result for an already normalized input against ref
// as of asOf. Every requested jurisdiction appears in PerJurisdiction, in
// request order, even when its data is missing.
func (e *Engine) Calculate(ctx context.Context, in CalculationInput, ref *ReferenceData, asOf time.Time) *Result {
	if ref == nil {
		ref = &ReferenceData{}
	}
	norm := NewCurrencyNormalizer(ref.Rates, ReportingCurrency)
	matcher := NewGrantMatcher(e.registry, ref.Grants)
	industry := industryOf(in)

	res := &Result{
		ReportingCurrency: ReportingCurrency,
		PerJurisdiction:   make([]JurisdictionCost, 0, len(in.Jurisdictions)),
		CalculatedAt:      asOf,
	}
	loadNotes, degraded := relevantLoadNotes(in, ref.Assumptions)
	res.Assumptions = append(res.Assumptions, loadNotes...)

	estimates := make([]TimelineEstimate, 0, len(in.Jurisdictions))
	for _, j := range in.Jurisdictions {
		jc, notes := e.jurisdiction(in, j, ref.Fees, norm, matcher, industry, asOf)
		if degraded[j] {
			jc.DataComplete = false
		}
		res.PerJurisdiction = append(res.PerJurisdiction, jc)
		res.Assumptions = append(res.Assumptions, notes...)
		res.TotalCost += jc.Costs.Total
		res.TotalWithGrants += jc.Costs.DiscountedTotal
		estimates = append(estimates, jc.Duration)
	}
	res.TotalCost = round2(res.TotalCost)
	res.TotalWithGrants = round2(clamp(res.TotalWithGrants, 0, res.TotalCost))
	res.PotentialSavings = round2(max(0, res.TotalCost-res.TotalWithGrants))
	res.Assumptions = append(res.Assumptions, norm.Assumptions()...)
	res.ExchangeRatesUsed = norm.RatesUsed()

	res.Timeline = e.timeline.Aggregate(estimates)
	res.YearlyCashflow = YearlyCashflow(res.PerJurisdiction)
	res.CashFlowAlerts = CashFlowAlerts(res.YearlyCashflow)
	res.Savings = e.savings.Estimate(in, res.PerJurisdiction, res.TotalCost)
	res.RiskScore = RiskScore(in, res.TotalCost)
	res.RecommendedGrants = matcher.Recommend(asOf)
	res.SuggestedStrategy = SuggestStrategy(len(in.Jurisdictions))
	res.StrategyComparison = CompareStrategies(len(in.Jurisdictions), res.TotalCost, res.Timeline)

	insights, notes := e.insights.Compose(ctx, in, res.PerJurisdiction, res.TotalCost)
	res.Insights = insights
	res.Assumptions = append(res.Assumptions, notes...)
	return res
}

func (e *Engine) jurisdiction(in CalculationInput, j Jurisdiction, fees *FeeTable, norm *CurrencyNormalizer, matcher *GrantMatcher, industry string, asOf time.Time) (JurisdictionCost, []Assumption) {
	policy := e.registry.MustGet(j)
	fc := e.fees.Calculate(in, j, fees, norm, asOf)
	ms := e.maint.Schedule(in, j, fees, norm, asOf)

	costs := fc.Costs
	costs.Maintenance = ms.Total
	costs.Total = round2(costs.Sum())

	timeline := make([]TimelineEntry, 0, len(fc.Timeline)+len(ms.Entries))
	timeline = append(timeline, fc.Timeline...)
	timeline = append(timeline, ms.Entries...)
	sort.SliceStable(timeline, func(a, b int) bool { return timeline[a].Year < timeline[b].Year })

	grants := matcher.FindApplicable(j, in.CompanySize, industry, asOf)
	costs.DiscountedTotal = matcher.ApplyDiscount(costs.Total, grants)

	notes := make([]Assumption, 0, len(fc.Assumptions)+len(ms.Assumptions))
	notes = append(notes, fc.Assumptions...)
	notes = append(notes, ms.Assumptions...)

	return JurisdictionCost{
		Jurisdiction:     j,
		NativeCurrency:   policy.Currency,
		Costs:            costs,
		Timeline:         timeline,
		Duration:         e.timeline.Estimate(j, industry, in.Complexity),
		ApplicableGrants: grants,
		DataComplete:     fc.Complete && ms.Complete,
	}, notes
}

// relevantLoadNotes keeps the reference-load assumptions that touch in:
// notes without an office, and notes for a requested office whose IP type is
// unset or matches. The map marks the offices whose data is incomplete.
func relevantLoadNotes(in CalculationInput, notes []Assumption) ([]Assumption, map[Jurisdiction]bool) {
	requested := make(map[Jurisdiction]bool, len(in.Jurisdictions))
	for _, j := range in.Jurisdictions {
		requested[j] = true
	}
	var kept []Assumption
	degraded := make(map[Jurisdiction]bool)
	for _, a := range notes {
		if a.Jurisdiction != "" {
			if !requested[a.Jurisdiction] || (a.IPType != "" && a.IPType != in.IPType) {
				continue
			}
			degraded[a.Jurisdiction] = true
		}
		kept = append(kept, a)
	}
	return kept, degraded
}

func industryOf(in CalculationInput) string {
	if in.IndustrySector != "" {
		return in.IndustrySector
	}
	return in.Context.Industry
}

// ─────────────────────────────────────────────────────────────────────────────
// Preview
// ─────────────────────────────────────────────────────────────────────────────

// UpgradeTeaser is shown with every preview.
const UpgradeTeaser = "Unlock the full report for the per-jurisdiction fee breakdown, savings strategies and tailored recommendations."

// JurisdictionTotal is the headline cost of one jurisdiction in a preview.
type JurisdictionTotal struct {
	Jurisdiction Jurisdiction `json:"jurisdiction"`
	Total        float64      `json:"total"`
}

// Preview is the free, reduced view of a Result.
type Preview struct {
	TotalCost       float64             `json:"total_cost"`
	PerJurisdiction []JurisdictionTotal `json:"per_jurisdiction"`
	YearlyCashflow  []YearCost          `json:"yearly_cashflow"`
	CashFlowAlerts  []string            `json:"cash_flow_alerts"`
	Timeline        TimelineEstimate    `json:"timeline"`
	GenericInsight  string              `json:"generic_insight"`
	UpgradeTeaser   string              `json:"upgrade_teaser"`
	Assumptions     []Assumption        `json:"assumptions"`
}

// BuildPreview reduces res to the free preview for in.
func BuildPreview(in CalculationInput, res *Result) *Preview {
	p := &Preview{
		TotalCost:       res.TotalCost,
		PerJurisdiction: make([]JurisdictionTotal, 0, len(res.PerJurisdiction)),
		YearlyCashflow:  res.YearlyCashflow,
		CashFlowAlerts:  res.CashFlowAlerts,
		Timeline:        res.Timeline,
		GenericInsight:  genericInsight(in),
		UpgradeTeaser:   UpgradeTeaser,
		Assumptions:     res.Assumptions,
	}
	for _, jc := range res.PerJurisdiction {
		p.PerJurisdiction = append(p.PerJurisdiction, JurisdictionTotal{Jurisdiction: jc.Jurisdiction, Total: jc.Costs.Total})
	}
	return p
}

func genericInsight(in CalculationInput) string {
	if strings.EqualFold(in.CompanySize, "startup") || strings.EqualFold(in.Context.BusinessStage, "startup") {
		return "Consider filing a provisional patent first to reduce immediate costs by 75%"
	}
	return "Qualify for small entity status to reduce fees by 50% across most jurisdictions"
}

//Personal.AI order the ending
