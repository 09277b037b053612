package costing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Insight priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

const (
	// DefaultClaimsInsightThreshold is the claim count above which a
	// claims-reduction insight is emitted.
	DefaultClaimsInsightThreshold = 20
	// DefaultNarrativeTimeout bounds a single narrative call.
	DefaultNarrativeTimeout = 10 * time.Second
	// MaxNarrativeInsights caps the insights taken from one completion.
	MaxNarrativeInsights = 3

	costVariationRatio      = 1.5
	highCostThreshold       = 50000.0
	maintenanceShareTrigger = 50.0
)

// FallbackInsights replace narrative output when the narrative service is
// missing, fails or times out.
var FallbackInsights = []Insight{
	{
		Type:       InsightRecommendation,
		Title:      "Consider Timing Strategy",
		Message:    "File a provisional patent first to secure priority at lower cost.",
		Priority:   PriorityHigh,
		Confidence: 0.8,
		Actionable: true,
		Source:     SourceFallback,
	},
	{
		Type:       InsightRecommendation,
		Title:      "Jurisdiction Selection",
		Message:    "Focus on key markets first, then expand internationally as revenue grows.",
		Priority:   PriorityMedium,
		Confidence: 0.7,
		Actionable: true,
		Source:     SourceFallback,
	},
}

// InsightOptions tune the composer.
type InsightOptions struct {
	ClaimsThreshold  int
	NarrativeTimeout time.Duration
}

// InsightComposer builds rule-based insights and, when a business description
// is present, narrative insights from the NarrativeService.
type InsightComposer struct {
	narrative NarrativeService
	opts      InsightOptions
}

// NewInsightComposer creates a composer. narrative may be nil.
func NewInsightComposer(narrative NarrativeService, opts InsightOptions) *InsightComposer {
	if opts.ClaimsThreshold <= 0 {
		opts.ClaimsThreshold = DefaultClaimsInsightThreshold
	}
	if opts.NarrativeTimeout <= 0 {
		opts.NarrativeTimeout = DefaultNarrativeTimeout
	}
	return &InsightComposer{narrative: narrative, opts: opts}
}

// Compose evaluates every rule in order and then appends narrative or
// fallback insights. It never fails; a narrative failure is reported as a
// collaborator_unavailable assumption.
func (c *InsightComposer) Compose(ctx context.Context, in CalculationInput, costs []JurisdictionCost, totalCost float64) ([]Insight, []Assumption) {
	insights := c.Rules(in, costs, totalCost)
	if strings.TrimSpace(in.BusinessDescription) == "" {
		return insights, nil
	}
	lines, err := c.complete(ctx, BuildNarrativePrompt(in, totalCost))
	if err != nil {
		insights = append(insights, FallbackInsights...)
		return insights, []Assumption{{
			Kind:    AssumptionUnavailable,
			Message: fmt.Sprintf("narrative insights unavailable: %v", err),
		}}
	}
	return append(insights, narrativeInsights(lines)...), nil
}

// Rules returns the deterministic rule-based insights.
func (c *InsightComposer) Rules(in CalculationInput, costs []JurisdictionCost, totalCost float64) []Insight {
	var out []Insight
	if ins, ok := costVariationInsight(costs); ok {
		out = append(out, ins)
	}
	if totalCost > highCostThreshold {
		out = append(out, Insight{
			Type:       InsightRiskAssessment,
			Title:      "High Filing Costs",
			Message:    fmt.Sprintf("Total estimated cost of %s is substantial. Consider prioritizing key markets or phasing your filing strategy.", FormatUSD(totalCost)),
			Priority:   PriorityHigh,
			Confidence: 0.8,
			Actionable: true,
			Source:     SourceRule,
		})
	}
	if totalCost > 0 && len(costs) > 0 {
		out = append(out, Insight{
			Type:       InsightOptimization,
			Title:      "Entity Status Benefits",
			Message:    "Ensure you qualify for small or micro entity status to reduce USPTO fees by up to 75%.",
			Priority:   PriorityMedium,
			Confidence: 0.7,
			Actionable: true,
			Source:     SourceRule,
		})
	}
	if in.ClaimCount > c.opts.ClaimsThreshold {
		out = append(out, Insight{
			Type:       InsightOptimization,
			Title:      "Claims Optimization",
			Message:    fmt.Sprintf("Consider reducing claims count from %d to %d to minimize additional fees", in.ClaimCount, c.opts.ClaimsThreshold),
			Priority:   PriorityMedium,
			Confidence: 0.8,
			Actionable: true,
			Source:     SourceRule,
		})
	}
	if share, ok := meanMaintenanceShare(costs); ok && share > maintenanceShareTrigger {
		out = append(out, Insight{
			Type:       InsightRecommendation,
			Title:      "Maintenance Fee Planning",
			Message:    fmt.Sprintf("Maintenance fees represent %.0f%% of total costs - consider shorter protection periods", share),
			Priority:   PriorityMedium,
			Confidence: 0.75,
			Actionable: true,
			Source:     SourceRule,
		})
	}
	return out
}

// complete calls the narrative service under the configured timeout. The call
// runs in its own goroutine so a service that ignores ctx cannot hold the
// calculation past the deadline.
func (c *InsightComposer) complete(ctx context.Context, prompt string) ([]string, error) {
	if c.narrative == nil {
		return nil, fmt.Errorf("no narrative service configured")
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.NarrativeTimeout)
	defer cancel()

	type reply struct {
		lines []string
		err   error
	}
	ch := make(chan reply, 1)
	go func() {
		lines, err := c.narrative.Complete(ctx, prompt)
		ch <- reply{lines, err}
	}()
	select {
	case r := <-ch:
		return r.lines, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func costVariationInsight(costs []JurisdictionCost) (Insight, bool) {
	if len(costs) < 2 {
		return Insight{}, false
	}
	cheap, dear := costs[0], costs[0]
	for _, jc := range costs[1:] {
		if jc.Costs.Total < cheap.Costs.Total {
			cheap = jc
		}
		if jc.Costs.Total > dear.Costs.Total {
			dear = jc
		}
	}
	if cheap.Costs.Total <= 0 || dear.Costs.Total <= costVariationRatio*cheap.Costs.Total {
		return Insight{}, false
	}
	pct := math.Round((dear.Costs.Total - cheap.Costs.Total) / cheap.Costs.Total * 100)
	return Insight{
		Type:  InsightCostComparison,
		Title: "Significant Cost Variation",
		Message: fmt.Sprintf("Filing costs vary significantly across jurisdictions. %s is %.0f%% cheaper than %s.",
			cheap.Jurisdiction, pct, dear.Jurisdiction),
		Priority:   PriorityMedium,
		Confidence: 0.9,
		Actionable: true,
		Source:     SourceRule,
	}, true
}

func meanMaintenanceShare(costs []JurisdictionCost) (float64, bool) {
	var sum float64
	var n int
	for _, jc := range costs {
		if jc.Costs.Total <= 0 {
			continue
		}
		sum += jc.Costs.Maintenance / jc.Costs.Total * 100
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func narrativeInsights(lines []string) []Insight {
	var out []Insight
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		priority := PriorityMedium
		if len(out) == 0 {
			priority = PriorityHigh
		}
		out = append(out, Insight{
			Type:       InsightRecommendation,
			Title:      fmt.Sprintf("Strategic Recommendation %d", len(out)+1),
			Message:    line,
			Priority:   priority,
			Confidence: 0.75,
			Actionable: true,
			Source:     SourceNarrative,
		})
		if len(out) == MaxNarrativeInsights {
			break
		}
	}
	return out
}

// BuildNarrativePrompt renders the prompt sent to the narrative service.
func BuildNarrativePrompt(in CalculationInput, totalCost float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on this business: %q with filing costs of %s, provide 2-3 strategic IP insights.",
		strings.TrimSpace(in.BusinessDescription), FormatUSD(totalCost))
	ctx := in.Context
	if ctx.Industry != "" {
		fmt.Fprintf(&b, "\nIndustry: %s", ctx.Industry)
	}
	if ctx.BusinessStage != "" {
		fmt.Fprintf(&b, "\nStage: %s", ctx.BusinessStage)
	}
	if ctx.CompanyName != "" {
		fmt.Fprintf(&b, "\nCompany: %s", ctx.CompanyName)
	}
	if ctx.PressingQuestion != "" {
		fmt.Fprintf(&b, "\nKey Question: %s", ctx.PressingQuestion)
	}
	return b.String()
}

// FormatUSD renders an amount as whole dollars with thousands separators,
// e.g. "$12,345".
func FormatUSD(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	digits := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String()
}

//Personal.AI order the ending
