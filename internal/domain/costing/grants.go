package costing

import (
	"math"
	"sort"
	"time"
)

// RecommendedGrantLimit caps the programmes returned by Recommend.
const RecommendedGrantLimit = 3

// GrantMatcher selects subsidy programmes for a jurisdiction and applies
// their discounts.
type GrantMatcher struct {
	registry *PolicyRegistry
	grants   []GrantProgram
}

// NewGrantMatcher creates a matcher over the given programmes.
func NewGrantMatcher(registry *PolicyRegistry, grants []GrantProgram) *GrantMatcher {
	return &GrantMatcher{registry: registry, grants: grants}
}

// FindApplicable returns the programmes active at asOf whose country matches
// the jurisdiction's grant country and whose populated eligibility criteria
// equal the applicant's attributes. Order follows the stored order.
func (m *GrantMatcher) FindApplicable(j Jurisdiction, companySize, sector string, asOf time.Time) []GrantProgram {
	policy, ok := m.registry.Get(j)
	if !ok || policy.GrantCountry == "" {
		return nil
	}
	var out []GrantProgram
	for _, g := range m.grants {
		if g.Country != policy.GrantCountry || !g.ActiveAt(asOf) {
			continue
		}
		if g.Eligibility.CompanySize != "" && g.Eligibility.CompanySize != companySize {
			continue
		}
		if g.Eligibility.Sector != "" && g.Eligibility.Sector != sector {
			continue
		}
		out = append(out, g)
	}
	return out
}

// ApplyDiscount subtracts every grant's discount from total. Each discount is
// min(total*pct/100, max) computed on the original total, and the running
// value never drops below zero.
func (m *GrantMatcher) ApplyDiscount(total float64, grants []GrantProgram) float64 {
	return ApplyGrantDiscount(total, grants)
}

// ApplyGrantDiscount is the stateless form of GrantMatcher.ApplyDiscount.
func ApplyGrantDiscount(total float64, grants []GrantProgram) float64 {
	if total <= 0 {
		return 0
	}
	discounted := total
	for _, g := range grants {
		pct := clamp(g.SubsidyPercentage, 0, 100)
		discount := math.Min(total*pct/100, math.Max(0, g.MaxSubsidyAmount))
		discounted = math.Max(0, discounted-discount)
	}
	return round2(clamp(discounted, 0, total))
}

// Recommend returns up to RecommendedGrantLimit programmes active at asOf,
// across every country, ordered by ID.
func (m *GrantMatcher) Recommend(asOf time.Time) []GrantProgram {
	var active []GrantProgram
	for _, g := range m.grants {
		if g.ActiveAt(asOf) {
			active = append(active, g)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	if len(active) > RecommendedGrantLimit {
		active = active[:RecommendedGrantLimit]
	}
	return active
}

//Personal.AI order the ending
