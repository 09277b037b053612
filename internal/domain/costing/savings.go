package costing

// Confidence levels of a savings estimate.
const (
	ConfidenceGuaranteed = "guaranteed"
	ConfidenceLikely     = "likely"
	ConfidencePotential  = "potential"
)

const (
	// SavingsCapRatio bounds total savings to this share of total cost.
	SavingsCapRatio = 0.5
	// FeeReductionCapRatio bounds fee reductions to this share of official fees.
	FeeReductionCapRatio = 0.7
	// TaxCapRatio bounds tax benefits to this share of total cost.
	TaxCapRatio = 0.4

	pctBaseShare       = 0.15
	pctSearchReuse     = 1500.0
	provisionalBase    = 3000.0
	staggeredPerOffice = 3000.0
)

// FeeReductionSavings are reductions of official fees available to the
// applicant.
type FeeReductionSavings struct {
	MicroEntity  float64 `json:"micro_entity"`
	SmallEntity  float64 `json:"small_entity"`
	OnlineFiling float64 `json:"online_filing"`
	Total        float64 `json:"total"`
}

// GrantSavings are expected subsidy values per grant country.
type GrantSavings struct {
	US        float64 `json:"us_grants"`
	EU        float64 `json:"eu_grants"`
	Singapore float64 `json:"singapore_grants"`
	Total     float64 `json:"total"`
}

// StrategicSavings come from choosing a cheaper filing route.
type StrategicSavings struct {
	PCTRoute          float64 `json:"pct_route"`
	ProvisionalFiling float64 `json:"provisional_filing"`
	StaggeredFiling   float64 `json:"staggered_filing"`
	Total             float64 `json:"total"`
}

// TaxSavings are tax incentives on qualifying patent spend.
type TaxSavings struct {
	RnDCredits           float64 `json:"rnd_credits"`
	PatentBox            float64 `json:"patent_box"`
	InnovationIncentives float64 `json:"innovation_incentives"`
	Total                float64 `json:"total"`
}

// SavingsEstimate aggregates every savings category after the cap.
type SavingsEstimate struct {
	FeeReductions          FeeReductionSavings       `json:"fee_reductions"`
	Grants                 GrantSavings              `json:"grants"`
	StrategicFiling        StrategicSavings          `json:"strategic_filing"`
	TaxBenefits            TaxSavings                `json:"tax_benefits"`
	TotalSavings           float64                   `json:"total_savings"`
	GuaranteedSavings      float64                   `json:"guaranteed_savings"`
	PotentialSavings       float64                   `json:"potential_savings"`
	ConfidenceLevel        string                    `json:"confidence_level"`
	JurisdictionStrategies map[Jurisdiction][]string `json:"jurisdiction_strategies"`
}

type feeReductionRates struct {
	sme    float64
	online float64
}

var officeReductionRates = map[Jurisdiction]feeReductionRates{
	JurisdictionUSPTO: {online: 0.10},
	JurisdictionEPO:   {sme: 0.30, online: 0.20},
	JurisdictionIPOS:  {online: 0.15},
}

type grantExpectation struct {
	average     float64
	probability float64
}

var grantExpectations = map[Jurisdiction]grantExpectation{
	JurisdictionUSPTO: {average: 62500, probability: 0.3},
	JurisdictionEPO:   {average: 20000, probability: 0.25},
	JurisdictionIPOS:  {average: 25000, probability: 0.4},
}

var provisionalMultipliers = map[Complexity]float64{
	ComplexitySimple:          1.0,
	ComplexityComplex:         1.5,
	ComplexityCuttingEdge:     2.0,
	ComplexitySoftwareBiotech: 1.8,
}

type taxRates struct {
	qualifying float64
	rnd        float64
	patentBox  float64
	innovation float64
}

var officeTaxRates = map[Jurisdiction]taxRates{
	JurisdictionUSPTO: {qualifying: 0.6, rnd: 0.20, innovation: 0.15},
	JurisdictionEPO:   {qualifying: 0.5, patentBox: 0.10, innovation: 0.12},
	JurisdictionIPOS:  {qualifying: 0.7, rnd: 0.25, innovation: 0.05},
}

var jurisdictionStrategies = map[Jurisdiction][]string{
	JurisdictionUSPTO: {
		"Apply for micro-entity status (75% fee reduction)",
		"File online for 10% discount",
		"Consider SBIR/STTR grants ($50K-$75K available)",
	},
	JurisdictionEPO: {
		"Qualify for SME status (30% fee reduction)",
		"File online for 20% discount",
		"Selective country validation saves ~$2K per country",
	},
	JurisdictionIPOS: {
		"Apply for IPO grants (up to $15K for local entities)",
		"File online for 15% discount",
	},
}

// SavingsEstimator derives the savings estimate from assembled costs.
type SavingsEstimator struct {
	includeTax bool
}

// NewSavingsEstimator creates an estimator. Tax benefits are reported as zero
// unless includeTax is set.
func NewSavingsEstimator(includeTax bool) *SavingsEstimator {
	return &SavingsEstimator{includeTax: includeTax}
}

// Estimate computes every category independently, caps the sum at
// SavingsCapRatio of totalCost and scales all categories by the same ratio.
func (s *SavingsEstimator) Estimate(in CalculationInput, costs []JurisdictionCost, totalCost float64) SavingsEstimate {
	est := SavingsEstimate{
		FeeReductions:          feeReductions(in, costs),
		Grants:                 grantSavings(costs),
		StrategicFiling:        strategicSavings(in, len(costs), totalCost),
		JurisdictionStrategies: make(map[Jurisdiction][]string, len(costs)),
	}
	if s.includeTax {
		est.TaxBenefits = taxSavings(costs, totalCost)
	}
	for _, jc := range costs {
		if strategies, ok := jurisdictionStrategies[jc.Jurisdiction]; ok {
			est.JurisdictionStrategies[jc.Jurisdiction] = append([]string(nil), strategies...)
		}
	}

	raw := est.FeeReductions.Total + est.Grants.Total + est.StrategicFiling.Total + est.TaxBenefits.Total
	limit := max(0, totalCost) * SavingsCapRatio
	ratio := 1.0
	if raw > limit && raw > 0 {
		ratio = limit / raw
	}
	est.FeeReductions = est.FeeReductions.scaled(ratio)
	est.Grants = est.Grants.scaled(ratio)
	est.StrategicFiling = est.StrategicFiling.scaled(ratio)
	est.TaxBenefits = est.TaxBenefits.scaled(ratio)
	est.TotalSavings = round2(est.FeeReductions.Total + est.Grants.Total + est.StrategicFiling.Total + est.TaxBenefits.Total)

	est.GuaranteedSavings = round2(est.FeeReductions.Total + est.Grants.Total)
	est.PotentialSavings = est.StrategicFiling.Total
	switch {
	case est.GuaranteedSavings > 0:
		est.ConfidenceLevel = ConfidenceGuaranteed
	case est.PotentialSavings > 0:
		est.ConfidenceLevel = ConfidenceLikely
	default:
		est.ConfidenceLevel = ConfidencePotential
	}
	return est
}

// feeReductions applies office reduction rates to pre-grant official fees.
// USPTO entity savings depend on the declared tier: a standard filer could
// save 75% as micro, a small filer 50% more, a micro filer nothing.
func feeReductions(in CalculationInput, costs []JurisdictionCost) FeeReductionSavings {
	var out FeeReductionSavings
	var official float64
	for _, jc := range costs {
		fees := jc.Costs.OfficialPreGrant()
		official += fees
		rates, ok := officeReductionRates[jc.Jurisdiction]
		if !ok {
			continue
		}
		if jc.Jurisdiction == JurisdictionUSPTO {
			switch in.EntityType {
			case EntityMicro:
			case EntitySmall:
				out.MicroEntity += fees * 0.5
			default:
				out.MicroEntity += fees * 0.75
			}
		}
		out.SmallEntity += fees * rates.sme
		out.OnlineFiling += fees * rates.online
	}
	out.Total = out.MicroEntity + out.SmallEntity + out.OnlineFiling
	if limit := official * FeeReductionCapRatio; out.Total > limit && out.Total > 0 {
		out = out.scaled(limit / out.Total)
	}
	return out.scaled(1)
}

// grantSavings takes, per office, the larger of the matched programme
// discount and the expected value of the office's typical grant.
func grantSavings(costs []JurisdictionCost) GrantSavings {
	var out GrantSavings
	for _, jc := range costs {
		matched := jc.Costs.Total - jc.Costs.DiscountedTotal
		expected := 0.0
		if g, ok := grantExpectations[jc.Jurisdiction]; ok {
			expected = g.average * g.probability
		}
		value := max(matched, expected)
		switch jc.Jurisdiction {
		case JurisdictionUSPTO:
			out.US += value
		case JurisdictionEPO:
			out.EU += value
		case JurisdictionIPOS:
			out.Singapore += value
		}
	}
	out.Total = out.US + out.EU + out.Singapore
	return out.scaled(1)
}

func strategicSavings(in CalculationInput, offices int, totalCost float64) StrategicSavings {
	var out StrategicSavings
	if offices > 1 {
		out.PCTRoute = max(0, totalCost)*pctBaseShare + float64(offices)*pctSearchReuse
		out.StaggeredFiling = float64(offices-1) * staggeredPerOffice
	}
	mult, ok := provisionalMultipliers[in.Complexity]
	if !ok {
		mult = 1.0
	}
	out.ProvisionalFiling = provisionalBase * mult
	out.Total = out.PCTRoute + out.ProvisionalFiling + out.StaggeredFiling
	return out.scaled(1)
}

func taxSavings(costs []JurisdictionCost, totalCost float64) TaxSavings {
	var out TaxSavings
	for _, jc := range costs {
		rates, ok := officeTaxRates[jc.Jurisdiction]
		if !ok {
			continue
		}
		qualifying := jc.Costs.Total * rates.qualifying
		out.RnDCredits += qualifying * rates.rnd
		out.PatentBox += qualifying * rates.patentBox
		out.InnovationIncentives += qualifying * rates.innovation
	}
	out.Total = out.RnDCredits + out.PatentBox + out.InnovationIncentives
	if limit := max(0, totalCost) * TaxCapRatio; out.Total > limit && out.Total > 0 {
		out = out.scaled(limit / out.Total)
	}
	return out.scaled(1)
}

func (f FeeReductionSavings) scaled(r float64) FeeReductionSavings {
	f.MicroEntity = round2(f.MicroEntity * r)
	f.SmallEntity = round2(f.SmallEntity * r)
	f.OnlineFiling = round2(f.OnlineFiling * r)
	f.Total = round2(f.MicroEntity + f.SmallEntity + f.OnlineFiling)
	return f
}

func (g GrantSavings) scaled(r float64) GrantSavings {
	g.US = round2(g.US * r)
	g.EU = round2(g.EU * r)
	g.Singapore = round2(g.Singapore * r)
	g.Total = round2(g.US + g.EU + g.Singapore)
	return g
}

func (s StrategicSavings) scaled(r float64) StrategicSavings {
	s.PCTRoute = round2(s.PCTRoute * r)
	s.ProvisionalFiling = round2(s.ProvisionalFiling * r)
	s.StaggeredFiling = round2(s.StaggeredFiling * r)
	s.Total = round2(s.PCTRoute + s.ProvisionalFiling + s.StaggeredFiling)
	return s
}

func (t TaxSavings) scaled(r float64) TaxSavings {
	t.RnDCredits = round2(t.RnDCredits * r)
	t.PatentBox = round2(t.PatentBox * r)
	t.InnovationIncentives = round2(t.InnovationIncentives * r)
	t.Total = round2(t.RnDCredits + t.PatentBox + t.InnovationIncentives)
	return t
}

//Personal.AI order the ending
