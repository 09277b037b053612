package costing

import "math"

const (
	// DefaultIndustryFactor applies to industries without a tabulated factor.
	DefaultIndustryFactor = 1.1
	// DefaultProsecutionDelay applies to complexities without a tabulated delay.
	DefaultProsecutionDelay = 6
	// MinFilingToGrantMonths is the floor of the estimated minimum.
	MinFilingToGrantMonths = 18
	// PostGrantMonths is added to filing-to-grant for the total timeline.
	PostGrantMonths = 12
	// PCTExtraMonths is the additional time of the PCT route.
	PCTExtraMonths = 18
)

// IndustryFactors scale the base timeline by sector.
var IndustryFactors = map[string]float64{
	"Automotive & Transportation":       1.1,
	"Biotechnology & Life Sciences":     1.4,
	"Chemical & Materials":              1.3,
	"Energy & Cleantech":                1.2,
	"Financial Technology (FinTech)":    1.0,
	"Food & Agriculture":                1.2,
	"Healthcare & Medical Devices":      1.3,
	"Industrial Manufacturing":          1.1,
	"Information Technology & Software": 1.0,
	"Mechanical Engineering":            1.1,
	"Pharmaceuticals":                   1.5,
	"Semiconductors & Microelectronics": 1.2,
	"Telecommunications":                1.1,
	"Other":                             1.1,
}

// ProsecutionDelays are extra months of prosecution by complexity.
var ProsecutionDelays = map[Complexity]int{
	ComplexitySimple:          3,
	ComplexityComplex:         9,
	ComplexityCuttingEdge:     15,
	ComplexitySoftwareBiotech: 12,
}

// TimelineEstimator computes filing-to-grant duration estimates.
type TimelineEstimator struct {
	registry *PolicyRegistry
}

// NewTimelineEstimator creates an estimator backed by registry.
func NewTimelineEstimator(registry *PolicyRegistry) *TimelineEstimator {
	return &TimelineEstimator{registry: registry}
}

// Estimate returns the duration estimate for one jurisdiction:
// months = round(base * industryFactor + delay), min = max(18, months-6),
// max = months+6.
func (e *TimelineEstimator) Estimate(j Jurisdiction, industry string, complexity Complexity) TimelineEstimate {
	base := e.registry.MustGet(j).BaseTimelineMonths
	factor, ok := IndustryFactors[industry]
	if !ok {
		factor = DefaultIndustryFactor
	}
	delay, ok := ProsecutionDelays[complexity]
	if !ok {
		delay = DefaultProsecutionDelay
	}
	months := int(math.Round(float64(base)*factor + float64(delay)))
	ftg := MonthRange{
		Min:     max(MinFilingToGrantMonths, months-6),
		Max:     months + 6,
		Average: months,
	}
	return TimelineEstimate{
		FilingToGrant:    ftg,
		TotalTimeline:    shiftRange(ftg, PostGrantMonths),
		ProsecutionDelay: delay,
		IndustryFactor:   factor,
	}
}

// Aggregate averages per-jurisdiction estimates. Each of min, max and average
// is the rounded arithmetic mean of the corresponding per-jurisdiction value.
func (e *TimelineEstimator) Aggregate(estimates []TimelineEstimate) TimelineEstimate {
	if len(estimates) == 0 {
		return TimelineEstimate{}
	}
	var minSum, maxSum, avgSum, delaySum int
	var factorSum float64
	for _, t := range estimates {
		minSum += t.FilingToGrant.Min
		maxSum += t.FilingToGrant.Max
		avgSum += t.FilingToGrant.Average
		delaySum += t.ProsecutionDelay
		factorSum += t.IndustryFactor
	}
	n := float64(len(estimates))
	ftg := MonthRange{
		Min:     int(math.Round(float64(minSum) / n)),
		Max:     int(math.Round(float64(maxSum) / n)),
		Average: int(math.Round(float64(avgSum) / n)),
	}
	return TimelineEstimate{
		FilingToGrant:    ftg,
		TotalTimeline:    shiftRange(ftg, PostGrantMonths),
		ProsecutionDelay: int(math.Round(float64(delaySum) / n)),
		IndustryFactor:   round2(factorSum / n),
	}
}

func shiftRange(r MonthRange, months int) MonthRange {
	return MonthRange{Min: r.Min + months, Max: r.Max + months, Average: r.Average + months}
}

//Personal.AI order the ending
