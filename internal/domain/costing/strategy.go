package costing

import (
	"fmt"
	"sort"
)

const (
	// PCTCostMultiplier is the cost of the PCT route relative to direct filing.
	PCTCostMultiplier = 1.3
	// DirectFilingMaxJurisdictions is the largest plan for which direct filing
	// is suggested.
	DirectFilingMaxJurisdictions = 2
	// CashFlowAlertThreshold is the yearly amount above which an alert is
	// raised for post-filing years.
	CashFlowAlertThreshold = 3000.0
)

// SuggestStrategy picks direct filing for small plans and the PCT route
// otherwise.
func SuggestStrategy(jurisdictions int) FilingStrategy {
	if jurisdictions <= DirectFilingMaxJurisdictions {
		return StrategyDirect
	}
	return StrategyPCT
}

// CompareStrategies contrasts direct filing with the PCT route. It returns nil
// for single-jurisdiction plans, where the PCT route does not apply.
func CompareStrategies(jurisdictions int, totalCost float64, timeline TimelineEstimate) *StrategyComparison {
	if jurisdictions <= 1 {
		return nil
	}
	return &StrategyComparison{
		DirectFiling: StrategyOption{
			Strategy:  StrategyDirect,
			TotalCost: round2(totalCost),
			Timeline:  timeline,
		},
		PCTRoute: StrategyOption{
			Strategy:  StrategyPCT,
			TotalCost: round2(totalCost * PCTCostMultiplier),
			Timeline: TimelineEstimate{
				FilingToGrant:    shiftRange(timeline.FilingToGrant, PCTExtraMonths),
				TotalTimeline:    shiftRange(timeline.TotalTimeline, PCTExtraMonths),
				ProsecutionDelay: timeline.ProsecutionDelay,
				IndustryFactor:   timeline.IndustryFactor,
			},
		},
	}
}

// YearlyCashflow sums every jurisdiction's timeline by year, ascending.
func YearlyCashflow(costs []JurisdictionCost) []YearCost {
	byYear := make(map[int]float64)
	for _, jc := range costs {
		for _, e := range jc.Timeline {
			byYear[e.Year] += e.Amount
		}
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	out := make([]YearCost, len(years))
	for i, y := range years {
		out[i] = YearCost{Year: y, Cost: round2(byYear[y])}
	}
	return out
}

// CashFlowAlerts flags years after filing whose payments exceed
// CashFlowAlertThreshold.
func CashFlowAlerts(flow []YearCost) []string {
	var alerts []string
	for _, yc := range flow {
		if yc.Year > 0 && yc.Cost > CashFlowAlertThreshold {
			alerts = append(alerts, fmt.Sprintf("Year %d: Large payment due (%s)", yc.Year, FormatUSD(yc.Cost)))
		}
	}
	return alerts
}

//Personal.AI order the ending
