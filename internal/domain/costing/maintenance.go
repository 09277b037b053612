package costing

import (
	"fmt"
	"time"
)

// MaintenanceSchedule is the renewal part of one jurisdiction's costs.
type MaintenanceSchedule struct {
	Entries     []TimelineEntry
	Total       float64
	Assumptions []Assumption
	Complete    bool
}

// MaintenanceScheduler produces year-indexed renewal fees.
type MaintenanceScheduler struct {
	registry *PolicyRegistry
}

// NewMaintenanceScheduler creates a scheduler backed by registry.
func NewMaintenanceScheduler(registry *PolicyRegistry) *MaintenanceScheduler {
	return &MaintenanceScheduler{registry: registry}
}

// Schedule returns one entry per due year up to the protection duration.
// Tabulated per-year rows win; other years escalate the base maintenance fee
// by (1 + year/20). Tiered offices apply the entity multiplier.
func (s *MaintenanceScheduler) Schedule(in CalculationInput, j Jurisdiction, fees *FeeTable, norm *CurrencyNormalizer, asOf time.Time) MaintenanceSchedule {
	policy := s.registry.MustGet(j)
	out := MaintenanceSchedule{Complete: true}

	years := policy.DueYears(in.ProtectionDuration)
	if len(years) == 0 {
		return out
	}
	base, hasBase := fees.MaintenanceBase(j, in.IPType, asOf)

	var missing []int
	for _, year := range years {
		native, currency, ok := maintenanceAmount(fees, base, hasBase, j, in.IPType, year, asOf)
		if !ok {
			missing = append(missing, year)
			continue
		}
		if policy.EntityTiers {
			native *= in.EntityType.Multiplier()
		}
		amount := round2(norm.ToReporting(native, currency))
		out.Total += amount
		out.Entries = append(out.Entries, TimelineEntry{
			Year:        year,
			Description: fmt.Sprintf("Maintenance Fee - Year %d", year),
			Amount:      amount,
			FeeType:     string(FeeMaintenance),
			IsRequired:  true,
		})
	}
	if len(missing) > 0 {
		out.Complete = false
		out.Assumptions = append(out.Assumptions, Assumption{
			Kind:         AssumptionDataGap,
			Jurisdiction: j,
			Message:      fmt.Sprintf("no maintenance fee data for %s %s in years %v; counted as 0", j, in.IPType, missing),
		})
	}
	out.Total = round2(out.Total)
	return out
}

func maintenanceAmount(fees *FeeTable, base FeeRecord, hasBase bool, j Jurisdiction, ipType IPType, year int, asOf time.Time) (float64, string, bool) {
	if rec, ok := fees.LookupYear(j, ipType, year, asOf); ok {
		if amount, found := rec.FlatAmount(); found {
			return amount, rec.Currency, true
		}
	}
	if !hasBase {
		return 0, "", false
	}
	amount, found := base.FlatAmount()
	if !found {
		return 0, "", false
	}
	return amount * (1 + float64(year)/20), base.Currency, true
}

//Personal.AI order the ending
