package costing

import (
	"sort"
	"time"
)

type feeKey struct {
	jurisdiction Jurisdiction
	ipType       IPType
	category     FeeCategory
	stage        LifecycleStage
}

// FeeTable is a read-only index over fee records. It is safe for concurrent
// use once built.
type FeeTable struct {
	byKey map[feeKey][]FeeRecord
	size  int
}

// NewFeeTable indexes records by (jurisdiction, ipType, category, stage).
// Within each key records are ordered by EffectiveDate descending, then ID,
// so the first active record is the one that wins.
func NewFeeTable(records []FeeRecord) *FeeTable {
	t := &FeeTable{byKey: make(map[feeKey][]FeeRecord)}
	for _, r := range records {
		k := feeKey{r.Jurisdiction, r.IPType, r.Category, r.Stage}
		t.byKey[k] = append(t.byKey[k], r)
		t.size++
	}
	for _, rows := range t.byKey {
		sort.SliceStable(rows, func(i, j int) bool {
			if !rows[i].EffectiveDate.Equal(rows[j].EffectiveDate) {
				return rows[i].EffectiveDate.After(rows[j].EffectiveDate)
			}
			return rows[i].ID < rows[j].ID
		})
	}
	return t
}

// Len returns the number of indexed records.
func (t *FeeTable) Len() int {
	if t == nil {
		return 0
	}
	return t.size
}

// Lookup returns the single active record for the key at asOf. Records with a
// YearDue are per-year maintenance rows and are only returned by LookupYear.
func (t *FeeTable) Lookup(j Jurisdiction, ipType IPType, category FeeCategory, stage LifecycleStage, asOf time.Time) (FeeRecord, bool) {
	if t == nil {
		return FeeRecord{}, false
	}
	for _, r := range t.byKey[feeKey{j, ipType, category, stage}] {
		if r.YearDue == nil && r.ActiveAt(asOf) {
			return r, true
		}
	}
	return FeeRecord{}, false
}

// LookupYear returns the active post-grant maintenance record due in year.
func (t *FeeTable) LookupYear(j Jurisdiction, ipType IPType, year int, asOf time.Time) (FeeRecord, bool) {
	if t == nil {
		return FeeRecord{}, false
	}
	for _, r := range t.byKey[feeKey{j, ipType, FeeMaintenance, StagePostGrant}] {
		if r.YearDue != nil && *r.YearDue == year && r.ActiveAt(asOf) {
			return r, true
		}
	}
	return FeeRecord{}, false
}

// MaintenanceBase returns the record used to escalate maintenance fees for
// years without a tabulated row: the active record without a YearDue, or
// failing that the active record with the lowest YearDue.
func (t *FeeTable) MaintenanceBase(j Jurisdiction, ipType IPType, asOf time.Time) (FeeRecord, bool) {
	if r, ok := t.Lookup(j, ipType, FeeMaintenance, StagePostGrant, asOf); ok {
		return r, true
	}
	if t == nil {
		return FeeRecord{}, false
	}
	var (
		best  FeeRecord
		found bool
	)
	for _, r := range t.byKey[feeKey{j, ipType, FeeMaintenance, StagePostGrant}] {
		if r.YearDue == nil || !r.ActiveAt(asOf) {
			continue
		}
		if !found || *r.YearDue < *best.YearDue {
			best, found = r, true
		}
	}
	return best, found
}

// Records returns every record for a jurisdiction and IP type that is active
// at asOf, sorted by category, stage, YearDue and ID.
func (t *FeeTable) Records(j Jurisdiction, ipType IPType, asOf time.Time) []FeeRecord {
	if t == nil {
		return nil
	}
	var out []FeeRecord
	for k, rows := range t.byKey {
		if k.jurisdiction != j || k.ipType != ipType {
			continue
		}
		for _, r := range rows {
			if r.ActiveAt(asOf) {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Category != out[b].Category {
			return out[a].Category < out[b].Category
		}
		if out[a].Stage != out[b].Stage {
			return out[a].Stage < out[b].Stage
		}
		ya, yb := yearOf(out[a]), yearOf(out[b])
		if ya != yb {
			return ya < yb
		}
		return out[a].ID < out[b].ID
	})
	return out
}

func yearOf(r FeeRecord) int {
	if r.YearDue == nil {
		return -1
	}
	return *r.YearDue
}

//Personal.AI order the ending
