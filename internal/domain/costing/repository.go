package costing

import (
	"context"
	"time"
)

// FeeStore returns fee records for one jurisdiction and IP type that are
// active at asOf. Errors are handled per jurisdiction.
type FeeStore interface {
	GetFees(ctx context.Context, j Jurisdiction, ipType IPType, asOf time.Time) ([]FeeRecord, error)
}

// RateStore returns the exchange rates in force at asOf, one per pair.
type RateStore interface {
	GetRatesAsOf(ctx context.Context, asOf time.Time) (RateTable, error)
}

// GrantStore returns the grant programmes active at asOf.
type GrantStore interface {
	GetActiveGrants(ctx context.Context, asOf time.Time) ([]GrantProgram, error)
}

// NarrativeService turns a prompt into discrete insight lines. A nil service
// is treated exactly like one that returns an error.
type NarrativeService interface {
	Complete(ctx context.Context, prompt string) ([]string, error)
}

// CalculationStatus tracks the commercial state of a stored calculation.
type CalculationStatus string

const (
	StatusPreview  CalculationStatus = "preview"
	StatusComplete CalculationStatus = "complete"
	StatusUpgraded CalculationStatus = "upgraded"
)

// CalculationRecord is the persisted form of one calculation.
type CalculationRecord struct {
	ID         string            `json:"id"`
	Email      string            `json:"email,omitempty"`
	Status     CalculationStatus `json:"status"`
	Input      CalculationInput  `json:"input"`
	Result     *Result           `json:"result"`
	ArchiveKey string            `json:"archive_key,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// CalculationPatch carries the fields a record may change after creation.
// Nil fields are left untouched.
type CalculationPatch struct {
	Email      *string            `json:"email,omitempty"`
	Status     *CalculationStatus `json:"status,omitempty"`
	ArchiveKey *string            `json:"archive_key,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p CalculationPatch) IsEmpty() bool {
	return p.Email == nil && p.Status == nil && p.ArchiveKey == nil
}

// ResultStore persists calculation records.
type ResultStore interface {
	Save(ctx context.Context, rec *CalculationRecord) (string, error)
	Update(ctx context.Context, id string, patch CalculationPatch) error
	Get(ctx context.Context, id string) (*CalculationRecord, error)
}

//Personal.AI order the ending
