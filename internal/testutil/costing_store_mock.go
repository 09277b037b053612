package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	pkgerrors "github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// ReferenceStoreMock serves fee, rate and grant data from memory. Err and
// FeeErrs inject failures; Calls counts store round trips.
type ReferenceStoreMock struct {
	Fees   []costing.FeeRecord
	Rates  costing.RateTable
	Grants []costing.GrantProgram

	Err     error
	FeeErrs map[costing.Jurisdiction]error
	Delay   time.Duration

	calls atomic.Int64
}

var (
	_ costing.FeeStore   = (*ReferenceStoreMock)(nil)
	_ costing.RateStore  = (*ReferenceStoreMock)(nil)
	_ costing.GrantStore = (*ReferenceStoreMock)(nil)
)

func (m *ReferenceStoreMock) Calls() int64 { return m.calls.Load() }

func (m *ReferenceStoreMock) enter(ctx context.Context) error {
	m.calls.Add(1)
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.Err
}

func (m *ReferenceStoreMock) GetFees(ctx context.Context, j costing.Jurisdiction, ipType costing.IPType, asOf time.Time) ([]costing.FeeRecord, error) {
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	if err := m.FeeErrs[j]; err != nil {
		return nil, err
	}
	var out []costing.FeeRecord
	for _, f := range m.Fees {
		if f.Jurisdiction == j && f.IPType == ipType && f.ActiveAt(asOf) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *ReferenceStoreMock) GetRatesAsOf(ctx context.Context, _ time.Time) (costing.RateTable, error) {
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	out := make(costing.RateTable, len(m.Rates))
	for k, v := range m.Rates {
		out[k] = v
	}
	return out, nil
}

func (m *ReferenceStoreMock) GetActiveGrants(ctx context.Context, asOf time.Time) ([]costing.GrantProgram, error) {
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	var out []costing.GrantProgram
	for _, g := range m.Grants {
		if g.ActiveAt(asOf) {
			out = append(out, g)
		}
	}
	return out, nil
}

// ResultStoreMock keeps calculation records in memory.
type ResultStoreMock struct {
	mu      sync.Mutex
	records map[string]costing.CalculationRecord

	SaveErr   error
	UpdateErr error
}

var _ costing.ResultStore = (*ResultStoreMock)(nil)

func NewResultStoreMock() *ResultStoreMock {
	return &ResultStoreMock{records: make(map[string]costing.CalculationRecord)}
}

func (m *ResultStoreMock) Save(_ context.Context, rec *costing.CalculationRecord) (string, error) {
	if m.SaveErr != nil {
		return "", m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = costing.StatusComplete
	}
	if rec.CreatedAt.IsZero() {
		now := time.Now().UTC()
		rec.CreatedAt, rec.UpdatedAt = now, now
	}
	m.records[rec.ID] = *rec
	return rec.ID, nil
}

func (m *ResultStoreMock) Update(_ context.Context, id string, patch costing.CalculationPatch) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return pkgerrors.New(pkgerrors.ErrCodeCalculationNotFound, "calculation not found").WithDetail(id)
	}
	if patch.Email != nil {
		rec.Email = *patch.Email
	}
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if patch.ArchiveKey != nil {
		rec.ArchiveKey = *patch.ArchiveKey
	}
	rec.UpdatedAt = time.Now().UTC()
	m.records[id] = rec
	return nil
}

func (m *ResultStoreMock) Get(_ context.Context, id string) (*costing.CalculationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.ErrCodeCalculationNotFound, "calculation not found").WithDetail(id)
	}
	return &rec, nil
}

// Len reports how many records are stored.
func (m *ResultStoreMock) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

//Personal.AI order the ending
