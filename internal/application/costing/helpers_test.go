package costing

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	domainCosting "github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
)

var testNow = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: testNow} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingMetrics struct {
	mu           sync.Mutex
	calculations []string
	loads        []string
	hits, misses int
	fallbacks    []string
	persistence  []string
	events       []string
}

func (m *recordingMetrics) RecordCalculation(kind string, _ int, err error, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.calculations = append(m.calculations, kind+":"+outcome)
}

func (m *recordingMetrics) RecordReferenceLoad(result string) {
	m.mu.Lock()
	m.loads = append(m.loads, result)
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordCacheAccess(_ string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *recordingMetrics) RecordNarrativeFallback(reason string) {
	m.mu.Lock()
	m.fallbacks = append(m.fallbacks, reason)
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordPersistenceFailure(op string) {
	m.mu.Lock()
	m.persistence = append(m.persistence, op)
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordEvent(topic string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		topic += ":failed"
	}
	m.events = append(m.events, topic)
}

func (m *recordingMetrics) loadResults() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loads...)
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Archive(ctx context.Context, rec *domainCosting.CalculationRecord) (string, error) {
	args := m.Called(ctx, rec)
	return args.String(0), args.Error(1)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishCompleted(ctx context.Context, rec *domainCosting.CalculationRecord) error {
	return m.Called(ctx, rec).Error(0)
}

type mockNarrative struct {
	mock.Mock
}

func (m *mockNarrative) Complete(ctx context.Context, prompt string) ([]string, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

//Personal.AI order the ending
