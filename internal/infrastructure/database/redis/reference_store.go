package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
)

const (
	referencePrefix = "ref:"
	cacheName       = "reference_redis"
)

// CacheObserver receives hit/miss notifications. CostingMetrics satisfies it.
type CacheObserver interface {
	RecordCacheAccess(cache string, hit bool)
}

type nopObserver struct{}

func (nopObserver) RecordCacheAccess(string, bool) {}

// ReferenceSources groups the stores a CachedReferenceStore decorates.
type ReferenceSources struct {
	Fees   costing.FeeStore
	Rates  costing.RateStore
	Grants costing.GrantStore
}

// CachedReferenceStore puts a shared Redis tier in front of the reference
// stores. Keys are bucketed by calendar day of asOf, so every process sees the
// same schedule for the same day. Cache failures never fail a read.
type CachedReferenceStore struct {
	src      ReferenceSources
	cache    Cache
	ttl      time.Duration
	observer CacheObserver
	log      logging.Logger
}

var (
	_ costing.FeeStore   = (*CachedReferenceStore)(nil)
	_ costing.RateStore  = (*CachedReferenceStore)(nil)
	_ costing.GrantStore = (*CachedReferenceStore)(nil)
)

func NewCachedReferenceStore(src ReferenceSources, cache Cache, ttl time.Duration, observer CacheObserver, log logging.Logger) *CachedReferenceStore {
	if observer == nil {
		observer = nopObserver{}
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &CachedReferenceStore{src: src, cache: cache, ttl: ttl, observer: observer, log: log}
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func feesKey(j costing.Jurisdiction, ipType costing.IPType, asOf time.Time) string {
	return fmt.Sprintf("%sfees:%s:%s:%s", referencePrefix, j, ipType, dayKey(asOf))
}

func ratesKey(asOf time.Time) string  { return referencePrefix + "rates:" + dayKey(asOf) }
func grantsKey(asOf time.Time) string { return referencePrefix + "grants:" + dayKey(asOf) }

// cached reads key through the cache, falling back to load on a miss or a
// cache failure.
func (s *CachedReferenceStore) cached(ctx context.Context, key string, dest interface{}, load func(context.Context) (interface{}, error)) error {
	hit := true
	err := s.cache.GetOrSet(ctx, key, dest, s.ttl, func(ctx context.Context) (interface{}, error) {
		hit = false
		return load(ctx)
	})
	s.observer.RecordCacheAccess(cacheName, hit && err == nil)
	return err
}

func (s *CachedReferenceStore) GetFees(ctx context.Context, j costing.Jurisdiction, ipType costing.IPType, asOf time.Time) ([]costing.FeeRecord, error) {
	var out []costing.FeeRecord
	err := s.cached(ctx, feesKey(j, ipType, asOf), &out, func(ctx context.Context) (interface{}, error) {
		return s.src.Fees.GetFees(ctx, j, ipType, asOf)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CachedReferenceStore) GetRatesAsOf(ctx context.Context, asOf time.Time) (costing.RateTable, error) {
	var out costing.RateTable
	err := s.cached(ctx, ratesKey(asOf), &out, func(ctx context.Context) (interface{}, error) {
		return s.src.Rates.GetRatesAsOf(ctx, asOf)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CachedReferenceStore) GetActiveGrants(ctx context.Context, asOf time.Time) ([]costing.GrantProgram, error) {
	var out []costing.GrantProgram
	err := s.cached(ctx, grantsKey(asOf), &out, func(ctx context.Context) (interface{}, error) {
		return s.src.Grants.GetActiveGrants(ctx, asOf)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Invalidate drops every cached reference entry, for use after the fee
// schedule changes.
func (s *CachedReferenceStore) Invalidate(ctx context.Context) (int64, error) {
	n, err := s.cache.DeleteByPrefix(ctx, referencePrefix)
	if err != nil {
		return n, err
	}
	s.log.Info("reference cache invalidated", logging.Int64("keys", n))
	return n, nil
}

//Personal.AI order the ending
