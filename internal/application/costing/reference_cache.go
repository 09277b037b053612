package costing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	domainCosting "github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

const (
	DefaultCacheTTL     = 15 * time.Minute
	DefaultRetryAfter   = 30 * time.Second
	DefaultStoreTimeout = 5 * time.Second

	LoadComplete = "complete"
	LoadPartial  = "partial"
	LoadFailed   = "failed"

	cacheName = "reference_memory"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reports UTC wall time.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// ReferenceSources groups the stores the cache loads from.
type ReferenceSources struct {
	Fees   domainCosting.FeeStore
	Rates  domainCosting.RateStore
	Grants domainCosting.GrantStore
}

// ReferenceCacheOptions configures a ReferenceCache. Zero values take the
// package defaults.
type ReferenceCacheOptions struct {
	TTL          time.Duration
	RetryAfter   time.Duration
	StoreTimeout time.Duration
	IPTypes      []domainCosting.IPType
	Clock        Clock
	Metrics      Metrics
	Logger       logging.Logger
}

type snapshot struct {
	data    *domainCosting.ReferenceData
	result  string
	expires time.Time
}

// ReferenceCache holds the current reference data snapshot. Readers never see
// a partially built snapshot and concurrent loads are coalesced.
type ReferenceCache struct {
	src      ReferenceSources
	registry *domainCosting.PolicyRegistry
	opts     ReferenceCacheOptions

	current atomic.Pointer[snapshot]
	group   singleflight.Group
	logger  logging.Logger
}

func NewReferenceCache(src ReferenceSources, registry *domainCosting.PolicyRegistry, opts ReferenceCacheOptions) *ReferenceCache {
	if registry == nil {
		registry = domainCosting.DefaultRegistry()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheTTL
	}
	if opts.RetryAfter <= 0 || opts.RetryAfter > opts.TTL {
		opts.RetryAfter = min(DefaultRetryAfter, opts.TTL)
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if len(opts.IPTypes) == 0 {
		opts.IPTypes = []domainCosting.IPType{domainCosting.IPTypePatent, domainCosting.IPTypeTrademark, domainCosting.IPTypeDesign}
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics{}
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ReferenceCache{src: src, registry: registry, opts: opts, logger: log.Named("reference_cache")}
}

// EnsureLoaded returns a fresh snapshot, loading one if the current snapshot
// is missing or expired. Store failures degrade the snapshot instead of
// failing; the only error is ctx ending while the caller waits.
func (c *ReferenceCache) EnsureLoaded(ctx context.Context) (*domainCosting.ReferenceData, error) {
	if s := c.current.Load(); s != nil && c.opts.Clock.Now().Before(s.expires) {
		c.opts.Metrics.RecordCacheAccess(cacheName, true)
		return s.data, nil
	}
	c.opts.Metrics.RecordCacheAccess(cacheName, false)

	ch := c.group.DoChan("reference", func() (interface{}, error) {
		// Another caller may have stored a fresh snapshot while this one queued.
		if s := c.current.Load(); s != nil && c.opts.Clock.Now().Before(s.expires) {
			return s, nil
		}
		s := c.load(context.WithoutCancel(ctx))
		c.current.Store(s)
		return s, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val.(*snapshot).data, nil
	}
}

// Snapshot returns the current snapshot without loading, or nil.
func (c *ReferenceCache) Snapshot() *domainCosting.ReferenceData {
	if s := c.current.Load(); s != nil {
		return s.data
	}
	return nil
}

// HealthCheck loads reference data if needed and fails when no source
// answered. A partial load is healthy.
func (c *ReferenceCache) HealthCheck(ctx context.Context) error {
	if _, err := c.EnsureLoaded(ctx); err != nil {
		return err
	}
	if s := c.current.Load(); s != nil && s.result == LoadFailed {
		return errors.New(errors.ErrCodeReferenceLoadFailed, "no reference data source answered")
	}
	return nil
}

// Invalidate forces the next EnsureLoaded to reload.
func (c *ReferenceCache) Invalidate() {
	c.current.Store(nil)
}

func (c *ReferenceCache) load(ctx context.Context) *snapshot {
	start := time.Now()
	asOf := c.opts.Clock.Now()

	var (
		mu          sync.Mutex
		records     []domainCosting.FeeRecord
		rates       domainCosting.RateTable
		grants      []domainCosting.GrantProgram
		assumptions []domainCosting.Assumption
		calls       int
		failures    int
	)
	fail := func(a domainCosting.Assumption, err error, fields ...logging.Field) {
		mu.Lock()
		defer mu.Unlock()
		failures++
		assumptions = append(assumptions, a)
		c.logger.Warn("reference store call failed", append(fields, logging.Err(err))...)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range c.registry.Codes() {
		for _, ipType := range c.opts.IPTypes {
			calls++
			g.Go(func() error {
				cctx, cancel := context.WithTimeout(gctx, c.opts.StoreTimeout)
				defer cancel()
				recs, err := c.src.Fees.GetFees(cctx, j, ipType, asOf)
				if err != nil {
					fail(domainCosting.Assumption{
						Kind:         domainCosting.AssumptionUnavailable,
						Jurisdiction: j,
						IPType:       ipType,
						Message:      fmt.Sprintf("%s %s fee schedule unavailable; affected fees are zero", j, ipType),
					}, err, logging.Jurisdiction(string(j)), logging.String("ip_type", string(ipType)))
					return nil
				}
				mu.Lock()
				records = append(records, recs...)
				mu.Unlock()
				return nil
			})
		}
	}
	calls += 2
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, c.opts.StoreTimeout)
		defer cancel()
		rt, err := c.src.Rates.GetRatesAsOf(cctx, asOf)
		if err != nil {
			fail(domainCosting.Assumption{
				Kind:    domainCosting.AssumptionUnavailable,
				Message: "exchange rates unavailable; native amounts converted at 1.0",
			}, err, logging.String("store", "rates"))
			return nil
		}
		mu.Lock()
		rates = rt
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, c.opts.StoreTimeout)
		defer cancel()
		gs, err := c.src.Grants.GetActiveGrants(cctx, asOf)
		if err != nil {
			fail(domainCosting.Assumption{
				Kind:    domainCosting.AssumptionUnavailable,
				Message: "grant programmes unavailable; no grant discounts applied",
			}, err, logging.String("store", "grants"))
			return nil
		}
		mu.Lock()
		grants = gs
		mu.Unlock()
		return nil
	})
	_ = g.Wait()

	result, ttl := LoadComplete, c.opts.TTL
	switch {
	case failures == calls:
		result, ttl = LoadFailed, c.opts.RetryAfter
	case failures > 0:
		result, ttl = LoadPartial, c.opts.RetryAfter
	}
	c.opts.Metrics.RecordReferenceLoad(result)
	c.logger.Info("reference data loaded",
		logging.String("result", result),
		logging.Int("fee_records", len(records)),
		logging.Int("grants", len(grants)),
		logging.Duration("elapsed", time.Since(start)))

	return &snapshot{
		data: &domainCosting.ReferenceData{
			Fees:        domainCosting.NewFeeTable(records),
			Rates:       rates,
			Grants:      grants,
			Assumptions: sortAssumptions(assumptions),
			LoadedAt:    asOf,
		},
		result:  result,
		expires: asOf.Add(ttl),
	}
}

// sortAssumptions orders load notes so snapshots are reproducible regardless
// of goroutine completion order.
func sortAssumptions(as []domainCosting.Assumption) []domainCosting.Assumption {
	sort.Slice(as, func(i, k int) bool {
		if as[i].Jurisdiction != as[k].Jurisdiction {
			return as[i].Jurisdiction < as[k].Jurisdiction
		}
		return as[i].Message < as[k].Message
	})
	return as
}

//Personal.AI order the ending
