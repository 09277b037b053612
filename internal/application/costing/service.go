// Package costing is the application service behind the HTTP API, the CLI
// and the Kafka worker. It validates input, keeps reference data warm and
// persists, archives and announces finished calculations.
package costing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	domainCosting "github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// PreviewMaxJurisdictions caps the free preview regardless of configuration.
const PreviewMaxJurisdictions = 3

const (
	kindFull    = "full"
	kindPreview = "preview"
)

// Service defines the cost engine operations exposed to outer layers.
type Service interface {
	// Calculate runs a full calculation and stores it. Persistence, archive
	// and event failures are logged; the record is returned regardless.
	Calculate(ctx context.Context, in domainCosting.CalculationInput) (*domainCosting.CalculationRecord, error)
	// Preview runs a calculation without narrative or persistence.
	Preview(ctx context.Context, in domainCosting.CalculationInput) (*domainCosting.Preview, error)
	GetCalculation(ctx context.Context, id string) (*domainCosting.CalculationRecord, error)
	UpdateCalculation(ctx context.Context, id string, patch domainCosting.CalculationPatch) (*domainCosting.CalculationRecord, error)
	ListFees(ctx context.Context, jurisdiction string, ipType domainCosting.IPType) ([]domainCosting.FeeRecord, error)
	Jurisdictions() []domainCosting.JurisdictionPolicy
}

// Metrics receives service telemetry. *prometheus.CostingMetrics implements it.
type Metrics interface {
	RecordCalculation(kind string, jurisdictions int, err error, d time.Duration)
	RecordReferenceLoad(result string)
	RecordCacheAccess(cache string, hit bool)
	RecordNarrativeFallback(reason string)
	RecordPersistenceFailure(operation string)
	RecordEvent(topic string, err error)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordCalculation(string, int, error, time.Duration) {}
func (NopMetrics) RecordReferenceLoad(string)                          {}
func (NopMetrics) RecordCacheAccess(string, bool)                      {}
func (NopMetrics) RecordNarrativeFallback(string)                      {}
func (NopMetrics) RecordPersistenceFailure(string)                     {}
func (NopMetrics) RecordEvent(string, error)                           {}

// EventPublisher announces stored calculations.
type EventPublisher interface {
	PublishCompleted(ctx context.Context, rec *domainCosting.CalculationRecord) error
}

// ReportArchiver keeps a durable copy of each calculation and returns its key.
type ReportArchiver interface {
	Archive(ctx context.Context, rec *domainCosting.CalculationRecord) (string, error)
}

// ServiceConfig tunes the service.
type ServiceConfig struct {
	MaxJurisdictions int
	Insights         domainCosting.InsightOptions
	IncludeTax       bool
}

// Dependencies are the collaborators of the service. Cache is required;
// the rest are optional and skipped when nil.
type Dependencies struct {
	Cache     *ReferenceCache
	Registry  *domainCosting.PolicyRegistry
	Narrative domainCosting.NarrativeService
	Results   domainCosting.ResultStore
	Archive   ReportArchiver
	Events    EventPublisher
	Clock     Clock
	Metrics   Metrics
	Logger    logging.Logger
}

type serviceImpl struct {
	cfg      ServiceConfig
	cache    *ReferenceCache
	registry *domainCosting.PolicyRegistry
	engine   *domainCosting.Engine
	results  domainCosting.ResultStore
	archive  ReportArchiver
	events   EventPublisher
	clock    Clock
	metrics  Metrics
	logger   logging.Logger
}

// NewService wires the service.
func NewService(cfg ServiceConfig, deps Dependencies) (Service, error) {
	if deps.Cache == nil {
		return nil, errors.New(errors.ErrCodeInternal, "reference cache is required")
	}
	if deps.Registry == nil {
		deps.Registry = deps.Cache.registry
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock
	}
	if deps.Metrics == nil {
		deps.Metrics = NopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if cfg.MaxJurisdictions <= 0 {
		cfg.MaxJurisdictions = domainCosting.DefaultMaxJurisdictions
	}

	return &serviceImpl{
		cfg:      cfg,
		cache:    deps.Cache,
		registry: deps.Registry,
		engine: domainCosting.NewEngine(domainCosting.EngineOptions{
			Registry:   deps.Registry,
			Narrative:  deps.Narrative,
			Insights:   cfg.Insights,
			IncludeTax: cfg.IncludeTax,
		}),
		results: deps.Results,
		archive: deps.Archive,
		events:  deps.Events,
		clock:   deps.Clock,
		metrics: deps.Metrics,
		logger:  deps.Logger.Named("costing"),
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Calculations
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) Calculate(ctx context.Context, in domainCosting.CalculationInput) (rec *domainCosting.CalculationRecord, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordCalculation(kindFull, len(in.Jurisdictions), err, time.Since(start))
	}()

	norm, err := domainCosting.NormalizeInput(in, s.registry, s.cfg.MaxJurisdictions)
	if err != nil {
		return nil, err
	}
	ref, err := s.cache.EnsureLoaded(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "reference data not loaded")
	}

	now := s.clock.Now()
	res := s.engine.Calculate(ctx, norm, ref, now)
	s.recordFallbacks(norm, res)

	rec = &domainCosting.CalculationRecord{
		ID:        uuid.NewString(),
		Status:    domainCosting.StatusComplete,
		Input:     norm,
		Result:    res,
		CreatedAt: now,
		UpdatedAt: now,
	}
	log := s.logger.With(logging.CalculationID(rec.ID))

	saved := s.save(ctx, rec, log)
	s.archiveReport(ctx, rec, saved, log)
	s.publish(ctx, rec, log)

	log.Info("calculation complete",
		logging.Int("jurisdictions", len(norm.Jurisdictions)),
		logging.Float64("total_cost", res.TotalCost),
		logging.Duration("elapsed", time.Since(start)))
	return rec, nil
}

func (s *serviceImpl) Preview(ctx context.Context, in domainCosting.CalculationInput) (p *domainCosting.Preview, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordCalculation(kindPreview, len(in.Jurisdictions), err, time.Since(start))
	}()

	norm, err := domainCosting.NormalizeInput(in, s.registry, PreviewMaxJurisdictions)
	if err != nil {
		return nil, err
	}
	ref, err := s.cache.EnsureLoaded(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "reference data not loaded")
	}

	// Without a description the engine never calls the narrative service.
	norm.BusinessDescription = ""
	res := s.engine.Calculate(ctx, norm, ref, s.clock.Now())
	return domainCosting.BuildPreview(norm, res), nil
}

func (s *serviceImpl) recordFallbacks(in domainCosting.CalculationInput, res *domainCosting.Result) {
	if in.BusinessDescription == "" {
		return
	}
	for _, a := range res.Assumptions {
		if a.Kind == domainCosting.AssumptionUnavailable && strings.HasPrefix(a.Message, "narrative") {
			s.metrics.RecordNarrativeFallback("unavailable")
			return
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Soft side effects
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) save(ctx context.Context, rec *domainCosting.CalculationRecord, log logging.Logger) bool {
	if s.results == nil {
		return false
	}
	if _, err := s.results.Save(ctx, rec); err != nil {
		s.metrics.RecordPersistenceFailure("save")
		log.Warn("calculation not persisted", logging.Err(err))
		return false
	}
	return true
}

func (s *serviceImpl) archiveReport(ctx context.Context, rec *domainCosting.CalculationRecord, saved bool, log logging.Logger) {
	if s.archive == nil {
		return
	}
	key, err := s.archive.Archive(ctx, rec)
	if err != nil {
		s.metrics.RecordPersistenceFailure("archive")
		log.Warn("report not archived", logging.Err(err))
		return
	}
	rec.ArchiveKey = key
	if !saved {
		return
	}
	if err := s.results.Update(ctx, rec.ID, domainCosting.CalculationPatch{ArchiveKey: &key}); err != nil {
		s.metrics.RecordPersistenceFailure("update")
		log.Warn("archive key not recorded", logging.Err(err))
	}
}

func (s *serviceImpl) publish(ctx context.Context, rec *domainCosting.CalculationRecord, log logging.Logger) {
	if s.events == nil {
		return
	}
	err := s.events.PublishCompleted(ctx, rec)
	s.metrics.RecordEvent("calculation.completed", err)
	if err != nil {
		log.Warn("completion event not published", logging.Err(err))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Records and reference data
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) GetCalculation(ctx context.Context, id string) (*domainCosting.CalculationRecord, error) {
	if id == "" {
		return nil, errors.InvalidParam("calculation id is required")
	}
	if s.results == nil {
		return nil, errors.New(errors.ErrCodeCalculationNotFound, "calculation storage is not configured").WithDetail(id)
	}
	return s.results.Get(ctx, id)
}

func (s *serviceImpl) UpdateCalculation(ctx context.Context, id string, patch domainCosting.CalculationPatch) (*domainCosting.CalculationRecord, error) {
	if id == "" {
		return nil, errors.InvalidParam("calculation id is required")
	}
	if patch.IsEmpty() {
		return nil, errors.Validation("invalid calculation update", "patch changes nothing")
	}
	if patch.Status != nil {
		switch *patch.Status {
		case domainCosting.StatusPreview, domainCosting.StatusComplete, domainCosting.StatusUpgraded:
		default:
			return nil, errors.Validation("invalid calculation update", "unknown status "+string(*patch.Status))
		}
	}
	if s.results == nil {
		return nil, errors.New(errors.ErrCodeCalculationNotFound, "calculation storage is not configured").WithDetail(id)
	}
	if err := s.results.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	s.logger.Info("calculation updated", logging.CalculationID(id))
	return s.results.Get(ctx, id)
}

func (s *serviceImpl) ListFees(ctx context.Context, jurisdiction string, ipType domainCosting.IPType) ([]domainCosting.FeeRecord, error) {
	j, err := s.registry.Normalize(jurisdiction)
	if err != nil {
		return nil, err
	}
	if ipType == "" {
		ipType = domainCosting.IPTypePatent
	}
	ref, err := s.cache.EnsureLoaded(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceLoadFailed, "reference data not loaded")
	}
	return ref.Fees.Records(j, ipType, s.clock.Now()), nil
}

func (s *serviceImpl) Jurisdictions() []domainCosting.JurisdictionPolicy {
	return s.registry.List()
}

//Personal.AI order the ending
