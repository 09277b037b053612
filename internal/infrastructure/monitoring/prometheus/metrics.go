package prometheus

import (
	"strconv"
	"time"
)

// CostingMetrics is the set of metrics the cost engine exports.
type CostingMetrics struct {
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	CalculationsTotal   CounterVec
	CalculationDuration HistogramVec
	JurisdictionsPerRun HistogramVec
	ReferenceLoadsTotal CounterVec
	CacheHitsTotal      CounterVec
	CacheMissesTotal    CounterVec
	NarrativeFallbacks  CounterVec
	PersistenceFailures CounterVec
	EventsTotal         CounterVec
}

var (
	DefaultHTTPDurationBuckets        = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultCalculationDurationBuckets = []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10, 15}
)

// NewCostingMetrics registers every cost engine metric on collector.
func NewCostingMetrics(collector MetricsCollector) *CostingMetrics {
	return &CostingMetrics{
		HTTPRequestsTotal:   collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path"),
		HTTPActiveRequests:  collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method"),

		CalculationsTotal:   collector.RegisterCounter("calculations_total", "Cost calculations by kind and outcome", "kind", "outcome"),
		CalculationDuration: collector.RegisterHistogram("calculation_duration_seconds", "End-to-end calculation duration", DefaultCalculationDurationBuckets, "kind"),
		JurisdictionsPerRun: collector.RegisterHistogram("calculation_jurisdictions", "Jurisdictions requested per calculation", []float64{1, 2, 3, 5, 8}),
		ReferenceLoadsTotal: collector.RegisterCounter("reference_loads_total", "Reference data loads by result", "result"),
		CacheHitsTotal:      collector.RegisterCounter("cache_hits_total", "Reference cache hits", "cache"),
		CacheMissesTotal:    collector.RegisterCounter("cache_misses_total", "Reference cache misses", "cache"),
		NarrativeFallbacks:  collector.RegisterCounter("narrative_fallbacks_total", "Narrative insight fallbacks", "reason"),
		PersistenceFailures: collector.RegisterCounter("persistence_failures_total", "Soft failures persisting calculations", "operation"),
		EventsTotal:         collector.RegisterCounter("events_total", "Calculation events by topic and result", "topic", "result"),
	}
}

func (m *CostingMetrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// HTTPRequestStarted increments the in-flight gauge for method and returns
// the matching decrement.
func (m *CostingMetrics) HTTPRequestStarted(method string) func() {
	g := m.HTTPActiveRequests.WithLabelValues(method)
	g.Inc()
	return g.Dec
}

// RecordCalculation counts one calculation. kind is "full" or "preview".
func (m *CostingMetrics) RecordCalculation(kind string, jurisdictions int, err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.CalculationsTotal.WithLabelValues(kind, outcome).Inc()
	m.CalculationDuration.WithLabelValues(kind).Observe(d.Seconds())
	if jurisdictions > 0 {
		m.JurisdictionsPerRun.WithLabelValues().Observe(float64(jurisdictions))
	}
}

// RecordReferenceLoad counts a reference load; result is complete, partial or failed.
func (m *CostingMetrics) RecordReferenceLoad(result string) {
	m.ReferenceLoadsTotal.WithLabelValues(result).Inc()
}

func (m *CostingMetrics) RecordCacheAccess(cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

func (m *CostingMetrics) RecordNarrativeFallback(reason string) {
	m.NarrativeFallbacks.WithLabelValues(reason).Inc()
}

func (m *CostingMetrics) RecordPersistenceFailure(operation string) {
	m.PersistenceFailures.WithLabelValues(operation).Inc()
}

func (m *CostingMetrics) RecordEvent(topic string, err error) {
	result := "published"
	if err != nil {
		result = "failed"
	}
	m.EventsTotal.WithLabelValues(topic, result).Inc()
}

//Personal.AI order the ending
