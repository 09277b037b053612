package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appCosting "github.com/turtacn/KeyIP-CostEngine/internal/application/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/referencedata"
	"github.com/turtacn/KeyIP-CostEngine/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-CostEngine/internal/interfaces/http/middleware"
	"github.com/turtacn/KeyIP-CostEngine/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router  *gin.Engine
	results *testutil.ResultStoreMock
}

func newFixture(t *testing.T, limiter *middleware.ClientLimiter) fixture {
	t.Helper()
	fs, err := referencedata.Default()
	require.NoError(t, err)
	cache := appCosting.NewReferenceCache(appCosting.ReferenceSources{Fees: fs, Rates: fs, Grants: fs}, nil, appCosting.ReferenceCacheOptions{})
	results := testutil.NewResultStoreMock()
	svc, err := appCosting.NewService(appCosting.ServiceConfig{}, appCosting.Dependencies{Cache: cache, Results: results})
	require.NoError(t, err)

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "router_test"}, nil)
	require.NoError(t, err)
	metrics := prometheus.NewCostingMetrics(collector)

	logger := testutil.NewMockLogger()
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = []string{"https://app.example.com"}

	return fixture{
		router: NewRouter(RouterConfig{
			Calculations:   handlers.NewCalculationHandler(svc, logger),
			Fees:           handlers.NewFeeHandler(svc),
			Health:         handlers.NewHealthHandler("test", handlers.NewChecker("reference_data", cache.HealthCheck)),
			Logger:         logger,
			Metrics:        metrics,
			MetricsHandler: collector.Handler(),
			CORS:           cors,
			RateLimiter:    limiter,
			MaxBodySize:    1 << 16,
		}),
		results: results,
	}
}

func (f fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r).WithContext(context.Background())
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRouter_CalculationLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/calculations", map[string]interface{}{
		"jurisdictions":       []string{"us", "EP"},
		"entity_type":         "small",
		"protection_duration": 10,
		"claim_count":         25,
		"email":               "founder@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	var created costing.CalculationRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "founder@example.com", created.Email)
	require.NotNil(t, created.Result)
	assert.Len(t, created.Result.PerJurisdiction, 2)
	assert.Greater(t, created.Result.TotalCost, 0.0)
	assert.Equal(t, 1, f.results.Len())

	w = f.do(t, http.MethodGet, "/api/v1/calculations/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPatch, "/api/v1/calculations/"+created.ID, map[string]string{"status": "upgraded"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated costing.CalculationRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, costing.StatusUpgraded, updated.Status)

	w = f.do(t, http.MethodPatch, "/api/v1/calculations/"+created.ID, map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/calculations/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_PreviewAndValidation(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/previews", map[string]interface{}{
		"jurisdictions":        []string{"USPTO"},
		"business_description": "autonomous drones",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var p costing.Preview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Greater(t, p.TotalCost, 0.0)
	assert.NotEmpty(t, p.UpgradeTeaser)
	assert.Equal(t, 0, f.results.Len())

	w = f.do(t, http.MethodPost, "/api/v1/calculations", map[string]interface{}{"jurisdictions": []string{"KIPO"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var e handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Contains(t, e.Code, "COST_")
}

func TestRouter_FeesProbesAndMetrics(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/v1/fees?jurisdiction=EPO", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fees handlers.FeeListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fees))
	assert.Greater(t, fees.Count, 0)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/readyz", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/unknown", nil).Code)

	w = f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `router_test_http_requests_total{method="GET",path="/api/v1/fees",status_code="200"} 1`)
	assert.Contains(t, w.Body.String(), `router_test_http_requests_total{method="GET",path="unmatched",status_code="404"} 1`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	f := newFixture(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/calculations", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RateLimitSparesProbes(t *testing.T) {
	f := newFixture(t, middleware.NewClientLimiter(0.001, 1, 0))

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/jurisdictions", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(t, http.MethodGet, "/api/v1/jurisdictions", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", nil).Code)
}

//Personal.AI order the ending
