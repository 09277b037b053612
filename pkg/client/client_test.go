package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *testLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+": "+fmt.Sprintf(format, args...))
}

func (l *testLogger) Debugf(format string, args ...interface{}) { l.record("debug", format, args...) }
func (l *testLogger) Infof(format string, args ...interface{})  { l.record("info", format, args...) }
func (l *testLogger) Errorf(format string, args ...interface{}) { l.record("error", format, args...) }

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithRetryWait(time.Millisecond, 2*time.Millisecond)}, opts...)
	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient_Validation(t *testing.T) {
	for _, raw := range []string{"", "ftp://host", "://bad"} {
		c, err := NewClient(raw)
		assert.Nil(t, c, raw)
		assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err), raw)
	}

	c, err := NewClient("https://ipcost.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://ipcost.example.com", c.baseURL)
	assert.Equal(t, "ipcost-go-sdk/"+Version, c.userAgent)
}

func TestDo_HeadersAndRequestID(t *testing.T) {
	var ids []string
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-ID"))
		if atomic.AddInt32(&calls, 1) == 1 {
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "custom/1.0", r.Header.Get("User-Agent"))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"code": "COMMON_005", "message": "busy"})
			return
		}
		writeJSON(w, http.StatusOK, Preview{TotalCost: 10})
	}, WithAPIKey("secret"), WithUserAgent("custom/1.0"))

	p, err := c.Preview(context.Background(), CalculationInput{Jurisdictions: []string{"USPTO"}})

	require.NoError(t, err)
	assert.Equal(t, 10.0, p.TotalCost)
	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.Equal(t, ids[0], ids[1], "retries share the request id")
}

func TestDo_NoAuthorizationWithoutKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		writeJSON(w, http.StatusOK, jurisdictionListResponse{})
	})
	_, err := c.Jurisdictions(context.Background())
	require.NoError(t, err)
}

func TestDo_ErrorEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"code": "COST_001", "message": "invalid calculation input", "detail": "unsupported jurisdiction KIPO",
		})
	})

	_, err := c.Preview(context.Background(), CalculationInput{Jurisdictions: []string{"KIPO"}})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "COST_001", apiErr.Code)
	assert.Equal(t, "unsupported jurisdiction KIPO", apiErr.Detail)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.True(t, apiErr.IsValidation())
	assert.False(t, apiErr.IsServerError())
	assert.Contains(t, err.Error(), "COST_001 (HTTP 400)")
}

func TestDo_PlainTextError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "no such route")
	})

	_, err := c.GetCalculation(context.Background(), "abc")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "no such route", apiErr.Message)
}

func TestCalculate_NotRetriedOnServerError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"code": "COMMON_001", "message": "internal server error"})
	})

	_, err := c.Calculate(context.Background(), CalculationInput{Jurisdictions: []string{"USPTO"}}, "")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGet_RetriedUntilExhausted(t *testing.T) {
	var calls int32
	logger := &testLogger{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, WithRetryMax(2), WithLogger(logger))

	_, err := c.Jurisdictions(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.NotEmpty(t, logger.lines)
}

func TestDo_RateLimitedHonoursRetryAfter(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"code": "COMMON_008", "message": "rate limit exceeded"})
			return
		}
		writeJSON(w, http.StatusCreated, Calculation{ID: "calc-1", Status: "complete"})
	})

	rec, err := c.Calculate(context.Background(), CalculationInput{Jurisdictions: []string{"USPTO"}}, "")

	require.NoError(t, err)
	assert.Equal(t, "calc-1", rec.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDo_RateLimitedGivesUp(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}, WithRetryMax(1))

	_, err := c.Jurisdictions(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsRateLimited())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDo_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Jurisdictions(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCalculate_SendsEmail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/calculations", r.URL.Path)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ops@example.com", body["email"])
		assert.Equal(t, []interface{}{"USPTO", "EPO"}, body["jurisdictions"])
		assert.Equal(t, "small", body["entity_type"])
		writeJSON(w, http.StatusCreated, Calculation{
			ID: "calc-9", Email: "ops@example.com", Status: "complete",
			Result: &Result{TotalCost: 4200, ReportingCurrency: "USD"},
		})
	})

	rec, err := c.Calculate(context.Background(), CalculationInput{
		Jurisdictions: []string{"USPTO", "EPO"},
		EntityType:    "small",
	}, " ops@example.com ")

	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", rec.Email)
	require.NotNil(t, rec.Result)
	assert.Equal(t, 4200.0, rec.Result.TotalCost)
}

func TestGetAndUpdateCalculation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/calculations/a b", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, Calculation{ID: "a b", Status: "complete"})
		case http.MethodPatch:
			var upd CalculationUpdate
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&upd)) || !assert.NotNil(t, upd.Email) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			assert.Nil(t, upd.Status)
			writeJSON(w, http.StatusOK, Calculation{ID: "a b", Email: *upd.Email})
		}
	})
	ctx := context.Background()

	rec, err := c.GetCalculation(ctx, "a b")
	require.NoError(t, err)
	assert.Equal(t, "complete", rec.Status)

	email := "x@example.com"
	rec, err = c.UpdateCalculation(ctx, "a b", CalculationUpdate{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, rec.Email)

	_, err = c.GetCalculation(ctx, " ")
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
	_, err = c.UpdateCalculation(ctx, "", CalculationUpdate{})
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
}

func TestListFees(t *testing.T) {
	amount := 350.0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/fees", r.URL.Path)
		assert.Equal(t, "EPO", r.URL.Query().Get("jurisdiction"))
		assert.Equal(t, "design", r.URL.Query().Get("ip_type"))
		writeJSON(w, http.StatusOK, feeListResponse{IPType: "design", Count: 1, Fees: []FeeRecord{
			{ID: "epo-filing", Jurisdiction: "EPO", Category: "filing", Currency: "EUR", Amount: &amount},
		}})
	})

	fees, err := c.ListFees(context.Background(), "EPO", "design")
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, 350.0, *fees[0].Amount)

	_, err = c.ListFees(context.Background(), "", "patent")
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
}

func TestListFees_DefaultIPTypeOmitted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["ip_type"]
		assert.False(t, ok)
		writeJSON(w, http.StatusOK, feeListResponse{Fees: []FeeRecord{}})
	})
	fees, err := c.ListFees(context.Background(), "USPTO", "")
	require.NoError(t, err)
	assert.Empty(t, fees)
}

func TestCalculateBackoff(t *testing.T) {
	c := &Client{retryWaitMin: 100 * time.Millisecond, retryWaitMax: 300 * time.Millisecond}

	first := c.calculateBackoff(1)
	assert.GreaterOrEqual(t, first, 100*time.Millisecond)
	assert.Less(t, first, 125*time.Millisecond)

	capped := c.calculateBackoff(5)
	assert.GreaterOrEqual(t, capped, 300*time.Millisecond)
	assert.Less(t, capped, 375*time.Millisecond)
}

func TestRetryAfter(t *testing.T) {
	d, ok := retryAfter(" 2 ")
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)

	_, ok = retryAfter("Wed, 21 Oct 2026 07:28:00 GMT")
	assert.False(t, ok)
	_, ok = retryAfter("-1")
	assert.False(t, ok)
}

//Personal.AI order the ending
