package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsEngine(cfg CORSConfig) *gin.Engine {
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/api/v1/fees", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func corsRequest(r http.Handler, method, origin string, preflight bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/fees", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_Preflight(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com"}

	w := corsRequest(corsEngine(cfg), http.MethodOptions, "https://app.example.com", true)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PATCH, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), HeaderRequestID)
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, w.Body.String())
}

func TestCORS_SimpleRequest(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://APP.example.com"}

	w := corsRequest(corsEngine(cfg), http.MethodGet, "https://app.example.com", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Request-ID, Retry-After", w.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestCORS_OriginNotAllowed(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com"}
	r := corsEngine(cfg)

	for _, origin := range []string{"https://evil.example.org", ""} {
		w := corsRequest(r, http.MethodGet, origin, false)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), origin)
	}
}

func TestCORS_Wildcards(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"*.example.com"}
	r := corsEngine(cfg)

	assert.Equal(t, "https://tools.example.com",
		corsRequest(r, http.MethodGet, "https://tools.example.com", false).Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, corsRequest(r, http.MethodGet, "https://example.org", false).Header().Get("Access-Control-Allow-Origin"))

	cfg.AllowedOrigins = []string{"*"}
	assert.Equal(t, "*",
		corsRequest(corsEngine(cfg), http.MethodGet, "https://anyone.io", false).Header().Get("Access-Control-Allow-Origin"))

	cfg.AllowCredentials = true
	w := corsRequest(corsEngine(cfg), http.MethodGet, "https://anyone.io", false)
	assert.Equal(t, "https://anyone.io", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_PreflightOnUnroutedMethod(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"*"}

	w := corsRequest(corsEngine(cfg), http.MethodOptions, "https://app.example.com", true)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

//Personal.AI order the ending
