// Package http is the REST surface of the cost engine.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-CostEngine/internal/interfaces/http/middleware"
)

// APIPrefix is the version prefix of every business route.
const APIPrefix = "/api/v1"

// RouterConfig holds the handlers and middleware settings for NewRouter.
// Nil handlers leave their routes unmounted.
type RouterConfig struct {
	Calculations *handlers.CalculationHandler
	Fees         *handlers.FeeHandler
	Health       *handlers.HealthHandler

	Logger  logging.Logger
	Metrics middleware.HTTPMetrics
	// MetricsHandler serves the Prometheus exposition at MetricsPath.
	MetricsHandler http.Handler
	MetricsPath    string

	CORS        middleware.CORSConfig
	RateLimiter *middleware.ClientLimiter
	MaxBodySize int64
}

// NewRouter builds the gin engine. Probes and metrics sit outside /api/v1
// and bypass body and rate limits.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogging(cfg.Logger.Named("http"), middleware.DefaultLoggingConfig()),
		middleware.Recovery(cfg.Logger),
		middleware.Metrics(cfg.Metrics),
		middleware.CORS(cfg.CORS),
	)
	r.NoRoute(handlers.NotFound)

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(r)
	}
	if cfg.MetricsHandler != nil {
		r.GET(cfg.MetricsPath, gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group(APIPrefix, middleware.BodyLimit(cfg.MaxBodySize), middleware.RateLimit(cfg.RateLimiter))
	if cfg.Calculations != nil {
		cfg.Calculations.RegisterRoutes(api)
	}
	if cfg.Fees != nil {
		cfg.Fees.RegisterRoutes(api)
	}
	return r
}

//Personal.AI order the ending
