package main

import (
	"time"

	"github.com/turtacn/KeyIP-CostEngine/internal/bootstrap"
	"github.com/turtacn/KeyIP-CostEngine/internal/config"
	httpserver "github.com/turtacn/KeyIP-CostEngine/internal/interfaces/http"
	"github.com/turtacn/KeyIP-CostEngine/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-CostEngine/internal/interfaces/http/middleware"
)

const rateLimitIdleTTL = 10 * time.Minute

// healthCheckers exposes the runtime's dependency probes to /readyz.
func healthCheckers(rt *bootstrap.Runtime) []handlers.HealthChecker {
	out := make([]handlers.HealthChecker, 0, len(rt.HealthChecks))
	for _, h := range rt.HealthChecks {
		out = append(out, handlers.NewChecker(h.Name, h.Check))
	}
	return out
}

func routerConfig(cfg *config.Config, rt *bootstrap.Runtime) httpserver.RouterConfig {
	rc := httpserver.RouterConfig{
		Calculations: handlers.NewCalculationHandler(rt.Service, rt.Logger),
		Fees:         handlers.NewFeeHandler(rt.Service),
		Health:       handlers.NewHealthHandler(bootstrap.Version, healthCheckers(rt)...),
		Logger:       rt.Logger,
		MaxBodySize:  cfg.Server.MaxBodySize,
		MetricsPath:  cfg.Metrics.Path,
	}

	if rt.Metrics != nil {
		rc.Metrics = rt.Metrics
		rc.MetricsHandler = rt.Collector.Handler()
	}

	rc.CORS = middleware.DefaultCORSConfig()
	rc.CORS.AllowedOrigins = cfg.Server.CORSOrigins

	if cfg.Server.RateLimitRPS > 0 {
		rc.RateLimiter = middleware.NewClientLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, rateLimitIdleTTL)
	}
	return rc
}

//Personal.AI order the ending
