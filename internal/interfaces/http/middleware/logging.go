package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
)

// LoggingConfig controls RequestLogging.
type LoggingConfig struct {
	// SkipPaths are served but not logged.
	SkipPaths []string
	// SlowThreshold raises successful requests slower than this to warn.
	SlowThreshold time.Duration
}

func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

// RequestLogging stores a request-scoped logger in the request context and
// writes one entry per request once the handler chain returns.
func RequestLogging(logger logging.Logger, cfg LoggingConfig) gin.HandlerFunc {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := logger
		if id := GetRequestID(c); id != "" {
			reqLogger = logger.With(logging.String("request_id", id))
		}
		c.Request = c.Request.WithContext(logging.NewContext(c.Request.Context(), reqLogger))

		c.Next()

		path := c.Request.URL.Path
		if skip[path] {
			return
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("duration", elapsed),
			logging.Int("bytes", c.Writer.Size()),
			logging.String("client_ip", c.ClientIP()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, logging.String("query", q))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			reqLogger.Error("request failed", fields...)
		case status >= 400:
			reqLogger.Warn("request rejected", fields...)
		case cfg.SlowThreshold > 0 && elapsed >= cfg.SlowThreshold:
			reqLogger.Warn("slow request", fields...)
		default:
			reqLogger.Info("request completed", fields...)
		}
	}
}

//Personal.AI order the ending
