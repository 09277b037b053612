package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// Recovery turns a handler panic into a 500 error envelope and logs it.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logging.FromContext(c.Request.Context(), logger).Error("panic recovered",
			logging.Any("panic", recovered),
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path))
		abortWithCode(c, apperrors.ErrCodeInternal, "internal server error")
	})
}

// BodyLimit caps request bodies at limit bytes. Reads past the limit fail
// with *http.MaxBytesError.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from a BodyLimit reader.
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func abortWithCode(c *gin.Context, code apperrors.ErrorCode, message string) {
	c.AbortWithStatusJSON(apperrors.HTTPStatusForCode(code), gin.H{
		"code":    string(code),
		"message": message,
	})
}

//Personal.AI order the ending
