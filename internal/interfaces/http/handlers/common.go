// Package handlers adapts the costing service to HTTP.
package handlers

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/internal/interfaces/http/middleware"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError writes err as an ErrorResponse. The status comes from the
// error code; errors without one are reported as internal. Server-side
// details are logged and never returned.
func respondError(c *gin.Context, err error) {
	var ae *errors.AppError
	if !stderrors.As(err, &ae) {
		switch {
		case stderrors.Is(err, context.DeadlineExceeded):
			ae = errors.Wrap(err, errors.ErrCodeTimeout, "request timed out")
		case stderrors.Is(err, context.Canceled):
			ae = errors.Wrap(err, errors.ErrCodeServiceUnavailable, "request cancelled")
		default:
			ae = errors.Wrap(err, errors.ErrCodeInternal, "internal server error")
		}
	}

	status := errors.HTTPStatusForCode(ae.Code)
	resp := ErrorResponse{Code: string(ae.Code), Message: ae.Message, Detail: ae.Detail}
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context(), nil).Error("request failed",
			logging.String("code", string(ae.Code)), logging.Err(err))
		resp.Detail = ""
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// NotFound answers requests that match no route.
func NotFound(c *gin.Context) {
	respondError(c, errors.New(errors.ErrCodeNotFound, "route not found").
		WithDetail(c.Request.Method+" "+c.Request.URL.Path))
}

// bindJSON decodes the request body into dst.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if middleware.IsBodyTooLarge(err) {
			return errors.New(errors.ErrCodeBadRequest, "request body too large")
		}
		return errors.New(errors.ErrCodeSerialization, "malformed request body").WithDetail(err.Error())
	}
	return nil
}

//Personal.AI order the ending
