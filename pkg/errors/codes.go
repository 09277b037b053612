package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are grouped by module prefix: "<MODULE>_<NNN>".
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Aliases used by call sites that predate the module-prefixed scheme.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
)

// Costing Module Error Codes
const (
	// ErrCodeCostValidation is returned for malformed calculation input.
	// It is the only hard failure of a calculation.
	ErrCodeCostValidation ErrorCode = "COST_001"
	// ErrCodeJurisdictionUnsupported is returned for jurisdiction codes that
	// have no registered policy.
	ErrCodeJurisdictionUnsupported ErrorCode = "COST_002"
	// ErrCodeTierLimitExceeded is returned when more jurisdictions are requested
	// than the caller's tier allows.
	ErrCodeTierLimitExceeded ErrorCode = "COST_003"

	// ErrCodeDataGap marks a missing fee, rate or grant lookup. It is recorded
	// as an assumption on the result and never returned to callers.
	ErrCodeDataGap ErrorCode = "COST_010"
	// ErrCodeFeeRecordInvalid is raised at the store boundary for rows that
	// fail FeeRecord validation.
	ErrCodeFeeRecordInvalid ErrorCode = "COST_011"
	// ErrCodeReferenceLoadFailed wraps store failures during a reference load.
	ErrCodeReferenceLoadFailed ErrorCode = "COST_012"

	// ErrCodeCollaboratorUnavailable marks a narrative or store collaborator
	// that timed out or failed.
	ErrCodeCollaboratorUnavailable ErrorCode = "COST_020"

	ErrCodeCalculationNotFound ErrorCode = "COST_030"
	ErrCodeCalculationSaveFailed ErrorCode = "COST_031"
	ErrCodeArchiveFailed       ErrorCode = "COST_032"
	ErrCodeEventPublishFailed  ErrorCode = "COST_033"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusBadRequest,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeCostValidation:          http.StatusBadRequest,
	ErrCodeJurisdictionUnsupported: http.StatusBadRequest,
	ErrCodeTierLimitExceeded:       http.StatusBadRequest,
	ErrCodeDataGap:                 http.StatusOK,
	ErrCodeFeeRecordInvalid:        http.StatusInternalServerError,
	ErrCodeReferenceLoadFailed:     http.StatusServiceUnavailable,
	ErrCodeCollaboratorUnavailable: http.StatusServiceUnavailable,
	ErrCodeCalculationNotFound:     http.StatusNotFound,
	ErrCodeCalculationSaveFailed:   http.StatusInternalServerError,
	ErrCodeArchiveFailed:           http.StatusInternalServerError,
	ErrCodeEventPublishFailed:      http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeCostValidation:          "invalid calculation input",
	ErrCodeJurisdictionUnsupported: "unsupported jurisdiction",
	ErrCodeTierLimitExceeded:       "too many jurisdictions for tier",
	ErrCodeDataGap:                 "reference data missing",
	ErrCodeFeeRecordInvalid:        "invalid fee record",
	ErrCodeReferenceLoadFailed:     "reference data load failed",
	ErrCodeCollaboratorUnavailable: "collaborator unavailable",
	ErrCodeCalculationNotFound:     "calculation not found",
	ErrCodeCalculationSaveFailed:   "failed to save calculation",
	ErrCodeArchiveFailed:           "failed to archive calculation report",
	ErrCodeEventPublishFailed:      "failed to publish calculation event",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
