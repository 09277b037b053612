// Package errors defines AppError, the structured error carried from the
// costing domain up to the HTTP and CLI surfaces. The code on an AppError
// picks the HTTP status (see HTTPStatusForCode) and the CLI exit message.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

const maxFrames = 32

// callers formats the stack above the exported constructor that called it.
func callers() string {
	pcs := make([]uintptr, maxFrames)
	// runtime.Callers, callers, build, constructor
	n := runtime.Callers(4, pcs)
	if n == 0 {
		return ""
	}
	var sb strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for more := true; more; {
		var f runtime.Frame
		f, more = frames.Next()
		if strings.Contains(f.File, "runtime/") {
			continue
		}
		fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
	}
	return sb.String()
}

// AppError is a coded error. It unwraps to Cause.
//
//	return errors.New(errors.ErrCodeCalculationNotFound, "calculation not found").WithDetail(id)
//	return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query fee schedule")
type AppError struct {
	Code ErrorCode
	// Message is safe to show to API callers.
	Message string
	// Detail holds field names, ids or joined validation problems.
	Detail string
	Cause  error
	// Stack is captured at construction and never printed by Error.
	Stack string
}

func build(code ErrorCode, message, detail string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Detail: detail, Cause: cause, Stack: callers()}
}

// Error renders "[CODE] message" with ": detail" appended when set.
func (e *AppError) Error() string {
	s := "[" + e.Code.String() + "] " + e.Message
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	return s
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithDetail returns a copy of e with Detail replaced. Nil stays nil.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Detail = detail
	return &cp
}

// New returns an AppError without a cause.
func New(code ErrorCode, message string) *AppError {
	return build(code, message, "", nil)
}

// Wrap returns an AppError caused by err, or nil when err is nil. CodeUnknown
// keeps the code of an AppError already in err's chain.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		code = GetCode(err)
	}
	return build(code, message, "", err)
}

func NotFound(message string) *AppError     { return build(CodeNotFound, message, "", nil) }
func InvalidParam(message string) *AppError { return build(CodeInvalidParam, message, "", nil) }
func Internal(message string) *AppError     { return build(CodeInternal, message, "", nil) }

// Unavailable reports a collaborator (narrative service, cache, broker) that
// did not answer.
func Unavailable(message string) *AppError {
	return build(ErrCodeCollaboratorUnavailable, message, "", nil)
}

// Validation reports malformed calculation input. problems are joined with
// "; " into Detail so callers see all of them at once.
func Validation(message string, problems ...string) *AppError {
	return build(ErrCodeCostValidation, message, strings.Join(problems, "; "), nil)
}

// IsCode reports whether any AppError in err's chain has code. Nested
// AppErrors are all inspected, not only the outermost one.
func IsCode(err error, code ErrorCode) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if ae, ok := err.(*AppError); ok && ae != nil && ae.Code == code {
			return true
		}
	}
	return false
}

func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound) || IsCode(err, ErrCodeCalculationNotFound)
}

var validationCodes = []ErrorCode{
	ErrCodeValidation,
	ErrCodeBadRequest,
	ErrCodeCostValidation,
	ErrCodeJurisdictionUnsupported,
	ErrCodeTierLimitExceeded,
}

// IsValidation reports whether err was caused by bad caller input.
func IsValidation(err error) bool {
	for _, code := range validationCodes {
		if IsCode(err, code) {
			return true
		}
	}
	return false
}

// GetCode returns the code of the outermost AppError in err's chain,
// CodeOK for nil and CodeUnknown for errors without one.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

//Personal.AI order the ending
