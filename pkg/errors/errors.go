package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeAPIError   = "API_ERROR"
	CodeUpstream   = "UPSTREAM_ERROR"
	CodeMalformed  = "MALFORMED_RESPONSE"
	CodeValidation = "VALIDATION_ERROR"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// ErrorCode lets CodeOf find the code through any of the wrapper types below.
func (e *AppError) ErrorCode() string {
	return e.Code
}

func NewAppError(message, code string, statusCode int, context map[string]any) *AppError {
	return &AppError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// UpstreamError means the completion provider could not be reached or answered
// with a non-success status. UpstreamStatus is 0 for transport failures.
type UpstreamError struct {
	*AppError
	Provider       string
	UpstreamStatus int
}

func NewUpstreamError(provider string, upstreamStatus int, cause error) *UpstreamError {
	message := fmt.Sprintf("%s request failed", provider)
	if upstreamStatus > 0 {
		message = fmt.Sprintf("%s returned %d %s", provider, upstreamStatus, http.StatusText(upstreamStatus))
	}
	return &UpstreamError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeUpstream,
			StatusCode: http.StatusBadGateway,
			Context: map[string]any{
				"provider": provider,
				"status":   upstreamStatus,
			},
			Cause: cause,
		},
		Provider:       provider,
		UpstreamStatus: upstreamStatus,
	}
}

// MalformedResponseError means the provider answered 2xx but the body did not
// carry a usable completion.
type MalformedResponseError struct {
	*AppError
	Provider string
}

func NewMalformedResponseError(provider, reason string, cause error) *MalformedResponseError {
	return &MalformedResponseError{
		AppError: &AppError{
			Message:    fmt.Sprintf("%s response malformed: %s", provider, reason),
			Code:       CodeMalformed,
			StatusCode: http.StatusBadGateway,
			Context: map[string]any{
				"provider": provider,
				"reason":   reason,
			},
			Cause: cause,
		},
		Provider: provider,
	}
}

type ValidationError struct {
	*AppError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: http.StatusBadRequest,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

// NewAPIError describes a failed call to the TS;DR HTTP API as seen by a client.
func NewAPIError(message, code string, statusCode int) *AppError {
	if code == "" {
		code = CodeAPIError
	}
	return NewAppError(message, code, statusCode, nil)
}

// CodeOf returns the error code carried by err, or "" when err has none.
func CodeOf(err error) string {
	var coded interface{ ErrorCode() string }
	if stderrors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return ""
}

func IsUpstream(err error) bool {
	var target *UpstreamError
	return stderrors.As(err, &target)
}

func IsMalformed(err error) bool {
	var target *MalformedResponseError
	return stderrors.As(err, &target)
}
