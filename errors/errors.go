// Package errors provides the unified error type used across the proxy,
// with error codes, HTTP status mapping, and retryable detection.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// --- Common Error Constructors ---

// NoNodesAvailable creates an AppError for when every execution node is
// offline or unusable.
func NoNodesAvailable() *AppError {
	return &AppError{
		Code: ErrCodeNoNodes, Message: "No execution nodes available.",
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
	}
}

// UpstreamFailure creates an AppError for a node that failed to answer.
func UpstreamFailure(node string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeUpstream, Message: fmt.Sprintf("Execution node %s failed to respond.", node),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"node": node}, Cause: cause,
	}
}

// Timeout creates an AppError for an upstream request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The upstream request took too long.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// InvalidInput creates an AppError for a malformed inbound request.
func InvalidInput(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid request: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// Unauthorized creates an AppError for a missing or unusable Authorization header.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authorization required."
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// Internal creates an AppError for an unexpected proxy-side failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
