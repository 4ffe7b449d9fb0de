package client

import (
	"errors"
	"fmt"
)

// ClientError represents the different failure classes of the client.
// Every error returned by Do is a ClientError; the client never panics
// and never returns an untyped error for a failed request.
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	// NetworkError is a connection-level failure with no HTTP response.
	NetworkError ErrorType = "network"
	// HTTPError is a terminal non-success HTTP status.
	HTTPError ErrorType = "http"
	// AbortError marks a call cut short by the caller's context or the
	// per-attempt deadline. It is not an application failure.
	AbortError ErrorType = "abort"
	// ValidationError is a malformed request rejected before sending.
	ValidationError ErrorType = "validation"
	// InterceptorError is a failure raised by a request or response
	// interceptor.
	InterceptorError ErrorType = "interceptor"
)

// networkError represents network-related errors
type networkError struct {
	message string
	wrapped error
}

func (e *networkError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("network error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("network error: %s", e.message)
}

func (e *networkError) Type() ErrorType {
	return NetworkError
}

func (e *networkError) Unwrap() error {
	return e.wrapped
}

// httpError represents terminal HTTP status errors. Message is the
// human-readable failure description resolved from the response body or
// the status message table.
type httpError struct {
	message    string
	statusCode int
	body       []byte
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP error: %s (status: %d)", e.message, e.statusCode)
}

func (e *httpError) Type() ErrorType {
	return HTTPError
}

// StatusCode returns the HTTP status that produced the error.
func (e *httpError) StatusCode() int {
	return e.statusCode
}

// Message returns the resolved human-readable failure description.
func (e *httpError) Message() string {
	return e.message
}

// Body returns the raw response body, unmodified.
func (e *httpError) Body() []byte {
	return e.body
}

// abortError marks a cancelled call. It wraps the context error so
// callers can distinguish a caller cancel (context.Canceled) from a
// per-attempt deadline (context.DeadlineExceeded) via errors.Is.
type abortError struct {
	message string
	wrapped error
}

func (e *abortError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("aborted: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("aborted: %s", e.message)
}

func (e *abortError) Type() ErrorType {
	return AbortError
}

func (e *abortError) Unwrap() error {
	return e.wrapped
}

// validationError represents request validation errors
type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType {
	return ValidationError
}

// interceptorError represents interceptor-related errors
type interceptorError struct {
	message string
	wrapped error
	stage   string
}

func (e *interceptorError) Error() string {
	return fmt.Sprintf("interceptor error: %s (stage: %s): %v", e.message, e.stage, e.wrapped)
}

func (e *interceptorError) Type() ErrorType {
	return InterceptorError
}

func (e *interceptorError) Unwrap() error {
	return e.wrapped
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, wrapped error) ClientError {
	return &networkError{
		message: message,
		wrapped: wrapped,
	}
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(message string, statusCode int, body []byte) ClientError {
	return &httpError{
		message:    message,
		statusCode: statusCode,
		body:       body,
	}
}

// NewAbortError creates a new abort error wrapping the context cause
func NewAbortError(message string, wrapped error) ClientError {
	return &abortError{
		message: message,
		wrapped: wrapped,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &validationError{
		message: message,
		field:   field,
	}
}

// NewInterceptorError creates a new interceptor error
func NewInterceptorError(message, stage string, wrapped error) ClientError {
	return &interceptorError{
		message: message,
		wrapped: wrapped,
		stage:   stage,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsAbort reports whether the error marks a cancelled call. Callers are
// expected to branch on this first and treat cancellation as a silent
// no-op rather than a failure.
func IsAbort(err error) bool {
	return IsErrorType(err, AbortError)
}

// IsHTTPStatusError checks if an error is an HTTP error with a specific
// status code
func IsHTTPStatusError(err error, statusCode int) bool {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode() == statusCode
	}
	return false
}

// StatusCodeFromError returns the HTTP status carried by the error, or
// 0 for failures with no response (network errors, aborts).
func StatusCodeFromError(err error) int {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}
	return 0
}

// ErrorMessage returns the human-readable message carried by the error.
// HTTP errors yield the message resolved from the body or the status
// table; other errors yield their Error() string.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.Message()
	}
	return err.Error()
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
