package apiclient

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode classifies transport-level failures.
type ErrorCode int

const (
	// ErrCodeCancelled indicates the call was cancelled by its context.
	ErrCodeCancelled ErrorCode = iota
	// ErrCodeHTTP indicates a non-2xx HTTP status.
	ErrCodeHTTP
	// ErrCodeNetwork indicates the server could not be reached.
	ErrCodeNetwork
	// ErrCodeUnknown indicates an unclassifiable failure.
	ErrCodeUnknown
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeCancelled:
		return "cancelled"
	case ErrCodeHTTP:
		return "http"
	case ErrCodeNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Fixed user-facing messages for non-status failure classes.
const (
	msgCancelled = "request cancelled"
	msgNetwork   = "network error, unable to reach server"
	msgUnknown   = "unknown error"
)

// StatusMessage returns the fixed user-facing message for an HTTP status.
// The table is deliberately not configurable.
func StatusMessage(status int, url string) string {
	switch status {
	case 401:
		return "unauthorized, please re-login"
	case 403:
		return "access denied"
	case 404:
		return "resource not found: " + url
	case 500:
		return "internal server error"
	default:
		return fmt.Sprintf("HTTP error: %d", status)
	}
}

// Error is a classified transport failure carrying the resolved
// user-facing message.
type Error struct {
	// StatusCode is the HTTP status code (0 for connection-level errors).
	StatusCode int
	// Code classifies the failure.
	Code ErrorCode
	// Message is the resolved user-facing message.
	Message string
	// URL is the request URL, when known.
	URL string
	// Body is the original response body (may be nil).
	Body []byte
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("apiclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("apiclient: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// NewStatusError creates an error for a non-2xx HTTP status with the
// message resolved from the fixed table.
func NewStatusError(status int, url string, body []byte) *Error {
	return &Error{
		StatusCode: status,
		Code:       ErrCodeHTTP,
		Message:    StatusMessage(status, url),
		URL:        url,
		Body:       body,
	}
}

// NewCancelledError creates a cancellation error.
func NewCancelledError(err error) *Error {
	return &Error{Code: ErrCodeCancelled, Message: msgCancelled, Err: err}
}

// ClassifyTransport converts a failure from the underlying HTTP client
// into a classified error. Context cancellation wins over everything else.
func ClassifyTransport(ctx context.Context, err error, url string) *Error {
	switch {
	case ctx.Err() != nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: ErrCodeCancelled, Message: msgCancelled, URL: url, Err: err}
	case err != nil:
		return &Error{Code: ErrCodeNetwork, Message: msgNetwork, URL: url, Err: err}
	default:
		return &Error{Code: ErrCodeUnknown, Message: msgUnknown, URL: url}
	}
}

// IsCancelled checks if an error is a cancellation error.
func IsCancelled(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeCancelled
}

// IsNetwork checks if an error is a network-unreachable error.
func IsNetwork(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeNetwork
}

// IsHTTPStatus checks if an error is a non-2xx status error with the
// given status code.
func IsHTTPStatus(err error, status int) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeHTTP && e.StatusCode == status
}

// BusinessError is a business failure: the HTTP call succeeded but the
// envelope code differs from the expected success code.
type BusinessError struct {
	// Code is the envelope's business code.
	Code int
	// Message is the envelope's message, or the fallback when absent.
	Message string
	// Data is the envelope's data payload.
	Data []byte
}

// Error implements the error interface.
func (e *BusinessError) Error() string {
	return fmt.Sprintf("apiclient: business code %d: %s", e.Code, e.Message)
}

// AsBusiness extracts a BusinessError from an error chain.
func AsBusiness(err error) (*BusinessError, bool) {
	var e *BusinessError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
