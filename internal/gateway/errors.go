package gateway

import (
	"errors"
	"fmt"
)

// Error codes for normalized gateway failures. Every failure leaving this
// package carries exactly one of these.
const (
	// CodeAuthentication marks any 401. On a session probe this is the
	// expected "not logged in" outcome; on other calls it means the local
	// session must be cleared.
	CodeAuthentication = "AUTHENTICATION_ERROR"

	// CodeNetwork marks transport failures where no response was received.
	CodeNetwork = "NETWORK_ERROR"

	// CodeCORS marks cross-origin style refusals surfaced by proxies in
	// front of the backend.
	CodeCORS = "CORS_ERROR"

	// CodeValidation marks a non-401 error response that carried a
	// message; the message is surfaced to the user verbatim.
	CodeValidation = "VALIDATION_ERROR"

	// CodeUnknown is the fallback bucket.
	CodeUnknown = "UNKNOWN_ERROR"
)

// APIError is the single error type returned by the gateway. Raw transport
// errors never escape; callers branch on Code, not on wrapped types.
type APIError struct {
	// Code is one of the Code* constants.
	Code string

	// Message is safe to show to the user.
	Message string

	// Status is the HTTP status, or zero when no response was received.
	Status int

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the taxonomy code. Satisfies the logging layer's coded
// error interface without an import in either direction.
func (e *APIError) ErrorCode() string {
	return e.Code
}

// NewError creates an APIError.
func NewError(code, message string, status int) *APIError {
	return &APIError{Code: code, Message: message, Status: status}
}

// WrapError creates an APIError wrapping a transport-level cause.
func WrapError(code, message string, cause error) *APIError {
	return &APIError{Code: code, Message: message, Cause: cause}
}

// AsAPIError extracts an APIError from err, if present.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAuthentication reports whether err is a normalized 401.
func IsAuthentication(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == CodeAuthentication
}

// IsNetwork reports whether err is a no-response transport failure.
// Transient outages must not log the user out, so callers keep the local
// session when this is true.
func IsNetwork(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == CodeNetwork
}

// UserMessage returns the message to display for err. Unrecognized errors
// fall back to a generic message rather than leaking internals.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return "An unexpected error occurred. Please try again."
}
