// Package errs defines the typed API error used across layers for stable
// error mapping, plus display formatting of raw server messages.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes carried by APIError.
const (
	// CodeNoAuthToken: an operation required a token and none is stored.
	// Raised client-side, before any network call.
	CodeNoAuthToken = "NO_AUTH_TOKEN"

	// CodeAuthRequired: the server rejected the request with 401. The
	// stored token is cleared as a side effect before this is returned.
	CodeAuthRequired = "AUTH_REQUIRED"

	// CodeHTTPError: any other non-2xx response; Status keeps the
	// original status code.
	CodeHTTPError = "HTTP_ERROR"

	// CodeNetworkError: no response reached the client; Status is 0.
	CodeNetworkError = "NETWORK_ERROR"
)

// APIError is the single error type the remote service client produces.
// Every failure is thrown upward unrecovered; callers branch on Code or
// IsAuthError, never on message text.
type APIError struct {
	Message string
	Code    string
	Status  int // HTTP status, 0 if no response
	Details map[string]any
	Cause   error
}

// Error returns the human-readable message.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying transport error, if any.
func (e *APIError) Unwrap() error { return e.Cause }

// Is matches another APIError by code, so sentinels like
// &APIError{Code: CodeNoAuthToken} work with errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && e.Code == t.Code
}

// IsAuthError reports whether the error is an authentication or
// authorization failure (401 or 403).
func (e *APIError) IsAuthError() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// NoAuthToken builds the client-side "token required but absent" error.
func NoAuthToken() *APIError {
	return &APIError{
		Message: "authentication token not found, please login again",
		Code:    CodeNoAuthToken,
		Status:  http.StatusUnauthorized,
	}
}

// AuthRequired builds the "server rejected with 401" error.
func AuthRequired(details map[string]any) *APIError {
	return &APIError{
		Message: "authentication required, please login again",
		Code:    CodeAuthRequired,
		Status:  http.StatusUnauthorized,
		Details: details,
	}
}

// HTTPError builds the generic non-2xx error, preferring the server's
// detail message when present.
func HTTPError(status int, detail string, details map[string]any) *APIError {
	msg := detail
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}
	return &APIError{Message: msg, Code: CodeHTTPError, Status: status, Details: details}
}

// NetworkError builds the "no response at all" error.
func NetworkError(cause error) *APIError {
	return &APIError{
		Message: "network error",
		Code:    CodeNetworkError,
		Status:  0,
		Cause:   cause,
	}
}

// IsAuthError reports whether err (or anything it wraps) is an auth error.
func IsAuthError(err error) bool {
	var api *APIError
	return errors.As(err, &api) && api.IsAuthError()
}
