// Package apierror defines the typed error taxonomy of the authentication
// core and the translation of authority responses into it.
package apierror

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a class of failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotAuthenticated
	KindInvalidCredentials
	KindMfaRequired
	KindDeviceInfoRequired
	KindTokenExpired
	KindBadRequest
	KindForbidden
	KindValidationFailed
	KindRateLimited
	KindServerError
	KindNetworkError
	KindInvalidCallback
	KindInvalidResponse
	KindUserCancelled
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindNotAuthenticated:   "not_authenticated",
	KindInvalidCredentials: "invalid_credentials",
	KindMfaRequired:        "mfa_required",
	KindDeviceInfoRequired: "device_info_required",
	KindTokenExpired:       "token_expired",
	KindBadRequest:         "bad_request",
	KindForbidden:          "forbidden",
	KindValidationFailed:   "validation_failed",
	KindRateLimited:        "rate_limited",
	KindServerError:        "server_error",
	KindNetworkError:       "network_error",
	KindInvalidCallback:    "invalid_callback",
	KindInvalidResponse:    "invalid_response",
	KindUserCancelled:      "user_cancelled",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error is the single error type surfaced by the auth core.
type Error struct {
	Kind Kind

	// Message is the authority's message, when it sent one.
	Message string

	// Messages holds field validation messages for KindValidationFailed.
	Messages []string

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Cause is the underlying error for transport and decode failures.
	Cause error
}

// Sentinels for errors.Is comparisons. Matching is by Kind only.
var (
	ErrNotAuthenticated   = &Error{Kind: KindNotAuthenticated}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrMfaRequired        = &Error{Kind: KindMfaRequired}
	ErrDeviceInfoRequired = &Error{Kind: KindDeviceInfoRequired}
	ErrTokenExpired       = &Error{Kind: KindTokenExpired}
	ErrBadRequest         = &Error{Kind: KindBadRequest}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrValidationFailed   = &Error{Kind: KindValidationFailed}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
	ErrServerError        = &Error{Kind: KindServerError}
	ErrNetworkError       = &Error{Kind: KindNetworkError}
	ErrInvalidCallback    = &Error{Kind: KindInvalidCallback}
	ErrInvalidResponse    = &Error{Kind: KindInvalidResponse}
	ErrUserCancelled      = &Error{Kind: KindUserCancelled}
)

// New returns an Error of the given kind with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// NotAuthenticated is returned when a gated call is attempted without a token.
func NotAuthenticated() *Error { return &Error{Kind: KindNotAuthenticated} }

// TokenExpired is returned when the session could not be kept fresh.
func TokenExpired(cause error) *Error { return &Error{Kind: KindTokenExpired, Cause: cause} }

// NetworkError wraps a transport-level failure.
func NetworkError(cause error) *Error { return &Error{Kind: KindNetworkError, Cause: cause} }

// InvalidCallback is returned when the redirect lacks a usable code.
func InvalidCallback(message string) *Error {
	return &Error{Kind: KindInvalidCallback, Message: message}
}

// UserCancelled is returned when the user dismissed the interactive flow.
func UserCancelled(cause error) *Error { return &Error{Kind: KindUserCancelled, Cause: cause} }

// ServerError carries the authority's message or HTTP status.
func ServerError(status int, message string) *Error {
	return &Error{Kind: KindServerError, Status: status, Message: message}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	switch {
	case len(e.Messages) > 0:
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, "; "))
	case e.Message != "":
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same Kind, so the package sentinels work
// with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// UserMessage returns the text shown to a person for this error.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindNotAuthenticated:
		return "Not authenticated. Please log in."
	case KindInvalidCredentials:
		return "Invalid email or password"
	case KindMfaRequired:
		return "Two-factor authentication required"
	case KindDeviceInfoRequired:
		return "Device information is required"
	case KindTokenExpired:
		return "Your session has expired"
	case KindForbidden:
		if e.Message != "" {
			return e.Message
		}
		return "Insufficient permissions for this action."
	case KindValidationFailed:
		if len(e.Messages) > 0 {
			return strings.Join(e.Messages, "\n")
		}
		return "Validation failed"
	case KindRateLimited:
		return "Rate limit exceeded. Please try again later."
	case KindServerError:
		if e.Message != "" {
			return "Server error: " + e.Message
		}
		return fmt.Sprintf("Server error: HTTP %d", e.Status)
	case KindNetworkError:
		if e.Cause != nil {
			return "Network error: " + e.Cause.Error()
		}
		return "Network error"
	case KindInvalidCallback:
		return "Invalid OAuth callback received"
	case KindInvalidResponse:
		return "Invalid response from server."
	case KindUserCancelled:
		return "Sign-in was cancelled"
	case KindBadRequest:
		if e.Message != "" {
			return e.Message
		}
		return "Bad request"
	default:
		if e.Message != "" {
			return e.Message
		}
		return "An unexpected error occurred"
	}
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the caller may retry the operation unchanged.
// The request gate never retries by itself.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNetworkError, KindRateLimited:
		return true
	default:
		return false
	}
}

// UserMessage returns the user-facing text for any error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.UserMessage()
	}
	return err.Error()
}
