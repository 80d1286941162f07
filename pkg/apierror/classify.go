package apierror

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Markers the authority embeds in free-text error messages. They are the only
// substring checks in the module and are pinned by tests.
const (
	deviceInfoMarker         = "Device information"
	invalidCredentialsMarker = "Invalid email or password"
)

// Structured codes accepted in the body's "code" field. When present they
// take precedence over message sniffing.
const (
	codeDeviceInfoRequired = "device_info_required"
	codeInvalidCredentials = "invalid_credentials"
	codeMfaRequired        = "mfa_required"
	codeTokenExpired       = "token_expired"
)

// Classify translates a non-2xx authority response into an *Error.
// It returns nil for 2xx statuses.
//
// The body is expected to look like
//
//	{"error": "...", "errors": ["..."], "mfa_required": true, "code": "..."}
//
// with every field optional; malformed bodies are tolerated.
func Classify(status int, body []byte) *Error {
	if status >= 200 && status <= 299 {
		return nil
	}

	var (
		message     string
		code        string
		messages    []string
		mfaRequired bool
		hasErrors   bool
	)
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		message = parsed.Get("error").String()
		if message == "" {
			message = parsed.Get("message").String()
		}
		code = parsed.Get("code").String()
		mfaRequired = parsed.Get("mfa_required").Bool()
		if errs := parsed.Get("errors"); errs.IsArray() {
			hasErrors = true
			for _, item := range errs.Array() {
				messages = append(messages, item.String())
			}
		}
	}

	switch code {
	case codeDeviceInfoRequired:
		return &Error{Kind: KindDeviceInfoRequired, Status: status, Message: message}
	case codeInvalidCredentials:
		return &Error{Kind: KindInvalidCredentials, Status: status, Message: message}
	case codeMfaRequired:
		return &Error{Kind: KindMfaRequired, Status: status}
	case codeTokenExpired:
		return &Error{Kind: KindTokenExpired, Status: status, Message: message}
	}

	switch status {
	case http.StatusBadRequest:
		if strings.Contains(message, deviceInfoMarker) {
			return &Error{Kind: KindDeviceInfoRequired, Status: status, Message: message}
		}
		if message == "" {
			message = "Bad request"
		}
		return &Error{Kind: KindBadRequest, Status: status, Message: message}

	case http.StatusUnauthorized:
		if mfaRequired {
			return &Error{Kind: KindMfaRequired, Status: status}
		}
		if strings.Contains(message, invalidCredentialsMarker) {
			return &Error{Kind: KindInvalidCredentials, Status: status, Message: message}
		}
		return &Error{Kind: KindTokenExpired, Status: status, Message: message}

	case http.StatusForbidden:
		if message == "" {
			message = "Forbidden"
		}
		return &Error{Kind: KindForbidden, Status: status, Message: message}

	case http.StatusUnprocessableEntity:
		if hasErrors {
			return &Error{Kind: KindValidationFailed, Status: status, Messages: messages}
		}
		return &Error{Kind: KindValidationFailed, Status: status, Messages: []string{"Validation failed"}}

	case http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Status: status, Message: "Rate limit exceeded"}

	default:
		if message == "" {
			message = fmt.Sprintf("HTTP %d", status)
		}
		return ServerError(status, message)
	}
}
