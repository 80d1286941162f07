package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks that the configuration can drive the auth core.
func Validate(c MaybeConfig) error {
	var errs ValidationErrors

	if c.BaseURL == "" {
		errs.Add("base_url", fmt.Sprintf("is required (set it in config.yaml or %s)", EnvBaseURL))
	} else if err := validateHTTPURL(c.BaseURL); err != nil {
		errs.Add("base_url", err.Error(), c.BaseURL)
	}

	if c.APIBaseURL != "" {
		if err := validateHTTPURL(c.APIBaseURL); err != nil {
			errs.Add("api_base_url", err.Error(), c.APIBaseURL)
		}
	}

	if c.OAuth.ClientID == "" {
		errs.Add("oauth.client_id", fmt.Sprintf("is required (set it in config.yaml or %s)", EnvClientID))
	}

	if c.OAuth.RedirectURI != "" {
		if _, err := url.Parse(c.OAuth.RedirectURI); err != nil {
			errs.Add("oauth.redirect_uri", "is not a valid URL", c.OAuth.RedirectURI)
		}
	}

	if c.OAuth.CallbackPort < 0 || c.OAuth.CallbackPort > 65535 {
		errs.Add("oauth.callback_port", "must be between 0 and 65535", c.OAuth.CallbackPort)
	}

	if c.HTTP.Timeout <= 0 {
		errs.Add("http.timeout", "must be positive", c.HTTP.Timeout)
	}

	if c.HTTP.RateLimitPerSecond < 0 {
		errs.Add("http.rate_limit_per_second", "must not be negative", c.HTTP.RateLimitPerSecond)
	}

	if errs.HasErrors() {
		return ConfigurationError{
			FileName:  configFileName,
			ErrorType: "validation",
			Message:   errs.Error(),
			Suggestions: []string{
				"Edit ~/.config/maybe/config.yaml or set the MAYBE_* environment variables",
			},
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("must include a host")
	}
	return nil
}
