package cmd

import (
	"errors"
	"fmt"

	"maybe/internal/config"
	"maybe/pkg/apierror"
)

// AuthRequiredError indicates a command needs a session and none is held.
type AuthRequiredError struct {
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf(`%s

To sign in, run:
  maybe auth login`, apierror.UserMessage(e.Reason))
}

func (e *AuthRequiredError) Unwrap() error {
	return e.Reason
}

// AuthFailedError indicates a sign-in attempt was rejected or abandoned.
type AuthFailedError struct {
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`Sign-in failed: %s

To retry, run:
  maybe auth login`, apierror.UserMessage(e.Reason))
}

func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// classify wraps err so the exit code and the guidance match its kind.
// Errors outside the session taxonomy pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var required *AuthRequiredError
	var failed *AuthFailedError
	if errors.As(err, &required) || errors.As(err, &failed) {
		return err
	}
	switch apierror.KindOf(err) {
	case apierror.KindNotAuthenticated, apierror.KindTokenExpired:
		return &AuthRequiredError{Reason: err}
	case apierror.KindInvalidCredentials, apierror.KindInvalidCallback, apierror.KindUserCancelled:
		return &AuthFailedError{Reason: err}
	}
	return err
}

// errorMessage returns the text printed for err.
func errorMessage(err error) string {
	var required *AuthRequiredError
	var failed *AuthFailedError
	if errors.As(err, &required) || errors.As(err, &failed) {
		return err.Error()
	}
	var configErr config.ConfigurationError
	if errors.As(err, &configErr) {
		return configErr.DetailedError()
	}
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}
