package authflow

import (
	"errors"
	"net/http"
	"time"
)

const (
	// DefaultHTTPTimeout bounds every request to the authority.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultCallbackTimeout is how long an interactive login waits for the
	// redirect.
	DefaultCallbackTimeout = 10 * time.Minute
)

// Config configures an Orchestrator.
type Config struct {
	ClientID    string
	RedirectURI string
	Scopes      []string

	AuthorizationEndpoint string
	TokenEndpoint         string
	RevokeEndpoint        string

	// APIBaseURL serves /auth/login, /auth/signup and /auth/refresh.
	APIBaseURL string

	// HTTPClient defaults to a client with DefaultHTTPTimeout.
	HTTPClient *http.Client

	// CallbackTimeout defaults to DefaultCallbackTimeout.
	CallbackTimeout time.Duration

	// UserAgent receives the authorization URL during interactive login.
	UserAgent UserAgent

	// Now defaults to time.Now. Used when the authority omits created_at.
	Now func() time.Time
}

func (c *Config) validate() error {
	var errs []error
	if c.ClientID == "" {
		errs = append(errs, errors.New("client id is required"))
	}
	if c.APIBaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	return errors.Join(errs...)
}

func (c *Config) setDefaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if c.CallbackTimeout <= 0 {
		c.CallbackTimeout = DefaultCallbackTimeout
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}
