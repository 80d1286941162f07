package config

import "time"

// MaybeConfig is the top-level configuration structure.
type MaybeConfig struct {
	// BaseURL is the authority origin serving /oauth/authorize, /oauth/token
	// and /oauth/revoke.
	BaseURL string `yaml:"base_url"`

	// APIBaseURL is the REST API root serving /auth/* and resource endpoints.
	// Defaults to BaseURL + "/api/v1".
	APIBaseURL string `yaml:"api_base_url,omitempty"`

	OAuth   OAuthConfig   `yaml:"oauth"`
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

// OAuthConfig configures the interactive authorization-code flow.
type OAuthConfig struct {
	ClientID string `yaml:"client_id"`

	// RedirectURI overrides the loopback redirect. When empty the CLI uses
	// http://localhost:<callback_port>/callback.
	RedirectURI string `yaml:"redirect_uri,omitempty"`

	Scopes []string `yaml:"scopes,omitempty"`

	// CallbackPort is the loopback port for the redirect listener.
	CallbackPort int `yaml:"callback_port,omitempty"`

	// CallbackTimeout bounds how long the flow waits for the user.
	CallbackTimeout time.Duration `yaml:"callback_timeout,omitempty"`
}

// HTTPConfig configures the transport shared by all authority calls.
type HTTPConfig struct {
	// Timeout is the per-request timeout. There is no unbounded wait.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// RateLimitPerSecond caps outbound API requests. Zero disables limiting.
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second,omitempty"`
}

// StorageConfig configures credential storage.
type StorageConfig struct {
	// Dir holds the file-based stores (profile, device id, keychain fallback).
	Dir string `yaml:"dir,omitempty"`

	// DisableKeychain stores tokens in Dir instead of the OS keychain.
	DisableKeychain bool `yaml:"disable_keychain,omitempty"`
}

// SessionConfig configures background session work.
type SessionConfig struct {
	// BackgroundTimeout bounds background refreshes and best-effort revokes.
	BackgroundTimeout time.Duration `yaml:"background_timeout,omitempty"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`

	// File enables a rotating JSON log file.
	File string `yaml:"file,omitempty"`
}

// AuthorizationEndpoint returns the OAuth authorization URL.
func (c MaybeConfig) AuthorizationEndpoint() string {
	return trimSlash(c.BaseURL) + "/oauth/authorize"
}

// TokenEndpoint returns the OAuth token URL.
func (c MaybeConfig) TokenEndpoint() string {
	return trimSlash(c.BaseURL) + "/oauth/token"
}

// RevokeEndpoint returns the OAuth revocation URL.
func (c MaybeConfig) RevokeEndpoint() string {
	return trimSlash(c.BaseURL) + "/oauth/revoke"
}

// ResolvedAPIBaseURL returns APIBaseURL, or BaseURL + "/api/v1" when unset.
func (c MaybeConfig) ResolvedAPIBaseURL() string {
	if c.APIBaseURL != "" {
		return trimSlash(c.APIBaseURL)
	}
	return trimSlash(c.BaseURL) + "/api/v1"
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
