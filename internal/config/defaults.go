package config

import "time"

const (
	// DefaultCallbackPort is the loopback port for the OAuth redirect listener.
	DefaultCallbackPort = 8765

	// DefaultCallbackTimeout is how long an interactive login waits for the user.
	DefaultCallbackTimeout = 10 * time.Minute

	// DefaultHTTPTimeout bounds every request to the authority.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultBackgroundTimeout bounds background refreshes and revokes.
	DefaultBackgroundTimeout = 15 * time.Second

	// DefaultScope is requested when no scopes are configured.
	DefaultScope = "read"
)

// GetDefaultConfig returns the configuration used when no file is present.
// ClientID and BaseURL have no defaults and must be configured.
func GetDefaultConfig() MaybeConfig {
	return MaybeConfig{
		OAuth: OAuthConfig{
			Scopes:          []string{DefaultScope},
			CallbackPort:    DefaultCallbackPort,
			CallbackTimeout: DefaultCallbackTimeout,
		},
		HTTP: HTTPConfig{
			Timeout: DefaultHTTPTimeout,
		},
		Session: SessionConfig{
			BackgroundTimeout: DefaultBackgroundTimeout,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}
