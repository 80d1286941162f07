package cmd

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"maybe/internal/api"
	"maybe/internal/authflow"
	"maybe/internal/config"
	"maybe/internal/credstore"
	"maybe/internal/device"
	"maybe/internal/session"
	"maybe/pkg/logging"
)

// appBuild is the build number reported in device info.
var appBuild = "1"

// sessionRuntime holds everything a command needs to talk to the authority.
type sessionRuntime struct {
	cfg     config.MaybeConfig
	vault   *credstore.Vault
	flow    *authflow.Orchestrator
	manager *session.Manager
	storage string
}

// newSessionRuntime builds the credential vault, the auth flow and a
// bootstrapped session manager from the loaded configuration. ua is the
// user agent for interactive logins and may be nil.
func newSessionRuntime(ctx context.Context, ua authflow.UserAgent) (*sessionRuntime, error) {
	if loadedConfigErr != nil {
		return nil, loadedConfigErr
	}
	cfg := loadedConfig
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	secure, profile, storage, err := openStores(cfg)
	if err != nil {
		return nil, err
	}
	vault := credstore.NewVault(secure, profile)

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	flow, err := authflow.New(authflow.Config{
		ClientID:              cfg.OAuth.ClientID,
		RedirectURI:           redirectURI(cfg),
		Scopes:                cfg.OAuth.Scopes,
		AuthorizationEndpoint: cfg.AuthorizationEndpoint(),
		TokenEndpoint:         cfg.TokenEndpoint(),
		RevokeEndpoint:        cfg.RevokeEndpoint(),
		APIBaseURL:            cfg.ResolvedAPIBaseURL(),
		HTTPClient:            httpClient,
		CallbackTimeout:       cfg.OAuth.CallbackTimeout,
		UserAgent:             ua,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authentication: %w", err)
	}

	manager, err := session.NewManager(session.Config{
		Flow:           flow,
		Vault:          vault,
		Device:         device.NewProvider(profile, GetVersion(), appBuild),
		RefreshTimeout: cfg.Session.BackgroundTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	if err := manager.Bootstrap(ctx); err != nil {
		manager.Shutdown()
		return nil, err
	}

	return &sessionRuntime{
		cfg:     cfg,
		vault:   vault,
		flow:    flow,
		manager: manager,
		storage: storage,
	}, nil
}

// apiClient returns a request gate bound to the runtime's session.
func (r *sessionRuntime) apiClient() (*api.Client, error) {
	return api.NewClient(api.Config{
		BaseURL:    r.cfg.ResolvedAPIBaseURL(),
		Tokens:     r.manager,
		HTTPClient: &http.Client{Timeout: r.cfg.HTTP.Timeout},
		RateLimit:  r.cfg.HTTP.RateLimitPerSecond,
		UserAgent:  "maybe-cli/" + GetVersion(),
	})
}

// Close waits for background work such as revokes and releases the
// session.
func (r *sessionRuntime) Close() {
	r.manager.Shutdown()
}

// openStores returns the secure store for tokens, the profile store and a
// label describing where tokens live. Tokens go to the OS keychain unless it
// is disabled or unavailable, with the file store as fallback. --ephemeral
// keeps everything in memory.
func openStores(cfg config.MaybeConfig) (credstore.Store, credstore.Store, string, error) {
	if ephemeral {
		secure := credstore.NewMemoryStore()
		return secure, credstore.NewMemoryStore(), secure.Name(), nil
	}

	profile, err := credstore.NewFileStore(filepath.Join(cfg.Storage.Dir, "profile"))
	if err != nil {
		return nil, nil, "", err
	}
	files, err := credstore.NewFileStore(filepath.Join(cfg.Storage.Dir, "credentials"))
	if err != nil {
		return nil, nil, "", err
	}

	if cfg.Storage.DisableKeychain {
		logging.Debug("CLI", "Keychain disabled, storing tokens in %s", files.Dir())
		return files, profile, files.Name(), nil
	}
	if !credstore.KeyringAvailable(credstore.ServiceName) {
		logging.Warn("CLI", "OS keychain unavailable, storing tokens in %s", files.Dir())
		return files, profile, files.Name(), nil
	}

	keychain := credstore.NewKeyringStore(credstore.ServiceName)
	return credstore.NewFallbackStore(keychain, files), profile, keychain.Name(), nil
}

// redirectURI returns the configured redirect URI or the loopback default.
func redirectURI(cfg config.MaybeConfig) string {
	if cfg.OAuth.RedirectURI != "" {
		return cfg.OAuth.RedirectURI
	}
	return fmt.Sprintf("http://localhost:%d%s", callbackPort(cfg), authflow.CallbackPath)
}

func callbackPort(cfg config.MaybeConfig) int {
	if cfg.OAuth.CallbackPort > 0 {
		return cfg.OAuth.CallbackPort
	}
	return authflow.DefaultCallbackPort
}
