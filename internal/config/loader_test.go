package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir for the duration of the test so .env lookups are isolated.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvBaseURL, EnvAPIBaseURL, EnvClientID, EnvRedirectURI, EnvNoKeychain, EnvLogLevel, EnvStorageDir, EnvRateLimitPerSecs} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	clearEnv(t)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	def := GetDefaultConfig()
	assert.Equal(t, def.OAuth.Scopes, cfg.OAuth.Scopes)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTP.Timeout)
	assert.Equal(t, DefaultCallbackTimeout, cfg.OAuth.CallbackTimeout)
	assert.Equal(t, dir, cfg.Storage.Dir)
}

func TestLoadConfig_FileOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	clearEnv(t)

	content := `
base_url: https://app.example.com/
oauth:
  client_id: client-123
  scopes: [read_write]
  callback_timeout: 2m
http:
  timeout: 5s
  rate_limit_per_second: 4
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "client-123", cfg.OAuth.ClientID)
	assert.Equal(t, []string{"read_write"}, cfg.OAuth.Scopes)
	assert.Equal(t, 2*time.Minute, cfg.OAuth.CallbackTimeout)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 4.0, cfg.HTTP.RateLimitPerSecond)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// default kept for fields not in the file
	assert.Equal(t, DefaultCallbackPort, cfg.OAuth.CallbackPort)

	assert.Equal(t, "https://app.example.com/oauth/authorize", cfg.AuthorizationEndpoint())
	assert.Equal(t, "https://app.example.com/oauth/token", cfg.TokenEndpoint())
	assert.Equal(t, "https://app.example.com/oauth/revoke", cfg.RevokeEndpoint())
	assert.Equal(t, "https://app.example.com/api/v1", cfg.ResolvedAPIBaseURL())
}

func TestLoadConfig_Malformed(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	clearEnv(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("oauth: [unclosed"), 0600))

	_, err := LoadConfig(dir)
	require.Error(t, err)
	var cfgErr ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "parse", cfgErr.ErrorType)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	clearEnv(t)

	t.Setenv(EnvBaseURL, "https://env.example.com")
	t.Setenv(EnvAPIBaseURL, "https://api.example.com/v2/")
	t.Setenv(EnvClientID, "env-client")
	t.Setenv(EnvNoKeychain, "true")
	t.Setenv(EnvRateLimitPerSecs, "2.5")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.BaseURL)
	assert.Equal(t, "env-client", cfg.OAuth.ClientID)
	assert.True(t, cfg.Storage.DisableKeychain)
	assert.Equal(t, 2.5, cfg.HTTP.RateLimitPerSecond)
	assert.Equal(t, "https://api.example.com/v2", cfg.ResolvedAPIBaseURL())
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	clearEnv(t)
	// godotenv does not override variables that are already present, so
	// unset rather than blank the one under test.
	require.NoError(t, os.Unsetenv(EnvClientID))

	require.NoError(t, os.WriteFile(filepath.Join(dir, dotEnvFileName), []byte("MAYBE_OAUTH_CLIENT_ID=dotenv-client\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv(EnvClientID) })

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-client", cfg.OAuth.ClientID)
}

func TestExpandHome(t *testing.T) {
	orig := osUserHomeDir
	defer func() { osUserHomeDir = orig }()
	osUserHomeDir = func() (string, error) { return "/home/test", nil }

	assert.Equal(t, "/home/test/.config/maybe/maybe.log", expandHome("~/.config/maybe/maybe.log"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "", expandHome(""))
}
