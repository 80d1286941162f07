package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"maybe/pkg/logging"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/maybe"
	configFileName = "config.yaml"
	dotEnvFileName = ".env"
)

// Environment variables that override file configuration.
const (
	EnvBaseURL          = "MAYBE_BASE_URL"
	EnvAPIBaseURL       = "MAYBE_API_BASE_URL"
	EnvClientID         = "MAYBE_OAUTH_CLIENT_ID"
	EnvRedirectURI      = "MAYBE_OAUTH_REDIRECT_URI"
	EnvNoKeychain       = "MAYBE_NO_KEYCHAIN"
	EnvLogLevel         = "MAYBE_LOG_LEVEL"
	EnvStorageDir       = "MAYBE_STORAGE_DIR"
	EnvRateLimitPerSecs = "MAYBE_RATE_LIMIT"
)

// osUserHomeDir is replaced in tests.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/maybe.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

func GetDefaultConfigPathOrPanic() string {
	p, err := GetDefaultConfigPath()
	if err != nil {
		panic(err)
	}
	return p
}

// LoadConfig loads configuration from configPath/config.yaml, applies .env
// and MAYBE_* overrides, and fills derived defaults. A missing file is not
// an error.
func LoadConfig(configPath string) (MaybeConfig, error) {
	config := GetDefaultConfig()

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return MaybeConfig{}, ConfigurationError{
				FilePath:  configFilePath,
				FileName:  configFileName,
				ErrorType: "parse",
				Message:   err.Error(),
			}
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	default:
		return MaybeConfig{}, fmt.Errorf("error reading %s: %w", configFilePath, err)
	}

	if err := loadDotEnv(dotEnvFileName); err != nil {
		return MaybeConfig{}, err
	}
	applyEnv(&config)

	if config.Storage.Dir == "" {
		config.Storage.Dir = configPath
	}
	config.Storage.Dir = expandHome(config.Storage.Dir)
	config.Logging.File = expandHome(config.Logging.File)

	return config, nil
}

// loadDotEnv loads path into the process environment without overriding
// variables that are already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	logging.Debug("ConfigLoader", "Loaded environment from %s", path)
	return nil
}

func applyEnv(c *MaybeConfig) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv(EnvClientID); v != "" {
		c.OAuth.ClientID = v
	}
	if v := os.Getenv(EnvRedirectURI); v != "" {
		c.OAuth.RedirectURI = v
	}
	if v := os.Getenv(EnvStorageDir); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv(EnvNoKeychain); v == "1" || strings.EqualFold(v, "true") {
		c.Storage.DisableKeychain = true
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvRateLimitPerSecs); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.HTTP.RateLimitPerSecond = f
		} else {
			logging.Warn("ConfigLoader", "Ignoring invalid %s=%q", EnvRateLimitPerSecs, v)
		}
	}
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := osUserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
