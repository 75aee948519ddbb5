package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader reads the YAML configuration file, applying .env and environment
// overrides on top of the built-in defaults.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for the given config path. An empty path falls
// back to "config.yaml".
func NewLoader(path string) *Loader {
	if path == "" {
		path = "config.yaml"
	}
	return &Loader{
		path:      path,
		useDotEnv: true,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load merges defaults, the YAML file (if present) and environment overrides.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("no .env file found, using system environment")
		}
	}

	cfg := DefaultConfig()
	path := "defaults"

	if raw, err := os.ReadFile(l.path); err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", l.path, err)
		}
		path = l.path
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}

	applyEnvOverrides(cfg)

	return &Result{
		Config: cfg,
		Path:   path,
	}, nil
}

// applyEnvOverrides lets secrets and endpoint coordinates come from the
// environment so they stay out of the config file.
func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Provider.EndpointBase, "PROVIDER_ENDPOINT_BASE")
	overrideString(&cfg.Provider.DeploymentID, "PROVIDER_DEPLOYMENT_ID")
	overrideString(&cfg.Provider.APIVersion, "PROVIDER_API_VERSION")
	overrideString(&cfg.Provider.APIKey, "PROVIDER_API_KEY")
	overrideString(&cfg.Provider.ModelName, "PROVIDER_MODEL_NAME")
	overrideInt(&cfg.Provider.TimeoutMillis, "PROVIDER_TIMEOUT_MS")
	overrideInt(&cfg.Provider.RetryAttempts, "PROVIDER_RETRY_ATTEMPTS")

	overrideString(&cfg.Fallback.BaseURL, "FALLBACK_BASE_URL")
	overrideString(&cfg.Fallback.APIKey, "FALLBACK_API_KEY")
	overrideString(&cfg.Fallback.ModelName, "FALLBACK_MODEL_NAME")
	if os.Getenv("FALLBACK_API_KEY") != "" {
		cfg.Fallback.Enabled = true
	}

	overrideString(&cfg.Store.Redis.Addr, "PROMPT_STORE_REDIS_ADDR")
	overrideString(&cfg.Server.Token, "SERVER_TOKEN")
}

func overrideString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func overrideInt(dst *int, key string) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return
	}
	*dst = parsed
}
