package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fjsm/auth"
	"github.com/kilianp07/fjsm/core/metrics"
	"github.com/kilianp07/fjsm/infra/backend"
	"github.com/kilianp07/fjsm/infra/notify"
)

// EnvPrefix marks environment variables that override file settings.
// Nested keys are separated by a double underscore, for example
// FJSM_BACKEND__BASE_URL.
const EnvPrefix = "FJSM_"

type Config struct {
	Backend    backend.Config   `json:"backend"`
	Auth       auth.Conf        `json:"auth"`
	Preference PreferenceConfig `json:"preference"`
	Metrics    metrics.Config   `json:"metrics"`
	Notify     notify.Config    `json:"notify"`
	Logging    LoggingConfig    `json:"logging"`
	Sentry     SentryConfig     `json:"sentry"`
}

// Load reads the YAML or JSON file at path, applies FJSM_ environment
// overrides and defaults, and validates the result. An empty path skips
// the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	prefix := strings.ToLower(EnvPrefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), prefix)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section with its defaults.
func (c *Config) SetDefaults() {
	c.Backend.SetDefaults()
	c.Preference.SetDefaults()
	c.Notify.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if c.Auth.Enabled() && c.Auth.ClientID == "" {
		return fmt.Errorf("auth: client_id is required with token_url")
	}
	if err := c.Preference.Validate(); err != nil {
		return fmt.Errorf("preference: %w", err)
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
	}
	if err := c.Notify.Validate(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Sentry.Validate(); err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	return nil
}
