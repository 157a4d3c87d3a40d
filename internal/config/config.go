package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/modguard/internal/moderation"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MODGUARD_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (MODGUARD_*). A double underscore
// separates nested keys: MODGUARD_SERVER__PORT -> server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validStores = map[StoreType]bool{
	StoreSQLite: true,
	StoreFile:   true,
}

var validLogFormats = map[LogFormat]bool{
	LogFormatJSON:    true,
	LogFormatConsole: true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validSeverities = map[string]bool{
	string(moderation.SeverityLow):    true,
	string(moderation.SeverityMedium): true,
	string(moderation.SeverityHigh):   true,
}

var validEvents = map[string]bool{
	string(moderation.EventFlagged):  true,
	string(moderation.EventReviewed): true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if !validStores[c.Store] {
		return fmt.Errorf("invalid store %q: must be one of sqlite, file", c.Store)
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("invalid log_format %q: must be one of json, console", c.LogFormat)
	}
	if c.MaxContentLength <= 0 || c.MaxContentLength > moderation.MaxContentLength {
		return fmt.Errorf("max_content_length %d out of range: must be between 1 and %d", c.MaxContentLength, moderation.MaxContentLength)
	}
	if c.DefaultAdmin == "" {
		return fmt.Errorf("default_admin is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	for i, h := range c.Webhooks {
		if h.URL == "" {
			return fmt.Errorf("webhooks[%d]: url is required", i)
		}
		if h.MinSeverity != "" && !validSeverities[h.MinSeverity] {
			return fmt.Errorf("webhooks[%d]: invalid min_severity %q: must be one of Low, Medium, High", i, h.MinSeverity)
		}
		for _, e := range h.Events {
			if !validEvents[e] {
				return fmt.Errorf("webhooks[%d]: invalid event %q: must be one of flagged, reviewed", i, e)
			}
		}
	}
	return nil
}
