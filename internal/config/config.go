package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is used for proper default handling of retryMaxAttempts,
// where an explicit 0 is meaningful
type fileConfig struct {
	Config              `yaml:",inline"`
	RetryMaxAttemptsPtr *int `json:"retryMaxAttempts" yaml:"retryMaxAttempts"`
}

// Load reads and parses the configuration file.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	}

	return Parse(data)
}

// Parse parses a JSON configuration document, applies defaults and validates it
func Parse(data []byte) (*Config, error) {
	var raw fileConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finalize(&raw)
}

// ParseYAML is Parse for a YAML document
func ParseYAML(data []byte) (*Config, error) {
	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finalize(&raw)
}

func finalize(raw *fileConfig) (*Config, error) {
	cfg := &raw.Config
	if raw.RetryMaxAttemptsPtr != nil {
		cfg.RetryMaxAttempts = *raw.RetryMaxAttemptsPtr
	} else {
		cfg.RetryMaxAttempts = DefaultRetryMaxAttempts
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.RetryBackoff == "" {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.RetryMaxDelay == 0 {
		cfg.RetryMaxDelay = DefaultRetryMaxDelay
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}

// Validate checks the configuration for errors.
// An empty endpoint list is accepted; every call made with it fails.
func Validate(cfg *Config) error {
	for i, endpoint := range cfg.Endpoints {
		u, err := url.Parse(endpoint)
		if err != nil {
			return fmt.Errorf("endpoints[%d]: %w", i, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("endpoints[%d]: scheme must be http or https, got '%s'", i, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("endpoints[%d]: host is required", i)
		}
	}

	if cfg.RetryMaxAttempts < 0 {
		return fmt.Errorf("retryMaxAttempts must be non-negative")
	}

	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("requestTimeout must be non-negative")
	}

	switch cfg.RetryBackoff {
	case BackoffNone, BackoffConstant, BackoffExponential:
	default:
		return fmt.Errorf("retryBackoff must be one of: none, constant, exponential")
	}

	if cfg.RetryDelay < 0 || cfg.RetryMaxDelay < 0 {
		return fmt.Errorf("retryDelay and retryMaxDelay must be non-negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("logLevel must be one of: debug, info, warn, error")
	}

	return nil
}
