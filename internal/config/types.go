package config

import "time"

// Backoff policy names
const (
	BackoffNone        = "none"
	BackoffConstant    = "constant"
	BackoffExponential = "exponential"
)

// Config represents the client configuration
type Config struct {
	Endpoints        []string `json:"endpoints" yaml:"endpoints"`
	RetryMaxAttempts int      `json:"retryMaxAttempts" yaml:"-"` // decoded through fileConfig
	RequestTimeout   int      `json:"requestTimeout" yaml:"requestTimeout"` // ms - per-attempt deadline
	RetryBackoff     string   `json:"retryBackoff" yaml:"retryBackoff"`
	RetryDelay       int      `json:"retryDelay" yaml:"retryDelay"`       // ms - constant delay, or initial exponential delay
	RetryMaxDelay    int      `json:"retryMaxDelay" yaml:"retryMaxDelay"` // ms - cap for exponential delay
	LogLevel         string   `json:"logLevel" yaml:"logLevel"`
	MetricsAddr      string   `json:"metricsAddr,omitempty" yaml:"metricsAddr,omitempty"`
}

// Default values
const (
	DefaultRetryMaxAttempts = 3
	DefaultRequestTimeout   = 60000 // ms
	DefaultRetryBackoff     = BackoffNone
	DefaultRetryDelay       = 100   // ms
	DefaultRetryMaxDelay    = 10000 // ms
	DefaultLogLevel         = "info"
)

// Default returns a configuration with every default applied and no endpoints
func Default() *Config {
	cfg := &Config{RetryMaxAttempts: DefaultRetryMaxAttempts}
	applyDefaults(cfg)
	return cfg
}

// GetRequestTimeoutDuration returns request timeout as time.Duration
func (c *Config) GetRequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}

// GetRetryDelayDuration returns retry delay as time.Duration
func (c *Config) GetRetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Millisecond
}

// GetRetryMaxDelayDuration returns the exponential delay cap as time.Duration
func (c *Config) GetRetryMaxDelayDuration() time.Duration {
	return time.Duration(c.RetryMaxDelay) * time.Millisecond
}
