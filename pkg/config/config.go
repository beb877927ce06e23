// ------------------------------------------------------
// FuzzKit - Configuration Module
// Fuzzy string-similarity scoring toolkit
// ------------------------------------------------------

package config

import (
	"fmt"
	"time"
)

// Version information
const (
	Version   = "1.0.0"
	BuildDate = "2026-08-24"
)

// Default scoring / matcher values
const (
	DefaultConcurrency = 8
	DefaultCacheSize   = 1000
	DefaultLimit       = 0 // 0 = unlimited
	DefaultMaxScore    = 1.0
)

// API server constants
const (
	// DefaultAPIPort is the default port for the REST API server.
	DefaultAPIPort = 8080

	// DefaultRateLimit is the default API request budget per second.
	DefaultRateLimit = 100

	// DefaultReadTimeout bounds how long the server waits for a request.
	DefaultReadTimeout = 30 * time.Second

	// DefaultWriteTimeout bounds how long the server takes to respond.
	DefaultWriteTimeout = 60 * time.Second

	// DefaultIdleTimeout bounds how long keep-alive connections linger.
	DefaultIdleTimeout = 120 * time.Second
)

// validAlgorithms is used by Validate() to check the configured
// similarity algorithm. The names mirror the fuzz package registry.
var validAlgorithms = map[string]struct{}{
	"ratio":        {},
	"levenshtein":  {},
	"jaro":         {},
	"jaro-winkler": {},
}

// OutputFormat represents the output format type
type OutputFormat string

const (
	OutputHuman    OutputFormat = "human"
	OutputJSON     OutputFormat = "json"
	OutputCSV      OutputFormat = "csv"
	OutputMarkdown OutputFormat = "markdown"
)

// validOutputFormats is used by Validate() to check the configured format.
var validOutputFormats = map[OutputFormat]struct{}{
	OutputHuman:    {},
	OutputJSON:     {},
	OutputCSV:      {},
	OutputMarkdown: {},
}

// LogLevel represents logging verbosity
type LogLevel int

const (
	LogQuiet LogLevel = iota
	LogWarn
	LogInfo
	LogDebug
	LogTrace
)

// Config holds all configuration for scoring, output, and the API server.
type Config struct {
	// Scoring configuration
	Algorithm   string  `json:"algorithm"   yaml:"algorithm"`
	Concurrency int     `json:"concurrency" yaml:"concurrency"`
	CacheSize   int     `json:"cache_size"  yaml:"cache_size"`
	Prefilter   bool    `json:"prefilter"   yaml:"prefilter"`
	MaxScore    float64 `json:"max_score"   yaml:"max_score"`
	Limit       int     `json:"limit"       yaml:"limit"`

	// Output configuration
	Output     OutputFormat `json:"output"      yaml:"output"`
	OutputFile string       `json:"output_file" yaml:"output_file"`
	Quiet      bool         `json:"quiet"       yaml:"quiet"`
	LogLevel   LogLevel     `json:"log_level"   yaml:"log_level"`

	// API server
	EnableAPI      bool          `json:"enable_api"       yaml:"enable_api"`
	APIPort        int           `json:"api_port"         yaml:"api_port"`
	APIKey         string        `json:"api_key"          yaml:"api_key"`
	RateLimit      int           `json:"rate_limit"       yaml:"rate_limit"`
	RateLimitBurst int           `json:"rate_limit_burst" yaml:"rate_limit_burst"`
	ReadTimeout    time.Duration `json:"read_timeout"     yaml:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"    yaml:"write_timeout"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Algorithm:      "ratio",
		Concurrency:    DefaultConcurrency,
		CacheSize:      DefaultCacheSize,
		MaxScore:       DefaultMaxScore,
		Limit:          DefaultLimit,
		Output:         OutputHuman,
		LogLevel:       LogWarn,
		APIPort:        DefaultAPIPort,
		RateLimit:      DefaultRateLimit,
		RateLimitBurst: DefaultRateLimit,
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
	}
}

// Validate validates the configuration and returns a descriptive error if invalid.
func (c *Config) Validate() error {
	if _, ok := validAlgorithms[c.Algorithm]; !ok {
		return fmt.Errorf("unknown algorithm %q", c.Algorithm)
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}

	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size cannot be negative, got %d", c.CacheSize)
	}

	if c.MaxScore < 0 || c.MaxScore > 1 {
		return fmt.Errorf("max_score must be in [0, 1], got %g", c.MaxScore)
	}

	if c.Limit < 0 {
		return fmt.Errorf("limit cannot be negative, got %d", c.Limit)
	}

	if _, ok := validOutputFormats[c.Output]; !ok {
		return fmt.Errorf("unknown output format %q", c.Output)
	}

	if c.EnableAPI {
		if c.APIPort < 1 || c.APIPort > 65535 {
			return fmt.Errorf("api_port must be between 1 and 65535, got %d", c.APIPort)
		}
		if c.RateLimit < 1 {
			return fmt.Errorf("rate_limit must be at least 1, got %d", c.RateLimit)
		}
		if c.ReadTimeout <= 0 {
			return fmt.Errorf("read_timeout must be positive, got %v", c.ReadTimeout)
		}
		if c.WriteTimeout <= 0 {
			return fmt.Errorf("write_timeout must be positive, got %v", c.WriteTimeout)
		}
	}

	return nil
}
