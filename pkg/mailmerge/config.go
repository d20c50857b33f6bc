package mailmerge

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all configuration options for the merge engine
type Config struct {
	// Mode selects the output assembly: "combined" or "per-row".
	Mode string `yaml:"mode"`
	// Workers is the degree of parallelism for per-row output. Combined output is always sequential.
	Workers int `yaml:"workers"`
	// StrictMode turns unresolvable shared strings into DataIntegrityError and
	// makes a single failed row abort a per-row batch.
	StrictMode bool `yaml:"strict"`
	// FailOnMissingValue makes substitution fail when a row has no value for a
	// field. By default the token is replaced with an empty string.
	FailOnMissingValue bool `yaml:"fail_on_missing_value"`
	// MergeRuns joins adjacent runs with identical formatting before substitution,
	// so tokens Word split over several runs are still found.
	MergeRuns bool `yaml:"merge_runs"`
	// Archive bundles the per-row output directory into a zip file.
	Archive bool `yaml:"archive"`
	// Sheet names the worksheet to read. Empty means the first sheet.
	Sheet string `yaml:"sheet"`
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `yaml:"log_level"`
	// LogFormat selects the log encoding (text, json, logfmt)
	LogFormat string `yaml:"log_format"`
	// CacheMaxSize is the maximum number of templates to cache. 0 disables caching.
	CacheMaxSize int `yaml:"cache_max_size"`
	// CacheTTL is the time-to-live for cached templates. 0 means no expiration.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	// Initialize global config from environment on first use
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Mode:         ModeCombined.String(),
		Workers:      4,
		Archive:      true,
		LogLevel:     "info",
		LogFormat:    "text",
		CacheMaxSize: 8,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()
	config.ApplyEnvironment()
	return config
}

// ApplyEnvironment overrides fields with MAILMERGE_* environment variables.
// Unparseable values are ignored.
func (c *Config) ApplyEnvironment() {
	if val := os.Getenv("MAILMERGE_MODE"); val != "" {
		c.Mode = val
	}

	if val := os.Getenv("MAILMERGE_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Workers = n
		}
	}

	if val := os.Getenv("MAILMERGE_STRICT_MODE"); val != "" {
		c.StrictMode = parseBool(val)
	}

	if val := os.Getenv("MAILMERGE_FAIL_ON_MISSING_VALUE"); val != "" {
		c.FailOnMissingValue = parseBool(val)
	}

	if val := os.Getenv("MAILMERGE_MERGE_RUNS"); val != "" {
		c.MergeRuns = parseBool(val)
	}

	if val := os.Getenv("MAILMERGE_ARCHIVE"); val != "" {
		c.Archive = parseBool(val)
	}

	if val := os.Getenv("MAILMERGE_SHEET"); val != "" {
		c.Sheet = val
	}

	if val := os.Getenv("MAILMERGE_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv("MAILMERGE_LOG_FORMAT"); val != "" {
		c.LogFormat = val
	}

	if val := os.Getenv("MAILMERGE_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			c.CacheMaxSize = size
		}
	}

	if val := os.Getenv("MAILMERGE_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.CacheTTL = duration
		}
	}
}

// LoadConfigFile reads a YAML configuration file on top of the defaults.
// Keys missing from the file keep their default values.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDocumentError("read", path, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return config, nil
}

// Validate checks if the configuration is valid and reports every problem at once.
func (c *Config) Validate() error {
	issues := &ConfigurationError{}

	if _, err := ParseOutputMode(c.Mode); err != nil {
		issues.Add("mode", err.Error())
	}

	if c.Workers <= 0 {
		issues.Add("workers", "must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		issues.Add("log_level", "invalid log level: "+c.LogLevel)
	}

	validFormats := map[string]bool{"text": true, "json": true, "logfmt": true}
	if !validFormats[strings.ToLower(c.LogFormat)] {
		issues.Add("log_format", "invalid log format: "+c.LogFormat)
	}

	if c.CacheMaxSize < 0 {
		issues.Add("cache_max_size", "cannot be negative")
	}

	if c.CacheTTL < 0 {
		issues.Add("cache_ttl", "cannot be negative")
	}

	return issues.Err()
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	// Return a copy to prevent modification
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Update logger based on new config (outside the lock to avoid deadlock)
	UpdateLoggerFromConfig()
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
