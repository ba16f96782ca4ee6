package config

import (
	"strings"
	"time"
)

// Default values used when the configuration leaves a field unset.
const (
	DefaultMetricsListen     = "127.0.0.1:9090"
	DefaultCloudTimeout      = 30 * time.Second
	DefaultBadgerBlockCache  = 64
	DefaultBadgerIndexCache  = 32
	DefaultS3MaxRetries      = 10
	DefaultDriveName         = "MEMORY"
	DefaultDriveTarget       = "memory://"
	DefaultCloudRequestsRate = 10
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Scheme-specific defaults are applied to the scheme maps
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyCloudDefaults(&cfg.Cloud)
	applySchemesDefaults(&cfg.Schemes)

	// A session always starts with somewhere to put programs
	if len(cfg.Drives) == 0 {
		cfg.Drives = []DriveConfig{{Name: DefaultDriveName, Target: DefaultDriveTarget}}
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "WARN"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	// stdout belongs to the session
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Listen == "" {
		cfg.Listen = DefaultMetricsListen
	}
}

func applyCloudDefaults(cfg *CloudConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultCloudTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultCloudRequestsRate
	}
}

func applySchemesDefaults(cfg *SchemesConfig) {
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if _, ok := cfg.Badger["block_cache_mb"]; !ok {
		cfg.Badger["block_cache_mb"] = int64(DefaultBadgerBlockCache)
	}
	if _, ok := cfg.Badger["index_cache_mb"]; !ok {
		cfg.Badger["index_cache_mb"] = int64(DefaultBadgerIndexCache)
	}

	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Drives: []DriveConfig{
			{Name: DefaultDriveName, Target: DefaultDriveTarget},
		},
		CurrentDrive: DefaultDriveName,
	}

	ApplyDefaults(cfg)
	return cfg
}
