package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete DittoStore configuration.
//
// This structure captures all configurable aspects of a session:
//   - Logging configuration
//   - Metrics endpoint
//   - Cloud service connection (enables LOGIN)
//   - Scheme-specific settings (badger, s3)
//   - Drives mounted at startup and the initial current drive
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTOSTORE_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Scheme Configuration Pattern:
// Each drive backend defines its own options. The Schemes section holds one
// free-form map per scheme, decoded by the factory that builds the backend.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Cloud configures the remote file-sharing service
	Cloud CloudConfig `mapstructure:"cloud" yaml:"cloud"`

	// Schemes contains scheme-specific backend options
	Schemes SchemesConfig `mapstructure:"schemes" yaml:"schemes"`

	// Drives lists the drives mounted at startup, in order
	Drives []DriveConfig `mapstructure:"drives" yaml:"drives" validate:"dive"`

	// CurrentDrive is the drive made current after startup mounts.
	// Empty keeps the first mounted drive.
	CurrentDrive string `mapstructure:"current_drive" yaml:"current_drive"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns on metrics collection and the HTTP endpoint
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Listen is the address the endpoint binds to
	Listen string `mapstructure:"listen" yaml:"listen" validate:"required_if=Enabled true"`
}

// CloudConfig configures the remote file-sharing service.
type CloudConfig struct {
	// Enabled makes LOGIN available
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// ServiceURL is the service root, e.g. https://service.example.com
	ServiceURL string `mapstructure:"service_url" yaml:"service_url" validate:"omitempty,url"`

	// Timeout bounds each request to the service
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`

	// RequestsPerSecond limits outgoing requests (0 = unlimited)
	RequestsPerSecond uint `mapstructure:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the rate limiter bucket size (0 = RequestsPerSecond)
	Burst uint `mapstructure:"burst" yaml:"burst"`

	// SkipVerify disables TLS certificate verification
	SkipVerify bool `mapstructure:"skip_verify" yaml:"skip_verify"`
}

// SchemesConfig holds per-scheme backend options.
type SchemesConfig struct {
	// Badger options for badger:// drives
	// Keys: block_cache_mb, index_cache_mb, in_memory
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`

	// S3 options for s3://bucket/prefix drives. The scheme is only
	// registered when this section sets a region.
	// Keys: region, endpoint, access_key_id, secret_access_key,
	// force_path_style, max_retries
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`
}

// DriveConfig is one drive mounted at startup.
type DriveConfig struct {
	// Name is the drive name, e.g. "MEMORY"
	Name string `mapstructure:"name" yaml:"name" validate:"required,excludesall=:/"`

	// Target is the mount descriptor, e.g. "memory://" or "file:///srv/programs"
	Target string `mapstructure:"target" yaml:"target" validate:"required"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOSTORE_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use DITTOSTORE_ prefix and underscores
	// Example: DITTOSTORE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper knows about
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"metrics.enabled", "metrics.listen",
		"cloud.enabled", "cloud.service_url", "cloud.timeout",
		"cloud.requests_per_second", "cloud.burst", "cloud.skip_verify",
		"current_drive",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dittostore/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config file: defaults and environment only
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittostore")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittostore")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
