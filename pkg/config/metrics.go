package config

import (
	"github.com/marmos91/dittostore/pkg/metrics"
)

// InitializeMetrics prepares metrics collection based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry, so storage and S3
//     metrics created afterwards are Prometheus-backed
//   - Returns the HTTP server exposing them (not yet started)
//
// If metrics are disabled it returns nil and every metrics constructor
// falls back to a no-op.
//
// Call it before InitializeStorage.
func InitializeMetrics(cfg *Config) *metrics.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	metrics.InitRegistry()

	return metrics.NewServer(metrics.ServerConfig{
		Listen: cfg.Metrics.Listen,
	})
}
