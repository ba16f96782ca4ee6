// Package metrics provides Prometheus metrics for the storage manager and
// the S3 drive.
//
// Metrics are optional. Without InitRegistry every constructor returns a
// no-op implementation, so a plain interactive session pays nothing.
//
// Usage:
//
//	metrics.InitRegistry()
//	storageMetrics := metrics.NewStorageMetrics()
//	s3Metrics := metrics.NewS3Metrics()
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// registry is written once by InitRegistry
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// Call it before creating metrics instances. Subsequent calls are ignored.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global Prometheus registry.
//
// Returns nil if InitRegistry() has not been called.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true once InitRegistry() has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
