package metrics

import (
	"time"

	"github.com/marmos91/dittostore/pkg/drive"
	"github.com/marmos91/dittostore/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// storageMetrics is the Prometheus implementation of storage.Metrics.
type storageMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	mountedDrives     prometheus.Gauge
}

// NewStorageMetrics creates a Prometheus-backed storage.Metrics.
//
// Returns nil if metrics are not enabled; the storage manager then uses its
// no-op implementation.
func NewStorageMetrics() storage.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newStorageMetricsWith(GetRegistry())
}

func newStorageMetricsWith(reg prometheus.Registerer) *storageMetrics {
	return &storageMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittostore_storage_operations_total",
				Help: "Total number of routed storage operations by operation, drive and status",
			},
			[]string{"operation", "drive", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dittostore_storage_operation_duration_seconds",
				Help:    "Duration of routed storage operations in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us .. ~26s
			},
			[]string{"operation"},
		),
		mountedDrives: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittostore_storage_mounted_drives",
				Help: "Number of drives currently mounted",
			},
		),
	}
}

// statusLabel maps an operation outcome to a low-cardinality label.
func statusLabel(err error) string {
	if err == nil {
		return "success"
	}
	if code, ok := drive.CodeOf(err); ok {
		return code.String()
	}
	return "error"
}

// ObserveOperation implements storage.Metrics.ObserveOperation
func (m *storageMetrics) ObserveOperation(operation, driveName string, duration time.Duration, err error) {
	m.operationsTotal.WithLabelValues(operation, driveName, statusLabel(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetMountedDrives implements storage.Metrics.SetMountedDrives
func (m *storageMetrics) SetMountedDrives(n int) {
	m.mountedDrives.Set(float64(n))
}
