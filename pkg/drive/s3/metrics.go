package s3

import "time"

// S3Metrics provides observability for S3 drive operations.
//
// This is optional - if not provided, metrics collection is skipped.
type S3Metrics interface {
	// ObserveOperation records an S3 call with its duration and outcome
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordBytes records bytes transferred by GetObject/PutObject
	RecordBytes(operation string, bytes int64)
}

// noopMetrics is the default no-op implementation
type noopMetrics struct{}

func (noopMetrics) ObserveOperation(operation string, duration time.Duration, err error) {}
func (noopMetrics) RecordBytes(operation string, bytes int64)                            {}
