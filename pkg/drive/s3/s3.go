// Package s3 implements a drive stored in an S3 bucket.
//
// Each entry is one object under <prefix>/<name>. Works against AWS S3 and
// S3-compatible services (MinIO, LocalStack) through a client configured
// with a custom endpoint and path-style addressing. S3 drives do not
// support ACLs.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/dittostore/pkg/drive"
)

// Client is the subset of *s3.Client used by the drive.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var _ Client = (*s3.Client)(nil)

// Config configures an S3Drive.
type Config struct {
	// Client is the S3 client (usually *s3.Client)
	Client Client

	// Bucket holds the drive's objects
	Bucket string

	// KeyPrefix namespaces the drive inside the bucket (optional)
	KeyPrefix string

	// Metrics is optional
	Metrics S3Metrics
}

// S3Drive implements drive.Drive on an S3 bucket.
type S3Drive struct {
	client    Client
	bucket    string
	keyPrefix string
	metrics   S3Metrics
}

// NewS3Drive creates a drive over bucket/keyPrefix.
//
// No network calls are made; a missing bucket surfaces on first use.
func NewS3Drive(ctx context.Context, cfg Config) (*S3Drive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Client == nil {
		return nil, drive.NewInvalidArgumentError("S3 drive requires a client")
	}
	if cfg.Bucket == "" {
		return nil, drive.NewInvalidArgumentError("S3 drive requires a bucket")
	}

	prefix := strings.Trim(cfg.KeyPrefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &S3Drive{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: prefix,
		metrics:   metrics,
	}, nil
}

// objectKey returns the object key for an entry.
func (d *S3Drive) objectKey(name string) (string, error) {
	if name == "" || strings.Contains(name, "/") {
		return "", &drive.StoreError{
			Code:    drive.ErrInvalidArgument,
			Message: "Invalid file name",
			Path:    name,
		}
	}
	return d.keyPrefix + name, nil
}

// isNotFound reports whether err is S3's "no such key" in any of its forms.
// GetObject returns NoSuchKey; HeadObject returns a bare NotFound.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}

// mapError converts S3 errors into drive errors.
func mapError(name string, err error) error {
	if isNotFound(err) {
		return drive.NewNotFoundError("Entry not found", name)
	}
	return drive.NewIOError(name, fmt.Errorf("s3: %w", err))
}

// Delete removes the entry's object.
//
// S3 deletes are idempotent, so the object is checked with HeadObject first
// to report missing entries.
func (d *S3Drive) Delete(ctx context.Context, name string) error {
	key, err := d.objectKey(name)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	d.metrics.ObserveOperation("HeadObject", time.Since(start), err)
	if err != nil {
		return mapError(name, err)
	}

	start = time.Now()
	_, err = d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	d.metrics.ObserveOperation("DeleteObject", time.Since(start), err)
	if err != nil {
		return mapError(name, err)
	}
	return nil
}

// Enumerate lists all objects under the prefix.
//
// Keys nested deeper than the prefix are not entries and are skipped.
func (d *S3Drive) Enumerate(ctx context.Context) ([]drive.DirEntry, error) {
	entries := make([]drive.DirEntry, 0)

	paginator := s3.NewListObjectsV2Paginator(d.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(d.bucket),
		Prefix: aws.String(d.keyPrefix),
	})

	for paginator.HasMorePages() {
		start := time.Now()
		page, err := paginator.NextPage(ctx)
		d.metrics.ObserveOperation("ListObjectsV2", time.Since(start), err)
		if err != nil {
			return nil, drive.NewIOError(d.bucket, fmt.Errorf("s3: failed to list objects: %w", err))
		}

		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), d.keyPrefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			entries = append(entries, drive.DirEntry{
				Name: name,
				Metadata: drive.Metadata{
					ModTime: aws.ToTime(obj.LastModified),
					Length:  uint64(aws.ToInt64(obj.Size)),
				},
			})
		}
	}

	drive.SortEntries(entries)
	return entries, nil
}

// Get downloads the entry's object.
func (d *S3Drive) Get(ctx context.Context, name string) (string, error) {
	key, err := d.objectKey(name)
	if err != nil {
		return "", err
	}

	start := time.Now()
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	d.metrics.ObserveOperation("GetObject", time.Since(start), err)
	if err != nil {
		return "", mapError(name, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", drive.NewIOError(name, fmt.Errorf("s3: failed to read object: %w", err))
	}
	d.metrics.RecordBytes("read", int64(len(data)))
	return string(data), nil
}

// Put uploads the entry's object, replacing any existing one.
func (d *S3Drive) Put(ctx context.Context, name, content string) error {
	key, err := d.objectKey(name)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(key),
		Body:          strings.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
	})
	d.metrics.ObserveOperation("PutObject", time.Since(start), err)
	if err != nil {
		return drive.NewIOError(name, fmt.Errorf("s3: failed to put object: %w", err))
	}
	d.metrics.RecordBytes("write", int64(len(content)))
	return nil
}

// Factory creates S3 drives for the "s3" scheme.
//
// s3://bucket/prefix maps to the bucket and key prefix. The client is built
// once from configuration and shared by every S3 mount.
type Factory struct {
	Client  Client
	Metrics S3Metrics
}

// Create implements storage.SchemeFactory.
func (f Factory) Create(ctx context.Context, target drive.MountTarget) (drive.Drive, error) {
	return NewS3Drive(ctx, Config{
		Client:    f.Client,
		Bucket:    target.Authority,
		KeyPrefix: target.Path,
		Metrics:   f.Metrics,
	})
}
