package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/pkg/cloud"
	"github.com/marmos91/dittostore/pkg/drive/badger"
	"github.com/marmos91/dittostore/pkg/drive/s3"
	"github.com/marmos91/dittostore/pkg/metrics"
	"github.com/marmos91/dittostore/pkg/storage"
	"github.com/mitchellh/mapstructure"
)

// s3SchemeConfig is the decoded schemes.s3 section.
type s3SchemeConfig struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

// badgerSchemeConfig is the decoded schemes.badger section.
type badgerSchemeConfig struct {
	BlockCacheSizeMB int64 `mapstructure:"block_cache_mb"`
	IndexCacheSizeMB int64 `mapstructure:"index_cache_mb"`
	InMemory         bool  `mapstructure:"in_memory"`
}

// CreateBadgerFactory builds the badger:// scheme factory.
func CreateBadgerFactory(options map[string]any) (badger.Factory, error) {
	var opts badgerSchemeConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return badger.Factory{}, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return badger.Factory{}, fmt.Errorf("failed to decode badger scheme options: %w", err)
	}

	return badger.Factory{
		BlockCacheSizeMB: opts.BlockCacheSizeMB,
		IndexCacheSizeMB: opts.IndexCacheSizeMB,
		InMemory:         opts.InMemory,
	}, nil
}

// decodeS3Options decodes and validates the schemes.s3 section.
func decodeS3Options(options map[string]any) (s3SchemeConfig, error) {
	var opts s3SchemeConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return opts, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return opts, fmt.Errorf("failed to decode S3 scheme options: %w", err)
	}

	if opts.Region == "" {
		return opts, fmt.Errorf("S3 scheme: region is required")
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultS3MaxRetries
	}
	return opts, nil
}

// CreateS3Factory builds the s3:// scheme factory from the schemes.s3
// section. Drives created by it share one client.
func CreateS3Factory(ctx context.Context, options map[string]any) (s3.Factory, error) {
	opts, err := decodeS3Options(options)
	if err != nil {
		return s3.Factory{}, err
	}

	client, err := newS3Client(ctx, opts)
	if err != nil {
		return s3.Factory{}, err
	}

	logger.Info("S3 scheme initialized: region=%s, endpoint=%s", opts.Region, opts.Endpoint)

	return s3.Factory{Client: client, Metrics: metrics.NewS3Metrics()}, nil
}

// newS3Client builds an S3 client: explicit credentials if configured,
// otherwise the default AWS credential chain.
func newS3Client(ctx context.Context, opts s3SchemeConfig) (*awss3.Client, error) {
	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(opts.Region))

	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	// Retry transient failures (502, 503, timeouts) harder than the SDK default
	maxRetries := opts.MaxRetries
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		// Custom endpoints (MinIO, Localstack) need path-style addressing
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
		if opts.ForcePathStyle {
			o.UsePathStyle = true
		}
	}), nil
}

// CreateCloudService builds the HTTP client for the cloud service.
//
// Returns nil, nil when the cloud section is disabled.
func CreateCloudService(cfg *CloudConfig) (cloud.Service, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	svc, err := cloud.NewHTTPService(cloud.HTTPConfig{
		BaseURL:           cfg.ServiceURL,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		SkipVerify:        cfg.SkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud service client: %w", err)
	}

	if cfg.SkipVerify {
		logger.Warn("TLS verification disabled for cloud service %s", cfg.ServiceURL)
	}
	logger.Info("Cloud service configured: url=%s, timeout=%s", cfg.ServiceURL, cfg.Timeout)
	return svc, nil
}

// InitializeStorage creates a storage manager from the configuration.
//
// This function:
//  1. Creates the manager with memory:// and file:// built in
//  2. Registers badger:// and, when configured, s3://
//  3. Mounts the configured drives in order
//  4. Switches to the configured current drive
//
// On failure every drive mounted so far is closed.
func InitializeStorage(ctx context.Context, cfg *Config) (*storage.Storage, error) {
	logger.Debug("Initializing storage from configuration")

	s := storage.NewStorage(metrics.NewStorageMetrics())

	badgerFactory, err := CreateBadgerFactory(cfg.Schemes.Badger)
	if err != nil {
		return nil, err
	}
	s.RegisterScheme("badger", badgerFactory)

	if len(cfg.Schemes.S3) > 0 {
		s3Factory, err := CreateS3Factory(ctx, cfg.Schemes.S3)
		if err != nil {
			return nil, err
		}
		s.RegisterScheme("s3", s3Factory)
	}

	for i, d := range cfg.Drives {
		if err := s.Mount(ctx, d.Name, d.Target); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to mount drives[%d] %s at %s: %w", i, d.Name, d.Target, err)
		}
	}

	if cfg.CurrentDrive != "" {
		if err := s.Cd(cfg.CurrentDrive + ":"); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to switch to current_drive %s: %w", cfg.CurrentDrive, err)
		}
	}

	logger.Debug("Storage initialized: %d drive(s), current=%s", len(cfg.Drives), s.Cwd())
	return s, nil
}
