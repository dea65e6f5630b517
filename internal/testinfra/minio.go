// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultMinIOImage is the official MinIO server image
	DefaultMinIOImage = "minio/minio:RELEASE.2024-11-07T00-52-20Z"

	// DefaultMinIOPort is the S3 API port
	DefaultMinIOPort = "9000"

	// DefaultAccessKey and DefaultSecretKey are the root credentials of the test server
	DefaultAccessKey = "soundlake"
	DefaultSecretKey = "soundlake-secret"

	// DefaultRegion is accepted by MinIO for any bucket
	DefaultRegion = "us-east-1"
)

// MinIOContainer represents a running MinIO server for testing.
type MinIOContainer struct {
	testcontainers.Container
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
}

// MinIOOption configures the MinIO container.
type MinIOOption func(*minioConfig)

type minioConfig struct {
	image        string
	buckets      []string
	startTimeout time.Duration
}

// WithMinIOImage sets a custom MinIO Docker image.
func WithMinIOImage(image string) MinIOOption {
	return func(c *minioConfig) {
		c.image = image
	}
}

// WithBuckets creates the named buckets once the server is ready.
func WithBuckets(names ...string) MinIOOption {
	return func(c *minioConfig) {
		c.buckets = append(c.buckets, names...)
	}
}

// WithStartTimeout sets the timeout for waiting for MinIO to start.
func WithStartTimeout(timeout time.Duration) MinIOOption {
	return func(c *minioConfig) {
		c.startTimeout = timeout
	}
}

// NewMinIOContainer creates and starts a MinIO server for testing.
//
// Example:
//
//	minio, err := testinfra.NewMinIOContainer(ctx, testinfra.WithBuckets("lake"))
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, minio.Container)
//
//	store, err := objstore.NewS3Store(ctx, "lake", "", minio.AWSConfig())
func NewMinIOContainer(ctx context.Context, opts ...MinIOOption) (*MinIOContainer, error) {
	cfg := &minioConfig{
		image:        DefaultMinIOImage,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultMinIOPort + "/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     DefaultAccessKey,
			"MINIO_ROOT_PASSWORD": DefaultSecretKey,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultMinIOPort+"/tcp"),
			wait.ForHTTP("/minio/health/live").WithPort(DefaultMinIOPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, DefaultMinIOPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	m := &MinIOContainer{
		Container: container,
		Endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
		AccessKey: DefaultAccessKey,
		SecretKey: DefaultSecretKey,
		Region:    DefaultRegion,
	}

	for _, bucket := range cfg.buckets {
		if err := m.CreateBucket(ctx, bucket); err != nil {
			container.Terminate(ctx) //nolint:errcheck
			return nil, err
		}
	}

	return m, nil
}

// Client returns an S3 client pointed at the container.
func (m *MinIOContainer) Client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(m.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(m.AccessKey, m.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(m.Endpoint)
		o.UsePathStyle = true
	}), nil
}

// CreateBucket creates a bucket on the server.
func (m *MinIOContainer) CreateBucket(ctx context.Context, name string) error {
	client, err := m.Client(ctx)
	if err != nil {
		return err
	}
	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(name)}); err != nil {
		return fmt.Errorf("create bucket %s: %w", name, err)
	}
	return nil
}
