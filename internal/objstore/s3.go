// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/tomtom215/soundlake/internal/config"
	"github.com/tomtom215/soundlake/internal/logging"
)

const defaultBucketRegion = "us-east-1"

// S3Store is a Store backed by an S3 bucket (or any S3-compatible service).
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store creates a store rooted at s3://bucket/prefix.
func NewS3Store(ctx context.Context, bucket, prefix string, cfg config.AWSConfig) (*S3Store, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("bucket", bucket).
		Str("prefix", prefix).
		Str("endpoint", cfg.EndpointURL).
		Msg("Initialized S3 store")

	return &S3Store{client: client, bucket: bucket, prefix: normalizePrefix(prefix)}, nil
}

// newS3Client loads the default AWS config chain, overlaying static
// credentials and a custom endpoint when configured.
func newS3Client(ctx context.Context, cfg config.AWSConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}

	region := cfg.Region
	if region == "" {
		logging.Info().Str("region", defaultBucketRegion).Msg("No AWS region set, using default")
		region = defaultBucketRegion
	}
	opts = append(opts, awsconfig.WithRegion(region))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

func (s *S3Store) key(k string) string {
	return s.prefix + k
}

// List pages through ListObjectsV2 under the store prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	})

	var out []ObjectInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", s.URI(prefix), err)
		}
		for _, obj := range page.Contents {
			full := aws.ToString(obj.Key)
			if strings.HasSuffix(full, "/") {
				continue // folder placeholder
			}
			out = append(out, ObjectInfo{
				Key:     strings.TrimPrefix(full, s.prefix),
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Open streams an object body. The caller must close it.
func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.URI(key))
		}
		return nil, fmt.Errorf("get %s: %w", s.URI(key), err)
	}
	return out.Body, nil
}

// Put uploads r as a single object. Seekable readers (files, byte readers)
// let the SDK compute the payload checksum without buffering.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.URI(key), err)
	}
	return nil
}

// Delete removes a single object; S3 treats missing keys as success.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.URI(key), err)
	}
	return nil
}

// URI returns the s3:// URL of key.
func (s *S3Store) URI(key string) string {
	return "s3://" + s.bucket + "/" + s.key(key)
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *S3Store) Close() error {
	return nil
}
