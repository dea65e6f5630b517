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

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/tomtom215/soundlake/internal/config"
	"github.com/tomtom215/soundlake/internal/logging"
)

// GCSStore is a Store backed by a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a store rooted at gs://bucket/prefix.
func NewGCSStore(ctx context.Context, bucket, prefix string, cfg config.GCPConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.ProjectID))
	}
	return newGCSStore(ctx, bucket, prefix, opts...)
}

func newGCSStore(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	logging.Info().Str("bucket", bucket).Str("prefix", prefix).Msg("Initialized GCS store")

	return &GCSStore{client: client, bucket: bucket, prefix: normalizePrefix(prefix)}, nil
}

func (s *GCSStore) object(key string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + key)
}

// List iterates bucket objects under the store prefix.
func (s *GCSStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix + prefix})

	var out []ObjectInfo
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", s.URI(prefix), err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		out = append(out, ObjectInfo{
			Key:     strings.TrimPrefix(attrs.Name, s.prefix),
			Size:    attrs.Size,
			ModTime: attrs.Updated,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Open streams an object. The caller must close it.
func (s *GCSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.URI(key))
		}
		return nil, fmt.Errorf("get %s: %w", s.URI(key), err)
	}
	return r, nil
}

// Put uploads r. The object only becomes visible when the writer closes
// cleanly; a failed copy cancels the upload instead.
func (s *GCSStore) Put(ctx context.Context, key string, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		_ = w.Close() //nolint:errcheck // upload already aborted
		return fmt.Errorf("put %s: %w", s.URI(key), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("put %s: %w", s.URI(key), err)
	}
	return nil
}

// Delete removes key; a missing key is not an error.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	if err := s.object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", s.URI(key), err)
	}
	return nil
}

// URI returns the gs:// URL of key.
func (s *GCSStore) URI(key string) string {
	return "gs://" + s.bucket + "/" + s.prefix + key
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
