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
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/soundlake/internal/config"
)

// Backend identifiers, used as metric labels.
const (
	BackendFile = "file"
	BackendS3   = "s3"
	BackendGCS  = "gs"
)

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrUnsupportedScheme is returned by Open for URLs it cannot serve.
	ErrUnsupportedScheme = errors.New("unsupported store scheme")
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key     string // relative to the store root
	Size    int64
	ModTime time.Time
}

// Store is a flat key/value object store rooted at a location.
//
// List returns every object whose key starts with prefix, sorted by key.
// Delete of a missing key is not an error.
type Store interface {
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	URI(key string) string
	Close() error
}

// Location is a parsed store URL.
type Location struct {
	Scheme string // "file", "s3" or "gs"
	Bucket string // empty for file
	Prefix string // key prefix for remote stores, directory for file
}

// ParseLocation parses a bare path or a file://, s3://, s3a:// or gs:// URL.
func ParseLocation(raw string) (Location, error) {
	if raw == "" {
		return Location{}, fmt.Errorf("%w: empty location", ErrUnsupportedScheme)
	}
	if !strings.Contains(raw, "://") {
		return Location{Scheme: BackendFile, Prefix: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse store url %q: %w", raw, err)
	}

	switch u.Scheme {
	case "file":
		dir := u.Path
		if u.Host != "" && u.Host != "localhost" {
			dir = u.Host + u.Path // file://relative/dir
		}
		return Location{Scheme: BackendFile, Prefix: dir}, nil
	case "s3", "s3a", "s3n":
		if u.Host == "" {
			return Location{}, fmt.Errorf("s3 url %q has no bucket", raw)
		}
		return Location{Scheme: BackendS3, Bucket: u.Host, Prefix: normalizePrefix(u.Path)}, nil
	case "gs":
		if u.Host == "" {
			return Location{}, fmt.Errorf("gs url %q has no bucket", raw)
		}
		return Location{Scheme: BackendGCS, Bucket: u.Host, Prefix: normalizePrefix(u.Path)}, nil
	default:
		return Location{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// normalizePrefix strips leading slashes and ensures a trailing one.
func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

// Options configures backend clients and the resilience wrapper.
type Options struct {
	AWS   config.AWSConfig
	GCP   config.GCPConfig
	Store config.StoreConfig
}

// OptionsFromConfig collects the store-related sections of the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{AWS: cfg.AWS, GCP: cfg.GCP, Store: cfg.Store}
}

// Open returns a Store for raw, wrapped in a Resilient store.
func Open(ctx context.Context, raw string, opts Options) (Store, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case BackendFile:
		local, err := NewLocalStore(loc.Prefix)
		if err != nil {
			return nil, err
		}
		// Local I/O is neither throttled nor guarded by a breaker.
		return NewResilient(local, BackendFile, config.StoreConfig{}), nil
	case BackendS3:
		s3s, err := NewS3Store(ctx, loc.Bucket, loc.Prefix, opts.AWS)
		if err != nil {
			return nil, err
		}
		return NewResilient(s3s, BackendS3, opts.Store), nil
	case BackendGCS:
		gcs, err := NewGCSStore(ctx, loc.Bucket, loc.Prefix, opts.GCP)
		if err != nil {
			return nil, err
		}
		return NewResilient(gcs, BackendGCS, opts.Store), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, loc.Scheme)
	}
}

// DeletePrefix removes every object under prefix and returns the number deleted.
func DeletePrefix(ctx context.Context, s Store, prefix string) (int, error) {
	objs, err := s.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", s.URI(prefix), err)
	}
	for i, obj := range objs {
		if err := s.Delete(ctx, obj.Key); err != nil {
			return i, fmt.Errorf("delete %s: %w", s.URI(obj.Key), err)
		}
	}
	return len(objs), nil
}

// Exists reports whether key is present in the store.
func Exists(ctx context.Context, s Store, key string) (bool, error) {
	rc, err := s.Open(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_ = rc.Close() //nolint:errcheck // read-only existence check
	return true, nil
}
