// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package objstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/soundlake/internal/config"
)

func TestParseLocation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    Location
		wantErr bool
	}{
		{raw: "./data", want: Location{Scheme: BackendFile, Prefix: "./data"}},
		{raw: "/var/lib/lake", want: Location{Scheme: BackendFile, Prefix: "/var/lib/lake"}},
		{raw: "file:///tmp/out", want: Location{Scheme: BackendFile, Prefix: "/tmp/out"}},
		{raw: "s3://udacity-dend", want: Location{Scheme: BackendS3, Bucket: "udacity-dend", Prefix: ""}},
		{raw: "s3a://udacity-dend/", want: Location{Scheme: BackendS3, Bucket: "udacity-dend", Prefix: ""}},
		{raw: "s3://lake/sparkify/v1", want: Location{Scheme: BackendS3, Bucket: "lake", Prefix: "sparkify/v1/"}},
		{raw: "gs://lake/sparkify/", want: Location{Scheme: BackendGCS, Bucket: "lake", Prefix: "sparkify/"}},
		{raw: "", wantErr: true},
		{raw: "s3:///nobucket", wantErr: true},
		{raw: "ftp://host/x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLocation(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLocation(%q) expected error, got %+v", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLocation(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseLocation(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestOpenUnsupportedScheme(t *testing.T) {
	_, err := Open(context.Background(), "ftp://host/data", Options{})
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("Open() error = %v, want ErrUnsupportedScheme", err)
	}
}

func TestOpenLocal(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(context.Background(), "file://"+dir, Options{Store: config.StoreConfig{RequestsPerSecond: 1, Burst: 1}})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	r, ok := store.(*Resilient)
	if !ok {
		t.Fatalf("Open() returned %T, want *Resilient", store)
	}
	if r.limiter != nil || r.cb != nil {
		t.Error("local store should not be rate limited or guarded by a breaker")
	}
	if _, ok := r.Unwrap().(*LocalStore); !ok {
		t.Errorf("Unwrap() = %T, want *LocalStore", r.Unwrap())
	}
}

func TestDeletePrefixAndExists(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	for _, key := range []string{"songs/a.parquet", "songs/b.parquet", "songsx/c.parquet", "users/d.parquet"} {
		if err := store.Put(ctx, key, strings.NewReader("x")); err != nil {
			t.Fatalf("Put(%s) error = %v", key, err)
		}
	}

	n, err := DeletePrefix(ctx, store, "songs/")
	if err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeletePrefix() deleted %d, want 2", n)
	}

	for key, want := range map[string]bool{
		"songs/a.parquet":  false,
		"songsx/c.parquet": true,
		"users/d.parquet":  true,
	} {
		got, err := Exists(ctx, store, key)
		if err != nil {
			t.Fatalf("Exists(%s) error = %v", key, err)
		}
		if got != want {
			t.Errorf("Exists(%s) = %v, want %v", key, got, want)
		}
	}
}
