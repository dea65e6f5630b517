// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package objstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Match reports whether key matches a doublestar pattern. Invalid patterns match nothing.
func Match(pattern, key string) bool {
	ok, err := doublestar.Match(pattern, key)
	return err == nil && ok
}

// StaticPrefix returns the longest directory prefix of pattern that contains
// no glob metacharacters, with a trailing slash, or "" for the store root.
func StaticPrefix(pattern string) string {
	base, _ := doublestar.SplitPattern(pattern)
	if base == "." || base == "" || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, "/") + "/"
}

// Glob lists the objects in s whose keys match pattern, sorted by key.
func Glob(ctx context.Context, s Store, pattern string) ([]ObjectInfo, error) {
	pattern = strings.TrimPrefix(pattern, "./")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	objs, err := s.List(ctx, StaticPrefix(pattern))
	if err != nil {
		return nil, err
	}

	matched := objs[:0]
	for _, obj := range objs {
		if Match(pattern, obj.Key) {
			matched = append(matched, obj)
		}
	}
	return matched, nil
}
