// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps a thread-safe singleton validator that reports field names by their
// koanf key (so errors read "input.path is required" rather than "Path is
// required") and registers two custom tags used by the configuration:
//
//   - storeurl: a bare filesystem path or a file://, s3:// or gs:// URL
//     with a bucket
//   - globpattern: a doublestar-compatible glob pattern
//
// Example usage:
//
//	type InputConfig struct {
//	    Path        string `koanf:"path" validate:"required,storeurl"`
//	    SongPattern string `koanf:"song_pattern" validate:"required,globpattern"`
//	}
//
//	if err := validation.ValidateStruct(&cfg); err != nil {
//	    return fmt.Errorf("invalid configuration: %w", err)
//	}
package validation
