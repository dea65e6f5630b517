// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package source

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable is returned when a pattern matches no objects or the
	// store cannot be listed. It aborts a run before anything is written.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedRecord marks a record that could not be parsed into the expected shape.
	ErrMalformedRecord = errors.New("malformed record")
)

// MalformedRecordError describes a skipped input line.
type MalformedRecordError struct {
	Object string
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s at %s:%d: %s", ErrMalformedRecord, e.Object, e.Line, e.Reason)
}

// Unwrap allows errors.Is(err, ErrMalformedRecord).
func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}
