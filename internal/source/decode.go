// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package source

import (
	"errors"

	"github.com/goccy/go-json"

	"github.com/tomtom215/soundlake/internal/models"
)

// DecodeFunc parses one non-blank input line. Any error marks the line as malformed.
type DecodeFunc[T any] func(line []byte, origin models.Origin) (T, error)

var errNotObject = errors.New("not a JSON object")

// DecodeSong decodes a song metadata record. song_id is required.
func DecodeSong(line []byte, origin models.Origin) (models.RawSongRecord, error) {
	var rec models.RawSongRecord
	if line[0] != '{' {
		return rec, errNotObject
	}
	if err := json.Unmarshal(line, &rec); err != nil {
		return rec, err
	}
	if rec.SongID == "" {
		return rec, errors.New("missing song_id")
	}
	rec.Origin = origin
	return rec, nil
}

// DecodeLog decodes an activity log record. Any JSON object is accepted;
// a missing ts is rejected later, and only for play events.
func DecodeLog(line []byte, origin models.Origin) (models.RawLogRecord, error) {
	var rec models.RawLogRecord
	if line[0] != '{' {
		return rec, errNotObject
	}
	if err := json.Unmarshal(line, &rec); err != nil {
		return rec, err
	}
	rec.Origin = origin
	return rec, nil
}
