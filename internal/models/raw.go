// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package models

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// PageNextSong is the log page value that marks a song play.
const PageNextSong = "NextSong"

// Origin identifies where a raw record was read from.
type Origin struct {
	Object string // object key relative to the input root
	Line   int    // 1-based line number within the object
}

// Before reports whether o sorts before other in (object, line) order.
func (o Origin) Before(other Origin) bool {
	if o.Object != other.Object {
		return o.Object < other.Object
	}
	return o.Line < other.Line
}

// String formats the origin as object:line.
func (o Origin) String() string {
	return o.Object + ":" + strconv.Itoa(o.Line)
}

// RawSongRecord is one line of a song metadata file.
type RawSongRecord struct {
	SongID          string   `json:"song_id"`
	NumSongs        int      `json:"num_songs"`
	Title           string   `json:"title"`
	ArtistID        string   `json:"artist_id"`
	ArtistName      string   `json:"artist_name"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
	Year            int      `json:"year"` // 0 when unknown
	Duration        float64  `json:"duration"`

	Origin Origin `json:"-"`
}

// RawLogRecord is one line of an activity log file.
type RawLogRecord struct {
	Artist        string       `json:"artist"`
	Auth          string       `json:"auth"`
	FirstName     string       `json:"firstName"`
	Gender        string       `json:"gender"`
	ItemInSession int          `json:"itemInSession"`
	LastName      string       `json:"lastName"`
	Length        *float64     `json:"length"`
	Level         string       `json:"level"`
	Location      string       `json:"location"`
	Method        string       `json:"method"`
	Page          string       `json:"page"`
	Registration  *float64     `json:"registration"`
	SessionID     int64        `json:"sessionId"`
	Song          string       `json:"song"`
	Status        int          `json:"status"`
	TS            *EpochMillis `json:"ts"`
	UserAgent     string       `json:"userAgent"`
	UserID        FlexString   `json:"userId"`

	Origin Origin `json:"-"`
}

// IsPlay reports whether the record is a song play event.
func (r *RawLogRecord) IsPlay() bool {
	return r.Page == PageNextSong
}

// FlexString decodes a JSON string or number into its textual form.
// Log files encode userId as a string, but numeric IDs are accepted too.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = FlexString(b)
	return nil
}

// String returns the underlying value.
func (f FlexString) String() string {
	return string(f)
}

// EpochMillis is an event timestamp in milliseconds since the Unix epoch.
// It decodes from a JSON integer or a whole-valued float such as
// 1541121934796.0; strings and fractional values are rejected.
type EpochMillis int64

// UnmarshalJSON implements json.Unmarshaler.
func (e *EpochMillis) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) == 0 || b[0] == '"' {
		return fmt.Errorf("ts: expected number, got %s", b)
	}
	n := json.Number(b)
	if v, err := n.Int64(); err == nil {
		*e = EpochMillis(v)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("ts: expected number, got %s", b)
	}
	if f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return fmt.Errorf("ts: %s is not a whole number of milliseconds", b)
	}
	*e = EpochMillis(f)
	return nil
}

// Int64 returns the timestamp as a plain integer.
func (e EpochMillis) Int64() int64 {
	return int64(e)
}
