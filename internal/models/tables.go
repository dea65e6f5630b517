// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package models

import "time"

// Song is a row of the songs dimension.
type Song struct {
	SongID   string  `json:"song_id"`
	Title    string  `json:"title"`
	ArtistID string  `json:"artist_id"`
	Year     int     `json:"year"`
	Duration float64 `json:"duration"`
}

// Artist is a row of the artists dimension.
type Artist struct {
	ArtistID  string   `json:"artist_id"`
	Name      string   `json:"name"`
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// User is a row of the users dimension.
type User struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
	Level     string `json:"level"` // free or paid, from the user's latest play
}

// TimeRow is a row of the time dimension. All fields derive from StartTime (UTC).
type TimeRow struct {
	StartTime time.Time `json:"start_time"`
	Hour      int       `json:"hour"`
	Day       int       `json:"day"`
	Week      int       `json:"week"` // ISO-8601 week of year
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	Weekday   int       `json:"weekday"` // 1 = Sunday ... 7 = Saturday
}

// Songplay is a row of the songplays fact table.
type Songplay struct {
	SongplayID int64     `json:"songplay_id"`
	StartTime  time.Time `json:"start_time"`
	UserID     string    `json:"user_id"`
	Level      string    `json:"level"`
	SongID     *string   `json:"song_id"`   // nil when unmatched
	ArtistID   *string   `json:"artist_id"` // nil when unmatched
	SessionID  int64     `json:"session_id"`
	Location   string    `json:"location"`
	UserAgent  string    `json:"user_agent"`

	// Partition columns
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Matched reports whether the play was resolved to a song.
func (s *Songplay) Matched() bool {
	return s.SongID != nil
}
