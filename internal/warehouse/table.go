// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package warehouse

import (
	"database/sql/driver"
	"iter"

	"github.com/tomtom215/soundlake/internal/models"
)

// Output table names.
const (
	TableSongs     = "songs"
	TableArtists   = "artists"
	TableUsers     = "users"
	TableTime      = "time"
	TableSongplays = "songplays"
)

// Column is a named DuckDB column.
type Column struct {
	Name string
	Type string // DuckDB type, e.g. VARCHAR, INTEGER, DOUBLE, TIMESTAMP
}

// Table is a dataset ready to be written. Each row holds one value per
// column, in column order; use nil for NULL.
type Table struct {
	Name        string
	Columns     []Column
	PartitionBy []string
	Rows        iter.Seq[[]driver.Value]
}

func rowsOf[T any](items []T, row func(*T) []driver.Value) iter.Seq[[]driver.Value] {
	return func(yield func([]driver.Value) bool) {
		for i := range items {
			if !yield(row(&items[i])) {
				return
			}
		}
	}
}

// nullable converts an optional value to a driver value, mapping nil to NULL.
func nullable[T any](p *T) driver.Value {
	if p == nil {
		return nil
	}
	return *p
}

// SongsTable describes the songs dimension, partitioned by (year, artist_id).
func SongsTable(songs []models.Song) Table {
	return Table{
		Name: TableSongs,
		Columns: []Column{
			{"song_id", "VARCHAR"},
			{"title", "VARCHAR"},
			{"artist_id", "VARCHAR"},
			{"year", "INTEGER"},
			{"duration", "DOUBLE"},
		},
		PartitionBy: []string{"year", "artist_id"},
		Rows: rowsOf(songs, func(s *models.Song) []driver.Value {
			return []driver.Value{s.SongID, s.Title, s.ArtistID, int32(s.Year), s.Duration}
		}),
	}
}

// ArtistsTable describes the unpartitioned artists dimension.
func ArtistsTable(artists []models.Artist) Table {
	return Table{
		Name: TableArtists,
		Columns: []Column{
			{"artist_id", "VARCHAR"},
			{"name", "VARCHAR"},
			{"location", "VARCHAR"},
			{"latitude", "DOUBLE"},
			{"longitude", "DOUBLE"},
		},
		Rows: rowsOf(artists, func(a *models.Artist) []driver.Value {
			return []driver.Value{a.ArtistID, a.Name, a.Location, nullable(a.Latitude), nullable(a.Longitude)}
		}),
	}
}

// UsersTable describes the unpartitioned users dimension.
func UsersTable(users []models.User) Table {
	return Table{
		Name: TableUsers,
		Columns: []Column{
			{"user_id", "VARCHAR"},
			{"first_name", "VARCHAR"},
			{"last_name", "VARCHAR"},
			{"gender", "VARCHAR"},
			{"level", "VARCHAR"},
		},
		Rows: rowsOf(users, func(u *models.User) []driver.Value {
			return []driver.Value{u.UserID, u.FirstName, u.LastName, u.Gender, u.Level}
		}),
	}
}

// TimeTable describes the time dimension, partitioned by (year, month).
func TimeTable(rows []models.TimeRow) Table {
	return Table{
		Name: TableTime,
		Columns: []Column{
			{"start_time", "TIMESTAMP"},
			{"hour", "INTEGER"},
			{"day", "INTEGER"},
			{"week", "INTEGER"},
			{"month", "INTEGER"},
			{"year", "INTEGER"},
			{"weekday", "INTEGER"},
		},
		PartitionBy: []string{"year", "month"},
		Rows: rowsOf(rows, func(r *models.TimeRow) []driver.Value {
			return []driver.Value{
				r.StartTime, int32(r.Hour), int32(r.Day), int32(r.Week),
				int32(r.Month), int32(r.Year), int32(r.Weekday),
			}
		}),
	}
}

// SongplaysTable describes the songplays fact table, partitioned by (year, month).
func SongplaysTable(plays []models.Songplay) Table {
	return Table{
		Name: TableSongplays,
		Columns: []Column{
			{"songplay_id", "BIGINT"},
			{"start_time", "TIMESTAMP"},
			{"user_id", "VARCHAR"},
			{"level", "VARCHAR"},
			{"song_id", "VARCHAR"},
			{"artist_id", "VARCHAR"},
			{"session_id", "BIGINT"},
			{"location", "VARCHAR"},
			{"user_agent", "VARCHAR"},
			{"year", "INTEGER"},
			{"month", "INTEGER"},
		},
		PartitionBy: []string{"year", "month"},
		Rows: rowsOf(plays, func(p *models.Songplay) []driver.Value {
			return []driver.Value{
				p.SongplayID, p.StartTime, p.UserID, p.Level,
				nullable(p.SongID), nullable(p.ArtistID),
				p.SessionID, p.Location, p.UserAgent,
				int32(p.Year), int32(p.Month),
			}
		}),
	}
}
