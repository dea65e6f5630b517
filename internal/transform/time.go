// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package transform

import (
	"slices"
	"time"

	"github.com/tomtom215/soundlake/internal/models"
)

// StartTime converts an epoch-millisecond event timestamp to UTC.
func StartTime(ts int64) time.Time {
	return time.UnixMilli(ts).UTC()
}

// NewTimeRow derives the calendar fields of t.
func NewTimeRow(t time.Time) models.TimeRow {
	t = t.UTC()
	_, week := t.ISOWeek()
	return models.TimeRow{
		StartTime: t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   int(t.Weekday()) + 1,
	}
}

// ExtractTime returns one row per distinct play timestamp, ordered by start_time.
func ExtractTime(plays []models.RawLogRecord) []models.TimeRow {
	seen := make(map[int64]struct{}, len(plays))
	stamps := make([]int64, 0, len(plays))
	for i := range plays {
		if plays[i].TS == nil {
			continue
		}
		ts := plays[i].TS.Int64()
		if _, dup := seen[ts]; dup {
			continue
		}
		seen[ts] = struct{}{}
		stamps = append(stamps, ts)
	}
	slices.Sort(stamps)

	rows := make([]models.TimeRow, len(stamps))
	for i, ts := range stamps {
		rows[i] = NewTimeRow(StartTime(ts))
	}
	return rows
}
