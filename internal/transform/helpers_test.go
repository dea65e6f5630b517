// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package transform

import "github.com/tomtom215/soundlake/internal/models"

func f64(v float64) *float64 { return &v }

func i64(v int64) *models.EpochMillis {
	ms := models.EpochMillis(v)
	return &ms
}

func origin(object string, line int) models.Origin {
	return models.Origin{Object: object, Line: line}
}

// play builds a NextSong event.
func play(user string, ts int64, song, artist string, length float64, o models.Origin) models.RawLogRecord {
	return models.RawLogRecord{
		Page:      models.PageNextSong,
		UserID:    models.FlexString(user),
		FirstName: "First" + user,
		LastName:  "Last" + user,
		Gender:    "F",
		Level:     "free",
		Song:      song,
		Artist:    artist,
		Length:    f64(length),
		TS:        i64(ts),
		SessionID: 1,
		Location:  "X",
		UserAgent: "Y",
		Origin:    o,
	}
}
