// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

/*
Package models defines the record shapes read from the input store and the
row types of the star schema written to the output store.

# Raw Records

RawSongRecord and RawLogRecord mirror the line-delimited JSON of the song
metadata and activity log files. Nullable source fields are pointers. Both
carry an Origin (object key and line number) used as a deterministic
tie-break when duplicates are collapsed.

# Star Schema

	            songs           artists
	              \               /
	time ------ songplays ------ users

Dimension rows are Song, Artist, User and TimeRow. Songplay is the fact row;
its SongID and ArtistID are nil when the play could not be matched to song
metadata.
*/
package models
