// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

/*
Package transform derives the star-schema tables from raw records.

Every function here is a pure mapping from input records to output rows.
Outputs are sorted by primary key so that two runs over the same input
produce identical tables.

# Deduplication

  - songs: one row per song_id; the record with the earliest origin
    (object key, then line) wins.
  - artists: one row per artist_id; earliest origin wins.
  - users: one row per user_id; the play with the greatest ts wins, and on a
    ts tie the later origin wins.
  - time: one row per distinct start_time.

# Songplays

BuildSongplays resolves each play against songs joined to artists on
(title, artist name, duration). Unmatched plays keep nil song and artist IDs.
songplay_id values are assigned per partition from prefix-summed offsets, so
IDs run contiguously from 1 without coordination between workers.

All timestamps are UTC.
*/
package transform
