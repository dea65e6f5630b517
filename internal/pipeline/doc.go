// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

/*
Package pipeline runs one full rebuild of the star schema.

Stages run in order:

	read_songs -> read_logs -> extract_songs -> filter_plays ->
	extract_users -> build_songplays -> write (songs, artists, users, time, songplays)

A source that matches no objects aborts the run before anything is written.
A table write failure stops the remaining writes; tables already written in
the run are left in place. Either failure is returned as a *StageError naming
the stage and, for writes, the table.

Every run produces a RunReport. It is logged, and unless disabled it is
stored as _runs/<run_id>.json in the destination.
*/
package pipeline
