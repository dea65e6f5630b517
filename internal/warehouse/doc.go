// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

// Package warehouse writes star-schema tables to an object store as
// Hive-partitioned Parquet.
//
// # Write Path
//
// Writer.Write handles one table at a time:
//
//  1. Rows are bulk loaded into a DuckDB staging table through the Appender,
//     on a single pinned connection.
//  2. COPY exports the staging table to a local directory with ZSTD
//     compression. Partitioned tables use PARTITION_BY and produce
//     key=value directories; unpartitioned tables produce part-0.parquet.
//  3. The staged files are published under <table>/ in the destination store.
//     Existing objects under that prefix are deleted first, and a _SUCCESS
//     marker is written last.
//
// A table counts as written only once _SUCCESS exists. If an upload fails,
// the objects already uploaded are deleted and Write returns an error wrapping
// ErrWriteFailure. An empty table publishes only the marker.
//
// # Layout
//
//	songs/year=2000/artist_id=ARAAA1/data_0.parquet
//	artists/part-0.parquet
//	users/part-0.parquet
//	time/year=2018/month=11/data_0.parquet
//	songplays/year=2018/month=11/data_0.parquet
//
// Partition columns are encoded in the directory names and are not repeated
// inside the files; read them back with hive_partitioning enabled:
//
//	SELECT * FROM read_parquet('out/songplays/**/*.parquet', hive_partitioning = true)
package warehouse
