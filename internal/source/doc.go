// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

// Package source reads line-delimited JSON records from an object store.
//
// A Reader is bound to one store and one record shape. Every call re-lists the
// store, so a Reader holds no state between reads and a sequence can be
// restarted by calling Records again.
//
// # Reading
//
// Records returns a lazy iter.Seq2 that walks matching objects in key order and
// decodes them line by line:
//
//	r := source.NewReader(store, source.DecodeLog, source.Options{Dataset: "log"})
//	for rec, err := range r.Records(ctx, "log_data/**/*.json") {
//		if err != nil {
//			return err
//		}
//		...
//	}
//
// ReadPartitions decodes every matching object in parallel and returns one
// Partition per object, ordered by key.
//
// # Errors
//
// A pattern that matches nothing fails with ErrSourceUnavailable. A line that is
// not a JSON object, or that lacks a required key, is a MalformedRecordError:
// it is logged with its object and line number, counted, and skipped. Blank
// lines are ignored.
package source
