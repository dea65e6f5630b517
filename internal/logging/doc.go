// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

// Package logging provides centralized zerolog-based structured logging for Soundlake.
//
// Every pipeline run logs through a single global zerolog logger. JSON output
// is the default so run logs can be shipped to a log store alongside the
// Spark/EMR style job logs they replace; console output is available for
// local runs.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("table", "songs").Int("rows", n).Msg("Table written")
//	logging.Error().Err(err).Str("stage", "read_logs").Msg("Stage failed")
//
// # Run Correlation
//
// The pipeline stores the run ID and current stage in the context. Ctx adds
// both as fields so every line of a run can be grepped by run_id:
//
//	ctx = logging.ContextWithRunID(ctx, runID)
//	ctx = logging.ContextWithStage(ctx, "extract_users")
//	logging.Ctx(ctx).Warn().Str("object", key).Msg("Skipping malformed record")
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// # Testing
//
//	var buf bytes.Buffer
//	logging.SetLogger(logging.NewTestLogger(&buf))
package logging
