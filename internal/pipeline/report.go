// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/soundlake/internal/logging"
	"github.com/tomtom215/soundlake/internal/objstore"
	"github.com/tomtom215/soundlake/internal/source"
	"github.com/tomtom215/soundlake/internal/transform"
	"github.com/tomtom215/soundlake/internal/warehouse"
)

// RunReportPrefix is the destination prefix holding run reports.
const RunReportPrefix = "_runs/"

// RunReport summarizes a pipeline run.
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
	Succeeded  bool      `json:"succeeded"`

	Sources      map[string]source.Stats         `json:"sources"`
	Plays        int                             `json:"plays"`
	SkippedPlays int                             `json:"skipped_plays"`
	Join         transform.JoinStats             `json:"join"`
	Tables       map[string]warehouse.TableStats `json:"tables"`

	FailedStage string `json:"failed_stage,omitempty"`
	FailedTable string `json:"failed_table,omitempty"`
	Error       string `json:"error,omitempty"`
}

func newRunReport(runID string, start time.Time) *RunReport {
	return &RunReport{
		RunID:     runID,
		StartedAt: start.UTC(),
		Sources:   make(map[string]source.Stats),
		Tables:    make(map[string]warehouse.TableStats),
	}
}

// finish stamps the end time and outcome.
func (r *RunReport) finish(end time.Time, err error) {
	r.FinishedAt = end.UTC()
	r.DurationMS = r.FinishedAt.Sub(r.StartedAt).Milliseconds()
	r.Succeeded = err == nil
	if err == nil {
		return
	}
	r.Error = err.Error()
	var se *StageError
	if errors.As(err, &se) {
		r.FailedStage = se.Stage
		r.FailedTable = se.Table
	}
}

// Rows returns the number of rows written to table, or 0 if it was not written.
func (r *RunReport) Rows(table string) int {
	return r.Tables[table].Rows
}

// Key is the destination key of the stored report.
func (r *RunReport) Key() string {
	return RunReportPrefix + r.RunID + ".json"
}

// Save writes the report as JSON to store under Key.
func (r *RunReport) Save(ctx context.Context, store objstore.Store) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := store.Put(ctx, r.Key(), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to store run report: %w", err)
	}
	return nil
}

// Log emits the report as a single structured log line.
func (r *RunReport) Log(ctx context.Context) {
	event := logging.Ctx(ctx).Info()
	if !r.Succeeded {
		event = logging.Ctx(ctx).Error().
			Str("failed_stage", r.FailedStage).
			Str("failed_table", r.FailedTable).
			Str("error", r.Error)
	}

	rows := make(map[string]int, len(r.Tables))
	for name, t := range r.Tables {
		rows[name] = t.Rows
	}

	event.
		Bool("succeeded", r.Succeeded).
		Int64("duration_ms", r.DurationMS).
		Int("plays", r.Plays).
		Int("skipped_plays", r.SkippedPlays).
		Int("join_matched", r.Join.Matched).
		Int("join_unmatched", r.Join.Unmatched).
		Interface("rows", rows).
		Msg("Pipeline run finished")
}
