// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey int

const (
	runIDKey contextKey = iota
	stageKey
)

// GenerateRunID returns a random UUID identifying one pipeline run.
func GenerateRunID() string {
	return uuid.New().String()
}

// ContextWithRunID attaches a run ID to ctx.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run ID attached to ctx, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// ContextWithStage attaches the current pipeline stage to ctx.
func ContextWithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage attached to ctx, or "".
func StageFromContext(ctx context.Context) string {
	s, _ := ctx.Value(stageKey).(string)
	return s
}

// Ctx returns the global logger with the run_id and stage carried by ctx.
//
//	logging.Ctx(ctx).Info().Int("rows", n).Msg("Partition decoded")
//	// {"level":"info","run_id":"...","stage":"read_logs","rows":8056,"message":"Partition decoded"}
func Ctx(ctx context.Context) *zerolog.Logger {
	l := withRunFields(ctx, Logger().With()).Logger()
	return &l
}

// Component is Ctx with an added component field naming the subsystem.
//
//	logging.Component(ctx, "warehouse").Info().Str("table", "songs").Msg("Table written")
func Component(ctx context.Context, name string) *zerolog.Logger {
	l := withRunFields(ctx, Logger().With().Str("component", name)).Logger()
	return &l
}

func withRunFields(ctx context.Context, lc zerolog.Context) zerolog.Context {
	if id := RunIDFromContext(ctx); id != "" {
		lc = lc.Str("run_id", id)
	}
	if stage := StageFromContext(ctx); stage != "" {
		lc = lc.Str("stage", stage)
	}
	return lc
}
