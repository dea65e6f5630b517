// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestGenerateRunID(t *testing.T) {
	t.Parallel()

	id1 := GenerateRunID()
	id2 := GenerateRunID()

	if len(id1) != 36 {
		t.Errorf("expected 36-character run ID, got %d", len(id1))
	}
	if id1 == id2 {
		t.Error("expected unique run IDs")
	}
}

func TestRunIDContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if id := RunIDFromContext(ctx); id != "" {
		t.Errorf("expected empty run ID, got %s", id)
	}

	ctx = ContextWithRunID(ctx, "run-123")
	if id := RunIDFromContext(ctx); id != "run-123" {
		t.Errorf("expected run-123, got %s", id)
	}
}

func TestStageContext(t *testing.T) {
	t.Parallel()

	ctx := ContextWithStage(context.Background(), "read_songs")
	if s := StageFromContext(ctx); s != "read_songs" {
		t.Errorf("expected read_songs, got %s", s)
	}
	if s := StageFromContext(context.Background()); s != "" {
		t.Errorf("expected empty stage, got %s", s)
	}
}

func TestCtxAddsRunFields(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer Init(DefaultConfig())
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := ContextWithRunID(context.Background(), "run-abc")
	ctx = ContextWithStage(ctx, "write")

	Ctx(ctx).Info().Msg("hello")

	output := buf.String()
	if !strings.Contains(output, `"run_id":"run-abc"`) {
		t.Errorf("expected run_id field, got: %s", output)
	}
	if !strings.Contains(output, `"stage":"write"`) {
		t.Errorf("expected stage field, got: %s", output)
	}
}

func TestCtxWithoutFields(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer Init(DefaultConfig())
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	Ctx(context.Background()).Info().Msg("plain")

	output := buf.String()
	if strings.Contains(output, "run_id") || strings.Contains(output, "stage") {
		t.Errorf("expected no context fields, got: %s", output)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := ContextWithRunID(context.Background(), "run-xyz")
	Component(ctx, "warehouse").Info().Str("table", "songs").Msg("Table written")

	output := buf.String()
	for _, want := range []string{`"component":"warehouse"`, `"run_id":"run-xyz"`, `"table":"songs"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s, got: %s", want, output)
		}
	}
}
