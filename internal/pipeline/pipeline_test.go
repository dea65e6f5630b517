// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/soundlake/internal/config"
	"github.com/tomtom215/soundlake/internal/logging"
	"github.com/tomtom215/soundlake/internal/objstore"
	"github.com/tomtom215/soundlake/internal/source"
	"github.com/tomtom215/soundlake/internal/warehouse"
)

const (
	exampleSong = `{"num_songs":1,"artist_id":"ARAAA1","artist_latitude":null,"artist_longitude":null,` +
		`"artist_location":"","artist_name":"Test Artist","song_id":"SOAAA1","title":"Test Song","duration":210.5,"year":2000}`

	otherSong = `{"num_songs":1,"artist_id":"ARBBB1","artist_latitude":35.14968,"artist_longitude":-90.04892,` +
		`"artist_location":"Memphis, TN","artist_name":"Other Artist","song_id":"SOBBB1","title":"Other Song","duration":180.0,"year":1999}`

	matchedPlay = `{"artist":"Test Artist","auth":"Logged In","firstName":"A","gender":"F","itemInSession":0,` +
		`"lastName":"B","length":210.5,"level":"free","location":"X","method":"PUT","page":"NextSong",` +
		`"registration":1540919166796.0,"sessionId":1,"song":"Test Song","status":200,"ts":1541121934796,` +
		`"userAgent":"Y","userId":"10"}`

	unmatchedPlay = `{"artist":"Test Artist","auth":"Logged In","firstName":"A","gender":"F","itemInSession":1,` +
		`"lastName":"B","length":999.9,"level":"paid","location":"X","method":"PUT","page":"NextSong",` +
		`"registration":1540919166796.0,"sessionId":1,"song":"Test Song","status":200,"ts":1543665600000,` +
		`"userAgent":"Y","userId":"10"}`

	homeEvent = `{"artist":null,"auth":"Logged In","firstName":"C","gender":"M","itemInSession":2,` +
		`"lastName":"D","length":null,"level":"free","location":"Z","method":"GET","page":"Home",` +
		`"registration":null,"sessionId":2,"song":null,"status":200,"ts":1541121999999,"userAgent":"W","userId":"20"}`

	playWithoutTS = `{"artist":"Test Artist","page":"NextSong","song":"Test Song","length":210.5,"userId":"30"}`
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for key, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
}

func exampleInput() map[string]string {
	return map[string]string{
		"song_data/A/A/A/TRAAAAA.json": exampleSong + "\n",
		"song_data/A/A/B/TRAAAAB.json": otherSong + "\n",
		"log_data/2018/11/2018-11-02-events.json": strings.Join([]string{
			matchedPlay, homeEvent, `{broken`, playWithoutTS,
		}, "\n"),
		"log_data/2018/12/2018-12-01-events.json": unmatchedPlay + "\n",
	}
}

type harness struct {
	input  *objstore.LocalStore
	output *objstore.LocalStore
	writer *warehouse.Writer
}

func newHarness(t *testing.T, files map[string]string) *harness {
	t.Helper()
	inDir := t.TempDir()
	writeFiles(t, inDir, files)

	input, err := objstore.NewLocalStore(inDir)
	if err != nil {
		t.Fatalf("NewLocalStore(input) error = %v", err)
	}
	output, err := objstore.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore(output) error = %v", err)
	}
	w, err := warehouse.NewWriter(context.Background(), output, config.DatabaseConfig{MaxMemory: "256MB", Threads: 1}, t.TempDir())
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return &harness{input: input, output: output, writer: w}
}

func defaultOptions() Options {
	return Options{
		SongPattern:    "song_data/**/*.json",
		LogPattern:     "log_data/**/*.json",
		Workers:        2,
		WriteRunReport: true,
	}
}

func (h *harness) query(t *testing.T, table, columns, suffix string) [][]any {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()

	glob := filepath.Join(h.output.Root(), table, "**", "*.parquet")
	q := fmt.Sprintf("SELECT %s FROM read_parquet('%s', hive_partitioning = true) %s", columns, glob, suffix)
	rows, err := db.Query(q)
	if err != nil {
		t.Fatalf("query %s: %v", q, err)
	}
	defer rows.Close()

	cols, _ := rows.Columns()
	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return out
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	h := newHarness(t, exampleInput())
	ctx := logging.ContextWithRunID(context.Background(), "run-e2e")

	report, err := New(h.input, h.output, h.writer, defaultOptions()).Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !report.Succeeded || report.RunID != "run-e2e" {
		t.Errorf("report = %+v", report)
	}
	if got := report.Sources[DatasetSong]; got.Objects != 2 || got.Records != 2 {
		t.Errorf("song stats = %+v", got)
	}
	if got := report.Sources[DatasetLog]; got.Objects != 2 || got.Records != 4 || got.Malformed != 1 {
		t.Errorf("log stats = %+v", got)
	}
	if report.Plays != 2 || report.SkippedPlays != 1 {
		t.Errorf("plays = %d, skipped = %d", report.Plays, report.SkippedPlays)
	}
	if report.Join.Matched != 1 || report.Join.Unmatched != 1 {
		t.Errorf("join = %+v", report.Join)
	}
	wantRows := map[string]int{
		warehouse.TableSongs: 2, warehouse.TableArtists: 2, warehouse.TableUsers: 1,
		warehouse.TableTime: 2, warehouse.TableSongplays: 2,
	}
	for table, n := range wantRows {
		if got := report.Rows(table); got != n {
			t.Errorf("rows[%s] = %d, want %d", table, got, n)
		}
		if ok, err := objstore.Exists(ctx, h.output, table+"/"+warehouse.SuccessMarker); err != nil || !ok {
			t.Errorf("%s marker missing (err=%v)", table, err)
		}
	}

	plays := h.query(t, "songplays", "songplay_id, song_id, artist_id, user_id, level, year, month", "ORDER BY songplay_id")
	if len(plays) != 2 {
		t.Fatalf("songplays = %v", plays)
	}
	if plays[0][1] != "SOAAA1" || plays[0][2] != "ARAAA1" || plays[0][3] != "10" {
		t.Errorf("matched play = %v", plays[0])
	}
	if plays[1][1] != nil || plays[1][2] != nil {
		t.Errorf("unmatched play = %v, want null foreign keys", plays[1])
	}
	if plays[0][0] != int64(1) || plays[1][0] != int64(2) {
		t.Errorf("songplay ids = %v, %v", plays[0][0], plays[1][0])
	}

	users := h.query(t, "users", "user_id, level", "")
	if len(users) != 1 || users[0][0] != "10" || users[0][1] != "paid" {
		t.Errorf("users = %v, want user 10 at latest level paid", users)
	}

	times := h.query(t, "time", "start_time, weekday", "ORDER BY start_time")
	if len(times) != 2 {
		t.Fatalf("time = %v", times)
	}
	if st, ok := times[0][0].(time.Time); !ok || !st.Equal(time.UnixMilli(1541121934796)) {
		t.Errorf("start_time = %v", times[0][0])
	}
	if times[0][1] != int32(6) {
		t.Errorf("weekday = %v (%T), want 6 (Friday)", times[0][1], times[0][1])
	}

	rc, err := h.output.Open(ctx, RunReportPrefix+"run-e2e.json")
	if err != nil {
		t.Fatalf("run report missing: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	var saved RunReport
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Unmarshal run report: %v", err)
	}
	if !saved.Succeeded || saved.Tables[warehouse.TableSongplays].Rows != 2 {
		t.Errorf("saved report = %+v", saved)
	}
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, exampleInput())
	p := New(h.input, h.output, h.writer, defaultOptions())

	snapshot := func() map[string][]string {
		out := map[string][]string{}
		for _, table := range []string{"songs", "artists", "users", "time", "songplays"} {
			var rows []string
			for _, r := range h.query(t, table, "*", "") {
				rows = append(rows, fmt.Sprint(r))
			}
			slices.Sort(rows)
			out[table] = rows
		}
		return out
	}

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	first := snapshot()
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	second := snapshot()

	for table, rows := range first {
		if !slices.Equal(rows, second[table]) {
			t.Errorf("%s differs between runs:\n%v\n%v", table, rows, second[table])
		}
	}
}

func TestRun_SourceUnavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		files     map[string]string
		wantStage string
	}{
		{"no songs", map[string]string{"log_data/a.json": matchedPlay}, StageReadSongs},
		{"no logs", map[string]string{"song_data/a.json": exampleSong}, StageReadLogs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, tt.files)
			opts := defaultOptions()
			opts.WriteRunReport = false

			report, err := New(h.input, h.output, h.writer, opts).Run(context.Background())
			if !errors.Is(err, source.ErrSourceUnavailable) {
				t.Fatalf("error = %v, want ErrSourceUnavailable", err)
			}
			var se *StageError
			if !errors.As(err, &se) || se.Stage != tt.wantStage {
				t.Errorf("stage error = %v, want stage %s", err, tt.wantStage)
			}
			if report.Succeeded || report.FailedStage != tt.wantStage {
				t.Errorf("report = %+v", report)
			}

			objs, err := h.output.List(context.Background(), "")
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(objs) != 0 {
				t.Errorf("objects written despite source failure: %v", objs)
			}
		})
	}
}

// recordingWriter fails on one table and records the order of write attempts.
type recordingWriter struct {
	failOn  string
	written []string
}

func (w *recordingWriter) Write(_ context.Context, t warehouse.Table) (warehouse.TableStats, error) {
	w.written = append(w.written, t.Name)
	if t.Name == w.failOn {
		return warehouse.TableStats{}, fmt.Errorf("%w: table %s: disk full", warehouse.ErrWriteFailure, t.Name)
	}
	n := 0
	for range t.Rows {
		n++
	}
	return warehouse.TableStats{Table: t.Name, Rows: n}, nil
}

func TestRun_WriteFailureStopsRemainingWrites(t *testing.T) {
	t.Parallel()

	h := newHarness(t, exampleInput())
	w := &recordingWriter{failOn: warehouse.TableUsers}

	report, err := New(h.input, h.output, w, defaultOptions()).Run(context.Background())
	if !errors.Is(err, warehouse.ErrWriteFailure) {
		t.Fatalf("error = %v, want ErrWriteFailure", err)
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageWrite || se.Table != warehouse.TableUsers {
		t.Errorf("stage error = %#v", se)
	}
	if got := strings.Join(w.written, ","); got != "songs,artists,users" {
		t.Errorf("write order = %s", got)
	}
	if report.FailedTable != warehouse.TableUsers || report.Rows(warehouse.TableSongs) != 2 {
		t.Errorf("report = %+v", report)
	}

	ok, err := objstore.Exists(context.Background(), h.output, report.Key())
	if err != nil || !ok {
		t.Errorf("run report not written for failed run (err=%v)", err)
	}
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	h := newHarness(t, exampleInput())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := defaultOptions()
	opts.WriteRunReport = false
	_, err := New(h.input, h.output, h.writer, opts).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestStageError(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	tests := []struct {
		err  *StageError
		want string
	}{
		{&StageError{Stage: StageReadLogs, Err: base}, "stage read_logs: boom"},
		{&StageError{Stage: StageWrite, Table: "time", Err: base}, "stage write (table time): boom"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
		if !errors.Is(tt.err, base) {
			t.Error("errors.Is through StageError failed")
		}
	}
}
