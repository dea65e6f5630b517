// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// histogramCount returns the number of observations recorded by a histogram child.
func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	m, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T is not a prometheus.Metric", o)
	}
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return out.GetHistogram().GetSampleCount()
}

func TestRecordSourceRead(t *testing.T) {
	dataset := "test_source_read"
	beforeObjects := testutil.ToFloat64(SourceObjectsRead.WithLabelValues(dataset))
	beforeRecords := testutil.ToFloat64(SourceRecordsRead.WithLabelValues(dataset))
	beforeBad := testutil.ToFloat64(SourceRecordsMalformed.WithLabelValues(dataset))

	RecordSourceRead(dataset, 71, 2)
	RecordSourceRead(dataset, 10, 0)

	if got := testutil.ToFloat64(SourceObjectsRead.WithLabelValues(dataset)) - beforeObjects; got != 2 {
		t.Errorf("objects read delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(SourceRecordsRead.WithLabelValues(dataset)) - beforeRecords; got != 81 {
		t.Errorf("records read delta = %v, want 81", got)
	}
	if got := testutil.ToFloat64(SourceRecordsMalformed.WithLabelValues(dataset)) - beforeBad; got != 2 {
		t.Errorf("malformed delta = %v, want 2", got)
	}
}

func TestRecordMalformed(t *testing.T) {
	dataset := "test_malformed"
	before := testutil.ToFloat64(SourceRecordsMalformed.WithLabelValues(dataset))

	RecordMalformed(dataset, 0)
	RecordMalformed(dataset, 3)

	if got := testutil.ToFloat64(SourceRecordsMalformed.WithLabelValues(dataset)) - before; got != 3 {
		t.Errorf("malformed delta = %v, want 3", got)
	}
}

func TestRecordJoin(t *testing.T) {
	beforeMatched := testutil.ToFloat64(JoinResults.WithLabelValues("matched"))
	beforeUnmatched := testutil.ToFloat64(JoinResults.WithLabelValues("unmatched"))

	RecordJoin(1, 6819)

	if got := testutil.ToFloat64(JoinResults.WithLabelValues("matched")) - beforeMatched; got != 1 {
		t.Errorf("matched delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(JoinResults.WithLabelValues("unmatched")) - beforeUnmatched; got != 6819 {
		t.Errorf("unmatched delta = %v, want 6819", got)
	}
}

func TestRecordStage(t *testing.T) {
	stage := "test_stage"
	before := histogramCount(t, StageDuration.WithLabelValues(stage))

	RecordStage(stage, 250*time.Millisecond)

	if got := histogramCount(t, StageDuration.WithLabelValues(stage)) - before; got != 1 {
		t.Errorf("stage observations delta = %d, want 1", got)
	}
}

func TestRecordTableWrite(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		rows      int
		files     int
		err       error
		wantRows  float64
		wantFiles float64
		wantErrs  float64
	}{
		{name: "successful write", table: "test_songs_ok", rows: 71, files: 69, wantRows: 71, wantFiles: 69},
		{name: "empty table", table: "test_empty_ok", rows: 0, files: 0},
		{name: "failed write", table: "test_users_fail", rows: 96, files: 1, err: errors.New("upload failed"), wantErrs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordTableWrite(tt.table, tt.rows, tt.files, time.Second, tt.err)

			if got := testutil.ToFloat64(WarehouseRowsWritten.WithLabelValues(tt.table)); got != tt.wantRows {
				t.Errorf("rows written = %v, want %v", got, tt.wantRows)
			}
			if got := testutil.ToFloat64(WarehouseFilesWritten.WithLabelValues(tt.table)); got != tt.wantFiles {
				t.Errorf("files written = %v, want %v", got, tt.wantFiles)
			}
			if got := testutil.ToFloat64(WarehouseWriteErrors.WithLabelValues(tt.table)); got != tt.wantErrs {
				t.Errorf("write errors = %v, want %v", got, tt.wantErrs)
			}
			if got := histogramCount(t, WarehouseWriteDuration.WithLabelValues(tt.table)); got != 1 {
				t.Errorf("write duration observations = %d, want 1", got)
			}
		})
	}
}

func TestRecordRun(t *testing.T) {
	beforeSuccess := testutil.ToFloat64(RunsTotal.WithLabelValues("success"))
	beforeFailure := testutil.ToFloat64(RunsTotal.WithLabelValues("failure"))

	RecordRun(time.Minute, errors.New("write songs: upload failed"))
	if got := testutil.ToFloat64(RunsTotal.WithLabelValues("failure")) - beforeFailure; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}

	start := time.Now().Unix()
	RecordRun(time.Minute, nil)
	if got := testutil.ToFloat64(RunsTotal.WithLabelValues("success")) - beforeSuccess; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(RunLastSuccess); got < float64(start) {
		t.Errorf("last success = %v, want >= %d", got, start)
	}
}

func TestRecordStoreOperation(t *testing.T) {
	backend := "test_backend"
	beforeOK := testutil.ToFloat64(StoreOperations.WithLabelValues(backend, "put", "success"))
	beforeErr := testutil.ToFloat64(StoreOperations.WithLabelValues(backend, "put", "error"))

	RecordStoreOperation(backend, "put", time.Millisecond, nil)
	RecordStoreOperation(backend, "put", time.Millisecond, errors.New("timeout"))

	if got := testutil.ToFloat64(StoreOperations.WithLabelValues(backend, "put", "success")) - beforeOK; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(StoreOperations.WithLabelValues(backend, "put", "error")) - beforeErr; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}

	RecordRateLimitWait(backend, 5*time.Millisecond)
	if got := histogramCount(t, StoreRateLimitWait.WithLabelValues(backend)); got < 1 {
		t.Errorf("rate limit observations = %d, want >= 1", got)
	}
}

func TestCircuitBreakerMetrics(t *testing.T) {
	cbName := "test-objstore"

	CircuitBreakerState.WithLabelValues(cbName).Set(2) // open
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues(cbName)); got != 2 {
		t.Errorf("state = %v, want 2", got)
	}

	CircuitBreakerTransitions.WithLabelValues(cbName, "closed", "open").Inc()
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues(cbName, "closed", "open")); got != 1 {
		t.Errorf("transitions = %v, want 1", got)
	}
}

// TestConcurrentMetricRecording verifies helpers are safe under concurrent use
func TestConcurrentMetricRecording(t *testing.T) {
	dataset := "test_concurrent"
	before := testutil.ToFloat64(SourceRecordsRead.WithLabelValues(dataset))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordSourceRead(dataset, 2, 0)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(SourceRecordsRead.WithLabelValues(dataset)) - before; got != 100 {
		t.Errorf("records delta = %v, want 100", got)
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	RecordStage("lint", time.Millisecond)
	RecordTableWrite("lint", 1, 1, time.Millisecond, nil)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s", p.Text)
	}
}
