// Soundlake - Star-Schema ETL for Music Streaming Activity
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundlake

package warehouse

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/soundlake/internal/config"
	"github.com/tomtom215/soundlake/internal/logging"
	"github.com/tomtom215/soundlake/internal/metrics"
	"github.com/tomtom215/soundlake/internal/objstore"
)

// SuccessMarker is written last under a table prefix once all files are published.
const SuccessMarker = "_SUCCESS"

// TableStats summarizes a table write.
type TableStats struct {
	Table     string `json:"table"`
	Rows      int    `json:"rows"`
	Files     int    `json:"files"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// Writer exports tables through an in-memory DuckDB instance and publishes
// them to a store. Writes are serialized.
type Writer struct {
	db         *sql.DB
	store      objstore.Store
	stagingDir string
	mu         sync.Mutex
}

// NewWriter opens an in-memory DuckDB instance tuned by cfg. Staged files
// are written under stagingDir, or the OS temp directory when empty.
func NewWriter(ctx context.Context, store objstore.Store, cfg config.DatabaseConfig, stagingDir string) (*Writer, error) {
	connStr := connString(cfg)

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		closeWithLog(db, "duckdb")
		return nil, fmt.Errorf("failed to connect to duckdb: %w", err)
	}

	if stagingDir != "" {
		if err := os.MkdirAll(stagingDir, 0o750); err != nil {
			closeWithLog(db, "duckdb")
			return nil, fmt.Errorf("failed to create staging directory %s: %w", stagingDir, err)
		}
	}

	return &Writer{db: db, store: store, stagingDir: stagingDir}, nil
}

// connString builds the in-memory DuckDB DSN. Zero threads means one per CPU
// and an empty memory limit means 2GB.
func connString(cfg config.DatabaseConfig) string {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}

	// Parquet support is built in; extension autoloading stays off so runs never reach the network.
	return fmt.Sprintf(":memory:?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		threads, maxMemory)
}

// Close releases the DuckDB instance.
func (w *Writer) Close() error {
	return w.db.Close()
}

// Write exports t and publishes it under <t.Name>/ in the destination store.
// Any failure is returned wrapped in ErrWriteFailure.
func (w *Writer) Write(ctx context.Context, t Table) (TableStats, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	stats, err := w.write(ctx, t)
	elapsed := time.Since(start)
	stats.Table = t.Name
	stats.ElapsedMS = elapsed.Milliseconds()

	metrics.RecordTableWrite(t.Name, stats.Rows, stats.Files, elapsed, err)
	if err != nil {
		return stats, fmt.Errorf("%w: table %s: %w", ErrWriteFailure, t.Name, err)
	}

	logging.Component(ctx, "warehouse").Info().
		Str("table", t.Name).
		Int("rows", stats.Rows).
		Int("files", stats.Files).
		Dur("elapsed", elapsed).
		Str("uri", w.store.URI(t.Name+"/")).
		Msg("Table written")
	return stats, nil
}

func (w *Writer) write(ctx context.Context, t Table) (TableStats, error) {
	var stats TableStats

	stage, err := os.MkdirTemp(w.stagingDir, "soundlake-"+t.Name+"-")
	if err != nil {
		return stats, fmt.Errorf("create staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(stage); err != nil {
			logging.Component(ctx, "warehouse").Warn().Err(err).Str("dir", stage).Msg("Failed to remove staging directory")
		}
	}()

	out := filepath.Join(stage, "out")
	rows, err := w.export(ctx, t, out)
	if err != nil {
		return stats, err
	}
	stats.Rows = rows

	files, err := stagedFiles(out)
	if err != nil {
		return stats, err
	}

	if err := w.publish(ctx, t.Name, files); err != nil {
		return stats, err
	}
	stats.Files = len(files)
	return stats, nil
}

// export loads t into a staging table and copies it to Parquet under dir.
// Nothing is written when t has no rows.
func (w *Writer) export(ctx context.Context, t Table, dir string) (int, error) {
	conn, err := w.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire duckdb connection: %w", err)
	}
	defer closeWithLog(conn, "duckdb connection")

	staging := "stage_" + t.Name
	if _, err := conn.ExecContext(ctx, createTableSQL(staging, t.Columns)); err != nil {
		return 0, fmt.Errorf("create staging table: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.WithoutCancel(ctx), "DROP TABLE IF EXISTS "+quoteIdent(staging)); err != nil {
			logging.Component(ctx, "warehouse").Warn().Err(err).Str("table", staging).Msg("Failed to drop staging table")
		}
	}()

	rows, err := appendRows(ctx, conn, staging, t)
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, fmt.Errorf("create export directory: %w", err)
	}
	if _, err := conn.ExecContext(ctx, copySQL(staging, dir, t.PartitionBy)); err != nil {
		return 0, fmt.Errorf("export parquet: %w", err)
	}
	return rows, nil
}

// appendRows bulk loads t.Rows through the DuckDB Appender.
func appendRows(ctx context.Context, conn *sql.Conn, table string, t Table) (int, error) {
	rows := 0
	err := conn.Raw(func(driverConn any) error {
		dc, ok := driverConn.(driver.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		appender, err := duckdb.NewAppenderFromConn(dc, "", table)
		if err != nil {
			return fmt.Errorf("create appender: %w", err)
		}

		for row := range t.Rows {
			if len(row) != len(t.Columns) {
				closeWithLog(appender, "appender")
				return fmt.Errorf("row %d has %d values, want %d", rows+1, len(row), len(t.Columns))
			}
			if err := appender.AppendRow(row...); err != nil {
				closeWithLog(appender, "appender")
				return fmt.Errorf("append row %d: %w", rows+1, err)
			}
			rows++
			if rows%10000 == 0 {
				if err := ctx.Err(); err != nil {
					closeWithLog(appender, "appender")
					return err
				}
			}
		}

		if err := appender.Close(); err != nil {
			return fmt.Errorf("flush appender: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rows, nil
}

func createTableSQL(name string, cols []Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quoteIdent(c.Name) + " " + c.Type
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
}

// copySQL builds the Parquet export statement. Without partition columns the
// table is written to a single part-0.parquet file inside dir.
func copySQL(table, dir string, partitionBy []string) string {
	if len(partitionBy) == 0 {
		return fmt.Sprintf("COPY %s TO %s (FORMAT PARQUET, COMPRESSION 'ZSTD')",
			quoteIdent(table), quoteLiteral(filepath.Join(dir, "part-0.parquet")))
	}

	cols := make([]string, len(partitionBy))
	for i, c := range partitionBy {
		cols[i] = quoteIdent(c)
	}
	return fmt.Sprintf("COPY %s TO %s (FORMAT PARQUET, COMPRESSION 'ZSTD', PARTITION_BY (%s), OVERWRITE_OR_IGNORE)",
		quoteIdent(table), quoteLiteral(dir), strings.Join(cols, ", "))
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

type stagedFile struct {
	path string // local path
	key  string // slash-separated path relative to the table root
}

// stagedFiles lists exported files under dir in key order. A missing dir yields none.
func stagedFiles(dir string) ([]stagedFile, error) {
	var files []stagedFile
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, stagedFile{path: p, key: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list staged files: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].key < files[j].key })
	return files, nil
}
