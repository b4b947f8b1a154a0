/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "floorplan/internal/log"
	"floorplan/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	IndexFileName = "index.sqlite"

	// tsLayout has fixed width so stored timestamps sort as text.
	tsLayout = "2006-01-02T15:04:05.000000000Z"

	// schemaVersion tracks the index schema; bump it together with a migration step.
	schemaVersion = 2
)

// Index is the per-user SQLite database of recent layouts and autosaves.
type Index struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// RecentLayout is one row of the recently opened list.
type RecentLayout struct {
	ID       string
	Path     string
	OpenedAt time.Time
	Elements int
}

// IndexPath returns the index location inside dir.
func IndexPath(dir string) string { return filepath.Join(dir, IndexFileName) }

// OpenIndex creates or opens the index in dir with WAL journaling and
// brings its schema up to date.
func OpenIndex(dir string) (*Index, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("index dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	path := IndexPath(dir)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready", slog.String("path", path))
	return &Index{db: db, path: path, log: applog.WithComponent("storage")}, nil
}

// Path returns the database file location.
func (ix *Index) Path() string { return ix.path }

// Close releases the database.
func (ix *Index) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}
	return ix.db.Close()
}

func ensureVersion(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, version.String(), ts, ts); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// keep schema for the migration step
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), ts); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS recent_layouts (
			id            TEXT    PRIMARY KEY,
			path          TEXT    NOT NULL UNIQUE,
			opened_at     TEXT    NOT NULL,
			element_count INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS autosaves (
			id        INTEGER PRIMARY KEY,
			layout_id TEXT    NOT NULL,
			ts        TEXT    NOT NULL,
			blob      BLOB    NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies the schema steps between the stored and current version.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_autosaves_layout_ts ON autosaves(layout_id, ts);`,
				`CREATE INDEX IF NOT EXISTS idx_recent_opened ON recent_layouts(opened_at);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// SchemaVersion returns the stored schema version.
func (ix *Index) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := ix.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

// language=SQL
// dialect=SQLite
const upsertRecentSQL = `INSERT INTO recent_layouts(id, path, opened_at, element_count) VALUES (?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET opened_at = excluded.opened_at, element_count = excluded.element_count`

// Touch records path as opened now and returns its stable layout id.
func (ix *Index) Touch(ctx context.Context, path string, elements int) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve layout path: %w", err)
	}
	id, err := ix.LayoutID(ctx, abs)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}
	ts := now().UTC().Format(tsLayout)
	if _, err := ix.db.ExecContext(ctx, upsertRecentSQL, id, abs, ts, elements); err != nil {
		return "", fmt.Errorf("record recent layout: %w", err)
	}
	ix.log.Debug("recent layout recorded", slog.String("id", id), slog.String("path", abs))
	return id, nil
}

// LayoutID returns the id recorded for path, or "" when it was never opened.
func (ix *Index) LayoutID(ctx context.Context, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve layout path: %w", err)
	}
	var id string
	err = ix.db.QueryRowContext(ctx, `SELECT id FROM recent_layouts WHERE path = ?`, abs).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup layout id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit layouts, most recently opened first.
func (ix *Index) Recent(ctx context.Context, limit int) ([]RecentLayout, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := ix.db.QueryContext(ctx, `SELECT id, path, opened_at, element_count FROM recent_layouts ORDER BY opened_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []RecentLayout
	for rows.Next() {
		var r RecentLayout
		var ts string
		if err := rows.Scan(&r.ID, &r.Path, &ts, &r.Elements); err != nil {
			return nil, err
		}
		r.OpenedAt, _ = time.Parse(tsLayout, ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Forget removes path and its autosaves from the index.
func (ix *Index) Forget(ctx context.Context, path string) error {
	id, err := ix.LayoutID(ctx, path)
	if err != nil || id == "" {
		return err
	}
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, q := range []string{`DELETE FROM autosaves WHERE layout_id = ?`, `DELETE FROM recent_layouts WHERE id = ?`} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("forget layout: %w", err)
		}
	}
	return tx.Commit()
}

// DetectAndRebuildIndex opens the index in dir and recreates it when it cannot
// be opened or fails an integrity check. The damaged file is kept in backups.
// It reports whether a rebuild happened.
func DetectAndRebuildIndex(ctx context.Context, dir string) (*Index, bool, error) {
	path := IndexPath(dir)
	ix, err := OpenIndex(dir)
	if err == nil {
		var chk string
		qerr := ix.db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk)
		if qerr == nil && strings.Contains(strings.ToLower(chk), "ok") {
			if _, perr := ix.db.ExecContext(ctx, `SELECT 1 FROM recent_layouts LIMIT 1;`); perr == nil {
				return ix, false, nil
			}
		}
		_ = ix.Close()
	}
	backupIndexFile(path)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	ix, rerr := OpenIndex(dir)
	if rerr != nil {
		return nil, false, fmt.Errorf("rebuild index: %w (open err: %v)", rerr, err)
	}
	ix.log.Warn("index rebuilt", slog.String("path", path))
	return ix, true, nil
}

func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), BackupsDirName)
	_ = os.MkdirAll(bdir, 0o755)
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), now().Format(BackupStamp)))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}
