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
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

func openTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	dir := t.TempDir()
	ix, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix, dir
}

func TestIndexInitCreatesWALAndTables(t *testing.T) {
	ix, _ := openTestIndex(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var mode string
	if err := ix.db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" && mode != "WAL" {
		t.Fatalf("expected WAL mode, got %s", mode)
	}
	var cnt int
	if err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('version','recent_layouts','autosaves')").Scan(&cnt); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if cnt != 3 {
		t.Fatalf("expected 3 tables, got %d", cnt)
	}
	if v, err := ix.SchemaVersion(ctx); err != nil || v != schemaVersion {
		t.Fatalf("schema version = %d, %v", v, err)
	}
}

func TestTouchKeepsStableIDAndOrdersRecent(t *testing.T) {
	ix, dir := openTestIndex(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	stubNow(t, base, base.Add(time.Second), base.Add(2*time.Second))

	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	idA, err := ix.Touch(ctx, a, 3)
	if err != nil {
		t.Fatalf("Touch a: %v", err)
	}
	if _, err := uuid.Parse(idA); err != nil {
		t.Fatalf("layout id must be a uuid: %q", idA)
	}
	if _, err := ix.Touch(ctx, b, 5); err != nil {
		t.Fatalf("Touch b: %v", err)
	}
	again, err := ix.Touch(ctx, a, 7)
	if err != nil || again != idA {
		t.Fatalf("reopening must reuse the id: %q vs %q (%v)", again, idA, err)
	}

	rs, err := ix.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(rs) != 2 || rs[0].Path != a || rs[0].Elements != 7 || rs[1].Path != b {
		t.Fatalf("unexpected recent list %+v", rs)
	}
	if !rs[0].OpenedAt.Equal(base.Add(2 * time.Second)) {
		t.Fatalf("opened_at mismatch: %v", rs[0].OpenedAt)
	}

	if err := ix.Forget(ctx, a); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if id, _ := ix.LayoutID(ctx, a); id != "" {
		t.Fatalf("forgotten layout still indexed")
	}
}

func TestAutosavesLatestListPrune(t *testing.T) {
	ix, _ := openTestIndex(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		blob := []byte(fmt.Sprintf(`[{"n":%d}]`, i))
		if err := ix.SaveAutosave(ctx, "L1", blob, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("SaveAutosave: %v", err)
		}
	}
	if err := ix.SaveAutosave(ctx, "L2", []byte("[]"), base); err != nil {
		t.Fatalf("SaveAutosave L2: %v", err)
	}
	if err := ix.SaveAutosave(ctx, "", []byte("[]"), base); err == nil {
		t.Fatalf("empty layout id must be rejected")
	}

	latest, err := ix.LatestAutosave(ctx, "L1")
	if err != nil || latest == nil {
		t.Fatalf("LatestAutosave: %v %v", latest, err)
	}
	if string(latest.Blob) != `[{"n":4}]` || !latest.TS.Equal(base.Add(4*time.Second)) {
		t.Fatalf("unexpected latest %s at %v", latest.Blob, latest.TS)
	}

	n, err := ix.PruneAutosaves(ctx, "L1", 2)
	if err != nil || n != 3 {
		t.Fatalf("prune removed %d, err %v", n, err)
	}
	list, err := ix.ListAutosaves(ctx, "L1", 0)
	if err != nil || len(list) != 2 || string(list[1].Blob) != `[{"n":3}]` {
		t.Fatalf("unexpected list after prune %+v %v", list, err)
	}
	if l2, _ := ix.ListAutosaves(ctx, "L2", 0); len(l2) != 1 {
		t.Fatalf("prune must not touch other layouts")
	}
	if none, err := ix.LatestAutosave(ctx, "missing"); err != nil || none != nil {
		t.Fatalf("missing layout must return nil, got %v %v", none, err)
	}
}

func TestMigrationUpgradesV1(t *testing.T) {
	dir := t.TempDir()
	idx := IndexPath(dir)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(idx))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
		`CREATE TABLE autosaves (id INTEGER PRIMARY KEY, layout_id TEXT NOT NULL, ts TEXT NOT NULL, blob BLOB NOT NULL);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	_ = db.Close()

	ix, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer ix.Close()
	if v, err := ix.SchemaVersion(ctx); err != nil || v != 2 {
		t.Fatalf("expected schema 2 after migration, got %d (%v)", v, err)
	}
	var cnt int
	if err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name IN ('idx_autosaves_layout_ts','idx_recent_opened')`).Scan(&cnt); err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected migration indexes, got %d", cnt)
	}
}

func TestDetectAndRebuildIndexOnCorruption(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ix, rebuilt, err := DetectAndRebuildIndex(ctx, dir)
	if err != nil || rebuilt {
		t.Fatalf("fresh index must open without rebuild: %v %v", rebuilt, err)
	}
	_ = ix.Close()

	if err := os.WriteFile(IndexPath(dir), []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	ix, rebuilt, err = DetectAndRebuildIndex(ctx, dir)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	defer ix.Close()
	if !rebuilt {
		t.Fatalf("expected rebuild to occur")
	}
	if _, err := ix.Touch(ctx, filepath.Join(dir, "x.json"), 1); err != nil {
		t.Fatalf("rebuilt index must be usable: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, BackupsDirName))
	if len(entries) == 0 {
		t.Fatalf("expected backup of the damaged index")
	}
}
