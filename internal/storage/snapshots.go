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
	"time"
)

// language=SQL
// dialect=SQLite
const insertAutosaveSQL = `INSERT INTO autosaves(layout_id, ts, blob) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestAutosaveSQL = `SELECT ts, blob FROM autosaves WHERE layout_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listAutosavesSQL = `SELECT ts, blob FROM autosaves WHERE layout_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneAutosavesSQL = `DELETE FROM autosaves WHERE layout_id = ? AND id NOT IN (
	SELECT id FROM autosaves WHERE layout_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// Autosave is one stored history snapshot of a layout.
type Autosave struct {
	TS   time.Time
	Blob []byte
}

// SaveAutosave stores an encoded element sequence for the layout.
func (ix *Index) SaveAutosave(ctx context.Context, layoutID string, blob []byte, ts time.Time) error {
	if layoutID == "" {
		return errors.New("layout id is required")
	}
	_, err := ix.db.ExecContext(ctx, insertAutosaveSQL, layoutID, ts.UTC().Format(tsLayout), blob)
	return err
}

// LatestAutosave returns the newest autosave, or nil when there is none.
func (ix *Index) LatestAutosave(ctx context.Context, layoutID string) (*Autosave, error) {
	var tsStr string
	var blob []byte
	err := ix.db.QueryRowContext(ctx, selectLatestAutosaveSQL, layoutID).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ts, _ := time.Parse(tsLayout, tsStr)
	return &Autosave{TS: ts, Blob: blob}, nil
}

// ListAutosaves returns up to limit autosaves, newest first.
func (ix *Index) ListAutosaves(ctx context.Context, layoutID string, limit int) ([]Autosave, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := ix.db.QueryContext(ctx, listAutosavesSQL, layoutID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Autosave
	for rows.Next() {
		var tsStr string
		var blob []byte
		if err := rows.Scan(&tsStr, &blob); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(tsLayout, tsStr)
		out = append(out, Autosave{TS: ts, Blob: blob})
	}
	return out, rows.Err()
}

// PruneAutosaves keeps the newest keepLast autosaves of the layout.
func (ix *Index) PruneAutosaves(ctx context.Context, layoutID string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := ix.db.ExecContext(ctx, pruneAutosavesSQL, layoutID, layoutID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
