/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "floorplan/internal/log"
	"floorplan/internal/scene"
	"floorplan/internal/storage"
	"floorplan/internal/telemetry"
)

// SerializationError reports a layout that could not be read, validated,
// decoded or written. The scene is unchanged when it is returned.
type SerializationError struct {
	Op   string
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s layout %s: %v", e.Op, e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Document serializes the scene as a wrapped layout document.
func (s *Session) Document() ([]byte, error) {
	return scene.EncodeDocument(s.scene)
}

// Save writes the layout to path, keeping a backup of the previous file.
func (s *Session) Save(ctx context.Context, path string) error {
	ctx = applog.WithLayout(ctx, path)
	lg := applog.WithOperation(s.log, "save")
	data, err := s.Document()
	if err != nil {
		return &SerializationError{Op: "encode", Path: path, Err: err}
	}
	if err := storage.SaveLayout(path, data); err != nil {
		return &SerializationError{Op: "write", Path: path, Err: err}
	}
	s.path = path
	s.touch(ctx)
	lg.InfoContext(ctx, "layout saved", slog.Int("elements", s.scene.Len()), slog.Int("bytes", len(data)))
	s.opts.Telemetry.Event(telemetry.EventLayoutSaved, map[string]any{"elements": s.scene.Len()})
	return nil
}

// Load replaces the scene with the layout at path. On success the selection
// is cleared and the new state committed. On failure nothing changes; an
// unreadable file yields a chain holding *storage.CorruptError, whose Backup
// can be restored with LoadBackup.
func (s *Session) Load(ctx context.Context, path string) error {
	data, err := storage.ReadLayout(path)
	if err != nil {
		return &SerializationError{Op: "read", Path: path, Err: err}
	}
	return s.install(ctx, path, path, data)
}

// LoadBackup replaces the scene with the newest readable backup of path and
// adopts path as the layout file, so the next save repairs it.
func (s *Session) LoadBackup(ctx context.Context, path string) error {
	data, source, err := storage.ReadBackup(path)
	if err != nil {
		return &SerializationError{Op: "read", Path: path, Err: err}
	}
	if err := s.install(ctx, path, source, data); err != nil {
		return err
	}
	s.log.WarnContext(applog.WithLayout(ctx, path), "layout restored from backup", slog.String("backup", source))
	return nil
}

func (s *Session) install(ctx context.Context, path, source string, data []byte) error {
	ctx = applog.WithLayout(ctx, path)
	lg := applog.WithOperation(s.log, "load")
	if err := storage.ValidateLayout(data); err != nil {
		return &SerializationError{Op: "validate", Path: source, Err: err}
	}
	dec, err := scene.DecodeDocument(data)
	if err != nil {
		return &SerializationError{Op: "decode", Path: source, Err: err}
	}
	dec.Apply(s.scene)
	s.scene.ClearSelection()
	s.path = path
	s.touch(ctx)
	s.Commit()
	lg.InfoContext(ctx, "layout loaded", slog.Int("elements", s.scene.Len()), slog.Bool("wrapped", dec.Wrapped))
	return nil
}

func (s *Session) touch(ctx context.Context) {
	if s.opts.Index == nil {
		return
	}
	id, err := s.opts.Index.Touch(ctx, s.path, s.scene.Len())
	if err != nil {
		s.log.WarnContext(ctx, "index update failed", slog.Any("err", err))
		return
	}
	s.layoutID = id
}

// Recent lists recently opened layouts, newest first; nil without an index.
func (s *Session) Recent(ctx context.Context, limit int) ([]storage.RecentLayout, error) {
	if s.opts.Index == nil {
		return nil, nil
	}
	return s.opts.Index.Recent(ctx, limit)
}

// RestoreAutosave replaces the scene with the newest autosave of the open
// layout and commits. It reports false when there is none.
func (s *Session) RestoreAutosave(ctx context.Context) (bool, error) {
	if s.opts.Index == nil || s.layoutID == "" {
		return false, nil
	}
	snap, err := s.opts.Index.LatestAutosave(ctx, s.layoutID)
	if err != nil || snap == nil {
		return false, err
	}
	els, err := scene.UnmarshalElements(snap.Blob)
	if err != nil {
		return false, &SerializationError{Op: "decode", Path: "autosave " + snap.TS.Format(time.RFC3339), Err: err}
	}
	s.scene.Replace(els)
	s.Commit()
	s.log.Info("autosave restored", slog.Time("ts", snap.TS), slog.Int("elements", len(els)))
	return true, nil
}

// CrashSave writes the current layout next to the open file's backups, or
// into the temp dir when the layout was never saved, and returns the path.
func (s *Session) CrashSave() (string, error) {
	data, err := s.Document()
	if err != nil {
		return "", err
	}
	stamp := time.Now().Format(storage.BackupStamp)
	dir, base := os.TempDir(), "floorplan"
	if s.path != "" {
		dir = storage.BackupDir(s.path)
		base = strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.crash-%s.json", base, stamp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
