/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor wires a scene, its history, the interaction controller and
// persistence into one editing session. Front ends (the fyne UI, the CLI and
// the HTTP API) drive the session instead of touching the pieces directly.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"floorplan/internal/config"
	"floorplan/internal/geometry"
	"floorplan/internal/interact"
	"floorplan/internal/layout"
	applog "floorplan/internal/log"
	"floorplan/internal/scan"
	"floorplan/internal/scene"
	"floorplan/internal/storage"
	"floorplan/internal/telemetry"
	"floorplan/internal/undo"
)

// Font size bounds accepted by the text tools.
const (
	MinFontSize = 8
	MaxFontSize = 72
)

var (
	// ErrEmptyText rejects a text label without visible content.
	ErrEmptyText = errors.New("text is empty")
	// ErrNotText means the selection is not a text label.
	ErrNotText = errors.New("selection is not a text element")
)

const autosaveTimeout = 2 * time.Second

// Options configure a session. Zero values fall back to the scene and
// generator defaults; a nil Index disables autosave.
type Options struct {
	GridSize     int
	UnitScale    float64
	Layout       layout.Options
	Scan         scan.Options
	History      undo.Config
	Index        *storage.Index
	Autosave     bool
	AutosaveKeep int
	Telemetry    *telemetry.Client
}

// OptionsFrom maps the user configuration onto session options.
func OptionsFrom(cfg config.AppConfig) Options {
	lo := layout.DefaultOptions()
	if cfg.Editor.Density > 0 {
		lo.Density = cfg.Editor.Density
	}
	return Options{
		GridSize:     cfg.Editor.GridSize,
		UnitScale:    cfg.Editor.UnitScale,
		Layout:       lo,
		Scan:         scan.Options{MaxDimension: cfg.Scan.MaxDimension},
		History:      undo.Config{MaxDepth: cfg.Editor.HistoryDepth, MaxBytes: int(cfg.Editor.HistoryBytes)},
		Autosave:     cfg.Editor.Autosave,
		AutosaveKeep: cfg.Editor.AutosaveKeep,
	}
}

// Session is one open floor plan. It is not safe for concurrent use; scan
// results produced off the event thread are installed with InstallScan.
type Session struct {
	scene   *scene.Scene
	history *scene.History
	ctrl    *interact.Controller
	opts    Options
	log     *slog.Logger

	path     string
	layoutID string
}

// New returns a session over an empty scene.
func New(opts Options) *Session {
	s := scene.NewScene()
	if opts.GridSize > 0 {
		s.GridSize = opts.GridSize
	}
	if opts.UnitScale > 0 {
		s.UnitScale = opts.UnitScale
	}
	if opts.Layout.Density <= 0 {
		opts.Layout = layout.DefaultOptions()
	}
	sess := &Session{scene: s, opts: opts, log: applog.WithComponent("editor")}
	sess.history = scene.AttachHistory(s, opts.History)
	// the session sits between the scene and its history to autosave
	s.SetCommitter(sess)
	sess.ctrl = interact.New(s)
	return sess
}

func (s *Session) Scene() *scene.Scene              { return s.scene }
func (s *Session) History() *scene.History          { return s.history }
func (s *Session) Controller() *interact.Controller { return s.ctrl }

// LayoutPath is the file last saved to or loaded from; empty when unsaved.
func (s *Session) LayoutPath() string { return s.path }

// LayoutID is the index id of the open layout; empty without an index.
func (s *Session) LayoutID() string { return s.layoutID }

// Commit snapshots the scene and autosaves when enabled.
func (s *Session) Commit() {
	s.history.Commit()
	s.autosave()
}

// Undo restores the previous state. It reports false at the initial state.
func (s *Session) Undo() bool {
	if !s.history.Undo() {
		return false
	}
	s.autosave()
	return true
}

// Redo re-applies the last undone state.
func (s *Session) Redo() bool {
	if !s.history.Redo() {
		return false
	}
	s.autosave()
	return true
}

// AddRoomMeters adds a room from a real-world footprint.
func (s *Session) AddRoomMeters(d Dims) (*scene.Area, error) {
	if err := layout.CheckRoom(d.Width, d.Height); err != nil {
		return nil, err
	}
	r := d.pixels(s.scene)
	return s.scene.AddRoom(r.X, r.Y, r.W, r.H), nil
}

// AddBorderMeters adds a house border. It is checked against the room
// minimum; only the generator requires the full house minimum.
func (s *Session) AddBorderMeters(d Dims) (*scene.Area, error) {
	if err := layout.CheckRoom(d.Width, d.Height); err != nil {
		return nil, err
	}
	r := d.pixels(s.scene)
	return s.scene.AddHouseBorder(r.X, r.Y, r.W, r.H), nil
}

// GenerateMeters replaces the scene with a generated four-room layout.
// Undersized rooms are reported in the returned Report, not as an error.
func (s *Session) GenerateMeters(d Dims) (layout.Report, error) {
	if err := layout.CheckHouse(d.Width, d.Height); err != nil {
		return layout.Report{}, err
	}
	rep := layout.Generate(s.scene, d.pixels(s.scene), s.opts.Layout)
	s.opts.Telemetry.Event(telemetry.EventLayoutGenerated, map[string]any{
		"rooms":      len(rep.Rooms),
		"elements":   rep.Elements,
		"violations": len(rep.Violations),
	})
	return rep, nil
}

// AddPreset appends a furnished preset room.
func (s *Session) AddPreset(p layout.Preset) error {
	return layout.AddPreset(s.scene, p, s.opts.Layout)
}

// ClampFontSize folds a font size into the accepted range.
func ClampFontSize(size float64) float64 {
	return max(MinFontSize, min(MaxFontSize, size))
}

// AddText places a text label at p.
func (s *Session) AddText(p geometry.Pt, content string, fontSize float64) (*scene.Label, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyText
	}
	return s.scene.AddText(p.X, p.Y, content, ClampFontSize(fontSize)), nil
}

// EditText updates the selected text label.
func (s *Session) EditText(content string, fontSize float64) error {
	if !s.scene.EditText(content, ClampFontSize(fontSize)) {
		return ErrNotText
	}
	return nil
}

// Scan starts the image pipeline on its own goroutine.
func (s *Session) Scan(ctx context.Context, path string) <-chan scan.Result {
	return scan.Async(ctx, path, s.opts.Scan)
}

// InstallScan appends the elements of a successful scan in one committed step.
func (s *Session) InstallScan(res scan.Result) error {
	if !res.Success {
		if res.Err == nil {
			return scan.ErrPipeline
		}
		return res.Err
	}
	s.scene.Append(scene.CloneAll(res.Elements)...)
	s.log.Info("scan installed", slog.Int("elements", len(res.Elements)),
		slog.Int("walls", res.Walls), slog.Int("rooms", res.Rooms), slog.Int("circles", res.Circles))
	s.opts.Telemetry.Event(telemetry.EventScanCompleted, map[string]any{
		"walls":   res.Walls,
		"rooms":   res.Rooms,
		"circles": res.Circles,
	})
	return nil
}

func (s *Session) autosave() {
	ix := s.opts.Index
	if !s.opts.Autosave || ix == nil || s.layoutID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(applog.WithLayout(context.Background(), s.path), autosaveTimeout)
	defer cancel()
	if err := ix.SaveAutosave(ctx, s.layoutID, s.history.Top(), time.Now()); err != nil {
		s.log.WarnContext(ctx, "autosave failed", slog.Any("err", err))
		return
	}
	if s.opts.AutosaveKeep > 0 {
		if _, err := ix.PruneAutosaves(ctx, s.layoutID, s.opts.AutosaveKeep); err != nil {
			s.log.WarnContext(ctx, "autosave prune failed", slog.Any("err", err))
		}
	}
}
