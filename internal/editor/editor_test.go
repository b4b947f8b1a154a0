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
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"floorplan/internal/catalog"
	"floorplan/internal/geometry"
	"floorplan/internal/layout"
	"floorplan/internal/scan"
	"floorplan/internal/scene"
	"floorplan/internal/storage"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	return New(Options{})
}

func snapshot(t *testing.T, s *Session) []byte {
	t.Helper()
	b, err := scene.MarshalElements(s.Scene().Elements())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestParseDims(t *testing.T) {
	d, err := ParseDims("7", " 3 ", "15", "10.75")
	if err != nil {
		t.Fatalf("ParseDims: %v", err)
	}
	if d != (Dims{X: 7, Y: 3, Width: 15, Height: 10.75}) {
		t.Fatalf("unexpected dims %+v", d)
	}

	cases := []struct {
		name  string
		in    [4]string
		field string
	}{
		{"letters", [4]string{"7", "3", "abc", "10"}, "width"},
		{"empty", [4]string{"", "3", "15", "10"}, "x"},
		{"nan", [4]string{"7", "3", "15", "NaN"}, "height"},
		{"inf", [4]string{"7", "+Inf", "15", "10"}, "y"},
	}
	for _, c := range cases {
		_, err := ParseDims(c.in[0], c.in[1], c.in[2], c.in[3])
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError, got %v", c.name, err)
		}
		if ve.Field != c.field || !math.IsNaN(ve.Value) {
			t.Errorf("%s: got field %q value %v", c.name, ve.Field, ve.Value)
		}
		if !strings.Contains(ve.Error(), "not a number") {
			t.Errorf("%s: message %q", c.name, ve.Error())
		}
	}
}

func TestParseGenerateDimsDefaults(t *testing.T) {
	d, err := ParseGenerateDims("", " ", "", "")
	if err != nil {
		t.Fatalf("ParseGenerateDims: %v", err)
	}
	if d != (Dims{Width: 15, Height: 10.75}) {
		t.Fatalf("defaults not applied: %+v", d)
	}
	if _, err := ParseGenerateDims("x", "", "", ""); err == nil {
		t.Fatalf("non-numeric input must still fail")
	}
}

func TestAddRoomMetersValidates(t *testing.T) {
	s := newSession(t)
	_, err := s.AddRoomMeters(Dims{Width: 4.9, Height: 10})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "room width" || ve.Min != layout.MinRoomWidth {
		t.Fatalf("expected room width rejection, got %v", err)
	}
	if s.Scene().Len() != 0 || s.History().Depth() != 1 {
		t.Fatalf("rejected input must not touch the scene")
	}

	r, err := s.AddRoomMeters(Dims{X: 1, Y: 2, Width: 5, Height: 3.75})
	if err != nil {
		t.Fatalf("AddRoomMeters: %v", err)
	}
	if r.Rect != geometry.R(40, 80, 200, 150) {
		t.Fatalf("meters not converted with unit scale 40: %+v", r.Rect)
	}
	if s.History().Depth() != 2 {
		t.Fatalf("add must commit once, depth=%d", s.History().Depth())
	}
}

func TestAddBorderUsesRoomMinimum(t *testing.T) {
	s := newSession(t)
	b, err := s.AddBorderMeters(Dims{Width: 5, Height: 3.75})
	if err != nil {
		t.Fatalf("border at the room minimum must pass: %v", err)
	}
	if b.Type != catalog.HouseBorder {
		t.Fatalf("unexpected type %s", b.Type)
	}
	if _, err := s.AddBorderMeters(Dims{Width: 5, Height: 3}); err == nil {
		t.Fatalf("expected rejection below the room minimum")
	}
}

func TestGenerateMeters(t *testing.T) {
	s := newSession(t)
	s.Scene().AddElement(catalog.Chair, 1, 1, 0)
	before := snapshot(t, s)
	depth := s.History().Depth()

	if _, err := s.GenerateMeters(Dims{Width: 14, Height: 12}); err == nil {
		t.Fatalf("expected house width rejection")
	}
	if !bytes.Equal(before, snapshot(t, s)) || s.History().Depth() != depth {
		t.Fatalf("rejected generate must leave scene and history alone")
	}

	rep, err := s.GenerateMeters(Dims{Width: 15, Height: 10.75})
	if err != nil {
		t.Fatalf("GenerateMeters: %v", err)
	}
	if len(rep.Rooms) != 4 {
		t.Fatalf("expected 4 rooms, got %d", len(rep.Rooms))
	}
	if a, ok := s.Scene().At(0).(*scene.Area); !ok || a.Type != catalog.HouseBorder || a.W != 600 {
		t.Fatalf("first element must be the 600px house border, got %#v", s.Scene().At(0))
	}
	if s.History().Depth() != depth+1 {
		t.Fatalf("generate must commit once")
	}
}

func TestTextTools(t *testing.T) {
	s := newSession(t)
	if _, err := s.AddText(geometry.Pt{}, "   ", 14); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	l, err := s.AddText(geometry.Pt{X: 10, Y: 10}, "Kitchen", 100)
	if err != nil {
		t.Fatalf("AddText: %v", err)
	}
	if l.FontSize != MaxFontSize {
		t.Fatalf("font size not clamped: %v", l.FontSize)
	}

	if err := s.EditText("x", 12); !errors.Is(err, ErrNotText) {
		t.Fatalf("edit without selection must fail, got %v", err)
	}
	s.Scene().Select(0)
	if err := s.EditText("Dining", 2); err != nil {
		t.Fatalf("EditText: %v", err)
	}
	if l.Content != "Dining" || l.FontSize != MinFontSize {
		t.Fatalf("unexpected label %+v", l)
	}
}

func TestUndoRedoThroughSession(t *testing.T) {
	s := newSession(t)
	if s.Undo() {
		t.Fatalf("undo at the initial state must be a no-op")
	}
	s.Scene().AddElement(catalog.Sofa, 5, 5, 0)
	after := snapshot(t, s)
	if !s.Undo() || s.Scene().Len() != 0 {
		t.Fatalf("undo must remove the sofa")
	}
	if !s.Redo() || !bytes.Equal(after, snapshot(t, s)) {
		t.Fatalf("redo must restore the exact sequence")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "home.json")
	s := newSession(t)
	s.Scene().GridSize = 25
	if _, err := s.GenerateMeters(Dims{Width: 16, Height: 11}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := snapshot(t, s)
	ctx := context.Background()
	if err := s.Save(ctx, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, path); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if bs, _ := storage.Backups(path); len(bs) != 1 {
		t.Fatalf("second save must back up the first, got %v", bs)
	}

	other := newSession(t)
	other.Scene().AddElement(catalog.Chair, 0, 0, 0)
	other.Scene().Select(0)
	if err := other.Load(ctx, path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(want, snapshot(t, other)) {
		t.Fatalf("loaded elements differ")
	}
	if other.Scene().GridSize != 25 {
		t.Fatalf("grid size not restored: %d", other.Scene().GridSize)
	}
	if _, ok := other.Scene().Selection(); ok {
		t.Fatalf("load must clear the selection")
	}
	if other.LayoutPath() != path {
		t.Fatalf("layout path = %q", other.LayoutPath())
	}
	if !bytes.Equal(other.History().Top(), want) {
		t.Fatalf("load must commit the loaded state")
	}
}

func TestLoadBareArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	data := `[{"type":"room","x":0,"y":0,"width":100,"height":80},{"type":"wall","x1":0,"y1":0,"x2":50,"y2":0}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	s := newSession(t)
	if err := s.Load(context.Background(), path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Scene().Len() != 2 || s.Scene().GridSize != scene.DefaultGridSize {
		t.Fatalf("unexpected scene after bare load: len=%d grid=%d", s.Scene().Len(), s.Scene().GridSize)
	}
}

func TestLoadFailuresLeaveSceneUnchanged(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		body string
		want error
	}{
		{"schema", `{"version":"1.0","elements":[{"type":"room","x":"a","y":0,"width":1,"height":1}]}`, storage.ErrSchema},
		{"malformed", `{"elements": [`, nil},
	}
	for _, c := range cases {
		path := filepath.Join(dir, c.name+".json")
		if err := os.WriteFile(path, []byte(c.body), 0o644); err != nil {
			t.Fatal(err)
		}
		s := newSession(t)
		s.Scene().AddElement(catalog.Sink, 3, 3, 0)
		before := snapshot(t, s)
		depth := s.History().Depth()

		err := s.Load(context.Background(), path)
		var se *SerializationError
		if !errors.As(err, &se) {
			t.Fatalf("%s: expected SerializationError, got %v", c.name, err)
		}
		if c.want != nil && !errors.Is(err, c.want) {
			t.Errorf("%s: expected %v in chain, got %v", c.name, c.want, err)
		}
		if !bytes.Equal(before, snapshot(t, s)) || s.History().Depth() != depth {
			t.Errorf("%s: failed load changed the session", c.name)
		}
		if s.LayoutPath() != "" {
			t.Errorf("%s: failed load must not adopt the path", c.name)
		}
	}
}

func TestLoadCorruptFileIgnoresBackupUntilAsked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	ctx := context.Background()

	src := newSession(t)
	src.Scene().AddRoom(0, 0, 200, 150)
	if err := src.Save(ctx, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved := snapshot(t, src)
	if err := src.Save(ctx, path); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newSession(t)
	s.Scene().AddElement(catalog.Sink, 3, 3, 0)
	before := snapshot(t, s)
	depth := s.History().Depth()

	err := s.Load(ctx, path)
	var se *SerializationError
	if !errors.As(err, &se) || !errors.Is(err, storage.ErrCorrupt) {
		t.Fatalf("expected SerializationError wrapping ErrCorrupt, got %v", err)
	}
	var ce *storage.CorruptError
	if !errors.As(err, &ce) || ce.Backup == "" {
		t.Fatalf("error must name the available backup, got %v", err)
	}
	if !bytes.Equal(before, snapshot(t, s)) || s.History().Depth() != depth || s.LayoutPath() != "" {
		t.Fatalf("failed load changed the session")
	}

	if err := s.LoadBackup(ctx, path); err != nil {
		t.Fatalf("LoadBackup: %v", err)
	}
	if !bytes.Equal(saved, snapshot(t, s)) {
		t.Fatalf("backup contents not installed")
	}
	if s.LayoutPath() != path || s.History().Depth() != depth+1 {
		t.Fatalf("restore must adopt the path and commit, path=%q depth=%d", s.LayoutPath(), s.History().Depth())
	}
}

func TestLoadBackupWithoutBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	s := newSession(t)
	err := s.LoadBackup(context.Background(), path)
	if !errors.Is(err, storage.ErrNoBackup) {
		t.Fatalf("expected ErrNoBackup, got %v", err)
	}
	if s.Scene().Len() != 0 || s.LayoutPath() != "" {
		t.Fatalf("failed restore changed the session")
	}
}

func TestAutosaveToIndex(t *testing.T) {
	ix, err := storage.OpenIndex(t.TempDir())
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })

	s := New(Options{Index: ix, Autosave: true, AutosaveKeep: 2})
	s.Scene().AddElement(catalog.Chair, 0, 0, 0)
	if s.LayoutID() != "" {
		t.Fatalf("unsaved layouts have no id")
	}
	ctx := context.Background()
	if err := s.Save(ctx, filepath.Join(t.TempDir(), "a.json")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	id := s.LayoutID()
	if id == "" {
		t.Fatalf("save must register the layout")
	}
	for i := 0; i < 3; i++ {
		s.Scene().AddRoom(float64(i*10), 0, 50, 50)
	}
	list, err := ix.ListAutosaves(ctx, id, 10)
	if err != nil {
		t.Fatalf("ListAutosaves: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected autosaves pruned to 2, got %d", len(list))
	}
	if !bytes.Equal(list[0].Blob, s.History().Top()) {
		t.Fatalf("newest autosave must equal the history top")
	}

	want := snapshot(t, s)
	s.Scene().Clear()
	ok, err := s.RestoreAutosave(ctx)
	if err != nil || !ok {
		t.Fatalf("RestoreAutosave: %v %v", ok, err)
	}
	if !bytes.Equal(want, snapshot(t, s)) {
		t.Fatalf("restored sequence differs")
	}
	recent, err := s.Recent(ctx, 5)
	if err != nil || len(recent) != 1 || recent[0].ID != id {
		t.Fatalf("unexpected recent list %v %v", recent, err)
	}
}

func TestInstallScan(t *testing.T) {
	s := newSession(t)
	if err := s.InstallScan(scan.Result{Err: scan.ErrImageDecode}); !errors.Is(err, scan.ErrImageDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if s.History().Depth() != 1 {
		t.Fatalf("failed scan must not commit")
	}
	res := scan.Result{
		Success: true,
		Walls:   1,
		Elements: []scene.Element{
			&scene.Wall{A: geometry.Pt{X: 0, Y: 0}, B: geometry.Pt{X: 100, Y: 0}},
			&scene.Fixture{Type: catalog.Toilet, X: 10, Y: 10, CustomSize: &geometry.Size{W: 20, H: 20}},
		},
	}
	s.Scene().AddElement(catalog.Chair, 0, 0, 0)
	if err := s.InstallScan(res); err != nil {
		t.Fatalf("InstallScan: %v", err)
	}
	if s.Scene().Len() != 3 || s.History().Depth() != 3 {
		t.Fatalf("scan must append in one commit: len=%d depth=%d", s.Scene().Len(), s.History().Depth())
	}
	if s.Scene().At(1) == res.Elements[0] {
		t.Fatalf("installed elements must be copies")
	}
}

func TestCrashSave(t *testing.T) {
	s := newSession(t)
	s.Scene().AddElement(catalog.Fridge, 1, 1, 0)
	p, err := s.CrashSave()
	if err != nil {
		t.Fatalf("CrashSave: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(p) })
	if filepath.Dir(p) != filepath.Clean(os.TempDir()) {
		t.Fatalf("unsaved crash save must go to the temp dir, got %s", p)
	}

	path := filepath.Join(t.TempDir(), "plan.json")
	if err := s.Save(context.Background(), path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	p, err = s.CrashSave()
	if err != nil {
		t.Fatalf("CrashSave: %v", err)
	}
	if filepath.Dir(p) != storage.BackupDir(path) || !strings.HasPrefix(filepath.Base(p), "plan.crash-") {
		t.Fatalf("unexpected crash save path %s", p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.ValidateLayout(data); err != nil {
		t.Fatalf("crash save must be a valid layout: %v", err)
	}
}
