/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scene

import (
	"testing"

	"floorplan/internal/catalog"
	"floorplan/internal/geometry"
)

type countCommitter struct{ n int }

func (c *countCommitter) Commit() { c.n++ }

func newCounted() (*Scene, *countCommitter) {
	s := NewScene()
	c := &countCommitter{}
	s.SetCommitter(c)
	return s, c
}

func TestAddElementUsesCatalogSize(t *testing.T) {
	s, c := newCounted()
	e := s.AddElement(catalog.Fridge, 10, 20, 90)
	b := e.Bounds()
	if b.X != 10 || b.Y != 20 || b.W != 45 || b.H != 70 {
		t.Fatalf("unexpected bounds %+v", b)
	}
	if e.Rotation() != 90 {
		t.Fatalf("rotation not applied: %d", e.Rotation())
	}
	if c.n != 1 || s.Len() != 1 {
		t.Fatalf("expected one commit and one element, got commits=%d len=%d", c.n, s.Len())
	}
	unknown := s.AddElement(catalog.Kind("piano"), 0, 0, 0)
	if b := unknown.Bounds(); b.W != 40 || b.H != 40 {
		t.Fatalf("unknown kind must use default size, got %+v", b)
	}
}

func TestDeleteSelected(t *testing.T) {
	s, c := newCounted()
	s.AddRoom(0, 0, 100, 100)
	s.AddElement(catalog.Sofa, 10, 10, 0)
	s.AddElement(catalog.Sink, 50, 50, 0)
	c.n = 0

	if s.DeleteSelected() {
		t.Fatalf("delete without selection must be a no-op")
	}
	if c.n != 0 {
		t.Fatalf("no-op delete must not commit")
	}
	s.Select(1)
	if !s.DeleteSelected() {
		t.Fatalf("expected delete to succeed")
	}
	if s.Len() != 2 || s.At(1).Kind() != catalog.Sink {
		t.Fatalf("wrong element removed: %v", s.Elements())
	}
	if _, ok := s.Selection(); ok {
		t.Fatalf("selection must be cleared after delete")
	}
	if c.n != 1 {
		t.Fatalf("expected one commit, got %d", c.n)
	}
}

func TestDeleteAtShiftsSelection(t *testing.T) {
	s, _ := newCounted()
	for i := 0; i < 3; i++ {
		s.AddElement(catalog.Chair, float64(i*30), 0, 0)
	}
	s.Select(2)
	s.DeleteAt(0)
	if i, ok := s.Selection(); !ok || i != 1 {
		t.Fatalf("selection should follow its element, got %d %v", i, ok)
	}
	if s.Selected().Bounds().X != 60 {
		t.Fatalf("selection points at the wrong element")
	}
}

func TestToggleRotation(t *testing.T) {
	s, c := newCounted()
	s.ToggleRotation()
	s.ToggleRotation()
	if s.PendingRotation != 180 || c.n != 0 {
		t.Fatalf("pending rotation must advance without commit, got %d commits=%d", s.PendingRotation, c.n)
	}
	s.ToggleRotation()
	s.ToggleRotation()
	if s.PendingRotation != 0 {
		t.Fatalf("pending rotation must wrap, got %d", s.PendingRotation)
	}
	e := s.AddElement(catalog.Door, 0, 0, 270)
	s.Select(0)
	c.n = 0
	s.ToggleRotation()
	if e.Rotation() != 0 || c.n != 1 {
		t.Fatalf("selected rotation must wrap to 0 and commit, got %d commits=%d", e.Rotation(), c.n)
	}
}

func TestModeTransitionsAreExclusive(t *testing.T) {
	s := NewScene()
	s.AddRoom(0, 0, 10, 10)
	s.Select(0)
	s.SetPlacingKind(catalog.Sofa)
	if m := s.Mode(); m.State != PlacingElement || m.Kind != catalog.Sofa {
		t.Fatalf("unexpected mode %+v", m)
	}
	if _, ok := s.Selection(); ok {
		t.Fatalf("placing must clear selection")
	}
	s.StartWallPlacement()
	if m := s.Mode(); m.State != PlacingWall || m.HasStart || m.Kind != "" {
		t.Fatalf("unexpected mode %+v", m)
	}
	s.SetWallStart(geometry.Pt{X: 5, Y: 5})
	if !s.Mode().HasStart {
		t.Fatalf("wall start not recorded")
	}
	s.SetPlacingKind(catalog.Door)
	if s.Mode().HasStart {
		t.Fatalf("placing a kind must drop the wall start")
	}
	s.Select(0)
	if s.Mode().State != Editing {
		t.Fatalf("select must enter editing")
	}
	s.ClearSelection()
	if s.Mode().State != Idle {
		t.Fatalf("clearing selection must go idle")
	}
}

func TestEditText(t *testing.T) {
	s, c := newCounted()
	s.AddText(0, 0, "hello", 0)
	if s.EditText("x", 20) {
		t.Fatalf("edit without selection must fail")
	}
	s.Select(0)
	if !s.EditText("Kitchen", 20) {
		t.Fatalf("edit failed")
	}
	l := s.At(0).(*Label)
	if l.Content != "Kitchen" || l.FontSize != 20 || c.n != 2 {
		t.Fatalf("unexpected label %+v commits=%d", l, c.n)
	}
}

func TestUnitConversion(t *testing.T) {
	s := NewScene()
	for _, px := range []float64{0, 1, 40, 123.5, 600} {
		if got := s.MetersToPixels(s.PixelsToMeters(px)); got != px {
			t.Errorf("round trip of %v gave %v", px, got)
		}
	}
	s.UnitScale = 0
	if s.PixelsToMeters(100) != 0 {
		t.Fatalf("zero unit scale must yield 0")
	}
}

func TestHitVariants(t *testing.T) {
	w := &Wall{A: geometry.Pt{X: 0, Y: 0}, B: geometry.Pt{X: 100, Y: 0}}
	if !w.Hit(geometry.Pt{X: 50, Y: 9}) || w.Hit(geometry.Pt{X: 50, Y: 10}) {
		t.Fatalf("wall tolerance must be strictly less than %v", WallTolerance)
	}
	f := &Fixture{Type: catalog.Toilet, X: 10, Y: 10}
	if !f.Hit(geometry.Pt{X: 45, Y: 60}) || f.Hit(geometry.Pt{X: 46, Y: 60}) {
		t.Fatalf("fixture hit must use catalog size")
	}
	f.CustomSize = &geometry.Size{W: 100, H: 100}
	if !f.Hit(geometry.Pt{X: 100, Y: 100}) {
		t.Fatalf("fixture hit must honor custom size")
	}
}
