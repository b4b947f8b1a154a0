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
	"floorplan/internal/catalog"
	"floorplan/internal/geometry"
)

// WallTolerance is the pixel distance within which a point hits a wall.
const WallTolerance = 10.0

// Element is one placed item of a floor plan. The set of implementations is
// closed: *Area, *Wall, *Fixture and *Label.
type Element interface {
	Kind() catalog.Kind
	// Bounds is the unrotated axis-aligned footprint.
	Bounds() geometry.Rect
	Hit(p geometry.Pt) bool
	Rotation() int
	SetRotation(deg int)

	clone() Element
}

// Movable elements carry an x,y origin that dragging can change.
type Movable interface {
	Element
	Position() geometry.Pt
	MoveTo(p geometry.Pt)
}

// Resizable elements carry an explicit rectangle.
type Resizable interface {
	Movable
	SetRect(r geometry.Rect)
}

// Area is a sized rectangle: a room or the house border.
type Area struct {
	Type catalog.Kind
	geometry.Rect
	// Name is the semantic room kind assigned by the generator (kitchen, bathroom, ...).
	Name string
	Rot  int
}

// Wall is a straight segment between two endpoints.
type Wall struct {
	A, B geometry.Pt
	Rot  int
}

// Fixture is any catalog-sized item: furniture, doors, windows.
type Fixture struct {
	Type       catalog.Kind
	X, Y       float64
	Rot        int
	CustomSize *geometry.Size
}

// Label is a text annotation with a fixed box.
type Label struct {
	X, Y     float64
	Content  string
	FontSize float64
	Rot      int
}

// DefaultFontSize is used for new labels and labels persisted without one.
const DefaultFontSize = 14

func (a *Area) Kind() catalog.Kind      { return a.Type }
func (a *Area) Bounds() geometry.Rect   { return a.Rect }
func (a *Area) Hit(p geometry.Pt) bool  { return a.Rect.Contains(p) }
func (a *Area) Rotation() int           { return a.Rot }
func (a *Area) SetRotation(deg int)     { a.Rot = geometry.NormalizeRotation(deg) }
func (a *Area) Position() geometry.Pt   { return a.Rect.Min() }
func (a *Area) MoveTo(p geometry.Pt)    { a.X, a.Y = p.X, p.Y }
func (a *Area) SetRect(r geometry.Rect) { a.Rect = r }

func (w *Wall) Kind() catalog.Kind     { return catalog.Wall }
func (w *Wall) Bounds() geometry.Rect  { return geometry.SegmentBounds(w.A, w.B) }
func (w *Wall) Rotation() int          { return w.Rot }
func (w *Wall) SetRotation(deg int)    { w.Rot = geometry.NormalizeRotation(deg) }
func (w *Wall) Length() float64        { return w.A.Dist(w.B) }
func (w *Wall) Hit(p geometry.Pt) bool { return geometry.SegmentDistance(p, w.A, w.B) < WallTolerance }

func (f *Fixture) Kind() catalog.Kind     { return f.Type }
func (f *Fixture) Rotation() int          { return f.Rot }
func (f *Fixture) SetRotation(deg int)    { f.Rot = geometry.NormalizeRotation(deg) }
func (f *Fixture) Position() geometry.Pt  { return geometry.Pt{X: f.X, Y: f.Y} }
func (f *Fixture) MoveTo(p geometry.Pt)   { f.X, f.Y = p.X, p.Y }
func (f *Fixture) Hit(p geometry.Pt) bool { return f.Bounds().Contains(p) }

func (l *Label) Kind() catalog.Kind     { return catalog.Text }
func (l *Label) Rotation() int          { return l.Rot }
func (l *Label) SetRotation(deg int)    { l.Rot = geometry.NormalizeRotation(deg) }
func (l *Label) Position() geometry.Pt  { return geometry.Pt{X: l.X, Y: l.Y} }
func (l *Label) MoveTo(p geometry.Pt)   { l.X, l.Y = p.X, p.Y }
func (l *Label) Hit(p geometry.Pt) bool { return l.Bounds().Contains(p) }

// Size is the custom size when set, the catalog size otherwise.
func (f *Fixture) Size() geometry.Size {
	if f.CustomSize != nil {
		return *f.CustomSize
	}
	return catalog.SizeOf(f.Type)
}

func (f *Fixture) Bounds() geometry.Rect {
	s := f.Size()
	return geometry.R(f.X, f.Y, s.W, s.H)
}

func (a *Area) clone() Element {
	c := *a
	return &c
}

func (w *Wall) clone() Element {
	c := *w
	return &c
}

func (l *Label) clone() Element {
	c := *l
	return &c
}

func (f *Fixture) clone() Element {
	c := *f
	if f.CustomSize != nil {
		s := *f.CustomSize
		c.CustomSize = &s
	}
	return &c
}

func (l *Label) Bounds() geometry.Rect {
	s := catalog.SizeOf(catalog.Text)
	return geometry.R(l.X, l.Y, s.W, s.H)
}

// NewElement builds an element of kind k at (x,y) with the catalog size. Walls are
// created as a zero-length segment at the point.
func NewElement(k catalog.Kind, x, y float64, rotation int) Element {
	var e Element
	switch k.Class() {
	case catalog.ClassArea:
		s := catalog.SizeOf(k)
		e = &Area{Type: k, Rect: geometry.R(x, y, s.W, s.H)}
	case catalog.ClassSegment:
		e = &Wall{A: geometry.Pt{X: x, Y: y}, B: geometry.Pt{X: x, Y: y}}
	case catalog.ClassText:
		e = &Label{X: x, Y: y, FontSize: DefaultFontSize}
	default:
		e = &Fixture{Type: k, X: x, Y: y}
	}
	e.SetRotation(rotation)
	return e
}

// Clone returns a deep copy of e.
func Clone(e Element) Element { return e.clone() }

// CloneAll deep-copies a sequence.
func CloneAll(in []Element) []Element {
	out := make([]Element, len(in))
	for i, e := range in {
		out[i] = e.clone()
	}
	return out
}
