/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package layout generates template floor plans and checks that anchor
// furniture fits its room.
package layout

import (
	"log/slog"

	"floorplan/internal/catalog"
	"floorplan/internal/geometry"
	applog "floorplan/internal/log"
	"floorplan/internal/scene"
)

// Semantic room names assigned by the generator.
const (
	NameRoom       = "room"
	NameKitchen    = "kitchen"
	NameLivingRoom = "living_room"
	NameBathroom   = "bathroom"
)

const (
	margin        = 10
	minRoomWidth  = 50
	minRoomHeight = 80
)

// Options tune generation. The zero value uses density 1 and leaves fixed
// insets unclamped; DefaultOptions clamps them.
type Options struct {
	// Density multiplies every template constant (display density).
	Density float64
	// ClampFixedInsets keeps unscaled edge insets inside their room.
	ClampFixedInsets bool
}

func DefaultOptions() Options { return Options{Density: 1, ClampFixedInsets: true} }

func (o Options) dp(v float64) float64 {
	if o.Density <= 0 {
		return v
	}
	return v * o.Density
}

// Report describes a generated layout.
type Report struct {
	House      *scene.Area
	Rooms      []*scene.Area
	Elements   int
	Violations []Violation
}

// axis positions one coordinate relative to a room. far measures from the
// right/bottom edge; fixed skips the room scale.
type axis struct {
	v     float64
	far   bool
	fixed bool
}

func near(v float64) axis     { return axis{v: v} }
func far(v float64) axis      { return axis{v: v, far: true} }
func farFixed(v float64) axis { return axis{v: v, far: true, fixed: true} }

type placement struct {
	kind catalog.Kind
	x, y axis
	rot  int
	// size, when set, is a template-scaled custom size
	size *geometry.Size
}

type template struct {
	base  geometry.Size
	items []placement
}

var templates = map[string]template{
	NameRoom: {
		base: geometry.Size{W: 100, H: 150},
		items: []placement{
			{kind: catalog.BedQueen, x: near(20), y: near(20)},
			{kind: catalog.SideTable, x: near(68), y: near(20)},
			{kind: catalog.Door, x: farFixed(1), y: near(70), rot: 180},
		},
	},
	NameKitchen: {
		base: geometry.Size{W: 250, H: 200},
		items: []placement{
			{kind: catalog.Sink, x: near(20), y: near(20)},
			{kind: catalog.Window, x: farFixed(200), y: far(204), size: &geometry.Size{W: 40, H: 20}},
			{kind: catalog.GasStove, x: near(80), y: near(20)},
			{kind: catalog.Fridge, x: far(50), y: near(10)},
			{kind: catalog.Table, x: near(50), y: near(100)},
			{kind: catalog.Door, x: near(200), y: far(15), rot: 270},
		},
	},
	NameLivingRoom: {
		base: geometry.Size{W: 200, H: 150},
		items: []placement{
			{kind: catalog.Sofa, x: near(10), y: near(60), rot: 270},
			{kind: catalog.Window, x: farFixed(320), y: far(70), rot: 90, size: &geometry.Size{W: 40, H: 20}},
			{kind: catalog.Sofa, x: near(100), y: near(20)},
			{kind: catalog.FlatTV, x: near(100), y: far(40)},
			{kind: catalog.Door, x: far(1), y: near(100), rot: 180},
		},
	},
	NameBathroom: {
		base: geometry.Size{W: 200, H: 200},
		items: []placement{
			{kind: catalog.Toilet, x: near(20), y: near(20), rot: 270},
			{kind: catalog.Bathtub, x: near(100), y: near(120)},
			{kind: catalog.Shower, x: near(20), y: near(120)},
			{kind: catalog.Door, x: near(120), y: far(230), rot: 90},
		},
	},
}

// TemplateCount returns the number of furniture items placed in a room of
// the given semantic name.
func TemplateCount(name string) int { return len(templates[name].items) }

// Generate replaces the scene content with a four-room layout scaled to the
// house rectangle and commits once. The house is expected to satisfy
// CheckHouse; it is not re-validated.
func Generate(s *scene.Scene, house geometry.Rect, opts Options) Report {
	lg := applog.WithOperation(applog.WithComponent("layout"), "generate")
	s.Clear()

	hx, hy, hw, hh := house.X, house.Y, house.W, house.H
	m := opts.dp(margin)
	minW, minH := opts.dp(minRoomWidth), opts.dp(minRoomHeight)
	uw, uh := hw-2*m, hh-2*m

	border := &scene.Area{Type: catalog.HouseBorder, Rect: house}
	els := []scene.Element{border}

	w1, h1 := max(minW, uw*0.4), max(minH, uh*0.4)
	w2, h2 := max(minW, uw*0.5), max(minH, uh*0.5)
	w3, h3 := max(minW, uw*0.5), max(minH, uh*0.4)
	w4, h4 := max(minW, uw*0.4), max(minH, uh*0.4)
	rooms := []*scene.Area{
		{Type: catalog.Room, Name: NameRoom, Rect: geometry.R(hx+m, hy+m, w1, h1)},
		{Type: catalog.Room, Name: NameKitchen, Rect: geometry.R(hx+hw-m-w2, hy+m, w2, h2)},
		{Type: catalog.Room, Name: NameLivingRoom, Rect: geometry.R(hx+m, hy+hh-m-h3, w3, h3)},
		{Type: catalog.Room, Name: NameBathroom, Rect: geometry.R(hx+hw-m-w4, hy+hh-m-h4, w4, h4)},
	}
	for _, r := range rooms {
		els = append(els, r)
	}
	for _, r := range rooms {
		els = append(els, furnish(r, opts)...)
	}

	els = append(els,
		&scene.Fixture{Type: catalog.Door, X: hx, Y: hy + hh/2 - opts.dp(20)},
		&scene.Fixture{Type: catalog.Window, X: hx + hw/4, Y: hy + opts.dp(6)},
	)

	s.Replace(els)
	rep := Report{House: border, Rooms: rooms, Elements: len(els), Violations: Validate(els)}
	for _, v := range rep.Violations {
		lg.Warn("room too small", slog.String("room", v.Room), slog.String("anchor", v.Anchor.String()))
	}
	lg.Info("layout generated", slog.Int("elements", rep.Elements), slog.Float64("width", hw), slog.Float64("height", hh))
	s.Commit()
	return rep
}

// furnish places the template of room r. Offsets are scaled by the ratio of
// room size to template base size, except fixed insets.
func furnish(r *scene.Area, opts Options) []scene.Element {
	t, ok := templates[r.Name]
	if !ok {
		return nil
	}
	sx, sy := 1.0, 1.0
	if bw := opts.dp(t.base.W); bw != 0 {
		sx = r.W / bw
	}
	if bh := opts.dp(t.base.H); bh != 0 {
		sy = r.H / bh
	}
	out := make([]scene.Element, 0, len(t.items))
	for _, it := range t.items {
		x := r.X + resolve(it.x, r.W, sx, opts)
		y := r.Y + resolve(it.y, r.H, sy, opts)
		if opts.ClampFixedInsets {
			if it.x.fixed {
				x = clamp(x, r.X, r.X+r.W)
			}
			if it.y.fixed {
				y = clamp(y, r.Y, r.Y+r.H)
			}
		}
		f := &scene.Fixture{Type: it.kind, X: x, Y: y, Rot: it.rot}
		if it.size != nil {
			f.CustomSize = &geometry.Size{W: opts.dp(it.size.W) * sx, H: opts.dp(it.size.H) * sy}
		}
		out = append(out, f)
	}
	return out
}

func resolve(a axis, extent, scale float64, opts Options) float64 {
	v := opts.dp(a.v)
	if !a.fixed {
		v *= scale
	}
	if a.far {
		return extent - v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
