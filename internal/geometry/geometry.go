/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package geometry holds the 2D primitives shared by the scene, the
// interaction controller and the renderers. Coordinates are canvas pixels
// with the origin top-left and y growing downward.
package geometry

import "math"

// Pt is a 2D point.
type Pt struct{ X, Y float64 }

// Size is a width/height pair.
type Size struct{ W, H float64 }

// Rect is an axis-aligned rectangle defined by its top-left corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (p Pt) Add(q Pt) Pt { return Pt{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Pt) Sub(q Pt) Pt { return Pt{X: p.X - q.X, Y: p.Y - q.Y} }

// Dist returns the euclidean distance between p and q.
func (p Pt) Dist(q Pt) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

func (r Rect) Min() Pt     { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt     { return Pt{r.X + r.W, r.Y + r.H} }
func (r Rect) Size() Size  { return Size{W: r.W, H: r.H} }
func (r Rect) Center() Pt  { return Pt{X: r.X + r.W/2, Y: r.Y + r.H/2} }
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Overflows reports whether o extends past the right or bottom edge of r.
func (r Rect) Overflows(o Rect) bool {
	return o.X+o.W > r.X+r.W || o.Y+o.H > r.Y+r.H
}

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Translate returns r moved by d.
func (r Rect) Translate(d Pt) Rect { return Rect{X: r.X + d.X, Y: r.Y + d.Y, W: r.W, H: r.H} }

// SegmentBounds returns the bounding box of the segment a-b.
func SegmentBounds(a, b Pt) Rect {
	x0, x1 := math.Min(a.X, b.X), math.Max(a.X, b.X)
	y0, y1 := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// SegmentDistance returns the distance from p to the closest point of the
// segment a-b. A zero-length segment degrades to the distance to a.
func SegmentDistance(p, a, b Pt) float64 {
	cx, cy := b.X-a.X, b.Y-a.Y
	lenSq := cx*cx + cy*cy
	if lenSq == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*cx + (p.Y-a.Y)*cy) / lenSq
	switch {
	case t < 0:
		return p.Dist(a)
	case t > 1:
		return p.Dist(b)
	}
	return p.Dist(Pt{X: a.X + t*cx, Y: a.Y + t*cy})
}

// Affine represents a 2D affine transform as matrix:
// | a c e |
// | b d f |
// | 0 0 1 |
type Affine struct{ A, B, C, D, E, F float64 }

var Identity = Affine{A: 1, D: 1}

func (m Affine) Mul(n Affine) Affine {
	return Affine{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

func (m Affine) Apply(p Pt) Pt {
	return Pt{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

func Translate(tx, ty float64) Affine { return Affine{A: 1, D: 1, E: tx, F: ty} }
func Scale(sx, sy float64) Affine     { return Affine{A: sx, D: sy} }

// Rotate builds a rotation by deg degrees. Quarter turns are exact.
func Rotate(deg float64) Affine {
	var c, s float64
	switch NormalizeRotation(int(math.Round(deg))) {
	case 0:
		c, s = 1, 0
	case 90:
		c, s = 0, 1
	case 180:
		c, s = -1, 0
	case 270:
		c, s = 0, -1
	}
	if math.Mod(deg, 90) != 0 {
		rad := deg * math.Pi / 180
		c, s = math.Cos(rad), math.Sin(rad)
	}
	return Affine{A: c, B: s, C: -s, D: c}
}

// RotateAbout rotates by deg degrees around pivot.
func RotateAbout(pivot Pt, deg float64) Affine {
	return Translate(pivot.X, pivot.Y).Mul(Rotate(deg)).Mul(Translate(-pivot.X, -pivot.Y))
}

// Corners returns the four corners of r in clockwise order starting top-left.
func (r Rect) Corners() [4]Pt {
	return [4]Pt{{r.X, r.Y}, {r.X + r.W, r.Y}, {r.X + r.W, r.Y + r.H}, {r.X, r.Y + r.H}}
}

// RotatedCorners returns the corners of r rotated by deg around its center.
func (r Rect) RotatedCorners(deg int) [4]Pt {
	m := RotateAbout(r.Center(), float64(deg))
	cs := r.Corners()
	for i := range cs {
		cs[i] = m.Apply(cs[i])
	}
	return cs
}

// RotatedBounds returns the axis-aligned bounds of r rotated by deg around its center.
func (r Rect) RotatedBounds(deg int) Rect {
	if NormalizeRotation(deg) == 0 {
		return r
	}
	cs := r.RotatedCorners(deg)
	out := Rect{X: cs[0].X, Y: cs[0].Y}
	for _, c := range cs[1:] {
		out = out.Union(Rect{X: c.X, Y: c.Y})
	}
	return out
}

// NormalizeRotation folds deg into [0,360) and snaps it to a quarter turn.
func NormalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return (deg + 45) / 90 * 90 % 360
}

// FloatRound rounds v to n decimal places deterministically.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
