/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package interact

import (
	"floorplan/internal/geometry"
	"floorplan/internal/scene"
)

// Handle names one of the eight resize hotspots of a rectangle.
type Handle string

const (
	None Handle = ""
	NW   Handle = "nw"
	N    Handle = "n"
	NE   Handle = "ne"
	E    Handle = "e"
	SE   Handle = "se"
	S    Handle = "s"
	SW   Handle = "sw"
	W    Handle = "w"
)

const (
	// HandleSize is the half extent of a handle hotspot.
	HandleSize = 5.0
	// MinSize is the floor for resized widths and heights.
	MinSize = 10.0
)

// Handles lists the hotspots in hit-test order.
var Handles = []Handle{NW, N, NE, E, SE, S, SW, W}

// Anchor returns the point a handle sits on.
func Anchor(r geometry.Rect, h Handle) geometry.Pt {
	x1, y1 := r.X, r.Y
	x2, y2 := r.X+r.W, r.Y+r.H
	mx, my := (x1+x2)/2, (y1+y2)/2
	switch h {
	case NW:
		return geometry.Pt{X: x1, Y: y1}
	case N:
		return geometry.Pt{X: mx, Y: y1}
	case NE:
		return geometry.Pt{X: x2, Y: y1}
	case E:
		return geometry.Pt{X: x2, Y: my}
	case SE:
		return geometry.Pt{X: x2, Y: y2}
	case S:
		return geometry.Pt{X: mx, Y: y2}
	case SW:
		return geometry.Pt{X: x1, Y: y2}
	case W:
		return geometry.Pt{X: x1, Y: my}
	}
	return r.Center()
}

// HandleAt returns the first handle whose hotspot square contains p.
func HandleAt(r geometry.Rect, p geometry.Pt) Handle {
	for _, h := range Handles {
		a := Anchor(r, h)
		if geometry.R(a.X-HandleSize, a.Y-HandleSize, 2*HandleSize, 2*HandleSize).Contains(p) {
			return h
		}
	}
	return None
}

func (h Handle) movesLeft() bool   { return h == NW || h == W || h == SW }
func (h Handle) movesRight() bool  { return h == NE || h == E || h == SE }
func (h Handle) movesTop() bool    { return h == NW || h == N || h == NE }
func (h Handle) movesBottom() bool { return h == SW || h == S || h == SE }

// ResizeRect applies a cumulative pointer delta to start through handle h.
// Sizes are floored at MinSize; a clamped left or top edge is pulled back so
// the opposite edge keeps its position.
func ResizeRect(start geometry.Rect, h Handle, dx, dy float64) geometry.Rect {
	r := start
	switch {
	case h.movesLeft():
		r.X, r.W = start.X+dx, start.W-dx
	case h.movesRight():
		r.W = start.W + dx
	}
	switch {
	case h.movesTop():
		r.Y, r.H = start.Y+dy, start.H-dy
	case h.movesBottom():
		r.H = start.H + dy
	}
	if r.W < MinSize {
		if h.movesLeft() {
			r.X = start.X + start.W - MinSize
		}
		r.W = MinSize
	}
	if r.H < MinSize {
		if h.movesTop() {
			r.Y = start.Y + start.H - MinSize
		}
		r.H = MinSize
	}
	return r
}

// HitTest returns the index of the topmost element under p, or -1.
func HitTest(elements []scene.Element, p geometry.Pt) int {
	for i := len(elements) - 1; i >= 0; i-- {
		if elements[i] != nil && elements[i].Hit(p) {
			return i
		}
	}
	return -1
}
