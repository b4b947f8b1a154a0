/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"math"

	"floorplan/internal/catalog"
	"floorplan/internal/export"
	"floorplan/internal/geometry"
	"floorplan/internal/interact"
	"floorplan/internal/scene"
)

const (
	minZoom  = 0.1
	maxZoom  = 4.0
	zoomStep = 0.05
	// maxGridLines caps the lines drawn per axis when zoomed far out.
	maxGridLines = 400
)

// viewport maps scene pixels to widget pixels: screen = scene*zoom + offset.
type viewport struct {
	zoom    float64
	offsetX float64
	offsetY float64
}

func newViewport() viewport { return viewport{zoom: 1} }

func (v viewport) toScreen(p geometry.Pt) geometry.Pt {
	return geometry.Pt{X: p.X*v.zoom + v.offsetX, Y: p.Y*v.zoom + v.offsetY}
}

func (v viewport) toScene(p geometry.Pt) geometry.Pt {
	return geometry.Pt{X: (p.X - v.offsetX) / v.zoom, Y: (p.Y - v.offsetY) / v.zoom}
}

func (v viewport) rectToScreen(r geometry.Rect) geometry.Rect {
	p := v.toScreen(r.Min())
	return geometry.R(p.X, p.Y, r.W*v.zoom, r.H*v.zoom)
}

func (v *viewport) pan(dx, dy float64) {
	v.offsetX += dx
	v.offsetY += dy
}

// zoomAt changes the zoom by steps while keeping the scene point under
// anchor (widget coordinates) in place.
func (v *viewport) zoomAt(steps float64, anchor geometry.Pt) {
	before := v.toScene(anchor)
	v.zoom = math.Max(minZoom, math.Min(maxZoom, v.zoom+steps*zoomStep))
	after := v.toScreen(before)
	v.offsetX += anchor.X - after.X
	v.offsetY += anchor.Y - after.Y
}

// item is one drawable in widget coordinates.
type item struct {
	kind     catalog.Kind
	rect     geometry.Rect
	a, b     geometry.Pt
	line     bool
	double   bool
	text     string
	textSize float64
	fill     color.RGBA
	stroke   color.RGBA
	width    float64
}

// frame is everything the canvas draws for one refresh.
type frame struct {
	grid      [][2]geometry.Pt
	items     []item
	preview   [2]geometry.Pt
	previewOn bool
	selection geometry.Rect
	selected  bool
	handles   []geometry.Rect
}

var (
	selectionColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	previewColor   = color.RGBA{R: 0, G: 120, B: 255, A: 180}
	gridColor      = color.RGBA{R: 228, G: 228, B: 228, A: 255}
	roomTextColor  = color.RGBA{R: 90, G: 90, B: 90, A: 255}
)

// buildFrame lays out the scene for a widget of the given size.
func buildFrame(s *scene.Scene, ctrl *interact.Controller, v viewport, size geometry.Size) frame {
	var f frame
	f.grid = gridLines(float64(s.GridSize), v, size)

	for _, e := range s.Elements() {
		fill, stroke := export.Colors(e.Kind())
		it := item{kind: e.Kind(), fill: fill, stroke: stroke, width: math.Max(1, v.zoom)}
		switch el := e.(type) {
		case *scene.Wall:
			it.line = true
			it.a, it.b = v.toScreen(el.A), v.toScreen(el.B)
			it.width = math.Max(1, 3*v.zoom)
		case *scene.Area:
			it.rect = v.rectToScreen(el.Rect)
			it.double = el.Type == catalog.HouseBorder
			it.width = math.Max(1, 2*v.zoom)
		case *scene.Fixture:
			it.rect = v.rectToScreen(el.Bounds().RotatedBounds(el.Rotation()))
		case *scene.Label:
			it.rect = v.rectToScreen(el.Bounds())
			it.text = el.Content
			it.textSize = el.FontSize * v.zoom
		}
		f.items = append(f.items, it)
		if a, ok := e.(*scene.Area); ok && a.Name != "" {
			f.items = append(f.items, item{
				kind:     catalog.Text,
				rect:     geometry.R(it.rect.X+4, it.rect.Y+4, it.rect.W, 0),
				text:     a.Name,
				textSize: 11,
				stroke:   roomTextColor,
			})
		}
	}

	if from, to, ok := ctrl.WallPreview(); ok {
		f.preview = [2]geometry.Pt{v.toScreen(from), v.toScreen(to)}
		f.previewOn = true
	}

	if sel := s.Selected(); sel != nil {
		b := sel.Bounds()
		if fx, ok := sel.(*scene.Fixture); ok {
			b = b.RotatedBounds(fx.Rotation())
		}
		f.selection = v.rectToScreen(b)
		f.selected = true
		if a, ok := sel.(*scene.Area); ok {
			for _, h := range interact.Handles {
				p := v.toScreen(interact.Anchor(a.Rect, h))
				d := interact.HandleSize * v.zoom
				f.handles = append(f.handles, geometry.R(p.X-d, p.Y-d, 2*d, 2*d))
			}
		}
	}
	return f
}

// gridLines returns the visible grid in widget coordinates.
func gridLines(step float64, v viewport, size geometry.Size) [][2]geometry.Pt {
	if step <= 0 || size.W <= 0 || size.H <= 0 {
		return nil
	}
	lo := v.toScene(geometry.Pt{})
	hi := v.toScene(geometry.Pt{X: size.W, Y: size.H})
	if (hi.X-lo.X)/step > maxGridLines || (hi.Y-lo.Y)/step > maxGridLines {
		return nil
	}
	var out [][2]geometry.Pt
	for x := math.Ceil(lo.X/step) * step; x <= hi.X; x += step {
		sx := v.toScreen(geometry.Pt{X: x}).X
		out = append(out, [2]geometry.Pt{{X: sx, Y: 0}, {X: sx, Y: size.H}})
	}
	for y := math.Ceil(lo.Y/step) * step; y <= hi.Y; y += step {
		sy := v.toScreen(geometry.Pt{Y: y}).Y
		out = append(out, [2]geometry.Pt{{X: 0, Y: sy}, {X: size.W, Y: sy}})
	}
	return out
}
