//go:build fyne && cgo

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

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"floorplan/internal/editor"
	"floorplan/internal/geometry"
)

// PlanCanvas draws the session's scene and forwards pointer gestures to its
// interaction controller. The secondary button pans, the wheel zooms.
type PlanCanvas struct {
	widget.BaseWidget

	sess    *editor.Session
	view    viewport
	panning bool

	// OnChange runs after every gesture that may have mutated the scene.
	OnChange func()
}

var (
	_ desktop.Mouseable = (*PlanCanvas)(nil)
	_ desktop.Hoverable = (*PlanCanvas)(nil)
	_ fyne.Draggable    = (*PlanCanvas)(nil)
	_ fyne.Scrollable   = (*PlanCanvas)(nil)
)

func NewPlanCanvas(sess *editor.Session) *PlanCanvas {
	pc := &PlanCanvas{sess: sess, view: newViewport()}
	pc.ExtendBaseWidget(pc)
	return pc
}

// PreferredSize sets a decent default size for the widget.
func (p *PlanCanvas) PreferredSize() fyne.Size { return fyne.NewSize(800, 600) }

// Center returns the scene point at the middle of the visible area.
func (p *PlanCanvas) Center() geometry.Pt {
	sz := p.Size()
	return p.view.toScene(geometry.Pt{X: float64(sz.Width) / 2, Y: float64(sz.Height) / 2})
}

// ResetView returns to zoom 1 with the scene origin at the top-left.
func (p *PlanCanvas) ResetView() {
	p.view = newViewport()
	p.Refresh()
}

func toPt(pos fyne.Position) geometry.Pt { return geometry.Pt{X: float64(pos.X), Y: float64(pos.Y)} }

func (p *PlanCanvas) scenePt(pos fyne.Position) geometry.Pt { return p.view.toScene(toPt(pos)) }

func (p *PlanCanvas) changed() {
	p.Refresh()
	if p.OnChange != nil {
		p.OnChange()
	}
}

func (p *PlanCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonSecondary {
		p.panning = true
		return
	}
	p.sess.Controller().Down(p.scenePt(e.Position))
	p.changed()
}

func (p *PlanCanvas) MouseUp(e *desktop.MouseEvent) {
	if p.panning {
		p.panning = false
		return
	}
	p.sess.Controller().Up(p.scenePt(e.Position))
	p.changed()
}

func (p *PlanCanvas) Dragged(e *fyne.DragEvent) {
	if p.panning {
		p.view.pan(float64(e.Dragged.DX), float64(e.Dragged.DY))
		p.Refresh()
		return
	}
	p.sess.Controller().Move(p.scenePt(e.Position))
	p.Refresh()
}

func (p *PlanCanvas) DragEnd() {}

func (p *PlanCanvas) MouseIn(e *desktop.MouseEvent) { p.MouseMoved(e) }

func (p *PlanCanvas) MouseMoved(e *desktop.MouseEvent) {
	p.sess.Controller().Move(p.scenePt(e.Position))
	p.Refresh()
}

func (p *PlanCanvas) MouseOut() {
	p.sess.Controller().Leave()
	p.Refresh()
}

func (p *PlanCanvas) Scrolled(e *fyne.ScrollEvent) {
	p.view.zoomAt(float64(e.Scrolled.DY)/10, toPt(e.Position))
	p.Refresh()
}

func (p *PlanCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.White)
	return &planRenderer{pc: p, bg: bg, objects: []fyne.CanvasObject{bg}}
}

// planRenderer rebuilds its objects from a frame on every layout.
type planRenderer struct {
	pc      *PlanCanvas
	bg      *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *planRenderer) Destroy()                     {}
func (r *planRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *planRenderer) MinSize() fyne.Size           { return r.pc.PreferredSize() }
func (r *planRenderer) Refresh()                     { r.Layout(r.pc.Size()); canvas.Refresh(r.pc) }

func fpos(p geometry.Pt) fyne.Position { return fyne.NewPos(float32(p.X), float32(p.Y)) }

func place(o fyne.CanvasObject, rc geometry.Rect) {
	o.Move(fpos(rc.Min()))
	o.Resize(fyne.NewSize(float32(rc.W), float32(rc.H)))
}

func newLine(a, b geometry.Pt, col color.Color, width float64) *canvas.Line {
	ln := canvas.NewLine(col)
	ln.Position1, ln.Position2 = fpos(a), fpos(b)
	ln.StrokeWidth = float32(width)
	return ln
}

func newOutline(rc geometry.Rect, fill, stroke color.Color, width float64) *canvas.Rectangle {
	o := canvas.NewRectangle(fill)
	o.StrokeColor = stroke
	o.StrokeWidth = float32(width)
	place(o, rc)
	return o
}

func (r *planRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	f := buildFrame(r.pc.sess.Scene(), r.pc.sess.Controller(), r.pc.view,
		geometry.Size{W: float64(size.Width), H: float64(size.Height)})

	objs := make([]fyne.CanvasObject, 0, 1+len(f.grid)+2*len(f.items)+len(f.handles)+2)
	objs = append(objs, r.bg)
	for _, g := range f.grid {
		objs = append(objs, newLine(g[0], g[1], gridColor, 1))
	}
	for _, it := range f.items {
		switch {
		case it.line:
			objs = append(objs, newLine(it.a, it.b, it.stroke, it.width))
		case it.text != "":
			t := canvas.NewText(it.text, it.stroke)
			t.TextSize = float32(it.textSize)
			t.Move(fpos(it.rect.Min()))
			objs = append(objs, t)
		default:
			objs = append(objs, newOutline(it.rect, it.fill, it.stroke, it.width))
			if it.double {
				d := 3 * r.pc.view.zoom
				objs = append(objs, newOutline(it.rect.Inset(d, d), color.Transparent, it.stroke, it.width))
			}
		}
	}
	if f.previewOn {
		objs = append(objs, newLine(f.preview[0], f.preview[1], previewColor, 2))
	}
	if f.selected {
		objs = append(objs, newOutline(f.selection.Inset(-2, -2), color.Transparent, selectionColor, 1))
		for _, h := range f.handles {
			objs = append(objs, newOutline(h, selectionColor, selectionColor, 0))
		}
	}
	r.objects = objs
}
