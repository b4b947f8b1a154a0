/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package interact turns pointer gestures in canvas coordinates into scene
// mutations: delete clicks, resizing, wall and element placement, selection
// and dragging.
package interact

import (
	"log/slog"

	"floorplan/internal/catalog"
	"floorplan/internal/geometry"
	applog "floorplan/internal/log"
	"floorplan/internal/scene"
)

type gesture int

const (
	idle gesture = iota
	dragging
	resizing
)

// Controller is the gesture state machine. One gesture is active at a time.
type Controller struct {
	s   *scene.Scene
	log *slog.Logger

	g         gesture
	origin    geometry.Pt
	target    scene.Element
	index     int
	startPos  geometry.Pt
	startRect geometry.Rect
	handle    Handle

	cursor    geometry.Pt
	hasCursor bool
}

// New returns a controller bound to s.
func New(s *scene.Scene) *Controller {
	return &Controller{s: s, log: applog.WithComponent("interact"), index: -1}
}

// Active reports whether a drag or resize is in progress.
func (c *Controller) Active() bool { return c.g != idle }

// ActiveHandle returns the handle being dragged, or None.
func (c *Controller) ActiveHandle() Handle {
	if c.g != resizing {
		return None
	}
	return c.handle
}

func (c *Controller) reset() {
	c.g = idle
	c.target = nil
	c.index = -1
	c.handle = None
}

// Down starts a gesture at p. The first matching rule wins: delete mode,
// resize handle of the selected area, wall placement, one-shot element
// placement, then selection with drag.
func (c *Controller) Down(p geometry.Pt) {
	c.reset()
	c.origin = p
	c.cursor, c.hasCursor = p, true
	s := c.s

	if s.DeleteMode() {
		if i := HitTest(s.Elements(), p); i >= 0 {
			k := s.At(i).Kind()
			s.DeleteAt(i)
			c.log.Debug("deleted element", slog.Int("index", i), slog.String("kind", k.String()))
		} else {
			s.ClearSelection()
		}
		return
	}

	if i, ok := s.Selection(); ok {
		if r, ok := s.At(i).(scene.Resizable); ok && s.At(i).Kind().Class() == catalog.ClassArea {
			if h := HandleAt(r.Bounds(), p); h != None {
				c.g, c.handle = resizing, h
				c.target, c.index = r, i
				c.startRect = r.Bounds()
				return
			}
		}
	}

	switch m := s.Mode(); m.State {
	case scene.PlacingWall:
		if !m.HasStart {
			s.SetWallStart(p)
			return
		}
		s.AddWall(m.Start, p)
		s.CancelMode()
		return
	case scene.PlacingElement:
		s.AddElement(m.Kind, p.X, p.Y, s.PendingRotation)
		s.CancelMode()
		return
	}

	i := HitTest(s.Elements(), p)
	if i < 0 {
		s.ClearSelection()
		return
	}
	e := s.At(i)
	if e.Kind() == catalog.Wall {
		s.Select(i)
		return
	}
	mv, ok := e.(scene.Movable)
	if !ok {
		c.log.Warn("element has no position, cannot drag", slog.String("kind", e.Kind().String()))
		s.ClearSelection()
		return
	}
	s.Select(i)
	c.g = dragging
	c.target, c.index = e, i
	c.startPos = mv.Position()
}

// current returns the gesture target if it is still in the scene at its index.
func (c *Controller) current() scene.Element {
	if e := c.s.At(c.index); e != nil && e == c.target {
		return e
	}
	return nil
}

// Move updates the active gesture from the cumulative delta since Down. It
// never commits.
func (c *Controller) Move(p geometry.Pt) {
	c.cursor, c.hasCursor = p, true
	if c.g == idle {
		return
	}
	d := p.Sub(c.origin)
	e := c.current()
	switch c.g {
	case resizing:
		r, ok := e.(scene.Resizable)
		if !ok {
			c.log.Warn("resize target vanished", slog.Int("index", c.index))
			c.reset()
			return
		}
		r.SetRect(ResizeRect(c.startRect, c.handle, d.X, d.Y))
	case dragging:
		mv, ok := e.(scene.Movable)
		if !ok {
			c.log.Warn("drag target vanished", slog.Int("index", c.index))
			c.reset()
			return
		}
		mv.MoveTo(c.startPos.Add(d))
	}
}

// Up ends the gesture and commits when a drag or resize was active.
func (c *Controller) Up(p geometry.Pt) {
	c.cursor, c.hasCursor = p, true
	if c.g != idle {
		c.log.Debug("gesture committed", slog.String("handle", string(c.handle)), slog.Int("index", c.index))
		c.s.Commit()
	}
	c.reset()
}

// Leave forgets the cursor, which hides the wall preview.
func (c *Controller) Leave() { c.hasCursor = false }

// WallPreview returns the pending wall from its first click to the cursor.
func (c *Controller) WallPreview() (from, to geometry.Pt, ok bool) {
	m := c.s.Mode()
	if m.State != scene.PlacingWall || !m.HasStart || !c.hasCursor {
		return geometry.Pt{}, geometry.Pt{}, false
	}
	return m.Start, c.cursor, true
}
