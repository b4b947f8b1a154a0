/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package scene is the floor-plan data model: the ordered element sequence,
// the selection and the placement mode. Mutations are single-threaded.
package scene

import (
	"log/slog"
	"slices"

	"floorplan/internal/catalog"
	"floorplan/internal/geometry"
	applog "floorplan/internal/log"
)

const (
	DefaultGridSize  = 20
	DefaultUnitScale = 40.0
)

// Committer receives a notification after every committed mutation.
type Committer interface {
	Commit()
}

// State enumerates the placement modes.
type State int

const (
	Idle State = iota
	PlacingElement
	PlacingWall
	Editing
)

func (s State) String() string {
	switch s {
	case PlacingElement:
		return "placing-element"
	case PlacingWall:
		return "placing-wall"
	case Editing:
		return "editing"
	default:
		return "idle"
	}
}

// Mode is the placement state machine. Kind is set in PlacingElement, Start
// (with HasStart) in PlacingWall and Index in Editing.
type Mode struct {
	State    State
	Kind     catalog.Kind
	Start    geometry.Pt
	HasStart bool
	Index    int
}

// Scene owns the element sequence. Index order is z-order, last is topmost.
type Scene struct {
	elements   []Element
	mode       Mode
	deleteMode bool

	// PendingRotation is applied to the next placed element.
	PendingRotation int
	GridSize        int
	UnitScale       float64

	committer Committer
	log       *slog.Logger
}

// NewScene returns an empty scene with the default grid and unit scale.
func NewScene() *Scene {
	return &Scene{
		GridSize:  DefaultGridSize,
		UnitScale: DefaultUnitScale,
		log:       applog.WithComponent("scene"),
	}
}

// SetCommitter attaches the history sink; nil detaches it.
func (s *Scene) SetCommitter(c Committer) { s.committer = c }

// Commit notifies the committer that the current sequence is final.
func (s *Scene) Commit() {
	if s.committer != nil {
		s.committer.Commit()
	}
}

// Elements returns the sequence in draw order. The slice is a copy; the
// elements are shared.
func (s *Scene) Elements() []Element { return slices.Clone(s.elements) }

func (s *Scene) Len() int { return len(s.elements) }

// At returns the element at index i or nil.
func (s *Scene) At(i int) Element {
	if i < 0 || i >= len(s.elements) {
		return nil
	}
	return s.elements[i]
}

// Mode returns the current placement mode.
func (s *Scene) Mode() Mode { return s.mode }

func (s *Scene) DeleteMode() bool { return s.deleteMode }

// SetDeleteMode toggles click-to-delete. Entering it drops any pending placement.
func (s *Scene) SetDeleteMode(on bool) {
	s.deleteMode = on
	if on && (s.mode.State == PlacingElement || s.mode.State == PlacingWall) {
		s.mode = Mode{}
	}
}

// Selection returns the selected index.
func (s *Scene) Selection() (int, bool) {
	if s.mode.State != Editing {
		return -1, false
	}
	return s.mode.Index, true
}

// Selected returns the selected element or nil.
func (s *Scene) Selected() Element {
	i, ok := s.Selection()
	if !ok {
		return nil
	}
	return s.At(i)
}

// Select makes element i the selection. Out-of-range indexes clear it.
func (s *Scene) Select(i int) {
	if i < 0 || i >= len(s.elements) {
		s.ClearSelection()
		return
	}
	s.mode = Mode{State: Editing, Index: i}
}

// ClearSelection leaves Editing; other modes are untouched.
func (s *Scene) ClearSelection() {
	if s.mode.State == Editing {
		s.mode = Mode{}
	}
}

// SetPlacingKind arms a one-shot placement of kind k.
func (s *Scene) SetPlacingKind(k catalog.Kind) {
	s.mode = Mode{State: PlacingElement, Kind: k}
}

// StartWallPlacement arms two-click wall placement.
func (s *Scene) StartWallPlacement() {
	s.mode = Mode{State: PlacingWall}
}

// SetWallStart records the first wall endpoint. It is ignored outside PlacingWall.
func (s *Scene) SetWallStart(p geometry.Pt) {
	if s.mode.State != PlacingWall {
		return
	}
	s.mode.Start, s.mode.HasStart = p, true
}

// CancelMode returns to Idle and drops the selection.
func (s *Scene) CancelMode() { s.mode = Mode{} }

func (s *Scene) push(e Element) Element {
	s.elements = append(s.elements, e)
	s.Commit()
	return e
}

// AddElement appends a catalog-sized element of kind k and commits.
func (s *Scene) AddElement(k catalog.Kind, x, y float64, rotation int) Element {
	s.log.Debug("add element", slog.String("kind", k.String()), slog.Float64("x", x), slog.Float64("y", y))
	return s.push(NewElement(k, x, y, rotation))
}

// AddRoom appends a room rectangle and commits. Dimensions are not validated here.
func (s *Scene) AddRoom(x, y, w, h float64) *Area {
	a := &Area{Type: catalog.Room, Rect: geometry.R(x, y, w, h)}
	s.push(a)
	return a
}

// AddHouseBorder appends a house border rectangle and commits.
func (s *Scene) AddHouseBorder(x, y, w, h float64) *Area {
	a := &Area{Type: catalog.HouseBorder, Rect: geometry.R(x, y, w, h)}
	s.push(a)
	return a
}

// AddWall appends a wall from a to b and commits.
func (s *Scene) AddWall(a, b geometry.Pt) *Wall {
	w := &Wall{A: a, B: b}
	s.push(w)
	return w
}

// AddText appends a text label and commits. Non-positive font sizes use the default.
func (s *Scene) AddText(x, y float64, content string, fontSize float64) *Label {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	l := &Label{X: x, Y: y, Content: content, FontSize: fontSize}
	s.push(l)
	return l
}

// EditText changes the selected label and commits. It reports false when the
// selection is not a label.
func (s *Scene) EditText(content string, fontSize float64) bool {
	l, ok := s.Selected().(*Label)
	if !ok {
		return false
	}
	l.Content = content
	if fontSize > 0 {
		l.FontSize = fontSize
	}
	s.Commit()
	return true
}

// DeleteSelected removes the selected element, clears the selection and
// commits. Without selection it does nothing.
func (s *Scene) DeleteSelected() bool {
	i, ok := s.Selection()
	if !ok {
		return false
	}
	return s.DeleteAt(i)
}

// DeleteAt removes element i and commits. The selection follows the
// remaining elements and is cleared when it pointed at i.
func (s *Scene) DeleteAt(i int) bool {
	if i < 0 || i >= len(s.elements) {
		return false
	}
	s.elements = slices.Delete(s.elements, i, i+1)
	if sel, ok := s.Selection(); ok {
		switch {
		case sel == i:
			s.mode = Mode{}
		case sel > i:
			s.mode.Index = sel - 1
		}
	}
	s.Commit()
	return true
}

// ToggleRotation turns the selection by 90 degrees and commits. Without a
// selection it advances the pending rotation instead, which is not a mutation.
func (s *Scene) ToggleRotation() {
	if e := s.Selected(); e != nil {
		e.SetRotation(e.Rotation() + 90)
		s.Commit()
		return
	}
	s.PendingRotation = (s.PendingRotation + 90) % 360
}

// Replace installs a new sequence and resets selection and placement. It
// does not commit; generate and load commit afterwards, history restores must not.
func (s *Scene) Replace(elements []Element) {
	s.elements = slices.Clone(elements)
	s.mode = Mode{}
}

// Append installs a batch and commits once.
func (s *Scene) Append(elements ...Element) {
	if len(elements) == 0 {
		return
	}
	s.elements = append(s.elements, elements...)
	s.Commit()
}

// Clear empties the sequence without committing.
func (s *Scene) Clear() {
	s.elements = nil
	s.mode = Mode{}
}

// MetersToPixels converts a real-world length.
func (s *Scene) MetersToPixels(m float64) float64 { return m * s.UnitScale }

// PixelsToMeters converts a canvas length; it is 0 when the unit scale is 0.
func (s *Scene) PixelsToMeters(px float64) float64 {
	if s.UnitScale == 0 {
		return 0
	}
	return px / s.UnitScale
}
