/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package layout

import (
	"errors"
	"fmt"
	"math"

	"floorplan/internal/catalog"
	"floorplan/internal/scene"
)

// ErrRoomTooSmall marks a room whose anchor furniture does not fit.
var ErrRoomTooSmall = errors.New("room too small")

// Violation names a room whose anchor crosses its right or bottom edge.
type Violation struct {
	Room   string
	Anchor catalog.Kind
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s does not fit", v.Room, v.Anchor)
}

func (v Violation) Unwrap() error { return ErrRoomTooSmall }

var anchors = []struct {
	room string
	kind catalog.Kind
}{
	{NameRoom, catalog.BedQueen},
	{NameKitchen, catalog.Sink},
	{NameBathroom, catalog.Toilet},
	{NameLivingRoom, catalog.Sofa},
}

// Validate checks the anchor of every named room. Rooms are matched by
// semantic name; the anchor is the first element of the anchor kind whose
// origin lies inside that room.
func Validate(elements []scene.Element) []Violation {
	var out []Violation
	for _, a := range anchors {
		room := findRoom(elements, a.room)
		if room == nil {
			continue
		}
		for _, e := range elements {
			f, ok := e.(*scene.Fixture)
			if !ok || f.Type != a.kind || !room.Contains(f.Position()) {
				continue
			}
			if room.Overflows(f.Bounds()) {
				out = append(out, Violation{Room: a.room, Anchor: a.kind})
			}
			break
		}
	}
	return out
}

func findRoom(elements []scene.Element, name string) *scene.Area {
	for _, e := range elements {
		if r, ok := e.(*scene.Area); ok && r.Type == catalog.Room && r.Name == name {
			return r
		}
	}
	return nil
}

// Err joins violations into one error, nil when there are none.
func Err(vs []Violation) error {
	errs := make([]error, len(vs))
	for i, v := range vs {
		errs[i] = v
	}
	return errors.Join(errs...)
}

// Minimum real-world footprints accepted by the dimension entry.
const (
	MinHouseWidth  = 15.0
	MinHouseHeight = 10.75
	MinRoomWidth   = 5.0
	MinRoomHeight  = 3.75
)

// ValidationError reports rejected dimension input in meters.
type ValidationError struct {
	Field string
	Value float64
	Min   float64
}

func (e *ValidationError) Error() string {
	if math.IsNaN(e.Value) {
		return e.Field + " is not a number"
	}
	return fmt.Sprintf("%s %.2fm is below the minimum of %.2fm", e.Field, e.Value, e.Min)
}

// CheckHouse validates a house footprint in meters.
func CheckHouse(wm, hm float64) error { return check("house", wm, hm, MinHouseWidth, MinHouseHeight) }

// CheckRoom validates a room footprint in meters.
func CheckRoom(wm, hm float64) error { return check("room", wm, hm, MinRoomWidth, MinRoomHeight) }

func check(what string, w, h, minW, minH float64) error {
	if math.IsNaN(w) || w < minW {
		return &ValidationError{Field: what + " width", Value: w, Min: minW}
	}
	if math.IsNaN(h) || h < minH {
		return &ValidationError{Field: what + " height", Value: h, Min: minH}
	}
	return nil
}
