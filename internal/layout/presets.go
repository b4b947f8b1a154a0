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
	"fmt"
	"log/slog"

	"floorplan/internal/catalog"
	"floorplan/internal/geometry"
	applog "floorplan/internal/log"
	"floorplan/internal/scene"
)

// Preset names a predefined furnished room.
type Preset string

const (
	PresetRoom       Preset = "room"
	PresetKitchen    Preset = "kitchen"
	PresetLivingRoom Preset = "livingroom"
	PresetBathroom   Preset = "bathroom"
)

// Presets lists the available presets in menu order.
func Presets() []Preset {
	return []Preset{PresetRoom, PresetKitchen, PresetLivingRoom, PresetBathroom}
}

type presetItem struct {
	kind catalog.Kind
	x, y float64
	w, h float64
	rot  int
}

var presetOrigin = geometry.Pt{X: 50, Y: 50}

var presets = map[Preset][]presetItem{
	PresetRoom: {
		{kind: catalog.Room, w: 200, h: 150},
		{kind: catalog.BedQueen, x: 20, y: 20},
		{kind: catalog.SideTable, x: 130, y: 20},
		{kind: catalog.Door, x: 200, y: 70, rot: 180},
	},
	PresetKitchen: {
		{kind: catalog.Room, x: 300, w: 250, h: 200},
		{kind: catalog.Sink, x: 320, y: 20},
		{kind: catalog.GasStove, x: 380, y: 20},
		{kind: catalog.Fridge, x: 500, y: 10},
		{kind: catalog.Table, x: 350, y: 100},
		{kind: catalog.Door, x: 500, y: 187, rot: 270},
	},
	PresetLivingRoom: {
		{kind: catalog.Room, y: 250, w: 250, h: 200},
		{kind: catalog.Sofa, x: 10, y: 310, rot: 270},
		{kind: catalog.Sofa, x: 110, y: 270},
		{kind: catalog.SideTable, x: 140, y: 340},
		{kind: catalog.FlatTV, x: 120, y: 410},
		{kind: catalog.Door, x: 250, y: 340, rot: 180},
	},
	PresetBathroom: {
		{kind: catalog.Room, x: 350, y: 250, w: 200, h: 200},
		{kind: catalog.Toilet, x: 370, y: 270, rot: 270},
		{kind: catalog.Bathtub, x: 440, y: 390},
		{kind: catalog.Shower, x: 370, y: 380},
		{kind: catalog.Door, x: 470, y: 225, rot: 90},
	},
}

// PresetElements builds the elements of preset p without touching a scene.
func PresetElements(p Preset, opts Options) ([]scene.Element, error) {
	items, ok := presets[p]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", p)
	}
	ox, oy := opts.dp(presetOrigin.X), opts.dp(presetOrigin.Y)
	out := make([]scene.Element, 0, len(items))
	for _, it := range items {
		x, y := ox+opts.dp(it.x), oy+opts.dp(it.y)
		if it.kind == catalog.Room {
			out = append(out, &scene.Area{Type: catalog.Room, Rect: geometry.R(x, y, opts.dp(it.w), opts.dp(it.h))})
			continue
		}
		out = append(out, &scene.Fixture{Type: it.kind, X: x, Y: y, Rot: it.rot})
	}
	return out, nil
}

// AddPreset appends preset p to the scene and commits once.
func AddPreset(s *scene.Scene, p Preset, opts Options) error {
	els, err := PresetElements(p, opts)
	if err != nil {
		return err
	}
	s.Append(els...)
	applog.WithComponent("layout").Info("preset added", slog.String("preset", string(p)), slog.Int("elements", len(els)))
	return nil
}
