/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package catalog is the static lookup of element kinds to their default
// footprint. Every kind resolves to a size, unknown kinds included.
package catalog

import (
	"strings"

	"floorplan/internal/geometry"
)

// Kind is the discriminant persisted as "type" in layout files.
type Kind string

const (
	Room        Kind = "room"
	HouseBorder Kind = "houseBorder"
	Wall        Kind = "wall"
	Door        Kind = "door"
	DoubleDoor  Kind = "double-door"
	Window      Kind = "window"
	BedSingle   Kind = "bed-single"
	BedDouble   Kind = "bed-double"
	BedQueen    Kind = "bed-queen"
	BedKing     Kind = "bed-king"
	Table       Kind = "table"
	Sofa        Kind = "sofa"
	Fridge      Kind = "fridge"
	Sink        Kind = "sink"
	Toilet      Kind = "toilet"
	Shower      Kind = "shower"
	FlatTV      Kind = "flat-tv"
	GasStove    Kind = "gas-stove"
	SideTable   Kind = "side-table"
	Bathtub     Kind = "bathtub"
	Chair       Kind = "chair"
	Text        Kind = "text"
)

// Class groups kinds by the shape they carry.
type Class int

const (
	ClassFixture Class = iota // catalog-sized, anchored at x,y
	ClassArea                 // explicit width/height
	ClassSegment              // x1,y1,x2,y2
	ClassText                 // content with a fixed box
)

// Class returns the shape class of k.
func (k Kind) Class() Class {
	switch k {
	case Room, HouseBorder:
		return ClassArea
	case Wall:
		return ClassSegment
	case Text:
		return ClassText
	default:
		return ClassFixture
	}
}

func (k Kind) String() string { return string(k) }

// DefaultSize is used for kinds without a catalog entry.
var DefaultSize = geometry.Size{W: 40, H: 40}

var sizes = map[Kind]geometry.Size{
	BedSingle:  {W: 60, H: 100},
	BedDouble:  {W: 80, H: 100},
	BedQueen:   {W: 100, H: 100},
	BedKing:    {W: 120, H: 100},
	Table:      {W: 120, H: 80},
	Sofa:       {W: 100, H: 50},
	Fridge:     {W: 45, H: 70},
	Sink:       {W: 50, H: 35},
	Toilet:     {W: 35, H: 50},
	Door:       {W: 8, H: 40},
	DoubleDoor: {W: 16, H: 40},
	Window:     {W: 60, H: 8},
	Shower:     {W: 40, H: 60},
	FlatTV:     {W: 70, H: 15},
	GasStove:   {W: 45, H: 30},
	SideTable:  {W: 35, H: 35},
	Bathtub:    {W: 90, H: 45},
	Chair:      {W: 20, H: 20},
	Text:       {W: 200, H: 40},
}

// SizeOf returns the default footprint of k.
func SizeOf(k Kind) geometry.Size {
	if s, ok := sizes[k]; ok {
		return s
	}
	return DefaultSize
}

// Scaled multiplies a size by a display density; non-positive density is identity.
func Scaled(s geometry.Size, density float64) geometry.Size {
	if density <= 0 || density == 1 {
		return s
	}
	return geometry.Size{W: s.W * density, H: s.H * density}
}

var labels = []struct {
	kind  Kind
	label string
}{
	{BedSingle, "Single Bed"},
	{BedDouble, "Double Bed"},
	{BedQueen, "Queen Bed"},
	{BedKing, "King Bed"},
	{Table, "Dining Table"},
	{Sofa, "Sofa"},
	{Fridge, "Fridge"},
	{Sink, "Sink"},
	{Toilet, "Toilet"},
	{Door, "Door"},
	{DoubleDoor, "Double Door"},
	{Window, "Window"},
	{Shower, "Shower"},
	{FlatTV, "Flat TV"},
	{GasStove, "Gas Stove"},
	{SideTable, "Side Table"},
	{Bathtub, "Bathtub"},
	{Chair, "Chair"},
}

// Placeable lists the fixture kinds offered by the appliance picker, in picker order.
func Placeable() []Kind {
	out := make([]Kind, 0, len(labels))
	for _, l := range labels {
		out = append(out, l.kind)
	}
	return out
}

// Label returns the human-readable picker label for k.
func Label(k Kind) string {
	for _, l := range labels {
		if l.kind == k {
			return l.label
		}
	}
	switch k {
	case Room:
		return "Room"
	case HouseBorder:
		return "House Border"
	case Wall:
		return "Wall"
	case Text:
		return "Text"
	}
	return string(k)
}

// Parse maps a kind name or picker label to a Kind. Unknown input is kept
// verbatim so it still resolves to the default size.
func Parse(s string) Kind {
	s = strings.TrimSpace(s)
	for _, l := range labels {
		if strings.EqualFold(s, l.label) || strings.EqualFold(s, string(l.kind)) {
			return l.kind
		}
	}
	for _, k := range []Kind{Room, HouseBorder, Wall, Text} {
		if strings.EqualFold(s, string(k)) || strings.EqualFold(s, Label(k)) {
			return k
		}
	}
	return Kind(s)
}
