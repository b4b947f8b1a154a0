/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export renders a floor plan to PNG, SVG or PDF. All renderers
// share one plan: the elements mapped into output coordinates with the same
// palette, so the formats agree on geometry and colors.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"floorplan/internal/catalog"
	"floorplan/internal/geometry"
	"floorplan/internal/scene"
)

// Format is an output file type.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
)

// ErrFormat rejects an unknown output format.
var ErrFormat = errors.New("export: unsupported format")

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case FormatPNG, FormatSVG, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, s)
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Options control rendering. Zero values fall back to the defaults: no
// grid, margin 20, scale 1.
type Options struct {
	Margin   float64
	Scale    float64
	Grid     bool
	GridSize int
	Title    string
}

const (
	defaultMargin   = 20
	defaultScale    = 1
	defaultGridSize = 20
	// borderGap separates the two strokes of the house border.
	borderGap = 4
	labelPad  = 4
)

func (o Options) withDefaults() Options {
	if o.Margin <= 0 {
		o.Margin = defaultMargin
	}
	if o.Scale <= 0 {
		o.Scale = defaultScale
	}
	if o.GridSize <= 0 {
		o.GridSize = defaultGridSize
	}
	return o
}

// Write renders elements in format f.
func Write(w io.Writer, f Format, elements []scene.Element, opts Options) error {
	switch f {
	case FormatPNG:
		return PNG(w, elements, opts)
	case FormatSVG:
		return SVG(w, elements, opts)
	case FormatPDF:
		return PDF(w, elements, opts)
	}
	return fmt.Errorf("%w: %q", ErrFormat, f)
}

// File renders elements to path; the format follows the extension.
func File(path string, elements []scene.Element, opts Options) (err error) {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure out dir: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", f, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", f, cerr)
		}
	}()
	return Write(out, f, elements, opts)
}

// paint is a fill and stroke pair. A zero fill means no fill.
type paint struct {
	fill   colorful.Color
	stroke colorful.Color
	filled bool
}

func hex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}
	}
	return c
}

var (
	ink       = hex("#202020")
	gridColor = hex("#e4e4e4")
	paper     = hex("#ffffff")
)

// filled derives the stroke from the fill by darkening it in Lab space.
func filled(fill string) paint {
	c := hex(fill)
	return paint{fill: c, stroke: c.BlendLab(ink, 0.6).Clamped(), filled: true}
}

var palette = map[catalog.Kind]paint{
	catalog.Room:        filled("#f4efe4"),
	catalog.HouseBorder: {stroke: ink},
	catalog.Wall:        {stroke: hex("#303030")},
	catalog.Text:        {stroke: hex("#000000")},
	catalog.BedSingle:   filled("#c8d6f0"),
	catalog.BedDouble:   filled("#c8d6f0"),
	catalog.BedQueen:    filled("#c8d6f0"),
	catalog.BedKing:     filled("#c8d6f0"),
	catalog.Sink:        filled("#cdeef0"),
	catalog.Toilet:      filled("#cdeef0"),
	catalog.Shower:      filled("#cdeef0"),
	catalog.Bathtub:     filled("#cdeef0"),
	catalog.Fridge:      filled("#f0dcc8"),
	catalog.GasStove:    filled("#f0dcc8"),
	catalog.Table:       filled("#e2cfae"),
	catalog.SideTable:   filled("#e2cfae"),
	catalog.Chair:       filled("#e2cfae"),
	catalog.Sofa:        filled("#d9c8e6"),
	catalog.FlatTV:      filled("#9a9a9a"),
	catalog.Door:        filled("#b07d52"),
	catalog.DoubleDoor:  filled("#b07d52"),
	catalog.Window:      filled("#a8d8f0"),
}

var fallbackPaint = filled("#dcdcdc")

func paintFor(k catalog.Kind) paint {
	if p, ok := palette[k]; ok {
		return p
	}
	return fallbackPaint
}

// shape is one element in output coordinates. Areas, fixtures and labels
// use poly; walls use a and b.
type shape struct {
	kind     catalog.Kind
	paint    paint
	poly     [4]geometry.Pt
	a, b     geometry.Pt
	segment  bool
	double   bool
	text     string
	fontSize float64
	width    float64
}

// plan is the renderer-independent drawing.
type plan struct {
	w, h   float64
	grid   [][2]geometry.Pt
	shapes []shape
	title  string
}

func extent(e scene.Element) geometry.Rect {
	switch v := e.(type) {
	case *scene.Fixture:
		return v.Bounds().RotatedBounds(v.Rotation())
	default:
		return e.Bounds()
	}
}

// buildPlan maps elements so that their joint bounds start at the margin.
func buildPlan(elements []scene.Element, opts Options) plan {
	opts = opts.withDefaults()
	var bounds geometry.Rect
	for i, e := range elements {
		if i == 0 {
			bounds = extent(e)
			continue
		}
		bounds = bounds.Union(extent(e))
	}
	s := opts.Scale
	m := geometry.Translate(opts.Margin, opts.Margin).Mul(geometry.Scale(s, s)).Mul(geometry.Translate(-bounds.X, -bounds.Y))
	p := plan{
		w:     math.Ceil(bounds.W*s + 2*opts.Margin),
		h:     math.Ceil(bounds.H*s + 2*opts.Margin),
		title: opts.Title,
	}

	if opts.Grid {
		step := float64(opts.GridSize) * s
		for x := opts.Margin; x <= p.w-opts.Margin+1e-9; x += step {
			p.grid = append(p.grid, [2]geometry.Pt{{X: x, Y: opts.Margin}, {X: x, Y: p.h - opts.Margin}})
		}
		for y := opts.Margin; y <= p.h-opts.Margin+1e-9; y += step {
			p.grid = append(p.grid, [2]geometry.Pt{{X: opts.Margin, Y: y}, {X: p.w - opts.Margin, Y: y}})
		}
	}

	for _, e := range elements {
		sh := shape{kind: e.Kind(), paint: paintFor(e.Kind()), width: s}
		switch v := e.(type) {
		case *scene.Wall:
			sh.segment = true
			sh.a, sh.b = m.Apply(v.A), m.Apply(v.B)
			sh.width = 3 * s
		case *scene.Area:
			sh.poly = mapCorners(m, v.Rect.Corners())
			sh.double = v.Type == catalog.HouseBorder
			sh.width = 2 * s
		case *scene.Fixture:
			sh.poly = mapCorners(m, v.Bounds().RotatedCorners(v.Rotation()))
		case *scene.Label:
			sh.poly = mapCorners(m, v.Bounds().Corners())
			sh.text = v.Content
			sh.fontSize = v.FontSize * s
		}
		p.shapes = append(p.shapes, sh)
	}
	return p
}

func mapCorners(m geometry.Affine, cs [4]geometry.Pt) [4]geometry.Pt {
	for i := range cs {
		cs[i] = m.Apply(cs[i])
	}
	return cs
}

// inset shrinks an axis-aligned corner set by d on every side.
func inset(cs [4]geometry.Pt, d float64) [4]geometry.Pt {
	return [4]geometry.Pt{
		{X: cs[0].X + d, Y: cs[0].Y + d},
		{X: cs[1].X - d, Y: cs[1].Y + d},
		{X: cs[2].X - d, Y: cs[2].Y - d},
		{X: cs[3].X + d, Y: cs[3].Y - d},
	}
}
