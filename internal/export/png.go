/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"floorplan/internal/catalog"
	"floorplan/internal/geometry"
	"floorplan/internal/scene"
)

// PNG rasterizes the plan. Labels use the fixed 7x13 face regardless of
// their font size.
func PNG(w io.Writer, elements []scene.Element, opts Options) error {
	img := Raster(elements, opts)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Raster draws the plan into a new RGBA image.
func Raster(elements []scene.Element, opts Options) *image.RGBA {
	p := buildPlan(elements, opts)
	img := image.NewRGBA(image.Rect(0, 0, int(p.w), int(p.h)))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: toRGBA(paper)}, image.Point{}, draw.Src)

	gc := toRGBA(gridColor)
	for _, g := range p.grid {
		drawLine(img, g[0], g[1], 1, gc)
	}
	for _, sh := range p.shapes {
		stroke := toRGBA(sh.paint.stroke)
		switch {
		case sh.segment:
			drawLine(img, sh.a, sh.b, sh.width, stroke)
		case sh.text != "":
			d := &font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(stroke),
				Face: basicfont.Face7x13,
				Dot:  fixed.P(int(sh.poly[0].X+labelPad), int(sh.poly[0].Y+labelPad)+basicfont.Face7x13.Ascent),
			}
			d.DrawString(sh.text)
		default:
			if sh.paint.filled {
				fillPoly(img, sh.poly, toRGBA(sh.paint.fill))
			}
			strokePoly(img, sh.poly, sh.width, stroke)
			if sh.double {
				strokePoly(img, inset(sh.poly, borderGap*sh.width/2), sh.width, stroke)
			}
		}
	}
	return img
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Colors returns the fill and stroke used for kind k. Kinds drawn without a
// fill get a transparent fill.
func Colors(k catalog.Kind) (fill, stroke color.RGBA) {
	p := paintFor(k)
	stroke = toRGBA(p.stroke)
	if p.filled {
		fill = toRGBA(p.fill)
	}
	return fill, stroke
}

func strokePoly(img *image.RGBA, cs [4]geometry.Pt, width float64, col color.RGBA) {
	for i := range cs {
		drawLine(img, cs[i], cs[(i+1)%len(cs)], width, col)
	}
}

// drawLine stamps a square brush of the given width along a-b.
func drawLine(img *image.RGBA, a, b geometry.Pt, width float64, col color.RGBA) {
	r := int(math.Max(0, math.Round(width/2-0.5)))
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		cx := int(math.Round(a.X + t*(b.X-a.X)))
		cy := int(math.Round(a.Y + t*(b.Y-a.Y)))
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				setPixel(img, cx+dx, cy+dy, col)
			}
		}
	}
}

func setPixel(img *image.RGBA, x, y int, col color.RGBA) {
	if image.Pt(x, y).In(img.Rect) {
		img.SetRGBA(x, y, col)
	}
}

// fillPoly fills a convex quad by testing pixel centres against its edges.
func fillPoly(img *image.RGBA, cs [4]geometry.Pt, col color.RGBA) {
	minX, minY := cs[0].X, cs[0].Y
	maxX, maxY := minX, minY
	for _, c := range cs[1:] {
		minX, maxX = math.Min(minX, c.X), math.Max(maxX, c.X)
		minY, maxY = math.Min(minY, c.Y), math.Max(maxY, c.Y)
	}
	for y := int(math.Floor(minY)); y <= int(math.Ceil(maxY)); y++ {
		for x := int(math.Floor(minX)); x <= int(math.Ceil(maxX)); x++ {
			if insideQuad(cs, geometry.Pt{X: float64(x) + 0.5, Y: float64(y) + 0.5}) {
				setPixel(img, x, y, col)
			}
		}
	}
}

func insideQuad(cs [4]geometry.Pt, p geometry.Pt) bool {
	var pos, neg bool
	for i := range cs {
		a, b := cs[i], cs[(i+1)%len(cs)]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		switch {
		case cross > 0:
			pos = true
		case cross < 0:
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}
