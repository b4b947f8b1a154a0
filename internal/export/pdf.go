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
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/lucasb-eyer/go-colorful"

	"floorplan/internal/geometry"
	applog "floorplan/internal/log"
	"floorplan/internal/scene"
)

// PDF writes the plan as a single page sized to the drawing. Units are
// points, one output pixel per point, origin top-left. Text uses the
// built-in Helvetica so nothing is embedded.
func PDF(w io.Writer, elements []scene.Element, opts Options) error {
	p := buildPlan(elements, opts)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: p.w, Ht: p.h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if p.title != "" {
		pdf.SetTitle(p.title, true)
	}
	pdf.SetCreator(applog.App, false)
	pdf.AddPage()

	if len(p.grid) > 0 {
		setDrawColor(pdf, gridColor)
		pdf.SetLineWidth(0.5)
		for _, g := range p.grid {
			pdf.Line(g[0].X, g[0].Y, g[1].X, g[1].Y)
		}
	}

	pdf.SetLineCapStyle("square")
	for _, sh := range p.shapes {
		setDrawColor(pdf, sh.paint.stroke)
		pdf.SetLineWidth(sh.width)
		switch {
		case sh.segment:
			pdf.Line(sh.a.X, sh.a.Y, sh.b.X, sh.b.Y)
		case sh.text != "":
			setTextColor(pdf, sh.paint.stroke)
			pdf.SetFont("Helvetica", "", sh.fontSize)
			pdf.Text(sh.poly[0].X+labelPad, sh.poly[0].Y+labelPad+sh.fontSize, sh.text)
		default:
			style := "D"
			if sh.paint.filled {
				setFillColor(pdf, sh.paint.fill)
				style = "FD"
			}
			pdf.Polygon(polyPoints(sh.poly), style)
			if sh.double {
				pdf.Polygon(polyPoints(inset(sh.poly, borderGap*sh.width/2)), "D")
			}
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func polyPoints(cs [4]geometry.Pt) []gofpdf.PointType {
	out := make([]gofpdf.PointType, len(cs))
	for i, c := range cs {
		out[i] = gofpdf.PointType{X: c.X, Y: c.Y}
	}
	return out
}

func setDrawColor(pdf *gofpdf.Fpdf, c colorful.Color) {
	r, g, b := c.Clamped().RGB255()
	pdf.SetDrawColor(int(r), int(g), int(b))
}

func setFillColor(pdf *gofpdf.Fpdf, c colorful.Color) {
	r, g, b := c.Clamped().RGB255()
	pdf.SetFillColor(int(r), int(g), int(b))
}

func setTextColor(pdf *gofpdf.Fpdf, c colorful.Color) {
	r, g, b := c.Clamped().RGB255()
	pdf.SetTextColor(int(r), int(g), int(b))
}
