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
	"bytes"
	"fmt"
	"io"
	"strings"

	"floorplan/internal/geometry"
	"floorplan/internal/scene"
)

// SVG writes the plan as a standalone SVG document in output pixels.
func SVG(w io.Writer, elements []scene.Element, opts Options) error {
	p := buildPlan(elements, opts)

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%gpx\" height=\"%gpx\" viewBox=\"0 0 %g %g\">\n", p.w, p.h, p.w, p.h)
	if p.title != "" {
		wf("  <title>%s</title>\n", escText(p.title))
	}
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n", p.w, p.h, paper.Hex())

	if len(p.grid) > 0 {
		wf("  <g stroke=\"%s\" stroke-width=\"1\">\n", gridColor.Hex())
		for _, g := range p.grid {
			wf("    <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\"/>\n", g[0].X, g[0].Y, g[1].X, g[1].Y)
		}
		wf("  </g>\n")
	}

	for _, sh := range p.shapes {
		stroke := sh.paint.stroke.Hex()
		switch {
		case sh.segment:
			wf("  <line class=\"%s\" x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"%g\" stroke-linecap=\"square\"/>\n",
				sh.kind, sh.a.X, sh.a.Y, sh.b.X, sh.b.Y, stroke, sh.width)
		case sh.text != "":
			wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\" fill=\"%s\">%s</text>\n",
				sh.poly[0].X+labelPad, sh.poly[0].Y+labelPad+sh.fontSize, sh.fontSize, stroke, escText(sh.text))
		default:
			fill := "none"
			if sh.paint.filled {
				fill = sh.paint.fill.Hex()
			}
			wf("  <polygon class=\"%s\" points=\"%s\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				escAttr(string(sh.kind)), points(sh.poly), fill, stroke, sh.width)
			if sh.double {
				wf("  <polygon class=\"%s\" points=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
					escAttr(string(sh.kind)), points(inset(sh.poly, borderGap*sh.width/2)), stroke, sh.width)
			}
		}
	}
	wf("</svg>\n")

	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func points(cs [4]geometry.Pt) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%g,%g", geometry.FloatRound(c.X, 3), geometry.FloatRound(c.Y, 3))
	}
	return strings.Join(parts, " ")
}

func escAttr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '\n':
			out = append(out, ' ')
		case '\r':
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
