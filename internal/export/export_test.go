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
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"floorplan/internal/catalog"
	"floorplan/internal/geometry"
	"floorplan/internal/scene"
)

func sampleElements() []scene.Element {
	return []scene.Element{
		&scene.Area{Type: catalog.HouseBorder, Rect: geometry.R(0, 0, 200, 100)},
		&scene.Area{Type: catalog.Room, Name: "kitchen", Rect: geometry.R(10, 10, 80, 60)},
		&scene.Wall{A: geometry.Pt{X: 100, Y: 0}, B: geometry.Pt{X: 100, Y: 100}},
		&scene.Fixture{Type: catalog.Door, X: 150, Y: 20, Rot: 90},
		&scene.Label{X: 110, Y: 50, Content: "Bath & <WC>", FontSize: 14},
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestBuildPlanMapsIntoMargin(t *testing.T) {
	els := sampleElements()
	p := buildPlan(els, Options{Scale: 2})
	// the label box reaches x=310, y=90; the border spans 0..200 x 0..100
	if !near(p.w, 310*2+40) || !near(p.h, 100*2+40) {
		t.Fatalf("unexpected canvas %gx%g", p.w, p.h)
	}
	border := p.shapes[0]
	if !border.double || border.poly[0] != (geometry.Pt{X: 20, Y: 20}) {
		t.Fatalf("border must be double stroked at the margin: %+v", border)
	}
	door := p.shapes[3]
	// 8x40 door turned a quarter about its centre (154,40) spans x 134..174
	minX := math.Min(math.Min(door.poly[0].X, door.poly[1].X), math.Min(door.poly[2].X, door.poly[3].X))
	if !near(minX, 20+134*2) {
		t.Fatalf("rotated door starts at x=%g", minX)
	}
	if !p.shapes[2].segment || p.shapes[4].text == "" {
		t.Fatalf("wall and label must keep their shape")
	}
	if p.grid != nil {
		t.Fatalf("grid is off by default")
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.Margin != 20 || o.Scale != 1 || o.Grid || o.GridSize != 20 {
		t.Fatalf("unexpected defaults %+v", o)
	}
	p := buildPlan(nil, Options{Grid: true})
	if p.w != 40 || p.h != 40 || len(p.grid) != 2 {
		t.Fatalf("empty plan: %gx%g grid=%d", p.w, p.h, len(p.grid))
	}
}

func TestPNGDrawsFillsAndStrokes(t *testing.T) {
	var buf bytes.Buffer
	if err := PNG(&buf, sampleElements(), Options{}); err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 350 || b.Dy() != 140 {
		t.Fatalf("unexpected size %v", b)
	}
	want := toRGBA(paintFor(catalog.Room).fill)
	r, g, b, _ := img.At(20+50, 20+40).RGBA()
	if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
		t.Fatalf("room interior not filled: %v %v %v", r>>8, g>>8, b>>8)
	}
	r, _, _, _ = img.At(20+100, 20+50).RGBA()
	if r>>8 > 0x60 {
		t.Fatalf("wall pixel not dark: %d", r>>8)
	}
	r, _, _, _ = img.At(5, 5).RGBA()
	if r>>8 != 0xff {
		t.Fatalf("margin must stay white")
	}
}

func TestSVGContent(t *testing.T) {
	var buf bytes.Buffer
	if err := SVG(&buf, sampleElements(), Options{Title: "Plan", Grid: true}); err != nil {
		t.Fatalf("SVG: %v", err)
	}
	s := buf.String()
	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg"`,
		`<title>Plan</title>`,
		`<line class="wall"`,
		`<polygon class="room"`,
		`Bath &amp; &lt;WC&gt;`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if n := strings.Count(s, `class="houseBorder"`); n != 2 {
		t.Errorf("house border must be drawn twice, got %d", n)
	}
}

func TestPDFWritesDocument(t *testing.T) {
	var buf bytes.Buffer
	if err := PDF(&buf, sampleElements(), Options{Title: "Plan"}); err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", buf.Bytes()[:min(8, buf.Len())])
	}
}

func TestFileByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"plan.png", "plan.svg", "out/plan.pdf"} {
		path := filepath.Join(dir, name)
		if err := File(path, sampleElements(), Options{}); err != nil {
			t.Fatalf("File(%s): %v", name, err)
		}
		if st, err := os.Stat(path); err != nil || st.Size() == 0 {
			t.Fatalf("%s missing or empty: %v", name, err)
		}
	}
	if err := File(filepath.Join(dir, "plan.bmp"), nil, Options{}); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"png": FormatPNG, ".SVG": FormatSVG, " pdf ": FormatPDF}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Fatalf("gif must be rejected")
	}
	if FormatSVG.ContentType() != "image/svg+xml" {
		t.Fatalf("unexpected content type")
	}
}

func TestColors(t *testing.T) {
	fill, stroke := Colors(catalog.Room)
	if fill.A != 255 || stroke.A != 255 {
		t.Fatalf("room must be filled and stroked: %v %v", fill, stroke)
	}
	if stroke.R >= fill.R {
		t.Fatalf("stroke must be darker than fill: %v %v", fill, stroke)
	}
	if fill, _ := Colors(catalog.HouseBorder); fill.A != 0 {
		t.Fatalf("house border has no fill, got %v", fill)
	}
	if a, _ := Colors(catalog.Kind("spaceship")); a.A != 255 {
		t.Fatalf("unknown kinds use the fallback fill")
	}
}
