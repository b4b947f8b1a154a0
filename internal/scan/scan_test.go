/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scan

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"floorplan/internal/catalog"
	"floorplan/internal/scene"
)

func rectangleImage(w, h int, r image.Rectangle) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(img, r, &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "plan.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func rooms(res Result) []*scene.Area {
	var out []*scene.Area
	for _, e := range res.Elements {
		if a, ok := e.(*scene.Area); ok && a.Type == catalog.Room {
			out = append(out, a)
		}
	}
	return out
}

func TestScanSingleRectangle(t *testing.T) {
	want := image.Rect(400, 300, 2000, 1500)
	path := writePNG(t, rectangleImage(2400, 1800, want))
	res := File(path, Options{})
	if !res.Success || res.Err != nil {
		t.Fatalf("scan failed: %v", res.Err)
	}
	rs := rooms(res)
	if len(rs) != 1 || res.Rooms != 1 {
		t.Fatalf("expected one room candidate, got %d (count %d)", len(rs), res.Rooms)
	}
	r := rs[0]
	const tol = 6.0
	if math.Abs(r.X-400) > tol || math.Abs(r.Y-300) > tol || math.Abs(r.W-1600) > tol || math.Abs(r.H-1200) > tol {
		t.Fatalf("room %+v does not match %v", r.Rect, want)
	}
	if res.Walls < 4 {
		t.Fatalf("expected at least the four border walls, got %d", res.Walls)
	}
}

func TestScanUndecodableFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(p, []byte("definitely not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := File(p, Options{})
	if res.Success || len(res.Elements) != 0 || res.Rooms != 0 || res.Walls != 0 || res.Circles != 0 {
		t.Fatalf("expected graceful failure, got %+v", res)
	}
	if !errors.Is(res.Err, ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode, got %v", res.Err)
	}
	if res := File(filepath.Join(t.TempDir(), "missing.png"), Options{}); !errors.Is(res.Err, ErrImageDecode) {
		t.Fatalf("missing file must fail to decode, got %v", res.Err)
	}
}

func TestAsyncDeliversOnce(t *testing.T) {
	path := writePNG(t, rectangleImage(400, 300, image.Rect(50, 50, 350, 250)))
	ch := Async(context.Background(), path, Options{})
	res, ok := <-ch
	if !ok || !res.Success {
		t.Fatalf("expected one successful result, got ok=%v res=%+v", ok, res)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("channel must be closed after the result")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = <-Async(ctx, path, Options{})
	if res.Success || !errors.Is(res.Err, ErrPipeline) {
		t.Fatalf("cancelled scan must fail with ErrPipeline, got %+v", res)
	}
}

func TestDownscale(t *testing.T) {
	w, h, s := downscale(2400, 1800, 1200)
	if w != 1200 || h != 900 || s != 0.5 {
		t.Fatalf("got %dx%d s=%v", w, h, s)
	}
	if _, _, s := downscale(800, 600, 1200); s != 1 {
		t.Fatalf("small images keep their size, s=%v", s)
	}
}

func TestBuildWallSelection(t *testing.T) {
	d := detection{scale: 0.5, lines: []segment{
		{0, 0, 100, 0},   // h 100
		{0, 10, 300, 12}, // h ~300
		{0, 20, 200, 20}, // h 200
		{0, 0, 0, 150},   // v 150
		{0, 0, 40, 40},   // diagonal ~56
		{0, 0, 20, 20},   // diagonal too short
	}}
	res := build(d)
	if res.Walls != 5 {
		t.Fatalf("expected 2 h + 1 v borders and 2 pooled walls, got %d", res.Walls)
	}
	first := res.Elements[0].(*scene.Wall)
	if first.B.X != 600 {
		t.Fatalf("longest horizontal must come first and be rescaled, got %+v", first)
	}
	third := res.Elements[2].(*scene.Wall)
	if third.B.Y != 300 {
		t.Fatalf("vertical border expected third, got %+v", third)
	}
}

func TestBuildWithoutBothOrientations(t *testing.T) {
	d := detection{scale: 1, lines: []segment{{0, 0, 100, 0}, {0, 5, 60, 5}, {0, 9, 80, 9}}}
	res := build(d)
	if res.Walls != 3 {
		t.Fatalf("horizontal-only input must pool every segment, got %d", res.Walls)
	}
	if w := res.Elements[0].(*scene.Wall); w.B.X != 100 {
		t.Fatalf("pool must be sorted by length, got %+v", w)
	}
}

func TestBuildCirclesAndRoomFilters(t *testing.T) {
	square := []image.Point{{10, 10}, {10, 110}, {110, 110}, {110, 10}}
	sliver := []image.Point{{0, 0}, {0, 20}, {400, 20}, {400, 0}}
	tiny := []image.Point{{0, 0}, {0, 5}, {5, 5}, {5, 0}}
	d := detection{
		scale:    1,
		contours: [][]image.Point{square, sliver, tiny},
		circles:  []circle{{x: 50.4, y: 60.6, r: 9.7}},
	}
	res := build(d)
	if res.Rooms != 1 {
		t.Fatalf("only the square should pass the filters, got %d", res.Rooms)
	}
	room := res.Elements[0].(*scene.Area)
	if room.X != 10 || room.W != 101 {
		t.Fatalf("unexpected room %+v", room.Rect)
	}
	if res.Circles != 1 {
		t.Fatalf("expected one circle, got %d", res.Circles)
	}
	f := res.Elements[1].(*scene.Fixture)
	if f.Type != catalog.Toilet || f.X != 40 || f.Y != 51 || f.CustomSize.W != 20 {
		t.Fatalf("unexpected circle fixture %+v size %+v", f, f.CustomSize)
	}
}
