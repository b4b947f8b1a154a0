/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

//go:build !gocv

package scan

import (
	"image"
	"math"
	"testing"
)

func fill(p *plane, r image.Rectangle, v uint8) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p.set(x, y, v)
		}
	}
}

func TestGaussianKernelSigmaFromSize(t *testing.T) {
	k := gaussianKernel(7, 0)
	var sum float64
	for _, v := range k {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("kernel must be normalized, sum=%v", sum)
	}
	if k[0] != k[6] || k[3] <= k[2] {
		t.Fatalf("kernel must be symmetric and peak in the middle: %v", k)
	}
}

func TestOtsuSeparatesModes(t *testing.T) {
	p := newPlane(10, 10)
	fill(p, image.Rect(0, 0, 10, 10), 200)
	fill(p, image.Rect(0, 0, 5, 10), 20)
	th := otsu(p)
	if th < 20 || th >= 200 {
		t.Fatalf("threshold %d not between modes", th)
	}
	inv := thresholdInv(p, th)
	if inv.at(0, 0) != 255 || inv.at(9, 9) != 0 {
		t.Fatalf("inverted threshold wrong: %d %d", inv.at(0, 0), inv.at(9, 9))
	}
}

func TestClosingBridgesGap(t *testing.T) {
	p := newPlane(30, 3)
	fill(p, image.Rect(0, 1, 10, 2), 255)
	fill(p, image.Rect(14, 1, 30, 2), 255)
	c := closing(p, 15, 1)
	for x := 0; x < 30; x++ {
		if c.at(x, 1) != 255 {
			t.Fatalf("gap not bridged at x=%d", x)
		}
	}
	if c.at(5, 0) != 0 {
		t.Fatalf("horizontal closing must not grow vertically")
	}
}

func TestFindContoursOuterAndHole(t *testing.T) {
	p := newPlane(40, 40)
	fill(p, image.Rect(5, 5, 35, 35), 255)
	fill(p, image.Rect(15, 15, 25, 25), 0)
	cs := findContours(p)
	if len(cs) != 2 {
		t.Fatalf("expected outer and hole border, got %d", len(cs))
	}
	outer := boundingRect(cs[0])
	if outer != image.Rect(5, 5, 35, 35) {
		t.Fatalf("outer bounds %v", outer)
	}
	if len(cs[0]) != 4 {
		t.Fatalf("straight runs must compress to corners, got %v", cs[0])
	}
	hole := boundingRect(cs[1])
	if !hole.In(outer) || hole.Dx() < 10 || hole.Dx() > 12 {
		t.Fatalf("hole bounds %v", hole)
	}
}

func TestFindContoursSinglePixel(t *testing.T) {
	p := newPlane(5, 5)
	p.set(2, 2, 255)
	cs := findContours(p)
	if len(cs) != 1 || len(cs[0]) != 1 || cs[0][0] != image.Pt(2, 2) {
		t.Fatalf("unexpected contours %v", cs)
	}
}

func TestHoughLinesPFindsSegment(t *testing.T) {
	p := newPlane(200, 100)
	fill(p, image.Rect(20, 50, 180, 51), 255)
	ls := houghLinesP(p, houghParams{rho: 1, theta: math.Pi / 180, threshold: 80, minLength: 50, maxGap: 20, seed: 1})
	if len(ls) == 0 {
		t.Fatalf("expected a segment")
	}
	if ls[0].length() < 150 || classify(ls[0]) != horizontal {
		t.Fatalf("unexpected segment %+v", ls[0])
	}
}

func TestCannyOnStep(t *testing.T) {
	p := newPlane(40, 40)
	fill(p, image.Rect(0, 0, 40, 40), 255)
	fill(p, image.Rect(10, 10, 30, 30), 0)
	e := canny(newGradient(gaussianBlur(p, 7, 0)), 30, 90)
	edge := 0
	for x := 0; x < 40; x++ {
		if e.at(x, 20) != 0 {
			edge++
		}
	}
	if edge < 2 || edge > 4 {
		t.Fatalf("expected thin edges on both sides, got %d pixels", edge)
	}
}

func TestHoughCirclesFindsRing(t *testing.T) {
	p := newPlane(100, 100)
	fill(p, image.Rect(0, 0, 100, 100), 255)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if math.Hypot(float64(x-50), float64(y-50)) <= 15 {
				p.set(x, y, 0)
			}
		}
	}
	cs := houghCircles(gaussianBlur(p, 7, 0), circleParams{minDist: 20, param1: 50, param2: 25, minR: 5, maxR: 30})
	if len(cs) == 0 {
		t.Fatalf("expected a circle")
	}
	c := cs[0]
	if math.Abs(c.x-50) > 3 || math.Abs(c.y-50) > 3 || math.Abs(c.r-15) > 3 {
		t.Fatalf("unexpected circle %+v", c)
	}
}
