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
	"image"
	"math"
)

// contourArea is the absolute shoelace area of a closed polygon.
func contourArea(c []image.Point) float64 {
	if len(c) < 3 {
		return 0
	}
	var a float64
	for i := range c {
		p, q := c[i], c[(i+1)%len(c)]
		a += float64(p.X*q.Y - q.X*p.Y)
	}
	return math.Abs(a) / 2
}

func arcLength(c []image.Point, closed bool) float64 {
	if len(c) < 2 {
		return 0
	}
	var l float64
	for i := 1; i < len(c); i++ {
		l += dist(c[i-1], c[i])
	}
	if closed {
		l += dist(c[len(c)-1], c[0])
	}
	return l
}

func dist(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// boundingRect returns the pixel-inclusive bounds, so a single point is 1x1.
func boundingRect(c []image.Point) image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: c[0], Max: c[0]}
	for _, p := range c[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}

// approxPolyDP simplifies a polyline with Douglas-Peucker. Closed curves are
// split at two mutually distant points and both halves simplified.
func approxPolyDP(c []image.Point, eps float64, closed bool) []image.Point {
	n := len(c)
	if n < 3 {
		return append([]image.Point(nil), c...)
	}
	if !closed {
		keep := make([]bool, n)
		keep[0], keep[n-1] = true, true
		dpMark(c, 0, n-1, eps, keep)
		return collect(c, keep)
	}
	a := farthest(c, 0)
	b := farthest(c, a)
	if a == b {
		return []image.Point{c[a]}
	}
	if a > b {
		a, b = b, a
	}
	// rotate so the curve starts at a; b moves to b-a
	ring := append(append([]image.Point{}, c[a:]...), c[:a]...)
	ring = append(ring, ring[0])
	mid := b - a
	keep := make([]bool, len(ring))
	keep[0], keep[mid], keep[len(ring)-1] = true, true, true
	dpMark(ring, 0, mid, eps, keep)
	dpMark(ring, mid, len(ring)-1, eps, keep)
	keep[len(ring)-1] = false
	return collect(ring, keep)
}

func farthest(c []image.Point, from int) int {
	best, bestD := from, -1.0
	for i, p := range c {
		if d := dist(c[from], p); d > bestD {
			best, bestD = i, d
		}
	}
	return best
}

func dpMark(c []image.Point, lo, hi int, eps float64, keep []bool) {
	if hi-lo < 2 {
		return
	}
	idx, maxD := -1, -1.0
	for i := lo + 1; i < hi; i++ {
		if d := lineDist(c[i], c[lo], c[hi]); d > maxD {
			idx, maxD = i, d
		}
	}
	if maxD <= eps {
		return
	}
	keep[idx] = true
	dpMark(c, lo, idx, eps, keep)
	dpMark(c, idx, hi, eps, keep)
}

// lineDist is the distance of p from the infinite line a-b.
func lineDist(p, a, b image.Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	l := math.Hypot(dx, dy)
	if l == 0 {
		return dist(p, a)
	}
	return math.Abs(dy*float64(p.X-a.X)-dx*float64(p.Y-a.Y)) / l
}

func collect(c []image.Point, keep []bool) []image.Point {
	var out []image.Point
	for i, k := range keep {
		if k {
			out = append(out, c[i])
		}
	}
	return out
}
