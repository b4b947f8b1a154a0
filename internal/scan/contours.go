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

import "image"

// neighbour offsets in counter-clockwise order starting east; y grows down.
var ring8 = [8]image.Point{
	{1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}, {0, 1}, {1, 1},
}

func dirOf(d image.Point) int {
	for i, r := range ring8 {
		if r == d {
			return i
		}
	}
	return -1
}

// findContours follows every outer and hole border of the non-zero regions
// (Suzuki-Abe). Points are compressed to the ends of straight runs.
func findContours(src *plane) [][]image.Point {
	// one pixel frame of zeros makes every border closed
	w, h := src.w+2, src.h+2
	f := make([]int32, w*h)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			if src.at(x, y) != 0 {
				f[(y+1)*w+x+1] = 1
			}
		}
	}
	at := func(p image.Point) int32 { return f[p.Y*w+p.X] }

	var out [][]image.Point
	nbd := int32(1)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			v := f[y*w+x]
			if v == 0 {
				continue
			}
			var from image.Point
			switch {
			case v == 1 && f[y*w+x-1] == 0:
				from = image.Pt(x-1, y)
			case v >= 1 && f[y*w+x+1] == 0:
				from = image.Pt(x+1, y)
			default:
				continue
			}
			nbd++
			c := follow(f, w, image.Pt(x, y), from, nbd, at)
			for i := range c {
				c[i] = c[i].Sub(image.Pt(1, 1))
			}
			out = append(out, compress(c))
		}
	}
	return out
}

func follow(f []int32, w int, start, from image.Point, nbd int32, at func(image.Point) int32) []image.Point {
	// 3.1: clockwise from `from` around start for a non-zero pixel
	d0 := dirOf(from.Sub(start))
	first := image.Point{}
	found := false
	for k := 0; k < 8; k++ {
		q := start.Add(ring8[(d0-k+8)%8])
		if at(q) != 0 {
			first, found = q, true
			break
		}
	}
	if !found {
		f[start.Y*w+start.X] = -nbd
		return []image.Point{start}
	}

	pts := []image.Point{}
	prev, cur := first, start
	for {
		pts = append(pts, cur)
		// 3.3: counter-clockwise from the element after prev
		dp := dirOf(prev.Sub(cur))
		var next image.Point
		eastZero := false
		for k := 1; k <= 8; k++ {
			d := (dp + k) % 8
			q := cur.Add(ring8[d])
			if at(q) != 0 {
				next = q
				break
			}
			if d == 0 {
				eastZero = true
			}
		}
		// 3.4
		idx := cur.Y*w + cur.X
		if eastZero {
			f[idx] = -nbd
		} else if f[idx] == 1 {
			f[idx] = nbd
		}
		// 3.5
		if next == start && cur == first {
			return pts
		}
		prev, cur = cur, next
	}
}

// compress keeps only the points where the chain changes direction.
func compress(c []image.Point) []image.Point {
	n := len(c)
	if n < 3 {
		return c
	}
	var out []image.Point
	for i := range c {
		p, q, r := c[(i-1+n)%n], c[i], c[(i+1)%n]
		if q.Sub(p) != r.Sub(q) {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return c[:1]
	}
	return out
}
