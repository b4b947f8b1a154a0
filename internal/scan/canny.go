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

import "math"

var (
	tan22 = math.Tan(22.5 * math.Pi / 180)
	tan67 = math.Tan(67.5 * math.Pi / 180)
)

// gradient holds the Sobel derivatives of a plane.
type gradient struct {
	w, h   int
	dx, dy []int
}

func newGradient(src *plane) gradient {
	dx, dy := sobel(src)
	return gradient{w: src.w, h: src.h, dx: dx, dy: dy}
}

// canny runs non-maximum suppression on the L1 gradient magnitude followed
// by hysteresis between low and high. Edge pixels are 255.
func canny(g gradient, low, high float64) *plane {
	w, h := g.w, g.h
	mag := make([]int, w*h)
	for i := range mag {
		mag[i] = abs(g.dx[i]) + abs(g.dy[i])
	}
	m := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		none = iota
		weak
		strong
	)
	state := make([]uint8, w*h)
	var stack []int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			v := mag[i]
			if float64(v) <= low {
				continue
			}
			ax, ay := float64(abs(g.dx[i])), float64(abs(g.dy[i]))
			var a, b int
			switch {
			case ay <= ax*tan22:
				a, b = m(x-1, y), m(x+1, y)
			case ay > ax*tan67:
				a, b = m(x, y-1), m(x, y+1)
			case (g.dx[i] < 0) != (g.dy[i] < 0):
				a, b = m(x-1, y+1), m(x+1, y-1)
			default:
				a, b = m(x-1, y-1), m(x+1, y+1)
			}
			if v <= a || v < b {
				continue
			}
			if float64(v) > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	out := newPlane(w, h)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if out.pix[i] != 0 {
			continue
		}
		out.pix[i] = 255
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				xx, yy := x+dx, y+dy
				if (dx == 0 && dy == 0) || xx < 0 || yy < 0 || xx >= w || yy >= h {
					continue
				}
				j := yy*w + xx
				if state[j] != none && out.pix[j] == 0 {
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
