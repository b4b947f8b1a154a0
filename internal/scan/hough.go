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
	"math"
	"math/rand"
)

type houghParams struct {
	rho       float64
	theta     float64
	threshold int
	minLength int
	maxGap    int
	seed      int64
}

// houghLinesP is the progressive probabilistic Hough transform. Edge points
// are visited in a seeded random order so results are reproducible.
func houghLinesP(edges *plane, p houghParams) []segment {
	w, h := edges.w, edges.h
	numAngle := int(math.Round(math.Pi / p.theta))
	numRho := int(math.Round(float64((w+h)*2+1) / p.rho))
	irho := 1 / p.rho
	cosT, sinT := make([]float64, numAngle), make([]float64, numAngle)
	for n := 0; n < numAngle; n++ {
		a := float64(n) * p.theta
		cosT[n], sinT[n] = math.Cos(a)*irho, math.Sin(a)*irho
	}

	acc := make([]int, numAngle*numRho)
	mask := make([]bool, w*h)
	var points []int
	for i, v := range edges.pix {
		if v != 0 {
			mask[i] = true
			points = append(points, i)
		}
	}
	rng := rand.New(rand.NewSource(p.seed))
	offset := (numRho - 1) / 2
	vote := func(x, y, d int) {
		for n := 0; n < numAngle; n++ {
			r := int(math.Round(float64(x)*cosT[n]+float64(y)*sinT[n])) + offset
			acc[n*numRho+r] += d
		}
	}

	const shift = 16
	var out []segment
	for count := len(points); count > 0; count-- {
		idx := rng.Intn(count)
		pt := points[idx]
		points[idx] = points[count-1]
		if !mask[pt] {
			continue
		}
		x0, y0 := pt%w, pt/w

		best, bestN := p.threshold-1, -1
		for n := 0; n < numAngle; n++ {
			r := int(math.Round(float64(x0)*cosT[n]+float64(y0)*sinT[n])) + offset
			acc[n*numRho+r]++
			if v := acc[n*numRho+r]; v > best {
				best, bestN = v, n
			}
		}
		if bestN < 0 {
			continue
		}

		// walk along the line direction using fixed point steps
		a, b := -sinT[bestN], cosT[bestN]
		var dx0, dy0 int
		xflag := math.Abs(a) > math.Abs(b)
		fx, fy := x0, y0
		if xflag {
			dx0 = 1
			if a <= 0 {
				dx0 = -1
			}
			dy0 = int(math.Round(b * (1 << shift) / math.Abs(a)))
			fy = (y0 << shift) + (1 << (shift - 1))
		} else {
			dy0 = 1
			if b <= 0 {
				dy0 = -1
			}
			dx0 = int(math.Round(a * (1 << shift) / math.Abs(b)))
			fx = (x0 << shift) + (1 << (shift - 1))
		}
		pixel := func(x, y int) (int, int) {
			if xflag {
				return x, y >> shift
			}
			return x >> shift, y
		}

		var ends [2][2]int
		for k := 0; k < 2; k++ {
			gap := 0
			x, y, dx, dy := fx, fy, dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			for ; ; x, y = x+dx, y+dy {
				i1, j1 := pixel(x, y)
				if i1 < 0 || i1 >= w || j1 < 0 || j1 >= h {
					break
				}
				if mask[j1*w+i1] {
					gap = 0
					ends[k] = [2]int{i1, j1}
				} else if gap++; gap > p.maxGap {
					break
				}
			}
		}
		good := abs(ends[1][0]-ends[0][0]) >= p.minLength || abs(ends[1][1]-ends[0][1]) >= p.minLength

		for k := 0; k < 2; k++ {
			x, y, dx, dy := fx, fy, dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			for ; ; x, y = x+dx, y+dy {
				i1, j1 := pixel(x, y)
				if mask[j1*w+i1] {
					if good {
						vote(i1, j1, -1)
					}
					mask[j1*w+i1] = false
				}
				if i1 == ends[k][0] && j1 == ends[k][1] {
					break
				}
			}
		}
		if good {
			out = append(out, segment{
				x1: float64(ends[0][0]), y1: float64(ends[0][1]),
				x2: float64(ends[1][0]), y2: float64(ends[1][1]),
			})
		}
	}
	return out
}
