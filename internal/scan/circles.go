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
	"sort"
)

type circleParams struct {
	minDist        float64
	param1, param2 float64
	minR, maxR     int
}

// houghCircles is the gradient Hough transform: every edge pixel votes along
// its gradient for centres within the radius range, then each centre picks
// the best supported radius.
func houghCircles(src *plane, p circleParams) []circle {
	g := newGradient(src)
	edges := canny(g, p.param1/2, p.param1)
	w, h := src.w, src.h
	acc := make([]int, w*h)
	var nz []int
	for i, v := range edges.pix {
		if v == 0 {
			continue
		}
		vx, vy := float64(g.dx[i]), float64(g.dy[i])
		mag := math.Hypot(vx, vy)
		if mag == 0 {
			continue
		}
		nz = append(nz, i)
		ux, uy := vx/mag, vy/mag
		x0, y0 := float64(i%w), float64(i/w)
		for _, sign := range [2]float64{1, -1} {
			for r := p.minR; r <= p.maxR; r++ {
				cx := int(math.Round(x0 + sign*ux*float64(r)))
				cy := int(math.Round(y0 + sign*uy*float64(r)))
				if cx < 0 || cy < 0 || cx >= w || cy >= h {
					break
				}
				acc[cy*w+cx]++
			}
		}
	}
	if len(nz) == 0 {
		return nil
	}

	threshold := int(p.param2)
	var centres []int
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			v := acc[i]
			if v > threshold && v > acc[i-1] && v >= acc[i+1] && v > acc[i-w] && v >= acc[i+w] {
				centres = append(centres, i)
			}
		}
	}
	sort.SliceStable(centres, func(a, b int) bool { return acc[centres[a]] > acc[centres[b]] })

	var out []circle
	minDist2 := p.minDist * p.minDist
	hist := make([]int, p.maxR+2)
	for _, c := range centres {
		cx, cy := float64(c%w), float64(c/w)
		tooClose := false
		for _, o := range out {
			if (o.x-cx)*(o.x-cx)+(o.y-cy)*(o.y-cy) < minDist2 {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		clear(hist)
		for _, i := range nz {
			d := math.Hypot(float64(i%w)-cx, float64(i/w)-cy)
			if r := int(math.Round(d)); r >= p.minR && r <= p.maxR {
				hist[r]++
			}
		}
		// pick the radius with the densest support per unit circumference
		bestR, bestCount := 0, 0
		for r := p.minR; r <= p.maxR; r++ {
			if bestR == 0 || hist[r]*bestR > bestCount*r {
				bestR, bestCount = r, hist[r]
			}
		}
		if bestCount > threshold {
			out = append(out, circle{x: cx, y: cy, r: float64(bestR)})
		}
	}
	return out
}
