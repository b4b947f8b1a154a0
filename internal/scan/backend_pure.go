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

	"github.com/disintegration/imaging"
)

const backendName = "go"

// detect runs the raster stages in pure Go.
func detect(img image.Image, maxDim int) (detection, error) {
	b := img.Bounds()
	nw, nh, s := downscale(b.Dx(), b.Dy(), maxDim)
	if s != 1 {
		img = imaging.Resize(img, nw, nh, imaging.Box)
	}
	gray := grayPlane(imaging.Grayscale(img))
	blurred := gaussianBlur(gray, 7, 0)

	edges := canny(newGradient(blurred), 30, 90)
	combined := bitwiseOr(closing(edges, 15, 1), closing(edges, 1, 15))
	final := closing(combined, 3, 3)
	lines := houghLinesP(final, houghParams{
		rho: 1, theta: math.Pi / 180, threshold: 80, minLength: 50, maxGap: 20, seed: 1,
	})

	rooms := closing(thresholdInv(blurred, otsu(blurred)), 5, 5)
	contours := findContours(rooms)

	circles := houghCircles(blurred, circleParams{minDist: 20, param1: 50, param2: 25, minR: 5, maxR: 30})

	return detection{scale: s, lines: lines, contours: contours, circles: circles}, nil
}
