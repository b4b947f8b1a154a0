/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

//go:build gocv

package scan

import (
	"errors"
	"image"
	"math"

	"gocv.io/x/gocv"
)

const backendName = "opencv"

// imageToMat converts to an 8-bit BGR Mat.
func imageToMat(img image.Image) gocv.Mat {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(bl>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat
}

// detect runs the raster stages through OpenCV.
func detect(img image.Image, maxDim int) (detection, error) {
	src := imageToMat(img)
	defer src.Close()
	if src.Empty() {
		return detection{}, errors.New("empty mat")
	}
	nw, nh, s := downscale(src.Cols(), src.Rows(), maxDim)
	resized := gocv.NewMat()
	defer resized.Close()
	if s != 1 {
		gocv.Resize(src, &resized, image.Pt(nw, nh), 0, 0, gocv.InterpolationArea)
	} else {
		src.CopyTo(&resized)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(resized, &gray, gocv.ColorBGRToGray)
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(7, 7), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, 30, 90)

	kh := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(15, 1))
	defer kh.Close()
	kv := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(1, 15))
	defer kv.Close()
	kg := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kg.Close()
	closedH, closedV, combined, final := gocv.NewMat(), gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer closedH.Close()
	defer closedV.Close()
	defer combined.Close()
	defer final.Close()
	gocv.MorphologyEx(edges, &closedH, gocv.MorphClose, kh)
	gocv.MorphologyEx(edges, &closedV, gocv.MorphClose, kv)
	gocv.BitwiseOr(closedH, closedV, &combined)
	gocv.MorphologyEx(combined, &final, gocv.MorphClose, kg)

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(final, &lines, 1, float32(math.Pi/180), 80, 50, 20)
	det := detection{scale: s}
	for i := 0; i < lines.Rows(); i++ {
		det.lines = append(det.lines, segment{
			x1: float64(lines.GetIntAt(i, 0)), y1: float64(lines.GetIntAt(i, 1)),
			x2: float64(lines.GetIntAt(i, 2)), y2: float64(lines.GetIntAt(i, 3)),
		})
	}

	thresh, morphed := gocv.NewMat(), gocv.NewMat()
	defer thresh.Close()
	defer morphed.Close()
	gocv.Threshold(blurred, &thresh, 0, 255, gocv.ThresholdBinaryInv|gocv.ThresholdOtsu)
	kr := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(5, 5))
	defer kr.Close()
	gocv.MorphologyEx(thresh, &morphed, gocv.MorphClose, kr)
	contours := gocv.FindContours(morphed, gocv.RetrievalCComp, gocv.ChainApproxSimple)
	defer contours.Close()
	for i := 0; i < contours.Size(); i++ {
		det.contours = append(det.contours, contours.At(i).ToPoints())
	}

	circles := gocv.NewMat()
	defer circles.Close()
	gocv.HoughCirclesWithParams(blurred, &circles, gocv.HoughGradient, 1, 20, 50, 25, 5, 30)
	if !circles.Empty() {
		for i := 0; i < circles.Cols(); i++ {
			det.circles = append(det.circles, circle{
				x: float64(circles.GetFloatAt(0, i*3)),
				y: float64(circles.GetFloatAt(0, i*3+1)),
				r: float64(circles.GetFloatAt(0, i*3+2)),
			})
		}
	}
	return det, nil
}
