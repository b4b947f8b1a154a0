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

	"gonum.org/v1/gonum/floats"
)

// plane is a dense 8-bit single-channel raster.
type plane struct {
	w, h int
	pix  []uint8
}

func newPlane(w, h int) *plane { return &plane{w: w, h: h, pix: make([]uint8, w*h)} }

func (p *plane) at(x, y int) uint8     { return p.pix[y*p.w+x] }
func (p *plane) set(x, y int, v uint8) { p.pix[y*p.w+x] = v }

// grayPlane copies the luminance of img. The input is expected to be
// grayscale already; the red channel is taken.
func grayPlane(img image.Image) *plane {
	b := img.Bounds()
	p := newPlane(b.Dx(), b.Dy())
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			p.set(x, y, uint8(r>>8))
		}
	}
	return p
}

// reflect101 maps an out-of-range index the way OpenCV's default border does.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*n - 2 - i
		}
	}
	return i
}

// gaussianKernel builds a normalized 1D kernel. sigma <= 0 derives it from
// the size like OpenCV.
func gaussianKernel(size int, sigma float64) []float64 {
	if sigma <= 0 {
		sigma = 0.3*(float64(size-1)*0.5-1) + 0.8
	}
	k := make([]float64, size)
	c := float64(size-1) / 2
	for i := range k {
		d := float64(i) - c
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// gaussianBlur applies a separable size x size Gaussian.
func gaussianBlur(src *plane, size int, sigma float64) *plane {
	k := gaussianKernel(size, sigma)
	r := size / 2
	tmp := make([]float64, src.w*src.h)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			var acc float64
			for i, kv := range k {
				acc += kv * float64(src.at(reflect101(x+i-r, src.w), y))
			}
			tmp[y*src.w+x] = acc
		}
	}
	dst := newPlane(src.w, src.h)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			var acc float64
			for i, kv := range k {
				acc += kv * tmp[reflect101(y+i-r, src.h)*src.w+x]
			}
			dst.set(x, y, clampByte(acc))
		}
	}
	return dst
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// sobel returns the 3x3 x and y derivatives.
func sobel(src *plane) (dx, dy []int) {
	w, h := src.w, src.h
	dx, dy = make([]int, w*h), make([]int, w*h)
	px := func(x, y int) int { return int(src.at(reflect101(x, w), reflect101(y, h))) }
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, t, tr := px(x-1, y-1), px(x, y-1), px(x+1, y-1)
			l, r := px(x-1, y), px(x+1, y)
			bl, b, br := px(x-1, y+1), px(x, y+1), px(x+1, y+1)
			dx[y*w+x] = (tr + 2*r + br) - (tl + 2*l + bl)
			dy[y*w+x] = (bl + 2*b + br) - (tl + 2*t + tr)
		}
	}
	return dx, dy
}

// dilate and erode use a kw x kh rectangle anchored at its center. Pixels
// outside the image are ignored.
func dilate(src *plane, kw, kh int) *plane { return morph(src, kw, kh, true) }
func erode(src *plane, kw, kh int) *plane  { return morph(src, kw, kh, false) }

func morph(src *plane, kw, kh int, isMax bool) *plane {
	pick := func(a, b uint8) uint8 {
		if isMax == (b > a) {
			return b
		}
		return a
	}
	pass := func(in *plane, k int, horizontal bool) *plane {
		if k <= 1 {
			return in
		}
		out := newPlane(in.w, in.h)
		lo, hi := -(k / 2), k-1-k/2
		for y := 0; y < in.h; y++ {
			for x := 0; x < in.w; x++ {
				v := in.at(x, y)
				for d := lo; d <= hi; d++ {
					xx, yy := x, y
					if horizontal {
						xx += d
					} else {
						yy += d
					}
					if xx < 0 || yy < 0 || xx >= in.w || yy >= in.h {
						continue
					}
					v = pick(v, in.at(xx, yy))
				}
				out.set(x, y, v)
			}
		}
		return out
	}
	return pass(pass(src, kw, true), kh, false)
}

// closing is dilation followed by erosion.
func closing(src *plane, kw, kh int) *plane { return erode(dilate(src, kw, kh), kw, kh) }

func bitwiseOr(a, b *plane) *plane {
	out := newPlane(a.w, a.h)
	for i := range out.pix {
		out.pix[i] = a.pix[i] | b.pix[i]
	}
	return out
}

// otsu returns the threshold maximising between-class variance.
func otsu(src *plane) uint8 {
	var hist [256]float64
	for _, v := range src.pix {
		hist[v]++
	}
	total := float64(len(src.pix))
	var sum float64
	for i, c := range hist {
		sum += float64(i) * c
	}
	var sumB, wB, best float64
	var t uint8
	for i := 0; i < 256; i++ {
		wB += hist[i]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * hist[i]
		mB, mF := sumB/wB, (sum-sumB)/wF
		if between := wB * wF * (mB - mF) * (mB - mF); between > best {
			best, t = between, uint8(i)
		}
	}
	return t
}

// thresholdInv sets pixels at or below t to 255 and the rest to 0.
func thresholdInv(src *plane, t uint8) *plane {
	out := newPlane(src.w, src.h)
	for i, v := range src.pix {
		if v <= t {
			out.pix[i] = 255
		}
	}
	return out
}
