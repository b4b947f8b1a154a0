/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package scan turns a raster floor-plan image into candidate walls, rooms
// and round fixtures. The result is best effort and self-contained: it never
// touches a scene and can run on any goroutine.
package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"floorplan/internal/catalog"
	"floorplan/internal/geometry"
	applog "floorplan/internal/log"
	"floorplan/internal/scene"
)

var (
	// ErrImageDecode means the input could not be decoded as an image.
	ErrImageDecode = errors.New("scan: cannot decode image")
	// ErrPipeline wraps any failure after decoding.
	ErrPipeline = errors.New("scan: pipeline failed")
)

// DefaultMaxDimension is the longest side processed before downscaling.
const DefaultMaxDimension = 1200

// Options tune the pipeline; the zero value uses the defaults.
type Options struct {
	MaxDimension int
}

func (o Options) maxDim() int {
	if o.MaxDimension <= 0 {
		return DefaultMaxDimension
	}
	return o.MaxDimension
}

// Result is the immutable outcome of one scan. On failure Elements is empty,
// the counts are zero and Err is set.
type Result struct {
	Success  bool
	Elements []scene.Element
	Rooms    int
	Walls    int
	Circles  int
	Err      error
}

func failure(err error) Result { return Result{Err: err} }

// segment, circle and contour coordinates are in the downscaled space.
type segment struct{ x1, y1, x2, y2 float64 }

func (s segment) length() float64 { return math.Hypot(s.x2-s.x1, s.y2-s.y1) }

type circle struct{ x, y, r float64 }

// detection is what a backend hands to post-processing.
type detection struct {
	scale    float64
	lines    []segment
	contours [][]image.Point
	circles  []circle
}

// File scans the image at path.
func File(path string, opts Options) Result {
	img, err := imaging.Open(path)
	if err != nil {
		return failure(fmt.Errorf("%w: %s: %v", ErrImageDecode, path, err))
	}
	return Image(img, opts)
}

// Decode scans an encoded image read from r.
func Decode(r io.Reader, opts Options) Result {
	img, err := imaging.Decode(r)
	if err != nil {
		return failure(fmt.Errorf("%w: %v", ErrImageDecode, err))
	}
	return Image(img, opts)
}

// Image scans an already decoded image. Panics inside the pipeline are
// converted into a failure result.
func Image(img image.Image, opts Options) (res Result) {
	lg := applog.WithOperation(applog.WithComponent("scan"), "image")
	if img == nil || img.Bounds().Empty() {
		return failure(fmt.Errorf("%w: empty image", ErrImageDecode))
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			lg.Error("pipeline panic", slog.Any("panic", r))
			res = failure(fmt.Errorf("%w: %v", ErrPipeline, r))
		}
	}()
	det, err := detect(img, opts.maxDim())
	if err != nil {
		return failure(fmt.Errorf("%w: %v", ErrPipeline, err))
	}
	res = build(det)
	lg.Info("scan completed",
		slog.String("backend", backendName),
		slog.Int("walls", res.Walls), slog.Int("rooms", res.Rooms), slog.Int("circles", res.Circles),
		slog.Duration("took", time.Since(start)))
	return res
}

// Async runs File on its own goroutine and delivers exactly one result.
func Async(ctx context.Context, path string, opts Options) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		if err := ctx.Err(); err != nil {
			ch <- failure(fmt.Errorf("%w: %v", ErrPipeline, err))
			return
		}
		ch <- File(path, opts)
	}()
	return ch
}

// downscale returns the processing size and the scale factor applied.
func downscale(w, h, maxDim int) (int, int, float64) {
	m := max(w, h)
	if m <= maxDim {
		return w, h, 1
	}
	s := float64(maxDim) / float64(m)
	return int(float64(w) * s), int(float64(h) * s), s
}

const (
	maxExtraWalls  = 30
	minExtraLength = 30
	minRoomArea    = 5000
	minRoomSide    = 30
	approxFactor   = 0.03
	minAspect      = 0.3
	maxAspect      = 3.5
)

type orientation int

const (
	horizontal orientation = iota
	vertical
	diagonal
)

func classify(s segment) orientation {
	a := math.Abs(math.Atan2(s.y2-s.y1, s.x2-s.x1) * 180 / math.Pi)
	switch {
	case a < 10 || a > 170:
		return horizontal
	case a > 80 && a < 100:
		return vertical
	}
	return diagonal
}

func byLength(ls []segment) {
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].length() > ls[j].length() })
}

// build maps a detection into scene elements in original image coordinates.
func build(d detection) Result {
	s := d.scale
	if s <= 0 {
		s = 1
	}
	res := Result{Success: true}

	var hs, vs, others []segment
	for _, l := range d.lines {
		switch classify(l) {
		case horizontal:
			hs = append(hs, l)
		case vertical:
			vs = append(vs, l)
		default:
			others = append(others, l)
		}
	}
	byLength(hs)
	byLength(vs)
	wall := func(l segment) {
		res.Elements = append(res.Elements, &scene.Wall{
			A: geometry.Pt{X: l.x1 / s, Y: l.y1 / s},
			B: geometry.Pt{X: l.x2 / s, Y: l.y2 / s},
		})
		res.Walls++
	}
	// borders are only picked when both orientations are present;
	// otherwise every segment competes in the pool
	pool := append([]segment{}, others...)
	if len(hs) > 0 && len(vs) > 0 {
		nh, nv := min(2, len(hs)), min(2, len(vs))
		for _, l := range hs[:nh] {
			wall(l)
		}
		for _, l := range vs[:nv] {
			wall(l)
		}
		hs, vs = hs[nh:], vs[nv:]
	}
	pool = append(append(pool, hs...), vs...)
	byLength(pool)
	for _, l := range pool[:min(maxExtraWalls, len(pool))] {
		if l.length() > minExtraLength {
			wall(l)
		}
	}

	for _, c := range d.contours {
		if contourArea(c) <= minRoomArea/(s*s) {
			continue
		}
		if len(approxPolyDP(c, approxFactor*arcLength(c, true), true)) != 4 {
			continue
		}
		b := boundingRect(c)
		bw, bh := float64(b.Dx()), float64(b.Dy())
		aspect := math.Inf(1)
		if bh > 0 {
			aspect = bw / bh
		}
		if aspect <= minAspect || aspect >= maxAspect || bw <= minRoomSide/s || bh <= minRoomSide/s {
			continue
		}
		res.Elements = append(res.Elements, &scene.Area{
			Type: catalog.Room,
			Rect: geometry.R(float64(b.Min.X)/s, float64(b.Min.Y)/s, bw/s, bh/s),
		})
		res.Rooms++
	}

	for _, c := range d.circles {
		x, y, r := math.Round(c.x), math.Round(c.y), math.Round(c.r)
		res.Elements = append(res.Elements, &scene.Fixture{
			Type:       catalog.Toilet,
			X:          (x - r) / s,
			Y:          (y - r) / s,
			CustomSize: &geometry.Size{W: 2 * r / s, H: 2 * r / s},
		})
		res.Circles++
	}
	return res
}
