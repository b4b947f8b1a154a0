/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package ocr reads dimension numbers off a scanned sketch. The recognizer
// is tesseract behind the "tesseract" build tag; without it Extract reports
// ErrUnavailable and callers keep their inputs at zero.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"

	applog "floorplan/internal/log"
)

// ErrUnavailable means the binary was built without an OCR engine.
var ErrUnavailable = errors.New("ocr: engine not available")

// Threshold is the binarization level applied before recognition.
const Threshold = 150

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Numbers returns every decimal number in text, in reading order.
func Numbers(text string) []float64 {
	matches := numberPattern.FindAllString(text, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// Dimensions are the x, y, width and height inputs in meters. Found counts
// the numbers the text contained; fields not covered stay zero.
type Dimensions struct {
	X, Y          float64
	Width, Height float64
	Found         int
}

// Assign maps numbers onto the dimension inputs by count: one is a height,
// two are width and height, three are x, width and height, four or more
// are x, y, width and height.
func Assign(nums []float64) Dimensions {
	d := Dimensions{Found: len(nums)}
	switch len(nums) {
	case 0:
	case 1:
		d.Height = nums[0]
	case 2:
		d.Width, d.Height = nums[0], nums[1]
	case 3:
		d.X, d.Width, d.Height = nums[0], nums[1], nums[2]
	default:
		d.X, d.Y, d.Width, d.Height = nums[0], nums[1], nums[2], nums[3]
	}
	return d
}

// Preprocess converts img to grayscale and binarizes it: values below
// Threshold become black, the rest white.
func Preprocess(img image.Image) *image.Gray {
	return segment.Threshold(effect.Grayscale(img), Threshold)
}

// recognizer turns an encoded PNG into text.
type recognizer func(ctx context.Context, png []byte) (string, error)

// Extract loads the image at path, preprocesses it, runs recognition and
// assigns the numbers found. The raw text is returned for display.
func Extract(ctx context.Context, path string) (Dimensions, string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return Dimensions{}, "", fmt.Errorf("ocr: open %s: %w", path, err)
	}
	return ExtractImage(ctx, img)
}

// ExtractImage is Extract over an already decoded image.
func ExtractImage(ctx context.Context, img image.Image) (Dimensions, string, error) {
	lg := applog.WithOperation(applog.WithComponent("ocr"), "extract")
	var buf bytes.Buffer
	if err := png.Encode(&buf, Preprocess(img)); err != nil {
		return Dimensions{}, "", fmt.Errorf("ocr: encode: %w", err)
	}
	text, err := recognize(ctx, buf.Bytes())
	if err != nil {
		lg.Warn("recognition failed", slog.Any("err", err))
		return Dimensions{}, "", err
	}
	d := Assign(Numbers(text))
	lg.Info("numbers extracted", slog.Int("found", d.Found),
		slog.Float64("x", d.X), slog.Float64("y", d.Y), slog.Float64("width", d.Width), slog.Float64("height", d.Height))
	return d, text, nil
}

// Available reports whether an OCR engine is compiled in.
func Available() bool { return engineAvailable }
