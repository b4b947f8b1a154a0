/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"math"
	"strconv"
	"strings"

	"floorplan/internal/geometry"
	"floorplan/internal/layout"
	"floorplan/internal/scene"
)

// ValidationError reports rejected dimension input.
type ValidationError = layout.ValidationError

// Dims is a rectangle entered in meters.
type Dims struct {
	X, Y          float64
	Width, Height float64
}

// DefaultDimEntries pre-fill the x, y, width and height inputs.
var DefaultDimEntries = [4]string{"7", "3", "15", "10.75"}

// generateFallback replaces empty generator inputs.
var generateFallback = Dims{Width: layout.MinHouseWidth, Height: layout.MinHouseHeight}

var dimFields = [4]string{"x", "y", "width", "height"}

// ParseDims parses the four dimension inputs. Every field is required.
func ParseDims(x, y, width, height string) (Dims, error) {
	return parseDims([4]string{x, y, width, height}, nil)
}

// ParseGenerateDims parses generator input; empty fields fall back to the
// origin and the minimum house footprint.
func ParseGenerateDims(x, y, width, height string) (Dims, error) {
	return parseDims([4]string{x, y, width, height}, &generateFallback)
}

func parseDims(in [4]string, fallback *Dims) (Dims, error) {
	var out [4]float64
	var def [4]float64
	if fallback != nil {
		def = [4]float64{fallback.X, fallback.Y, fallback.Width, fallback.Height}
	}
	for i, raw := range in {
		raw = strings.TrimSpace(raw)
		if raw == "" && fallback != nil {
			out[i] = def[i]
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Dims{}, &ValidationError{Field: dimFields[i], Value: math.NaN()}
		}
		out[i] = v
	}
	return Dims{X: out[0], Y: out[1], Width: out[2], Height: out[3]}, nil
}

func (d Dims) pixels(s *scene.Scene) geometry.Rect {
	return geometry.R(s.MetersToPixels(d.X), s.MetersToPixels(d.Y), s.MetersToPixels(d.Width), s.MetersToPixels(d.Height))
}
