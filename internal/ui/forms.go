/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"strconv"

	"floorplan/internal/editor"
	"floorplan/internal/ocr"
	"floorplan/internal/scene"
)

func formatMeters(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// dimEntries fills the dimension form from an OCR result. Fields the
// heuristic did not assign keep their defaults.
func dimEntries(d ocr.Dimensions) [4]string {
	out := editor.DefaultDimEntries
	switch {
	case d.Found >= 4:
		out = [4]string{formatMeters(d.X), formatMeters(d.Y), formatMeters(d.Width), formatMeters(d.Height)}
	case d.Found == 3:
		out[0], out[2], out[3] = formatMeters(d.X), formatMeters(d.Width), formatMeters(d.Height)
	case d.Found == 2:
		out[2], out[3] = formatMeters(d.Width), formatMeters(d.Height)
	case d.Found == 1:
		out[3] = formatMeters(d.Height)
	}
	return out
}

// statusText summarises the scene for the status bar.
func statusText(s *scene.Scene) string {
	m := s.Mode()
	var mode string
	switch m.State {
	case scene.PlacingElement:
		mode = "placing " + m.Kind.String()
	case scene.PlacingWall:
		mode = "wall: click the end point"
		if !m.HasStart {
			mode = "wall: click the start point"
		}
	case scene.Editing:
		if e := s.Selected(); e != nil {
			mode = "selected " + e.Kind().String()
		}
	default:
		mode = "ready"
	}
	if s.DeleteMode() {
		mode = "delete mode"
	}
	return fmt.Sprintf("%s | %d elements | rotation %d°", mode, s.Len(), s.PendingRotation)
}
