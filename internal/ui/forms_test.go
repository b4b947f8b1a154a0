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
	"strings"
	"testing"

	"floorplan/internal/catalog"
	"floorplan/internal/ocr"
	"floorplan/internal/scene"
)

func TestDimEntries(t *testing.T) {
	cases := []struct {
		in   ocr.Dimensions
		want [4]string
	}{
		{ocr.Dimensions{}, [4]string{"7", "3", "15", "10.75"}},
		{ocr.Dimensions{Height: 4.5, Found: 1}, [4]string{"7", "3", "15", "4.5"}},
		{ocr.Dimensions{Width: 12, Height: 9, Found: 2}, [4]string{"7", "3", "12", "9"}},
		{ocr.Dimensions{X: 1, Width: 12, Height: 9, Found: 3}, [4]string{"1", "3", "12", "9"}},
		{ocr.Dimensions{X: 1, Y: 2, Width: 12, Height: 9, Found: 5}, [4]string{"1", "2", "12", "9"}},
	}
	for _, c := range cases {
		if got := dimEntries(c.in); got != c.want {
			t.Errorf("dimEntries(%+v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestStatusText(t *testing.T) {
	s := scene.NewScene()
	if got := statusText(s); !strings.HasPrefix(got, "ready | 0 elements") {
		t.Fatalf("unexpected idle status %q", got)
	}
	s.SetPlacingKind(catalog.Sofa)
	if got := statusText(s); !strings.Contains(got, "placing sofa") {
		t.Fatalf("unexpected placing status %q", got)
	}
	s.StartWallPlacement()
	if got := statusText(s); !strings.Contains(got, "start point") {
		t.Fatalf("unexpected wall status %q", got)
	}
	s.CancelMode()
	s.AddRoom(0, 0, 100, 100)
	s.Select(0)
	s.ToggleRotation()
	if got := statusText(s); !strings.Contains(got, "selected room") || !strings.Contains(got, "1 elements") {
		t.Fatalf("unexpected editing status %q", got)
	}
	s.SetDeleteMode(true)
	if got := statusText(s); !strings.HasPrefix(got, "delete mode") {
		t.Fatalf("unexpected delete status %q", got)
	}
}
