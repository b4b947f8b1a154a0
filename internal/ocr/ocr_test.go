/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNumbers(t *testing.T) {
	got := Numbers("Width: 12.5m x 8 m, door 0.9 (v2.1.3)")
	want := []float64{12.5, 8, 0.9, 2.1, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Numbers = %v, want %v", got, want)
	}
	if n := Numbers("no digits here"); len(n) != 0 {
		t.Fatalf("expected no numbers, got %v", n)
	}
}

func TestAssign(t *testing.T) {
	cases := []struct {
		in   []float64
		want Dimensions
	}{
		{nil, Dimensions{}},
		{[]float64{4}, Dimensions{Height: 4, Found: 1}},
		{[]float64{15, 10}, Dimensions{Width: 15, Height: 10, Found: 2}},
		{[]float64{1, 15, 10}, Dimensions{X: 1, Width: 15, Height: 10, Found: 3}},
		{[]float64{1, 2, 15, 10}, Dimensions{X: 1, Y: 2, Width: 15, Height: 10, Found: 4}},
		{[]float64{1, 2, 15, 10, 99}, Dimensions{X: 1, Y: 2, Width: 15, Height: 10, Found: 5}},
	}
	for _, c := range cases {
		if got := Assign(c.in); got != c.want {
			t.Errorf("Assign(%v) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestPreprocessThreshold(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.RGBA{R: 20, G: 20, B: 20, A: 255})
	img.Set(1, 0, color.RGBA{R: 149, G: 149, B: 149, A: 255})
	img.Set(2, 0, color.RGBA{R: 220, G: 220, B: 220, A: 255})

	out := Preprocess(img)
	want := []uint8{0, 0, 255}
	for x, w := range want {
		if got := out.GrayAt(x, 0).Y; got != w {
			t.Errorf("pixel %d = %d, want %d", x, got, w)
		}
	}
}

func stubRecognizer(t *testing.T, text string, err error) {
	t.Helper()
	old := recognize
	recognize = func(context.Context, []byte) (string, error) { return text, err }
	t.Cleanup(func() { recognize = old })
}

func TestExtractAssignsRecognizedNumbers(t *testing.T) {
	stubRecognizer(t, "7 m\n3 m\n15 x 10.75", nil)
	path := filepath.Join(t.TempDir(), "sketch.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	d, text, err := Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if d != (Dimensions{X: 7, Y: 3, Width: 15, Height: 10.75, Found: 4}) {
		t.Fatalf("unexpected dims %+v", d)
	}
	if text == "" {
		t.Fatalf("raw text must be returned")
	}
}

func TestExtractErrors(t *testing.T) {
	if _, _, err := Extract(context.Background(), filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatalf("expected open error")
	}
	stubRecognizer(t, "", ErrUnavailable)
	_, _, err := ExtractImage(context.Background(), image.NewGray(image.Rect(0, 0, 2, 2)))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
