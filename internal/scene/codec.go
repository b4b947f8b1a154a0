/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"floorplan/internal/catalog"
	"floorplan/internal/geometry"
)

// ErrMissingField is returned when a persisted element lacks a key its variant needs.
var ErrMissingField = errors.New("scene: element missing required field")

type sizeRecord struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// record is the persisted element shape. Pointers distinguish absent keys
// from zero values.
type record struct {
	Type       string      `json:"type"`
	X          *float64    `json:"x,omitempty"`
	Y          *float64    `json:"y,omitempty"`
	Width      *float64    `json:"width,omitempty"`
	Height     *float64    `json:"height,omitempty"`
	X1         *float64    `json:"x1,omitempty"`
	Y1         *float64    `json:"y1,omitempty"`
	X2         *float64    `json:"x2,omitempty"`
	Y2         *float64    `json:"y2,omitempty"`
	Rotation   float64     `json:"rotation"`
	Name       string      `json:"name,omitempty"`
	Content    *string     `json:"content,omitempty"`
	FontSize   float64     `json:"fontSize,omitempty"`
	CustomSize *sizeRecord `json:"customSize,omitempty"`
}

func f64(v float64) *float64 { return &v }

func toRecord(e Element) record {
	r := record{Type: e.Kind().String(), Rotation: float64(e.Rotation())}
	switch v := e.(type) {
	case *Area:
		r.X, r.Y, r.Width, r.Height = f64(v.X), f64(v.Y), f64(v.W), f64(v.H)
		r.Name = v.Name
	case *Wall:
		r.X1, r.Y1, r.X2, r.Y2 = f64(v.A.X), f64(v.A.Y), f64(v.B.X), f64(v.B.Y)
	case *Fixture:
		r.X, r.Y = f64(v.X), f64(v.Y)
		if v.CustomSize != nil {
			r.CustomSize = &sizeRecord{Width: v.CustomSize.W, Height: v.CustomSize.H}
		}
	case *Label:
		b := v.Bounds()
		r.X, r.Y, r.Width, r.Height = f64(v.X), f64(v.Y), f64(b.W), f64(b.H)
		c := v.Content
		r.Content = &c
		r.FontSize = v.FontSize
	}
	return r
}

func fromRecord(r record) (Element, error) {
	if r.Type == "" {
		return nil, fmt.Errorf("%w: type", ErrMissingField)
	}
	k := catalog.Kind(r.Type)
	rot := geometry.NormalizeRotation(int(math.Round(r.Rotation)))
	need := func(names string, vs ...*float64) error {
		for _, v := range vs {
			if v == nil {
				return fmt.Errorf("%w: %s needs %s", ErrMissingField, r.Type, names)
			}
		}
		return nil
	}
	switch k.Class() {
	case catalog.ClassArea:
		if err := need("x,y,width,height", r.X, r.Y, r.Width, r.Height); err != nil {
			return nil, err
		}
		return &Area{Type: k, Rect: geometry.R(*r.X, *r.Y, *r.Width, *r.Height), Name: r.Name, Rot: rot}, nil
	case catalog.ClassSegment:
		if err := need("x1,y1,x2,y2", r.X1, r.Y1, r.X2, r.Y2); err != nil {
			return nil, err
		}
		return &Wall{A: geometry.Pt{X: *r.X1, Y: *r.Y1}, B: geometry.Pt{X: *r.X2, Y: *r.Y2}, Rot: rot}, nil
	case catalog.ClassText:
		if err := need("x,y", r.X, r.Y); err != nil {
			return nil, err
		}
		l := &Label{X: *r.X, Y: *r.Y, FontSize: r.FontSize, Rot: rot}
		if l.FontSize <= 0 {
			l.FontSize = DefaultFontSize
		}
		if r.Content != nil {
			l.Content = *r.Content
		}
		return l, nil
	default:
		if err := need("x,y", r.X, r.Y); err != nil {
			return nil, err
		}
		f := &Fixture{Type: k, X: *r.X, Y: *r.Y, Rot: rot}
		switch {
		case r.CustomSize != nil:
			f.CustomSize = &geometry.Size{W: r.CustomSize.Width, H: r.CustomSize.Height}
		case r.Width != nil && r.Height != nil:
			f.CustomSize = &geometry.Size{W: *r.Width, H: *r.Height}
		}
		return f, nil
	}
}

// MarshalElements encodes a sequence in the persisted element shape.
func MarshalElements(elements []Element) ([]byte, error) {
	recs := make([]record, len(elements))
	for i, e := range elements {
		recs[i] = toRecord(e)
	}
	return json.Marshal(recs)
}

// UnmarshalElements decodes a persisted element array. Either every element
// decodes or none is returned.
func UnmarshalElements(data []byte) ([]Element, error) {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}
	return fromRecords(recs)
}

func fromRecords(recs []record) ([]Element, error) {
	out := make([]Element, 0, len(recs))
	for i, r := range recs {
		e, err := fromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}
