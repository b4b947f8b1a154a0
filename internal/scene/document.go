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
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DocumentVersion is written into every saved layout.
const DocumentVersion = "1.0"

// CreatedLayout is the timestamp format of the "created" key.
const CreatedLayout = "2006-01-02T15:04:05.000000"

// Document is the persisted layout file.
type Document struct {
	Version        string   `json:"version"`
	Created        string   `json:"created"`
	GridSize       *int     `json:"grid_size,omitempty"`
	MetersToPixels *float64 `json:"meters_to_pixels_factor,omitempty"`
	Elements       []record `json:"elements"`
}

// clock is replaced in tests.
var clock = time.Now

// NewDocument wraps a sequence with the given grid size and unit scale.
func NewDocument(elements []Element, gridSize int, metersToPixels float64) Document {
	doc := Document{
		Version:        DocumentVersion,
		Created:        clock().Format(CreatedLayout),
		GridSize:       &gridSize,
		MetersToPixels: &metersToPixels,
		Elements:       make([]record, 0, len(elements)),
	}
	for _, e := range elements {
		doc.Elements = append(doc.Elements, toRecord(e))
	}
	return doc
}

// EncodeDocument serializes the scene as a wrapped layout document.
func EncodeDocument(s *Scene) ([]byte, error) {
	return json.MarshalIndent(NewDocument(s.elements, s.GridSize, s.UnitScale), "", "  ")
}

// Decoded is the result of DecodeDocument. GridSize and MetersToPixels are
// nil when the payload did not carry them.
type Decoded struct {
	Elements       []Element
	GridSize       *int
	MetersToPixels *float64
	Wrapped        bool
}

// DecodeDocument parses a wrapped document or a bare element array.
func DecodeDocument(data []byte) (Decoded, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		els, err := UnmarshalElements(trimmed)
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Elements: els}, nil
	}
	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Decoded{}, fmt.Errorf("decode document: %w", err)
	}
	if doc.Elements == nil {
		return Decoded{}, fmt.Errorf("decode document: %w: elements", ErrMissingField)
	}
	els, err := fromRecords(doc.Elements)
	if err != nil {
		return Decoded{}, err
	}
	return Decoded{Elements: els, GridSize: doc.GridSize, MetersToPixels: doc.MetersToPixels, Wrapped: true}, nil
}

// Apply installs decoded content into s. Grid size and unit scale are only
// overwritten when present. It does not commit.
func (d Decoded) Apply(s *Scene) {
	s.Replace(d.Elements)
	if d.GridSize != nil {
		s.GridSize = *d.GridSize
	}
	if d.MetersToPixels != nil {
		s.UnitScale = *d.MetersToPixels
	}
}
