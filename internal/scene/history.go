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
	"log/slog"

	"floorplan/internal/undo"
)

// History snapshots the element sequence of a scene on every commit.
type History struct {
	s   *Scene
	m   *undo.Manager
	log *slog.Logger
}

// AttachHistory binds a new history to s, seeded with its current elements,
// and registers itself as the scene's committer.
func AttachHistory(s *Scene, cfg undo.Config) *History {
	h := &History{s: s, log: s.log.With(slog.String("sub", "history"))}
	seed, ok := h.snapshot()
	if !ok {
		seed = []byte("[]")
	}
	h.m = undo.NewManager(cfg, seed)
	s.SetCommitter(h)
	return h
}

func (h *History) snapshot() ([]byte, bool) {
	b, err := MarshalElements(h.s.elements)
	if err != nil {
		// elements are plain values; this only fires on NaN or Inf coordinates
		h.log.Error("snapshot failed", slog.Any("err", err))
		return nil, false
	}
	return b, true
}

// Commit pushes the current element sequence. A sequence that cannot be
// serialized is not pushed, so the top keeps the last good state.
func (h *History) Commit() {
	if b, ok := h.snapshot(); ok {
		h.m.Commit(b)
	}
}

// Undo restores the previous state and clears the selection. It reports
// false at the initial state.
func (h *History) Undo() bool {
	b, ok := h.m.Undo()
	if !ok {
		return false
	}
	return h.restore(b)
}

// Redo re-applies the last undone state and clears the selection.
func (h *History) Redo() bool {
	b, ok := h.m.Redo()
	if !ok {
		return false
	}
	return h.restore(b)
}

// Reset makes the current sequence the only history entry.
func (h *History) Reset() {
	if b, ok := h.snapshot(); ok {
		h.m.Reset(b)
	}
}

func (h *History) Depth() int     { return h.m.Depth() }
func (h *History) RedoDepth() int { return h.m.RedoDepth() }

// Top returns the serialized current state.
func (h *History) Top() []byte { return h.m.Top().Blob }

func (h *History) restore(b []byte) bool {
	els, err := UnmarshalElements(b)
	if err != nil {
		h.log.Error("restore failed", slog.Any("err", err))
		return false
	}
	h.s.elements = els
	h.s.ClearSelection()
	return true
}
