/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps full-state snapshots for undo/redo. The blob content is
// opaque; size is estimated as len(Blob).
package undo

import "time"

// Snapshot is one committed state. TS is when it was committed.
type Snapshot struct {
	Blob []byte
	TS   time.Time
}

// Config controls memory and depth caps.
type Config struct {
	// MaxDepth limits the number of undo entries kept (0 means unlimited).
	MaxDepth int
	// MaxBytes is a soft cap; older entries are pruned when exceeded (0 means unlimited).
	MaxBytes int
}

// Manager is a history stack plus a redo stack. The top of the history
// stack is always the current state. It is not safe for concurrent use.
type Manager struct {
	cfg  Config
	undo []Snapshot
	redo []Snapshot
	// accounting over both stacks
	totalBytes int
	now        func() time.Time
}

// NewManager creates a manager whose history holds the initial state.
func NewManager(cfg Config, initial []byte) *Manager {
	m := &Manager{cfg: cfg, now: time.Now}
	m.Reset(initial)
	return m
}

// Reset drops both stacks and makes initial the only entry.
func (m *Manager) Reset(initial []byte) {
	m.undo = []Snapshot{{Blob: clone(initial), TS: m.now()}}
	m.redo = nil
	m.totalBytes = len(initial)
}

// Commit pushes a new state and invalidates redo.
func (m *Manager) Commit(blob []byte) {
	m.undo = append(m.undo, Snapshot{Blob: clone(blob), TS: m.now()})
	m.totalBytes += len(blob)
	for _, s := range m.redo {
		m.totalBytes -= len(s.Blob)
	}
	m.redo = nil
	m.enforceCaps()
}

// Undo moves the top onto the redo stack and returns the new top. The
// initial entry is never popped.
func (m *Manager) Undo() ([]byte, bool) {
	if len(m.undo) <= 1 {
		return nil, false
	}
	s := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, s)
	return m.undo[len(m.undo)-1].Blob, true
}

// Redo moves the last undone state back onto history and returns it.
func (m *Manager) Redo() ([]byte, bool) {
	if len(m.redo) == 0 {
		return nil, false
	}
	s := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, s)
	return s.Blob, true
}

// Top returns the current state.
func (m *Manager) Top() Snapshot { return m.undo[len(m.undo)-1] }

func (m *Manager) Depth() int     { return len(m.undo) }
func (m *Manager) RedoDepth() int { return len(m.redo) }

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, depth int, redoDepth int) {
	return m.totalBytes, len(m.undo), len(m.redo)
}

func (m *Manager) enforceCaps() {
	drop := 0
	if m.cfg.MaxDepth > 0 && len(m.undo) > m.cfg.MaxDepth {
		drop = len(m.undo) - m.cfg.MaxDepth
	}
	for i := 0; i < drop; i++ {
		m.totalBytes -= len(m.undo[i].Blob)
	}
	// memory cap: prune oldest but keep the top
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes && drop < len(m.undo)-1 {
		m.totalBytes -= len(m.undo[drop].Blob)
		drop++
	}
	if drop > 0 {
		m.undo = append([]Snapshot{}, m.undo[drop:]...)
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
