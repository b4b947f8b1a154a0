/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import "testing"

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{}, []byte("[]"))
	m.Commit([]byte("a"))
	m.Commit([]byte("b"))
	if _, depth, redo := m.Stats(); depth != 3 || redo != 0 {
		t.Fatalf("expected depth 3 and empty redo, got depth=%d redo=%d", depth, redo)
	}
	s, ok := m.Undo()
	if !ok || string(s) != "a" {
		t.Fatalf("undo expected 'a', got ok=%v blob=%q", ok, string(s))
	}
	s, ok = m.Redo()
	if !ok || string(s) != "b" {
		t.Fatalf("redo expected 'b', got ok=%v blob=%q", ok, string(s))
	}
	if string(m.Top().Blob) != "b" {
		t.Fatalf("top should be 'b', got %q", string(m.Top().Blob))
	}
}

func TestUndoAtInitialIsNoop(t *testing.T) {
	m := NewManager(Config{}, []byte("[]"))
	if _, ok := m.Undo(); ok {
		t.Fatalf("undo of the initial snapshot must be a no-op")
	}
	if _, ok := m.Redo(); ok {
		t.Fatalf("redo without undone entries must be a no-op")
	}
	if m.Depth() != 1 || string(m.Top().Blob) != "[]" {
		t.Fatalf("initial state changed: depth=%d top=%q", m.Depth(), string(m.Top().Blob))
	}
}

func TestCommitClearsRedo(t *testing.T) {
	m := NewManager(Config{}, nil)
	m.Commit([]byte("1"))
	m.Commit([]byte("2"))
	m.Undo()
	if m.RedoDepth() != 1 {
		t.Fatalf("expected one redo entry, got %d", m.RedoDepth())
	}
	m.Commit([]byte("3"))
	if m.RedoDepth() != 0 {
		t.Fatalf("commit must clear redo, got %d", m.RedoDepth())
	}
	if _, ok := m.Redo(); ok {
		t.Fatalf("redo after commit must be a no-op")
	}
}

func TestCommitCopiesBlob(t *testing.T) {
	m := NewManager(Config{}, nil)
	b := []byte("abc")
	m.Commit(b)
	b[0] = 'x'
	if string(m.Top().Blob) != "abc" {
		t.Fatalf("manager must own its snapshot, got %q", string(m.Top().Blob))
	}
}
