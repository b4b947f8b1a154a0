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

func TestDepthCap(t *testing.T) {
	m := NewManager(Config{MaxDepth: 3}, []byte("0"))
	for i := 0; i < 10; i++ {
		m.Commit([]byte("xxxxx"))
	}
	if m.Depth() != 3 {
		t.Fatalf("expected MaxDepth cap to limit to 3, got %d", m.Depth())
	}
	tb, _, _ := m.Stats()
	if tb != 15 {
		t.Fatalf("byte accounting off after prune: %d", tb)
	}
}

func TestMemoryCapKeepsTop(t *testing.T) {
	// Very small MaxBytes so pruning triggers on every commit
	m := NewManager(Config{MaxBytes: 4}, nil)
	m.Commit([]byte("aaaaaa"))
	m.Commit([]byte("bbbbbb"))
	if m.Depth() != 1 {
		t.Fatalf("expected only the top to survive, depth=%d", m.Depth())
	}
	if string(m.Top().Blob) != "bbbbbb" {
		t.Fatalf("top must never be pruned, got %q", string(m.Top().Blob))
	}
	if _, ok := m.Undo(); ok {
		t.Fatalf("nothing left to undo")
	}
}

func TestResetAndStats(t *testing.T) {
	m := NewManager(Config{}, []byte("init"))
	m.Commit([]byte("abcdef"))
	m.Undo()
	m.Reset([]byte("zz"))
	tb, depth, redo := m.Stats()
	if tb != 2 || depth != 1 || redo != 0 {
		t.Fatalf("unexpected stats after reset: tb=%d depth=%d redo=%d", tb, depth, redo)
	}
}
