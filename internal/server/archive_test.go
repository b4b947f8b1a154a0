/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"floorplan/internal/backend"
	"floorplan/internal/config"
	"floorplan/internal/editor"
)

type memArchive struct {
	mu    sync.Mutex
	items map[string]backend.Layout
}

func (m *memArchive) Put(_ context.Context, name, source string, doc []byte, elements int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.items[id] = backend.Layout{ID: id, Name: name, Source: source, Elements: elements, CreatedAt: time.Now(), Document: doc}
	return id, nil
}

func (m *memArchive) Get(_ context.Context, id string) (backend.Layout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.items[id]
	if !ok {
		return backend.Layout{}, backend.ErrNotFound
	}
	return l, nil
}

func (m *memArchive) List(_ context.Context, _ int) ([]backend.Layout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []backend.Layout
	for _, l := range m.items {
		out = append(out, l)
	}
	return out, nil
}

func (m *memArchive) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return backend.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func TestArchiveRoutesDisabledWithoutStore(t *testing.T) {
	s := newTestServer(t)
	resp, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/layouts", nil))
	if resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected archive routes to be absent, got %d", resp.StatusCode)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	arch := &memArchive{items: map[string]backend.Layout{}}
	s := New(Options{Server: config.Defaults().Server, Session: editor.OptionsFrom(config.Defaults()), Archive: arch})

	resp, body := do(t, s, jsonRequest("/api/v1/layouts/generate", `{"width":16,"height":12}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status %d: %s", resp.StatusCode, body)
	}
	var gen GenerateResponse
	if err := json.Unmarshal(body, &gen); err != nil {
		t.Fatal(err)
	}

	resp, body = do(t, s, jsonRequest("/api/v1/layouts?name=house", string(gen.Document)))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("put status %d: %s", resp.StatusCode, body)
	}
	var put struct {
		ID       string `json:"id"`
		Elements int    `json:"elements"`
	}
	if err := json.Unmarshal(body, &put); err != nil {
		t.Fatal(err)
	}
	if put.ID == "" || put.Elements != gen.Elements {
		t.Fatalf("unexpected put response %+v, generated %d elements", put, gen.Elements)
	}
	if got := arch.items[put.ID].Name; got != "house" {
		t.Fatalf("name = %q", got)
	}

	resp, body = do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/layouts/"+put.ID, nil))
	if resp.StatusCode != http.StatusOK || string(body) != string(gen.Document) {
		t.Fatalf("get returned %d with a different document", resp.StatusCode)
	}

	resp, body = do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/layouts", nil))
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), put.ID) {
		t.Fatalf("list status %d: %s", resp.StatusCode, body)
	}

	resp, _ = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/v1/layouts/"+put.ID, nil))
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status %d", resp.StatusCode)
	}
	resp, _ = do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/layouts/"+put.ID, nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestArchiveRejectsInvalidDocument(t *testing.T) {
	arch := &memArchive{items: map[string]backend.Layout{}}
	s := New(Options{Server: config.Defaults().Server, Session: editor.OptionsFrom(config.Defaults()), Archive: arch})
	resp, _ := do(t, s, jsonRequest("/api/v1/layouts", `{"elements":"nope"}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if len(arch.items) != 0 {
		t.Fatalf("invalid document must not be stored")
	}
}
