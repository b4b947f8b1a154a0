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
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"floorplan/internal/backend"
	"floorplan/internal/scene"
	"floorplan/internal/storage"
)

// Archive stores layout documents for later retrieval. *backend.Store
// implements it.
type Archive interface {
	Put(ctx context.Context, name, source string, doc []byte, elements int) (string, error)
	Get(ctx context.Context, id string) (backend.Layout, error)
	List(ctx context.Context, limit int) ([]backend.Layout, error)
	Delete(ctx context.Context, id string) error
}

func (s *Server) registerArchive(api fiber.Router) {
	if s.opts.Archive == nil {
		return
	}
	api.Post("/layouts", s.archivePut)
	api.Get("/layouts", s.archiveList)
	api.Get("/layouts/:id", s.archiveGet)
	api.Delete("/layouts/:id", s.archiveDelete)
}

func (s *Server) archivePut(c fiber.Ctx) error {
	body := c.Body()
	if err := storage.ValidateLayout(body); err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	dec, err := scene.DecodeDocument(body)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	source := c.Query("source", "upload")
	id, err := s.opts.Archive.Put(c.Context(), c.Query("name"), source, body, len(dec.Elements))
	if err != nil {
		return err
	}
	s.log.Info("layout archived", slog.String("id", id), slog.Int("elements", len(dec.Elements)))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id, "elements": len(dec.Elements), "request_id": reqID(c)})
}

func (s *Server) archiveList(c fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := s.opts.Archive.List(c.Context(), limit)
	if err != nil {
		return err
	}
	if items == nil {
		items = []backend.Layout{}
	}
	return c.JSON(fiber.Map{"layouts": items, "request_id": reqID(c)})
}

func (s *Server) archiveGet(c fiber.Ctx) error {
	l, err := s.opts.Archive.Get(c.Context(), c.Params("id"))
	if errors.Is(err, backend.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, err)
	}
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(l.Document)
}

func (s *Server) archiveDelete(c fiber.Ctx) error {
	err := s.opts.Archive.Delete(c.Context(), c.Params("id"))
	if errors.Is(err, backend.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, err)
	}
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
