/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package server exposes the layout generator, the scan pipeline, the
// exporters and OCR over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"

	"floorplan/internal/config"
	"floorplan/internal/editor"
	applog "floorplan/internal/log"
	"floorplan/internal/telemetry"
	"floorplan/internal/version"
)

// RequestIDHeader carries the id assigned to every request.
const RequestIDHeader = "X-Request-ID"

const localRequestID = "request_id"

// Options configure the API. Session settings are applied to the
// throwaway session each request works on.
type Options struct {
	Server    config.ServerConfig
	Session   editor.Options
	Telemetry *telemetry.Client
	// Archive enables the /api/v1/layouts store routes when set.
	Archive   Archive
}

// Server wraps the fiber app.
type Server struct {
	app  *fiber.App
	opts Options
	log  *slog.Logger
}

// New builds the app and registers all routes.
func New(opts Options) *Server {
	// the API never autosaves; sessions are per request
	opts.Session.Index = nil
	opts.Session.Autosave = false
	opts.Session.Telemetry = opts.Telemetry

	s := &Server{opts: opts, log: applog.WithComponent("server")}
	cfg := fiber.Config{
		AppName:      applog.App + " " + version.String(),
		ReadTimeout:  opts.Server.ReadTimeout(),
		WriteTimeout: opts.Server.WriteTimeout(),
		ErrorHandler: s.errorHandler,
	}
	if n := opts.Server.BodyLimit(); n > 0 {
		cfg.BodyLimit = n
	}
	s.app = fiber.New(cfg)

	s.app.Use(recover.New())
	s.app.Use(requestID)
	s.app.Use(s.accessLog)

	s.app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	s.app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready", "version": version.String()})
	})

	api := s.app.Group("/api/v1")
	api.Post("/layouts/generate", s.generate)
	api.Post("/scan", s.scan)
	api.Post("/export/:format", s.export)
	api.Post("/ocr", s.ocr)
	s.registerArchive(api)
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := s.opts.Server.Addr
	errc := make(chan error, 1)
	go func() {
		s.log.Info("server listening", slog.String("addr", addr))
		errc <- s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("server shutting down")
	return s.app.ShutdownWithContext(shutdownCtx)
}

func requestID(c fiber.Ctx) error {
	id := uuid.NewString()
	c.Locals(localRequestID, id)
	c.Set(RequestIDHeader, id)
	return c.Next()
}

func reqID(c fiber.Ctx) string {
	if id, ok := c.Locals(localRequestID).(string); ok {
		return id
	}
	return ""
}

func (s *Server) accessLog(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}
	lvl := slog.LevelInfo
	if status >= fiber.StatusInternalServerError {
		lvl = slog.LevelError
	}
	s.log.Log(context.Background(), lvl, "request",
		slog.String("request_id", reqID(c)),
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Int("status", status),
		slog.Duration("latency", time.Since(start)))
	return err
}

func (s *Server) errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return fail(c, code, err)
}

func fail(c fiber.Ctx, code int, err error) error {
	return c.Status(code).JSON(fiber.Map{"error": err.Error(), "request_id": reqID(c)})
}
