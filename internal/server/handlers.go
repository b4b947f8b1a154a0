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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v3"

	"floorplan/internal/editor"
	"floorplan/internal/export"
	"floorplan/internal/layout"
	"floorplan/internal/ocr"
	"floorplan/internal/scan"
	"floorplan/internal/scene"
	"floorplan/internal/storage"
)

// GenerateRequest is a house footprint in meters. Missing fields fall back
// to the origin and the minimum house size.
type GenerateRequest struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

func (r GenerateRequest) dims() editor.Dims {
	d := editor.Dims{Width: layout.MinHouseWidth, Height: layout.MinHouseHeight}
	if r.X != nil {
		d.X = *r.X
	}
	if r.Y != nil {
		d.Y = *r.Y
	}
	if r.Width != nil {
		d.Width = *r.Width
	}
	if r.Height != nil {
		d.Height = *r.Height
	}
	return d
}

type violation struct {
	Room   string `json:"room"`
	Anchor string `json:"anchor"`
}

// GenerateResponse carries the generated document and its room checks.
type GenerateResponse struct {
	RequestID  string          `json:"request_id"`
	Elements   int             `json:"elements"`
	Rooms      int             `json:"rooms"`
	Violations []violation     `json:"violations"`
	Document   json.RawMessage `json:"document"`
}

// ScanResponse carries the detection counts and the detected document.
type ScanResponse struct {
	RequestID string          `json:"request_id"`
	Walls     int             `json:"walls"`
	Rooms     int             `json:"rooms"`
	Circles   int             `json:"circles"`
	Document  json.RawMessage `json:"document"`
}

// OCRResponse carries the dimension inputs read off an image.
type OCRResponse struct {
	RequestID string  `json:"request_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Found     int     `json:"found"`
	Text      string  `json:"text"`
}

func (s *Server) session() *editor.Session { return editor.New(s.opts.Session) }

func (s *Server) generate(c fiber.Ctx) error {
	var req GenerateRequest
	if body := bytes.TrimSpace(c.Body()); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return fail(c, fiber.StatusBadRequest, fmt.Errorf("invalid JSON payload: %w", err))
		}
	}
	sess := s.session()
	rep, err := sess.GenerateMeters(req.dims())
	if err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, err)
	}
	doc, err := sess.Document()
	if err != nil {
		return err
	}
	out := GenerateResponse{
		RequestID:  reqID(c),
		Elements:   rep.Elements,
		Rooms:      len(rep.Rooms),
		Violations: make([]violation, 0, len(rep.Violations)),
		Document:   doc,
	}
	for _, v := range rep.Violations {
		out.Violations = append(out.Violations, violation{Room: v.Room, Anchor: v.Anchor.String()})
	}
	return c.JSON(out)
}

// upload reads the multipart "file" field.
func upload(c fiber.Ctx) ([]byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("file required in multipart/form-data")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func (s *Server) scan(c fiber.Ctx) error {
	data, err := upload(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	res := scan.Decode(bytes.NewReader(data), s.opts.Session.Scan)
	if !res.Success {
		return fail(c, fiber.StatusUnprocessableEntity, res.Err)
	}
	sess := s.session()
	if err := sess.InstallScan(res); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, err)
	}
	doc, err := sess.Document()
	if err != nil {
		return err
	}
	return c.JSON(ScanResponse{
		RequestID: reqID(c),
		Walls:     res.Walls,
		Rooms:     res.Rooms,
		Circles:   res.Circles,
		Document:  doc,
	})
}

func (s *Server) export(c fiber.Ctx) error {
	format, err := export.ParseFormat(c.Params("format"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	body := c.Body()
	if err := storage.ValidateLayout(body); err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	dec, err := scene.DecodeDocument(body)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	opts := export.Options{
		Margin: queryFloat(c, "margin"),
		Scale:  queryFloat(c, "scale"),
		Grid:   c.Query("grid") == "true" || c.Query("grid") == "1",
		Title:  c.Query("title"),
	}
	if dec.GridSize != nil {
		opts.GridSize = *dec.GridSize
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, dec.Elements, opts); err != nil {
		return err
	}
	s.log.Debug("layout exported", slog.String("format", string(format)), slog.Int("bytes", buf.Len()))
	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Send(buf.Bytes())
}

func queryFloat(c fiber.Ctx, key string) float64 {
	v, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return 0
	}
	return v
}

func (s *Server) ocr(c fiber.Ctx) error {
	data, err := upload(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, fmt.Errorf("%w: %v", scan.ErrImageDecode, err))
	}
	d, text, err := ocr.ExtractImage(c.Context(), img)
	if errors.Is(err, ocr.ErrUnavailable) {
		return fail(c, fiber.StatusNotImplemented, err)
	}
	if err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, err)
	}
	return c.JSON(OCRResponse{
		RequestID: reqID(c),
		X:         d.X,
		Y:         d.Y,
		Width:     d.Width,
		Height:    d.Height,
		Found:     d.Found,
		Text:      text,
	})
}
