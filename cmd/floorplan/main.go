/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"floorplan/internal/backend"
	"floorplan/internal/config"
	"floorplan/internal/crash"
	"floorplan/internal/editor"
	"floorplan/internal/export"
	applog "floorplan/internal/log"
	"floorplan/internal/ocr"
	"floorplan/internal/server"
	"floorplan/internal/storage"
	"floorplan/internal/telemetry"
	"floorplan/internal/ui"
	"floorplan/internal/version"
)

const cmdTimeout = 2 * time.Minute

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Floorplan - house layout editor")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  floorplan version|-v|--version                      Show version")
	_, _ = fmt.Fprintln(w, "  floorplan generate <out.json> [x y width height]     Generate a furnished house (meters)")
	_, _ = fmt.Fprintln(w, "  floorplan scan <image> <out.json>                    Detect walls, rooms and fixtures in a drawing")
	_, _ = fmt.Fprintln(w, "  floorplan ocr <image>                                Read dimensions from an image")
	_, _ = fmt.Fprintln(w, "  floorplan export <layout.json> <out.png|svg|pdf>     Render a layout")
	_, _ = fmt.Fprintln(w, "  floorplan recent                                     List recently opened layouts")
	_, _ = fmt.Fprintln(w, "  floorplan serve [addr]                               Run the HTTP API")
	_, _ = fmt.Fprintln(w, "  floorplan ui [layout.json]                           Launch desktop UI (build with -tags fyne)")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// app is the wiring shared by all commands.
type app struct {
	cfg   config.AppConfig
	opts  editor.Options
	index *storage.Index
	log   *slog.Logger
	out   io.Writer
}

func run(args []string, out io.Writer) int {
	cfg, token, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config unavailable, using defaults", slog.Any("err", cfgErr))
	}

	telemetry.NewDefault(telemetry.FromEnv().Merge(cfg.General.TelemetryOptIn, cfg.Telemetry.EventsURL, cfg.Telemetry.CrashURL, token))
	defer telemetry.Default().Close()

	a := &app{cfg: cfg, opts: editor.OptionsFrom(cfg), log: l, out: out}
	a.opts.Telemetry = telemetry.Default()

	if len(args) == 0 {
		usage(out)
		return 0
	}
	l.Debug("start", slog.String("cmd", args[0]), slog.Int("args", len(args)))
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(out, "Floorplan")
		_, _ = fmt.Fprintln(out, version.String())
		return 0
	case "generate":
		return a.generate(args[1:])
	case "scan":
		return a.scan(args[1:])
	case "ocr":
		return a.ocr(args[1:])
	case "export":
		return a.export(args[1:])
	case "recent":
		return a.recent()
	case "serve":
		return a.serve(args[1:])
	case "ui":
		return a.ui(args[1:])
	case "help", "-h", "--help":
		usage(out)
		return 0
	}
	_, _ = fmt.Fprintf(out, "unknown command %q\n", args[0])
	usage(out)
	return 2
}

// openIndex attaches the recent-layouts index; failures only disable it.
func (a *app) openIndex(ctx context.Context) {
	dir, err := config.Dir()
	if err != nil {
		a.log.Warn("no config dir, index disabled", slog.Any("err", err))
		return
	}
	ix, rebuilt, err := storage.DetectAndRebuildIndex(ctx, dir)
	if err != nil {
		a.log.Warn("index unavailable", slog.Any("err", err))
		return
	}
	if rebuilt {
		a.log.Warn("index was damaged and has been rebuilt", slog.String("path", ix.Path()))
	}
	a.index = ix
	a.opts.Index = ix
}

func (a *app) closeIndex() {
	if a.index == nil {
		return
	}
	if err := a.index.Close(); err != nil {
		a.log.Warn("close index failed", slog.Any("err", err))
	}
}

func (a *app) fail(op string, err error) int {
	a.log.Error(op+" failed", slog.Any("err", err))
	_, _ = fmt.Fprintln(a.out, "Error:", err)
	var ve *editor.ValidationError
	if errors.As(err, &ve) {
		return 2
	}
	return 1
}

func (a *app) generate(args []string) int {
	if len(args) != 1 && len(args) != 5 {
		_, _ = fmt.Fprintln(a.out, "generate requires <out.json> and optionally x y width height")
		usage(a.out)
		return 2
	}
	out, _ := filepath.Abs(args[0])
	dims := [4]string{}
	if len(args) == 5 {
		copy(dims[:], args[1:])
	}
	d, err := editor.ParseGenerateDims(dims[0], dims[1], dims[2], dims[3])
	if err != nil {
		return a.fail("generate", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()
	a.openIndex(ctx)
	defer a.closeIndex()

	sess := editor.New(a.opts)
	defer crash.Recover(sess)
	rep, err := sess.GenerateMeters(d)
	if err != nil {
		return a.fail("generate", err)
	}
	if err := sess.Save(ctx, out); err != nil {
		return a.fail("save", err)
	}
	_, _ = fmt.Fprintf(a.out, "Generated %d elements (%d rooms) into %s\n", rep.Elements, len(rep.Rooms), out)
	for _, v := range rep.Violations {
		_, _ = fmt.Fprintf(a.out, "  warning: %s overflows room %s\n", v.Anchor, v.Room)
	}
	return 0
}

func (a *app) scan(args []string) int {
	if len(args) != 2 {
		_, _ = fmt.Fprintln(a.out, "scan requires <image> and <out.json>")
		usage(a.out)
		return 2
	}
	out, _ := filepath.Abs(args[1])
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()
	a.openIndex(ctx)
	defer a.closeIndex()

	sess := editor.New(a.opts)
	defer crash.Recover(sess)
	res := <-sess.Scan(ctx, args[0])
	if err := sess.InstallScan(res); err != nil {
		return a.fail("scan", err)
	}
	if err := sess.Save(ctx, out); err != nil {
		return a.fail("save", err)
	}
	_, _ = fmt.Fprintf(a.out, "Detected %d walls, %d rooms, %d fixtures; saved to %s\n", res.Walls, res.Rooms, res.Circles, out)
	return 0
}

func (a *app) ocr(args []string) int {
	if len(args) != 1 {
		_, _ = fmt.Fprintln(a.out, "ocr requires <image>")
		usage(a.out)
		return 2
	}
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()
	d, text, err := ocr.Extract(ctx, args[0])
	if err != nil {
		return a.fail("ocr", err)
	}
	a.log.Debug("ocr text", slog.String("text", text))
	_, _ = fmt.Fprintf(a.out, "Found %d numbers: x=%g y=%g width=%g height=%g\n", d.Found, d.X, d.Y, d.Width, d.Height)
	return 0
}

func (a *app) export(args []string) int {
	if len(args) != 2 {
		_, _ = fmt.Fprintln(a.out, "export requires <layout.json> and <out.png|svg|pdf>")
		usage(a.out)
		return 2
	}
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()
	sess := editor.New(a.opts)
	defer crash.Recover(sess)
	if err := sess.Load(ctx, args[0]); err != nil {
		return a.fail("load", err)
	}
	s := sess.Scene()
	title := filepath.Base(args[0])
	if err := export.File(args[1], s.Elements(), export.Options{GridSize: s.GridSize, Title: title}); err != nil {
		return a.fail("export", err)
	}
	_, _ = fmt.Fprintf(a.out, "Exported %d elements to %s\n", s.Len(), args[1])
	return 0
}

func (a *app) recent() int {
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()
	a.openIndex(ctx)
	defer a.closeIndex()
	if a.index == nil {
		_, _ = fmt.Fprintln(a.out, "No index available.")
		return 1
	}
	rec, err := a.index.Recent(ctx, 20)
	if err != nil {
		return a.fail("recent", err)
	}
	for _, r := range rec {
		_, _ = fmt.Fprintf(a.out, "%s  %s  %d elements\n", r.OpenedAt.Local().Format("2006-01-02 15:04"), r.Path, r.Elements)
	}
	return 0
}

// newServer builds the API, attaching the layout archive when a database
// url is configured. The returned func releases the archive.
func (a *app) newServer(ctx context.Context) (*server.Server, func(), error) {
	opts := server.Options{Server: a.cfg.Server, Session: a.opts, Telemetry: telemetry.Default()}
	closeFn := func() {}
	if dsn := a.cfg.Server.DatabaseURL; dsn != "" {
		store, err := backend.Open(ctx, dsn)
		if err != nil {
			return nil, closeFn, err
		}
		opts.Archive = store
		closeFn = func() {
			if err := store.Close(); err != nil {
				a.log.Warn("close archive failed", slog.Any("err", err))
			}
		}
	}
	return server.New(opts), closeFn, nil
}

func (a *app) serve(args []string) int {
	if len(args) > 0 {
		a.cfg.Server.Addr = args[0]
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv, closeArchive, err := a.newServer(ctx)
	if err != nil {
		return a.fail("serve", err)
	}
	defer closeArchive()
	if err := srv.Run(ctx); err != nil {
		return a.fail("serve", err)
	}
	return 0
}

func (a *app) ui(args []string) int {
	var path string
	if len(args) > 0 {
		path, _ = filepath.Abs(args[0])
	}
	a.openIndex(context.Background())
	defer a.closeIndex()
	if a.cfg.General.EnableServer {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			srv, closeArchive, err := a.newServer(ctx)
			if err != nil {
				a.log.Error("embedded server not started", slog.Any("err", err))
				return
			}
			defer closeArchive()
			if err := srv.Run(ctx); err != nil {
				a.log.Error("embedded server stopped", slog.Any("err", err))
			}
		}()
	}
	if err := ui.Run(a.opts, path); err != nil {
		_, _ = fmt.Fprintln(a.out, "Error:", err)
		return 1
	}
	return 0
}
