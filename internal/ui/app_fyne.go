//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"floorplan/internal/catalog"
	"floorplan/internal/crash"
	"floorplan/internal/editor"
	"floorplan/internal/export"
	"floorplan/internal/layout"
	applog "floorplan/internal/log"
	"floorplan/internal/ocr"
	"floorplan/internal/scene"
	"floorplan/internal/storage"
	"floorplan/internal/version"
)

const fileTimeout = 30 * time.Second

// Run starts the Fyne desktop editor. A non-empty layoutPath is loaded on start.
func Run(opts editor.Options, layoutPath string) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	sess := editor.New(opts)
	defer crash.Recover(sess)

	fyneApp := app.NewWithID("floorplan")
	w := fyneApp.NewWindow("Floorplan")
	prefs := fyneApp.Preferences()
	winW := max(800, prefs.IntWithFallback("window.width", 1200))
	winH := max(600, prefs.IntWithFallback("window.height", 800))
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	pc := NewPlanCanvas(sess)
	s := sess.Scene()

	refresh := func() {
		status.SetText(statusText(s))
		title := "Floorplan"
		if p := sess.LayoutPath(); p != "" {
			title += " - " + filepath.Base(p)
		}
		w.SetTitle(title)
	}
	pc.OnChange = refresh
	changed := func() {
		pc.Refresh()
		refresh()
	}
	showErr := func(op string, err error) {
		l.Error(op+" failed", slog.Any("err", err))
		dialog.ShowError(err, w)
		status.SetText(op + " failed.")
	}

	// Placement tools
	labels := make([]string, 0, len(catalog.Placeable()))
	for _, k := range catalog.Placeable() {
		labels = append(labels, catalog.Label(k))
	}
	kindSelect := widget.NewSelect(labels, nil)
	kindSelect.PlaceHolder = "Appliance…"
	kindSelect.OnChanged = func(label string) {
		if label == "" {
			return
		}
		s.SetPlacingKind(catalog.Parse(label))
		l.Info("arm placement", slog.String("kind", label))
		changed()
	}

	presetNames := make([]string, 0, len(layout.Presets()))
	for _, p := range layout.Presets() {
		presetNames = append(presetNames, string(p))
	}
	presetSelect := widget.NewSelect(presetNames, nil)
	presetSelect.PlaceHolder = "Preset…"
	presetSelect.OnChanged = func(name string) {
		if name == "" {
			return
		}
		if err := sess.AddPreset(layout.Preset(name)); err != nil {
			showErr("add preset", err)
			return
		}
		presetSelect.ClearSelected()
		changed()
	}

	wallBtn := widget.NewButton("Wall", func() {
		s.StartWallPlacement()
		changed()
	})

	// dimsForm asks for x, y, width and height in meters.
	dimsForm := func(title string, entries [4]string, apply func(x, y, width, height string) error) {
		fields := [4]*widget.Entry{}
		items := make([]*widget.FormItem, 0, len(fields))
		for i, name := range []string{"X (m)", "Y (m)", "Width (m)", "Height (m)"} {
			fields[i] = widget.NewEntry()
			fields[i].SetText(entries[i])
			items = append(items, widget.NewFormItem(name, fields[i]))
		}
		dialog.NewForm(title, "Add", "Cancel", items, func(ok bool) {
			if !ok {
				return
			}
			if err := apply(fields[0].Text, fields[1].Text, fields[2].Text, fields[3].Text); err != nil {
				var ve *editor.ValidationError
				if errors.As(err, &ve) {
					dialog.ShowError(err, w)
					return
				}
				showErr(strings.ToLower(title), err)
				return
			}
			changed()
		}, w).Show()
	}
	addRoom := func(entries [4]string) {
		dimsForm("Add Room", entries, func(x, y, width, height string) error {
			d, err := editor.ParseDims(x, y, width, height)
			if err != nil {
				return err
			}
			_, err = sess.AddRoomMeters(d)
			return err
		})
	}
	roomBtn := widget.NewButton("Room…", func() { addRoom(editor.DefaultDimEntries) })
	borderBtn := widget.NewButton("Border…", func() {
		dimsForm("Add House Border", editor.DefaultDimEntries, func(x, y, width, height string) error {
			d, err := editor.ParseDims(x, y, width, height)
			if err != nil {
				return err
			}
			_, err = sess.AddBorderMeters(d)
			return err
		})
	})
	generateBtn := widget.NewButton("Generate…", func() {
		dimsForm("Generate Layout", [4]string{}, func(x, y, width, height string) error {
			d, err := editor.ParseGenerateDims(x, y, width, height)
			if err != nil {
				return err
			}
			rep, err := sess.GenerateMeters(d)
			if err != nil {
				return err
			}
			if n := len(rep.Violations); n > 0 {
				l.Warn("generated layout has overflowing furniture", slog.Int("violations", n))
			}
			return nil
		})
	})

	textForm := func(title, content string, size float64, apply func(content string, size float64) error) {
		contentEntry := widget.NewEntry()
		contentEntry.SetText(content)
		sizeEntry := widget.NewEntry()
		sizeEntry.SetText(strconv.FormatFloat(size, 'f', -1, 64))
		dialog.NewForm(title, "OK", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Text", contentEntry),
			widget.NewFormItem("Font Size", sizeEntry),
		}, func(ok bool) {
			if !ok {
				return
			}
			sz, err := strconv.ParseFloat(strings.TrimSpace(sizeEntry.Text), 64)
			if err != nil {
				dialog.ShowError(fmt.Errorf("please enter a numeric font size"), w)
				return
			}
			if err := apply(contentEntry.Text, sz); err != nil {
				dialog.ShowError(err, w)
				return
			}
			changed()
		}, w).Show()
	}
	textBtn := widget.NewButton("Text…", func() {
		if lb, ok := s.Selected().(*scene.Label); ok {
			textForm("Edit Text", lb.Content, lb.FontSize, sess.EditText)
			return
		}
		at := pc.Center()
		textForm("Add Text", "", scene.DefaultFontSize, func(content string, size float64) error {
			_, err := sess.AddText(at, content, size)
			return err
		})
	})

	undoAction := func() {
		if sess.Undo() {
			status.SetText("Undo")
		}
		pc.Refresh()
	}
	redoAction := func() {
		if sess.Redo() {
			status.SetText("Redo")
		}
		pc.Refresh()
	}
	rotateAction := func() {
		s.ToggleRotation()
		changed()
	}
	deleteAction := func() {
		if s.DeleteSelected() {
			changed()
		}
	}
	deleteCheck := widget.NewCheck("Delete mode", func(on bool) {
		s.SetDeleteMode(on)
		changed()
	})

	// File handling
	layoutFilter := fstorage.NewExtensionFileFilter([]string{".json"})
	loadLayout := func(path string) {
		ctx, cancel := context.WithTimeout(applog.WithLayout(context.Background(), path), fileTimeout)
		defer cancel()
		err := sess.Load(ctx, path)
		var ce *storage.CorruptError
		if errors.As(err, &ce) && ce.Backup != "" {
			l.Warn("layout unreadable", slog.String("path", path), slog.String("backup", ce.Backup), slog.Any("err", err))
			msg := fmt.Sprintf("%s could not be read.\nRestore the backup %s?", filepath.Base(path), filepath.Base(ce.Backup))
			dialog.ShowConfirm("Layout unreadable", msg, func(ok bool) {
				if !ok {
					return
				}
				rctx, rcancel := context.WithTimeout(applog.WithLayout(context.Background(), path), fileTimeout)
				defer rcancel()
				if err := sess.LoadBackup(rctx, path); err != nil {
					showErr("restore backup", err)
					return
				}
				status.SetText("Restored " + filepath.Base(ce.Backup))
				pc.ResetView()
				changed()
			}, w)
			return
		}
		if err != nil {
			showErr("open layout", err)
			return
		}
		pc.ResetView()
		changed()
	}
	saveLayout := func(path string) {
		ctx, cancel := context.WithTimeout(applog.WithLayout(context.Background(), path), fileTimeout)
		defer cancel()
		if err := sess.Save(ctx, path); err != nil {
			showErr("save layout", err)
			return
		}
		status.SetText("Saved " + path)
		refresh()
	}
	saveAs := func() {
		fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			path := uc.URI().Path()
			// storage writes through its own temp file
			_ = uc.Close()
			saveLayout(path)
		}, w)
		fd.SetFileName("floorplan.json")
		fd.SetFilter(layoutFilter)
		fd.Show()
	}
	saveAction := func() {
		if p := sess.LayoutPath(); p != "" {
			saveLayout(p)
			return
		}
		saveAs()
	}
	openAction := func() {
		fd := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			path := ur.URI().Path()
			_ = ur.Close()
			loadLayout(path)
		}, w)
		fd.SetFilter(layoutFilter)
		fd.Show()
	}
	imageOpen := func(apply func(path string)) {
		fd := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			path := ur.URI().Path()
			_ = ur.Close()
			apply(path)
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}))
		fd.Show()
	}
	scanAction := func() {
		imageOpen(func(path string) {
			status.SetText("Scanning " + filepath.Base(path) + "…")
			ch := sess.Scan(context.Background(), path)
			go func() {
				res := <-ch
				fyne.Do(func() {
					if err := sess.InstallScan(res); err != nil {
						showErr("scan", err)
						return
					}
					status.SetText(fmt.Sprintf("Scan added %d walls, %d rooms, %d fixtures", res.Walls, res.Rooms, res.Circles))
					pc.Refresh()
				})
			}()
		})
	}
	ocrAction := func() {
		if !ocr.Available() {
			dialog.ShowInformation("Read Dimensions", "Text recognition is not built into this binary.", w)
			return
		}
		imageOpen(func(path string) {
			status.SetText("Reading dimensions…")
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), fileTimeout)
				defer cancel()
				d, _, err := ocr.Extract(ctx, path)
				fyne.Do(func() {
					if err != nil {
						showErr("read dimensions", err)
						return
					}
					status.SetText(fmt.Sprintf("Found %d numbers", d.Found))
					addRoom(dimEntries(d))
				})
			}()
		})
	}
	exportAction := func() {
		fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			opts := export.Options{GridSize: s.GridSize, Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
			if err := export.File(path, s.Elements(), opts); err != nil {
				showErr("export", err)
				return
			}
			dialog.ShowInformation("Export", "Exported plan to "+path, w)
		}, w)
		fd.SetFileName("floorplan.png")
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".svg", ".pdf"}))
		fd.Show()
	}
	recentAction := func() {
		ctx, cancel := context.WithTimeout(context.Background(), fileTimeout)
		defer cancel()
		rec, err := sess.Recent(ctx, 10)
		if err != nil {
			showErr("recent layouts", err)
			return
		}
		if len(rec) == 0 {
			dialog.ShowInformation("Recent Layouts", "No recent layouts.", w)
			return
		}
		var dlg dialog.Dialog
		list := widget.NewList(
			func() int { return len(rec) },
			func() fyne.CanvasObject { return widget.NewLabel("") },
			func(i widget.ListItemID, o fyne.CanvasObject) {
				r := rec[i]
				o.(*widget.Label).SetText(fmt.Sprintf("%s  (%d elements, %s)", r.Path, r.Elements, r.OpenedAt.Format("2006-01-02 15:04")))
			},
		)
		list.OnSelected = func(i widget.ListItemID) {
			dlg.Hide()
			loadLayout(rec[i].Path)
		}
		dlg = dialog.NewCustom("Recent Layouts", "Close", container.NewGridWrap(fyne.NewSize(640, 320), list), w)
		dlg.Show()
	}
	restoreAction := func() {
		ctx, cancel := context.WithTimeout(context.Background(), fileTimeout)
		defer cancel()
		ok, err := sess.RestoreAutosave(ctx)
		if err != nil {
			showErr("restore autosave", err)
			return
		}
		if !ok {
			dialog.ShowInformation("Restore Autosave", "No autosave for this layout.", w)
			return
		}
		changed()
	}

	toolbar := container.NewHBox(
		kindSelect, wallBtn, roomBtn, borderBtn, textBtn, presetSelect,
		widget.NewSeparator(),
		widget.NewButton("Undo", undoAction),
		widget.NewButton("Redo", redoAction),
		widget.NewButton("Rotate", rotateAction),
		widget.NewButton("Delete", deleteAction),
		deleteCheck,
		widget.NewSeparator(),
		generateBtn,
		widget.NewButton("Scan…", scanAction),
		widget.NewButton("Save", saveAction),
		widget.NewButton("Import…", openAction),
	)
	w.SetContent(container.NewBorder(toolbar, status, nil, nil, pc))

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open…", openAction),
		fyne.NewMenuItem("Recent Layouts…", recentAction),
		fyne.NewMenuItem("Save", saveAction),
		fyne.NewMenuItem("Save As…", saveAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Scan Image…", scanAction),
		fyne.NewMenuItem("Read Dimensions…", ocrAction),
		fyne.NewMenuItem("Export…", exportAction),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Restore Autosave", restoreAction),
	)
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", undoAction),
		fyne.NewMenuItem("Redo", redoAction),
		fyne.NewMenuItem("Rotate", rotateAction),
		fyne.NewMenuItem("Delete Selected", deleteAction),
		fyne.NewMenuItem("Reset View", pc.ResetView),
	)
	aboutItem := fyne.NewMenuItem("About Floorplan", func() {
		exe, _ := os.Executable()
		info := fmt.Sprintf("Floorplan\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s",
			version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe)
		dialog.ShowInformation("About", info, w)
	})
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, fyne.NewMenu("About", aboutItem)))

	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { undoAction() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { redoAction() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { saveAction() })
	w.Canvas().SetOnTypedKey(func(e *fyne.KeyEvent) {
		switch e.Name {
		case fyne.KeyEscape:
			s.CancelMode()
			kindSelect.ClearSelected()
			changed()
		case fyne.KeyDelete, fyne.KeyBackspace:
			deleteAction()
		case fyne.KeyR:
			rotateAction()
		}
	})

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	if layoutPath != "" {
		loadLayout(layoutPath)
	}
	refresh()
	w.ShowAndRun()
	return nil
}
