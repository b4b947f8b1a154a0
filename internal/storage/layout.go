/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "floorplan/internal/log"
)

const (
	BackupsDirName = "backups"
	// BackupStamp is the time layout embedded in backup file names. It has
	// fixed width so names sort in time order.
	BackupStamp = "20060102-150405.000000000"
)

var (
	// ErrNoBackup is returned when a backup is requested but none is readable.
	ErrNoBackup = errors.New("no backups found")
	// ErrCorrupt marks a layout file that is missing or not valid JSON.
	ErrCorrupt = errors.New("layout file unreadable")
)

// CorruptError reports an unreadable layout file. Backup names the newest
// readable backup, empty when there is none. It is never applied on its own;
// callers restore it through ReadBackup.
type CorruptError struct {
	Path   string
	Backup string
	Err    error
}

func (e *CorruptError) Error() string {
	msg := fmt.Sprintf("%v: %s: %v", ErrCorrupt, e.Path, e.Err)
	if e.Backup != "" {
		msg += " (backup available: " + e.Backup + ")"
	}
	return msg
}

func (e *CorruptError) Unwrap() []error { return []error{ErrCorrupt, e.Err} }

var now = time.Now

// BackupDir returns the backups folder used for the layout at path.
func BackupDir(path string) string { return filepath.Join(filepath.Dir(path), BackupsDirName) }

// SaveLayout writes data to path through a synced temp file and a rename.
// An existing file is first copied to backups/<name>.<stamp>.bak.
func SaveLayout(path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("layout path is required")
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "save_layout").With(slog.String("path", path))
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create layout dir: %w", err)
	}

	if _, statErr := os.Stat(path); statErr == nil {
		bdir := BackupDir(path)
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return fmt.Errorf("ensure backups dir: %w", err)
		}
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), now().Format(BackupStamp)))
		if err := copyFile(path, bpath); err != nil {
			return fmt.Errorf("backup current layout: %w", err)
		}
		l.Debug("backup written", slog.String("backup", bpath))
	}

	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp layout: %w", err)
	}
	// Windows cannot rename over an existing file.
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace layout: %w", err)
	}
	l.Info("layout saved", slog.Int("bytes", len(data)))
	return nil
}

// ReadLayout returns the contents of path. A missing file or invalid JSON
// yields a *CorruptError that names the latest backup, if any.
func ReadLayout(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err == nil && json.Valid(b) {
		return b, nil
	}
	if err == nil {
		err = errors.New("invalid JSON")
	}
	ce := &CorruptError{Path: path, Err: err}
	if _, bpath, berr := ReadBackup(path); berr == nil {
		ce.Backup = bpath
	}
	applog.WithComponent("storage").Warn("layout unreadable",
		slog.String("path", path), slog.String("backup", ce.Backup), slog.Any("err", err))
	return nil, ce
}

// ReadBackup returns the newest backup of path that holds valid JSON.
func ReadBackup(path string) ([]byte, string, error) {
	list, err := Backups(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNoBackup, err)
	}
	for i := len(list) - 1; i >= 0; i-- {
		b, err := os.ReadFile(list[i])
		if err == nil && json.Valid(b) {
			return b, list[i], nil
		}
	}
	return nil, "", ErrNoBackup
}

// Backups lists the backups of path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := BackupDir(path)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	// the stamp sorts lexicographically
	sort.Strings(out)
	return out, nil
}

// writeFileSync writes data and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
