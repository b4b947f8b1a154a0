/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend is the optional PostgreSQL archive the HTTP API stores
// layouts in. It is opened only when a database URL is configured.
package backend

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	applog "floorplan/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned for unknown layout ids.
var ErrNotFound = errors.New("layout not found")

// Layout is one archived document.
type Layout struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Elements  int       `json:"elements"`
	CreatedAt time.Time `json:"created_at"`
	// Document is omitted from listings.
	Document []byte `json:"-"`
}

// Store archives layouts in PostgreSQL through the pgx stdlib driver.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open connects to dsn, pings it and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	l := applog.WithOperation(applog.WithComponent("backend"), "open")
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database url is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(pctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	l.Info("layout archive ready")
	return &Store{db: db, log: applog.WithComponent("backend")}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Put stores a validated document and returns its new id.
func (s *Store) Put(ctx context.Context, name, source string, doc []byte, elements int) (string, error) {
	id := uuid.NewString()
	if source == "" {
		source = "upload"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO layouts(id, name, source, elements, document) VALUES($1, $2, $3, $4, $5)`,
		id, name, source, elements, string(doc))
	if err != nil {
		return "", fmt.Errorf("insert layout: %w", err)
	}
	s.log.Debug("layout archived", slog.String("id", id), slog.Int("elements", elements))
	return id, nil
}

// Get returns the layout with id, document included.
func (s *Store) Get(ctx context.Context, id string) (Layout, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Layout{}, ErrNotFound
	}
	var out Layout
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, source, elements, created_at, document FROM layouts WHERE id = $1`, id).
		Scan(&out.ID, &out.Name, &out.Source, &out.Elements, &out.CreatedAt, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return Layout{}, ErrNotFound
	}
	if err != nil {
		return Layout{}, fmt.Errorf("select layout: %w", err)
	}
	out.Document = []byte(doc)
	return out, nil
}

// List returns the newest layouts without their documents.
func (s *Store) List(ctx context.Context, limit int) ([]Layout, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, source, elements, created_at FROM layouts ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.log.Warn("rows close", slog.Any("err", err))
		}
	}()
	var out []Layout
	for rows.Next() {
		var l Layout
		if err := rows.Scan(&l.ID, &l.Name, &l.Source, &l.Elements, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Delete removes a layout.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM layouts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// migrationFiles lists the embedded migrations in version order.
func migrationFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// applyMigrations applies embedded SQL migrations in filename order and
// records each version once.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	l := applog.WithOperation(applog.WithComponent("backend"), "migrate")
	files, err := migrationFiles()
	if err != nil {
		return err
	}

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		l.Info("applying migration", slog.String("file", fname))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1, $2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
