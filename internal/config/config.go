/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the per-user YAML configuration, applies FP_*
// environment overrides and keeps the telemetry token in the OS keyring.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
	EnableServer   bool   `yaml:"enable_server"`
}

type EditorConfig struct {
	GridSize     int     `yaml:"grid_size"`
	UnitScale    float64 `yaml:"unit_scale"` // pixels per meter
	Density      float64 `yaml:"density"`
	HistoryDepth int     `yaml:"history_depth"`
	HistoryBytes int64   `yaml:"history_bytes"`
	Autosave     bool    `yaml:"autosave"`
	AutosaveKeep int     `yaml:"autosave_keep"`
}

type ScanConfig struct {
	MaxDimension int    `yaml:"max_dimension"`
	Backend      string `yaml:"backend"` // informational: the backend is chosen at build time
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
	BodyLimitMB    int    `yaml:"body_limit_mb"`
	// DatabaseURL enables the PostgreSQL layout archive when set.
	DatabaseURL    string `yaml:"database_url"`
}

type TelemetryConfig struct {
	EventsURL string `yaml:"events_url"`
	CrashURL  string `yaml:"crash_url"`
	// the bearer token is kept in the OS keyring, never in this file
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the user-editable configuration. Environment variables are
// read-only overrides applied after the file.
type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	General       GeneralConfig   `yaml:"general"`
	Editor        EditorConfig    `yaml:"editor"`
	Scan          ScanConfig      `yaml:"scan"`
	Server        ServerConfig    `yaml:"server"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system"},
		Editor: EditorConfig{
			GridSize:     20,
			UnitScale:    40,
			Density:      1,
			HistoryDepth: 200,
			HistoryBytes: 32 << 20,
			Autosave:     true,
			AutosaveKeep: 20,
		},
		Scan:    ScanConfig{MaxDimension: 1200, Backend: "auto"},
		Server:  ServerConfig{Addr: "127.0.0.1:8088", ReadTimeoutMs: 15000, WriteTimeoutMs: 30000, BodyLimitMB: 16},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigDir      = "FP_CONFIG_DIR"
	EnvTelemetryOptIn = "FP_TELEMETRY_OPT_IN"
	EnvEnableServer   = "FP_ENABLE_SERVER"
	EnvGridSize       = "FP_GRID_SIZE"
	EnvUnitScale      = "FP_UNIT_SCALE"
	EnvDensity        = "FP_DENSITY"
	EnvAutosave       = "FP_AUTOSAVE"
	EnvScanMaxDim     = "FP_SCAN_MAX_DIMENSION"
	EnvServerAddr     = "FP_SERVER_ADDR"
	EnvDatabaseURL    = "FP_DATABASE_URL"
	EnvLogLevel       = "FP_LOG_LEVEL"
	EnvLogFormat      = "FP_LOG_FORMAT"
	EnvLogSource      = "FP_LOG_SOURCE"
	EnvLogFile        = "FP_LOG_FILE"
)

type binding struct {
	key   string
	env   string
	apply func(cfg *AppConfig, v string)
}

func setInt(field func(*AppConfig) *int) func(*AppConfig, string) {
	return func(c *AppConfig, v string) {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*field(c) = n
		}
	}
}

func setPositive(field func(*AppConfig) *float64) func(*AppConfig, string) {
	return func(c *AppConfig, v string) {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			*field(c) = f
		}
	}
}

// bindings maps dotted config keys to their environment override.
var bindings = []binding{
	{"general.telemetry_opt_in", EnvTelemetryOptIn, func(c *AppConfig, v string) { c.General.TelemetryOptIn = parseBool(v) }},
	{"general.enable_server", EnvEnableServer, func(c *AppConfig, v string) { c.General.EnableServer = parseBool(v) }},
	{"editor.grid_size", EnvGridSize, setInt(func(c *AppConfig) *int { return &c.Editor.GridSize })},
	{"editor.unit_scale", EnvUnitScale, setPositive(func(c *AppConfig) *float64 { return &c.Editor.UnitScale })},
	{"editor.density", EnvDensity, setPositive(func(c *AppConfig) *float64 { return &c.Editor.Density })},
	{"editor.autosave", EnvAutosave, func(c *AppConfig, v string) { c.Editor.Autosave = parseBool(v) }},
	{"scan.max_dimension", EnvScanMaxDim, setInt(func(c *AppConfig) *int { return &c.Scan.MaxDimension })},
	{"server.addr", EnvServerAddr, func(c *AppConfig, v string) { c.Server.Addr = v }},
	{"server.database_url", EnvDatabaseURL, func(c *AppConfig, v string) { c.Server.DatabaseURL = v }},
	{"logging.level", EnvLogLevel, func(c *AppConfig, v string) { c.Logging.Level = strings.ToLower(v) }},
	{"logging.format", EnvLogFormat, func(c *AppConfig, v string) { c.Logging.Format = strings.ToLower(v) }},
	{"logging.source", EnvLogSource, func(c *AppConfig, v string) { c.Logging.Source = parseBool(v) }},
	{"logging.file", EnvLogFile, func(c *AppConfig, v string) { c.Logging.File = v }},
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	for _, b := range bindings {
		if v := strings.TrimSpace(os.Getenv(b.env)); v != "" {
			b.apply(cfg, v)
		}
	}
}

// EnvOverrideFor returns the env var name if the dotted key is overridden.
func EnvOverrideFor(key string) (string, bool) {
	for _, b := range bindings {
		if b.key == key && os.Getenv(b.env) != "" {
			return b.env, true
		}
	}
	return "", false
}

// Dir returns the per-user config directory. FP_CONFIG_DIR replaces it.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Floorplan")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Floorplan")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "floorplan")
		} else if h := os.Getenv("HOME"); h != "" {
			base = filepath.Join(h, ".config", "floorplan")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file if present, merges it over the defaults
// and applies environment overrides. The telemetry token comes from the
// keyring and is returned separately.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the config YAML and stores a non-empty token in the keyring.
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		return tokenStore.Set(keyringService, keyringToken, token)
	}
	return nil
}

func mergeInto(dst, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if s := strings.TrimSpace(src.General.Theme); s != "" {
		dst.General.Theme = s
	}
	// booleans are copied as the user left them
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	dst.General.EnableServer = src.General.EnableServer

	e := src.Editor
	if e.GridSize > 0 {
		dst.Editor.GridSize = e.GridSize
	}
	if e.UnitScale > 0 {
		dst.Editor.UnitScale = e.UnitScale
	}
	if e.Density > 0 {
		dst.Editor.Density = e.Density
	}
	if e.HistoryDepth > 0 {
		dst.Editor.HistoryDepth = e.HistoryDepth
	}
	if e.HistoryBytes > 0 {
		dst.Editor.HistoryBytes = e.HistoryBytes
	}
	if e.AutosaveKeep > 0 {
		dst.Editor.AutosaveKeep = e.AutosaveKeep
	}
	dst.Editor.Autosave = e.Autosave

	if src.Scan.MaxDimension > 0 {
		dst.Scan.MaxDimension = src.Scan.MaxDimension
	}
	if s := strings.TrimSpace(src.Scan.Backend); s != "" {
		dst.Scan.Backend = strings.ToLower(s)
	}

	if s := strings.TrimSpace(src.Server.Addr); s != "" {
		dst.Server.Addr = s
	}
	if src.Server.ReadTimeoutMs > 0 {
		dst.Server.ReadTimeoutMs = src.Server.ReadTimeoutMs
	}
	if src.Server.WriteTimeoutMs > 0 {
		dst.Server.WriteTimeoutMs = src.Server.WriteTimeoutMs
	}
	if src.Server.BodyLimitMB > 0 {
		dst.Server.BodyLimitMB = src.Server.BodyLimitMB
	}
	if s := strings.TrimSpace(src.Server.DatabaseURL); s != "" {
		dst.Server.DatabaseURL = s
	}

	if s := strings.TrimSpace(src.Telemetry.EventsURL); s != "" {
		dst.Telemetry.EventsURL = s
	}
	if s := strings.TrimSpace(src.Telemetry.CrashURL); s != "" {
		dst.Telemetry.CrashURL = s
	}

	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
}

func ms(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Millisecond
}

// ReadTimeout returns the server read timeout, falling back to the default.
func (s ServerConfig) ReadTimeout() time.Duration {
	return ms(s.ReadTimeoutMs, Defaults().Server.ReadTimeoutMs)
}

// WriteTimeout returns the server write timeout, falling back to the default.
func (s ServerConfig) WriteTimeout() time.Duration {
	return ms(s.WriteTimeoutMs, Defaults().Server.WriteTimeoutMs)
}

// BodyLimit returns the request body limit in bytes.
func (s ServerConfig) BodyLimit() int {
	if s.BodyLimitMB <= 0 {
		return Defaults().Server.BodyLimitMB << 20
	}
	return s.BodyLimitMB << 20
}

// Service/keys for the OS keyring.
const (
	keyringService = "Floorplan"
	keyringToken   = "telemetry_token"
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = osKeyring{}

// SetTokenStore replaces the keyring backend and returns the previous one.
func SetTokenStore(ts TokenStore) TokenStore {
	old := tokenStore
	tokenStore = ts
	return old
}

// Token returns the stored telemetry token, "" when absent.
func Token() string {
	tok, err := tokenStore.Get(keyringService, keyringToken)
	if err != nil {
		return ""
	}
	return tok
}

// ClearToken removes the telemetry token from the keyring.
func ClearToken() error {
	err := tokenStore.Delete(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// osKeyring stores secrets through github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }
