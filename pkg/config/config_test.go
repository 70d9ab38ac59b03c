package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/getmemscope/memscope/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Record.Interval.Std() != 30*time.Second {
		t.Errorf("Record.Interval = %v", cfg.Record.Interval.Std())
	}
	if cfg.Report.Title != "Memory Test" {
		t.Errorf("Report.Title = %q", cfg.Report.Title)
	}
	if cfg.Cache.Backend != CacheBackendFile {
		t.Errorf("Cache.Backend = %q", cfg.Cache.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[record]
interval = "5s"

[serve]
addr = ":9999"

[cache]
backend = "none"
ttl = "1h"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Record.Interval.Std() != 5*time.Second {
		t.Errorf("interval = %v, want 5s", cfg.Record.Interval.Std())
	}
	if cfg.Serve.Addr != ":9999" {
		t.Errorf("addr = %q", cfg.Serve.Addr)
	}
	if cfg.Cache.Backend != CacheBackendNone {
		t.Errorf("backend = %q", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL.Std() != time.Hour {
		t.Errorf("ttl = %v", cfg.Cache.TTL.Std())
	}

	// Unset sections keep defaults
	if cfg.Report.Title != "Memory Test" {
		t.Errorf("title = %q, want default", cfg.Report.Title)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[serve]
addr = ":9999"
`)
	t.Setenv("MEMSCOPE_SERVE_ADDR", ":7777")
	t.Setenv("MEMSCOPE_RECORD_INTERVAL", "2s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Serve.Addr != ":7777" {
		t.Errorf("addr = %q, env should override file", cfg.Serve.Addr)
	}
	if cfg.Record.Interval.Std() != 2*time.Second {
		t.Errorf("interval = %v, want 2s", cfg.Record.Interval.Std())
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadInvalidToml(t *testing.T) {
	path := writeConfig(t, "not [valid")
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = "memcached"
	if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("bad backend: error = %v", err)
	}

	cfg = Default()
	cfg.Record.Interval = 0
	if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("zero interval: error = %v", err)
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatalf("UnmarshalText error: %v", err)
	}
	if d.Std() != 90*time.Second {
		t.Errorf("d = %v", d.Std())
	}
	if err := d.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for invalid duration")
	}
}
