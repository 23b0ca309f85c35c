package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestDefaults(t *testing.T) {
	l := New(t.TempDir())
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server != "http://localhost:8000" {
		t.Fatalf("expected default server, got %q", cfg.Server)
	}
	if cfg.Refresh.Data != 120*time.Second || cfg.Refresh.Projects != 600*time.Second || cfg.Refresh.Clock != time.Second {
		t.Fatalf("unexpected refresh defaults %+v", cfg.Refresh)
	}
	if cfg.Backoff.Attempts != 5 || cfg.Backoff.Max != 30*time.Second || cfg.Backoff.Initial != time.Second {
		t.Fatalf("unexpected backoff defaults %+v", cfg.Backoff)
	}
	if cfg.File != "" {
		t.Fatalf("expected no config file, got %q", cfg.File)
	}
	if filepath.Base(cfg.Cache) != "cache" || cfg.Cache[0] == '~' {
		t.Fatalf("expected expanded cache path, got %q", cfg.Cache)
	}
}

func TestFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := "server: http://tracker.local:9000/\nrefresh:\n  data: 30s\nnotify:\n  max_attempts: 3\n"
	if err := os.WriteFile(filepath.Join(dir, ".zeit.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ZEIT_REFRESH_PROJECTS", "1m")

	cfg, err := New(dir).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server != "http://tracker.local:9000" {
		t.Fatalf("expected server from file without trailing slash, got %q", cfg.Server)
	}
	if cfg.Refresh.Data != 30*time.Second {
		t.Fatalf("expected data interval from file, got %v", cfg.Refresh.Data)
	}
	if cfg.Refresh.Projects != time.Minute {
		t.Fatalf("expected projects interval from env, got %v", cfg.Refresh.Projects)
	}
	if cfg.Backoff.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Backoff.Attempts)
	}
	if cfg.File == "" {
		t.Fatalf("expected config file to be reported")
	}
}

func TestFlagOverridesEnv(t *testing.T) {
	t.Setenv("ZEIT_SERVER", "http://from-env:8000")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("server", "", "")
	if err := fs.Parse([]string{"--server", "http://from-flag:8000"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	l := New(t.TempDir())
	if err := l.BindFlag(KeyServer, fs.Lookup("server")); err != nil {
		t.Fatalf("bind: %v", err)
	}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server != "http://from-flag:8000" {
		t.Fatalf("expected flag to win, got %q", cfg.Server)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("ZEIT_REFRESH_CLOCK", "0s")
	cfg, err := New(t.TempDir()).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Refresh.Clock != time.Second {
		t.Fatalf("expected fallback clock interval, got %v", cfg.Refresh.Clock)
	}
}
