package bootstrap

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&buf, "warn", "")
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("unexpected json output %q", out)
	}

	buf.Reset()
	logger = newLogger(&buf, "bogus", "TEXT")
	if !logger.Enabled(context.Background(), slog.LevelInfo) || logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected invalid level to fall back to info")
	}
	logger.Info("plain")
	if out := buf.String(); !strings.Contains(out, "msg=plain") {
		t.Fatalf("unexpected text output %q", out)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DEV", "")
	t.Setenv("NODE_ENV", "")
	t.Setenv("CACHE_BACKEND", "REDIS")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.IsDev {
		t.Fatal("expected production mode by default")
	}
	if !cfg.HTTP.SecureCookies {
		t.Fatal("expected secure cookies outside development")
	}
	if cfg.Cache.Backend != "redis" {
		t.Fatalf("expected normalized cache backend, got %q", cfg.Cache.Backend)
	}
	if cfg.Observability.Metrics.Tags["service"] != "lab-portal" {
		t.Fatalf("expected default metrics tags, got %v", cfg.Observability.Metrics.Tags)
	}
}
