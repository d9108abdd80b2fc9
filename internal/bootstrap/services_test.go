package bootstrap

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/target/lab-portal/config"
	"github.com/target/lab-portal/internal/adapters/rolecookie"
	"github.com/target/lab-portal/internal/data"
	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/observability/notify"
)

func TestNewServicesRequiresDeps(t *testing.T) {
	if _, err := NewServices(nil); err == nil {
		t.Fatal("expected error for nil deps")
	}
	if _, err := NewServices(&ServiceDeps{Config: &config.AppConfig{}}); err == nil {
		t.Fatal("expected error without a database")
	}
}

func TestBuildCache(t *testing.T) {
	logger := discardLogger()

	bundle, err := BuildCache(config.CacheConfig{Backend: config.CacheBackendMemory, SweepInterval: -1}, nil, logger)
	if err != nil {
		t.Fatalf("memory cache: %v", err)
	}
	if _, ok := bundle.Repo.(*data.MemoryCacheRepo); !ok {
		t.Fatalf("expected memory cache, got %T", bundle.Repo)
	}
	if err := bundle.Close(); err != nil {
		t.Fatalf("close memory cache: %v", err)
	}

	if _, err := BuildCache(config.CacheConfig{Backend: config.CacheBackendRedis}, nil, logger); err == nil {
		t.Fatal("expected redis backend without a client to fail")
	}
}

func TestBuildCodec(t *testing.T) {
	logger := discardLogger()
	secret := strings.Repeat("k", config.MinActiveRoleSecretLen)

	codec, err := BuildCodec(config.AuthConfig{ActiveRoleSecret: secret}, false, logger)
	if err != nil {
		t.Fatalf("configured secret: %v", err)
	}
	other, err := rolecookie.NewCodec(secret, 0)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	value, err := other.Encode("u1", domainauth.RoleAdmin, time.Now())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if role, err := codec.Decode(value, "u1"); err != nil || role != domainauth.RoleAdmin {
		t.Fatalf("expected codecs sharing a secret to agree, got %q (err=%v)", role, err)
	}

	if _, err := BuildCodec(config.AuthConfig{}, false, logger); err == nil {
		t.Fatal("expected missing secret outside development to fail")
	}
	if _, err := BuildCodec(config.AuthConfig{}, true, logger); err != nil {
		t.Fatalf("expected ephemeral development secret, got %v", err)
	}
}

func TestBuildNotifier(t *testing.T) {
	logger := discardLogger()

	if n := BuildNotifier(&config.AppConfig{}, logger); n != nil {
		t.Fatalf("expected nil notifier without sinks, got %T", n)
	}

	cfg := &config.AppConfig{
		HTTP: config.HTTPConfig{BaseURL: "https://lab.example.com"},
		Mail: config.MailConfig{Host: "smtp.example.com", Port: 587, From: "portal@example.com", To: []string{"staff@example.com"}},
		Observability: config.ObservabilityConfig{
			Notifications: config.ObservabilityNotificationsConfig{
				Enabled: true,
				Slack:   config.SlackNotificationConfig{Enabled: true, WebhookURL: "https://hooks.slack.com/services/test"},
			},
		},
	}
	n := BuildNotifier(cfg, logger)
	fanout, ok := n.(*notify.Fanout)
	if !ok {
		t.Fatalf("expected fan-out notifier, got %T", n)
	}
	if got := strings.Join(fanout.Names(), ","); got != "smtp,slack" {
		t.Fatalf("unexpected sinks %q", got)
	}

	cfg.Observability.Notifications.Slack.Enabled = false
	if _, ok := BuildNotifier(cfg, logger).(*notify.Fanout); ok {
		t.Fatal("expected a single sink to be returned directly")
	}
}

func TestBuildMetricsSinkDisabled(t *testing.T) {
	if sink := BuildMetricsSink(config.ObservabilityMetricsConfig{}, discardLogger()); sink != nil {
		t.Fatalf("expected nil sink when metrics are disabled, got %T", sink)
	}
}

func TestBuildHealthChecksWithoutRedis(t *testing.T) {
	cache := data.NewMemoryCacheRepo(data.MemoryCacheOptions{SweepInterval: -1})
	t.Cleanup(func() { _ = cache.Close() })

	checks := buildHealthChecks(nil, nil, cache)
	names := make([]string, 0, len(checks))
	for _, c := range checks {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "postgres,cache" {
		t.Fatalf("unexpected checks %q", got)
	}
	if err := checks[1].Check(context.Background()); err != nil {
		t.Fatalf("cache health: %v", err)
	}
}

func TestWaitForShutdown(t *testing.T) {
	closed := 0
	svcs := &ServiceContainer{closeCache: func() error { closed++; return nil }}

	t.Run("signal", func(t *testing.T) {
		quit := make(chan os.Signal, 1)
		quit <- os.Interrupt
		err := waitForShutdown(shutdownConfig{quit: quit, services: svcs, logger: discardLogger()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		boom := errors.New("listen failed")
		errCh := make(chan error, 1)
		errCh <- boom
		err := waitForShutdown(shutdownConfig{errCh: errCh, services: svcs, logger: discardLogger()})
		if !errors.Is(err, boom) {
			t.Fatalf("expected server error, got %v", err)
		}
	})

	if closed != 2 {
		t.Fatalf("expected cache closed on every shutdown, got %d", closed)
	}
}
