package bootstrap

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/lab-portal/config"
	"github.com/target/lab-portal/internal/adapters/mailer"
	"github.com/target/lab-portal/internal/adapters/media"
	"github.com/target/lab-portal/internal/adapters/rolecookie"
	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/data"
	"github.com/target/lab-portal/internal/observability/notify"
	"github.com/target/lab-portal/internal/observability/notify/slack"
	"github.com/target/lab-portal/internal/observability/statsd"
	"github.com/target/lab-portal/internal/ports"
)

// CacheBundle is the configured ephemeral cache plus its shutdown hook.
type CacheBundle struct {
	Repo  core.CacheRepository
	Close func() error
}

// BuildCache selects the cache backend. The memory backend owns a sweeper
// goroutine that Close stops; the Redis backend shares the caller's client.
func BuildCache(cfg config.CacheConfig, client redis.UniversalClient, logger *slog.Logger) (CacheBundle, error) {
	switch cfg.Backend {
	case config.CacheBackendRedis:
		if client == nil {
			return CacheBundle{}, errors.New("redis cache backend requires a redis client")
		}
		logger.Info("ephemeral cache configured", "backend", "redis", "prefix", cfg.KeyPrefix)
		return CacheBundle{
			Repo:  data.NewRedisCacheRepoWithPrefix(client, cfg.KeyPrefix),
			Close: func() error { return nil },
		}, nil
	default:
		repo := data.NewMemoryCacheRepo(data.MemoryCacheOptions{SweepInterval: cfg.SweepInterval})
		logger.Info("ephemeral cache configured", "backend", "memory", "sweep_interval", cfg.SweepInterval)
		return CacheBundle{Repo: repo, Close: repo.Close}, nil
	}
}

// BuildCodec creates the active role cookie codec. Development runs without a
// configured secret get a random one, so cookies do not survive a restart.
func BuildCodec(cfg config.AuthConfig, isDev bool, logger *slog.Logger) (*rolecookie.Codec, error) {
	secret := cfg.ActiveRoleSecret
	if secret == "" {
		if !isDev {
			return nil, errors.New("ACTIVE_ROLE_SECRET is required")
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate active role secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		logger.Warn("ACTIVE_ROLE_SECRET not set; using an ephemeral development secret")
	}
	codec, err := rolecookie.NewCodec(secret, rolecookie.DefaultMaxAge)
	if err != nil {
		return nil, fmt.Errorf("active role codec: %w", err)
	}
	return codec, nil
}

// BuildMediaUploader returns nil when no media host is configured; image
// uploads then fail with a clear error while everything else keeps working.
//
//nolint:ireturn // callers only need the port.
func BuildMediaUploader(cfg config.MediaConfig, logger *slog.Logger) ports.MediaUploader {
	if !cfg.Enabled() {
		logger.Warn("CLOUDINARY_URL not set; image uploads disabled")
		return nil
	}
	up, err := media.NewCloudinaryUploader(cfg.CloudinaryURL, cfg.RootFolder)
	if err != nil {
		logger.Error("failed to initialise media uploader; image uploads disabled", "error", err)
		return nil
	}
	return up
}

// BuildNotifier wires staff notification sinks (SMTP and Slack). It returns
// nil when none are configured.
//
//nolint:ireturn // callers only need the port.
func BuildNotifier(cfg *config.AppConfig, logger *slog.Logger) ports.Notifier {
	var sinks []notify.SinkRegistration

	if cfg.Mail.Enabled() {
		n, err := mailer.NewSMTPNotifier(mailer.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			FromName: cfg.Mail.FromName,
			To:       cfg.Mail.To,
			Timeout:  cfg.Mail.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialise smtp notifier", "error", err)
		} else {
			sinks = append(sinks, notify.SinkRegistration{Name: "smtp", Sink: n})
		}
	}

	notifications := cfg.Observability.Notifications
	if notifications.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: notifications.Slack.WebhookURL,
			Channel:    notifications.Slack.Channel,
			Username:   notifications.Slack.Username,
			Timeout:    notifications.Timeout,
			RetryLimit: notifications.RetryLimit,
			AdminURL:   cfg.HTTP.BaseURL + "/admin",
		})
		if err != nil {
			logger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, notify.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	switch len(sinks) {
	case 0:
		logger.Info("no staff notifiers configured; contact messages are stored only")
		return nil
	case 1:
		return sinks[0].Sink
	default:
		return notify.NewFanout(notify.Options{
			Logger: logger.With("component", "staff_notifier"),
			Sinks:  sinks,
		})
	}
}

// BuildMetricsSink returns nil unless StatsD is enabled. A nil interface is
// returned on failure rather than a typed nil client.
//
//nolint:ireturn // metrics helpers accept the Sink interface.
func BuildMetricsSink(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) statsd.Sink {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled:    true,
		Address:    cfg.StatsdAddress,
		Prefix:     cfg.Prefix,
		GlobalTags: cfg.Tags,
		Logger:     logger.With("component", "statsd"),
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}
