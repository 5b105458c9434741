// Package deps contains the dependencies shared by the backend, the
// exporter and the admin CLI.
package deps

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/config"
	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/store"
	"github.com/joho/godotenv"
	"github.com/posthog/posthog-go"
	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidisotel"
	"go.uber.org/fx"

	_ "github.com/mattn/go-sqlite3"
)

// Config loads the environment variables from the .env file and returns
// the validated backend configuration.
func Config() (config.BackendConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("error loading .env file", "error", err)
	}

	cfg, err := config.LoadBackendConfig()
	if err != nil {
		slog.Error("error creating config", "error", err)
		return config.BackendConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("error validating config", "error", err)
		return config.BackendConfig{}, err
	}

	return cfg, nil
}

// OTelConfig extracts the telemetry configuration.
func OTelConfig(cfg config.BackendConfig) config.OTelConfig {
	return cfg.OTel
}

// DatabaseConfig extracts the database configuration.
func DatabaseConfig(cfg config.BackendConfig) config.DatabaseConfig {
	return cfg.Database
}

// Store opens and migrates the database. It is closed when the app stops.
func Store(lifecycle fx.Lifecycle, cfg config.DatabaseConfig) (*store.Store, error) {
	ctx := context.Background()

	s, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("error opening database", "driver", cfg.Driver, "error", err)
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		slog.Error("error migrating database", "error", err)
		_ = s.Close()
		return nil, err
	}

	lifecycle.Append(fx.StopHook(s.Close))

	return s, nil
}

// NewRedisClient creates a traced rueidis.Client.
func NewRedisClient(cfg config.RedisConfig) (rueidis.Client, error) {
	return rueidisotel.NewClient(rueidis.ClientOption{
		InitAddress: []string{
			net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		},
		Username: cfg.Username,
		Password: cfg.Password,
	})
}

// RedisClient creates the Redis client of the app. It is closed when the
// app stops.
func RedisClient(lifecycle fx.Lifecycle, cfg config.BackendConfig) (rueidis.Client, error) {
	client, err := NewRedisClient(cfg.Redis)
	if err != nil {
		slog.Error("error creating redis client", "error", err)
		return nil, err
	}

	lifecycle.Append(fx.StopHook(client.Close))

	return client, nil
}

// AuthStorage creates an auth.Storage with the configured token lifetime.
func AuthStorage(redisClient rueidis.Client, cfg config.BackendConfig) auth.Storage {
	return auth.NewRedisStorage(redisClient, auth.WithTokenExpire(cfg.Auth.TokenTTL))
}

// PostHog creates a PostHog client, or returns nil when it is not
// configured.
func PostHog(lifecycle fx.Lifecycle, cfg config.BackendConfig) (posthog.Client, error) {
	if cfg.PostHog.APIKey == nil {
		slog.Info("posthog is not configured")
		return nil, nil
	}

	phConfig := posthog.Config{}
	if cfg.PostHog.Host != nil {
		phConfig.Endpoint = *cfg.PostHog.Host
	}

	client, err := posthog.NewWithConfig(*cfg.PostHog.APIKey, phConfig)
	if err != nil {
		return nil, fmt.Errorf("create posthog client: %w", err)
	}

	lifecycle.Append(fx.StopHook(client.Close))

	return client, nil
}

// EventService creates the event service with the points granter and,
// when PostHog is configured, the PostHog reporter.
func EventService(s *store.Store, posthogClient posthog.Client) *events.EventService {
	handlers := []events.EventHandler{events.NewPointsGranter(s, posthogClient)}
	if posthogClient != nil {
		handlers = append(handlers, events.NewPostHogReporter(posthogClient))
	}

	return events.NewEventService(s, handlers...)
}

var FxCommonModule = fx.Module("common",
	fx.Provide(Config),
	fx.Provide(OTelConfig),
	fx.Provide(DatabaseConfig),
	fx.Provide(Store),
	fx.Provide(RedisClient),
	fx.Provide(AuthStorage),
	fx.Provide(PostHog),
	fx.Provide(EventService),
	fx.Invoke(OTelSDK),
)
