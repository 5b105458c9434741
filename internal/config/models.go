package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"
)

// BackendConfig is the configuration of the API server.
type BackendConfig struct {
	Server         ServerConfig   `envPrefix:"SERVER_"`
	Port           int            `env:"PORT" envDefault:"8080"`
	TrustProxies   []string       `env:"TRUST_PROXIES"`
	AllowedOrigins []string       `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`
	Database       DatabaseConfig `envPrefix:"DATABASE_"`
	Redis          RedisConfig    `envPrefix:"REDIS_"`
	Auth           AuthConfig     `envPrefix:"AUTH_"`
	Quiz           QuizConfig     `envPrefix:"QUIZ_"`
	GAuth          GAuthConfig    `envPrefix:"GAUTH_"`
	PostHog        PostHogConfig  `envPrefix:"POSTHOG_"`
	OTel           OTelConfig     `envPrefix:"OTEL_"`
}

func (c BackendConfig) Validate() error {
	var result *multierror.Error

	if c.Server.URI == "" {
		result = multierror.Append(result, errors.New("SERVER_URI is required"))
	}
	if c.Port <= 0 {
		result = multierror.Append(result, errors.New("PORT must be positive"))
	}

	for _, validator := range []interface{ Validate() error }{
		c.Server, c.Database, c.Redis, c.Auth, c.Quiz, c.GAuth, c.OTel,
	} {
		if err := validator.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// ExporterConfig is the configuration of the metrics exporter.
type ExporterConfig struct {
	Port     int            `env:"PORT" envDefault:"9090"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	OTel     OTelConfig     `envPrefix:"OTEL_"`
}

func (c ExporterConfig) Validate() error {
	var result *multierror.Error

	if c.Port <= 0 {
		result = multierror.Append(result, errors.New("PORT must be positive"))
	}
	if err := c.Database.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.OTel.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

type ServerConfig struct {
	URI      string  `env:"URI"`
	CertFile *string `env:"CERT_FILE"`
	KeyFile  *string `env:"KEY_FILE"`
}

func (c ServerConfig) Validate() error {
	if (c.CertFile == nil) != (c.KeyFile == nil) {
		return errors.New("SERVER_CERT_FILE and SERVER_KEY_FILE must be set together")
	}

	return nil
}

// GetProto returns the protocol the server listens with.
func (c ServerConfig) GetProto() string {
	if c.CertFile != nil && c.KeyFile != nil {
		return "https"
	}

	return "http"
}

const (
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"
)

type DatabaseConfig struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DSN" envDefault:"file:coursetutor.db?_fk=1&_journal_mode=WAL"`
}

func (c DatabaseConfig) Validate() error {
	if !slices.Contains([]string{DatabaseDriverSQLite, DatabaseDriverPostgres}, c.Driver) {
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DatabaseDriverSQLite, DatabaseDriverPostgres, c.Driver)
	}
	if c.DSN == "" {
		return errors.New("DATABASE_DSN is required")
	}

	return nil
}

type RedisConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

func (c RedisConfig) Validate() error {
	if c.Host == "" {
		return errors.New("REDIS_HOST is required")
	}
	if c.Port == 0 {
		return errors.New("REDIS_PORT is required")
	}

	return nil
}

type AuthConfig struct {
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"8h"`
}

func (c AuthConfig) Validate() error {
	if c.TokenTTL < time.Minute {
		return errors.New("AUTH_TOKEN_TTL must be at least 1m")
	}

	return nil
}

type QuizConfig struct {
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"2h"`
}

func (c QuizConfig) Validate() error {
	if c.SessionTTL < time.Minute {
		return errors.New("QUIZ_SESSION_TTL must be at least 1m")
	}

	return nil
}

// GAuthConfig configures the Google login. It is optional: when
// ClientID is empty, the Google routes are not registered.
type GAuthConfig struct {
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	RedirectURIs []string `env:"REDIRECT_URIS"`
}

func (c GAuthConfig) Enabled() bool {
	return c.ClientID != ""
}

func (c GAuthConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}

	if c.ClientSecret == "" {
		return errors.New("GAUTH_CLIENT_SECRET is required")
	}
	if len(c.RedirectURIs) == 0 {
		return errors.New("GAUTH_REDIRECT_URIS is required")
	}

	return nil
}

type PostHogConfig struct {
	APIKey *string `env:"API_KEY"`
	Host   *string `env:"HOST"`
}

const (
	OTelExporterNone     = "none"
	OTelExporterStdout   = "stdout"
	OTelExporterOTLPHTTP = "otlp-http"
	OTelExporterOTLPGRPC = "otlp-grpc"
)

type OTelConfig struct {
	Exporter    string `env:"EXPORTER" envDefault:"none"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"coursetutor"`
}

func (c OTelConfig) Validate() error {
	switch c.Exporter {
	case OTelExporterNone, OTelExporterStdout, OTelExporterOTLPHTTP, OTelExporterOTLPGRPC:
		return nil
	default:
		return fmt.Errorf("unsupported OTEL_EXPORTER %q", c.Exporter)
	}
}
