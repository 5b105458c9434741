package config_test

import (
	"testing"
	"time"

	"github.com/coursetutor/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBackendConfig() config.BackendConfig {
	return config.BackendConfig{
		Server:   config.ServerConfig{URI: "http://localhost:8080"},
		Port:     8080,
		Database: config.DatabaseConfig{Driver: config.DatabaseDriverSQLite, DSN: "file:test.db"},
		Redis:    config.RedisConfig{Host: "localhost", Port: 6379},
		Auth:     config.AuthConfig{TokenTTL: time.Hour},
		Quiz:     config.QuizConfig{SessionTTL: time.Hour},
		OTel:     config.OTelConfig{Exporter: config.OTelExporterNone},
	}
}

func TestBackendConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validBackendConfig().Validate())
	})

	t.Run("collects every error", func(t *testing.T) {
		cfg := validBackendConfig()
		cfg.Server.URI = ""
		cfg.Redis.Host = ""
		cfg.Database.Driver = "mysql"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SERVER_URI is required")
		assert.Contains(t, err.Error(), "REDIS_HOST is required")
		assert.Contains(t, err.Error(), "DATABASE_DRIVER")
	})

	t.Run("gauth is optional", func(t *testing.T) {
		cfg := validBackendConfig()
		cfg.GAuth = config.GAuthConfig{}
		require.NoError(t, cfg.Validate())

		cfg.GAuth.ClientID = "client"
		require.ErrorContains(t, cfg.Validate(), "GAUTH_CLIENT_SECRET is required")
	})

	t.Run("cert and key go together", func(t *testing.T) {
		cfg := validBackendConfig()
		cert := "cert.pem"
		cfg.Server.CertFile = &cert
		require.ErrorContains(t, cfg.Validate(), "SERVER_CERT_FILE")
	})
}

func TestLoadBackendConfig(t *testing.T) {
	t.Setenv("SERVER_URI", "https://tutor.example.com")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("QUIZ_SESSION_TTL", "30m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := config.LoadBackendConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://tutor.example.com", cfg.Server.URI)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, config.DatabaseDriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Quiz.SessionTTL)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "http", cfg.Server.GetProto())
	require.NoError(t, cfg.Validate())
}
