package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopeworks/smile/pkg/observability"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequiredEnv(t *testing.T) {
	t.Setenv("SMILE_POSTGRES_URL", "postgres://localhost/smile?sslmode=disable")
	t.Setenv("SMILE_JWT_SECRET", testSecret)
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "filesystem", cfg.Media.Type)
	assert.Equal(t, 90*24*time.Hour, cfg.Audit.Retention)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.False(t, cfg.Production)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMILE_PORT", "8888")
	t.Setenv("SMILE_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("SMILE_LOG_LEVEL", "debug")
	t.Setenv("SMILE_PRODUCTION", "true")
	t.Setenv("SMILE_LOGIN_RATE_LIMIT", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8888", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Production)
	assert.Equal(t, 3, cfg.Redis.LoginRateLimit)
}

func TestLoadConfigFromFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9999"
media:
  type: s3
  s3_bucket: smile-media
`), 0o600))
	t.Setenv("SMILE_CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "s3", cfg.Media.Type)
	assert.Equal(t, "smile-media", cfg.Media.S3Bucket)
}

func TestEnvBeatsFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9999\"\n"), 0o600))
	t.Setenv("SMILE_CONFIG_FILE", path)
	t.Setenv("SMILE_PORT", "7777")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "7777", cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:    "missing postgres URL",
			mutate:  func(cfg *Config) { cfg.Database.URL = "" },
			wantErr: "postgres URL",
		},
		{
			name:    "missing jwt secret",
			mutate:  func(cfg *Config) { cfg.Auth.JWTSecret = "" },
			wantErr: "JWT secret",
		},
		{
			name:    "short jwt secret",
			mutate:  func(cfg *Config) { cfg.Auth.JWTSecret = "too-short" },
			wantErr: "at least 32 bytes",
		},
		{
			name: "health port collides with server port",
			mutate: func(cfg *Config) {
				cfg.Server.HealthPort = cfg.Server.Port
			},
			wantErr: "must be different",
		},
		{
			name:    "unknown media type",
			mutate:  func(cfg *Config) { cfg.Media.Type = "ftp" },
			wantErr: "invalid media storage type",
		},
		{
			name: "s3 media without bucket",
			mutate: func(cfg *Config) {
				cfg.Media.Type = "s3"
				cfg.Media.S3Bucket = ""
			},
			wantErr: "S3 bucket",
		},
		{
			name: "otel enabled without endpoint",
			mutate: func(cfg *Config) {
				cfg.Observability.OTelEnabled = true
				cfg.Observability.OTelEndpoint = ""
			},
			wantErr: "OpenTelemetry endpoint",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaults()
			cfg.Database.URL = "postgres://localhost/smile"
			cfg.Auth.JWTSecret = testSecret
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
