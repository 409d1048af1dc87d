package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hopeworks/smile/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Redis         RedisConfig         `yaml:"redis"`
	Media         MediaConfig         `yaml:"media"`
	Observability ObservabilityConfig `yaml:"observability"`
	Audit         AuditConfig         `yaml:"audit"`

	// Production disables development-only behavior such as serving
	// media files from the API process.
	Production bool `yaml:"production"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// AuthConfig holds token issuing configuration
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
	GroupCacheTTL   time.Duration `yaml:"group_cache_ttl"`
}

// RedisConfig holds optional Redis configuration (login rate limiting)
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	LoginRateLimit       int           `yaml:"login_rate_limit"`
	LoginRateLimitWindow time.Duration `yaml:"login_rate_limit_window"`
}

// MediaConfig holds child photo storage configuration
type MediaConfig struct {
	// Type is "filesystem" or "s3"
	Type           string `yaml:"type"`
	FilesystemRoot string `yaml:"filesystem_root"`

	S3Endpoint     string `yaml:"s3_endpoint"`
	S3Region       string `yaml:"s3_region"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	S3UsePathStyle bool   `yaml:"s3_use_path_style"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel `yaml:"-"`
	LogLevelName   string                 `yaml:"log_level"`
	MetricsEnabled bool                   `yaml:"metrics_enabled"`

	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// AuditConfig holds audit log settings
type AuditConfig struct {
	Retention time.Duration `yaml:"retention"`
}

// LoadConfig loads configuration from an optional YAML file
// (SMILE_CONFIG_FILE) with environment variables taking precedence.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("SMILE_CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	cfg.Observability.LogLevel = parseLogLevel(cfg.Observability.LogLevelName)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               "8080",
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       15 * time.Second,
			IdleTimeout:        60 * time.Second,
			ShutdownTimeout:    30 * time.Second,
			HealthPort:         "9090",
			CORSAllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Auth: AuthConfig{
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			BcryptCost:      12,
			GroupCacheTTL:   30 * time.Second,
		},
		Redis: RedisConfig{
			LoginRateLimit:       10,
			LoginRateLimitWindow: time.Minute,
		},
		Media: MediaConfig{
			Type:           "filesystem",
			FilesystemRoot: "/var/lib/smile/media",
			S3Region:       "us-east-1",
		},
		Observability: ObservabilityConfig{
			LogLevelName:       "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "smile-server",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
		Audit: AuditConfig{
			Retention: 90 * 24 * time.Hour,
		},
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("SMILE_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("SMILE_PORT", cfg.Server.Port)
	cfg.Server.HealthPort = getEnv("SMILE_HEALTH_PORT", cfg.Server.HealthPort)
	cfg.Server.ReadTimeout = getEnvDuration("SMILE_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("SMILE_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvDuration("SMILE_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("SMILE_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	if origins := getEnv("SMILE_CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.Server.CORSAllowedOrigins = strings.Split(origins, ",")
	}

	cfg.Database.URL = getEnv("SMILE_POSTGRES_URL", cfg.Database.URL)
	cfg.Database.MaxOpenConns = getEnvInt("SMILE_POSTGRES_MAX_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("SMILE_POSTGRES_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetime = getEnvDuration("SMILE_POSTGRES_CONN_LIFETIME", cfg.Database.ConnMaxLifetime)

	cfg.Auth.JWTSecret = getEnv("SMILE_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.AccessTokenTTL = getEnvDuration("SMILE_ACCESS_TOKEN_TTL", cfg.Auth.AccessTokenTTL)
	cfg.Auth.RefreshTokenTTL = getEnvDuration("SMILE_REFRESH_TOKEN_TTL", cfg.Auth.RefreshTokenTTL)
	cfg.Auth.BcryptCost = getEnvInt("SMILE_BCRYPT_COST", cfg.Auth.BcryptCost)
	cfg.Auth.GroupCacheTTL = getEnvDuration("SMILE_GROUP_CACHE_TTL", cfg.Auth.GroupCacheTTL)

	cfg.Redis.URL = getEnv("SMILE_REDIS_URL", cfg.Redis.URL)
	cfg.Redis.Password = getEnv("SMILE_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("SMILE_REDIS_DB", cfg.Redis.DB)
	cfg.Redis.LoginRateLimit = getEnvInt("SMILE_LOGIN_RATE_LIMIT", cfg.Redis.LoginRateLimit)
	cfg.Redis.LoginRateLimitWindow = getEnvDuration("SMILE_LOGIN_RATE_LIMIT_WINDOW", cfg.Redis.LoginRateLimitWindow)

	cfg.Media.Type = getEnv("SMILE_MEDIA_TYPE", cfg.Media.Type)
	cfg.Media.FilesystemRoot = getEnv("SMILE_MEDIA_ROOT", cfg.Media.FilesystemRoot)
	cfg.Media.S3Endpoint = getEnv("SMILE_S3_ENDPOINT", cfg.Media.S3Endpoint)
	cfg.Media.S3Region = getEnv("SMILE_S3_REGION", cfg.Media.S3Region)
	cfg.Media.S3Bucket = getEnv("SMILE_S3_BUCKET", cfg.Media.S3Bucket)
	cfg.Media.S3AccessKey = getEnv("SMILE_S3_ACCESS_KEY", cfg.Media.S3AccessKey)
	cfg.Media.S3SecretKey = getEnv("SMILE_S3_SECRET_KEY", cfg.Media.S3SecretKey)
	cfg.Media.S3UsePathStyle = getEnvBool("SMILE_S3_USE_PATH_STYLE", cfg.Media.S3UsePathStyle)

	cfg.Observability.LogLevelName = getEnv("SMILE_LOG_LEVEL", cfg.Observability.LogLevelName)
	cfg.Observability.MetricsEnabled = getEnvBool("SMILE_METRICS_ENABLED", cfg.Observability.MetricsEnabled)
	cfg.Observability.OTelEnabled = getEnvBool("SMILE_OTEL_ENABLED", cfg.Observability.OTelEnabled)
	cfg.Observability.OTelEndpoint = getEnv("SMILE_OTEL_ENDPOINT", cfg.Observability.OTelEndpoint)
	cfg.Observability.OTelServiceName = getEnv("SMILE_OTEL_SERVICE_NAME", cfg.Observability.OTelServiceName)
	cfg.Observability.OTelServiceVersion = getEnv("SMILE_OTEL_SERVICE_VERSION", cfg.Observability.OTelServiceVersion)
	cfg.Observability.OTelInsecure = getEnvBool("SMILE_OTEL_INSECURE", cfg.Observability.OTelInsecure)

	cfg.Audit.Retention = getEnvDuration("SMILE_AUDIT_RETENTION", cfg.Audit.Retention)

	cfg.Production = getEnvBool("SMILE_PRODUCTION", cfg.Production)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 bytes")
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}

	switch c.Media.Type {
	case "filesystem":
		if c.Media.FilesystemRoot == "" {
			return fmt.Errorf("media root is required for filesystem media storage")
		}
	case "s3":
		if c.Media.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 media storage")
		}
	default:
		return fmt.Errorf("invalid media storage type: %s (must be filesystem or s3)", c.Media.Type)
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
