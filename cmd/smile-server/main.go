package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hopeworks/smile/pkg/api"
	"github.com/hopeworks/smile/pkg/audit"
	"github.com/hopeworks/smile/pkg/auth"
	"github.com/hopeworks/smile/pkg/config"
	"github.com/hopeworks/smile/pkg/identity"
	"github.com/hopeworks/smile/pkg/media"
	"github.com/hopeworks/smile/pkg/middleware"
	"github.com/hopeworks/smile/pkg/observability"
	"github.com/hopeworks/smile/pkg/records"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("Starting smile-server")

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx := context.Background()

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("Connected to PostgreSQL")

	if err := records.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Database migrations applied")

	redisClient, err := openRedis(ctx, cfg, logger)
	if err != nil {
		return err
	}

	mediaStore, err := buildMediaStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize media storage: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	identityStore := identity.NewStore(db)
	directory := identity.NewCachedDirectory(identityStore, cfg.Auth.GroupCacheTTL)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	auditLogger := audit.NewDBLogger(db)

	var loginLimiter *middleware.LoginRateLimiter
	if redisClient != nil {
		loginLimiter = middleware.NewLoginRateLimiter(redisClient, logger,
			cfg.Redis.LoginRateLimit, cfg.Redis.LoginRateLimitWindow)
	}

	server := api.NewServer(api.Deps{
		Logger:       logger,
		Issuer:       issuer,
		Identity:     identityStore,
		Directory:    directory,
		Records:      records.NewStore(db),
		Media:        mediaStore,
		Audit:        auditLogger,
		Metrics:      metrics,
		LoginLimiter: loginLimiter,
		CORSOrigins:  cfg.Server.CORSAllowedOrigins,
		Production:   cfg.Production,
	})

	scheduler := startScheduler(cfg, logger, db, auditLogger, metrics)

	healthServer := startHealthServer(cfg, logger, db, redisClient, metrics)

	var handler http.Handler = server
	if otelProviders != nil {
		handler = otelhttp.NewHandler(handler, "smile-api")
	}

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdownMgr := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdownMgr.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdownMgr.RegisterShutdownFunc(func(ctx context.Context) error {
		stopped := scheduler.Stop()
		select {
		case <-stopped.Done():
			return nil
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for scheduled jobs to finish")
		}
	})
	shutdownMgr.RegisterShutdownFunc(func(ctx context.Context) error {
		return db.Close()
	})
	if redisClient != nil {
		shutdownMgr.RegisterShutdownFunc(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}
	if otelProviders != nil {
		shutdownMgr.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}

	go func() {
		logger.Infof("API server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	return shutdownMgr.WaitForShutdown()
}

// openDatabase opens the PostgreSQL pool and verifies connectivity.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// openRedis connects to Redis when configured. The login rate limiter
// fails open, so an unreachable Redis degrades the server rather than
// stopping it.
func openRedis(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*redis.Client, error) {
	if cfg.Redis.URL == "" {
		logger.Info("Redis not configured, login rate limiting disabled")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, login rate limiting will fail open")
	}
	return client, nil
}

// buildMediaStore builds the configured photo storage backend.
func buildMediaStore(ctx context.Context, cfg *config.Config, logger *observability.Logger) (media.Store, error) {
	switch cfg.Media.Type {
	case "s3":
		logger.Infof("Using S3 media storage (bucket %s)", cfg.Media.S3Bucket)
		return media.NewS3Store(ctx, media.S3Config{
			Endpoint:     cfg.Media.S3Endpoint,
			Region:       cfg.Media.S3Region,
			Bucket:       cfg.Media.S3Bucket,
			AccessKey:    cfg.Media.S3AccessKey,
			SecretKey:    cfg.Media.S3SecretKey,
			UsePathStyle: cfg.Media.S3UsePathStyle,
		})
	default:
		logger.Infof("Using filesystem media storage at %s", cfg.Media.FilesystemRoot)
		return media.NewFilesystemStore(cfg.Media.FilesystemRoot)
	}
}

// startScheduler starts the background jobs: audit log retention and
// connection pool gauge collection.
func startScheduler(cfg *config.Config, logger *observability.Logger, db *sql.DB,
	auditLogger *audit.DBLogger, metrics *observability.Metrics) *cron.Cron {

	scheduler := cron.New()

	if cfg.Audit.Retention > 0 {
		retention := cfg.Audit.Retention
		scheduler.AddFunc("@daily", func() {
			defer observability.RecoverPanic(logger, "audit cleanup job")

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			deleted, err := auditLogger.CleanupBefore(ctx, time.Now().Add(-retention))
			if err != nil {
				logger.WithError(err).Error("Audit log cleanup failed")
				return
			}
			if deleted > 0 {
				logger.Infof("Audit log cleanup removed %d entries", deleted)
			}
		})
	}

	if metrics != nil {
		scheduler.AddFunc("@every 30s", func() {
			metrics.CollectDBStats(db)
		})
	}

	scheduler.Start()
	return scheduler
}

// startHealthServer serves liveness, readiness and metrics on a
// separate port so probes bypass the API middleware stack.
func startHealthServer(cfg *config.Config, logger *observability.Logger, db *sql.DB,
	redisClient *redis.Client, metrics *observability.Metrics) *http.Server {

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient))
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort)
	healthServer := &http.Server{
		Addr:        addr,
		Handler:     healthMux,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infof("Health server listening on %s", addr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Health server failed")
		}
	}()

	return healthServer
}
