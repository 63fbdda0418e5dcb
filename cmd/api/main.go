// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/carterperez-dev/lifelessons-api/internal/admin"
	"github.com/carterperez-dev/lifelessons-api/internal/auth"
	"github.com/carterperez-dev/lifelessons-api/internal/config"
	"github.com/carterperez-dev/lifelessons-api/internal/core"
	"github.com/carterperez-dev/lifelessons-api/internal/health"
	"github.com/carterperez-dev/lifelessons-api/internal/lesson"
	"github.com/carterperez-dev/lifelessons-api/internal/middleware"
	"github.com/carterperez-dev/lifelessons-api/internal/migrations"
	"github.com/carterperez-dev/lifelessons-api/internal/payment"
	"github.com/carterperez-dev/lifelessons-api/internal/server"
	"github.com/carterperez-dev/lifelessons-api/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"identity_provider", cfg.Identity.Provider,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	var (
		verifier    middleware.IdentityVerifier
		localIssuer *auth.LocalIssuer
	)

	switch cfg.Identity.Provider {
	case config.IdentityProviderLocal:
		localIssuer, err = auth.NewLocalIssuer(cfg.Identity)
		if err != nil {
			return err
		}
		verifier = localIssuer.Verifier()
		logger.Warn("local identity issuer enabled",
			"algorithm", "ES256",
			"key_id", localIssuer.KeyID(),
		)
	default:
		verifier = auth.NewVerifier(
			auth.NewRemoteKeySource(cfg.Identity.JWKSURL, cfg.Identity.KeyRefresh),
			cfg.Identity.Issuer,
			cfg.Identity.Audience,
		)
		logger.Info("identity verifier initialized",
			"issuer", cfg.Identity.Issuer,
			"jwks_url", cfg.Identity.JWKSURL,
		)
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	lessonRepo := lesson.NewRepository(db.DB)
	lessonSvc := lesson.NewService(lessonRepo, userSvc)
	lessonHandler := lesson.NewHandler(lessonSvc)

	paymentSvc := payment.NewService(
		payment.NewStripeProcessor(cfg.Payment.StripeSecretKey, cfg.Payment.WebhookSecret),
		userSvc,
		payment.NewRedisLedger(redis.Client, cfg.Payment.EventTTL),
		cfg.Payment.ClientURL,
		logger.With("component", "payment"),
	)
	paymentHandler := payment.NewHandler(paymentSvc)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Users:      userSvc.Count,
		Lessons:    lessonSvc.Count,
		Reports:    lessonSvc.CountReports,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	paymentHandler.RegisterWebhook(router)

	authenticator := middleware.Authenticator(verifier)
	optionalAuth := middleware.OptionalAuth(verifier)
	adminOnly := middleware.RequireElevated(userSvc)

	var authHandler *auth.Handler
	if localIssuer != nil && !cfg.IsProduction() {
		authHandler = auth.NewHandler(localIssuer)
		authHandler.RegisterJWKS(router)
	}

	router.Route("/api", func(r chi.Router) {
		if authHandler != nil {
			authHandler.RegisterRoutes(r)
		}

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		lessonHandler.RegisterRoutes(r, authenticator, optionalAuth)
		lessonHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		paymentHandler.RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
