// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olegiv/wpautoblog/internal/ai"
	"github.com/olegiv/wpautoblog/internal/auth"
	"github.com/olegiv/wpautoblog/internal/config"
	"github.com/olegiv/wpautoblog/internal/content"
	"github.com/olegiv/wpautoblog/internal/entitlement"
	"github.com/olegiv/wpautoblog/internal/handler"
	"github.com/olegiv/wpautoblog/internal/handler/api"
	"github.com/olegiv/wpautoblog/internal/lock"
	"github.com/olegiv/wpautoblog/internal/logging"
	"github.com/olegiv/wpautoblog/internal/middleware"
	"github.com/olegiv/wpautoblog/internal/publisher"
	"github.com/olegiv/wpautoblog/internal/schedule"
	"github.com/olegiv/wpautoblog/internal/scheduler"
	"github.com/olegiv/wpautoblog/internal/service"
	"github.com/olegiv/wpautoblog/internal/store"
	"github.com/olegiv/wpautoblog/internal/version"
	"github.com/olegiv/wpautoblog/internal/webhook"
	"github.com/olegiv/wpautoblog/internal/wordpress"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

const (
	shutdownTimeout = 30 * time.Second
	healthTimeout   = 10 * time.Second

	// per-client limits for the admin API
	apiRatePerSecond = 10
	apiBurst         = 20
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "autoblog - scheduled AI posting for WordPress sites\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AUTOBLOG_SECRET_KEY        Key for sealing WordPress passwords (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AUTOBLOG_DB_PATH           SQLite database path (default: ./data/autoblog.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AUTOBLOG_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AUTOBLOG_ADMIN_TOKEN       Bearer token for /api/v1 (API disabled when empty)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AUTOBLOG_AI_PROVIDER       Text provider: groq|openai|claude|ollama (default: groq)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AUTOBLOG_AI_API_KEY        Text provider API key\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AUTOBLOG_OPENAI_API_KEY    Enables featured images (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AUTOBLOG_REDIS_URL         Redis URL for cluster-wide job leases (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("autoblog %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(newConsoleHandler(logLevel))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// WARN and above also land in the event log
	logger = slog.New(logging.NewEventLogHandler(newConsoleHandler(logLevel), db))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
		slog.Info("seed data applied")
	}

	// Demo owner and blog, only when AUTOBLOG_DEMO_MODE=true
	if err := store.SeedDemo(ctx, db); err != nil {
		return fmt.Errorf("seeding demo content: %w", err)
	}

	sealer, err := auth.NewSealer(cfg.SecretKey)
	if err != nil {
		return fmt.Errorf("creating credential sealer: %w", err)
	}

	locker, err := lock.New(lock.Config{RedisURL: cfg.RedisURL, Prefix: cfg.LockPrefix})
	if err != nil {
		return fmt.Errorf("creating job locker: %w", err)
	}
	defer func() {
		if err := locker.Close(); err != nil {
			slog.Error("error closing job locker", "error", err)
		}
	}()
	slog.Info("job locker ready", "redis", cfg.UseRedis())

	aiClient, err := ai.New(ai.Config{
		Provider:         cfg.AIProvider,
		APIKey:           cfg.AIAPIKey,
		BaseURL:          cfg.AIBaseURL,
		Model:            cfg.AIModel,
		QuickModel:       cfg.AIQuickModel,
		Timeout:          cfg.AITimeout,
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		ImageModel:       cfg.ImageModel,
		ImagePromptModel: cfg.ImagePromptModel,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating AI client: %w", err)
	}
	if !aiClient.Configured() {
		slog.Warn("AI provider has no API key; generation will fail until one is set", "provider", aiClient.Provider())
	}
	slog.Info("AI client ready", "provider", aiClient.Provider(), "images", aiClient.ImagesEnabled())

	wp := wordpress.New(wordpress.Options{
		Timeout:       cfg.WPTimeout,
		RatePerSecond: cfg.WPRate,
		Burst:         cfg.WPBurst,
		AllowPrivate:  cfg.AllowPrivateSites,
	}, logger)

	resolver := entitlement.NewStoreResolver(db)

	deps := publisher.Deps{
		Writer:       aiClient,
		Target:       wp,
		Credentials:  sealer,
		Entitlements: resolver,
	}
	if aiClient.ImagesEnabled() {
		deps.Images = aiClient
	}

	var dispatcher *webhook.Dispatcher
	if cfg.NotificationsEnabled() {
		dispatcher = webhook.NewDispatcher(webhook.Config{
			URL:    cfg.NotifyURL,
			Secret: cfg.NotifySecret,
		}, logger)
		dispatcher.Start(ctx)
		deps.Notifier = dispatcher
		slog.Info("outbound notifications enabled")
	}

	orchestrator := publisher.NewOrchestrator(db, deps, publisher.Config{
		MaxAttempts:     cfg.PublishMaxAttempts,
		InitialBackoff:  cfg.PublishInitialBackoff,
		MaxBackoff:      cfg.PublishMaxBackoff,
		StaleClaimAfter: cfg.StaleClaimAfter,
		CreditsPerPost:  cfg.CreditsPerPost,
		FreePosting:     cfg.FreePosting,
		DefaultTimezone: cfg.DefaultTimezone,
	}, logger)

	evaluator := schedule.NewEvaluator(db, schedule.Config{
		DefaultTimezone:     cfg.DefaultTimezone,
		DefaultScheduleTime: cfg.DefaultScheduleTime,
		Tolerance:           cfg.SlotTolerance,
	}, logger)

	eventService := service.NewEventService(db)

	registry := scheduler.NewRegistry(db, logger)
	driver := scheduler.NewDriver(registry, locker, logger)
	if err := scheduler.RegisterPublisherJobs(driver, evaluator, orchestrator, eventService, scheduler.PublisherConfig{
		EvaluateSchedule: cfg.EvaluateSchedule,
		ProcessSchedule:  cfg.ProcessSchedule,
		RetrySchedule:    cfg.RetrySchedule,
		CleanupSchedule:  cfg.CleanupSchedule,
		ProcessBatch:     cfg.ProcessBatch,
		EventRetention:   cfg.EventRetention,
	}); err != nil {
		return fmt.Errorf("registering jobs: %w", err)
	}
	driver.Start()

	apiHandler := api.NewHandler(api.Deps{
		DB:       db,
		Sealer:   sealer,
		Content:  content.NewService(db, aiClient, logger),
		Sites:    wp,
		Jobs:     registry,
		Events:   eventService,
		Resolver: resolver,
		Logger:   logger,
		Defaults: api.BlogDefaults{
			ScheduleTime: cfg.DefaultScheduleTime,
		},
		Validator: func(ctx context.Context, raw string) (string, error) {
			return wordpress.ValidateSiteURL(ctx, raw, cfg.AllowPrivateSites)
		},
	})
	healthHandler := handler.NewHealthHandler(db, cfg.DBPath, cfg.AdminToken, versionInfo.Version)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead) // HEAD for uptime monitoring
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.NewRateLimiter(apiRatePerSecond, apiBurst).Middleware())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(healthTimeout))
		r.Get("/health", healthHandler.Health)
		r.Get("/health/live", healthHandler.Liveness)
		r.Get("/health/ready", healthHandler.Readiness)
		r.Handle("/metrics", promhttp.Handler())
	})

	r.Mount("/api/v1", apiHandler.Routes(cfg.AdminToken))

	if cfg.AdminToken == "" {
		slog.Warn("AUTOBLOG_ADMIN_TOKEN is empty; /api/v1 is disabled")
	}

	// WriteTimeout stays unset: manual job runs hold the response open, and
	// every other route carries its own timeout middleware.
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env,
			"version", versionInfo.Version, "commit", versionInfo.GitCommit)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		slog.Error("server error", "error", err)
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	driver.Stop(shutdownCtx)
	if dispatcher != nil {
		dispatcher.Stop()
	}

	slog.Info("server stopped")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newConsoleHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
}
