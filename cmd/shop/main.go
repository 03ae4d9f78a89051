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

	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-shop/internal/auth"
	"github.com/olegiv/ocms-shop/internal/cache"
	"github.com/olegiv/ocms-shop/internal/config"
	"github.com/olegiv/ocms-shop/internal/handler/api"
	"github.com/olegiv/ocms-shop/internal/logging"
	"github.com/olegiv/ocms-shop/internal/metrics"
	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/scheduler"
	"github.com/olegiv/ocms-shop/internal/service"
	"github.com/olegiv/ocms-shop/internal/session"
	"github.com/olegiv/ocms-shop/internal/storage"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/transfer"
	"github.com/olegiv/ocms-shop/internal/version"
	"github.com/olegiv/ocms-shop/internal/webhook"
)

// rateLimitEntries bounds the per-IP limiter table between prunes.
const rateLimitEntries = 10000

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "shop - storefront and admin API server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOP_JWT_SECRET        Token signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOP_DB_PATH           SQLite database path (default: ./data/shop.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOP_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOP_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOP_ADMIN_EMAIL       Bootstrap admin email (first start only)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOP_ADMIN_PASSWORD    Bootstrap admin password (first start only)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOP_REDIS_URL         Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SHOP_WEBHOOK_URL       Order webhook endpoint (optional)\n")
	}
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("shop %s\n", version.Get())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := logging.ParseLevel(cfg.LogLevel)
	logger := logging.New(os.Stdout, level)
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

	ctx := context.Background()
	slog.Info("running database migrations")
	schemaVersion, err := store.Migrate(ctx, db)
	if err != nil {
		return err
	}
	slog.Info("database ready", "schema_version", schemaVersion)

	// Warnings and errors also go to the event log from here on.
	logger = logging.WithEventLog(os.Stdout, level, db)
	slog.SetDefault(logger)

	if err := store.Seed(ctx, db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}
	if cfg.DoSeed {
		if err := store.SeedCatalog(ctx, db); err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
	}

	cacheConfig := cache.Config{
		Type:             cache.BackendMemory,
		RedisURL:         cfg.RedisURL,
		Prefix:           cfg.CachePrefix,
		DefaultTTL:       cfg.CacheTTLDuration(),
		MaxSize:          cfg.CacheMaxSize,
		CleanupInterval:  time.Minute,
		FallbackToMemory: true,
	}
	if cfg.UseRedisCache() {
		cacheConfig.Type = cache.BackendRedis
	}
	cacheManager, err := cache.NewManagerFromConfig(cacheConfig)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = cacheManager.Close() }()
	switch {
	case cacheManager.IsFallback():
		slog.Warn("cache manager initialized", "backend", cache.BackendMemory, "note", "Redis unavailable, using fallback")
	default:
		slog.Info("cache manager initialized", "backend", cacheConfig.Type, "url", cache.SanitizeRedisURL(cfg.RedisURL))
	}

	st, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	slog.Info("media storage initialized", "s3", cfg.UseS3())

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer)
	if err != nil {
		return fmt.Errorf("initializing tokens: %w", err)
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	events := service.NewEventService(db)
	media := service.NewMediaService(st, events)
	pricing := service.Pricing{
		FlatShipping:          cfg.ShippingFlatCost,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}

	// Observers and recorders are interfaces; only set them when present.
	var (
		observers  []service.OrderObserver
		cartMetric service.CartRecorder
		dispatcher *webhook.Dispatcher
	)
	if m != nil {
		observers = append(observers, service.MetricsObserver(m))
		cartMetric = m
	}
	if cfg.WebhookEnabled() {
		wcfg := webhook.DefaultConfig()
		wcfg.URL = cfg.WebhookURL
		wcfg.Secret = cfg.WebhookSecret
		dispatcher, err = webhook.NewDispatcher(db, logger, wcfg)
		if err != nil {
			return fmt.Errorf("initializing webhook dispatcher: %w", err)
		}
		if m != nil {
			dispatcher.SetMetrics(m)
		}
		observers = append(observers, dispatcher)
	}

	importer := transfer.NewImporter(db, logger)
	importer.SetCache(cacheManager)
	importer.SetLowStockThreshold(cfg.LowStockThreshold)
	if m != nil {
		importer.SetMetrics(m)
	}

	users := service.NewUserService(db, tokens, events)
	svc := api.Services{
		Users:        users,
		Catalog:      service.NewCatalogService(db, cacheManager, media, events, cfg.LowStockThreshold),
		Cart:         service.NewCartService(db, pricing, cfg.CartTTL, cartMetric),
		Orders:       service.NewOrderService(db, cacheManager, pricing, cfg.LowStockThreshold, events, observers...),
		Favorites:    service.NewFavoriteService(db),
		Reviews:      service.NewReviewService(db, events),
		Content:      service.NewContentService(db, cacheManager, media, events),
		Newsletter:   service.NewNewsletterService(db),
		SizeRequests: service.NewSizeRequestService(db, events),
		Media:        media,
		Analytics:    service.NewAnalyticsService(db, cfg.LowStockThreshold),
		Events:       events,
		Importer:     importer,
		Exporter:     transfer.NewExporter(db, logger),
		Cache:        cacheManager,
	}

	apiLimiter := newAPILimiter(cfg)
	loginGuard := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched = scheduler.New(logger, events)
		maint := scheduler.Maintenance{
			Carts:            svc.Cart,
			Events:           events,
			Banners:          svc.Content,
			EventRetention:   cfg.EventRetention,
			WebhookRetention: cfg.WebhookRetention,
		}
		if dispatcher != nil {
			maint.Webhooks = dispatcher
		}
		jobs := append(maint.Jobs(), scheduler.Job{
			Name:        "prune-rate-limits",
			Description: "Drop idle rate limiter and login lockout entries",
			Schedule:    "@every 10m",
			Run: func(context.Context) (int64, error) {
				n := apiLimiter.Prune(rateLimitEntries) + loginGuard.Prune(rateLimitEntries)
				return int64(n), nil
			},
		})
		if err := sched.RegisterAll(jobs); err != nil {
			return fmt.Errorf("registering jobs: %w", err)
		}
		svc.Jobs = sched
	}

	sessionManager := session.New(db, cfg.IsDevelopment(), cfg.CartTTL)
	slog.Info("session manager initialized")

	router := newRouter(routerDeps{
		cfg:      cfg,
		db:       db,
		svc:      svc,
		tokens:   tokens,
		sessions: sessionManager,
		cache:    cacheManager,
		metrics:  m,
		limiter:  apiLimiter,
		login:    loginGuard,
		logger:   logger,
	})

	if dispatcher != nil {
		dispatcher.Start(ctx)
		defer dispatcher.Stop()
		slog.Info("webhook dispatcher started")
	}
	if sched != nil {
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for large uploads and CSV exports
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Get().Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
