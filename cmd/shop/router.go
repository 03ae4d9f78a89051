// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/ocms-shop/internal/auth"
	"github.com/olegiv/ocms-shop/internal/cache"
	"github.com/olegiv/ocms-shop/internal/config"
	"github.com/olegiv/ocms-shop/internal/handler"
	"github.com/olegiv/ocms-shop/internal/handler/api"
	"github.com/olegiv/ocms-shop/internal/metrics"
	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/version"
)

// routerDeps holds what the HTTP router needs from run.
type routerDeps struct {
	cfg      *config.Config
	db       *sql.DB
	svc      api.Services
	tokens   *auth.TokenManager
	sessions *scs.SessionManager
	cache    *cache.Manager
	metrics  *metrics.Metrics // nil when disabled
	limiter  *middleware.RateLimiter
	login    *middleware.LoginProtection
	logger   *slog.Logger
}

func newAPILimiter(cfg *config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter("api", cfg.RateLimitRPS, cfg.RateLimitBurst)
}

func newRouter(d routerDeps) http.Handler {
	cfg := d.cfg
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if d.metrics != nil {
		r.Use(d.metrics.Middleware)
	}
	r.Use(chimw.GetHead) // Handle HEAD requests for uptime monitoring

	securityPolicy := middleware.DefaultSecurityPolicy(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityPolicy))
	slog.Info("security headers middleware initialized", "hsts", !cfg.IsDevelopment())

	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowCredentials: true,
	}))

	// Health checks stay outside rate limiting and timeouts.
	health := handler.NewHealthHandler(d.db, cfg.UploadsDir, version.Get().Version)
	health.SetCache(d.cache)
	r.With(middleware.OptionalAuth(d.tokens)).Get("/health", health.Health)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if d.metrics != nil {
		r.Handle("/metrics", d.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(d.limiter.Middleware())
		r.Use(middleware.Timeout(30 * time.Second))

		seo := handler.NewSEOHandler(d.db, d.cache, cfg.PublicURL, cfg.IsDevelopment())
		r.Get("/sitemap.xml", seo.Sitemap)
		r.Get("/robots.txt", seo.Robots)

		apiHandler := api.NewHandler(d.db, d.svc, d.sessions, d.logger)
		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.CSRF([]byte(cfg.JWTSecret), cfg.CORSAllowedOrigins))
			r.Mount("/", apiHandler.Routes(api.RouteConfig{
				Tokens: d.tokens,
				Admins: d.svc.Users,
				Login:  d.login,
			}))
		})
		slog.Info("REST API mounted at /api")
	})

	if !cfg.UseS3() {
		// Uploads: cache for 1 week (604800 seconds)
		uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
		r.Handle("/uploads/*", middleware.StaticCache(7*24*time.Hour)(uploads))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		api.WriteNotFound(w, "Sayfa bulunamadı")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		api.WriteError(w, http.StatusMethodNotAllowed, api.CodeBadRequest, "Bu yöntem desteklenmiyor", nil)
	})

	return r
}
