// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads shop settings from SHOP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// knownWeakSecrets are example secrets from documentation and samples.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
	"your-super-secret-jwt-key-change-this",
}

// Storage drivers
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"SHOP_DB_PATH" envDefault:"./data/shop.db"`
	ServerHost string `env:"SHOP_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"SHOP_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"SHOP_ENV" envDefault:"development"`
	LogLevel   string `env:"SHOP_LOG_LEVEL" envDefault:"info"`
	PublicURL  string `env:"SHOP_PUBLIC_URL" envDefault:"http://localhost:3000"`

	// JWT
	JWTSecret string        `env:"SHOP_JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"SHOP_JWT_TTL" envDefault:"72h"`
	JWTIssuer string        `env:"SHOP_JWT_ISSUER" envDefault:"ocms-shop"`

	// Uploads and storage
	UploadsDir     string `env:"SHOP_UPLOADS_DIR" envDefault:"./uploads"`
	StorageDriver  string `env:"SHOP_STORAGE_DRIVER" envDefault:"local"`
	S3Endpoint     string `env:"SHOP_S3_ENDPOINT"`
	S3Region       string `env:"SHOP_S3_REGION" envDefault:"eu-central-1"`
	S3Bucket       string `env:"SHOP_S3_BUCKET"`
	S3AccessKey    string `env:"SHOP_S3_ACCESS_KEY"`
	S3SecretKey    string `env:"SHOP_S3_SECRET_KEY"`
	S3PublicURL    string `env:"SHOP_S3_PUBLIC_URL"`
	S3UsePathStyle bool   `env:"SHOP_S3_USE_PATH_STYLE" envDefault:"false"`

	// Cache configuration
	RedisURL     string `env:"SHOP_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"SHOP_CACHE_PREFIX" envDefault:"shop:"`   // Redis key prefix
	CacheTTL     int    `env:"SHOP_CACHE_TTL" envDefault:"300"`        // Default cache TTL in seconds
	CacheMaxSize int    `env:"SHOP_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// HTTP
	CORSAllowedOrigins []string `env:"SHOP_CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RateLimitRPS       float64  `env:"SHOP_RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst     int      `env:"SHOP_RATE_LIMIT_BURST" envDefault:"40"`
	MetricsEnabled     bool     `env:"SHOP_METRICS_ENABLED" envDefault:"true"`

	// Commerce
	ShippingFlatCost      decimal.Decimal `env:"SHOP_SHIPPING_FLAT_COST" envDefault:"49.90"`
	FreeShippingThreshold decimal.Decimal `env:"SHOP_FREE_SHIPPING_THRESHOLD" envDefault:"500"`
	LowStockThreshold     int64           `env:"SHOP_LOW_STOCK_THRESHOLD" envDefault:"5"`
	CartTTL               time.Duration   `env:"SHOP_CART_TTL" envDefault:"720h"`

	// Order webhook
	WebhookURL       string        `env:"SHOP_WEBHOOK_URL"`
	WebhookSecret    string        `env:"SHOP_WEBHOOK_SECRET"`
	WebhookRetention time.Duration `env:"SHOP_WEBHOOK_RETENTION" envDefault:"720h"`

	// Maintenance jobs
	SchedulerEnabled bool          `env:"SHOP_SCHEDULER_ENABLED" envDefault:"true"`
	EventRetention   time.Duration `env:"SHOP_EVENT_RETENTION" envDefault:"2160h"` // 90 days

	// Bootstrap and seeding
	AdminEmail    string `env:"SHOP_ADMIN_EMAIL"`
	AdminPassword string `env:"SHOP_ADMIN_PASSWORD"`
	DoSeed        bool   `env:"SHOP_DO_SEED" envDefault:"false"` // Seed the demo catalog
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// UseS3 returns true if uploads go to an S3-compatible bucket.
func (c Config) UseS3() bool {
	return c.StorageDriver == StorageS3
}

// WebhookEnabled returns true if order events are posted to a webhook.
func (c Config) WebhookEnabled() bool {
	return c.WebhookURL != ""
}

// CacheTTLDuration returns CacheTTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// MinJWTSecretLength is the minimum length of SHOP_JWT_SECRET in bytes.
const MinJWTSecretLength = 32

const secretHint = "generate one with: openssl rand -base64 32"

// Load parses the environment and validates the result. Every invalid
// setting is reported, not only the first.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if characterClasses(cfg.JWTSecret) < 3 {
		slog.Warn("SHOP_JWT_SECRET has low character diversity; " + secretHint)
	}
	cfg.CORSAllowedOrigins = normalizeOrigins(cfg.CORSAllowedOrigins)
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(len(c.JWTSecret) >= MinJWTSecretLength,
		"SHOP_JWT_SECRET must be at least %d bytes long, got %d; %s", MinJWTSecretLength, len(c.JWTSecret), secretHint)
	check(!slices.Contains(knownWeakSecrets, c.JWTSecret),
		"SHOP_JWT_SECRET is a published example value; %s", secretHint)
	check(c.Env == "development" || c.Env == "production",
		"SHOP_ENV must be development or production, got %q", c.Env)
	check(c.StorageDriver == StorageLocal || c.StorageDriver == StorageS3,
		"SHOP_STORAGE_DRIVER must be local or s3, got %q", c.StorageDriver)
	check(!c.UseS3() || c.S3Bucket != "",
		"SHOP_S3_BUCKET is required when SHOP_STORAGE_DRIVER=s3")
	check(c.JWTTTL > 0, "SHOP_JWT_TTL must be positive")
	check(c.CartTTL > 0, "SHOP_CART_TTL must be positive")
	check(!c.ShippingFlatCost.IsNegative() && !c.FreeShippingThreshold.IsNegative(),
		"shipping amounts must not be negative")
	check(c.EventRetention >= 24*time.Hour && c.WebhookRetention >= 24*time.Hour,
		"SHOP_EVENT_RETENTION and SHOP_WEBHOOK_RETENTION must be at least 24h")
	check(!c.WebhookEnabled() || c.WebhookSecret != "",
		"SHOP_WEBHOOK_SECRET is required when SHOP_WEBHOOK_URL is set")

	return errors.Join(errs...)
}

// normalizeOrigins trims blanks and trailing slashes and drops empty entries.
func normalizeOrigins(in []string) []string {
	out := in[:0]
	for _, o := range in {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// characterClasses counts which of lowercase, uppercase, digits and other
// printable characters occur in s.
func characterClasses(s string) int {
	var lower, upper, digit, other int
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = 1
		case unicode.IsUpper(r):
			upper = 1
		case unicode.IsDigit(r):
			digit = 1
		case unicode.IsPrint(r):
			other = 1
		}
	}
	return lower + upper + digit + other
}
