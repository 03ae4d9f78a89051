// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const msgRateLimited = "Çok fazla istek gönderdiniz. Lütfen biraz bekleyip tekrar deneyin."

// limiterCache hands out one token bucket per key.
type limiterCache[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		entries: make(map[K]*rate.Limiter),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	l, ok := lc.entries[key]
	if !ok {
		l = rate.NewLimiter(lc.limit, lc.burst)
		lc.entries[key] = l
	}
	return l
}

// prune forgets buckets that have refilled completely, since a fresh bucket
// behaves the same. If more than maxSize keys remain, every bucket is
// dropped. It returns the number of keys removed.
func (lc *limiterCache[K]) prune(maxSize int) int {
	now := time.Now()
	full := float64(lc.burst)

	lc.mu.Lock()
	defer lc.mu.Unlock()
	before := len(lc.entries)
	for k, l := range lc.entries {
		if l.TokensAt(now) >= full {
			delete(lc.entries, k)
		}
	}
	if len(lc.entries) > maxSize {
		lc.entries = make(map[K]*rate.Limiter)
	}
	return before - len(lc.entries)
}

// RateLimiter limits requests per client IP.
type RateLimiter struct {
	name  string
	cache *limiterCache[string]
}

// NewRateLimiter creates a per-IP limiter. name appears in log lines.
func NewRateLimiter(name string, rps float64, burst int) *RateLimiter {
	return &RateLimiter{name: name, cache: newLimiterCache[string](rps, burst)}
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.cache.get(ip).Allow()
}

// Prune drops idle buckets and returns how many were removed.
func (rl *RateLimiter) Prune(maxSize int) int {
	n := rl.cache.prune(maxSize)
	if n > 0 {
		slog.Debug("rate limiters pruned", "limiter", rl.name, "removed", n)
	}
	return n
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := GetClientIP(r)
			if !rl.Allow(ip) {
				slog.Warn("rate limit exceeded", "limiter", rl.name, "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, CodeRateLimited, msgRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClientIP extracts the client IP from the request. Proxy headers are
// trusted; deploy behind a proxy that sets them.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
