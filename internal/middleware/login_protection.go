// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/olegiv/ocms-shop/internal/logging"
	"github.com/olegiv/ocms-shop/internal/model"
)

const (
	msgLoginRateLimited = "Çok fazla giriş denemesi yaptınız. Lütfen biraz bekleyin."
	maxLockout          = 24 * time.Hour
)

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is sign-in requests per second per IP.
	IPRateLimit float64
	IPBurst     int
	// MaxFailedAttempts within AttemptWindow locks the account.
	MaxFailedAttempts int
	AttemptWindow     time.Duration
	// LockoutDuration doubles with every repeated lockout, up to a day.
	LockoutDuration time.Duration
}

// DefaultLoginProtectionConfig returns the production defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		AttemptWindow:     15 * time.Minute,
		LockoutDuration:   15 * time.Minute,
	}
}

// accountState is the failure history of one email address.
type accountState struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtection rate-limits sign-in requests per IP and locks accounts
// after repeated wrong passwords.
type LoginProtection struct {
	cfg LoginProtectionConfig
	ips *limiterCache[string]
	now func() time.Time

	mu       sync.Mutex
	accounts map[string]*accountState
}

// NewLoginProtection creates login protection. Zero config fields take
// their default values.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}

	return &LoginProtection{
		cfg:      cfg,
		ips:      newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		now:      time.Now,
		accounts: make(map[string]*accountState),
	}
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AllowIP reports whether another sign-in request from ip may proceed.
func (lp *LoginProtection) AllowIP(ip string) bool {
	return lp.ips.get(ip).Allow()
}

// IsAccountLocked reports whether email is locked and for how much longer.
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[accountKey(email)]
	if !ok {
		return false, 0
	}
	if left := st.lockedUntil.Sub(lp.now()); left > 0 {
		return true, left
	}
	return false, 0
}

// RecordFailedAttempt counts a wrong password. It returns true and the
// lockout length when this failure locks the account.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	key := accountKey(email)
	now := lp.now()

	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[key]
	if !ok {
		st = &accountState{}
		lp.accounts[key] = st
	}
	if st.failures == 0 || now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
		st.failures = 0
		st.windowStart = now
	}
	st.failures++

	if st.failures < lp.cfg.MaxFailedAttempts {
		return false, 0
	}

	d := lockoutFor(lp.cfg.LockoutDuration, st.lockouts)
	st.lockedUntil = now.Add(d)
	st.lockouts++
	st.failures = 0

	slog.Warn("account locked after failed logins",
		logging.AttrCategory, model.EventCategoryAuth,
		"email", key, "lockouts", st.lockouts, "duration", d)
	return true, d
}

// lockoutFor doubles base for every previous lockout, capped at a day.
func lockoutFor(base time.Duration, previous int) time.Duration {
	d := base
	for range previous {
		d *= 2
		if d >= maxLockout {
			return maxLockout
		}
	}
	return d
}

// RecordSuccessfulLogin forgets the failure history of email.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	lp.mu.Lock()
	delete(lp.accounts, accountKey(email))
	lp.mu.Unlock()
}

// RemainingAttempts returns how many wrong passwords are left before a lockout.
func (lp *LoginProtection) RemainingAttempts(email string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[accountKey(email)]
	if !ok || lp.now().Sub(st.windowStart) > lp.cfg.AttemptWindow {
		return lp.cfg.MaxFailedAttempts
	}
	return max(lp.cfg.MaxFailedAttempts-st.failures, 0)
}

// Prune drops unlocked accounts with no recent failures and idle IP
// buckets; the IP table is reset once it holds more than maxIPs addresses. It returns the number of
// accounts dropped.
func (lp *LoginProtection) Prune(maxIPs int) int {
	if n := lp.ips.prune(maxIPs); n > 0 {
		slog.Debug("login rate limiters pruned", "removed", n)
	}

	now := lp.now()
	lp.mu.Lock()
	defer lp.mu.Unlock()

	n := 0
	for key, st := range lp.accounts {
		if now.After(st.lockedUntil) && now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
			delete(lp.accounts, key)
			n++
		}
	}
	return n
}

// Middleware rate-limits POST requests per client IP.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if ip := GetClientIP(r); !lp.AllowIP(ip) {
				slog.Warn("login rate limit exceeded",
					logging.AttrCategory, model.EventCategoryAuth, "ip", ip, "path", r.URL.Path)
				writeError(w, http.StatusTooManyRequests, CodeRateLimited, msgLoginRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
