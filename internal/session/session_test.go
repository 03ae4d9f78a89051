// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX sessions_expiry_idx ON sessions(expiry);
	`)
	if err != nil {
		t.Fatalf("failed to create sessions table: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		dev        bool
		lifetime   time.Duration
		wantCookie string
	}{
		{"development", true, time.Hour, CookieName},
		{"production", false, 720 * time.Hour, SecureCookieName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := New(setupTestDB(t), tt.dev, tt.lifetime)

			if sm.Store == nil {
				t.Fatal("store not set")
			}
			c := sm.Cookie
			if c.Name != tt.wantCookie || c.Secure == tt.dev {
				t.Errorf("cookie name=%q secure=%v", c.Name, c.Secure)
			}
			if !c.HttpOnly || c.Path != "/" || c.SameSite != http.SameSiteLaxMode {
				t.Errorf("cookie = %+v", c)
			}
			if sm.Lifetime != tt.lifetime || sm.IdleTimeout != tt.lifetime {
				t.Errorf("lifetime=%v idle=%v, want %v", sm.Lifetime, sm.IdleTimeout, tt.lifetime)
			}
		})
	}
}

func TestCartIDRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	sm := New(db, true, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/put", func(w http.ResponseWriter, r *http.Request) {
		SetCartID(r.Context(), sm, "cart-123")
	})
	mux.HandleFunc("/get", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(CartID(r.Context(), sm)))
	})
	h := sm.LoadAndSave(mux)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/put", nil))

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected a session cookie after storing the cart id")
	}

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Body.String(); got != "cart-123" {
		t.Errorf("CartID = %q, want cart-123", got)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get", nil))
	if got := w.Body.String(); got != "" {
		t.Errorf("CartID without cookie = %q, want empty", got)
	}
}
