// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func serveWithTimeout(limit time.Duration, h http.HandlerFunc, method string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	Timeout(limit)(h).ServeHTTP(rr, httptest.NewRequest(method, "/api/products", nil))
	return rr
}

func TestTimeout_CompletedResponses(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantBody   string
		wantHeader string
	}{
		{
			name: "body only",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":[]}`))
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"data":[]}`,
		},
		{
			name: "explicit status and header",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Location", "/api/orders/ORD-1")
				w.WriteHeader(http.StatusCreated)
				w.WriteHeader(http.StatusTeapot)
				_, _ = w.Write([]byte("created"))
			},
			wantStatus: http.StatusCreated,
			wantBody:   "created",
			wantHeader: "/api/orders/ORD-1",
		},
		{
			name: "header without body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Location", "/x")
			},
			wantStatus: http.StatusOK,
			wantHeader: "/x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveWithTimeout(time.Second, tt.handler, http.MethodPost)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if rr.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rr.Body.String(), tt.wantBody)
			}
			if got := rr.Header().Get("Location"); got != tt.wantHeader {
				t.Errorf("Location = %q, want %q", got, tt.wantHeader)
			}
		})
	}
}

func TestTimeout_Expired(t *testing.T) {
	rr := serveWithTimeout(30*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("partial"))
		<-r.Context().Done()
	}, http.MethodGet)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rr.Body.String(), err)
	}
	if body.Error.Code != CodeUnavailable || body.Error.Message != msgTimeout {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestTimeout_PanicPropagates(t *testing.T) {
	defer func() {
		if p := recover(); p != "boom" {
			t.Errorf("recovered %v, want boom", p)
		}
	}()
	serveWithTimeout(time.Second, func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}, http.MethodGet)
	t.Error("panic was swallowed")
}

func TestBufferedResponse_WriteAfterAbandon(t *testing.T) {
	b := &bufferedResponse{header: make(http.Header)}
	b.abandon()

	if _, err := b.Write([]byte("late")); !errors.Is(err, http.ErrHandlerTimeout) {
		t.Errorf("Write error = %v, want ErrHandlerTimeout", err)
	}
	if b.body.Len() != 0 {
		t.Errorf("buffered %q after abandon", b.body.String())
	}
}
