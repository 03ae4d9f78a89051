// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/testutil"
)

func TestFavorites(t *testing.T) {
	a := newTestAPI(t)
	u := testutil.CreateUser(t, a.q, "fav@example.com", "gizli123", false)
	p := testutil.CreateProduct(t, a.q, "ipek-sal", "250.00")
	tok := a.token(u)

	w := a.do(request{method: http.MethodGet, path: "/favorites"})
	assertStatus(t, w, http.StatusUnauthorized)

	body := map[string]any{"product_id": p.ID}
	w = a.do(request{method: http.MethodPost, path: "/favorites", token: tok, body: body})
	assertStatus(t, w, http.StatusCreated)
	w = a.do(request{method: http.MethodPost, path: "/favorites", token: tok, body: body})
	assertStatus(t, w, http.StatusOK)

	w = a.do(request{method: http.MethodPost, path: "/favorites", token: tok, body: map[string]any{"product_id": 9999}})
	assertStatus(t, w, http.StatusNotFound)

	w = a.do(request{method: http.MethodGet, path: "/favorites", token: tok})
	assertStatus(t, w, http.StatusOK)
	if got := decodeData[[]ProductResponse](t, w).Data; len(got) != 1 || got[0].ID != p.ID {
		t.Errorf("favorites = %+v; want product %d", got, p.ID)
	}

	check := fmt.Sprintf("/favorites/check/%d", p.ID)
	w = a.do(request{method: http.MethodGet, path: check, token: tok})
	assertStatus(t, w, http.StatusOK)
	if !decodeData[FavoriteStatus](t, w).Data.IsFavorite {
		t.Error("is_favorite = false; want true")
	}

	w = a.do(request{method: http.MethodDelete, path: fmt.Sprintf("/favorites/%d", p.ID), token: tok})
	assertStatus(t, w, http.StatusOK)
	w = a.do(request{method: http.MethodDelete, path: fmt.Sprintf("/favorites/%d", p.ID), token: tok})
	assertStatus(t, w, http.StatusNotFound)

	w = a.do(request{method: http.MethodGet, path: check, token: tok})
	assertStatus(t, w, http.StatusOK)
	if decodeData[FavoriteStatus](t, w).Data.IsFavorite {
		t.Error("is_favorite = true after removal")
	}
}

func TestReviews(t *testing.T) {
	a := newTestAPI(t)
	u := testutil.CreateUser(t, a.q, "yorum@example.com", "gizli123", false)
	admin := testutil.CreateUser(t, a.q, "admin@example.com", "gizli123", true)
	testutil.CreateProduct(t, a.q, "deri-ceket", "1500.00")
	tok := a.token(u)

	review := map[string]any{"rating": 4, "title": "Güzel", "comment": "Kalıbı tam oturdu."}

	w := a.do(request{method: http.MethodPost, path: "/products/deri-ceket/reviews", body: review})
	assertStatus(t, w, http.StatusUnauthorized)

	w = a.do(request{method: http.MethodPost, path: "/products/deri-ceket/reviews", token: tok, body: map[string]any{
		"rating": 6, "comment": "x",
	}})
	assertStatus(t, w, http.StatusUnprocessableEntity)

	w = a.do(request{method: http.MethodPost, path: "/products/deri-ceket/reviews", token: tok, body: review})
	assertStatus(t, w, http.StatusCreated)
	created := decodeData[ReviewResponse](t, w).Data
	if created.IsApproved {
		t.Error("new review is approved; want pending moderation")
	}

	w = a.do(request{method: http.MethodPost, path: "/products/deri-ceket/reviews", token: tok, body: review})
	assertStatus(t, w, http.StatusConflict)

	w = a.do(request{method: http.MethodPost, path: "/products/yok/reviews", token: tok, body: review})
	assertStatus(t, w, http.StatusNotFound)

	// Pending reviews are hidden from the product page.
	w = a.do(request{method: http.MethodGet, path: "/products/deri-ceket/reviews"})
	assertStatus(t, w, http.StatusOK)
	if got := decodeData[ReviewListResponse](t, w).Data; len(got.Reviews) != 0 || got.Summary.Count != 0 {
		t.Errorf("public reviews = %+v; want none before approval", got)
	}

	w = a.do(request{method: http.MethodPut, path: fmt.Sprintf("/admin/reviews/%d/approve", created.ID), token: a.token(admin)})
	assertStatus(t, w, http.StatusOK)

	w = a.do(request{method: http.MethodGet, path: "/products/deri-ceket/reviews"})
	assertStatus(t, w, http.StatusOK)
	got := decodeData[ReviewListResponse](t, w).Data
	if len(got.Reviews) != 1 || got.Summary.Count != 1 || got.Summary.Average != 4 {
		t.Errorf("public reviews = %+v; want one 4-star review", got)
	}
}

func TestNewsletter(t *testing.T) {
	a := newTestAPI(t)
	body := map[string]string{"email": "bulten@example.com", "name": "Can"}

	w := a.do(request{method: http.MethodPost, path: "/newsletter/subscribe", body: body})
	assertStatus(t, w, http.StatusCreated)
	if msg := decodeData[SubscriptionResponse](t, w).Message; msg != msgSubscribed {
		t.Errorf("message = %q; want %q", msg, msgSubscribed)
	}

	w = a.do(request{method: http.MethodPost, path: "/newsletter/subscribe", body: body})
	assertStatus(t, w, http.StatusOK)
	if msg := decodeData[SubscriptionResponse](t, w).Message; msg != msgAlreadySubscribed {
		t.Errorf("message = %q; want %q", msg, msgAlreadySubscribed)
	}

	w = a.do(request{method: http.MethodPost, path: "/newsletter/unsubscribe", body: map[string]string{"email": "bulten@example.com"}})
	assertStatus(t, w, http.StatusOK)

	w = a.do(request{method: http.MethodPost, path: "/newsletter/subscribe", body: body})
	assertStatus(t, w, http.StatusOK)
	if msg := decodeData[SubscriptionResponse](t, w).Message; msg != msgResubscribed {
		t.Errorf("message = %q; want %q", msg, msgResubscribed)
	}

	w = a.do(request{method: http.MethodPost, path: "/newsletter/subscribe", body: map[string]string{"email": "gecersiz"}})
	assertStatus(t, w, http.StatusUnprocessableEntity)

	w = a.do(request{method: http.MethodGet, path: "/newsletter/unsubscribe/bilinmeyen-token"})
	assertStatus(t, w, http.StatusNotFound)
}

func TestSizeRequests(t *testing.T) {
	a := newTestAPI(t)
	admin := testutil.CreateUser(t, a.q, "admin@example.com", "gizli123", true)
	p := testutil.CreateProduct(t, a.q, "abiye", "2000.00")

	w := a.do(request{method: http.MethodPost, path: "/special-size-requests", body: map[string]any{
		"name": "Zeynep", "email": "zeynep@example.com", "product_id": p.ID,
		"measurements": "Göğüs 96, bel 78, boy 172",
	}})
	assertStatus(t, w, http.StatusCreated)
	sr := decodeData[SizeRequestResponse](t, w).Data
	if sr.Status != model.SizeRequestNew {
		t.Errorf("status = %q; want %q", sr.Status, model.SizeRequestNew)
	}

	w = a.do(request{method: http.MethodPost, path: "/special-size-requests", body: map[string]any{
		"name": "Zeynep", "email": "zeynep@example.com",
	}})
	assertStatus(t, w, http.StatusUnprocessableEntity)

	tok := a.token(admin)
	path := fmt.Sprintf("/admin/special-size-requests/%d", sr.ID)
	w = a.do(request{method: http.MethodPut, path: path, token: tok, body: map[string]any{
		"status": model.SizeRequestContacted, "admin_note": "Telefonla arandı",
	}})
	assertStatus(t, w, http.StatusOK)
	updated := decodeData[SizeRequestResponse](t, w).Data
	if updated.Status != model.SizeRequestContacted || updated.AdminNote != "Telefonla arandı" {
		t.Errorf("updated = %+v; want contacted with note", updated)
	}

	w = a.do(request{method: http.MethodPut, path: path, token: tok, body: map[string]any{"status": "kapali"}})
	assertStatus(t, w, http.StatusUnprocessableEntity)

	w = a.do(request{method: http.MethodGet, path: "/admin/special-size-requests?status=contacted", token: tok})
	assertStatus(t, w, http.StatusOK)
	if n := len(decodeData[[]SizeRequestResponse](t, w).Data); n != 1 {
		t.Errorf("contacted requests = %d; want 1", n)
	}

	w = a.do(request{method: http.MethodDelete, path: path, token: tok})
	assertStatus(t, w, http.StatusOK)
	w = a.do(request{method: http.MethodGet, path: path, token: tok})
	assertStatus(t, w, http.StatusNotFound)
}
