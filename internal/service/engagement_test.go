// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/testutil"
)

func TestReviewService_CreateAndModerate(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	reviews := NewReviewService(f.db, f.events)
	user := testutil.CreateUser(t, f.q, "yorum@example.com", "secret123", false)
	testutil.CreateProduct(t, f.q, "etek", "150")

	r, err := reviews.Create(ctx, "etek", user, ReviewInput{
		Rating:  4,
		Title:   "<b>Güzel</b>",
		Comment: "Kumaşı çok iyi <script>alert(1)</script>",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.IsApproved {
		t.Error("new review must wait for approval")
	}
	if r.Title != "Güzel" || strings.Contains(r.Comment, "<script>") {
		t.Errorf("review not sanitized: %q / %q", r.Title, r.Comment)
	}
	if r.AuthorName != user.Name {
		t.Errorf("author = %q", r.AuthorName)
	}

	page, err := reviews.ListApproved(ctx, "etek", Paging{})
	if err != nil {
		t.Fatalf("ListApproved: %v", err)
	}
	if len(page.Reviews) != 0 || page.Summary.Count != 0 {
		t.Errorf("unapproved review visible: %+v", page)
	}

	if _, err := reviews.Create(ctx, "etek", user, ReviewInput{Rating: 5, Comment: "Tekrar"}); !errors.Is(err, ErrAlreadyReviewed) {
		t.Errorf("duplicate err = %v", err)
	}

	if _, err := reviews.SetApproved(ctx, 0, r.ID, true); err != nil {
		t.Fatalf("SetApproved: %v", err)
	}
	page, err = reviews.ListApproved(ctx, "etek", Paging{})
	if err != nil {
		t.Fatalf("ListApproved: %v", err)
	}
	if len(page.Reviews) != 1 || page.Summary.Count != 1 || page.Summary.Average != 4 {
		t.Errorf("approved page = %+v", page)
	}

	pending, total, err := reviews.AdminList(ctx, sql.NullBool{Bool: false, Valid: true}, Paging{})
	if err != nil {
		t.Fatalf("AdminList: %v", err)
	}
	if total != 0 || len(pending) != 0 {
		t.Errorf("pending = %d (total %d)", len(pending), total)
	}

	if err := reviews.Delete(ctx, 0, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := reviews.Delete(ctx, 0, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestReviewService_CreateValidation(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	reviews := NewReviewService(f.db, f.events)
	user := testutil.CreateUser(t, f.q, "v@example.com", "secret123", false)
	testutil.CreateProduct(t, f.q, "kemer", "50")

	tests := []struct {
		name string
		slug string
		in   ReviewInput
		want error
	}{
		{"rating too low", "kemer", ReviewInput{Rating: 0, Comment: "ok"}, ErrInvalidInput},
		{"rating too high", "kemer", ReviewInput{Rating: 6, Comment: "ok"}, ErrInvalidInput},
		{"empty comment", "kemer", ReviewInput{Rating: 3, Comment: "<p></p>"}, ErrInvalidInput},
		{"long comment", "kemer", ReviewInput{Rating: 3, Comment: strings.Repeat("ç", MaxReviewCommentLength+1)}, ErrInvalidInput},
		{"unknown product", "yok", ReviewInput{Rating: 3, Comment: "ok"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := reviews.Create(ctx, tt.slug, user, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFavoriteService(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	favs := NewFavoriteService(f.db)
	user := testutil.CreateUser(t, f.q, "fav@example.com", "secret123", false)
	p := testutil.CreateProduct(t, f.q, "canta", "300")

	created, err := favs.Add(ctx, user.ID, p.ID)
	if err != nil || !created {
		t.Fatalf("Add = %v, %v", created, err)
	}
	created, err = favs.Add(ctx, user.ID, p.ID)
	if err != nil || created {
		t.Errorf("second Add = %v, %v", created, err)
	}
	if _, err := favs.Add(ctx, user.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing product err = %v", err)
	}

	list, err := favs.List(ctx, user.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != p.ID {
		t.Errorf("favorites = %+v", list)
	}
	if ok, _ := favs.IsFavorite(ctx, user.ID, p.ID); !ok {
		t.Error("IsFavorite = false")
	}

	if err := favs.Remove(ctx, user.ID, p.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := favs.Remove(ctx, user.ID, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove err = %v", err)
	}
}

func TestNewsletterService_SubscribeLifecycle(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	news := NewNewsletterService(f.db)

	sub, res, err := news.Subscribe(ctx, " Okur@Example.com ", "Okur")
	if err != nil || res != Subscribed {
		t.Fatalf("Subscribe = %v, %v", res, err)
	}
	if sub.Email != "okur@example.com" || !sub.IsActive {
		t.Errorf("subscription = %+v", sub)
	}

	if _, res, _ := news.Subscribe(ctx, "okur@example.com", ""); res != AlreadySubscribed {
		t.Errorf("second subscribe = %v", res)
	}

	if err := news.UnsubscribeToken(ctx, "not-a-token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("bad token err = %v", err)
	}
	if err := news.UnsubscribeToken(ctx, sub.UnsubscribeToken); err != nil {
		t.Fatalf("UnsubscribeToken: %v", err)
	}

	active, total, err := news.List(ctx, true, Paging{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 0 || len(active) != 0 {
		t.Errorf("active after unsubscribe = %d", total)
	}

	again, res, err := news.Subscribe(ctx, "okur@example.com", "")
	if err != nil || res != Resubscribed {
		t.Fatalf("resubscribe = %v, %v", res, err)
	}
	if again.Name != "Okur" || !again.IsActive {
		t.Errorf("resubscribed = %+v", again)
	}

	if _, _, err := news.Subscribe(ctx, "bozuk", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("invalid email err = %v", err)
	}
	if err := news.UnsubscribeEmail(ctx, "kimse@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown email err = %v", err)
	}
}

func TestNewsletterService_ExportCSV(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	news := NewNewsletterService(f.db)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		if _, _, err := news.Subscribe(ctx, email, "Ad, Soyad"); err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
	}
	if err := news.UnsubscribeEmail(ctx, "b@example.com"); err != nil {
		t.Fatalf("UnsubscribeEmail: %v", err)
	}

	var buf bytes.Buffer
	if err := news.ExportCSV(ctx, &buf, false); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2", len(records))
	}
	if strings.Join(records[0], ",") != "email,name,is_active,subscribed_at,unsubscribed_at" {
		t.Errorf("header = %v", records[0])
	}
	for _, r := range records[1:] {
		if r[1] != "Ad, Soyad" {
			t.Errorf("name = %q", r[1])
		}
		if r[0] == "b@example.com" && (r[2] != "0" || r[4] == "") {
			t.Errorf("unsubscribed row = %v", r)
		}
	}

	buf.Reset()
	if err := news.ExportCSV(ctx, &buf, true); err != nil {
		t.Fatalf("ExportCSV active: %v", err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("active export lines = %d", n)
	}
}

func TestSizeRequestService(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	svc := NewSizeRequestService(f.db, f.events)
	p := testutil.CreateProduct(t, f.q, "abiye", "1200")

	req, err := svc.Create(ctx, SizeRequestInput{
		ProductID:    &p.ID,
		Name:         "Elif",
		Email:        "Elif@Example.com",
		Measurements: "Göğüs 96, bel 78",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.Status != model.SizeRequestNew || req.Email != "elif@example.com" {
		t.Errorf("request = %+v", req)
	}

	missing := int64(9999)
	bad := []SizeRequestInput{
		{Email: "e@example.com", Measurements: "x"},
		{Name: "E", Email: "bozuk", Measurements: "x"},
		{Name: "E", Email: "e@example.com"},
	}
	for i, in := range bad {
		if _, err := svc.Create(ctx, in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d err = %v", i, err)
		}
	}
	if _, err := svc.Create(ctx, SizeRequestInput{ProductID: &missing, Name: "E", Email: "e@example.com", Measurements: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing product err = %v", err)
	}

	note := " Arandı "
	updated, err := svc.Update(ctx, 0, req.ID, model.SizeRequestContacted, &note)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != model.SizeRequestContacted || updated.AdminNote != "Arandı" {
		t.Errorf("updated = %+v", updated)
	}
	updated, err = svc.Update(ctx, 0, req.ID, model.SizeRequestClosed, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.AdminNote != "Arandı" {
		t.Errorf("note dropped: %q", updated.AdminNote)
	}
	if _, err := svc.Update(ctx, 0, req.ID, "archived", nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad status err = %v", err)
	}

	list, total, err := svc.List(ctx, model.SizeRequestClosed, Paging{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Errorf("closed list = %d (total %d)", len(list), total)
	}
	if _, _, err := svc.List(ctx, "archived", Paging{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad filter err = %v", err)
	}

	if err := svc.Delete(ctx, req.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, req.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
}

func TestSanitizeAndRender(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		format string
		want   string
		reject string
	}{
		{"markdown", "# Başlık\n\n**kalın**", model.ContentFormatMarkdown, "<strong>kalın</strong>", ""},
		{"markdown table", "| a | b |\n|---|---|\n| 1 | 2 |", model.ContentFormatMarkdown, "<table>", ""},
		{"html script", `<p onclick="x()">Merhaba</p><script>alert(1)</script>`, model.ContentFormatHTML, "<p>Merhaba</p>", "script"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderContent(tt.in, tt.format)
			if err != nil {
				t.Fatalf("RenderContent: %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("RenderContent = %q, want it to contain %q", got, tt.want)
			}
			if tt.reject != "" && strings.Contains(got, tt.reject) {
				t.Errorf("RenderContent = %q still contains %q", got, tt.reject)
			}
		})
	}

	if got := SanitizeText("  <i>Ali &amp; Veli</i> "); got != "Ali & Veli" {
		t.Errorf("SanitizeText = %q", got)
	}
}
