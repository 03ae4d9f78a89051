// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/ocms-shop/internal/auth"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/testutil"
)

func newTestUserService(t *testing.T) (*UserService, *store.Queries, *auth.TokenManager) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	tokens, err := auth.NewTokenManager(strings.Repeat("s", auth.MinSecretLength), time.Hour, "ocms-shop-test")
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return NewUserService(db, tokens, NewEventService(db)), store.New(db), tokens
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	svc, _, tokens := newTestUserService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Email: " Deniz@Example.COM ", Password: "gizli123", Name: " Deniz "})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.User.Email != "deniz@example.com" || res.User.Name != "Deniz" {
		t.Errorf("user = %+v", res.User)
	}
	if res.User.IsAdmin {
		t.Error("new user must not be admin")
	}

	claims, err := tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != res.User.ID || claims.IsAdmin {
		t.Errorf("claims = %+v", claims)
	}

	login, err := svc.Login(ctx, "DENIZ@example.com", "gizli123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !login.User.LastLoginAt.Valid {
		t.Error("last login not recorded")
	}

	if _, err := svc.Login(ctx, "deniz@example.com", "yanlis"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "gizli123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", err)
	}
}

func TestUserService_RegisterValidation(t *testing.T) {
	svc, q, _ := newTestUserService(t)
	ctx := context.Background()
	testutil.CreateUser(t, q, "taken@example.com", "secret123", false)

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"invalid email", RegisterInput{Email: "not-an-email", Password: "secret123"}, ErrInvalidInput},
		{"short password", RegisterInput{Email: "a@example.com", Password: "123"}, ErrInvalidInput},
		{"taken email", RegisterInput{Email: "Taken@Example.com", Password: "secret123"}, ErrEmailTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	svc, q, _ := newTestUserService(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, q, "pw@example.com", "eskisifre", false)

	if err := svc.ChangePassword(ctx, u.ID, "yanlis", "yenisifre"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong current err = %v", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, "eskisifre", "123"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("short new password err = %v", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, "eskisifre", "yenisifre"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(ctx, "pw@example.com", "yenisifre"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}

func TestUserService_AdminOperations(t *testing.T) {
	svc, q, _ := newTestUserService(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, q, "admin@example.com", "secret123", true)
	customer := testutil.CreateUser(t, q, "musteri@example.com", "secret123", false)

	promote := true
	city := "Ankara"
	u, err := svc.AdminUpdate(ctx, admin.ID, customer.ID, AdminUpdateInput{City: &city, IsAdmin: &promote})
	if err != nil {
		t.Fatalf("AdminUpdate: %v", err)
	}
	if !u.IsAdmin || u.City != "Ankara" || u.Name != customer.Name {
		t.Errorf("updated user = %+v", u)
	}

	isAdmin, err := svc.IsAdmin(ctx, customer.ID)
	if err != nil || !isAdmin {
		t.Errorf("IsAdmin = %v, %v", isAdmin, err)
	}
	if isAdmin, _ := svc.IsAdmin(ctx, 9999); isAdmin {
		t.Error("missing user reported as admin")
	}

	demote := false
	if _, err := svc.AdminUpdate(ctx, admin.ID, admin.ID, AdminUpdateInput{IsAdmin: &demote}); !errors.Is(err, ErrCannotDemoteSelf) {
		t.Errorf("self demote err = %v", err)
	}
	if err := svc.Delete(ctx, admin.ID, admin.ID); !errors.Is(err, ErrCannotDeleteSelf) {
		t.Errorf("self delete err = %v", err)
	}

	users, total, err := svc.List(ctx, "musteri", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(users) != 1 {
		t.Errorf("List = %d users, total %d", len(users), total)
	}

	if err := svc.Delete(ctx, admin.ID, customer.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, customer.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
}
