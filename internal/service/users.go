// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/olegiv/ocms-shop/internal/auth"
	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      store.User
}

// RegisterInput holds the fields of a new customer account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// ProfileInput holds the editable fields of a user profile.
type ProfileInput struct {
	Name    string
	Phone   string
	Address string
	City    string
}

// UserService manages accounts, authentication and admin user management.
type UserService struct {
	queries *store.Queries
	tokens  *auth.TokenManager
	events  *EventService
}

// NewUserService creates a UserService.
func NewUserService(db *sql.DB, tokens *auth.TokenManager, events *EventService) *UserService {
	return &UserService{
		queries: store.New(db),
		tokens:  tokens,
		events:  events,
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a customer account and signs it in.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := NormalizeEmail(in.Email)
	if !ValidEmail(email) {
		return nil, invalid("email", "Geçerli bir e-posta adresi giriniz")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, invalid("password", "Şifre en az 6 karakter olmalıdır")
	}

	n, err := s.queries.CountUsersByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if n > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := store.Now()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	_ = s.events.LogUserEvent(ctx, model.EventLevelInfo, "User registered", &user.ID, map[string]any{"email": user.Email})
	return s.issue(user)
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// spendHash runs a password check against a throwaway hash so unknown
// emails take as long as wrong passwords.
func spendHash(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("not-a-real-password")
	})
	_, _ = auth.CheckPassword(password, dummyHash)
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.queries.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			spendHash(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		_ = s.events.LogAuthEvent(ctx, model.EventLevelWarning, "Failed login attempt", &user.ID, nil)
		return nil, ErrInvalidCredentials
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			_ = s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
				PasswordHash: hash, UpdatedAt: store.Now(), ID: user.ID,
			})
		}
	}

	now := store.Now()
	if err := s.queries.UpdateUserLastLogin(ctx, store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: now, Valid: true}, ID: user.ID,
	}); err != nil {
		return nil, fmt.Errorf("updating last login: %w", err)
	}
	user.LastLoginAt = sql.NullTime{Time: now, Valid: true}

	_ = s.events.LogAuthEvent(ctx, model.EventLevelInfo, "User logged in", &user.ID, nil)
	return s.issue(user)
}

func (s *UserService) issue(user store.User) (*AuthResult, error) {
	token, expires, err := s.tokens.Issue(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: expires, User: user}, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (store.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return store.User{}, notFound(err, "loading user")
	}
	return user, nil
}

// UpdateProfile replaces the editable profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, in ProfileInput) (store.User, error) {
	user, err := s.queries.UpdateUserProfile(ctx, store.UpdateUserProfileParams{
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		City:      strings.TrimSpace(in.City),
		UpdatedAt: store.Now(),
		ID:        id,
	})
	if err != nil {
		return store.User{}, notFound(err, "updating profile")
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	ok, err := auth.CheckPassword(current, user.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(next); err != nil {
		return invalid("new_password", "Şifre en az 6 karakter olmalıdır")
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		PasswordHash: hash, UpdatedAt: store.Now(), ID: id,
	}); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	_ = s.events.LogAuthEvent(ctx, model.EventLevelInfo, "Password changed", &id, nil)
	return nil
}

// IsAdmin reports whether the user exists and currently holds the admin role.
func (s *UserService) IsAdmin(ctx context.Context, id int64) (bool, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}

// List returns users matching search with the total count.
func (s *UserService) List(ctx context.Context, search string, limit, offset int64) ([]store.User, int64, error) {
	users, err := s.queries.ListUsers(ctx, store.ListUsersParams{Search: search, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	total, err := s.queries.CountUsers(ctx, search)
	if err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}
	return users, total, nil
}

// AdminUpdateInput holds the fields an administrator may change. Nil
// fields are left unchanged.
type AdminUpdateInput struct {
	Name    *string
	Phone   *string
	Address *string
	City    *string
	IsAdmin *bool
}

// AdminUpdate changes a user's details and role. Administrators cannot
// remove their own admin role.
func (s *UserService) AdminUpdate(ctx context.Context, actorID, id int64, in AdminUpdateInput) (store.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return store.User{}, err
	}

	if in.Name != nil || in.Phone != nil || in.Address != nil || in.City != nil {
		p := ProfileInput{Name: user.Name, Phone: user.Phone, Address: user.Address, City: user.City}
		if in.Name != nil {
			p.Name = *in.Name
		}
		if in.Phone != nil {
			p.Phone = *in.Phone
		}
		if in.Address != nil {
			p.Address = *in.Address
		}
		if in.City != nil {
			p.City = *in.City
		}
		if user, err = s.UpdateProfile(ctx, id, p); err != nil {
			return store.User{}, err
		}
	}

	if in.IsAdmin != nil && *in.IsAdmin != user.IsAdmin {
		if id == actorID && !*in.IsAdmin {
			return store.User{}, ErrCannotDemoteSelf
		}
		user, err = s.queries.UpdateUserAdmin(ctx, store.UpdateUserAdminParams{
			IsAdmin: *in.IsAdmin, UpdatedAt: store.Now(), ID: id,
		})
		if err != nil {
			return store.User{}, notFound(err, "updating role")
		}
		_ = s.events.LogUserEvent(ctx, model.EventLevelInfo, "User role changed", actor(actorID),
			map[string]any{"user_id": id, "is_admin": *in.IsAdmin})
	}
	return user, nil
}

// Delete removes a user. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrCannotDeleteSelf
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.queries.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	_ = s.events.LogUserEvent(ctx, model.EventLevelInfo, "User deleted", actor(actorID), map[string]any{"user_id": id})
	return nil
}
