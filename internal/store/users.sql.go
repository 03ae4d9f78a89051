// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, email, password_hash, name, phone, address, city, is_admin, last_login_at, created_at, updated_at`

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Phone,
		&u.Address,
		&u.City,
		&u.IsAdmin,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO users (email, password_hash, name, phone, is_admin, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING `+userColumns,
		arg.Email,
		arg.PasswordHash,
		arg.Name,
		arg.Phone,
		arg.IsAdmin,
		DBTime(arg.CreatedAt),
		DBTime(arg.UpdatedAt),
	)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (q *Queries) CountUsersByEmail(ctx context.Context, email string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n)
	return n, err
}

func (q *Queries) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE is_admin = 1`).Scan(&n)
	return n, err
}

type ListUsersParams struct {
	Search string
	Limit  int64
	Offset int64
}

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT `+userColumns+` FROM users
WHERE (? = '' OR email LIKE '%' || ? || '%' OR name LIKE '%' || ? || '%')
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`,
		arg.Search, arg.Search, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanUser)
}

func (q *Queries) CountUsers(ctx context.Context, search string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM users
WHERE (? = '' OR email LIKE '%' || ? || '%' OR name LIKE '%' || ? || '%')`,
		search, search, search).Scan(&n)
	return n, err
}

type UpdateUserProfileParams struct {
	Name      string
	Phone     string
	Address   string
	City      string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE users SET name = ?, phone = ?, address = ?, city = ?, updated_at = ?
WHERE id = ?
RETURNING `+userColumns,
		arg.Name, arg.Phone, arg.Address, arg.City, DBTime(arg.UpdatedAt), arg.ID)
	return scanUser(row)
}

type UpdateUserAdminParams struct {
	IsAdmin   bool
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateUserAdmin(ctx context.Context, arg UpdateUserAdminParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE users SET is_admin = ?, updated_at = ? WHERE id = ?
RETURNING `+userColumns,
		arg.IsAdmin, DBTime(arg.UpdatedAt), arg.ID)
	return scanUser(row)
}

type UpdateUserPasswordParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           int64
}

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		arg.PasswordHash, DBTime(arg.UpdatedAt), arg.ID)
	return err
}

type UpdateUserLastLoginParams struct {
	LastLoginAt sql.NullTime
	ID          int64
}

func (q *Queries) UpdateUserLastLogin(ctx context.Context, arg UpdateUserLastLoginParams) error {
	if arg.LastLoginAt.Valid {
		arg.LastLoginAt.Time = DBTime(arg.LastLoginAt.Time)
	}
	_, err := q.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, arg.LastLoginAt, arg.ID)
	return err
}

func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}
