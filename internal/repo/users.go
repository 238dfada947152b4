package repo

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const userColumns = `id, name, email, password_hash, role, email_verified, is_active, phone, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }, u *User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.EmailVerified, &u.IsActive, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
}

// InsertUser creates a new user record.
func (r *PostgresRepository) InsertUser(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	const q = `
INSERT INTO users (name, email, password_hash, role)
VALUES ($1, LOWER($2), $3, $4)
RETURNING ` + userColumns + `;
`
	var u User
	if err := scanUser(r.pool.QueryRow(ctx, q, name, email, passwordHash, role), &u); err != nil {
		return nil, wrapScanErr("insert user", err)
	}
	return &u, nil
}

// GetUserByID returns user by internal identifier.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1;`
	var u User
	if err := scanUser(r.pool.QueryRow(ctx, q, id), &u); err != nil {
		return nil, wrapScanErr("get user by id", err)
	}
	return &u, nil
}

// GetUserByEmail returns user by email (case-insensitive).
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1) LIMIT 1;`
	var u User
	if err := scanUser(r.pool.QueryRow(ctx, q, strings.TrimSpace(email)), &u); err != nil {
		return nil, wrapScanErr("get user by email", err)
	}
	return &u, nil
}

// ListUsers returns all users, newest first.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC;`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// UpdateUser applies the non-nil fields of upd to a user row.
func (r *PostgresRepository) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	const q = `
UPDATE users
SET name = COALESCE($2, name),
    phone = COALESCE($3, phone),
    role = COALESCE($4, role),
    is_active = COALESCE($5, is_active),
    email_verified = COALESCE($6, email_verified),
    password_hash = COALESCE($7, password_hash),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns + `;
`
	var u User
	row := r.pool.QueryRow(ctx, q, id, upd.Name, upd.Phone, upd.Role, upd.IsActive, upd.EmailVerified, upd.PasswordHash)
	if err := scanUser(row, &u); err != nil {
		return nil, wrapScanErr("update user", err)
	}
	return &u, nil
}

// DeleteUser removes a user row.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrapScanErr("delete user", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delete user: %w", ErrNotFound)
	}
	return nil
}

// InsertResetToken stores a password reset token.
func (r *PostgresRepository) InsertResetToken(ctx context.Context, token, userID string, expiresAt time.Time) error {
	const q = `INSERT INTO password_reset_tokens (token, user_id, expires_at) VALUES ($1, $2, $3);`
	if _, err := r.pool.Exec(ctx, q, token, userID, expiresAt); err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

// GetResetToken fetches a reset token record.
func (r *PostgresRepository) GetResetToken(ctx context.Context, token string) (*PasswordResetToken, error) {
	const q = `
SELECT token, user_id, expires_at, used_at, created_at
FROM password_reset_tokens
WHERE token = $1
LIMIT 1;
`
	var t PasswordResetToken
	err := r.pool.QueryRow(ctx, q, token).Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		return nil, wrapScanErr("get reset token", err)
	}
	return &t, nil
}

// ConsumeResetToken marks a token used; guarded so it can happen only once.
func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, token string) error {
	const q = `
UPDATE password_reset_tokens
SET used_at = NOW()
WHERE token = $1 AND used_at IS NULL AND expires_at > NOW();
`
	ct, err := r.pool.Exec(ctx, q, token)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("consume reset token: %w", ErrStatusConflict)
	}
	return nil
}
