package repo

import (
	"context"
	"fmt"
	"strings"
)

// UpsertSubscription subscribes an email, reactivating a previous unsubscribe.
func (r *PostgresRepository) UpsertSubscription(ctx context.Context, email string) (*Subscription, error) {
	const q = `
INSERT INTO subscriptions (email)
VALUES (LOWER($1))
ON CONFLICT (email) DO UPDATE SET is_active = TRUE
RETURNING id, email, is_active, created_at;
`
	var s Subscription
	err := r.pool.QueryRow(ctx, q, strings.TrimSpace(email)).Scan(&s.ID, &s.Email, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, wrapScanErr("upsert subscription", err)
	}
	return &s, nil
}

// DeactivateSubscription unsubscribes an email.
func (r *PostgresRepository) DeactivateSubscription(ctx context.Context, email string) error {
	const q = `UPDATE subscriptions SET is_active = FALSE WHERE email = LOWER($1);`
	ct, err := r.pool.Exec(ctx, q, strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("deactivate subscription: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("deactivate subscription: %w", ErrNotFound)
	}
	return nil
}

// ListSubscriptions returns all subscription rows, newest first.
func (r *PostgresRepository) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	const q = `SELECT id, email, is_active, created_at FROM subscriptions ORDER BY created_at DESC;`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.ID, &s.Email, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

// DeleteSubscription removes a subscription row entirely.
func (r *PostgresRepository) DeleteSubscription(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delete subscription: %w", ErrNotFound)
	}
	return nil
}
