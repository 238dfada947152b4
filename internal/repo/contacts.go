package repo

import (
	"context"
	"fmt"
)

const contactColumns = `id, name, email, subject, message, status, created_at`

func scanContact(row interface{ Scan(...any) error }, c *ContactSubmission) error {
	return row.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.Status, &c.CreatedAt)
}

// InsertContact stores a public contact form submission.
func (r *PostgresRepository) InsertContact(ctx context.Context, c ContactSubmission) (*ContactSubmission, error) {
	const q = `
INSERT INTO contact_submissions (name, email, subject, message)
VALUES ($1, $2, $3, $4)
RETURNING ` + contactColumns + `;
`
	var inserted ContactSubmission
	if err := scanContact(r.pool.QueryRow(ctx, q, c.Name, c.Email, c.Subject, c.Message), &inserted); err != nil {
		return nil, wrapScanErr("insert contact", err)
	}
	return &inserted, nil
}

// ListContacts returns submissions, newest first, optionally by status.
func (r *PostgresRepository) ListContacts(ctx context.Context, status string) ([]ContactSubmission, error) {
	q := `SELECT ` + contactColumns + ` FROM contact_submissions`
	args := []any{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []ContactSubmission
	for rows.Next() {
		var c ContactSubmission
		if err := scanContact(rows, &c); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

// UpdateContactStatus moves a submission between new/read/replied.
func (r *PostgresRepository) UpdateContactStatus(ctx context.Context, id, status string) (*ContactSubmission, error) {
	const q = `
UPDATE contact_submissions
SET status = $2
WHERE id = $1
RETURNING ` + contactColumns + `;
`
	var c ContactSubmission
	if err := scanContact(r.pool.QueryRow(ctx, q, id, status), &c); err != nil {
		return nil, wrapScanErr("update contact status", err)
	}
	return &c, nil
}

// DeleteContact removes a submission.
func (r *PostgresRepository) DeleteContact(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM contact_submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delete contact: %w", ErrNotFound)
	}
	return nil
}
