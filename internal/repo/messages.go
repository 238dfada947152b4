package repo

import (
	"context"
	"fmt"
)

// InsertBookingMessage appends a message to a booking thread.
func (r *PostgresRepository) InsertBookingMessage(ctx context.Context, msg BookingMessage) (*BookingMessage, error) {
	const q = `
INSERT INTO booking_messages (booking_id, content, message_type, is_from_admin)
VALUES ($1, $2, $3, $4)
RETURNING id, booking_id, content, message_type, is_from_admin, is_read, created_at;
`
	var inserted BookingMessage
	err := r.pool.QueryRow(ctx, q, msg.BookingID, msg.Content, msg.MessageType, msg.IsFromAdmin).
		Scan(&inserted.ID, &inserted.BookingID, &inserted.Content, &inserted.MessageType, &inserted.IsFromAdmin, &inserted.IsRead, &inserted.CreatedAt)
	if err != nil {
		return nil, wrapScanErr("insert booking message", err)
	}
	return &inserted, nil
}

// ListBookingMessages returns a booking's thread in insertion order. The
// ordering here is the display contract: created_at ascending with id as a
// stable tiebreak, never re-sorted downstream.
func (r *PostgresRepository) ListBookingMessages(ctx context.Context, bookingID string) ([]BookingMessage, error) {
	const q = `
SELECT id, booking_id, content, message_type, is_from_admin, is_read, created_at
FROM booking_messages
WHERE booking_id = $1
ORDER BY created_at ASC, id ASC;
`
	rows, err := r.pool.Query(ctx, q, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list booking messages: %w", err)
	}
	defer rows.Close()

	var messages []BookingMessage
	for rows.Next() {
		var m BookingMessage
		if err := rows.Scan(&m.ID, &m.BookingID, &m.Content, &m.MessageType, &m.IsFromAdmin, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking messages: %w", err)
	}
	return messages, nil
}

// MarkMessagesRead marks the counterpart's unread messages as read: a user
// clears admin-authored messages, an admin clears user-authored ones.
func (r *PostgresRepository) MarkMessagesRead(ctx context.Context, bookingID string, fromAdmin bool) (int64, error) {
	const q = `
UPDATE booking_messages
SET is_read = TRUE
WHERE booking_id = $1 AND is_from_admin = $2 AND NOT is_read;
`
	ct, err := r.pool.Exec(ctx, q, bookingID, fromAdmin)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return ct.RowsAffected(), nil
}
