package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, user_id, machine_id, rental_duration, quantity, total_price, status,
payment_address, transaction_hash, user_notes, admin_notes, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }, b *Booking) error {
	return row.Scan(&b.ID, &b.UserID, &b.MachineID, &b.RentalDuration, &b.Quantity, &b.TotalPrice, &b.Status,
		&b.PaymentAddress, &b.TransactionHash, &b.UserNotes, &b.AdminNotes, &b.CreatedAt, &b.UpdatedAt)
}

// InsertBooking creates a booking after re-checking unit availability under a
// row lock on the machine, so concurrent requests cannot oversell.
func (r *PostgresRepository) InsertBooking(ctx context.Context, b Booking) (*Booking, error) {
	var inserted Booking
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		var totalUnits, rentedUnits int
		var active bool
		err := tx.QueryRow(ctx, `
SELECT total_units, rented_units, is_active
FROM mining_machines
WHERE id = $1
FOR UPDATE;
`, b.MachineID).Scan(&totalUnits, &rentedUnits, &active)
		if err != nil {
			return wrapScanErr("lock machine", err)
		}
		if !active {
			return fmt.Errorf("machine inactive: %w", ErrStatusConflict)
		}
		if b.Quantity > totalUnits-rentedUnits {
			return fmt.Errorf("quantity exceeds available units: %w", ErrStatusConflict)
		}

		const q = `
INSERT INTO bookings (user_id, machine_id, rental_duration, quantity, total_price, status, user_notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + bookingColumns + `;
`
		row := tx.QueryRow(ctx, q, b.UserID, b.MachineID, b.RentalDuration, b.Quantity, b.TotalPrice, b.Status, b.UserNotes)
		if err := scanBooking(row, &inserted); err != nil {
			return wrapScanErr("insert booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inserted, nil
}

// GetBooking retrieves a booking by id.
func (r *PostgresRepository) GetBooking(ctx context.Context, id string) (*Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 LIMIT 1;`
	var b Booking
	if err := scanBooking(r.pool.QueryRow(ctx, q, id), &b); err != nil {
		return nil, wrapScanErr("get booking", err)
	}
	return &b, nil
}

// ListBookingsByUser returns a user's bookings, newest first, with the count
// of admin messages the user has not read yet.
func (r *PostgresRepository) ListBookingsByUser(ctx context.Context, userID string) ([]Booking, error) {
	const q = `
SELECT ` + bookingColumns + `,
    (SELECT COUNT(*) FROM booking_messages m
     WHERE m.booking_id = bookings.id AND m.is_from_admin AND NOT m.is_read) AS unread
FROM bookings
WHERE user_id = $1
ORDER BY created_at DESC;
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings by user: %w", err)
	}
	defer rows.Close()
	return collectBookingsWithUnread(rows)
}

// ListBookings returns bookings for the admin view with optional status
// filter and pagination, plus the total row count for the filter.
func (r *PostgresRepository) ListBookings(ctx context.Context, f BookingFilter) ([]Booking, int64, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	where := ""
	args := []any{size, (page - 1) * size}
	if f.Status != "" {
		where = " WHERE status = $3"
		args = append(args, f.Status)
	}

	q := `
SELECT ` + bookingColumns + `,
    (SELECT COUNT(*) FROM booking_messages m
     WHERE m.booking_id = bookings.id AND NOT m.is_from_admin AND NOT m.is_read) AS unread
FROM bookings` + where + `
ORDER BY created_at DESC
LIMIT $1 OFFSET $2;
`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings, err := collectBookingsWithUnread(rows)
	if err != nil {
		return nil, 0, err
	}

	countQ := `SELECT COUNT(*) FROM bookings`
	countArgs := []any{}
	if f.Status != "" {
		countQ += ` WHERE status = $1`
		countArgs = append(countArgs, f.Status)
	}
	var total int64
	if err := r.pool.QueryRow(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}
	return bookings, total, nil
}

func collectBookingsWithUnread(rows pgx.Rows) ([]Booking, error) {
	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.MachineID, &b.RentalDuration, &b.Quantity, &b.TotalPrice, &b.Status,
			&b.PaymentAddress, &b.TransactionHash, &b.UserNotes, &b.AdminNotes, &b.CreatedAt, &b.UpdatedAt, &b.UnreadMessages); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

// TransitionBooking applies a guarded status change and its side effects in
// one transaction. The UPDATE is conditioned on FromStatus so a concurrent
// actor cannot double-apply a transition.
func (r *PostgresRepository) TransitionBooking(ctx context.Context, t BookingTransition) (*Booking, error) {
	var updated Booking
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		const q = `
UPDATE bookings
SET status = $3,
    payment_address = COALESCE($4, payment_address),
    transaction_hash = COALESCE($5, transaction_hash),
    admin_notes = COALESCE($6, admin_notes),
    updated_at = NOW()
WHERE id = $1 AND status = $2
RETURNING ` + bookingColumns + `;
`
		row := tx.QueryRow(ctx, q, t.BookingID, t.FromStatus, t.ToStatus, t.PaymentAddress, t.TransactionHash, t.AdminNotes)
		if err := scanBooking(row, &updated); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				var exists bool
				if checkErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, t.BookingID).Scan(&exists); checkErr != nil {
					return fmt.Errorf("check booking exists: %w", checkErr)
				}
				if !exists {
					return fmt.Errorf("transition booking: %w", ErrNotFound)
				}
				return fmt.Errorf("booking not in status %s: %w", t.FromStatus, ErrStatusConflict)
			}
			return wrapScanErr("transition booking", err)
		}

		if t.SystemMessage != "" {
			if err := insertMessageTx(ctx, tx, t.BookingID, t.SystemMessage, "system", t.MessagesFromAdmin); err != nil {
				return err
			}
		}
		if t.PaymentAddressMessage != "" {
			if err := insertMessageTx(ctx, tx, t.BookingID, t.PaymentAddressMessage, "payment_address", t.MessagesFromAdmin); err != nil {
				return err
			}
		}

		if t.AdjustMachineUnits != 0 {
			const unitQ = `
UPDATE mining_machines
SET rented_units = LEAST(total_units, GREATEST(0, rented_units + $2)), updated_at = NOW()
WHERE id = $1;
`
			if _, err := tx.Exec(ctx, unitQ, updated.MachineID, t.AdjustMachineUnits); err != nil {
				return fmt.Errorf("adjust machine units: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func insertMessageTx(ctx context.Context, tx pgx.Tx, bookingID, content, messageType string, fromAdmin bool) error {
	const q = `
INSERT INTO booking_messages (booking_id, content, message_type, is_from_admin)
VALUES ($1, $2, $3, $4);
`
	if _, err := tx.Exec(ctx, q, bookingID, content, messageType, fromAdmin); err != nil {
		return fmt.Errorf("insert %s message: %w", messageType, err)
	}
	return nil
}
