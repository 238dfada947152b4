package repo

import (
	"context"
	"fmt"
)

// GetStatistics aggregates the admin dashboard counters.
func (r *PostgresRepository) GetStatistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{BookingsByStatus: map[string]int64{}}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status;`)
	if err != nil {
		return nil, fmt.Errorf("count bookings by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan booking count: %w", err)
		}
		stats.BookingsByStatus[status] = count
		stats.TotalBookings += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking counts: %w", err)
	}

	const q = `
SELECT
    COALESCE((SELECT SUM(total_price) FROM bookings WHERE status = 'approved'), 0),
    (SELECT COUNT(*) FROM users),
    (SELECT COUNT(*) FROM mining_machines WHERE is_active),
    (SELECT COUNT(*) FROM mining_machines),
    (SELECT COUNT(*) FROM contact_submissions WHERE status = 'new');
`
	err = r.pool.QueryRow(ctx, q).Scan(
		&stats.ApprovedRevenue,
		&stats.TotalUsers,
		&stats.ActiveMachines,
		&stats.TotalMachines,
		&stats.UnreadContacts,
	)
	if err != nil {
		return nil, fmt.Errorf("load statistics: %w", err)
	}
	return stats, nil
}

// GetAnalytics returns per-day booking counts and approved revenue for the
// trailing window of days.
func (r *PostgresRepository) GetAnalytics(ctx context.Context, days int) ([]AnalyticsPoint, error) {
	if days <= 0 {
		days = 30
	}
	const q = `
SELECT date_trunc('day', created_at) AS day,
       COUNT(*),
       COALESCE(SUM(total_price) FILTER (WHERE status = 'approved'), 0)
FROM bookings
WHERE created_at >= NOW() - ($1 || ' days')::interval
GROUP BY day
ORDER BY day ASC;
`
	rows, err := r.pool.Query(ctx, q, days)
	if err != nil {
		return nil, fmt.Errorf("load analytics: %w", err)
	}
	defer rows.Close()

	var points []AnalyticsPoint
	for rows.Next() {
		var p AnalyticsPoint
		if err := rows.Scan(&p.Day, &p.Bookings, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scan analytics point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analytics: %w", err)
	}
	return points, nil
}
