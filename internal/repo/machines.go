package repo

import (
	"context"
	"fmt"
)

const machineColumns = `id, name, description, hash_rate, power, algorithm, coin,
price_per_hour, price_per_day, price_per_week, price_per_month, daily_profit_estimate,
total_units, rented_units, is_active, is_featured, status, image_url, created_at, updated_at`

func scanMachine(row interface{ Scan(...any) error }, m *Machine) error {
	return row.Scan(&m.ID, &m.Name, &m.Description, &m.HashRate, &m.Power, &m.Algorithm, &m.Coin,
		&m.PricePerHour, &m.PricePerDay, &m.PricePerWeek, &m.PricePerMonth, &m.DailyProfitEstimate,
		&m.TotalUnits, &m.RentedUnits, &m.IsActive, &m.IsFeatured, &m.Status, &m.ImageURL, &m.CreatedAt, &m.UpdatedAt)
}

// InsertMachine creates a new mining machine record.
func (r *PostgresRepository) InsertMachine(ctx context.Context, m Machine) (*Machine, error) {
	const q = `
INSERT INTO mining_machines
    (name, description, hash_rate, power, algorithm, coin,
     price_per_hour, price_per_day, price_per_week, price_per_month, daily_profit_estimate,
     total_units, rented_units, is_active, is_featured, status, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING ` + machineColumns + `;
`
	var inserted Machine
	row := r.pool.QueryRow(ctx, q,
		m.Name, m.Description, m.HashRate, m.Power, m.Algorithm, m.Coin,
		m.PricePerHour, m.PricePerDay, m.PricePerWeek, m.PricePerMonth, m.DailyProfitEstimate,
		m.TotalUnits, m.RentedUnits, m.IsActive, m.IsFeatured, m.Status, m.ImageURL,
	)
	if err := scanMachine(row, &inserted); err != nil {
		return nil, wrapScanErr("insert machine", err)
	}
	return &inserted, nil
}

// GetMachine retrieves a machine by id.
func (r *PostgresRepository) GetMachine(ctx context.Context, id string) (*Machine, error) {
	const q = `SELECT ` + machineColumns + ` FROM mining_machines WHERE id = $1 LIMIT 1;`
	var m Machine
	if err := scanMachine(r.pool.QueryRow(ctx, q, id), &m); err != nil {
		return nil, wrapScanErr("get machine", err)
	}
	return &m, nil
}

// ListMachines returns machines; activeOnly restricts to the public catalog,
// featuredOnly additionally restricts to featured entries.
func (r *PostgresRepository) ListMachines(ctx context.Context, activeOnly, featuredOnly bool) ([]Machine, error) {
	q := `SELECT ` + machineColumns + ` FROM mining_machines`
	switch {
	case featuredOnly:
		q += ` WHERE is_active AND is_featured`
	case activeOnly:
		q += ` WHERE is_active`
	}
	q += ` ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	defer rows.Close()

	var machines []Machine
	for rows.Next() {
		var m Machine
		if err := scanMachine(rows, &m); err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		machines = append(machines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate machines: %w", err)
	}
	return machines, nil
}

// UpdateMachine replaces the mutable fields of a machine row.
func (r *PostgresRepository) UpdateMachine(ctx context.Context, m Machine) (*Machine, error) {
	const q = `
UPDATE mining_machines
SET name = $2, description = $3, hash_rate = $4, power = $5, algorithm = $6, coin = $7,
    price_per_hour = $8, price_per_day = $9, price_per_week = $10, price_per_month = $11,
    daily_profit_estimate = $12, total_units = $13, is_active = $14, is_featured = $15,
    status = $16, image_url = COALESCE($17, image_url), updated_at = NOW()
WHERE id = $1
RETURNING ` + machineColumns + `;
`
	var updated Machine
	row := r.pool.QueryRow(ctx, q,
		m.ID, m.Name, m.Description, m.HashRate, m.Power, m.Algorithm, m.Coin,
		m.PricePerHour, m.PricePerDay, m.PricePerWeek, m.PricePerMonth,
		m.DailyProfitEstimate, m.TotalUnits, m.IsActive, m.IsFeatured, m.Status, m.ImageURL,
	)
	if err := scanMachine(row, &updated); err != nil {
		return nil, wrapScanErr("update machine", err)
	}
	return &updated, nil
}

// ToggleMachineActive flips is_active and returns the new row.
func (r *PostgresRepository) ToggleMachineActive(ctx context.Context, id string) (*Machine, error) {
	const q = `
UPDATE mining_machines
SET is_active = NOT is_active, updated_at = NOW()
WHERE id = $1
RETURNING ` + machineColumns + `;
`
	var m Machine
	if err := scanMachine(r.pool.QueryRow(ctx, q, id), &m); err != nil {
		return nil, wrapScanErr("toggle machine active", err)
	}
	return &m, nil
}

// ToggleMachineFeatured flips is_featured and returns the new row.
func (r *PostgresRepository) ToggleMachineFeatured(ctx context.Context, id string) (*Machine, error) {
	const q = `
UPDATE mining_machines
SET is_featured = NOT is_featured, updated_at = NOW()
WHERE id = $1
RETURNING ` + machineColumns + `;
`
	var m Machine
	if err := scanMachine(r.pool.QueryRow(ctx, q, id), &m); err != nil {
		return nil, wrapScanErr("toggle machine featured", err)
	}
	return &m, nil
}

// DeleteMachine removes a machine. Referencing bookings make it fail with ErrInUse.
func (r *PostgresRepository) DeleteMachine(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM mining_machines WHERE id = $1`, id)
	if err != nil {
		return wrapScanErr("delete machine", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delete machine: %w", ErrNotFound)
	}
	return nil
}
