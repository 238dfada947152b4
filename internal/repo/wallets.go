package repo

import (
	"context"
	"fmt"
)

const walletColumns = `id, user_id, crypto_type, balance, pending_balance, wallet_address, created_at, updated_at`

func scanWallet(row interface{ Scan(...any) error }, w *Wallet) error {
	return row.Scan(&w.ID, &w.UserID, &w.CryptoType, &w.Balance, &w.PendingBalance, &w.WalletAddress, &w.CreatedAt, &w.UpdatedAt)
}

// EnsureWallets creates missing wallet rows for the given crypto types.
func (r *PostgresRepository) EnsureWallets(ctx context.Context, userID string, cryptoTypes []string) error {
	const q = `
INSERT INTO wallets (user_id, crypto_type)
VALUES ($1, $2)
ON CONFLICT (user_id, crypto_type) DO NOTHING;
`
	for _, ct := range cryptoTypes {
		if _, err := r.pool.Exec(ctx, q, userID, ct); err != nil {
			return fmt.Errorf("ensure wallet %s: %w", ct, err)
		}
	}
	return nil
}

// ListWalletsByUser returns the user's wallets in a stable order.
func (r *PostgresRepository) ListWalletsByUser(ctx context.Context, userID string) ([]Wallet, error) {
	const q = `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 ORDER BY crypto_type ASC;`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []Wallet
	for rows.Next() {
		var w Wallet
		if err := scanWallet(rows, &w); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallets: %w", err)
	}
	return wallets, nil
}

// UpdateWalletAddress sets the receive address on one of the user's wallets.
// Balances are never written through the API surface.
func (r *PostgresRepository) UpdateWalletAddress(ctx context.Context, userID, cryptoType, address string) (*Wallet, error) {
	const q = `
UPDATE wallets
SET wallet_address = $3, updated_at = NOW()
WHERE user_id = $1 AND crypto_type = $2
RETURNING ` + walletColumns + `;
`
	var w Wallet
	if err := scanWallet(r.pool.QueryRow(ctx, q, userID, cryptoType, address), &w); err != nil {
		return nil, wrapScanErr("update wallet address", err)
	}
	return &w, nil
}
