package wallet

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"xbin/internal/apperr"
	"xbin/internal/repo"
)

// SupportedCryptoTypes lists the currencies the platform keeps balances in.
var SupportedCryptoTypes = []string{"BTC", "ETH", "LTC", "USDT"}

// Store is the persistence surface the wallet service needs.
type Store interface {
	EnsureWallets(ctx context.Context, userID string, cryptoTypes []string) error
	ListWalletsByUser(ctx context.Context, userID string) ([]repo.Wallet, error)
	UpdateWalletAddress(ctx context.Context, userID, cryptoType, address string) (*repo.Wallet, error)
}

// Service exposes the user's per-currency balance records. Balances are
// written by settlement jobs outside this API; the only mutation offered here
// is the receive address.
type Service struct {
	store  Store
	logger *slog.Logger
}

// New creates the wallet service.
func New(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger.With("component", "wallets")}
}

// List returns the caller's wallets, creating any missing default rows first
// so older accounts pick up newly supported currencies.
func (s *Service) List(ctx context.Context, userID string) ([]repo.Wallet, error) {
	if err := s.store.EnsureWallets(ctx, userID, SupportedCryptoTypes); err != nil {
		return nil, err
	}
	return s.store.ListWalletsByUser(ctx, userID)
}

// UpdateAddress sets the receive address for one of the caller's wallets.
func (s *Service) UpdateAddress(ctx context.Context, userID, cryptoType, address string) (*repo.Wallet, error) {
	cryptoType = strings.ToUpper(strings.TrimSpace(cryptoType))
	if !slices.Contains(SupportedCryptoTypes, cryptoType) {
		return nil, apperr.Validationf("unsupported crypto type %q", cryptoType)
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, apperr.Validationf("wallet address is required")
	}
	w, err := s.store.UpdateWalletAddress(ctx, userID, cryptoType, address)
	if err != nil {
		return nil, err
	}
	s.logger.Info("wallet address updated", "user_id", userID, "crypto_type", cryptoType)
	return w, nil
}
