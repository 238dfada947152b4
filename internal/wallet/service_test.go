package wallet

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"xbin/internal/apperr"
	"xbin/internal/repo"
)

type fakeWalletStore struct {
	ensured map[string][]string
	wallets map[string]map[string]repo.Wallet
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{
		ensured: make(map[string][]string),
		wallets: make(map[string]map[string]repo.Wallet),
	}
}

func (f *fakeWalletStore) EnsureWallets(_ context.Context, userID string, cryptoTypes []string) error {
	f.ensured[userID] = cryptoTypes
	if f.wallets[userID] == nil {
		f.wallets[userID] = make(map[string]repo.Wallet)
	}
	for _, ct := range cryptoTypes {
		if _, ok := f.wallets[userID][ct]; !ok {
			f.wallets[userID][ct] = repo.Wallet{UserID: userID, CryptoType: ct}
		}
	}
	return nil
}

func (f *fakeWalletStore) ListWalletsByUser(_ context.Context, userID string) ([]repo.Wallet, error) {
	var out []repo.Wallet
	for _, w := range f.wallets[userID] {
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeWalletStore) UpdateWalletAddress(_ context.Context, userID, cryptoType, address string) (*repo.Wallet, error) {
	w, ok := f.wallets[userID][cryptoType]
	if !ok {
		return nil, repo.ErrNotFound
	}
	w.WalletAddress = &address
	f.wallets[userID][cryptoType] = w
	return &w, nil
}

func newTestWalletService(store *fakeWalletStore) *Service {
	return New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListEnsuresDefaultWallets(t *testing.T) {
	store := newFakeWalletStore()
	svc := newTestWalletService(store)

	wallets, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(wallets) != len(SupportedCryptoTypes) {
		t.Fatalf("expected %d wallets, got %d", len(SupportedCryptoTypes), len(wallets))
	}
	if len(store.ensured["u1"]) != len(SupportedCryptoTypes) {
		t.Fatal("ensure must run before listing")
	}
}

func TestUpdateAddressValidation(t *testing.T) {
	store := newFakeWalletStore()
	svc := newTestWalletService(store)
	ctx := context.Background()
	if _, err := svc.List(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateAddress(ctx, "u1", "DOGE", "addr"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for unsupported type, got %v", err)
	}
	if _, err := svc.UpdateAddress(ctx, "u1", "BTC", "   "); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for blank address, got %v", err)
	}
}

func TestUpdateAddressNormalisesType(t *testing.T) {
	store := newFakeWalletStore()
	svc := newTestWalletService(store)
	ctx := context.Background()
	if _, err := svc.List(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	w, err := svc.UpdateAddress(ctx, "u1", " btc ", "bc1qaddr")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if w.CryptoType != "BTC" {
		t.Fatalf("expected BTC, got %s", w.CryptoType)
	}
	if w.WalletAddress == nil || *w.WalletAddress != "bc1qaddr" {
		t.Fatal("address not stored")
	}
}
