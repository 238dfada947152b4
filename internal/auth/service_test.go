package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"xbin/internal/apperr"
	"xbin/internal/metrics"
	"xbin/internal/repo"
)

type fakeUserStore struct {
	users       map[string]repo.User
	wallets     map[string][]string
	resetTokens map[string]repo.PasswordResetToken
	insertCalls int
	nextID      int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:       make(map[string]repo.User),
		wallets:     make(map[string][]string),
		resetTokens: make(map[string]repo.PasswordResetToken),
	}
}

func (f *fakeUserStore) InsertUser(_ context.Context, name, email, passwordHash, role string) (*repo.User, error) {
	f.insertCalls++
	for _, u := range f.users {
		if u.Email == email {
			return nil, repo.ErrDuplicate
		}
	}
	f.nextID++
	u := repo.User{
		ID:           fmt.Sprintf("u-%d", f.nextID),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
	}
	f.users[u.ID] = u
	return &u, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*repo.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*repo.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUserStore) UpdateUser(_ context.Context, id string, upd repo.UserUpdate) (*repo.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Phone != nil {
		u.Phone = upd.Phone
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	f.users[id] = u
	return &u, nil
}

func (f *fakeUserStore) EnsureWallets(_ context.Context, userID string, cryptoTypes []string) error {
	f.wallets[userID] = cryptoTypes
	return nil
}

func (f *fakeUserStore) InsertResetToken(_ context.Context, token, userID string, expiresAt time.Time) error {
	f.resetTokens[token] = repo.PasswordResetToken{Token: token, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeUserStore) GetResetToken(_ context.Context, token string) (*repo.PasswordResetToken, error) {
	rec, ok := f.resetTokens[token]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeUserStore) ConsumeResetToken(_ context.Context, token string) error {
	rec, ok := f.resetTokens[token]
	if !ok || rec.UsedAt != nil {
		return repo.ErrNotFound
	}
	now := time.Now()
	rec.UsedAt = &now
	f.resetTokens[token] = rec
	return nil
}

func newTestAuthService(store *fakeUserStore) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := NewTokenManager("test-secret", time.Hour)
	return New(store, tokens, metrics.Registry("test"), logger, time.Hour)
}

func TestRegisterValidatesBeforeStore(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	cases := []struct{ name, email, password string }{
		{"", "a@b.com", "longenough"},
		{"Alice", "not-an-email", "longenough"},
		{"Alice", "a@b.com", "short"},
	}
	for _, c := range cases {
		if _, err := svc.Register(ctx, c.name, c.email, c.password); !apperr.IsValidation(err) {
			t.Fatalf("case %+v: expected validation error, got %v", c, err)
		}
	}
	if store.insertCalls != 0 {
		t.Fatalf("store must not be touched for invalid input, got %d inserts", store.insertCalls)
	}
}

func TestRegisterCreatesUserAndWallets(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(store)

	session, err := svc.Register(context.Background(), "Alice", "Alice@Example.com", "longenough")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a session token")
	}
	if session.User.Email != "alice@example.com" {
		t.Fatalf("email must be lowercased, got %s", session.User.Email)
	}
	if session.User.Role != "user" {
		t.Fatalf("expected role user, got %s", session.User.Role)
	}
	if len(store.wallets[session.User.ID]) != len(DefaultCryptoTypes) {
		t.Fatalf("expected %d default wallets, got %d", len(DefaultCryptoTypes), len(store.wallets[session.User.ID]))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "a@b.com", "longenough"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, "Bob", "a@b.com", "longenough"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error on duplicate email, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(store)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "Alice", "a@b.com", "longenough"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(ctx, "a@b.com", "wrong password"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@b.com", "longenough"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("unknown email must look like bad credentials, got %v", err)
	}
	session, err := svc.Login(ctx, "a@b.com", "longenough")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a token")
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(store)
	ctx := context.Background()
	session, err := svc.Register(ctx, "Alice", "a@b.com", "longenough")
	if err != nil {
		t.Fatal(err)
	}
	inactive := false
	if _, err := store.UpdateUser(ctx, session.User.ID, repo.UserUpdate{IsActive: &inactive}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(ctx, "a@b.com", "longenough"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(store)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "Alice", "a@b.com", "longenough"); err != nil {
		t.Fatal(err)
	}

	// Unknown emails report success without issuing a token.
	token, err := svc.RequestPasswordReset(ctx, "nobody@b.com")
	if err != nil || token != "" {
		t.Fatalf("expected silent success for unknown email, got token=%q err=%v", token, err)
	}

	token, err = svc.RequestPasswordReset(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token")
	}
	if err := svc.VerifyResetToken(ctx, token); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if err := svc.ResetPassword(ctx, token, "short"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.ResetPassword(ctx, token, "brand new password"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := svc.Login(ctx, "a@b.com", "brand new password"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.Login(ctx, "a@b.com", "longenough"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("old password must stop working, got %v", err)
	}

	// The token is single use.
	if err := svc.ResetPassword(ctx, token, "another password"); err == nil {
		t.Fatal("expected consumed token to be rejected")
	}
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(store)
	ctx := context.Background()
	session, err := svc.Register(ctx, "Alice", "a@b.com", "longenough")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.ChangePassword(ctx, session.User.ID, "wrong", "new password!"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := svc.ChangePassword(ctx, session.User.ID, "longenough", "new password!"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Login(ctx, "a@b.com", "new password!"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "", ""); err != nil {
		t.Fatalf("blank credentials are a no-op: %v", err)
	}
	if len(store.users) != 0 {
		t.Fatal("no user should be created without credentials")
	}

	if err := svc.EnsureAdmin(ctx, "admin@b.com", "admin password"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	admin, err := store.GetUserByEmail(ctx, "admin@b.com")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if admin.Role != "admin" {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}

	// A second call must not duplicate the account.
	if err := svc.EnsureAdmin(ctx, "admin@b.com", "admin password"); err != nil {
		t.Fatalf("second ensure admin: %v", err)
	}
	if len(store.users) != 1 {
		t.Fatalf("expected one user, got %d", len(store.users))
	}
}
