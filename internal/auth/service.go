package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"xbin/internal/apperr"
	"xbin/internal/metrics"
	"xbin/internal/repo"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// DefaultCryptoTypes are the wallets every user gets on registration.
var DefaultCryptoTypes = []string{"BTC", "ETH", "LTC", "USDT"}

// Store is the persistence surface the auth service needs.
type Store interface {
	InsertUser(ctx context.Context, name, email, passwordHash, role string) (*repo.User, error)
	GetUserByID(ctx context.Context, id string) (*repo.User, error)
	GetUserByEmail(ctx context.Context, email string) (*repo.User, error)
	UpdateUser(ctx context.Context, id string, upd repo.UserUpdate) (*repo.User, error)
	EnsureWallets(ctx context.Context, userID string, cryptoTypes []string) error
	InsertResetToken(ctx context.Context, token, userID string, expiresAt time.Time) error
	GetResetToken(ctx context.Context, token string) (*repo.PasswordResetToken, error)
	ConsumeResetToken(ctx context.Context, token string) error
}

// Service implements registration, login and account maintenance.
type Service struct {
	store         Store
	tokens        *TokenManager
	metrics       *metrics.Metrics
	logger        *slog.Logger
	resetTokenTTL time.Duration
}

// New creates the auth service.
func New(store Store, tokens *TokenManager, metricRegistry *metrics.Metrics, logger *slog.Logger, resetTokenTTL time.Duration) *Service {
	if resetTokenTTL <= 0 {
		resetTokenTTL = time.Hour
	}
	return &Service{
		store:         store,
		tokens:        tokens,
		metrics:       metricRegistry,
		logger:        logger.With("component", "auth"),
		resetTokenTTL: resetTokenTTL,
	}
}

// Session is the result of a successful register or login.
type Session struct {
	Token string
	User  repo.User
}

// Register validates input, creates the user and their default wallets, and
// returns a fresh session.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))

	if name == "" {
		return nil, apperr.Validationf("name is required")
	}
	if !emailRegex.MatchString(email) {
		return nil, apperr.Validationf("a valid email is required")
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.InsertUser(ctx, name, email, hash, "user")
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperr.Validationf("email is already registered")
		}
		return nil, err
	}

	if err := s.store.EnsureWallets(ctx, user.ID, DefaultCryptoTypes); err != nil {
		s.metrics.Errors.WithLabelValues("auth").Inc()
		s.logger.Error("failed creating default wallets", "user_id", user.ID, "error", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	s.metrics.AuthAttempts.WithLabelValues("register").Inc()
	s.logger.Info("user registered", "user_id", user.ID)
	return &Session{Token: token, User: *user}, nil
}

// Login verifies credentials and issues a token. Inactive accounts are
// refused.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.metrics.AuthAttempts.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
		}
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		s.metrics.AuthAttempts.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}
	if !user.IsActive {
		s.metrics.AuthAttempts.WithLabelValues("inactive").Inc()
		return nil, fmt.Errorf("account is deactivated: %w", apperr.ErrForbidden)
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	s.metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &Session{Token: token, User: *user}, nil
}

// Profile returns the current user record.
func (s *Service) Profile(ctx context.Context, userID string) (*repo.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// UpdateProfile edits the caller's name and phone.
func (s *Service) UpdateProfile(ctx context.Context, userID string, name, phone *string) (*repo.User, error) {
	if name != nil && strings.TrimSpace(*name) == "" {
		return nil, apperr.Validationf("name cannot be empty")
	}
	return s.store.UpdateUser(ctx, userID, repo.UserUpdate{Name: name, Phone: phone})
}

// ChangePassword verifies the current password before setting a new one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPassword(user.PasswordHash, current) {
		return fmt.Errorf("current password is incorrect: %w", apperr.ErrUnauthorized)
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	_, err = s.store.UpdateUser(ctx, userID, repo.UserUpdate{PasswordHash: &hash})
	return err
}

// RequestPasswordReset issues a single-use reset token. It reports success
// even for unknown emails so the endpoint cannot be used to probe accounts;
// the token is returned to the caller because mail delivery is out of scope.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	token := uuid.NewString()
	if err := s.store.InsertResetToken(ctx, token, user.ID, time.Now().Add(s.resetTokenTTL)); err != nil {
		return "", err
	}
	s.logger.Info("password reset requested", "user_id", user.ID)
	return token, nil
}

// VerifyResetToken reports whether a reset token is still usable.
func (s *Service) VerifyResetToken(ctx context.Context, token string) error {
	rec, err := s.store.GetResetToken(ctx, token)
	if err != nil {
		return err
	}
	if rec.UsedAt != nil || time.Now().After(rec.ExpiresAt) {
		return fmt.Errorf("reset token expired or used: %w", repo.ErrStatusConflict)
	}
	return nil
}

// ResetPassword consumes a valid token and replaces the user's password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	rec, err := s.store.GetResetToken(ctx, token)
	if err != nil {
		return err
	}
	if err := s.store.ConsumeResetToken(ctx, token); err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := s.store.UpdateUser(ctx, rec.UserID, repo.UserUpdate{PasswordHash: &hash}); err != nil {
		return err
	}
	s.logger.Info("password reset completed", "user_id", rec.UserID)
	return nil
}

// EnsureAdmin creates or promotes the bootstrap admin account from config.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	user, err := s.store.InsertUser(ctx, "Administrator", email, hash, "admin")
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", "user_id", user.ID)
	return nil
}
