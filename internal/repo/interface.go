package repo

import (
	"context"
	"io/fs"
	"time"
)

// Repository defines the interface for data persistence.
type Repository interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context, filesystem fs.FS) error

	// Users
	InsertUser(ctx context.Context, name, email, passwordHash, role string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error)
	DeleteUser(ctx context.Context, id string) error

	// Password reset
	InsertResetToken(ctx context.Context, token, userID string, expiresAt time.Time) error
	GetResetToken(ctx context.Context, token string) (*PasswordResetToken, error)
	ConsumeResetToken(ctx context.Context, token string) error

	// Machines
	InsertMachine(ctx context.Context, m Machine) (*Machine, error)
	GetMachine(ctx context.Context, id string) (*Machine, error)
	ListMachines(ctx context.Context, activeOnly, featuredOnly bool) ([]Machine, error)
	UpdateMachine(ctx context.Context, m Machine) (*Machine, error)
	ToggleMachineActive(ctx context.Context, id string) (*Machine, error)
	ToggleMachineFeatured(ctx context.Context, id string) (*Machine, error)
	DeleteMachine(ctx context.Context, id string) error

	// Bookings
	InsertBooking(ctx context.Context, b Booking) (*Booking, error)
	GetBooking(ctx context.Context, id string) (*Booking, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]Booking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]Booking, int64, error)
	TransitionBooking(ctx context.Context, t BookingTransition) (*Booking, error)

	// Booking messages
	InsertBookingMessage(ctx context.Context, msg BookingMessage) (*BookingMessage, error)
	ListBookingMessages(ctx context.Context, bookingID string) ([]BookingMessage, error)
	MarkMessagesRead(ctx context.Context, bookingID string, fromAdmin bool) (int64, error)

	// Wallets
	EnsureWallets(ctx context.Context, userID string, cryptoTypes []string) error
	ListWalletsByUser(ctx context.Context, userID string) ([]Wallet, error)
	UpdateWalletAddress(ctx context.Context, userID, cryptoType, address string) (*Wallet, error)

	// Contacts
	InsertContact(ctx context.Context, c ContactSubmission) (*ContactSubmission, error)
	ListContacts(ctx context.Context, status string) ([]ContactSubmission, error)
	UpdateContactStatus(ctx context.Context, id, status string) (*ContactSubmission, error)
	DeleteContact(ctx context.Context, id string) error

	// Subscriptions
	UpsertSubscription(ctx context.Context, email string) (*Subscription, error)
	DeactivateSubscription(ctx context.Context, email string) error
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error

	// Legal documents
	GetLegalDocument(ctx context.Context, docType string) (*LegalDocument, error)
	ListLegalDocuments(ctx context.Context) ([]LegalDocument, error)
	UpsertLegalDocument(ctx context.Context, docType, title, content string) (*LegalDocument, error)

	// Dashboard
	GetStatistics(ctx context.Context) (*Statistics, error)
	GetAnalytics(ctx context.Context, days int) ([]AnalyticsPoint, error)
}

var _ Repository = (*PostgresRepository)(nil)
