package repo

import "time"

// User represents the users table row.
type User struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	Role          string
	EmailVerified bool
	IsActive      bool
	Phone         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserUpdate carries mutable profile and admin-editable fields. Nil means
// leave unchanged.
type UserUpdate struct {
	Name          *string
	Phone         *string
	Role          *string
	IsActive      *bool
	EmailVerified *bool
	PasswordHash  *string
}

// Machine represents a mining_machines table row.
type Machine struct {
	ID                  string
	Name                string
	Description         string
	HashRate            string
	Power               string
	Algorithm           string
	Coin                string
	PricePerHour        float64
	PricePerDay         float64
	PricePerWeek        float64
	PricePerMonth       float64
	DailyProfitEstimate float64
	TotalUnits          int
	RentedUnits         int
	IsActive            bool
	IsFeatured          bool
	Status              string
	ImageURL            *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AvailableUnits is derived, never persisted.
func (m Machine) AvailableUnits() int {
	units := m.TotalUnits - m.RentedUnits
	if units < 0 {
		return 0
	}
	return units
}

// Booking represents a bookings table row.
type Booking struct {
	ID              string
	UserID          string
	MachineID       string
	RentalDuration  string
	Quantity        int
	TotalPrice      float64
	Status          string
	PaymentAddress  *string
	TransactionHash *string
	UserNotes       *string
	AdminNotes      *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// UnreadMessages counts thread messages unread by the requesting side.
	// Populated by list queries, not stored.
	UnreadMessages int
}

// BookingMessage represents a booking_messages table row.
type BookingMessage struct {
	ID          string
	BookingID   string
	Content     string
	MessageType string
	IsFromAdmin bool
	IsRead      bool
	CreatedAt   time.Time
}

// BookingFilter narrows admin booking listings.
type BookingFilter struct {
	Status   string
	Page     int
	PageSize int
}

// BookingTransition describes an atomic status change with its side effects.
type BookingTransition struct {
	BookingID       string
	FromStatus      string
	ToStatus        string
	PaymentAddress  *string
	TransactionHash *string
	AdminNotes      *string

	// SystemMessage is appended to the thread as part of the transition.
	SystemMessage string
	// PaymentAddressMessage, when non-empty, is appended as a
	// payment_address typed message.
	PaymentAddressMessage string
	// AdjustMachineUnits is added to the machine's rented_units.
	AdjustMachineUnits int
	// MessagesFromAdmin marks the side-effect messages as admin-authored.
	MessagesFromAdmin bool
}

// Wallet represents a wallets table row.
type Wallet struct {
	ID             string
	UserID         string
	CryptoType     string
	Balance        float64
	PendingBalance float64
	WalletAddress  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ContactSubmission represents a contact_submissions table row.
type ContactSubmission struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Message   string
	Status    string
	CreatedAt time.Time
}

// Subscription represents a subscriptions table row.
type Subscription struct {
	ID        string
	Email     string
	IsActive  bool
	CreatedAt time.Time
}

// LegalDocument represents a legal_documents table row.
type LegalDocument struct {
	ID        string
	DocType   string
	Title     string
	Content   string
	Version   int
	UpdatedAt time.Time
}

// PasswordResetToken represents a password_reset_tokens table row.
type PasswordResetToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Statistics aggregates admin dashboard counters.
type Statistics struct {
	BookingsByStatus map[string]int64
	TotalBookings    int64
	ApprovedRevenue  float64
	TotalUsers       int64
	ActiveMachines   int64
	TotalMachines    int64
	UnreadContacts   int64
}

// AnalyticsPoint is one day of booking/revenue activity.
type AnalyticsPoint struct {
	Day      time.Time
	Bookings int64
	Revenue  float64
}
