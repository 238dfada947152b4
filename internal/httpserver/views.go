package httpserver

import (
	"time"

	"xbin/internal/booking"
	"xbin/internal/repo"
)

// View types are the wire shapes of API responses. They exist so repository
// rows can evolve without changing the external contract.

type userView struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	IsActive      bool      `json:"is_active"`
	Phone         *string   `json:"phone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toUserView(u repo.User) userView {
	return userView{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		IsActive:      u.IsActive,
		Phone:         u.Phone,
		CreatedAt:     u.CreatedAt,
	}
}

type machineView struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	HashRate            string  `json:"hash_rate"`
	Power               string  `json:"power"`
	Algorithm           string  `json:"algorithm"`
	Coin                string  `json:"coin"`
	PricePerHour        float64 `json:"price_per_hour"`
	PricePerDay         float64 `json:"price_per_day"`
	PricePerWeek        float64 `json:"price_per_week"`
	PricePerMonth       float64 `json:"price_per_month"`
	DailyProfitEstimate float64 `json:"daily_profit_estimate"`
	TotalUnits          int     `json:"total_units"`
	RentedUnits         int     `json:"rented_units"`
	AvailableUnits      int     `json:"available_units"`
	IsActive            bool    `json:"is_active"`
	IsFeatured          bool    `json:"is_featured"`
	Status              string  `json:"status"`
	ImageURL            *string `json:"image_url,omitempty"`
}

func toMachineView(m repo.Machine) machineView {
	return machineView{
		ID:                  m.ID,
		Name:                m.Name,
		Description:         m.Description,
		HashRate:            m.HashRate,
		Power:               m.Power,
		Algorithm:           m.Algorithm,
		Coin:                m.Coin,
		PricePerHour:        m.PricePerHour,
		PricePerDay:         m.PricePerDay,
		PricePerWeek:        m.PricePerWeek,
		PricePerMonth:       m.PricePerMonth,
		DailyProfitEstimate: m.DailyProfitEstimate,
		TotalUnits:          m.TotalUnits,
		RentedUnits:         m.RentedUnits,
		AvailableUnits:      m.AvailableUnits(),
		IsActive:            m.IsActive,
		IsFeatured:          m.IsFeatured,
		Status:              m.Status,
		ImageURL:            m.ImageURL,
	}
}

func toMachineViews(machines []repo.Machine) []machineView {
	views := make([]machineView, 0, len(machines))
	for _, m := range machines {
		views = append(views, toMachineView(m))
	}
	return views
}

type bookingView struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	MachineID       string               `json:"machine_id"`
	RentalDuration  string               `json:"rental_duration"`
	Quantity        int                  `json:"quantity"`
	TotalPrice      float64              `json:"total_price"`
	Status          string               `json:"status"`
	StatusDisplay   booking.Presentation `json:"status_display"`
	PaymentAddress  *string              `json:"payment_address,omitempty"`
	TransactionHash *string              `json:"transaction_hash,omitempty"`
	UserNotes       *string              `json:"user_notes,omitempty"`
	AdminNotes      *string              `json:"admin_notes,omitempty"`
	UnreadMessages  int                  `json:"unread_messages"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func toBookingView(b repo.Booking) bookingView {
	return bookingView{
		ID:              b.ID,
		UserID:          b.UserID,
		MachineID:       b.MachineID,
		RentalDuration:  b.RentalDuration,
		Quantity:        b.Quantity,
		TotalPrice:      b.TotalPrice,
		Status:          b.Status,
		StatusDisplay:   booking.Present(booking.Status(b.Status)),
		PaymentAddress:  b.PaymentAddress,
		TransactionHash: b.TransactionHash,
		UserNotes:       b.UserNotes,
		AdminNotes:      b.AdminNotes,
		UnreadMessages:  b.UnreadMessages,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toBookingViews(bookings []repo.Booking) []bookingView {
	views := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, toBookingView(b))
	}
	return views
}

type messageView struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	IsFromAdmin bool      `json:"is_from_admin"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

func toMessageViews(messages []repo.BookingMessage) []messageView {
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView{
			ID:          m.ID,
			Content:     m.Content,
			MessageType: m.MessageType,
			IsFromAdmin: m.IsFromAdmin,
			IsRead:      m.IsRead,
			CreatedAt:   m.CreatedAt,
		})
	}
	return views
}

type bookingDetailView struct {
	bookingView
	Messages []messageView `json:"messages"`
}

func toBookingDetailView(d booking.Detail) bookingDetailView {
	return bookingDetailView{
		bookingView: toBookingView(d.Booking),
		Messages:    toMessageViews(d.Messages),
	}
}

type walletView struct {
	ID             string  `json:"id"`
	CryptoType     string  `json:"crypto_type"`
	Balance        float64 `json:"balance"`
	PendingBalance float64 `json:"pending_balance"`
	WalletAddress  *string `json:"wallet_address,omitempty"`
}

func toWalletViews(wallets []repo.Wallet) []walletView {
	views := make([]walletView, 0, len(wallets))
	for _, w := range wallets {
		views = append(views, walletView{
			ID:             w.ID,
			CryptoType:     w.CryptoType,
			Balance:        w.Balance,
			PendingBalance: w.PendingBalance,
			WalletAddress:  w.WalletAddress,
		})
	}
	return views
}

type contactView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toContactView(c repo.ContactSubmission) contactView {
	return contactView{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Subject:   c.Subject,
		Message:   c.Message,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
	}
}

type legalView struct {
	DocType   string    `json:"doc_type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toLegalView(d repo.LegalDocument) legalView {
	return legalView{
		DocType:   d.DocType,
		Title:     d.Title,
		Content:   d.Content,
		Version:   d.Version,
		UpdatedAt: d.UpdatedAt,
	}
}
