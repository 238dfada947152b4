package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"xbin/internal/apperr"
	"xbin/internal/metrics"
	"xbin/internal/repo"
)

// Store is the persistence surface the booking service needs.
type Store interface {
	InsertBooking(ctx context.Context, b repo.Booking) (*repo.Booking, error)
	GetBooking(ctx context.Context, id string) (*repo.Booking, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]repo.Booking, error)
	ListBookings(ctx context.Context, f repo.BookingFilter) ([]repo.Booking, int64, error)
	TransitionBooking(ctx context.Context, t repo.BookingTransition) (*repo.Booking, error)
	InsertBookingMessage(ctx context.Context, msg repo.BookingMessage) (*repo.BookingMessage, error)
	ListBookingMessages(ctx context.Context, bookingID string) ([]repo.BookingMessage, error)
	MarkMessagesRead(ctx context.Context, bookingID string, fromAdmin bool) (int64, error)
	GetMachine(ctx context.Context, id string) (*repo.Machine, error)
}

// Service owns the booking lifecycle: creation, the status lattice and the
// two-party message thread.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates the booking service.
func New(store Store, metricRegistry *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		metrics: metricRegistry,
		logger:  logger.With("component", "booking"),
	}
}

// CreateInput carries a booking creation request.
type CreateInput struct {
	MachineID      string
	RentalDuration string
	Quantity       int
	UserNotes      string
}

// Detail bundles a booking with its message thread.
type Detail struct {
	Booking  repo.Booking
	Messages []repo.BookingMessage
}

// Create validates the request, prices it from the machine's current rates
// and stores the booking in pending state.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*repo.Booking, error) {
	if strings.TrimSpace(in.MachineID) == "" {
		return nil, apperr.Validationf("machine_id is required")
	}
	duration := Duration(in.RentalDuration)
	if !duration.Valid() {
		return nil, apperr.Validationf("rental_duration must be one of hour, day, week, month")
	}
	if in.Quantity < 1 {
		return nil, apperr.Validationf("quantity must be at least 1")
	}

	machine, err := s.store.GetMachine(ctx, in.MachineID)
	if err != nil {
		return nil, err
	}
	if !machine.IsActive {
		return nil, apperr.Validationf("machine is not available for booking")
	}
	if in.Quantity > machine.AvailableUnits() {
		return nil, apperr.Validationf("only %d unit(s) available", machine.AvailableUnits())
	}

	b := repo.Booking{
		UserID:         userID,
		MachineID:      machine.ID,
		RentalDuration: string(duration),
		Quantity:       in.Quantity,
		TotalPrice:     Quote(*machine, duration, in.Quantity),
		Status:         string(StatusPending),
	}
	if notes := strings.TrimSpace(in.UserNotes); notes != "" {
		b.UserNotes = &notes
	}

	created, err := s.store.InsertBooking(ctx, b)
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking created",
		"booking_id", created.ID,
		"machine_id", created.MachineID,
		"quantity", created.Quantity,
		"total_price", created.TotalPrice,
	)
	return created, nil
}

// ListMine returns the caller's bookings with unread-admin-message counts.
func (s *Service) ListMine(ctx context.Context, userID string) ([]repo.Booking, error) {
	return s.store.ListBookingsByUser(ctx, userID)
}

// List returns the admin booking listing.
func (s *Service) List(ctx context.Context, f repo.BookingFilter) ([]repo.Booking, int64, error) {
	if f.Status != "" && !Status(f.Status).Valid() {
		return nil, 0, apperr.Validationf("unknown status %q", f.Status)
	}
	return s.store.ListBookings(ctx, f)
}

// Get returns a booking detail for an admin.
func (s *Service) Get(ctx context.Context, bookingID string) (*Detail, error) {
	return s.detail(ctx, bookingID, "")
}

// GetForUser returns a booking detail, enforcing ownership.
func (s *Service) GetForUser(ctx context.Context, userID, bookingID string) (*Detail, error) {
	return s.detail(ctx, bookingID, userID)
}

func (s *Service) detail(ctx context.Context, bookingID, ownerID string) (*Detail, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && b.UserID != ownerID {
		return nil, apperr.ErrForbidden
	}
	messages, err := s.store.ListBookingMessages(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &Detail{Booking: *b, Messages: messages}, nil
}

// SendPaymentAddress moves pending → awaiting_payment and posts the address
// into the thread.
func (s *Service) SendPaymentAddress(ctx context.Context, bookingID, address string) (*repo.Booking, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, apperr.Validationf("payment address is required")
	}
	return s.transition(ctx, repo.BookingTransition{
		BookingID:             bookingID,
		FromStatus:            string(StatusPending),
		ToStatus:              string(StatusAwaitingPayment),
		PaymentAddress:        &address,
		SystemMessage:         "Payment address sent. Transfer the total amount to the address below to proceed.",
		PaymentAddressMessage: address,
		MessagesFromAdmin:     true,
	}, ActorAdmin)
}

// MarkPaymentSent moves awaiting_payment → payment_sent on behalf of the
// booking owner, optionally recording the transaction hash.
func (s *Service) MarkPaymentSent(ctx context.Context, userID, bookingID, txHash string) (*repo.Booking, error) {
	if err := s.requireOwner(ctx, userID, bookingID); err != nil {
		return nil, err
	}
	t := repo.BookingTransition{
		BookingID:     bookingID,
		FromStatus:    string(StatusAwaitingPayment),
		ToStatus:      string(StatusPaymentSent),
		SystemMessage: "Payment marked as sent by the customer.",
	}
	if hash := strings.TrimSpace(txHash); hash != "" {
		t.TransactionHash = &hash
		t.SystemMessage = fmt.Sprintf("Payment marked as sent by the customer (tx %s).", hash)
	}
	return s.transition(ctx, t, ActorUser)
}

// Approve moves payment_sent → approved and allocates the rented units.
func (s *Service) Approve(ctx context.Context, bookingID, notes string) (*repo.Booking, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	t := repo.BookingTransition{
		BookingID:          bookingID,
		FromStatus:         string(StatusPaymentSent),
		ToStatus:           string(StatusApproved),
		SystemMessage:      "Booking approved. Your machines are being provisioned.",
		AdjustMachineUnits: b.Quantity,
		MessagesFromAdmin:  true,
	}
	if n := strings.TrimSpace(notes); n != "" {
		t.AdminNotes = &n
	}
	return s.transition(ctx, t, ActorAdmin)
}

// Reject moves payment_sent → rejected.
func (s *Service) Reject(ctx context.Context, bookingID, notes string) (*repo.Booking, error) {
	t := repo.BookingTransition{
		BookingID:         bookingID,
		FromStatus:        string(StatusPaymentSent),
		ToStatus:          string(StatusRejected),
		SystemMessage:     "Booking rejected.",
		MessagesFromAdmin: true,
	}
	if n := strings.TrimSpace(notes); n != "" {
		t.AdminNotes = &n
		t.SystemMessage = fmt.Sprintf("Booking rejected: %s", n)
	}
	return s.transition(ctx, t, ActorAdmin)
}

// Cancel lets the owner cancel a booking that has not yet reached
// payment_sent.
func (s *Service) Cancel(ctx context.Context, userID, bookingID string) (*repo.Booking, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, apperr.ErrForbidden
	}
	from := Status(b.Status)
	if !CanTransition(from, StatusCancelled, ActorUser) {
		return nil, fmt.Errorf("cannot cancel a booking in status %s: %w", b.Status, repo.ErrStatusConflict)
	}
	return s.transition(ctx, repo.BookingTransition{
		BookingID:     bookingID,
		FromStatus:    string(from),
		ToStatus:      string(StatusCancelled),
		SystemMessage: "Booking cancelled by the customer.",
	}, ActorUser)
}

func (s *Service) transition(ctx context.Context, t repo.BookingTransition, actor Actor) (*repo.Booking, error) {
	if !CanTransition(Status(t.FromStatus), Status(t.ToStatus), actor) {
		return nil, fmt.Errorf("transition %s -> %s not permitted for %s: %w", t.FromStatus, t.ToStatus, actor, repo.ErrStatusConflict)
	}
	updated, err := s.store.TransitionBooking(ctx, t)
	if err != nil {
		return nil, err
	}
	s.metrics.BookingTransitions.WithLabelValues(t.FromStatus, t.ToStatus).Inc()
	s.logger.Info("booking transitioned",
		"booking_id", t.BookingID,
		"from", t.FromStatus,
		"to", t.ToStatus,
		"actor", string(actor),
	)
	return updated, nil
}

// SendMessage appends a text message to the thread. Owners may only write to
// their own bookings; admin authorship is decided by the calling endpoint.
func (s *Service) SendMessage(ctx context.Context, bookingID, content string, fromAdmin bool, userID string) (*repo.BookingMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validationf("message content is required")
	}
	if !fromAdmin {
		if err := s.requireOwner(ctx, userID, bookingID); err != nil {
			return nil, err
		}
	}
	return s.store.InsertBookingMessage(ctx, repo.BookingMessage{
		BookingID:   bookingID,
		Content:     content,
		MessageType: "text",
		IsFromAdmin: fromAdmin,
	})
}

// MarkRead clears the counterpart's unread flags: users clear admin messages,
// admins clear user messages.
func (s *Service) MarkRead(ctx context.Context, bookingID string, byAdmin bool, userID string) (int64, error) {
	if !byAdmin {
		if err := s.requireOwner(ctx, userID, bookingID); err != nil {
			return 0, err
		}
	}
	return s.store.MarkMessagesRead(ctx, bookingID, !byAdmin)
}

func (s *Service) requireOwner(ctx context.Context, userID, bookingID string) error {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.UserID != userID {
		return apperr.ErrForbidden
	}
	return nil
}
