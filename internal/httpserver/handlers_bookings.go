package httpserver

import (
	"net/http"

	"xbin/internal/booking"
	"xbin/internal/middleware"
)

func (s *Server) handleListMyBookings(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	bookings, err := s.deps.Bookings.ListMine(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": toBookingViews(bookings)})
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	var req struct {
		MachineID      string `json:"machine_id"`
		RentalDuration string `json:"rental_duration"`
		Quantity       int    `json:"quantity"`
		UserNotes      string `json:"user_notes"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	created, err := s.deps.Bookings.Create(r.Context(), claims.UserID, booking.CreateInput{
		MachineID:      req.MachineID,
		RentalDuration: req.RentalDuration,
		Quantity:       req.Quantity,
		UserNotes:      req.UserNotes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingView(*created))
}

func (s *Server) handleGetMyBooking(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	detail, err := s.deps.Bookings.GetForUser(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDetailView(*detail))
}

func (s *Server) handlePaymentSent(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	var req struct {
		TransactionHash string `json:"transaction_hash"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	updated, err := s.deps.Bookings.MarkPaymentSent(r.Context(), claims.UserID, r.PathValue("id"), req.TransactionHash)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingView(*updated))
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	updated, err := s.deps.Bookings.Cancel(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingView(*updated))
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	detail, err := s.deps.Bookings.GetForUser(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": toMessageViews(detail.Messages)})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	msg, err := s.deps.Bookings.SendMessage(r.Context(), r.PathValue("id"), req.Content, false, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageView{
		ID:          msg.ID,
		Content:     msg.Content,
		MessageType: msg.MessageType,
		IsFromAdmin: msg.IsFromAdmin,
		IsRead:      msg.IsRead,
		CreatedAt:   msg.CreatedAt,
	})
}

func (s *Server) handleMarkMessagesRead(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	updated, err := s.deps.Bookings.MarkRead(r.Context(), r.PathValue("id"), false, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}
