package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"xbin/internal/repo"
)

func (s *Server) handleAdminListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.BookingFilter{
		Status:   q.Get("status"),
		Page:     intQuery(q.Get("page"), 1),
		PageSize: intQuery(q.Get("page_size"), 20),
	}
	bookings, total, err := s.deps.Bookings.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bookings":  toBookingViews(bookings),
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

func (s *Server) handleAdminGetBooking(w http.ResponseWriter, r *http.Request) {
	detail, err := s.deps.Bookings.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDetailView(*detail))
}

func (s *Server) handleAdminPaymentAddress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentAddress string `json:"payment_address"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	updated, err := s.deps.Bookings.SendPaymentAddress(r.Context(), r.PathValue("id"), req.PaymentAddress)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingView(*updated))
}

func (s *Server) handleAdminApprove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminNotes string `json:"admin_notes"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	updated, err := s.deps.Bookings.Approve(r.Context(), r.PathValue("id"), req.AdminNotes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingView(*updated))
}

func (s *Server) handleAdminReject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminNotes string `json:"admin_notes"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	updated, err := s.deps.Bookings.Reject(r.Context(), r.PathValue("id"), req.AdminNotes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingView(*updated))
}

func (s *Server) handleAdminListMessages(w http.ResponseWriter, r *http.Request) {
	detail, err := s.deps.Bookings.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": toMessageViews(detail.Messages)})
}

func (s *Server) handleAdminSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	msg, err := s.deps.Bookings.SendMessage(r.Context(), r.PathValue("id"), req.Content, true, "")
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

func (s *Server) handleAdminMarkMessagesRead(w http.ResponseWriter, r *http.Request) {
	updated, err := s.deps.Bookings.MarkRead(r.Context(), r.PathValue("id"), true, "")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

type machineRequest struct {
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
	IsActive            *bool   `json:"is_active"`
	IsFeatured          *bool   `json:"is_featured"`
	Status              string  `json:"status"`
	ImageURL            *string `json:"image_url"`
}

func (req machineRequest) toMachine(id string) repo.Machine {
	m := repo.Machine{
		ID:                  id,
		Name:                req.Name,
		Description:         req.Description,
		HashRate:            req.HashRate,
		Power:               req.Power,
		Algorithm:           req.Algorithm,
		Coin:                req.Coin,
		PricePerHour:        req.PricePerHour,
		PricePerDay:         req.PricePerDay,
		PricePerWeek:        req.PricePerWeek,
		PricePerMonth:       req.PricePerMonth,
		DailyProfitEstimate: req.DailyProfitEstimate,
		TotalUnits:          req.TotalUnits,
		Status:              req.Status,
		ImageURL:            req.ImageURL,
		IsActive:            true,
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		m.IsFeatured = *req.IsFeatured
	}
	return m
}

func (s *Server) handleAdminListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := s.deps.Machines.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"machines": toMachineViews(machines)})
}

func (s *Server) handleAdminCreateMachine(w http.ResponseWriter, r *http.Request) {
	var req machineRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	created, err := s.deps.Machines.Create(r.Context(), req.toMachine(""))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMachineView(*created))
}

func (s *Server) handleAdminGetMachine(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.Machines.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMachineView(*m))
}

func (s *Server) handleAdminUpdateMachine(w http.ResponseWriter, r *http.Request) {
	var req machineRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	updated, err := s.deps.Machines.Update(r.Context(), req.toMachine(r.PathValue("id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMachineView(*updated))
}

func (s *Server) handleAdminToggleActive(w http.ResponseWriter, r *http.Request) {
	updated, err := s.deps.Machines.ToggleActive(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMachineView(*updated))
}

func (s *Server) handleAdminToggleFeatured(w http.ResponseWriter, r *http.Request) {
	updated, err := s.deps.Machines.ToggleFeatured(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMachineView(*updated))
}

func (s *Server) handleAdminDeleteMachine(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Machines.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "machine deleted"})
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Repository.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}

func (s *Server) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Repository.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*u))
}

func (s *Server) handleAdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          *string `json:"name"`
		Phone         *string `json:"phone"`
		Role          *string `json:"role"`
		IsActive      *bool   `json:"is_active"`
		EmailVerified *bool   `json:"email_verified"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Role != nil && *req.Role != "user" && *req.Role != "admin" && *req.Role != "manager" {
		badRequest(w, "role must be one of user, admin, manager")
		return
	}
	updated, err := s.deps.Repository.UpdateUser(r.Context(), r.PathValue("id"), repo.UserUpdate{
		Name:          req.Name,
		Phone:         req.Phone,
		Role:          req.Role,
		IsActive:      req.IsActive,
		EmailVerified: req.EmailVerified,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*updated))
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Repository.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (s *Server) handleAdminListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.deps.Repository.ListContacts(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]contactView, 0, len(contacts))
	for _, c := range contacts {
		views = append(views, toContactView(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": views})
}

func (s *Server) handleAdminUpdateContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	switch req.Status {
	case "new", "read", "replied":
	default:
		badRequest(w, "status must be one of new, read, replied")
		return
	}
	updated, err := s.deps.Repository.UpdateContactStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContactView(*updated))
}

func (s *Server) handleAdminDeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Repository.DeleteContact(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "contact deleted"})
}

func (s *Server) handleAdminListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.deps.Repository.ListSubscriptions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	type subView struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		IsActive  bool      `json:"is_active"`
		CreatedAt time.Time `json:"created_at"`
	}
	views := make([]subView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, subView{ID: sub.ID, Email: sub.Email, IsActive: sub.IsActive, CreatedAt: sub.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscriptions": views})
}

func (s *Server) handleAdminDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Repository.DeleteSubscription(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "subscription deleted"})
}

func (s *Server) handleAdminListLegal(w http.ResponseWriter, r *http.Request) {
	docs, err := s.deps.Repository.ListLegalDocuments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]legalView, 0, len(docs))
	for _, d := range docs {
		views = append(views, toLegalView(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": views})
}

func (s *Server) handleAdminUpsertLegal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Title == "" || req.Content == "" {
		badRequest(w, "title and content are required")
		return
	}
	doc, err := s.deps.Repository.UpsertLegalDocument(r.Context(), r.PathValue("docType"), req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLegalView(*doc))
}

func (s *Server) handleAdminStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Repository.GetStatistics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bookings_by_status": stats.BookingsByStatus,
		"total_bookings":     stats.TotalBookings,
		"approved_revenue":   stats.ApprovedRevenue,
		"total_users":        stats.TotalUsers,
		"active_machines":    stats.ActiveMachines,
		"total_machines":     stats.TotalMachines,
		"unread_contacts":    stats.UnreadContacts,
	})
}

func (s *Server) handleAdminAnalytics(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r.URL.Query().Get("days"), 30)
	if days < 1 || days > 365 {
		badRequest(w, "days must be between 1 and 365")
		return
	}
	points, err := s.deps.Repository.GetAnalytics(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	type pointView struct {
		Day      string  `json:"day"`
		Bookings int64   `json:"bookings"`
		Revenue  float64 `json:"revenue"`
	}
	views := make([]pointView, 0, len(points))
	for _, p := range points {
		views = append(views, pointView{Day: p.Day.Format("2006-01-02"), Bookings: p.Bookings, Revenue: p.Revenue})
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days, "points": views})
}

func (s *Server) handleAdminReloadPriceCache(w http.ResponseWriter, r *http.Request) {
	prices, err := s.deps.Prices.Refresh(r.Context())
	if err != nil {
		s.logger.Error("failed reloading price cache", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"count":  len(prices),
	})
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
