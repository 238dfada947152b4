package httpserver

import (
	"net/http"
	"regexp"
	"strings"

	"xbin/internal/repo"
)

var contactEmailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := s.deps.Machines.ListPublic(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"machines": toMachineViews(machines)})
}

func (s *Server) handleListFeaturedMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := s.deps.Machines.ListFeatured(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"machines": toMachineViews(machines)})
}

func (s *Server) handleGetMachine(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.Machines.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	// Inactive machines stay out of the public catalog entirely.
	if !m.IsActive {
		writeError(w, repo.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toMachineView(*m))
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("refresh") == "1"
	prices, err := s.deps.Prices.Get(r.Context(), force)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prices": prices})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)

	switch {
	case req.Name == "":
		badRequest(w, "name is required")
		return
	case !contactEmailRegex.MatchString(req.Email):
		badRequest(w, "a valid email is required")
		return
	case req.Subject == "":
		badRequest(w, "subject is required")
		return
	case req.Message == "":
		badRequest(w, "message is required")
		return
	}

	created, err := s.deps.Repository.InsertContact(r.Context(), repo.ContactSubmission{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
		Status:  "new",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContactView(*created))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !contactEmailRegex.MatchString(email) {
		badRequest(w, "a valid email is required")
		return
	}
	sub, err := s.deps.Repository.UpsertSubscription(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"email":     sub.Email,
		"is_active": sub.IsActive,
	})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		badRequest(w, "email is required")
		return
	}
	if err := s.deps.Repository.DeactivateSubscription(r.Context(), email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "unsubscribed"})
}

func (s *Server) handleGetLegal(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Repository.GetLegalDocument(r.Context(), r.PathValue("docType"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLegalView(*doc))
}
