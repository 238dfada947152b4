// Package httpserver exposes the platform's REST API.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"xbin/internal/auth"
	"xbin/internal/booking"
	"xbin/internal/cache"
	"xbin/internal/machine"
	"xbin/internal/metrics"
	"xbin/internal/middleware"
	"xbin/internal/pricefeed"
	"xbin/internal/repo"
	"xbin/internal/wallet"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies exposes core dependencies to the route handlers.
type Dependencies struct {
	Repository repo.Repository
	Redis      *cache.Redis
	Auth       *auth.Service
	Bookings   *booking.Service
	Machines   *machine.Service
	Wallets    *wallet.Service
	Prices     *pricefeed.Service
	Tokens     *auth.TokenManager
}

// Server wraps an http.Server with the API routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *metrics.Metrics
	deps       Dependencies
	basePath   string
}

// New creates the HTTP server listening on addr. authLimiter throttles the
// credential endpoints; pass nil to disable.
func New(addr string, logger *slog.Logger, metricRegistry *metrics.Metrics, deps Dependencies, basePath string, authLimiter *middleware.RateLimiter) *Server {
	server := &Server{
		logger:   logger.With("component", "http"),
		metrics:  metricRegistry,
		deps:     deps,
		basePath: normaliseBasePath(basePath),
	}

	authed := middleware.Authenticate(deps.Tokens)
	adminOnly := middleware.RequireRole("admin", "manager")
	limited := func(h http.Handler) http.Handler {
		if authLimiter == nil {
			return h
		}
		return authLimiter.Handler(h)
	}
	user := func(h http.HandlerFunc) http.Handler { return authed(h) }
	admin := func(h http.HandlerFunc) http.Handler { return authed(adminOnly(h)) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", server.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Public.
	mux.Handle("POST /api/auth/register", limited(http.HandlerFunc(server.handleRegister)))
	mux.Handle("POST /api/auth/login", limited(http.HandlerFunc(server.handleLogin)))
	mux.Handle("POST /api/auth/password-reset/request", limited(http.HandlerFunc(server.handleForgotPassword)))
	mux.HandleFunc("GET /api/auth/password-reset/verify", server.handleVerifyResetToken)
	mux.Handle("POST /api/auth/password-reset/confirm", limited(http.HandlerFunc(server.handleResetPassword)))

	mux.HandleFunc("GET /api/machines", server.handleListMachines)
	mux.HandleFunc("GET /api/machines/featured", server.handleListFeaturedMachines)
	mux.HandleFunc("GET /api/machines/{id}", server.handleGetMachine)
	mux.HandleFunc("GET /api/prices", server.handlePrices)
	mux.HandleFunc("POST /api/contact", server.handleContact)
	mux.HandleFunc("POST /api/subscriptions", server.handleSubscribe)
	mux.HandleFunc("DELETE /api/subscriptions", server.handleUnsubscribe)
	mux.HandleFunc("GET /api/legal/{docType}", server.handleGetLegal)

	// Authenticated.
	mux.Handle("GET /api/profile", user(server.handleProfile))
	mux.Handle("PATCH /api/profile", user(server.handleUpdateProfile))
	mux.Handle("POST /api/profile/password", user(server.handleChangePassword))

	mux.Handle("GET /api/bookings", user(server.handleListMyBookings))
	mux.Handle("POST /api/bookings", user(server.handleCreateBooking))
	mux.Handle("GET /api/bookings/{id}", user(server.handleGetMyBooking))
	mux.Handle("POST /api/bookings/{id}/payment-sent", user(server.handlePaymentSent))
	mux.Handle("POST /api/bookings/{id}/cancel", user(server.handleCancelBooking))
	mux.Handle("GET /api/bookings/{id}/messages", user(server.handleListMessages))
	mux.Handle("POST /api/bookings/{id}/messages", user(server.handleSendMessage))
	mux.Handle("POST /api/bookings/{id}/messages/read", user(server.handleMarkMessagesRead))

	mux.Handle("GET /api/wallets", user(server.handleListWallets))
	mux.Handle("PUT /api/wallets/address", user(server.handleUpdateWalletAddress))

	// Admin.
	mux.Handle("GET /api/admin/bookings", admin(server.handleAdminListBookings))
	mux.Handle("GET /api/admin/bookings/{id}", admin(server.handleAdminGetBooking))
	mux.Handle("POST /api/admin/bookings/{id}/payment-address", admin(server.handleAdminPaymentAddress))
	mux.Handle("POST /api/admin/bookings/{id}/approve", admin(server.handleAdminApprove))
	mux.Handle("POST /api/admin/bookings/{id}/reject", admin(server.handleAdminReject))
	mux.Handle("GET /api/admin/bookings/{id}/messages", admin(server.handleAdminListMessages))
	mux.Handle("POST /api/admin/bookings/{id}/messages", admin(server.handleAdminSendMessage))
	mux.Handle("POST /api/admin/bookings/{id}/messages/read", admin(server.handleAdminMarkMessagesRead))

	mux.Handle("GET /api/admin/machines", admin(server.handleAdminListMachines))
	mux.Handle("POST /api/admin/machines", admin(server.handleAdminCreateMachine))
	mux.Handle("GET /api/admin/machines/{id}", admin(server.handleAdminGetMachine))
	mux.Handle("PUT /api/admin/machines/{id}", admin(server.handleAdminUpdateMachine))
	mux.Handle("POST /api/admin/machines/{id}/toggle-active", admin(server.handleAdminToggleActive))
	mux.Handle("POST /api/admin/machines/{id}/toggle-featured", admin(server.handleAdminToggleFeatured))
	mux.Handle("DELETE /api/admin/machines/{id}", admin(server.handleAdminDeleteMachine))

	mux.Handle("GET /api/admin/users", admin(server.handleAdminListUsers))
	mux.Handle("GET /api/admin/users/{id}", admin(server.handleAdminGetUser))
	mux.Handle("PUT /api/admin/users/{id}", admin(server.handleAdminUpdateUser))
	mux.Handle("DELETE /api/admin/users/{id}", admin(server.handleAdminDeleteUser))

	mux.Handle("GET /api/admin/contacts", admin(server.handleAdminListContacts))
	mux.Handle("POST /api/admin/contacts/{id}/status", admin(server.handleAdminUpdateContact))
	mux.Handle("DELETE /api/admin/contacts/{id}", admin(server.handleAdminDeleteContact))

	mux.Handle("GET /api/admin/subscriptions", admin(server.handleAdminListSubscriptions))
	mux.Handle("DELETE /api/admin/subscriptions/{id}", admin(server.handleAdminDeleteSubscription))

	mux.Handle("GET /api/admin/legal-documents", admin(server.handleAdminListLegal))
	mux.Handle("PUT /api/admin/legal-documents/{docType}", admin(server.handleAdminUpsertLegal))

	mux.Handle("GET /api/admin/statistics", admin(server.handleAdminStatistics))
	mux.Handle("GET /api/admin/analytics", admin(server.handleAdminAnalytics))
	mux.Handle("POST /api/admin/reload-price-cache", admin(server.handleAdminReloadPriceCache))

	handler := mountWithBasePath(server.basePath, server.instrument(mux))

	server.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if server.basePath != "" {
		server.logger.Info("http server configured with base path", "base_path", server.basePath)
	}

	return server
}

// Start begins listening for incoming HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the full request handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// instrument records request counts and latency per registered route pattern,
// so path parameters do not explode the label space.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.HTTPRequests.WithLabelValues(route, r.Method, fmt.Sprintf("%d", rec.status)).Inc()
		s.metrics.HTTPLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	checks := map[string]string{"database": "ok", "redis": "ok"}
	if err := s.deps.Repository.Ping(ctx); err != nil {
		status, checks["database"] = "degraded", err.Error()
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Ping(ctx); err != nil {
			status, checks["redis"] = "degraded", err.Error()
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

func mountWithBasePath(basePath string, handler http.Handler) http.Handler {
	if basePath == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, basePath) {
			http.NotFound(w, r)
			return
		}
		if len(r.URL.Path) > len(basePath) && r.URL.Path[len(basePath)] != '/' {
			http.NotFound(w, r)
			return
		}
		trimmed := strings.TrimPrefix(r.URL.Path, basePath)
		if trimmed == "" {
			trimmed = "/"
		}
		r.URL.Path = trimmed
		if r.URL.RawPath != "" {
			rawTrimmed := strings.TrimPrefix(r.URL.RawPath, basePath)
			if rawTrimmed == "" {
				rawTrimmed = "/"
			}
			r.URL.RawPath = rawTrimmed
		}
		handler.ServeHTTP(w, r)
	})
}

func normaliseBasePath(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" {
		return ""
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimSuffix(base, "/")
}
