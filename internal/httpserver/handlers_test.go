package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"xbin/internal/auth"
	"xbin/internal/booking"
	"xbin/internal/machine"
	"xbin/internal/metrics"
	"xbin/internal/pricefeed"
	"xbin/internal/repo"
	"xbin/internal/wallet"
)

// fakeRepo implements the subset of repo.Repository the exercised routes hit.
// The embedded interface panics on anything a test touches unexpectedly.
type fakeRepo struct {
	repo.Repository

	users    map[string]repo.User
	machines map[string]repo.Machine
	bookings map[string]repo.Booking
	messages map[string][]repo.BookingMessage
	wallets  map[string][]repo.Wallet
	nextID   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[string]repo.User),
		machines: make(map[string]repo.Machine),
		bookings: make(map[string]repo.Booking),
		messages: make(map[string][]repo.BookingMessage),
		wallets:  make(map[string][]repo.Wallet),
	}
}

func (f *fakeRepo) id() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeRepo) Ping(context.Context) error { return nil }

func (f *fakeRepo) InsertUser(_ context.Context, name, email, passwordHash, role string) (*repo.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return nil, repo.ErrDuplicate
		}
	}
	u := repo.User{ID: f.id(), Name: name, Email: email, PasswordHash: passwordHash, Role: role, IsActive: true}
	f.users[u.ID] = u
	return &u, nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, id string) (*repo.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (*repo.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeRepo) EnsureWallets(_ context.Context, userID string, cryptoTypes []string) error {
	if len(f.wallets[userID]) != 0 {
		return nil
	}
	for _, ct := range cryptoTypes {
		f.wallets[userID] = append(f.wallets[userID], repo.Wallet{ID: f.id(), UserID: userID, CryptoType: ct})
	}
	return nil
}

func (f *fakeRepo) ListWalletsByUser(_ context.Context, userID string) ([]repo.Wallet, error) {
	return f.wallets[userID], nil
}

func (f *fakeRepo) GetMachine(_ context.Context, id string) (*repo.Machine, error) {
	m, ok := f.machines[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &m, nil
}

func (f *fakeRepo) ListMachines(_ context.Context, activeOnly, featuredOnly bool) ([]repo.Machine, error) {
	var out []repo.Machine
	for _, m := range f.machines {
		if activeOnly && !m.IsActive {
			continue
		}
		if featuredOnly && !m.IsFeatured {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRepo) InsertBooking(_ context.Context, b repo.Booking) (*repo.Booking, error) {
	b.ID = f.id()
	f.bookings[b.ID] = b
	return &b, nil
}

func (f *fakeRepo) GetBooking(_ context.Context, id string) (*repo.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &b, nil
}

func (f *fakeRepo) ListBookingsByUser(_ context.Context, userID string) ([]repo.Booking, error) {
	var out []repo.Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) TransitionBooking(_ context.Context, t repo.BookingTransition) (*repo.Booking, error) {
	b, ok := f.bookings[t.BookingID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if b.Status != t.FromStatus {
		return nil, repo.ErrStatusConflict
	}
	b.Status = t.ToStatus
	if t.PaymentAddress != nil {
		b.PaymentAddress = t.PaymentAddress
	}
	if t.TransactionHash != nil {
		b.TransactionHash = t.TransactionHash
	}
	if t.AdminNotes != nil {
		b.AdminNotes = t.AdminNotes
	}
	f.bookings[b.ID] = b
	if t.SystemMessage != "" {
		f.messages[b.ID] = append(f.messages[b.ID], repo.BookingMessage{
			ID: f.id(), BookingID: b.ID, Content: t.SystemMessage, MessageType: "system", IsFromAdmin: t.MessagesFromAdmin,
		})
	}
	if t.PaymentAddressMessage != "" {
		f.messages[b.ID] = append(f.messages[b.ID], repo.BookingMessage{
			ID: f.id(), BookingID: b.ID, Content: t.PaymentAddressMessage, MessageType: "payment_address", IsFromAdmin: t.MessagesFromAdmin,
		})
	}
	if t.AdjustMachineUnits != 0 {
		m := f.machines[b.MachineID]
		m.RentedUnits += t.AdjustMachineUnits
		f.machines[b.MachineID] = m
	}
	return &b, nil
}

func (f *fakeRepo) InsertBookingMessage(_ context.Context, msg repo.BookingMessage) (*repo.BookingMessage, error) {
	msg.ID = f.id()
	f.messages[msg.BookingID] = append(f.messages[msg.BookingID], msg)
	return &msg, nil
}

func (f *fakeRepo) ListBookingMessages(_ context.Context, bookingID string) ([]repo.BookingMessage, error) {
	return f.messages[bookingID], nil
}

func (f *fakeRepo) MarkMessagesRead(_ context.Context, bookingID string, fromAdmin bool) (int64, error) {
	var n int64
	msgs := f.messages[bookingID]
	for i := range msgs {
		if msgs[i].IsFromAdmin == fromAdmin && !msgs[i].IsRead {
			msgs[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func newTestServer(t *testing.T, store *fakeRepo) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := metrics.Registry("test")
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	prices := pricefeed.New(pricefeed.FetcherFunc(func(context.Context) ([]pricefeed.Price, error) {
		return []pricefeed.Price{{Symbol: "BTC", USD: 67000}}, nil
	}), nil, registry, logger, time.Minute)

	return New(":0", logger, registry, Dependencies{
		Repository: store,
		Auth:       auth.New(store, tokens, registry, logger, time.Hour),
		Bookings:   booking.New(store, registry, logger),
		Machines:   machine.New(store, logger),
		Wallets:    wallet.New(store, logger),
		Prices:     prices,
		Tokens:     tokens,
	}, "", nil)
}

func doJSON(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dest); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func seedTestMachine(store *fakeRepo) {
	store.machines["m1"] = repo.Machine{
		ID: "m1", Name: "Antminer S19", PricePerDay: 10, TotalUnits: 5, IsActive: true,
	}
}

func registerUser(t *testing.T, handler http.Handler, email string) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", "",
		fmt.Sprintf(`{"name":"Test","email":%q,"password":"longenough"}`, email))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &resp)
	return resp.Token
}

func adminToken(t *testing.T, srv *Server) string {
	t.Helper()
	token, err := srv.deps.Tokens.Issue("admin-1", "admin@x.com", "admin")
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	store := newFakeRepo()
	srv := newTestServer(t, store)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/auth/register", "",
		`{"name":"Test","email":"a@b.com","password":"short"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.users) != 0 {
		t.Fatal("no user must be created for a rejected password")
	}
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	store := newFakeRepo()
	seedTestMachine(store)
	srv := newTestServer(t, store)
	handler := srv.Handler()

	userTok := registerUser(t, handler, "customer@x.com")
	adminTok := adminToken(t, srv)

	rec := doJSON(t, handler, http.MethodPost, "/api/bookings", userTok,
		`{"machine_id":"m1","rental_duration":"day","quantity":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create booking: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created bookingView
	decodeBody(t, rec, &created)
	if created.TotalPrice != 20 {
		t.Fatalf("expected total 20, got %v", created.TotalPrice)
	}
	if created.Status != "pending" {
		t.Fatalf("expected pending, got %s", created.Status)
	}

	// The customer cannot drive admin transitions.
	rec = doJSON(t, handler, http.MethodPost, "/api/admin/bookings/"+created.ID+"/payment-address", userTok,
		`{"payment_address":"bc1qaddr"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/admin/bookings/"+created.ID+"/payment-address", adminTok,
		`{"payment_address":"bc1qaddr"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("payment address: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Approval straight from awaiting_payment must fail.
	rec = doJSON(t, handler, http.MethodPost, "/api/admin/bookings/"+created.ID+"/approve", adminTok, `{}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 approving before payment, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/bookings/"+created.ID+"/payment-sent", userTok,
		`{"transaction_hash":"0xabc"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("payment sent: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/admin/bookings/"+created.ID+"/approve", adminTok, `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var approved bookingView
	decodeBody(t, rec, &approved)
	if approved.Status != "approved" {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if store.machines["m1"].RentedUnits != 2 {
		t.Fatalf("expected 2 rented units, got %d", store.machines["m1"].RentedUnits)
	}

	// The detail thread keeps messages in posting order.
	rec = doJSON(t, handler, http.MethodGet, "/api/bookings/"+created.ID, userTok, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("detail: expected 200, got %d", rec.Code)
	}
	var detail bookingDetailView
	decodeBody(t, rec, &detail)
	if len(detail.Messages) < 3 {
		t.Fatalf("expected the transition messages, got %d", len(detail.Messages))
	}
	if detail.Messages[0].MessageType != "system" || detail.Messages[1].MessageType != "payment_address" {
		t.Fatalf("unexpected leading messages: %s, %s", detail.Messages[0].MessageType, detail.Messages[1].MessageType)
	}
}

func TestBookingEndpointsRequireAuth(t *testing.T) {
	store := newFakeRepo()
	srv := newTestServer(t, store)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/bookings", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/admin/bookings", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestBookingOwnershipOverHTTP(t *testing.T) {
	store := newFakeRepo()
	seedTestMachine(store)
	srv := newTestServer(t, store)
	handler := srv.Handler()

	ownerTok := registerUser(t, handler, "owner@x.com")
	otherTok := registerUser(t, handler, "other@x.com")

	rec := doJSON(t, handler, http.MethodPost, "/api/bookings", ownerTok,
		`{"machine_id":"m1","rental_duration":"day","quantity":1}`)
	var created bookingView
	decodeBody(t, rec, &created)

	rec = doJSON(t, handler, http.MethodGet, "/api/bookings/"+created.ID, otherTok, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another user's booking, got %d", rec.Code)
	}
}

func TestPublicCatalogHidesInactiveMachines(t *testing.T) {
	store := newFakeRepo()
	seedTestMachine(store)
	store.machines["m2"] = repo.Machine{ID: "m2", Name: "Retired", IsActive: false}
	srv := newTestServer(t, store)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/machines", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Machines []machineView `json:"machines"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Machines) != 1 || resp.Machines[0].ID != "m1" {
		t.Fatalf("expected only the active machine, got %+v", resp.Machines)
	}

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/machines/m2", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("inactive machine must 404 publicly, got %d", rec.Code)
	}
}

func TestPricesEndpoint(t *testing.T) {
	store := newFakeRepo()
	srv := newTestServer(t, store)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/prices", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Prices []pricefeed.Price `json:"prices"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Prices) != 1 || resp.Prices[0].Symbol != "BTC" {
		t.Fatalf("unexpected prices %+v", resp.Prices)
	}
}

func TestMalformedJSONIsBadRequest(t *testing.T) {
	store := newFakeRepo()
	srv := newTestServer(t, store)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/auth/register", "", `{"name": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
