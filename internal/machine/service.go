package machine

import (
	"context"
	"log/slog"
	"strings"

	"xbin/internal/apperr"
	"xbin/internal/repo"
)

// Statuses a machine can carry. "maintenance" and "inactive" were used
// interchangeably upstream; this enum is canonical.
const (
	StatusAvailable   = "available"
	StatusRented      = "rented"
	StatusMaintenance = "maintenance"
	StatusInactive    = "inactive"
)

func validStatus(s string) bool {
	switch s {
	case StatusAvailable, StatusRented, StatusMaintenance, StatusInactive:
		return true
	}
	return false
}

// Store is the persistence surface the catalog service needs.
type Store interface {
	InsertMachine(ctx context.Context, m repo.Machine) (*repo.Machine, error)
	GetMachine(ctx context.Context, id string) (*repo.Machine, error)
	ListMachines(ctx context.Context, activeOnly, featuredOnly bool) ([]repo.Machine, error)
	UpdateMachine(ctx context.Context, m repo.Machine) (*repo.Machine, error)
	ToggleMachineActive(ctx context.Context, id string) (*repo.Machine, error)
	ToggleMachineFeatured(ctx context.Context, id string) (*repo.Machine, error)
	DeleteMachine(ctx context.Context, id string) error
}

// Service owns the machine catalog.
type Service struct {
	store  Store
	logger *slog.Logger
}

// New creates the catalog service.
func New(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger.With("component", "machines")}
}

// ListPublic returns active machines for the public catalog.
func (s *Service) ListPublic(ctx context.Context) ([]repo.Machine, error) {
	return s.store.ListMachines(ctx, true, false)
}

// ListFeatured returns active, featured machines.
func (s *Service) ListFeatured(ctx context.Context) ([]repo.Machine, error) {
	return s.store.ListMachines(ctx, true, true)
}

// ListAll returns the full catalog for the admin view.
func (s *Service) ListAll(ctx context.Context) ([]repo.Machine, error) {
	return s.store.ListMachines(ctx, false, false)
}

// Get returns a single machine.
func (s *Service) Get(ctx context.Context, id string) (*repo.Machine, error) {
	return s.store.GetMachine(ctx, id)
}

// Create validates and stores a new machine.
func (s *Service) Create(ctx context.Context, m repo.Machine) (*repo.Machine, error) {
	if err := validate(&m); err != nil {
		return nil, err
	}
	created, err := s.store.InsertMachine(ctx, m)
	if err != nil {
		return nil, err
	}
	s.logger.Info("machine created", "machine_id", created.ID, "name", created.Name)
	return created, nil
}

// Update validates and replaces a machine's mutable fields.
func (s *Service) Update(ctx context.Context, m repo.Machine) (*repo.Machine, error) {
	if strings.TrimSpace(m.ID) == "" {
		return nil, apperr.Validationf("machine id is required")
	}
	if err := validate(&m); err != nil {
		return nil, err
	}
	return s.store.UpdateMachine(ctx, m)
}

// ToggleActive flips catalog visibility.
func (s *Service) ToggleActive(ctx context.Context, id string) (*repo.Machine, error) {
	return s.store.ToggleMachineActive(ctx, id)
}

// ToggleFeatured flips the featured flag.
func (s *Service) ToggleFeatured(ctx context.Context, id string) (*repo.Machine, error) {
	return s.store.ToggleMachineFeatured(ctx, id)
}

// Delete removes a machine; bookings referencing it make this fail.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteMachine(ctx, id)
}

func validate(m *repo.Machine) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return apperr.Validationf("name is required")
	}
	if m.TotalUnits < 0 {
		return apperr.Validationf("total_units cannot be negative")
	}
	if m.PricePerHour < 0 || m.PricePerDay < 0 || m.PricePerWeek < 0 || m.PricePerMonth < 0 {
		return apperr.Validationf("prices cannot be negative")
	}
	if m.Status == "" {
		m.Status = StatusAvailable
	}
	if !validStatus(m.Status) {
		return apperr.Validationf("status must be one of available, rented, maintenance, inactive")
	}
	if m.Coin == "" {
		m.Coin = "BTC"
	}
	return nil
}
