package machine

import (
	"testing"

	"xbin/internal/apperr"
	"xbin/internal/repo"
)

func TestValidateRequiresName(t *testing.T) {
	m := repo.Machine{Name: "   "}
	if err := validate(&m); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateRejectsNegativeValues(t *testing.T) {
	m := repo.Machine{Name: "S19", TotalUnits: -1}
	if err := validate(&m); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for negative units, got %v", err)
	}

	m = repo.Machine{Name: "S19", PricePerDay: -5}
	if err := validate(&m); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	m := repo.Machine{Name: " S19 "}
	if err := validate(&m); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if m.Name != "S19" {
		t.Fatalf("name not trimmed: %q", m.Name)
	}
	if m.Status != StatusAvailable {
		t.Fatalf("expected default status available, got %s", m.Status)
	}
	if m.Coin != "BTC" {
		t.Fatalf("expected default coin BTC, got %s", m.Coin)
	}
}

func TestValidateRejectsUnknownStatus(t *testing.T) {
	m := repo.Machine{Name: "S19", Status: "broken"}
	if err := validate(&m); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
