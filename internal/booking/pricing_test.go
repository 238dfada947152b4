package booking

import (
	"testing"

	"xbin/internal/repo"
)

func TestQuoteMultipliesUnitPrice(t *testing.T) {
	m := repo.Machine{
		PricePerHour:  1.5,
		PricePerDay:   10,
		PricePerWeek:  60,
		PricePerMonth: 200,
	}

	if got := Quote(m, DurationDay, 3); got != 30 {
		t.Fatalf("expected 30, got %v", got)
	}
	if got := Quote(m, DurationHour, 2); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
	if got := Quote(m, DurationMonth, 1); got != 200 {
		t.Fatalf("expected 200, got %v", got)
	}
}

func TestQuoteRoundsToCents(t *testing.T) {
	m := repo.Machine{PricePerHour: 0.1}
	if got := Quote(m, DurationHour, 3); got != 0.3 {
		t.Fatalf("expected 0.3, got %v", got)
	}
}

func TestUnitPriceUnknownDuration(t *testing.T) {
	m := repo.Machine{PricePerDay: 10}
	if got := UnitPrice(m, Duration("year")); got != 0 {
		t.Fatalf("expected 0 for unknown duration, got %v", got)
	}
}
