package booking

import (
	"math"

	"xbin/internal/repo"
)

// Duration is the billing granularity of a booking.
type Duration string

const (
	DurationHour  Duration = "hour"
	DurationDay   Duration = "day"
	DurationWeek  Duration = "week"
	DurationMonth Duration = "month"
)

// Valid reports whether d is a known rental duration.
func (d Duration) Valid() bool {
	switch d {
	case DurationHour, DurationDay, DurationWeek, DurationMonth:
		return true
	}
	return false
}

// UnitPrice returns the machine's price for one unit over the duration.
func UnitPrice(m repo.Machine, d Duration) float64 {
	switch d {
	case DurationHour:
		return m.PricePerHour
	case DurationDay:
		return m.PricePerDay
	case DurationWeek:
		return m.PricePerWeek
	case DurationMonth:
		return m.PricePerMonth
	}
	return 0
}

// Quote computes the booking total: unit price times quantity, rounded to two
// decimals for currency display.
func Quote(m repo.Machine, d Duration, quantity int) float64 {
	return round2(UnitPrice(m, d) * float64(quantity))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
