// Package pricing turns booking parameters into a nightly cost breakdown.
// It is pure: no I/O, no shared mutable state, safe for concurrent use.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrUnpriceable is returned when a stay cannot be priced, typically
// because one of the dates does not parse.
var ErrUnpriceable = errors.New("pricing: stay cannot be priced")

// Quote is the cost breakdown for a stay.
type Quote struct {
	Nights       int `json:"nights"`
	RatePerNight int `json:"rate_per_night"`
	Total        int `json:"total"`
}

// roomRate pairs a room-category key with its nightly rate.
type roomRate struct {
	key  string
	rate int
}

// rateTable is ordered: the first key that is a case-insensitive substring
// of the requested room type wins. Free-form requests like "a nice deluxe
// room" must still price, so matching is fuzzy on purpose.
var rateTable = []roomRate{
	{"standard", 150},
	{"double", 200},
	{"deluxe", 250},
	{"family", 320},
	{"suite", 450},
	{"presidential", 800},
}

// standardRate is the fallback when no table key matches.
const standardRate = 150

// Nights returns the billable night count for a stay. Same-day and
// inverted-date stays clamp to one night rather than failing.
func Nights(checkIn, checkOut time.Time) int {
	days := math.Ceil(math.Abs(checkOut.Sub(checkIn).Hours()) / 24)
	if days < 1 {
		return 1
	}
	return int(days)
}

// RateFor resolves the nightly rate for a free-text room type.
func RateFor(roomType string) int {
	needle := strings.ToLower(roomType)
	for _, r := range rateTable {
		if strings.Contains(needle, r.key) {
			return r.rate
		}
	}
	return standardRate
}

// Price computes a quote for the given stay. Dates are YYYY-MM-DD.
func Price(checkIn, checkOut, roomType string) (Quote, error) {
	in, err := time.Parse(time.DateOnly, strings.TrimSpace(checkIn))
	if err != nil {
		return Quote{}, fmt.Errorf("%w: invalid check-in date %q", ErrUnpriceable, checkIn)
	}
	out, err := time.Parse(time.DateOnly, strings.TrimSpace(checkOut))
	if err != nil {
		return Quote{}, fmt.Errorf("%w: invalid check-out date %q", ErrUnpriceable, checkOut)
	}

	nights := Nights(in, out)
	rate := RateFor(roomType)

	return Quote{
		Nights:       nights,
		RatePerNight: rate,
		Total:        nights * rate,
	}, nil
}
