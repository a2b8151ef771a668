package usecase

import "sync"

// DraftSnapshot is the UI-visible view of the in-progress booking.
type DraftSnapshot struct {
	RoomType      string `json:"room_type,omitempty"`
	CheckIn       string `json:"check_in,omitempty"`
	CheckOut      string `json:"check_out,omitempty"`
	Guests        int    `json:"guests,omitempty"`
	PricePerNight int    `json:"price_per_night,omitempty"`
	TotalNights   int    `json:"total_nights,omitempty"`
	TotalCost     int    `json:"total_cost,omitempty"`
	Currency      string `json:"currency,omitempty"`
}

// Draft accumulates the partial booking negotiated during one session.
// Only the check_availability handler mutates it; it is reset when a new
// session starts and is never persisted.
type Draft struct {
	mu   sync.Mutex
	snap DraftSnapshot
}

// Reset clears the draft for a new negotiation.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap = DraftSnapshot{}
}

// SetPriced records the echoed arguments plus priced fields after a
// successful availability check.
func (d *Draft) SetPriced(roomType, checkIn, checkOut string, guests, rate, nights, total int, currency string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap = DraftSnapshot{
		RoomType:      roomType,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Guests:        guests,
		PricePerNight: rate,
		TotalNights:   nights,
		TotalCost:     total,
		Currency:      currency,
	}
}

// Snapshot returns a copy safe to hand to the UI layer.
func (d *Draft) Snapshot() DraftSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap
}
