package entities

import (
	"crypto/rand"
	"errors"
	"time"
)

// BookingStatus represents the lifecycle status of a finalized booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ConfirmationPrefix is quoted to guests over the phone and in email, so it
// never changes between releases.
const ConfirmationPrefix = "OMNI-"

const confirmationAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Booking is a finalized reservation. Bookings are created once by the
// finalize flow and are cancelled, never deleted.
type Booking struct {
	ID               string        `json:"id" bson:"_id,omitempty"`
	ConfirmationCode string        `json:"confirmation_code" bson:"confirmation_code"`
	GuestName        string        `json:"guest_name" bson:"guest_name"`
	GuestEmail       string        `json:"guest_email" bson:"guest_email"`
	Phone            string        `json:"phone" bson:"phone"`
	RoomType         string        `json:"room_type" bson:"room_type"`
	CheckIn          string        `json:"check_in" bson:"check_in"`
	CheckOut         string        `json:"check_out" bson:"check_out"`
	Guests           int           `json:"guests" bson:"guests"`
	Nights           int           `json:"nights" bson:"nights"`
	RatePerNight     int           `json:"rate_per_night" bson:"rate_per_night"`
	TotalCost        int           `json:"total_cost" bson:"total_cost"`
	Currency         string        `json:"currency" bson:"currency"`
	Status           BookingStatus `json:"status" bson:"status"`
	CreatedAt        time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" bson:"updated_at"`
}

// NewConfirmationCode returns a fresh confirmation code: the OMNI- prefix
// followed by five characters from an unambiguous alphabet (no 0/O, 1/I/L).
func NewConfirmationCode() string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; fall back to
		// a time-derived code rather than returning an empty one.
		now := time.Now().UnixNano()
		for i := range buf {
			buf[i] = byte(now >> (8 * i))
		}
	}
	for i, b := range buf {
		buf[i] = confirmationAlphabet[int(b)%len(confirmationAlphabet)]
	}
	return ConfirmationPrefix + string(buf)
}

// IsActive reports whether the booking still counts toward the guest's
// active reservations.
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusConfirmed || b.Status == BookingStatusPending
}

// Cancel marks the booking cancelled. Cancelling twice is not an error.
func (b *Booking) Cancel() {
	b.Status = BookingStatusCancelled
	b.UpdatedAt = time.Now()
}

// Validate validates the booking data before persistence.
func (b *Booking) Validate() error {
	if b.ConfirmationCode == "" {
		return errors.New("confirmation code is required")
	}
	if b.GuestName == "" {
		return errors.New("guest name is required")
	}
	if b.RoomType == "" {
		return errors.New("room type is required")
	}
	switch b.Status {
	case BookingStatusConfirmed, BookingStatusPending, BookingStatusCancelled:
	default:
		return errors.New("invalid booking status")
	}
	return nil
}
