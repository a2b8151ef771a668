package repositories

import (
	"context"
	"errors"

	"github.com/omnilodge/concierge/domain/entities"
)

// ErrBookingNotFound is returned when a confirmation code does not match
// any stored booking.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepository defines data access methods for finalized bookings.
type BookingRepository interface {
	// Save persists a booking and fills in its ID and timestamps.
	Save(ctx context.Context, booking *entities.Booking) error
	// ListByEmail returns the guest's bookings, most recent first.
	ListByEmail(ctx context.Context, email string) ([]*entities.Booking, error)
	// GetByCode looks a booking up by confirmation code.
	GetByCode(ctx context.Context, code string) (*entities.Booking, error)
	// CancelByCode marks the booking with the given code cancelled.
	// Returns ErrBookingNotFound if the code is unknown.
	CancelByCode(ctx context.Context, code string) error
}

// Notifier delivers booking confirmations out of band. Delivery is
// asynchronous and best effort; callers must not block on it.
type Notifier interface {
	NotifyConfirmation(ctx context.Context, email string, booking *entities.Booking) error
}
