// Package memory provides in-process adapter implementations used for
// development and testing, where a real MongoDB deployment is overkill.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omnilodge/concierge/domain/entities"
	"github.com/omnilodge/concierge/domain/repositories"
)

// BookingRepository keeps bookings in a map keyed by confirmation code.
type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*entities.Booking
}

// NewBookingRepository creates an empty in-memory store.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		bookings: make(map[string]*entities.Booking),
	}
}

// Save stores a copy of the booking, assigning an ID and timestamps.
func (r *BookingRepository) Save(_ context.Context, booking *entities.Booking) error {
	if err := booking.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	stored := *booking
	r.mu.Lock()
	r.bookings[booking.ConfirmationCode] = &stored
	r.mu.Unlock()
	return nil
}

// ListByEmail returns the guest's bookings, most recent first.
func (r *BookingRepository) ListByEmail(_ context.Context, email string) ([]*entities.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entities.Booking
	for _, b := range r.bookings {
		if strings.EqualFold(b.GuestEmail, email) {
			copied := *b
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetByCode looks a booking up by confirmation code.
func (r *BookingRepository) GetByCode(_ context.Context, code string) (*entities.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[code]
	if !ok {
		return nil, repositories.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

// CancelByCode marks the booking cancelled.
func (r *BookingRepository) CancelByCode(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[code]
	if !ok {
		return repositories.ErrBookingNotFound
	}
	b.Cancel()
	return nil
}
