package api

import (
	"time"

	"github.com/omnilodge/concierge/domain/entities"
)

// GuestLoginRequest represents the request payload for guest login
type GuestLoginRequest struct {
	Email string `json:"email" validate:"required"`
	Name  string `json:"name" validate:"required"`
}

// GuestLoginResponse represents the response payload for guest login
type GuestLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Email     string    `json:"email"`
}

// BookingListResponse wraps the guest's bookings
type BookingListResponse struct {
	Bookings []*entities.Booking `json:"bookings"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
