package entities

import (
	"errors"
	"strings"
	"time"
)

// Guest represents the person talking to the concierge. Guests identify
// themselves by email; there is no account system behind this.
type Guest struct {
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Validate validates the guest data.
func (g *Guest) Validate() error {
	if g.Email == "" {
		return errors.New("email is required")
	}
	if !strings.Contains(g.Email, "@") {
		return errors.New("email is malformed")
	}
	if g.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
