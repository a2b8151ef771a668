package entities

import (
	"strings"
	"testing"
)

func TestNewConfirmationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := NewConfirmationCode()

		if !strings.HasPrefix(code, ConfirmationPrefix) {
			t.Fatalf("code %q missing prefix %q", code, ConfirmationPrefix)
		}
		suffix := strings.TrimPrefix(code, ConfirmationPrefix)
		if len(suffix) < 4 || len(suffix) > 6 {
			t.Fatalf("code suffix %q length out of range", suffix)
		}
		for _, r := range suffix {
			if !strings.ContainsRune(confirmationAlphabet, r) {
				t.Fatalf("code %q contains character outside alphabet", code)
			}
		}
		seen[code] = true
	}
	// 200 draws from a 31^5 space colliding would indicate broken randomness.
	if len(seen) < 190 {
		t.Errorf("expected mostly unique codes, got %d unique of 200", len(seen))
	}
}

func TestBookingLifecycle(t *testing.T) {
	b := &Booking{
		ConfirmationCode: NewConfirmationCode(),
		GuestName:        "Ada Lovelace",
		RoomType:         "deluxe",
		Status:           BookingStatusConfirmed,
	}

	if err := b.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !b.IsActive() {
		t.Error("confirmed booking should be active")
	}

	b.Cancel()
	if b.Status != BookingStatusCancelled {
		t.Errorf("Status = %s, want cancelled", b.Status)
	}
	if b.IsActive() {
		t.Error("cancelled booking should not be active")
	}
	if b.UpdatedAt.IsZero() {
		t.Error("Cancel should bump UpdatedAt")
	}
}

func TestBookingValidate(t *testing.T) {
	tests := []struct {
		name    string
		booking Booking
		wantErr bool
	}{
		{"missing code", Booking{GuestName: "A", RoomType: "suite", Status: BookingStatusPending}, true},
		{"missing guest", Booking{ConfirmationCode: "OMNI-AAAAA", RoomType: "suite", Status: BookingStatusPending}, true},
		{"bad status", Booking{ConfirmationCode: "OMNI-AAAAA", GuestName: "A", RoomType: "suite", Status: "held"}, true},
		{"ok", Booking{ConfirmationCode: "OMNI-AAAAA", GuestName: "A", RoomType: "suite", Status: BookingStatusConfirmed}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.booking.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
