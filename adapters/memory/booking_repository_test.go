package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/omnilodge/concierge/domain/entities"
	"github.com/omnilodge/concierge/domain/repositories"
)

func testBooking(code, email string) *entities.Booking {
	return &entities.Booking{
		ConfirmationCode: code,
		GuestName:        "Ada Lovelace",
		GuestEmail:       email,
		RoomType:         "deluxe",
		CheckIn:          "2026-09-01",
		CheckOut:         "2026-09-03",
		Guests:           2,
		Nights:           2,
		RatePerNight:     250,
		TotalCost:        500,
		Currency:         "USD",
		Status:           entities.BookingStatusConfirmed,
	}
}

func TestSaveAndGet(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	b := testBooking("OMNI-AAAAA", "ada@example.com")
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("save: %v", err)
	}
	if b.ID == "" {
		t.Error("save should assign an ID")
	}
	if b.CreatedAt.IsZero() {
		t.Error("save should stamp CreatedAt")
	}

	got, err := repo.GetByCode(ctx, "OMNI-AAAAA")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.GuestEmail != "ada@example.com" || got.TotalCost != 500 {
		t.Errorf("unexpected booking: %+v", got)
	}

	// The stored copy is isolated from later caller mutation.
	b.TotalCost = 9999
	got, _ = repo.GetByCode(ctx, "OMNI-AAAAA")
	if got.TotalCost != 500 {
		t.Error("store leaked a pointer to the caller's booking")
	}

	if _, err := repo.GetByCode(ctx, "OMNI-NOPE"); !errors.Is(err, repositories.ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestListByEmailOrdering(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	older := testBooking("OMNI-AAAAA", "ada@example.com")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := testBooking("OMNI-BBBBB", "ada@example.com")
	other := testBooking("OMNI-CCCCC", "grace@example.com")

	for _, b := range []*entities.Booking{older, newer, other} {
		if err := repo.Save(ctx, b); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := repo.ListByEmail(ctx, "ADA@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(got))
	}
	if got[0].ConfirmationCode != "OMNI-BBBBB" {
		t.Errorf("expected newest first, got %s", got[0].ConfirmationCode)
	}
}

func TestCancelByCode(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	if err := repo.Save(ctx, testBooking("OMNI-AAAAA", "ada@example.com")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.CancelByCode(ctx, "OMNI-AAAAA"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	got, _ := repo.GetByCode(ctx, "OMNI-AAAAA")
	if got.Status != entities.BookingStatusCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	if got.IsActive() {
		t.Error("cancelled booking must not be active")
	}

	if err := repo.CancelByCode(ctx, "OMNI-NOPE"); !errors.Is(err, repositories.ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound, got %v", err)
	}
}
