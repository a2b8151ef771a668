package pricing

import (
	"errors"
	"testing"
)

func TestPriceKnownStays(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		roomType string
		nights   int
		rate     int
		total    int
	}{
		{"same day suite", "2024-06-01", "2024-06-01", "Suite", 1, 450, 450},
		{"four night deluxe freeform", "2024-06-01", "2024-06-05", "deluxe room please", 4, 250, 1000},
		{"one night standard", "2024-06-01", "2024-06-02", "standard", 1, 150, 150},
		{"inverted dates still price", "2024-06-05", "2024-06-01", "double", 4, 200, 800},
		{"unknown room falls back to standard", "2024-06-01", "2024-06-03", "igloo", 2, 150, 300},
		{"presidential suite matches suite first", "2024-06-01", "2024-06-02", "Presidential Suite", 1, 450, 450},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Price(tt.checkIn, tt.checkOut, tt.roomType)
			if err != nil {
				t.Fatalf("Price() error = %v", err)
			}
			if q.Nights != tt.nights {
				t.Errorf("Nights = %d, want %d", q.Nights, tt.nights)
			}
			if q.RatePerNight != tt.rate {
				t.Errorf("RatePerNight = %d, want %d", q.RatePerNight, tt.rate)
			}
			if q.Total != tt.total {
				t.Errorf("Total = %d, want %d", q.Total, tt.total)
			}
		})
	}
}

func TestPriceBadDates(t *testing.T) {
	cases := [][2]string{
		{"not-a-date", "2024-06-05"},
		{"2024-06-01", "soon"},
		{"", ""},
	}
	for _, c := range cases {
		_, err := Price(c[0], c[1], "standard")
		if !errors.Is(err, ErrUnpriceable) {
			t.Errorf("Price(%q, %q) error = %v, want ErrUnpriceable", c[0], c[1], err)
		}
	}
}

func TestRateForTableOrder(t *testing.T) {
	tests := []struct {
		roomType string
		rate     int
	}{
		{"Deluxe", 250},
		{"DELUXE DOUBLE", 200}, // double precedes deluxe in table order
		{"family room with a view", 320},
		{"", 150},
		{"the presidential", 800},
	}
	for _, tt := range tests {
		if got := RateFor(tt.roomType); got != tt.rate {
			t.Errorf("RateFor(%q) = %d, want %d", tt.roomType, got, tt.rate)
		}
	}
}
