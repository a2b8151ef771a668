package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/omnilodge/concierge/adapters/live"
	"github.com/omnilodge/concierge/adapters/memory"
	"github.com/omnilodge/concierge/domain/entities"
)

type captureNotifier struct {
	mu    sync.Mutex
	sent  []string
	calls chan struct{}
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{calls: make(chan struct{}, 8)}
}

func (n *captureNotifier) NotifyConfirmation(_ context.Context, email string, _ *entities.Booking) error {
	n.mu.Lock()
	n.sent = append(n.sent, email)
	n.mu.Unlock()
	n.calls <- struct{}{}
	return nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) sink() EventSink {
	return func(e Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	}
}

func (r *eventRecorder) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *memory.BookingRepository, *captureNotifier, *eventRecorder) {
	t.Helper()
	store := memory.NewBookingRepository()
	notifier := newCaptureNotifier()
	recorder := &eventRecorder{}
	guest := entities.Guest{Email: "ada@example.com", Name: "Ada"}
	d := NewDispatcher(guest, store, notifier, recorder.sink(), zap.NewNop())
	return d, store, notifier, recorder
}

func TestHandleAnswersEveryCall(t *testing.T) {
	d, _, _, _ := newTestDispatcher(t)

	calls := []live.ToolCall{
		{ID: "c1", Name: ToolCheckAvailability, Arguments: map[string]any{
			"room_type": "deluxe", "check_in_date": "2026-09-01", "check_out_date": "2026-09-03",
		}},
		{ID: "c2", Name: "retrieve_weather", Arguments: map[string]any{}},
		{ID: "c3", Name: ToolListBookings, Arguments: map[string]any{}},
	}

	results := d.Handle(context.Background(), calls)
	if len(results) != len(calls) {
		t.Fatalf("expected %d results, got %d", len(calls), len(results))
	}
	for i, res := range results {
		if res.ID != calls[i].ID || res.Name != calls[i].Name {
			t.Errorf("result %d not correlated: got id=%q name=%q", i, res.ID, res.Name)
		}
		if res.Response == nil {
			t.Errorf("result %d has nil response", i)
		}
	}
	if status := results[1].Response["status"]; status != "error" {
		t.Errorf("unknown tool should yield error status, got %v", status)
	}
}

func TestCheckAvailabilityPricesAndUpdatesDraft(t *testing.T) {
	d, _, _, recorder := newTestDispatcher(t)

	res := d.Handle(context.Background(), []live.ToolCall{{
		ID: "c1", Name: ToolCheckAvailability,
		Arguments: map[string]any{
			"room_type":      "deluxe room please",
			"check_in_date":  "2026-09-01",
			"check_out_date": "2026-09-05",
			"guests":         float64(2),
		},
	}})[0].Response

	if res["status"] != "available" {
		t.Fatalf("expected available, got %v", res)
	}
	if res["nights"] != 4 || res["rate"] != 250 || res["total"] != 1000 {
		t.Errorf("wrong quote: %v", res)
	}

	snap := d.Draft().Snapshot()
	if snap.TotalCost != 1000 || snap.TotalNights != 4 || snap.Guests != 2 {
		t.Errorf("draft not updated: %+v", snap)
	}
	if len(recorder.ofType(EventDraftUpdated)) != 1 {
		t.Error("expected one draft_updated event")
	}
}

func TestCheckAvailabilityBadDatesLeavesDraftUntouched(t *testing.T) {
	d, _, _, recorder := newTestDispatcher(t)

	res := d.Handle(context.Background(), []live.ToolCall{{
		ID: "c1", Name: ToolCheckAvailability,
		Arguments: map[string]any{
			"room_type":      "suite",
			"check_in_date":  "next tuesday",
			"check_out_date": "2026-09-05",
		},
	}})[0].Response

	if res["status"] != "unavailable" {
		t.Fatalf("expected unavailable, got %v", res)
	}
	if msg, _ := res["message"].(string); msg == "" {
		t.Error("expected a message explaining the failure")
	}
	if snap := d.Draft().Snapshot(); snap.RoomType != "" {
		t.Errorf("draft should be untouched, got %+v", snap)
	}
	if len(recorder.ofType(EventDraftUpdated)) != 0 {
		t.Error("no draft_updated event expected")
	}
}

func TestFinalizeBookingLifecycle(t *testing.T) {
	d, store, notifier, recorder := newTestDispatcher(t)
	ctx := context.Background()

	d.Handle(ctx, []live.ToolCall{{
		ID: "c1", Name: ToolCheckAvailability,
		Arguments: map[string]any{
			"room_type":      "suite",
			"check_in_date":  "2026-10-10",
			"check_out_date": "2026-10-12",
		},
	}})

	res := d.Handle(ctx, []live.ToolCall{{
		ID: "c2", Name: ToolFinalizeBooking,
		Arguments: map[string]any{
			"name":           "Ada Lovelace",
			"phone":          "+1-555-0100",
			"room_type":      "suite",
			"check_in_date":  "2026-10-10",
			"check_out_date": "2026-10-12",
			"guests":         float64(2),
		},
	}})[0].Response

	if res["status"] != "confirmed" {
		t.Fatalf("expected confirmed, got %v", res)
	}
	code, _ := res["confirmation_code"].(string)
	if !strings.HasPrefix(code, entities.ConfirmationPrefix) {
		t.Fatalf("unexpected confirmation code %q", code)
	}
	if res["total_cost"] != 900 {
		t.Errorf("expected total 900 for two suite nights, got %v", res["total_cost"])
	}

	saved, err := store.GetByCode(ctx, code)
	if err != nil {
		t.Fatalf("booking not persisted: %v", err)
	}
	if saved.GuestEmail != "ada@example.com" || saved.Nights != 2 {
		t.Errorf("persisted booking wrong: %+v", saved)
	}
	if len(recorder.ofType(EventBookingConfirmed)) != 1 {
		t.Error("expected one booking_confirmed event")
	}

	select {
	case <-notifier.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation notification never fired")
	}

	// Cancel it through the tool path.
	cancelRes := d.Handle(ctx, []live.ToolCall{{
		ID: "c3", Name: ToolCancelBooking,
		Arguments: map[string]any{"confirmation_code": code},
	}})[0].Response
	if cancelRes["status"] != "success" {
		t.Fatalf("expected cancellation success, got %v", cancelRes)
	}
	if len(recorder.ofType(EventBookingCancelled)) != 1 {
		t.Error("expected one booking_cancelled event")
	}

	// The cancelled booking drops out of the active list.
	listRes := d.Handle(ctx, []live.ToolCall{{
		ID: "c4", Name: ToolListBookings, Arguments: map[string]any{},
	}})[0].Response
	bookings, _ := listRes["bookings"].([]map[string]any)
	if len(bookings) != 0 {
		t.Errorf("cancelled booking should not be listed, got %v", bookings)
	}
}

func TestCancelUnknownCode(t *testing.T) {
	d, _, _, _ := newTestDispatcher(t)

	res := d.Handle(context.Background(), []live.ToolCall{{
		ID: "c1", Name: ToolCancelBooking,
		Arguments: map[string]any{"confirmation_code": "OMNI-ZZZZZ"},
	}})[0].Response

	if res["status"] != "error" {
		t.Fatalf("expected error for unknown code, got %v", res)
	}
	if msg, _ := res["message"].(string); !strings.Contains(msg, "OMNI-ZZZZZ") {
		t.Errorf("message should name the code, got %q", msg)
	}
}
