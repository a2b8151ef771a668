package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omnilodge/concierge/adapters/live"
	"github.com/omnilodge/concierge/domain/entities"
	"github.com/omnilodge/concierge/domain/pricing"
	"github.com/omnilodge/concierge/domain/repositories"
)

// Currency is attached to every quote and booking. The pricing engine
// itself is currency-agnostic.
const Currency = "USD"

const persistTimeout = 10 * time.Second

// Dispatcher routes tool-call batches from the agent to their handlers
// and produces exactly one correlated result per call. It is session
// scoped: the draft and the issued-code set reset with the session.
type Dispatcher struct {
	guest    entities.Guest
	store    repositories.BookingRepository
	notifier repositories.Notifier
	draft    *Draft
	emit     EventSink
	logger   *zap.Logger

	issued map[string]bool // confirmation codes issued this session
}

// NewDispatcher creates a dispatcher for one session.
func NewDispatcher(
	guest entities.Guest,
	store repositories.BookingRepository,
	notifier repositories.Notifier,
	emit EventSink,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		guest:    guest,
		store:    store,
		notifier: notifier,
		draft:    &Draft{},
		emit:     emit,
		logger:   logger,
	}
}

// Draft exposes the session draft for event publication and reset.
func (d *Dispatcher) Draft() *Draft {
	return d.draft
}

// Handle answers a batch of tool calls. Every call receives a result,
// including calls with unknown names; results may be in any order but
// the whole batch is answered before Handle returns, which is what lets
// the session enforce "batch answered before the next inbound message".
func (d *Dispatcher) Handle(ctx context.Context, calls []live.ToolCall) []live.ToolResult {
	results := make([]live.ToolResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, live.ToolResult{
			ID:       call.ID,
			Name:     call.Name,
			Response: d.dispatch(ctx, call),
		})
	}
	return results
}

func (d *Dispatcher) dispatch(ctx context.Context, call live.ToolCall) map[string]any {
	d.logger.Info("Tool call",
		zap.String("tool", call.Name),
		zap.String("callID", call.ID))

	switch call.Name {
	case ToolCheckAvailability:
		return d.checkAvailability(call.Arguments)
	case ToolFinalizeBooking:
		return d.finalizeBooking(ctx, call.Arguments)
	case ToolCancelBooking:
		return d.cancelBooking(ctx, call.Arguments)
	case ToolListBookings:
		return d.listBookings(ctx)
	default:
		d.logger.Warn("Unknown tool requested", zap.String("tool", call.Name))
		return map[string]any{
			"status":  "error",
			"message": fmt.Sprintf("unknown tool: %s", call.Name),
		}
	}
}

func (d *Dispatcher) checkAvailability(args map[string]any) map[string]any {
	roomType := stringArg(args, "room_type")
	checkIn := stringArg(args, "check_in_date")
	checkOut := stringArg(args, "check_out_date")
	guests := intArg(args, "guests")

	quote, err := pricing.Price(checkIn, checkOut, roomType)
	if err != nil {
		// Bad dates or room text: recovered here as a structured result
		// so the agent can ask the guest to clarify.
		return map[string]any{
			"status":  "unavailable",
			"message": err.Error(),
		}
	}

	d.draft.SetPriced(roomType, checkIn, checkOut, guests,
		quote.RatePerNight, quote.Nights, quote.Total, Currency)
	d.publish(EventDraftUpdated, d.draft.Snapshot())

	return map[string]any{
		"status":   "available",
		"nights":   quote.Nights,
		"rate":     quote.RatePerNight,
		"total":    quote.Total,
		"currency": Currency,
	}
}

func (d *Dispatcher) finalizeBooking(ctx context.Context, args map[string]any) map[string]any {
	roomType := stringArg(args, "room_type")
	checkIn := stringArg(args, "check_in_date")
	checkOut := stringArg(args, "check_out_date")

	snap := d.draft.Snapshot()
	nights, rate, total := snap.TotalNights, snap.PricePerNight, snap.TotalCost
	if quote, err := pricing.Price(checkIn, checkOut, roomType); err == nil {
		nights, rate, total = quote.Nights, quote.RatePerNight, quote.Total
	}
	if argTotal := intArg(args, "total_cost"); argTotal > 0 {
		total = argTotal
	}
	guests := intArg(args, "guests")
	if guests == 0 {
		guests = snap.Guests
	}

	booking := &entities.Booking{
		ConfirmationCode: d.nextConfirmationCode(ctx),
		GuestName:        stringArg(args, "name"),
		GuestEmail:       d.guest.Email,
		Phone:            stringArg(args, "phone"),
		RoomType:         roomType,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Guests:           guests,
		Nights:           nights,
		RatePerNight:     rate,
		TotalCost:        total,
		Currency:         Currency,
		Status:           entities.BookingStatusConfirmed,
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := d.store.Save(persistCtx, booking); err != nil {
		d.logger.Error("Failed to persist booking",
			zap.String("code", booking.ConfirmationCode),
			zap.Error(err))
		return map[string]any{
			"status":  "error",
			"message": "booking could not be saved, please try again",
		}
	}

	d.publish(EventBookingConfirmed, booking)

	// Fire and forget: the tool result must not wait on notification
	// delivery.
	go func(b entities.Booking) {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := d.notifier.NotifyConfirmation(notifyCtx, d.guest.Email, &b); err != nil {
			d.logger.Warn("Confirmation notification failed",
				zap.String("code", b.ConfirmationCode),
				zap.Error(err))
		}
	}(*booking)

	return map[string]any{
		"status":            "confirmed",
		"confirmation_code": booking.ConfirmationCode,
		"total_cost":        booking.TotalCost,
		"currency":          Currency,
	}
}

func (d *Dispatcher) cancelBooking(ctx context.Context, args map[string]any) map[string]any {
	code := stringArg(args, "confirmation_code")
	if code == "" {
		return map[string]any{
			"status":  "error",
			"message": "confirmation_code is required",
		}
	}

	err := d.store.CancelByCode(ctx, code)
	if errors.Is(err, repositories.ErrBookingNotFound) {
		return map[string]any{
			"status":  "error",
			"message": fmt.Sprintf("no booking found for code %s", code),
		}
	}
	if err != nil {
		d.logger.Error("Failed to cancel booking", zap.String("code", code), zap.Error(err))
		return map[string]any{
			"status":  "error",
			"message": "cancellation failed, please try again",
		}
	}

	d.publish(EventBookingCancelled, map[string]any{"confirmation_code": code})

	return map[string]any{"status": "success"}
}

func (d *Dispatcher) listBookings(ctx context.Context) map[string]any {
	bookings, err := d.store.ListByEmail(ctx, d.guest.Email)
	if err != nil {
		d.logger.Error("Failed to list bookings", zap.Error(err))
		return map[string]any{
			"status":  "error",
			"message": "bookings are unavailable right now",
		}
	}

	active := make([]map[string]any, 0, len(bookings))
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		active = append(active, map[string]any{
			"confirmation_code": b.ConfirmationCode,
			"room_type":         b.RoomType,
			"check_in":          b.CheckIn,
			"check_out":         b.CheckOut,
			"total_cost":        b.TotalCost,
			"status":            string(b.Status),
		})
	}

	return map[string]any{
		"status":   "success",
		"bookings": active,
	}
}

// nextConfirmationCode draws codes until one is unused, checking both the
// session's issued set and the store. Collisions are vanishingly rare, so
// the retry cap exists only to bound the pathological case.
func (d *Dispatcher) nextConfirmationCode(ctx context.Context) string {
	if d.issued == nil {
		d.issued = make(map[string]bool)
	}
	var code string
	for attempt := 0; attempt < 5; attempt++ {
		code = entities.NewConfirmationCode()
		if d.issued[code] {
			continue
		}
		if existing, err := d.store.GetByCode(ctx, code); err == nil && existing != nil {
			continue
		}
		break
	}
	d.issued[code] = true
	return code
}

func (d *Dispatcher) publish(eventType EventType, payload any) {
	if d.emit != nil {
		d.emit(NewEvent(eventType, payload))
	}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
