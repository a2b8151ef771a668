package usecase

import (
	"context"
	"errors"
	"io"
	"testing"

	"go.uber.org/zap"

	"github.com/omnilodge/concierge/adapters/live"
	"github.com/omnilodge/concierge/adapters/memory"
	"github.com/omnilodge/concierge/domain/entities"
	"github.com/omnilodge/concierge/domain/repositories"
	"github.com/omnilodge/concierge/internal/audio"
)

func newTestConcierge(t *testing.T) (*Concierge, *fakeChannel) {
	t.Helper()

	reader, writer := io.Pipe()
	t.Cleanup(func() { writer.Close() })
	channel := &fakeChannel{}

	concierge := NewConcierge(
		SessionConfig{APIKey: "test-key", Toolset: ToolsetFull},
		SessionDeps{
			Input:      &pipeDevice{reader: reader},
			OpenOutput: func() (audio.OutputDevice, error) { return &fakeOutput{}, nil },
			Channel: func(_ live.Config, cb live.Callbacks) (LiveChannel, error) {
				channel.callbacks = cb
				return channel, nil
			},
			Store:    memory.NewBookingRepository(),
			Notifier: newCaptureNotifier(),
			Logger:   zap.NewNop(),
		},
	)
	concierge.SetEventSink((&eventRecorder{}).sink())
	t.Cleanup(concierge.EndSession)
	return concierge, channel
}

func TestConciergeSingleSession(t *testing.T) {
	concierge, channel := newTestConcierge(t)
	guest := entities.Guest{Email: "ada@example.com", Name: "Ada"}

	session, err := concierge.StartSession(context.Background(), guest)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := concierge.StartSession(context.Background(), guest); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}

	// A finished session no longer blocks a new one.
	channel.callbacks.OnClosed(nil)
	if got := session.State(); got != StateDisconnected {
		t.Fatalf("expected disconnected, got %s", got)
	}
	if _, err := concierge.StartSession(context.Background(), guest); err != nil {
		t.Fatalf("restart after close: %v", err)
	}
}

func TestConciergeControlsRequireSession(t *testing.T) {
	concierge, channel := newTestConcierge(t)

	if err := concierge.SetMuted(true); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	// EndSession without a session is a no-op.
	concierge.EndSession()

	guest := entities.Guest{Email: "ada@example.com", Name: "Ada"}
	if _, err := concierge.StartSession(context.Background(), guest); err != nil {
		t.Fatalf("start: %v", err)
	}
	channel.callbacks.OnOpen()

	if err := concierge.SetMuted(true); err != nil {
		t.Fatalf("mute with live session: %v", err)
	}
}

func TestConciergeCancelScopedToGuest(t *testing.T) {
	concierge, _ := newTestConcierge(t)
	ctx := context.Background()

	store := concierge.deps.Store
	err := store.Save(ctx, &entities.Booking{
		ConfirmationCode: "OMNI-AAAAA",
		GuestName:        "Ada Lovelace",
		GuestEmail:       "ada@example.com",
		RoomType:         "suite",
		Status:           entities.BookingStatusConfirmed,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := concierge.CancelBooking(ctx, "grace@example.com", "OMNI-AAAAA"); !errors.Is(err, repositories.ErrBookingNotFound) {
		t.Fatalf("expected not-found for other guest, got %v", err)
	}
	if err := concierge.CancelBooking(ctx, "ada@example.com", "OMNI-AAAAA"); err != nil {
		t.Fatalf("cancel own booking: %v", err)
	}
}
