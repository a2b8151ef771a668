package usecase

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/omnilodge/concierge/domain/entities"
	"github.com/omnilodge/concierge/domain/repositories"
)

// ErrSessionActive is returned when a second voice session is started
// while one is already running. The appliance owns a single microphone
// and speaker, so there is at most one live session.
var ErrSessionActive = errors.New("a voice session is already active")

// ErrNoSession is returned for controls that need a running session.
var ErrNoSession = errors.New("no active voice session")

// Concierge is the application facade: it runs at most one voice
// session at a time and serves booking queries for the REST surface.
type Concierge struct {
	cfg    SessionConfig
	deps   SessionDeps
	logger *zap.Logger

	mu      sync.Mutex
	session *Session
}

// NewConcierge wires the facade.
func NewConcierge(cfg SessionConfig, deps SessionDeps) *Concierge {
	return &Concierge{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
	}
}

// SetEventSink wires the event destination after construction; the hub
// needs the concierge as its controller, so the two are tied together
// in two steps. Must be called before the first session starts.
func (c *Concierge) SetEventSink(emit EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deps.Emit = emit
}

// StartSession begins a voice session for the given guest. Fails if a
// session is already connecting or connected.
func (c *Concierge) StartSession(ctx context.Context, guest entities.Guest) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		switch c.session.State() {
		case StateConnecting, StateConnected:
			return nil, ErrSessionActive
		}
	}

	cfg := c.cfg
	cfg.Guest = guest
	session := NewSession(cfg, c.deps)
	if err := session.Start(ctx); err != nil {
		return nil, err
	}
	c.session = session
	return session, nil
}

// EndSession tears down the active session, if any.
func (c *Concierge) EndSession() {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session != nil {
		session.End()
	}
}

// SetMuted toggles the active session's microphone forwarding.
func (c *Concierge) SetMuted(muted bool) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil || session.State() != StateConnected {
		return ErrNoSession
	}
	session.SetMuted(muted)
	return nil
}

// Session returns the current session, which may be nil or finished.
func (c *Concierge) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// ListBookings returns all bookings on record for a guest, newest first
// per the repository's ordering.
func (c *Concierge) ListBookings(ctx context.Context, email string) ([]*entities.Booking, error) {
	return c.deps.Store.ListByEmail(ctx, email)
}

// CancelBooking cancels by confirmation code on behalf of the REST
// surface and mirrors the change to UI observers.
func (c *Concierge) CancelBooking(ctx context.Context, email, code string) error {
	booking, err := c.deps.Store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if booking.GuestEmail != email {
		return repositories.ErrBookingNotFound
	}
	if err := c.deps.Store.CancelByCode(ctx, code); err != nil {
		return err
	}

	if c.deps.Emit != nil {
		c.deps.Emit(NewEvent(EventBookingCancelled, map[string]any{
			"confirmation_code": code,
		}))
	}
	c.logger.Info("Booking cancelled", zap.String("code", code))
	return nil
}
