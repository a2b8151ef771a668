package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omnilodge/concierge/adapters/live"
	"github.com/omnilodge/concierge/domain/entities"
	"github.com/omnilodge/concierge/domain/repositories"
	"github.com/omnilodge/concierge/internal/audio"
)

// SessionState is the lifecycle of a voice session. Error is terminal
// for the session: it never heals on its own, only an explicit new
// connect attempt leaves it.
type SessionState string

const (
	StateDisconnected SessionState = "disconnected"
	StateConnecting   SessionState = "connecting"
	StateConnected    SessionState = "connected"
	StateError        SessionState = "error"
)

// LiveChannel is the slice of the agent channel the session drives.
type LiveChannel interface {
	Connect(ctx context.Context) error
	SendAudio(data, mimeType string) error
	SendToolResults(results []live.ToolResult) error
	Close() error
}

// ChannelFactory builds a channel for one connection attempt.
type ChannelFactory func(cfg live.Config, cb live.Callbacks) (LiveChannel, error)

// SessionConfig carries everything a session needs beyond its deps.
type SessionConfig struct {
	APIKey  string
	Model   string
	Voice   string
	Toolset Toolset
	Guest   entities.Guest
}

// SessionDeps are the collaborators injected into a session.
type SessionDeps struct {
	Input      audio.InputDevice
	OpenOutput func() (audio.OutputDevice, error)
	Channel    ChannelFactory
	Store      repositories.BookingRepository
	Notifier   repositories.Notifier
	Emit       EventSink
	Logger     *zap.Logger
}

// Session owns one live voice conversation: microphone frames out,
// agent audio back in, tool calls answered in between. All state
// mutation happens under mu; the agent callbacks arrive on the
// channel's single read goroutine.
type Session struct {
	id     string
	cfg    SessionConfig
	deps   SessionDeps
	logger *zap.Logger

	dispatcher *Dispatcher

	mu        sync.Mutex
	state     SessionState
	lastErr   error
	channel   LiveChannel
	capture   *audio.Capture
	scheduler *audio.Scheduler
	pumpDone  chan struct{}
}

// NewSession builds a session in the Disconnected state.
func NewSession(cfg SessionConfig, deps SessionDeps) *Session {
	id := uuid.New().String()
	logger := deps.Logger.With(zap.String("sessionID", id))
	return &Session{
		id:     id,
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		state:  StateDisconnected,
		dispatcher: NewDispatcher(cfg.Guest, deps.Store, deps.Notifier,
			deps.Emit, logger),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State reports the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that put the session into the Error state, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Start connects to the agent. Valid only from Disconnected or Error;
// starting from Error is how a session is explicitly retried.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateConnecting || s.state == StateConnected {
		s.mu.Unlock()
		return fmt.Errorf("session already active in state %s", s.state)
	}
	s.lastErr = nil
	// Each connect starts a fresh negotiation.
	s.dispatcher.Draft().Reset()
	s.setStateLocked(StateConnecting)

	channel, err := s.deps.Channel(live.Config{
		APIKey:            s.cfg.APIKey,
		Model:             s.cfg.Model,
		Voice:             s.cfg.Voice,
		SystemInstruction: s.systemInstruction(),
		Tools:             DeclaredTools(s.cfg.Toolset),
	}, live.Callbacks{
		OnOpen:         s.onOpen,
		OnAudio:        s.onAudio,
		OnInterrupted:  s.onInterrupted,
		OnToolCalls:    s.onToolCalls,
		OnTranscript:   s.onTranscript,
		OnTurnComplete: func() {},
		OnClosed:       s.onClosed,
	})
	if err != nil {
		s.failLocked(fmt.Errorf("build channel: %w", err))
		s.mu.Unlock()
		return err
	}
	s.channel = channel
	s.mu.Unlock()

	if err := channel.Connect(ctx); err != nil {
		s.mu.Lock()
		s.failLocked(fmt.Errorf("connect: %w", err))
		s.mu.Unlock()
		return err
	}
	return nil
}

// End tears the session down synchronously: by the time it returns the
// microphone and speaker are released and the channel is closed.
func (s *Session) End() {
	s.mu.Lock()
	if s.state == StateDisconnected || s.state == StateError {
		s.mu.Unlock()
		return
	}
	s.teardownLocked()
	s.setStateLocked(StateDisconnected)
	s.mu.Unlock()
}

// SetMuted toggles microphone forwarding. Frames continue to be read
// and metered while muted; only forwarding stops. Not a state change.
func (s *Session) SetMuted(muted bool) {
	s.mu.Lock()
	capture := s.capture
	s.mu.Unlock()
	if capture != nil {
		capture.SetMuted(muted)
	}
}

// Muted reports whether microphone forwarding is suppressed.
func (s *Session) Muted() bool {
	s.mu.Lock()
	capture := s.capture
	s.mu.Unlock()
	return capture != nil && capture.Muted()
}

func (s *Session) onOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return
	}

	output, err := s.deps.OpenOutput()
	if err != nil {
		s.failLocked(fmt.Errorf("open output device: %w", err))
		s.closeChannelLocked()
		return
	}
	s.scheduler = audio.NewScheduler(output, audio.OutputSampleRate, s.logger)

	s.capture = audio.NewCapture(s.deps.Input, s.logger)
	frames, err := s.capture.Start(context.Background())
	if err != nil {
		s.scheduler.Close()
		s.scheduler = nil
		s.capture = nil
		s.failLocked(fmt.Errorf("start capture: %w", err))
		s.closeChannelLocked()
		return
	}

	s.pumpDone = make(chan struct{})
	go s.pumpFrames(frames, s.channel, s.pumpDone)

	s.setStateLocked(StateConnected)
	s.logger.Info("Voice session connected")
}

// pumpFrames forwards live microphone frames to the agent and publishes
// level events for the UI. Muted frames are metered but never sent.
func (s *Session) pumpFrames(frames <-chan audio.Frame, channel LiveChannel, done chan struct{}) {
	defer close(done)
	for frame := range frames {
		s.publish(EventInputLevel, LevelPayload{
			Level: frame.Level,
			Muted: frame.Muted,
		})
		if frame.Muted {
			continue
		}
		if err := channel.SendAudio(audio.EncodeFrame(frame), audio.InputMimeType); err != nil {
			s.logger.Warn("Dropping audio frame", zap.Error(err))
		}
	}
}

func (s *Session) onAudio(data, mimeType string) {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()
	if scheduler == nil {
		return
	}

	pcm, err := audio.DecodeChunk(data)
	if err != nil {
		// Malformed chunks are dropped, not fatal: the stream continues
		// with the next chunk.
		s.logger.Warn("Dropping malformed audio chunk",
			zap.String("mimeType", mimeType), zap.Error(err))
		return
	}
	scheduler.Enqueue(pcm)
}

func (s *Session) onInterrupted() {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()
	if scheduler != nil {
		scheduler.Interrupt()
	}
	s.publish(EventNotice, NoticePayload{Message: "response interrupted"})
}

// onToolCalls runs on the channel's read goroutine, so answering the
// batch before returning guarantees results are sent before the next
// inbound message is processed.
func (s *Session) onToolCalls(calls []live.ToolCall) {
	s.mu.Lock()
	channel := s.channel
	s.mu.Unlock()
	if channel == nil {
		return
	}

	results := s.dispatcher.Handle(context.Background(), calls)
	if err := channel.SendToolResults(results); err != nil {
		s.logger.Error("Failed to send tool results", zap.Error(err))
	}
}

func (s *Session) onTranscript(text, role string) {
	s.publish(EventTranscript, TranscriptPayload{Text: text, Role: role})
}

func (s *Session) onClosed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisconnected || s.state == StateError {
		// End() or a failure already tore the session down.
		return
	}
	s.teardownLocked()
	if err != nil {
		s.failLocked(fmt.Errorf("channel closed: %w", err))
		return
	}
	s.setStateLocked(StateDisconnected)
}

// teardownLocked releases channel, mic and speaker. Callers hold mu.
// The channel goes first so a frame send blocked on the socket errors
// out instead of delaying capture shutdown.
func (s *Session) teardownLocked() {
	s.closeChannelLocked()
	if s.capture != nil {
		s.capture.Stop()
		s.capture = nil
	}
	if s.pumpDone != nil {
		<-s.pumpDone
		s.pumpDone = nil
	}
	if s.scheduler != nil {
		s.scheduler.Interrupt()
		s.scheduler.Close()
		s.scheduler = nil
	}
}

func (s *Session) closeChannelLocked() {
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			s.logger.Debug("Channel close", zap.Error(err))
		}
		s.channel = nil
	}
}

func (s *Session) failLocked(err error) {
	s.lastErr = err
	s.logger.Error("Voice session failed", zap.Error(err))
	s.setStateLocked(StateError)
}

func (s *Session) setStateLocked(state SessionState) {
	s.state = state
	s.publish(EventSessionState, StatePayload{
		State:     state,
		SessionID: s.id,
	})
}

func (s *Session) publish(eventType EventType, payload any) {
	if s.deps.Emit != nil {
		s.deps.Emit(NewEvent(eventType, payload))
	}
}

func (s *Session) systemInstruction() string {
	name := s.cfg.Guest.Name
	if name == "" {
		name = "the guest"
	}
	return fmt.Sprintf(
		"You are the front-desk concierge for the Omnilodge hotel, speaking with %s (%s). "+
			"Help them check room availability, book rooms, review their bookings, and cancel bookings "+
			"using the tools provided. Always check availability before finalizing a booking, confirm "+
			"the details back to the guest, and keep answers short and spoken-friendly.",
		name, s.cfg.Guest.Email)
}
