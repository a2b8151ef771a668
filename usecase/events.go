package usecase

import "time"

// EventType identifies a session event republished to the UI layer.
type EventType string

const (
	EventSessionState     EventType = "session_state"
	EventInputLevel       EventType = "input_level"
	EventTranscript       EventType = "transcript"
	EventDraftUpdated     EventType = "draft_updated"
	EventBookingConfirmed EventType = "booking_confirmed"
	EventBookingCancelled EventType = "booking_cancelled"
	EventNotice           EventType = "notice"
)

// Event is one UI-facing session event. Notices are short, non-blocking
// user-visible failures, kept distinct from the transcript log.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// EventSink receives session events. The hub implements this; tests use
// a capturing function. Sinks must not block.
type EventSink func(Event)

// NewEvent stamps an event with the current time.
func NewEvent(eventType EventType, payload any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// TranscriptPayload is the payload of EventTranscript.
type TranscriptPayload struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// NoticePayload is the payload of EventNotice.
type NoticePayload struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// StatePayload is the payload of EventSessionState.
type StatePayload struct {
	State     SessionState `json:"state"`
	SessionID string       `json:"session_id,omitempty"`
}

// LevelPayload is the payload of EventInputLevel.
type LevelPayload struct {
	Level float64 `json:"level"`
	Muted bool    `json:"muted"`
}
