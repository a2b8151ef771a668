package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Inbound control messages from the UI.
const (
	MessageTypeSessionStart MessageType = "session_start"
	MessageTypeSessionEnd   MessageType = "session_end"
	MessageTypeSetMuted     MessageType = "set_muted"
)

// Outbound messages to the UI.
const (
	MessageTypeSessionState     MessageType = "session_state"
	MessageTypeInputLevel       MessageType = "input_level"
	MessageTypeTranscript       MessageType = "transcript"
	MessageTypeDraftUpdated     MessageType = "draft_updated"
	MessageTypeBookingConfirmed MessageType = "booking_confirmed"
	MessageTypeBookingCancelled MessageType = "booking_cancelled"
	MessageTypeNotice           MessageType = "notice"
	MessageTypeError            MessageType = "error"
)

// ControlMessage is an inbound command from a UI client.
type ControlMessage struct {
	Type MessageType `json:"type"`
	// Muted accompanies set_muted.
	Muted bool `json:"muted,omitempty"`
}

// EventMessage is the outbound envelope. Payload carries the event's
// own structure untouched.
type EventMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload,omitempty"`
}

// ErrorPayload reports a rejected control command back to the UI.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ParseControlMessage decodes and validates one inbound message.
func ParseControlMessage(data []byte) (*ControlMessage, error) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("malformed control message: %w", err)
	}

	switch msg.Type {
	case MessageTypeSessionStart, MessageTypeSessionEnd, MessageTypeSetMuted:
		return &msg, nil
	case "":
		return nil, fmt.Errorf("control message missing type")
	default:
		return nil, fmt.Errorf("unsupported message type: %s", msg.Type)
	}
}

// EncodeEvent marshals an outbound envelope.
func EncodeEvent(msgType MessageType, payload any) ([]byte, error) {
	return json.Marshal(EventMessage{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
