// Package live implements the streaming channel to the Gemini Live API:
// a single WebSocket carrying realtime audio both ways plus the agent's
// structured tool-call protocol.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	geminiLiveURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// DefaultModel is the speech-to-speech model the concierge talks to.
	DefaultModel = "models/gemini-2.0-flash-exp"

	// DefaultVoice is used when no voice is configured.
	DefaultVoice = "Aoede"

	handshakeTimeout = 10 * time.Second
)

var (
	// ErrMissingAPIKey is returned when the channel is built without a
	// credential. This is a configuration error, callers should treat it
	// as fatal at startup.
	ErrMissingAPIKey = errors.New("live: missing API key")

	// ErrNotConnected is returned when sending on a closed channel.
	ErrNotConnected = errors.New("live: channel not connected")
)

// Tool declares one callable function to the agent.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is one invocation from the agent. Calls arrive only inside a
// batch; the batch corresponds to a single inbound protocol event.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult answers one ToolCall, correlated by ID.
type ToolResult struct {
	ID       string
	Name     string
	Response map[string]any
}

// Config is the connect-time payload for a session.
type Config struct {
	APIKey            string
	Model             string
	Voice             string
	SystemInstruction string
	Tools             []Tool
}

// Callbacks receive inbound channel events. All callbacks run on the
// channel's single read goroutine, so a callback that finishes before
// returning is guaranteed to finish before the next inbound message is
// handled. The tool-call ordering rule depends on this.
type Callbacks struct {
	// OnOpen fires once when the remote acknowledges setup.
	OnOpen func()

	// OnAudio receives one inline audio payload, still base64-wrapped.
	OnAudio func(data string, mimeType string)

	// OnInterrupted fires when the user barges in over the agent.
	OnInterrupted func()

	// OnToolCalls receives one batch of tool invocations.
	OnToolCalls func(calls []ToolCall)

	// OnTranscript receives transcription text; final marks end of the
	// user's utterance.
	OnTranscript func(text string, role string)

	// OnTurnComplete fires when the agent finishes a response turn.
	OnTurnComplete func()

	// OnClosed fires exactly once when the channel goes away; err is nil
	// for a clean remote close.
	OnClosed func(err error)
}

// Channel is a live session with the remote agent. It is good for one
// connect; build a new Channel per session.
type Channel struct {
	config    Config
	callbacks Callbacks
	logger    *zap.Logger

	conn   *websocket.Conn
	connMu sync.Mutex // guards writes; gorilla allows one writer at a time

	mu        sync.RWMutex
	connected bool
	closed    bool
}

// NewChannel builds an unconnected channel.
func NewChannel(config Config, callbacks Callbacks, logger *zap.Logger) (*Channel, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Voice == "" {
		config.Voice = DefaultVoice
	}
	return &Channel{
		config:    config,
		callbacks: callbacks,
		logger:    logger,
	}, nil
}

// Connect dials the live endpoint and sends the session setup payload.
// OnOpen fires later, when the remote acknowledges the setup.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected || c.closed {
		c.mu.Unlock()
		return errors.New("live: channel already used")
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	url := fmt.Sprintf("%s?key=%s", geminiLiveURL, c.config.APIKey)

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return fmt.Errorf("live: failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.sendSetup(); err != nil {
		_ = c.Close()
		return fmt.Errorf("live: failed to configure session: %w", err)
	}

	go c.readLoop()

	return nil
}

func (c *Channel) sendSetup() error {
	setup := map[string]any{
		"model": c.config.Model,
		"generation_config": map[string]any{
			"response_modalities": []string{"AUDIO"},
			"speech_config": map[string]any{
				"voice_config": map[string]any{
					"prebuilt_voice_config": map[string]any{
						"voice_name": c.config.Voice,
					},
				},
			},
		},
		"system_instruction": map[string]any{
			"parts": []map[string]any{
				{"text": c.config.SystemInstruction},
			},
		},
	}

	if len(c.config.Tools) > 0 {
		declarations := make([]map[string]any, 0, len(c.config.Tools))
		for _, tool := range c.config.Tools {
			declarations = append(declarations, map[string]any{
				"name":        tool.Name,
				"description": tool.Description,
				"parameters":  tool.Parameters,
			})
		}
		setup["tools"] = []map[string]any{
			{"function_declarations": declarations},
		}
	}

	return c.sendJSON(map[string]any{"setup": setup})
}

// SendAudio forwards one encoded capture frame. It never blocks beyond
// the WebSocket write itself.
func (c *Channel) SendAudio(data string, mimeType string) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return c.sendJSON(map[string]any{
		"realtime_input": map[string]any{
			"media_chunks": []map[string]any{
				{
					"data":      data,
					"mime_type": mimeType,
				},
			},
		},
	})
}

// SendToolResults answers a batch of tool calls. Every call ID in the
// originating batch must appear exactly once across the results.
func (c *Channel) SendToolResults(results []ToolResult) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	responses := make([]map[string]any, 0, len(results))
	for _, r := range results {
		responses = append(responses, map[string]any{
			"id":       r.ID,
			"name":     r.Name,
			"response": r.Response,
		})
	}
	return c.sendJSON(map[string]any{
		"tool_response": map[string]any{
			"function_responses": responses,
		},
	})
}

// IsConnected reports whether the channel is usable.
func (c *Channel) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && !c.closed
}

// Close tears the channel down. Safe to call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Channel) sendJSON(v any) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(v)
}

func (c *Channel) readLoop() {
	for {
		c.mu.RLock()
		closed := c.closed
		conn := c.conn
		c.mu.RUnlock()
		if closed || conn == nil {
			c.emitClosed(nil)
			return
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.mu.RLock()
			closed := c.closed
			c.mu.RUnlock()
			if closed || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.emitClosed(nil)
			} else {
				c.emitClosed(err)
			}
			return
		}

		var msg map[string]any
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Warn("Failed to parse live message", zap.Error(err))
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Channel) emitClosed(err error) {
	c.mu.Lock()
	already := c.closed && c.conn == nil
	c.closed = true
	c.connected = false
	c.conn = nil
	c.mu.Unlock()

	if already {
		return
	}
	if c.callbacks.OnClosed != nil {
		c.callbacks.OnClosed(err)
	}
}

// handleMessage routes one inbound protocol event. Exposed to tests via
// the JSON fixtures in gemini_test.go.
func (c *Channel) handleMessage(msg map[string]any) {
	if _, ok := msg["setupComplete"]; ok {
		c.logger.Info("Live session ready")
		if c.callbacks.OnOpen != nil {
			c.callbacks.OnOpen()
		}
		return
	}

	if content, ok := msg["serverContent"].(map[string]any); ok {
		c.handleServerContent(content)
		return
	}

	if toolCall, ok := msg["toolCall"].(map[string]any); ok {
		c.handleToolCall(toolCall)
		return
	}

	if _, ok := msg["toolCallCancellation"]; ok {
		c.logger.Debug("Live tool call cancelled by agent")
		return
	}

	c.logger.Debug("Unhandled live message", zap.Any("message", msg))
}

func (c *Channel) handleServerContent(content map[string]any) {
	if interrupted, ok := content["interrupted"].(bool); ok && interrupted {
		if c.callbacks.OnInterrupted != nil {
			c.callbacks.OnInterrupted()
		}
		return
	}

	if turnComplete, ok := content["turnComplete"].(bool); ok && turnComplete {
		if c.callbacks.OnTurnComplete != nil {
			c.callbacks.OnTurnComplete()
		}
		return
	}

	if modelTurn, ok := content["modelTurn"].(map[string]any); ok {
		parts, _ := modelTurn["parts"].([]any)
		for _, part := range parts {
			partMap, ok := part.(map[string]any)
			if !ok {
				continue
			}
			if inline, ok := partMap["inlineData"].(map[string]any); ok {
				mimeType, _ := inline["mimeType"].(string)
				data, _ := inline["data"].(string)
				if data != "" && c.callbacks.OnAudio != nil {
					c.callbacks.OnAudio(data, mimeType)
				}
			}
		}
	}

	if transcript, ok := content["inputTranscription"].(map[string]any); ok {
		if text, ok := transcript["text"].(string); ok && text != "" {
			if c.callbacks.OnTranscript != nil {
				c.callbacks.OnTranscript(text, "user")
			}
		}
	}

	if transcript, ok := content["outputTranscription"].(map[string]any); ok {
		if text, ok := transcript["text"].(string); ok && text != "" {
			if c.callbacks.OnTranscript != nil {
				c.callbacks.OnTranscript(text, "agent")
			}
		}
	}
}

func (c *Channel) handleToolCall(toolCall map[string]any) {
	functionCalls, ok := toolCall["functionCalls"].([]any)
	if !ok || len(functionCalls) == 0 {
		return
	}

	calls := make([]ToolCall, 0, len(functionCalls))
	for _, fc := range functionCalls {
		fcMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		id, _ := fcMap["id"].(string)
		name, _ := fcMap["name"].(string)
		args, _ := fcMap["args"].(map[string]any)
		calls = append(calls, ToolCall{ID: id, Name: name, Arguments: args})
	}

	if len(calls) > 0 && c.callbacks.OnToolCalls != nil {
		c.callbacks.OnToolCalls(calls)
	}
}
