package live

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func newTestChannel(t *testing.T, callbacks Callbacks) *Channel {
	t.Helper()
	c, err := NewChannel(Config{APIKey: "test-key"}, callbacks, zap.NewNop())
	if err != nil {
		t.Fatalf("NewChannel() error = %v", err)
	}
	return c
}

func feed(t *testing.T, c *Channel, raw string) {
	t.Helper()
	var msg map[string]any
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	c.handleMessage(msg)
}

func TestNewChannelRequiresKey(t *testing.T) {
	if _, err := NewChannel(Config{}, Callbacks{}, zap.NewNop()); err != ErrMissingAPIKey {
		t.Errorf("NewChannel() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestNewChannelDefaults(t *testing.T) {
	c := newTestChannel(t, Callbacks{})
	if c.config.Model != DefaultModel {
		t.Errorf("Model = %s, want %s", c.config.Model, DefaultModel)
	}
	if c.config.Voice != DefaultVoice {
		t.Errorf("Voice = %s, want %s", c.config.Voice, DefaultVoice)
	}
}

func TestHandleSetupComplete(t *testing.T) {
	opened := false
	c := newTestChannel(t, Callbacks{OnOpen: func() { opened = true }})

	feed(t, c, `{"setupComplete": {}}`)
	if !opened {
		t.Error("setupComplete should fire OnOpen")
	}
}

func TestHandleServerContentAudio(t *testing.T) {
	var gotData, gotMime string
	c := newTestChannel(t, Callbacks{OnAudio: func(data, mime string) {
		gotData, gotMime = data, mime
	}})

	feed(t, c, `{"serverContent": {"modelTurn": {"parts": [
		{"inlineData": {"mimeType": "audio/pcm;rate=24000", "data": "AAECAw=="}}
	]}}}`)

	if gotData != "AAECAw==" {
		t.Errorf("audio data = %q, want AAECAw==", gotData)
	}
	if gotMime != "audio/pcm;rate=24000" {
		t.Errorf("mime = %q", gotMime)
	}
}

func TestHandleInterrupted(t *testing.T) {
	interrupted := false
	audio := false
	c := newTestChannel(t, Callbacks{
		OnInterrupted: func() { interrupted = true },
		OnAudio:       func(string, string) { audio = true },
	})

	feed(t, c, `{"serverContent": {"interrupted": true}}`)
	if !interrupted {
		t.Error("interrupted flag should fire OnInterrupted")
	}
	if audio {
		t.Error("interruption message must not be treated as audio")
	}
}

func TestHandleTranscripts(t *testing.T) {
	type line struct{ text, role string }
	var lines []line
	c := newTestChannel(t, Callbacks{OnTranscript: func(text, role string) {
		lines = append(lines, line{text, role})
	}})

	feed(t, c, `{"serverContent": {"inputTranscription": {"text": "two nights please"}}}`)
	feed(t, c, `{"serverContent": {"outputTranscription": {"text": "Certainly."}}}`)

	if len(lines) != 2 {
		t.Fatalf("got %d transcript lines, want 2", len(lines))
	}
	if lines[0].role != "user" || lines[0].text != "two nights please" {
		t.Errorf("line 0 = %+v", lines[0])
	}
	if lines[1].role != "agent" || lines[1].text != "Certainly." {
		t.Errorf("line 1 = %+v", lines[1])
	}
}

func TestHandleToolCallBatch(t *testing.T) {
	var batches [][]ToolCall
	c := newTestChannel(t, Callbacks{OnToolCalls: func(calls []ToolCall) {
		batches = append(batches, calls)
	}})

	feed(t, c, `{"toolCall": {"functionCalls": [
		{"id": "call-1", "name": "check_availability", "args": {"room_type": "suite"}},
		{"id": "call-2", "name": "list_bookings", "args": {}}
	]}}`)

	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}
	batch := batches[0]
	if len(batch) != 2 {
		t.Fatalf("got %d calls, want 2", len(batch))
	}
	if batch[0].ID != "call-1" || batch[0].Name != "check_availability" {
		t.Errorf("call 0 = %+v", batch[0])
	}
	if batch[0].Arguments["room_type"] != "suite" {
		t.Errorf("call 0 args = %v", batch[0].Arguments)
	}
	if batch[1].ID != "call-2" || batch[1].Name != "list_bookings" {
		t.Errorf("call 1 = %+v", batch[1])
	}
}

func TestHandleTurnComplete(t *testing.T) {
	done := false
	c := newTestChannel(t, Callbacks{OnTurnComplete: func() { done = true }})

	feed(t, c, `{"serverContent": {"turnComplete": true}}`)
	if !done {
		t.Error("turnComplete should fire OnTurnComplete")
	}
}

func TestUnknownMessageIgnored(t *testing.T) {
	c := newTestChannel(t, Callbacks{})
	feed(t, c, `{"usageMetadata": {"totalTokens": 12}}`) // must not panic
}

func TestSendWithoutConnect(t *testing.T) {
	c := newTestChannel(t, Callbacks{})
	if err := c.SendAudio("AAAA", "audio/pcm;rate=16000"); err != ErrNotConnected {
		t.Errorf("SendAudio error = %v, want ErrNotConnected", err)
	}
	if err := c.SendToolResults(nil); err != ErrNotConnected {
		t.Errorf("SendToolResults error = %v, want ErrNotConnected", err)
	}
}
