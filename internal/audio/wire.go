package audio

import (
	"encoding/base64"
	"fmt"
)

// InputMimeType is the wire tag for captured audio. It must match the
// declared input contract of the live channel exactly.
const InputMimeType = "audio/pcm;rate=16000"

// EncodeFrame converts a captured frame into its wire representation:
// base64-wrapped PCM16LE.
func EncodeFrame(frame Frame) string {
	return base64.StdEncoding.EncodeToString(frame.PCM)
}

// DecodeChunk converts a base64 wire payload back into playable PCM.
// Malformed payloads are an error for the caller to drop and log; they
// must never take the playback pipeline down.
func DecodeChunk(data string) ([]byte, error) {
	if data == "" {
		return nil, fmt.Errorf("audio: empty chunk payload")
	}
	pcm, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("audio: malformed chunk payload: %w", err)
	}
	return pcm, nil
}
