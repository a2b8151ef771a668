// Package audio owns the two real-time audio pipelines of a concierge
// session: microphone capture (fixed PCM frames with a smoothed level
// signal) and gapless playback scheduling of the agent's synthesized
// speech, including immediate interruption on barge-in.
package audio

import (
	"errors"
	"time"
)

const (
	// InputSampleRate is the capture rate the live channel expects.
	// Sending a different rate is a protocol violation, not a
	// recoverable error.
	InputSampleRate = 16000

	// OutputSampleRate is the rate of the agent's synthesized audio.
	OutputSampleRate = 24000

	bytesPerSample = 2

	// FrameBytes is the fixed capture frame size: 1024 samples, 64ms
	// of 16kHz mono PCM16.
	FrameBytes = 2048

	// frameQueueDepth bounds the capture queue. When the consumer lags,
	// old frames are dropped; bounded loss beats unbounded latency.
	frameQueueDepth = 8
)

// ErrDeviceUnavailable is returned when the input device cannot be opened.
var ErrDeviceUnavailable = errors.New("audio: input device unavailable")

// ErrAlreadyStarted is returned when Start is called on a running capture.
var ErrAlreadyStarted = errors.New("audio: capture already started")

// PCMDuration returns the play time of a PCM16 mono byte slice at the
// given sample rate.
func PCMDuration(n int, sampleRate int) time.Duration {
	if n <= 0 || sampleRate <= 0 {
		return 0
	}
	samples := n / bytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
