package audio

import (
	"encoding/binary"
	"math"
)

// Frame is one fixed-size block of captured PCM16 samples. Frames are
// produced continuously while capture is active, consumed once, and not
// retained.
type Frame struct {
	PCM []byte

	// RMS is the raw energy of this block, 0..1.
	RMS float64

	// Level is the exponentially smoothed energy used to drive the UI
	// meter. Raw RMS is too jittery to display directly.
	Level float64

	// Muted records whether the mute flag was set when this frame was
	// produced. Muted frames still carry a level but are never encoded
	// or forwarded to the session.
	Muted bool
}

const (
	levelDecay = 0.8
	levelGain  = 0.2
)

// levelMeter smooths per-frame energy across frames:
// level = level*decay + rms*gain.
type levelMeter struct {
	level float64
}

func (m *levelMeter) update(rms float64) float64 {
	m.level = m.level*levelDecay + rms*levelGain
	return m.level
}

// rmsEnergy computes the normalized root-mean-square energy of PCM16LE
// samples.
func rmsEnergy(pcm []byte) float64 {
	n := len(pcm) / bytesPerSample
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:]))
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}
