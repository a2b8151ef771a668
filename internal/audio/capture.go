package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// InputDevice opens a stream of raw PCM16LE mono audio at InputSampleRate.
type InputDevice interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Capture owns the input device for the duration of a session. It emits
// fixed-size frames on a bounded channel; producing a frame never blocks
// on the consumer.
type Capture struct {
	device InputDevice
	logger *zap.Logger

	muted atomic.Bool

	mu      sync.Mutex
	reader  io.ReadCloser
	frames  chan Frame
	done    chan struct{}
	started bool
}

// NewCapture creates a capture pipeline around the given device.
func NewCapture(device InputDevice, logger *zap.Logger) *Capture {
	return &Capture{
		device: device,
		logger: logger,
	}
}

// Start opens the device and begins producing frames. It returns
// ErrDeviceUnavailable when the device cannot be opened and
// ErrAlreadyStarted when capture is already running.
func (c *Capture) Start(ctx context.Context) (<-chan Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil, ErrAlreadyStarted
	}

	reader, err := c.device.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	c.reader = reader
	c.frames = make(chan Frame, frameQueueDepth)
	c.done = make(chan struct{})
	c.started = true

	go c.readLoop(reader, c.frames, c.done)

	return c.frames, nil
}

// SetMuted toggles the mute flag. Muted frames keep flowing so the level
// meter stays live, but the session must not forward them.
func (c *Capture) SetMuted(muted bool) {
	c.muted.Store(muted)
}

// Muted reports the current mute flag.
func (c *Capture) Muted() bool {
	return c.muted.Load()
}

// Stop releases the device and waits for the frame producer to exit.
// It is idempotent and safe to call from any goroutine.
func (c *Capture) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	reader := c.reader
	done := c.done
	c.reader = nil
	c.mu.Unlock()

	if reader != nil {
		if err := reader.Close(); err != nil {
			c.logger.Warn("Failed to close input device", zap.Error(err))
		}
	}
	<-done
}

func (c *Capture) readLoop(reader io.Reader, frames chan Frame, done chan struct{}) {
	defer close(done)
	defer close(frames)

	meter := levelMeter{}
	buf := make([]byte, FrameBytes)

	for {
		if _, err := io.ReadFull(reader, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.ErrClosedPipe) {
				c.logger.Warn("Input device read ended", zap.Error(err))
			}
			return
		}

		pcm := make([]byte, FrameBytes)
		copy(pcm, buf)

		energy := rmsEnergy(pcm)
		frame := Frame{
			PCM:   pcm,
			RMS:   energy,
			Level: meter.update(energy),
			Muted: c.muted.Load(),
		}

		select {
		case frames <- frame:
		default:
			// Queue full: evict the oldest frame so the freshest audio
			// wins, then retry once.
			select {
			case <-frames:
			default:
			}
			select {
			case frames <- frame:
			default:
			}
		}
	}
}
