package audio

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// OutputDevice accepts raw PCM16LE mono audio at OutputSampleRate.
// Reset must discard anything the device has buffered but not yet played.
type OutputDevice interface {
	Write(pcm []byte) error
	Reset() error
	Close() error
}

// Scheduler plays decoded audio chunks back to back with no gap and no
// overlap, regardless of arrival jitter, as long as each chunk arrives
// before its predecessor finishes.
//
// The only ordering mechanism is the playback clock: the earliest instant
// the next chunk may start. Enqueue is called by a single writer (the
// session's inbound message handler), so the clock arithmetic needs no
// ordering beyond the scheduler's own mutex.
type Scheduler struct {
	device     OutputDevice
	sampleRate int
	logger     *zap.Logger
	now        func() time.Time

	mu        sync.Mutex
	clock     time.Time // zero means "no audio pending, start immediately"
	scheduled map[int64]*scheduledChunk
	nextID    int64
	closed    bool
}

type scheduledChunk struct {
	startTimer *time.Timer
	endTimer   *time.Timer
}

// NewScheduler creates a playback scheduler over the given device.
func NewScheduler(device OutputDevice, sampleRate int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		device:     device,
		sampleRate: sampleRate,
		logger:     logger,
		now:        time.Now,
		scheduled:  make(map[int64]*scheduledChunk),
	}
}

// Enqueue schedules a decoded chunk to start as soon as the previous one
// ends, or immediately if nothing is pending.
func (s *Scheduler) Enqueue(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	duration := PCMDuration(len(pcm), s.sampleRate)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	now := s.now()
	startAt := now
	if s.clock.After(now) {
		startAt = s.clock
	}
	s.clock = startAt.Add(duration)

	id := s.nextID
	s.nextID++

	chunk := &scheduledChunk{}
	chunk.startTimer = time.AfterFunc(startAt.Sub(now), func() {
		s.play(id, pcm, duration)
	})
	s.scheduled[id] = chunk
}

func (s *Scheduler) play(id int64, pcm []byte, duration time.Duration) {
	s.mu.Lock()
	chunk, ok := s.scheduled[id]
	if !ok {
		// Interrupted between scheduling and start.
		s.mu.Unlock()
		return
	}
	chunk.endTimer = time.AfterFunc(duration, func() {
		s.mu.Lock()
		delete(s.scheduled, id)
		s.mu.Unlock()
	})
	s.mu.Unlock()

	if err := s.device.Write(pcm); err != nil {
		s.logger.Warn("Output device write failed", zap.Error(err))
	}
}

// Interrupt stops every scheduled chunk immediately, clears the set and
// resets the playback clock. Called on barge-in: no stale audio may keep
// playing once the user has started speaking over the agent.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	for id, chunk := range s.scheduled {
		chunk.stop()
		delete(s.scheduled, id)
	}
	s.clock = time.Time{}
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return
	}
	if err := s.device.Reset(); err != nil {
		s.logger.Warn("Output device reset failed", zap.Error(err))
	}
}

// Close interrupts playback and releases the output device. Called at
// session end.
func (s *Scheduler) Close() {
	s.Interrupt()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.device.Close(); err != nil {
		s.logger.Warn("Output device close failed", zap.Error(err))
	}
}

// Pending reports how many chunks are currently scheduled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scheduled)
}

// ClockAt reports the earliest instant the next chunk may start. The zero
// time means playback is idle.
func (s *Scheduler) ClockAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

func (c *scheduledChunk) stop() {
	if c.startTimer != nil {
		c.startTimer.Stop()
	}
	if c.endTimer != nil {
		c.endTimer.Stop()
	}
}
