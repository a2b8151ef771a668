package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
)

// Microphone is the default InputDevice: an ffmpeg subprocess reading the
// platform's default input and emitting s16le mono at InputSampleRate on
// stdout.
type Microphone struct {
	// SampleRate defaults to InputSampleRate.
	SampleRate int
}

type micReader struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

// Open spawns the capture process. Missing ffmpeg or an unsupported
// platform surfaces as a device error at session start, not later.
func (m *Microphone) Open(ctx context.Context) (io.ReadCloser, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, errors.New("ffmpeg is required for microphone capture (install ffmpeg and ensure it is in PATH)")
	}

	rate := m.SampleRate
	if rate <= 0 {
		rate = InputSampleRate
	}
	args, err := micArgs(runtime.GOOS, rate)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open ffmpeg stdout: %w", err)
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg mic capture: %w", err)
	}

	return &micReader{cmd: cmd, stdout: stdout}, nil
}

func micArgs(goos string, rate int) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "avfoundation", "-i", ":0",
			"-ac", "1", "-ar", fmt.Sprintf("%d", rate),
			"-f", "s16le", "-",
		}, nil
	case "linux":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "pulse", "-i", "default",
			"-ac", "1", "-ar", fmt.Sprintf("%d", rate),
			"-f", "s16le", "-",
		}, nil
	default:
		return nil, fmt.Errorf("microphone capture is not implemented for %s; supported platforms: darwin, linux", goos)
	}
}

func (r *micReader) Read(p []byte) (int, error) {
	if r == nil || r.stdout == nil {
		return 0, io.EOF
	}
	return r.stdout.Read(p)
}

func (r *micReader) Close() error {
	if r == nil {
		return nil
	}
	if r.cmd != nil && r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
		_ = r.cmd.Wait()
	}
	return nil
}

// Speaker is the default OutputDevice: an ffplay subprocess fed s16le mono
// at OutputSampleRate on stdin. Reset restarts the process, which is the
// only reliable way to drop audio ffplay has already buffered.
type Speaker struct {
	// SampleRate defaults to OutputSampleRate.
	SampleRate int

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// Open starts the playback process. Like the microphone, a missing ffplay
// binary fails fast.
func (s *Speaker) Open() error {
	if _, err := exec.LookPath("ffplay"); err != nil {
		return errors.New("ffplay is required for playback (install ffmpeg/ffplay and ensure it is in PATH)")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

func (s *Speaker) startLocked() error {
	rate := s.SampleRate
	if rate <= 0 {
		rate = OutputSampleRate
	}
	cmd := exec.Command("ffplay",
		"-nodisp",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", rate),
		"-ac", "1",
		"-i", "pipe:0",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open ffplay stdin: %w", err)
	}
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start ffplay: %w", err)
	}
	s.cmd = cmd
	s.stdin = stdin
	return nil
}

func (s *Speaker) Write(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stdin == nil {
		return errors.New("speaker is not open")
	}
	_, err := s.stdin.Write(pcm)
	return err
}

func (s *Speaker) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return s.startLocked()
}

func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

func (s *Speaker) stopLocked() {
	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	s.cmd = nil
	s.stdin = nil
}
