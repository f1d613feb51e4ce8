package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
)

// DefaultPlayerCodecs is the codec allow-list used for player commands when
// none is configured.
var DefaultPlayerCodecs = []string{"vp8", "vp9", "av1", "opus", "vorbis"}

// CommandSink feeds the stream to a player process on its standard input,
// e.g. "ffplay -autoexit -" or "mpv -". The process exiting, for whatever
// reason, makes the sink Closed.
type CommandSink struct {
	log   *slog.Logger
	argv  []string
	allow []string

	// Stdout and Stderr receive the player's output. Both default to
	// os.Stderr so the player cannot corrupt piped standard output.
	Stdout io.Writer
	Stderr io.Writer

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	exited chan struct{}
	err    error // exit status, valid once exited is closed

	closed atomic.Bool
}

// NewCommandSink creates a sink that runs argv. allow is the list of codecs
// the player accepts; nil selects DefaultPlayerCodecs.
func NewCommandSink(argv []string, allow []string, log *slog.Logger) *CommandSink {
	if allow == nil {
		allow = DefaultPlayerCodecs
	}
	if log == nil {
		log = slog.Default()
	}
	return &CommandSink{
		log:    log.With("component", "player"),
		argv:   argv,
		allow:  allow,
		exited: make(chan struct{}),
	}
}

func (s *CommandSink) Supports(mimeType string) bool {
	return len(s.argv) > 0 && containerSupported(mimeType) && codecsAllowed(mimeType, s.allow)
}

// Open starts the player. The player is not tied to ctx: it is stopped by
// EndOfStream or Abort.
func (s *CommandSink) Open(_ context.Context, mimeType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.argv) == 0 {
		return errors.New("playback: empty player command")
	}
	if s.cmd != nil {
		return errors.New("playback: player already started")
	}

	cmd := exec.Command(s.argv[0], s.argv[1:]...)
	cmd.Stdout = s.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stderr
	}
	cmd.Stderr = s.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("playback: player stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("playback: start %s: %w", s.argv[0], err)
	}
	s.cmd = cmd
	s.stdin = stdin
	s.log.Info("player started", "cmd", s.argv[0], "pid", cmd.Process.Pid, "mime", mimeType)

	go func() {
		err := cmd.Wait()
		s.err = err
		s.closed.Store(true)
		close(s.exited)
		s.log.Debug("player exited", "error", err)
	}()
	return nil
}

func (s *CommandSink) Append(_ context.Context, chunk []byte) error {
	s.mu.Lock()
	stdin := s.stdin
	s.mu.Unlock()

	if stdin == nil || s.closed.Load() {
		return ErrSinkClosed
	}
	if _, err := stdin.Write(chunk); err != nil {
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
			s.closed.Store(true)
		}
		return err
	}
	return nil
}

// Closed reports whether the player has exited or stopped reading.
func (s *CommandSink) Closed() bool {
	return s.closed.Load()
}

// EndOfStream closes the player's input and waits for it to finish
// playing what it has.
func (s *CommandSink) EndOfStream() error {
	s.mu.Lock()
	stdin, started := s.stdin, s.cmd != nil
	s.mu.Unlock()

	if !started {
		return nil
	}
	stdin.Close()
	<-s.exited
	if s.err != nil {
		return fmt.Errorf("playback: player: %w", s.err)
	}
	return nil
}

// Abort kills the player.
func (s *CommandSink) Abort(error) {
	s.mu.Lock()
	cmd, stdin := s.cmd, s.stdin
	s.mu.Unlock()

	if cmd == nil {
		return
	}
	stdin.Close()
	cmd.Process.Kill()
	<-s.exited
}
