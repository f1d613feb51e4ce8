package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
)

// ErrTerminalOutput is returned by FileSink.Open when asked to write media
// to standard output while it is a terminal.
var ErrTerminalOutput = errors.New("playback: refusing to write media to a terminal")

// FileSink writes the stream to a file, or to standard output when the
// path is "-". The output path is guarded by an advisory lock so two
// transfers cannot interleave into the same file.
type FileSink struct {
	path  string
	allow []string

	mu   sync.Mutex
	w    io.Writer
	f    *os.File
	lock *flock.Flock

	written atomic.Int64
	closed  atomic.Bool
}

// NewFileSink creates a sink for path. allow restricts the accepted codecs;
// nil accepts any codec in a WebM or Matroska container.
func NewFileSink(path string, allow []string) *FileSink {
	return &FileSink{path: path, allow: allow}
}

// Path returns the output path, "-" for standard output.
func (s *FileSink) Path() string { return s.path }

// Written returns the number of bytes accepted so far.
func (s *FileSink) Written() int64 { return s.written.Load() }

func (s *FileSink) Supports(mimeType string) bool {
	return containerSupported(mimeType) && codecsAllowed(mimeType, s.allow)
}

func (s *FileSink) Open(_ context.Context, mimeType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "-" || s.path == "" {
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return ErrTerminalOutput
		}
		s.w = os.Stdout
		return nil
	}

	lock := flock.New(s.path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("playback: lock %s: %w", s.path, err)
	}
	if !ok {
		return fmt.Errorf("playback: %s is being written by another transfer", s.path)
	}

	f, err := os.Create(s.path)
	if err != nil {
		lock.Unlock()
		return fmt.Errorf("playback: create %s: %w", s.path, err)
	}
	s.lock = lock
	s.f = f
	s.w = f
	return nil
}

func (s *FileSink) Append(_ context.Context, chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		return ErrSinkClosed
	}
	n, err := s.w.Write(chunk)
	s.written.Add(int64(n))
	if err != nil {
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
			s.closed.Store(true)
		}
		return err
	}
	return nil
}

// Closed reports whether the reader on the other end of the output went
// away, as happens when stdout is piped into a player that exited.
func (s *FileSink) Closed() bool {
	return s.closed.Load()
}

func (s *FileSink) EndOfStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.release()
}

// Abort closes the output. A partially written file is kept.
func (s *FileSink) Abort(error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()
}

func (s *FileSink) release() error {
	s.w = nil
	var err error
	if s.f != nil {
		err = s.f.Close()
		s.f = nil
	}
	if s.lock != nil {
		s.lock.Unlock()
		os.Remove(s.lock.Path())
		s.lock = nil
	}
	return err
}
