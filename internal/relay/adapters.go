package relay

import (
	"context"
	"errors"
	"io"
	"sync"
)

// DefaultChunkSize is the read size used by ReaderSource when none is given.
const DefaultChunkSize = 32 * 1024

// ReaderSource adapts an io.ReadCloser to a Source. Every chunk is a fresh
// slice, so ownership can pass downstream.
type ReaderSource struct {
	claimFlag
	r         io.ReadCloser
	chunkSize int

	eof        bool
	cancelOnce sync.Once
	cancelled  chan struct{}
}

// NewReaderSource wraps r. A chunkSize <= 0 selects DefaultChunkSize.
func NewReaderSource(r io.ReadCloser, chunkSize int) *ReaderSource {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ReaderSource{
		r:         r,
		chunkSize: chunkSize,
		cancelled: make(chan struct{}),
	}
}

// Next reads at most one chunk. Cancellation closes the underlying reader,
// which is the only way to interrupt a blocked Read.
func (s *ReaderSource) Next(ctx context.Context) ([]byte, error) {
	if s.eof {
		return nil, io.EOF
	}
	select {
	case <-s.cancelled:
		return nil, ErrCancelled
	default:
	}

	buf := make([]byte, s.chunkSize)
	n, err := s.r.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.eof = true
			s.r.Close()
			if n > 0 {
				return buf[:n], nil
			}
			return nil, io.EOF
		}
		select {
		case <-s.cancelled:
			return nil, ErrCancelled
		default:
		}
		return nil, err
	}
	return buf[:n], nil
}

// Cancel closes the underlying reader.
func (s *ReaderSource) Cancel() {
	s.cancelOnce.Do(func() {
		close(s.cancelled)
		s.r.Close()
	})
}

// WriterSink adapts an io.WriteCloser to a Sink. Write blocks until the
// underlying writer returns, which is the acceptance signal.
type WriterSink struct {
	claimFlag
	w    io.WriteCloser
	once sync.Once
}

// NewWriterSink wraps w.
func NewWriterSink(w io.WriteCloser) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Write(_ context.Context, chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	_, err := s.w.Write(chunk)
	return err
}

// Close closes the underlying writer.
func (s *WriterSink) Close() error {
	var err error
	s.once.Do(func() {
		err = s.w.Close()
	})
	return err
}

// Abort closes the underlying writer, passing err along when the writer
// supports it (as *io.PipeWriter does).
func (s *WriterSink) Abort(err error) {
	s.once.Do(func() {
		if cw, ok := s.w.(interface{ CloseWithError(error) error }); ok {
			cw.CloseWithError(err)
			return
		}
		s.w.Close()
	})
}

// NopWriteCloser returns a WriteCloser whose Close does nothing, for
// wrapping writers such as os.Stdout that the relay must not close.
func NopWriteCloser(w io.Writer) io.WriteCloser {
	return nopWriteCloser{w}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
