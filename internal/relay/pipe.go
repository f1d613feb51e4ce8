package relay

import (
	"context"
	"io"
	"sync"
)

// Pipe returns a connected Source/Sink pair for handing a stream from one
// goroutine to another. The hand-off is unbuffered: PipeSink.Write returns
// only once PipeSource.Next has taken the chunk, so a relay writing into the
// pipe never gets ahead of the consumer.
func Pipe() (*PipeSource, *PipeSink) {
	p := &pipe{
		chunks: make(chan []byte),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	return &PipeSource{p: p}, &PipeSink{p: p}
}

type pipe struct {
	chunks chan []byte
	closed chan struct{} // writer finished cleanly
	done   chan struct{} // either side aborted

	closeOnce sync.Once
	abortOnce sync.Once
	err       error
}

func (p *pipe) abort(err error) {
	p.abortOnce.Do(func() {
		p.err = err
		close(p.done)
	})
}

// PipeSource is the reading half of a Pipe.
type PipeSource struct {
	claimFlag
	p *pipe
}

// Next returns the next chunk, io.EOF once the writer closed, or the
// writer's abort error.
func (s *PipeSource) Next(ctx context.Context) ([]byte, error) {
	select {
	case b := <-s.p.chunks:
		return b, nil
	case <-s.p.closed:
		return nil, io.EOF
	case <-s.p.done:
		return nil, s.p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel tells the writer that no more chunks will be read. Pending and
// future writes fail with ErrCancelled.
func (s *PipeSource) Cancel() {
	s.p.abort(ErrCancelled)
}

// PipeSink is the writing half of a Pipe.
type PipeSink struct {
	claimFlag
	p *pipe
}

// Write hands chunk to the reader, blocking until it is taken.
func (s *PipeSink) Write(ctx context.Context, chunk []byte) error {
	select {
	case s.p.chunks <- chunk:
		return nil
	case <-s.p.done:
		return s.p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals end of stream to the reader.
func (s *PipeSink) Close() error {
	select {
	case <-s.p.done:
		return s.p.err
	default:
	}
	s.p.closeOnce.Do(func() {
		close(s.p.closed)
	})
	return nil
}

// Abort fails the reader's pending and future Next calls with err.
func (s *PipeSink) Abort(err error) {
	if err == nil {
		err = ErrCancelled
	}
	s.p.abort(err)
}
