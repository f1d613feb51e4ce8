package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zsiec/tomitake/internal/streamcipher"
)

// Stats captures transfer counters, readable while the relay runs.
type Stats struct {
	Chunks    int64     `json:"chunks"`
	Bytes     int64     `json:"bytes"`
	StartedAt time.Time `json:"startedAt"`
	UptimeMs  int64     `json:"uptimeMs"`
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the relay's logger. The default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(r *Relay) {
		if log != nil {
			r.log = log
		}
	}
}

// WithObserver registers fn to be called with the size of every chunk the
// sink accepted. fn runs on the relay goroutine and must not block.
func WithObserver(fn func(n int)) Option {
	return func(r *Relay) {
		r.observer = fn
	}
}

// Relay pulls chunks from a Source, transforms them, and writes them to a
// Sink on its own goroutine. The Source, Sink and Cipher are owned by the
// relay for its whole lifetime.
type Relay struct {
	log      *slog.Logger
	src      Source
	sink     Sink
	cipher   *streamcipher.Cipher
	observer func(n int)

	state     atomic.Int32
	chunks    atomic.Int64
	bytes     atomic.Int64
	startedAt time.Time

	done chan struct{}
	err  error
}

// Start claims src and sink, then launches the relay goroutine and returns
// immediately. A nil cipher relays bytes unchanged.
func Start(ctx context.Context, src Source, sink Sink, cipher *streamcipher.Cipher, opts ...Option) (*Relay, error) {
	if err := Claim(src); err != nil {
		return nil, err
	}
	if err := Claim(sink); err != nil {
		return nil, err
	}

	r := &Relay{
		log:    slog.Default(),
		src:    src,
		sink:   sink,
		cipher: cipher,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("component", "relay")
	r.startedAt = time.Now()
	r.state.Store(int32(StateRunning))

	go r.run(ctx)
	return r, nil
}

// Run is Start followed by Wait.
func Run(ctx context.Context, src Source, sink Sink, cipher *streamcipher.Cipher, opts ...Option) error {
	r, err := Start(ctx, src, sink, cipher, opts...)
	if err != nil {
		return err
	}
	return r.Wait()
}

// Wait blocks until the relay reaches a terminal state and returns nil on
// completion, ErrCancelled on abort, or an *Error on failure.
func (r *Relay) Wait() error {
	<-r.done
	return r.err
}

// Done is closed once the relay has reached a terminal state.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// State returns the current lifecycle state.
func (r *Relay) State() State {
	return State(r.state.Load())
}

// Stats returns a snapshot of the transfer counters.
func (r *Relay) Stats() Stats {
	return Stats{
		Chunks:    r.chunks.Load(),
		Bytes:     r.bytes.Load(),
		StartedAt: r.startedAt,
		UptimeMs:  time.Since(r.startedAt).Milliseconds(),
	}
}

func (r *Relay) run(ctx context.Context) {
	defer close(r.done)

	// Unblock a Next that is waiting on a slow producer.
	stop := context.AfterFunc(ctx, r.src.Cancel)
	defer stop()

	r.log.Debug("relay started", "encrypted", r.cipher.Enabled())

	for {
		if ctx.Err() != nil {
			r.abort()
			return
		}

		chunk, err := r.src.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				r.complete()
			case ctx.Err() != nil || errors.Is(err, ErrCancelled):
				r.abort()
			default:
				r.fail(&Error{Op: OpRead, Err: err})
			}
			return
		}

		if ctx.Err() != nil {
			r.abort()
			return
		}

		out := r.cipher.Transform(chunk)
		if err := r.sink.Write(ctx, out); err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrCancelled) {
				r.abort()
			} else {
				r.fail(&Error{Op: OpWrite, Err: err})
			}
			return
		}

		r.chunks.Add(1)
		r.bytes.Add(int64(len(out)))
		if r.observer != nil {
			r.observer(len(out))
		}
	}
}

func (r *Relay) complete() {
	if err := r.sink.Close(); err != nil {
		r.fail(&Error{Op: OpWrite, Err: err})
		return
	}
	r.finish(StateCompleted, nil)
}

func (r *Relay) abort() {
	r.src.Cancel()
	r.sink.Abort(ErrCancelled)
	r.finish(StateAborted, ErrCancelled)
}

func (r *Relay) fail(err error) {
	r.src.Cancel()
	r.sink.Abort(err)
	r.finish(StateFailed, err)
}

func (r *Relay) finish(s State, err error) {
	if !r.state.CompareAndSwap(int32(StateRunning), int32(s)) {
		return
	}
	r.err = err
	stats := r.Stats()
	r.log.Info("relay finished",
		"state", s.String(),
		"chunks", stats.Chunks,
		"bytes", stats.Bytes,
		"uptime_ms", stats.UptimeMs,
		"error", err)
}
