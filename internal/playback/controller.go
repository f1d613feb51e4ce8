package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/zsiec/tomitake/internal/ebml"
	"github.com/zsiec/tomitake/internal/relay"
)

// State is the controller lifecycle. Closed, Errored and Cancelled are
// terminal.
type State int32

// Controller states.
const (
	StateProbing State = iota
	StateConfiguring
	StateDraining
	StateClosed
	StateErrored
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateProbing:
		return "probing"
	case StateConfiguring:
		return "configuring"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateErrored || s == StateCancelled
}

// Option configures a Controller.
type Option func(*Controller)

// WithProbe replaces the default ebml.Probe.
func WithProbe(p *ebml.Probe) Option {
	return func(c *Controller) {
		if p != nil {
			c.probe = p
		}
	}
}

// WithLogger sets the controller's logger. The default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithObserver registers fn to be called with the size of every chunk the
// sink accepted, including the replayed prefix.
func WithObserver(fn func(n int)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// Controller feeds one stream into one MediaSink. It is single-use.
type Controller struct {
	log      *slog.Logger
	sink     MediaSink
	probe    *ebml.Probe
	observer func(n int)

	state atomic.Int32

	mu         sync.Mutex
	descriptor *ebml.Descriptor
}

// NewController creates a Controller for sink.
func NewController(sink MediaSink, opts ...Option) *Controller {
	c := &Controller{
		log:   slog.Default(),
		sink:  sink,
		probe: ebml.NewProbe(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "playback")
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Descriptor returns the codec descriptor found while probing, or nil.
func (c *Controller) Descriptor() *ebml.Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.descriptor
}

// Run consumes src until end of stream, cancellation, or failure. It
// returns nil after a clean end of stream, relay.ErrCancelled when ctx was
// cancelled, and otherwise one of ErrNoTracks, *UnsupportedCodecError,
// ErrSinkClosed or a *relay.Error.
func (c *Controller) Run(ctx context.Context, src relay.Source) error {
	if err := relay.Claim(src); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, src.Cancel)
	defer stop()

	c.setState(StateProbing)
	desc, err := c.runProbe(ctx, src)
	if err != nil {
		return c.terminate(src, err)
	}

	c.setState(StateConfiguring)
	if err := c.configure(ctx, desc); err != nil {
		return c.terminate(src, err)
	}

	c.setState(StateDraining)
	if err := c.drain(ctx, src); err != nil {
		return c.terminate(src, err)
	}

	// Append is synchronous, so no write is in progress here and the sink
	// can be finalized directly.
	if err := c.sink.EndOfStream(); err != nil {
		return c.terminate(src, &relay.Error{Op: relay.OpWrite, Err: err})
	}
	c.setState(StateClosed)
	c.log.Info("stream ended", "codecs", desc.Codecs())
	return nil
}

func (c *Controller) runProbe(ctx context.Context, src relay.Source) (*ebml.Descriptor, error) {
	for {
		chunk, err := c.next(ctx, src)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: stream ended after %d bytes", ErrNoTracks, c.probe.Len())
			}
			return nil, err
		}

		r := c.probe.Feed(chunk)
		switch r.Status {
		case ebml.NeedMore:
			continue
		case ebml.Invalid:
			c.log.Warn("probe rejected stream", "buffered", c.probe.Len(), "reason", r.Err)
			return nil, fmt.Errorf("%w: %w", ErrNoTracks, r.Err)
		}

		c.mu.Lock()
		c.descriptor = r.Descriptor
		c.mu.Unlock()
		c.log.Info("found codecs",
			"codecs", r.Descriptor.Codecs(),
			"mime", r.Descriptor.MIMEType(),
			"unrecognized", r.Descriptor.Unrecognized)
		return r.Descriptor, nil
	}
}

func (c *Controller) configure(ctx context.Context, desc *ebml.Descriptor) error {
	mimeType := desc.MIMEType()
	if desc.Codecs() == "" || !c.sink.Supports(mimeType) {
		return &UnsupportedCodecError{MIME: mimeType}
	}
	if err := c.sink.Open(ctx, mimeType); err != nil {
		return fmt.Errorf("playback: open sink: %w", err)
	}

	prefix := c.probe.Prefix()
	c.probe = nil
	return c.append(ctx, prefix)
}

func (c *Controller) drain(ctx context.Context, src relay.Source) error {
	for {
		chunk, err := c.next(ctx, src)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := c.append(ctx, chunk); err != nil {
			return err
		}
	}
}

// next pulls one chunk, checking for cancellation first.
func (c *Controller) next(ctx context.Context, src relay.Source) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, relay.ErrCancelled
	}
	chunk, err := src.Next(ctx)
	switch {
	case err == nil:
		return chunk, nil
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case ctx.Err() != nil || errors.Is(err, relay.ErrCancelled):
		return nil, relay.ErrCancelled
	}
	var re *relay.Error
	if errors.As(err, &re) {
		return nil, err
	}
	return nil, &relay.Error{Op: relay.OpRead, Err: err}
}

func (c *Controller) append(ctx context.Context, chunk []byte) error {
	if ctx.Err() != nil {
		return relay.ErrCancelled
	}
	if c.sink.Closed() {
		return ErrSinkClosed
	}
	if err := c.sink.Append(ctx, chunk); err != nil {
		if c.sink.Closed() {
			return fmt.Errorf("%w: %v", ErrSinkClosed, err)
		}
		if ctx.Err() != nil {
			return relay.ErrCancelled
		}
		return &relay.Error{Op: relay.OpWrite, Err: err}
	}
	if c.observer != nil {
		c.observer(len(chunk))
	}
	return nil
}

// terminate stops upstream reads, tears down the sink and records the
// terminal state.
func (c *Controller) terminate(src relay.Source, err error) error {
	src.Cancel()
	c.probe = nil

	if errors.Is(err, relay.ErrCancelled) {
		c.sink.Abort(relay.ErrCancelled)
		c.setState(StateCancelled)
		c.log.Info("playback cancelled")
		return relay.ErrCancelled
	}

	c.sink.Abort(err)
	c.setState(StateErrored)
	c.log.Warn("playback failed", "error", err)
	return err
}

func (c *Controller) setState(s State) {
	for {
		cur := State(c.state.Load())
		if cur.Terminal() {
			return
		}
		if c.state.CompareAndSwap(int32(cur), int32(s)) {
			return
		}
	}
}
