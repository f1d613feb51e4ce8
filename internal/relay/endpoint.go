package relay

import (
	"context"
	"sync/atomic"
)

// Source produces an ordered sequence of chunks. Next returns io.EOF once
// the stream has ended. Cancel stops the producer and unblocks a pending
// Next; it may be called more than once and from any goroutine.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
	Cancel()
}

// Sink accepts ordered chunks. Write returns once the chunk has been
// accepted. Close signals that no more data is coming. Abort tears the sink
// down without flushing.
type Sink interface {
	Write(ctx context.Context, chunk []byte) error
	Close() error
	Abort(err error)
}

// Claimer is implemented by endpoints that may only be owned by one
// consumer. Claim fails with ErrEndpointClaimed on every call after the
// first.
type Claimer interface {
	Claim() error
}

// Claim takes ownership of ep if it implements Claimer. Endpoints that do
// not track ownership are always claimable.
func Claim(ep any) error {
	if c, ok := ep.(Claimer); ok {
		return c.Claim()
	}
	return nil
}

// claimFlag implements Claimer for the endpoint adapters in this package.
type claimFlag struct {
	claimed atomic.Bool
}

func (f *claimFlag) Claim() error {
	if !f.claimed.CompareAndSwap(false, true) {
		return ErrEndpointClaimed
	}
	return nil
}
