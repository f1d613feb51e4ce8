package ebml

import (
	"errors"
	"fmt"
)

// Default probe limits.
const (
	DefaultThreshold = 200
	DefaultCeiling   = 64 * 1024
)

// Status is the outcome of feeding a chunk to a Probe.
type Status int

// Probe outcomes.
const (
	NeedMore Status = iota
	Found
	Invalid
)

func (s Status) String() string {
	switch s {
	case NeedMore:
		return "need-more"
	case Found:
		return "found"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is returned by Probe.Feed. Descriptor is set for Found, Err for
// Invalid.
type Result struct {
	Status     Status
	Descriptor *Descriptor
	Err        error
}

// ProbeOption configures a Probe.
type ProbeOption func(*Probe)

// WithThreshold sets how many bytes must be buffered before the first parse
// attempt.
func WithThreshold(n int) ProbeOption {
	return func(p *Probe) {
		if n > 0 {
			p.threshold = n
		}
	}
}

// WithCeiling sets the most bytes the probe will buffer while waiting for an
// incomplete track declaration.
func WithCeiling(n int) ProbeOption {
	return func(p *Probe) {
		if n > 0 {
			p.ceiling = n
		}
	}
}

// Probe discovers the codecs of an EBML stream from its first bytes. It is
// owned by a single consumer and is not safe for concurrent use.
type Probe struct {
	threshold int
	ceiling   int
	table     map[string]string

	buf    []byte
	result *Result
}

// NewProbe creates a Probe with the default threshold and ceiling unless
// overridden.
func NewProbe(opts ...ProbeOption) *Probe {
	p := &Probe{
		threshold: DefaultThreshold,
		ceiling:   DefaultCeiling,
		table:     DefaultCodecTable,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.ceiling < p.threshold {
		p.ceiling = p.threshold
	}
	return p
}

// Feed appends chunk to the probe buffer and tries to decode the track
// declaration. Once Found or Invalid is returned, later calls return the
// same result without buffering anything.
func (p *Probe) Feed(chunk []byte) Result {
	if p.result != nil {
		return *p.result
	}

	p.buf = append(p.buf, chunk...)
	if len(p.buf) < p.threshold {
		return Result{Status: NeedMore}
	}

	h, err := parseHead(p.buf)
	switch {
	case errors.Is(err, errTruncated):
		if len(p.buf) >= p.ceiling {
			return p.finish(Result{Status: Invalid, Err: ErrProbeLimit})
		}
		return Result{Status: NeedMore}
	case err != nil:
		return p.finish(Result{Status: Invalid, Err: err})
	}

	return p.finish(Result{Status: Found, Descriptor: p.describe(h)})
}

// Prefix returns every byte fed so far. The probe never consumes data, so
// the prefix can be replayed to a sink after Found.
func (p *Probe) Prefix() []byte {
	return p.buf
}

// Len returns the number of buffered bytes.
func (p *Probe) Len() int {
	return len(p.buf)
}

// Result returns the terminal result, or false while the probe still needs
// data.
func (p *Probe) Result() (Result, bool) {
	if p.result == nil {
		return Result{Status: NeedMore}, false
	}
	return *p.result, true
}

func (p *Probe) finish(r Result) Result {
	p.result = &r
	return r
}

func (p *Probe) describe(h *head) *Descriptor {
	d := &Descriptor{DocType: h.docType}
	for _, t := range h.tracks {
		codec, ok := p.table[t.codecID]
		if !ok {
			d.Unrecognized = append(d.Unrecognized, t.codecID)
			continue
		}
		d.Tracks = append(d.Tracks, Track{
			Number:  t.number,
			Kind:    kindOf(t.trackType),
			CodecID: t.codecID,
			Codec:   codec,
		})
	}
	return d
}

// ProbeBytes runs a fresh Probe over b in one call, for inspecting a
// buffered file head.
func ProbeBytes(b []byte, opts ...ProbeOption) Result {
	p := NewProbe(append(opts, WithThreshold(len(b)))...)
	r := p.Feed(b)
	if r.Status == NeedMore {
		// The whole input is here; there is nothing more to wait for.
		return Result{Status: Invalid, Err: ErrNoTracks}
	}
	return r
}
