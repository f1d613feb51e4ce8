// Package webmgen writes small synthetic WebM streams with real container
// structure and filler payloads. It feeds the probe and transfer tests and
// the gen-webm tool.
package webmgen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/at-wat/ebml-go/webm"
)

// Options controls the generated stream.
type Options struct {
	Tracks    []webm.TrackEntry
	Frames    int
	FrameSize int
	Interval  time.Duration
}

// VP9Opus returns the track layout a browser screen capture produces.
func VP9Opus() []webm.TrackEntry {
	return []webm.TrackEntry{
		{
			Name:            "Video",
			TrackNumber:     1,
			TrackUID:        0x1001,
			CodecID:         "V_VP9",
			TrackType:       1,
			DefaultDuration: uint64(33 * time.Millisecond),
			Video:           &webm.Video{PixelWidth: 1280, PixelHeight: 720},
		},
		{
			Name:        "Audio",
			TrackNumber: 2,
			TrackUID:    0x1002,
			CodecID:     "A_OPUS",
			TrackType:   2,
			Audio:       &webm.Audio{SamplingFrequency: 48000, Channels: 2},
		},
	}
}

// Generate writes a WebM stream to w. Frames are spread round-robin over
// the tracks with Interval between timestamps.
func Generate(w io.Writer, opts Options) error {
	if len(opts.Tracks) == 0 {
		return errors.New("webmgen: at least one track is required")
	}
	if opts.FrameSize <= 0 {
		opts.FrameSize = 256
	}
	if opts.Interval <= 0 {
		opts.Interval = 20 * time.Millisecond
	}

	out := &notifyCloser{w: w, closed: make(chan struct{})}
	writers, err := webm.NewSimpleBlockWriter(out, opts.Tracks)
	if err != nil {
		return fmt.Errorf("webmgen: create writer: %w", err)
	}

	payload := bytes.Repeat([]byte{0xA5}, opts.FrameSize)
	for i := 0; i < opts.Frames; i++ {
		bw := writers[i%len(writers)]
		ts := int64(i) * opts.Interval.Milliseconds()
		if _, err := bw.Write(i < len(writers), ts, payload); err != nil {
			return fmt.Errorf("webmgen: write frame %d: %w", i, err)
		}
	}
	for _, bw := range writers {
		if err := bw.Close(); err != nil {
			return fmt.Errorf("webmgen: close track: %w", err)
		}
	}

	select {
	case <-out.closed:
	case <-time.After(5 * time.Second):
		return errors.New("webmgen: writer did not flush")
	}
	return out.err
}

// Bytes is Generate into a buffer.
func Bytes(opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Generate(&buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// notifyCloser lets Generate wait for the block writer goroutine, which
// closes its output once every track writer is closed.
type notifyCloser struct {
	w      io.Writer
	err    error
	closed chan struct{}
	once   bool
}

func (n *notifyCloser) Write(p []byte) (int, error) {
	c, err := n.w.Write(p)
	if err != nil && n.err == nil {
		n.err = err
	}
	return c, err
}

func (n *notifyCloser) Close() error {
	if !n.once {
		n.once = true
		close(n.closed)
	}
	return nil
}
