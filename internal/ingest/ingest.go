// Package ingest manages live byte sources that arrive from outside the
// process: SRT publishers, SRT pulls and capture commands. Each one is
// registered as a Stream, which is both a pipe the producer writes into and
// a relay source the transfer reads from.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zsiec/tomitake/internal/relay"
)

// Origin identifies what kind of producer feeds a stream.
type Origin string

// Stream origins.
const (
	OriginSRTListen Origin = "srt-listen"
	OriginSRTPull   Origin = "srt-pull"
	OriginCapture   Origin = "capture"
)

// ErrDuplicateKey is returned by Register when the key is already active.
var ErrDuplicateKey = errors.New("ingest: stream key already active")

// IngestStats captures connection-level metrics for an ingest stream.
type IngestStats struct {
	BytesReceived int64  `json:"bytesReceived"`
	ReadCount     int64  `json:"readCount"`
	ConnectedAt   int64  `json:"connectedAt"`
	UptimeMs      int64  `json:"uptimeMs"`
	RemoteAddr    string `json:"remoteAddr"`
}

// Stream is an active ingest. The producer writes into the pipe returned
// by Register; the consumer reads the other end through the embedded
// relay source. Cancelling the source closes the pipe, which fails the
// producer's next write.
type Stream struct {
	*relay.ReaderSource

	Key       string
	Origin    Origin
	StartedAt time.Time
	pw        *io.PipeWriter
	done      chan struct{}

	bytesReceived atomic.Int64
	readCount     atomic.Int64
	remoteAddr    atomic.Value
}

// RecordRead increments the byte and read counters, called by producers
// after each successful read from their connection.
func (s *Stream) RecordRead(n int) {
	s.bytesReceived.Add(int64(n))
	s.readCount.Add(1)
}

// SetRemoteAddr stores the address of the producer for diagnostics.
func (s *Stream) SetRemoteAddr(addr string) {
	s.remoteAddr.Store(addr)
}

// Done is closed once the stream has been unregistered.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// IngestStats returns a snapshot of ingest connection metrics.
func (s *Stream) IngestStats() IngestStats {
	addr, _ := s.remoteAddr.Load().(string)
	return IngestStats{
		BytesReceived: s.bytesReceived.Load(),
		ReadCount:     s.readCount.Load(),
		ConnectedAt:   s.StartedAt.UnixMilli(),
		UptimeMs:      time.Since(s.StartedAt).Milliseconds(),
		RemoteAddr:    addr,
	}
}

// Registry tracks active ingest streams by key and hands new ones to the
// onStream callback. It is the rendezvous point between producers and the
// transfer layer.
type Registry struct {
	chunkSize int

	mu      sync.RWMutex
	streams map[string]*Stream

	onStream func(s *Stream)
}

// NewRegistry creates a Registry whose streams read chunkSize bytes at a
// time. The onStream callback is invoked asynchronously whenever a new
// stream is registered.
func NewRegistry(chunkSize int, onStream func(s *Stream)) *Registry {
	return &Registry{
		chunkSize: chunkSize,
		streams:   make(map[string]*Stream),
		onStream:  onStream,
	}
}

// Register creates a stream for key and returns it with the writer its
// producer should write into.
func (r *Registry) Register(key string, origin Origin) (*Stream, io.Writer, error) {
	pr, pw := io.Pipe()
	stream := &Stream{
		ReaderSource: relay.NewReaderSource(pr, r.chunkSize),
		Key:          key,
		Origin:       origin,
		StartedAt:    time.Now(),
		pw:           pw,
		done:         make(chan struct{}),
	}

	r.mu.Lock()
	if _, ok := r.streams[key]; ok {
		r.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	r.streams[key] = stream
	r.mu.Unlock()

	if r.onStream != nil {
		go r.onStream(stream)
	}
	return stream, pw, nil
}

// Unregister removes a stream by key. The reader sees a clean end of
// stream when err is nil and err otherwise.
func (r *Registry) Unregister(key string, err error) {
	r.mu.Lock()
	stream, ok := r.streams[key]
	if ok {
		delete(r.streams, key)
	}
	r.mu.Unlock()

	if ok {
		if err != nil {
			stream.pw.CloseWithError(err)
		} else {
			stream.pw.Close()
		}
		close(stream.done)
	}
}

// Get returns the Stream for the given key, or false if not found.
func (r *Registry) Get(key string) (*Stream, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.streams[key]
	return s, ok
}

// Pump copies src into w, recording each read on s, until either side
// fails. A clean end of src returns nil.
func Pump(s *Stream, w io.Writer, src io.Reader, bufSize int) error {
	buf := make([]byte, bufSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			s.RecordRead(n)
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
