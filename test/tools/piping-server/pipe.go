package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/zsiec/tomitake/internal/relay"
)

// receiver is a waiting GET. The sender writes into w and reports the
// outcome on done; the GET handler must not return before that.
type receiver struct {
	ctx  context.Context
	w    http.ResponseWriter
	done chan error
}

// pipeServer pairs one sender with one receiver per path.
type pipeServer struct {
	log   *slog.Logger
	chunk int

	mu    sync.Mutex
	slots map[string]chan *receiver
}

func newPipeServer(chunk int, log *slog.Logger) *pipeServer {
	if log == nil {
		log = slog.Default()
	}
	return &pipeServer{
		log:   log.With("component", "piping-server"),
		chunk: chunk,
		slots: make(map[string]chan *receiver),
	}
}

func (s *pipeServer) slot(path string) chan *receiver {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.slots[path]
	if !ok {
		ch = make(chan *receiver)
		s.slots[path] = ch
	}
	return ch
}

func (s *pipeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		http.Error(w, "[ERROR] a path is required", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodPut, http.MethodPost:
		s.send(w, r)
	case http.MethodGet:
		s.receive(w, r)
	default:
		http.Error(w, fmt.Sprintf("[ERROR] unsupported method %s", r.Method), http.StatusMethodNotAllowed)
	}
}

func (s *pipeServer) receive(w http.ResponseWriter, r *http.Request) {
	rc := &receiver{ctx: r.Context(), w: w, done: make(chan error, 1)}
	select {
	case s.slot(r.URL.Path) <- rc:
	case <-r.Context().Done():
		return
	}
	if err := <-rc.done; err != nil {
		s.log.Debug("receiver ended", "path", r.URL.Path, "error", err)
	}
}

func (s *pipeServer) send(w http.ResponseWriter, r *http.Request) {
	var rc *receiver
	select {
	case rc = <-s.slot(r.URL.Path):
	case <-r.Context().Done():
		return
	}
	s.log.Info("transfer started", "path", r.URL.Path, "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(rc.ctx, cancel)
	defer stop()

	if ct := r.Header.Get("Content-Type"); ct != "" {
		rc.w.Header().Set("Content-Type", ct)
	}
	rc.w.Header().Set("X-Content-Type-Options", "nosniff")
	rc.w.WriteHeader(http.StatusOK)
	flush(rc.w)

	src := relay.NewReaderSource(r.Body, s.chunk)
	sink := relay.NewWriterSink(relay.NopWriteCloser(flushWriter{rc.w}))
	var bytes int64
	err := relay.Run(ctx, src, sink, nil, relay.WithObserver(func(n int) { bytes += int64(n) }))
	rc.done <- err

	if err != nil && !errors.Is(err, relay.ErrCancelled) {
		s.log.Warn("transfer failed", "path", r.URL.Path, "bytes", bytes, "error", err)
		http.Error(w, fmt.Sprintf("[ERROR] sending failed: %v", err), http.StatusInternalServerError)
		return
	}
	s.log.Info("transfer finished", "path", r.URL.Path, "bytes", bytes)
	io.WriteString(w, "[INFO] Sending successful!\n")
}

// flushWriter pushes every chunk to the receiver as soon as it is written.
type flushWriter struct {
	w http.ResponseWriter
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err == nil {
		err = http.NewResponseController(f.w).Flush()
	}
	return n, err
}

func flush(w http.ResponseWriter) {
	http.NewResponseController(w).Flush()
}
