package srt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	srtgo "github.com/zsiec/srtgo"

	"github.com/zsiec/tomitake/internal/ingest"
)

// srtReadBufferSize is the read buffer for SRT socket reads: ten full
// 1316-byte SRT payloads.
const srtReadBufferSize = 1316 * 10

// srtLatencyNs is the SRT latency setting in nanoseconds (120ms).
const srtLatencyNs = 120_000_000

// Server accepts incoming SRT publish connections and registers them with
// the ingest registry.
type Server struct {
	log      *slog.Logger
	addr     string
	registry *ingest.Registry
}

// NewServer creates an SRT server that listens on addr and registers
// incoming streams with the given registry. If log is nil, slog.Default() is used.
func NewServer(addr string, registry *ingest.Registry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		log:      log.With("component", "srt-server"),
		addr:     addr,
		registry: registry,
	}
}

// Start begins accepting SRT publish connections. It blocks until the
// context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := srtgo.DefaultConfig()
	cfg.Latency = srtLatencyNs

	l, err := srtgo.Listen(s.addr, cfg)
	if err != nil {
		return fmt.Errorf("SRT listen on %s: %w", s.addr, err)
	}
	s.log.Info("listening", "addr", s.addr)

	l.SetAcceptRejectFunc(s.admit)

	stop := context.AfterFunc(ctx, func() { l.Close() })
	defer stop()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn("accept error", "error", err)
			continue
		}

		streamKey := extractStreamKey(conn.StreamID())
		s.log.Info("publish", "stream_key", streamKey, "remote", conn.RemoteAddr())

		go s.handleConnection(ctx, conn, streamKey)
	}
}

// admit rejects a handshake whose stream key is already publishing.
func (s *Server) admit(req srtgo.ConnRequest) srtgo.RejectReason {
	if _, busy := s.registry.Get(extractStreamKey(req.StreamID)); busy {
		s.log.Info("rejecting handshake", "stream_key", extractStreamKey(req.StreamID), "reason", "busy")
		return srtgo.RejPeer
	}
	return 0
}

// publisher is the part of an accepted SRT connection the server reads.
type publisher interface {
	io.Reader
	Close() error
	RemoteAddr() net.Addr
}

func (s *Server) handleConnection(ctx context.Context, conn publisher, streamKey string) {
	stream, writer, err := s.registry.Register(streamKey, ingest.OriginSRTListen)
	if err != nil {
		s.log.Warn("rejecting publish", "stream_key", streamKey, "error", err)
		conn.Close()
		return
	}
	stream.SetRemoteAddr(conn.RemoteAddr().String())

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	err = ingest.Pump(stream, writer, conn, srtReadBufferSize)
	conn.Close()
	if err != nil && !errors.Is(err, io.ErrClosedPipe) {
		s.log.Debug("read error", "stream_key", streamKey, "error", err)
	}

	stats := stream.IngestStats()
	s.registry.Unregister(streamKey, nil)
	s.log.Info("connection closed", "stream_key", streamKey,
		"bytes", stats.BytesReceived, "reads", stats.ReadCount,
		"uptime_ms", stats.UptimeMs)
}

func extractStreamKey(streamID string) string {
	streamID = strings.TrimPrefix(streamID, "/")
	streamID = strings.TrimPrefix(streamID, "live/")
	if streamID == "" {
		return "default"
	}
	return streamID
}
