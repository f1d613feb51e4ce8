package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// captureReadBufferSize is the read size for a capture command's output.
const captureReadBufferSize = 32 * 1024

// DefaultCaptureGrace is how long a capture command gets to finish after
// being interrupted before it is killed.
const DefaultCaptureGrace = 3 * time.Second

// Capture runs a command that writes a media stream to its standard output,
// such as "ffmpeg ... -f webm -", and registers that output as a stream.
// When the consumer stops reading, the command is interrupted so it can
// finalize cleanly, then killed after Grace.
type Capture struct {
	log      *slog.Logger
	registry *Registry
	argv     []string

	Grace  time.Duration
	Stderr io.Writer
}

// NewCapture creates a Capture for argv. If log is nil, slog.Default() is
// used.
func NewCapture(registry *Registry, argv []string, log *slog.Logger) *Capture {
	if log == nil {
		log = slog.Default()
	}
	return &Capture{
		log:      log.With("component", "capture"),
		registry: registry,
		argv:     argv,
		Grace:    DefaultCaptureGrace,
	}
}

// Start launches the command and returns its stream. The command stops
// when ctx ends or the stream is cancelled.
func (c *Capture) Start(ctx context.Context, key string) (*Stream, error) {
	if len(c.argv) == 0 {
		return nil, errors.New("ingest: empty capture command")
	}

	runCtx, stop := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, c.argv[0], c.argv[1:]...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = c.Grace
	cmd.Stderr = c.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stop()
		return nil, fmt.Errorf("ingest: capture stdout: %w", err)
	}

	stream, w, err := c.registry.Register(key, OriginCapture)
	if err != nil {
		stop()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		stop()
		c.registry.Unregister(key, nil)
		return nil, fmt.Errorf("ingest: start %s: %w", c.argv[0], err)
	}
	stream.SetRemoteAddr(fmt.Sprintf("pid:%d", cmd.Process.Pid))
	c.log.Info("capture started", "cmd", c.argv[0], "pid", cmd.Process.Pid, "stream_key", key)

	go func() {
		defer stop()

		pumpErr := Pump(stream, w, stdout, captureReadBufferSize)
		consumerGone := pumpErr != nil && errors.Is(pumpErr, io.ErrClosedPipe)
		if consumerGone {
			// Triggers cmd.Cancel, which interrupts the command.
			stop()
		}
		waitErr := cmd.Wait()

		var streamErr error
		switch {
		case consumerGone || runCtx.Err() != nil:
		case pumpErr != nil:
			streamErr = fmt.Errorf("ingest: capture read: %w", pumpErr)
		case waitErr != nil:
			streamErr = fmt.Errorf("ingest: capture %s: %w", c.argv[0], waitErr)
		}

		stats := stream.IngestStats()
		c.registry.Unregister(key, streamErr)
		c.log.Info("capture ended", "stream_key", key,
			"bytes", stats.BytesReceived, "reads", stats.ReadCount,
			"uptime_ms", stats.UptimeMs, "error", streamErr)
	}()

	return stream, nil
}
