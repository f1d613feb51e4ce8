package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/zsiec/tomitake/internal/ingest"
	srtingest "github.com/zsiec/tomitake/internal/ingest/srt"
	"github.com/zsiec/tomitake/internal/piping"
	"github.com/zsiec/tomitake/internal/relay"
)

// sourceFlags selects where `stream` reads from. At most one of them may be
// set; with none, the positional file (or stdin) is used.
type sourceFlags struct {
	capture   string
	srtListen string
	srtPull   string
	srtKey    string
}

// fromConfig is the value of a bare --capture or --srt-listen flag.
const fromConfig = "config"

func (f *sourceFlags) count() int {
	n := 0
	for _, v := range []string{f.capture, f.srtListen, f.srtPull} {
		if v != "" {
			n++
		}
	}
	return n
}

// openSource opens the selected source. stop releases anything started for
// it and must be called after the transfer ends.
func (c *commandContext) openSource(ctx context.Context, f *sourceFlags, file string, stdin io.Reader) (src relay.Source, stop func(), err error) {
	if f.count() > 1 {
		return nil, nil, errors.New("choose one of --capture, --srt-listen and --srt-pull")
	}
	if f.count() == 1 && file != "" {
		return nil, nil, errors.New("a file argument cannot be combined with a live source")
	}

	chunk := c.config.Relay.ChunkSize
	log := c.log()
	noop := func() {}

	switch {
	case f.capture != "":
		argv := strings.Fields(f.capture)
		if f.capture == fromConfig {
			argv = c.config.CaptureArgs()
		}
		if len(argv) == 0 {
			return nil, nil, errors.New("no capture command: pass --capture CMD or set [capture] command")
		}
		registry := ingest.NewRegistry(chunk, nil)
		s, err := ingest.NewCapture(registry, argv, log).Start(ctx, "capture")
		if err != nil {
			return nil, nil, err
		}
		return s, func() { waitReleased(s, ingest.DefaultCaptureGrace+time.Second, log) }, nil

	case f.srtPull != "":
		registry := ingest.NewRegistry(chunk, nil)
		caller := srtingest.NewCaller(registry, log)
		key := f.srtKey
		if key == "" {
			key = "pull"
		}
		s, err := caller.Pull(ctx, srtingest.PullRequest{
			Address:   f.srtPull,
			StreamKey: key,
			StreamID:  c.config.SRT.StreamID,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			caller.Stop(key)
			waitReleased(s, releaseTimeout, log)
		}, nil

	case f.srtListen != "":
		return c.listenSRT(ctx, f)

	case file == "" || file == "-":
		return relay.NewReaderSource(stdinCloser(stdin), chunk), noop, nil

	default:
		fh, err := os.Open(file)
		if err != nil {
			return nil, nil, err
		}
		return relay.NewReaderSource(fh, chunk), noop, nil
	}
}

// stdinCloser lets cancelling the source close stdin when it is a real
// file. A Read already blocked on a terminal or a blocking pipe returns only
// once more input arrives or the process exits.
func stdinCloser(stdin io.Reader) io.ReadCloser {
	if f, ok := stdin.(*os.File); ok {
		return f
	}
	return io.NopCloser(stdin)
}

// listenSRT waits for the first publisher, or the one with --srt-key, to
// connect and returns its stream.
func (c *commandContext) listenSRT(ctx context.Context, f *sourceFlags) (relay.Source, func(), error) {
	addr := f.srtListen
	if addr == fromConfig {
		addr = c.config.SRT.ListenAddr
	}

	streams := make(chan *ingest.Stream, 1)
	var registry *ingest.Registry
	registry = ingest.NewRegistry(c.config.Relay.ChunkSize, func(s *ingest.Stream) {
		publisherSelector(registry, f.srtKey, streams, c.log())(s)
	})

	srvCtx, cancel := context.WithCancel(ctx)
	errc := make(chan error, 1)
	go func() {
		errc <- srtingest.NewServer(addr, registry, c.log()).Start(srvCtx)
	}()

	c.log().Info("waiting for SRT publisher", "addr", addr, "stream_key", f.srtKey)
	select {
	case s := <-streams:
		return s, func() {
			cancel()
			waitReleased(s, releaseTimeout, c.log())
		}, nil
	case err := <-errc:
		cancel()
		if err == nil {
			err = ctx.Err()
		}
		return nil, nil, err
	case <-ctx.Done():
		cancel()
		return nil, nil, fmt.Errorf("waiting for SRT publisher: %w", ctx.Err())
	}
}

// releaseTimeout bounds how long a finished transfer waits for its live
// producer to shut down.
const releaseTimeout = 2 * time.Second

// waitReleased waits until s has been unregistered by its producer.
func waitReleased(s *ingest.Stream, timeout time.Duration, log *slog.Logger) {
	select {
	case <-s.Done():
	case <-time.After(timeout):
		log.Warn("live source still running after the transfer ended", "stream_key", s.Key, "origin", s.Origin)
	}
}

// errPublisherRejected ends an SRT publisher that is not the one relayed.
var errPublisherRejected = errors.New("publisher not selected for this transfer")

// publisherSelector returns an onStream callback that hands the first
// stream matching key (any stream when key is empty) to streams and
// unregisters every other one, so its producer stops instead of blocking
// on a pipe nobody reads.
func publisherSelector(registry *ingest.Registry, key string, streams chan<- *ingest.Stream, log *slog.Logger) func(*ingest.Stream) {
	return func(s *ingest.Stream) {
		if key == "" || s.Key == key {
			select {
			case streams <- s:
				return
			default:
			}
		}
		log.Info("rejecting SRT publisher", "stream_key", s.Key, "want", key)
		registry.Unregister(s.Key, errPublisherRejected)
	}
}

// isURL reports whether arg names a piping URL rather than a local file.
func isURL(arg string) bool {
	return piping.ValidateURL(arg) == nil
}
