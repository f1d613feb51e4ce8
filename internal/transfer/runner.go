package transfer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/tomitake/internal/ebml"
	"github.com/zsiec/tomitake/internal/logging"
	"github.com/zsiec/tomitake/internal/piping"
	"github.com/zsiec/tomitake/internal/playback"
	"github.com/zsiec/tomitake/internal/relay"
	"github.com/zsiec/tomitake/internal/streamcipher"
)

// Options configures a Runner.
type Options struct {
	// Client performs piping requests. Required for Stream and Watch.
	Client *piping.Client
	// Manager tracks running flows. A private one is created when nil.
	Manager *Manager
	// ProbeOptions configure the container probe of Watch and Decrypt.
	ProbeOptions []ebml.ProbeOption
	// AppURL is the web app used to build watch links. Optional.
	AppURL string
	// Observer is called with the size of every chunk delivered.
	Observer func(n int)
	Logger   *slog.Logger
}

// Result summarizes a finished flow.
type Result struct {
	ID         string
	Mode       Mode
	URL        string
	Bytes      int64
	Chunks     int64
	Duration   time.Duration
	Status     Status
	Descriptor *ebml.Descriptor
	// Response is the text the piping server sent back to a stream.
	Response string
}

// Runner executes transfer flows.
type Runner struct {
	log      *slog.Logger
	client   *piping.Client
	mgr      *Manager
	probe    []ebml.ProbeOption
	appURL   string
	observer func(n int)
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	mgr := opts.Manager
	if mgr == nil {
		mgr = NewManager(log)
	}
	return &Runner{
		log:      log,
		client:   opts.Client,
		mgr:      mgr,
		probe:    opts.ProbeOptions,
		appURL:   opts.AppURL,
		observer: opts.Observer,
	}
}

// Manager returns the manager tracking this runner's flows.
func (r *Runner) Manager() *Manager { return r.mgr }

// WatchLink returns the shareable watch link for p, or "" when no app URL
// is configured.
func (r *Runner) WatchLink(p Params) string {
	if r.appURL == "" {
		return ""
	}
	link, err := piping.WatchURL(r.appURL, p.Link())
	if err != nil {
		r.log.Warn("cannot build watch link", "error", err)
		return ""
	}
	return link
}

// Stream encrypts src and uploads it to p.URL. The parameters are validated
// before src is read or the server contacted.
func (r *Runner) Stream(ctx context.Context, src relay.Source, p Params) (*Result, error) {
	c, err := r.prepare(p)
	if err != nil {
		src.Cancel()
		return nil, err
	}

	t, tctx := r.mgr.Create(ctx, ModeStream, p.URL)
	defer r.mgr.Remove(t.ID)
	log := logging.WithTransfer(r.log, t.ID)
	res := &Result{ID: t.ID, Mode: ModeStream, URL: p.URL}

	sink, err := r.client.Put(tctx, p.URL)
	if err != nil {
		src.Cancel()
		return r.finish(log, res, t, err)
	}
	log.Info("streaming", "url", p.URL, "encrypted", c.Enabled())

	rl, err := relay.Start(tctx, src, sink, c, relay.WithLogger(log), relay.WithObserver(r.observe))
	if err != nil {
		src.Cancel()
		sink.Abort(err)
		return r.finish(log, res, t, err)
	}
	err = rl.Wait()

	st := rl.Stats()
	res.Bytes, res.Chunks = st.Bytes, st.Chunks
	res.Response = sink.Response()
	return r.finish(log, res, t, err)
}

// Watch downloads p.URL, decrypts it and plays it on sink.
func (r *Runner) Watch(ctx context.Context, p Params, sink playback.MediaSink) (*Result, error) {
	c, err := r.prepare(p)
	if err != nil {
		return nil, err
	}

	t, tctx := r.mgr.Create(ctx, ModeWatch, p.URL)
	defer r.mgr.Remove(t.ID)
	log := logging.WithTransfer(r.log, t.ID)
	res := &Result{ID: t.ID, Mode: ModeWatch, URL: p.URL}

	src, err := r.client.Get(tctx, p.URL)
	if err != nil {
		return r.finish(log, res, t, err)
	}
	err = r.play(tctx, log, res, src, c, sink)
	return r.finish(log, res, t, err)
}

// Decrypt decrypts src, checks that the result is a playable container and
// writes it to sink. name identifies the source in logs and results.
func (r *Runner) Decrypt(ctx context.Context, name string, src relay.Source, cp streamcipher.Params, sink playback.MediaSink) (*Result, error) {
	c, err := cp.Cipher()
	if err != nil {
		src.Cancel()
		return nil, err
	}

	t, tctx := r.mgr.Create(ctx, ModeDecrypt, name)
	defer r.mgr.Remove(t.ID)
	log := logging.WithTransfer(r.log, t.ID)
	res := &Result{ID: t.ID, Mode: ModeDecrypt, URL: name}

	err = r.play(tctx, log, res, src, c, sink)
	return r.finish(log, res, t, err)
}

func (r *Runner) prepare(p Params) (*streamcipher.Cipher, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if r.client == nil {
		return nil, errors.New("transfer: no piping client configured")
	}
	return p.Cipher().Cipher()
}

// play relays src through c into a pipe and drives sink from the other end
// with a playback controller. The controller's error is preferred: when it
// gives up it cancels the pipe, and the relay then only reports that.
func (r *Runner) play(ctx context.Context, log *slog.Logger, res *Result, src relay.Source, c *streamcipher.Cipher, sink playback.MediaSink) error {
	pipeSrc, pipeSink := relay.Pipe()
	ctrl := playback.NewController(sink,
		playback.WithProbe(ebml.NewProbe(r.probe...)),
		playback.WithLogger(log),
		playback.WithObserver(r.observe))

	rl, err := relay.Start(ctx, src, pipeSink, c, relay.WithLogger(log))
	if err != nil {
		src.Cancel()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	var relayErr, ctrlErr error
	g.Go(func() error {
		relayErr = rl.Wait()
		return relayErr
	})
	g.Go(func() error {
		ctrlErr = ctrl.Run(gctx, pipeSrc)
		return ctrlErr
	})
	g.Wait()

	st := rl.Stats()
	res.Bytes, res.Chunks = st.Bytes, st.Chunks
	res.Descriptor = ctrl.Descriptor()

	switch {
	case ctx.Err() != nil:
		return relay.ErrCancelled
	case ctrlErr != nil && !errors.Is(ctrlErr, relay.ErrCancelled):
		return ctrlErr
	case relayErr != nil:
		return relayErr
	default:
		return ctrlErr
	}
}

func (r *Runner) observe(n int) {
	if r.observer != nil {
		r.observer(n)
	}
}

func (r *Runner) finish(log *slog.Logger, res *Result, t *Transfer, err error) (*Result, error) {
	res.Duration = time.Since(t.StartedAt)
	res.Status = StatusOf(err)
	switch res.Status {
	case StatusFailed:
		log.Warn("transfer failed", "mode", res.Mode, "bytes", res.Bytes, "error", err)
	default:
		log.Info("transfer "+res.Status.String(), "mode", res.Mode, "bytes", res.Bytes,
			"duration", res.Duration.Round(time.Millisecond))
	}
	return res, err
}
