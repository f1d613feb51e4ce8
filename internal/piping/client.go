package piping

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"github.com/zsiec/tomitake/internal/relay"
)

// DefaultTimeout bounds connection setup. Transfers themselves are not
// time limited: a GET blocks until the sender connects.
const DefaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	// HTTP3 selects a QUIC transport instead of HTTP/1.1 and HTTP/2.
	HTTP3 bool
	// Timeout bounds dialing and the TLS or QUIC handshake.
	Timeout time.Duration
	// TLSConfig overrides the default TLS client configuration.
	TLSConfig *tls.Config
	// ChunkSize is the read size for GET sources.
	ChunkSize int
	Logger    *slog.Logger
}

// Client issues piping-server requests.
type Client struct {
	log       *slog.Logger
	http      *http.Client
	h3        *http3.Transport
	chunkSize int
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		log:       log.With("component", "piping"),
		chunkSize: opts.ChunkSize,
	}
	if opts.HTTP3 {
		c.h3 = &http3.Transport{
			TLSClientConfig: opts.TLSConfig,
			QUICConfig: &quic.Config{
				HandshakeIdleTimeout: opts.Timeout,
				MaxIdleTimeout:       30 * time.Second,
				KeepAlivePeriod:      10 * time.Second,
			},
		}
		c.http = &http.Client{Transport: c.h3}
		return c
	}

	dialer := &net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}
	c.http = &http.Client{Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSClientConfig:     opts.TLSConfig,
		TLSHandshakeTimeout: opts.Timeout,
		ForceAttemptHTTP2:   true,
	}}
	return c
}

// Close releases idle connections and, for HTTP/3, the QUIC transport.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	if c.h3 != nil {
		return c.h3.Close()
	}
	return nil
}

// Get requests url and returns a source over the response body once the
// response headers arrive. A non-2xx status fails with *StatusError.
func (c *Client) Get(ctx context.Context, url string) (*relay.ReaderSource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("piping: %w", err)
	}
	c.log.Info("waiting for sender", "url", url)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("piping: get %s: %w", url, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	c.log.Info("receiving", "url", url, "proto", resp.Proto, "content_type", resp.Header.Get("Content-Type"))
	return relay.NewReaderSource(resp.Body, c.chunkSize), nil
}

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Method:     resp.Request.Method,
		URL:        resp.Request.URL.Redacted(),
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
