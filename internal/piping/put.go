package piping

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zsiec/tomitake/internal/relay"
)

// maxResponseText caps the response text kept from a PUT.
const maxResponseText = 64 << 10

// PutSink streams relay chunks into the body of a PUT request. Write
// returns once the transport has consumed the chunk, so a slow upload
// holds back the relay.
type PutSink struct {
	claimed atomic.Bool
	url     string
	pw      *io.PipeWriter

	done chan struct{}
	once sync.Once

	mu   sync.Mutex
	text strings.Builder
	err  error
}

// Put starts a PUT to url whose body is fed by the returned sink. The
// request runs until the sink is closed or aborted, or ctx ends.
func (c *Client) Put(ctx context.Context, url string) (*PutSink, error) {
	pr, pw := io.Pipe()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, pr)
	if err != nil {
		return nil, fmt.Errorf("piping: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	s := &PutSink{url: url, pw: pw, done: make(chan struct{})}
	go s.do(c, req, pr)
	return s, nil
}

func (s *PutSink) do(c *Client, req *http.Request, pr *io.PipeReader) {
	defer close(s.done)

	resp, err := c.http.Do(req)
	if err != nil {
		s.setErr(fmt.Errorf("piping: put %s: %w", s.url, err))
		pr.CloseWithError(err)
		return
	}
	if err := checkStatus(resp); err != nil {
		s.setErr(err)
		pr.CloseWithError(err)
		return
	}
	defer resp.Body.Close()

	// Piping servers report progress as text lines while the upload runs.
	sc := bufio.NewScanner(io.LimitReader(resp.Body, maxResponseText))
	for sc.Scan() {
		line := sc.Text()
		c.log.Info("server", "message", line)
		s.mu.Lock()
		s.text.WriteString(line)
		s.text.WriteByte('\n')
		s.mu.Unlock()
	}
	if err := sc.Err(); err != nil && !errors.Is(err, context.Canceled) {
		c.log.Debug("response read ended", "error", err)
	}
}

func (s *PutSink) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Claim implements relay.Claimer.
func (s *PutSink) Claim() error {
	if !s.claimed.CompareAndSwap(false, true) {
		return relay.ErrEndpointClaimed
	}
	return nil
}

// Write hands chunk to the request body. When the request has already
// failed, the request error is returned rather than the pipe error.
func (s *PutSink) Write(ctx context.Context, chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	if _, err := s.pw.Write(chunk); err != nil {
		select {
		case <-s.done:
		case <-ctx.Done():
		}
		if rerr := s.Err(); rerr != nil {
			return rerr
		}
		return err
	}
	return nil
}

// Close ends the request body and waits for the server to finish its
// response.
func (s *PutSink) Close() error {
	s.once.Do(func() { s.pw.Close() })
	<-s.done
	return s.Err()
}

// Abort fails the request body with err and waits for the request to end.
func (s *PutSink) Abort(err error) {
	if err == nil {
		err = relay.ErrCancelled
	}
	s.once.Do(func() { s.pw.CloseWithError(err) })
	<-s.done
}

// Err returns the request error, if any.
func (s *PutSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Response returns the text the server sent back.
func (s *PutSink) Response() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}
