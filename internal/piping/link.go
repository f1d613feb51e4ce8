package piping

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/zsiec/tomitake/internal/streamcipher"
)

// DefaultBaseURL is the public piping server used when none is configured.
const DefaultBaseURL = "https://ppng.io/"

// DefaultURL returns base with a random path, giving each transfer its own
// rendezvous point.
func DefaultURL(base string) (string, error) {
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("piping: base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("piping: base url %q is not absolute", base)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + uuid.NewString()
	return u.String(), nil
}

// ValidateURL checks that raw is an absolute http or https URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("piping: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("piping: unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("piping: url %q has no host", raw)
	}
	return nil
}

// Link is what a watcher needs to receive a stream.
type Link struct {
	URL    string
	Params streamcipher.Params
}

// WatchURL builds a shareable watch link on the web app at app for l. Key
// and nonce are only included when set.
func WatchURL(app string, l Link) (string, error) {
	if app == "" {
		return "", errors.New("piping: no app url configured")
	}
	u, err := url.Parse(app)
	if err != nil {
		return "", fmt.Errorf("piping: app url: %w", err)
	}
	q := u.Query()
	q.Set("mode", "watch")
	q.Set("url", l.URL)
	if l.Params.Key != "" {
		q.Set("key", l.Params.Key)
	}
	if l.Params.Nonce != "" {
		q.Set("nonce", l.Params.Nonce)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ErrNotWatchLink is returned by ParseWatchURL for links without a url
// parameter.
var ErrNotWatchLink = errors.New("piping: not a watch link")

// ParseWatchURL extracts the stream URL, key and nonce from a link built
// by WatchURL. A plain piping URL is returned as is with empty params.
func ParseWatchURL(raw string) (Link, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Link{}, fmt.Errorf("piping: %w", err)
	}
	q := u.Query()
	if q.Get("mode") == "" && q.Get("url") == "" {
		return Link{URL: raw}, nil
	}
	if q.Get("url") == "" {
		return Link{}, ErrNotWatchLink
	}
	return Link{
		URL: q.Get("url"),
		Params: streamcipher.Params{
			Key:   q.Get("key"),
			Nonce: q.Get("nonce"),
		},
	}, nil
}
