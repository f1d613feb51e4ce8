package srt

import (
	"context"
	"testing"

	"github.com/zsiec/tomitake/internal/ingest"
)

func TestPullValidatesRequest(t *testing.T) {
	t.Parallel()

	c := NewCaller(ingest.NewRegistry(0, nil), nil)

	tests := []struct {
		name string
		req  PullRequest
	}{
		{name: "missing address", req: PullRequest{StreamKey: "cam"}},
		{name: "missing key", req: PullRequest{Address: "127.0.0.1:6000"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := c.Pull(context.Background(), tc.req); err == nil {
				t.Fatal("Pull succeeded with an invalid request")
			}
		})
	}
}

func TestStopUnknownPull(t *testing.T) {
	t.Parallel()

	c := NewCaller(ingest.NewRegistry(0, nil), nil)
	if err := c.Stop("nope"); err == nil {
		t.Fatal("Stop succeeded for an unknown key")
	}
}
