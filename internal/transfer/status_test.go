package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zsiec/tomitake/internal/ebml"
	"github.com/zsiec/tomitake/internal/piping"
	"github.com/zsiec/tomitake/internal/playback"
	"github.com/zsiec/tomitake/internal/relay"
	"github.com/zsiec/tomitake/internal/streamcipher"
)

func TestStatusAndExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status Status
		code   int
	}{
		{"nil", nil, StatusCompleted, ExitOK},
		{"cancelled", relay.ErrCancelled, StatusCancelled, ExitCancelled},
		{"context", fmt.Errorf("get: %w", context.Canceled), StatusCancelled, ExitCancelled},
		{"config", &streamcipher.ConfigError{Field: "key", Reason: "bad"}, StatusFailed, ExitUsage},
		{"read", &relay.Error{Op: relay.OpRead, Err: errors.New("reset")}, StatusFailed, ExitFailure},
		{"no tracks", playback.ErrNoTracks, StatusFailed, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StatusOf(tt.err); got != tt.status {
				t.Errorf("StatusOf = %s, want %s", got, tt.status)
			}
			if got := ExitCode(tt.err); got != tt.code {
				t.Errorf("ExitCode = %d, want %d", got, tt.code)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "completed"},
		{"cancelled", relay.ErrCancelled, "cancelled"},
		{"config", &streamcipher.ConfigError{Field: "nonce", Reason: "not valid base64"}, "invalid nonce: not valid base64"},
		{"probe limit", fmt.Errorf("%w: %w", playback.ErrNoTracks, ebml.ErrProbeLimit), "track list never completed"},
		{"no tracks", fmt.Errorf("%w: stream ended after 10 bytes", playback.ErrNoTracks), "EBML not found"},
		{"codec", &playback.UnsupportedCodecError{MIME: `video/webm; codecs="hevc"`}, `codec is not supported (video/webm; codecs="hevc")`},
		{"player closed", playback.ErrSinkClosed, "player closed unexpectedly"},
		{"status", &piping.StatusError{StatusCode: 400, Body: "[ERROR] busy"}, "piping server answered 400: [ERROR] busy"},
		{"status no body", &piping.StatusError{StatusCode: 502}, "piping server answered 502"},
		{"write", &relay.Error{Op: relay.OpWrite, Err: errors.New("broken pipe")}, "delivering the stream failed: broken pipe"},
		{"read", &relay.Error{Op: relay.OpRead, Err: errors.New("connection reset")}, "reading the stream failed: connection reset"},
		{"wrapped read", fmt.Errorf("watch: %w", &relay.Error{Op: relay.OpRead, Err: errors.New("EOF in body")}), "reading the stream failed: EOF in body"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Describe(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("Describe = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
