package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/zsiec/tomitake/internal/ebml"
	"github.com/zsiec/tomitake/internal/piping"
	"github.com/zsiec/tomitake/internal/playback"
	"github.com/zsiec/tomitake/internal/relay"
	"github.com/zsiec/tomitake/internal/streamcipher"
)

// Status is the final outcome of a transfer.
type Status int

// Transfer outcomes. Cancelled is neutral: the user asked for it.
const (
	StatusCompleted Status = iota
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// StatusOf classifies the error returned by a flow.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusCompleted
	case errors.Is(err, relay.ErrCancelled), errors.Is(err, context.Canceled):
		return StatusCancelled
	default:
		return StatusFailed
	}
}

// Exit codes returned by ExitCode.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitUsage     = 2
	ExitCancelled = 130
)

// ExitCode maps a flow error to a process exit status.
func ExitCode(err error) int {
	var cfgErr *streamcipher.ConfigError
	switch {
	case err == nil:
		return ExitOK
	case StatusOf(err) == StatusCancelled:
		return ExitCancelled
	case errors.As(err, &cfgErr):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// Describe turns a flow error into the message shown to the user.
func Describe(err error) string {
	var (
		cfgErr    *streamcipher.ConfigError
		codecErr  *playback.UnsupportedCodecError
		statusErr *piping.StatusError
	)
	switch {
	case err == nil:
		return "completed"
	case StatusOf(err) == StatusCancelled:
		return "cancelled"
	case errors.As(err, &cfgErr):
		return fmt.Sprintf("invalid %s: %s", cfgErr.Field, cfgErr.Reason)
	case errors.Is(err, ebml.ErrProbeLimit):
		return "EBML header found but the track list never completed (wrong key or nonce?)"
	case errors.Is(err, playback.ErrNoTracks):
		return "EBML not found (wrong key or nonce?)"
	case errors.As(err, &codecErr):
		return fmt.Sprintf("codec is not supported (%s)", codecErr.MIME)
	case errors.Is(err, playback.ErrSinkClosed):
		return "player closed unexpectedly (wrong key or nonce? codec not supported?)"
	case errors.As(err, &statusErr):
		msg := fmt.Sprintf("piping server answered %d", statusErr.StatusCode)
		if statusErr.Body != "" {
			msg += ": " + statusErr.Body
		}
		return msg
	case relay.IsRead(err):
		return fmt.Sprintf("reading the stream failed: %v", ioCause(err))
	case relay.IsWrite(err):
		return fmt.Sprintf("delivering the stream failed: %v", ioCause(err))
	default:
		return err.Error()
	}
}

// ioCause returns the I/O error behind a relay failure.
func ioCause(err error) error {
	var re *relay.Error
	if errors.As(err, &re) {
		return re.Err
	}
	return err
}
