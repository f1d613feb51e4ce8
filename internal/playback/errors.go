package playback

import (
	"errors"
	"fmt"
)

// Terminal failures reported by Controller.Run.
var (
	// ErrNoTracks means the stream head holds no track declaration. With
	// an encrypted stream this almost always means a wrong key or nonce.
	ErrNoTracks = errors.New("playback: no track declaration found (wrong key or nonce?)")

	// ErrSinkClosed means the sink became unusable while data was still
	// flowing. It is distinct from a clean end of stream.
	ErrSinkClosed = errors.New("playback: sink closed unexpectedly (wrong key or nonce? codec not supported?)")
)

// UnsupportedCodecError means the stream declared tracks the sink cannot
// play. MIME is the content type that was checked.
type UnsupportedCodecError struct {
	MIME string
}

func (e *UnsupportedCodecError) Error() string {
	return fmt.Sprintf("playback: codec is not supported (%s)", e.MIME)
}
