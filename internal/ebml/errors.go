package ebml

import (
	"errors"
	"fmt"
)

// Reasons a probe gives up. They are carried in Result.Err.
var (
	// ErrNotEBML means the stream does not start with an EBML header,
	// the usual symptom of decrypting with the wrong key or nonce.
	ErrNotEBML = errors.New("ebml: stream does not start with an EBML header")

	// ErrNoTracks means the decoded prefix holds no track declaration.
	ErrNoTracks = errors.New("ebml: no track declaration found")

	// ErrProbeLimit means the track declaration did not complete within
	// the probe ceiling.
	ErrProbeLimit = errors.New("ebml: track declaration exceeds probe limit")

	errTruncated = errors.New("ebml: element continues past buffered data")
)

// ParseError reports a malformed element. It records which element was
// being decoded and where.
type ParseError struct {
	Element string
	Offset  int
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ebml: parse %s at offset %d: %v", e.Element, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
