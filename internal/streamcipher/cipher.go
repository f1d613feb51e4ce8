package streamcipher

import (
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// Key and nonce sizes for the IETF ChaCha20 variant.
const (
	KeySize   = chacha20.KeySize
	NonceSize = chacha20.NonceSize
)

// ConfigError reports a malformed key or nonce. It is returned before any
// chunk is processed and is never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("streamcipher: invalid %s: %s", e.Field, e.Reason)
}

// Cipher is the keystream state for one transfer. A nil *Cipher is a valid
// passthrough transform.
//
// A Cipher must be owned by a single relay and never shared; reusing a
// key+nonce pair for two transfers leaks the XOR of both plaintexts.
type Cipher struct {
	c *chacha20.Cipher
}

// New creates a Cipher positioned at the start of the keystream.
func New(key, nonce []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, &ConfigError{Field: "key", Reason: fmt.Sprintf("length %d, want %d", len(key), KeySize)}
	}
	if len(nonce) != NonceSize {
		return nil, &ConfigError{Field: "nonce", Reason: fmt.Sprintf("length %d, want %d", len(nonce), NonceSize)}
	}
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, &ConfigError{Field: "key", Reason: err.Error()}
	}
	return &Cipher{c: c}, nil
}

// Transform XORs chunk with the next len(chunk) keystream bytes and returns
// the result in a new slice. On a nil Cipher the chunk is returned as is.
//
// The underlying keystream is limited to 2^32 blocks (256 GiB); transforming
// past that point panics.
func (c *Cipher) Transform(chunk []byte) []byte {
	if c == nil || len(chunk) == 0 {
		return chunk
	}
	out := make([]byte, len(chunk))
	c.c.XORKeyStream(out, chunk)
	return out
}

// Enabled reports whether the transform actually encrypts.
func (c *Cipher) Enabled() bool {
	return c != nil
}
