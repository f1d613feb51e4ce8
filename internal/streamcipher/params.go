package streamcipher

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// Params is the Base64 form of a key and nonce, as exchanged between the
// streaming and watching sides.
type Params struct {
	Key   string
	Nonce string
}

// Empty reports whether neither a key nor a nonce was supplied.
func (p Params) Empty() bool {
	return strings.TrimSpace(p.Key) == "" && strings.TrimSpace(p.Nonce) == ""
}

// Validate checks that key and nonce are both present or both absent and
// that each decodes to the right length.
func (p Params) Validate() error {
	_, err := p.decode()
	return err
}

// Cipher builds a fresh Cipher from the parameters. It returns (nil, nil)
// when both key and nonce are empty.
func (p Params) Cipher() (*Cipher, error) {
	raw, err := p.decode()
	if err != nil || raw == nil {
		return nil, err
	}
	return New(raw.key, raw.nonce)
}

type rawParams struct {
	key   []byte
	nonce []byte
}

func (p Params) decode() (*rawParams, error) {
	key := strings.TrimSpace(p.Key)
	nonce := strings.TrimSpace(p.Nonce)
	switch {
	case key == "" && nonce == "":
		return nil, nil
	case key == "":
		return nil, &ConfigError{Field: "key", Reason: "nonce given without key"}
	case nonce == "":
		return nil, &ConfigError{Field: "nonce", Reason: "key given without nonce"}
	}

	k, err := decodeBase64(key)
	if err != nil {
		return nil, &ConfigError{Field: "key", Reason: "not valid base64"}
	}
	if len(k) != KeySize {
		return nil, &ConfigError{Field: "key", Reason: fmt.Sprintf("length %d, want %d", len(k), KeySize)}
	}
	n, err := decodeBase64(nonce)
	if err != nil {
		return nil, &ConfigError{Field: "nonce", Reason: "not valid base64"}
	}
	if len(n) != NonceSize {
		return nil, &ConfigError{Field: "nonce", Reason: fmt.Sprintf("length %d, want %d", len(n), NonceSize)}
	}
	return &rawParams{key: k, nonce: n}, nil
}

// Parse is shorthand for Params{Key: key, Nonce: nonce}.Cipher().
func Parse(key, nonce string) (*Cipher, error) {
	return Params{Key: key, Nonce: nonce}.Cipher()
}

// Generate returns a random key and nonce encoded as standard Base64.
func Generate() (Params, error) {
	buf := make([]byte, KeySize+NonceSize)
	if _, err := rand.Read(buf); err != nil {
		return Params{}, fmt.Errorf("streamcipher: generate: %w", err)
	}
	return Params{
		Key:   base64.StdEncoding.EncodeToString(buf[:KeySize]),
		Nonce: base64.StdEncoding.EncodeToString(buf[KeySize:]),
	}, nil
}

// decodeBase64 accepts padded and unpadded input in both the standard and
// URL-safe alphabets.
func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
