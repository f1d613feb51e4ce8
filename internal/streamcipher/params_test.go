package streamcipher

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func b64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func TestParamsCipher(t *testing.T) {
	t.Parallel()

	key, nonce := testKeyNonce()

	tests := []struct {
		name    string
		params  Params
		wantNil bool
		wantErr bool
	}{
		{"both empty", Params{}, true, false},
		{"whitespace only", Params{Key: " ", Nonce: "\t"}, true, false},
		{"both present", Params{Key: b64(key), Nonce: b64(nonce)}, false, false},
		{"url safe unpadded", Params{
			Key:   base64.RawURLEncoding.EncodeToString(key),
			Nonce: base64.RawURLEncoding.EncodeToString(nonce),
		}, false, false},
		{"key only", Params{Key: b64(key)}, true, true},
		{"nonce only", Params{Nonce: b64(nonce)}, true, true},
		{"bad base64", Params{Key: "!!!", Nonce: b64(nonce)}, true, true},
		{"short key", Params{Key: b64(key[:31]), Nonce: b64(nonce)}, true, true},
		{"long nonce", Params{Key: b64(key), Nonce: b64(append(nonce, 'x'))}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := tt.params.Cipher()
			if tt.wantErr {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("got %v, want *ConfigError", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (c == nil) != tt.wantNil {
				t.Fatalf("cipher nil = %v, want %v", c == nil, tt.wantNil)
			}
			if verr := tt.params.Validate(); (verr != nil) != tt.wantErr {
				t.Fatalf("Validate error = %v, wantErr %v", verr, tt.wantErr)
			}
		})
	}
}

func TestParseMatchesNew(t *testing.T) {
	t.Parallel()

	key, nonce := testKeyNonce()
	a, err := Parse(b64(key), b64(nonce))
	if err != nil {
		t.Fatal(err)
	}
	b := mustCipher(t, key, nonce)

	data := []byte("the same keystream either way")
	if !bytes.Equal(a.Transform(data), b.Transform(data)) {
		t.Fatal("Parse and New produced different keystreams")
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	p1, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	p2, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	if p1 == p2 {
		t.Fatal("Generate returned identical params twice")
	}
	if err := p1.Validate(); err != nil {
		t.Fatalf("generated params invalid: %v", err)
	}
	if p1.Empty() {
		t.Fatal("generated params reported empty")
	}
}
