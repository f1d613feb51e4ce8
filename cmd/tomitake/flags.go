package main

import (
	"github.com/spf13/cobra"

	"github.com/zsiec/tomitake/internal/streamcipher"
)

// cipherFlags are the key and nonce accepted by every transfer command.
type cipherFlags struct {
	key   string
	nonce string
}

func (f *cipherFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.key, "key", "k", "", "Base64 ChaCha20 key (32 bytes)")
	cmd.Flags().StringVarP(&f.nonce, "nonce", "n", "", "Base64 ChaCha20 nonce (12 bytes)")
}

func (f *cipherFlags) params() streamcipher.Params {
	return streamcipher.Params{Key: f.key, Nonce: f.nonce}
}

// merge fills unset flags from p.
func (f *cipherFlags) merge(p streamcipher.Params) streamcipher.Params {
	out := f.params()
	if out.Key == "" {
		out.Key = p.Key
	}
	if out.Nonce == "" {
		out.Nonce = p.Nonce
	}
	return out
}
