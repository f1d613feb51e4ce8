package transfer

import (
	"github.com/zsiec/tomitake/internal/piping"
	"github.com/zsiec/tomitake/internal/streamcipher"
)

// Params are the user-facing transfer parameters. Key and Nonce are Base64
// and must be given together or not at all.
type Params struct {
	URL   string
	Key   string
	Nonce string
}

// Cipher returns the key and nonce.
func (p Params) Cipher() streamcipher.Params {
	return streamcipher.Params{Key: p.Key, Nonce: p.Nonce}
}

// Link returns p as a piping link.
func (p Params) Link() piping.Link {
	return piping.Link{URL: p.URL, Params: p.Cipher()}
}

// Validate checks the URL and the key and nonce before any network or
// device work starts.
func (p Params) Validate() error {
	if err := piping.ValidateURL(p.URL); err != nil {
		return err
	}
	return p.Cipher().Validate()
}
