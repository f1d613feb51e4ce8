// Package relay moves chunks from a [Source] to a [Sink] through an optional
// [streamcipher.Cipher] on a dedicated goroutine.
//
// A relay keeps at most one chunk in flight: it does not pull chunk N+1
// until the sink has accepted chunk N. Cancellation is observed between
// chunks; a write that has already been handed to the sink is allowed to
// finish. Read and write failures end the transfer and are never retried.
//
// [streamcipher.Cipher]: github.com/zsiec/tomitake/internal/streamcipher.Cipher
package relay
