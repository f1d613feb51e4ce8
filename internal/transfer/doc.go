// Package transfer wires the stream cipher, relay, probe and playback
// controller into the three end-to-end flows: streaming a source to a
// piping server, watching a piping stream, and decrypting a recording.
//
// Every flow runs under a [Manager] entry with its own id and cancel
// function, and reports its outcome through [StatusOf] and [Describe].
package transfer
