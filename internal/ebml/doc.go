// Package ebml incrementally inspects the head of an EBML (Matroska/WebM)
// stream to find its track declarations.
//
// [Probe] accumulates the first bytes of a stream and, once enough are
// buffered, walks the element tree far enough to read the Tracks element.
// It never consumes the bytes it was fed: [Probe.Prefix] returns them intact
// so they can be replayed to a playback sink. Only the handful of elements
// needed for codec discovery are understood; everything else is skipped by
// size.
package ebml
