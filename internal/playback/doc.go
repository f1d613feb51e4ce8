// Package playback drives a media sink from a relayed stream. A
// [Controller] probes the head of the stream for its codecs, configures the
// sink once it has confirmed support, replays the probed prefix and then
// drains the rest of the stream into it one chunk at a time.
package playback
