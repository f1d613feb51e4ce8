// Package srt implements SRT (Secure Reliable Transport) ingest, including
// both listener-mode (Server) for accepting incoming publish connections and
// caller-mode (Caller) for pulling streams from remote SRT sources. Either
// way the received bytes become an ingest.Stream.
package srt
