package ebml

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestProbeBelowThresholdNeedsMore(t *testing.T) {
	t.Parallel()

	stream := vp9OpusStream()
	p := NewProbe()
	for i := 0; i < DefaultThreshold-1; i++ {
		if r := p.Feed(stream[i : i+1]); r.Status != NeedMore {
			t.Fatalf("byte %d: status %s, want need-more", i, r.Status)
		}
	}
}

func TestProbeFindsVP9Opus(t *testing.T) {
	t.Parallel()

	stream := vp9OpusStream()
	p := NewProbe()

	var r Result
	for off := 0; off < len(stream); off += 50 {
		end := off + 50
		if end > len(stream) {
			end = len(stream)
		}
		r = p.Feed(stream[off:end])
		if r.Status != NeedMore {
			break
		}
	}

	if r.Status != Found {
		t.Fatalf("status %s (%v), want found", r.Status, r.Err)
	}
	d := r.Descriptor
	video, ok := d.Track(KindVideo)
	if !ok || video.Codec != "vp9" {
		t.Errorf("video track = %+v, %v; want vp9", video, ok)
	}
	audio, ok := d.Track(KindAudio)
	if !ok || audio.Codec != "opus" {
		t.Errorf("audio track = %+v, %v; want opus", audio, ok)
	}
	if got := d.Codecs(); got != "vp9,opus" {
		t.Errorf("Codecs() = %q, want %q", got, "vp9,opus")
	}
	if got, want := d.MIMEType(), `video/webm; codecs="vp9,opus"`; got != want {
		t.Errorf("MIMEType() = %q, want %q", got, want)
	}
	if d.DocType != "webm" {
		t.Errorf("DocType = %q, want webm", d.DocType)
	}
}

func TestProbePrefixIsReplayable(t *testing.T) {
	t.Parallel()

	stream := vp9OpusStream()
	p := NewProbe()
	p.Feed(stream[:120])
	r := p.Feed(stream[120:260])
	if r.Status != Found {
		t.Fatalf("status %s, want found", r.Status)
	}
	if !bytes.Equal(p.Prefix(), stream[:260]) {
		t.Fatal("prefix does not match the fed bytes")
	}

	// Terminal: further feeds neither change the result nor buffer.
	again := p.Feed(stream[260:])
	if again.Status != Found || p.Len() != 260 {
		t.Fatalf("after terminal: status %s len %d", again.Status, p.Len())
	}
}

func TestProbeRejectsZeroTracks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stream []byte
	}{
		{"empty Tracks", webmStream()},
		{"no Tracks before Cluster", append(ebmlHeader("webm"), unknownEl(IDSegment, info(), cluster(400))...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if len(tt.stream) < DefaultThreshold {
				t.Fatalf("fixture too small: %d bytes", len(tt.stream))
			}
			r := NewProbe().Feed(tt.stream)
			if r.Status != Invalid {
				t.Fatalf("status %s, want invalid", r.Status)
			}
			if !errors.Is(r.Err, ErrNoTracks) {
				t.Errorf("Err = %v, want ErrNoTracks", r.Err)
			}
		})
	}
}

func TestProbeRejectsWrongKeyGarbage(t *testing.T) {
	t.Parallel()

	garbage := make([]byte, 4096)
	rand.New(rand.NewSource(7)).Read(garbage)
	garbage[0] = 0x55 // never an EBML header

	r := NewProbe().Feed(garbage)
	if r.Status != Invalid || !errors.Is(r.Err, ErrNotEBML) {
		t.Fatalf("got %s / %v, want invalid / ErrNotEBML", r.Status, r.Err)
	}
}

func TestProbeDropsUnknownCodecs(t *testing.T) {
	t.Parallel()

	r := NewProbe().Feed(webmStream(
		trackEntry(1, trackTypeVideo, "V_THEORA"),
		trackEntry(2, trackTypeAudio, "A_OPUS"),
	))
	if r.Status != Found {
		t.Fatalf("status %s (%v), want found", r.Status, r.Err)
	}
	if got := r.Descriptor.Codecs(); got != "opus" {
		t.Errorf("Codecs() = %q, want opus", got)
	}
	if got := r.Descriptor.MIMEType(); got != `audio/webm; codecs="opus"` {
		t.Errorf("MIMEType() = %q", got)
	}
	if len(r.Descriptor.Unrecognized) != 1 || r.Descriptor.Unrecognized[0] != "V_THEORA" {
		t.Errorf("Unrecognized = %v", r.Descriptor.Unrecognized)
	}
}

func TestProbeWaitsForTruncatedTracks(t *testing.T) {
	t.Parallel()

	stream := vp9OpusStream()
	tracksAt := bytes.Index(stream, encodeID(IDTracks))
	if tracksAt < 0 {
		t.Fatal("fixture has no Tracks")
	}
	// Cut inside the Tracks body, past the threshold.
	cut := tracksAt + 40
	p := NewProbe(WithThreshold(cut))
	if r := p.Feed(stream[:cut]); r.Status != NeedMore {
		t.Fatalf("status %s (%v), want need-more", r.Status, r.Err)
	}
	if r := p.Feed(stream[cut:]); r.Status != Found {
		t.Fatalf("status %s (%v), want found", r.Status, r.Err)
	}
}

func TestProbeCeiling(t *testing.T) {
	t.Parallel()

	// A Tracks element declaring a body far larger than the ceiling.
	stream := append(ebmlHeader("webm"), unknownEl(IDSegment,
		info(),
		append(encodeID(IDTracks), encodeSize(1<<20)...),
		bytes.Repeat([]byte{0xEC, 0x80}, 300),
	)...)

	p := NewProbe(WithCeiling(512))
	var r Result
	for off := 0; off < len(stream) && r.Status == NeedMore; off += 64 {
		end := off + 64
		if end > len(stream) {
			end = len(stream)
		}
		r = p.Feed(stream[off:end])
	}
	if r.Status != Invalid || !errors.Is(r.Err, ErrProbeLimit) {
		t.Fatalf("got %s / %v, want invalid / ErrProbeLimit", r.Status, r.Err)
	}
	if p.Len() > 512+64 {
		t.Errorf("buffered %d bytes, ceiling 512", p.Len())
	}
}

func TestProbeMatroskaDocType(t *testing.T) {
	t.Parallel()

	stream := append(ebmlHeader("matroska"), unknownEl(IDSegment,
		info(),
		el(IDTracks, trackEntry(1, trackTypeVideo, "V_MPEG4/ISO/AVC"), trackEntry(2, trackTypeAudio, "A_AAC")),
		cluster(300),
	)...)
	r := NewProbe().Feed(stream)
	if r.Status != Found {
		t.Fatalf("status %s (%v)", r.Status, r.Err)
	}
	if got, want := r.Descriptor.MIMEType(), `video/x-matroska; codecs="avc1,mp4a.40.2"`; got != want {
		t.Errorf("MIMEType() = %q, want %q", got, want)
	}
}

func TestProbeSkipsSeekHeadAndVoid(t *testing.T) {
	t.Parallel()

	stream := append(ebmlHeader("webm"), unknownEl(IDSegment,
		el(IDSeekHead, bytes.Repeat([]byte{0xEC, 0x80}, 20)),
		el(IDVoid, make([]byte, 64)),
		info(),
		el(IDTracks, trackEntry(1, trackTypeVideo, "V_VP8")),
		cluster(300),
	)...)
	r := NewProbe().Feed(stream)
	if r.Status != Found || r.Descriptor.Codecs() != "vp8" {
		t.Fatalf("got %s / %+v / %v", r.Status, r.Descriptor, r.Err)
	}
}

func TestVerdictIgnoresChunking(t *testing.T) {
	t.Parallel()

	tracks := el(IDTracks, trackEntry(1, trackTypeVideo, "V_VP9"), trackEntry(2, trackTypeAudio, "A_OPUS"))
	fixtures := []struct {
		name   string
		stream []byte
	}{
		{"void before info", append(ebmlHeader("webm"), unknownEl(IDSegment,
			el(IDVoid, make([]byte, 300)), info(), tracks, cluster(300))...)},
		{"large seekhead", append(ebmlHeader("webm"), unknownEl(IDSegment,
			el(IDSeekHead, bytes.Repeat([]byte{0xEC, 0x80}, 400)), info(), tracks, cluster(300))...)},
		{"top-level void", append(append(ebmlHeader("webm"), el(IDVoid, make([]byte, 300))...),
			unknownEl(IDSegment, info(), tracks, cluster(300))...)},
		{"sized segment", append(ebmlHeader("webm"), el(IDSegment,
			el(IDVoid, make([]byte, 300)), info(), tracks, el(IDCluster, uintEl(0xE7, 0)))...)},
	}
	for _, fx := range fixtures {
		t.Run(fx.name, func(t *testing.T) {
			t.Parallel()

			whole := NewProbe().Feed(fx.stream)
			if whole.Status != Found {
				t.Fatalf("one chunk: status %s (%v), want found", whole.Status, whole.Err)
			}
			for _, size := range []int{1, 7, 64, 199, 256, 1000} {
				p := NewProbe()
				var r Result
				for off := 0; off < len(fx.stream) && r.Status == NeedMore; off += size {
					end := min(off+size, len(fx.stream))
					r = p.Feed(fx.stream[off:end])
				}
				if r.Status != Found {
					t.Fatalf("%d-byte chunks: got %s (%v) after %d bytes, want found", size, r.Status, r.Err, p.Len())
				}
				if got, want := r.Descriptor.MIMEType(), whole.Descriptor.MIMEType(); got != want {
					t.Errorf("%d-byte chunks: MIMEType() = %q, want %q", size, got, want)
				}
			}
		})
	}
}

func TestSegmentWithoutTracksIsInvalid(t *testing.T) {
	t.Parallel()

	// A complete sized Segment that never declares tracks.
	stream := append(ebmlHeader("webm"), el(IDSegment, info(), el(IDVoid, make([]byte, 300)))...)
	r := NewProbe().Feed(stream)
	if r.Status != Invalid || !errors.Is(r.Err, ErrNoTracks) {
		t.Fatalf("got %s / %v, want invalid / ErrNoTracks", r.Status, r.Err)
	}
}

func TestProbeSizedSegment(t *testing.T) {
	t.Parallel()

	stream := append(ebmlHeader("webm"), el(IDSegment,
		info(),
		el(IDTracks, trackEntry(1, trackTypeAudio, "A_VORBIS")),
		el(IDCluster, uintEl(0xE7, 0), el(0xA3, make([]byte, 300))),
	)...)
	r := NewProbe().Feed(stream)
	if r.Status != Found || r.Descriptor.Codecs() != "vorbis" {
		t.Fatalf("got %s / %v", r.Status, r.Err)
	}
}

func TestProbeBytes(t *testing.T) {
	t.Parallel()

	small := append(ebmlHeader("webm"), unknownEl(IDSegment,
		el(IDTracks, trackEntry(1, trackTypeAudio, "A_OPUS")),
	)...)
	if len(small) >= DefaultThreshold {
		t.Fatalf("fixture should be below threshold, got %d bytes", len(small))
	}
	if r := ProbeBytes(small); r.Status != Found {
		t.Fatalf("status %s (%v), want found", r.Status, r.Err)
	}
	if r := ProbeBytes(nil); r.Status != Invalid {
		t.Fatalf("empty input: status %s, want invalid", r.Status)
	}
}

func FuzzProbeFeed(f *testing.F) {
	f.Add(vp9OpusStream())
	f.Add(webmStream())
	f.Add(make([]byte, 300))

	f.Fuzz(func(t *testing.T, data []byte) {
		p := NewProbe(WithThreshold(16), WithCeiling(4096))
		half := len(data) / 2
		p.Feed(data[:half])
		p.Feed(data[half:]) // must not panic
	})
}
