package webmgen

import (
	"testing"

	"github.com/zsiec/tomitake/internal/ebml"
)

func TestGenerateProbesAsVP9Opus(t *testing.T) {
	t.Parallel()

	b, err := Bytes(Options{Tracks: VP9Opus(), Frames: 10})
	if err != nil {
		t.Fatal(err)
	}

	r := ebml.ProbeBytes(b)
	if r.Status != ebml.Found {
		t.Fatalf("status %s (%v), want found", r.Status, r.Err)
	}
	if got := r.Descriptor.Codecs(); got != "vp9,opus" {
		t.Errorf("Codecs() = %q, want vp9,opus", got)
	}
}

func TestGenerateRequiresTracks(t *testing.T) {
	t.Parallel()

	if _, err := Bytes(Options{Frames: 1}); err == nil {
		t.Fatal("expected error without tracks")
	}
}
