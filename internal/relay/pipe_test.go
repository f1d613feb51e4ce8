package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestPipeHandoff(t *testing.T) {
	t.Parallel()

	ps, pk := Pipe()
	in := [][]byte{[]byte("one"), []byte("two"), []byte("three")}

	r, err := Start(context.Background(), &sliceSource{chunks: in}, pk, nil)
	if err != nil {
		t.Fatal(err)
	}

	var got [][]byte
	for {
		b, err := ps.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, b)
	}
	if err := r.Wait(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(bytes.Join(got, nil), []byte("onetwothree")) {
		t.Fatalf("got %q", bytes.Join(got, nil))
	}
}

func TestPipeWriteBlocksUntilRead(t *testing.T) {
	t.Parallel()

	ps, pk := Pipe()
	written := make(chan struct{})
	go func() {
		pk.Write(context.Background(), []byte("x"))
		close(written)
	}()

	select {
	case <-written:
		t.Fatal("Write returned before the reader took the chunk")
	case <-time.After(20 * time.Millisecond):
	}

	if _, err := ps.Next(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-written:
	case <-time.After(2 * time.Second):
		t.Fatal("Write did not return after Next")
	}
}

func TestPipeReaderCancelStopsRelay(t *testing.T) {
	t.Parallel()

	ps, pk := Pipe()
	src := &endlessSource{}
	r, err := Start(context.Background(), src, pk, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ps.Next(context.Background()); err != nil {
		t.Fatal(err)
	}
	ps.Cancel()

	if err := r.Wait(); !errors.Is(err, ErrCancelled) {
		t.Fatalf("Wait = %v, want ErrCancelled", err)
	}
	if !src.cancelled.Load() {
		t.Error("upstream source not cancelled")
	}
}

func TestPipeAbortReachesReader(t *testing.T) {
	t.Parallel()

	ps, pk := Pipe()
	boom := errors.New("read failed upstream")
	pk.Abort(boom)
	if _, err := ps.Next(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
	if err := pk.Close(); !errors.Is(err, boom) {
		t.Fatalf("Close after abort = %v, want %v", err, boom)
	}
}

func TestPipeEndpointsClaimOnce(t *testing.T) {
	t.Parallel()

	ps, pk := Pipe()
	if err := Claim(ps); err != nil {
		t.Fatal(err)
	}
	if err := Claim(ps); !errors.Is(err, ErrEndpointClaimed) {
		t.Fatalf("second claim = %v, want ErrEndpointClaimed", err)
	}
	if err := Claim(pk); err != nil {
		t.Fatalf("sink claim: %v", err)
	}
}
