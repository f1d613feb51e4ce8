// gen-webm writes a synthetic VP9/Opus WebM stream, optionally encrypted,
// for exercising `tomitake decrypt`, `probe` and `watch --out`.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zsiec/tomitake/internal/streamcipher"
	"github.com/zsiec/tomitake/internal/webmgen"
)

func main() {
	outFlag := flag.String("out", "-", `Output path ("-" for stdout)`)
	framesFlag := flag.Int("frames", 300, "Number of frames")
	sizeFlag := flag.Int("frame-size", 2048, "Bytes per frame")
	intervalFlag := flag.Duration("interval", 20*time.Millisecond, "Timestamp step between frames")
	keyFlag := flag.String("key", "", "Base64 key to encrypt with")
	nonceFlag := flag.String("nonce", "", "Base64 nonce to encrypt with")
	genFlag := flag.Bool("encrypt", false, "Encrypt with a fresh key and nonce, printed to stderr")
	flag.Parse()

	cp := streamcipher.Params{Key: *keyFlag, Nonce: *nonceFlag}
	if *genFlag {
		if !cp.Empty() {
			fatalf("--encrypt cannot be combined with --key or --nonce")
		}
		var err error
		if cp, err = streamcipher.Generate(); err != nil {
			fatalf("%v", err)
		}
		fmt.Fprintf(os.Stderr, "key:   %s\nnonce: %s\n", cp.Key, cp.Nonce)
	}
	c, err := cp.Cipher()
	if err != nil {
		fatalf("%v", err)
	}

	data, err := webmgen.Bytes(webmgen.Options{
		Tracks:    webmgen.VP9Opus(),
		Frames:    *framesFlag,
		FrameSize: *sizeFlag,
		Interval:  *intervalFlag,
	})
	if err != nil {
		fatalf("generate: %v", err)
	}
	data = c.Transform(data)

	var w io.Writer = os.Stdout
	if *outFlag != "-" {
		f, err := os.Create(*outFlag)
		if err != nil {
			fatalf("%v", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		fatalf("write: %v", err)
	}
	if *outFlag != "-" {
		fmt.Fprintf(os.Stderr, "wrote %d bytes to %s (encrypted: %v)\n", len(data), *outFlag, c.Enabled())
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "gen-webm: "+format+"\n", args...)
	os.Exit(1)
}
