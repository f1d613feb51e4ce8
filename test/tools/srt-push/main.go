// srt-push publishes a media file to an SRT listener such as
// `tomitake stream --srt-listen`, paced at a fixed byte rate.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	srt "github.com/zsiec/srtgo"
)

// chunkSize stays below the SRT live-mode payload limit.
const chunkSize = 1316

func main() {
	keyFlag := flag.String("key", "", "Stream key (default: filename without extension)")
	addrFlag := flag.String("addr", "127.0.0.1:6000", "SRT listener address")
	rateFlag := flag.Int("rate", 256*1024, "Bytes per second")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: srt-push [--addr host:port] [--key name] <file>\n")
		os.Exit(1)
	}
	filePath := flag.Arg(0)

	key := *keyFlag
	if key == "" {
		base := filepath.Base(filePath)
		key = strings.TrimSuffix(base, filepath.Ext(base))
	}
	streamID := "live/" + key

	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}

	cfg := srt.DefaultConfig()
	cfg.StreamID = streamID
	conn, err := srt.Dial(*addrFlag, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[%s] SRT connect failed: %v\n", streamID, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("[%s] Connected to %s, sending %d bytes\n", streamID, *addrFlag, len(data))
	if err := push(conn, data, float64(*rateFlag)); err != nil {
		fmt.Fprintf(os.Stderr, "[%s] Connection lost: %v\n", streamID, err)
		os.Exit(1)
	}
	fmt.Printf("[%s] Done\n", streamID)
}

func push(w io.Writer, data []byte, bytesPerSec float64) error {
	start := time.Now()
	var sent int64
	for i := 0; i < len(data); i += chunkSize {
		end := min(i+chunkSize, len(data))
		if _, err := w.Write(data[i:end]); err != nil {
			return err
		}
		sent += int64(end - i)

		expected := float64(sent) / bytesPerSec
		if elapsed := time.Since(start).Seconds(); expected > elapsed {
			time.Sleep(time.Duration((expected - elapsed) * float64(time.Second)))
		}
	}
	return nil
}
