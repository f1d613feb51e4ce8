// Package progress shows transfer progress on a terminal. When the output
// is not a terminal nothing is drawn and the Bar only counts bytes.
package progress

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Bar counts transferred bytes and, when visible, draws them.
type Bar struct {
	bar   *progressbar.ProgressBar
	bytes atomic.Int64
}

// New creates a Bar writing to w. total is the expected size in bytes, or
// -1 for a live stream of unknown length. visible false only counts.
func New(w io.Writer, total int64, description string, visible bool) *Bar {
	b := &Bar{}
	if !visible {
		return b
	}
	b.bar = progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionSetPredictTime(total > 0),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSpinnerType(14),
	)
	return b
}

// Add records n transferred bytes. It matches the relay observer signature.
func (b *Bar) Add(n int) {
	b.bytes.Add(int64(n))
	if b.bar != nil {
		b.bar.Add64(int64(n))
	}
}

// Bytes returns the bytes recorded so far.
func (b *Bar) Bytes() int64 {
	return b.bytes.Load()
}

// Finish clears the bar.
func (b *Bar) Finish() {
	if b.bar != nil {
		b.bar.Finish()
	}
}
