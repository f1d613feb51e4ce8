package playback

import (
	"context"
	"mime"
	"strings"
)

// MediaSink is a playback surface fed by a Controller.
//
// Supports is asked before anything is written. Open prepares the sink for
// the given content type and returns once it is ready for data. Append
// returns after the sink accepted the chunk. Closed reports that the sink
// can no longer take data. EndOfStream finalizes after the last Append;
// Abort tears the sink down without finalizing.
type MediaSink interface {
	Supports(mimeType string) bool
	Open(ctx context.Context, mimeType string) error
	Append(ctx context.Context, chunk []byte) error
	Closed() bool
	EndOfStream() error
	Abort(err error)
}

// ContainerOf returns the media type without parameters, e.g. "video/webm".
func ContainerOf(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ""
	}
	return mt
}

// CodecsOf returns the entries of the codecs parameter of mimeType.
func CodecsOf(mimeType string) []string {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return nil
	}
	var out []string
	for _, c := range strings.Split(params["codecs"], ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// containerSupported reports whether mimeType is a WebM or Matroska type,
// the only containers a byte-copying sink can accept unchanged.
func containerSupported(mimeType string) bool {
	switch ContainerOf(mimeType) {
	case "video/webm", "audio/webm", "video/x-matroska", "audio/x-matroska":
		return true
	}
	return false
}

// codecsAllowed reports whether every codec in mimeType is in allow. An
// empty allow list accepts any codec.
func codecsAllowed(mimeType string, allow []string) bool {
	codecs := CodecsOf(mimeType)
	if len(codecs) == 0 {
		return false
	}
	if len(allow) == 0 {
		return true
	}
	for _, c := range codecs {
		ok := false
		for _, a := range allow {
			if strings.EqualFold(c, a) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
