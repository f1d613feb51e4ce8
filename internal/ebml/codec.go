package ebml

import "strings"

// DefaultCodecTable maps Matroska CodecID values to the codec names used in
// MIME codecs parameters.
var DefaultCodecTable = map[string]string{
	"V_VP8":            "vp8",
	"V_VP9":            "vp9",
	"V_AV1":            "av1",
	"V_MPEG4/ISO/AVC":  "avc1",
	"V_MPEGH/ISO/HEVC": "hev1",
	"A_OPUS":           "opus",
	"A_VORBIS":         "vorbis",
	"A_AAC":            "mp4a.40.2",
}

// TrackKind classifies a track by its declared TrackType.
type TrackKind string

// Track kinds.
const (
	KindVideo    TrackKind = "video"
	KindAudio    TrackKind = "audio"
	KindSubtitle TrackKind = "subtitle"
	KindOther    TrackKind = "other"
)

func kindOf(trackType uint64) TrackKind {
	switch trackType {
	case trackTypeVideo:
		return KindVideo
	case trackTypeAudio:
		return KindAudio
	case trackTypeSubtitle:
		return KindSubtitle
	default:
		return KindOther
	}
}

// Track is one declared track whose codec was recognised.
type Track struct {
	Number  uint64    `json:"number"`
	Kind    TrackKind `json:"kind"`
	CodecID string    `json:"codecId"`
	Codec   string    `json:"codec"`
}

// Descriptor lists the recognised tracks of a stream. Tracks whose CodecID
// is not in the codec table are listed in Unrecognized instead.
type Descriptor struct {
	DocType      string   `json:"docType"`
	Tracks       []Track  `json:"tracks"`
	Unrecognized []string `json:"unrecognized,omitempty"`
}

// Codecs joins the codec names in declaration order, e.g. "vp9,opus".
func (d *Descriptor) Codecs() string {
	names := make([]string, 0, len(d.Tracks))
	for _, t := range d.Tracks {
		names = append(names, t.Codec)
	}
	return strings.Join(names, ",")
}

// MIMEType builds the content type a playback sink is asked about, e.g.
// `video/webm; codecs="vp9,opus"`.
func (d *Descriptor) MIMEType() string {
	major := "audio"
	if _, ok := d.Track(KindVideo); ok {
		major = "video"
	}
	sub := "webm"
	if d.DocType == "matroska" {
		sub = "x-matroska"
	}
	return major + "/" + sub + `; codecs="` + d.Codecs() + `"`
}

// Track returns the first recognised track of the given kind.
func (d *Descriptor) Track(kind TrackKind) (Track, bool) {
	for _, t := range d.Tracks {
		if t.Kind == kind {
			return t, true
		}
	}
	return Track{}, false
}
