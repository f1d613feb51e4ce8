package ebml

import (
	"bytes"
	"encoding/binary"
)

// encodeID writes id using the minimal number of bytes; IDs already carry
// their length marker.
func encodeID(id uint32) []byte {
	switch {
	case id > 0xFFFFFF:
		return []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
	case id > 0xFFFF:
		return []byte{byte(id >> 16), byte(id >> 8), byte(id)}
	case id > 0xFF:
		return []byte{byte(id >> 8), byte(id)}
	default:
		return []byte{byte(id)}
	}
}

// encodeSize writes size as an 8-byte vint.
func encodeSize(size uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, size)
	b[0] = 0x01
	return b
}

var unknownSize = []byte{0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

func el(id uint32, body ...[]byte) []byte {
	joined := bytes.Join(body, nil)
	out := append(encodeID(id), encodeSize(uint64(len(joined)))...)
	return append(out, joined...)
}

func unknownEl(id uint32, body ...[]byte) []byte {
	out := append(encodeID(id), unknownSize...)
	return append(out, bytes.Join(body, nil)...)
}

func uintEl(id uint32, v uint64) []byte {
	return el(id, []byte{byte(v)})
}

func strEl(id uint32, s string) []byte {
	return el(id, []byte(s))
}

func ebmlHeader(docType string) []byte {
	return el(IDEBML,
		uintEl(0x4286, 1), // EBMLVersion
		uintEl(0x42F7, 1), // EBMLReadVersion
		strEl(IDDocType, docType),
	)
}

func info() []byte {
	return el(IDInfo,
		el(0x2AD7B1, []byte{0x0F, 0x42, 0x40}), // TimecodeScale 1000000
		strEl(0x4D80, "tomitake-test"),         // MuxingApp
		strEl(0x5741, "tomitake-test"),         // WritingApp
	)
}

func trackEntry(number, trackType uint64, codecID string) []byte {
	return el(IDTrackEntry,
		uintEl(IDTrackNumber, number),
		uintEl(0x73C5, number), // TrackUID
		uintEl(IDTrackType, trackType),
		strEl(IDCodecID, codecID),
	)
}

func cluster(payload int) []byte {
	return unknownEl(IDCluster,
		uintEl(0xE7, 0), // Timecode
		el(0xA3, bytes.Repeat([]byte{0x42}, payload)), // SimpleBlock
	)
}

// webmStream builds a live-style WebM head: EBML header, unknown-size
// Segment, Info, Tracks and one Cluster.
func webmStream(entries ...[]byte) []byte {
	return append(ebmlHeader("webm"), unknownEl(IDSegment,
		info(),
		el(IDTracks, entries...),
		cluster(400),
	)...)
}

func vp9OpusStream() []byte {
	return webmStream(
		trackEntry(1, trackTypeVideo, "V_VP9"),
		trackEntry(2, trackTypeAudio, "A_OPUS"),
	)
}
