package ebml

// Element IDs, stored with their length-marker bits as they appear on the
// wire.
const (
	IDEBML        uint32 = 0x1A45DFA3
	IDDocType     uint32 = 0x4282
	IDSegment     uint32 = 0x18538067
	IDSeekHead    uint32 = 0x114D9B74
	IDInfo        uint32 = 0x1549A966
	IDTracks      uint32 = 0x1654AE6B
	IDTrackEntry  uint32 = 0xAE
	IDTrackNumber uint32 = 0xD7
	IDTrackType   uint32 = 0x83
	IDCodecID     uint32 = 0x86
	IDCluster     uint32 = 0x1F43B675
	IDCues        uint32 = 0x1C53BB6B
	IDTags        uint32 = 0x1254C367
	IDVoid        uint32 = 0xEC
	IDCRC32       uint32 = 0xBF
)

// Matroska TrackType values.
const (
	trackTypeVideo    = 1
	trackTypeAudio    = 2
	trackTypeComplex  = 3
	trackTypeSubtitle = 0x11
)

var elementNames = map[uint32]string{
	IDEBML:        "EBML",
	IDDocType:     "DocType",
	IDSegment:     "Segment",
	IDSeekHead:    "SeekHead",
	IDInfo:        "Info",
	IDTracks:      "Tracks",
	IDTrackEntry:  "TrackEntry",
	IDTrackNumber: "TrackNumber",
	IDTrackType:   "TrackType",
	IDCodecID:     "CodecID",
	IDCluster:     "Cluster",
	IDCues:        "Cues",
	IDTags:        "Tags",
	IDVoid:        "Void",
	IDCRC32:       "CRC-32",
}

// ElementName returns a readable name for id, or its hex form.
func ElementName(id uint32) string {
	if name, ok := elementNames[id]; ok {
		return name
	}
	return fmtHexID(id)
}
