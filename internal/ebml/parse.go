package ebml

import "errors"

// rawTrack is a TrackEntry before codec mapping.
type rawTrack struct {
	number    uint64
	trackType uint64
	codecID   string
}

// head is what parseHead extracts from the start of a stream.
type head struct {
	docType string
	tracks  []rawTrack
}

// parseHead walks buf as the start of an EBML stream up to the end of the
// first Tracks element. It returns errTruncated when an element before or
// including Tracks runs past the end of buf; every other failure means the
// buffered bytes will never yield tracks.
func parseHead(buf []byte) (*head, error) {
	h, err := ReadElementHeader(buf)
	switch {
	case errors.Is(err, ErrShortBuffer):
		return nil, errTruncated
	case err != nil || h.ID != IDEBML:
		return nil, ErrNotEBML
	case h.Unknown():
		return nil, &ParseError{Element: "EBML", Offset: 0, Err: ErrNotEBML}
	case !fits(buf, 0, h):
		return nil, errTruncated
	}

	out := &head{}
	bodyStart := h.HeaderLen
	bodyEnd := bodyStart + int(h.Size)
	if err := walk(buf, bodyStart, bodyEnd, func(c Header, off int, body []byte) error {
		if c.ID == IDDocType {
			out.docType = readString(body)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	off := bodyEnd
	for {
		h, err := ReadElementHeader(buf[off:])
		switch {
		case errors.Is(err, ErrShortBuffer):
			return nil, errTruncated
		case err != nil:
			return nil, ErrNoTracks
		}
		switch h.ID {
		case IDVoid, IDCRC32:
			if h.Unknown() {
				return nil, ErrNoTracks
			}
			if !fits(buf, off, h) {
				return nil, errTruncated
			}
			off += h.HeaderLen + int(h.Size)
			continue
		case IDSegment:
		default:
			return nil, &ParseError{Element: ElementName(h.ID), Offset: off, Err: ErrNoTracks}
		}

		segEnd, open := len(buf), true
		if !h.Unknown() && fits(buf, off, h) {
			segEnd, open = off+h.HeaderLen+int(h.Size), false
		}
		tracks, err := findTracks(buf, off+h.HeaderLen, segEnd, open)
		if err != nil {
			return nil, err
		}
		out.tracks = tracks
		return out, nil
	}
}

// findTracks scans Segment children in buf[start:end] for Tracks. open
// reports that the Segment continues past the end of buf.
func findTracks(buf []byte, start, end int, open bool) ([]rawTrack, error) {
	off := start
	for off < end {
		h, err := ReadElementHeader(buf[off:end])
		switch {
		case errors.Is(err, ErrShortBuffer) && open:
			return nil, errTruncated
		case err != nil:
			return nil, ErrNoTracks
		}
		switch h.ID {
		case IDTracks:
			if h.Unknown() {
				return nil, &ParseError{Element: "Tracks", Offset: off, Err: ErrInvalidVint}
			}
			if !fitsWithin(end, off, h) {
				if !open {
					// Tracks overruns its parent Segment.
					return nil, &ParseError{Element: "Tracks", Offset: off, Err: ErrNoTracks}
				}
				return nil, errTruncated
			}
			bodyStart := off + h.HeaderLen
			return parseTracks(buf, bodyStart, bodyStart+int(h.Size))
		case IDCluster:
			// Media data starts; a valid stream declares tracks first.
			return nil, ErrNoTracks
		default:
			if h.Unknown() {
				return nil, ErrNoTracks
			}
			if !fitsWithin(end, off, h) {
				if open {
					return nil, errTruncated
				}
				return nil, ErrNoTracks
			}
			off += h.HeaderLen + int(h.Size)
		}
	}
	if open {
		return nil, errTruncated
	}
	return nil, ErrNoTracks
}

func parseTracks(buf []byte, start, end int) ([]rawTrack, error) {
	var tracks []rawTrack
	err := walk(buf, start, end, func(h Header, off int, body []byte) error {
		if h.ID != IDTrackEntry {
			return nil
		}
		t, err := parseTrackEntry(buf, off+h.HeaderLen, off+h.HeaderLen+len(body))
		if err != nil {
			return err
		}
		tracks = append(tracks, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}
	return tracks, nil
}

func parseTrackEntry(buf []byte, start, end int) (rawTrack, error) {
	var t rawTrack
	err := walk(buf, start, end, func(h Header, off int, body []byte) error {
		var err error
		switch h.ID {
		case IDTrackNumber:
			t.number, err = readUint(body)
		case IDTrackType:
			t.trackType, err = readUint(body)
		case IDCodecID:
			t.codecID = readString(body)
		}
		if err != nil {
			return &ParseError{Element: ElementName(h.ID), Offset: off, Err: err}
		}
		return nil
	})
	return t, err
}

// walk calls fn for each child element fully contained in buf[start:end].
func walk(buf []byte, start, end int, fn func(h Header, off int, body []byte) error) error {
	off := start
	for off < end {
		h, err := ReadElementHeader(buf[off:end])
		if err != nil {
			return &ParseError{Element: "child", Offset: off, Err: err}
		}
		if h.Unknown() || !fitsWithin(end, off, h) {
			return &ParseError{Element: ElementName(h.ID), Offset: off, Err: ErrInvalidVint}
		}
		bodyStart := off + h.HeaderLen
		bodyEnd := bodyStart + int(h.Size)
		if err := fn(h, off, buf[bodyStart:bodyEnd]); err != nil {
			return err
		}
		off = bodyEnd
	}
	return nil
}

// fits reports whether the element at off lies entirely within buf.
func fits(buf []byte, off int, h Header) bool {
	return fitsWithin(len(buf), off, h)
}

func fitsWithin(end, off int, h Header) bool {
	avail := end - off - h.HeaderLen
	return avail >= 0 && h.Size <= uint64(avail)
}
