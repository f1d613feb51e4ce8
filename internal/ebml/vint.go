package ebml

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// UnknownSize is the decoded value of an all-ones size field, used by live
// muxers for Segment and Cluster elements whose length is not known yet.
const UnknownSize = ^uint64(0)

const (
	maxIDLength   = 4
	maxSizeLength = 8
)

// Errors returned by the low-level readers.
var (
	// ErrShortBuffer means the element header continues past the end of
	// the buffer.
	ErrShortBuffer = errors.New("ebml: short buffer")

	// ErrInvalidVint means the leading byte of a variable-length integer
	// does not encode a length the format allows.
	ErrInvalidVint = errors.New("ebml: invalid variable-length integer")
)

// Header is a decoded element header.
type Header struct {
	ID        uint32
	Size      uint64
	HeaderLen int
}

// Unknown reports whether the element has an unknown size.
func (h Header) Unknown() bool {
	return h.Size == UnknownSize
}

func vintLength(first byte) int {
	if first == 0 {
		return 0
	}
	return bits.LeadingZeros8(first) + 1
}

// ReadID decodes an element ID at the start of b. The marker bits are kept,
// matching how IDs are conventionally written.
func ReadID(b []byte) (uint32, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrShortBuffer
	}
	n := vintLength(b[0])
	if n == 0 || n > maxIDLength {
		return 0, 0, ErrInvalidVint
	}
	if len(b) < n {
		return 0, 0, ErrShortBuffer
	}
	var id uint32
	for i := 0; i < n; i++ {
		id = id<<8 | uint32(b[i])
	}
	return id, n, nil
}

// ReadSize decodes an element data size at the start of b. An all-ones
// value decodes to UnknownSize.
func ReadSize(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrShortBuffer
	}
	n := vintLength(b[0])
	if n == 0 || n > maxSizeLength {
		return 0, 0, ErrInvalidVint
	}
	if len(b) < n {
		return 0, 0, ErrShortBuffer
	}
	v := uint64(b[0] & (0xFF >> n))
	for i := 1; i < n; i++ {
		v = v<<8 | uint64(b[i])
	}
	if v == uint64(1)<<(7*n)-1 {
		return UnknownSize, n, nil
	}
	return v, n, nil
}

// ReadElementHeader decodes the ID and size at the start of b.
func ReadElementHeader(b []byte) (Header, error) {
	id, idLen, err := ReadID(b)
	if err != nil {
		return Header{}, err
	}
	size, sizeLen, err := ReadSize(b[idLen:])
	if err != nil {
		return Header{}, err
	}
	return Header{ID: id, Size: size, HeaderLen: idLen + sizeLen}, nil
}

// readUint decodes a big-endian unsigned integer element body.
func readUint(b []byte) (uint64, error) {
	if len(b) > 8 {
		return 0, fmt.Errorf("ebml: unsigned integer of %d bytes", len(b))
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// readString decodes a string element body, dropping NUL padding.
func readString(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}

func fmtHexID(id uint32) string {
	return fmt.Sprintf("0x%X", id)
}
