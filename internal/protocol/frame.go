package protocol

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the length-prefix size in bytes.
const HeaderSize = 4

// MaxFrameSize bounds a single frame payload. Frames beyond this are
// treated as a protocol violation and the connection is torn down.
const MaxFrameSize = 64 << 10

// ErrFrameTooLarge is returned when a frame header declares a payload
// larger than MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// AppendFrame appends a uint32 big-endian length prefix plus the payload.
func AppendFrame(dst, payload []byte) []byte {
	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	dst = append(dst, header[:]...)
	return append(dst, payload...)
}

// FrameReader is a stateful parser for length-prefixed frames. Bytes are
// fed in as they arrive; Next yields complete payloads. A partially read
// header or body is carried across feeds via the off/size cursors.
type FrameReader struct {
	in   []byte
	off  uint32
	size uint32
}

// Feed appends newly received bytes.
func (r *FrameReader) Feed(p []byte) {
	r.in = append(r.in, p...)
}

// Next returns the next complete frame payload, or ok=false when the
// buffer does not yet hold one. The returned slice is owned by the caller.
func (r *FrameReader) Next() (payload []byte, ok bool, err error) {
	if r.size == 0 {
		if len(r.in) < HeaderSize {
			return nil, false, nil
		}
		length := binary.BigEndian.Uint32(r.in)
		if length > MaxFrameSize {
			return nil, false, ErrFrameTooLarge
		}
		r.size = length
		r.off = HeaderSize
	}
	if uint32(len(r.in)) < r.off+r.size {
		return nil, false, nil
	}
	payload = make([]byte, r.size)
	copy(payload, r.in[r.off:r.off+r.size])
	r.in = r.in[r.off+r.size:]
	r.off = 0
	r.size = 0
	return payload, true, nil
}
