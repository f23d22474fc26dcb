package aoab

import (
	"encoding/binary"
	"fmt"
)

// MaxFramePayload is the maximum number of payload bytes in a single frame.
// The wire length field is 16 bits.
const MaxFramePayload = 0xFFFF

// frameHeaderSize is the fixed size of the big-endian length prefix.
const frameHeaderSize = 2

// EncodeFrameHeader encodes a payload length as the 2-byte big-endian
// wire header. It returns ErrFrameTooLarge when n does not fit in the
// 16-bit length field.
func EncodeFrameHeader(n int) ([frameHeaderSize]byte, error) {
	var hdr [frameHeaderSize]byte

	if n < 0 || n > MaxFramePayload {
		return hdr, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}

	binary.BigEndian.PutUint16(hdr[:], uint16(n))

	return hdr, nil
}

// DecodeFrameHeader decodes the 2-byte big-endian wire header into the
// expected payload length.
func DecodeFrameHeader(hdr [frameHeaderSize]byte) int {
	return int(binary.BigEndian.Uint16(hdr[:]))
}
