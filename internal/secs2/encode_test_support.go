package secs2

import (
	"encoding/binary"
	"fmt"
)

// Encode renders an Item tree to its SECS-II wire bytes, choosing the
// smallest length_bits (1, 2, or 3) that fits the payload/child count.
//
// This is fixture-building tooling for tests (round-trip and fragmentation
// invariance fixtures), not a product feature: the decoder in package hsms
// is deliberately read-only from the wire, and a real encoder is a
// symmetric but separate concern per the decoder's scope. Exercised only
// by test code: _test.go files across this module and the tests/golden
// fixture builders.
func Encode(it Item) ([]byte, error) {
	if it.IsList() {
		body := make([]byte, 0, len(it.List)*4)
		for i := range it.List {
			b, err := Encode(it.List[i])
			if err != nil {
				return nil, fmt.Errorf("child %d: %w", i, err)
			}
			body = append(body, b...)
		}
		return appendHeader(FormatList, len(it.List), body), nil
	}
	if !Known(it.Format) {
		return nil, fmt.Errorf("unknown format 0x%02x", uint8(it.Format))
	}
	size := it.Format.ElementSize()
	if size != 0 && len(it.Raw)%size != 0 {
		return nil, fmt.Errorf("format %s: payload length %d not a multiple of element size %d", it.Format, len(it.Raw), size)
	}
	return appendHeader(it.Format, len(it.Raw), it.Raw), nil
}

func appendHeader(format Format, length int, payload []byte) []byte {
	lengthBits := lengthBitsFor(length)
	out := make([]byte, 0, 1+int(lengthBits)+len(payload))
	out = append(out, FormatByte(format, lengthBits))
	var lb [4]byte
	binary.BigEndian.PutUint32(lb[:], uint32(length))
	out = append(out, lb[4-int(lengthBits):]...)
	out = append(out, payload...)
	return out
}

func lengthBitsFor(length int) uint8 {
	switch {
	case length <= 0xFF:
		return 1
	case length <= 0xFFFF:
		return 2
	default:
		return 3
	}
}
