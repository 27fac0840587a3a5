// Package secs2 implements the SECS-II item data model: the tagged tree of
// typed values (lists and leaves) carried in the body of an HSMS message.
//
// This package owns the wire representation of a single item's format byte
// and the per-format element sizes; the streaming assembly of items into a
// tree (across however many reads a message spans) lives in package hsms,
// which is the only consumer that needs to reason about partial delivery.
package secs2

import "fmt"

// Format identifies a SECS-II item's type tag (the top 6 bits of the format
// byte). The numeric values are the canonical SECS-II format codes.
type Format uint8

const (
	FormatList    Format = 0x00
	FormatBinary  Format = 0x20
	FormatBoolean Format = 0x24
	FormatASCII   Format = 0x40
	FormatJIS8    Format = 0x44
	FormatInt8    Format = 0x60
	FormatInt1    Format = 0x64
	FormatInt2    Format = 0x68
	FormatInt4    Format = 0x70
	FormatFloat8  Format = 0x80
	FormatFloat4  Format = 0x90
	FormatUint8   Format = 0xA0
	FormatUint1   Format = 0xA4
	FormatUint2   Format = 0xA8
	FormatUint4   Format = 0xB0
)

func (f Format) String() string {
	switch f {
	case FormatList:
		return "List"
	case FormatBinary:
		return "Binary"
	case FormatBoolean:
		return "Boolean"
	case FormatASCII:
		return "ASCII"
	case FormatJIS8:
		return "JIS-8"
	case FormatInt8:
		return "Int8"
	case FormatInt1:
		return "Int1"
	case FormatInt2:
		return "Int2"
	case FormatInt4:
		return "Int4"
	case FormatFloat8:
		return "Float8"
	case FormatFloat4:
		return "Float4"
	case FormatUint8:
		return "Uint8"
	case FormatUint1:
		return "Uint1"
	case FormatUint2:
		return "Uint2"
	case FormatUint4:
		return "Uint4"
	default:
		return fmt.Sprintf("Format(0x%02x)", uint8(f))
	}
}

// ElementSize returns the number of bytes occupied by a single element of
// this format, or 0 for formats whose payload is not element-sized (List,
// Binary, ASCII, JIS-8 — all of which are single contiguous byte runs).
func (f Format) ElementSize() int {
	switch f {
	case FormatBoolean, FormatInt1, FormatUint1:
		return 1
	case FormatInt2, FormatUint2:
		return 2
	case FormatInt4, FormatUint4, FormatFloat4:
		return 4
	case FormatInt8, FormatUint8, FormatFloat8:
		return 8
	default:
		return 0
	}
}

// Known reports whether f is one of the canonical format codes above.
func Known(f Format) bool {
	switch f {
	case FormatList, FormatBinary, FormatBoolean, FormatASCII, FormatJIS8,
		FormatInt8, FormatInt1, FormatInt2, FormatInt4,
		FormatFloat8, FormatFloat4, FormatUint8, FormatUint1, FormatUint2, FormatUint4:
		return true
	default:
		return false
	}
}

// SplitFormatByte decomposes a wire format byte into its format code (top 6
// bits) and length_bits (low 2 bits, one of 1, 2, or 3; 0 is invalid per the
// wire spec and is returned as-is for the caller to reject).
func SplitFormatByte(b byte) (format Format, lengthBits uint8) {
	return Format(b &^ 0x03), b & 0x03
}

// FormatByte recomposes a wire format byte from a format code and a
// length_bits value in {1,2,3}.
func FormatByte(format Format, lengthBits uint8) byte {
	return byte(format) | (lengthBits & 0x03)
}

// MaxItemLength is the largest payload length a length_bits of 3 can encode
// (2^24-1 bytes), the ceiling named in §3 of the data model.
const MaxItemLength = 1<<24 - 1
