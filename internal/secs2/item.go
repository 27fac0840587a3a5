package secs2

import "fmt"

// Item is a single node of a SECS-II data tree: either a List carrying an
// ordered sequence of child Items, or a leaf carrying a typed payload whose
// byte length is a multiple of Format.ElementSize() (for Binary, ASCII and
// JIS-8, whose ElementSize is 0, the payload is just the raw byte run).
//
// The zero Item is an empty List, which is also the representation used for
// an item-less message body (see Message.Root in package hsms).
type Item struct {
	Format Format

	// List holds this item's children when Format == FormatList.
	List []Item

	// Raw holds the leaf payload exactly as it appeared on the wire
	// (big-endian multi-byte elements, untouched). Nil for FormatList.
	Raw []byte
}

// NewList constructs a List item from already-built children. The slice is
// retained, not copied.
func NewList(children []Item) Item {
	return Item{Format: FormatList, List: children}
}

// NewLeaf constructs a leaf item from a format code and raw wire bytes. It
// does not itself validate that len(raw) is a multiple of the format's
// element size; both decode paths in package hsms check that alignment
// against the wire length field before calling NewLeaf, so they can report
// a precise protocol error tied to the offending length field rather than a
// generic accessor failure.
func NewLeaf(format Format, raw []byte) Item {
	return Item{Format: format, Raw: raw}
}

// IsList reports whether this item is a List (including the empty list).
func (it Item) IsList() bool { return it.Format == FormatList }

// Len returns the number of children for a list, or the number of elements
// for a leaf (len(Raw) for Binary/ASCII/JIS-8, or len(Raw)/ElementSize()
// otherwise).
func (it Item) Len() int {
	if it.IsList() {
		return len(it.List)
	}
	size := it.Format.ElementSize()
	if size == 0 {
		return len(it.Raw)
	}
	return len(it.Raw) / size
}

// Equal reports deep structural equality: same format, same children
// (recursively) or byte-for-byte equal raw payload.
func (it Item) Equal(other Item) bool {
	if it.Format != other.Format {
		return false
	}
	if it.IsList() {
		if len(it.List) != len(other.List) {
			return false
		}
		for i := range it.List {
			if !it.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	}
	if len(it.Raw) != len(other.Raw) {
		return false
	}
	for i := range it.Raw {
		if it.Raw[i] != other.Raw[i] {
			return false
		}
	}
	return true
}

func (it Item) String() string {
	if it.IsList() {
		return fmt.Sprintf("L[%d]", len(it.List))
	}
	return fmt.Sprintf("%s[%d]", it.Format, it.Len())
}
