package hsms

import (
	"fmt"

	secserrs "github.com/hsms-go/hsms/internal/errors"
	"github.com/hsms-go/hsms/internal/secs2"
)

// tryFastPath implements §4.3: when the entire message body is already
// buffered, parse it with a recursive in-buffer walk instead of driving the
// stack machine one item-header at a time. It is invoked only at the start
// of a message body (stack empty, about to read the root item's header) and
// only when available() >= message_remaining, so it never itself stalls —
// any malformed input here is necessarily a protocol error, not a stall.
// The two paths share the same format-byte and length-byte decoding and are
// required to produce identical trees for the same bytes.
func (d *Decoder) tryFastPath() (handled bool, err error) {
	if d.available() < int(d.messageRemaining) {
		return false, nil
	}

	bodyEnd := d.decodeOffset + int(d.messageRemaining)
	item, next, err := parseItemRecursive(d.buf, d.decodeOffset, bodyEnd)
	if err != nil {
		return false, err
	}
	if next != bodyEnd {
		return false, secserrs.NewProtocolError("decode.fastpath",
			fmt.Errorf("item tree consumed %d bytes, message body declared %d", next-d.decodeOffset, d.messageRemaining))
	}

	d.decodeOffset = next
	d.messageRemaining = 0

	h := d.currentHeader
	if d.onData != nil {
		d.onData(h, Message{S: h.S, F: h.F, ReplyExpected: h.ReplyExpected, Root: item, HasRoot: true})
	}
	d.step = stepLength
	return true, nil
}

// parseItemRecursive decodes exactly one item starting at offset, never
// reading at or past limit, mirroring the ItemHeader/ItemLen/ItemBody steps
// of the stack machine but via direct recursion on List children.
func parseItemRecursive(buf []byte, offset, limit int) (item secs2.Item, next int, err error) {
	if offset >= limit {
		return secs2.Item{}, offset, secserrs.NewProtocolError("decode.fastpath", fmt.Errorf("item header overran message body"))
	}

	format, lengthBits := secs2.SplitFormatByte(buf[offset])
	offset++
	if lengthBits == 0 {
		return secs2.Item{}, offset, secserrs.NewProtocolError("decode.fastpath", fmt.Errorf("length_bits == 0 for format 0x%02x", byte(format)))
	}
	if !secs2.Known(format) {
		return secs2.Item{}, offset, secserrs.NewProtocolError("decode.fastpath", fmt.Errorf("unknown format code 0x%02x", byte(format)))
	}

	if offset+int(lengthBits) > limit {
		return secs2.Item{}, offset, secserrs.NewProtocolError("decode.fastpath", fmt.Errorf("item length field overran message body"))
	}
	length := foldBigEndian(buf[offset : offset+int(lengthBits)])
	offset += int(lengthBits)
	if length > secs2.MaxItemLength {
		return secs2.Item{}, offset, secserrs.NewProtocolError("decode.fastpath", fmt.Errorf("item length %d exceeds %d", length, secs2.MaxItemLength))
	}

	if format == secs2.FormatList {
		children := make([]secs2.Item, 0, length)
		for i := 0; i < length; i++ {
			var child secs2.Item
			child, offset, err = parseItemRecursive(buf, offset, limit)
			if err != nil {
				return secs2.Item{}, offset, err
			}
			children = append(children, child)
		}
		return secs2.NewList(children), offset, nil
	}

	if offset+length > limit {
		return secs2.Item{}, offset, secserrs.NewProtocolError("decode.fastpath", fmt.Errorf("leaf payload length %d exceeds remaining message body", length))
	}
	if elemSize := format.ElementSize(); elemSize != 0 && length%elemSize != 0 {
		return secs2.Item{}, offset, secserrs.NewProtocolError("decode.fastpath",
			fmt.Errorf("format %s: payload length %d not a multiple of element size %d", format, length, elemSize))
	}
	raw := make([]byte, length)
	copy(raw, buf[offset:offset+length])
	offset += length
	return secs2.NewLeaf(format, raw), offset, nil
}
