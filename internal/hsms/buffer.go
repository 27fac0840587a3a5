package hsms

import "github.com/hsms-go/hsms/internal/bufpool"

// writableTail returns the slice of the receive buffer the caller may write
// new bytes into: [write_offset, capacity) (§6).
func (d *Decoder) writableTail() []byte {
	return d.buf[d.writeOffset:]
}

// writableTailLen returns len(writableTail()) without allocating a slice.
func (d *Decoder) writableTailLen() int {
	return len(d.buf) - d.writeOffset
}

// manageBuffer applies the grow/compact policy of §4.2 after a decode() call
// has run the state machine to a stall (or to message completion with no
// bytes left). need is the shortfall the stalled step reported (0 if the
// decoder drained to a message boundary with nothing left to attempt).
func (d *Decoder) manageBuffer(need int) {
	remain := d.writeOffset - d.decodeOffset

	if remain == 0 {
		if need > len(d.buf) {
			d.reallocate(need << 1)
		}
		d.writeOffset = 0
		d.decodeOffset = 0
		return
	}

	required := remain + need
	if required > len(d.buf) {
		target := int64(d.messageTotalLength) / 2
		if int64(required) > target {
			target = int64(required)
		}
		d.reallocate(int(target) << 1)
		d.compactInPlace(remain)
		return
	}
	if required > len(d.buf)-d.writeOffset {
		d.compactInPlace(remain)
	}
}

// reallocate replaces the backing array with one of at least newCap bytes,
// copying the unconsumed suffix [decode_offset, write_offset) to offset 0 of
// the new buffer and resetting the cursors accordingly, then returns the old
// array to the pool.
func (d *Decoder) reallocate(newCap int) {
	if newCap < minBufferSize {
		newCap = minBufferSize
	}
	old := d.buf
	d.buf = d.pool.Get(newCap)
	if old != nil {
		d.writeOffset = copy(d.buf, old[d.decodeOffset:d.writeOffset])
		d.decodeOffset = 0
		d.pool.Put(old)
	}
}

// compactInPlace moves the remain unconsumed bytes to offset 0 of d.buf
// (which may be the just-reallocated buffer) and resets the cursors.
func (d *Decoder) compactInPlace(remain int) {
	copy(d.buf[0:remain], d.buf[d.decodeOffset:d.decodeOffset+remain])
	d.writeOffset = remain
	d.decodeOffset = 0
}

// minBufferSize is the smallest backing array the decoder will allocate,
// avoiding pathological thrash on tiny initial_buffer_size values.
const minBufferSize = 16

var defaultPool = bufpool.New()
