package hsms

import (
	"fmt"
	"sync"

	secserrs "github.com/hsms-go/hsms/internal/errors"
	"github.com/hsms-go/hsms/internal/secs2"
)

// decodeStep is the framing state machine's current position, one of the
// five steps of §4.1.
type decodeStep int

const (
	stepLength decodeStep = iota
	stepHeader
	stepItemHeader
	stepItemLen
	stepItemBody
)

// listFrame is one entry of the item construction stack (§3): an unclosed
// list ancestor of the item currently being parsed, carrying its fixed
// target arity and the children accumulated so far.
type listFrame struct {
	targetArity int
	children    []secs2.Item
}

// Decoder is the streaming HSMS/SECS-II decoder (§2, §5). It owns a
// contiguous receive buffer and all framing state; callers write new bytes
// into WritableTail() and then call Decode with the count written. Decoder
// is a single-writer object: Decode and Reset both take an exclusive lock
// and upcalls run synchronously under it (§5) — handlers must not call back
// into Decode.
type Decoder struct {
	mu sync.Mutex

	buf          []byte
	writeOffset  int
	decodeOffset int
	pendingNeed  int
	poisoned     bool

	step               decodeStep
	messageRemaining   int64
	messageTotalLength int64

	currentFormat     secs2.Format
	currentLengthBits uint8
	currentItemLength int
	currentHeader     Header

	stack []listFrame

	onControl ControlMessageHandler
	onData    DataMessageHandler

	pool bufPool
}

// bufPool is the subset of *bufpool.Pool the decoder depends on, narrowed
// so tests can substitute a trivial allocator.
type bufPool interface {
	Get(size int) []byte
	Put(buf []byte)
}

// NewDecoder constructs a Decoder with the given initial receive-buffer
// capacity and upcall handlers (§6). Either handler may be nil if the caller
// never expects that message class.
func NewDecoder(initialBufferSize int, onControl ControlMessageHandler, onData DataMessageHandler) *Decoder {
	if initialBufferSize < minBufferSize {
		initialBufferSize = minBufferSize
	}
	return &Decoder{
		buf:       defaultPool.Get(initialBufferSize),
		pool:      defaultPool,
		step:      stepLength,
		onControl: onControl,
		onData:    onData,
	}
}

// WritableTail returns the slice of the receive buffer the caller may write
// new bytes into (§6).
func (d *Decoder) WritableTail() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writableTail()
}

// WritableTailLen returns the remaining tail capacity (§6).
func (d *Decoder) WritableTailLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writableTailLen()
}

// BufferCapacity returns the current size of the receive buffer's backing
// array. Exposed for callers that want to observe growth externally (e.g.
// gate-side metrics) without the decoder taking a dependency of its own on
// a metrics package.
func (d *Decoder) BufferCapacity() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buf)
}

// Decode advances the state machine over n newly-appended bytes (§4.1). The
// caller must have already written exactly n bytes into the tail returned
// by WritableTail. It returns in_message = true iff the decoder has
// consumed a length prefix and is mid-message.
func (d *Decoder) Decode(n int) (inMessage bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n <= 0 {
		return false, secserrs.NewInvalidArgumentError("decode", fmt.Errorf("n must be > 0, got %d", n))
	}
	if d.poisoned {
		return false, secserrs.NewProtocolError("decode", fmt.Errorf("decoder state invalidated by a prior error; reset required"))
	}
	if n > d.writableTailLen() {
		return false, secserrs.NewInvalidArgumentError("decode", fmt.Errorf("n=%d exceeds writable tail length %d", n, d.writableTailLen()))
	}

	d.writeOffset += n

	if err := d.run(); err != nil {
		d.poisoned = true
		return false, err
	}
	d.manageBuffer(d.pendingNeed)
	return d.step != stepLength, nil
}

// Reset abandons any partially-parsed message and returns the decoder to its
// initial framing state. Buffer capacity is retained (§3 Lifecycle).
func (d *Decoder) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stack = d.stack[:0]
	d.writeOffset = 0
	d.decodeOffset = 0
	d.pendingNeed = 0
	d.poisoned = false
	d.step = stepLength
	d.messageRemaining = 0
	d.messageTotalLength = 0
	d.currentHeader = Header{}
	d.currentFormat = 0
	d.currentLengthBits = 0
	d.currentItemLength = 0
}

// available returns the number of unconsumed bytes currently buffered.
func (d *Decoder) available() int {
	return d.writeOffset - d.decodeOffset
}

// run drives the step pipeline, chaining synchronously through as many
// steps as the buffered bytes allow, and records the shortfall of the step
// it finally stalls on.
func (d *Decoder) run() error {
	for {
		progressed, need, err := d.advance()
		if err != nil {
			return err
		}
		if !progressed {
			d.pendingNeed = need
			return nil
		}
	}
}

// advance attempts to complete the current step. It returns progressed=true
// if the step consumed bytes (or dispatched a message) and the pipeline
// should continue; progressed=false with need>0 if the step stalled for
// lack of bytes; or a non-nil error for a fatal framing/semantic anomaly.
func (d *Decoder) advance() (progressed bool, need int, err error) {
	switch d.step {
	case stepLength:
		return d.stepDoLength()
	case stepHeader:
		return d.stepDoHeader()
	case stepItemHeader:
		return d.stepDoItemHeader()
	case stepItemLen:
		return d.stepDoItemLen()
	case stepItemBody:
		return d.stepDoItemBody()
	default:
		return false, 0, secserrs.NewProtocolError("decode.step", fmt.Errorf("unknown step %d", d.step))
	}
}

func (d *Decoder) stepDoLength() (bool, int, error) {
	const want = 4
	if d.available() < want {
		return false, want - d.available(), nil
	}
	l := foldBigEndian(d.buf[d.decodeOffset : d.decodeOffset+want])
	d.decodeOffset += want
	d.messageRemaining = int64(l)
	d.messageTotalLength = int64(l)
	d.step = stepHeader
	return true, 0, nil
}

func (d *Decoder) stepDoHeader() (bool, int, error) {
	const want = HeaderLen
	if d.available() < want {
		return false, want - d.available(), nil
	}
	h := DecodeHeader(d.buf[d.decodeOffset : d.decodeOffset+want])
	d.decodeOffset += want
	d.messageRemaining -= want
	if d.messageRemaining < 0 {
		return false, 0, secserrs.NewProtocolError("decode.header", fmt.Errorf("total length %d shorter than header", d.messageTotalLength))
	}
	d.currentHeader = h

	if d.messageRemaining == 0 {
		d.dispatchEmptyBody(h)
		d.step = stepLength
		return true, 0, nil
	}
	if !h.MessageType.IsData() {
		return false, 0, secserrs.NewProtocolError("decode.header",
			fmt.Errorf("control message type %s declared a non-empty body (%d bytes)", h.MessageType, d.messageRemaining))
	}

	if handled, err := d.tryFastPath(); err != nil {
		return false, 0, err
	} else if handled {
		return true, 0, nil
	}

	d.step = stepItemHeader
	return true, 0, nil
}

func (d *Decoder) dispatchEmptyBody(h Header) {
	if h.MessageType.IsData() {
		if d.onData != nil {
			d.onData(h, Message{S: h.S, F: h.F, ReplyExpected: h.ReplyExpected})
		}
		return
	}
	if d.onControl != nil {
		d.onControl(h)
	}
}

func (d *Decoder) stepDoItemHeader() (bool, int, error) {
	const want = 1
	if d.available() < want {
		return false, want - d.available(), nil
	}
	b := d.buf[d.decodeOffset]
	d.decodeOffset += want
	d.messageRemaining -= want
	if d.messageRemaining < 0 {
		return false, 0, secserrs.NewProtocolError("decode.item_header", fmt.Errorf("item header overran message body"))
	}

	format, lengthBits := secs2.SplitFormatByte(b)
	if lengthBits == 0 {
		return false, 0, secserrs.NewProtocolError("decode.item_header", fmt.Errorf("length_bits == 0 for format 0x%02x", byte(format)))
	}
	if !secs2.Known(format) {
		return false, 0, secserrs.NewProtocolError("decode.item_header", fmt.Errorf("unknown format code 0x%02x", byte(format)))
	}
	d.currentFormat = format
	d.currentLengthBits = lengthBits
	d.step = stepItemLen
	return true, 0, nil
}

func (d *Decoder) stepDoItemLen() (bool, int, error) {
	want := int(d.currentLengthBits)
	if d.available() < want {
		return false, want - d.available(), nil
	}
	length := foldBigEndian(d.buf[d.decodeOffset : d.decodeOffset+want])
	d.decodeOffset += want
	d.messageRemaining -= int64(want)
	if d.messageRemaining < 0 {
		return false, 0, secserrs.NewProtocolError("decode.item_len", fmt.Errorf("item length field overran message body"))
	}
	if length > secs2.MaxItemLength {
		return false, 0, secserrs.NewProtocolError("decode.item_len", fmt.Errorf("item length %d exceeds %d", length, secs2.MaxItemLength))
	}
	// A list's length is a child count, not a byte count, so only leaf
	// payload lengths are bounds-checked against the remaining body here; an
	// over-claimed list arity instead surfaces once the body is used up: as a
	// stall while no further bytes arrive, and as stepDoItemHeader's "item
	// header overran message body" error when the next byte does (§7).
	if d.currentFormat != secs2.FormatList && int64(length) > d.messageRemaining {
		return false, 0, secserrs.NewProtocolError("decode.item_len",
			fmt.Errorf("leaf payload length %d exceeds remaining message body %d", length, d.messageRemaining))
	}
	if elemSize := d.currentFormat.ElementSize(); elemSize != 0 && length%elemSize != 0 {
		return false, 0, secserrs.NewProtocolError("decode.item_len",
			fmt.Errorf("format %s: payload length %d not a multiple of element size %d", d.currentFormat, length, elemSize))
	}
	d.currentItemLength = length
	d.step = stepItemBody
	return true, 0, nil
}

func (d *Decoder) stepDoItemBody() (bool, int, error) {
	if d.currentFormat == secs2.FormatList {
		if d.currentItemLength > 0 {
			d.stack = append(d.stack, listFrame{targetArity: d.currentItemLength, children: make([]secs2.Item, 0, d.currentItemLength)})
			d.step = stepItemHeader
			return true, 0, nil
		}
		return d.completeItem(secs2.NewList(nil))
	}

	want := d.currentItemLength
	if d.available() < want {
		return false, want - d.available(), nil
	}
	raw := make([]byte, want)
	copy(raw, d.buf[d.decodeOffset:d.decodeOffset+want])
	d.decodeOffset += want
	d.messageRemaining -= int64(want)
	if d.messageRemaining < 0 {
		return false, 0, secserrs.NewProtocolError("decode.item_body", fmt.Errorf("leaf payload overran message body"))
	}
	return d.completeItem(secs2.NewLeaf(d.currentFormat, raw))
}

// completeItem implements the completion handling of §4.1: attach the item
// to its parent list frame (popping and wrapping any frames whose arity is
// now satisfied), or dispatch it as the message root.
func (d *Decoder) completeItem(item secs2.Item) (bool, int, error) {
	for {
		if len(d.stack) == 0 {
			h := d.currentHeader
			if d.onData != nil {
				d.onData(h, Message{S: h.S, F: h.F, ReplyExpected: h.ReplyExpected, Root: item, HasRoot: true})
			}
			d.step = stepLength
			return true, 0, nil
		}

		top := &d.stack[len(d.stack)-1]
		top.children = append(top.children, item)
		if len(top.children) < top.targetArity {
			d.step = stepItemHeader
			return true, 0, nil
		}

		item = secs2.NewList(top.children)
		d.stack = d.stack[:len(d.stack)-1]
		// loop: either append `item` to the next frame up, or dispatch it as root
	}
}

// foldBigEndian decodes a big-endian unsigned integer of 1-4 bytes by
// explicit byte folding. This is deliberately not a native-endian trick: the
// wire bytes are always big-endian regardless of host byte order (§9).
func foldBigEndian(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}
