// Package hsms implements the streaming HSMS/SECS-II wire decoder: the
// framing state machine, receive-buffer management, and item-tree assembly
// described by the decoder specification. It consumes bytes handed to it by
// a transport and invokes upcall handlers; it performs no I/O itself.
package hsms

import "encoding/binary"

// HeaderLen is the fixed size of an HSMS message header in bytes.
const HeaderLen = 10

// MessageType enumerates the byte-5 message type field, distinguishing data
// messages from the HSMS control messages used for session management.
type MessageType uint8

const (
	MessageTypeData        MessageType = 0x00
	MessageTypeSelectReq   MessageType = 0x01
	MessageTypeSelectRsp   MessageType = 0x02
	MessageTypeDeselectReq MessageType = 0x03
	MessageTypeDeselectRsp MessageType = 0x04
	MessageTypeLinktestReq MessageType = 0x05
	MessageTypeLinktestRsp MessageType = 0x06
	MessageTypeRejectReq   MessageType = 0x07
	MessageTypeSeparateReq MessageType = 0x09
)

// IsData reports whether this message type carries a SECS-II item tree body.
// All other message types are control messages (§3, §6).
func (t MessageType) IsData() bool { return t == MessageTypeData }

func (t MessageType) String() string {
	switch t {
	case MessageTypeData:
		return "DataMessage"
	case MessageTypeSelectReq:
		return "Select.req"
	case MessageTypeSelectRsp:
		return "Select.rsp"
	case MessageTypeDeselectReq:
		return "Deselect.req"
	case MessageTypeDeselectRsp:
		return "Deselect.rsp"
	case MessageTypeLinktestReq:
		return "Linktest.req"
	case MessageTypeLinktestRsp:
		return "Linktest.rsp"
	case MessageTypeRejectReq:
		return "Reject.req"
	case MessageTypeSeparateReq:
		return "Separate.req"
	default:
		return "Unknown"
	}
}

// Header is the fixed 10-byte HSMS message header (§3).
type Header struct {
	DeviceID      uint16
	ReplyExpected bool
	S             uint8 // 7-bit stream code
	F             uint8
	MessageType   MessageType
	SystemBytes   int32 // correlation id
}

// EncodeHeader writes h into dst (§4.4). dst must be at least HeaderLen bytes.
func EncodeHeader(h Header, dst []byte) {
	_ = dst[HeaderLen-1] // bounds check hint
	binary.BigEndian.PutUint16(dst[0:2], h.DeviceID)
	sByte := h.S & 0x7F
	if h.ReplyExpected {
		sByte |= 0x80
	}
	dst[2] = sByte
	dst[3] = h.F
	dst[4] = 0
	dst[5] = byte(h.MessageType)
	binary.BigEndian.PutUint32(dst[6:10], uint32(h.SystemBytes))
}

// DecodeHeader is the inverse of EncodeHeader (§4.4). src must be at least
// HeaderLen bytes; bytes beyond HeaderLen are ignored.
func DecodeHeader(src []byte) Header {
	_ = src[HeaderLen-1]
	var h Header
	h.DeviceID = binary.BigEndian.Uint16(src[0:2])
	h.ReplyExpected = src[2]&0x80 != 0
	h.S = src[2] & 0x7F
	h.F = src[3]
	h.MessageType = MessageType(src[5])
	h.SystemBytes = int32(binary.BigEndian.Uint32(src[6:10]))
	return h
}
