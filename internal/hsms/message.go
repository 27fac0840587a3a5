package hsms

import "github.com/hsms-go/hsms/internal/secs2"

// Message is a fully-reconstructed SECS-II data message: (s, f,
// reply_expected, root item | empty) as named in §3. A message whose body
// was zero-length after the header has no root item (HasRoot == false).
type Message struct {
	S             uint8
	F             uint8
	ReplyExpected bool
	Root          secs2.Item
	HasRoot       bool
}

// DataMessageHandler is invoked once per complete data message (§6).
type DataMessageHandler func(header Header, msg Message)

// ControlMessageHandler is invoked once per complete control message (§6).
// Control messages never carry a body.
type ControlMessageHandler func(header Header)
