// Package golden builds the wire-format fixtures exercised by golden_test.go
// and by the standalone tests/golden/gen fixture dumper. Vector bytes are
// assembled from the same EncodeHeader/secs2.Encode helpers the decoder's
// own unit tests use, not hand-written hex, so a vector is exactly as
// trustworthy as those helpers: deterministic, no randomness, reproducible
// byte-for-byte on every run.
package golden

import (
	"encoding/binary"
	"fmt"

	"github.com/hsms-go/hsms/internal/hsms"
	"github.com/hsms-go/hsms/internal/secs2"
)

// Vector is one golden scenario: the full wire bytes of a single HSMS
// message (length prefix + header + body) and the decoded shape a correct
// decoder must produce from them.
type Vector struct {
	Name      string
	Wire      []byte
	Header    hsms.Header
	HasRoot   bool
	Root      secs2.Item
	IsControl bool
}

func mustEncode(it secs2.Item) []byte {
	b, err := secs2.Encode(it)
	if err != nil {
		panic(fmt.Sprintf("golden: encoding fixture item: %v", err))
	}
	return b
}

func wrapMessage(h hsms.Header, body []byte) []byte {
	out := make([]byte, 4+hsms.HeaderLen+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(hsms.HeaderLen+len(body)))
	hsms.EncodeHeader(h, out[4:4+hsms.HeaderLen])
	copy(out[4+hsms.HeaderLen:], body)
	return out
}

// BuildVectors returns the full set of golden scenarios. New scenarios
// should be added here so both golden_test.go and tests/golden/gen stay in
// sync automatically.
func BuildVectors() []Vector {
	var vectors []Vector

	linktest := hsms.Header{MessageType: hsms.MessageTypeLinktestReq, SystemBytes: 99}
	vectors = append(vectors, Vector{
		Name:      "linktest_req",
		Wire:      wrapMessage(linktest, nil),
		Header:    linktest,
		IsControl: true,
	})

	asciiHeader := hsms.Header{DeviceID: 1, S: 1, F: 13, ReplyExpected: true, SystemBytes: 1001}
	asciiRoot := secs2.NewLeaf(secs2.FormatASCII, []byte("HSMS-GATE"))
	vectors = append(vectors, Vector{
		Name:    "ascii_leaf",
		Wire:    wrapMessage(asciiHeader, mustEncode(asciiRoot)),
		Header:  asciiHeader,
		HasRoot: true,
		Root:    asciiRoot,
	})

	nestedHeader := hsms.Header{DeviceID: 2, S: 6, F: 11, SystemBytes: 2002}
	nestedRoot := secs2.NewList([]secs2.Item{
		secs2.NewLeaf(secs2.FormatUint4, []byte{0, 0, 0, 42}),
		secs2.NewList([]secs2.Item{
			secs2.NewLeaf(secs2.FormatBoolean, []byte{1}),
			secs2.NewLeaf(secs2.FormatASCII, []byte("OK")),
		}),
	})
	vectors = append(vectors, Vector{
		Name:    "nested_list",
		Wire:    wrapMessage(nestedHeader, mustEncode(nestedRoot)),
		Header:  nestedHeader,
		HasRoot: true,
		Root:    nestedRoot,
	})

	largeHeader := hsms.Header{DeviceID: 3, S: 1, F: 1, SystemBytes: 3003}
	largePayload := make([]byte, 512)
	for i := range largePayload {
		largePayload[i] = byte(i)
	}
	largeRoot := secs2.NewLeaf(secs2.FormatBinary, largePayload)
	vectors = append(vectors, Vector{
		Name:    "large_binary_leaf",
		Wire:    wrapMessage(largeHeader, mustEncode(largeRoot)),
		Header:  largeHeader,
		HasRoot: true,
		Root:    largeRoot,
	})

	emptyListHeader := hsms.Header{DeviceID: 4, S: 2, F: 0, SystemBytes: 4004}
	emptyListRoot := secs2.NewList(nil)
	vectors = append(vectors, Vector{
		Name:    "empty_list",
		Wire:    wrapMessage(emptyListHeader, mustEncode(emptyListRoot)),
		Header:  emptyListHeader,
		HasRoot: true,
		Root:    emptyListRoot,
	})

	return vectors
}
