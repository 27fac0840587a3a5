package secs2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAndFormatByteRoundTrip(t *testing.T) {
	cases := []struct {
		format     Format
		lengthBits uint8
	}{
		{FormatList, 1},
		{FormatASCII, 3},
		{FormatUint4, 2},
	}
	for _, c := range cases {
		b := FormatByte(c.format, c.lengthBits)
		gotFormat, gotBits := SplitFormatByte(b)
		assert.Equal(t, c.format, gotFormat)
		assert.Equal(t, c.lengthBits, gotBits)
	}
}

func TestKnownRejectsUnassignedCodes(t *testing.T) {
	assert.True(t, Known(FormatBinary))
	assert.False(t, Known(Format(0x10)))
}

func TestItemEqualDeep(t *testing.T) {
	a := NewList([]Item{
		NewLeaf(FormatUint1, []byte{1}),
		NewList([]Item{NewLeaf(FormatASCII, []byte("hi"))}),
	})
	b := NewList([]Item{
		NewLeaf(FormatUint1, []byte{1}),
		NewList([]Item{NewLeaf(FormatASCII, []byte("hi"))}),
	})
	assert.True(t, a.Equal(b))

	c := NewList([]Item{
		NewLeaf(FormatUint1, []byte{2}),
		NewList([]Item{NewLeaf(FormatASCII, []byte("hi"))}),
	})
	assert.False(t, a.Equal(c))
}

func TestLenForListsAndLeaves(t *testing.T) {
	list := NewList([]Item{NewLeaf(FormatUint1, []byte{1}), NewLeaf(FormatUint1, []byte{2})})
	assert.Equal(t, 2, list.Len())

	ints := NewLeaf(FormatUint4, []byte{0, 0, 0, 1, 0, 0, 0, 2})
	assert.Equal(t, 2, ints.Len())

	ascii := NewLeaf(FormatASCII, []byte("hello"))
	assert.Equal(t, 5, ascii.Len())
}

func TestAccessorsTypeMismatchReturnsFalse(t *testing.T) {
	item := NewLeaf(FormatASCII, []byte("hi"))
	_, ok := item.AsUint8Slice()
	assert.False(t, ok)

	s, ok := item.AsASCII()
	require.True(t, ok)
	assert.Equal(t, "hi", s)
}

func TestAccessorsDecodeNumericSlices(t *testing.T) {
	ints := NewLeaf(FormatInt2, []byte{0xFF, 0xFF, 0x00, 0x7B})
	vals, ok := ints.AsInt8Slice()
	require.True(t, ok)
	assert.Equal(t, []int64{-1, 123}, vals)

	uints := NewLeaf(FormatUint1, []byte{0x00, 0xFF})
	uvals, ok := uints.AsUint8Slice()
	require.True(t, ok)
	assert.Equal(t, []uint64{0, 255}, uvals)

	bools := NewLeaf(FormatBoolean, []byte{0x00, 0x01, 0x02})
	bvals, ok := bools.AsBooleanSlice()
	require.True(t, ok)
	assert.Equal(t, []bool{false, true, true}, bvals)
}

func TestFloat4AccessorDecodesBigEndianBits(t *testing.T) {
	bits := uint32(0x40600000) // 3.5f, big-endian
	raw := []byte{byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits)}
	item := NewLeaf(FormatFloat4, raw)
	vals, ok := item.AsFloat64Slice()
	require.True(t, ok)
	assert.Equal(t, []float64{3.5}, vals)
}

func TestEncodeListPicksSmallestLengthBits(t *testing.T) {
	item := NewList([]Item{NewLeaf(FormatUint1, []byte{9})})
	raw, err := Encode(item)
	require.NoError(t, err)
	gotFormat, gotBits := SplitFormatByte(raw[0])
	assert.Equal(t, FormatList, gotFormat)
	assert.Equal(t, uint8(1), gotBits)
	assert.Equal(t, byte(1), raw[1])
}
