package packfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLengthRoundTrip(t *testing.T) {
	tests := []struct {
		n     uint64
		bytes int
	}{
		{1, 1},
		{0xFF, 1},
		{0x100, 2},
		{0xFFFF, 2},
		{0x10000, 3},
		{10 << 20, 3},
		{1 << 55, 7},
		{1<<56 - 1, 7},
	}
	for _, tt := range tests {
		enc, err := appendLength(nil, tt.n)
		require.NoError(t, err)
		assert.Len(t, enc, tt.bytes, "encoding of %#x", tt.n)
		assert.Equal(t, tt.n, decodeLength(enc))
	}
}

func TestLengthZeroEncodesToNothing(t *testing.T) {
	enc, err := appendLength(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, enc)
	assert.Equal(t, uint64(0), decodeLength(nil))
}

func TestLengthDropsHighZeroBytes(t *testing.T) {
	enc, err := appendLength(nil, 0x0100FF)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x00, 0x01}, enc)
}

func TestLengthUnsupportedSize(t *testing.T) {
	_, err := appendLength(nil, 1<<56)
	assert.ErrorIs(t, err, ErrUnsupportedSize)
}

func TestLengthAppendsAfterExisting(t *testing.T) {
	enc, err := appendLength([]byte{0x07}, 0x0201)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x07, 0x01, 0x02}, enc)
}
