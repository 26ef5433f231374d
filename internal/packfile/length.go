package packfile

import "fmt"

// maxLengthBytes caps the variable-length size encoding. Seven bytes bound
// an encoded block at 2^56-1 bytes; in practice the chunk size bounds it
// far lower.
const maxLengthBytes = 7

// appendLength appends the minimal little-endian encoding of n to dst:
// one byte per 8 bits, stopping once the remaining value is zero. Zero
// encodes to no bytes at all, so callers record the byte count separately.
func appendLength(dst []byte, n uint64) ([]byte, error) {
	start := len(dst)
	for n > 0 {
		dst = append(dst, byte(n))
		n >>= 8
	}
	if len(dst)-start > maxLengthBytes {
		return nil, fmt.Errorf("%w: needs %d length bytes, max %d", ErrUnsupportedSize, len(dst)-start, maxLengthBytes)
	}
	return dst, nil
}

// decodeLength accumulates little-endian length bytes. Empty input decodes
// to zero.
func decodeLength(b []byte) uint64 {
	var n uint64
	for i := len(b) - 1; i >= 0; i-- {
		n = n<<8 | uint64(b[i])
	}
	return n
}
