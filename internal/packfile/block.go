package packfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// fastCompressThreshold is where binary mode trades compression ratio for
// speed: payloads at or above it use zlib.BestSpeed.
const fastCompressThreshold = 1 << 20

// encodeBinaryBlock frames p as a binary block: the payload is compressed,
// then prefixed with a one-byte length-byte count and the little-endian
// length bytes. The size policy bounds the raw payload, not the frame: a
// chunk-size payload always encodes, even when compression expands it.
//
// zlib rather than raw deflate: its adler32 trailer is what makes
// decompression failure the binary-mode integrity check.
func encodeBinaryBlock(p []byte, chunkSize int64) ([]byte, error) {
	if int64(len(p)) > chunkSize {
		return nil, fmt.Errorf("%w: payload is %d bytes, chunk size is %d", ErrBlockTooLarge, len(p), chunkSize)
	}

	level := zlib.BestCompression
	if len(p) >= fastCompressThreshold {
		level = zlib.BestSpeed
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	if _, err := zw.Write(p); err != nil {
		return nil, fmt.Errorf("compress block: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress block: %w", err)
	}

	lengthBytes, err := appendLength(nil, uint64(buf.Len()))
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 0, 1+len(lengthBytes)+buf.Len())
	frame = append(frame, byte(len(lengthBytes)))
	frame = append(frame, lengthBytes...)
	frame = append(frame, buf.Bytes()...)
	return frame, nil
}

// readBinaryFrame reads the length-byte count and length bytes of the next
// binary block and returns the compressed payload length. Clean EOF before
// the count byte surfaces as io.EOF: the pack simply has no more blocks.
func readBinaryFrame(r io.Reader) (int64, error) {
	var count [1]byte
	if _, err := io.ReadFull(r, count[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("read block frame: %w", err)
	}
	n := int(count[0])
	if n == 0 || n > maxLengthBytes {
		return 0, fmt.Errorf("%w: length byte count %d", ErrCorruptBlock, n)
	}

	lengthBytes := make([]byte, n)
	if _, err := io.ReadFull(r, lengthBytes); err != nil {
		return 0, fmt.Errorf("%w: reading block length: %v", ErrUnexpectedEOF, err)
	}
	return int64(decodeLength(lengthBytes)), nil
}

// readBinaryBlock reads and decompresses one binary block. Decompression
// failure is the binary-mode integrity check and reports ErrCorruptBlock.
func readBinaryBlock(r io.Reader) ([]byte, error) {
	length, err := readBinaryFrame(r)
	if err != nil {
		return nil, err
	}

	var payload bytes.Buffer
	if _, err := io.CopyN(&payload, r, length); err != nil {
		return nil, fmt.Errorf("%w: reading block payload: %v", ErrUnexpectedEOF, err)
	}

	zr, err := zlib.NewReader(&payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrCorruptBlock, err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrCorruptBlock, err)
	}
	if err := zr.Close(); err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrCorruptBlock, err)
	}
	return raw, nil
}

// skipBinaryBlock advances past one binary block without decompressing it.
func skipBinaryBlock(r io.Reader) error {
	length, err := readBinaryFrame(r)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(io.Discard, r, length); err != nil {
		return fmt.Errorf("%w: skipping block payload: %v", ErrUnexpectedEOF, err)
	}
	return nil
}
