package packfile

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

const (
	// textLineWidth is the column at which base64 payload lines wrap.
	textLineWidth = 1024

	// textDigestSize is the number of BLAKE3 bytes kept in the header
	// line; hex-encoded it is twice as many characters.
	textDigestSize = 16

	// minHeaderLine is '#', at least one hex length digit, ':', and the
	// hex digest. Anything shorter cannot be a block header.
	minHeaderLine = 1 + 1 + 1 + 2*textDigestSize

	// lineTerm is fixed to LF so packs read identically on every
	// platform; it also keeps the payload byte accounting exact.
	lineTerm = "\n"
)

var textEncoding = base64.RawStdEncoding

// textDigest is the integrity digest recorded in a text block header,
// computed over the stored payload bytes, not the raw input.
func textDigest(p []byte) string {
	sum := blake3.Sum256(p)
	return hex.EncodeToString(sum[:textDigestSize])
}

// encodeTextBlock frames p as a text block: a separator line, a
// "#<hexlen>:<digest>" header line, then the unpadded base64 payload
// wrapped at 1024 columns. hexlen counts the wrapped payload bytes exactly
// as stored, interior line terminators included. The size policy bounds
// the raw payload; base64 expansion past the chunk size is expected.
func encodeTextBlock(p []byte, chunkSize int64) ([]byte, error) {
	if int64(len(p)) > chunkSize {
		return nil, fmt.Errorf("%w: payload is %d bytes, chunk size is %d", ErrBlockTooLarge, len(p), chunkSize)
	}

	enc := make([]byte, textEncoding.EncodedLen(len(p)))
	textEncoding.Encode(enc, p)
	wrapped := wrapLines(enc, textLineWidth)

	header := "#" + strconv.FormatInt(int64(len(wrapped)), 16) + ":" + textDigest(wrapped)

	frame := make([]byte, 0, len(lineTerm)*2+len(header)+len(wrapped))
	frame = append(frame, lineTerm...)
	frame = append(frame, header...)
	frame = append(frame, lineTerm...)
	frame = append(frame, wrapped...)
	return frame, nil
}

// wrapLines inserts a line terminator after every width bytes of b. The
// last line carries no terminator; the next block's separator provides it.
func wrapLines(b []byte, width int) []byte {
	if len(b) <= width {
		return b
	}
	out := make([]byte, 0, len(b)+(len(b)/width)*len(lineTerm))
	for len(b) > width {
		out = append(out, b[:width]...)
		out = append(out, lineTerm...)
		b = b[width:]
	}
	return append(out, b...)
}

// readTextFrame reads the next block's header line and returns the stored
// payload length and recorded digest. Clean EOF before any header byte
// surfaces as io.EOF.
func readTextFrame(br *bufio.Reader) (int64, string, error) {
	line, err := readTextHeaderLine(br)
	if err != nil {
		return 0, "", err
	}
	return parseTextHeader(line)
}

// readTextHeaderLine consumes the frame's leading line-terminator artifact
// and returns the header line without its terminator.
func readTextHeaderLine(br *bufio.Reader) (string, error) {
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if line == "" {
					return "", io.EOF
				}
				return "", fmt.Errorf("%w: truncated block header", ErrUnexpectedEOF)
			}
			return "", fmt.Errorf("read block header: %w", err)
		}
		line = strings.TrimSuffix(line, lineTerm)
		if line == "" {
			// Separator between the previous payload and this header.
			continue
		}
		return line, nil
	}
}

func parseTextHeader(line string) (int64, string, error) {
	if len(line) < minHeaderLine || line[0] != '#' {
		return 0, "", fmt.Errorf("%w: malformed block header %q", ErrCorruptBlock, line)
	}
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return 0, "", fmt.Errorf("%w: malformed block header %q", ErrCorruptBlock, line)
	}
	n, err := strconv.ParseInt(line[1:colon], 16, 64)
	if err != nil || n < 0 {
		return 0, "", fmt.Errorf("%w: bad block length in header %q", ErrCorruptBlock, line)
	}
	digest := line[colon+1:]
	if len(digest) != 2*textDigestSize {
		return 0, "", fmt.Errorf("%w: bad digest in header %q", ErrCorruptBlock, line)
	}
	return n, digest, nil
}

// readTextBlock reads one text block, verifies its digest, and decodes the
// base64 payload back to the original bytes.
func readTextBlock(br *bufio.Reader) ([]byte, error) {
	length, want, err := readTextFrame(br)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, fmt.Errorf("%w: reading block payload: %v", ErrUnexpectedEOF, err)
	}

	if got := textDigest(payload); got != want {
		return nil, fmt.Errorf("%w: digest %s, header records %s", ErrChecksumMismatch, got, want)
	}

	clean := bytes.ReplaceAll(payload, []byte(lineTerm), nil)
	raw := make([]byte, textEncoding.DecodedLen(len(clean)))
	n, err := textEncoding.Decode(raw, clean)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 decode: %v", ErrCorruptBlock, err)
	}
	return raw[:n], nil
}

// skipTextBlock advances past one text block without verifying or decoding
// its payload.
func skipTextBlock(br *bufio.Reader) error {
	length, _, err := readTextFrame(br)
	if err != nil {
		return err
	}
	if _, err := br.Discard(int(length)); err != nil {
		return fmt.Errorf("%w: skipping block payload: %v", ErrUnexpectedEOF, err)
	}
	return nil
}
