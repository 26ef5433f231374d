package packfile

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textRoundTrip(t *testing.T, payload []byte) {
	t.Helper()

	frame, err := encodeTextBlock(payload, DefaultChunkSize)
	require.NoError(t, err)

	got, err := readTextBlock(bufio.NewReader(bytes.NewReader(frame)))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestTextBlockRoundTrip(t *testing.T) {
	textRoundTrip(t, []byte("hello world"))
	textRoundTrip(t, []byte{0x00, 0xFF, 0x10, 0x80})
}

func TestTextBlockRoundTripEmpty(t *testing.T) {
	textRoundTrip(t, []byte{})
}

func TestTextBlockRoundTripWrapped(t *testing.T) {
	// Long enough that the base64 payload wraps several times.
	textRoundTrip(t, bytes.Repeat([]byte("0123456789"), 1000))
}

func TestTextBlockFrameShape(t *testing.T) {
	frame, err := encodeTextBlock([]byte("abc"), DefaultChunkSize)
	require.NoError(t, err)

	s := string(frame)
	require.True(t, strings.HasPrefix(s, lineTerm+"#"), "frame starts with separator and header marker")

	// Header line: '#' + hexlen + ':' + digest.
	lines := strings.SplitN(strings.TrimPrefix(s, lineTerm), lineTerm, 2)
	require.Len(t, lines, 2)
	assert.GreaterOrEqual(t, len(lines[0]), minHeaderLine)

	// No padding characters survive in the payload.
	assert.NotContains(t, lines[1], "=")
}

func TestTextBlockWrapWidth(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 3000)
	frame, err := encodeTextBlock(payload, DefaultChunkSize)
	require.NoError(t, err)

	body := string(frame[1:]) // drop leading separator
	_, wrapped, found := strings.Cut(body, lineTerm)
	require.True(t, found)
	for i, line := range strings.Split(wrapped, lineTerm) {
		assert.LessOrEqual(t, len(line), textLineWidth, "line %d", i)
	}
}

func TestTextBlockTooLarge(t *testing.T) {
	_, err := encodeTextBlock(bytes.Repeat([]byte("y"), 4096), 1024)
	assert.ErrorIs(t, err, ErrBlockTooLarge)
}

func TestTextBlockChunkSizedPayloadEncodes(t *testing.T) {
	// Base64 always expands; the size policy bounds the payload, not the
	// frame, so a chunk-size payload still encodes.
	payload := bytes.Repeat([]byte("z"), 4096)
	frame, err := encodeTextBlock(payload, 4096)
	require.NoError(t, err)
	assert.Greater(t, len(frame), len(payload))

	got, err := readTextBlock(bufio.NewReader(bytes.NewReader(frame)))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestTextBlockCleanEOF(t *testing.T) {
	_, err := readTextBlock(bufio.NewReader(bytes.NewReader(nil)))
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextBlockTamperedPayload(t *testing.T) {
	frame, err := encodeTextBlock([]byte("tamper detection payload"), DefaultChunkSize)
	require.NoError(t, err)

	last := len(frame) - 1
	if frame[last] == 'A' {
		frame[last] = 'B'
	} else {
		frame[last] = 'A'
	}

	_, err = readTextBlock(bufio.NewReader(bytes.NewReader(frame)))
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestTextBlockMalformedHeader(t *testing.T) {
	tests := []string{
		"\nnot a header line at all, but long enough to pass the length check\ndata",
		"\n#zz:00112233445566778899aabbccddeeff\n",  // bad hex length
		"\n#c:tooshort\n",                            // digest too short
		"\n#ff\n",                                    // no colon, under minimum
	}
	for _, in := range tests {
		_, err := readTextBlock(bufio.NewReader(strings.NewReader(in)))
		assert.ErrorIs(t, err, ErrCorruptBlock, "input %q", in)
	}
}

func TestTextBlockTruncatedPayload(t *testing.T) {
	frame, err := encodeTextBlock([]byte("truncate me somewhere past the header"), DefaultChunkSize)
	require.NoError(t, err)

	_, err = readTextBlock(bufio.NewReader(bytes.NewReader(frame[:len(frame)-5])))
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestTextBlockSkip(t *testing.T) {
	var buf bytes.Buffer
	for _, s := range []string{"first", "second", "third"} {
		frame, err := encodeTextBlock([]byte(s), DefaultChunkSize)
		require.NoError(t, err)
		buf.Write(frame)
	}

	br := bufio.NewReader(&buf)
	require.NoError(t, skipTextBlock(br))
	require.NoError(t, skipTextBlock(br))

	got, err := readTextBlock(br)
	require.NoError(t, err)
	assert.Equal(t, []byte("third"), got)
}

func TestTextDigestIsOverStoredBytes(t *testing.T) {
	// Same raw input always frames identically, so the digest is stable.
	a, err := encodeTextBlock([]byte("stable"), DefaultChunkSize)
	require.NoError(t, err)
	b, err := encodeTextBlock([]byte("stable"), DefaultChunkSize)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
