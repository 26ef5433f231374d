package packfile

import "errors"

// ErrHeaderMismatch is returned when a file does not begin with the pack
// magic and version, carries an unknown mode byte, or records a mode that
// disagrees with the mode an appending stream was configured with.
var ErrHeaderMismatch = errors.New("pack header mismatch")

// ErrUnsupportedSize is returned when a value does not fit the length
// encoding budget of 7 bytes.
var ErrUnsupportedSize = errors.New("size exceeds length encoding budget")

// ErrBlockTooLarge is returned by WriteBlock when the raw payload exceeds
// the configured chunk size. Nothing is written; data larger than one
// chunk goes through the transfer package instead.
var ErrBlockTooLarge = errors.New("block exceeds chunk size")

// ErrCorruptBlock is returned when block framing is malformed or the
// payload fails to decompress or decode.
var ErrCorruptBlock = errors.New("corrupt block")

// ErrChecksumMismatch is returned when a text-mode block's recorded digest
// disagrees with the digest recomputed over its stored payload.
var ErrChecksumMismatch = errors.New("block checksum mismatch")

// ErrUnexpectedEOF is returned when the pack ends in the middle of a
// block. A clean end, at a block boundary, is reported as io.EOF instead.
var ErrUnexpectedEOF = errors.New("unexpected end of pack")
