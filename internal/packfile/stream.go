package packfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// DefaultChunkSize bounds the raw payload of a single block and sets the
// split granularity for chunked file transfer.
const DefaultChunkSize int64 = 10 << 20

// Options configures a pack stream at open time. The zero value means
// binary mode with the default chunk size.
type Options struct {
	// Mode selects binary or text block encoding.
	Mode Mode

	// ChunkSize is the maximum raw payload of a single block in bytes.
	// Encoded frames may run slightly larger.
	ChunkSize int64
}

func (o Options) withDefaults() Options {
	if o.Mode == 0 {
		o.Mode = ModeBinary
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	return o
}

// Stream owns one open pack file. Direction and mode are fixed at open
// time: a stream either appends blocks or scans them, never both. Streams
// are not safe for concurrent use.
type Stream struct {
	f         *os.File
	br        *bufio.Reader // non-nil iff the stream was opened for reading
	mode      Mode
	chunkSize int64
	closed    bool
}

// OpenWrite opens path for appending blocks. A missing file, or
// rewrite=true, truncates and writes a fresh header in opts.Mode. An
// existing file must already carry a header matching opts.Mode; the stream
// is then positioned at end-of-file.
func OpenWrite(path string, opts Options, rewrite bool) (*Stream, error) {
	opts = opts.withDefaults()
	if !opts.Mode.valid() {
		return nil, fmt.Errorf("invalid pack mode 0x%02x", byte(opts.Mode))
	}

	if !rewrite {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			rewrite = true
		}
	}

	if rewrite {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create pack: %w", err)
		}
		if err := writeHeader(f, opts.Mode); err != nil {
			f.Close()
			return nil, err
		}
		slog.Debug("pack created", "path", path, "mode", opts.Mode.String())
		return &Stream{f: f, mode: opts.Mode, chunkSize: opts.ChunkSize}, nil
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open pack: %w", err)
	}
	if _, err := readHeader(f, opts.Mode, false); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek to end of pack: %w", err)
	}
	return &Stream{f: f, mode: opts.Mode, chunkSize: opts.ChunkSize}, nil
}

// OpenRead opens path for sequential scanning. The stream adopts whatever
// mode the file's header records.
func OpenRead(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pack: %w", err)
	}
	br := bufio.NewReader(f)
	mode, err := readHeader(br, 0, true)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Stream{f: f, br: br, mode: mode, chunkSize: DefaultChunkSize}, nil
}

// Mode reports the block encoding this stream reads or writes.
func (s *Stream) Mode() Mode { return s.mode }

// WriteBlock appends one block in the stream's mode. The frame is built in
// memory first; a payload larger than the configured chunk size would need
// splitting, so it fails with ErrBlockTooLarge and writes nothing. The
// encoded frame itself may exceed the chunk size by codec overhead.
func (s *Stream) WriteBlock(p []byte) error {
	if s.closed {
		return os.ErrClosed
	}
	if s.br != nil {
		return errors.New("pack stream is open for reading")
	}

	var frame []byte
	var err error
	switch s.mode {
	case ModeText:
		frame, err = encodeTextBlock(p, s.chunkSize)
	default:
		frame, err = encodeBinaryBlock(p, s.chunkSize)
	}
	if err != nil {
		return err
	}

	if _, err := s.f.Write(frame); err != nil {
		return fmt.Errorf("write block: %w", err)
	}
	slog.Debug("block written", "mode", s.mode.String(), "raw", len(p), "framed", len(frame))
	return nil
}

// ReadBlock decodes and returns the next block. io.EOF reports a clean end
// of the pack; truncation inside a block is ErrUnexpectedEOF.
func (s *Stream) ReadBlock() ([]byte, error) {
	if s.closed {
		return nil, os.ErrClosed
	}
	if s.br == nil {
		return nil, errors.New("pack stream is open for writing")
	}
	if s.mode == ModeText {
		return readTextBlock(s.br)
	}
	return readBinaryBlock(s.br)
}

// SkipBlock advances past the next block without decompressing or decoding
// its payload. It returns io.EOF at a clean end of the pack.
func (s *Stream) SkipBlock() error {
	if s.closed {
		return os.ErrClosed
	}
	if s.br == nil {
		return errors.New("pack stream is open for writing")
	}
	if s.mode == ModeText {
		return skipTextBlock(s.br)
	}
	return skipBinaryBlock(s.br)
}

// Close releases the underlying file. It is idempotent.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}
