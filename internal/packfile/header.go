package packfile

import (
	"fmt"
	"io"
)

// MagicVersion is the fixed prefix of every pack file. A file that does
// not begin with exactly these bytes is not a pack.
const MagicVersion = "MIFRAMEPACK/1.0/"

// headerSize is the magic plus the single mode byte.
const headerSize = len(MagicVersion) + 1

// Mode selects how blocks are encoded on disk. It is fixed per pack file
// by the header's mode byte.
type Mode byte

const (
	// ModeBinary frames blocks as compressed binary with a length prefix.
	ModeBinary Mode = 'B'
	// ModeText frames blocks as wrapped base64 with a digest header line.
	ModeText Mode = 'T'
)

func (m Mode) valid() bool { return m == ModeBinary || m == ModeText }

func (m Mode) String() string {
	switch m {
	case ModeBinary:
		return "binary"
	case ModeText:
		return "text"
	}
	return fmt.Sprintf("Mode(0x%02x)", byte(m))
}

// writeHeader emits the magic, version, and mode byte as a single write.
func writeHeader(w io.Writer, mode Mode) error {
	buf := make([]byte, 0, headerSize)
	buf = append(buf, MagicVersion...)
	buf = append(buf, byte(mode))
	n, err := w.Write(buf)
	if err != nil {
		return fmt.Errorf("write pack header: %w", err)
	}
	if n != headerSize {
		return fmt.Errorf("write pack header: %w", io.ErrShortWrite)
	}
	return nil
}

// readHeader reads and validates the pack prefix. Read-only opens adopt
// whatever mode the file records; appending opens additionally require the
// stored mode to match want, since a pack never mixes block encodings.
func readHeader(r io.Reader, want Mode, readOnly bool) (Mode, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, fmt.Errorf("%w: short header: %v", ErrHeaderMismatch, err)
	}
	if string(buf[:len(MagicVersion)]) != MagicVersion {
		return 0, fmt.Errorf("%w: bad magic %q", ErrHeaderMismatch, buf[:len(MagicVersion)])
	}
	mode := Mode(buf[len(MagicVersion)])
	if !mode.valid() {
		return 0, fmt.Errorf("%w: unknown mode byte 0x%02x", ErrHeaderMismatch, byte(mode))
	}
	if !readOnly && mode != want {
		return 0, fmt.Errorf("%w: pack is %s, stream configured for %s", ErrHeaderMismatch, mode, want)
	}
	return mode, nil
}
