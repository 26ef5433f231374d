package packfile

import (
	"errors"
	"fmt"
	"io"
)

// Put opens (or creates) the pack at path, appends data as a single block,
// and closes the stream again.
func Put(path string, data []byte, opts Options, rewrite bool) error {
	s, err := OpenWrite(path, opts, rewrite)
	if err != nil {
		return err
	}
	if err := s.WriteBlock(data); err != nil {
		s.Close()
		return err
	}
	return s.Close()
}

// Get scans the pack at path and returns the block at index, counting from
// zero. The scan is strictly sequential; earlier blocks are skipped
// without being decoded. A nonexistent index wraps io.EOF.
func Get(path string, index int) ([]byte, error) {
	if index < 0 {
		return nil, fmt.Errorf("negative block index %d", index)
	}
	s, err := OpenRead(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	for i := 0; i < index; i++ {
		if err := s.SkipBlock(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("no block at index %d: %w", index, io.EOF)
			}
			return nil, err
		}
	}

	data, err := s.ReadBlock()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("no block at index %d: %w", index, io.EOF)
	}
	return data, err
}
