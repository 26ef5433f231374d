package transfer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// ErrCorruptMetadata is returned when a pack's metadata block is missing,
// unparseable, or violates the FileInfo invariants.
var ErrCorruptMetadata = errors.New("corrupt pack metadata")

// ErrSizeMismatch is returned when the reassembled byte count disagrees
// with the size the metadata block records.
var ErrSizeMismatch = errors.New("reassembled size disagrees with pack metadata")

// FileInfo is the metadata record stored as the first block of a chunked
// pack. The JSON key names are fixed by the on-disk format.
type FileInfo struct {
	Name   string `json:"file"` // base name of the packed file
	Date   int64  `json:"date"` // modification time, unix seconds
	Size   int64  `json:"size"` // original size in bytes
	Mime   string `json:"mime"` // sniffed content type
	Chunks int64  `json:"chks"` // number of data blocks that follow
}

// Validate checks the invariants every well-formed metadata block holds.
func (fi FileInfo) Validate() error {
	switch {
	case fi.Name == "":
		return fmt.Errorf("%w: empty filename", ErrCorruptMetadata)
	case fi.Date <= 0:
		return fmt.Errorf("%w: timestamp %d", ErrCorruptMetadata, fi.Date)
	case fi.Size < 0:
		return fmt.Errorf("%w: negative size %d", ErrCorruptMetadata, fi.Size)
	case fi.Mime == "":
		return fmt.Errorf("%w: empty mime type", ErrCorruptMetadata)
	case fi.Chunks <= 0:
		return fmt.Errorf("%w: chunk count %d", ErrCorruptMetadata, fi.Chunks)
	}
	return nil
}

func (fi FileInfo) marshal() ([]byte, error) {
	b, err := json.Marshal(fi)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}

func unmarshalInfo(b []byte) (FileInfo, error) {
	var fi FileInfo
	if err := json.Unmarshal(b, &fi); err != nil {
		return FileInfo{}, fmt.Errorf("%w: %v", ErrCorruptMetadata, err)
	}
	if err := fi.Validate(); err != nil {
		return FileInfo{}, err
	}
	return fi, nil
}

// detectMime sniffs the content type of the file at path. Detection never
// blocks packing: unreadable content falls back to octet-stream.
func detectMime(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}
	return mt.String()
}
