// Package transfer packs whole files into size-bounded chunks inside a
// pack file and reassembles them, verifying the reconstructed size against
// the recorded metadata.
//
// A chunked pack is a metadata block (FileInfo as JSON) followed by
// exactly FileInfo.Chunks data blocks, read strictly in order.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/miframe/mfpack/internal/packfile"
)

// Options configures a chunked pack operation.
type Options struct {
	// Packfile carries the block mode and chunk size for the new pack.
	Packfile packfile.Options

	// RemoveSrc deletes the source file, but only after a fully
	// successful pack.
	RemoveSrc bool

	// ReplaceDst allows clobbering an existing destination pack.
	ReplaceDst bool
}

// Pack splits the file at src into chunk-size blocks inside a new pack at
// dst, preceded by a FileInfo metadata block, and returns the number of
// data chunks written. A failed pack leaves the partial destination in
// place; the caller decides whether to delete it.
func Pack(src, dst string, opts Options) (int64, error) {
	pf := opts.Packfile
	if pf.ChunkSize <= 0 {
		pf.ChunkSize = packfile.DefaultChunkSize
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if !st.Mode().IsRegular() {
		return 0, fmt.Errorf("source %s is not a regular file", src)
	}

	if !opts.ReplaceDst {
		if _, err := os.Stat(dst); err == nil {
			return 0, fmt.Errorf("destination %s already exists", dst)
		}
	}

	// ceil(size / chunkSize), but at least one chunk so an empty file
	// still carries a data block.
	chunks := st.Size() / pf.ChunkSize
	if st.Size()%pf.ChunkSize != 0 || chunks == 0 {
		chunks++
	}

	info := FileInfo{
		Name:   filepath.Base(src),
		Date:   st.ModTime().Unix(),
		Size:   st.Size(),
		Mime:   detectMime(src),
		Chunks: chunks,
	}

	out, err := packfile.OpenWrite(dst, pf, true)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	meta, err := info.marshal()
	if err != nil {
		return 0, err
	}
	if err := out.WriteBlock(meta); err != nil {
		return 0, fmt.Errorf("write metadata block: %w", err)
	}

	buf := make([]byte, pf.ChunkSize)
	for idx := int64(0); idx < chunks; idx++ {
		want := pf.ChunkSize
		if remaining := st.Size() - idx*pf.ChunkSize; remaining < want {
			want = remaining
		}
		n, err := io.ReadFull(in, buf[:want])
		if err != nil {
			return 0, fmt.Errorf("read chunk %d: %w", idx, err)
		}
		if err := out.WriteBlock(buf[:n]); err != nil {
			return 0, fmt.Errorf("write chunk %d: %w", idx, err)
		}
		slog.Debug("chunk packed", "index", idx, "bytes", n)
	}

	// The source must be exhausted: a file that grew between stat and
	// the last read would silently lose its tail.
	var one [1]byte
	if n, _ := in.Read(one[:]); n != 0 {
		return 0, fmt.Errorf("source grew during pack: wrote %d chunks of %d bytes covering %d bytes", chunks, pf.ChunkSize, st.Size())
	}

	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("close pack: %w", err)
	}

	if opts.RemoveSrc {
		in.Close()
		if err := os.Remove(src); err != nil {
			return chunks, fmt.Errorf("remove source: %w", err)
		}
	}

	slog.Info("packed", "src", src, "dst", dst, "size", st.Size(), "chunks", chunks, "mode", out.Mode().String())
	return chunks, nil
}

// Unpack reassembles the file stored in the pack at src into dst and
// restores its recorded modification time. Any failure after the
// destination is created removes the partial file.
func Unpack(src, dst string, replaceDst bool) error {
	if !replaceDst {
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("destination %s already exists", dst)
		}
	}

	in, err := packfile.OpenRead(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := readInfoBlock(in)
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	written, err := copyChunks(in, out, info)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close destination: %w", cerr)
	}
	if err == nil && written != info.Size {
		err = fmt.Errorf("%w: wrote %d bytes, metadata records %d", ErrSizeMismatch, written, info.Size)
	}
	if err != nil {
		os.Remove(dst)
		return err
	}

	mtime := time.Unix(info.Date, 0)
	if err := os.Chtimes(dst, mtime, mtime); err != nil {
		return fmt.Errorf("restore mtime: %w", err)
	}

	slog.Info("unpacked", "src", src, "dst", dst, "size", written, "chunks", info.Chunks)
	return nil
}

// Export streams the packed file at src to sink. infoFn, when non-nil,
// receives the validated FileInfo before any payload byte, so a
// collaborator can emit content-type, length, and disposition headers
// ahead of the body. Cleaning up the sink after a failure is the caller's
// responsibility.
func Export(src string, sink io.Writer, infoFn func(FileInfo) error) error {
	in, err := packfile.OpenRead(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := readInfoBlock(in)
	if err != nil {
		return err
	}
	if infoFn != nil {
		if err := infoFn(info); err != nil {
			return err
		}
	}

	written, err := copyChunks(in, sink, info)
	if err != nil {
		return err
	}
	if written != info.Size {
		return fmt.Errorf("%w: streamed %d bytes, metadata records %d", ErrSizeMismatch, written, info.Size)
	}
	return nil
}

// ReadInfo returns the validated metadata block of the pack at src without
// touching the data chunks.
func ReadInfo(src string) (FileInfo, error) {
	in, err := packfile.OpenRead(src)
	if err != nil {
		return FileInfo{}, err
	}
	defer in.Close()
	return readInfoBlock(in)
}

func readInfoBlock(in *packfile.Stream) (FileInfo, error) {
	block, err := in.ReadBlock()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return FileInfo{}, fmt.Errorf("%w: pack has no metadata block", ErrCorruptMetadata)
		}
		return FileInfo{}, fmt.Errorf("read metadata block: %w", err)
	}
	return unmarshalInfo(block)
}

// copyChunks streams exactly info.Chunks blocks from in to w, returning
// the number of payload bytes written.
func copyChunks(in *packfile.Stream, w io.Writer, info FileInfo) (int64, error) {
	var written int64
	for i := int64(0); i < info.Chunks; i++ {
		block, err := in.ReadBlock()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return written, fmt.Errorf("%w: pack ends after %d of %d chunks", packfile.ErrUnexpectedEOF, i, info.Chunks)
			}
			return written, fmt.Errorf("read chunk %d: %w", i, err)
		}
		n, err := w.Write(block)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write chunk %d: %w", i, err)
		}
	}
	return written, nil
}
