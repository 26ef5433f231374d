package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/miframe/mfpack/internal/packfile"
	"github.com/miframe/mfpack/internal/transfer"
	"github.com/miframe/mfpack/internal/ui"
)

func newPackCmd(opts *rootOpts) *cobra.Command {
	var rmSrc, force bool

	cmd := &cobra.Command{
		Use:   "pack <source> <dest.mfp>",
		Short: "Split a file into chunks inside a new pack",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			chunks, err := transfer.Pack(args[0], args[1], transfer.Options{
				Packfile:   opts.packOpts,
				RemoveSrc:  rmSrc,
				ReplaceDst: force,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s: %s chunk(s)\n", args[1], ui.FormatCount(chunks))
			return nil
		},
	}
	cmd.Flags().BoolVar(&rmSrc, "rm-src", false, "delete the source file after a successful pack")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing destination")
	return cmd
}

func newUnpackCmd(_ *rootOpts) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "unpack <source.mfp> <dest>",
		Short: "Reassemble a packed file",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return transfer.Unpack(args[0], args[1], force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing destination")
	return cmd
}

func newExportCmd(_ *rootOpts) *cobra.Command {
	var httpHeaders bool

	cmd := &cobra.Command{
		Use:   "export <source.mfp>",
		Short: "Stream a packed file to stdout",
		Long: "Stream a packed file to stdout. With --http-headers, content-type,\n" +
			"length, and disposition headers derived from the pack metadata are\n" +
			"emitted before the payload, for handing the pack to a browser.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			out := os.Stdout
			var infoFn func(transfer.FileInfo) error
			if httpHeaders {
				infoFn = func(fi transfer.FileInfo) error {
					_, err := fmt.Fprintf(out,
						"Content-Type: %s\r\nContent-Length: %d\r\nContent-Disposition: attachment; filename=%q\r\n\r\n",
						fi.Mime, fi.Size, fi.Name)
					return err
				}
			}
			return transfer.Export(args[0], out, infoFn)
		},
	}
	cmd.Flags().BoolVar(&httpHeaders, "http-headers", false, "emit HTTP headers before the payload")
	return cmd
}

func newPutCmd(opts *rootOpts) *cobra.Command {
	var rewrite bool

	cmd := &cobra.Command{
		Use:   "put <pack> [file]",
		Short: "Append one block to a pack",
		Long: "Append the contents of file (or stdin) to the pack as a single\n" +
			"block. Data larger than the chunk size is rejected; use pack for\n" +
			"whole files.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 2 {
				data, err = os.ReadFile(args[1])
			} else {
				data, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return packfile.Put(args[0], data, opts.packOpts, rewrite)
		},
	}
	cmd.Flags().BoolVar(&rewrite, "rewrite", false, "truncate the pack instead of appending")
	return cmd
}

func newGetCmd(_ *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "get <pack> <index>",
		Short: "Read one block by position (counting from 0)",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			data, err := packfile.Get(args[0], index)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func newInfoCmd(_ *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "info <pack>",
		Short: "Show pack mode, metadata, and block count",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := packfile.OpenRead(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			blocks := int64(0)
			for {
				if err := s.SkipBlock(); err != nil {
					if errors.Is(err, io.EOF) {
						break
					}
					return err
				}
				blocks++
			}

			fmt.Fprintf(os.Stdout, "mode:   %s\n", s.Mode())
			fmt.Fprintf(os.Stdout, "blocks: %s\n", ui.FormatCount(blocks))

			// A chunked-file pack additionally carries a metadata block.
			info, err := transfer.ReadInfo(args[0])
			if err != nil {
				return nil //nolint:nilerr // plain block pack, no metadata to show
			}
			fmt.Fprintf(os.Stdout, "file:   %s\n", info.Name)
			fmt.Fprintf(os.Stdout, "size:   %s\n", ui.FormatBytes(info.Size))
			fmt.Fprintf(os.Stdout, "mime:   %s\n", info.Mime)
			fmt.Fprintf(os.Stdout, "date:   %s\n", time.Unix(info.Date, 0).Format(time.RFC3339))
			fmt.Fprintf(os.Stdout, "chunks: %s\n", ui.FormatCount(info.Chunks))
			return nil
		},
	}
}
