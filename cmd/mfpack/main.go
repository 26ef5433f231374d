// Command mfpack creates and reads mfpack container files: sequential
// packs of compressed, checksummed blocks, and whole files split into
// size-bounded chunks.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/miframe/mfpack/internal/config"
	"github.com/miframe/mfpack/internal/packfile"
	"github.com/miframe/mfpack/internal/ui"
)

var version = "dev"

// sizeFlag is a custom pflag.Value that parses human-readable sizes
// ("10M", "512K") at flag-parse time.
type sizeFlag struct {
	bytes int64
	raw   string
}

var _ pflag.Value = (*sizeFlag)(nil)

func (f *sizeFlag) String() string { return f.raw }
func (f *sizeFlag) Type() string   { return "size" }

func (f *sizeFlag) Set(val string) error {
	n, err := config.ParseSize(val)
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("size must be positive: %q", val)
	}
	f.bytes = n
	f.raw = val
	return nil
}

// rootOpts carries the persistent flags shared by every subcommand.
type rootOpts struct {
	chunkSize sizeFlag
	text      bool
	verbose   bool
	quiet     bool
	logFile   string

	// resolved in PersistentPreRunE
	packOpts packfile.Options
	closers  []func() error
}

func (o *rootOpts) mode() packfile.Mode {
	if o.text {
		return packfile.ModeText
	}
	return packfile.ModeBinary
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := &rootOpts{}

	rootCmd := &cobra.Command{
		Use:           "mfpack",
		Short:         "Pack files into compressed, checksummed block containers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.Var(&opts.chunkSize, "chunk-size", "max block size and file split granularity (e.g. 10M)")
	pf.BoolVarP(&opts.text, "text", "t", false, "use text (base64) block encoding for new packs")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "only log warnings and errors")
	pf.StringVar(&opts.logFile, "log-file", "", "also write JSON logs to this file")

	rootCmd.AddCommand(
		newPackCmd(opts),
		newUnpackCmd(opts),
		newExportCmd(opts),
		newPutCmd(opts),
		newGetCmd(opts),
		newInfoCmd(opts),
		docsCmd,
	)

	err := rootCmd.Execute()
	for _, closeFn := range opts.closers {
		closeFn() //nolint:errcheck // log file close on exit
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "mfpack: %v\n", err)
		return 1
	}
	return 0
}

// setup layers defaults: CLI flags win over the config file, which wins
// over built-in defaults. It also wires the slog handlers.
func (o *rootOpts) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "error", err)
	}

	flags := cmd.Root().PersistentFlags()
	if !flags.Changed("text") && cfg.Defaults.Mode != nil {
		switch *cfg.Defaults.Mode {
		case "text":
			o.text = true
		case "binary":
			o.text = false
		default:
			return fmt.Errorf("config: invalid mode %q", *cfg.Defaults.Mode)
		}
	}
	if !flags.Changed("chunk-size") && cfg.Defaults.ChunkSize != nil {
		if err := o.chunkSize.Set(*cfg.Defaults.ChunkSize); err != nil {
			return fmt.Errorf("config: invalid chunk_size: %w", err)
		}
	}
	if !flags.Changed("verbose") && cfg.Defaults.Verbose != nil {
		o.verbose = *cfg.Defaults.Verbose
	}

	o.packOpts = packfile.Options{Mode: o.mode(), ChunkSize: o.chunkSize.bytes}

	logLevel := slog.LevelInfo
	if o.verbose {
		logLevel = slog.LevelDebug
	} else if o.quiet {
		logLevel = slog.LevelWarn
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	var logHandler slog.Handler = textHandler
	if o.logFile != "" {
		lf, lfErr := os.Create(o.logFile)
		if lfErr != nil {
			return fmt.Errorf("open log file: %w", lfErr)
		}
		o.closers = append(o.closers, lf.Close)
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))
	return nil
}
