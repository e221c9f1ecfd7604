// binserde-inspect prints the envelope header, dedup string table and a hex
// dump of the payload of a binserde container or raw blob.
//
// Usage:
//
//	binserde-inspect [flags] FILE
//
// The wire mode comes from --config (YAML, see package config) and
// defaults to dedup mode; --dedup overrides the config value. With --raw
// the file is read as a bare blob without the container header.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/wippyai/binserde"
	"github.com/wippyai/binserde/config"
	"github.com/wippyai/binserde/container"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type options struct {
	configPath  string
	dedup       bool
	raw         bool
	width       int
	interactive bool
	verbose     bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("binserde-inspect", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "YAML file with mode and container settings")
	flagSet.BoolVar(&opts.dedup, "dedup", true, "blob starts with a dedup string table")
	flagSet.BoolVar(&opts.raw, "raw", false, "read FILE as a bare blob without container header")
	flagSet.IntVar(&opts.width, "width", 16, "bytes per hex dump line")
	flagSet.BoolVarP(&opts.interactive, "interactive", "i", false, "browse the file in a terminal UI")
	flagSet.BoolVar(&opts.verbose, "verbose", false, "debug logging to stderr")
	flagSet.SetOutput(io.Discard)

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(stdout, flagSet)
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		printHelp(os.Stderr, flagSet)
		return fmt.Errorf("expected exactly one FILE argument")
	}
	if opts.width <= 0 {
		return fmt.Errorf("--width must be positive, got %d", opts.width)
	}

	log, err := newLogger(opts.verbose)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	binserde.SetLogger(log)
	container.SetLogger(log)

	mode, err := wireMode(opts, flagSet.Changed("dedup"))
	if err != nil {
		return err
	}

	path := flagSet.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	rep, err := inspect(path, data, opts.raw, mode)
	if err != nil {
		return err
	}
	log.Debug("inspected",
		zap.String("path", path),
		zap.Int("strings", len(rep.table)),
		zap.Int("payload_bytes", len(rep.payload)))

	if opts.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode needs a terminal on stdout")
		}
		return runInteractive(rep, opts.width)
	}
	printReport(stdout, rep, opts.width)
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func wireMode(opts options, dedupSet bool) (binserde.Mode, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return binserde.Mode{}, err
		}
	}
	mode, err := cfg.WireMode()
	if err != nil {
		return binserde.Mode{}, err
	}
	if dedupSet {
		mode.Dedup = opts.dedup
	}
	return mode, nil
}

type report struct {
	path       string
	header     *container.Header
	storedSize int
	mode       binserde.Mode
	table      []string
	blobSize   int
	payloadOff int
	payload    []byte
}

func inspect(path string, data []byte, raw bool, mode binserde.Mode) (*report, error) {
	env := &container.Envelope{Blob: data, StoredSize: len(data)}
	if !raw {
		var err error
		if env, err = container.Open(bytes.NewReader(data)); err != nil {
			return nil, err
		}
	}

	table, off, err := env.Table(mode)
	if err != nil {
		return nil, err
	}
	rep := &report{
		path:       path,
		storedSize: env.StoredSize,
		mode:       mode,
		table:      table.Strings(),
		blobSize:   len(env.Blob),
		payloadOff: off,
		payload:    env.Blob[off:],
	}
	if !raw {
		h := env.Header
		rep.header = &h
	}
	return rep, nil
}

func printReport(w io.Writer, rep *report, width int) {
	fmt.Fprintf(w, "File: %s\n", rep.path)
	if rep.header != nil {
		h := rep.header
		fmt.Fprintf(w, "Container: version %d, compression %s, checksum %t\n",
			h.Version, h.Compression, h.HasChecksum())
		fmt.Fprintf(w, "Body: %d bytes stored, %d bytes blob\n", rep.storedSize, rep.blobSize)
	} else {
		fmt.Fprintf(w, "Raw blob: %d bytes\n", rep.blobSize)
	}
	fmt.Fprintf(w, "Mode: %s\n", rep.mode)

	if rep.mode.Dedup {
		fmt.Fprintf(w, "\nString table (%d entries, %d bytes):\n", len(rep.table), rep.payloadOff)
		for id, s := range rep.table {
			fmt.Fprintf(w, "  %4d  %q\n", id, s)
		}
	}

	fmt.Fprintf(w, "\nPayload (%d bytes at offset %d):\n", len(rep.payload), rep.payloadOff)
	fmt.Fprint(w, hexDump(rep.payload, rep.payloadOff, width))
}

// hexDump formats data as offset, hex and printable columns. Offsets start
// at base so they match positions in the blob.
func hexDump(data []byte, base, width int) string {
	var b strings.Builder
	for start := 0; start < len(data); start += width {
		end := min(start+width, len(data))
		line := data[start:end]

		fmt.Fprintf(&b, "%08x  ", base+start)
		for i := range width {
			if i < len(line) {
				fmt.Fprintf(&b, "%02x ", line[i])
			} else {
				b.WriteString("   ")
			}
		}
		b.WriteString(" |")
		for _, c := range line {
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			b.WriteByte(c)
		}
		b.WriteString("|\n")
	}
	return b.String()
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `binserde-inspect shows what is inside a binserde file.

Usage:
  binserde-inspect [flags] FILE

Flags:
%s`, flagSet.FlagUsages())
}
