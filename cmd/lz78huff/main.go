// Command lz78huff compresses text files into .lz78 archives and back.
//
// Usage:
//
//	lz78huff compress [-hybrid] [-o out] input.txt
//	lz78huff decompress [-o out.txt] input.lz78
//	lz78huff stats [-zstd-level n] input.txt
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/seiflotfy/lz78huff"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "lz78huff:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return flag.ErrHelp
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "compress":
		return compress(rest, stdout, stderr)
	case "decompress":
		return decompress(rest, stdout, stderr)
	case "stats":
		return stats(rest, stdout, stderr)
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return nil
	}
	usage(stderr)
	return fmt.Errorf("unknown command %q", cmd)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: lz78huff <compress|decompress|stats> [flags] file")
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "debug logging")
	return fs, verbose
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func oneArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected one file, got %d", fs.Name(), fs.NArg())
	}
	return fs.Arg(0), nil
}

func compress(args []string, stdout, stderr io.Writer) error {
	fs, verbose := newFlagSet("compress", stderr)
	hybrid := fs.Bool("hybrid", false, "write a version 2 archive (LZ78 + Huffman coded indices)")
	out := fs.String("o", "", "output path (default: input name with "+lz78huff.Extension+")")
	sep := fs.String("sep", "|", "index separator for -hybrid")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in, err := oneArg(fs)
	if err != nil {
		return err
	}
	log := newLogger(stderr, *verbose)

	var opts []lz78huff.Option
	if *sep != "" {
		r := []rune(*sep)
		if len(r) != 1 {
			return fmt.Errorf("compress: -sep must be a single character")
		}
		opts = append(opts, lz78huff.WithSeparator(r[0]))
	}

	text, err := lz78huff.ReadTextFile(in)
	if err != nil {
		return err
	}
	version := lz78huff.VersionPlain
	if *hybrid {
		version = lz78huff.VersionHybrid
	}
	log.Debug("compressing", "input", in, "bytes", len(text), "version", version)

	a, err := lz78huff.NewArchive(text, filepath.Base(in), version, opts...)
	if err != nil {
		return err
	}
	dst := *out
	if dst == "" {
		dst = strings.TrimSuffix(in, filepath.Ext(in))
	}
	written, err := lz78huff.Save(dst, a)
	if err != nil {
		return err
	}

	s, err := lz78huff.Statistics(text, a)
	if err != nil {
		return err
	}
	log.Info("compressed",
		"output", written,
		"version", version,
		"original", s.OriginalSize,
		"compressed", s.CompressedSize,
		"ratio", s.RatioPercent,
		"dictionary", s.DictionaryEntries,
	)
	fmt.Fprintln(stdout, written)
	return nil
}

func decompress(args []string, stdout, stderr io.Writer) error {
	fs, verbose := newFlagSet("decompress", stderr)
	out := fs.String("o", "", "output path (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in, err := oneArg(fs)
	if err != nil {
		return err
	}
	log := newLogger(stderr, *verbose)

	a, err := lz78huff.Load(in)
	if err != nil {
		return err
	}
	log.Debug("loaded", "input", in, "version", a.Version, "filename", a.Filename, "tokens", len(a.Tokens))

	text, err := a.Text()
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = io.WriteString(stdout, text)
		return err
	}
	if err := lz78huff.WriteTextFile(*out, text); err != nil {
		return err
	}
	log.Info("decompressed", "output", *out, "bytes", len(text))
	return nil
}

func stats(args []string, stdout, stderr io.Writer) error {
	fs, verbose := newFlagSet("stats", stderr)
	level := fs.Int("zstd-level", int(zstd.SpeedBestCompression), "zstd baseline level (1-4)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in, err := oneArg(fs)
	if err != nil {
		return err
	}
	log := newLogger(stderr, *verbose)

	text, err := lz78huff.ReadTextFile(in)
	if err != nil {
		return err
	}
	log.Debug("comparing", "input", in, "bytes", len(text), "zstd_level", *level)

	c, err := lz78huff.Compare(text, filepath.Base(in), lz78huff.WithZstdLevel(zstd.EncoderLevel(*level)))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "original:          %d bytes\n", c.OriginalSize)
	fmt.Fprintf(stdout, "lz78 (v1):         %d bytes  %6.2f%%  %d phrases\n",
		c.Plain.CompressedSize, c.Plain.RatioPercent, c.Plain.DictionaryEntries)
	fmt.Fprintf(stdout, "lz78+huffman (v2): %d bytes  %6.2f%%  %d codes, %d index bits\n",
		c.Hybrid.CompressedSize, c.Hybrid.RatioPercent, c.Hybrid.HuffmanCodes, c.Hybrid.HuffmanBits)
	fmt.Fprintf(stdout, "zstd:              %d bytes  %6.2f%%\n", c.ZstdSize, c.ZstdRatio)
	fmt.Fprintf(stdout, "hybrid vs lz78:    %6.2f%%\n", c.HybridImprovement)
	fmt.Fprintf(stdout, "index code:        H=%.4f  L=%.4f  efficiency=%.2f%%\n",
		c.Index.Entropy, c.Index.AverageLength, c.Index.Efficiency*100)
	return nil
}
