package lz78huff

import (
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/seiflotfy/lz78huff/bitstream"
	"github.com/seiflotfy/lz78huff/huffman"
)

// Stats describes one archive relative to its original text.
type Stats struct {
	Version           Version
	OriginalSize      int64   // bytes of UTF-8 text
	CompressedSize    int64   // bytes on disk
	RatioPercent      float64 // space saved, negative on expansion
	DictionaryEntries int
	Tokens            int

	// Hybrid only.
	HuffmanCodes int
	HuffmanBits  int
	HuffmanBytes int
}

// Statistics reports the sizes of a against original. CompressedSize is the
// exact length a would have on disk.
func Statistics(original string, a *Archive) (Stats, error) {
	size, err := a.EncodedSize()
	if err != nil {
		return Stats{}, err
	}
	dict, err := a.dictionary()
	if err != nil {
		return Stats{}, err
	}
	s := Stats{
		Version:           a.Version,
		OriginalSize:      int64(len(original)),
		CompressedSize:    size,
		RatioPercent:      ratio(int64(len(original)), size),
		DictionaryEntries: dict.Len(),
		Tokens:            len(a.Tokens),
	}
	if a.Version == VersionHybrid {
		s.HuffmanCodes = a.Codes.Len()
		s.HuffmanBits = a.IndexBits.Len()
		s.HuffmanBytes = bitstream.ByteLen(a.IndexBits.Len())
	}
	return s, nil
}

func ratio(original, compressed int64) float64 {
	if original == 0 {
		return 0
	}
	r := float64(original-compressed) / float64(original) * 100
	return math.Round(r*100) / 100
}

// Comparison sets plain LZ78, hybrid and zstd side by side for one text.
type Comparison struct {
	OriginalSize int64
	Plain        Stats
	Hybrid       Stats
	ZstdSize     int64
	ZstdRatio    float64

	// HybridImprovement is the share of the plain archive size saved by the
	// hybrid archive, in percent.
	HybridImprovement float64

	// Index describes the Huffman code of the hybrid index stream.
	Index huffman.Metrics
}

// Compare compresses text with both archive versions and with zstd.
func Compare(text, filename string, opts ...Option) (Comparison, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return Comparison{}, err
	}

	plain, err := NewArchive(text, filename, VersionPlain, opts...)
	if err != nil {
		return Comparison{}, err
	}
	h, err := CompressHybrid(text, opts...)
	if err != nil {
		return Comparison{}, err
	}
	hybrid := &Archive{
		Version:    VersionHybrid,
		Filename:   filename,
		Tokens:     h.Tokens,
		Dictionary: h.Dictionary,
		Codes:      h.Codes,
		IndexBits:  h.IndexBits,
	}

	c := Comparison{OriginalSize: int64(len(text))}
	if c.Plain, err = Statistics(text, plain); err != nil {
		return Comparison{}, err
	}
	if c.Hybrid, err = Statistics(text, hybrid); err != nil {
		return Comparison{}, err
	}
	c.HybridImprovement = ratio(c.Plain.CompressedSize, c.Hybrid.CompressedSize)

	if c.ZstdSize, err = zstdSize([]byte(text), cfg.ZstdLevel); err != nil {
		return Comparison{}, err
	}
	c.ZstdRatio = ratio(c.OriginalSize, c.ZstdSize)

	if len(h.Frequencies) > 0 {
		if c.Index, err = huffman.Measure(h.Frequencies, h.Codes); err != nil {
			return Comparison{}, err
		}
	}
	return c, nil
}

func zstdSize(data []byte, level zstd.EncoderLevel) (int64, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return 0, fmt.Errorf("zstd baseline: %w", err)
	}
	defer enc.Close()
	return int64(len(enc.EncodeAll(data, nil))), nil
}
