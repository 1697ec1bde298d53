package lz78huff

import (
	"math"
	"strconv"

	"github.com/seiflotfy/lz78huff/bitstream"
	"github.com/seiflotfy/lz78huff/huffman"
	"github.com/seiflotfy/lz78huff/lz78"
)

// Hybrid is the output of CompressHybrid.
//
// Only Codes, IndexBits and the literal symbols of Tokens are persisted; the
// indices and the Dictionary are recovered from them.
type Hybrid struct {
	Tokens      []lz78.Token
	Dictionary  *lz78.Dictionary
	Codes       huffman.CodeTable[rune]
	IndexBits   bitstream.Bits
	Frequencies huffman.Frequencies[rune] // counts of the index stream symbols
	Separator   rune
}

// Literals returns the symbol of every token in order.
func (h *Hybrid) Literals() []rune {
	return literalsOf(h.Tokens)
}

// CompressHybrid runs LZ78 over text, writes the token indices as decimal
// strings joined by the separator, and Huffman codes that index stream.
func CompressHybrid(text string, opts ...Option) (*Hybrid, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	symbols, err := decodeText(text)
	if err != nil {
		return nil, err
	}

	tokens, dict := lz78.Compress(symbols)
	h := &Hybrid{Tokens: tokens, Dictionary: dict, Separator: cfg.Separator}
	if len(tokens) == 0 {
		return h, nil
	}

	stream := indexStream(tokens, cfg.Separator)
	h.Frequencies = huffman.Count(stream)
	_, codes, err := huffman.Build(h.Frequencies)
	if err != nil {
		return nil, err
	}
	bits, err := huffman.Encode(stream, codes)
	if err != nil {
		return nil, err
	}
	h.Codes = codes
	h.IndexBits = bits
	return h, nil
}

// DecompressHybrid restores text from the literal symbols, the index code table
// and the coded index bits.
func DecompressHybrid(literals []rune, codes huffman.CodeTable[rune], bits bitstream.Bits) (string, error) {
	tokens, err := recoverTokens(literals, codes, bits)
	if err != nil {
		return "", err
	}
	out, err := lz78.Decompress(tokens)
	if err != nil {
		return "", corruptWrap("decompress tokens", err)
	}
	return string(out), nil
}

// ReconstructDictionary rebuilds the LZ78 dictionary of a hybrid stream. It
// equals the dictionary plain compression produces for the same text.
func ReconstructDictionary(literals []rune, codes huffman.CodeTable[rune], bits bitstream.Bits) (*lz78.Dictionary, error) {
	tokens, err := recoverTokens(literals, codes, bits)
	if err != nil {
		return nil, err
	}
	dict, err := lz78.Rebuild(tokens)
	if err != nil {
		return nil, corruptWrap("rebuild dictionary", err)
	}
	return dict, nil
}

func literalsOf(tokens []lz78.Token) []rune {
	out := make([]rune, len(tokens))
	for i, t := range tokens {
		out[i] = t.Symbol
	}
	return out
}

func indexStream(tokens []lz78.Token, sep rune) []rune {
	stream := make([]rune, 0, len(tokens)*4)
	var scratch [10]byte
	for i, t := range tokens {
		if i > 0 {
			stream = append(stream, sep)
		}
		for _, c := range strconv.AppendUint(scratch[:0], uint64(t.Index), 10) {
			stream = append(stream, rune(c))
		}
	}
	return stream
}

// separatorOf returns the only non-digit symbol of codes, or -1 when every
// symbol is a digit (a single-token stream needs no separator).
func separatorOf(codes huffman.CodeTable[rune]) (rune, error) {
	sep := rune(-1)
	for _, s := range codes.Symbols() {
		if isDigit(s) {
			continue
		}
		if sep != -1 {
			return 0, corruptf("index code table has more than one separator: %q and %q", sep, s)
		}
		sep = s
	}
	return sep, nil
}

func parseIndexStream(stream []rune, sep rune) ([]uint32, error) {
	indices := make([]uint32, 0, len(stream)/2+1)
	var (
		value  uint64
		digits int
	)
	flush := func(pos int) error {
		if digits == 0 {
			return corruptf("empty index before position %d", pos)
		}
		indices = append(indices, uint32(value))
		value, digits = 0, 0
		return nil
	}
	for pos, r := range stream {
		switch {
		case r == sep:
			if err := flush(pos); err != nil {
				return nil, err
			}
		case isDigit(r):
			value = value*10 + uint64(r-'0')
			if value > math.MaxUint32 {
				return nil, corruptf("index overflows uint32 at position %d", pos)
			}
			digits++
		default:
			return nil, corruptf("unexpected symbol %q in index stream at position %d", r, pos)
		}
	}
	if err := flush(len(stream)); err != nil {
		return nil, err
	}
	return indices, nil
}

func recoverTokens(literals []rune, codes huffman.CodeTable[rune], bits bitstream.Bits) ([]lz78.Token, error) {
	if len(literals) == 0 {
		if bits.Len() != 0 || codes.Len() != 0 {
			return nil, corruptf("index stream present without literals: %d bits, %d codes", bits.Len(), codes.Len())
		}
		return nil, nil
	}

	sep, err := separatorOf(codes)
	if err != nil {
		return nil, err
	}
	stream, err := huffman.Decode(bits, codes)
	if err != nil {
		return nil, corruptWrap("decode index stream", err)
	}
	indices, err := parseIndexStream(stream, sep)
	if err != nil {
		return nil, err
	}
	if len(indices) != len(literals) {
		return nil, corruptf("%d indices for %d literals", len(indices), len(literals))
	}

	tokens := make([]lz78.Token, len(literals))
	for i, sym := range literals {
		tokens[i] = lz78.Token{Index: indices[i], Symbol: sym}
	}
	return tokens, nil
}
