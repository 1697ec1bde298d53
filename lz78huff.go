// Package lz78huff compresses text with LZ78, optionally followed by Huffman
// coding of the LZ78 index stream, and persists the result in two binary
// archive versions.
//
// Version 1 (plain) stores the dictionary next to the tokens. Version 2 (hybrid)
// stores a Huffman code table, the coded index bits and the literal symbols; the
// indices and the dictionary are rebuilt on load.
package lz78huff

import (
	"fmt"
	"unicode/utf8"

	"github.com/seiflotfy/lz78huff/lz78"
)

// Compress runs plain LZ78 over the runes of text.
func Compress(text string) ([]lz78.Token, *lz78.Dictionary, error) {
	symbols, err := decodeText(text)
	if err != nil {
		return nil, nil, err
	}
	tokens, dict := lz78.Compress(symbols)
	return tokens, dict, nil
}

// Decompress restores the text for tokens. The dictionary is accepted for
// symmetry with Compress; it is rebuilt from the tokens and may be nil.
func Decompress(tokens []lz78.Token, _ *lz78.Dictionary) (string, error) {
	out, err := lz78.Decompress(tokens)
	if err != nil {
		return "", corruptWrap("decompress tokens", err)
	}
	return string(out), nil
}

func decodeText(text string) ([]rune, error) {
	if !utf8.ValidString(text) {
		for i := 0; i < len(text); {
			r, size := utf8.DecodeRuneInString(text[i:])
			if r == utf8.RuneError && size <= 1 {
				return nil, fmt.Errorf("%w: invalid byte 0x%02x at offset %d", ErrEncoding, text[i], i)
			}
			i += size
		}
	}
	return []rune(text), nil
}
