// Package lz78 implements the LZ78 dictionary transform over runes.
//
// Compression emits (parent index, symbol) tokens while growing a phrase
// dictionary; decompression replays the tokens and rebuilds the same dictionary,
// so the dictionary never needs to be stored next to the tokens.
package lz78

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrCorruptStream indicates a token that references an index not yet defined,
	// or carries an invalid symbol.
	ErrCorruptStream = errors.New("lz78: corrupt token stream")
	// ErrCorruptDictionary indicates persisted dictionary entries that do not form
	// a valid LZ78 dictionary.
	ErrCorruptDictionary = errors.New("lz78: corrupt dictionary")
)

// Token is one unit of LZ78 output. Index 0 means the phrase is Symbol alone;
// otherwise the phrase is dictionary phrase Index followed by Symbol.
type Token struct {
	Index  uint32
	Symbol rune
}

// Compress runs LZ78 over symbols. Every call starts from an empty dictionary.
//
// When the input ends inside a phrase that is already in the dictionary, one
// extra token is emitted for it: its parent index and its last symbol. That token
// does not add a dictionary entry.
func Compress(symbols []rune) ([]Token, *Dictionary) {
	dict := newDictionary(len(symbols) / 2)
	tokens := make([]Token, 0, len(symbols)/2)

	var current uint32 // index of the phrase matched so far, 0 when empty
	for _, s := range symbols {
		if next, ok := dict.lookup(current, s); ok {
			current = next
			continue
		}
		dict.insert(current, s)
		tokens = append(tokens, Token{Index: current, Symbol: s})
		current = 0
	}
	if current != 0 {
		tokens = append(tokens, dict.entries[current-1])
	}
	return tokens, dict
}

// phraseSpan locates a phrase in the decompressed output.
type phraseSpan struct {
	off int
	n   int
}

// Decompress replays tokens left to right. Token i (1-based) defines phrase i,
// and may only reference phrases 1..i-1.
func Decompress(tokens []Token) ([]rune, error) {
	phrases := make([]phraseSpan, 0, len(tokens))
	out := make([]rune, 0, len(tokens)*2)

	for i, t := range tokens {
		if !utf8.ValidRune(t.Symbol) {
			return nil, fmt.Errorf("%w: token %d has invalid symbol %U", ErrCorruptStream, i, t.Symbol)
		}
		start := len(out)
		if t.Index != 0 {
			if int(t.Index) > len(phrases) {
				return nil, fmt.Errorf("%w: token %d references index %d, only %d defined", ErrCorruptStream, i, t.Index, len(phrases))
			}
			p := phrases[t.Index-1]
			out = append(out, out[p.off:p.off+p.n]...)
		}
		out = append(out, t.Symbol)
		phrases = append(phrases, phraseSpan{off: start, n: len(out) - start})
	}
	return out, nil
}

// Rebuild reconstructs the dictionary Compress produced for tokens. A token that
// repeats an existing phrase is only valid as the final token.
func Rebuild(tokens []Token) (*Dictionary, error) {
	dict := newDictionary(len(tokens))
	for i, t := range tokens {
		if !utf8.ValidRune(t.Symbol) {
			return nil, fmt.Errorf("%w: token %d has invalid symbol %U", ErrCorruptStream, i, t.Symbol)
		}
		if int(t.Index) > dict.Len() {
			return nil, fmt.Errorf("%w: token %d references index %d, only %d defined", ErrCorruptStream, i, t.Index, dict.Len())
		}
		if _, exists := dict.lookup(t.Index, t.Symbol); exists {
			if i == len(tokens)-1 {
				break
			}
			return nil, fmt.Errorf("%w: token %d repeats an existing phrase", ErrCorruptStream, i)
		}
		dict.insert(t.Index, t.Symbol)
	}
	return dict, nil
}
