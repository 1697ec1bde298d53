// Package huffman builds prefix codes from symbol frequencies and encodes or decodes
// symbol sequences against them.
//
// The package is generic over the symbol alphabet. Text is coded over runes, and the
// LZ78 index stream is coded over runes drawn from the decimal digits plus a separator.
package huffman

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// MaxCodeLen is the longest code a table can hold.
const MaxCodeLen = 64

var (
	// ErrCodeTooLong indicates a tree deeper than MaxCodeLen.
	ErrCodeTooLong = errors.New("huffman: code longer than 64 bits")
	// ErrNotPrefixFree indicates a code table where one code prefixes another.
	ErrNotPrefixFree = errors.New("huffman: code table is not prefix-free")
	// ErrInvalidCode indicates an empty, duplicate or malformed code.
	ErrInvalidCode = errors.New("huffman: invalid code")
	// ErrUnknownSymbol indicates a symbol absent from the code table.
	ErrUnknownSymbol = errors.New("huffman: symbol not in code table")
	// ErrDecode indicates a bit sequence that does not parse under the code table.
	ErrDecode = errors.New("huffman: undecodable bit sequence")
	// ErrInvalidFrequency indicates a zero count or a repeated symbol.
	ErrInvalidFrequency = errors.New("huffman: invalid frequency table")
)

// Code is a single codeword: the Len low bits of Bits, most significant first.
type Code struct {
	Bits uint64
	Len  uint8
}

// ParseCode parses a codeword written as '0' and '1' characters.
func ParseCode(s string) (Code, error) {
	if len(s) == 0 || len(s) > MaxCodeLen {
		return Code{}, fmt.Errorf("%w: length %d", ErrInvalidCode, len(s))
	}
	var c Code
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			c.Bits <<= 1
		case '1':
			c.Bits = c.Bits<<1 | 1
		default:
			return Code{}, fmt.Errorf("%w: character %q in %q", ErrInvalidCode, s[i], s)
		}
	}
	c.Len = uint8(len(s))
	return c, nil
}

// String renders the codeword as '0' and '1' characters.
func (c Code) String() string {
	var sb strings.Builder
	sb.Grow(int(c.Len))
	for i := int(c.Len) - 1; i >= 0; i-- {
		if c.Bits>>uint(i)&1 == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// extend returns c with one more bit appended.
func (c Code) extend(bit bool) Code {
	c.Bits <<= 1
	if bit {
		c.Bits |= 1
	}
	c.Len++
	return c
}

// CodeTable maps symbols to codewords. It is immutable; the zero value is an empty table.
type CodeTable[S cmp.Ordered] struct {
	codes   map[S]Code
	symbols map[Code]S
	order   []S
	maxLen  uint8
}

// NewCodeTable validates codes and returns them as a table. Every code must be
// non-empty and distinct, and no code may be a prefix of another.
func NewCodeTable[S cmp.Ordered](codes map[S]Code) (CodeTable[S], error) {
	t := CodeTable[S]{
		codes:   make(map[S]Code, len(codes)),
		symbols: make(map[Code]S, len(codes)),
		order:   make([]S, 0, len(codes)),
	}
	for sym, code := range codes {
		if code.Len == 0 || code.Len > MaxCodeLen {
			return CodeTable[S]{}, fmt.Errorf("%w: symbol %v has length %d", ErrInvalidCode, sym, code.Len)
		}
		if code.Len < 64 && code.Bits>>code.Len != 0 {
			return CodeTable[S]{}, fmt.Errorf("%w: symbol %v has bits beyond its length", ErrInvalidCode, sym)
		}
		if other, dup := t.symbols[code]; dup {
			return CodeTable[S]{}, fmt.Errorf("%w: symbols %v and %v share code %s", ErrInvalidCode, other, sym, code)
		}
		t.codes[sym] = code
		t.symbols[code] = sym
		t.order = append(t.order, sym)
		if code.Len > t.maxLen {
			t.maxLen = code.Len
		}
	}
	slices.Sort(t.order)

	// A prefix sorts directly before every string it prefixes, so adjacent
	// pairs are enough.
	rendered := make([]string, 0, len(codes))
	for _, code := range t.codes {
		rendered = append(rendered, code.String())
	}
	slices.Sort(rendered)
	for i := 1; i < len(rendered); i++ {
		if strings.HasPrefix(rendered[i], rendered[i-1]) {
			return CodeTable[S]{}, fmt.Errorf("%w: %s prefixes %s", ErrNotPrefixFree, rendered[i-1], rendered[i])
		}
	}
	return t, nil
}

// Code returns the codeword for sym.
func (t CodeTable[S]) Code(sym S) (Code, bool) {
	c, ok := t.codes[sym]
	return c, ok
}

// Lookup returns the symbol whose codeword is exactly c.
func (t CodeTable[S]) Lookup(c Code) (S, bool) {
	s, ok := t.symbols[c]
	return s, ok
}

// Len returns the number of symbols in the table.
func (t CodeTable[S]) Len() int {
	return len(t.order)
}

// Symbols returns the table's symbols in ascending order.
func (t CodeTable[S]) Symbols() []S {
	return slices.Clone(t.order)
}

// MaxLen returns the length of the longest codeword.
func (t CodeTable[S]) MaxLen() int {
	return int(t.maxLen)
}

// Equal reports whether both tables assign the same codes to the same symbols.
func (t CodeTable[S]) Equal(o CodeTable[S]) bool {
	if len(t.order) != len(o.order) {
		return false
	}
	for sym, code := range t.codes {
		if oc, ok := o.codes[sym]; !ok || oc != code {
			return false
		}
	}
	return true
}

// Lengths returns the code length of every symbol.
func (t CodeTable[S]) Lengths() map[S]int {
	lens := make(map[S]int, len(t.codes))
	for sym, code := range t.codes {
		lens[sym] = int(code.Len)
	}
	return lens
}
