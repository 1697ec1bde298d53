package lz78

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// edge identifies a dictionary phrase by its parent phrase and final symbol.
type edge struct {
	parent uint32
	symbol rune
}

// Dictionary maps phrases to indices 1..N in insertion order.
//
// Phrases are stored as a trie: entry i is the token (parent, symbol) that
// created it, so phrase i is phrase(parent) followed by symbol. A Dictionary
// returned by this package is never modified afterwards.
type Dictionary struct {
	children map[edge]uint32
	entries  []Token
}

// Entry is one phrase with its index.
type Entry struct {
	Phrase string
	Index  uint32
}

func newDictionary(capacity int) *Dictionary {
	return &Dictionary{
		children: make(map[edge]uint32, capacity),
		entries:  make([]Token, 0, capacity),
	}
}

func (d *Dictionary) lookup(parent uint32, symbol rune) (uint32, bool) {
	idx, ok := d.children[edge{parent: parent, symbol: symbol}]
	return idx, ok
}

func (d *Dictionary) insert(parent uint32, symbol rune) uint32 {
	d.entries = append(d.entries, Token{Index: parent, Symbol: symbol})
	idx := uint32(len(d.entries))
	d.children[edge{parent: parent, symbol: symbol}] = idx
	return idx
}

// Len returns the number of phrases.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Index returns the index of phrase.
func (d *Dictionary) Index(phrase string) (uint32, bool) {
	if d == nil || phrase == "" {
		return 0, false
	}
	var idx uint32
	for _, r := range phrase {
		next, ok := d.lookup(idx, r)
		if !ok {
			return 0, false
		}
		idx = next
	}
	return idx, true
}

// Entry returns the (parent, symbol) pair that defines phrase i.
func (d *Dictionary) Entry(i uint32) (Token, bool) {
	if i == 0 || int(i) > d.Len() {
		return Token{}, false
	}
	return d.entries[i-1], true
}

// Phrase returns the phrase stored at index i.
func (d *Dictionary) Phrase(i uint32) (string, bool) {
	if i == 0 || int(i) > d.Len() {
		return "", false
	}
	var rev []rune
	for i != 0 {
		e := d.entries[i-1]
		rev = append(rev, e.Symbol)
		i = e.Index
	}
	slices.Reverse(rev)
	return string(rev), true
}

// Entries returns every phrase in index order.
func (d *Dictionary) Entries() []Entry {
	n := d.Len()
	if n == 0 {
		return nil
	}
	// Parents always precede children, so phrases can be built front to back.
	phrases := make([]string, n)
	out := make([]Entry, n)
	var sb strings.Builder
	for i, e := range d.entries {
		sb.Reset()
		if e.Index != 0 {
			sb.WriteString(phrases[e.Index-1])
		}
		sb.WriteRune(e.Symbol)
		phrases[i] = sb.String()
		out[i] = Entry{Phrase: phrases[i], Index: uint32(i + 1)}
	}
	return out
}

// Equal reports whether both dictionaries hold the same phrase to index mapping.
func (d *Dictionary) Equal(o *Dictionary) bool {
	if d.Len() != o.Len() {
		return false
	}
	if d.Len() == 0 {
		return true
	}
	return slices.Equal(d.entries, o.entries)
}

// FromEntries rebuilds a dictionary from persisted phrases. Indices must form the
// range 1..N, phrases must be distinct, and every phrase minus its last symbol
// must itself be present with a lower index.
func FromEntries(entries []Entry) (*Dictionary, error) {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b Entry) int {
		switch {
		case a.Index < b.Index:
			return -1
		case a.Index > b.Index:
			return 1
		}
		return 0
	})

	d := newDictionary(len(sorted))
	for i, e := range sorted {
		if e.Index != uint32(i+1) {
			return nil, fmt.Errorf("%w: expected index %d, found %d", ErrCorruptDictionary, i+1, e.Index)
		}
		if e.Phrase == "" || !utf8.ValidString(e.Phrase) {
			return nil, fmt.Errorf("%w: index %d has an empty or invalid phrase", ErrCorruptDictionary, e.Index)
		}
		last, size := utf8.DecodeLastRuneInString(e.Phrase)
		prefix := e.Phrase[:len(e.Phrase)-size]
		var parent uint32
		if prefix != "" {
			p, ok := d.Index(prefix)
			if !ok {
				return nil, fmt.Errorf("%w: prefix of phrase %d is not defined before it", ErrCorruptDictionary, e.Index)
			}
			parent = p
		}
		if _, dup := d.lookup(parent, last); dup {
			return nil, fmt.Errorf("%w: phrase at index %d is a duplicate", ErrCorruptDictionary, e.Index)
		}
		d.insert(parent, last)
	}
	return d, nil
}
