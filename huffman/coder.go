package huffman

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/seiflotfy/lz78huff/bitstream"
)

// Frequency is the occurrence count of one symbol.
type Frequency[S cmp.Ordered] struct {
	Symbol S
	Count  uint64
}

// Frequencies is an ordered frequency table. Build seeds its priority queue in
// this order, so the order decides ties between equal counts.
type Frequencies[S cmp.Ordered] []Frequency[S]

// Count tallies symbols. The result is sorted by descending count, then by
// ascending symbol.
func Count[S cmp.Ordered](symbols []S) Frequencies[S] {
	counts := make(map[S]uint64)
	for _, s := range symbols {
		counts[s]++
	}
	freqs := make(Frequencies[S], 0, len(counts))
	for s, c := range counts {
		freqs = append(freqs, Frequency[S]{Symbol: s, Count: c})
	}
	slices.SortFunc(freqs, func(a, b Frequency[S]) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Symbol, b.Symbol)
	})
	return freqs
}

// Total returns the sum of all counts.
func (f Frequencies[S]) Total() uint64 {
	var total uint64
	for _, e := range f {
		total += e.Count
	}
	return total
}

// Encode concatenates the codeword of every symbol in input order.
func Encode[S cmp.Ordered](symbols []S, table CodeTable[S]) (bitstream.Bits, error) {
	w := bitstream.NewWriter()
	for i, s := range symbols {
		code, ok := table.Code(s)
		if !ok {
			return bitstream.Bits{}, fmt.Errorf("%w: %v at position %d", ErrUnknownSymbol, s, i)
		}
		w.WriteCode(code.Bits, code.Len)
	}
	return w.Bits()
}

// Decode reads codewords from bits until they are exhausted. A trailing partial
// codeword, or a run of bits longer than any codeword, fails with ErrDecode.
func Decode[S cmp.Ordered](bits bitstream.Bits, table CodeTable[S]) ([]S, error) {
	if bits.Len() == 0 {
		return nil, nil
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("%w: %d bits with an empty code table", ErrDecode, bits.Len())
	}

	out := make([]S, 0, bits.Len()/table.MaxLen())
	r := bits.Reader()
	var pending Code
	pos := 0
	for {
		bit, err := r.ReadBit()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		pos++
		pending = pending.extend(bit)
		if sym, ok := table.Lookup(pending); ok {
			out = append(out, sym)
			pending = Code{}
			continue
		}
		if int(pending.Len) >= table.MaxLen() {
			return nil, fmt.Errorf("%w: no codeword matches %s ending at bit %d", ErrDecode, pending, pos)
		}
	}
	if pending.Len != 0 {
		return nil, fmt.Errorf("%w: %d dangling bits %s", ErrDecode, pending.Len, pending)
	}
	return out, nil
}
