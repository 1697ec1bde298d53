package huffman

import (
	"cmp"
	"fmt"
	"math"
)

// Metrics describes how close a code comes to the entropy of its source.
type Metrics struct {
	Entropy       float64 // bits per symbol, -Σ p·log2 p
	AverageLength float64 // bits per symbol, Σ p·len(code)
	Efficiency    float64 // Entropy / AverageLength, 0 when AverageLength is 0
}

// Measure computes Metrics for freqs coded with table.
func Measure[S cmp.Ordered](freqs Frequencies[S], table CodeTable[S]) (Metrics, error) {
	total := freqs.Total()
	if total == 0 {
		return Metrics{}, nil
	}

	var m Metrics
	for _, f := range freqs {
		if f.Count == 0 {
			continue
		}
		code, ok := table.Code(f.Symbol)
		if !ok {
			return Metrics{}, fmt.Errorf("%w: %v", ErrUnknownSymbol, f.Symbol)
		}
		p := float64(f.Count) / float64(total)
		m.Entropy -= p * math.Log2(p)
		m.AverageLength += p * float64(code.Len)
	}
	if m.AverageLength > 0 {
		m.Efficiency = m.Entropy / m.AverageLength
	}
	return m, nil
}
