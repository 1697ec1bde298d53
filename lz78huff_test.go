package lz78huff

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/seiflotfy/lz78huff/huffman"
	"github.com/seiflotfy/lz78huff/lz78"
)

// ============================================================================
// Helper Functions
// ============================================================================

var sampleTexts = []string{
	"",
	"a",
	"ab",
	"CASA",
	"abababab",
	"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	"TOBEORNOTTOBEORTOBEORNOT",
	"the quick brown fox jumps over the lazy dog",
	"héllo wörld, ☃ and 日本語",
	"line one\nline two\n\ttabbed | piped 0123456789",
}

func proseText(repeat int) string {
	const para = "It was the best of times, it was the worst of times, it was the age of wisdom, " +
		"it was the age of foolishness, it was the epoch of belief, it was the epoch of incredulity.\n"
	return strings.Repeat(para, repeat)
}

func mustHybrid(t testing.TB, text string, opts ...Option) *Hybrid {
	t.Helper()
	h, err := CompressHybrid(text, opts...)
	if err != nil {
		t.Fatalf("CompressHybrid(%q) failed: %v", text, err)
	}
	return h
}

// ============================================================================
// Plain LZ78
// ============================================================================

func TestCompressRoundTrip(t *testing.T) {
	for i, text := range append(sampleTexts, proseText(20)) {
		t.Run(fmt.Sprintf("input_%d", i), func(t *testing.T) {
			tokens, dict, err := Compress(text)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			got, err := Decompress(tokens, dict)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			if got != text {
				t.Fatalf("round trip mismatch: expected %q, got %q", text, got)
			}
		})
	}
}

func TestCompressAbababab(t *testing.T) {
	tokens, dict, err := Compress("abababab")
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	expected := []lz78.Token{
		{Index: 0, Symbol: 'a'},
		{Index: 0, Symbol: 'b'},
		{Index: 1, Symbol: 'b'},
		{Index: 3, Symbol: 'a'},
		{Index: 0, Symbol: 'b'},
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i := range expected {
		if tokens[i] != expected[i] {
			t.Errorf("token %d: expected %v, got %v", i, expected[i], tokens[i])
		}
	}
	if dict.Len() != 4 {
		t.Errorf("expected 4 dictionary entries, got %d", dict.Len())
	}
	if idx, ok := dict.Index("aba"); !ok || idx != 4 {
		t.Errorf("expected aba at index 4, got %d (%v)", idx, ok)
	}
}

func TestCompressEmpty(t *testing.T) {
	tokens, dict, err := Compress("")
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if len(tokens) != 0 || dict.Len() != 0 {
		t.Fatalf("expected no tokens and an empty dictionary, got %d tokens, %d entries", len(tokens), dict.Len())
	}
	got, err := Decompress(nil, nil)
	if err != nil || got != "" {
		t.Fatalf("expected empty text, got %q (%v)", got, err)
	}
}

func TestCompressInvalidUTF8(t *testing.T) {
	_, _, err := Compress("ok\xffno")
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
	if !strings.Contains(err.Error(), "offset 2") {
		t.Fatalf("expected error to include the byte offset, got %v", err)
	}
	if _, err := CompressHybrid("\xc3"); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding from CompressHybrid, got %v", err)
	}
}

func TestDecompressCorruptTokens(t *testing.T) {
	_, err := Decompress([]lz78.Token{{Index: 0, Symbol: 'a'}, {Index: 5, Symbol: 'b'}}, nil)
	if !errors.Is(err, ErrCorruptData) {
		t.Fatalf("expected ErrCorruptData, got %v", err)
	}
	if !errors.Is(err, lz78.ErrCorruptStream) {
		t.Fatalf("expected the lz78 cause to be wrapped, got %v", err)
	}
}

// ============================================================================
// Hybrid LZ78 + Huffman
// ============================================================================

func TestHybridRoundTrip(t *testing.T) {
	for i, text := range append(sampleTexts, proseText(20)) {
		t.Run(fmt.Sprintf("input_%d", i), func(t *testing.T) {
			h := mustHybrid(t, text)
			got, err := DecompressHybrid(h.Literals(), h.Codes, h.IndexBits)
			if err != nil {
				t.Fatalf("DecompressHybrid failed: %v", err)
			}
			if got != text {
				t.Fatalf("round trip mismatch: expected %q, got %q", text, got)
			}
		})
	}
}

func TestHybridCASA(t *testing.T) {
	h := mustHybrid(t, "CASA")

	// Index stream "0|0|0|0": '|' (3) is merged first and takes bit 0.
	if h.IndexBits.String() != "1010101" {
		t.Fatalf("expected index bits 1010101, got %s", h.IndexBits)
	}
	if string(h.Literals()) != "CASA" {
		t.Fatalf("expected literals CASA, got %q", string(h.Literals()))
	}
	if h.Codes.Len() != 2 {
		t.Fatalf("expected 2 index codes, got %d", h.Codes.Len())
	}
	if h.Frequencies.Total() != 7 {
		t.Fatalf("expected 7 index symbols, got %d", h.Frequencies.Total())
	}
}

func TestHybridEmpty(t *testing.T) {
	h := mustHybrid(t, "")
	if len(h.Tokens) != 0 || h.Codes.Len() != 0 || h.IndexBits.Len() != 0 {
		t.Fatalf("expected empty hybrid output, got %d tokens, %d codes, %d bits",
			len(h.Tokens), h.Codes.Len(), h.IndexBits.Len())
	}
	got, err := DecompressHybrid(nil, h.Codes, h.IndexBits)
	if err != nil || got != "" {
		t.Fatalf("expected empty text, got %q (%v)", got, err)
	}
}

func TestHybridSingleToken(t *testing.T) {
	h := mustHybrid(t, "x")
	if len(h.Tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(h.Tokens))
	}
	// A single index needs no separator in the code table.
	if h.Codes.Len() != 1 {
		t.Fatalf("expected 1 index code, got %d", h.Codes.Len())
	}
	got, err := DecompressHybrid(h.Literals(), h.Codes, h.IndexBits)
	if err != nil || got != "x" {
		t.Fatalf("expected x, got %q (%v)", got, err)
	}
}

func TestReconstructDictionaryMatchesPlain(t *testing.T) {
	for i, text := range append(sampleTexts, proseText(10)) {
		t.Run(fmt.Sprintf("input_%d", i), func(t *testing.T) {
			_, plain, err := Compress(text)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			h := mustHybrid(t, text)
			dict, err := ReconstructDictionary(h.Literals(), h.Codes, h.IndexBits)
			if err != nil {
				t.Fatalf("ReconstructDictionary failed: %v", err)
			}
			if !dict.Equal(plain) {
				t.Fatalf("reconstructed dictionary (%d entries) differs from plain (%d entries)", dict.Len(), plain.Len())
			}
		})
	}
}

func TestHybridSeparatorOption(t *testing.T) {
	text := proseText(3)
	h := mustHybrid(t, text, WithSeparator(','))
	if _, ok := h.Codes.Code(','); !ok {
		t.Fatalf("expected ',' in index code table, symbols %q", string(h.Codes.Symbols()))
	}
	if _, ok := h.Codes.Code('|'); ok {
		t.Fatalf("default separator should not be coded when ',' is chosen")
	}
	got, err := DecompressHybrid(h.Literals(), h.Codes, h.IndexBits)
	if err != nil || got != text {
		t.Fatalf("round trip with ',' separator failed: %v", err)
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"digit separator", WithSeparator('7')},
		{"unicode digit separator", WithSeparator('٣')},
		{"surrogate separator", WithSeparator(0xD800)},
		{"negative cache", WithCacheSize(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := resolveConfig([]Option{tt.opt}); !errors.Is(err, ErrInvalidOption) {
				t.Fatalf("expected ErrInvalidOption, got %v", err)
			}
		})
	}
}

func TestHybridRejectsMismatchedLiterals(t *testing.T) {
	h := mustHybrid(t, "TOBEORNOTTOBEORTOBEORNOT")
	literals := h.Literals()

	if _, err := DecompressHybrid(literals[:len(literals)-1], h.Codes, h.IndexBits); !errors.Is(err, ErrCorruptData) {
		t.Fatalf("expected ErrCorruptData for missing literal, got %v", err)
	}
	if _, err := DecompressHybrid(nil, h.Codes, h.IndexBits); !errors.Is(err, ErrCorruptData) {
		t.Fatalf("expected ErrCorruptData for bits without literals, got %v", err)
	}
}

func TestParseIndexStream(t *testing.T) {
	tests := []struct {
		in      string
		want    []uint32
		wantErr bool
	}{
		{in: "0", want: []uint32{0}},
		{in: "0|1|12|007", want: []uint32{0, 1, 12, 7}},
		{in: "4294967295", want: []uint32{4294967295}},
		{in: "4294967296", wantErr: true},
		{in: "1||2", wantErr: true},
		{in: "|1", wantErr: true},
		{in: "1|", wantErr: true},
		{in: "", wantErr: true},
		{in: "1,2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseIndexStream([]rune(tt.in), '|')
			if tt.wantErr {
				if !errors.Is(err, ErrCorruptData) {
					t.Fatalf("expected ErrCorruptData, got %v (%v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIndexStream failed: %v", err)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSeparatorOfRejectsTwoSeparators(t *testing.T) {
	table, err := huffman.NewCodeTable(map[rune]huffman.Code{
		'0': {Bits: 0b0, Len: 1},
		'|': {Bits: 0b10, Len: 2},
		',': {Bits: 0b11, Len: 2},
	})
	if err != nil {
		t.Fatalf("NewCodeTable failed: %v", err)
	}
	if _, err := separatorOf(table); !errors.Is(err, ErrCorruptData) {
		t.Fatalf("expected ErrCorruptData, got %v", err)
	}
}

// ============================================================================
// Fuzz Tests
// ============================================================================

func FuzzHybridRoundTrip(f *testing.F) {
	for _, s := range sampleTexts {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, text string) {
		h, err := CompressHybrid(text)
		if err != nil {
			if !errors.Is(err, ErrEncoding) {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}
		got, err := DecompressHybrid(h.Literals(), h.Codes, h.IndexBits)
		if err != nil {
			t.Fatalf("DecompressHybrid failed: %v", err)
		}
		if got != text {
			t.Fatalf("round trip mismatch: expected %q, got %q", text, got)
		}
	})
}

// ============================================================================
// Benchmarks
// ============================================================================

func BenchmarkCompress(b *testing.B) {
	text := proseText(200)
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := Compress(text); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompressHybrid(b *testing.B) {
	text := proseText(200)
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	var h *Hybrid
	for i := 0; i < b.N; i++ {
		var err error
		if h, err = CompressHybrid(text); err != nil {
			b.Fatal(err)
		}
	}
	b.StopTimer()
	a := &Archive{Version: VersionHybrid, Tokens: h.Tokens, Dictionary: h.Dictionary, Codes: h.Codes, IndexBits: h.IndexBits}
	size, err := a.EncodedSize()
	if err != nil {
		b.Fatal(err)
	}
	b.ReportMetric(float64(len(text))/float64(size), "ratio")
}

func BenchmarkDecompressHybrid(b *testing.B) {
	text := proseText(200)
	h := mustHybrid(b, text)
	literals := h.Literals()
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecompressHybrid(literals, h.Codes, h.IndexBits); err != nil {
			b.Fatal(err)
		}
	}
}
