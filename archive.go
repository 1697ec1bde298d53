package lz78huff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"unicode/utf8"

	"github.com/seiflotfy/lz78huff/bitstream"
	"github.com/seiflotfy/lz78huff/huffman"
	"github.com/seiflotfy/lz78huff/lz78"
)

// Version selects the archive layout.
type Version uint8

const (
	// VersionPlain stores the LZ78 dictionary and the full token stream.
	VersionPlain Version = 1
	// VersionHybrid stores the Huffman coded index stream and the literals only.
	VersionHybrid Version = 2
)

// Extension is the file suffix used for archives. Readers ignore it and rely on
// the magic number.
const Extension = ".lz78"

const (
	magicPlain  = "LZ78"
	magicHybrid = "LZ7H"
	magicLen    = 4
)

// Wire format, all integers little-endian:
//
//	magic[4]   = "LZ78" (version 1) or "LZ7H" (version 2)
//	version    = uint8
//	nameLen    = uint16, name = nameLen bytes UTF-8
//
// version 1:
//
//	dictCount  = uint32
//	repeat:    phraseLen uint16, phrase bytes, index uint32
//	tokenCount = uint32
//	repeat:    index uint32, charLen uint8, char bytes
//
// version 2:
//
//	codeCount  = uint32
//	repeat:    symbolLen uint16, symbol bytes, codeLen uint16, code as ASCII '0'/'1'
//	bitCount   = uint32, packed bits = ceil(bitCount/8) bytes, MSB first
//	charCount  = uint32
//	repeat:    charLen uint8, char bytes

func (v Version) magic() (string, bool) {
	switch v {
	case VersionPlain:
		return magicPlain, true
	case VersionHybrid:
		return magicHybrid, true
	}
	return "", false
}

func (v Version) String() string {
	switch v {
	case VersionPlain:
		return "plain"
	case VersionHybrid:
		return "hybrid"
	}
	return fmt.Sprintf("Version(%d)", uint8(v))
}

// Archive is the in-memory form of a persisted file.
type Archive struct {
	Version    Version
	Filename   string
	Tokens     []lz78.Token
	Dictionary *lz78.Dictionary

	// Hybrid only.
	Codes     huffman.CodeTable[rune]
	IndexBits bitstream.Bits
}

// NewArchive compresses text with the pipeline matching version.
func NewArchive(text, filename string, version Version, opts ...Option) (*Archive, error) {
	a := &Archive{Version: version, Filename: filename}
	switch version {
	case VersionPlain:
		if _, err := resolveConfig(opts); err != nil {
			return nil, err
		}
		tokens, dict, err := Compress(text)
		if err != nil {
			return nil, err
		}
		a.Tokens, a.Dictionary = tokens, dict
	case VersionHybrid:
		h, err := CompressHybrid(text, opts...)
		if err != nil {
			return nil, err
		}
		a.Tokens, a.Dictionary = h.Tokens, h.Dictionary
		a.Codes, a.IndexBits = h.Codes, h.IndexBits
	default:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, version)
	}
	return a, nil
}

// Text decompresses the archive. Hybrid archives are decoded from their
// literals, code table and index bits rather than from Tokens.
func (a *Archive) Text() (string, error) {
	switch a.Version {
	case VersionPlain:
		return Decompress(a.Tokens, a.Dictionary)
	case VersionHybrid:
		return DecompressHybrid(a.Literals(), a.Codes, a.IndexBits)
	}
	return "", fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, a.Version)
}

// Literals returns the symbol of every token in order.
func (a *Archive) Literals() []rune {
	return literalsOf(a.Tokens)
}

func (a *Archive) clone() *Archive {
	c := *a
	c.Tokens = slices.Clone(a.Tokens)
	return &c
}

// dictionary returns a.Dictionary, rebuilding it from the tokens when nil.
func (a *Archive) dictionary() (*lz78.Dictionary, error) {
	if a.Dictionary != nil {
		return a.Dictionary, nil
	}
	dict, err := lz78.Rebuild(a.Tokens)
	if err != nil {
		return nil, corruptWrap("tokens", err)
	}
	return dict, nil
}

// EncodedSize returns the number of bytes WriteTo produces, without writing.
func (a *Archive) EncodedSize() (int64, error) {
	if _, ok := a.Version.magic(); !ok {
		return 0, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, a.Version)
	}
	size := int64(magicLen + 1 + 2 + len(a.Filename))
	switch a.Version {
	case VersionPlain:
		dict, err := a.dictionary()
		if err != nil {
			return 0, err
		}
		size += 4
		for _, e := range dict.Entries() {
			size += int64(2 + len(e.Phrase) + 4)
		}
		size += 4
		for _, t := range a.Tokens {
			size += int64(4 + 1 + utf8.RuneLen(t.Symbol))
		}
	case VersionHybrid:
		size += 4
		for _, sym := range a.Codes.Symbols() {
			code, _ := a.Codes.Code(sym)
			size += int64(2 + utf8.RuneLen(sym) + 2 + int(code.Len))
		}
		size += int64(4 + bitstream.ByteLen(a.IndexBits.Len()))
		size += 4
		for _, t := range a.Tokens {
			size += int64(1 + utf8.RuneLen(t.Symbol))
		}
	}
	return size, nil
}

// validateArchive checks that the fields agree with each other before writing.
func validateArchive(a *Archive) error {
	if _, ok := a.Version.magic(); !ok {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, a.Version)
	}
	if len(a.Filename) > math.MaxUint16 {
		return fmt.Errorf("%w: filename is %d bytes, limit %d", ErrInvalidFormat, len(a.Filename), math.MaxUint16)
	}
	if !utf8.ValidString(a.Filename) {
		return fmt.Errorf("%w: filename is not valid UTF-8", ErrEncoding)
	}
	if uint64(len(a.Tokens)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d tokens exceed the format limit", ErrInvalidFormat, len(a.Tokens))
	}

	rebuilt, err := lz78.Rebuild(a.Tokens)
	if err != nil {
		return corruptWrap("tokens", err)
	}
	if a.Dictionary != nil && !a.Dictionary.Equal(rebuilt) {
		return corruptf("dictionary does not match tokens")
	}

	if a.Version == VersionHybrid {
		if a.IndexBits.Len() > math.MaxUint32 {
			return fmt.Errorf("%w: %d index bits exceed the format limit", ErrInvalidFormat, a.IndexBits.Len())
		}
		recovered, err := recoverTokens(a.Literals(), a.Codes, a.IndexBits)
		if err != nil {
			return err
		}
		if !slices.Equal(recovered, a.Tokens) {
			return corruptf("index stream does not match tokens")
		}
	}
	return nil
}

// WriteTo serializes the Archive to an io.Writer.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	if err := validateArchive(a); err != nil {
		return 0, fmt.Errorf("invalid archive: %w", err)
	}

	ww := &wireWriter{w: w}
	magic, _ := a.Version.magic()
	ww.bytes([]byte(magic))
	ww.u8(uint8(a.Version))
	ww.u16(uint16(len(a.Filename)))
	ww.bytes([]byte(a.Filename))

	switch a.Version {
	case VersionPlain:
		a.writePlain(ww)
	case VersionHybrid:
		a.writeHybrid(ww)
	}
	return ww.n, ww.err
}

func (a *Archive) writePlain(ww *wireWriter) {
	// validateArchive already proved the tokens rebuild cleanly.
	dict, _ := a.dictionary()
	entries := dict.Entries()
	ww.u32(uint32(len(entries)))
	for _, e := range entries {
		if len(e.Phrase) > math.MaxUint16 {
			ww.fail(fmt.Errorf("%w: phrase %d is %d bytes, limit %d", ErrInvalidFormat, e.Index, len(e.Phrase), math.MaxUint16))
			return
		}
		ww.u16(uint16(len(e.Phrase)))
		ww.bytes([]byte(e.Phrase))
		ww.u32(e.Index)
	}

	ww.u32(uint32(len(a.Tokens)))
	var buf [utf8.UTFMax]byte
	for _, t := range a.Tokens {
		ww.u32(t.Index)
		n := utf8.EncodeRune(buf[:], t.Symbol)
		ww.u8(uint8(n))
		ww.bytes(buf[:n])
	}
}

func (a *Archive) writeHybrid(ww *wireWriter) {
	var buf [utf8.UTFMax]byte

	symbols := a.Codes.Symbols()
	ww.u32(uint32(len(symbols)))
	for _, sym := range symbols {
		code, _ := a.Codes.Code(sym)
		n := utf8.EncodeRune(buf[:], sym)
		ww.u16(uint16(n))
		ww.bytes(buf[:n])
		text := code.String()
		ww.u16(uint16(len(text)))
		ww.bytes([]byte(text))
	}

	ww.u32(uint32(a.IndexBits.Len()))
	ww.bytes(bitstream.Pack(a.IndexBits))

	ww.u32(uint32(len(a.Tokens)))
	for _, t := range a.Tokens {
		n := utf8.EncodeRune(buf[:], t.Symbol)
		ww.u8(uint8(n))
		ww.bytes(buf[:n])
	}
}

// ReadFrom deserializes an Archive from an io.Reader. Hybrid archives get
// their token indices and dictionary rebuilt from the index stream.
func (a *Archive) ReadFrom(r io.Reader) (int64, error) {
	wr := &wireReader{r: r}

	var magic [magicLen]byte
	if err := wr.full(magic[:]); err != nil {
		return wr.n, fmt.Errorf("%w: read magic: %w", ErrInvalidFormat, err)
	}
	var want Version
	switch string(magic[:]) {
	case magicPlain:
		want = VersionPlain
	case magicHybrid:
		want = VersionHybrid
	default:
		return wr.n, fmt.Errorf("%w: invalid magic %q at offset 0", ErrInvalidFormat, string(magic[:]))
	}

	versionOffset := wr.n
	version, err := wr.u8("version")
	if err != nil {
		return wr.n, err
	}
	if Version(version) != want {
		return wr.n, fmt.Errorf("%w: unsupported version %d for magic %q at offset %d", ErrInvalidFormat, version, string(magic[:]), versionOffset)
	}

	tmp := Archive{Version: want}
	if tmp.Filename, err = wr.str16("filename"); err != nil {
		return wr.n, err
	}

	switch want {
	case VersionPlain:
		err = tmp.readPlain(wr)
	case VersionHybrid:
		err = tmp.readHybrid(wr)
	}
	if err != nil {
		return wr.n, err
	}

	*a = tmp
	return wr.n, nil
}

func (a *Archive) readPlain(wr *wireReader) error {
	dictCount, err := wr.u32("dictionary count")
	if err != nil {
		return err
	}
	entries := make([]lz78.Entry, 0, min(int(dictCount), 1<<16))
	for i := uint32(0); i < dictCount; i++ {
		phrase, err := wr.str16("dictionary phrase")
		if err != nil {
			return err
		}
		index, err := wr.u32("dictionary index")
		if err != nil {
			return err
		}
		entries = append(entries, lz78.Entry{Phrase: phrase, Index: index})
	}
	dict, err := lz78.FromEntries(entries)
	if err != nil {
		return corruptWrap("dictionary", err)
	}

	tokenCount, err := wr.u32("token count")
	if err != nil {
		return err
	}
	tokens := make([]lz78.Token, 0, min(int(tokenCount), 1<<16))
	for i := uint32(0); i < tokenCount; i++ {
		index, err := wr.u32("token index")
		if err != nil {
			return err
		}
		sym, err := wr.char("token char")
		if err != nil {
			return err
		}
		tokens = append(tokens, lz78.Token{Index: index, Symbol: sym})
	}

	rebuilt, err := lz78.Rebuild(tokens)
	if err != nil {
		return corruptWrap("tokens", err)
	}
	if !rebuilt.Equal(dict) {
		return corruptf("stored dictionary (%d entries) does not match tokens (%d entries)", dict.Len(), rebuilt.Len())
	}
	a.Tokens, a.Dictionary = tokens, dict
	return nil
}

func (a *Archive) readHybrid(wr *wireReader) error {
	codeCount, err := wr.u32("code count")
	if err != nil {
		return err
	}
	codes := make(map[rune]huffman.Code, min(int(codeCount), 1<<10))
	for i := uint32(0); i < codeCount; i++ {
		symOffset := wr.n
		symText, err := wr.str16("code symbol")
		if err != nil {
			return err
		}
		sym, ok := singleRune(symText)
		if !ok {
			return corruptf("code symbol %q at offset %d is not a single character", symText, symOffset)
		}
		codeOffset := wr.n
		codeText, err := wr.str16("code")
		if err != nil {
			return err
		}
		code, err := huffman.ParseCode(codeText)
		if err != nil {
			return corruptWrap(fmt.Sprintf("code at offset %d", codeOffset), err)
		}
		if _, dup := codes[sym]; dup {
			return corruptf("symbol %q listed twice in code table", sym)
		}
		codes[sym] = code
	}
	table, err := huffman.NewCodeTable(codes)
	if err != nil {
		return corruptWrap("code table", err)
	}

	bitCount, err := wr.u32("index bit count")
	if err != nil {
		return err
	}
	packed, err := wr.take(bitstream.ByteLen(int(bitCount)), "index bits")
	if err != nil {
		return err
	}
	bits, err := bitstream.Unpack(packed, int(bitCount))
	if err != nil {
		return corruptWrap("index bits", err)
	}

	charCount, err := wr.u32("char count")
	if err != nil {
		return err
	}
	literals := make([]rune, 0, min(int(charCount), 1<<16))
	for i := uint32(0); i < charCount; i++ {
		sym, err := wr.char("char")
		if err != nil {
			return err
		}
		literals = append(literals, sym)
	}

	tokens, err := recoverTokens(literals, table, bits)
	if err != nil {
		return err
	}
	dict, err := lz78.Rebuild(tokens)
	if err != nil {
		return corruptWrap("rebuild dictionary", err)
	}
	a.Tokens, a.Dictionary = tokens, dict
	a.Codes, a.IndexBits = table, bits
	return nil
}

func singleRune(s string) (rune, bool) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || (r == utf8.RuneError && size == 1) {
		return 0, false
	}
	return r, true
}

// wireWriter writes little-endian fields and keeps the first error.
type wireWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (ww *wireWriter) fail(err error) {
	if ww.err == nil {
		ww.err = err
	}
}

func (ww *wireWriter) bytes(b []byte) {
	if ww.err != nil || len(b) == 0 {
		return
	}
	n, err := ww.w.Write(b)
	ww.n += int64(n)
	if err == nil && n != len(b) {
		err = io.ErrShortWrite
	}
	ww.fail(err)
}

func (ww *wireWriter) u8(v uint8) {
	ww.bytes([]byte{v})
}

func (ww *wireWriter) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	ww.bytes(b[:])
}

func (ww *wireWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	ww.bytes(b[:])
}

// wireReader reads little-endian fields and reports failures with their offset.
type wireReader struct {
	r io.Reader
	n int64
}

func (wr *wireReader) full(b []byte) error {
	n, err := io.ReadFull(wr.r, b)
	wr.n += int64(n)
	return err
}

func (wr *wireReader) short(field string, offset int64, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: read %s at offset %d: %w", ErrCorruptData, field, offset, err)
}

func (wr *wireReader) u8(field string) (uint8, error) {
	offset := wr.n
	var b [1]byte
	if err := wr.full(b[:]); err != nil {
		return 0, wr.short(field, offset, err)
	}
	return b[0], nil
}

func (wr *wireReader) u16(field string) (uint16, error) {
	offset := wr.n
	var b [2]byte
	if err := wr.full(b[:]); err != nil {
		return 0, wr.short(field, offset, err)
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func (wr *wireReader) u32(field string) (uint32, error) {
	offset := wr.n
	var b [4]byte
	if err := wr.full(b[:]); err != nil {
		return 0, wr.short(field, offset, err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// take reads exactly n bytes. Large lengths are read incrementally so a corrupt
// count cannot force a huge allocation before the data runs out.
func (wr *wireReader) take(n int, field string) ([]byte, error) {
	offset := wr.n
	const chunk = 1 << 16
	buf := make([]byte, 0, min(n, chunk))
	for len(buf) < n {
		step := min(n-len(buf), chunk)
		start := len(buf)
		buf = append(buf, make([]byte, step)...)
		if err := wr.full(buf[start:]); err != nil {
			return nil, wr.short(field, offset, err)
		}
	}
	return buf, nil
}

func (wr *wireReader) str16(field string) (string, error) {
	offset := wr.n
	n, err := wr.u16(field + " length")
	if err != nil {
		return "", err
	}
	b, err := wr.take(int(n), field)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", corruptf("%s at offset %d is not valid UTF-8", field, offset)
	}
	return string(b), nil
}

func (wr *wireReader) char(field string) (rune, error) {
	offset := wr.n
	n, err := wr.u8(field + " length")
	if err != nil {
		return 0, err
	}
	if n == 0 || n > utf8.UTFMax {
		return 0, corruptf("%s at offset %d has length %d", field, offset, n)
	}
	b, err := wr.take(int(n), field)
	if err != nil {
		return 0, err
	}
	r, ok := singleRune(string(b))
	if !ok {
		return 0, corruptf("%s at offset %d is not a single UTF-8 character", field, offset)
	}
	return r, nil
}
