// Package bitstream packs ordered bit sequences into bytes, most significant bit first.
//
// A Bits value always carries its exact bit count next to the packed bytes, so the
// zero padding of the final byte is trimmed by count rather than guessed from the
// byte length.
package bitstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/icza/bitio"
)

var (
	// ErrShortData indicates fewer packed bytes than the bit count requires.
	ErrShortData = errors.New("bitstream: packed data shorter than bit count")
	// ErrTrailingData indicates more packed bytes than the bit count requires.
	ErrTrailingData = errors.New("bitstream: packed data longer than bit count")
	// ErrInvalidBit indicates a textual bit that is neither '0' nor '1'.
	ErrInvalidBit = errors.New("bitstream: invalid bit character")
)

// Bits is an immutable sequence of bits.
type Bits struct {
	data []byte
	n    int
}

// ByteLen returns the number of bytes needed to hold n bits.
func ByteLen(n int) int {
	return (n + 7) / 8
}

// Unpack wraps packed bytes holding exactly n bits. Padding bits past n in the
// final byte are cleared so two unpacked values with the same bits compare equal.
func Unpack(data []byte, n int) (Bits, error) {
	if n < 0 {
		return Bits{}, fmt.Errorf("bitstream: negative bit count %d", n)
	}
	need := ByteLen(n)
	if len(data) < need {
		return Bits{}, fmt.Errorf("%w: have %d bytes, need %d for %d bits", ErrShortData, len(data), need, n)
	}
	if len(data) > need {
		return Bits{}, fmt.Errorf("%w: have %d bytes, need %d for %d bits", ErrTrailingData, len(data), need, n)
	}
	buf := append([]byte(nil), data...)
	if rem := n % 8; rem != 0 {
		buf[need-1] &= byte(0xFF << (8 - rem))
	}
	return Bits{data: buf, n: n}, nil
}

// Pack returns the packed bytes of b. The final byte is zero padded on the right.
func Pack(b Bits) []byte {
	return append([]byte(nil), b.data...)
}

// ParseString parses a sequence of '0' and '1' characters.
func ParseString(s string) (Bits, error) {
	w := NewWriter()
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			w.WriteBit(false)
		case '1':
			w.WriteBit(true)
		default:
			return Bits{}, fmt.Errorf("%w %q at position %d", ErrInvalidBit, s[i], i)
		}
	}
	return w.Bits()
}

// Len returns the number of bits.
func (b Bits) Len() int {
	return b.n
}

// At reports the bit at position i.
func (b Bits) At(i int) bool {
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("bitstream: index %d out of range [0,%d)", i, b.n))
	}
	return b.data[i/8]&(0x80>>(i%8)) != 0
}

// Equal reports whether b and o hold the same bits.
func (b Bits) Equal(o Bits) bool {
	return b.n == o.n && bytes.Equal(b.data, o.data)
}

// String renders the bits as '0' and '1' characters.
func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(b.n)
	for i := 0; i < b.n; i++ {
		if b.At(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Reader returns a reader positioned at the first bit.
func (b Bits) Reader() *Reader {
	return &Reader{
		r:    bitio.NewReader(bytes.NewReader(b.data)),
		left: b.n,
	}
}

// Writer accumulates bits in order. The zero Writer is not usable; call NewWriter.
type Writer struct {
	buf bytes.Buffer
	w   *bitio.Writer
	n   int
}

// NewWriter returns an empty bit writer.
func NewWriter() *Writer {
	bw := &Writer{}
	bw.w = bitio.NewWriter(&bw.buf)
	return bw
}

// WriteBit appends a single bit.
func (w *Writer) WriteBit(bit bool) {
	w.w.TryWriteBool(bit)
	w.n++
}

// WriteCode appends the n low bits of v, most significant first.
func (w *Writer) WriteCode(v uint64, n uint8) {
	if n == 0 {
		return
	}
	w.w.TryWriteBits(v, n)
	w.n += int(n)
}

// WriteBits appends every bit of b.
func (w *Writer) WriteBits(b Bits) {
	full := b.n / 8
	for i := 0; i < full; i++ {
		w.w.TryWriteByte(b.data[i])
	}
	if rem := b.n % 8; rem != 0 {
		w.w.TryWriteBits(uint64(b.data[full]>>(8-rem)), uint8(rem))
	}
	w.n += b.n
}

// Len returns the number of bits written so far.
func (w *Writer) Len() int {
	return w.n
}

// Bits flushes the pending partial byte and returns the accumulated bits.
// The writer must not be used afterwards.
func (w *Writer) Bits() (Bits, error) {
	if err := w.w.Close(); err != nil {
		return Bits{}, err
	}
	if w.w.TryError != nil {
		return Bits{}, w.w.TryError
	}
	return Bits{data: w.buf.Bytes(), n: w.n}, nil
}

// Reader yields the bits of a Bits value in order.
type Reader struct {
	r    *bitio.Reader
	left int
}

// ReadBit returns the next bit, or io.EOF once every bit has been read.
func (r *Reader) ReadBit() (bool, error) {
	if r.left == 0 {
		return false, io.EOF
	}
	bit, err := r.r.ReadBool()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, io.ErrUnexpectedEOF
		}
		return false, err
	}
	r.left--
	return bit, nil
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int {
	return r.left
}
