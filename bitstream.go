package pfv

import (
	"io"

	"github.com/pkg/errors"
)

// BitReader reads bits little-endian within each byte: the first bit read
// out of a byte is its least-significant bit. A packet payload is always
// read whole into memory before decoding starts, so there is no
// streaming/reload machinery here, just an index that can move backwards
// when the Huffman decoder hands lookahead bits back.
type BitReader struct {
	data     []byte
	bitIndex int
}

// NewBitReader wraps a fully-buffered packet payload for bit-level reads.
func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

// Remaining reports how many bits are left unread.
func (r *BitReader) Remaining() int {
	return len(r.data)*8 - r.bitIndex
}

// Read1 reads a single bit; it never fails (a short read returns 0), which
// matches the fast-path contract of the Huffman decoder that always checks
// Remaining() itself first.
func (r *BitReader) Read1() int {
	if r.Remaining() < 1 {
		return 0
	}
	b := r.data[r.bitIndex>>3]
	shift := r.bitIndex & 7
	v := int((b >> shift) & 1)
	r.bitIndex++
	return v
}

// Read reads count bits (count <= 32), first bit read landing in bit
// position 0 of the result and growing upward. Returns ErrDecode if the
// stream does not have that many bits left.
func (r *BitReader) Read(count int) (int, error) {
	if r.Remaining() < count {
		return 0, errors.Wrapf(ErrDecode, "read %d bits: only %d remaining", count, r.Remaining())
	}

	value := 0
	for i := 0; i < count; i++ {
		value |= r.Read1() << i
	}
	return value, nil
}

// ReadSigned reads a count-bit two's-complement signed field.
func (r *BitReader) ReadSigned(count int) (int, error) {
	v, err := r.Read(count)
	if err != nil {
		return 0, err
	}
	if v&(1<<(count-1)) != 0 {
		v -= 1 << count
	}
	return v, nil
}

// Unread rewinds count bits, used by the Huffman fast-table decoder to give
// back unused lookahead bits.
func (r *BitReader) Unread(count int) {
	r.bitIndex -= count
}

// Align advances to the next byte boundary.
func (r *BitReader) Align() {
	r.bitIndex = (r.bitIndex + 7) &^ 7
}

// BitWriter accumulates bits little-endian within each byte, the write-side
// mirror of BitReader.
type BitWriter struct {
	buf      []byte
	bitIndex int
}

// NewBitWriter returns an empty bit writer.
func NewBitWriter() *BitWriter {
	return &BitWriter{}
}

// Write1 appends a single bit.
func (w *BitWriter) Write1(bit int) {
	byteIndex := w.bitIndex >> 3
	for byteIndex >= len(w.buf) {
		w.buf = append(w.buf, 0)
	}
	if bit != 0 {
		w.buf[byteIndex] |= 1 << (w.bitIndex & 7)
	}
	w.bitIndex++
}

// Write appends the low count bits of value, first bit written being bit 0
// of value.
func (w *BitWriter) Write(value, count int) {
	for i := 0; i < count; i++ {
		w.Write1((value >> i) & 1)
	}
}

// WriteSigned writes the low count bits of a two's-complement signed value.
func (w *BitWriter) WriteSigned(value, count int) {
	w.Write(value&((1<<count)-1), count)
}

// Align pads with zero bits to the next byte boundary.
func (w *BitWriter) Align() {
	w.bitIndex = (w.bitIndex + 7) &^ 7
	for w.bitIndex>>3 > len(w.buf) {
		w.buf = append(w.buf, 0)
	}
}

// Bytes returns the accumulated output, byte-aligning first if the final
// byte is partially filled.
func (w *BitWriter) Bytes() []byte {
	w.Align()
	return w.buf
}

// writeAll writes p in full, wrapping any writer failure with context.
func writeAll(w io.Writer, p []byte) error {
	_, err := w.Write(p)
	return errors.Wrap(err, "pfv: write")
}
