package pfv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuffmanTwoSymbolTreeGetsSingleBitCodes(t *testing.T) {
	var freq [16]byte
	freq[1] = 10
	freq[15] = 5

	tree := BuildHuffmanTree(freq)

	c1 := tree.Code(1)
	c15 := tree.Code(15)

	require.Equal(t, 1, c1.Len)
	require.Equal(t, 1, c15.Len)
	assert.NotEqual(t, c1.Bits&1, c15.Bits&1, "the two single-bit codes must be distinct")
}

func TestHuffmanRoundTripAllNonzeroSymbols(t *testing.T) {
	var freq [16]byte
	freq[0] = 200
	freq[1] = 100
	freq[2] = 50
	freq[5] = 20
	freq[15] = 1

	tree := BuildHuffmanTree(freq)

	w := NewBitWriter()
	order := []byte{0, 1, 2, 5, 15, 0, 15, 1}
	for _, sym := range order {
		tree.Encode(w, sym)
	}

	r := NewBitReader(w.Bytes())
	for _, want := range order {
		got, err := tree.Decode(r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestHuffmanCodesArePrefixFree(t *testing.T) {
	var freq [16]byte
	for i := range freq {
		freq[i] = byte(i + 1)
	}
	tree := BuildHuffmanTree(freq)

	var codes []HuffmanCode
	for sym := 0; sym < 16; sym++ {
		c := tree.Code(byte(sym))
		if c.Len > 0 {
			codes = append(codes, c)
		}
	}

	for i := range codes {
		for j := range codes {
			if i == j {
				continue
			}
			a, b := codes[i], codes[j]
			if a.Len > b.Len {
				continue
			}
			mask := uint16(1<<a.Len) - 1
			assert.NotEqualf(t, a.Bits&mask, b.Bits&mask, "code %d must not be a prefix of code %d", i, j)
		}
	}
}

func TestHuffmanDecodeErrorsOnTruncatedStream(t *testing.T) {
	var freq [16]byte
	freq[0] = 1
	freq[1] = 1
	freq[2] = 1
	freq[3] = 1
	tree := BuildHuffmanTree(freq)

	r := NewBitReader(nil)
	_, err := tree.Decode(r)
	assert.ErrorIs(t, err, ErrDecode)
}
