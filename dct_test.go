package pfv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvZigZagInvertsZigZag(t *testing.T) {
	for i, z := range ZigZag {
		require.Equal(t, i, InvZigZag[z], "InvZigZag[ZigZag[%d]] should be %d", i, i)
	}
}

func TestFDCTIDCTRoundTrip(t *testing.T) {
	cases := [][64]int{
		{}, // all zero
	}

	constant := [64]int{}
	for i := range constant {
		constant[i] = 10
	}
	cases = append(cases, constant)

	ramp := [64]int{}
	for i := range ramp {
		ramp[i] = i - 32
	}
	cases = append(cases, ramp)

	for _, in := range cases {
		block := in
		FDCT2D(&block)
		IDCT2D(&block)
		for i := range in {
			assert.InDeltaf(t, in[i], block[i], 2, "coefficient %d: fdct/idct round trip", i)
		}
	}
}

func TestQuantizeZeroBlockRoundTrips(t *testing.T) {
	var coeff [64]int
	q := Quantize(coeff, QIntra)
	for i, v := range q {
		assert.Zerof(t, v, "quantized coefficient %d should be zero", i)
	}

	back := Dequantize(q, QIntra)
	for i, v := range back {
		assert.Zerof(t, v, "dequantized coefficient %d should be zero", i)
	}
}

func TestMacroBlockIdentityWithUnitQuantTable(t *testing.T) {
	var unitTable [64]int
	for i := range unitTable {
		unitTable[i] = 1
	}

	var mb MacroBlock
	for i := range mb.Pix {
		mb.Pix[i] = byte((i * 7) % 256)
	}

	enc := EncodeBlock(&mb, unitTable)
	dec := DecodeBlock(&enc, unitTable)

	diffs := 0
	for i := range mb.Pix {
		if mb.Pix[i] != dec.Pix[i] {
			diffs++
		}
	}
	assert.Zerof(t, diffs, "macroblock round trip through unit-quant DCT should be bit-identical")
}
