package pfv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaneAtSet(t *testing.T) {
	p := NewPlane(4, 3, 7)
	require.Len(t, p.Data, 12)
	for _, v := range p.Data {
		assert.EqualValues(t, 7, v)
	}

	p.Set(2, 1, 42)
	assert.EqualValues(t, 42, p.At(2, 1))
}

func TestBlit(t *testing.T) {
	src := NewPlane(4, 4, 0)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, byte(y*4+x))
		}
	}

	dst := NewPlane(8, 8, 0)
	Blit(&dst, &src, 2, 2, 1, 1, 2, 2)

	assert.EqualValues(t, src.At(1, 1), dst.At(2, 2))
	assert.EqualValues(t, src.At(2, 1), dst.At(3, 2))
	assert.EqualValues(t, src.At(1, 2), dst.At(2, 3))
	assert.EqualValues(t, src.At(2, 2), dst.At(3, 3))
}

func TestGetSlice(t *testing.T) {
	src := NewPlane(4, 4, 0)
	for i := range src.Data {
		src.Data[i] = byte(i)
	}

	slice := src.GetSlice(1, 1, 2, 2)
	assert.Equal(t, 2, slice.Width)
	assert.Equal(t, 2, slice.Height)
	assert.EqualValues(t, src.At(1, 1), slice.At(0, 0))
	assert.EqualValues(t, src.At(2, 2), slice.At(1, 1))
}

func TestGetBlockBlitBlockRoundTrip(t *testing.T) {
	p := NewPlane(32, 32, 0)
	for i := range p.Data {
		p.Data[i] = byte(i % 251)
	}

	mb := p.GetBlock(16, 0)

	out := NewPlane(32, 32, 0)
	out.BlitBlock(16, 0, &mb)

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			assert.Equalf(t, p.At(16+x, y), out.At(16+x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestSubBlockSetSubBlockRoundTrip(t *testing.T) {
	var mb MacroBlock
	for i := range mb.Pix {
		mb.Pix[i] = byte(i)
	}

	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			sub := mb.SubBlock(col, row)

			var mutated MacroBlock
			mutated.SetSubBlock(col, row, sub)
			back := mutated.SubBlock(col, row)
			assert.Equal(t, sub, back)
		}
	}
}

func TestReduceAndDouble(t *testing.T) {
	p := NewPlane(4, 4, 0)
	vals := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	copy(p.Data, vals)

	reduced := p.Reduce()
	require.Equal(t, 2, reduced.Width)
	require.Equal(t, 2, reduced.Height)
	assert.EqualValues(t, 1, reduced.At(0, 0))
	assert.EqualValues(t, 3, reduced.At(1, 0))
	assert.EqualValues(t, 9, reduced.At(0, 1))
	assert.EqualValues(t, 11, reduced.At(1, 1))

	doubled := reduced.Double()
	require.Equal(t, 4, doubled.Width)
	require.Equal(t, 4, doubled.Height)
	assert.EqualValues(t, 1, doubled.At(0, 0))
	assert.EqualValues(t, 1, doubled.At(1, 1))
	assert.EqualValues(t, 3, doubled.At(2, 0))
	assert.EqualValues(t, 3, doubled.At(3, 1))
}
