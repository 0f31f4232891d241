package pfv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeBlockIntra(t *testing.T) {
	var mb MacroBlock
	for i := range mb.Pix {
		mb.Pix[i] = byte(100 + (i*3)%80)
	}

	enc := EncodeBlock(&mb, QIntra)
	dec := DecodeBlock(&enc, QIntra)

	for i := range mb.Pix {
		assert.InDeltaf(t, int(mb.Pix[i]), int(dec.Pix[i]), 40, "pixel %d should survive lossy intra round trip within quantizer precision", i)
	}
}

func TestEncodeDecodeBlockUnitQuantTableIsIdentity(t *testing.T) {
	var unit [64]int
	for i := range unit {
		unit[i] = 1
	}

	var mb MacroBlock
	for i := range mb.Pix {
		mb.Pix[i] = byte(i % 256)
	}

	enc := EncodeBlock(&mb, unit)
	dec := DecodeBlock(&enc, unit)

	for i := range mb.Pix {
		assert.InDeltaf(t, int(mb.Pix[i]), int(dec.Pix[i]), 0, "pixel %d", i)
	}
}

func TestMotionSearchZeroMotionWhenIdentical(t *testing.T) {
	ref := NewPlane(64, 64, 0)
	for i := range ref.Data {
		ref.Data[i] = byte(i % 256)
	}
	cur := ref.GetBlock(16, 16)

	mx, my, _, sse := motionSearch(&cur, &ref, 16, 16)
	assert.Equal(t, 0, mx)
	assert.Equal(t, 0, my)
	assert.Equal(t, 0, sse)
}

func TestMotionVectorsStayWithinBounds(t *testing.T) {
	ref := NewPlane(64, 64, 128)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			ref.Set(x, y, byte((x*7+y*13)%256))
		}
	}

	cur := ref.GetBlock(32, 32)
	// Perturb cur so it doesn't trivially match the reference at (32,32),
	// forcing the search to actually explore neighbors.
	for i := range cur.Pix {
		cur.Pix[i] = byte(int(cur.Pix[i]) + 5)
	}

	mx, my, _, _ := motionSearch(&cur, &ref, 32, 32)
	assert.GreaterOrEqual(t, mx, -maxMotionComponent)
	assert.LessOrEqual(t, mx, maxMotionComponent)
	assert.GreaterOrEqual(t, my, -maxMotionComponent)
	assert.LessOrEqual(t, my, maxMotionComponent)
}

func TestEncodeBlockDeltaZeroMotionNoResidualOnIdenticalBlock(t *testing.T) {
	ref := NewPlane(32, 32, 0)
	for i := range ref.Data {
		ref.Data[i] = byte(i % 200)
	}
	cur := ref.GetBlock(0, 0)

	delta := EncodeBlockDelta(&cur, &ref, 0, 0, QInter, 1)
	assert.False(t, delta.HasMV)
	assert.False(t, delta.HasResidual)

	dec := DecodeBlockDelta(&delta, &ref, 0, 0, QInter)
	assert.Equal(t, cur, dec)
}

func TestEncodeBlockDeltaResidualPath(t *testing.T) {
	ref := NewPlane(32, 32, 0)
	for i := range ref.Data {
		ref.Data[i] = byte(50)
	}

	cur := ref.GetBlock(0, 0)
	for i := range cur.Pix {
		cur.Pix[i] = byte(int(cur.Pix[i]) + 90)
	}

	delta := EncodeBlockDelta(&cur, &ref, 0, 0, QInter, 0)
	require.True(t, delta.HasResidual)

	dec := DecodeBlockDelta(&delta, &ref, 0, 0, QInter)
	for i := range cur.Pix {
		assert.InDeltaf(t, int(cur.Pix[i]), int(dec.Pix[i]), 40, "pixel %d", i)
	}
}

func TestValidMotionRejectsOutOfBounds(t *testing.T) {
	ref := NewPlane(32, 32, 0)
	assert.True(t, validMotion(&ref, 8, 8, 4, 4))
	assert.False(t, validMotion(&ref, 8, 8, -9, 0))  // would read x<0
	assert.False(t, validMotion(&ref, 8, 8, 0, 100)) // outside ref
	assert.False(t, validMotion(&ref, 8, 8, 17, 0))  // exceeds +-16 bound
}
