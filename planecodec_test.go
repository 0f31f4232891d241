package pfv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientPlane(w, h int) Plane {
	p := NewPlane(w, h, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p.Set(x, y, byte((x*5+y*7)%256))
		}
	}
	return p
}

func TestEncodeDecodePlaneIntraRoundTrip(t *testing.T) {
	for _, workers := range []int{1, 4} {
		pool := NewPool(workers)
		p := gradientPlane(32, 32)

		enc, err := EncodePlaneIntra(pool, &p, QIntra)
		require.NoError(t, err)
		assert.Equal(t, 2, enc.BlocksWide)
		assert.Equal(t, 2, enc.BlocksHigh)
		assert.Len(t, enc.Blocks, 4)

		dec, err := DecodePlaneIntra(pool, &enc, QIntra)
		require.NoError(t, err)
		require.Equal(t, p.Width, dec.Width)
		require.Equal(t, p.Height, dec.Height)

		for i := range p.Data {
			assert.InDeltaf(t, int(p.Data[i]), int(dec.Data[i]), 40, "pixel %d (workers=%d)", i, workers)
		}
	}
}

func TestEncodeDecodePlaneInterZeroMotionOnIdenticalPlane(t *testing.T) {
	pool := NewPool(2)
	ref := gradientPlane(32, 32)
	cur := ref.GetSlice(0, 0, 32, 32)

	enc, err := EncodePlaneInter(pool, &cur, &ref, QInter, 1)
	require.NoError(t, err)
	for _, b := range enc.Blocks {
		assert.False(t, b.HasMV)
		assert.False(t, b.HasResidual)
	}

	dec, err := DecodePlaneInter(pool, &enc, &ref, QInter)
	require.NoError(t, err)
	assert.Equal(t, ref.Data, dec.Data)
}

func TestPoolMapPreservesOrderSerialAndParallel(t *testing.T) {
	in := make([]int, 50)
	for i := range in {
		in[i] = i
	}

	for _, workers := range []int{1, 8} {
		pool := NewPool(workers)
		out, err := Map(pool, in, func(_ int, v int) (int, error) {
			return v * 2, nil
		})
		require.NoError(t, err)
		for i, v := range out {
			assert.Equal(t, in[i]*2, v)
		}
	}
}
