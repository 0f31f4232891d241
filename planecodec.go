package pfv

// EncodedIPlane is one intra-coded plane: a BlocksWide x BlocksHigh grid of
// macroblocks in raster order.
type EncodedIPlane struct {
	BlocksWide int
	BlocksHigh int
	Blocks     []EncodedMacroBlock
}

// EncodedPPlane is one inter-coded plane, the delta-block analogue of
// EncodedIPlane.
type EncodedPPlane struct {
	BlocksWide int
	BlocksHigh int
	Blocks     []DeltaEncodedMacroBlock
}

// blockOrigin maps a raster block index to its top-left pixel coordinate.
func blockOrigin(index, blocksWide int) (x, y int) {
	return (index % blocksWide) * 16, (index / blocksWide) * 16
}

// EncodePlaneIntra splits p (already padded to a multiple of 16 in both
// axes) into macroblocks in raster order and intra-encodes each across
// pool, preserving index order in the result.
func EncodePlaneIntra(pool *Pool, p *Plane, qtable [64]int) (EncodedIPlane, error) {
	bw, bh := blocksWide(p.Width), blocksHigh(p.Height)
	indices := make([]int, bw*bh)
	for i := range indices {
		indices[i] = i
	}

	blocks, err := Map(pool, indices, func(_ int, i int) (EncodedMacroBlock, error) {
		x, y := blockOrigin(i, bw)
		mb := p.GetBlock(x, y)
		return EncodeBlock(&mb, qtable), nil
	})
	if err != nil {
		return EncodedIPlane{}, err
	}

	return EncodedIPlane{BlocksWide: bw, BlocksHigh: bh, Blocks: blocks}, nil
}

// DecodePlaneIntra reassembles a padded plane from an EncodedIPlane.
func DecodePlaneIntra(pool *Pool, enc *EncodedIPlane, qtable [64]int) (Plane, error) {
	out := NewPlane(enc.BlocksWide*16, enc.BlocksHigh*16, 0)

	blocks, err := Map(pool, enc.Blocks, func(_ int, b EncodedMacroBlock) (MacroBlock, error) {
		return DecodeBlock(&b, qtable), nil
	})
	if err != nil {
		return Plane{}, err
	}

	for i, mb := range blocks {
		x, y := blockOrigin(i, enc.BlocksWide)
		mb := mb
		out.BlitBlock(x, y, &mb)
	}
	return out, nil
}

// EncodePlaneInter is EncodePlaneIntra's inter counterpart: p and ref must
// share padded dimensions. Motion search for block i reads only ref, never
// another block's output, so the fan-out carries no intra-frame dependency.
func EncodePlaneInter(pool *Pool, p *Plane, ref *Plane, qtable [64]int, quality int) (EncodedPPlane, error) {
	bw, bh := blocksWide(p.Width), blocksHigh(p.Height)
	indices := make([]int, bw*bh)
	for i := range indices {
		indices[i] = i
	}

	blocks, err := Map(pool, indices, func(_ int, i int) (DeltaEncodedMacroBlock, error) {
		x, y := blockOrigin(i, bw)
		mb := p.GetBlock(x, y)
		return EncodeBlockDelta(&mb, ref, x, y, qtable, quality), nil
	})
	if err != nil {
		return EncodedPPlane{}, err
	}

	return EncodedPPlane{BlocksWide: bw, BlocksHigh: bh, Blocks: blocks}, nil
}

// DecodePlaneInter reassembles a padded plane from an EncodedPPlane, reading
// predictions from ref (the previous reconstructed plane).
func DecodePlaneInter(pool *Pool, enc *EncodedPPlane, ref *Plane, qtable [64]int) (Plane, error) {
	out := NewPlane(enc.BlocksWide*16, enc.BlocksHigh*16, 0)

	blocks, err := Map(pool, enc.Blocks, func(i int, b DeltaEncodedMacroBlock) (MacroBlock, error) {
		x, y := blockOrigin(i, enc.BlocksWide)
		return DecodeBlockDelta(&b, ref, x, y, qtable), nil
	})
	if err != nil {
		return Plane{}, err
	}

	for i, mb := range blocks {
		x, y := blockOrigin(i, enc.BlocksWide)
		mb := mb
		out.BlitBlock(x, y, &mb)
	}
	return out, nil
}
