package pfv

import "github.com/pkg/errors"

// packetcodec.go assembles and parses the bit-packed body of I/P-frame
// packets: frequency table, quant-table indices, P-frame block headers, and
// the Huffman-coded coefficient stream. Shared between Encoder and Decoder
// so the two sides can't drift on field order.

// collectIntraCoeffs concatenates every sub-block's zig-zag coefficients
// across the given planes, in plane order, matching the wire's "Y, U, V"
// concatenation order.
func collectIntraCoeffs(planes ...*EncodedIPlane) []int16 {
	var out []int16
	for _, p := range planes {
		for _, b := range p.Blocks {
			for _, sub := range b.Blocks {
				out = append(out, sub[:]...)
			}
		}
	}
	return out
}

// collectInterCoeffs is collectIntraCoeffs's P-frame counterpart: only
// blocks carrying a residual contribute coefficients.
func collectInterCoeffs(planes ...*EncodedPPlane) []int16 {
	var out []int16
	for _, p := range planes {
		for _, b := range p.Blocks {
			if !b.HasResidual {
				continue
			}
			for _, sub := range b.Residual {
				out = append(out, sub[:]...)
			}
		}
	}
	return out
}

// buildHuffman runs RLE over coeffs and builds the Huffman tree the packet
// will transmit its symbols under.
func buildHuffman(coeffs []int16) (freq [16]byte, symbols []RLESymbol, tree *HuffmanTree) {
	symbols = RLEEncode(coeffs)
	var table [16]int
	UpdateFrequencyTable(&table, symbols)
	freq = NormalizeFrequencyTable(table)
	tree = BuildHuffmanTree(freq)
	return freq, symbols, tree
}

func writeCoeffBits(bw *BitWriter, tree *HuffmanTree, symbols []RLESymbol) {
	for _, s := range symbols {
		tree.Encode(bw, s.Run)
		tree.Encode(bw, s.Size)
		if s.Size > 0 {
			bw.WriteSigned(int(s.Value), int(s.Size))
		}
	}
}

func buildIFramePayload(y, u, v *EncodedIPlane) []byte {
	freq, symbols, tree := buildHuffman(collectIntraCoeffs(y, u, v))

	bw := NewBitWriter()
	for _, f := range freq {
		bw.Write(int(f), 8)
	}
	bw.Write(QTableIntraLuma, 8)
	bw.Write(QTableIntraChroma, 8)
	bw.Write(QTableIntraChroma, 8)
	writeCoeffBits(bw, tree, symbols)
	return bw.Bytes()
}

func buildPFramePayload(y, u, v *EncodedPPlane) []byte {
	freq, symbols, tree := buildHuffman(collectInterCoeffs(y, u, v))

	bw := NewBitWriter()
	for _, f := range freq {
		bw.Write(int(f), 8)
	}
	bw.Write(QTableInterLuma, 8)
	bw.Write(QTableInterChroma, 8)
	bw.Write(QTableInterChroma, 8)

	for _, p := range []*EncodedPPlane{y, u, v} {
		for _, b := range p.Blocks {
			writeBlockHeader(bw, &b)
		}
	}

	writeCoeffBits(bw, tree, symbols)
	return bw.Bytes()
}

func writeBlockHeader(bw *BitWriter, b *DeltaEncodedMacroBlock) {
	bw.Write1(boolBit(b.HasMV))
	bw.Write1(boolBit(b.HasResidual))
	if b.HasMV {
		bw.WriteSigned(int(b.MX), 7)
		bw.WriteSigned(int(b.MY), 7)
	}
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// blockHeader is a P-frame block header read back off the wire, before its
// optional residual (read separately, once the coefficient stream is
// available) is attached.
type blockHeader struct {
	HasMV       bool
	MX, MY      int8
	HasResidual bool
}

func readBlockHeader(br *BitReader) (blockHeader, error) {
	hasMV, err := br.Read(1)
	if err != nil {
		return blockHeader{}, err
	}
	hasRes, err := br.Read(1)
	if err != nil {
		return blockHeader{}, err
	}
	h := blockHeader{HasMV: hasMV != 0, HasResidual: hasRes != 0}
	if h.HasMV {
		mx, err := br.ReadSigned(7)
		if err != nil {
			return blockHeader{}, err
		}
		my, err := br.ReadSigned(7)
		if err != nil {
			return blockHeader{}, err
		}
		if mx < -maxMotionComponent || mx > maxMotionComponent ||
			my < -maxMotionComponent || my > maxMotionComponent {
			return blockHeader{}, errors.Wrapf(ErrDecode, "motion vector (%d,%d) out of range", mx, my)
		}
		h.MX, h.MY = int8(mx), int8(my)
	}
	return h, nil
}

// decodeCoeffs pulls symbols off br through tree until total int16
// coefficients have been produced (the wire carries no explicit count; the
// caller always knows exactly how many coefficients its block layout
// implies).
func decodeCoeffs(br *BitReader, tree *HuffmanTree, total int) ([]int16, error) {
	out := make([]int16, 0, total)
	for len(out) < total {
		run, err := tree.Decode(br)
		if err != nil {
			return nil, err
		}
		size, err := tree.Decode(br)
		if err != nil {
			return nil, err
		}
		for i := byte(0); i < run; i++ {
			out = append(out, 0)
		}
		if size > 0 {
			v, err := br.ReadSigned(int(size))
			if err != nil {
				return nil, err
			}
			out = append(out, int16(v))
		}
	}
	if len(out) > total {
		out = out[:total]
	}
	return out, nil
}

// takeIntraBlocks consumes count*4*64 coefficients from the front of
// coeffs, returning the reconstructed blocks and the unconsumed remainder.
func takeIntraBlocks(coeffs []int16, count int) ([]EncodedMacroBlock, []int16) {
	blocks := make([]EncodedMacroBlock, count)
	for i := 0; i < count; i++ {
		for s := 0; s < 4; s++ {
			copy(blocks[i].Blocks[s][:], coeffs[:64])
			coeffs = coeffs[64:]
		}
	}
	return blocks, coeffs
}

// takeInterBlocks pairs decoded block headers with their (possibly absent)
// residuals, consuming from coeffs only for headers with HasResidual set,
// and returns the unconsumed remainder for the next plane.
func takeInterBlocks(coeffs []int16, headers []blockHeader) ([]DeltaEncodedMacroBlock, []int16) {
	blocks := make([]DeltaEncodedMacroBlock, len(headers))
	for i, h := range headers {
		b := DeltaEncodedMacroBlock{HasMV: h.HasMV, MX: h.MX, MY: h.MY, HasResidual: h.HasResidual}
		if h.HasResidual {
			for s := 0; s < 4; s++ {
				copy(b.Residual[s][:], coeffs[:64])
				coeffs = coeffs[64:]
			}
		}
		blocks[i] = b
	}
	return blocks, coeffs
}
