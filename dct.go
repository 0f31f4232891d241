package pfv

// ZigZag lists the 8x8 coefficients in zig-zag scan order: ZigZag[k] is the
// natural (row-major) index of the k-th coefficient of the scan. InvZigZag
// is its inverse: InvZigZag[i] is the scan position of natural-order
// coefficient i. Both are the standard JPEG/MPEG ordering.
var ZigZag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// InvZigZag is computed once at init: InvZigZag[ZigZag[i]] == i.
var InvZigZag [64]int

func init() {
	for i, z := range ZigZag {
		InvZigZag[z] = i
	}
}

// QIntra is the baseline intra (I-frame) quantization table: JPEG
// luma-like values increasing with spatial frequency.
var QIntra = [64]int{
	8, 16, 19, 22, 26, 27, 29, 34,
	16, 16, 22, 24, 27, 29, 34, 37,
	19, 22, 26, 27, 29, 34, 34, 38,
	22, 22, 26, 27, 29, 34, 37, 40,
	22, 26, 27, 29, 32, 35, 40, 48,
	26, 27, 29, 32, 35, 40, 48, 58,
	26, 27, 29, 34, 38, 46, 56, 69,
	27, 29, 35, 38, 46, 56, 69, 83,
}

// QInter is the baseline inter (P-frame residual) quantization table: a
// uniform value, since motion compensation already removes most of the
// low-frequency energy a non-uniform table would target.
var QInter = [64]int{
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
	16, 16, 16, 16, 16, 16, 16, 16,
}

// DCTScaleFactor is the per-coefficient scale applied during
// quantize/dequantize to compensate for the extended-precision domain the
// integer DCT lifting network leaves its output in: coefficient i carries
// an implicit gain of 8192/DCTScaleFactor[i] relative to an orthonormal
// transform, so (coeff*DCTScaleFactor[i])>>dctScaleShift lands at 8x the
// orthonormal magnitude, keeping every quantized value within 14 bits.
// Indexed in natural (row-major) coefficient order.
var DCTScaleFactor = [64]int{
	256, 185, 196, 218, 256, 326, 473, 928,
	185, 133, 141, 157, 185, 235, 341, 669,
	196, 141, 150, 167, 196, 249, 362, 710,
	218, 157, 167, 185, 218, 277, 402, 789,
	256, 185, 196, 218, 256, 326, 473, 928,
	326, 235, 249, 277, 326, 415, 602, 1181,
	473, 341, 362, 402, 473, 602, 874, 1714,
	928, 669, 710, 789, 928, 1181, 1714, 3363,
}

// dctScaleShift is the right-shift applied after multiplying by
// DCTScaleFactor, before dividing by the quant table entry.
const dctScaleShift = 10

// QuantTables holds the four quality-scaled quantization tables derived at
// encoder construction: one per (frame type x plane kind) combination.
type QuantTables struct {
	IntraLuma   [64]int
	IntraChroma [64]int
	InterLuma   [64]int
	InterChroma [64]int
}

// NewQuantTables scales QIntra/QInter by quality*0.25 (floored at 1.0), and
// additionally halves the luma tables relative to chroma.
func NewQuantTables(quality int) QuantTables {
	if quality < 0 {
		quality = 0
	}
	if quality > 10 {
		quality = 10
	}

	factor := float64(quality) * 0.25

	return QuantTables{
		IntraLuma:   scaleQuantTable(QIntra, factor*0.5),
		IntraChroma: scaleQuantTable(QIntra, factor),
		InterLuma:   scaleQuantTable(QInter, factor*0.5),
		InterChroma: scaleQuantTable(QInter, factor),
	}
}

func scaleQuantTable(base [64]int, factor float64) [64]int {
	var out [64]int
	for i, v := range base {
		scaled := float64(v) * factor
		if scaled < 1.0 {
			scaled = 1.0
		}
		out[i] = int(scaled)
	}
	return out
}

// divRound divides a by b, rounding to nearest (ties away from zero),
// preserving sign correctly for negative a.
func divRound(a, b int) int {
	if a >= 0 {
		return (a + b/2) / b
	}
	return -((-a + b/2) / b)
}

// Quantize maps 64 natural-order DCT coefficients to a zig-zag-ordered,
// quantized block of signed 16-bit integers, per table qtable.
func Quantize(coeff [64]int, qtable [64]int) [64]int16 {
	var out [64]int16
	for i := 0; i < 64; i++ {
		v := (coeff[i] * DCTScaleFactor[i]) >> dctScaleShift
		v = divTrunc(v, qtable[i])
		out[InvZigZag[i]] = int16(v)
	}
	return out
}

// Dequantize inverts Quantize, reading through InvZigZag and producing 64
// natural-order DCT coefficients.
func Dequantize(q [64]int16, qtable [64]int) [64]int {
	var out [64]int
	for i := 0; i < 64; i++ {
		v := int(q[InvZigZag[i]]) * qtable[i]
		v <<= dctScaleShift
		out[i] = divTrunc(v, DCTScaleFactor[i])
	}
	return out
}

func divTrunc(a, b int) int {
	if b == 0 {
		return 0
	}
	return a / b
}

// FDCT2D applies the forward 8x8 DCT in place: rows first, then columns,
// per the separable transform contract.
func FDCT2D(block *[64]int) {
	for row := 0; row < 8; row++ {
		fdct1D(block[:], row*8, 1, true)
	}
	for col := 0; col < 8; col++ {
		fdct1D(block[:], col, 8, false)
	}
}

// IDCT2D applies the inverse 8x8 DCT in place: columns first, then rows,
// reversing FDCT2D's pass order.
func IDCT2D(block *[64]int) {
	for col := 0; col < 8; col++ {
		idct1D(block[:], col, 8, false)
	}
	for row := 0; row < 8; row++ {
		idct1D(block[:], row*8, 1, true)
	}
}

// idct1D is the Bink-2-style dyadic lifting 1D inverse DCT: a butterfly
// network of shifts and adds with two irrational-cosine constants (362 ~=
// 256*sqrt(2), 473/196 ~= 256*2*cos/sin(pi/8)) baked in as fixed-point
// multipliers. final selects whether this pass performs the closing
// rounding reduction (the second of the two 1D passes does; the first
// leaves its output in the extended-precision domain the second expects).
func idct1D(block []int, base, stride int, final bool) {
	b1 := block[base+4*stride]
	b3 := block[base+2*stride] + block[base+6*stride]
	b4 := block[base+5*stride] - block[base+3*stride]
	tmp1 := block[base+1*stride] + block[base+7*stride]
	tmp2 := block[base+3*stride] + block[base+5*stride]
	b6 := block[base+1*stride] - block[base+7*stride]
	b7 := tmp1 + tmp2
	m0 := block[base+0*stride]
	x4 := ((b6*473 - b4*196 + 128) >> 8) - b7
	x0 := x4 - (((tmp1-tmp2)*362 + 128) >> 8)
	x1 := m0 - b1
	x2 := (((block[base+2*stride]-block[base+6*stride])*362 + 128) >> 8) - b3
	x3 := m0 + b1
	y3 := x1 + x2
	y4 := x3 + b3
	y5 := x1 - x2
	y6 := x3 - b3
	y7 := -x0 - ((b4*473 + b6*196 + 128) >> 8)

	if final {
		block[base+0*stride] = (b7 + y4 + 128) >> 8
		block[base+1*stride] = (x4 + y3 + 128) >> 8
		block[base+2*stride] = (y5 - x0 + 128) >> 8
		block[base+3*stride] = (y6 - y7 + 128) >> 8
		block[base+4*stride] = (y6 + y7 + 128) >> 8
		block[base+5*stride] = (x0 + y5 + 128) >> 8
		block[base+6*stride] = (y3 - x4 + 128) >> 8
		block[base+7*stride] = (y4 - b7 + 128) >> 8
		return
	}

	block[base+0*stride] = b7 + y4
	block[base+1*stride] = x4 + y3
	block[base+2*stride] = y5 - x0
	block[base+3*stride] = y6 - y7
	block[base+4*stride] = y6 + y7
	block[base+5*stride] = x0 + y5
	block[base+6*stride] = y3 - x4
	block[base+7*stride] = y4 - b7
}

// fdct1D is the algebraic inverse of idct1D's butterfly network, solved
// step by step from the outside in. first selects whether this pass lifts
// its (small, pixel-range) input into the extended-precision domain the
// second pass expects; the second pass settles coefficients to their final
// magnitude via the same halving structure idct1D unwinds.
func fdct1D(block []int, base, stride int, first bool) {
	s0 := block[base+0*stride]
	s1 := block[base+1*stride]
	s2 := block[base+2*stride]
	s3 := block[base+3*stride]
	s4 := block[base+4*stride]
	s5 := block[base+5*stride]
	s6 := block[base+6*stride]
	s7 := block[base+7*stride]

	if first {
		s0 <<= 8
		s1 <<= 8
		s2 <<= 8
		s3 <<= 8
		s4 <<= 8
		s5 <<= 8
		s6 <<= 8
		s7 <<= 8
	}

	b7 := (s0 - s7) >> 1
	y4 := (s0 + s7) >> 1
	x4 := (s1 - s6) >> 1
	y3 := (s1 + s6) >> 1
	x0 := (s5 - s2) >> 1
	y5 := (s2 + s5) >> 1
	y7 := (s4 - s3) >> 1
	y6 := (s3 + s4) >> 1

	x1 := (y3 + y5) >> 1
	x2 := (y3 - y5) >> 1
	x3 := (y6 + y4) >> 1
	b3 := (y4 - y6) >> 1

	m0 := (x1 + x3) >> 1
	b1 := (x3 - x1) >> 1

	diff26 := divRound((x2+b3)*256, 362)
	c2 := (b3 + diff26) >> 1
	c6 := (b3 - diff26) >> 1

	t1 := -y7 - x0
	t2 := x4 + b7
	b4 := (473*t1 - 196*t2) >> 10
	b6 := (196*t1 + 473*t2) >> 10

	tmpdiff := divRound((x4-x0)*256, 362)
	tmp1 := (b7 + tmpdiff) >> 1
	tmp2 := (b7 - tmpdiff) >> 1

	c1 := (tmp1 + b6) >> 1
	c7 := (tmp1 - b6) >> 1
	c5 := (tmp2 + b4) >> 1
	c3 := (tmp2 - b4) >> 1

	block[base+0*stride] = m0
	block[base+1*stride] = c1
	block[base+2*stride] = c2
	block[base+3*stride] = c3
	block[base+4*stride] = b1
	block[base+5*stride] = c5
	block[base+6*stride] = c6
	block[base+7*stride] = c7
}
