package pfv

import "io"

// qoaSliceSamples and qoaFrameSamples bound the two packing granularities:
// a slice is the unit a single scale factor covers, a frame is the unit a
// packet's header (history + weights) covers.
const (
	qoaSliceSamples = 20
	qoaFrameSamples = 5120
)

// qoaQuantTab maps a clamped residual (offset by 8, so index in [0,16]) to
// its 3-bit quantized code.
var qoaQuantTab = [17]int{
	7, 7, 7, 5, 5, 3, 3, 1,
	0,
	0, 2, 2, 4, 4, 6, 6, 6,
}

// qoaDequantTab maps (scale factor, quantized code) back to a signed
// residual magnitude.
var qoaDequantTab = [16][8]int32{
	{1, -1, 3, -3, 5, -5, 7, -7},
	{5, -5, 18, -18, 32, -32, 49, -49},
	{16, -16, 53, -53, 95, -95, 147, -147},
	{34, -34, 113, -113, 203, -203, 315, -315},
	{63, -63, 210, -210, 378, -378, 588, -588},
	{104, -104, 345, -345, 621, -621, 966, -966},
	{158, -158, 528, -528, 950, -950, 1477, -1477},
	{228, -228, 760, -760, 1368, -1368, 2128, -2128},
	{316, -316, 1053, -1053, 1895, -1895, 2947, -2947},
	{422, -422, 1405, -1405, 2529, -2529, 3934, -3934},
	{548, -548, 1828, -1828, 3290, -3290, 5117, -5117},
	{696, -696, 2320, -2320, 4176, -4176, 6496, -6496},
	{868, -868, 2893, -2893, 5207, -5207, 8099, -8099},
	{1064, -1064, 3548, -3548, 6386, -6386, 9933, -9933},
	{1286, -1286, 4288, -4288, 7718, -7718, 12005, -12005},
	{1536, -1536, 5120, -5120, 9216, -9216, 14336, -14336},
}

// qoaReciprocalTab holds 65536/scale, used to divide a residual by a scale
// factor without a runtime division.
var qoaReciprocalTab = [16]int{
	65536, 9363, 3121, 1457, 781, 475, 311, 216,
	156, 117, 90, 71, 57, 47, 39, 32,
}

// lmsState is one channel's 4-tap LMS predictor state.
type lmsState struct {
	History [4]int32
	Weight  [4]int32
}

func newLMSState() lmsState {
	return lmsState{Weight: [4]int32{0, 0, -(1 << 13), 1 << 14}}
}

func (l *lmsState) predict() int32 {
	var sum int64
	for i, h := range l.History {
		sum += int64(h) * int64(l.Weight[i])
	}
	return int32(sum >> 13)
}

func (l *lmsState) update(reconstructed, dequantized int32) {
	delta := dequantized >> 4
	for i, h := range l.History {
		if h < 0 {
			l.Weight[i] -= delta
		} else {
			l.Weight[i] += delta
		}
	}
	copy(l.History[0:3], l.History[1:4])
	l.History[3] = reconstructed
}

func clampI16(v int32) int16 {
	if v < -32768 {
		return -32768
	}
	if v > 32767 {
		return 32767
	}
	return int16(v)
}

// qoaDivScaled divides residual by the scale factor via its reciprocal,
// rounding away from zero.
func qoaDivScaled(residual int32, scaleFactor int) int32 {
	v := int(residual)
	n := (v*qoaReciprocalTab[scaleFactor] + (1 << 15)) >> 16
	n += sign(v) - sign(n)
	return int32(n)
}

func sign(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

// qoaSlice is one encoded slice: the scale factor chosen for it and its
// per-sample 3-bit quantized codes.
type qoaSlice struct {
	ScaleFactor int
	Quantized   []byte
}

// encodeQOASlice brute-forces all 16 scale factors against samples (a
// predictor state starting from lms), keeping the one with lowest total
// squared error; returns the winning slice and the LMS state after
// replaying it.
func encodeQOASlice(samples []int16, lms lmsState) (qoaSlice, lmsState) {
	var best qoaSlice
	var bestLMS lmsState
	bestSSE := int64(1) << 62

	for sf := 0; sf < 16; sf++ {
		trial := lms
		quant := make([]byte, len(samples))
		var sse int64
		ok := true

		for i, s := range samples {
			predicted := trial.predict()
			residual := int32(s) - predicted
			scaled := qoaDivScaled(residual, sf)
			if scaled < -8 {
				scaled = -8
			} else if scaled > 8 {
				scaled = 8
			}
			qIdx := qoaQuantTab[scaled+8]
			dequant := qoaDequantTab[sf][qIdx]
			reconstructed := clampI16(predicted + dequant)

			quant[i] = byte(qIdx)
			d := int64(s) - int64(reconstructed)
			sse += d * d
			if sse >= bestSSE {
				ok = false
				break
			}
			trial.update(int32(reconstructed), dequant)
		}

		if ok && sse < bestSSE {
			bestSSE = sse
			best = qoaSlice{ScaleFactor: sf, Quantized: quant}
			bestLMS = trial
		}
	}

	return best, bestLMS
}

// decodeQOASlice reverses encodeQOASlice for one already-chosen slice,
// advancing lms in place and returning the reconstructed samples.
func decodeQOASlice(slice qoaSlice, lms *lmsState) []int16 {
	out := make([]int16, len(slice.Quantized))
	for i, qIdx := range slice.Quantized {
		predicted := lms.predict()
		dequant := qoaDequantTab[slice.ScaleFactor][qIdx]
		reconstructed := clampI16(predicted + dequant)
		out[i] = reconstructed
		lms.update(int32(reconstructed), dequant)
	}
	return out
}

// packQOASlice packs a slice into the wire's 64-bit form: low 4 bits scale
// factor, then one 3-bit field per sample (up to 20), sample order.
func packQOASlice(s qoaSlice) uint64 {
	v := uint64(s.ScaleFactor) & 0xF
	for i, q := range s.Quantized {
		v |= uint64(q&0x7) << uint(4+i*3)
	}
	return v
}

func unpackQOASlice(v uint64, count int) qoaSlice {
	s := qoaSlice{ScaleFactor: int(v & 0xF), Quantized: make([]byte, count)}
	for i := range s.Quantized {
		s.Quantized[i] = byte((v >> uint(4+i*3)) & 0x7)
	}
	return s
}

// qoaCodec holds one LMS predictor state per channel, carried across audio
// packets for the lifetime of an Encoder or Decoder.
type qoaCodec struct {
	channels int
	lms      []lmsState
}

func newQOACodec(channels int) *qoaCodec {
	lms := make([]lmsState, channels)
	for i := range lms {
		lms[i] = newLMSState()
	}
	return &qoaCodec{channels: channels, lms: lms}
}

// EncodeAudioPacket consumes channel-deinterleaved samples (one []int16 per
// channel, all equal length) and writes one or more chained QOA sub-frames
// (each up to qoaFrameSamples long) as the payload of a single audio
// packet, advancing the codec's running per-channel LMS state.
func (c *qoaCodec) EncodeAudioPacket(w io.Writer, channelSamples [][]int16) error {
	total := 0
	if len(channelSamples) > 0 {
		total = len(channelSamples[0])
	}
	if err := writeU16(w, uint16(total)); err != nil {
		return err
	}

	offset := 0
	for offset < total {
		n := qoaFrameSamples
		if total-offset < n {
			n = total - offset
		}

		if err := writeU16(w, uint16(n)); err != nil {
			return err
		}

		numSlices := (n + qoaSliceSamples - 1) / qoaSliceSamples
		if err := writeU16(w, uint16(numSlices*c.channels)); err != nil {
			return err
		}

		for ch := 0; ch < c.channels; ch++ {
			for _, h := range c.lms[ch].History {
				if err := writeU16(w, uint16(int16(h))); err != nil {
					return err
				}
			}
			for _, wt := range c.lms[ch].Weight {
				if err := writeU16(w, uint16(int16(wt))); err != nil {
					return err
				}
			}
		}

		for s := 0; s < numSlices; s++ {
			base := offset + s*qoaSliceSamples
			end := base + qoaSliceSamples
			if end > offset+n {
				end = offset + n
			}
			for ch := 0; ch < c.channels; ch++ {
				slice, next := encodeQOASlice(channelSamples[ch][base:end], c.lms[ch])
				c.lms[ch] = next
				if err := writeU64(w, packQOASlice(slice)); err != nil {
					return err
				}
			}
		}

		offset += n
	}

	return nil
}

// DecodeAudioPacket reverses EncodeAudioPacket, returning one []int16 per
// channel.
func (c *qoaCodec) DecodeAudioPacket(r io.Reader) ([][]int16, error) {
	total, err := readU16(r)
	if err != nil {
		return nil, err
	}

	out := make([][]int16, c.channels)
	for ch := range out {
		out[ch] = make([]int16, 0, total)
	}

	remaining := int(total)
	for remaining > 0 {
		n, err := readU16(r)
		if err != nil {
			return nil, err
		}
		sliceCount, err := readU16(r)
		if err != nil {
			return nil, err
		}

		for ch := 0; ch < c.channels; ch++ {
			var hist, weight [4]int32
			for i := range hist {
				v, err := readU16(r)
				if err != nil {
					return nil, err
				}
				hist[i] = int32(int16(v))
			}
			for i := range weight {
				v, err := readU16(r)
				if err != nil {
					return nil, err
				}
				weight[i] = int32(int16(v))
			}
			c.lms[ch] = lmsState{History: hist, Weight: weight}
		}

		numSlices := int(sliceCount) / c.channels
		left := int(n)
		for s := 0; s < numSlices; s++ {
			count := qoaSliceSamples
			if left < count {
				count = left
			}
			for ch := 0; ch < c.channels; ch++ {
				raw, err := readU64(r)
				if err != nil {
					return nil, err
				}
				slice := unpackQOASlice(raw, count)
				samples := decodeQOASlice(slice, &c.lms[ch])
				out[ch] = append(out[ch], samples...)
			}
			left -= count
		}

		remaining -= int(n)
	}

	return out, nil
}
