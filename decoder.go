package pfv

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

// DecoderOption configures a Decoder at construction time.
type DecoderOption func(*Decoder)

// WithDecoderLogger overrides the decoder's logger (defaulting to
// slog.Default()).
func WithDecoderLogger(l *slog.Logger) DecoderOption {
	return func(d *Decoder) { d.log = l }
}

// Decoder reads a PFV byte stream, delivering display frames and decoded
// audio one packet group at a time. Reset seeks back to the first packet,
// so the same Decoder can loop a stream indefinitely.
type Decoder struct {
	r    io.ReadSeeker
	pool *Pool
	log  *slog.Logger

	header *Header
	qoa    *qoaCodec

	postHeaderOffset int64

	ref     Frame
	display Frame
	eof     bool
	acc     float64

	blocksYW, blocksYH int
	blocksCW, blocksCH int
}

// NewDecoder reads the container header from r and returns a Decoder
// positioned at the first packet.
func NewDecoder(r io.ReadSeeker, workers int, opts ...DecoderOption) (*Decoder, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	offset, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(err, "pfv: locate post-header offset")
	}

	d := &Decoder{
		r:                r,
		pool:             NewPool(workers),
		log:              defaultLogger(),
		header:           header,
		postHeaderOffset: offset,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.blocksYW, d.blocksYH = blocksWide(padTo16(header.Width)), blocksHigh(padTo16(header.Height))
	cw, ch := (header.Width+1)/2, (header.Height+1)/2
	d.blocksCW, d.blocksCH = blocksWide(padTo16(cw)), blocksHigh(padTo16(ch))

	d.resetState()
	d.log.Info("pfv decoder opened", "width", header.Width, "height", header.Height, "framerate", header.Framerate)
	return d, nil
}

func (d *Decoder) resetState() {
	d.ref = NewPaddedFrame(d.header.Width, d.header.Height)
	d.display = NewFrame(d.header.Width, d.header.Height)
	d.eof = false
	d.acc = 0
	if d.header.Channels > 0 {
		d.qoa = newQOACodec(d.header.Channels)
	}
}

// Width, Height, Framerate, SampleRate and Channels expose the header
// fields the stream was constructed with.
func (d *Decoder) Width() int      { return d.header.Width }
func (d *Decoder) Height() int     { return d.header.Height }
func (d *Decoder) Framerate() int  { return d.header.Framerate }
func (d *Decoder) SampleRate() int { return d.header.SampleRate }
func (d *Decoder) Channels() int   { return d.header.Channels }

// AdvanceFrame reads packets until exactly one frame interval has been
// consumed (a decoded frame delivered via onVideo, or a drop frame, which
// invokes no callback and leaves the previous frame standing), EOF is
// reached, or an error occurs. Audio packets
// along the way are decoded and delivered via onAudio (interleaved
// samples) without ending the call. onVideo/onAudio may be nil.
func (d *Decoder) AdvanceFrame(onVideo func(*Frame), onAudio func([]int16)) (bool, error) {
	if d.eof {
		return false, nil
	}

	for {
		packetType, length, err := ReadPacketHeader(d.r)
		if err != nil {
			return false, err
		}

		switch packetType {
		case PacketEOF:
			d.eof = true
			return false, nil

		case PacketIFrame:
			if length == 0 {
				// Drop frame: the previous reconstructed frame stands for
				// one more frame interval. No callback, but the call still
				// counts as a delivered frame so pacing stays correct.
				return true, nil
			}
			payload := make([]byte, length)
			if _, err := io.ReadFull(d.r, payload); err != nil {
				return false, errors.Wrap(err, "pfv: read I-frame payload")
			}
			if err := d.decodeIFramePayload(payload); err != nil {
				return false, err
			}
			d.display = cropToDisplay(&d.ref, d.header.Width, d.header.Height)
			if onVideo != nil {
				onVideo(&d.display)
			}
			return true, nil

		case PacketPFrame:
			payload := make([]byte, length)
			if _, err := io.ReadFull(d.r, payload); err != nil {
				return false, errors.Wrap(err, "pfv: read P-frame payload")
			}
			if err := d.decodePFramePayload(payload); err != nil {
				return false, err
			}
			d.display = cropToDisplay(&d.ref, d.header.Width, d.header.Height)
			if onVideo != nil {
				onVideo(&d.display)
			}
			return true, nil

		case PacketAudio:
			payload := make([]byte, length)
			if _, err := io.ReadFull(d.r, payload); err != nil {
				return false, errors.Wrap(err, "pfv: read audio payload")
			}
			if d.qoa == nil {
				continue
			}
			channelSamples, err := d.qoa.DecodeAudioPacket(bytes.NewReader(payload))
			if err != nil {
				return false, err
			}
			if onAudio != nil {
				onAudio(interleave(channelSamples))
			}
			continue

		default:
			if _, err := io.CopyN(io.Discard, d.r, int64(length)); err != nil {
				return false, errors.Wrap(err, "pfv: skip unknown packet")
			}
			continue
		}
	}
}

// AdvanceDelta accumulates dt and calls AdvanceFrame once per elapsed
// frame interval, returning false once EOF is reached.
func (d *Decoder) AdvanceDelta(dt float64, onVideo func(*Frame), onAudio func([]int16)) (bool, error) {
	if d.header.Framerate <= 0 {
		return false, errors.New("pfv: advance_delta requires a positive framerate")
	}
	frameDur := 1.0 / float64(d.header.Framerate)

	d.acc += dt
	for d.acc >= frameDur {
		ok, err := d.AdvanceFrame(onVideo, onAudio)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		d.acc -= frameDur
	}
	return true, nil
}

// Reset clears EOF and seeks back to the first packet, reinitializing the
// reference frame and audio predictor state so a second pass reproduces
// the first pass exactly.
func (d *Decoder) Reset() error {
	if _, err := d.r.Seek(d.postHeaderOffset, io.SeekStart); err != nil {
		return errors.Wrap(err, "pfv: seek to reset")
	}
	d.resetState()
	return nil
}

func cropToDisplay(padded *Frame, width, height int) Frame {
	cw, ch := (width+1)/2, (height+1)/2
	return Frame{
		Y: padded.Y.GetSlice(0, 0, width, height),
		U: padded.U.GetSlice(0, 0, cw, ch),
		V: padded.V.GetSlice(0, 0, cw, ch),
	}
}

func interleave(channelSamples [][]int16) []int16 {
	if len(channelSamples) == 0 {
		return nil
	}
	n := len(channelSamples[0])
	out := make([]int16, 0, n*len(channelSamples))
	for i := 0; i < n; i++ {
		for _, ch := range channelSamples {
			out = append(out, ch[i])
		}
	}
	return out
}

// qtableByIndex resolves a wire quant-table index against the header
// directory, rejecting indices outside it as malformed rather than
// panicking on hostile input.
func (d *Decoder) qtableByIndex(idx int) ([64]int, error) {
	if idx < 0 || idx >= numQTables {
		return [64]int{}, errors.Wrapf(ErrDecode, "quant table index %d out of range", idx)
	}
	return d.header.quantTable(idx), nil
}

func (d *Decoder) decodeIFramePayload(payload []byte) error {
	br := NewBitReader(payload)

	var freq [16]byte
	for i := range freq {
		v, err := br.Read(8)
		if err != nil {
			return err
		}
		freq[i] = byte(v)
	}

	idxY, err := br.Read(8)
	if err != nil {
		return err
	}
	idxU, err := br.Read(8)
	if err != nil {
		return err
	}
	idxV, err := br.Read(8)
	if err != nil {
		return err
	}

	qY, err := d.qtableByIndex(idxY)
	if err != nil {
		return err
	}
	qU, err := d.qtableByIndex(idxU)
	if err != nil {
		return err
	}
	qV, err := d.qtableByIndex(idxV)
	if err != nil {
		return err
	}

	tree := BuildHuffmanTree(freq)

	countY := d.blocksYW * d.blocksYH
	countU := d.blocksCW * d.blocksCH
	countV := countU
	total := (countY + countU + countV) * 256

	coeffs, err := decodeCoeffs(br, tree, total)
	if err != nil {
		return err
	}

	var yBlocks, uBlocks, vBlocks []EncodedMacroBlock
	yBlocks, coeffs = takeIntraBlocks(coeffs, countY)
	uBlocks, coeffs = takeIntraBlocks(coeffs, countU)
	vBlocks, _ = takeIntraBlocks(coeffs, countV)

	yPlane := EncodedIPlane{BlocksWide: d.blocksYW, BlocksHigh: d.blocksYH, Blocks: yBlocks}
	uPlane := EncodedIPlane{BlocksWide: d.blocksCW, BlocksHigh: d.blocksCH, Blocks: uBlocks}
	vPlane := EncodedIPlane{BlocksWide: d.blocksCW, BlocksHigh: d.blocksCH, Blocks: vBlocks}

	yDec, err := DecodePlaneIntra(d.pool, &yPlane, qY)
	if err != nil {
		return err
	}
	uDec, err := DecodePlaneIntra(d.pool, &uPlane, qU)
	if err != nil {
		return err
	}
	vDec, err := DecodePlaneIntra(d.pool, &vPlane, qV)
	if err != nil {
		return err
	}

	d.ref = Frame{Y: yDec, U: uDec, V: vDec}
	return nil
}

func (d *Decoder) decodePFramePayload(payload []byte) error {
	br := NewBitReader(payload)

	var freq [16]byte
	for i := range freq {
		v, err := br.Read(8)
		if err != nil {
			return err
		}
		freq[i] = byte(v)
	}

	idxY, err := br.Read(8)
	if err != nil {
		return err
	}
	idxU, err := br.Read(8)
	if err != nil {
		return err
	}
	idxV, err := br.Read(8)
	if err != nil {
		return err
	}

	qY, err := d.qtableByIndex(idxY)
	if err != nil {
		return err
	}
	qU, err := d.qtableByIndex(idxU)
	if err != nil {
		return err
	}
	qV, err := d.qtableByIndex(idxV)
	if err != nil {
		return err
	}

	countY := d.blocksYW * d.blocksYH
	countU := d.blocksCW * d.blocksCH
	countV := countU

	yHeaders, err := readBlockHeaders(br, countY)
	if err != nil {
		return err
	}
	uHeaders, err := readBlockHeaders(br, countU)
	if err != nil {
		return err
	}
	vHeaders, err := readBlockHeaders(br, countV)
	if err != nil {
		return err
	}

	residualTotal := 0
	for _, h := range append(append(append([]blockHeader{}, yHeaders...), uHeaders...), vHeaders...) {
		if h.HasResidual {
			residualTotal++
		}
	}

	tree := BuildHuffmanTree(freq)
	coeffs, err := decodeCoeffs(br, tree, residualTotal*256)
	if err != nil {
		return err
	}

	var yBlocks, uBlocks, vBlocks []DeltaEncodedMacroBlock
	yBlocks, coeffs = takeInterBlocks(coeffs, yHeaders)
	uBlocks, coeffs = takeInterBlocks(coeffs, uHeaders)
	vBlocks, _ = takeInterBlocks(coeffs, vHeaders)

	yPlane := EncodedPPlane{BlocksWide: d.blocksYW, BlocksHigh: d.blocksYH, Blocks: yBlocks}
	uPlane := EncodedPPlane{BlocksWide: d.blocksCW, BlocksHigh: d.blocksCH, Blocks: uBlocks}
	vPlane := EncodedPPlane{BlocksWide: d.blocksCW, BlocksHigh: d.blocksCH, Blocks: vBlocks}

	yDec, err := DecodePlaneInter(d.pool, &yPlane, &d.ref.Y, qY)
	if err != nil {
		return err
	}
	uDec, err := DecodePlaneInter(d.pool, &uPlane, &d.ref.U, qU)
	if err != nil {
		return err
	}
	vDec, err := DecodePlaneInter(d.pool, &vPlane, &d.ref.V, qV)
	if err != nil {
		return err
	}

	d.ref = Frame{Y: yDec, U: uDec, V: vDec}
	return nil
}

func readBlockHeaders(br *BitReader, count int) ([]blockHeader, error) {
	headers := make([]blockHeader, count)
	for i := range headers {
		h, err := readBlockHeader(br)
		if err != nil {
			return nil, err
		}
		headers[i] = h
	}
	return headers, nil
}
