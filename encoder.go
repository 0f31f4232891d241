// Package pfv implements the PFV video codec and container: YUV 4:2:0
// block-transform video with motion-compensated P-frames, a QOA audio
// substream, and a packetized stream format.
//
// An Encoder is bound to an io.Writer at construction and consumes frames
// via EncodeIFrame/EncodePFrame (plus AppendAudio for the audio substream)
// until Finish writes the EOF packet. A Decoder is bound to an
// io.ReadSeeker and delivers frames through callbacks, either one at a
// time with AdvanceFrame or paced against wall-clock time with
// AdvanceDelta; Reset seeks back to the first packet so a stream can loop.
//
// Per-macroblock work on both sides fans out across a worker pool whose
// size is chosen at construction; a single worker runs everything inline.
package pfv

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

// EncoderOption configures an Encoder at construction time.
type EncoderOption func(*Encoder)

// WithEncoderLogger overrides the encoder's logger (defaulting to
// slog.Default()). Lifecycle events only (construction, finish), never
// per-frame detail.
func WithEncoderLogger(l *slog.Logger) EncoderOption {
	return func(e *Encoder) { e.log = l }
}

// Encoder turns a sequence of video frames and audio samples into a PFV
// byte stream written to w. Frames must be supplied in display order;
// finish must be called exactly once, after the last frame.
type Encoder struct {
	w io.Writer

	width, height int
	framerate     int
	sampleRate    int
	channels      int
	quality       int

	quant QuantTables
	pool  *Pool
	qoa   *qoaCodec
	log   *slog.Logger

	ref      Frame
	haveRef  bool
	audioBuf [][]int16
	finished bool
}

// NewEncoder writes the container header and returns an Encoder ready to
// accept frames. quality is clamped to [0,10]. sampleRate/channels may be
// zero to build a video-only stream with no audio substream (the header
// still carries audio fields per the wire format; decoders treat a
// channels of zero as "no audio").
func NewEncoder(w io.Writer, width, height, framerate, sampleRate, channels, quality, workers int, opts ...EncoderOption) (*Encoder, error) {
	if quality < 0 {
		quality = 0
	} else if quality > 10 {
		quality = 10
	}

	e := &Encoder{
		w:          w,
		width:      width,
		height:     height,
		framerate:  framerate,
		sampleRate: sampleRate,
		channels:   channels,
		quality:    quality,
		quant:      NewQuantTables(quality),
		pool:       NewPool(workers),
		log:        defaultLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if channels > 0 {
		e.qoa = newQOACodec(channels)
		e.audioBuf = make([][]int16, channels)
	}

	header := &Header{
		Width:       width,
		Height:      height,
		Framerate:   framerate,
		SampleRate:  sampleRate,
		Channels:    channels,
		QuantTables: quantTableDirectory(e.quant),
	}
	if err := WriteHeader(w, header); err != nil {
		return nil, err
	}

	e.log.Info("pfv encoder started", "width", width, "height", height, "framerate", framerate, "quality", quality)
	return e, nil
}

func (e *Encoder) padFrame(src *Frame) Frame {
	padded := NewPaddedFrame(e.width, e.height)
	Blit(&padded.Y, &src.Y, 0, 0, 0, 0, src.Y.Width, src.Y.Height)
	Blit(&padded.U, &src.U, 0, 0, 0, 0, src.U.Width, src.U.Height)
	Blit(&padded.V, &src.V, 0, 0, 0, 0, src.V.Width, src.V.Height)
	return padded
}

// EncodeIFrame intra-encodes frame, writes an I-frame packet, and decodes
// the packet back into the reference frame the next P-frame will predict
// against; mandatory so encoder and decoder never drift.
func (e *Encoder) EncodeIFrame(frame *Frame) error {
	padded := e.padFrame(frame)

	yEnc, err := EncodePlaneIntra(e.pool, &padded.Y, e.quant.IntraLuma)
	if err != nil {
		return err
	}
	uEnc, err := EncodePlaneIntra(e.pool, &padded.U, e.quant.IntraChroma)
	if err != nil {
		return err
	}
	vEnc, err := EncodePlaneIntra(e.pool, &padded.V, e.quant.IntraChroma)
	if err != nil {
		return err
	}

	yDec, err := DecodePlaneIntra(e.pool, &yEnc, e.quant.IntraLuma)
	if err != nil {
		return err
	}
	uDec, err := DecodePlaneIntra(e.pool, &uEnc, e.quant.IntraChroma)
	if err != nil {
		return err
	}
	vDec, err := DecodePlaneIntra(e.pool, &vEnc, e.quant.IntraChroma)
	if err != nil {
		return err
	}
	e.ref = Frame{Y: yDec, U: uDec, V: vDec}
	e.haveRef = true

	payload := buildIFramePayload(&yEnc, &uEnc, &vEnc)
	return WritePacket(e.w, PacketIFrame, payload)
}

// EncodePFrame inter-encodes frame against the current reference, writes a
// P-frame packet, and updates the reference from the decoded-back result.
func (e *Encoder) EncodePFrame(frame *Frame) error {
	if !e.haveRef {
		return errors.New("pfv: encode_pframe called before any reference frame exists")
	}

	padded := e.padFrame(frame)

	yEnc, err := EncodePlaneInter(e.pool, &padded.Y, &e.ref.Y, e.quant.InterLuma, e.quality)
	if err != nil {
		return err
	}
	uEnc, err := EncodePlaneInter(e.pool, &padded.U, &e.ref.U, e.quant.InterChroma, e.quality)
	if err != nil {
		return err
	}
	vEnc, err := EncodePlaneInter(e.pool, &padded.V, &e.ref.V, e.quant.InterChroma, e.quality)
	if err != nil {
		return err
	}

	yDec, err := DecodePlaneInter(e.pool, &yEnc, &e.ref.Y, e.quant.InterLuma)
	if err != nil {
		return err
	}
	uDec, err := DecodePlaneInter(e.pool, &uEnc, &e.ref.U, e.quant.InterChroma)
	if err != nil {
		return err
	}
	vDec, err := DecodePlaneInter(e.pool, &vEnc, &e.ref.V, e.quant.InterChroma)
	if err != nil {
		return err
	}
	e.ref = Frame{Y: yDec, U: uDec, V: vDec}

	payload := buildPFramePayload(&yEnc, &uEnc, &vEnc)
	return WritePacket(e.w, PacketPFrame, payload)
}

// EncodeDropFrame writes a zero-payload I-frame packet: the decoder repeats
// the last reconstructed frame and the reference is left untouched.
func (e *Encoder) EncodeDropFrame() error {
	return WritePacket(e.w, PacketIFrame, nil)
}

// AppendAudio accepts interleaved i16 samples (channel-major within each
// frame: L,R,L,R,... for stereo) and buffers them per channel, flushing one
// audio packet for every full qoaFrameSamples it accumulates. Partial
// frames are held until the next call or Finish.
func (e *Encoder) AppendAudio(interleaved []int16) error {
	if e.channels == 0 {
		return errors.New("pfv: append_audio called on a stream with no audio channels")
	}
	if len(interleaved)%e.channels != 0 {
		return errors.New("pfv: append_audio sample count not a multiple of channel count")
	}

	for i, s := range interleaved {
		ch := i % e.channels
		e.audioBuf[ch] = append(e.audioBuf[ch], s)
	}

	for len(e.audioBuf[0]) >= qoaFrameSamples {
		chunk := make([][]int16, e.channels)
		for ch := range chunk {
			chunk[ch] = e.audioBuf[ch][:qoaFrameSamples]
		}
		if err := e.flushAudio(chunk); err != nil {
			return err
		}
		for ch := range e.audioBuf {
			e.audioBuf[ch] = e.audioBuf[ch][qoaFrameSamples:]
		}
	}
	return nil
}

func (e *Encoder) flushAudio(channelSamples [][]int16) error {
	var buf bytes.Buffer
	if err := e.qoa.EncodeAudioPacket(&buf, channelSamples); err != nil {
		return err
	}
	return WritePacket(e.w, PacketAudio, buf.Bytes())
}

// Finish flushes any partial audio tail and writes the EOF packet. It must
// be called exactly once, after the last frame and the last AppendAudio
// call.
func (e *Encoder) Finish() error {
	if e.finished {
		return errors.New("pfv: finish called more than once")
	}
	e.finished = true

	if e.channels > 0 && len(e.audioBuf[0]) > 0 {
		if err := e.flushAudio(e.audioBuf); err != nil {
			return err
		}
	}

	e.log.Info("pfv encoder finished")
	return WritePacket(e.w, PacketEOF, nil)
}

// Close finalizes the stream if Finish has not run yet, so callers can
// defer it at construction without double-finish errors. An explicit
// Finish is still preferred; Close exists for the forgetful path.
func (e *Encoder) Close() error {
	if e.finished {
		return nil
	}
	return e.Finish()
}
