package pfv

import (
	"bytes"
	"io"
	"math"
	"os"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineWaveI16(n int, sampleRate, freqHz float64, amplitude int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		t := float64(i) / sampleRate
		out[i] = int16(float64(amplitude) * math.Sin(2*math.Pi*freqHz*t))
	}
	return out
}

func rmsError(a, b []int16) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func TestQOASliceEncodeDecodeRoundTrip(t *testing.T) {
	samples := sineWaveI16(qoaSliceSamples, 44100, 440, 10000)

	lms := newLMSState()
	slice, _ := encodeQOASlice(samples, lms)

	lms2 := newLMSState()
	decoded := decodeQOASlice(slice, &lms2)

	require.Len(t, decoded, len(samples))
	for i := range samples {
		assert.InDeltaf(t, samples[i], decoded[i], 3000, "sample %d", i)
	}
}

// A 100-sample sine wave at 44100 Hz, one channel, encoded then decoded
// through a full audio packet; per-sample RMS error must stay within 5% of
// full scale (32768).
func TestQOAAudioPacketSineRoundTrip(t *testing.T) {
	samples := sineWaveI16(100, 44100, 440, 16000)

	enc := newQOACodec(1)
	var buf bytes.Buffer
	require.NoError(t, enc.EncodeAudioPacket(&buf, [][]int16{samples}))

	dec := newQOACodec(1)
	out, err := dec.DecodeAudioPacket(&buf)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0], len(samples))

	rms := rmsError(samples, out[0])
	assert.Lessf(t, rms, 0.05*32768, "RMS error %f exceeds 5%% of full scale", rms)
}

func TestQOAAudioPacketMultiFrameStereo(t *testing.T) {
	n := qoaFrameSamples + 500
	left := sineWaveI16(n, 44100, 220, 12000)
	right := sineWaveI16(n, 44100, 330, 12000)

	enc := newQOACodec(2)
	var buf bytes.Buffer
	require.NoError(t, enc.EncodeAudioPacket(&buf, [][]int16{left, right}))

	dec := newQOACodec(2)
	out, err := dec.DecodeAudioPacket(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Len(t, out[0], n)
	assert.Len(t, out[1], n)

	assert.Lessf(t, rmsError(left, out[0]), 0.05*32768, "left channel RMS error too high")
	assert.Lessf(t, rmsError(right, out[1]), 0.05*32768, "right channel RMS error too high")
}

// samplesFromWavFixture writes a synthetic sine wave to a real WAV file via
// go-audio/wav and reads it back as interleaved int16 PCM, mirroring how a
// real test fixture would be sourced instead of hand-rolling a WAV reader.
func samplesFromWavFixture(t *testing.T, samples []int16, sampleRate int) []int16 {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "pfv-qoa-*.wav")
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	dec := wav.NewDecoder(f)
	pcm, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	out := make([]int16, len(pcm.Data))
	for i, v := range pcm.Data {
		out[i] = int16(v)
	}
	return out
}

func TestQOAWavFixtureRoundTrip(t *testing.T) {
	samples := sineWaveI16(2000, 44100, 523.25, 14000)
	fromWav := samplesFromWavFixture(t, samples, 44100)
	require.Len(t, fromWav, len(samples))

	enc := newQOACodec(1)
	var buf bytes.Buffer
	require.NoError(t, enc.EncodeAudioPacket(&buf, [][]int16{fromWav}))

	dec := newQOACodec(1)
	out, err := dec.DecodeAudioPacket(&buf)
	require.NoError(t, err)

	rms := rmsError(fromWav, out[0])
	assert.Lessf(t, rms, 0.05*32768, "RMS error %f exceeds 5%% of full scale", rms)
}
