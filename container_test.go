package pfv

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderWriteReadRoundTrip(t *testing.T) {
	quant := NewQuantTables(5)
	h := &Header{
		Width:       320,
		Height:      240,
		Framerate:   30,
		SampleRate:  44100,
		Channels:    2,
		QuantTables: quantTableDirectory(quant),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, h))

	got, err := ReadHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, h.Width, got.Width)
	assert.Equal(t, h.Height, got.Height)
	assert.Equal(t, h.Framerate, got.Framerate)
	assert.Equal(t, h.SampleRate, got.SampleRate)
	assert.Equal(t, h.Channels, got.Channels)
	assert.Equal(t, h.QuantTables, got.QuantTables)
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("NOTAVIDX")
	_, err := ReadHeader(&buf)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestReadHeaderRejectsBadVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	require.NoError(t, writeU32(&buf, 100))
	_, err := ReadHeader(&buf)
	assert.ErrorIs(t, err, ErrVersion)
}

func TestPacketFramingRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{1, 2, 3, 4, 5}
	require.NoError(t, WritePacket(&buf, PacketPFrame, payload))

	typ, length, err := ReadPacketHeader(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, PacketPFrame, typ)
	assert.EqualValues(t, len(payload), length)

	got := make([]byte, length)
	_, err = buf.Read(got)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestUnknownPacketTypeIsSkippable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePacket(&buf, 99, []byte{9, 9, 9}))
	require.NoError(t, WritePacket(&buf, PacketEOF, nil))

	typ, length, err := ReadPacketHeader(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, 99, typ)
	assert.EqualValues(t, 3, length)

	// Skipping length bytes lands on the next packet header.
	_, err = buf.Read(make([]byte, length))
	require.NoError(t, err)
	typ, length, err = ReadPacketHeader(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, PacketEOF, typ)
	assert.EqualValues(t, 0, length)
}
