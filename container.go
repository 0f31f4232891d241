package pfv

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Magic is the fixed 8-byte file signature at the start of every stream.
const Magic = "PFVIDEO\x00"

// Version is the on-wire format version this package reads and writes.
// Earlier 100-series streams lacked the audio fields in the header and are
// not supported; 200 carries samplerate/channels unconditionally.
const Version uint32 = 200

// Packet type tags.
const (
	PacketEOF    = 0
	PacketIFrame = 1
	PacketPFrame = 2
	PacketAudio  = 3
)

// Quant-table directory slots: the four tables computed at encoder
// construction, referenced by index from I/P-frame packet headers.
const (
	QTableIntraLuma = iota
	QTableIntraChroma
	QTableInterLuma
	QTableInterChroma
	numQTables
)

// Header is the fixed-shape preamble written once per stream.
type Header struct {
	Width       int
	Height      int
	Framerate   int
	SampleRate  int
	Channels    int
	QuantTables [numQTables][64]uint16
}

// quantTableDirectory packs a QuantTables into the header's wire order.
func quantTableDirectory(q QuantTables) [numQTables][64]uint16 {
	var dir [numQTables][64]uint16
	toU16 := func(src [64]int) [64]uint16 {
		var out [64]uint16
		for i, v := range src {
			out[i] = uint16(v)
		}
		return out
	}
	dir[QTableIntraLuma] = toU16(q.IntraLuma)
	dir[QTableIntraChroma] = toU16(q.IntraChroma)
	dir[QTableInterLuma] = toU16(q.InterLuma)
	dir[QTableInterChroma] = toU16(q.InterChroma)
	return dir
}

func (h *Header) quantTable(idx int) [64]int {
	var out [64]int
	for i, v := range h.QuantTables[idx] {
		out[i] = int(v)
	}
	return out
}

// WriteHeader writes the container header to w.
func WriteHeader(w io.Writer, h *Header) error {
	if err := writeAll(w, []byte(Magic)); err != nil {
		return err
	}
	if err := writeU32(w, Version); err != nil {
		return err
	}
	if err := writeU16(w, uint16(h.Width)); err != nil {
		return err
	}
	if err := writeU16(w, uint16(h.Height)); err != nil {
		return err
	}
	if err := writeU16(w, uint16(h.Framerate)); err != nil {
		return err
	}
	if err := writeU16(w, uint16(h.SampleRate)); err != nil {
		return err
	}
	if err := writeU16(w, uint16(h.Channels)); err != nil {
		return err
	}
	if err := writeU16(w, numQTables); err != nil {
		return err
	}
	for _, table := range h.QuantTables {
		for _, v := range table {
			if err := writeU16(w, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadHeader reads and validates the container header from r.
func ReadHeader(r io.Reader) (*Header, error) {
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, errors.Wrap(err, "pfv: read magic")
	}
	if string(magic) != Magic {
		return nil, ErrFormat
	}

	version, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, ErrVersion
	}

	h := &Header{}
	for _, dst := range []*int{&h.Width, &h.Height, &h.Framerate, &h.SampleRate, &h.Channels} {
		u, err := readU16(r)
		if err != nil {
			return nil, err
		}
		*dst = int(u)
	}

	numTables, err := readU16(r)
	if err != nil {
		return nil, err
	}
	for t := 0; t < int(numTables) && t < numQTables; t++ {
		for i := 0; i < 64; i++ {
			v, err := readU16(r)
			if err != nil {
				return nil, err
			}
			h.QuantTables[t][i] = v
		}
	}
	for t := numQTables; t < int(numTables); t++ {
		for i := 0; i < 64; i++ {
			if _, err := readU16(r); err != nil {
				return nil, err
			}
		}
	}

	return h, nil
}

// WritePacket frames payload behind a type byte and a u32 length.
func WritePacket(w io.Writer, packetType byte, payload []byte) error {
	if err := writeAll(w, []byte{packetType}); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(payload))); err != nil {
		return err
	}
	return writeAll(w, payload)
}

// ReadPacketHeader reads a packet's type tag and payload length.
func ReadPacketHeader(r io.Reader) (packetType byte, length uint32, err error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, 0, errors.Wrap(err, "pfv: read packet type")
	}
	length, err = readU32(r)
	return b[0], length, err
}

func writeU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return writeAll(w, b[:])
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return writeAll(w, b[:])
}

func readU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, errors.Wrap(err, "pfv: read u16")
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, errors.Wrap(err, "pfv: read u32")
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return writeAll(w, b[:])
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, errors.Wrap(err, "pfv: read u64")
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
