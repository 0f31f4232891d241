package pfv

import "errors"

// Sentinel error kinds. Callers should compare with errors.Is; the concrete
// error returned from package functions usually wraps one of these with
// call-site context via github.com/pkg/errors.
var (
	// ErrFormat is returned when a stream does not start with the PFV magic.
	ErrFormat = errors.New("pfv: not a PFV stream")

	// ErrVersion is returned when a stream declares an unsupported version.
	ErrVersion = errors.New("pfv: unsupported stream version")

	// ErrDecode is returned when the Huffman walk reaches a dead end or the
	// bitstream runs out in the middle of a symbol.
	ErrDecode = errors.New("pfv: malformed packet")
)
