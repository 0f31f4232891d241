package pfv

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewFileLogger returns a structured logger that writes to a rotating file
// at path, suitable for handing to WithEncoderLogger or WithDecoderLogger on
// long-running encode
// sessions. Rotation follows lumberjack's defaults except for MaxSize, which
// is set small since PFV sessions log only lifecycle events, not per-frame
// detail, and for MaxAge (7 days) and Compress (on).
func NewFileLogger(path string) *slog.Logger {
	sink := &lumberjack.Logger{
		Filename: path,
		MaxSize:  10, // megabytes
		MaxAge:   7,  // days
		Compress: true,
	}

	return slog.New(slog.NewJSONHandler(io.Writer(sink), nil))
}

func defaultLogger() *slog.Logger {
	return slog.Default()
}
