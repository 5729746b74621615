package infrastructure

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// NewLogger returns the process logger: whatsmeow's Logger interface backed
// by a zerolog console writer, so our own components and whatsmeow share one sink.
func NewLogger(level string) waLog.Logger {
	return newLogger(os.Stdout, level)
}

func newLogger(out io.Writer, level string) waLog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return waLog.Zerolog(zl)
}
