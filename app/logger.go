package app

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

type Level string

const (
	TRACE Level = "TRACE"
	DEBUG Level = "DEBUG"
	INFO  Level = "INFO"
	WARN  Level = "WARN"
	ERROR Level = "ERROR"
	PANIC Level = "PANIC"
)

// Format selects how log lines are rendered.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// NewZeroLogger builds the process logger writing to stdout. FormatConsole
// is meant for a developer terminal; anything else yields JSON lines.
func NewZeroLogger(logLevel Level, format Format) zerolog.Logger {
	var w io.Writer = os.Stdout
	if Format(strings.ToLower(string(format))) == FormatConsole {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}
	return newZeroLogger(w, logLevel)
}

func newZeroLogger(w io.Writer, logLevel Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	return zerolog.New(w).
		Level(logLevelToZero(logLevel)).
		With().
		Timestamp().
		Caller().
		Logger()
}

// logLevelToZero maps a level name, in any case, to zerolog. Unknown names
// fall back to info.
func logLevelToZero(level Level) zerolog.Level {
	l, ok := zeroLevels[Level(strings.ToUpper(string(level)))]
	if !ok {
		return zerolog.InfoLevel
	}
	return l
}

var zeroLevels = map[Level]zerolog.Level{
	PANIC: zerolog.PanicLevel,
	ERROR: zerolog.ErrorLevel,
	WARN:  zerolog.WarnLevel,
	INFO:  zerolog.InfoLevel,
	DEBUG: zerolog.DebugLevel,
	TRACE: zerolog.TraceLevel,
}
