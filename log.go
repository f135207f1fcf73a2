package reachyhal

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the package-wide logger. Gate, router and discovery events carry
// contextual fields (gate name, device id) rather than formatted strings.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// SetLogLevel adjusts the package logger's minimum level, e.g. from
// cmd/reachyctl's --verbose flag.
func SetLogLevel(level zerolog.Level) {
	Log = Log.Level(level)
}
