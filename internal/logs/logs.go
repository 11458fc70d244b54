// Package logs builds the debug logger handed to the engine packages.
package logs

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLevel keeps routine operations quiet.
const DefaultLevel = zerolog.WarnLevel

// ParseLevel maps a level name to a zerolog level. An empty name yields DefaultLevel.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return DefaultLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return DefaultLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// New returns a console logger writing to w. verbose forces debug output regardless of level.
func New(w io.Writer, level zerolog.Level, verbose bool) zerolog.Logger {
	if verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	if f, ok := w.(*os.File); !ok || f != os.Stderr {
		out.NoColor = true
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Stderr is New on os.Stderr.
func Stderr(level zerolog.Level, verbose bool) zerolog.Logger {
	return New(os.Stderr, level, verbose)
}
