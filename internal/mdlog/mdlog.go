// Package mdlog is murkdown's build logger. Grounded on
// deeklead-horde/internal/daemon/daemon.go's own logging setup: a stdlib
// *log.Logger opened against a file with log.LstdFlags, no structured
// logging library appearing anywhere in the retrieved corpus.
package mdlog

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger wraps a *log.Logger with the handful of build-lifecycle levels
// murkdown's CLI reports through (spec §6's --log flag).
type Logger struct {
	*log.Logger
}

// New returns a Logger writing to w with the standard date/time prefix.
func New(w io.Writer) *Logger {
	return &Logger{Logger: log.New(w, "", log.LstdFlags)}
}

// Open opens (creating if necessary) path for append and returns a Logger
// writing to it, mirroring the teacher's os.OpenFile flags for its own log
// file.
func Open(path string) (*Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("mdlog: opening %s: %w", path, err)
	}
	return New(f), f, nil
}

// Discard returns a Logger that drops everything written to it; the CLI's
// builds log through it.
func Discard() *Logger {
	return New(io.Discard)
}

func (l *Logger) Infof(format string, args ...any) {
	l.Printf("INFO  "+format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.Printf("WARN  "+format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.Printf("ERROR "+format, args...)
}
