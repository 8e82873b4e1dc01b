// Package logutil provides logging utilities.
package logutil

import (
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	out = &switchWriter{w: io.Discard}

	mu       sync.Mutex
	rotating *lumberjack.Logger
)

// GetLogger gets a logger for a component. The prefix, like "[shell] ", is
// recorded in the component field. All loggers share the output set by
// SetOutput or SetOutputFile, which discards everything initially.
func GetLogger(prefix string) *zerolog.Logger {
	l := zerolog.New(out).With().Timestamp().
		Str("component", strings.Trim(prefix, "[] ")).Logger()
	return &l
}

// SetOutput redirects the output of all loggers obtained with GetLogger to
// the new io.Writer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	closeRotating()
	out.set(w)
}

// SetOutputFile redirects the output of all loggers obtained with GetLogger
// to the named file, which is rotated when it grows large. If the file name
// is empty, logs are discarded.
func SetOutputFile(fname string) error {
	mu.Lock()
	defer mu.Unlock()
	closeRotating()
	if fname == "" {
		out.set(io.Discard)
		return nil
	}
	rotating = &lumberjack.Logger{Filename: fname, MaxSize: 10, MaxBackups: 3}
	// lumberjack opens the file lazily; write nothing now to surface errors
	// like a missing directory early.
	if _, err := rotating.Write(nil); err != nil {
		rotating = nil
		out.set(io.Discard)
		return err
	}
	out.set(rotating)
	return nil
}

// SetLevel sets the minimal level of logged messages, such as "debug" or
// "warn".
func SetLevel(name string) error {
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

func closeRotating() {
	if rotating != nil {
		rotating.Close()
		rotating = nil
	}
}

type switchWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}
