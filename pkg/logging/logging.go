// Package logging builds the logrus logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Options select where and how much to log.
type Options struct {
	// Level is a logrus level name, info when empty.
	Level string
	// File receives the log when set, otherwise Out does.
	File string
	// Out defaults to stderr.
	Out  io.Writer
	JSON bool
}

// New returns a configured logger and a func closing its file, if any.
func New(o Options) (*logrus.Logger, func() error, error) {
	log := logrus.New()
	closer := func() error { return nil }

	level := logrus.InfoLevel
	if o.Level != "" {
		l, err := logrus.ParseLevel(o.Level)
		if err != nil {
			return nil, closer, fmt.Errorf("logging: %w", err)
		}
		level = l
	}
	log.SetLevel(level)

	if o.JSON {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05"})
	}

	switch {
	case o.File != "":
		if err := os.MkdirAll(filepath.Dir(o.File), 0o755); err != nil {
			return nil, closer, fmt.Errorf("logging: %w", err)
		}
		f, err := os.OpenFile(o.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, closer, fmt.Errorf("logging: %w", err)
		}
		log.SetOutput(f)
		closer = f.Close
	case o.Out != nil:
		log.SetOutput(o.Out)
	default:
		log.SetOutput(os.Stderr)
	}
	return log, closer, nil
}

// Record is one forwarded log line.
type Record struct {
	Level   logrus.Level
	Message string
	Time    time.Time
}

// Hook forwards warnings and errors to a channel the TUI drains.
type Hook struct {
	ch chan Record
}

// NewHook returns a hook buffering up to size records.
func NewHook(size int) *Hook {
	return &Hook{ch: make(chan Record, size)}
}

// C is the channel of forwarded records.
func (h *Hook) C() <-chan Record { return h.ch }

// Levels implements logrus.Hook.
func (h *Hook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}
}

// Fire implements logrus.Hook. A full buffer drops the record; the log
// output still has it.
func (h *Hook) Fire(e *logrus.Entry) error {
	select {
	case h.ch <- Record{Level: e.Level, Message: e.Message, Time: e.Time}:
	default:
	}
	return nil
}
