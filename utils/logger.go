package utils

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger provides leveled, printf-style logging throughout the application.
type Logger struct {
	l *log.Logger
}

// NewLogger creates a Logger writing to stderr at info level.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stderr, "info")
}

// NewLoggerTo creates a Logger writing to w. Unknown levels fall back to info.
func NewLoggerTo(w io.Writer, level string) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           parseLevel(level),
	})
	return &Logger{l: l}
}

// With returns a child logger carrying the given key/value pairs on every line.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{l: l.l.With(keyvals...)}
}

func (l *Logger) Info(format string, args ...any) {
	l.l.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.l.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.l.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.l.Debugf(format, args...)
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
