package main

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/daniacca/hatchery/internal/hatch"
)

var _ hatch.Logger = (*Logger)(nil)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelTags = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l LogLevel) String() string {
	if l < LogLevelDebug || l > LogLevelError {
		return "unknown"
	}
	return strings.ToLower(levelTags[l])
}

// parseLogLevel parses a level name, case-insensitively. Unknown names fall
// back to info.
func parseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger writes leveled lines tagged with the component that produced them,
// e.g. "[INFO] batches: Batch submitted: ...". It satisfies hatch.Logger.
type Logger struct {
	level     LogLevel
	out       *log.Logger
	component string
}

// NewLogger creates a logger writing to stderr.
func NewLogger(level string) *Logger {
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo creates a logger writing to w.
func NewLoggerTo(w io.Writer, level string) *Logger {
	return &Logger{
		level: parseLogLevel(level),
		out:   log.New(w, "", log.LstdFlags),
	}
}

// With returns a logger sharing l's output and level that tags lines with
// component.
func (l *Logger) With(component string) *Logger {
	child := *l
	child.component = component
	return &child
}

func (l *Logger) logf(level LogLevel, format string, v []any) {
	if level < l.level {
		return
	}
	prefix := "[" + levelTags[level] + "] "
	if l.component != "" {
		prefix += l.component + ": "
	}
	l.out.Printf(prefix+format, v...)
}

func (l *Logger) Debugf(format string, v ...any) { l.logf(LogLevelDebug, format, v) }
func (l *Logger) Infof(format string, v ...any)  { l.logf(LogLevelInfo, format, v) }
func (l *Logger) Warnf(format string, v ...any)  { l.logf(LogLevelWarn, format, v) }
func (l *Logger) Errorf(format string, v ...any) { l.logf(LogLevelError, format, v) }

// Fatalf logs regardless of level and exits.
func (l *Logger) Fatalf(format string, v ...any) {
	l.out.Fatalf("[FATAL] "+format, v...)
}
