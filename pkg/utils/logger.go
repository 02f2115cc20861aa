package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel is the severity of a log line.
type LogLevel int

const (
	// LevelDebug enables verbose diagnostics.
	LevelDebug LogLevel = iota
	// LevelInfo is the normal operating level.
	LevelInfo
	// LevelWarn reports recoverable problems.
	LevelWarn
	// LevelError reports failures.
	LevelError
)

// String returns the level tag used in log lines.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel maps a configuration string to a LogLevel.
// Unrecognized values fall back to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is the logging interface used across the toolkit.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// DefaultLogger writes timestamped, leveled lines to a single writer.
// A zero fields map is shared structurally; WithField returns a copy so
// derived loggers never mutate their parent.
type DefaultLogger struct {
	mu     sync.Mutex
	level  LogLevel
	out    io.Writer
	fields map[string]interface{}
}

// NewDefaultLogger creates a logger writing to out at the given level.
// A nil out writes to standard output.
func NewDefaultLogger(level LogLevel, out io.Writer) *DefaultLogger {
	if out == nil {
		out = os.Stdout
	}
	return &DefaultLogger{
		level:  level,
		out:    out,
		fields: map[string]interface{}{},
	}
}

// NewFileLogger creates a logger appending to path, creating parent
// directories as needed.
func NewFileLogger(level LogLevel, path string) (*DefaultLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewDefaultLogger(level, f), nil
}

// SetLevel changes the minimum level that will be written.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Debug logs at debug level.
func (l *DefaultLogger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, args...) }

// Info logs at info level.
func (l *DefaultLogger) Info(msg string, args ...interface{}) { l.log(LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *DefaultLogger) Warn(msg string, args ...interface{}) { l.log(LevelWarn, msg, args...) }

// Error logs at error level.
func (l *DefaultLogger) Error(msg string, args ...interface{}) { l.log(LevelError, msg, args...) }

// WithField returns a logger that prepends key=value to every line.
func (l *DefaultLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a logger carrying the merged field set.
func (l *DefaultLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &DefaultLogger{level: l.level, out: l.out, fields: merged}
}

func (l *DefaultLogger) log(level LogLevel, msg string, args ...interface{}) {
	if level < l.level {
		return
	}

	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	sb.WriteString("] [")
	sb.WriteString(level.String())
	sb.WriteByte(']')

	// Fields go out in sorted order so lines are stable across runs.
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, l.fields[k])
		}
	}

	sb.WriteByte(' ')
	fmt.Fprintf(&sb, msg, args...)
	sb.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, sb.String())
}

// NullLogger discards everything. Useful as a test default.
type NullLogger struct{}

// Debug does nothing.
func (NullLogger) Debug(msg string, args ...interface{}) {}

// Info does nothing.
func (NullLogger) Info(msg string, args ...interface{}) {}

// Warn does nothing.
func (NullLogger) Warn(msg string, args ...interface{}) {}

// Error does nothing.
func (NullLogger) Error(msg string, args ...interface{}) {}

// WithField returns the receiver.
func (n NullLogger) WithField(key string, value interface{}) Logger { return n }

// WithFields returns the receiver.
func (n NullLogger) WithFields(fields map[string]interface{}) Logger { return n }

var defaultLogger Logger = NewDefaultLogger(LevelInfo, os.Stdout)

// SetDefault replaces the package-level logger.
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the package-level logger.
func Default() Logger {
	return defaultLogger
}
