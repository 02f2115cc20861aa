package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"ERROR", LevelError},
		{"nonsense", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogLevel(tt.input))
		})
	}
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestDefaultLogger_Levels(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelDebug, buf)

	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.Error("error line")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG]")
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "debug line")
	assert.Contains(t, out, "error line")
}

func TestDefaultLogger_FilterByLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelWarn, buf)

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestDefaultLogger_SetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelError, buf)

	logger.Info("before")
	logger.SetLevel(LevelInfo)
	logger.Info("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")
}

func TestDefaultLogger_Formatting(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelInfo, buf)

	logger.Info("measured %d objects in %s", 42, "12ms")

	assert.Contains(t, buf.String(), "measured 42 objects in 12ms")
}

func TestDefaultLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelInfo, buf)

	derived := logger.WithField("source", "input.json").WithFields(map[string]interface{}{
		"run": 3,
	})
	derived.Info("done")

	out := buf.String()
	assert.Contains(t, out, "run=3")
	assert.Contains(t, out, "source=input.json")
	// Sorted field order keeps lines stable.
	assert.Less(t, strings.Index(out, "run=3"), strings.Index(out, "source=input.json"))

	// The parent logger must not inherit the derived fields.
	buf.Reset()
	logger.Info("plain")
	assert.NotContains(t, buf.String(), "source=")
}

func TestNullLogger(t *testing.T) {
	var logger Logger = NullLogger{}

	// None of these may panic or produce output.
	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d")
	assert.Equal(t, logger, logger.WithField("k", "v"))
	assert.Equal(t, logger, logger.WithFields(map[string]interface{}{"k": "v"}))
}

func TestDefaultAndSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	replacement := NullLogger{}
	SetDefault(replacement)
	assert.Equal(t, Logger(replacement), Default())

	// Nil is ignored.
	SetDefault(nil)
	assert.Equal(t, Logger(replacement), Default())
}
