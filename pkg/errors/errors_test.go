package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      New(CodeDatabaseError, "connection failed"),
			expected: "[DATABASE_ERROR] connection failed",
		},
		{
			name:     "with cause",
			err:      Wrap(CodeStorageError, "upload failed", errors.New("network timeout")),
			expected: "[STORAGE_ERROR] upload failed: network timeout",
		},
		{
			name:     "formatted",
			err:      Newf(CodeInvalidInput, "file too large: %d bytes", 1024),
			expected: "[INVALID_INPUT] file too large: 1024 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeStorageError, "write failed", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	a := New(CodeDatabaseError, "first")
	b := New(CodeDatabaseError, "second")
	c := New(CodeNotFound, "third")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
	assert.False(t, errors.Is(a, errors.New("plain")))
}

func TestSentinelHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"invalid input", Newf(CodeInvalidInput, "bad json"), IsInvalidInput, true},
		{"wrapped invalid input", fmt.Errorf("outer: %w", New(CodeInvalidInput, "bad json")), IsInvalidInput, true},
		{"not found", New(CodeNotFound, "report gone"), IsNotFound, true},
		{"measure", New(CodeMeasureError, "walk failed"), IsMeasureError, true},
		{"database", Wrap(CodeDatabaseError, "save", errors.New("locked")), IsDatabaseError, true},
		{"storage", New(CodeStorageError, "cos"), IsStorageError, true},
		{"mismatch", New(CodeNotFound, "report gone"), IsDatabaseError, false},
		{"plain error", errors.New("plain"), IsNotFound, false},
		{"nil", nil, IsNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, CodeConfigError, Code(New(CodeConfigError, "bad yaml")))
	assert.Equal(t, CodeEncodeError, Code(fmt.Errorf("wrapped: %w", New(CodeEncodeError, "marshal"))))
	assert.Equal(t, CodeUnknown, Code(errors.New("plain")))
	assert.Equal(t, CodeUnknown, Code(nil))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "bad yaml", Message(New(CodeConfigError, "bad yaml")))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Equal(t, "", Message(nil))
}
