package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  LogLevel
	}{
		{name: "debug lower", input: "debug", want: LevelDebug},
		{name: "info upper", input: "INFO", want: LevelInfo},
		{name: "warn mixed", input: "WaRn", want: LevelWarn},
		{name: "error", input: "error", want: LevelError},
		{name: "fatal", input: "fatal", want: LevelFatal},
		{name: "trim spaces", input: "  debug  ", want: LevelDebug},
		{name: "unknown fallback", input: "verbose", want: LevelInfo},
		{name: "empty fallback", input: "", want: LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestFileLoggerRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	fl, err := NewFileLogger(path, LevelWarn)
	require.NoError(t, err)

	fl.Debug("invisible debug")
	fl.Info("invisible info")
	fl.Warn("visible warning %d", 42)
	fl.Error("visible failure")
	require.NoError(t, fl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.NotContains(t, content, "invisible")
	assert.Contains(t, content, "visible warning 42")
	assert.Contains(t, content, "[WARN]")
	assert.Contains(t, content, "[ERROR]")

	// Entries carry the calling file and line.
	assert.Contains(t, content, "logger_test.go:")
}

func TestSetGlobal(t *testing.T) {
	original := GetLogger()
	defer SetGlobal(original)

	replacement := NewLogger(LevelError)
	SetGlobal(replacement)
	assert.Same(t, replacement, GetLogger())

	// nil is ignored instead of clearing the global.
	SetGlobal(nil)
	assert.Same(t, replacement, GetLogger())
}

func TestLoggerSetLevel(t *testing.T) {
	l := NewLogger(LevelError)
	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, l.level)
}

func TestLevelNamesCoverAllLevels(t *testing.T) {
	for _, lvl := range []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal} {
		name, ok := levelNames[lvl]
		require.True(t, ok)
		assert.False(t, strings.EqualFold(name, ""))
	}
}
