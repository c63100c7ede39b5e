package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLoggerConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "sync.log")

	logger, err := New(Config{
		Console:      &console,
		ConsoleLevel: InfoLevel,
		FilePath:     logPath,
		FileFormat:   FormatText,
		FileLevel:    InfoLevel,
	})
	require.NoError(t, err)

	ctx := context.Background()
	logger.Info(ctx, "new", Fields{"path": "sub/a.txt"})
	logger.Debug(ctx, "hidden", nil)
	require.NoError(t, logger.Close())

	out := console.String()
	assert.Contains(t, out, "new")
	assert.Contains(t, out, "path=sub/a.txt")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "\x1b[", "non-terminal console must not be colored")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "level=INFO")
	assert.Contains(t, string(data), "msg=new")
	assert.Contains(t, string(data), "path=sub/a.txt")
	assert.Contains(t, string(data), "time=")
	assert.NotContains(t, string(data), "hidden")
}

func TestSlogLoggerLevelsPerSink(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "debug.log")

	logger, err := New(Config{
		Console:      &console,
		ConsoleLevel: ErrorLevel,
		FilePath:     logPath,
		FileLevel:    DebugLevel,
	})
	require.NoError(t, err)

	ctx := context.Background()
	logger.Debug(ctx, "debug message", nil)
	logger.Warn(ctx, "warn message", nil)
	require.NoError(t, logger.Close())

	assert.Empty(t, console.String())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug message")
	assert.Contains(t, string(data), "warn message")
}

func TestSlogLoggerJSONFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "sync.json")
	logger, err := New(Config{
		DisableConsole: true,
		FilePath:       logPath,
		FileFormat:     FormatJSON,
		FileLevel:      InfoLevel,
	})
	require.NoError(t, err)

	logger.Error(context.Background(), "update failed", errors.New("disk full"), Fields{"path": "b.txt"})
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "update failed", entry["msg"])
	assert.Equal(t, "disk full", entry["err"])
	assert.Equal(t, "b.txt", entry["path"])
}

func TestSlogLoggerWithFields(t *testing.T) {
	var console bytes.Buffer
	logger, err := New(Config{Console: &console, ConsoleLevel: InfoLevel})
	require.NoError(t, err)

	child := logger.WithFields(Fields{"cycle": "abc"})
	child.Info(context.Background(), "del file", Fields{"path": "x"})

	out := console.String()
	assert.Contains(t, out, "cycle=abc")
	assert.Contains(t, out, "path=x")
	require.NoError(t, child.Close())
}

func TestSlogLoggerBadFilePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := New(Config{DisableConsole: true, FilePath: filepath.Join(blocker, "sub", "log.txt")})
	assert.Error(t, err)
}

func TestNullLogger(t *testing.T) {
	logger := NewNullLogger()
	ctx := context.Background()

	logger.Debug(ctx, "test", nil)
	logger.Info(ctx, "test", nil)
	logger.Warn(ctx, "test", nil)
	logger.Error(ctx, "test", errors.New("x"), nil)

	assert.Equal(t, Logger(logger), logger.WithFields(Fields{"key": "value"}))
	assert.NoError(t, logger.Close())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"Warning", WarnLevel},
		{"error", ErrorLevel},
		{"bogus", InfoLevel},
		{"", InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelString(DebugLevel))
	assert.Equal(t, "INFO", LevelString(InfoLevel))
	assert.Equal(t, "WARN", LevelString(WarnLevel))
	assert.Equal(t, "ERROR", LevelString(ErrorLevel))
	assert.Equal(t, "UNKNOWN", LevelString(Level(42)))
	assert.True(t, strings.EqualFold("info", LevelString(ParseLevel("info"))))
}
