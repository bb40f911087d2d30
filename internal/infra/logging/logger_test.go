package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // default
		{"", slog.LevelInfo},        // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLevel(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLogger_Info(t *testing.T) {
	// Setup
	stateDir := t.TempDir()
	clock := &testutil.MockClock{NowTime: time.Date(2025, 12, 30, 9, 32, 51, 0, time.UTC)}
	logger := New(stateDir, slog.LevelInfo, WithClock(clock))
	defer func() { _ = logger.Close() }()

	// Execute
	logger.Info(1, "timer", "sitting recorded: 60s")

	// Verify global log
	content, err := os.ReadFile(domain.GlobalLogPath(stateDir))
	require.NoError(t, err)
	assert.Equal(t, "[2025-12-30 09:32:51] [INFO] [task-1] [timer] sitting recorded: 60s\n", string(content))

	// Verify task log
	taskContent, err := os.ReadFile(domain.TaskLogPath(stateDir, 1))
	require.NoError(t, err)
	assert.Equal(t, string(content), string(taskContent))
}

func TestLogger_GlobalOnly(t *testing.T) {
	stateDir := t.TempDir()
	logger := New(stateDir, slog.LevelInfo)
	defer func() { _ = logger.Close() }()

	logger.Warn(0, "auth", "login failed")

	content, err := os.ReadFile(domain.GlobalLogPath(stateDir))
	require.NoError(t, err)
	assert.Contains(t, string(content), "[WARN] [global] [auth] login failed")

	entries, err := os.ReadDir(filepath.Join(stateDir, "logs"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLogger_LevelFiltering(t *testing.T) {
	stateDir := t.TempDir()
	logger := New(stateDir, slog.LevelWarn)
	defer func() { _ = logger.Close() }()

	logger.Debug(1, "timer", "debug message")
	logger.Info(1, "timer", "info message")
	logger.Warn(1, "timer", "warn message")
	logger.Error(1, "timer", "error message")

	content, err := os.ReadFile(domain.GlobalLogPath(stateDir))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "debug message")
	assert.NotContains(t, string(content), "info message")
	assert.Contains(t, string(content), "[WARN]")
	assert.Contains(t, string(content), "[ERROR]")
	assert.Equal(t, 2, strings.Count(string(content), "\n"))
}

func TestLogger_Disabled(t *testing.T) {
	logger := New("", slog.LevelDebug)

	// Should not panic or create files
	logger.Info(1, "task", "message")
	require.NoError(t, logger.Close())
}

func TestLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := New("", slog.LevelDebug, WithConsole(&buf, slog.LevelWarn))

	logger.Info(3, "timer", "quiet")
	logger.Error(3, "timer", "save sitting failed")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, `msg="save sitting failed"`)
	assert.Contains(t, out, "category=timer")
	assert.Contains(t, out, "task=3")
}

func TestLogger_Appends(t *testing.T) {
	stateDir := t.TempDir()
	first := New(stateDir, slog.LevelInfo)
	first.Info(0, "app", "one")
	require.NoError(t, first.Close())

	second := New(stateDir, slog.LevelInfo)
	second.Info(0, "app", "two")
	require.NoError(t, second.Close())

	content, err := os.ReadFile(domain.GlobalLogPath(stateDir))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(content), "\n"))
}
