package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestShowLogs_Execute_Task(t *testing.T) {
	// Setup
	stateDir := t.TempDir()
	logPath := domain.TaskLogPath(stateDir, 1)
	writeLog(t, logPath, "line1\nline2\nline3\nline4\nline5\n")
	uc := NewShowLogs(stateDir)

	// Execute
	out, err := uc.Execute(context.Background(), ShowLogsInput{TaskID: 1})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, logPath, out.LogPath)
	assert.Equal(t, "line1\nline2\nline3\nline4\nline5", out.Content)
}

func TestShowLogs_Execute_Global(t *testing.T) {
	stateDir := t.TempDir()
	writeLog(t, domain.GlobalLogPath(stateDir), "started\n")
	uc := NewShowLogs(stateDir)

	out, err := uc.Execute(context.Background(), ShowLogsInput{})

	require.NoError(t, err)
	assert.Equal(t, domain.GlobalLogPath(stateDir), out.LogPath)
	assert.Equal(t, "started", out.Content)
}

func TestShowLogs_Execute_Lines(t *testing.T) {
	stateDir := t.TempDir()
	writeLog(t, domain.TaskLogPath(stateDir, 2), "a\nb\nc\nd\n")
	uc := NewShowLogs(stateDir)

	out, err := uc.Execute(context.Background(), ShowLogsInput{TaskID: 2, Lines: 2})

	require.NoError(t, err)
	assert.Equal(t, "c\nd", out.Content)
}

func TestShowLogs_Execute_Missing(t *testing.T) {
	uc := NewShowLogs(t.TempDir())

	out, err := uc.Execute(context.Background(), ShowLogsInput{TaskID: 3})

	require.NoError(t, err)
	assert.Empty(t, out.Content)
}
