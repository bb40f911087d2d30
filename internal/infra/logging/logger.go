// Package logging provides file-based logging for taskflow.
// It outputs logs to both a global log file (<state>/logs/taskflow.log)
// and task-specific log files (<state>/logs/task-N.log).
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/runoshun/taskflow/internal/domain"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

// Logger writes categorized lines to log files and optionally mirrors them
// to a console handler.
// Fields are ordered to minimize memory padding.
type Logger struct {
	clock      domain.Clock
	console    *slog.Logger
	globalFile *os.File
	taskFiles  map[int]*os.File
	stateDir   string
	mu         sync.Mutex
	level      slog.Level
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock sets the clock used for timestamps.
func WithClock(clock domain.Clock) Option {
	return func(l *Logger) { l.clock = clock }
}

// WithConsole mirrors entries at or above level to w as slog text records.
func WithConsole(w io.Writer, level slog.Level) Option {
	return func(l *Logger) {
		l.console = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}
}

// New creates a new Logger that writes to the state log directory.
// If stateDir is empty, file logging is disabled.
func New(stateDir string, level slog.Level, opts ...Option) *Logger {
	l := &Logger{
		clock:     domain.RealClock{},
		stateDir:  stateDir,
		level:     level,
		taskFiles: make(map[int]*os.File),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureLogsDir creates the logs directory if it doesn't exist.
func (l *Logger) ensureLogsDir() error {
	return os.MkdirAll(filepath.Join(l.stateDir, "logs"), 0o750)
}

// openFile opens path for appending.
func (l *Logger) openFile(path string) (*os.File, error) {
	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// files returns the files an entry for taskID goes to, opening them on first use.
func (l *Logger) files(taskID int) []*os.File {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*os.File
	if l.globalFile == nil {
		if f, err := l.openFile(domain.GlobalLogPath(l.stateDir)); err == nil {
			l.globalFile = f
		}
	}
	if l.globalFile != nil {
		out = append(out, l.globalFile)
	}
	if taskID <= 0 {
		return out
	}
	f, ok := l.taskFiles[taskID]
	if !ok {
		var err error
		if f, err = l.openFile(domain.TaskLogPath(l.stateDir, taskID)); err != nil {
			return out
		}
		l.taskFiles[taskID] = f
	}
	return append(out, f)
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.globalFile != nil {
		if err := l.globalFile.Close(); err != nil {
			lastErr = err
		}
		l.globalFile = nil
	}
	for id, f := range l.taskFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.taskFiles, id)
	}
	return lastErr
}

// formatLog formats a log entry.
// Format: [2025-12-30 09:32:51] [INFO] [task-1] [category] message
func formatLog(t string, level slog.Level, taskID int, category, msg string) string {
	taskStr := "global"
	if taskID > 0 {
		taskStr = fmt.Sprintf("task-%d", taskID)
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n", t, levelToString(level), taskStr, category, msg)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// log writes an entry to the global log and, for taskID > 0, the task log.
func (l *Logger) log(level slog.Level, taskID int, category, msg string) {
	if l.console != nil {
		attrs := []slog.Attr{slog.String("category", category)}
		if taskID > 0 {
			attrs = append(attrs, slog.Int("task", taskID))
		}
		l.console.LogAttrs(context.Background(), level, msg, attrs...)
	}

	if l.stateDir == "" || level < l.level {
		return
	}

	entry := formatLog(l.clock.Now().Format("2006-01-02 15:04:05"), level, taskID, category, msg)
	for _, f := range l.files(taskID) {
		_, _ = io.WriteString(f, entry)
	}
}

// Info logs an info message.
func (l *Logger) Info(taskID int, category, msg string) {
	l.log(slog.LevelInfo, taskID, category, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(taskID int, category, msg string) {
	l.log(slog.LevelDebug, taskID, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(taskID int, category, msg string) {
	l.log(slog.LevelWarn, taskID, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(taskID int, category, msg string) {
	l.log(slog.LevelError, taskID, category, msg)
}
