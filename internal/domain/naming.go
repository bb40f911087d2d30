package domain

import (
	"fmt"
	"path/filepath"
)

// GlobalConfigDir returns the global config directory under configHome.
func GlobalConfigDir(configHome string) string {
	return filepath.Join(configHome, appDirName)
}

// StateDir returns the state directory under stateHome.
func StateDir(stateHome string) string {
	return filepath.Join(stateHome, appDirName)
}

// LocalConfigPath returns the path of the per-directory config file.
func LocalConfigPath(dir string) string {
	return filepath.Join(dir, LocalConfigFileName)
}

// StatePath returns the path of the key-value store file.
func StatePath(stateDir string) string {
	return filepath.Join(stateDir, StateFileName)
}

// DatabasePath returns the default SQLite file of the local backend.
func DatabasePath(stateDir string) string {
	return filepath.Join(stateDir, DatabaseFileName)
}

// TaskLogPath returns the path to the task log file.
func TaskLogPath(stateDir string, taskID int) string {
	return filepath.Join(stateDir, "logs", fmt.Sprintf("task-%d.log", taskID))
}

// GlobalLogPath returns the path to the global log file.
func GlobalLogPath(stateDir string) string {
	return filepath.Join(stateDir, "logs", "taskflow.log")
}
