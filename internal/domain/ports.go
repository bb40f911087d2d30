package domain

import (
	"context"
	"time"
)

// TaskService is the remote persistence service for tasks.
// Every call may fail with ErrPermissionDenied or ErrTransport.
type TaskService interface {
	// ListTasks returns root tasks with subtasks inlined.
	ListTasks(ctx context.Context) ([]*Task, error)

	// CreateTask creates a root task or a subtask.
	CreateTask(ctx context.Context, req NewTaskRequest) (*Task, error)

	// UpdateTask applies a partial update and returns the stored task.
	UpdateTask(ctx context.Context, id int, update TaskUpdate) (*Task, error)

	// DeleteTask removes a task and its subtree. A missing task is not an error.
	DeleteTask(ctx context.Context, id int) error

	// RequestApproval moves an in-progress task to pending approval.
	RequestApproval(ctx context.Context, id int) (*Task, error)

	// Approve completes a task pending approval.
	Approve(ctx context.Context, id int) (*Task, error)

	// Reject sends a task pending approval back to in progress.
	Reject(ctx context.Context, id int) (*Task, error)

	// Complete marks a task completed without approval.
	Complete(ctx context.Context, id int) (*Task, error)

	// RevertToInProgress withdraws an approval request.
	RevertToInProgress(ctx context.Context, id int) (*Task, error)
}

// UserDirectory lists the users tasks can be assigned to.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]User, error)
}

// WorkLog stores per-task Pomodoro settings and sittings.
type WorkLog interface {
	GetPomodoroSettings(ctx context.Context, taskID int) (PomodoroSettings, error)
	SavePomodoroSettings(ctx context.Context, taskID int, settings PomodoroSettings) error
	SaveSitting(ctx context.Context, taskID int, sitting Sitting) error
	ListSittings(ctx context.Context, taskID int) ([]Sitting, error)
}

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*Session, error)

	// Signup registers a new user and returns its session.
	Signup(ctx context.Context, name, email, password string) (*Session, error)
}

// Backend bundles every port the remote service implements.
type Backend interface {
	TaskService
	UserDirectory
	WorkLog
	Authenticator
}

// Session is an authenticated user with its API token.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SessionKey is the key-value store key of the current session.
const SessionKey = "session"

// KeyValueStore is durable local storage for checkpoints and the session.
type KeyValueStore interface {
	// Get decodes the value at key into v. Returns false if the key is absent.
	Get(key string, v any) (bool, error)

	// Put stores v at key.
	Put(key string, v any) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}

// Logger writes categorized log lines, optionally scoped to a task.
type Logger interface {
	Debug(taskID int, category, msg string)
	Info(taskID int, category, msg string)
	Warn(taskID int, category, msg string)
	Error(taskID int, category, msg string)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(int, string, string) {}
func (NopLogger) Info(int, string, string)  {}
func (NopLogger) Warn(int, string, string)  {}
func (NopLogger) Error(int, string, string) {}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (local + global).
	Load() (*Config, error)
}

// ConfigInfo describes a config file on disk.
type ConfigInfo struct {
	Path    string
	Content string
	Exists  bool
}

// ConfigManager inspects and initializes config files.
type ConfigManager interface {
	GetGlobalConfigInfo() ConfigInfo
	GetLocalConfigInfo() ConfigInfo
	InitGlobalConfig(cfg *Config) error
	InitLocalConfig(cfg *Config) error
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
