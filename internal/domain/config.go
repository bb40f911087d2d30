package domain

import (
	"bytes"
	_ "embed"
	"text/template"
	"time"
)

//go:embed config_template.toml
var configTemplateContent string

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings []string       `toml:"-"`
	API      APIConfig      `toml:"api"`
	Board    BoardConfig    `toml:"board"`
	Log      LogConfig      `toml:"log"`
	Timer    TimerConfig    `toml:"timer"`
	Pomodoro PomodoroConfig `toml:"pomodoro"`
}

// APIConfig holds settings for the persistence service from [api] section.
type APIConfig struct {
	Backend string        `toml:"backend,omitempty"` // "http" (default) or "sqlite"
	URL     string        `toml:"url,omitempty"`     // Base URL of the REST service
	DSN     string        `toml:"dsn,omitempty"`     // SQLite file for the local backend
	Timeout time.Duration `toml:"timeout,omitempty"` // Per-request timeout
}

// TimerConfig holds work timer settings from [timer] section.
type TimerConfig struct {
	Tick       time.Duration `toml:"tick,omitempty"`        // Sampling interval of the running timer
	StaleAfter time.Duration `toml:"stale_after,omitempty"` // Checkpoints older than this end the session instead of resuming it
	LiveAfter  time.Duration `toml:"live_after,omitempty"`  // Checkpoints newer than this belong to a running timer
	Notify     string        `toml:"notify,omitempty"`      // Shell command run when a Pomodoro phase begins
}

// PomodoroConfig holds client-side defaults from [pomodoro] section.
type PomodoroConfig struct {
	WorkMinutes  int `toml:"work_minutes,omitempty"`
	BreakMinutes int `toml:"break_minutes,omitempty"`
}

// Settings converts the configured minutes to Pomodoro settings.
func (p PomodoroConfig) Settings() PomodoroSettings {
	return PomodoroSettings{WorkTime: p.WorkMinutes * 60, BreakTime: p.BreakMinutes * 60}.WithDefaults()
}

// BoardConfig holds task list settings from [board] section.
type BoardConfig struct {
	Refresh string `toml:"refresh,omitempty"` // Cron spec for reloading the task list in the TUI
}

// LogConfig holds logging settings from [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // Log level: debug, info, warn, error
}

// Backend names.
const (
	BackendHTTP   = "http"
	BackendSQLite = "sqlite"
)

// Default configuration values.
const (
	DefaultLogLevel   = "info"
	DefaultAPIURL     = "http://127.0.0.1:8000/api"
	DefaultAPITimeout = 15 * time.Second
	DefaultTick       = 100 * time.Millisecond
	DefaultStaleAfter = 12 * time.Hour
	DefaultLiveAfter  = 5 * time.Second
	DefaultRefresh    = "@every 30s"
)

// Config file and directory names.
const (
	ConfigFileName      = "config.toml"    // Config file name in the global config directory
	LocalConfigFileName = ".taskflow.toml" // Config file name in the working directory
	StateFileName       = "state.json"     // Key-value store for checkpoints and the session
	DatabaseFileName    = "taskflow.db"    // SQLite file of the local backend
	appDirName          = "taskflow"
)

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Backend: BackendHTTP,
			URL:     DefaultAPIURL,
			Timeout: DefaultAPITimeout,
		},
		Timer: TimerConfig{
			Tick:       DefaultTick,
			StaleAfter: DefaultStaleAfter,
			LiveAfter:  DefaultLiveAfter,
		},
		Pomodoro: PomodoroConfig{
			WorkMinutes:  DefaultWorkTime / 60,
			BreakMinutes: DefaultBreakTime / 60,
		},
		Board: BoardConfig{
			Refresh: DefaultRefresh,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// RenderConfigTemplate renders the commented config file written by 'taskflow config init'.
func RenderConfigTemplate(cfg *Config) (string, error) {
	tmpl, err := template.New("config").Parse(configTemplateContent)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return "", err
	}
	return buf.String(), nil
}
