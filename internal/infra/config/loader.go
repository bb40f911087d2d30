// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/runoshun/taskflow/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	workDir       string // Directory holding the local .taskflow.toml
	globalConfDir string // Path to global config directory (e.g., ~/.config/taskflow)
}

// NewLoader creates a new Loader.
func NewLoader(workDir string) *Loader {
	return &Loader{
		workDir:       workDir,
		globalConfDir: DefaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(workDir, globalConfDir string) *Loader {
	return &Loader{
		workDir:       workDir,
		globalConfDir: globalConfDir,
	}
}

// DefaultGlobalConfigDir returns the default global config directory.
func DefaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalConfigDir(configHome)
}

// DefaultStateDir returns the default state directory.
func DefaultStateDir() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return domain.StateDir(stateHome)
}

// Load returns the merged configuration (local + global).
// Local config takes precedence over global config.
func (l *Loader) Load() (*domain.Config, error) {
	global, err := l.LoadGlobal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	local, err := l.LoadLocal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	base := domain.NewDefaultConfig()

	// Merge: default <- global <- local (later takes precedence)
	if global != nil {
		base = mergeConfigs(base, global)
	}
	if local != nil {
		base = mergeConfigs(base, local)
	}
	return base, nil
}

// LoadGlobal returns only the global configuration.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	if l.globalConfDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
}

// LoadLocal returns only the local configuration.
func (l *Loader) LoadLocal() (*domain.Config, error) {
	if l.workDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(domain.LocalConfigPath(l.workDir))
}

// loadFile loads a configuration from a file.
func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := convertRawToDomainConfig(raw)
	for i, w := range cfg.Warnings {
		cfg.Warnings[i] = fmt.Sprintf("%s: %s", path, w)
	}
	return cfg, nil
}

// sectionParser reads known keys of one section into res.
// It returns false for keys it does not know.
type sectionParser func(res *domain.Config, key string, value any, warn func(string)) bool

var sections = map[string]sectionParser{
	"api":      parseAPI,
	"timer":    parseTimer,
	"pomodoro": parsePomodoro,
	"board":    parseBoard,
	"log":      parseLog,
}

// convertRawToDomainConfig converts the raw map to domain config and collects warnings.
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	var warnings []string

	for section, value := range raw {
		parse, ok := sections[section]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
			continue
		}
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("[%s] must be a table", section))
			continue
		}
		for k, v := range m {
			warn := func(msg string) {
				warnings = append(warnings, fmt.Sprintf("[%s] %s: %s", section, k, msg))
			}
			if !parse(res, k, v, warn) {
				warnings = append(warnings, fmt.Sprintf("unknown key in [%s]: %s", section, k))
			}
		}
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}

func parseAPI(res *domain.Config, key string, value any, warn func(string)) bool {
	switch key {
	case "backend":
		if s, ok := stringValue(value, warn); ok {
			if s != domain.BackendHTTP && s != domain.BackendSQLite {
				warn(fmt.Sprintf("unsupported backend %q", s))
				return true
			}
			res.API.Backend = s
		}
	case "url":
		if s, ok := stringValue(value, warn); ok {
			res.API.URL = s
		}
	case "dsn":
		if s, ok := stringValue(value, warn); ok {
			res.API.DSN = s
		}
	case "timeout":
		if d, ok := durationValue(value, warn); ok {
			res.API.Timeout = d
		}
	default:
		return false
	}
	return true
}

func parseTimer(res *domain.Config, key string, value any, warn func(string)) bool {
	switch key {
	case "tick":
		if d, ok := durationValue(value, warn); ok {
			res.Timer.Tick = d
		}
	case "stale_after":
		if d, ok := durationValue(value, warn); ok {
			res.Timer.StaleAfter = d
		}
	case "live_after":
		if d, ok := durationValue(value, warn); ok {
			res.Timer.LiveAfter = d
		}
	case "notify":
		if s, ok := stringValue(value, warn); ok {
			res.Timer.Notify = s
		}
	default:
		return false
	}
	return true
}

func parsePomodoro(res *domain.Config, key string, value any, warn func(string)) bool {
	switch key {
	case "work_minutes":
		if n, ok := minutesValue(value, warn); ok {
			res.Pomodoro.WorkMinutes = n
		}
	case "break_minutes":
		if n, ok := minutesValue(value, warn); ok {
			res.Pomodoro.BreakMinutes = n
		}
	default:
		return false
	}
	return true
}

func parseBoard(res *domain.Config, key string, value any, warn func(string)) bool {
	switch key {
	case "refresh":
		if s, ok := stringValue(value, warn); ok {
			res.Board.Refresh = s
		}
	default:
		return false
	}
	return true
}

func parseLog(res *domain.Config, key string, value any, warn func(string)) bool {
	switch key {
	case "level":
		if s, ok := stringValue(value, warn); ok {
			res.Log.Level = s
		}
	default:
		return false
	}
	return true
}

func stringValue(v any, warn func(string)) (string, bool) {
	s, ok := v.(string)
	if !ok {
		warn("expected a string")
	}
	return s, ok
}

// durationValue accepts a Go duration string ("15s") or whole seconds.
func durationValue(v any, warn func(string)) (time.Duration, bool) {
	switch x := v.(type) {
	case string:
		d, err := time.ParseDuration(x)
		if err != nil || d <= 0 {
			warn(fmt.Sprintf("invalid duration %q", x))
			return 0, false
		}
		return d, true
	case int64:
		if x <= 0 {
			warn("must be positive")
			return 0, false
		}
		return time.Duration(x) * time.Second, true
	default:
		warn("expected a duration")
		return 0, false
	}
}

func minutesValue(v any, warn func(string)) (int, bool) {
	n, ok := v.(int64)
	if !ok {
		warn("expected an integer")
		return 0, false
	}
	if n <= 0 {
		warn("must be positive")
		return 0, false
	}
	return int(n), true
}

// mergeConfigs merges two configs, with override taking precedence.
func mergeConfigs(base, override *domain.Config) *domain.Config {
	result := *base
	result.Warnings = append(append([]string(nil), base.Warnings...), override.Warnings...)

	if override.API.Backend != "" {
		result.API.Backend = override.API.Backend
	}
	if override.API.URL != "" {
		result.API.URL = override.API.URL
	}
	if override.API.DSN != "" {
		result.API.DSN = override.API.DSN
	}
	if override.API.Timeout != 0 {
		result.API.Timeout = override.API.Timeout
	}
	if override.Timer.Tick != 0 {
		result.Timer.Tick = override.Timer.Tick
	}
	if override.Timer.StaleAfter != 0 {
		result.Timer.StaleAfter = override.Timer.StaleAfter
	}
	if override.Timer.LiveAfter != 0 {
		result.Timer.LiveAfter = override.Timer.LiveAfter
	}
	if override.Timer.Notify != "" {
		result.Timer.Notify = override.Timer.Notify
	}
	if override.Pomodoro.WorkMinutes != 0 {
		result.Pomodoro.WorkMinutes = override.Pomodoro.WorkMinutes
	}
	if override.Pomodoro.BreakMinutes != 0 {
		result.Pomodoro.BreakMinutes = override.Pomodoro.BreakMinutes
	}
	if override.Board.Refresh != "" {
		result.Board.Refresh = override.Board.Refresh
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	return &result
}
