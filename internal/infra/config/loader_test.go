package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoader_Load_LocalConfigOnly(t *testing.T) {
	// Setup: create temp directories
	workDir := t.TempDir()
	globalDir := t.TempDir()

	writeFile(t, domain.LocalConfigPath(workDir), `
[api]
backend = "sqlite"
dsn = "/tmp/tasks.db"
timeout = "5s"

[timer]
tick = "250ms"
notify = "echo done"

[log]
level = "debug"
`)

	// Load config
	loader := NewLoaderWithGlobalDir(workDir, globalDir)
	cfg, err := loader.Load()
	require.NoError(t, err)

	// Verify
	assert.Equal(t, domain.BackendSQLite, cfg.API.Backend)
	assert.Equal(t, "/tmp/tasks.db", cfg.API.DSN)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Timer.Tick)
	assert.Equal(t, "echo done", cfg.Timer.Notify)
	assert.Equal(t, domain.DefaultStaleAfter, cfg.Timer.StaleAfter)
	assert.Equal(t, domain.DefaultLiveAfter, cfg.Timer.LiveAfter)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Empty(t, cfg.Warnings)
}

func TestLoader_Load_GlobalConfigOnly(t *testing.T) {
	workDir := t.TempDir()
	globalDir := t.TempDir()

	writeFile(t, filepath.Join(globalDir, domain.ConfigFileName), `
[api]
url = "https://tasks.example.com/api"

[pomodoro]
work_minutes = 50
break_minutes = 10
`)

	cfg, err := NewLoaderWithGlobalDir(workDir, globalDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "https://tasks.example.com/api", cfg.API.URL)
	assert.Equal(t, domain.BackendHTTP, cfg.API.Backend)
	assert.Equal(t, domain.PomodoroSettings{WorkTime: 3000, BreakTime: 600}, cfg.Pomodoro.Settings())
}

func TestLoader_Load_MergeLocalOverridesGlobal(t *testing.T) {
	workDir := t.TempDir()
	globalDir := t.TempDir()

	writeFile(t, filepath.Join(globalDir, domain.ConfigFileName), `
[api]
url = "https://global.example.com/api"
timeout = 30

[board]
refresh = "@every 1m"

[log]
level = "warn"
`)
	writeFile(t, domain.LocalConfigPath(workDir), `
[api]
url = "https://local.example.com/api"

[log]
level = "debug"
`)

	cfg, err := NewLoaderWithGlobalDir(workDir, globalDir).Load()
	require.NoError(t, err)

	// Local wins where set, global fills the rest
	assert.Equal(t, "https://local.example.com/api", cfg.API.URL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "@every 1m", cfg.Board.Refresh)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoader_Load_NoConfigFiles(t *testing.T) {
	loader := NewLoaderWithGlobalDir(t.TempDir(), t.TempDir())
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, domain.NewDefaultConfig(), cfg)
}

func TestLoader_Load_NoDirectories(t *testing.T) {
	cfg, err := NewLoaderWithGlobalDir("", "").Load()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAPIURL, cfg.API.URL)
}

func TestLoader_LoadGlobal_NotFound(t *testing.T) {
	_, err := NewLoaderWithGlobalDir(t.TempDir(), t.TempDir()).LoadGlobal()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_LoadLocal(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, domain.LocalConfigPath(workDir), `
[timer]
stale_after = "2h"
live_after = "3s"
`)

	cfg, err := NewLoaderWithGlobalDir(workDir, t.TempDir()).LoadLocal()
	require.NoError(t, err)

	// Only the values from the file, no defaults
	assert.Equal(t, 2*time.Hour, cfg.Timer.StaleAfter)
	assert.Equal(t, 3*time.Second, cfg.Timer.LiveAfter)
	assert.Zero(t, cfg.Timer.Tick)
	assert.Empty(t, cfg.API.URL)
}

func TestLoader_Load_InvalidTOML(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, domain.LocalConfigPath(workDir), "[api\nurl = ")

	_, err := NewLoaderWithGlobalDir(workDir, t.TempDir()).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.LocalConfigFileName)
}

func TestLoader_Load_Warnings(t *testing.T) {
	workDir := t.TempDir()
	path := domain.LocalConfigPath(workDir)
	writeFile(t, path, `
[api]
backend = "postgres"
token = "secret"
timeout = "soon"

[timer]
tick = -1

[pomodoro]
work_minutes = "25"

[workers]
default = "claude"
`)

	cfg, err := NewLoaderWithGlobalDir(workDir, t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{
		path + `: [api] backend: unsupported backend "postgres"`,
		path + `: [api] timeout: invalid duration "soon"`,
		path + ": [pomodoro] work_minutes: expected an integer",
		path + ": [timer] tick: must be positive",
		path + ": unknown key in [api]: token",
		path + ": unknown section: workers",
	}, cfg.Warnings)

	// Rejected values keep the defaults
	assert.Equal(t, domain.BackendHTTP, cfg.API.Backend)
	assert.Equal(t, domain.DefaultAPITimeout, cfg.API.Timeout)
	assert.Equal(t, domain.DefaultTick, cfg.Timer.Tick)
	assert.Equal(t, domain.DefaultWorkTime/60, cfg.Pomodoro.WorkMinutes)
}

func TestLoader_Load_TemplateRoundTrip(t *testing.T) {
	workDir := t.TempDir()
	content, err := domain.RenderConfigTemplate(domain.NewDefaultConfig())
	require.NoError(t, err)
	writeFile(t, domain.LocalConfigPath(workDir), content)

	cfg, err := NewLoaderWithGlobalDir(workDir, t.TempDir()).Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Warnings)
	assert.Equal(t, domain.NewDefaultConfig(), cfg)
}
