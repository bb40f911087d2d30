package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/taskflow/internal/app"
	"github.com/runoshun/taskflow/internal/domain"
)

// newConfigTestContainer creates an app.Container with real config infrastructure
// over temporary directories.
func newConfigTestContainer(t *testing.T, localConfig string) (*app.Container, app.Config) {
	t.Helper()

	cfg := app.Config{
		WorkDir:   t.TempDir(),
		GlobalDir: filepath.Join(t.TempDir(), "taskflow"),
		StateDir:  t.TempDir(),
	}
	if localConfig != "" {
		require.NoError(t, os.WriteFile(domain.LocalConfigPath(cfg.WorkDir), []byte(localConfig), 0o600))
	}

	c, err := app.NewWithConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, cfg
}

func TestConfigShowCommand(t *testing.T) {
	c, cfg := newConfigTestContainer(t, "[pomodoro]\nwork_minutes = 50\n")

	out, err := execute(newConfigCommand(c), "show")
	require.NoError(t, err)

	assert.Contains(t, out, "[Loaded from]")
	assert.Contains(t, out, filepath.Join(cfg.GlobalDir, domain.ConfigFileName)+" (not found)")
	assert.Contains(t, out, "- "+domain.LocalConfigPath(cfg.WorkDir)+"\n")
	assert.Contains(t, out, "[Effective Config]")
	assert.Contains(t, out, "work_minutes = 50")
	assert.Contains(t, out, "break_minutes = 5")
	assert.Contains(t, out, domain.DefaultAPITimeout.String())
}

func TestConfigTemplateCommand(t *testing.T) {
	c, _ := newConfigTestContainer(t, "")

	out, err := execute(newConfigCommand(c), "template")
	require.NoError(t, err)

	assert.Contains(t, out, "# taskflow configuration")
	assert.Contains(t, out, "[pomodoro]")
	assert.Contains(t, out, "work_minutes = 25")
	assert.Contains(t, out, `backend = "http"`)
}

func TestConfigInitCommand(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		c, cfg := newConfigTestContainer(t, "")
		path := domain.LocalConfigPath(cfg.WorkDir)

		out, err := execute(newConfigCommand(c), "init")
		require.NoError(t, err)
		assert.Contains(t, out, "Created config file: "+path)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "[timer]")

		_, err = execute(newConfigCommand(c), "init")
		assert.ErrorIs(t, err, domain.ErrConfigExists)
	})

	t.Run("global", func(t *testing.T) {
		c, cfg := newConfigTestContainer(t, "")

		out, err := execute(newConfigCommand(c), "init", "--global")
		require.NoError(t, err)

		path := filepath.Join(cfg.GlobalDir, domain.ConfigFileName)
		assert.Contains(t, out, "Created config file: "+path)
		assert.FileExists(t, path)
	})
}
