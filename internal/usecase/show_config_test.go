package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/testutil"
	"github.com/runoshun/taskflow/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowConfig_Execute(t *testing.T) {
	t.Run("returns both config infos and effective config", func(t *testing.T) {
		manager := testutil.NewMockConfigManager()
		manager.LocalConfigInfo = domain.ConfigInfo{
			Path:    "/work/.taskflow.toml",
			Content: "[api]\nurl = \"http://tasks.internal/api\"",
			Exists:  true,
		}
		manager.GlobalConfigInfo = domain.ConfigInfo{
			Path:    "/home/test/.config/taskflow/config.toml",
			Content: "[log]\nlevel = \"debug\"",
			Exists:  true,
		}

		loader := testutil.NewMockConfigLoader()
		loader.Config.API.URL = "http://tasks.internal/api"
		loader.Config.Log.Level = "debug"

		uc := usecase.NewShowConfig(manager, loader)
		out, err := uc.Execute(context.Background(), usecase.ShowConfigInput{})

		require.NoError(t, err)
		assert.True(t, out.LocalConfig.Exists)
		assert.True(t, out.GlobalConfig.Exists)
		assert.Equal(t, "http://tasks.internal/api", out.Effective.API.URL)
		assert.Equal(t, "debug", out.Effective.Log.Level)
	})

	t.Run("missing files", func(t *testing.T) {
		manager := testutil.NewMockConfigManager()
		uc := usecase.NewShowConfig(manager, testutil.NewMockConfigLoader())

		out, err := uc.Execute(context.Background(), usecase.ShowConfigInput{})

		require.NoError(t, err)
		assert.False(t, out.LocalConfig.Exists)
		assert.False(t, out.GlobalConfig.Exists)
		assert.Equal(t, domain.NewDefaultConfig(), out.Effective)
	})

	t.Run("loader error", func(t *testing.T) {
		loader := testutil.NewMockConfigLoader()
		loader.LoadErr = errors.New("parse error")
		uc := usecase.NewShowConfig(testutil.NewMockConfigManager(), loader)

		_, err := uc.Execute(context.Background(), usecase.ShowConfigInput{})

		assert.EqualError(t, err, "parse error")
	})
}
