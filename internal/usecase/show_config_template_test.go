package usecase

import (
	"context"
	"testing"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowConfigTemplate_Execute(t *testing.T) {
	cfg := domain.NewDefaultConfig()
	cfg.Pomodoro.WorkMinutes = 50

	uc := NewShowConfigTemplate()
	out, err := uc.Execute(context.Background(), ShowConfigTemplateInput{Config: cfg})

	require.NoError(t, err)
	assert.Contains(t, out.Template, "[api]")
	assert.Contains(t, out.Template, "[pomodoro]")
	assert.Contains(t, out.Template, "work_minutes = 50")
}

func TestShowConfigTemplate_Execute_NilConfig(t *testing.T) {
	uc := NewShowConfigTemplate()
	_, err := uc.Execute(context.Background(), ShowConfigTemplateInput{})
	assert.Error(t, err)
}
