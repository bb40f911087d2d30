package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/taskflow/internal/domain"
)

// GetPomodoroSettingsInput contains the task to read settings for.
type GetPomodoroSettingsInput struct {
	TaskID int
}

// GetPomodoroSettingsOutput contains the effective settings.
type GetPomodoroSettingsOutput struct {
	Settings  domain.PomodoroSettings
	Defaulted bool // True if the service had none or failed and defaults were used
}

// GetPomodoroSettings is the use case for reading a task's Pomodoro settings.
type GetPomodoroSettings struct {
	work     domain.WorkLog
	logger   domain.Logger
	defaults domain.PomodoroSettings
}

// NewGetPomodoroSettings creates a new GetPomodoroSettings use case.
// defaults is used when the service has no settings for the task.
func NewGetPomodoroSettings(work domain.WorkLog, defaults domain.PomodoroSettings, logger domain.Logger) *GetPomodoroSettings {
	return &GetPomodoroSettings{
		work:     work,
		logger:   logger,
		defaults: defaults.WithDefaults(),
	}
}

// Execute returns the stored settings, falling back to the defaults on any failure.
func (uc *GetPomodoroSettings) Execute(ctx context.Context, in GetPomodoroSettingsInput) (*GetPomodoroSettingsOutput, error) {
	s, err := uc.work.GetPomodoroSettings(ctx, in.TaskID)
	if err != nil || s.Validate() != nil {
		if err != nil {
			uc.logger.Warn(in.TaskID, "timer", fmt.Sprintf("load pomodoro settings, using defaults: %v", err))
		}
		return &GetPomodoroSettingsOutput{Settings: uc.defaults, Defaulted: true}, nil
	}
	s.IsBreak = false
	return &GetPomodoroSettingsOutput{Settings: s}, nil
}

// UpdatePomodoroSettingsInput contains the new durations in seconds.
type UpdatePomodoroSettingsInput struct {
	TaskID    int
	WorkTime  int
	BreakTime int
}

// UpdatePomodoroSettingsOutput contains the saved settings.
type UpdatePomodoroSettingsOutput struct {
	Settings domain.PomodoroSettings
}

// UpdatePomodoroSettings is the use case for saving a task's Pomodoro settings.
// Settings are not gated by task status or role.
type UpdatePomodoroSettings struct {
	work   domain.WorkLog
	logger domain.Logger
}

// NewUpdatePomodoroSettings creates a new UpdatePomodoroSettings use case.
func NewUpdatePomodoroSettings(work domain.WorkLog, logger domain.Logger) *UpdatePomodoroSettings {
	return &UpdatePomodoroSettings{
		work:   work,
		logger: logger,
	}
}

// Execute validates and saves the settings.
func (uc *UpdatePomodoroSettings) Execute(ctx context.Context, in UpdatePomodoroSettingsInput) (*UpdatePomodoroSettingsOutput, error) {
	s := domain.PomodoroSettings{WorkTime: in.WorkTime, BreakTime: in.BreakTime}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := uc.work.SavePomodoroSettings(ctx, in.TaskID, s); err != nil {
		uc.logger.Error(in.TaskID, "timer", fmt.Sprintf("save pomodoro settings: %v", err))
		return nil, fmt.Errorf("save pomodoro settings: %w", err)
	}
	uc.logger.Info(in.TaskID, "timer", fmt.Sprintf("pomodoro settings: work %ds, break %ds", s.WorkTime, s.BreakTime))
	return &UpdatePomodoroSettingsOutput{Settings: s}, nil
}
