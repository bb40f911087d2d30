package domain

import (
	"fmt"
	"time"
)

// Sitting is one contiguous block of recorded work. It is never mutated after creation.
// Fields are ordered to minimize memory padding.
type Sitting struct {
	Start    time.Time `json:"start_time"`
	End      time.Time `json:"end_time"`
	ID       string    `json:"id,omitempty"` // Client-generated, makes saves idempotent
	Duration int       `json:"duration"`     // Seconds
}

// TotalDuration returns the sum of sitting durations in seconds.
func TotalDuration(sittings []Sitting) int {
	total := 0
	for _, s := range sittings {
		total += s.Duration
	}
	return total
}

// NewestFirst returns a copy of sittings ordered most-recent-first.
func NewestFirst(sittings []Sitting) []Sitting {
	out := make([]Sitting, len(sittings))
	for i, s := range sittings {
		out[len(sittings)-1-i] = s
	}
	return out
}

// Default Pomodoro durations in seconds.
const (
	DefaultWorkTime  = 25 * 60
	DefaultBreakTime = 5 * 60
)

// PomodoroSettings configures the work/break cycle of a task.
type PomodoroSettings struct {
	WorkTime  int  `json:"workTime"`  // Seconds
	BreakTime int  `json:"breakTime"` // Seconds
	IsBreak   bool `json:"isBreak"`   // Current phase, client-side only
}

// DefaultPomodoroSettings returns the 25 minute work / 5 minute break cycle.
func DefaultPomodoroSettings() PomodoroSettings {
	return PomodoroSettings{WorkTime: DefaultWorkTime, BreakTime: DefaultBreakTime}
}

// Validate checks that both durations are positive.
func (p PomodoroSettings) Validate() error {
	if p.WorkTime <= 0 {
		return &ValidationError{Field: "workTime", Message: "Work time cannot be empty."}
	}
	if p.BreakTime <= 0 {
		return &ValidationError{Field: "breakTime", Message: "Break time cannot be empty."}
	}
	return nil
}

// WithDefaults fills zero durations with the defaults.
func (p PomodoroSettings) WithDefaults() PomodoroSettings {
	if p.WorkTime <= 0 {
		p.WorkTime = DefaultWorkTime
	}
	if p.BreakTime <= 0 {
		p.BreakTime = DefaultBreakTime
	}
	return p
}

// WorkDuration returns the work phase length.
func (p PomodoroSettings) WorkDuration() time.Duration {
	return time.Duration(p.WorkTime) * time.Second
}

// BreakDuration returns the break phase length.
func (p PomodoroSettings) BreakDuration() time.Duration {
	return time.Duration(p.BreakTime) * time.Second
}

// Checkpoint is the durable snapshot of an in-progress work session.
// Fields are ordered to minimize memory padding.
type Checkpoint struct {
	SessionStart  time.Time        `json:"workStartTime"`
	PhaseStart    time.Time        `json:"phaseStartTime"`
	PhaseEnd      time.Time        `json:"phaseEndTime"`
	LastTick      time.Time        `json:"lastTick"`
	Settings      PomodoroSettings `json:"pomodoroSettings"`
	Owner         string           `json:"owner,omitempty"`    // Engine instance that last wrote the checkpoint
	Remaining     int              `json:"pomodoroTime"`       // Seconds left in the current phase
	Elapsed       int              `json:"currentSittingTime"` // Seconds since session start
	Working       bool             `json:"isWorking"`
	UsingPomodoro bool             `json:"isUsingPomodoro"`
}

// CheckpointKey returns the key-value store key of a task's checkpoint.
func CheckpointKey(taskID int) string {
	return fmt.Sprintf("workTimer_%d", taskID)
}
