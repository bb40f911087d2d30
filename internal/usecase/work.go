package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/usecase/shared"
	"github.com/runoshun/taskflow/internal/worktimer"
)

// TimerFactory builds the work timer of a task.
type TimerFactory func(taskID int) *worktimer.Engine

// StartWorkInput contains the parameters for starting a work session.
type StartWorkInput struct {
	TaskID   int
	Pomodoro bool // Alternate work and break phases instead of one manual sitting
}

// StartWorkOutput contains the running timer.
type StartWorkOutput struct {
	Task    *domain.Task
	Timer   *worktimer.Engine
	Resumed bool // True if an interrupted session was picked up instead of starting a new one
}

// StartWork is the use case for starting, or resuming, the work timer of a task.
type StartWork struct {
	board  *Board
	kv     domain.KeyValueStore
	timers TimerFactory
	logger domain.Logger
}

// NewStartWork creates a new StartWork use case.
func NewStartWork(board *Board, kv domain.KeyValueStore, timers TimerFactory, logger domain.Logger) *StartWork {
	return &StartWork{
		board:  board,
		kv:     kv,
		timers: timers,
		logger: logger,
	}
}

// Execute loads the timer of the task and starts it. A checkpoint left by an
// interrupted session is resumed in its own mode; a stale one is closed first.
// A session still ticking in another process is refused with domain.ErrTimerRunning.
func (uc *StartWork) Execute(ctx context.Context, in StartWorkInput) (*StartWorkOutput, error) {
	if _, err := shared.CurrentUser(uc.kv); err != nil {
		return nil, err
	}
	task, err := uc.board.Get(ctx, in.TaskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	timer := uc.timers(in.TaskID)
	timer.Load(ctx)
	resumed, err := timer.Restore(ctx)
	if errors.Is(err, domain.ErrTimerRunning) {
		return nil, err
	}
	if err != nil {
		uc.logger.Warn(in.TaskID, "timer", fmt.Sprintf("restore: %v", err))
	}
	if resumed {
		return &StartWorkOutput{Task: task, Timer: timer, Resumed: true}, nil
	}

	if in.Pomodoro {
		err = timer.StartPomodoro(ctx)
	} else {
		err = timer.StartManual(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &StartWorkOutput{Task: task, Timer: timer}, nil
}

// StopWorkInput contains the task whose session to stop.
type StopWorkInput struct {
	TaskID int
	Force  bool // Close a session that is still ticking in another process
}

// StopWorkOutput contains the sitting recorded on stop, if any.
type StopWorkOutput struct {
	Sitting *domain.Sitting
	Total   int // Seconds recorded on the task after stopping
}

// StopWork is the use case for closing the checkpointed session of a task
// whose process is gone.
type StopWork struct {
	timers TimerFactory
}

// NewStopWork creates a new StopWork use case.
func NewStopWork(timers TimerFactory) *StopWork {
	return &StopWork{timers: timers}
}

// Execute resumes the session from its checkpoint and stops it, waiting for the
// sittings to be saved. A live session is refused with domain.ErrTimerRunning
// unless Force is set; the process running it then goes idle without recording.
func (uc *StopWork) Execute(ctx context.Context, in StopWorkInput) (*StopWorkOutput, error) {
	timer := uc.timers(in.TaskID)
	timer.Load(ctx)
	restore := timer.Restore
	if in.Force {
		restore = timer.Takeover
	}
	resumed, err := restore(ctx)
	if err != nil {
		return nil, err
	}
	if !resumed {
		timer.Wait()
		return nil, domain.ErrTimerIdle
	}
	s, err := timer.Stop(ctx)
	if err != nil {
		return nil, err
	}
	timer.Wait()
	return &StopWorkOutput{Sitting: s, Total: timer.TotalSittingTime()}, nil
}

// WorkStatusInput contains the task to inspect.
type WorkStatusInput struct {
	TaskID int
}

// WorkStatusOutput describes the checkpointed session of a task.
// Fields are ordered to minimize memory padding.
type WorkStatusOutput struct {
	Checkpoint domain.Checkpoint
	Age        time.Duration // Time since the last tick
	Running    bool
}

// WorkStatus is the use case for reading a task's session checkpoint without touching it.
type WorkStatus struct {
	kv    domain.KeyValueStore
	clock domain.Clock
}

// NewWorkStatus creates a new WorkStatus use case.
func NewWorkStatus(kv domain.KeyValueStore, clock domain.Clock) *WorkStatus {
	return &WorkStatus{kv: kv, clock: clock}
}

// Execute reads the checkpoint.
func (uc *WorkStatus) Execute(_ context.Context, in WorkStatusInput) (*WorkStatusOutput, error) {
	var cp domain.Checkpoint
	ok, err := uc.kv.Get(domain.CheckpointKey(in.TaskID), &cp)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	if !ok || !cp.Working {
		return &WorkStatusOutput{}, nil
	}
	return &WorkStatusOutput{
		Checkpoint: cp,
		Age:        uc.clock.Now().Sub(cp.LastTick),
		Running:    true,
	}, nil
}
