package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/usecase/shared"
)

// ShowTaskInput contains the parameters for showing a task.
type ShowTaskInput struct {
	TaskID int // Task ID to show
}

// ShowTaskOutput contains the task details.
// Fields are ordered to minimize memory padding.
type ShowTaskOutput struct {
	Task         *domain.Task     // The task with its subtree
	Countdown    string           // Time until start, or time left of the estimate
	Role         domain.Role      // Relation of the current user to the task
	Actions      []domain.Action  // Actions the current user may perform now
	Sittings     []domain.Sitting // Recorded work, most recent first
	SittingTotal int              // Sum of sitting durations in seconds
}

// ShowTask is the use case for displaying task details.
// Fields are ordered to minimize memory padding.
type ShowTask struct {
	board  *Board
	work   domain.WorkLog
	kv     domain.KeyValueStore
	clock  domain.Clock
	logger domain.Logger
}

// NewShowTask creates a new ShowTask use case.
func NewShowTask(board *Board, work domain.WorkLog, kv domain.KeyValueStore, clock domain.Clock, logger domain.Logger) *ShowTask {
	return &ShowTask{
		board:  board,
		work:   work,
		kv:     kv,
		clock:  clock,
		logger: logger,
	}
}

// Execute retrieves the task, the current user's permissions and its sittings.
// A failure to load sittings is logged and shows an empty list.
func (uc *ShowTask) Execute(ctx context.Context, in ShowTaskInput) (*ShowTaskOutput, error) {
	task, err := uc.board.Get(ctx, in.TaskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	out := &ShowTaskOutput{Task: task, Role: domain.RoleOther}
	user, err := shared.CurrentUser(uc.kv)
	switch {
	case err == nil:
		out.Role = domain.RoleOf(task, user)
		out.Actions = domain.AllowedActions(task, user)
	case !errors.Is(err, domain.ErrNotLoggedIn):
		return nil, err
	}

	if task.StartDate != nil {
		out.Countdown = domain.Countdown(*task.StartDate, domain.TotalTime(task), uc.clock.Now())
	}

	sittings, err := uc.work.ListSittings(ctx, task.ID)
	if err != nil {
		uc.logger.Warn(task.ID, "timer", fmt.Sprintf("load sittings: %v", err))
		sittings = nil
	}
	out.Sittings = domain.NewestFirst(sittings)
	out.SittingTotal = domain.TotalDuration(sittings)
	return out, nil
}
