package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/usecase/shared"
)

// DeleteTaskInput contains the parameters for deleting a task.
type DeleteTaskInput struct {
	TaskID int // Task ID to delete
}

// DeleteTaskOutput contains the result of deleting a task.
type DeleteTaskOutput struct {
	Removed int // Number of tasks removed from the board, including descendants
}

// DeleteTask is the use case for deleting a task and its subtree.
// Fields are ordered to minimize memory padding.
type DeleteTask struct {
	board    *Board
	tasks    domain.TaskService
	kv       domain.KeyValueStore
	inflight *shared.InFlight
	logger   domain.Logger
}

// NewDeleteTask creates a new DeleteTask use case.
func NewDeleteTask(board *Board, tasks domain.TaskService, kv domain.KeyValueStore, inflight *shared.InFlight, logger domain.Logger) *DeleteTask {
	return &DeleteTask{
		board:    board,
		tasks:    tasks,
		kv:       kv,
		inflight: inflight,
		logger:   logger,
	}
}

// Execute deletes a task. Deleting a task that no longer exists succeeds.
func (uc *DeleteTask) Execute(ctx context.Context, in DeleteTaskInput) (*DeleteTaskOutput, error) {
	user, err := shared.CurrentUser(uc.kv)
	if err != nil {
		return nil, err
	}
	task, err := uc.board.Get(ctx, in.TaskID)
	if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
		return nil, fmt.Errorf("get task: %w", err)
	}
	removed := 0
	if task != nil {
		if err := domain.Permit(domain.ActionDelete, task, user); err != nil {
			return nil, err
		}
		domain.Walk([]*domain.Task{task}, func(*domain.Task, int) bool {
			removed++
			return true
		})
	}

	if _, ok := uc.inflight.Begin(in.TaskID, domain.ActionDelete); !ok {
		return nil, fmt.Errorf("delete task #%d: %w", in.TaskID, domain.ErrBusy)
	}
	defer uc.inflight.End(in.TaskID, domain.ActionDelete)

	if err := uc.tasks.DeleteTask(ctx, in.TaskID); err != nil {
		uc.logger.Error(in.TaskID, "lifecycle", fmt.Sprintf("delete failed: %v", err))
		return nil, fmt.Errorf("delete task: %w", err)
	}
	if !uc.board.Remove(in.TaskID) {
		removed = 0
	}
	uc.logger.Info(in.TaskID, "task", "deleted")
	return &DeleteTaskOutput{Removed: removed}, nil
}
