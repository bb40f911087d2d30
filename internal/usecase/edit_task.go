package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/usecase/shared"
)

// EditTaskInput contains the parameters for editing a task.
// All fields except TaskID are optional. Only non-nil fields will be updated.
type EditTaskInput struct {
	Title         *string // New title (nil = no change)
	Description   *string // New description (nil = no change)
	Assignee      *string // New assignee name, resolved through the user directory
	EstimatedTime *int    // New estimate in minutes, leaf tasks only
	TaskID        int     // Task ID to edit (required)
}

// EditTaskOutput contains the result of editing a task.
type EditTaskOutput struct {
	Task    *domain.Task // The updated task
	Applied bool         // False if a newer response for the task had already been applied
}

// EditTask is the use case for editing an existing task.
// Fields are ordered to minimize memory padding.
type EditTask struct {
	board    *Board
	tasks    domain.TaskService
	users    domain.UserDirectory
	kv       domain.KeyValueStore
	inflight *shared.InFlight
	logger   domain.Logger
}

// NewEditTask creates a new EditTask use case.
func NewEditTask(board *Board, tasks domain.TaskService, users domain.UserDirectory, kv domain.KeyValueStore, inflight *shared.InFlight, logger domain.Logger) *EditTask {
	return &EditTask{
		board:    board,
		tasks:    tasks,
		users:    users,
		kv:       kv,
		inflight: inflight,
		logger:   logger,
	}
}

// Execute edits a task with the given input.
// Only the creator may edit, and only while the task is in progress.
func (uc *EditTask) Execute(ctx context.Context, in EditTaskInput) (*EditTaskOutput, error) {
	user, err := shared.CurrentUser(uc.kv)
	if err != nil {
		return nil, err
	}
	task, err := uc.board.Get(ctx, in.TaskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if err := domain.Permit(domain.ActionEdit, task, user); err != nil {
		return nil, err
	}

	update := domain.TaskUpdate{
		Title:            in.Title,
		Description:      in.Description,
		AssignedUserName: in.Assignee,
		EstimatedTime:    in.EstimatedTime,
	}
	if err := update.Validate(task); err != nil {
		return nil, err
	}
	if in.Assignee != nil {
		id, err := shared.ResolveAssignee(ctx, uc.users, *in.Assignee)
		if err != nil {
			return nil, err
		}
		update.AssignedUserID = &id
	}

	seq, ok := uc.inflight.Begin(in.TaskID, domain.ActionEdit)
	if !ok {
		return nil, fmt.Errorf("edit task #%d: %w", in.TaskID, domain.ErrBusy)
	}
	defer uc.inflight.End(in.TaskID, domain.ActionEdit)

	updated, err := uc.tasks.UpdateTask(ctx, in.TaskID, update)
	if err != nil {
		uc.logger.Error(in.TaskID, "lifecycle", fmt.Sprintf("edit failed: %v", err))
		return nil, fmt.Errorf("update task: %w", err)
	}

	if !uc.inflight.Accept(in.TaskID, seq) {
		uc.logger.Warn(in.TaskID, "lifecycle", "edit response discarded: a newer response was applied")
		current, err := uc.board.Get(ctx, in.TaskID)
		if err != nil {
			return nil, fmt.Errorf("get task: %w", err)
		}
		return &EditTaskOutput{Task: current}, nil
	}

	applied, ok := uc.board.Apply(updated)
	if !ok {
		return &EditTaskOutput{Task: updated}, nil
	}
	uc.logger.Info(in.TaskID, "task", fmt.Sprintf("edited: %q", applied.Title))
	return &EditTaskOutput{Task: applied, Applied: true}, nil
}
