// Package usecase contains the application use cases.
package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/usecase/shared"
)

// TransitionInput contains the parameters for a lifecycle transition.
type TransitionInput struct {
	TaskID int // Task to transition
}

// TransitionOutput contains the result of a lifecycle transition.
type TransitionOutput struct {
	Task    *domain.Task // Task as stored on the board after the call
	Applied bool         // False if a newer response for the task had already been applied
}

// transition runs one lifecycle action against the service:
// permission check, busy guard, the call, then reconciliation into the board.
// Fields are ordered to minimize memory padding.
type transition struct {
	board    *Board
	kv       domain.KeyValueStore
	inflight *shared.InFlight
	logger   domain.Logger
	call     func(ctx context.Context, id int) (*domain.Task, error)
	action   domain.Action
}

func (tr *transition) execute(ctx context.Context, in TransitionInput) (*TransitionOutput, error) {
	user, err := shared.CurrentUser(tr.kv)
	if err != nil {
		return nil, err
	}
	task, err := tr.board.Get(ctx, in.TaskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if err := domain.Permit(tr.action, task, user); err != nil {
		return nil, err
	}

	seq, ok := tr.inflight.Begin(in.TaskID, tr.action)
	if !ok {
		return nil, fmt.Errorf("%s task #%d: %w", tr.action, in.TaskID, domain.ErrBusy)
	}
	defer tr.inflight.End(in.TaskID, tr.action)

	updated, err := tr.call(ctx, in.TaskID)
	if err != nil {
		tr.logger.Error(in.TaskID, "lifecycle", fmt.Sprintf("%s failed: %v", tr.action, err))
		return nil, fmt.Errorf("%s task #%d: %w", tr.action, in.TaskID, err)
	}

	if !tr.inflight.Accept(in.TaskID, seq) {
		tr.logger.Warn(in.TaskID, "lifecycle", fmt.Sprintf("%s response discarded: a newer response was applied", tr.action))
		current, err := tr.board.Get(ctx, in.TaskID)
		if err != nil {
			return nil, fmt.Errorf("get task: %w", err)
		}
		return &TransitionOutput{Task: current}, nil
	}

	applied, ok := tr.board.Apply(updated)
	if !ok {
		return &TransitionOutput{Task: updated}, nil
	}
	tr.logger.Info(in.TaskID, "lifecycle", fmt.Sprintf("%s: %s -> %s", tr.action, task.Status, applied.Status))
	return &TransitionOutput{Task: applied, Applied: true}, nil
}

// RequestApproval is the use case for an assignee asking the creator to approve a task.
type RequestApproval struct {
	tr transition
}

// NewRequestApproval creates a new RequestApproval use case.
func NewRequestApproval(board *Board, tasks domain.TaskService, kv domain.KeyValueStore, inflight *shared.InFlight, logger domain.Logger) *RequestApproval {
	return &RequestApproval{tr: transition{
		board: board, kv: kv, inflight: inflight, logger: logger,
		action: domain.ActionRequestApproval, call: tasks.RequestApproval,
	}}
}

// Execute moves an in-progress task to pending approval.
func (uc *RequestApproval) Execute(ctx context.Context, in TransitionInput) (*TransitionOutput, error) {
	return uc.tr.execute(ctx, in)
}

// ApproveTask is the use case for a creator approving a task pending approval.
type ApproveTask struct {
	tr transition
}

// NewApproveTask creates a new ApproveTask use case.
func NewApproveTask(board *Board, tasks domain.TaskService, kv domain.KeyValueStore, inflight *shared.InFlight, logger domain.Logger) *ApproveTask {
	return &ApproveTask{tr: transition{
		board: board, kv: kv, inflight: inflight, logger: logger,
		action: domain.ActionApprove, call: tasks.Approve,
	}}
}

// Execute completes a task pending approval.
func (uc *ApproveTask) Execute(ctx context.Context, in TransitionInput) (*TransitionOutput, error) {
	return uc.tr.execute(ctx, in)
}

// RejectTask is the use case for a creator sending a task back to in progress.
type RejectTask struct {
	tr transition
}

// NewRejectTask creates a new RejectTask use case.
func NewRejectTask(board *Board, tasks domain.TaskService, kv domain.KeyValueStore, inflight *shared.InFlight, logger domain.Logger) *RejectTask {
	return &RejectTask{tr: transition{
		board: board, kv: kv, inflight: inflight, logger: logger,
		action: domain.ActionReject, call: tasks.Reject,
	}}
}

// Execute moves a task pending approval back to in progress.
func (uc *RejectTask) Execute(ctx context.Context, in TransitionInput) (*TransitionOutput, error) {
	return uc.tr.execute(ctx, in)
}

// RevertTask is the use case for an assignee withdrawing an approval request.
type RevertTask struct {
	tr transition
}

// NewRevertTask creates a new RevertTask use case.
func NewRevertTask(board *Board, tasks domain.TaskService, kv domain.KeyValueStore, inflight *shared.InFlight, logger domain.Logger) *RevertTask {
	return &RevertTask{tr: transition{
		board: board, kv: kv, inflight: inflight, logger: logger,
		action: domain.ActionRevert, call: tasks.RevertToInProgress,
	}}
}

// Execute moves a task pending approval back to in progress.
func (uc *RevertTask) Execute(ctx context.Context, in TransitionInput) (*TransitionOutput, error) {
	return uc.tr.execute(ctx, in)
}

// CompleteTask is the use case for a creator marking a task completed without approval.
type CompleteTask struct {
	tr transition
}

// NewCompleteTask creates a new CompleteTask use case.
func NewCompleteTask(board *Board, tasks domain.TaskService, kv domain.KeyValueStore, inflight *shared.InFlight, logger domain.Logger) *CompleteTask {
	return &CompleteTask{tr: transition{
		board: board, kv: kv, inflight: inflight, logger: logger,
		action: domain.ActionComplete, call: tasks.Complete,
	}}
}

// Execute marks a task completed. Completed tasks are rejected with ErrInvalidTransition.
func (uc *CompleteTask) Execute(ctx context.Context, in TransitionInput) (*TransitionOutput, error) {
	return uc.tr.execute(ctx, in)
}
