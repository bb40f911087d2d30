package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/usecase/shared"
)

// NewTaskInput contains the parameters for creating a new task.
// Fields are ordered to minimize memory padding.
type NewTaskInput struct {
	StartDate   time.Time       // Required
	EndDate     time.Time       // Deadline, required
	ParentID    *int            // Parent task ID (optional, nil = root task)
	Title       string          // Task title (required)
	Description string          // Task description (required)
	Assignee    string          // Assignee name (required)
	Unit        domain.TimeUnit // Unit of Estimate (empty = minutes)
	Estimate    int             // Estimated time in Unit, must be positive
}

// NewTaskOutput contains the result of creating a new task.
type NewTaskOutput struct {
	Task   *domain.Task // The created task
	Parent *domain.Task // The parent with its recomputed estimate (nil for a root task)
}

// NewTask is the use case for creating a root task or a subtask.
// Fields are ordered to minimize memory padding.
type NewTask struct {
	board    *Board
	tasks    domain.TaskService
	users    domain.UserDirectory
	kv       domain.KeyValueStore
	inflight *shared.InFlight
	logger   domain.Logger
}

// NewNewTask creates a new NewTask use case.
func NewNewTask(board *Board, tasks domain.TaskService, users domain.UserDirectory, kv domain.KeyValueStore, inflight *shared.InFlight, logger domain.Logger) *NewTask {
	return &NewTask{
		board:    board,
		tasks:    tasks,
		users:    users,
		kv:       kv,
		inflight: inflight,
		logger:   logger,
	}
}

// Execute validates the input and creates the task.
// Subtasks can only be added by the parent's creator while the parent is in progress.
func (uc *NewTask) Execute(ctx context.Context, in NewTaskInput) (*NewTaskOutput, error) {
	user, err := shared.CurrentUser(uc.kv)
	if err != nil {
		return nil, err
	}

	req := domain.NewTaskRequest{
		ParentID:         in.ParentID,
		Title:            in.Title,
		Description:      in.Description,
		AssignedUserName: in.Assignee,
		Status:           domain.StatusInProgress,
		UserID:           user.ID,
		EstimatedTime:    domain.ToMinutes(in.Estimate, in.Unit),
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := uc.board.Get(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return nil, domain.ErrParentNotFound
			}
			return nil, fmt.Errorf("get parent task: %w", err)
		}
		if err := domain.Permit(domain.ActionAddSubtask, parent, user); err != nil {
			return nil, err
		}
		if _, ok := uc.inflight.Begin(parent.ID, domain.ActionAddSubtask); !ok {
			return nil, fmt.Errorf("add subtask to #%d: %w", parent.ID, domain.ErrBusy)
		}
		defer uc.inflight.End(parent.ID, domain.ActionAddSubtask)
	}

	assigneeID, err := shared.ResolveAssignee(ctx, uc.users, in.Assignee)
	if err != nil {
		return nil, err
	}
	req.AssignedUserID = assigneeID

	created, err := uc.tasks.CreateTask(ctx, req)
	if err != nil {
		uc.logger.Error(0, "task", fmt.Sprintf("create failed: %v", err))
		return nil, fmt.Errorf("create task: %w", err)
	}
	if created.ParentID == nil && in.ParentID != nil {
		pid := *in.ParentID
		created.ParentID = &pid
	}

	out := &NewTaskOutput{Task: created}
	inserted, err := uc.board.Insert(created)
	if err != nil {
		return nil, err
	}
	if created.ParentID != nil {
		out.Parent = inserted
	}

	uc.logger.Info(created.ID, "task", fmt.Sprintf("created: %q", created.Title))
	return out, nil
}
