package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/usecase/shared"
)

// CreateTasksFromFileInput contains the parameters for creating tasks from a file.
type CreateTasksFromFileInput struct {
	ParentID *int   // Attach the top-level drafts under this task (optional)
	Content  string // File content (YAML task drafts)
	DryRun   bool   // If true, parse and validate without creating tasks
}

// CreatedTask represents a task that was created from file input.
// Fields are ordered to minimize memory padding.
type CreatedTask struct {
	ParentID      *int
	Title         string
	Assignee      string
	ID            int // Pseudo-ID (1-based draft index) in dry-run mode
	EstimatedTime int
	Depth         int
}

// CreateTasksFromFileOutput contains the result of creating tasks from a file.
type CreateTasksFromFileOutput struct {
	Tasks []CreatedTask // Created tasks (or tasks that would be created in dry-run mode)
}

// CreateTasksFromFile is the use case for creating a task tree from a file.
// Fields are ordered to minimize memory padding.
type CreateTasksFromFile struct {
	board  *Board
	tasks  domain.TaskService
	users  domain.UserDirectory
	kv     domain.KeyValueStore
	clock  domain.Clock
	logger domain.Logger
}

// NewCreateTasksFromFile creates a new CreateTasksFromFile use case.
func NewCreateTasksFromFile(
	board *Board,
	tasks domain.TaskService,
	users domain.UserDirectory,
	kv domain.KeyValueStore,
	clock domain.Clock,
	logger domain.Logger,
) *CreateTasksFromFile {
	return &CreateTasksFromFile{
		board:  board,
		tasks:  tasks,
		users:  users,
		kv:     kv,
		clock:  clock,
		logger: logger,
	}
}

// Execute validates every draft, then creates them parents first.
// Nothing is created if any draft is invalid. A failure midway leaves the tasks
// created so far in place; they are listed in the output alongside the error.
func (uc *CreateTasksFromFile) Execute(ctx context.Context, in CreateTasksFromFileInput) (*CreateTasksFromFileOutput, error) {
	user, err := shared.CurrentUser(uc.kv)
	if err != nil {
		return nil, err
	}
	drafts, err := domain.ParseTaskDrafts(in.Content)
	if err != nil {
		return nil, err
	}
	flat, err := domain.FlattenDrafts(drafts, uc.clock.Now().Location())
	if err != nil {
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
	}

	users, err := uc.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	reqs := make([]domain.NewTaskRequest, len(flat))
	depths := make([]int, len(flat))
	for i, f := range flat {
		req := domain.NewTaskRequest{
			Title:            f.Draft.Title,
			Description:      f.Draft.Description,
			AssignedUserName: f.Draft.Assignee,
			Status:           domain.StatusInProgress,
			UserID:           user.ID,
			EstimatedTime:    f.Minutes,
			StartDate:        f.Start,
			EndDate:          f.Deadline,
		}
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("task %d (%q): %w", i+1, f.Draft.Title, err)
		}
		u, ok := domain.FindUserByName(users, req.AssignedUserName)
		if !ok {
			return nil, fmt.Errorf("task %d (%q): %q: %w", i+1, f.Draft.Title, req.AssignedUserName, domain.ErrUserNotFound)
		}
		req.AssignedUserID = u.ID
		reqs[i] = req
		if f.Parent >= 0 {
			depths[i] = depths[f.Parent] + 1
		}
	}

	if in.DryRun {
		return dryRunDrafts(flat, reqs, depths, in.ParentID), nil
	}

	result := &CreateTasksFromFileOutput{Tasks: make([]CreatedTask, 0, len(flat))}
	ids := make([]int, len(flat))
	for i, f := range flat {
		req := reqs[i]
		switch {
		case f.Parent >= 0:
			pid := ids[f.Parent]
			req.ParentID = &pid
		case in.ParentID != nil:
			pid := *in.ParentID
			req.ParentID = &pid
		}

		created, err := uc.tasks.CreateTask(ctx, req)
		if err != nil {
			uc.logger.Error(0, "task", fmt.Sprintf("import failed at %q: %v", req.Title, err))
			return result, fmt.Errorf("create task %q: %w", req.Title, err)
		}
		if created.ParentID == nil && req.ParentID != nil {
			created.ParentID = req.ParentID
		}
		ids[i] = created.ID
		if _, err := uc.board.Insert(created); err != nil {
			uc.logger.Warn(created.ID, "task", fmt.Sprintf("board insert: %v", err))
		}
		uc.logger.Info(created.ID, "task", fmt.Sprintf("imported: %q", created.Title))

		result.Tasks = append(result.Tasks, CreatedTask{
			ID:            created.ID,
			ParentID:      created.ParentID,
			Title:         created.Title,
			Assignee:      created.AssignedUserName,
			EstimatedTime: req.EstimatedTime,
			Depth:         depths[i],
		})
	}
	return result, nil
}

// dryRunDrafts lists the tasks that would be created, using 1-based draft indices as IDs.
func dryRunDrafts(flat []domain.FlatDraft, reqs []domain.NewTaskRequest, depths []int, parentID *int) *CreateTasksFromFileOutput {
	result := &CreateTasksFromFileOutput{Tasks: make([]CreatedTask, 0, len(flat))}
	for i, f := range flat {
		var pid *int
		switch {
		case f.Parent >= 0:
			p := f.Parent + 1
			pid = &p
		case parentID != nil:
			p := *parentID
			pid = &p
		}
		result.Tasks = append(result.Tasks, CreatedTask{
			ID:            i + 1,
			ParentID:      pid,
			Title:         reqs[i].Title,
			Assignee:      reqs[i].AssignedUserName,
			EstimatedTime: reqs[i].EstimatedTime,
			Depth:         depths[i],
		})
	}
	return result
}
