package usecase

import (
	"context"

	"github.com/runoshun/taskflow/internal/domain"
)

// ListTasksInput contains the parameters for listing tasks.
type ListTasksInput struct {
	Refresh bool // Reload from the service even if the board is loaded
}

// ListTasksOutput contains the result of listing tasks.
type ListTasksOutput struct {
	Tasks     []*domain.Task     // Top-level tasks, most recently updated first
	Groups    []domain.TaskGroup // Top-level tasks bucketed by creation date
	TotalTime int                // Combined estimate in minutes
}

// ListTasks is the use case for listing the task tree.
type ListTasks struct {
	board *Board
	clock domain.Clock
}

// NewListTasks creates a new ListTasks use case.
func NewListTasks(board *Board, clock domain.Clock) *ListTasks {
	return &ListTasks{
		board: board,
		clock: clock,
	}
}

// Execute returns the task tree with date groups for display.
func (uc *ListTasks) Execute(ctx context.Context, in ListTasksInput) (*ListTasksOutput, error) {
	if in.Refresh {
		if err := uc.board.Load(ctx); err != nil {
			return nil, err
		}
	}
	tasks, err := uc.board.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	return &ListTasksOutput{
		Tasks:     tasks,
		Groups:    domain.GroupByCreated(tasks, uc.clock.Now()),
		TotalTime: domain.SumTotalTime(tasks),
	}, nil
}
