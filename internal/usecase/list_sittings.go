package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/taskflow/internal/domain"
)

// ListSittingsInput contains the task to list sittings for.
type ListSittingsInput struct {
	TaskID int
}

// ListSittingsOutput contains the sittings, most recent first, and their total.
type ListSittingsOutput struct {
	Sittings []domain.Sitting
	Total    int // Seconds
}

// ListSittings is the use case for listing recorded work on a task.
type ListSittings struct {
	work domain.WorkLog
}

// NewListSittings creates a new ListSittings use case.
func NewListSittings(work domain.WorkLog) *ListSittings {
	return &ListSittings{work: work}
}

// Execute returns the task's sittings.
func (uc *ListSittings) Execute(ctx context.Context, in ListSittingsInput) (*ListSittingsOutput, error) {
	sittings, err := uc.work.ListSittings(ctx, in.TaskID)
	if err != nil {
		return nil, fmt.Errorf("list sittings: %w", err)
	}
	return &ListSittingsOutput{
		Sittings: domain.NewestFirst(sittings),
		Total:    domain.TotalDuration(sittings),
	}, nil
}
