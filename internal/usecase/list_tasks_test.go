package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/runoshun/taskflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTasks_Execute_Groups(t *testing.T) {
	// Setup
	today := newTask(1, domain.StatusInProgress)
	today.CreatedAt = time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	yesterday := newTask(2, domain.StatusCompleted)
	yesterday.CreatedAt = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	older := newTask(3, domain.StatusInProgress)
	older.CreatedAt = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	f := newFixture(t, today, yesterday, older, newSubtask(4, 3, 15), newSubtask(5, 3, 20))
	uc := NewListTasks(f.board, f.clock)

	// Execute
	out, err := uc.Execute(context.Background(), ListTasksInput{})

	// Assert
	require.NoError(t, err)
	require.Len(t, out.Tasks, 3)
	assert.Equal(t, []int{3, 2, 1}, []int{out.Tasks[0].ID, out.Tasks[1].ID, out.Tasks[2].ID})
	assert.Equal(t, 30+30+35, out.TotalTime)

	labels := make([]string, len(out.Groups))
	for i, g := range out.Groups {
		labels[i] = g.Label
	}
	assert.Equal(t, []string{domain.GroupToday, domain.GroupYesterday, "March 2024"}, labels)
}

func TestListTasks_Execute_Refresh(t *testing.T) {
	f := newFixture(t, newTask(1, domain.StatusInProgress))
	uc := NewListTasks(f.board, f.clock)

	out, err := uc.Execute(context.Background(), ListTasksInput{})
	require.NoError(t, err)
	assert.Len(t, out.Tasks, 1)

	f.svc.Add(newTask(2, domain.StatusInProgress))

	out, err = uc.Execute(context.Background(), ListTasksInput{})
	require.NoError(t, err)
	assert.Len(t, out.Tasks, 1, "served from the board")

	out, err = uc.Execute(context.Background(), ListTasksInput{Refresh: true})
	require.NoError(t, err)
	assert.Len(t, out.Tasks, 2)
}

func TestListTasks_Execute_Empty(t *testing.T) {
	f := newFixture(t)
	uc := NewListTasks(f.board, f.clock)

	out, err := uc.Execute(context.Background(), ListTasksInput{})

	require.NoError(t, err)
	assert.Empty(t, out.Tasks)
	assert.Empty(t, out.Groups)
	assert.Zero(t, out.TotalTime)
}

func TestListTasks_Execute_Error(t *testing.T) {
	f := newFixture(t)
	f.svc.ListErr = domain.ErrTransport
	uc := NewListTasks(f.board, f.clock)

	_, err := uc.Execute(context.Background(), ListTasksInput{})

	assert.ErrorIs(t, err, domain.ErrTransport)
}
