package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/runoshun/taskflow/internal/domain"
)

// Board owns the in-memory task tree. Lifecycle use cases fold service
// responses back into it; readers get copies.
// The top-level list is kept ordered by UpdatedAt, newest first. Subtasks keep
// insertion order. Every non-leaf estimate is derived from its subtasks.
type Board struct {
	tasks  domain.TaskService
	tree   []*domain.Task
	mu     sync.RWMutex
	loaded bool
}

// NewBoard creates an empty Board backed by the task service.
func NewBoard(tasks domain.TaskService) *Board {
	return &Board{tasks: tasks}
}

// Load replaces the tree with the service's current task list.
func (b *Board) Load(ctx context.Context) error {
	list, err := b.tasks.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	tree := domain.SortByRecent(domain.NormalizeEstimates(list))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tree = tree
	b.loaded = true
	return nil
}

// ensureLoaded loads the tree on first use.
func (b *Board) ensureLoaded(ctx context.Context) error {
	b.mu.RLock()
	loaded := b.loaded
	b.mu.RUnlock()
	if loaded {
		return nil
	}
	return b.Load(ctx)
}

// Tasks returns a copy of the top-level tasks.
func (b *Board) Tasks(ctx context.Context) ([]*domain.Task, error) {
	if err := b.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*domain.Task, len(b.tree))
	for i, t := range b.tree {
		out[i] = t.Clone()
	}
	return out, nil
}

// Get returns a copy of the task with id at any depth.
func (b *Board) Get(ctx context.Context, id int) (*domain.Task, error) {
	if err := b.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	t := domain.FindNode(b.tree, id)
	if t == nil {
		return nil, domain.ErrTaskNotFound
	}
	return t.Clone(), nil
}

// Apply replaces the stored copy of task with the service's version and returns the
// resulting node. A response without subtasks keeps the local subtasks, since the
// lifecycle endpoints return the task alone. The second value is false if the task
// is no longer on the board.
func (b *Board) Apply(task *domain.Task) (*domain.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	current := domain.FindNode(b.tree, task.ID)
	if current == nil {
		return nil, false
	}
	replacement := task.Clone()
	if len(replacement.Subtasks) == 0 && len(current.Subtasks) > 0 {
		replacement.Subtasks = current.Subtasks
	}
	tree, _ := domain.ReplaceNode(b.tree, task.ID, replacement)
	b.tree = domain.SortByRecent(tree)
	return domain.FindNode(b.tree, task.ID).Clone(), true
}

// Insert adds a newly created task: appended to its parent's subtasks, or as a
// top-level task when it has no parent. Returns the updated parent, or the task
// itself for a top-level insert.
func (b *Board) Insert(task *domain.Task) (*domain.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if task.ParentID == nil {
		b.tree = domain.SortByRecent(append(b.tree, task.Clone()))
		return task.Clone(), nil
	}
	tree, ok := domain.InsertSubtask(b.tree, *task.ParentID, task.Clone())
	if !ok {
		return nil, domain.ErrParentNotFound
	}
	b.tree = domain.SortByRecent(tree)
	return domain.FindNode(b.tree, *task.ParentID).Clone(), nil
}

// Remove drops the task with id and its subtree. Returns false if it was not on the board.
func (b *Board) Remove(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	tree, ok := domain.RemoveNode(b.tree, id)
	b.tree = tree
	return ok
}

// TotalTime returns the combined estimate of all top-level tasks in minutes.
func (b *Board) TotalTime() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return domain.SumTotalTime(b.tree)
}
