package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/runoshun/taskflow/internal/app"
	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/usecase"
	"github.com/runoshun/taskflow/internal/usecase/shared"
)

// row is one line of the board: a group header or a task at a tree depth.
type row struct {
	task  *domain.Task
	label string // Group label; empty for task rows
	depth int
}

// Model is the main bubbletea model for the task board.
type Model struct {
	// Dependencies (pointers first for alignment)
	container *app.Container
	err       error
	detail    *usecase.ShowTaskOutput
	timer     *TimerModel

	// State (slices - contain pointers)
	groups []domain.TaskGroup
	rows   []row

	// Components
	keys   KeyMap
	styles Styles
	help   help.Model

	user   domain.User
	notice string

	// Numeric state (smaller types last)
	mode          Mode
	confirmAction ConfirmAction
	cursor        int
	confirmTaskID int
	totalTime     int
	width         int
	height        int
}

// New creates a new board Model with the given container.
func New(c *app.Container) *Model {
	user, _ := shared.CurrentUser(c.KV)
	return &Model{
		container: c,
		mode:      ModeNormal,
		keys:      DefaultKeyMap(),
		styles:    DefaultStyles(),
		help:      help.New(),
		user:      user,
	}
}

// Init initializes the model and returns the initial command.
func (m *Model) Init() tea.Cmd {
	return m.loadTasks(true)
}

// loadTasks returns a command that lists the board, reloading it from the
// service when refresh is set.
func (m *Model) loadTasks(refresh bool) tea.Cmd {
	return func() tea.Msg {
		out, err := m.container.ListTasksUseCase().Execute(context.Background(), usecase.ListTasksInput{Refresh: refresh})
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgTasksLoaded{Groups: out.Groups, TotalTime: out.TotalTime}
	}
}

// SelectedTask returns the task under the cursor, or nil if none.
func (m *Model) SelectedTask() *domain.Task {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].task
}

// setGroups rebuilds the rows and keeps the cursor on the same task if it still exists.
func (m *Model) setGroups(groups []domain.TaskGroup) {
	selected := 0
	if t := m.SelectedTask(); t != nil {
		selected = t.ID
	}

	m.groups = groups
	m.rows = m.rows[:0]
	for _, g := range groups {
		m.rows = append(m.rows, row{label: g.Label})
		domain.Walk(g.Tasks, func(t *domain.Task, depth int) bool {
			m.rows = append(m.rows, row{task: t, depth: depth})
			return true
		})
	}

	m.cursor = -1
	for i, r := range m.rows {
		if r.task == nil {
			continue
		}
		if m.cursor < 0 {
			m.cursor = i
		}
		if r.task.ID == selected {
			m.cursor = i
			break
		}
	}
}

// moveCursor moves to the next task row in direction dir (+1 or -1), skipping headers.
func (m *Model) moveCursor(dir int) {
	for i := m.cursor + dir; i >= 0 && i < len(m.rows); i += dir {
		if m.rows[i].task != nil {
			m.cursor = i
			return
		}
	}
}

// transition returns a command that runs a lifecycle action on a task.
func (m *Model) transition(action domain.Action, taskID int) tea.Cmd {
	c := m.container
	return func() tea.Msg {
		in := usecase.TransitionInput{TaskID: taskID}
		ctx := context.Background()
		var (
			out *usecase.TransitionOutput
			err error
		)
		switch action {
		case domain.ActionRequestApproval:
			out, err = c.RequestApprovalUseCase().Execute(ctx, in)
		case domain.ActionApprove:
			out, err = c.ApproveTaskUseCase().Execute(ctx, in)
		case domain.ActionReject:
			out, err = c.RejectTaskUseCase().Execute(ctx, in)
		case domain.ActionRevert:
			out, err = c.RevertTaskUseCase().Execute(ctx, in)
		case domain.ActionComplete:
			out, err = c.CompleteTaskUseCase().Execute(ctx, in)
		default:
			return MsgError{Err: fmt.Errorf("%s: %w", action, domain.ErrInvalidTransition)}
		}
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgTaskTransitioned{Task: out.Task, Action: action, Applied: out.Applied}
	}
}

// deleteTask returns a command that deletes a task.
func (m *Model) deleteTask(taskID int) tea.Cmd {
	return func() tea.Msg {
		out, err := m.container.DeleteTaskUseCase().Execute(
			context.Background(),
			usecase.DeleteTaskInput{TaskID: taskID},
		)
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgTaskDeleted{TaskID: taskID, Removed: out.Removed}
	}
}

// loadDetail returns a command that loads the detail view of a task.
func (m *Model) loadDetail(taskID int) tea.Cmd {
	return func() tea.Msg {
		out, err := m.container.ShowTaskUseCase().Execute(
			context.Background(),
			usecase.ShowTaskInput{TaskID: taskID},
		)
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgDetailLoaded{Detail: out}
	}
}

// startWork returns a command that starts or resumes the work timer of a task.
func (m *Model) startWork(taskID int, pomodoro bool) tea.Cmd {
	return func() tea.Msg {
		out, err := m.container.StartWorkUseCase().Execute(
			context.Background(),
			usecase.StartWorkInput{TaskID: taskID, Pomodoro: pomodoro},
		)
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgWorkStarted{Task: out.Task, Timer: out.Timer, Resumed: out.Resumed}
	}
}
