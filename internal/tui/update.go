package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/runoshun/taskflow/internal/domain"
)

// Update handles messages and returns the updated model and any commands.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.timer != nil {
			_, cmd := m.timer.Update(msg)
			return m, cmd
		}
		return m, nil

	case MsgTasksLoaded:
		m.setGroups(msg.Groups)
		m.totalTime = msg.TotalTime
		return m, nil

	case MsgRefresh:
		return m, m.loadTasks(true)

	case MsgTaskTransitioned:
		m.err = nil
		if msg.Applied {
			m.notice = fmt.Sprintf("#%d %s: %s", msg.Task.ID, msg.Action, msg.Task.Status.Display())
		} else {
			m.notice = fmt.Sprintf("#%d %s: a newer update was already applied", msg.Task.ID, msg.Action)
		}
		return m, m.loadTasks(false)

	case MsgTaskDeleted:
		m.mode = ModeNormal
		m.confirmAction = ConfirmNone
		m.notice = fmt.Sprintf("Deleted task #%d (%d task(s) removed)", msg.TaskID, msg.Removed)
		return m, m.loadTasks(false)

	case MsgDetailLoaded:
		m.detail = msg.Detail
		m.mode = ModeDetail
		return m, nil

	case MsgWorkStarted:
		m.err = nil
		m.timer = NewTimer(msg.Task, msg.Timer, m.container.AppConfig.Timer.Tick, msg.Resumed)
		m.mode = ModeTimer
		if m.width > 0 {
			m.timer.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		}
		return m, m.timer.Init()

	case MsgTimerTick:
		if m.timer == nil {
			return m, nil
		}
		_, cmd := m.timer.Update(msg)
		return m, cmd

	case MsgTimerStopped:
		if m.timer != nil {
			m.timer.Update(msg)
		}
		m.timer = nil
		m.mode = ModeNormal
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.notice = stoppedNotice(msg)
		return m, nil

	case MsgError:
		m.err = msg.Err
		m.mode = ModeNormal
		m.confirmAction = ConfirmNone
		return m, nil

	case MsgClearError:
		m.err = nil
		return m, nil
	}

	return m, nil
}

// handleKeyMsg dispatches keys by mode.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeTimer:
		if m.timer == nil {
			m.mode = ModeNormal
			return m, nil
		}
		_, cmd := m.timer.Update(msg)
		return m, cmd
	case ModeConfirm:
		return m.handleConfirmMode(msg)
	case ModeHelp:
		return m.handleHelpMode(msg)
	case ModeDetail:
		return m.handleDetailMode(msg)
	case ModeNormal:
		return m.handleNormalMode(msg)
	}
	return m, nil
}

// handleNormalMode handles keys on the board.
func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.notice = ""
		return m, m.loadTasks(true)
	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		m.err = nil
		m.notice = ""
		return m, nil
	}

	task := m.SelectedTask()
	if task == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Detail):
		return m, m.loadDetail(task.ID)
	case key.Matches(msg, m.keys.RequestApproval):
		return m, m.transition(domain.ActionRequestApproval, task.ID)
	case key.Matches(msg, m.keys.Approve):
		return m, m.transition(domain.ActionApprove, task.ID)
	case key.Matches(msg, m.keys.Reject):
		return m, m.transition(domain.ActionReject, task.ID)
	case key.Matches(msg, m.keys.Revert):
		return m, m.transition(domain.ActionRevert, task.ID)
	case key.Matches(msg, m.keys.Complete):
		return m.confirm(ConfirmComplete, task.ID)
	case key.Matches(msg, m.keys.Delete):
		return m.confirm(ConfirmDelete, task.ID)
	case key.Matches(msg, m.keys.Work):
		return m, m.startWork(task.ID, false)
	case key.Matches(msg, m.keys.Pomodoro):
		return m, m.startWork(task.ID, true)
	}
	return m, nil
}

// confirm enters the confirmation dialog for action on a task.
func (m *Model) confirm(action ConfirmAction, taskID int) (tea.Model, tea.Cmd) {
	m.mode = ModeConfirm
	m.confirmAction = action
	m.confirmTaskID = taskID
	return m, nil
}

// handleConfirmMode handles keys in the confirmation dialog.
func (m *Model) handleConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		action, id := m.confirmAction, m.confirmTaskID
		m.mode = ModeNormal
		m.confirmAction = ConfirmNone
		switch action {
		case ConfirmNone:
			// Nothing to confirm
		case ConfirmDelete:
			return m, m.deleteTask(id)
		case ConfirmComplete:
			return m, m.transition(domain.ActionComplete, id)
		}
		return m, nil
	default:
		m.mode = ModeNormal
		m.confirmAction = ConfirmNone
		return m, nil
	}
}

// handleHelpMode closes the help overlay.
func (m *Model) handleHelpMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Quit):
		m.mode = ModeNormal
		return m, nil
	}

	return m, nil
}

// handleDetailMode handles keys in the detail view.
func (m *Model) handleDetailMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Detail), key.Matches(msg, m.keys.Quit):
		m.mode = ModeNormal
		m.detail = nil
		return m, nil
	}
	return m, nil
}
