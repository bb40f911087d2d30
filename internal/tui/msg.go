package tui

import (
	"github.com/runoshun/taskflow/internal/domain"
	"github.com/runoshun/taskflow/internal/usecase"
	"github.com/runoshun/taskflow/internal/worktimer"
)

// Msg is the sealed interface for all TUI messages.
// All message types must implement the sealed() method.
//
// go-sumtype:decl Msg
type Msg interface {
	sealed()
}

// MsgTasksLoaded is sent when tasks are loaded from the service.
type MsgTasksLoaded struct {
	Groups    []domain.TaskGroup
	TotalTime int // Minutes
}

func (MsgTasksLoaded) sealed() {}

// MsgTaskTransitioned is sent when a lifecycle action finished.
type MsgTaskTransitioned struct {
	Task    *domain.Task
	Action  domain.Action
	Applied bool
}

func (MsgTaskTransitioned) sealed() {}

// MsgTaskDeleted is sent when a task is deleted.
type MsgTaskDeleted struct {
	TaskID  int
	Removed int
}

func (MsgTaskDeleted) sealed() {}

// MsgDetailLoaded is sent when the detail of the selected task is loaded.
type MsgDetailLoaded struct {
	Detail *usecase.ShowTaskOutput
}

func (MsgDetailLoaded) sealed() {}

// MsgWorkStarted is sent when the work timer of a task is running.
type MsgWorkStarted struct {
	Task    *domain.Task
	Timer   *worktimer.Engine
	Resumed bool
}

func (MsgWorkStarted) sealed() {}

// MsgTimerTick is sent at the timer sampling interval.
type MsgTimerTick struct{}

func (MsgTimerTick) sealed() {}

// MsgTimerStopped is sent when the timer was stopped and its sittings saved.
type MsgTimerStopped struct {
	Sitting *domain.Sitting
	Err     error
	Total   int // Seconds recorded on the task
}

func (MsgTimerStopped) sealed() {}

// MsgError is sent when an error occurs.
type MsgError struct {
	Err error
}

func (MsgError) sealed() {}

// MsgClearError is sent to clear the current error message.
type MsgClearError struct{}

func (MsgClearError) sealed() {}

// MsgRefresh is sent by the scheduled board refresh.
type MsgRefresh struct{}

func (MsgRefresh) sealed() {}
