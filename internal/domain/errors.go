package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrParentNotFound    = errors.New("parent task not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrValidation        = errors.New("validation failed")
	ErrTransport         = errors.New("persistence service unavailable")
	ErrBusy              = errors.New("action already in flight")
	ErrTimerRunning      = errors.New("work timer already running")
	ErrTimerIdle         = errors.New("work timer not running")
	ErrNotLoggedIn       = errors.New("not logged in (run 'taskflow login' first)")
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrNoFieldsToUpdate  = errors.New("no fields to update")
	ErrEmptyFile         = errors.New("file is empty")
	ErrNoTasksInFile     = errors.New("no tasks found in file")
	ErrInvalidTimeUnit   = errors.New("invalid time unit")
	ErrConfigExists      = errors.New("config file already exists")
)

// ValidationError reports an invalid input field before any call to the service.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is reports ErrValidation so callers can match the category.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PermissionError reports an action the acting user is not allowed to perform.
type PermissionError struct {
	Action Action
	TaskID int
}

func (e *PermissionError) Error() string {
	return permissionMessage(e.Action)
}

// Is reports ErrPermissionDenied.
func (e *PermissionError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// permissionMessage returns the user-facing text for a denied action.
func permissionMessage(action Action) string {
	switch action {
	case ActionRequestApproval:
		return "You do not have permission to request approval for this task."
	case ActionApprove:
		return "You do not have permission to approve this task."
	case ActionReject:
		return "You do not have permission to reject this task."
	case ActionComplete:
		return "You do not have permission to mark this task as completed."
	case ActionRevert:
		return "You do not have permission to revert this task."
	case ActionEdit:
		return "You do not have permission to edit this task."
	case ActionDelete:
		return "You do not have permission to delete this task."
	case ActionAddSubtask:
		return "You do not have permission to add a subtask to this task."
	default:
		return "You do not have permission to perform this action."
	}
}

// TransitionError reports an action that the task's status does not allow.
type TransitionError struct {
	Action Action
	From   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a task in %s status", e.Action, e.From)
}

// Is reports ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Outcome classifies the result of a lifecycle or timer operation.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeValidation
	OutcomePermission
	OutcomeTransport
	OutcomeBusy
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeValidation:
		return "validation"
	case OutcomePermission:
		return "permission"
	case OutcomeTransport:
		return "transport"
	case OutcomeBusy:
		return "busy"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// OutcomeOf classifies err. Unknown errors count as transport failures.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrEmptyTitle), errors.Is(err, ErrNoFieldsToUpdate):
		return OutcomeValidation
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrInvalidTransition):
		return OutcomePermission
	case errors.Is(err, ErrBusy):
		return OutcomeBusy
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, ErrParentNotFound), errors.Is(err, ErrUserNotFound):
		return OutcomeNotFound
	default:
		return OutcomeTransport
	}
}
