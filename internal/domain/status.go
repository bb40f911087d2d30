package domain

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusInProgress      Status = "in_progress"      // Being worked on
	StatusPendingApproval Status = "pending_approval" // Assignee asked the creator to approve
	StatusCompleted       Status = "completed"        // Approved or marked completed by the creator
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{
		StatusInProgress,
		StatusPendingApproval,
		StatusCompleted,
	}
}

// IsTerminal returns true if no transition leaves the status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	switch s {
	case StatusInProgress, StatusPendingApproval, StatusCompleted:
		return true
	default:
		return false
	}
}

// Display returns a human-readable representation of the status.
func (s Status) Display() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusPendingApproval:
		return "Pending Approval"
	case StatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// Role is the relation of the acting user to a task.
type Role string

const (
	RoleCreator  Role = "creator"
	RoleAssignee Role = "assignee"
	RoleOther    Role = "other"
)

// RoleOf returns the role of user on task.
// Creator takes precedence over assignee.
func RoleOf(task *Task, user User) Role {
	if task.UserID == user.ID {
		return RoleCreator
	}
	if task.AssignedUserName != "" && task.AssignedUserName == user.Name {
		return RoleAssignee
	}
	return RoleOther
}

// Action is a user-triggered operation on a task.
type Action string

const (
	ActionRequestApproval Action = "request_approval"
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionRevert          Action = "revert"
	ActionComplete        Action = "complete"
	ActionEdit            Action = "edit"
	ActionDelete          Action = "delete"
	ActionAddSubtask      Action = "add_subtask"
)

// rule describes who may perform an action from which statuses.
type rule struct {
	from  []Status
	actor Role
	to    Status // empty when the status does not change
}

// rules defines the allowed lifecycle actions.
// Flow: in_progress → pending_approval → completed
//
//	↑                 │
//	└── reject/revert ┘
var rules = map[Action]rule{
	ActionRequestApproval: {from: []Status{StatusInProgress}, actor: RoleAssignee, to: StatusPendingApproval},
	ActionApprove:         {from: []Status{StatusPendingApproval}, actor: RoleCreator, to: StatusCompleted},
	ActionReject:          {from: []Status{StatusPendingApproval}, actor: RoleCreator, to: StatusInProgress},
	ActionRevert:          {from: []Status{StatusPendingApproval}, actor: RoleAssignee, to: StatusInProgress},
	ActionComplete:        {from: []Status{StatusInProgress, StatusPendingApproval}, actor: RoleCreator, to: StatusCompleted},
	ActionEdit:            {from: []Status{StatusInProgress}, actor: RoleCreator},
	ActionDelete:          {from: AllStatuses(), actor: RoleCreator},
	ActionAddSubtask:      {from: []Status{StatusInProgress}, actor: RoleCreator},
}

// Permit checks whether user may perform action on task in its current status.
// It returns ErrPermissionDenied when the role does not match and
// ErrInvalidTransition when the status does not allow the action.
func Permit(action Action, task *Task, user User) error {
	r, ok := rules[action]
	if !ok {
		return ErrInvalidTransition
	}
	if RoleOf(task, user) != r.actor {
		return &PermissionError{Action: action, TaskID: task.ID}
	}
	for _, s := range r.from {
		if s == task.Status {
			return nil
		}
	}
	return &TransitionError{Action: action, From: task.Status}
}

// TargetStatus returns the status a successful action leads to.
// The second value is false for actions that leave the status unchanged.
func TargetStatus(action Action) (Status, bool) {
	r, ok := rules[action]
	if !ok || r.to == "" {
		return "", false
	}
	return r.to, true
}

// AllowedActions returns the actions user may perform on task right now, in table order.
func AllowedActions(task *Task, user User) []Action {
	order := []Action{
		ActionRequestApproval, ActionRevert, ActionApprove, ActionReject,
		ActionComplete, ActionEdit, ActionAddSubtask, ActionDelete,
	}
	var allowed []Action
	for _, a := range order {
		if Permit(a, task, user) == nil {
			allowed = append(allowed, a)
		}
	}
	return allowed
}
