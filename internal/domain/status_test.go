package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	testCreator  = User{ID: 1, Name: "carol"}
	testAssignee = User{ID: 2, Name: "alice"}
	testOther    = User{ID: 3, Name: "bob"}
)

func taskWithStatus(s Status) *Task {
	return &Task{ID: 10, UserID: testCreator.ID, AssignedUserName: testAssignee.Name, Status: s}
}

func TestRoleOf(t *testing.T) {
	task := taskWithStatus(StatusInProgress)

	assert.Equal(t, RoleCreator, RoleOf(task, testCreator))
	assert.Equal(t, RoleAssignee, RoleOf(task, testAssignee))
	assert.Equal(t, RoleOther, RoleOf(task, testOther))

	// A creator assigned to their own task acts as creator.
	self := &Task{UserID: 1, AssignedUserName: "carol"}
	assert.Equal(t, RoleCreator, RoleOf(self, testCreator))

	// An empty assignee never matches.
	unassigned := &Task{UserID: 1}
	assert.Equal(t, RoleOther, RoleOf(unassigned, User{ID: 9}))
}

func TestPermit_LegalityGrid(t *testing.T) {
	type key struct {
		role   Role
		status Status
		action Action
	}
	allowed := map[key]bool{
		{RoleAssignee, StatusInProgress, ActionRequestApproval}: true,
		{RoleCreator, StatusPendingApproval, ActionApprove}:     true,
		{RoleCreator, StatusPendingApproval, ActionReject}:      true,
		{RoleAssignee, StatusPendingApproval, ActionRevert}:     true,
		{RoleCreator, StatusInProgress, ActionComplete}:         true,
		{RoleCreator, StatusPendingApproval, ActionComplete}:    true,
		{RoleCreator, StatusInProgress, ActionEdit}:             true,
		{RoleCreator, StatusInProgress, ActionDelete}:           true,
		{RoleCreator, StatusPendingApproval, ActionDelete}:      true,
		{RoleCreator, StatusCompleted, ActionDelete}:            true,
		{RoleCreator, StatusInProgress, ActionAddSubtask}:       true,
	}
	users := map[Role]User{
		RoleCreator:  testCreator,
		RoleAssignee: testAssignee,
		RoleOther:    testOther,
	}
	actions := []Action{
		ActionRequestApproval, ActionApprove, ActionReject, ActionRevert,
		ActionComplete, ActionEdit, ActionDelete, ActionAddSubtask,
	}

	for role, user := range users {
		for _, status := range AllStatuses() {
			for _, action := range actions {
				k := key{role, status, action}
				err := Permit(action, taskWithStatus(status), user)
				if allowed[k] {
					assert.NoError(t, err, "%s %s %s", role, status, action)
				} else {
					assert.Error(t, err, "%s %s %s", role, status, action)
				}
			}
		}
	}
}

func TestPermit_ErrorKinds(t *testing.T) {
	err := Permit(ActionApprove, taskWithStatus(StatusPendingApproval), testAssignee)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, "You do not have permission to approve this task.", err.Error())

	err = Permit(ActionApprove, taskWithStatus(StatusInProgress), testCreator)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	var te *TransitionError
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, StatusInProgress, te.From)

	// Completed is terminal, even for the creator's shortcut.
	err = Permit(ActionComplete, taskWithStatus(StatusCompleted), testCreator)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.ErrorIs(t, Permit(Action("reopen"), taskWithStatus(StatusCompleted), testCreator), ErrInvalidTransition)
}

func TestTargetStatus(t *testing.T) {
	tests := []struct {
		action Action
		want   Status
		ok     bool
	}{
		{ActionRequestApproval, StatusPendingApproval, true},
		{ActionApprove, StatusCompleted, true},
		{ActionReject, StatusInProgress, true},
		{ActionRevert, StatusInProgress, true},
		{ActionComplete, StatusCompleted, true},
		{ActionEdit, "", false},
		{ActionDelete, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			got, ok := TargetStatus(tt.action)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestAllowedActions(t *testing.T) {
	assert.Equal(t,
		[]Action{ActionComplete, ActionEdit, ActionAddSubtask, ActionDelete},
		AllowedActions(taskWithStatus(StatusInProgress), testCreator))
	assert.Equal(t,
		[]Action{ActionRevert},
		AllowedActions(taskWithStatus(StatusPendingApproval), testAssignee))
	assert.Empty(t, AllowedActions(taskWithStatus(StatusInProgress), testOther))
	assert.Empty(t, AllowedActions(taskWithStatus(StatusCompleted), testAssignee))
}

func TestStatus_IsValid(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Status("todo").IsValid())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.False(t, StatusPendingApproval.IsTerminal())
	assert.Equal(t, "Pending Approval", StatusPendingApproval.Display())
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, OutcomeOK},
		{&ValidationError{Field: "title", Message: "required"}, OutcomeValidation},
		{ErrNoFieldsToUpdate, OutcomeValidation},
		{&PermissionError{Action: ActionEdit}, OutcomePermission},
		{&TransitionError{Action: ActionEdit, From: StatusCompleted}, OutcomePermission},
		{ErrBusy, OutcomeBusy},
		{ErrTaskNotFound, OutcomeNotFound},
		{ErrTransport, OutcomeTransport},
		{errors.New("connection reset"), OutcomeTransport},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, OutcomeOf(tt.err))
		})
	}
}
