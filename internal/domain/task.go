// Package domain contains core business entities and interfaces.
package domain

import (
	"strings"
	"time"
)

// Task is a node in the task tree.
// Fields are ordered to minimize memory padding.
type Task struct {
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"` // Deadline
	ParentID         *int       `json:"parent_task_id"`     // nil = root task
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           Status     `json:"status"`
	AssignedUserName string     `json:"assigned_user_name"`
	Subtasks         []*Task    `json:"subtasks"` // Insertion order
	ID               int        `json:"id"`
	UserID           int        `json:"user_id"` // Creator
	AssignedUserID   int        `json:"assigned_user_id"`
	EstimatedTime    int        `json:"estimated_time"` // Minutes; derived for non-leaf tasks
}

// IsRoot returns true if this is a root task (no parent).
func (t *Task) IsRoot() bool {
	return t.ParentID == nil
}

// IsLeaf returns true if the task has no subtasks.
func (t *Task) IsLeaf() bool {
	return len(t.Subtasks) == 0
}

// Clone returns a deep copy of the task and its subtree.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	root := t.cloneNode()
	stack := []*Task{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Subtasks == nil {
			continue
		}
		subtasks := make([]*Task, len(n.Subtasks))
		for i, st := range n.Subtasks {
			subtasks[i] = st.cloneNode()
			stack = append(stack, subtasks[i])
		}
		n.Subtasks = subtasks
	}
	return root
}

// cloneNode copies the node's own fields. Subtasks still point at the originals.
func (t *Task) cloneNode() *Task {
	c := *t
	if t.StartDate != nil {
		d := *t.StartDate
		c.StartDate = &d
	}
	if t.EndDate != nil {
		d := *t.EndDate
		c.EndDate = &d
	}
	if t.ParentID != nil {
		p := *t.ParentID
		c.ParentID = &p
	}
	return &c
}

// User is an entry of the user directory.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	ID    int    `json:"id"`
}

// FindUserByName returns the user with the given name.
func FindUserByName(users []User, name string) (User, bool) {
	for _, u := range users {
		if u.Name == name {
			return u, true
		}
	}
	return User{}, false
}

// NewTaskRequest is the payload for creating a task through the service.
// Fields are ordered to minimize memory padding.
type NewTaskRequest struct {
	StartDate        time.Time
	EndDate          time.Time
	ParentID         *int
	Title            string
	Description      string
	AssignedUserName string
	Status           Status
	UserID           int
	AssignedUserID   int
	EstimatedTime    int // Minutes
}

// Validate checks the required fields before any call to the service.
func (r NewTaskRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return &ValidationError{Field: "title", Message: "Task title is required"}
	case strings.TrimSpace(r.Description) == "":
		return &ValidationError{Field: "description", Message: "Task description is required"}
	case r.EstimatedTime <= 0:
		return &ValidationError{Field: "estimated_time", Message: "Estimated time must be greater than 0"}
	case r.AssignedUserName == "":
		return &ValidationError{Field: "assigned_user_name", Message: "Please assign the task to a user"}
	case r.StartDate.IsZero():
		return &ValidationError{Field: "start_date", Message: "Start date is required"}
	case r.EndDate.IsZero():
		return &ValidationError{Field: "end_date", Message: "Deadline is required"}
	case r.EndDate.Before(r.StartDate):
		return &ValidationError{Field: "end_date", Message: "Deadline must not be before the start date"}
	}
	return nil
}

// TaskUpdate is a partial update of the editable task fields.
// Nil fields are left unchanged.
type TaskUpdate struct {
	Title            *string
	Description      *string
	AssignedUserName *string
	AssignedUserID   *int
	EstimatedTime    *int
}

// IsEmpty returns true if no field is set.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.AssignedUserName == nil &&
		u.AssignedUserID == nil && u.EstimatedTime == nil
}

// Validate checks an update against the task it applies to.
// Estimated time can only be edited on leaf tasks.
func (u TaskUpdate) Validate(task *Task) error {
	if u.IsEmpty() {
		return ErrNoFieldsToUpdate
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return &ValidationError{Field: "title", Message: "Task title is required"}
	}
	if u.AssignedUserName != nil && *u.AssignedUserName == "" {
		return &ValidationError{Field: "assigned_user_name", Message: "Please assign the task to a user"}
	}
	if u.EstimatedTime != nil {
		if !task.IsLeaf() {
			return &ValidationError{Field: "estimated_time", Message: "Estimated time of a task with subtasks is the sum of its subtasks"}
		}
		if *u.EstimatedTime <= 0 {
			return &ValidationError{Field: "estimated_time", Message: "Estimated time must be greater than 0"}
		}
	}
	return nil
}

// Apply returns a copy of task with the update applied.
func (u TaskUpdate) Apply(task *Task) *Task {
	c := task.Clone()
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.AssignedUserName != nil {
		c.AssignedUserName = *u.AssignedUserName
	}
	if u.AssignedUserID != nil {
		c.AssignedUserID = *u.AssignedUserID
	}
	if u.EstimatedTime != nil {
		c.EstimatedTime = *u.EstimatedTime
	}
	return c
}
