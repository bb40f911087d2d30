package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/runoshun/taskflow/internal/domain"
)

// requestTimeLayout is the timestamp format sent to the service (local time, no zone).
const requestTimeLayout = "2006-01-02T15:04:05"

// timeLayouts are accepted when decoding timestamps from the service.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	requestTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// wireTime decodes the several timestamp formats the service emits.
type wireTime struct {
	time.Time
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if v, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (t wireTime) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// wireID accepts both numeric and string identifiers.
type wireID string

func (id *wireID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = wireID(n.String())
	return nil
}

// wireTask is a task as the service encodes it.
// Fields are ordered to minimize memory padding.
type wireTask struct {
	CreatedAt        wireTime    `json:"created_at"`
	UpdatedAt        wireTime    `json:"updated_at"`
	StartDate        wireTime    `json:"start_date"`
	EndDate          wireTime    `json:"end_date"`
	ParentID         *int        `json:"parent_task_id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Status           string      `json:"status"`
	AssignedUserName string      `json:"assigned_user_name"`
	Subtasks         []*wireTask `json:"subtasks"`
	ID               int         `json:"id"`
	UserID           int         `json:"user_id"`
	AssignedUserID   int         `json:"assigned_user_id"`
	EstimatedTime    int         `json:"estimated_time"`
}

// toDomain converts the task and its subtree iteratively.
func (w *wireTask) toDomain() *domain.Task {
	type pending struct {
		src *wireTask
		dst *domain.Task
	}
	root := w.node()
	stack := []pending{{w, root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(p.src.Subtasks) == 0 {
			continue
		}
		p.dst.Subtasks = make([]*domain.Task, len(p.src.Subtasks))
		for i, st := range p.src.Subtasks {
			p.dst.Subtasks[i] = st.node()
			stack = append(stack, pending{st, p.dst.Subtasks[i]})
		}
	}
	return root
}

func (w *wireTask) node() *domain.Task {
	return &domain.Task{
		CreatedAt:        w.CreatedAt.Time,
		UpdatedAt:        w.UpdatedAt.Time,
		StartDate:        w.StartDate.ptr(),
		EndDate:          w.EndDate.ptr(),
		ParentID:         w.ParentID,
		Title:            w.Title,
		Description:      w.Description,
		Status:           domain.Status(w.Status),
		AssignedUserName: w.AssignedUserName,
		ID:               w.ID,
		UserID:           w.UserID,
		AssignedUserID:   w.AssignedUserID,
		EstimatedTime:    w.EstimatedTime,
	}
}

// createTaskBody is the payload of POST /tasks.
type createTaskBody struct {
	ParentID         *int   `json:"parent_task_id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Status           string `json:"status"`
	AssignedUserName string `json:"assigned_user_name"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	UserID           int    `json:"user_id"`
	AssignedUserID   int    `json:"assigned_user_id"`
	EstimatedTime    int    `json:"estimated_time"`
}

func newCreateTaskBody(req domain.NewTaskRequest) createTaskBody {
	status := req.Status
	if status == "" {
		status = domain.StatusInProgress
	}
	return createTaskBody{
		ParentID:         req.ParentID,
		Title:            req.Title,
		Description:      req.Description,
		Status:           string(status),
		AssignedUserName: req.AssignedUserName,
		StartDate:        req.StartDate.Local().Format(requestTimeLayout),
		EndDate:          req.EndDate.Local().Format(requestTimeLayout),
		UserID:           req.UserID,
		AssignedUserID:   req.AssignedUserID,
		EstimatedTime:    req.EstimatedTime,
	}
}

// updateTaskBody is the payload of PUT /tasks/:id. Only set fields are sent.
type updateTaskBody struct {
	Title            *string `json:"title,omitempty"`
	Description      *string `json:"description,omitempty"`
	AssignedUserName *string `json:"assigned_user_name,omitempty"`
	AssignedUserID   *int    `json:"assigned_user_id,omitempty"`
	EstimatedTime    *int    `json:"estimated_time,omitempty"`
}

func newUpdateTaskBody(u domain.TaskUpdate) updateTaskBody {
	return updateTaskBody{
		Title:            u.Title,
		Description:      u.Description,
		AssignedUserName: u.AssignedUserName,
		AssignedUserID:   u.AssignedUserID,
		EstimatedTime:    u.EstimatedTime,
	}
}

// wireSettings is the GET /tasks/:id/pomodoro-settings response.
type wireSettings struct {
	WorkTime  int `json:"work_time"`
	BreakTime int `json:"break_time"`
}

// settingsBody is the POST /tasks/:id/pomodoro-settings payload.
type settingsBody struct {
	WorkTime  int `json:"workTime"`
	BreakTime int `json:"breakTime"`
}

// wireSitting is a sitting as the service encodes it.
type wireSitting struct {
	Start    wireTime `json:"start_time"`
	End      wireTime `json:"end_time"`
	ID       wireID   `json:"id"`
	Duration int      `json:"duration"`
}

// sittingBody is the POST /tasks/:id/sittings payload.
type sittingBody struct {
	ID       string `json:"client_id,omitempty"`
	Start    string `json:"start_time"`
	End      string `json:"end_time"`
	Duration int    `json:"duration"`
}

func newSittingBody(s domain.Sitting) sittingBody {
	return sittingBody{
		ID:       s.ID,
		Start:    s.Start.UTC().Format(time.RFC3339),
		End:      s.End.UTC().Format(time.RFC3339),
		Duration: s.Duration,
	}
}

// loginBody is the POST /login payload.
type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signupBody is the POST /signup payload.
type signupBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// wireUser is a user as the service encodes it.
type wireUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	ID    int    `json:"id"`
}

func (u wireUser) toDomain() domain.User {
	return domain.User{Name: u.Name, Email: u.Email, Role: u.Role, ID: u.ID}
}

// loginResponse is the POST /login response.
type loginResponse struct {
	Token string   `json:"token"`
	User  wireUser `json:"user"`
}

// errorBody is the error payload of the service (Laravel style).
type errorBody struct {
	Errors  map[string][]string `json:"errors"`
	Message string              `json:"message"`
}

// validationError returns the first field error in deterministic order.
func (e errorBody) validationError() *domain.ValidationError {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		msg := e.Message
		if msg == "" {
			msg = "rejected by the service"
		}
		return &domain.ValidationError{Field: "request", Message: msg}
	}
	sort.Strings(fields)
	msgs := e.Errors[fields[0]]
	return &domain.ValidationError{Field: fields[0], Message: strings.Join(msgs, " ")}
}

func taskPath(id int, suffix string) string {
	return "/tasks/" + strconv.Itoa(id) + suffix
}
