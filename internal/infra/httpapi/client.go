// Package httpapi implements the persistence ports against the team task service REST API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/runoshun/taskflow/internal/domain"
)

// Ensure Client implements domain.Backend.
var _ domain.Backend = (*Client)(nil)

// TokenSource returns the bearer token of the current session, or "" when logged out.
type TokenSource func() string

// Client talks to the REST service.
// Fields are ordered to minimize memory padding.
type Client struct {
	http    *http.Client
	logger  domain.Logger
	token   TokenSource
	baseURL string
}

// New creates a new Client for baseURL (e.g. "http://127.0.0.1:8000/api").
func New(baseURL string, timeout time.Duration, token TokenSource, logger domain.Logger) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// statusError is a non-2xx response.
type statusError struct {
	body   errorBody
	method string
	path   string
	code   int
}

func (e *statusError) Error() string {
	msg := e.body.Message
	if msg == "" {
		msg = http.StatusText(e.code)
	}
	return fmt.Sprintf("%s %s: %d %s", e.method, e.path, e.code, msg)
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug(0, "api", fmt.Sprintf("%s %s", method, path))
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(0, "api", fmt.Sprintf("%s %s: %v", method, path, err))
		return fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", domain.ErrTransport, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &statusError{method: method, path: path, code: resp.StatusCode}
		_ = json.Unmarshal(data, &se.body)
		if resp.StatusCode >= 500 {
			c.logger.Warn(0, "api", se.Error())
		}
		return se
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", domain.ErrTransport, method, path, err)
	}
	return nil
}

// translate maps a status error to the domain error of the call.
// action is empty for calls outside the lifecycle.
func translate(err error, taskID int, action domain.Action) error {
	var se *statusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", se, domain.ErrNotLoggedIn)
	case http.StatusForbidden:
		if action != "" {
			return &domain.PermissionError{Action: action, TaskID: taskID}
		}
		return fmt.Errorf("%s: %w", se, domain.ErrPermissionDenied)
	case http.StatusNotFound:
		return fmt.Errorf("task #%d: %w", taskID, domain.ErrTaskNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", se, domain.ErrInvalidTransition)
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return se.body.validationError()
	default:
		return fmt.Errorf("%s: %w", se, domain.ErrTransport)
	}
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/login", loginBody{Email: email, Password: password}, &resp)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.code == http.StatusUnauthorized || se.code == http.StatusUnprocessableEntity) {
			return nil, fmt.Errorf("login: %w", domain.ErrPermissionDenied)
		}
		return nil, translate(err, 0, "")
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: login response without token", domain.ErrTransport)
	}
	return &domain.Session{Token: resp.Token, User: resp.User.toDomain()}, nil
}

// Signup registers a new user and returns its session.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*domain.Session, error) {
	var resp loginResponse
	body := signupBody{Name: name, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/signup", body, &resp); err != nil {
		return nil, translate(err, 0, "")
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: signup response without token", domain.ErrTransport)
	}
	return &domain.Session{Token: resp.Token, User: resp.User.toDomain()}, nil
}

// ListUsers returns the user directory.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var resp []wireUser
	if err := c.do(ctx, http.MethodGet, "/users", nil, &resp); err != nil {
		return nil, translate(err, 0, "")
	}
	users := make([]domain.User, len(resp))
	for i, u := range resp {
		users[i] = u.toDomain()
	}
	return users, nil
}

// ListTasks returns root tasks with subtasks inlined.
func (c *Client) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	var resp []*wireTask
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &resp); err != nil {
		return nil, translate(err, 0, "")
	}
	tasks := make([]*domain.Task, 0, len(resp))
	for _, w := range resp {
		// Subtasks are listed under their parent.
		if w.ParentID != nil {
			continue
		}
		tasks = append(tasks, w.toDomain())
	}
	return tasks, nil
}

// CreateTask creates a root task or a subtask.
func (c *Client) CreateTask(ctx context.Context, req domain.NewTaskRequest) (*domain.Task, error) {
	var resp wireTask
	if err := c.do(ctx, http.MethodPost, "/tasks", newCreateTaskBody(req), &resp); err != nil {
		parent := 0
		if req.ParentID != nil {
			parent = *req.ParentID
		}
		err = translate(err, parent, "")
		if parent != 0 && errors.Is(err, domain.ErrTaskNotFound) {
			return nil, fmt.Errorf("task #%d: %w", parent, domain.ErrParentNotFound)
		}
		return nil, err
	}
	return resp.toDomain(), nil
}

// UpdateTask applies a partial update and returns the stored task.
func (c *Client) UpdateTask(ctx context.Context, id int, update domain.TaskUpdate) (*domain.Task, error) {
	var resp wireTask
	if err := c.do(ctx, http.MethodPut, taskPath(id, ""), newUpdateTaskBody(update), &resp); err != nil {
		return nil, translate(err, id, domain.ActionEdit)
	}
	return resp.toDomain(), nil
}

// DeleteTask removes a task and its subtree. A missing task is not an error.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	err := c.do(ctx, http.MethodDelete, taskPath(id, ""), nil, nil)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusNotFound {
		c.logger.Warn(id, "api", "task not found or already deleted")
		return nil
	}
	if err != nil {
		return translate(err, id, domain.ActionDelete)
	}
	return nil
}

// lifecycle posts to /tasks/:id/<suffix> and returns the updated task.
func (c *Client) lifecycle(ctx context.Context, id int, suffix string, action domain.Action) (*domain.Task, error) {
	var resp wireTask
	if err := c.do(ctx, http.MethodPost, taskPath(id, suffix), nil, &resp); err != nil {
		return nil, translate(err, id, action)
	}
	return resp.toDomain(), nil
}

// RequestApproval moves an in-progress task to pending approval.
func (c *Client) RequestApproval(ctx context.Context, id int) (*domain.Task, error) {
	return c.lifecycle(ctx, id, "/request-approval", domain.ActionRequestApproval)
}

// Approve completes a task pending approval.
func (c *Client) Approve(ctx context.Context, id int) (*domain.Task, error) {
	return c.lifecycle(ctx, id, "/approve", domain.ActionApprove)
}

// Reject sends a task pending approval back to in progress.
func (c *Client) Reject(ctx context.Context, id int) (*domain.Task, error) {
	return c.lifecycle(ctx, id, "/reject", domain.ActionReject)
}

// Complete marks a task completed without approval.
func (c *Client) Complete(ctx context.Context, id int) (*domain.Task, error) {
	return c.lifecycle(ctx, id, "/complete", domain.ActionComplete)
}

// RevertToInProgress withdraws an approval request.
func (c *Client) RevertToInProgress(ctx context.Context, id int) (*domain.Task, error) {
	return c.lifecycle(ctx, id, "/revert-to-in-progress", domain.ActionRevert)
}

// GetPomodoroSettings returns the settings stored for a task.
func (c *Client) GetPomodoroSettings(ctx context.Context, taskID int) (domain.PomodoroSettings, error) {
	var resp wireSettings
	if err := c.do(ctx, http.MethodGet, taskPath(taskID, "/pomodoro-settings"), nil, &resp); err != nil {
		return domain.PomodoroSettings{}, translate(err, taskID, "")
	}
	return domain.PomodoroSettings{WorkTime: resp.WorkTime, BreakTime: resp.BreakTime}, nil
}

// SavePomodoroSettings stores the settings of a task.
func (c *Client) SavePomodoroSettings(ctx context.Context, taskID int, settings domain.PomodoroSettings) error {
	body := settingsBody{WorkTime: settings.WorkTime, BreakTime: settings.BreakTime}
	if err := c.do(ctx, http.MethodPost, taskPath(taskID, "/pomodoro-settings"), body, nil); err != nil {
		return translate(err, taskID, "")
	}
	return nil
}

// SaveSitting records a completed sitting.
func (c *Client) SaveSitting(ctx context.Context, taskID int, sitting domain.Sitting) error {
	if err := c.do(ctx, http.MethodPost, taskPath(taskID, "/sittings"), newSittingBody(sitting), nil); err != nil {
		return translate(err, taskID, "")
	}
	return nil
}

// ListSittings returns the sittings of a task in the order the service stores them.
func (c *Client) ListSittings(ctx context.Context, taskID int) ([]domain.Sitting, error) {
	var resp []wireSitting
	if err := c.do(ctx, http.MethodGet, taskPath(taskID, "/sittings"), nil, &resp); err != nil {
		return nil, translate(err, taskID, "")
	}
	sittings := make([]domain.Sitting, len(resp))
	for i, s := range resp {
		sittings[i] = domain.Sitting{
			Start:    s.Start.Time,
			End:      s.End.Time,
			ID:       string(s.ID),
			Duration: s.Duration,
		}
	}
	return sittings, nil
}
